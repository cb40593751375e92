package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"clinicsched/internal/availability"
	"clinicsched/internal/service/booking"
	"clinicsched/internal/store/postgres"
	grpcTransport "clinicsched/internal/transport/grpc"
	"clinicsched/internal/transport/params"
)

type checkFlags struct {
	date      string
	startTime string
	serviceID string
	periodID  string
	mode      string
	server    string
}

var errRejected = errors.New("booking rejected")

func checkCmd(configFile *string) *cobra.Command {
	var f checkFlags

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate a booking against current data without writing it",
		Long: "Runs the booking validator for one date and start time and prints the result as JSON.\n" +
			"With --server the check is made through a running server's staff gRPC API; otherwise\n" +
			"the database is read directly.",
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				v   availability.BookingValidation
				err error
			)
			if f.server != "" {
				v, err = checkRemote(cmd.Context(), f)
			} else {
				v, err = checkLocal(cmd.Context(), *configFile, f)
			}
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(v); err != nil {
				return err
			}
			if !v.IsValid {
				return fmt.Errorf("%w: %s", errRejected, v.FirstError())
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&f.date, "date", "", "appointment date, YYYY-MM-DD")
	cmd.Flags().StringVar(&f.startTime, "time", "", "start time, HH:MM")
	cmd.Flags().StringVar(&f.serviceID, "service", "", "service id")
	cmd.Flags().StringVar(&f.periodID, "period", "", "working period id")
	cmd.Flags().StringVar(&f.mode, "mode", "public", "public or internal")
	cmd.Flags().StringVar(&f.server, "server", "", "staff gRPC address of a running server")
	_ = cmd.MarkFlagRequired("date")
	_ = cmd.MarkFlagRequired("time")
	return cmd
}

func checkLocal(ctx context.Context, configFile string, f checkFlags) (availability.BookingValidation, error) {
	date, err := params.Date("date", f.date)
	if err != nil {
		return availability.BookingValidation{}, err
	}
	serviceID, err := params.OptionalUUID("service", f.serviceID)
	if err != nil {
		return availability.BookingValidation{}, err
	}
	periodID, err := params.OptionalUUID("period", f.periodID)
	if err != nil {
		return availability.BookingValidation{}, err
	}
	mode, err := params.Mode(f.mode, availability.ModePublic)
	if err != nil {
		return availability.BookingValidation{}, err
	}

	cfg, log, err := loadConfig(configFile)
	if err != nil {
		return availability.BookingValidation{}, err
	}
	db, err := openDB(ctx, cfg, log)
	if err != nil {
		return availability.BookingValidation{}, err
	}
	defer closeDB(db, log)

	svc := booking.NewService(newEngine(cfg), postgres.NewScheduleRepo(db), postgres.NewAppointmentRepo(db), log, booking.Config{
		IncludeToday: cfg.IncludeToday,
	})
	return svc.Validate(ctx, booking.BookInput{
		Date:      date,
		StartTime: f.startTime,
		ServiceID: serviceID,
		PeriodID:  periodID,
		Mode:      mode,
	})
}

func checkRemote(ctx context.Context, f checkFlags) (availability.BookingValidation, error) {
	conn, err := grpc.NewClient(f.server, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return availability.BookingValidation{}, fmt.Errorf("dial %s: %w", f.server, err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	resp, err := grpcTransport.NewStaffBookingClient(conn).Validate(ctx, &grpcTransport.BookingRequest{
		Date:      f.date,
		StartTime: f.startTime,
		ServiceID: f.serviceID,
		PeriodID:  f.periodID,
		Mode:      f.mode,
	})
	if err != nil {
		return availability.BookingValidation{}, err
	}
	return resp.Validation, nil
}
