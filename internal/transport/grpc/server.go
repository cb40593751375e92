// Package grpc serves the staff booking API over gRPC. Messages are JSON
// encoded with a registered codec, so clients must use the "json" content
// subtype (see StaffBookingClient).
package grpc

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"clinicsched/internal/availability"
	"clinicsched/internal/domain"
	"clinicsched/internal/service/booking"
	"clinicsched/internal/store"
	"clinicsched/internal/transport/params"
)

type StaffServer struct {
	svc bookingService
	log zerolog.Logger
}

type bookingService interface {
	Availability(ctx context.Context, q booking.AvailabilityQuery) ([]availability.AvailableDate, error)
	SuggestNext(ctx context.Context, after time.Time, serviceID uuid.UUID, mode availability.Mode) (availability.AvailableDate, bool, error)
	Periods(ctx context.Context, date time.Time, serviceID uuid.UUID, mode availability.Mode) ([]availability.AvailablePeriod, error)
	Slots(ctx context.Context, date time.Time, periodID, serviceID uuid.UUID, mode availability.Mode) ([]availability.TimeSlot, error)
	Validate(ctx context.Context, in booking.BookInput) (availability.BookingValidation, error)
	Book(ctx context.Context, in booking.BookInput) (domain.Appointment, error)
	BookSeries(ctx context.Context, in booking.SeriesInput) ([]domain.Appointment, error)
	Reschedule(ctx context.Context, id uuid.UUID, in booking.RescheduleInput) (domain.Appointment, error)
	Cancel(ctx context.Context, id uuid.UUID) (domain.Appointment, error)
	Get(ctx context.Context, id uuid.UUID) (domain.Appointment, error)
	DayAppointments(ctx context.Context, date time.Time) ([]domain.Appointment, error)
}

func NewStaffServer(svc bookingService, log zerolog.Logger) *StaffServer {
	return &StaffServer{
		svc: svc,
		log: log.With().Str("component", "grpc.staff").Logger(),
	}
}

var _ StaffBookingServer = (*StaffServer)(nil)

func (s *StaffServer) rpcLog(rpc string) zerolog.Logger {
	return s.log.With().Str("rpc", rpc).Logger()
}

func (s *StaffServer) Availability(ctx context.Context, req *AvailabilityRequest) (*AvailabilityResponse, error) {
	log := s.rpcLog("Availability")
	if req == nil {
		return nil, nilRequest(log)
	}
	serviceID, err := params.OptionalUUID("service_id", req.ServiceID)
	if err != nil {
		return nil, invalidArgument(log, err)
	}
	mode, err := params.Mode(req.Mode, availability.ModeInternal)
	if err != nil {
		return nil, invalidArgument(log, err)
	}

	dates, err := s.svc.Availability(ctx, booking.AvailabilityQuery{
		ServiceID:    serviceID,
		Mode:         mode,
		Days:         req.Days,
		IncludeToday: req.IncludeToday,
	})
	if err != nil {
		return nil, statusError(log, err, "availability failed")
	}
	log.Debug().Int("count", len(dates)).Str("mode", string(mode)).Msg("availability listed")
	return &AvailabilityResponse{Dates: dates}, nil
}

func (s *StaffServer) SuggestNext(ctx context.Context, req *SuggestNextRequest) (*SuggestNextResponse, error) {
	log := s.rpcLog("SuggestNext")
	if req == nil {
		return nil, nilRequest(log)
	}
	after, err := params.Date("after", req.After)
	if err != nil {
		return nil, invalidArgument(log, err)
	}
	serviceID, err := params.OptionalUUID("service_id", req.ServiceID)
	if err != nil {
		return nil, invalidArgument(log, err)
	}
	mode, err := params.Mode(req.Mode, availability.ModeInternal)
	if err != nil {
		return nil, invalidArgument(log, err)
	}

	next, ok, err := s.svc.SuggestNext(ctx, after, serviceID, mode)
	if err != nil {
		return nil, statusError(log, err, "suggest next failed")
	}
	if !ok {
		return &SuggestNextResponse{}, nil
	}
	return &SuggestNextResponse{Found: true, Date: &next}, nil
}

func (s *StaffServer) Periods(ctx context.Context, req *PeriodsRequest) (*PeriodsResponse, error) {
	log := s.rpcLog("Periods")
	if req == nil {
		return nil, nilRequest(log)
	}
	date, err := params.Date("date", req.Date)
	if err != nil {
		return nil, invalidArgument(log, err)
	}
	serviceID, err := params.OptionalUUID("service_id", req.ServiceID)
	if err != nil {
		return nil, invalidArgument(log, err)
	}
	mode, err := params.Mode(req.Mode, availability.ModeInternal)
	if err != nil {
		return nil, invalidArgument(log, err)
	}

	periods, err := s.svc.Periods(ctx, date, serviceID, mode)
	if err != nil {
		return nil, statusError(log, err, "periods failed")
	}
	return &PeriodsResponse{Periods: periods}, nil
}

func (s *StaffServer) Slots(ctx context.Context, req *SlotsRequest) (*SlotsResponse, error) {
	log := s.rpcLog("Slots")
	if req == nil {
		return nil, nilRequest(log)
	}
	date, err := params.Date("date", req.Date)
	if err != nil {
		return nil, invalidArgument(log, err)
	}
	periodID, err := params.UUID("period_id", req.PeriodID)
	if err != nil {
		return nil, invalidArgument(log, err)
	}
	serviceID, err := params.OptionalUUID("service_id", req.ServiceID)
	if err != nil {
		return nil, invalidArgument(log, err)
	}
	mode, err := params.Mode(req.Mode, availability.ModeInternal)
	if err != nil {
		return nil, invalidArgument(log, err)
	}

	slots, err := s.svc.Slots(ctx, date, periodID, serviceID, mode)
	if err != nil {
		return nil, statusError(log, err, "slots failed")
	}
	return &SlotsResponse{Slots: slots}, nil
}

func (s *StaffServer) Validate(ctx context.Context, req *BookingRequest) (*ValidateResponse, error) {
	log := s.rpcLog("Validate")
	if req == nil {
		return nil, nilRequest(log)
	}
	in, err := bookInput(req)
	if err != nil {
		return nil, invalidArgument(log, err)
	}

	v, err := s.svc.Validate(ctx, in)
	if err != nil {
		return nil, statusError(log, err, "validate failed")
	}
	return &ValidateResponse{Validation: v}, nil
}

func (s *StaffServer) Book(ctx context.Context, req *BookingRequest) (*AppointmentResponse, error) {
	log := s.rpcLog("Book")
	if req == nil {
		return nil, nilRequest(log)
	}
	in, err := bookInput(req)
	if err != nil {
		return nil, invalidArgument(log, err)
	}
	in.IdempotencyKey = idempotencyKey(ctx)

	appt, err := s.svc.Book(ctx, in)
	if err != nil {
		return nil, statusError(log, err, "book failed")
	}
	log.Info().
		Str("appointment_id", appt.ID.String()).
		Str("date", req.Date).
		Str("start_time", appt.StartTime).
		Msg("appointment booked")
	return &AppointmentResponse{Appointment: appt}, nil
}

func (s *StaffServer) BookSeries(ctx context.Context, req *SeriesRequest) (*AppointmentsResponse, error) {
	log := s.rpcLog("BookSeries")
	if req == nil {
		return nil, nilRequest(log)
	}
	start, err := params.Date("start_date", req.StartDate)
	if err != nil {
		return nil, invalidArgument(log, err)
	}
	until, err := params.OptionalDate("until", req.Until)
	if err != nil {
		return nil, invalidArgument(log, err)
	}
	serviceID, err := params.OptionalUUID("service_id", req.ServiceID)
	if err != nil {
		return nil, invalidArgument(log, err)
	}

	appts, err := s.svc.BookSeries(ctx, booking.SeriesInput{
		PatientName: req.PatientName,
		StartTime:   req.StartTime,
		ServiceID:   serviceID,
		Rule: domain.WeeklyRule{
			Start:     start,
			Interval:  req.Interval,
			ByWeekday: req.Weekdays,
			Until:     until,
			Count:     req.Count,
		},
		Notes:          req.Notes,
		IdempotencyKey: idempotencyKey(ctx),
	})
	if err != nil {
		return nil, statusError(log, err, "book series failed")
	}
	log.Info().Int("count", len(appts)).Str("start_date", req.StartDate).Msg("series booked")
	return &AppointmentsResponse{Appointments: appts}, nil
}

func (s *StaffServer) Reschedule(ctx context.Context, req *RescheduleRequest) (*AppointmentResponse, error) {
	log := s.rpcLog("Reschedule")
	if req == nil {
		return nil, nilRequest(log)
	}
	id, err := params.UUID("appointment_id", req.AppointmentID)
	if err != nil {
		return nil, invalidArgument(log, err)
	}
	date, err := params.Date("date", req.Date)
	if err != nil {
		return nil, invalidArgument(log, err)
	}
	periodID, err := params.OptionalUUID("period_id", req.PeriodID)
	if err != nil {
		return nil, invalidArgument(log, err)
	}
	mode, err := params.Mode(req.Mode, availability.ModeInternal)
	if err != nil {
		return nil, invalidArgument(log, err)
	}

	appt, err := s.svc.Reschedule(ctx, id, booking.RescheduleInput{
		Date:      date,
		StartTime: req.StartTime,
		PeriodID:  periodID,
		Mode:      mode,
	})
	if err != nil {
		return nil, statusError(log, err, "reschedule failed")
	}
	log.Info().Str("appointment_id", id.String()).Str("date", req.Date).Str("start_time", appt.StartTime).Msg("appointment rescheduled")
	return &AppointmentResponse{Appointment: appt}, nil
}

func (s *StaffServer) Cancel(ctx context.Context, req *AppointmentRequest) (*AppointmentResponse, error) {
	log := s.rpcLog("Cancel")
	if req == nil {
		return nil, nilRequest(log)
	}
	id, err := params.UUID("appointment_id", req.AppointmentID)
	if err != nil {
		return nil, invalidArgument(log, err)
	}

	appt, err := s.svc.Cancel(ctx, id)
	if err != nil {
		return nil, statusError(log, err, "cancel failed")
	}
	log.Info().Str("appointment_id", id.String()).Msg("appointment cancelled")
	return &AppointmentResponse{Appointment: appt}, nil
}

func (s *StaffServer) GetAppointment(ctx context.Context, req *AppointmentRequest) (*AppointmentResponse, error) {
	log := s.rpcLog("GetAppointment")
	if req == nil {
		return nil, nilRequest(log)
	}
	id, err := params.UUID("appointment_id", req.AppointmentID)
	if err != nil {
		return nil, invalidArgument(log, err)
	}

	appt, err := s.svc.Get(ctx, id)
	if err != nil {
		return nil, statusError(log, err, "get appointment failed")
	}
	return &AppointmentResponse{Appointment: appt}, nil
}

func (s *StaffServer) DayAppointments(ctx context.Context, req *DayAppointmentsRequest) (*AppointmentsResponse, error) {
	log := s.rpcLog("DayAppointments")
	if req == nil {
		return nil, nilRequest(log)
	}
	date, err := params.Date("date", req.Date)
	if err != nil {
		return nil, invalidArgument(log, err)
	}

	appts, err := s.svc.DayAppointments(ctx, date)
	if err != nil {
		return nil, statusError(log, err, "day appointments failed")
	}
	log.Debug().Str("date", req.Date).Int("count", len(appts)).Msg("appointments listed")
	return &AppointmentsResponse{Appointments: appts}, nil
}

func bookInput(req *BookingRequest) (booking.BookInput, error) {
	date, err := params.Date("date", req.Date)
	if err != nil {
		return booking.BookInput{}, err
	}
	serviceID, err := params.OptionalUUID("service_id", req.ServiceID)
	if err != nil {
		return booking.BookInput{}, err
	}
	periodID, err := params.OptionalUUID("period_id", req.PeriodID)
	if err != nil {
		return booking.BookInput{}, err
	}
	mode, err := params.Mode(req.Mode, availability.ModeInternal)
	if err != nil {
		return booking.BookInput{}, err
	}
	return booking.BookInput{
		PatientName: req.PatientName,
		Date:        date,
		StartTime:   req.StartTime,
		ServiceID:   serviceID,
		PeriodID:    periodID,
		Mode:        mode,
		Notes:       req.Notes,
	}, nil
}

func idempotencyKey(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	values := md.Get("idempotency-key")
	if len(values) == 0 {
		values = md.Get("x-idempotency-key")
	}
	if len(values) == 0 {
		return ""
	}
	return strings.TrimSpace(values[0])
}

func nilRequest(log zerolog.Logger) error {
	log.Warn().Str("reason", "nil_request").Msg("invalid request")
	return status.Error(codes.InvalidArgument, "request is required")
}

func invalidArgument(log zerolog.Logger, err error) error {
	log.Warn().Err(err).Msg("invalid request")
	return status.Error(codes.InvalidArgument, err.Error())
}

func statusError(log zerolog.Logger, err error, msg string) error {
	var invalid *booking.ValidationError
	var rejected *booking.RejectedError
	switch {
	case errors.As(err, &invalid):
		log.Warn().Err(err).Msg("invalid request")
		return status.Error(codes.InvalidArgument, invalid.Error())
	case errors.As(err, &rejected):
		log.Info().Str("reason", rejected.Error()).Msg("booking rejected")
		return status.Error(codes.FailedPrecondition, rejected.Error())
	case errors.Is(err, booking.ErrSlotUnavailable):
		log.Info().Msg("slot taken concurrently")
		return status.Error(codes.Aborted, "Selected time slot is no longer available. Pick a different slot.")
	case errors.Is(err, store.ErrNotFound):
		return status.Error(codes.NotFound, "appointment not found")
	case errors.Is(err, context.DeadlineExceeded):
		log.Warn().Err(err).Msg(msg)
		return status.Error(codes.DeadlineExceeded, "request timed out")
	default:
		log.Error().Err(err).Msg(msg)
		return status.Error(codes.Internal, "internal error")
	}
}
