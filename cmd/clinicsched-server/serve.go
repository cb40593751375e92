package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"

	"clinicsched/internal/config"
	"clinicsched/internal/service/booking"
	"clinicsched/internal/store"
	"clinicsched/internal/store/postgres"
	"clinicsched/internal/store/rediscache"
	grpcTransport "clinicsched/internal/transport/grpc"
	"clinicsched/internal/transport/httpapi"
)

func serveCmd(configFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP and staff gRPC servers",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig(*configFile)
			if err != nil {
				return err
			}
			return runServer(cmd.Context(), cfg, log)
		},
	}
}

func runServer(ctx context.Context, cfg config.Config, log zerolog.Logger) error {
	log.Info().
		Str("http_addr", cfg.HTTPAddr).
		Str("grpc_addr", cfg.GRPCAddr()).
		Str("timezone", cfg.Location.String()).
		Str("log_level", cfg.LogLevel).
		Msg("starting")

	db, err := openDB(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeDB(db, log)

	var schedule store.ScheduleReader = postgres.NewScheduleRepo(db)
	if cfg.RedisAddr != "" {
		client, err := rediscache.Dial(ctx, rediscache.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			log.Error().Err(err).Str("redis_addr", cfg.RedisAddr).Msg("redis connection failed")
			return err
		}
		defer func() {
			if err := client.Close(); err != nil {
				log.Warn().Err(err).Msg("redis close failed")
			}
		}()
		schedule = rediscache.New(schedule, client, cfg.RedisTTL, log)
		log.Info().Str("redis_addr", cfg.RedisAddr).Dur("ttl", cfg.RedisTTL).Msg("reference data cache enabled")
	}

	svc := booking.NewService(newEngine(cfg), schedule, postgres.NewAppointmentRepo(db), log, booking.Config{
		IncludeToday: cfg.IncludeToday,
	})

	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			grpcTransport.DefaultRequestTimeout(cfg.GRPCRequestTimeout),
			grpcTransport.AccessLog(log),
		),
	)
	grpcTransport.RegisterStaffBookingServer(grpcServer, grpcTransport.NewStaffServer(svc, log))

	lis, err := net.Listen("tcp", cfg.GRPCAddr())
	if err != nil {
		log.Error().Err(err).Str("grpc_addr", cfg.GRPCAddr()).Msg("grpc listen failed")
		return err
	}

	httpServer := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: httpapi.New(svc, log, httpapi.Config{
			RateLimit: httpapi.RateLimitConfig{
				RequestsPerSecond: cfg.RateLimitRPS,
				Burst:             cfg.RateLimitBurst,
			},
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 2)
	go func() {
		errCh <- grpcServer.Serve(lis)
	}()
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	log.Info().Str("grpc_addr", cfg.GRPCAddr()).Str("http_addr", cfg.HTTPAddr).Msg("servers started")

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
		shutdown(log, grpcServer, httpServer, cfg.ShutdownTimeout)
		return nil
	case err := <-errCh:
		if err != nil && !errors.Is(err, grpc.ErrServerStopped) && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server stopped with error")
			shutdown(log, grpcServer, httpServer, cfg.ShutdownTimeout)
			return err
		}
		return nil
	}
}

func shutdown(log zerolog.Logger, s *grpc.Server, h *http.Server, timeout time.Duration) {
	log.Info().Dur("timeout", timeout).Msg("shutting down servers")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := h.Shutdown(ctx); err != nil {
		log.Warn().Err(err).Msg("http graceful shutdown failed")
	}

	done := make(chan struct{})
	go func() {
		s.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
		log.Info().Msg("grpc server stopped")
	case <-ctx.Done():
		log.Warn().Msg("grpc graceful shutdown timed out; forcing stop")
		s.Stop()
	}
}
