package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"

	"clinicsched/internal/availability"
	"clinicsched/internal/config"
	"clinicsched/internal/logging"
	"clinicsched/internal/store/postgres"
)

func main() {
	var configFile string

	rootCmd := &cobra.Command{
		Use:          "clinicsched-server",
		Short:        "Clinic availability and booking service",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (yaml, json or toml); environment variables override it")

	rootCmd.AddCommand(serveCmd(&configFile))
	rootCmd.AddCommand(migrateCmd(&configFile))
	rootCmd.AddCommand(checkCmd(&configFile))
	rootCmd.AddCommand(seedCmd(&configFile))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig(configFile string) (config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return config.Config{}, zerolog.Nop(), fmt.Errorf("load config: %w", err)
	}
	return cfg, logging.New(cfg.LogLevel, cfg.LogFormat), nil
}

func openDB(ctx context.Context, cfg config.Config, log zerolog.Logger) (*bun.DB, error) {
	fields := logging.DatabaseFields(cfg.DatabaseURL)
	log.Info().Fields(fields).Msg("connecting to database")
	db, err := postgres.Open(ctx, cfg.DatabaseURL, postgres.PoolConfig{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
		ConnMaxIdleTime: cfg.DBConnMaxIdleTime,
	})
	if err != nil {
		log.Error().Err(err).Fields(fields).Msg("database connection failed")
		return nil, err
	}
	return db, nil
}

func closeDB(db *bun.DB, log zerolog.Logger) {
	if err := postgres.Close(db); err != nil {
		log.Warn().Err(err).Msg("database close failed")
	}
}

func newEngine(cfg config.Config) *availability.Engine {
	return availability.New(
		availability.WithLocation(cfg.Location),
		availability.WithSlotIncrement(cfg.SlotIncrement),
		availability.WithDefaultDuration(cfg.DefaultDuration),
		availability.WithBookingRangeDays(cfg.BookingRangeDays),
	)
}
