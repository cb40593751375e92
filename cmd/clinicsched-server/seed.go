package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"clinicsched/internal/seed"
	"clinicsched/internal/store/postgres"
	"clinicsched/internal/store/rediscache"
)

func seedCmd(configFile *string) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load services, working periods and holidays from a file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" {
				return fmt.Errorf("--file is required")
			}
			cfg, log, err := loadConfig(*configFile)
			if err != nil {
				return err
			}

			f, err := seed.Load(file)
			if err != nil {
				return err
			}
			recs, err := f.Records()
			if err != nil {
				return fmt.Errorf("seed file %s: %w", file, err)
			}

			db, err := openDB(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer closeDB(db, log)

			repo := postgres.NewScheduleRepo(db)
			if err := seed.Apply(cmd.Context(), repo, recs, log); err != nil {
				return err
			}

			if cfg.RedisAddr == "" {
				return nil
			}
			client, err := rediscache.Dial(cmd.Context(), rediscache.Options{
				Addr:     cfg.RedisAddr,
				Password: cfg.RedisPassword,
				DB:       cfg.RedisDB,
			})
			if err != nil {
				log.Warn().Err(err).Msg("redis unavailable; cached reference data expires on its own")
				return nil
			}
			defer client.Close()
			if err := rediscache.New(repo, client, cfg.RedisTTL, log).Invalidate(cmd.Context()); err != nil {
				log.Warn().Err(err).Msg("cache invalidation failed")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "seed file (yaml or json)")
	return cmd
}
