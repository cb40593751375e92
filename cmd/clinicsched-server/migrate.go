package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"clinicsched/internal/store/postgres"
	"clinicsched/migrations"
)

func migrateCmd(configFile *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig(*configFile)
			if err != nil {
				return err
			}
			db, err := openDB(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer closeDB(db, log)

			applied, err := postgres.Migrate(cmd.Context(), db, migrations.FS)
			for _, v := range applied {
				log.Info().Str("version", v).Msg("migration applied")
			}
			if err != nil {
				return err
			}
			if len(applied) == 0 {
				log.Info().Msg("schema is up to date")
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig(*configFile)
			if err != nil {
				return err
			}
			db, err := openDB(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer closeDB(db, log)

			statuses, err := postgres.Status(cmd.Context(), db, migrations.FS)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, s := range statuses {
				state := "pending"
				if s.Applied {
					state = "applied"
				}
				fmt.Fprintf(out, "%-40s %s\n", s.Version, state)
			}
			return nil
		},
	})

	return cmd
}
