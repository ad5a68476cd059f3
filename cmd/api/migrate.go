package main

import (
	"errors"

	"payhook/internal/config"
	"payhook/internal/store/postgres"

	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations to DB_DSN",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			setupLogging(cfg.App)
			if cfg.DB.DSN == "" {
				return errors.New("DB_DSN is required")
			}
			return postgres.Migrate(cfg.DB.DSN)
		},
	}
}
