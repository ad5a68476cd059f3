package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"payhook/internal/config"
	"payhook/internal/services/data"
	"payhook/internal/store/repositories"

	"github.com/spf13/cobra"
)

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <reference>",
		Short: "Print the stored record for a transaction reference",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			setupLogging(cfg.App)

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			store, closeStore, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			rec, err := data.NewService(store).GetPayment(ctx, args[0])
			if errors.Is(err, repositories.ErrNotFound) {
				return fmt.Errorf("no payment recorded for %q", args[0])
			}
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(rec)
		},
	}
}
