package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"careergate/internal/platform/config"
	"careergate/internal/platform/database"
)

var errNoDatabase = errors.New("DATABASE_URL is not set")

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded SQL schema to DATABASE_URL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pool, err := openDatabase(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close() //nolint:errcheck // process exits right after

			applied, err := pool.Migrate(cmd.Context())
			if err != nil {
				return err
			}
			for _, name := range applied {
				fmt.Fprintln(cmd.OutOrStdout(), "applied", name)
			}
			return nil
		},
	}
}

func openDatabase(ctx context.Context) (*database.Pool, error) {
	url, err := config.DatabaseURL()
	if err != nil {
		return nil, err
	}
	if url == "" {
		return nil, errNoDatabase
	}
	cfg := database.DefaultConfig()
	cfg.URL = url
	return database.New(ctx, cfg)
}
