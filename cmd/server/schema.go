package main

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/dkeye/WatchParty/internal/storage"
)

// schemaCmd creates the tables for local development. Production schemas
// belong to the service that owns the data.
var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Create the database tables if they do not exist",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		setupLogger(cfg)

		store, err := storage.Open(cfg.DB.Driver, cfg.DB.DSN, storage.Options{BusyTimeout: cfg.DB.BusyTimeout})
		if err != nil {
			return fmt.Errorf("open storage: %w", err)
		}
		defer store.Close()

		if err := store.EnsureSchema(); err != nil {
			return err
		}
		log.Info().Str("driver", cfg.DB.Driver).Msg("schema ready")
		return nil
	},
}
