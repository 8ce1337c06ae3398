package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/abdulachik/weibobot/internal/config"
	"github.com/abdulachik/weibobot/internal/db"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
	Long: `Run all pending migrations on the SQLite seen store. The sqlite backend
migrates on open, so this is only needed to prepare a database ahead of time.`,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if cfg.DatabasePath == "" {
		return fmt.Errorf("DATABASE_PATH is required")
	}
	if cfg.StoreBackend != config.BackendSQLite {
		slog.Warn("store backend is not sqlite, migrating anyway", "backend", cfg.StoreBackend)
	}

	slog.Info("connecting to database", "path", cfg.DatabasePath)
	store, err := db.NewStore(ctx, cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	slog.Info("migrations completed successfully")
	return nil
}
