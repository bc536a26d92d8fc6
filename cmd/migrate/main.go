// Command migrate applies the payments schema to the configured database.
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/DanielPopoola/payments-core/internal/adapters/postgres"
	"github.com/DanielPopoola/payments-core/internal/config"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := cfg.Logger.NewLogger()
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := postgres.Connect(ctx, &cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := postgres.Migrate(ctx, db); err != nil {
		logger.Error("failed to apply schema", "error", err)
		os.Exit(1)
	}

	logger.Info("schema applied",
		"host", cfg.Database.Host,
		"database", cfg.Database.Name,
	)
}
