// Command migrate applies the item schema migrations and exits.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	itemmigrations "github.com/ghuser/itemsapi/migrations/item"
	"github.com/ghuser/itemsapi/pkg/config"
	"github.com/ghuser/itemsapi/pkg/database"
	"github.com/ghuser/itemsapi/pkg/logger"
	"github.com/ghuser/itemsapi/pkg/migrator"
)

func main() {
	statusOnly := flag.Bool("status", false, "print the current schema version and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg).With("process", "migrate")
	ctx := context.Background()

	db, err := database.Open(ctx, cfg.DatabaseURL, database.PoolConfig{MaxConns: 1}, log)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close() //nolint:errcheck

	if !*statusOnly {
		if err := migrator.Up(ctx, db.DB(), itemmigrations.FS, log); err != nil {
			log.Error("migration failed", "error", err)
			os.Exit(1) //nolint:gocritic
		}
	}

	version, err := migrator.Status(ctx, db.DB(), itemmigrations.FS)
	if err != nil {
		log.Error("failed to read schema version", "error", err)
		os.Exit(1) //nolint:gocritic
	}
	log.Info("schema up to date", "version", version)
}
