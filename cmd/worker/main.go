// Command worker keeps the Redis item cache consistent with item events
// published through the outbox.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ghuser/itemsapi/pkg/cache"
	"github.com/ghuser/itemsapi/pkg/config"
	"github.com/ghuser/itemsapi/pkg/database"
	"github.com/ghuser/itemsapi/pkg/events"
	"github.com/ghuser/itemsapi/pkg/logger"
	"github.com/ghuser/itemsapi/pkg/telemetry"
	"github.com/ghuser/itemsapi/services/item/application/subscribers"
)

const (
	consumerGroup = "item-cache-invalidator"
	busMaxConns   = 4
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := config.ValidateForProduction(cfg); err != nil {
		slog.Error("production config validation failed", "error", err)
		os.Exit(1)
	}

	log := logger.New(cfg).With("process", "worker")
	if err := run(cfg, log); err != nil {
		log.Error("worker stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log logger.Logger) error {
	if !cfg.CacheEnabled {
		log.Info("item cache disabled; worker has nothing to do")
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	otelShutdown, _, err := telemetry.Setup(ctx, cfg)
	if err != nil {
		return fmt.Errorf("setup otel: %w", err)
	}
	defer otelShutdown(context.Background()) //nolint:errcheck

	if err := telemetry.SetupSentry(cfg); err != nil {
		log.Warn("failed to setup sentry, continuing without crash reporting", "error", err)
	}
	defer telemetry.SentryFlush()

	busDB, err := database.Open(ctx, cfg.DatabaseURL, database.PoolConfig{MaxConns: busMaxConns, IdleTimeout: cfg.DBIdleTimeout}, log)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	eventBus, err := events.New(busDB.DB(), events.Options{ConsumerGroup: consumerGroup}, log)
	if err != nil {
		_ = busDB.Close()
		return fmt.Errorf("setup event bus: %w", err)
	}
	// Close waits for in-flight handlers and closes busDB.
	defer eventBus.Close() //nolint:errcheck

	redisClient, err := cache.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer redisClient.Close() //nolint:errcheck

	invalidator := subscribers.NewCacheInvalidator(cache.NewItemCache(redisClient), log)
	if err := subscribers.Register(ctx, eventBus, invalidator.Handlers(), log); err != nil {
		return fmt.Errorf("register subscribers: %w", err)
	}
	log.Info("worker started", "consumer_group", consumerGroup)

	<-ctx.Done()
	log.Info("shutting down worker")
	return nil
}
