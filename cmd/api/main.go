package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	_ "github.com/ghuser/itemsapi/docs/swagger"
	itemmigrations "github.com/ghuser/itemsapi/migrations/item"
	"github.com/ghuser/itemsapi/pkg/app"
	"github.com/ghuser/itemsapi/pkg/cache"
	"github.com/ghuser/itemsapi/pkg/config"
	"github.com/ghuser/itemsapi/pkg/database"
	"github.com/ghuser/itemsapi/pkg/events"
	"github.com/ghuser/itemsapi/pkg/httpx"
	"github.com/ghuser/itemsapi/pkg/identity"
	"github.com/ghuser/itemsapi/pkg/logger"
	"github.com/ghuser/itemsapi/pkg/migrator"
	"github.com/ghuser/itemsapi/pkg/telemetry"
	itemApi "github.com/ghuser/itemsapi/services/item/application/api"
	itemEvents "github.com/ghuser/itemsapi/services/item/domain/events"
)

//go:generate swag init -g cmd/api/main.go -d ../../ -o ../../docs/swagger

// @title						Items API
// @version					1.0
// @description				CRUD API for items, authenticated with bearer ID tokens.
// @license.name				MIT
// @license.url				https://opensource.org/licenses/MIT
// @host						localhost:8080
// @BasePath					/
// @schemes					http https
// @securityDefinitions.apikey	BearerAuth
// @in							header
// @name						Authorization
// @description				ID token from /auth/login, as "Bearer <token>".
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

	log := logger.New(cfg)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Telemetry: OTel tracing + metrics
	otelShutdown, metricsHandler, err := telemetry.Setup(ctx, cfg)
	if err != nil {
		log.Error("failed to setup otel", "error", err)
		os.Exit(1)
	}
	defer otelShutdown(context.Background()) //nolint:errcheck

	// Crash reporting is optional: log and continue on failure.
	if err := telemetry.SetupSentry(cfg); err != nil {
		log.Warn("failed to setup sentry, continuing without crash reporting", "error", err)
	}
	defer telemetry.SentryFlush()

	poolCfg := database.PoolConfig{MaxConns: cfg.DBMaxConns, IdleTimeout: cfg.DBIdleTimeout}
	db, err := database.Open(ctx, cfg.DatabaseURL, poolCfg, log)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1) //nolint:gocritic // intentional: startup failure, deferred flushes are best-effort
	}
	defer db.Close() //nolint:errcheck

	if cfg.MigrateOnStart {
		if err := migrator.Up(ctx, db.DB(), itemmigrations.FS, log); err != nil {
			log.Error("failed to run migrations", "error", err)
			os.Exit(1) //nolint:gocritic
		}
	}

	// The event bus gets its own small pool so long-polling subscribers
	// never starve item queries.
	busDB, err := database.Open(ctx, cfg.DatabaseURL, database.PoolConfig{MaxConns: 2, IdleTimeout: cfg.DBIdleTimeout}, log)
	if err != nil {
		log.Error("failed to open event bus database", "error", err)
		os.Exit(1) //nolint:gocritic
	}
	eventBus, err := events.New(busDB.DB(), events.Options{Forwarder: true}, log)
	if err != nil {
		_ = busDB.Close()
		log.Error("failed to setup event bus", "error", err)
		os.Exit(1) //nolint:gocritic
	}
	defer eventBus.Close() //nolint:errcheck

	if err := eventBus.EnsureTopics(
		itemEvents.TopicItemCreated,
		itemEvents.TopicItemUpdated,
		itemEvents.TopicItemDeleted,
	); err != nil {
		log.Error("failed to initialize event topics", "error", err)
		os.Exit(1) //nolint:gocritic
	}
	if err := eventBus.StartForwarder(ctx); err != nil {
		log.Error("failed to start event forwarder", "error", err)
		os.Exit(1) //nolint:gocritic
	}

	var redisClient *cache.RedisClient
	if cfg.CacheEnabled {
		redisClient, err = cache.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Error("failed to connect to redis", "error", err)
			os.Exit(1) //nolint:gocritic
		}
		defer redisClient.Close() //nolint:errcheck
		log.Info("redis connected")
	} else {
		log.Info("item cache disabled")
	}

	users, err := identity.ParseUsers(cfg.AuthUsers)
	if err != nil {
		log.Error("invalid AUTH_USERS", "error", err)
		os.Exit(1) //nolint:gocritic
	}
	if len(users) == 0 {
		log.Warn("no users configured; every login will be rejected")
	}
	provider, err := identity.NewLocalProvider(identity.LocalConfig{
		Secret:   []byte(cfg.AuthSecret),
		Issuer:   cfg.AuthIssuer,
		Audience: cfg.AuthAudience,
		TTL:      cfg.AuthTokenTTL,
		Users:    users,
	})
	if err != nil {
		log.Error("failed to setup identity provider", "error", err)
		os.Exit(1) //nolint:gocritic
	}

	metrics, err := telemetry.NewOperationCounter(nil)
	if err != nil {
		log.Error("failed to register metrics", "error", err)
		os.Exit(1) //nolint:gocritic
	}

	appConfig := &app.Application{
		Config:   cfg,
		Db:       db,
		Logger:   log,
		EventBus: eventBus,
		Redis:    redisClient,
		Identity: provider,
		Metrics:  metrics,
	}

	r := httpx.NewRouter(
		httpx.ServerConfig{
			ServiceName:        cfg.ServiceName,
			IsDevelopment:      cfg.Environment == config.EnvDevelopment,
			CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		},
		logger.Middleware(log),
		logger.Recovery(log),
		telemetry.SentryMiddleware(),
		otelhttp.NewMiddleware(cfg.ServiceName),
	)

	checks := httpx.HealthChecks{Database: db, EventBus: eventBus}
	if redisClient != nil {
		checks.Redis = redisClient
	}
	r.Get("/health", httpx.HealthHandler(checks))
	r.Get("/metrics", metricsHandler.ServeHTTP)
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
	itemApi.ItemRoutes(r, appConfig)

	srv := httpx.NewServer(cfg.HTTPAddr, r)

	go func() {
		log.Info("server listening", "addr", srv.Addr, "env", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("forced shutdown", "error", err)
	}
	stop()
	log.Info("server stopped")
}
