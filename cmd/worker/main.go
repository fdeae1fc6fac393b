package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"

	"github.com/ghuser/sweetshop/pkg/app"
	"github.com/ghuser/sweetshop/pkg/cache"
	"github.com/ghuser/sweetshop/pkg/config"
	"github.com/ghuser/sweetshop/pkg/database"
	"github.com/ghuser/sweetshop/pkg/events"
	"github.com/ghuser/sweetshop/pkg/logger"
	"github.com/ghuser/sweetshop/pkg/telemetry"
	"github.com/ghuser/sweetshop/pkg/workflows"
	appsvcs "github.com/ghuser/sweetshop/services/sweet/application/services"
	sweetWorker "github.com/ghuser/sweetshop/services/sweet/application/worker"
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

	log := logger.New(cfg)

	if cfg.StorageDriver != config.StoragePostgres {
		log.Error("worker reads the postgres outbox; memory storage is consumed inside cmd/api",
			"storage", cfg.StorageDriver)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	otelShutdown, _, err := telemetry.Setup(ctx, cfg)
	if err != nil {
		log.Error("failed to setup otel", "error", err)
		os.Exit(1) //nolint:gocritic // intentional: startup failure
	}
	defer otelShutdown(context.Background()) //nolint:errcheck

	if err := telemetry.SetupSentry(cfg); err != nil {
		log.Warn("failed to setup sentry, continuing without crash reporting", "error", err)
	}
	defer telemetry.SentryFlush()

	metrics, err := telemetry.NewShopMetrics(otel.GetMeterProvider())
	if err != nil {
		log.Error("failed to create shop metrics", "error", err)
		os.Exit(1)
	}

	pool, err := database.NewPool(ctx, cfg.DefinitionDatabaseURL, log)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	log.Info("database pool connected")

	eventBus, err := events.NewEventBus(cfg, log)
	if err != nil {
		log.Error("failed to setup event bus", "error", err)
		os.Exit(1)
	}
	// EventBus.Close() waits up to 30s for in-flight handlers.
	defer eventBus.Close() //nolint:errcheck

	appConfig := &app.Application{
		Config:   cfg,
		Db:       pool,
		Logger:   log,
		EventBus: eventBus,
		Metrics:  metrics,
	}

	redisClient, err := cache.NewRedisClient(ctx, cfg)
	if err != nil {
		log.Warn("redis unavailable, cache will not be maintained", "error", err)
	} else {
		defer redisClient.Close() //nolint:errcheck
		appConfig.Redis = redisClient
		log.Info("redis connected")
	}

	if cfg.TemporalEnabled {
		temporalClient, err := workflows.NewTemporalClient(ctx, cfg, log)
		if err != nil {
			log.Error("failed to initialize temporal client", "error", err)
			os.Exit(1)
		}
		defer temporalClient.Close()
		appConfig.TemporalClient = temporalClient
	}

	if appConfig.Redis == nil && appConfig.TemporalClient == nil {
		log.Error("worker has nothing to do: neither redis nor temporal is available")
		os.Exit(1)
	}

	// Read-only use: the worker never mutates sweets, so nothing is published through it.
	sweets := appsvcs.NewRepository(appConfig)

	runner, err := sweetWorker.Start(ctx, appConfig, sweets)
	if err != nil {
		log.Error("failed to start worker", "error", err)
		os.Exit(1)
	}
	log.Info("worker started", "temporal", appConfig.TemporalClient != nil, "cache", appConfig.Redis != nil)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := sweetWorker.WarmCache(gctx, appConfig, sweets)
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Warn("cache warm-up failed", "error", err)
		}
		return nil
	})
	g.Go(func() error {
		select {
		case <-gctx.Done():
			return nil
		case <-runner.Done():
			if gctx.Err() != nil {
				return nil
			}
			return errors.New("event subscriptions stopped")
		}
	})

	if err := g.Wait(); err != nil {
		log.Error("worker failed", "error", err)
	}
	log.Info("shutting down worker...")
	runner.Stop()
	log.Info("worker stopped")
}
