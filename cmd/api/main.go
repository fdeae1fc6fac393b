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

	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"

	_ "github.com/ghuser/sweetshop/docs/swagger"
	"github.com/ghuser/sweetshop/migrations/sweet"
	"github.com/ghuser/sweetshop/pkg/app"
	"github.com/ghuser/sweetshop/pkg/auth"
	"github.com/ghuser/sweetshop/pkg/cache"
	"github.com/ghuser/sweetshop/pkg/config"
	"github.com/ghuser/sweetshop/pkg/database"
	"github.com/ghuser/sweetshop/pkg/events"
	"github.com/ghuser/sweetshop/pkg/httpx"
	"github.com/ghuser/sweetshop/pkg/logger"
	"github.com/ghuser/sweetshop/pkg/migrator"
	"github.com/ghuser/sweetshop/pkg/telemetry"
	"github.com/ghuser/sweetshop/pkg/workflows"
	sweetApi "github.com/ghuser/sweetshop/services/sweet/application/api"
	appsvcs "github.com/ghuser/sweetshop/services/sweet/application/services"
	sweetWorker "github.com/ghuser/sweetshop/services/sweet/application/worker"
)

// @title						Sweetshop API
// @version					1.0
// @description				Sweet shop inventory: browse the catalog, purchase sweets and manage stock.
// @contact.name				API Support
// @license.name				MIT
// @license.url				https://opensource.org/licenses/MIT
// @host						localhost:8080
// @BasePath					/api
// @schemes					http https
// @securityDefinitions.apikey	BearerAuth
// @in							header
// @name						Authorization
// @description				HS256 token issued by the auth service, sent as "Bearer {token}".
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Telemetry: OTel tracing + metrics
	otelShutdown, metricsHandler, err := telemetry.Setup(ctx, cfg)
	if err != nil {
		log.Error("failed to setup otel", "error", err)
		os.Exit(1) //nolint:gocritic // intentional: startup failure
	}
	defer otelShutdown(context.Background()) //nolint:errcheck

	// Crash reporting: Sentry (optional, log and continue on failure)
	if err := telemetry.SetupSentry(cfg); err != nil {
		log.Warn("failed to setup sentry, continuing without crash reporting", "error", err)
	}
	defer telemetry.SentryFlush()

	metrics, err := telemetry.NewShopMetrics(otel.GetMeterProvider())
	if err != nil {
		log.Error("failed to create shop metrics", "error", err)
		os.Exit(1)
	}

	appConfig := &app.Application{
		Config:  cfg,
		Logger:  log,
		Metrics: metrics,
	}

	switch cfg.StorageDriver {
	case config.StoragePostgres:
		pool, err := database.NewPool(ctx, cfg.DefinitionDatabaseURL, log)
		if err != nil {
			log.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		log.Info("database pool connected")

		if cfg.MigrateOnStart {
			if err := migrator.Up(ctx, pool.DB(), sweet.FS, log); err != nil {
				log.Error("failed to run migrations", "error", err)
				os.Exit(1)
			}
		}

		eventBus, err := events.NewEventBusWithForwarder(cfg, log)
		if err != nil {
			log.Error("failed to setup event bus", "error", err)
			os.Exit(1)
		}
		defer eventBus.Close() //nolint:errcheck

		if err := eventBus.StartForwarder(ctx); err != nil {
			log.Error("failed to start event forwarder", "error", err)
			os.Exit(1)
		}
		appConfig.Db = pool
		appConfig.EventBus = eventBus
	case config.StorageMemory:
		eventBus := events.NewInProcessEventBus(log)
		defer eventBus.Close() //nolint:errcheck
		appConfig.EventBus = eventBus
		log.Warn("using in-memory storage, data is lost on restart")
	}

	// Redis is optional: without it there is no read cache and no cookie sessions.
	redisClient, err := cache.NewRedisClient(ctx, cfg)
	if err != nil {
		log.Warn("redis unavailable, continuing without cache and sessions", "error", err)
	} else {
		defer redisClient.Close() //nolint:errcheck
		appConfig.Redis = redisClient
		appConfig.SessionStore = auth.NewSessionStore(
			redisClient.Client(),
			[]byte(cfg.SessionAuthKey),
			[]byte(cfg.SessionEncryptionKey),
			cfg.Environment == config.EnvProduction,
		)
		log.Info("redis connected, session store initialized")
	}

	verifier, err := auth.NewTokenVerifier(cfg.JWTSecret)
	if err != nil {
		log.Error("failed to create token verifier", "error", err)
		os.Exit(1)
	}
	appConfig.Verifier = verifier

	if cfg.TemporalEnabled {
		temporalClient, err := workflows.NewTemporalClient(ctx, cfg, log)
		if err != nil {
			log.Error("failed to initialize temporal client", "error", err)
			os.Exit(1)
		}
		defer temporalClient.Close()
		appConfig.TemporalClient = temporalClient
	}

	svcs := appsvcs.New(appConfig)

	if cfg.SeedCatalog {
		n, err := svcs.Sweet.Seed(ctx)
		if err != nil {
			log.Error("failed to seed catalog", "error", err)
			os.Exit(1)
		}
		log.Info("catalog seeded", "inserted", n)
	}

	// The memory store has no outbox for cmd/worker to read, so its events are
	// consumed in this process. Subscribe before serving.
	if cfg.StorageDriver == config.StorageMemory {
		runner, err := sweetWorker.Start(ctx, appConfig, svcs.Sweets)
		if err != nil {
			log.Error("failed to start in-process worker", "error", err)
			os.Exit(1)
		}
		defer runner.Stop()
	}

	r := httpx.NewRouter(
		httpx.ServerConfig{
			ServiceName:        cfg.ServiceName,
			IsDevelopment:      cfg.Environment == config.EnvDevelopment,
			CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		},
		httpx.Middlewares{
			Recovery: logger.Recovery(log),
			Sentry:   telemetry.SentryMiddleware(),
			Otel:     otelhttp.NewMiddleware(cfg.ServiceName),
			Logger:   logger.Middleware(log),
		},
	)

	r.Get("/", serviceInfo(cfg))
	r.Get("/health", httpx.HealthHandler(healthChecks(appConfig)))
	r.Get("/metrics", metricsHandler.ServeHTTP)
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
	r.Route("/api", func(r chi.Router) {
		registerRoutes(r, appConfig, svcs)
	})

	srv := httpx.NewServer(cfg.HTTPAddr, r)

	serveErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", srv.Addr, "env", cfg.Environment, "storage", cfg.StorageDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		log.Error("server error", "error", err)
	}

	log.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("forced shutdown", "error", err)
		return
	}
	log.Info("server stopped")
}

// registerRoutes mounts all service routes under /api.
func registerRoutes(r chi.Router, a *app.Application, svcs *appsvcs.Services) {
	sweetApi.SweetRoutes(r, a, svcs)
}

// healthChecks leaves absent dependencies nil so they report as disabled.
func healthChecks(a *app.Application) httpx.HealthChecks {
	var checks httpx.HealthChecks
	if a.Db != nil {
		checks.Database = a.Db
	}
	if a.Redis != nil {
		checks.Redis = a.Redis
	}
	if a.EventBus != nil {
		checks.EventBus = a.EventBus
	}
	return checks
}

type infoResponse struct {
	Service     string `json:"service"`
	Version     string `json:"version"`
	Environment string `json:"environment"`
	Storage     string `json:"storage"`
	Docs        string `json:"docs"`
}

func serviceInfo(cfg *config.Config) http.HandlerFunc {
	info := infoResponse{
		Service:     cfg.ServiceName,
		Version:     cfg.ServiceVersion,
		Environment: cfg.Environment,
		Storage:     cfg.StorageDriver,
		Docs:        "/swagger/index.html",
	}
	return func(w http.ResponseWriter, _ *http.Request) {
		httpx.JSON(w, http.StatusOK, info)
	}
}
