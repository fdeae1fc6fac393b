package app

import (
	"github.com/gorilla/sessions"

	"github.com/ghuser/sweetshop/pkg/auth"
	"github.com/ghuser/sweetshop/pkg/cache"
	"github.com/ghuser/sweetshop/pkg/config"
	"github.com/ghuser/sweetshop/pkg/database"
	"github.com/ghuser/sweetshop/pkg/events"
	"github.com/ghuser/sweetshop/pkg/logger"
	"github.com/ghuser/sweetshop/pkg/telemetry"
	"github.com/ghuser/sweetshop/pkg/workflows"
)

// Application holds shared infrastructure for every bounded context. cmd/api
// and cmd/worker build one and hand it to the service containers.
//
// Logging: app.Logger is trace-aware. Use the context methods on request paths
// so trace_id, span_id and request_id are attached:
//
//	app.Logger.InfoContext(ctx, "sweet purchased", "sweet_id", id)
//
// Optional members are nil when their backend is disabled: Db with the memory
// storage driver, Redis when the cache is unreachable at startup, and
// TemporalClient unless TEMPORAL_ENABLED is set.
type Application struct {
	Config         *config.Config
	Db             *database.Database
	Logger         logger.Logger
	EventBus       *events.EventBus
	Redis          *cache.RedisClient
	TemporalClient *workflows.TemporalClient
	SessionStore   sessions.Store // nil in the worker process
	Verifier       *auth.TokenVerifier
	Metrics        *telemetry.ShopMetrics
}
