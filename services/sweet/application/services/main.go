package services

import (
	"github.com/ghuser/sweetshop/pkg/app"
	"github.com/ghuser/sweetshop/pkg/cache"
	"github.com/ghuser/sweetshop/services/sweet/domain/repositories"
	domainsvcs "github.com/ghuser/sweetshop/services/sweet/domain/services"
	"github.com/ghuser/sweetshop/services/sweet/infrastructure/persistence/memory"
	"github.com/ghuser/sweetshop/services/sweet/infrastructure/persistence/postgres"
)

// Services is the application-layer container for the sweet bounded context.
type Services struct {
	Sweet *SweetService
	// Sweets is the store behind Sweet, shared with in-process consumers and
	// workflow activities.
	Sweets repositories.SweetRepository
}

// New wires the sweet services from the Application container. Postgres is
// used when a.Db is set; otherwise sweets live in process memory. Call New
// once per process: the memory store is owned by the returned container.
func New(a *app.Application) *Services {
	var sweetCache SweetCache
	if a.Redis != nil {
		sweetCache = cache.NewSweetCache(a.Redis, a.Config.SweetCacheTTL)
	}
	gate := domainsvcs.Gate{AnonymousBrowse: a.Config.AllowAnonymousBrowse}
	repo := NewRepository(a)
	return &Services{
		Sweet:  NewSweetService(repo, sweetCache, gate, a.Logger, a.Metrics),
		Sweets: repo,
	}
}

// NewRepository picks the store for the configured storage driver.
func NewRepository(a *app.Application) repositories.SweetRepository {
	if a.Db != nil {
		return postgres.NewSweetRepository(a.Db, a.EventBus)
	}
	var pub memory.Publisher
	if a.EventBus != nil {
		pub = a.EventBus
	}
	return memory.NewSweetRepository(pub)
}
