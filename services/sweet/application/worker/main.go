// Package worker runs the asynchronous side of the sweet bounded context:
// the event consumer and the Temporal restock worker.
package worker

import (
	"context"
	"errors"
	"fmt"

	"github.com/ghuser/sweetshop/pkg/app"
	"github.com/ghuser/sweetshop/pkg/cache"
	"github.com/ghuser/sweetshop/services/sweet/application/consumers"
	appsvcs "github.com/ghuser/sweetshop/services/sweet/application/services"
	"github.com/ghuser/sweetshop/services/sweet/application/workflows"
	"github.com/ghuser/sweetshop/services/sweet/domain/repositories"

	temporalworker "go.temporal.io/sdk/worker"
)

// Runner is a started worker.
type Runner struct {
	done     <-chan struct{}
	temporal temporalworker.Worker
}

// Start subscribes the sweet consumer to a.EventBus and, when a Temporal
// client is configured, starts the restock reminder worker. Without Redis the
// consumer only schedules reminders; without Temporal it only feeds the cache.
func Start(ctx context.Context, a *app.Application, sweets repositories.SweetRepository) (*Runner, error) {
	if a.EventBus == nil {
		return nil, errors.New("worker: event bus is required")
	}

	var cacheWriter consumers.CacheWriter
	if a.Redis != nil {
		cacheWriter = cache.NewSweetCache(a.Redis, a.Config.SweetCacheTTL)
	}

	r := &Runner{}
	var reminders consumers.RestockReminders
	if a.TemporalClient != nil {
		r.temporal = a.TemporalClient.NewWorker()
		workflows.Register(r.temporal, &workflows.Activities{Sweets: sweets, Log: a.Logger})
		if err := r.temporal.Start(); err != nil {
			return nil, fmt.Errorf("worker: start temporal worker: %w", err)
		}
		reminders = workflows.NewRestockScheduler(a.TemporalClient.Client, a.TemporalClient.TaskQueue, a.Config.RestockReminderDelay)
	}

	done, err := consumers.NewSweetConsumer(cacheWriter, reminders, a.Logger).Subscribe(ctx, a.EventBus)
	if err != nil {
		r.Stop()
		return nil, fmt.Errorf("worker: subscribe: %w", err)
	}
	r.done = done
	return r, nil
}

// Done is closed when every event subscription has stopped.
func (r *Runner) Done() <-chan struct{} {
	return r.done
}

// Stop stops the Temporal worker. Subscriptions end with their context or
// when the event bus is closed.
func (r *Runner) Stop() {
	if r.temporal != nil {
		r.temporal.Stop()
	}
}

// WarmCache loads every sweet into the cache. Entries already at the same or
// a newer version are left alone. It returns the number of entries written.
func WarmCache(ctx context.Context, a *app.Application, sweets repositories.SweetRepository) (int, error) {
	if a.Redis == nil {
		return 0, nil
	}
	c := cache.NewSweetCache(a.Redis, a.Config.SweetCacheTTL)
	list, err := sweets.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("warm cache: %w", err)
	}
	written := 0
	for _, s := range list {
		err := c.Set(ctx, appsvcs.ToCacheEntry(s))
		switch {
		case err == nil:
			written++
		case errors.Is(err, cache.ErrStale):
		default:
			return written, fmt.Errorf("warm cache: %w", err)
		}
	}
	a.Logger.InfoContext(ctx, "sweet cache warmed", "sweets", len(list), "written", written)
	return written, nil
}
