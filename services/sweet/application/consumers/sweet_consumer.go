// Package consumers reacts to sweet domain events: it keeps the Redis read
// model in step with the store and schedules restock reminders.
package consumers

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"

	pkgcache "github.com/ghuser/sweetshop/pkg/cache"
	pkgevents "github.com/ghuser/sweetshop/pkg/events"
	"github.com/ghuser/sweetshop/pkg/logger"
	"github.com/ghuser/sweetshop/services/sweet/domain/events"
)

// Subscriber is satisfied by *events.EventBus.
type Subscriber interface {
	Subscribe(ctx context.Context, topic string, handler func(context.Context, *message.Message) error) (<-chan error, error)
}

// CacheWriter is the write side of the sweet cache.
type CacheWriter interface {
	Set(ctx context.Context, s *pkgcache.CachedSweet) error
	Delete(ctx context.Context, id uuid.UUID, version int64) error
}

// RestockReminders schedules a reminder for a sold-out sweet.
type RestockReminders interface {
	ScheduleRestockReminder(ctx context.Context, sweetID uuid.UUID) error
}

// SweetConsumer handles every sweet topic. Handlers are idempotent: cache
// writes are version-guarded and reminders are keyed by sweet ID.
type SweetConsumer struct {
	cache     CacheWriter
	reminders RestockReminders
	log       logger.Logger
}

// NewSweetConsumer returns a consumer. cache and reminders may be nil to turn
// that reaction off.
func NewSweetConsumer(cache CacheWriter, reminders RestockReminders, log logger.Logger) *SweetConsumer {
	return &SweetConsumer{cache: cache, reminders: reminders, log: log}
}

// Subscribe starts consuming every sweet topic. Failures that outlast the
// bus retries are logged. The returned channel is closed once every
// subscription has stopped, which happens when ctx ends or the bus closes.
func (c *SweetConsumer) Subscribe(ctx context.Context, sub Subscriber) (<-chan struct{}, error) {
	var wg sync.WaitGroup
	for _, topic := range events.Topics() {
		errs, err := sub.Subscribe(ctx, topic, c.Handler(topic))
		if err != nil {
			return nil, err
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			for err := range errs {
				c.log.ErrorContext(ctx, "sweet event handling failed", "topic", topic, "error", err)
			}
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	c.log.InfoContext(ctx, "sweet consumer subscribed", "topics", events.Topics())
	return done, nil
}

// Handler returns the message handler for one topic.
func (c *SweetConsumer) Handler(topic string) func(context.Context, *message.Message) error {
	return func(ctx context.Context, msg *message.Message) error {
		var ev events.SweetEvent
		if err := pkgevents.DecodeJSON(msg, &ev); err != nil {
			// Redelivery cannot fix a corrupt payload.
			c.log.ErrorContext(ctx, "dropping undecodable sweet event", "topic", topic, "message_uuid", msg.UUID, "error", err)
			return nil
		}

		switch topic {
		case events.TopicSweetCreated, events.TopicSweetUpdated, events.TopicSweetPurchased:
			return c.refresh(ctx, ev)
		case events.TopicSweetDeleted:
			return c.tombstone(ctx, ev)
		case events.TopicSweetSoldOut:
			return c.soldOut(ctx, ev)
		default:
			c.log.WarnContext(ctx, "ignoring event on unknown topic", "topic", topic)
			return nil
		}
	}
}

func (c *SweetConsumer) refresh(ctx context.Context, ev events.SweetEvent) error {
	if c.cache == nil {
		return nil
	}
	err := c.cache.Set(ctx, &pkgcache.CachedSweet{
		ID:        ev.SweetID,
		Name:      ev.Name,
		Category:  ev.Category,
		Price:     ev.Price,
		Quantity:  ev.Quantity,
		Version:   ev.SweetVersion,
		CreatedAt: ev.CreatedAt,
		UpdatedAt: ev.OccurredAt,
	})
	if errors.Is(err, pkgcache.ErrStale) {
		c.log.DebugContext(ctx, "skipped stale sweet snapshot", "sweet_id", ev.SweetID, "version", ev.SweetVersion)
		return nil
	}
	if err != nil {
		return fmt.Errorf("refresh sweet %s: %w", ev.SweetID, err)
	}
	return nil
}

func (c *SweetConsumer) tombstone(ctx context.Context, ev events.SweetEvent) error {
	if c.cache == nil {
		return nil
	}
	if err := c.cache.Delete(ctx, ev.SweetID, ev.SweetVersion); err != nil && !errors.Is(err, pkgcache.ErrStale) {
		return fmt.Errorf("tombstone sweet %s: %w", ev.SweetID, err)
	}
	return nil
}

func (c *SweetConsumer) soldOut(ctx context.Context, ev events.SweetEvent) error {
	c.log.InfoContext(ctx, "sweet sold out", "sweet_id", ev.SweetID, "name", ev.Name)
	if c.reminders == nil {
		return nil
	}
	return c.reminders.ScheduleRestockReminder(ctx, ev.SweetID)
}
