// Package memory is an in-process SweetRepository for local runs and tests.
package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"

	"github.com/ghuser/sweetshop/services/sweet/domain"
	"github.com/ghuser/sweetshop/services/sweet/domain/events"
	"github.com/ghuser/sweetshop/services/sweet/domain/models"
	"github.com/ghuser/sweetshop/services/sweet/infrastructure/persistence"
)

// Publisher receives the domain events emitted by committed mutations.
// *events.EventBus from pkg/events satisfies it.
type Publisher interface {
	Publish(ctx context.Context, topic string, msgs ...*message.Message) error
}

// entry guards one sweet. dead is set under mu when the sweet is deleted, so a
// caller that looked the entry up before removal still observes NotFound.
type entry struct {
	mu    sync.Mutex
	sweet *models.Sweet
	dead  bool
}

// SweetRepository keeps sweets in a map. The RWMutex guards membership only;
// each entry has its own mutex, so mutations of different sweets never wait
// on each other. Lock order is entry before map.
type SweetRepository struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]*entry
	pub     Publisher
}

// NewSweetRepository returns an empty repository. pub may be nil.
func NewSweetRepository(pub Publisher) *SweetRepository {
	return &SweetRepository{
		entries: make(map[uuid.UUID]*entry),
		pub:     pub,
	}
}

// Save stores a new sweet and publishes sweet.created.
func (r *SweetRepository) Save(ctx context.Context, sweet *models.Sweet) error {
	e := &entry{sweet: sweet.Clone()}
	// Hold the new entry until its event is out so no later event overtakes it.
	e.mu.Lock()
	defer e.mu.Unlock()

	r.mu.Lock()
	if _, ok := r.entries[sweet.ID]; ok {
		r.mu.Unlock()
		return domain.ErrSweetAlreadyExists
	}
	r.entries[sweet.ID] = e
	r.mu.Unlock()

	if err := r.publish(ctx, events.Outgoing{Topic: events.TopicSweetCreated, Event: events.NewSweetEvent(sweet)}); err != nil {
		e.dead = true
		r.remove(sweet.ID, e)
		return err
	}
	return nil
}

// GetByID returns a copy of the stored sweet.
func (r *SweetRepository) GetByID(_ context.Context, id uuid.UUID) (*models.Sweet, error) {
	e, err := r.lock(id)
	if err != nil {
		return nil, err
	}
	defer e.mu.Unlock()
	return e.sweet.Clone(), nil
}

// List returns copies of every live sweet ordered by creation time, then ID.
func (r *SweetRepository) List(_ context.Context) ([]*models.Sweet, error) {
	r.mu.RLock()
	snapshot := make([]*entry, 0, len(r.entries))
	for _, e := range r.entries {
		snapshot = append(snapshot, e)
	}
	r.mu.RUnlock()

	out := make([]*models.Sweet, 0, len(snapshot))
	for _, e := range snapshot {
		e.mu.Lock()
		if !e.dead {
			out = append(out, e.sweet.Clone())
		}
		e.mu.Unlock()
	}
	slices.SortFunc(out, func(a, b *models.Sweet) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID.String(), b.ID.String())
	})
	return out, nil
}

// Count returns the number of stored sweets.
func (r *SweetRepository) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries), nil
}

// Update applies fn to a copy under the sweet's lock and swaps it in on
// success, then publishes sweet.updated.
func (r *SweetRepository) Update(ctx context.Context, id uuid.UUID, fn func(*models.Sweet) error) (*models.Sweet, error) {
	e, err := r.lock(id)
	if err != nil {
		return nil, err
	}
	defer e.mu.Unlock()

	next := e.sweet.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	return r.commit(ctx, e, next, events.Outgoing{Topic: events.TopicSweetUpdated, Event: events.NewSweetEvent(next)})
}

// Purchase checks and decrements stock as one step under the sweet's lock.
func (r *SweetRepository) Purchase(ctx context.Context, id uuid.UUID, n int64) (*models.Sweet, error) {
	if err := models.CheckPurchaseQuantity(n); err != nil {
		return nil, err
	}
	e, err := r.lock(id)
	if err != nil {
		return nil, err
	}
	defer e.mu.Unlock()

	next := e.sweet.Clone()
	if err := next.Purchase(n); err != nil {
		return nil, err
	}
	return r.commit(ctx, e, next, events.ForPurchase(next, n)...)
}

// Delete marks the entry dead, drops it from the map and publishes sweet.deleted.
func (r *SweetRepository) Delete(ctx context.Context, id uuid.UUID) error {
	e, err := r.lock(id)
	if err != nil {
		return err
	}
	defer e.mu.Unlock()

	if err := r.publish(ctx, events.ForDelete(e.sweet)); err != nil {
		return err
	}
	e.dead = true
	r.remove(id, e)
	return nil
}

// commit must be called with e.mu held. The previous value is restored if the
// events cannot be published.
func (r *SweetRepository) commit(ctx context.Context, e *entry, next *models.Sweet, out ...events.Outgoing) (*models.Sweet, error) {
	prev := e.sweet
	e.sweet = next
	if err := r.publish(ctx, out...); err != nil {
		e.sweet = prev
		return nil, err
	}
	return next.Clone(), nil
}

// lock returns the live entry for id with its mutex held.
func (r *SweetRepository) lock(id uuid.UUID) (*entry, error) {
	r.mu.RLock()
	e, ok := r.entries[id]
	r.mu.RUnlock()
	if !ok {
		return nil, domain.ErrSweetNotFound
	}
	e.mu.Lock()
	if e.dead {
		e.mu.Unlock()
		return nil, domain.ErrSweetNotFound
	}
	return e, nil
}

func (r *SweetRepository) remove(id uuid.UUID, e *entry) {
	r.mu.Lock()
	if r.entries[id] == e {
		delete(r.entries, id)
	}
	r.mu.Unlock()
}

func (r *SweetRepository) publish(ctx context.Context, out ...events.Outgoing) error {
	if r.pub == nil {
		return nil
	}
	if err := persistence.PublishAll(ctx, r.pub.Publish, out...); err != nil {
		return fmt.Errorf("memory: %w", err)
	}
	return nil
}
