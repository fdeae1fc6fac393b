// Package events defines the integration events emitted by the sweet bounded
// context. Payloads are JSON and carry a full snapshot of the sweet so
// consumers never need to read back from the store.
package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/ghuser/sweetshop/services/sweet/domain/models"
)

// Watermill topics published by the sweet repositories.
const (
	TopicSweetCreated   = "sweet.created"
	TopicSweetUpdated   = "sweet.updated"
	TopicSweetDeleted   = "sweet.deleted"
	TopicSweetPurchased = "sweet.purchased"
	TopicSweetSoldOut   = "sweet.sold_out"
)

// SchemaVersion is bumped on breaking payload changes.
const SchemaVersion = 1

// Topics lists every topic in the order a consumer should subscribe.
func Topics() []string {
	return []string{
		TopicSweetCreated,
		TopicSweetUpdated,
		TopicSweetDeleted,
		TopicSweetPurchased,
		TopicSweetSoldOut,
	}
}

// SweetEvent is the payload for every sweet topic. Purchased is set only on
// sweet.purchased.
type SweetEvent struct {
	EventID      uuid.UUID `json:"event_id"`
	Version      int       `json:"version"`
	SweetID      uuid.UUID `json:"sweet_id"`
	Name         string    `json:"name"`
	Category     string    `json:"category"`
	Price        string    `json:"price"`
	Quantity     int64     `json:"quantity"`
	SweetVersion int64     `json:"sweet_version"`
	Purchased    int64     `json:"purchased,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// NewSweetEvent snapshots s. OccurredAt is the sweet's last update time.
func NewSweetEvent(s *models.Sweet) SweetEvent {
	return SweetEvent{
		EventID:      uuid.New(),
		Version:      SchemaVersion,
		SweetID:      s.ID,
		Name:         s.Name.String(),
		Category:     s.Category.String(),
		Price:        s.Price.String(),
		Quantity:     int64(s.Quantity),
		SweetVersion: s.Version,
		CreatedAt:    s.CreatedAt,
		OccurredAt:   s.UpdatedAt,
	}
}

// Outgoing is an event paired with the topic it belongs on.
type Outgoing struct {
	Topic string
	Event SweetEvent
}

// ForPurchase returns the events for a committed purchase of n units:
// sweet.purchased, followed by sweet.sold_out when the last unit went.
func ForPurchase(s *models.Sweet, n int64) []Outgoing {
	purchased := NewSweetEvent(s)
	purchased.Purchased = n
	out := []Outgoing{{Topic: TopicSweetPurchased, Event: purchased}}
	if !s.InStock() {
		out = append(out, Outgoing{Topic: TopicSweetSoldOut, Event: NewSweetEvent(s)})
	}
	return out
}

// ForDelete returns the sweet.deleted event. The version is advanced past the
// last stored one so a version-guarded cache drops any older snapshot.
func ForDelete(s *models.Sweet) Outgoing {
	e := NewSweetEvent(s)
	e.SweetVersion = s.Version + 1
	e.OccurredAt = time.Now().UTC()
	return Outgoing{Topic: TopicSweetDeleted, Event: e}
}
