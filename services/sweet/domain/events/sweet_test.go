package events_test

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/ghuser/sweetshop/services/sweet/domain/events"
	"github.com/ghuser/sweetshop/services/sweet/domain/models"
)

func newSweet(t *testing.T, qty int64) *models.Sweet {
	t.Helper()
	attrs, err := models.NewAttributes("Lollipop", "Hard Candy", decimal.RequireFromString("1.5"), qty)
	if err != nil {
		t.Fatal(err)
	}
	return models.NewSweet(attrs)
}

func TestNewSweetEvent_Snapshot(t *testing.T) {
	s := newSweet(t, 100)
	e := events.NewSweetEvent(s)

	if e.SweetID != s.ID || e.Name != "Lollipop" || e.Category != "Hard Candy" {
		t.Fatalf("unexpected identity fields: %+v", e)
	}
	if e.Price != "1.50" {
		t.Errorf("Price: got %q, want 1.50", e.Price)
	}
	if e.Quantity != 100 || e.SweetVersion != 1 || e.Version != events.SchemaVersion {
		t.Errorf("unexpected counters: %+v", e)
	}
	if !e.OccurredAt.Equal(s.UpdatedAt) {
		t.Errorf("OccurredAt: got %v, want %v", e.OccurredAt, s.UpdatedAt)
	}
	if e.Purchased != 0 {
		t.Errorf("Purchased must be empty outside purchase events, got %d", e.Purchased)
	}
}

func TestSweetEvent_JSONFieldNames(t *testing.T) {
	data, err := json.Marshal(events.NewSweetEvent(newSweet(t, 1)))
	if err != nil {
		t.Fatalf("json.Marshal failed: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("json.Unmarshal failed: %v", err)
	}
	for _, field := range []string{"event_id", "version", "sweet_id", "name", "category", "price", "quantity", "sweet_version", "occurred_at"} {
		if _, ok := m[field]; !ok {
			t.Errorf("expected JSON field %q to be present", field)
		}
	}
	if _, ok := m["purchased"]; ok {
		t.Error("purchased must be omitted when zero")
	}
	if _, ok := m["price"].(string); !ok {
		t.Errorf("price must encode as a string, got %T", m["price"])
	}
}

func TestForPurchase(t *testing.T) {
	tests := []struct {
		name       string
		stock      int64
		buy        int64
		wantTopics []string
	}{
		{"stock remains", 5, 2, []string{events.TopicSweetPurchased}},
		{"last unit sold", 2, 2, []string{events.TopicSweetPurchased, events.TopicSweetSoldOut}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSweet(t, tt.stock)
			if err := s.Purchase(tt.buy); err != nil {
				t.Fatal(err)
			}
			out := events.ForPurchase(s, tt.buy)
			if len(out) != len(tt.wantTopics) {
				t.Fatalf("got %d events, want %d", len(out), len(tt.wantTopics))
			}
			for i, topic := range tt.wantTopics {
				if out[i].Topic != topic {
					t.Errorf("event %d: topic %q, want %q", i, out[i].Topic, topic)
				}
			}
			if out[0].Event.Purchased != tt.buy {
				t.Errorf("Purchased: got %d, want %d", out[0].Event.Purchased, tt.buy)
			}
			if out[0].Event.Quantity != tt.stock-tt.buy {
				t.Errorf("Quantity: got %d, want %d", out[0].Event.Quantity, tt.stock-tt.buy)
			}
		})
	}
}

func TestForDelete_AdvancesVersion(t *testing.T) {
	s := newSweet(t, 1)
	out := events.ForDelete(s)
	if out.Topic != events.TopicSweetDeleted {
		t.Fatalf("topic: got %q", out.Topic)
	}
	if out.Event.SweetVersion != s.Version+1 {
		t.Fatalf("SweetVersion: got %d, want %d", out.Event.SweetVersion, s.Version+1)
	}
}

func TestTopics_Unique(t *testing.T) {
	seen := map[string]bool{}
	for _, topic := range events.Topics() {
		if seen[topic] {
			t.Fatalf("duplicate topic %q", topic)
		}
		seen[topic] = true
	}
	if len(seen) != 5 {
		t.Fatalf("expected 5 topics, got %d", len(seen))
	}
}
