// Package persistence holds code shared by the sweet repository implementations.
package persistence

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"

	pkgevents "github.com/ghuser/sweetshop/pkg/events"
	"github.com/ghuser/sweetshop/services/sweet/domain/events"
)

// Message encodes a domain event as a Watermill message.
func Message(ctx context.Context, o events.Outgoing) (*message.Message, error) {
	msg, err := pkgevents.NewJSONMessage(ctx, o.Event.EventID.String(), o.Event.Version, o.Event)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", o.Topic, err)
	}
	return msg, nil
}

// PublishFunc matches both EventBus.Publish and a transactional publisher
// adapted with a context.
type PublishFunc func(ctx context.Context, topic string, msgs ...*message.Message) error

// PublishAll encodes and publishes each event in order.
func PublishAll(ctx context.Context, publish PublishFunc, out ...events.Outgoing) error {
	for _, o := range out {
		msg, err := Message(ctx, o)
		if err != nil {
			return err
		}
		if err := publish(ctx, o.Topic, msg); err != nil {
			return fmt.Errorf("publish %s: %w", o.Topic, err)
		}
	}
	return nil
}
