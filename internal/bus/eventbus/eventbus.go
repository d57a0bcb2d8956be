package eventbus

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"eventbus/internal/bus"
	"eventbus/internal/bus/registry"
	"eventbus/internal/validator"
)

// EventBus is the concrete bus.Bus. It keeps subscriptions in a registry
// and hands every matching event to the subscriber on the publishing
// goroutine; subscribers decide whether that means inline or queued work.
type EventBus struct {
	registry *registry.Registry
	logger   *zap.Logger
}

func NewEventBus(registry *registry.Registry, logger *zap.Logger) (*EventBus, error) {
	b := EventBus{
		registry: registry,
		logger:   logger,
	}

	if err := validator.Validate("eventbus", b.registry, b.logger); err != nil {
		return nil, fmt.Errorf("failed to validate eventbus deps: %w", err)
	}
	b.logger = b.logger.Named("eventbus")

	return &b, nil
}

func (b *EventBus) Subscribe(_ context.Context, kind bus.Kind, filter bus.Filter, sub bus.Subscriber) error {
	s, err := b.registry.Add(kind, filter, sub)
	if err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	b.logger.Debug("subscribed",
		zap.String("subscriptionId", s.ID),
		zap.String("kind", string(kind)),
		zap.Bool("filtered", filter != nil),
	)

	return nil
}

func (b *EventBus) SubscribeAll(ctx context.Context, sub bus.Subscriber) error {
	return b.Subscribe(ctx, bus.AnyKind, nil, sub)
}

func (b *EventBus) Unsubscribe(_ context.Context, sub bus.Subscriber) int {
	removed := b.registry.RemoveSubscriber(sub)
	if removed > 0 {
		b.logger.Debug("unsubscribed", zap.Int("removed", removed))
	}

	return removed
}

// Publish works on a snapshot of the matching subscriptions, so concurrent
// subscribe/unsubscribe calls may or may not be reflected in this call.
func (b *EventBus) Publish(ctx context.Context, e bus.Event) int {
	matched := b.registry.Match(e)
	for _, s := range matched {
		s.Subscriber.ProcessEvent(ctx, e)
	}

	return len(matched)
}

func (b *EventBus) Subscriptions() int {
	return b.registry.Len()
}
