package eventbus

import (
	"context"
	"time"

	"eventbus/internal/bus"
	"eventbus/internal/bus/metrics"
)

// MetricsBus wraps a bus.Bus with metrics collection
type MetricsBus struct {
	bus      bus.Bus
	registry *metrics.Registry
}

// NewMetricsBus creates a new instrumented bus
func NewMetricsBus(b bus.Bus, registry *metrics.Registry) bus.Bus {
	return &MetricsBus{
		bus:      b,
		registry: registry,
	}
}

// Subscribe implements bus.Bus.Subscribe with metrics collection
func (m *MetricsBus) Subscribe(ctx context.Context, kind bus.Kind, filter bus.Filter, sub bus.Subscriber) error {
	err := m.bus.Subscribe(ctx, kind, filter, sub)

	m.registry.RecordSubscriptionOperation("subscribe", err)
	m.registry.UpdateSubscriptions(m.bus.Subscriptions())

	return err
}

// SubscribeAll implements bus.Bus.SubscribeAll with metrics collection
func (m *MetricsBus) SubscribeAll(ctx context.Context, sub bus.Subscriber) error {
	err := m.bus.SubscribeAll(ctx, sub)

	m.registry.RecordSubscriptionOperation("subscribe", err)
	m.registry.UpdateSubscriptions(m.bus.Subscriptions())

	return err
}

// Unsubscribe implements bus.Bus.Unsubscribe with metrics collection
func (m *MetricsBus) Unsubscribe(ctx context.Context, sub bus.Subscriber) int {
	removed := m.bus.Unsubscribe(ctx, sub)

	m.registry.RecordSubscriptionOperation("unsubscribe", nil)
	m.registry.UpdateSubscriptions(m.bus.Subscriptions())

	return removed
}

// Publish implements bus.Bus.Publish with metrics collection
func (m *MetricsBus) Publish(ctx context.Context, e bus.Event) int {
	start := time.Now()

	deliveries := m.bus.Publish(ctx, e)
	duration := time.Since(start)

	m.registry.RecordPublish(string(e.Kind), deliveries, duration)

	return deliveries
}

func (m *MetricsBus) Subscriptions() int {
	return m.bus.Subscriptions()
}
