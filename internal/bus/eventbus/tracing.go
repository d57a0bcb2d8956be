package eventbus

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"eventbus/internal/bus"
	"eventbus/internal/bus/tracing"
)

// TracedBus wraps a bus.Bus with distributed tracing
// Layer order: TracedBus -> MetricsBus -> EventBus (real thing)
type TracedBus struct {
	bus    bus.Bus
	tracer *tracing.Tracer
}

// NewTracedBus creates a new traced bus that wraps a metrics bus
func NewTracedBus(b bus.Bus, tracer *tracing.Tracer) bus.Bus {
	return &TracedBus{
		bus:    b,
		tracer: tracer,
	}
}

// Subscribe implements bus.Bus.Subscribe with distributed tracing
func (t *TracedBus) Subscribe(ctx context.Context, kind bus.Kind, filter bus.Filter, sub bus.Subscriber) error {
	ctx, span := t.tracer.StartSpan(ctx, "eventbus.subscribe")
	defer span.End()

	span.SetAttributes(t.tracer.SubscriptionAttributes(kind, filter != nil)...)

	err := t.bus.Subscribe(ctx, kind, filter, sub)
	t.finish(ctx, err)

	return err
}

// SubscribeAll implements bus.Bus.SubscribeAll with distributed tracing
func (t *TracedBus) SubscribeAll(ctx context.Context, sub bus.Subscriber) error {
	ctx, span := t.tracer.StartSpan(ctx, "eventbus.subscribe")
	defer span.End()

	span.SetAttributes(t.tracer.SubscriptionAttributes(bus.AnyKind, false)...)

	err := t.bus.SubscribeAll(ctx, sub)
	t.finish(ctx, err)

	return err
}

// Unsubscribe implements bus.Bus.Unsubscribe with distributed tracing
func (t *TracedBus) Unsubscribe(ctx context.Context, sub bus.Subscriber) int {
	ctx, span := t.tracer.StartSpan(ctx, "eventbus.unsubscribe")
	defer span.End()

	removed := t.bus.Unsubscribe(ctx, sub)

	span.SetAttributes(attribute.Int("eventbus.subscriptions_removed", removed))
	span.SetStatus(codes.Ok, "")

	return removed
}

// Publish implements bus.Bus.Publish with distributed tracing. Subscribers
// receive the span context so their own spans are parented to the publish.
func (t *TracedBus) Publish(ctx context.Context, e bus.Event) int {
	ctx, span := t.tracer.StartSpan(ctx, "eventbus.publish")
	defer span.End()

	span.SetAttributes(t.tracer.EventAttributes(e)...)

	deliveries := t.bus.Publish(ctx, e)

	span.SetAttributes(attribute.Int("eventbus.deliveries", deliveries))
	span.SetStatus(codes.Ok, "")

	return deliveries
}

func (t *TracedBus) Subscriptions() int {
	return t.bus.Subscriptions()
}

func (t *TracedBus) finish(ctx context.Context, err error) {
	span := t.tracer.SpanFromContext(ctx)
	if err != nil {
		t.tracer.RecordError(ctx, err)
	} else {
		span.SetStatus(codes.Ok, "")
	}

	span.SetAttributes(t.tracer.ErrorAttributes(err)...)
}
