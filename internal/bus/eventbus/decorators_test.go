package eventbus

import (
	"context"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"eventbus/internal/bus"
	"eventbus/internal/bus/metrics"
	"eventbus/internal/bus/tracing"
)

func TestMetricsBus(t *testing.T) {
	reg := metrics.NewRegistry()
	b := NewMetricsBus(newBus(t), reg)
	ctx := context.Background()
	in := &inbox{}

	require.NoError(t, b.Subscribe(ctx, kindL1, nil, in))
	require.NoError(t, b.SubscribeAll(ctx, in))
	require.ErrorIs(t, b.Subscribe(ctx, kindL1, nil, nil), bus.ErrInvalidArgument)

	assert.Equal(t, 2, b.Publish(ctx, bus.Event{Kind: kindL1}))
	assert.Equal(t, 1, b.Publish(ctx, bus.Event{Kind: kindL2}))
	assert.Equal(t, 2, b.Unsubscribe(ctx, in))
	assert.Equal(t, 0, b.Publish(ctx, bus.Event{Kind: kindL2}))

	expected := `
# HELP eventbus_deliveries_total Total number of event deliveries to matching subscriptions
# TYPE eventbus_deliveries_total counter
eventbus_deliveries_total{kind="marketdata.l1"} 2
eventbus_deliveries_total{kind="marketdata.l2"} 1
# HELP eventbus_subscriptions Current number of registered subscriptions
# TYPE eventbus_subscriptions gauge
eventbus_subscriptions 0
# HELP eventbus_subscription_operation_total Total number of subscription operations
# TYPE eventbus_subscription_operation_total counter
eventbus_subscription_operation_total{operation="subscribe",status="error"} 1
eventbus_subscription_operation_total{operation="subscribe",status="success"} 2
eventbus_subscription_operation_total{operation="unsubscribe",status="success"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg.Gatherer(), strings.NewReader(expected),
		"eventbus_deliveries_total",
		"eventbus_subscriptions",
		"eventbus_subscription_operation_total",
	))

	count, err := testutil.GatherAndCount(reg.Gatherer(), "eventbus_publish_total")
	require.NoError(t, err)
	assert.Equal(t, 3, count) // l1/delivered, l2/delivered, l2/unmatched
}

func TestTracedBus(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tracer := tracing.NewTracerWithProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec)), "test")
	b := NewTracedBus(newBus(t), tracer)
	ctx := context.Background()

	var parent bool
	probe := subscriberFunc(func(ctx context.Context, _ bus.Event) {
		parent = tracer.SpanFromContext(ctx).SpanContext().IsValid()
	})

	require.NoError(t, b.Subscribe(ctx, kindL1, bus.ExactTag(1), probe))
	require.Error(t, b.SubscribeAll(ctx, nil))
	assert.Equal(t, 1, b.Publish(ctx, bus.Event{Kind: kindL1, Tag: 1}))
	assert.Equal(t, 1, b.Unsubscribe(ctx, probe))
	assert.True(t, parent, "subscriber should see the publish span")

	spans := rec.Ended()
	require.Len(t, spans, 4)

	assert.Equal(t, "eventbus.subscribe", spans[0].Name())
	assert.Contains(t, spans[0].Attributes(), attribute.Bool("eventbus.subscription.filtered", true))
	assert.Equal(t, codes.Error, spans[1].Status().Code)

	assert.Equal(t, "eventbus.publish", spans[2].Name())
	assert.Contains(t, spans[2].Attributes(), attribute.Int("eventbus.deliveries", 1))
	assert.Contains(t, spans[2].Attributes(), attribute.String("eventbus.event.kind", string(kindL1)))

	assert.Equal(t, "eventbus.unsubscribe", spans[3].Name())
	assert.Contains(t, spans[3].Attributes(), attribute.Int("eventbus.subscriptions_removed", 1))
}

func TestLayeredBus(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tracer := tracing.NewTracerWithProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec)), "test")
	reg := metrics.NewRegistry()
	b := NewTracedBus(NewMetricsBus(newBus(t), reg), tracer)
	ctx := context.Background()
	in := &inbox{}

	require.NoError(t, b.Subscribe(ctx, kindL2, bus.AlwaysTrue(), in))
	b.Publish(ctx, bus.Event{Kind: kindL2, Tag: 2})

	assert.Len(t, in.Events(), 1)
	assert.Equal(t, 1, b.Subscriptions())
	assert.Len(t, rec.Ended(), 2)
}

type subscriberFunc func(ctx context.Context, e bus.Event)

func (f subscriberFunc) ProcessEvent(ctx context.Context, e bus.Event) { f(ctx, e) }
