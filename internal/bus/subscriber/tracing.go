package subscriber

import (
	"context"

	"go.opentelemetry.io/otel/codes"

	"eventbus/internal/bus"
	"eventbus/internal/bus/tracing"
)

// TracedHandler wraps a bus.Handler with distributed tracing
// Layer order: TracedHandler -> MetricsHandler -> Handler (real thing)
type TracedHandler struct {
	handler    bus.Handler
	tracer     *tracing.Tracer
	subscriber string
}

// NewTracedHandler creates a new traced handler for the named subscriber
func NewTracedHandler(handler bus.Handler, tracer *tracing.Tracer, subscriber string) bus.Handler {
	return &TracedHandler{
		handler:    handler,
		tracer:     tracer,
		subscriber: subscriber,
	}
}

// Handle implements bus.Handler.Handle with distributed tracing
func (h *TracedHandler) Handle(ctx context.Context, e bus.Event) error {
	ctx, span := h.tracer.StartSpan(ctx, "subscriber.handle")
	defer span.End()

	span.SetAttributes(h.tracer.SubscriberAttributes(h.subscriber, e)...)

	err := h.handler.Handle(ctx, e)

	if err != nil {
		h.tracer.RecordError(ctx, err)
	} else {
		span.SetStatus(codes.Ok, "")
	}

	span.SetAttributes(h.tracer.ErrorAttributes(err)...)

	return err
}
