package subscriber

import (
	"context"
	"time"

	"eventbus/internal/bus"
	"eventbus/internal/bus/metrics"
)

// MetricsHandler wraps a bus.Handler with metrics collection
type MetricsHandler struct {
	handler    bus.Handler
	registry   *metrics.Registry
	subscriber string
}

// NewMetricsHandler creates a new instrumented handler for the named subscriber
func NewMetricsHandler(handler bus.Handler, registry *metrics.Registry, subscriber string) bus.Handler {
	return &MetricsHandler{
		handler:    handler,
		registry:   registry,
		subscriber: subscriber,
	}
}

// Handle implements bus.Handler.Handle with metrics collection
func (h *MetricsHandler) Handle(ctx context.Context, e bus.Event) error {
	start := time.Now()

	err := h.handler.Handle(ctx, e)
	duration := time.Since(start)

	h.registry.RecordProcess(h.subscriber, string(e.Kind), duration, err)

	return err
}
