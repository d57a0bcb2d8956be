package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry encapsulates all metrics and provides a clean interface
// for recording metrics without global state
type Registry struct {
	registry *prometheus.Registry

	// Bus metrics
	publishTotal       *prometheus.CounterVec
	publishDuration    *prometheus.HistogramVec
	deliveriesTotal    *prometheus.CounterVec
	subscriptions      prometheus.Gauge
	subscriptionOpsTot *prometheus.CounterVec

	// Subscriber metrics
	enqueuedTotal   *prometheus.CounterVec
	droppedTotal    *prometheus.CounterVec
	queueDepth      *prometheus.GaugeVec
	processedTotal  *prometheus.CounterVec
	processDuration *prometheus.HistogramVec

	// System health metrics
	systemInfo *prometheus.GaugeVec
	startTime  prometheus.Gauge
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	registry := prometheus.NewRegistry()

	r := &Registry{
		registry: registry,

		publishTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eventbus_publish_total",
				Help: "Total number of published events",
			},
			[]string{"kind", "status"}, // status: delivered, unmatched
		),

		publishDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "eventbus_publish_duration_seconds",
				Help:    "Time spent matching and handing events to subscribers",
				Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
			},
			[]string{"kind"},
		),

		deliveriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eventbus_deliveries_total",
				Help: "Total number of event deliveries to matching subscriptions",
			},
			[]string{"kind"},
		),

		subscriptions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "eventbus_subscriptions",
				Help: "Current number of registered subscriptions",
			},
		),

		subscriptionOpsTot: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eventbus_subscription_operation_total",
				Help: "Total number of subscription operations",
			},
			[]string{"operation", "status"}, // operation: subscribe, unsubscribe
		),

		enqueuedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eventbus_subscriber_enqueued_total",
				Help: "Total number of events enqueued for an async subscriber",
			},
			[]string{"subscriber"},
		),

		droppedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eventbus_subscriber_dropped_total",
				Help: "Total number of events discarded because the subscriber had terminated",
			},
			[]string{"subscriber"},
		),

		queueDepth: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "eventbus_subscriber_queue_depth",
				Help: "Number of events waiting in an async subscriber queue",
			},
			[]string{"subscriber"},
		),

		processedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eventbus_subscriber_processed_total",
				Help: "Total number of events handled by subscribers",
			},
			[]string{"subscriber", "kind", "status"}, // status: success, error
		),

		processDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "eventbus_subscriber_process_duration_seconds",
				Help:    "Time spent handling a single event",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"subscriber", "kind"},
		),

		systemInfo: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "eventbus_system_info",
				Help: "System information (value is always 1, labels contain info)",
			},
			[]string{"version", "build_time"},
		),

		startTime: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "eventbus_start_time_seconds",
				Help: "Unix timestamp when the application started",
			},
		),
	}

	// add default Go metrics (memory, GC, goroutines, etc.)
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	registry.MustRegister(
		r.publishTotal,
		r.publishDuration,
		r.deliveriesTotal,
		r.subscriptions,
		r.subscriptionOpsTot,
		r.enqueuedTotal,
		r.droppedTotal,
		r.queueDepth,
		r.processedTotal,
		r.processDuration,
		r.systemInfo,
		r.startTime,
	)

	r.startTime.SetToCurrentTime()

	return r
}

// Handler returns an HTTP handler for the Prometheus metrics endpoint
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		Registry:          r.registry,
	})
}

// Gatherer exposes the underlying registry for scraping in tests.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}

// RecordPublish records a publish operation and the number of deliveries it made
func (r *Registry) RecordPublish(kind string, deliveries int, duration time.Duration) {
	status := "delivered"
	if deliveries == 0 {
		status = "unmatched"
	}

	r.publishTotal.WithLabelValues(kind, status).Inc()
	r.publishDuration.WithLabelValues(kind).Observe(duration.Seconds())
	if deliveries > 0 {
		r.deliveriesTotal.WithLabelValues(kind).Add(float64(deliveries))
	}
}

// RecordSubscriptionOperation records a subscribe or unsubscribe call
func (r *Registry) RecordSubscriptionOperation(operation string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	r.subscriptionOpsTot.WithLabelValues(operation, status).Inc()
}

// UpdateSubscriptions updates the registered subscriptions gauge
func (r *Registry) UpdateSubscriptions(count int) {
	r.subscriptions.Set(float64(count))
}

// RecordEnqueue records an event accepted into a subscriber queue
func (r *Registry) RecordEnqueue(subscriber string, depth int) {
	r.enqueuedTotal.WithLabelValues(subscriber).Inc()
	r.queueDepth.WithLabelValues(subscriber).Set(float64(depth))
}

// RecordDequeue updates the queue depth after the worker took an event
func (r *Registry) RecordDequeue(subscriber string, depth int) {
	r.queueDepth.WithLabelValues(subscriber).Set(float64(depth))
}

// RecordDropped records events discarded by a terminated subscriber
func (r *Registry) RecordDropped(subscriber string, count int) {
	if count <= 0 {
		return
	}
	r.droppedTotal.WithLabelValues(subscriber).Add(float64(count))
}

// RecordProcess records the handling of a single event by a subscriber
func (r *Registry) RecordProcess(subscriber, kind string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	r.processedTotal.WithLabelValues(subscriber, kind, status).Inc()
	r.processDuration.WithLabelValues(subscriber, kind).Observe(duration.Seconds())
}

// SetSystemInfo sets system information metrics
func (r *Registry) SetSystemInfo(version, buildTime string) {
	r.systemInfo.WithLabelValues(version, buildTime).Set(1)
}
