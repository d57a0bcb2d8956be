package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/caarlos0/env/v11"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"eventbus/internal/bus"
	"eventbus/internal/bus/eventbus"
	"eventbus/internal/bus/metrics"
	"eventbus/internal/bus/registry"
	"eventbus/internal/bus/subscriber"
	"eventbus/internal/bus/tracing"
	"eventbus/internal/marketdata"
)

type Config struct {
	LogLevel          string        `env:"LOG_LEVEL" envDefault:"info"`
	Producers         int           `env:"PRODUCER_COUNT" envDefault:"1"`
	EventsPerProducer int           `env:"EVENTS_PER_PRODUCER" envDefault:"100"`
	PublishInterval   time.Duration `env:"PUBLISH_INTERVAL" envDefault:"50ms"`
	CloseDelay        time.Duration `env:"CLOSE_CONSUMER_DELAY" envDefault:"10ms"`
	AllDelay          time.Duration `env:"ALL_CONSUMER_DELAY" envDefault:"500ms"`
	ShutdownTimeout   time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"5s"`
	TracingEnabled    bool          `env:"TRACING_ENABLED" envDefault:"false"`

	Metrics metrics.ServerConfig
	Tracing tracing.Config
}

func main() {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("failed to parse environment variables: %v", err)
	}

	config := zap.NewProductionConfig()

	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		log.Printf("invalid log level %q, defaulting to info: %v", cfg.LogLevel, err)
		zapLevel = zapcore.InfoLevel
	}
	config.Level = zap.NewAtomicLevelAt(zapLevel)
	logger, err := config.Build(zap.AddCaller())
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Error("demo failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg Config, logger *zap.Logger) (err error) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sig:
			logger.Info("interrupted, shutting down")
			cancel()
		case <-ctx.Done():
		}
	}()

	metricsRegistry := metrics.NewRegistry()
	metricsRegistry.SetSystemInfo("eventbus-demo", time.Now().Format(time.RFC3339))

	tracer, tracingCleanup, err := newTracer(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer shutdownCancel()
		err = multierr.Append(err, tracingCleanup(shutdownCtx))
	}()

	subs := registry.New()
	base, err := eventbus.NewEventBus(subs, logger)
	if err != nil {
		return fmt.Errorf("failed to create event bus: %w", err)
	}
	b := eventbus.NewTracedBus(eventbus.NewMetricsBus(base, metricsRegistry), tracer)

	metricsServer := metrics.NewServer(cfg.Metrics, metricsRegistry, logger, func() (bool, map[string]any) {
		return true, map[string]any{
			"subscriptions": b.Subscriptions(),
			"subscribers":   subs.Subscribers(),
		}
	})
	go func() {
		if err := metricsServer.Start(ctx); err != nil {
			logger.Error("metrics server failed", zap.Error(err))
		}
	}()
	logger.Info("metrics server started",
		zap.String("endpoint", fmt.Sprintf("http://localhost:%d/metrics", cfg.Metrics.Port)),
		zap.String("ready", fmt.Sprintf("http://localhost:%d/ready", cfg.Metrics.Port)),
	)
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer shutdownCancel()
		err = multierr.Append(err, metricsServer.Stop(shutdownCtx))
	}()

	closeConsumer, err := newConsumer("consumer1", cfg.CloseDelay, logger, metricsRegistry, tracer)
	if err != nil {
		return err
	}
	allConsumer, err := newConsumer("consumer2", cfg.AllDelay, logger, metricsRegistry, tracer)
	if err != nil {
		return err
	}

	console, err := newConsole(logger)
	if err != nil {
		return err
	}

	subscriptions := []struct {
		kind   bus.Kind
		filter bus.Filter
		sub    bus.Subscriber
	}{
		{kind: marketdata.KindL1, filter: marketdata.CloseFilter, sub: closeConsumer},
		{kind: marketdata.KindL2, filter: marketdata.AllFilter, sub: allConsumer},
		{kind: bus.KindExit, filter: bus.AlwaysTrue(), sub: closeConsumer},
		{kind: bus.KindExit, filter: bus.AlwaysTrue(), sub: allConsumer},
	}
	for _, s := range subscriptions {
		if err := b.Subscribe(ctx, s.kind, s.filter, s.sub); err != nil {
			return fmt.Errorf("failed to subscribe to %s: %w", s.kind, err)
		}
	}
	if err := b.SubscribeAll(ctx, console); err != nil {
		return fmt.Errorf("failed to subscribe console: %w", err)
	}
	defer b.Unsubscribe(context.WithoutCancel(ctx), console)

	for _, c := range []*subscriber.Async{closeConsumer, allConsumer} {
		if err := c.Start(ctx); err != nil {
			return fmt.Errorf("failed to start %s: %w", c.Name(), err)
		}
	}

	producers := make([]*marketdata.Producer, 0, cfg.Producers)
	for i := range cfg.Producers {
		p, err := marketdata.NewProducer(fmt.Sprintf("producer%d", i+1), b, clock.New(), logger, cfg.EventsPerProducer, cfg.PublishInterval)
		if err != nil {
			return fmt.Errorf("failed to create producer: %w", err)
		}
		producers = append(producers, p)
	}

	now := time.Now()
	if err := marketdata.Feed(ctx, producers...); err != nil {
		return fmt.Errorf("failed to feed market data: %w", err)
	}

	for _, c := range []*subscriber.Async{closeConsumer, allConsumer} {
		if err := c.Wait(ctx); err != nil {
			return fmt.Errorf("failed waiting for %s: %w", c.Name(), err)
		}
		stats := c.Stats()
		logger.Info("consumer finished",
			zap.String("subscriber", c.Name()),
			zap.Uint64("processed", stats.Processed),
			zap.Uint64("failed", stats.Failed),
			zap.Uint64("dropped", stats.Dropped),
		)
	}

	logger.Info("demo complete", zap.Duration("elapsed", time.Since(now)))

	return nil
}

func newConsumer(name string, delay time.Duration, logger *zap.Logger, reg *metrics.Registry, tracer *tracing.Tracer) (*subscriber.Async, error) {
	l := logger.Named(name)
	var h bus.Handler = bus.HandlerFunc(func(ctx context.Context, e bus.Event) error {
		l.Info("received", zap.Stringer("event", e), zap.Any("payload", e.Payload))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
			return nil
		}
	})
	h = subscriber.NewTracedHandler(subscriber.NewMetricsHandler(h, reg, name), tracer, name)

	c, err := subscriber.NewAsync(name, h, logger, subscriber.WithMetrics(reg))
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", name, err)
	}

	return c, nil
}

// newConsole prints every published event at debug level, inline on the
// publisher's goroutine.
func newConsole(logger *zap.Logger) (*subscriber.Sync, error) {
	l := logger.Named("console")
	c, err := subscriber.NewSync("console", bus.HandlerFunc(func(_ context.Context, e bus.Event) error {
		l.Debug("published", zap.Stringer("event", e))
		return nil
	}), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create console: %w", err)
	}

	return c, nil
}

func newTracer(cfg Config) (*tracing.Tracer, func(context.Context) error, error) {
	if !cfg.TracingEnabled {
		tp := sdktrace.NewTracerProvider()
		return tracing.NewTracerWithProvider(tp, cfg.Tracing.ServiceName), tp.Shutdown, nil
	}

	return tracing.NewTracer(cfg.Tracing)
}
