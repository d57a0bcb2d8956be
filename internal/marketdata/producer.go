package marketdata

import (
	"context"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"eventbus/internal/bus"
	"eventbus/internal/validator"
)

// Producer publishes Count events from the market data cycle, pausing
// Interval between events, then publishes the exit sentinel.
type Producer struct {
	id       string
	bus      bus.Bus
	clock    clock.Clock
	logger   *zap.Logger
	count    int
	interval time.Duration
}

func NewProducer(id string, b bus.Bus, clk clock.Clock, logger *zap.Logger, count int, interval time.Duration) (*Producer, error) {
	p := Producer{
		id:       id,
		bus:      b,
		clock:    clk,
		logger:   logger,
		count:    count,
		interval: interval,
	}

	if err := validator.Validate("producer", p.id, p.bus, p.clock, p.logger, p.count); err != nil {
		return nil, fmt.Errorf("failed to validate producer deps: %w", err)
	}
	p.logger = p.logger.Named("producer").With(zap.String("producer", id))

	return &p, nil
}

// Run publishes until Count events went out or ctx is done.
func (p *Producer) Run(ctx context.Context) error {
	cycle := Cycle()
	deliveries := 0

	for i := 0; i < p.count; i++ {
		e := cycle[i%len(cycle)]
		e.Payload = Quote{Symbol: p.id, Price: 100 + float64(i%50), Seq: i}
		deliveries += p.bus.Publish(ctx, e)

		if p.interval <= 0 {
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.clock.After(p.interval):
		}
	}

	deliveries += p.bus.Publish(ctx, bus.Exit())
	p.logger.Info("producer finished", zap.Int("published", p.count), zap.Int("deliveries", deliveries))

	return nil
}

// Feed runs producers concurrently and returns the first error.
func Feed(ctx context.Context, producers ...*Producer) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, p := range producers {
		g.Go(func() error {
			if err := p.Run(gctx); err != nil {
				return fmt.Errorf("producer %s: %w", p.id, err)
			}
			return nil
		})
	}

	return g.Wait()
}
