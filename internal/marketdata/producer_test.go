package marketdata

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"eventbus/internal/bus"
	"eventbus/internal/bus/eventbus"
	"eventbus/internal/bus/registry"
	"eventbus/internal/bus/subscriber"
)

type tape struct {
	mu     sync.Mutex
	events []bus.Event
}

func (t *tape) Handle(_ context.Context, e bus.Event) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = append(t.events, e)
	return nil
}

func (t *tape) Events() []bus.Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]bus.Event(nil), t.events...)
}

func newBus(t *testing.T) bus.Bus {
	t.Helper()
	b, err := eventbus.NewEventBus(registry.New(), zaptest.NewLogger(t))
	require.NoError(t, err)
	return b
}

func TestNewProducer_Validation(t *testing.T) {
	_, err := NewProducer("p", nil, clock.New(), zaptest.NewLogger(t), 1, 0)
	require.Error(t, err)

	_, err = NewProducer("p", newBus(t), clock.New(), zaptest.NewLogger(t), 0, 0)
	require.Error(t, err)
}

// Mirrors the original demo: one consumer on L1 close, one on L2 all,
// both registered for the exit event.
func TestFeed_FilteredConsumers(t *testing.T) {
	ctx := context.Background()
	b := newBus(t)

	closeTape, allTape := &tape{}, &tape{}
	c1, err := subscriber.NewAsync("consumer1", closeTape, zaptest.NewLogger(t))
	require.NoError(t, err)
	c2, err := subscriber.NewAsync("consumer2", allTape, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NoError(t, c1.Start(ctx))
	require.NoError(t, c2.Start(ctx))

	require.NoError(t, b.Subscribe(ctx, KindL1, CloseFilter, c1))
	require.NoError(t, b.Subscribe(ctx, KindL2, AllFilter, c2))
	require.NoError(t, b.Subscribe(ctx, bus.KindExit, bus.AlwaysTrue(), c1))
	require.NoError(t, b.Subscribe(ctx, bus.KindExit, bus.AlwaysTrue(), c2))

	p, err := NewProducer("p1", b, clock.New(), zaptest.NewLogger(t), 60, 0)
	require.NoError(t, err)
	require.NoError(t, Feed(ctx, p))

	waitCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	require.NoError(t, c1.Wait(waitCtx))
	require.NoError(t, c2.Wait(waitCtx))

	require.Len(t, closeTape.Events(), 10)
	for _, e := range closeTape.Events() {
		assert.Equal(t, KindL1, e.Kind)
		assert.Equal(t, Close, e.Tag)
	}

	require.Len(t, allTape.Events(), 10)
	prev := -1
	for _, e := range allTape.Events() {
		assert.Equal(t, KindL2, e.Kind)
		assert.Equal(t, All, e.Tag)
		q, ok := e.Payload.(Quote)
		require.True(t, ok)
		assert.Greater(t, q.Seq, prev)
		prev = q.Seq
	}
}

func TestProducer_PacedByClock(t *testing.T) {
	ctx := context.Background()
	b := newBus(t)
	mock := clock.NewMock()
	tp := &tape{}
	s, err := subscriber.NewSync("sync", tp, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NoError(t, b.SubscribeAll(ctx, s))

	p, err := NewProducer("paced", b, mock, zaptest.NewLogger(t), 3, time.Second)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	require.Eventually(t, func() bool { return len(tp.Events()) == 1 }, time.Second, time.Millisecond)

	for {
		select {
		case err := <-done:
			require.NoError(t, err)
			events := tp.Events()
			require.Len(t, events, 4)
			assert.True(t, events[3].IsExit())
			assert.GreaterOrEqual(t, mock.Now().Sub(time.Unix(0, 0)), 3*time.Second)
			return
		default:
			mock.Add(time.Second)
		}
	}
}

func TestFeed_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	b := newBus(t)
	mock := clock.NewMock()

	p1, err := NewProducer("a", b, mock, zaptest.NewLogger(t), 100, time.Minute)
	require.NoError(t, err)
	p2, err := NewProducer("b", b, mock, zaptest.NewLogger(t), 100, time.Minute)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- Feed(ctx, p1, p2) }()
	cancel()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("feed did not stop on cancellation")
	}
}
