package subscriber

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"eventbus/internal/bus"
	"eventbus/internal/bus/metrics"
	"eventbus/internal/validator"
)

// WorkerState is the state of an async subscriber's worker.
type WorkerState int32

const (
	// StateIdle means the worker is waiting on an empty queue (or not started yet).
	StateIdle WorkerState = iota
	// StateProcessing means the worker is running the handler.
	StateProcessing
	// StateTerminated is final: the worker dequeued the sentinel or its
	// context was cancelled.
	StateTerminated
)

func (s WorkerState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateProcessing:
		return "processing"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// AsyncStats is a point-in-time view of an async subscriber's counters.
type AsyncStats struct {
	Enqueued   uint64
	Processed  uint64
	Failed     uint64
	Dropped    uint64
	QueueDepth int
	State      WorkerState
}

// item carries the publisher's context values (trace span) without its
// cancellation, since processing outlives the publish call.
type item struct {
	ctx   context.Context
	event bus.Event
}

// Async is a subscriber backed by an unbounded FIFO queue and one dedicated
// worker goroutine. ProcessEvent only appends to the queue, so a slow or
// stalled handler never blocks the publisher or other subscribers.
type Async struct {
	name    string
	handler bus.Handler
	logger  *zap.Logger
	metrics *metrics.Registry

	mu         sync.Mutex
	queue      []item
	terminated bool
	wake       chan struct{}

	started atomic.Bool
	state   atomic.Int32
	done    chan struct{}

	enqueued  atomic.Uint64
	processed atomic.Uint64
	failed    atomic.Uint64
	dropped   atomic.Uint64
}

// Option configures an async subscriber.
type Option func(*Async)

// WithMetrics records queue depth, enqueued and dropped events.
func WithMetrics(registry *metrics.Registry) Option {
	return func(a *Async) {
		a.metrics = registry
	}
}

func NewAsync(name string, handler bus.Handler, logger *zap.Logger, opts ...Option) (*Async, error) {
	a := Async{
		name:    name,
		handler: handler,
		logger:  logger,
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}

	if err := validator.Validate("async subscriber", a.name, a.handler, a.logger); err != nil {
		return nil, fmt.Errorf("failed to validate async subscriber deps: %w", err)
	}

	for _, opt := range opts {
		opt(&a)
	}
	a.logger = a.logger.Named("subscriber").With(zap.String("subscriber", name))

	return &a, nil
}

// Name returns the subscriber name used in logs and metric labels.
func (a *Async) Name() string {
	return a.name
}

// ProcessEvent enqueues e and returns immediately. Events arriving after
// the worker terminated are dropped. A nil ctx is treated as
// context.Background.
func (a *Async) ProcessEvent(ctx context.Context, e bus.Event) {
	if ctx == nil {
		ctx = context.Background()
	}

	a.mu.Lock()
	if a.terminated {
		a.mu.Unlock()
		a.drop(1)
		a.logger.Debug("dropping event for terminated subscriber", zap.Stringer("event", e))
		return
	}
	a.queue = append(a.queue, item{ctx: context.WithoutCancel(ctx), event: e})
	// depth gauge is set under the lock so concurrent publishers cannot
	// leave it at a stale value
	if a.metrics != nil {
		a.metrics.RecordEnqueue(a.name, len(a.queue))
	}
	a.mu.Unlock()

	a.enqueued.Add(1)

	select {
	case a.wake <- struct{}{}:
	default:
	}
}

// Start launches the worker. Cancelling ctx interrupts a wait on an empty
// queue and terminates the worker; an event already being handled finishes
// first.
func (a *Async) Start(ctx context.Context) error {
	if !a.started.CompareAndSwap(false, true) {
		return fmt.Errorf("%s: %w", a.name, bus.ErrAlreadyStarted)
	}

	go a.run(ctx)

	return nil
}

// Done is closed once the worker terminated.
func (a *Async) Done() <-chan struct{} {
	return a.done
}

// Wait blocks until the worker terminated or ctx is done.
func (a *Async) Wait(ctx context.Context) error {
	if !a.started.Load() {
		return fmt.Errorf("%s: %w", a.name, bus.ErrNotStarted)
	}

	select {
	case <-a.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// State returns the current worker state.
func (a *Async) State() WorkerState {
	return WorkerState(a.state.Load())
}

// Len returns the number of queued events.
func (a *Async) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	return len(a.queue)
}

func (a *Async) Stats() AsyncStats {
	return AsyncStats{
		Enqueued:   a.enqueued.Load(),
		Processed:  a.processed.Load(),
		Failed:     a.failed.Load(),
		Dropped:    a.dropped.Load(),
		QueueDepth: a.Len(),
		State:      a.State(),
	}
}

func (a *Async) run(ctx context.Context) {
	defer close(a.done)

	a.logger.Debug("worker started")
	for {
		it, ok := a.next(ctx)
		if !ok {
			a.terminate("interrupted")
			return
		}
		if it.event.IsExit() {
			a.terminate("exit event")
			return
		}

		a.process(it)
	}
}

// next blocks until an event is available or ctx is done.
func (a *Async) next(ctx context.Context) (item, bool) {
	for {
		a.mu.Lock()
		if len(a.queue) > 0 {
			it := a.queue[0]
			a.queue[0] = item{}
			a.queue = a.queue[1:]
			if a.metrics != nil {
				a.metrics.RecordDequeue(a.name, len(a.queue))
			}
			a.mu.Unlock()

			return it, true
		}
		a.mu.Unlock()

		select {
		case <-ctx.Done():
			return item{}, false
		case <-a.wake:
		}
	}
}

// process runs the handler for one event. Errors and panics are logged and
// the event is skipped; the worker keeps consuming.
func (a *Async) process(it item) {
	a.state.Store(int32(StateProcessing))
	defer a.state.CompareAndSwap(int32(StateProcessing), int32(StateIdle))

	defer func() {
		if r := recover(); r != nil {
			a.failed.Add(1)
			a.logger.Error("recovered panic while processing event",
				zap.Stringer("event", it.event),
				zap.Any("panic", r),
				zap.Stack("stack"),
			)
		}
	}()

	if err := a.handler.Handle(it.ctx, it.event); err != nil {
		a.failed.Add(1)
		a.logger.Error("failed to process event", zap.Stringer("event", it.event), zap.Error(err))
		return
	}

	a.processed.Add(1)
}

// terminate marks the subscriber terminated and discards anything still
// queued behind the sentinel.
func (a *Async) terminate(reason string) {
	a.mu.Lock()
	a.terminated = true
	discarded := len(a.queue)
	a.queue = nil
	if a.metrics != nil {
		a.metrics.RecordDequeue(a.name, 0)
	}
	a.mu.Unlock()

	a.state.Store(int32(StateTerminated))
	a.drop(discarded)

	a.logger.Info("worker terminated", zap.String("reason", reason), zap.Int("discarded", discarded))
}

func (a *Async) drop(n int) {
	if n <= 0 {
		return
	}
	a.dropped.Add(uint64(n))
	if a.metrics != nil {
		a.metrics.RecordDropped(a.name, n)
	}
}
