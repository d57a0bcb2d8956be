package bus

import "context"

// Subscriber receives matching events from the bus.
// ProcessEvent is called on the publisher's goroutine; asynchronous
// implementations must only enqueue and return.
type Subscriber interface {
	ProcessEvent(ctx context.Context, e Event)
}

// Handler defines what processing an event means for a subscriber
// (write to a console, a log, a downstream sink).
type Handler interface {
	Handle(ctx context.Context, e Event) error
}

// HandlerFunc adapts a plain function to a Handler.
type HandlerFunc func(ctx context.Context, e Event) error

// Handle implements Handler.
func (f HandlerFunc) Handle(ctx context.Context, e Event) error {
	return f(ctx, e)
}
