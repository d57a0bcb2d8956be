package bus

import "context"

// Bus defines the interface for in-process publish/subscribe.
// Implementations must be safe for concurrent use by multiple publishers
// and subscribers.
type Bus interface {
	// Subscribe registers sub for events of the given kind that pass filter.
	// AnyKind and a nil filter leave the respective constraint open.
	// Returns ErrInvalidArgument if sub is nil.
	Subscribe(ctx context.Context, kind Kind, filter Filter, sub Subscriber) error

	// SubscribeAll registers sub for every event published on the bus.
	SubscribeAll(ctx context.Context, sub Subscriber) error

	// Unsubscribe removes every subscription referencing sub.
	// It is a no-op when sub has no subscriptions and returns the number removed.
	Unsubscribe(ctx context.Context, sub Subscriber) int

	// Publish delivers e to every matching subscription without waiting for
	// subscribers to finish processing. Returns the number of deliveries.
	Publish(ctx context.Context, e Event) int

	// Subscriptions returns the number of active subscriptions.
	Subscriptions() int
}
