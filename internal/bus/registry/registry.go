// Package registry provides the concurrency-safe set of subscriptions used by
// the event bus. Storage is a lock-free hash map so publishers can iterate
// while other goroutines subscribe and unsubscribe.
package registry

import (
	"fmt"

	"github.com/alphadose/haxmap"
	"github.com/google/uuid"

	"eventbus/internal/bus"
	"eventbus/internal/validator"
)

// Registry owns the active subscriptions of a bus.
type Registry struct {
	subs *haxmap.Map[string, bus.Subscription]
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		subs: haxmap.New[string, bus.Subscription](),
	}
}

// Add registers a new subscription and returns it.
// Returns bus.ErrInvalidArgument if sub is nil, including a typed nil pointer.
func (r *Registry) Add(kind bus.Kind, filter bus.Filter, sub bus.Subscriber) (bus.Subscription, error) {
	if validator.IsNil(sub) {
		return bus.Subscription{}, fmt.Errorf("nil subscriber: %w", bus.ErrInvalidArgument)
	}

	s := bus.Subscription{
		ID:         uuid.NewString(),
		Kind:       kind,
		Filter:     filter,
		Subscriber: sub,
	}
	r.subs.Set(s.ID, s)

	return s, nil
}

// RemoveSubscriber removes every subscription referencing sub and returns
// how many were removed.
func (r *Registry) RemoveSubscriber(sub bus.Subscriber) int {
	if sub == nil {
		return 0
	}

	var ids []string
	r.subs.ForEach(func(id string, s bus.Subscription) bool {
		if bus.SameSubscriber(s.Subscriber, sub) {
			ids = append(ids, id)
		}
		return true
	})
	if len(ids) == 0 {
		return 0
	}

	removed := 0
	for _, id := range ids {
		if _, ok := r.subs.GetAndDel(id); ok {
			removed++
		}
	}

	return removed
}

// Snapshot returns a copy of the current subscriptions. Mutations made
// after the call are not reflected in the returned slice.
func (r *Registry) Snapshot() []bus.Subscription {
	out := make([]bus.Subscription, 0, r.Len())
	r.subs.ForEach(func(_ string, s bus.Subscription) bool {
		out = append(out, s)
		return true
	})
	return out
}

// Match returns the subscriptions that should receive e, taken from a
// snapshot so concurrent changes do not affect the result.
func (r *Registry) Match(e bus.Event) []bus.Subscription {
	var out []bus.Subscription
	for _, s := range r.Snapshot() {
		if s.Matches(e) {
			out = append(out, s)
		}
	}
	return out
}

// Len returns the number of subscriptions.
func (r *Registry) Len() int {
	return int(r.subs.Len())
}

// Subscribers returns the number of distinct subscribers.
func (r *Registry) Subscribers() int {
	var distinct []bus.Subscriber
	r.subs.ForEach(func(_ string, s bus.Subscription) bool {
		for _, d := range distinct {
			if bus.SameSubscriber(d, s.Subscriber) {
				return true
			}
		}
		distinct = append(distinct, s.Subscriber)
		return true
	})
	return len(distinct)
}
