package bus

import "fmt"

// Kind is the discriminant of an event. Subscriptions constrained to a kind
// only receive events whose kind is identical; there is no hierarchy between
// kinds, so "marketdata.l1.snapshot" never satisfies "marketdata.l1".
type Kind string

// AnyKind leaves a subscription unconstrained by kind.
const AnyKind Kind = ""

const (
	// KindExit is the reserved kind of the sentinel event that stops async workers.
	KindExit Kind = "bus.exit"
	// TagExit is the tag carried by the sentinel event.
	TagExit = 999
)

// Event represents a publishable event on the bus.
// Events are passed by value so every subscriber holds its own copy.
type Event struct {
	// Kind identifies the event type (e.g., "marketdata.l1")
	Kind Kind `json:"kind"`
	// Tag is the attribute read by filters (e.g., market open/close)
	Tag int `json:"tag"`
	// Payload carries arbitrary event data and is never inspected by the bus
	Payload any `json:"payload,omitempty"`
}

// Exit returns the sentinel event. Async subscribers stop consuming when
// they dequeue it.
func Exit() Event {
	return Event{Kind: KindExit, Tag: TagExit}
}

// IsExit reports whether e is the sentinel event.
func (e Event) IsExit() bool {
	return e.Kind == KindExit
}

func (e Event) String() string {
	return fmt.Sprintf("%s[tag=%d]", e.Kind, e.Tag)
}
