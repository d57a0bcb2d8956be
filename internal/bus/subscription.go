package bus

import "reflect"

// Subscription is registered interest in events: an optional kind
// constraint, an optional filter and the subscriber to deliver to.
// Subscriptions are immutable once created and owned by the registry;
// the subscriber itself is only referenced, never owned.
type Subscription struct {
	ID         string
	Kind       Kind
	Filter     Filter
	Subscriber Subscriber
}

// Matches reports whether e should be delivered to the subscription.
// The kind check is an exact comparison; the filter only runs when the
// kind matched.
func (s Subscription) Matches(e Event) bool {
	if s.Kind != AnyKind && e.Kind != s.Kind {
		return false
	}

	return s.Filter == nil || s.Filter.Evaluate(e)
}

// SameSubscriber reports whether a and b refer to the same subscriber.
// Func, map and slice subscribers are equal when they share the same
// underlying pointer. Any other value that is not comparable at runtime,
// such as a struct holding a func in an interface field, is never equal,
// so the comparison never panics.
func SameSubscriber(a, b Subscriber) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	if reflect.TypeOf(a) != reflect.TypeOf(b) {
		return false
	}

	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Comparable() && vb.Comparable() {
		return a == b
	}

	switch va.Kind() {
	case reflect.Func, reflect.Map, reflect.Slice:
		return va.Pointer() == vb.Pointer()
	default:
		return false
	}
}
