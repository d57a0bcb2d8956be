package bus

// Filter is a stateless predicate evaluated against an event after the kind
// check passed. Implementations must be pure so they can be shared between
// goroutines without synchronization.
type Filter interface {
	Evaluate(e Event) bool
}

// FilterFunc adapts a plain function to a Filter.
type FilterFunc func(e Event) bool

// Evaluate implements Filter.
func (f FilterFunc) Evaluate(e Event) bool {
	return f(e)
}

// ExactTag matches events whose tag equals t.
func ExactTag(t int) Filter {
	return FilterFunc(func(e Event) bool {
		return e.Tag == t
	})
}

// AlwaysTrue matches every event of the constrained kind.
func AlwaysTrue() Filter {
	return FilterFunc(func(Event) bool {
		return true
	})
}

// Never blocks all events.
func Never() Filter {
	return FilterFunc(func(Event) bool {
		return false
	})
}

// TagIn matches events whose tag is one of tags.
func TagIn(tags ...int) Filter {
	set := make(map[int]struct{}, len(tags))
	for _, t := range tags {
		set[t] = struct{}{}
	}
	return FilterFunc(func(e Event) bool {
		_, ok := set[e.Tag]
		return ok
	})
}

// And combines filters with AND logic. Nil filters are treated as always true.
func And(filters ...Filter) Filter {
	return FilterFunc(func(e Event) bool {
		for _, f := range filters {
			if f != nil && !f.Evaluate(e) {
				return false
			}
		}
		return true
	})
}

// Or combines filters with OR logic.
// At least one filter must pass for the event to be delivered.
func Or(filters ...Filter) Filter {
	return FilterFunc(func(e Event) bool {
		for _, f := range filters {
			if f == nil || f.Evaluate(e) {
				return true
			}
		}
		return false
	})
}

// Not negates a filter.
func Not(f Filter) Filter {
	return FilterFunc(func(e Event) bool {
		return f != nil && !f.Evaluate(e)
	})
}
