package validator

import (
	"fmt"
	"reflect"
)

// Validate returns an error naming the component if any dependency is nil or
// the zero value of its type.
func Validate(name string, deps ...any) error {
	for i, dep := range deps {
		if missing(dep) {
			return fmt.Errorf("missing required deps for component: %s (dep %d)", name, i)
		}
	}

	return nil
}

// IsNil reports whether v is nil, including a typed nil held in an interface.
func IsNil(v any) bool {
	if v == nil {
		return true
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Pointer, reflect.Slice:
		return rv.IsNil()
	default:
		return false
	}
}

func missing(dep any) bool {
	if IsNil(dep) {
		return true
	}

	return reflect.ValueOf(dep).IsZero()
}
