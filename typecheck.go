package registry

import (
	"context"
	"errors"
	"fmt"
	"reflect"
)

// TypeCheck validates a value before it is registered.
type TypeCheck func(v any) error

// Invocable is the default type check. It accepts values that can be called
// through Call: implementations of Invoker and functions of the form
// func(context.Context, Options) (any, error).
func Invocable(v any) error {
	if isNil(v) {
		return errors.New("value is nil")
	}
	switch v.(type) {
	case Invoker, func(context.Context, Options) (any, error):
		return nil
	}
	return fmt.Errorf("%w: %T is neither an Invoker nor a func(context.Context, Options) (any, error)", ErrNotInvocable, v)
}

// AcceptAll is a type check that accepts every value.
func AcceptAll(any) error { return nil }

// Implements returns a type check accepting values that implement the interface I.
func Implements[I any]() TypeCheck {
	iface := reflect.TypeFor[I]()
	return func(v any) error {
		if isNil(v) {
			return errors.New("value is nil")
		}
		if iface.Kind() == reflect.Interface {
			if !reflect.TypeOf(v).Implements(iface) {
				return fmt.Errorf("%T does not implement %v", v, iface)
			}
			return nil
		}
		if reflect.TypeOf(v) != iface {
			return fmt.Errorf("%T is not a %v", v, iface)
		}
		return nil
	}
}

// isNil reports whether v is nil or a typed nil of a nillable kind.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Func, reflect.Map, reflect.Slice, reflect.Chan, reflect.Interface, reflect.UnsafePointer:
		return rv.IsNil()
	default:
		return false
	}
}
