// Package optional provides a value container that distinguishes an absent
// value from a present zero value. Repository methods declare it as a result
// type when an empty result is a normal outcome rather than an error.
package optional

import (
	"fmt"
	"reflect"
)

// Optional holds at most one value of type T.
// The zero Optional is empty and ready to use.
type Optional[T any] struct {
	value   T
	present bool
}

// Of returns an Optional holding v.
func Of[T any](v T) Optional[T] {
	return Optional[T]{value: v, present: true}
}

// Empty returns an Optional holding nothing.
func Empty[T any]() Optional[T] {
	return Optional[T]{}
}

// FromPtr returns an Optional holding *p, or an empty Optional when p is nil.
func FromPtr[T any](p *T) Optional[T] {
	if p == nil {
		return Empty[T]()
	}
	return Of(*p)
}

// Get returns the held value and whether one is present.
func (o Optional[T]) Get() (T, bool) {
	return o.value, o.present
}

// IsPresent reports whether a value is held.
func (o Optional[T]) IsPresent() bool {
	return o.present
}

// MustGet returns the held value and panics when the Optional is empty.
func (o Optional[T]) MustGet() T {
	if !o.present {
		panic("optional: no value present")
	}
	return o.value
}

// OrElse returns the held value, or fallback when empty.
func (o Optional[T]) OrElse(fallback T) T {
	if !o.present {
		return fallback
	}
	return o.value
}

// OrZero returns the held value, or the zero value of T when empty.
func (o Optional[T]) OrZero() T {
	return o.value
}

// Ptr returns a pointer to a copy of the held value, or nil when empty.
func (o Optional[T]) Ptr() *T {
	if !o.present {
		return nil
	}
	v := o.value
	return &v
}

// String implements fmt.Stringer.
func (o Optional[T]) String() string {
	if !o.present {
		return "Optional.empty"
	}
	return fmt.Sprintf("Optional[%v]", o.value)
}

// ElementType returns the type of T. It is part of the container contract
// used by the wrapper registry.
func (Optional[T]) ElementType() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// WrapValue builds an Optional holding v, or an empty one when v is nil.
// v must be assignable to T. Part of the container contract.
func (Optional[T]) WrapValue(v any) any {
	if v == nil {
		return Empty[T]()
	}
	return Of(v.(T))
}

// UnwrapValue returns the held value and whether one is present.
// Part of the container contract.
func (o Optional[T]) UnwrapValue() (any, bool) {
	if !o.present {
		return nil, false
	}
	return o.value, true
}
