// Package wrap describes the container ("wrapper") types a repository method
// may declare as its result and normalizes values between them.
//
// A container is anything that holds zero or more domain elements: optionals,
// pages, streams, futures, plus the native Go shapes (pointers, slices, maps,
// channels and iterator functions). The Registry recognizes containers,
// resolves their element types, builds empty instances and re-wraps values,
// so callers never hand-roll per-type conversions.
package wrap

import (
	"context"
	"reflect"
)

// Shape classifies how a container holds its elements.
type Shape uint8

const (
	// ShapeSingle holds at most one element (optionals, nilable pointers).
	ShapeSingle Shape = iota + 1
	// ShapeMany holds a materialized collection of elements.
	ShapeMany
	// ShapeStream holds a lazily pulled sequence of elements.
	ShapeStream
	// ShapeAsync holds a single element produced asynchronously.
	ShapeAsync
)

// String returns the lowercase name of the shape.
func (s Shape) String() string {
	switch s {
	case ShapeSingle:
		return "single"
	case ShapeMany:
		return "many"
	case ShapeStream:
		return "stream"
	case ShapeAsync:
		return "async"
	}
	return "unknown"
}

// Info describes a recognized container type.
type Info struct {
	// Shape tells how elements are held.
	Shape Shape
	// Elem is the element type of the container.
	Elem reflect.Type
	// Key is the key type for map containers, nil otherwise.
	Key reflect.Type
}

// Puller is the canonical pull-based view of a stream-shaped container.
// Pull returns the next element, whether one was produced, and a terminal
// error. Close releases the source early; it must be idempotent.
type Puller interface {
	Pull() (any, bool, error)
	Close()
}

// Single is implemented by single-element container types.
// Implementations must tolerate being called on their zero value, since the
// registry instantiates templates via reflect.Zero.
type Single interface {
	ElementType() reflect.Type
	// WrapValue builds a container holding v. A nil v yields the empty
	// container. v must be assignable to ElementType.
	WrapValue(v any) any
	// UnwrapValue returns the held element and whether one is present.
	UnwrapValue() (any, bool)
}

// Many is implemented by collection container types.
type Many interface {
	ElementType() reflect.Type
	// WrapSlice builds a container from items, which must be a []E where E
	// is ElementType. A nil items yields the empty container.
	WrapSlice(items any) any
	// UnwrapSlice returns the held elements as a []E.
	UnwrapSlice() any
}

// Streaming is implemented by lazily pulled container types.
type Streaming interface {
	ElementType() reflect.Type
	// WrapSlice builds a container replaying items, a []E.
	WrapSlice(items any) any
	// WrapPuller builds a container draining p. Elements produced by p must
	// be assignable to ElementType.
	WrapPuller(p Puller) any
}

// Async is implemented by deferred single-result container types.
type Async interface {
	ElementType() reflect.Type
	// WrapValue builds an already-completed container holding v.
	WrapValue(v any) any
	// WrapSubscription builds a container completed by subscribe. convert
	// post-processes the produced value before completion.
	WrapSubscription(subscribe func(fn func(v any, err error)), convert func(v any) (any, error)) any
	// Subscribe registers fn to run exactly once on completion. It runs
	// immediately when the container is already complete.
	Subscribe(fn func(v any, err error))
	// Result blocks until completion or ctx is done.
	Result(ctx context.Context) (any, error)
}

var (
	singleType    = reflect.TypeOf((*Single)(nil)).Elem()
	manyType      = reflect.TypeOf((*Many)(nil)).Elem()
	streamingType = reflect.TypeOf((*Streaming)(nil)).Elem()
	asyncType     = reflect.TypeOf((*Async)(nil)).Elem()
	errorType     = reflect.TypeOf((*error)(nil)).Elem()
)
