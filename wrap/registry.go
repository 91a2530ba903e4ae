package wrap

import (
	"reflect"
	"slices"
)

// Registry recognizes container types and converts values between them.
// It is built once and passed to every component that needs to reason about
// declared result types; there is no package-level state.
//
// Adapters are consulted in order. Extra adapters supplied at construction
// run before the built-in ones, so callers can override how a type is
// handled.
type Registry struct {
	adapters []Adapter
}

// NewRegistry builds a registry from the built-in adapters plus any extras.
func NewRegistry(extras ...Adapter) *Registry {
	adapters := slices.Clone(extras)
	adapters = append(adapters, containerAdapter{}, nativeAdapter{})
	return &Registry{adapters: adapters}
}

// Lookup reports whether t is a recognized container and describes it.
func (r *Registry) Lookup(t reflect.Type) (Info, bool) {
	if t == nil {
		return Info{}, false
	}
	for _, a := range r.adapters {
		if info, ok := a.Lookup(t); ok {
			return info, true
		}
	}
	return Info{}, false
}

// DeepElem unwraps container layers until a non-container type remains.
// Nested declarations such as a future of an optional resolve to the
// innermost element type.
func (r *Registry) DeepElem(t reflect.Type) reflect.Type {
	for {
		info, ok := r.Lookup(t)
		if !ok || info.Elem == t {
			return t
		}
		t = info.Elem
	}
}

// Empty builds the empty container of type t.
func (r *Registry) Empty(t reflect.Type) (reflect.Value, error) {
	a, _, err := r.adapterFor(t)
	if err != nil {
		return reflect.Value{}, err
	}
	return a.Empty(t)
}

// Wrap builds a container of type t from the canonical carrier.
func (r *Registry) Wrap(t reflect.Type, c Canon) (reflect.Value, error) {
	a, _, err := r.adapterFor(t)
	if err != nil {
		return reflect.Value{}, err
	}
	return a.Wrap(t, c)
}

// Unwrap converts a container value into its canonical carrier.
func (r *Registry) Unwrap(v reflect.Value) (Canon, Info, error) {
	a, info, err := r.adapterFor(v.Type())
	if err != nil {
		return Canon{}, Info{}, err
	}
	c, err := a.Unwrap(v, info)
	return c, info, err
}

func (r *Registry) adapterFor(t reflect.Type) (Adapter, Info, error) {
	for _, a := range r.adapters {
		if info, ok := a.Lookup(t); ok {
			return a, info, nil
		}
	}
	return nil, Info{}, unsupported(t)
}
