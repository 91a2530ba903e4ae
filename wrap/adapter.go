package wrap

import (
	"reflect"

	"github.com/code19m/errx"
)

// Canon is the canonical carrier passed between container shapes during
// conversion. Exactly one of Value, Slice or Source is meaningful, matching
// the Kind.
type Canon struct {
	Kind CanonKind

	// Value carries a single element. Present is false for empty singles.
	Value   reflect.Value
	Present bool

	// Slice carries materialized elements as a []E.
	Slice reflect.Value

	// Source carries a lazily pulled sequence.
	Source Puller
}

// CanonKind discriminates the meaningful field of a Canon.
type CanonKind uint8

const (
	CanonValue CanonKind = iota + 1
	CanonSlice
	CanonSource
)

// Adapter recognizes a family of container types and converts between
// instances and canonical carriers. Adapters are consulted in order by the
// Registry; the first whose Lookup reports a match handles the type.
type Adapter interface {
	// Lookup reports whether t is a container of this family.
	Lookup(t reflect.Type) (Info, bool)
	// Empty builds the empty container of type t.
	Empty(t reflect.Type) (reflect.Value, error)
	// Wrap builds a container of type t from the canonical carrier.
	Wrap(t reflect.Type, c Canon) (reflect.Value, error)
	// Unwrap converts container value v into a canonical carrier.
	Unwrap(v reflect.Value, info Info) (Canon, error)
}

// containerAdapter handles types that implement the Single, Many, Streaming
// or Async interfaces, such as optionals, pages, streams and futures.
type containerAdapter struct{}

func (containerAdapter) Lookup(t reflect.Type) (Info, bool) {
	switch {
	case t.Implements(asyncType):
		return Info{Shape: ShapeAsync, Elem: template(t).(Async).ElementType()}, true
	case t.Implements(streamingType):
		return Info{Shape: ShapeStream, Elem: template(t).(Streaming).ElementType()}, true
	case t.Implements(singleType):
		return Info{Shape: ShapeSingle, Elem: template(t).(Single).ElementType()}, true
	case t.Implements(manyType):
		return Info{Shape: ShapeMany, Elem: template(t).(Many).ElementType()}, true
	}
	return Info{}, false
}

func (a containerAdapter) Empty(t reflect.Type) (reflect.Value, error) {
	info, ok := a.Lookup(t)
	if !ok {
		return reflect.Value{}, unsupported(t)
	}

	switch info.Shape {
	case ShapeSingle:
		return typedValue(template(t).(Single).WrapValue(nil), t)
	case ShapeMany:
		return typedValue(template(t).(Many).WrapSlice(nil), t)
	case ShapeStream:
		return typedValue(template(t).(Streaming).WrapSlice(nil), t)
	case ShapeAsync:
		return typedValue(template(t).(Async).WrapValue(nil), t)
	}
	return reflect.Value{}, unsupported(t)
}

func (a containerAdapter) Wrap(t reflect.Type, c Canon) (reflect.Value, error) {
	info, ok := a.Lookup(t)
	if !ok {
		return reflect.Value{}, unsupported(t)
	}

	switch info.Shape {
	case ShapeSingle:
		single := template(t).(Single)
		if c.Kind != CanonValue || !c.Present {
			return typedValue(single.WrapValue(nil), t)
		}
		return typedValue(single.WrapValue(c.Value.Interface()), t)

	case ShapeMany:
		many := template(t).(Many)
		items, err := canonSlice(c, info.Elem)
		if err != nil {
			return reflect.Value{}, err
		}
		return typedValue(many.WrapSlice(items.Interface()), t)

	case ShapeStream:
		streaming := template(t).(Streaming)
		if c.Kind == CanonSource {
			return typedValue(streaming.WrapPuller(c.Source), t)
		}
		items, err := canonSlice(c, info.Elem)
		if err != nil {
			return reflect.Value{}, err
		}
		return typedValue(streaming.WrapSlice(items.Interface()), t)

	case ShapeAsync:
		async := template(t).(Async)
		if c.Kind != CanonValue || !c.Present {
			return typedValue(async.WrapValue(nil), t)
		}
		return typedValue(async.WrapValue(c.Value.Interface()), t)
	}
	return reflect.Value{}, unsupported(t)
}

func (containerAdapter) Unwrap(v reflect.Value, info Info) (Canon, error) {
	switch info.Shape {
	case ShapeSingle:
		elem, present := v.Interface().(Single).UnwrapValue()
		if !present {
			return Canon{Kind: CanonValue}, nil
		}
		return Canon{Kind: CanonValue, Value: reflect.ValueOf(elem), Present: true}, nil

	case ShapeMany:
		items := v.Interface().(Many).UnwrapSlice()
		if items == nil {
			return Canon{Kind: CanonSlice, Slice: reflect.MakeSlice(reflect.SliceOf(info.Elem), 0, 0)}, nil
		}
		return Canon{Kind: CanonSlice, Slice: reflect.ValueOf(items)}, nil

	case ShapeStream:
		p, ok := v.Interface().(Puller)
		if !ok {
			return Canon{}, errx.New(
				"stream container does not expose a puller",
				errx.WithCode(CodeWrapperMismatch),
				errx.WithType(errx.T_Internal),
				errx.WithDetails(errx.D{"type": v.Type().String()}),
			)
		}
		return Canon{Kind: CanonSource, Source: p}, nil

	case ShapeAsync:
		// Async containers unwrap through Subscribe/Result on the caller's
		// side since unwrapping may block.
		return Canon{}, errx.New(
			"async containers cannot be unwrapped synchronously",
			errx.WithCode(CodeWrapperMismatch),
			errx.WithType(errx.T_Internal),
			errx.WithDetails(errx.D{"type": v.Type().String()}),
		)
	}
	return Canon{}, unsupported(v.Type())
}

// template returns a zero instance of t usable for calling interface methods.
// Pointer-typed containers receive a nil receiver, so their interface methods
// must be nil-safe.
func template(t reflect.Type) any {
	return reflect.Zero(t).Interface()
}

// typedValue converts the any returned by a container method back into a
// reflect.Value of the expected type.
func typedValue(v any, want reflect.Type) (reflect.Value, error) {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() || !rv.Type().AssignableTo(want) {
		return reflect.Value{}, errx.New(
			"container constructor returned unexpected type",
			errx.WithCode(CodeWrapperMismatch),
			errx.WithType(errx.T_Internal),
			errx.WithDetails(errx.D{"want": want.String()}),
		)
	}
	return rv, nil
}

// canonSlice materializes the carrier into a []elem.
func canonSlice(c Canon, elem reflect.Type) (reflect.Value, error) {
	switch c.Kind {
	case CanonSlice:
		return c.Slice, nil

	case CanonValue:
		out := reflect.MakeSlice(reflect.SliceOf(elem), 0, 1)
		if c.Present {
			out = reflect.Append(out, c.Value)
		}
		return out, nil

	case CanonSource:
		out := reflect.MakeSlice(reflect.SliceOf(elem), 0, 0)
		for {
			v, ok, err := c.Source.Pull()
			if err != nil {
				return reflect.Value{}, err
			}
			if !ok {
				return out, nil
			}
			out = reflect.Append(out, reflect.ValueOf(v))
		}
	}
	return reflect.Value{}, errx.New(
		"empty canonical carrier",
		errx.WithCode(CodeWrapperMismatch),
		errx.WithType(errx.T_Internal),
	)
}

func unsupported(t reflect.Type) error {
	return errx.New(
		"type is not a recognized result container",
		errx.WithCode(CodeUnsupportedWrapper),
		errx.WithType(errx.T_Internal),
		errx.WithDetails(errx.D{"type": t.String()}),
	)
}
