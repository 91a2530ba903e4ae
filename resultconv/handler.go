// Package resultconv adapts values produced by repository fragments to the
// result types their methods declare.
//
// A fragment is free to return its natural shape: a pointer, a slice, a
// stream or a future. The handler re-wraps that value into the declared
// container, converts elements between compatible types on the way (scalar
// coercion and struct projection) and applies the absence policy when the
// fragment produced nothing: containers become their empty instance, plain
// results become an EMPTY_RESULT error unless the method allows nil.
package resultconv

import (
	"fmt"
	"reflect"

	"github.com/code19m/errx"
	"github.com/rise-and-shine/repokit/projection"
	"github.com/rise-and-shine/repokit/wrap"
)

// Context identifies the method a conversion runs for. Repository and Method
// name the call site in error details; Nullable relaxes the absence policy
// for plain result types.
type Context struct {
	Repository string
	Method     string
	Nullable   bool
}

// Handler converts raw fragment results into declared result types using a
// shared container registry.
type Handler struct {
	reg *wrap.Registry
}

// NewHandler builds a handler on the given registry. A nil registry falls
// back to the built-in container adapters.
func NewHandler(reg *wrap.Registry) *Handler {
	if reg == nil {
		reg = wrap.NewRegistry()
	}
	return &Handler{reg: reg}
}

// Registry returns the container registry the handler converts with.
func (h *Handler) Registry() *wrap.Registry {
	return h.reg
}

// PostProcess converts raw into the declared result type.
//
// A nil raw value yields the empty container when the declared type has one,
// the zero value when the method allows nil, and an EMPTY_RESULT error
// otherwise. Values already of the declared type pass through unchanged, so
// the conversion is idempotent.
func (h *Handler) PostProcess(raw any, declared reflect.Type, cc Context) (any, error) {
	if declared == nil {
		return nil, nil
	}

	v := reflect.ValueOf(raw)
	if !v.IsValid() || isNilValue(v) {
		out, err := h.emptyValue(declared, cc)
		if err != nil {
			return nil, err
		}
		return out.Interface(), nil
	}

	out, err := h.convert(v, declared, cc)
	if err != nil {
		return nil, err
	}
	return out.Interface(), nil
}

// Convertible reports whether a value of type from can plausibly be
// converted to type to. It mirrors the conversions PostProcess performs and
// is meant as a signature-compatibility predicate for fragment matching.
func (h *Handler) Convertible(from, to reflect.Type) bool {
	if from == nil || to == nil {
		return false
	}
	if from == to || from.AssignableTo(to) {
		return true
	}

	fi, fromContainer := h.reg.Lookup(from)
	ti, toContainer := h.reg.Lookup(to)

	switch {
	case fromContainer && toContainer:
		if fi.Shape == wrap.ShapeAsync && ti.Shape != wrap.ShapeAsync {
			return false
		}
		if to.Kind() == reflect.Map {
			return false
		}
		return h.Convertible(fi.Elem, ti.Elem)

	case toContainer:
		if to.Kind() == reflect.Map {
			return false
		}
		return h.Convertible(from, ti.Elem)

	case fromContainer:
		if fi.Shape == wrap.ShapeAsync {
			return false
		}
		return h.Convertible(fi.Elem, to)
	}

	return plainConvertible(from, to)
}

// convert transforms a non-nil value into the declared type.
func (h *Handler) convert(v reflect.Value, declared reflect.Type, cc Context) (reflect.Value, error) {
	if v.Type() == declared {
		return v, nil
	}
	if v.Type().AssignableTo(declared) {
		return v.Convert(declared), nil
	}

	declInfo, declIsContainer := h.reg.Lookup(declared)
	rawInfo, rawIsContainer := h.reg.Lookup(v.Type())

	switch {
	case rawIsContainer && declIsContainer:
		return h.convertContainer(v, rawInfo, declared, declInfo, cc)
	case declIsContainer:
		return h.wrapPlain(v, declared, declInfo, cc)
	case rawIsContainer:
		return h.unwrapToPlain(v, rawInfo, declared, cc)
	}
	return projection.ConvertValue(v, declared)
}

// convertContainer re-wraps one container into another, converting elements
// when their types differ.
func (h *Handler) convertContainer(v reflect.Value, from wrap.Info, declared reflect.Type, to wrap.Info, cc Context) (reflect.Value, error) {
	if from.Shape == wrap.ShapeAsync {
		return h.convertAsync(v, declared, to, cc)
	}

	canon, _, err := h.reg.Unwrap(v)
	if err != nil {
		return reflect.Value{}, err
	}

	switch to.Shape {
	case wrap.ShapeSingle, wrap.ShapeAsync:
		elem, present, err := h.singleElement(canon, cc)
		if err != nil {
			return reflect.Value{}, err
		}
		if !present {
			return h.emptyValue(declared, cc)
		}
		converted, err := h.convert(elem, to.Elem, cc)
		if err != nil {
			return reflect.Value{}, err
		}
		return h.reg.Wrap(declared, wrap.Canon{Kind: wrap.CanonValue, Value: converted, Present: true})

	case wrap.ShapeStream:
		if canon.Kind == wrap.CanonSource {
			src := canon.Source
			if from.Elem != to.Elem {
				src = &convertingPuller{src: src, convert: h.elementConverter(to.Elem, cc)}
			}
			return h.reg.Wrap(declared, wrap.Canon{Kind: wrap.CanonSource, Source: src})
		}
		fallthrough

	case wrap.ShapeMany:
		items, err := h.materialize(canon, from.Elem, to.Elem, cc)
		if err != nil {
			return reflect.Value{}, err
		}
		return h.reg.Wrap(declared, wrap.Canon{Kind: wrap.CanonSlice, Slice: items})
	}
	return reflect.Value{}, notConvertible(v.Type(), declared)
}

// convertAsync re-wraps an asynchronous result. The conversion subscribes to
// the source and completes the declared future with the converted value, so
// it never blocks. Draining a future into a synchronous type is not
// supported.
func (h *Handler) convertAsync(v reflect.Value, declared reflect.Type, to wrap.Info, cc Context) (reflect.Value, error) {
	if to.Shape != wrap.ShapeAsync {
		return reflect.Value{}, errx.New(
			"asynchronous result cannot be converted to a synchronous type",
			errx.WithCode(CodeResultNotConvertible),
			errx.WithType(errx.T_Internal),
			errx.WithDetails(errx.D{
				"from":       v.Type().String(),
				"to":         declared.String(),
				"repository": cc.Repository,
				"method":     cc.Method,
			}),
		)
	}

	src, ok := v.Interface().(wrap.Async)
	if !ok {
		return reflect.Value{}, notConvertible(v.Type(), declared)
	}
	target, ok := reflect.Zero(declared).Interface().(wrap.Async)
	if !ok {
		return reflect.Value{}, notConvertible(v.Type(), declared)
	}

	out := target.WrapSubscription(src.Subscribe, func(raw any) (any, error) {
		inner := reflect.ValueOf(raw)
		if !inner.IsValid() || isNilValue(inner) {
			empty, err := h.emptyValue(to.Elem, cc)
			if err != nil {
				return nil, err
			}
			return empty.Interface(), nil
		}
		converted, err := h.convert(inner, to.Elem, cc)
		if err != nil {
			return nil, err
		}
		return converted.Interface(), nil
	})

	rv := reflect.ValueOf(out)
	if !rv.IsValid() || !rv.Type().AssignableTo(declared) {
		return reflect.Value{}, notConvertible(v.Type(), declared)
	}
	return rv, nil
}

// wrapPlain wraps a plain value into the declared container, converting it
// to the element type first. Nested containers resolve recursively, so a
// plain value wraps into a future of an optional in one pass.
func (h *Handler) wrapPlain(v reflect.Value, declared reflect.Type, to wrap.Info, cc Context) (reflect.Value, error) {
	inner, err := h.convert(v, to.Elem, cc)
	if err != nil {
		return reflect.Value{}, err
	}
	return h.reg.Wrap(declared, wrap.Canon{Kind: wrap.CanonValue, Value: inner, Present: true})
}

// unwrapToPlain extracts the single element of a container and converts it
// to the declared plain type. Empty containers follow the absence policy;
// more than one element is an error.
func (h *Handler) unwrapToPlain(v reflect.Value, from wrap.Info, declared reflect.Type, cc Context) (reflect.Value, error) {
	if from.Shape == wrap.ShapeAsync {
		return h.convertAsync(v, declared, wrap.Info{}, cc)
	}

	canon, _, err := h.reg.Unwrap(v)
	if err != nil {
		return reflect.Value{}, err
	}
	elem, present, err := h.singleElement(canon, cc)
	if err != nil {
		return reflect.Value{}, err
	}
	if !present {
		return h.emptyValue(declared, cc)
	}
	return h.convert(elem, declared, cc)
}

// singleElement reduces a canonical carrier to at most one element. Lazy
// sources are pulled twice to detect extra elements and then closed.
func (h *Handler) singleElement(c wrap.Canon, cc Context) (reflect.Value, bool, error) {
	switch c.Kind {
	case wrap.CanonValue:
		return c.Value, c.Present, nil

	case wrap.CanonSlice:
		switch c.Slice.Len() {
		case 0:
			return reflect.Value{}, false, nil
		case 1:
			return c.Slice.Index(0), true, nil
		}
		return reflect.Value{}, false, multipleResults(cc, c.Slice.Len())

	case wrap.CanonSource:
		defer c.Source.Close()
		first, ok, err := c.Source.Pull()
		if err != nil {
			return reflect.Value{}, false, err
		}
		if !ok {
			return reflect.Value{}, false, nil
		}
		if _, extra, err := c.Source.Pull(); err != nil {
			return reflect.Value{}, false, err
		} else if extra {
			return reflect.Value{}, false, multipleResults(cc, 2)
		}
		return reflect.ValueOf(first), true, nil
	}
	return reflect.Value{}, false, errx.New(
		"empty canonical carrier",
		errx.WithCode(CodeResultNotConvertible),
		errx.WithType(errx.T_Internal),
	)
}

// materialize builds a []to slice from the carrier, converting each element.
func (h *Handler) materialize(c wrap.Canon, from, to reflect.Type, cc Context) (reflect.Value, error) {
	if c.Kind == wrap.CanonSlice && from == to && c.Slice.Type().Elem() == to {
		return c.Slice, nil
	}

	out := reflect.MakeSlice(reflect.SliceOf(to), 0, 0)
	appendOne := func(ev reflect.Value) error {
		converted, err := h.convert(ev, to, cc)
		if err != nil {
			return err
		}
		out = reflect.Append(out, converted)
		return nil
	}

	switch c.Kind {
	case wrap.CanonValue:
		if !c.Present {
			return out, nil
		}
		if err := appendOne(c.Value); err != nil {
			return reflect.Value{}, err
		}
		return out, nil

	case wrap.CanonSlice:
		for i := range c.Slice.Len() {
			if err := appendOne(c.Slice.Index(i)); err != nil {
				return reflect.Value{}, err
			}
		}
		return out, nil

	case wrap.CanonSource:
		defer c.Source.Close()
		for {
			v, ok, err := c.Source.Pull()
			if err != nil {
				return reflect.Value{}, err
			}
			if !ok {
				return out, nil
			}
			if err := appendOne(reflect.ValueOf(v)); err != nil {
				return reflect.Value{}, err
			}
		}
	}
	return out, nil
}

// emptyValue applies the absence policy for the declared type: containers
// with a real empty instance yield it, nullable methods yield the zero
// value, everything else is an EMPTY_RESULT error.
func (h *Handler) emptyValue(declared reflect.Type, cc Context) (reflect.Value, error) {
	if _, ok := h.reg.Lookup(declared); ok && !nilableSingle(declared) {
		return h.reg.Empty(declared)
	}
	if cc.Nullable {
		return reflect.Zero(declared), nil
	}
	return reflect.Value{}, errx.New(
		fmt.Sprintf("no result for %s", methodLabel(cc)),
		errx.WithCode(CodeEmptyResult),
		errx.WithType(errx.T_NotFound),
		errx.WithDetails(errx.D{
			"repository": cc.Repository,
			"method":     cc.Method,
		}),
	)
}

// WrapSource wraps a lazily pulled sequence into the declared stream-shaped
// container, converting elements on the way through. srcElem names the
// element type the source yields; a nil srcElem leaves elements untouched.
// The source stays lazy: nothing is pulled until the container is consumed.
func (h *Handler) WrapSource(src wrap.Puller, srcElem, declared reflect.Type, cc Context) (any, error) {
	to, ok := h.reg.Lookup(declared)
	if !ok || to.Shape != wrap.ShapeStream {
		return nil, errx.New(
			"declared type cannot carry a lazy sequence",
			errx.WithCode(CodeResultNotConvertible),
			errx.WithType(errx.T_Internal),
			errx.WithDetails(errx.D{
				"to":         declared.String(),
				"repository": cc.Repository,
				"method":     cc.Method,
			}),
		)
	}
	if srcElem != nil && srcElem != to.Elem {
		src = &convertingPuller{src: src, convert: h.elementConverter(to.Elem, cc)}
	}
	out, err := h.reg.Wrap(declared, wrap.Canon{Kind: wrap.CanonSource, Source: src})
	if err != nil {
		return nil, err
	}
	return out.Interface(), nil
}

// elementConverter returns a per-element conversion closure for lazy
// sources.
func (h *Handler) elementConverter(to reflect.Type, cc Context) func(any) (any, error) {
	return func(raw any) (any, error) {
		ev := reflect.ValueOf(raw)
		if !ev.IsValid() {
			return reflect.Zero(to).Interface(), nil
		}
		converted, err := h.convert(ev, to, cc)
		if err != nil {
			return nil, err
		}
		return converted.Interface(), nil
	}
}

// convertingPuller converts elements of a lazy source one by one, keeping
// the stream lazy. A failed conversion closes the source and surfaces as the
// terminal error.
type convertingPuller struct {
	src     wrap.Puller
	convert func(any) (any, error)
}

func (p *convertingPuller) Pull() (any, bool, error) {
	v, ok, err := p.src.Pull()
	if err != nil || !ok {
		return nil, false, err
	}
	out, err := p.convert(v)
	if err != nil {
		p.src.Close()
		return nil, false, err
	}
	return out, true, nil
}

func (p *convertingPuller) Close() {
	p.src.Close()
}

var (
	singleIface    = reflect.TypeOf((*wrap.Single)(nil)).Elem()
	manyIface      = reflect.TypeOf((*wrap.Many)(nil)).Elem()
	streamingIface = reflect.TypeOf((*wrap.Streaming)(nil)).Elem()
	asyncIface     = reflect.TypeOf((*wrap.Async)(nil)).Elem()
)

// nilableSingle reports whether t is a plain nilable pointer rather than a
// container with a real empty instance. Pointer-typed containers such as
// streams and futures implement the container interfaces and are excluded.
func nilableSingle(t reflect.Type) bool {
	if t.Kind() != reflect.Pointer {
		return false
	}
	return !t.Implements(singleIface) &&
		!t.Implements(manyIface) &&
		!t.Implements(streamingIface) &&
		!t.Implements(asyncIface)
}

func isNilValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func:
		return v.IsNil()
	}
	return false
}

// plainConvertible approximates whether two non-container types convert:
// assignability, scalar coercion and struct projection.
func plainConvertible(from, to reflect.Type) bool {
	if from.AssignableTo(to) || from.ConvertibleTo(to) {
		return true
	}
	if scalarish(from.Kind()) && scalarish(to.Kind()) {
		return true
	}
	return from.Kind() == reflect.Struct && to.Kind() == reflect.Struct
}

func scalarish(k reflect.Kind) bool {
	switch k {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func methodLabel(cc Context) string {
	if cc.Repository == "" {
		return cc.Method
	}
	return cc.Repository + "." + cc.Method
}

func multipleResults(cc Context, count int) error {
	return errx.New(
		fmt.Sprintf("multiple results for %s", methodLabel(cc)),
		errx.WithCode(CodeMultipleResults),
		errx.WithType(errx.T_Conflict),
		errx.WithDetails(errx.D{
			"repository": cc.Repository,
			"method":     cc.Method,
			"count":      fmt.Sprintf("%d", count),
		}),
	)
}

func notConvertible(from, to reflect.Type) error {
	return errx.New(
		"result is not convertible to the declared type",
		errx.WithCode(CodeResultNotConvertible),
		errx.WithType(errx.T_Internal),
		errx.WithDetails(errx.D{
			"from": from.String(),
			"to":   to.String(),
		}),
	)
}
