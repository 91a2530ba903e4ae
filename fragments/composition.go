package fragments

import (
	"context"
	"reflect"
	"slices"
	"strings"

	"github.com/code19m/errx"

	"github.com/rise-and-shine/repokit/repometa"
)

// MatchKind describes how a fragment method matched a repository method.
type MatchKind int

const (
	// MatchNone means no fragment provides the method.
	MatchNone MatchKind = iota

	// MatchExact means the fragment method has the identical signature.
	MatchExact

	// MatchConvertible means parameters are assignable and results are
	// convertible through the configured predicate.
	MatchConvertible
)

// Binding is the resolution of one repository method to the fragment
// method that implements it.
type Binding struct {
	Fragment Fragment
	Method   reflect.Value
	Kind     MatchKind
}

// ConvertibleFunc reports whether a value of type from can be converted to
// type to when relaying fragment results back to the declared signature.
type ConvertibleFunc func(from, to reflect.Type) bool

// Composition is an ordered, immutable list of fragments. Earlier fragments
// win ties, so more specific implementations are appended first.
type Composition struct {
	fragments   []Fragment
	convertible ConvertibleFunc
}

// Option configures a composition.
type Option func(*Composition)

// WithConvertible installs the predicate used for relaxed result matching.
// Without it only assignable results match.
func WithConvertible(fn ConvertibleFunc) Option {
	return func(c *Composition) { c.convertible = fn }
}

// NewComposition builds a composition from the given fragments in order.
func NewComposition(frs []Fragment, opts ...Option) Composition {
	c := Composition{fragments: slices.Clone(frs)}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// Append returns a new composition with f added at the end.
func (c Composition) Append(f Fragment) Composition {
	return c.AppendAll(f)
}

// AppendAll returns a new composition with the fragments added at the end.
func (c Composition) AppendAll(frs ...Fragment) Composition {
	joined := make([]Fragment, 0, len(c.fragments)+len(frs))
	joined = append(joined, c.fragments...)
	joined = append(joined, frs...)
	c.fragments = joined
	return c
}

// Fragments returns the fragments in iteration order. The slice must not
// be mutated.
func (c Composition) Fragments() []Fragment { return c.fragments }

// IsEmpty reports whether the composition holds no fragments.
func (c Composition) IsEmpty() bool { return len(c.fragments) == 0 }

func (c Composition) String() string {
	parts := make([]string, len(c.fragments))
	for i, f := range c.fragments {
		parts[i] = f.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// FindMethod resolves the fragment method implementing m. Fragments are
// scanned in iteration order and the first match wins, so override
// precedence follows insertion order.
func (c Composition) FindMethod(m repometa.Method) (Binding, bool) {
	for _, f := range c.fragments {
		bound := f.methodByName(m.Name)
		if !bound.IsValid() {
			continue
		}
		if kind := c.signatureMatch(m, bound.Type()); kind != MatchNone {
			return Binding{Fragment: f, Method: bound, Kind: kind}, true
		}
	}
	return Binding{}, false
}

// Invoke dispatches m to the fragment implementing it. Args follow the
// declared signature with the leading context omitted; nil stands for the
// parameter's zero value.
func (c Composition) Invoke(ctx context.Context, m repometa.Method, args ...any) (any, error) {
	b, ok := c.FindMethod(m)
	if !ok {
		return nil, errx.New(
			"no fragment implements method",
			errx.WithCode(CodeDispatchNoFragment),
			errx.WithType(errx.T_Internal),
			errx.WithDetails(errx.D{"method": m.Name, "composition": c.String()}),
		)
	}

	return b.Call(ctx, args...)
}

// Call invokes the bound fragment method. Args follow the declared signature
// with the leading context omitted; nil stands for the parameter's zero
// value. Callers that resolved the binding once may call it repeatedly
// without re-scanning the composition.
func (b Binding) Call(ctx context.Context, args ...any) (any, error) {
	mt := b.Method.Type()
	in := make([]reflect.Value, 0, len(args)+1)
	in = append(in, reflect.ValueOf(ctx))
	for i, a := range args {
		if a == nil {
			in = append(in, reflect.Zero(paramType(mt, i+1)))
			continue
		}
		in = append(in, reflect.ValueOf(a))
	}

	return splitResults(b.Method.Call(in))
}

// Validate walks every fragment eagerly and fails on the first structural
// one, so misconfiguration surfaces at build time rather than at first call.
func (c Composition) Validate() error {
	for _, f := range c.fragments {
		if f.IsStructural() {
			return errx.New(
				"fragment is not implemented",
				errx.WithCode(CodeFragmentNotImplemented),
				errx.WithType(errx.T_Validation),
				errx.WithDetails(errx.D{"contributor": f.Contributor().String()}),
			)
		}
	}
	return nil
}

func (c Composition) signatureMatch(m repometa.Method, mt reflect.Type) MatchKind {
	if mt == m.Type {
		return MatchExact
	}
	if mt.NumIn() != m.Type.NumIn() || mt.NumOut() != m.Type.NumOut() ||
		mt.IsVariadic() != m.Type.IsVariadic() {
		return MatchNone
	}
	for i := range m.Type.NumIn() {
		if !m.Type.In(i).AssignableTo(mt.In(i)) {
			return MatchNone
		}
	}
	for i := range m.Type.NumOut() {
		from, to := mt.Out(i), m.Type.Out(i)
		if from.AssignableTo(to) {
			continue
		}
		if from == errType || to == errType {
			return MatchNone
		}
		if c.convertible == nil || !c.convertible(from, to) {
			return MatchNone
		}
	}
	return MatchConvertible
}

func paramType(mt reflect.Type, i int) reflect.Type {
	if mt.IsVariadic() && i >= mt.NumIn()-1 {
		return mt.In(mt.NumIn() - 1).Elem()
	}
	return mt.In(i)
}

func splitResults(out []reflect.Value) (any, error) {
	var result any
	var err error
	for _, v := range out {
		if v.Type() == errType {
			if !v.IsNil() {
				err = v.Interface().(error)
			}
			continue
		}
		if result == nil {
			result = v.Interface()
		}
	}
	return result, err
}

var errType = reflect.TypeOf((*error)(nil)).Elem()
