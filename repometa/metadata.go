package repometa

import (
	"context"
	"fmt"
	"reflect"
	"slices"
	"time"

	"github.com/code19m/errx"

	"github.com/rise-and-shine/repokit/pagination"
	"github.com/rise-and-shine/repokit/wrap"
)

// Method describes one exported func field of a repository definition.
type Method struct {
	// Name is the field name, which doubles as the method name.
	Name string

	// Type is the func type of the field.
	Type reflect.Type

	// ContributedBy is the struct type that declares the field: an embedded
	// base contract or capability struct, or the definition itself.
	ContributedBy reflect.Type

	// Index is the field index path from the definition root.
	Index []int

	// Depth is the embedding depth; 0 means declared on the definition.
	Depth int

	// Tag holds the parsed `repo` tag options.
	Tag Tag
}

// Metadata wraps one repository definition struct type. It is immutable
// after Resolve.
type Metadata struct {
	definitionType reflect.Type
	domainType     reflect.Type
	idType         reflect.Type
	methods        []Method
	alternatives   []reflect.Type
	paging         bool
	reg            *wrap.Registry
}

// Resolve inspects a repository definition type: it locates the domain
// marker through arbitrarily deep embedding, collects every exported func
// field as a method, and validates method signatures. A pointer type is
// unwrapped first.
func Resolve(defType reflect.Type, reg *wrap.Registry) (*Metadata, error) {
	if reg == nil {
		reg = wrap.NewRegistry()
	}

	t := defType
	if t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil, errx.New(
			"repository definition must be a struct",
			errx.WithCode(CodeInvalidRepositoryDefinition),
			errx.WithType(errx.T_Validation),
			errx.WithDetails(errx.D{"type": typeName(defType)}),
		)
	}

	domain, id, err := resolveMarker(t)
	if err != nil {
		return nil, err
	}

	methods, err := collectMethods(t)
	if err != nil {
		return nil, err
	}

	for _, m := range methods {
		if sigErr := validateSignature(t, m); sigErr != nil {
			return nil, sigErr
		}
	}

	return &Metadata{
		definitionType: t,
		domainType:     domain,
		idType:         id,
		methods:        methods,
		alternatives:   alternativeDomainTypes(methods, domain, reg),
		paging:         hasPagingMethod(methods),
		reg:            reg,
	}, nil
}

// DefinitionType returns the definition struct type.
func (md *Metadata) DefinitionType() reflect.Type { return md.definitionType }

// DomainType returns the primary domain entity type.
func (md *Metadata) DomainType() reflect.Type { return md.domainType }

// IDType returns the identifier type.
func (md *Metadata) IDType() reflect.Type { return md.idType }

// Methods returns every declared method, including promoted ones. The
// slice must not be mutated.
func (md *Metadata) Methods() []Method { return md.methods }

// Method returns the promotion winner for name: the unique method at the
// shallowest embedding depth. It reports false when the name is absent or
// ambiguous at its shallowest depth.
func (md *Metadata) Method(name string) (Method, bool) {
	var winner Method
	found := 0
	for _, m := range md.methods {
		if m.Name != name {
			continue
		}
		switch {
		case found == 0 || m.Depth < winner.Depth:
			winner = m
			found = 1
		case m.Depth == winner.Depth:
			found++
		}
	}
	if found != 1 {
		return Method{}, false
	}
	return winner, true
}

// AlternativeDomainTypes returns the named struct types other than the
// primary domain that appear as result element types.
func (md *Metadata) AlternativeDomainTypes() []reflect.Type { return md.alternatives }

// IsPaging reports whether the definition declares a method taking a
// pagination request.
func (md *Metadata) IsPaging() bool { return md.paging }

// ReturnedDomainType unwraps the first value result of m down to its
// element type: pointers, slices, maps, channels, iterator seqs and the
// wrapper containers all peel away. It returns nil for methods without a
// value result.
func (md *Metadata) ReturnedDomainType(m Method) reflect.Type {
	for i := range m.Type.NumOut() {
		out := m.Type.Out(i)
		if out == errType {
			continue
		}

		elem := md.reg.DeepElem(out)
		for elem != nil && elem.Kind() == reflect.Pointer {
			elem = elem.Elem()
		}
		return elem
	}
	return nil
}

func resolveMarker(t reflect.Type) (domain, id reflect.Type, err error) {
	type hit struct {
		domain reflect.Type
		id     reflect.Type
		path   string
	}
	var hits []hit

	var walk func(t reflect.Type, path string)
	walk = func(t reflect.Type, path string) {
		for i := range t.NumField() {
			f := t.Field(i)
			if !f.Anonymous || f.Type.Kind() != reflect.Struct {
				continue
			}

			fieldPath := f.Name
			if path != "" {
				fieldPath = path + "." + f.Name
			}

			if f.Type.Implements(typeCarrierType) {
				carrier := reflect.Zero(f.Type).Interface().(TypeCarrier)
				hits = append(hits, hit{
					domain: carrier.DomainType(),
					id:     carrier.IDType(),
					path:   fieldPath,
				})
				continue
			}
			walk(f.Type, fieldPath)
		}
	}
	walk(t, "")

	if len(hits) == 0 {
		return nil, nil, errx.New(
			"repository definition must embed a domain marker",
			errx.WithCode(CodeInvalidRepositoryDefinition),
			errx.WithType(errx.T_Validation),
			errx.WithDetails(errx.D{"type": t.String()}),
		)
	}

	first := hits[0]
	for _, h := range hits[1:] {
		if h.domain != first.domain || h.id != first.id {
			return nil, nil, errx.New(
				"repository definition carries conflicting domain markers",
				errx.WithCode(CodeInvalidRepositoryDefinition),
				errx.WithType(errx.T_Validation),
				errx.WithDetails(errx.D{
					"type":   t.String(),
					"first":  fmt.Sprintf("%s (%s, %s)", first.path, first.domain, first.id),
					"second": fmt.Sprintf("%s (%s, %s)", h.path, h.domain, h.id),
				}),
			)
		}
	}

	if first.domain.Kind() == reflect.Interface {
		return nil, nil, errx.New(
			"repository domain type must be concrete",
			errx.WithCode(CodeInvalidRepositoryDefinition),
			errx.WithType(errx.T_Validation),
			errx.WithDetails(errx.D{"type": t.String(), "domain": first.domain.String()}),
		)
	}

	return first.domain, first.id, nil
}

func collectMethods(root reflect.Type) ([]Method, error) {
	var out []Method
	var firstErr error

	var walk func(t reflect.Type, depth int, prefix []int)
	walk = func(t reflect.Type, depth int, prefix []int) {
		for i := range t.NumField() {
			f := t.Field(i)
			index := append(slices.Clone(prefix), i)

			if f.Anonymous {
				if f.Type.Kind() == reflect.Struct {
					walk(f.Type, depth+1, index)
				}
				continue
			}
			if !f.IsExported() || f.Type.Kind() != reflect.Func {
				continue
			}

			tag, err := ParseTag(f.Tag.Get("repo"))
			if err != nil && firstErr == nil {
				firstErr = errx.Wrap(err, errx.WithDetails(errx.D{"method": f.Name}))
			}

			out = append(out, Method{
				Name:          f.Name,
				Type:          f.Type,
				ContributedBy: t,
				Index:         index,
				Depth:         depth,
				Tag:           tag,
			})
		}
	}
	walk(root, 0, nil)

	return out, firstErr
}

func validateSignature(defType reflect.Type, m Method) error {
	fail := func(msg string) error {
		return errx.New(
			msg,
			errx.WithCode(CodeInvalidRepositoryDefinition),
			errx.WithType(errx.T_Validation),
			errx.WithDetails(errx.D{
				"type":      defType.String(),
				"method":    m.Name,
				"signature": m.Type.String(),
			}),
		)
	}

	ft := m.Type
	if ft.NumIn() == 0 || ft.In(0) != ctxType {
		return fail("repository method must take context.Context as its first parameter")
	}

	switch ft.NumOut() {
	case 0, 1:
	case 2:
		if ft.Out(1) != errType {
			return fail("repository method's second result must be error")
		}
		if ft.Out(0) == errType {
			return fail("repository method must not return two errors")
		}
	default:
		return fail("repository method must return at most two results")
	}

	return nil
}

func alternativeDomainTypes(methods []Method, domain reflect.Type, reg *wrap.Registry) []reflect.Type {
	seen := map[reflect.Type]struct{}{domain: {}, timeType: {}}
	var out []reflect.Type

	for _, m := range methods {
		for i := range m.Type.NumOut() {
			ot := m.Type.Out(i)
			if ot == errType {
				continue
			}

			elem := reg.DeepElem(ot)
			for elem != nil && elem.Kind() == reflect.Pointer {
				elem = elem.Elem()
			}
			if elem == nil || elem.Kind() != reflect.Struct || elem.Name() == "" {
				continue
			}
			if _, dup := seen[elem]; dup {
				continue
			}
			seen[elem] = struct{}{}
			out = append(out, elem)
		}
	}
	return out
}

func hasPagingMethod(methods []Method) bool {
	for _, m := range methods {
		for i := 1; i < m.Type.NumIn(); i++ {
			if m.Type.In(i) == pagingRequestType {
				return true
			}
		}
	}
	return false
}

func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}

var (
	ctxType           = reflect.TypeOf((*context.Context)(nil)).Elem()
	errType           = reflect.TypeOf((*error)(nil)).Elem()
	timeType          = reflect.TypeOf(time.Time{})
	pagingRequestType = reflect.TypeOf(pagination.Request{})
)
