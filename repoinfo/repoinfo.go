// Package repoinfo classifies the methods of a repository definition
// against an assembled fragment composition. Every method resolves to
// exactly one of three kinds: served by the base fragment, served by a
// custom fragment, or a query method that needs an external query strategy.
package repoinfo

import (
	"reflect"

	"github.com/code19m/errx"

	"github.com/rise-and-shine/repokit/fragments"
	"github.com/rise-and-shine/repokit/repometa"
)

// MethodKind partitions classified repository methods.
type MethodKind int

const (
	// KindBase marks methods served by the base fragment.
	KindBase MethodKind = iota + 1

	// KindCustom marks methods served by a non-base fragment.
	KindCustom

	// KindQuery marks methods no fragment serves.
	KindQuery
)

func (k MethodKind) String() string {
	switch k {
	case KindBase:
		return "base"
	case KindCustom:
		return "custom"
	case KindQuery:
		return "query"
	default:
		return "unknown"
	}
}

// Target is the classified resolution of one repository method.
type Target struct {
	Method repometa.Method
	Kind   MethodKind

	// Binding holds the fragment method dispatch will call. Zero for
	// query methods.
	Binding fragments.Binding
}

// Information holds the one-time classification of a definition's methods.
type Information struct {
	md      *repometa.Metadata
	comp    fragments.Composition
	base    reflect.Type
	targets []Target
	preset  map[string]struct{}
}

type options struct {
	base         reflect.Type
	capabilities []reflect.Type
}

// Option configures classification.
type Option func(*options)

// WithBaseContributor names the contributor type of the base fragment, so
// its methods classify as base rather than custom.
func WithBaseContributor(t reflect.Type) Option {
	return func(o *options) { o.base = t }
}

// WithCapabilities registers capability contract types. A method contributed
// by one of them that no fragment serves is a misconfiguration, not a query
// method.
func WithCapabilities(types ...reflect.Type) Option {
	return func(o *options) { o.capabilities = append(o.capabilities, types...) }
}

// New classifies every method of md against comp. def is the definition
// struct value (or a pointer to it); func fields already assigned on it are
// excluded from classification and left untouched by dispatch. Pass the
// zero Value to classify the type alone.
func New(md *repometa.Metadata, def reflect.Value, comp fragments.Composition, opts ...Option) (*Information, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	structVal, err := definitionStruct(md, def)
	if err != nil {
		return nil, err
	}

	info := &Information{
		md:     md,
		comp:   comp,
		base:   o.base,
		preset: make(map[string]struct{}),
	}

	for _, m := range md.Methods() {
		if structVal.IsValid() && !structVal.FieldByIndex(m.Index).IsNil() {
			info.preset[m.Name] = struct{}{}
			continue
		}

		b, ok := comp.FindMethod(m)
		switch {
		case ok && o.base != nil && b.Fragment.Contributor() == o.base:
			info.targets = append(info.targets, Target{Method: m, Kind: KindBase, Binding: b})
		case ok:
			info.targets = append(info.targets, Target{Method: m, Kind: KindCustom, Binding: b})
		case contributedByCapability(m, o.capabilities):
			return nil, errx.New(
				"repository declares a capability no fragment supports",
				errx.WithCode(CodeUnsupportedFragment),
				errx.WithType(errx.T_Validation),
				errx.WithDetails(errx.D{
					"repository": md.DefinitionType().String(),
					"capability": m.ContributedBy.String(),
					"method":     m.Name,
				}),
			)
		default:
			info.targets = append(info.targets, Target{Method: m, Kind: KindQuery})
		}
	}

	return info, nil
}

// Metadata returns the definition metadata classification was built from.
func (info *Information) Metadata() *repometa.Metadata { return info.md }

// Composition returns the fragment composition dispatch will call into.
func (info *Information) Composition() fragments.Composition { return info.comp }

// Targets returns every classified method in declaration order. The slice
// must not be mutated.
func (info *Information) Targets() []Target { return info.targets }

// TargetMethod returns the classification of the promotion winner for name:
// the unique classified method at the shallowest embedding depth.
func (info *Information) TargetMethod(name string) (Target, bool) {
	if _, ok := info.preset[name]; ok {
		return Target{}, false
	}

	var winner Target
	found := 0
	for _, tg := range info.targets {
		if tg.Method.Name != name {
			continue
		}
		switch {
		case found == 0 || tg.Method.Depth < winner.Method.Depth:
			winner = tg
			found = 1
		case tg.Method.Depth == winner.Method.Depth:
			found++
		}
	}
	if found != 1 {
		return Target{}, false
	}
	return winner, true
}

// IsBaseMethod reports whether name resolves to the base fragment.
func (info *Information) IsBaseMethod(name string) bool { return info.kindOf(name) == KindBase }

// IsCustomMethod reports whether name resolves to a non-base fragment.
func (info *Information) IsCustomMethod(name string) bool { return info.kindOf(name) == KindCustom }

// IsQueryMethod reports whether name needs a query strategy.
func (info *Information) IsQueryMethod(name string) bool { return info.kindOf(name) == KindQuery }

// IsPreset reports whether the definition value already carried an
// implementation for name.
func (info *Information) IsPreset(name string) bool {
	_, ok := info.preset[name]
	return ok
}

// QueryMethods returns the methods that must resolve through a query
// lookup strategy.
func (info *Information) QueryMethods() []repometa.Method {
	var out []repometa.Method
	for _, tg := range info.targets {
		if tg.Kind == KindQuery {
			out = append(out, tg.Method)
		}
	}
	return out
}

func (info *Information) kindOf(name string) MethodKind {
	tg, ok := info.TargetMethod(name)
	if !ok {
		return 0
	}
	return tg.Kind
}

func definitionStruct(md *repometa.Metadata, def reflect.Value) (reflect.Value, error) {
	if !def.IsValid() {
		return reflect.Value{}, nil
	}

	v := def
	if v.Kind() == reflect.Pointer && !v.IsNil() {
		v = v.Elem()
	}
	if v.Type() != md.DefinitionType() {
		return reflect.Value{}, errx.New(
			"definition value does not match metadata type",
			errx.WithCode(repometa.CodeInvalidRepositoryDefinition),
			errx.WithType(errx.T_Internal),
			errx.WithDetails(errx.D{
				"expected": md.DefinitionType().String(),
				"got":      def.Type().String(),
			}),
		)
	}
	return v, nil
}

func contributedByCapability(m repometa.Method, capabilities []reflect.Type) bool {
	for _, c := range capabilities {
		if m.ContributedBy == c {
			return true
		}
	}
	return false
}
