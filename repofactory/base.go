package repofactory

import (
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/code19m/errx"

	"github.com/rise-and-shine/repokit/crud"
	"github.com/rise-and-shine/repokit/fragments"
	"github.com/rise-and-shine/repokit/repometa"
)

// resolveBase produces the base fragment instance and the capability set for
// one build. Resolution order: explicit instance, constructor candidates,
// the embedded contract's own provider. A definition without any base is
// legal; every method must then resolve to a custom fragment or a query.
func (f *Factory) resolveBase(md *repometa.Metadata, ro *repoOptions) (any, []reflect.Type, error) {
	if ro.base != nil {
		return ro.base, ro.capabilities, nil
	}

	if len(ro.constructors) > 0 {
		base, err := f.buildFromConstructors(md, ro.constructors)
		if err != nil {
			return nil, nil, err
		}
		return base, ro.capabilities, nil
	}

	if provider, ok := reflect.Zero(md.DefinitionType()).Interface().(crud.BaseProvider); ok {
		prov, err := provider.ProvideBase(crud.BaseSettings{
			Store:   f.cfg.Store,
			Logger:  f.log,
			Auditor: ro.auditor,
		})
		if err != nil {
			return nil, nil, err
		}
		caps := append(slices.Clone(prov.Capabilities), ro.capabilities...)
		return prov.Base, caps, nil
	}

	return nil, ro.capabilities, nil
}

// buildFromConstructors calls the first constructor whose parameters the
// factory can satisfy from its collaborator pool: the store config, the
// logger, the resolved metadata, the container registry and the result
// handler.
func (f *Factory) buildFromConstructors(md *repometa.Metadata, ctors []any) (any, error) {
	pool := []any{f.cfg.Store, f.log, md, f.registry, f.handler}

	details := errx.D{"repository": md.DefinitionType().String()}
	for i, ctor := range ctors {
		cv := reflect.ValueOf(ctor)
		if !cv.IsValid() || cv.Kind() != reflect.Func {
			details[fmt.Sprintf("candidate_%d", i)] = fmt.Sprintf("%T is not a func", ctor)
			continue
		}
		ct := cv.Type()
		if ct.NumOut() < 1 || ct.NumOut() > 2 || (ct.NumOut() == 2 && ct.Out(1) != errType) {
			details[fmt.Sprintf("candidate_%d", i)] = ct.String() + ": must return (instance) or (instance, error)"
			continue
		}

		args, missing := satisfy(ct, pool)
		if len(missing) > 0 {
			details[fmt.Sprintf("candidate_%d", i)] = ct.String() + ": unsatisfied " + strings.Join(missing, ", ")
			continue
		}

		out := cv.Call(args)
		if len(out) == 2 && !out[1].IsNil() {
			return nil, out[1].Interface().(error)
		}
		return out[0].Interface(), nil
	}

	return nil, errx.New(
		"no base constructor is satisfiable",
		errx.WithCode(CodeConstructorMismatch),
		errx.WithType(errx.T_Validation),
		errx.WithDetails(details),
	)
}

// satisfy resolves each constructor parameter from the pool by
// assignability. Variadic tails stay empty.
func satisfy(ct reflect.Type, pool []any) ([]reflect.Value, []string) {
	n := ct.NumIn()
	if ct.IsVariadic() {
		n--
	}

	args := make([]reflect.Value, 0, n)
	var missing []string
	for i := range n {
		pt := ct.In(i)
		v, ok := fromPool(pt, pool)
		if !ok {
			missing = append(missing, pt.String())
			continue
		}
		args = append(args, v)
	}
	return args, missing
}

func fromPool(pt reflect.Type, pool []any) (reflect.Value, bool) {
	for _, p := range pool {
		if p == nil {
			continue
		}
		pv := reflect.ValueOf(p)
		if pv.Type().AssignableTo(pt) {
			return pv, true
		}
	}
	return reflect.Value{}, false
}

// conventionFragment classifies one custom instance. A type named
// <Contract>Impl, where <Contract> matches a contributor embedded in the
// definition, binds as the implementation of that contract; anything else
// contributes its own method set.
func conventionFragment(md *repometa.Metadata, inst any) fragments.Fragment {
	t := reflect.TypeOf(inst)
	named := t
	for named != nil && named.Kind() == reflect.Pointer {
		named = named.Elem()
	}
	if named == nil {
		return fragments.OfInstance(inst)
	}

	trimmed, found := strings.CutSuffix(named.Name(), "Impl")
	if !found || trimmed == "" {
		return fragments.OfInstance(inst)
	}

	for _, m := range md.Methods() {
		c := m.ContributedBy
		if c == nil || c == md.DefinitionType() {
			continue
		}
		if genericBaseName(c.Name()) == trimmed {
			return fragments.Implemented(c, inst)
		}
	}
	return fragments.OfInstance(inst)
}

// genericBaseName strips the instantiation suffix of a generic type name,
// so SearchOps[pkg.Invoice] matches SearchOpsImpl.
func genericBaseName(name string) string {
	if i := strings.IndexByte(name, '['); i >= 0 {
		return name[:i]
	}
	return name
}
