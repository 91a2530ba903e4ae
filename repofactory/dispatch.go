package repofactory

import (
	"context"
	"reflect"
	"slices"
	"strings"

	"github.com/code19m/errx"

	"github.com/rise-and-shine/repokit/repoinfo"
	"github.com/rise-and-shine/repokit/repometa"
	"github.com/rise-and-shine/repokit/repoquery"
	"github.com/rise-and-shine/repokit/resultconv"
	"github.com/rise-and-shine/repokit/wrap"
)

// methodPlan pairs one definition field with its built dispatch pipeline.
type methodPlan struct {
	method repometa.Method
	call   CallFunc
}

// plan builds one pipeline per classified method. Query methods resolve
// through the lookup strategy here, so resolution failures surface at build
// time.
func (f *Factory) plan(name string, info *repoinfo.Information, ro *repoOptions) ([]methodPlan, error) {
	md := info.Metadata()

	lookup := ro.lookup
	if qms := info.QueryMethods(); len(qms) > 0 && lookup == nil {
		names := make([]string, len(qms))
		for i, m := range qms {
			names[i] = m.Name
		}
		return nil, errx.New(
			"definition declares query methods but no lookup strategy is configured",
			errx.WithCode(CodeQueryLookupMissing),
			errx.WithType(errx.T_Validation),
			errx.WithDetails(errx.D{
				"repository": name,
				"methods":    strings.Join(names, ", "),
			}),
		)
	}

	plans := make([]methodPlan, 0, len(info.Targets()))
	for _, tg := range info.Targets() {
		var q repoquery.Query
		if tg.Kind == repoinfo.KindQuery {
			qm := queryMethodOf(md, tg.Method)
			resolved, err := lookup.Resolve(qm)
			if err != nil {
				return nil, errx.Wrap(err,
					errx.WithCode(CodeQueryResolutionFailed),
					errx.WithDetails(errx.D{"repository": name, "method": tg.Method.Name}),
				)
			}
			if resolved == nil {
				return nil, errx.New(
					"lookup strategy resolved no query for method",
					errx.WithCode(CodeQueryResolutionFailed),
					errx.WithType(errx.T_Internal),
					errx.WithDetails(errx.D{
						"repository": name,
						"method":     tg.Method.Name,
						"named_key":  qm.NamedKey,
					}),
				)
			}
			q = resolved
		}

		plans = append(plans, methodPlan{
			method: tg.Method,
			call:   f.buildPipeline(name, tg, q),
		})
	}
	return plans, nil
}

// queryMethodOf assembles the strategy-facing description of one query
// method.
func queryMethodOf(md *repometa.Metadata, m repometa.Method) repoquery.Method {
	key := m.Tag.Named
	if key == "" {
		key = repoquery.KeyFor(md.DomainType(), m.Name)
	}
	return repoquery.Method{
		Repository: md.DefinitionType(),
		Name:       m.Name,
		Func:       m.Type,
		Domain:     md.DomainType(),
		ResultElem: md.ReturnedDomainType(m),
		NamedKey:   key,
		Tag:        m.Tag,
	}
}

// buildPipeline stacks the call chain for one method. Innermost is fragment
// or query delegation with instrumentation and result conversion; decorators
// wrap it in registration order; the nil guard runs before everything.
func (f *Factory) buildPipeline(name string, tg repoinfo.Target, q repoquery.Query) CallFunc {
	iv := &invoker{
		repository: name,
		method:     tg.Method.Name,
		listeners:  slices.Clone(f.listeners),
	}
	call := f.coreCall(iv, tg, q)

	for i := len(f.decorators) - 1; i >= 0; i-- {
		call = f.decorators[i].Decorate(name, tg.Method, call)
	}
	if !f.cfg.DisableNilChecks {
		call = nilGuard(name, tg.Method, call)
	}
	return call
}

// coreCall delegates to the bound fragment method or the resolved query and
// post-processes the raw result into the declared type. Every path ends the
// invocation exactly once: synchronous results right here, streams at their
// terminal signal, futures on completion.
func (f *Factory) coreCall(iv *invoker, tg repoinfo.Target, q repoquery.Query) CallFunc {
	declared := declaredResult(tg.Method.Type)
	cc := resultconv.Context{
		Repository: iv.repository,
		Method:     tg.Method.Name,
		Nullable:   tg.Method.Tag.Nullable,
	}

	var shape wrap.Shape
	if info, ok := f.registry.Lookup(declared); ok {
		shape = info.Shape
	}
	binding := tg.Binding

	return func(ctx context.Context, args []any) (any, error) {
		tr := iv.begin()

		var raw any
		var err error
		if q != nil {
			raw, err = q.Execute(ctx, args)
		} else {
			raw, err = binding.Call(ctx, args...)
		}
		if err != nil {
			tr.complete(err)
			return nil, err
		}

		switch shape {
		case wrap.ShapeStream:
			return f.instrumentStream(raw, declared, cc, tr)
		case wrap.ShapeAsync:
			out, cerr := f.handler.PostProcess(raw, declared, cc)
			if cerr != nil {
				tr.complete(cerr)
				return nil, cerr
			}
			if as, ok := out.(wrap.Async); ok {
				as.Subscribe(func(_ any, aerr error) { tr.complete(aerr) })
			} else {
				tr.complete(nil)
			}
			return out, nil
		default:
			out, cerr := f.handler.PostProcess(raw, declared, cc)
			tr.complete(cerr)
			if cerr != nil {
				return nil, cerr
			}
			return out, nil
		}
	}
}

// instrumentStream interposes a metering puller between the raw result and
// the declared stream container, so pull latency accrues on the invocation
// and the terminal signal ends it. Results that cannot stay lazy fall back
// to plain post-processing and end the invocation synchronously.
func (f *Factory) instrumentStream(raw any, declared reflect.Type, cc resultconv.Context, tr *tracker) (any, error) {
	sync := func() (any, error) {
		out, err := f.handler.PostProcess(raw, declared, cc)
		tr.complete(err)
		if err != nil {
			return nil, err
		}
		return out, nil
	}

	rv := reflect.ValueOf(raw)
	if !rv.IsValid() || isNil(rv) {
		return sync()
	}
	from, ok := f.registry.Lookup(rv.Type())
	if !ok || from.Shape == wrap.ShapeAsync {
		return sync()
	}

	canon, _, err := f.registry.Unwrap(rv)
	if err != nil {
		tr.complete(err)
		return nil, err
	}

	tr.streamed.Store(true)
	measured := &measuredPuller{src: sourceOf(canon), tr: tr}
	out, err := f.handler.WrapSource(measured, from.Elem, declared, cc)
	if err != nil {
		tr.complete(err)
		return nil, err
	}
	return out, nil
}

// sourceOf views any canonical carrier as a lazy source.
func sourceOf(c wrap.Canon) wrap.Puller {
	switch c.Kind {
	case wrap.CanonSource:
		return c.Source
	case wrap.CanonSlice:
		return &slicePuller{items: c.Slice}
	default:
		if !c.Present {
			return &slicePuller{}
		}
		items := reflect.MakeSlice(reflect.SliceOf(c.Value.Type()), 0, 1)
		items = reflect.Append(items, c.Value)
		return &slicePuller{items: items}
	}
}

// nilGuard rejects nil arguments on parameters the `repo` tag does not mark
// nullable. Typed nil pointers, maps, slices, channels and funcs count as
// nil.
func nilGuard(repository string, m repometa.Method, next CallFunc) CallFunc {
	mt := m.Type
	return func(ctx context.Context, args []any) (any, error) {
		for i, a := range args {
			idx := min(i, mt.NumIn()-2)
			if m.Tag.AllowsNil(idx) || !nilArg(a) {
				continue
			}
			return nil, errx.New(
				"nil given for a non-nullable parameter",
				errx.WithCode(CodeNullParameter),
				errx.WithType(errx.T_Validation),
				errx.WithDetails(errx.D{
					"repository": repository,
					"method":     m.Name,
					"param":      i,
					"type":       mt.In(idx + 1).String(),
				}),
			)
		}
		return next(ctx, args)
	}
}

func nilArg(a any) bool {
	if a == nil {
		return true
	}
	return isNil(reflect.ValueOf(a))
}

func isNil(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func:
		return v.IsNil()
	}
	return false
}

// fillDefinition assigns each planned pipeline to its func field. Preset
// fields carry no plan and stay untouched.
func fillDefinition(def reflect.Value, plans []methodPlan) error {
	structVal := def.Elem()
	for _, p := range plans {
		field := structVal.FieldByIndex(p.method.Index)
		if !field.CanSet() {
			return errx.New(
				"method field is not assignable",
				errx.WithCode(repometa.CodeInvalidRepositoryDefinition),
				errx.WithType(errx.T_Validation),
				errx.WithDetails(errx.D{
					"method": p.method.Name,
					"field":  p.method.ContributedBy.String(),
				}),
			)
		}
		field.Set(methodFunc(p.method.Type, p.call))
	}
	return nil
}

// methodFunc adapts a pipeline to the declared func type. The variadic tail
// arrives as a slice and is flattened for the pipeline.
func methodFunc(mt reflect.Type, call CallFunc) reflect.Value {
	return reflect.MakeFunc(mt, func(in []reflect.Value) []reflect.Value {
		ctx, _ := in[0].Interface().(context.Context)
		if ctx == nil {
			ctx = context.Background()
		}

		args := make([]any, 0, len(in)-1)
		for i, v := range in[1:] {
			if mt.IsVariadic() && i+1 == len(in)-1 {
				for j := range v.Len() {
					args = append(args, valueOrNil(v.Index(j)))
				}
				continue
			}
			args = append(args, valueOrNil(v))
		}

		out, err := call(ctx, args)
		return methodResults(mt, out, err)
	})
}

// valueOrNil boxes a reflected argument, mapping typed nils to untyped nil
// so pipeline stages treat absence uniformly.
func valueOrNil(v reflect.Value) any {
	if isNil(v) {
		return nil
	}
	return v.Interface()
}

// declaredResult returns the first non-error result type, or nil when the
// method reports only errors.
func declaredResult(mt reflect.Type) reflect.Type {
	for i := range mt.NumOut() {
		if mt.Out(i) != errType {
			return mt.Out(i)
		}
	}
	return nil
}

// methodResults shapes (out, err) back into the declared result list.
// Methods without an error result drop the error; listeners still carry it.
func methodResults(mt reflect.Type, out any, err error) []reflect.Value {
	results := make([]reflect.Value, mt.NumOut())
	for i := range mt.NumOut() {
		ot := mt.Out(i)
		if ot == errType {
			ev := reflect.Zero(errType)
			if err != nil {
				ev = reflect.New(errType).Elem()
				ev.Set(reflect.ValueOf(err))
			}
			results[i] = ev
			continue
		}
		if err != nil || out == nil {
			results[i] = reflect.Zero(ot)
			continue
		}
		results[i] = reflect.ValueOf(out)
	}
	return results
}

var errType = reflect.TypeOf((*error)(nil)).Elem()
