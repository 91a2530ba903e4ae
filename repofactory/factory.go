package repofactory

import (
	"reflect"
	"slices"

	"github.com/code19m/errx"
	"github.com/creasty/defaults"

	"github.com/rise-and-shine/repokit/fragments"
	"github.com/rise-and-shine/repokit/logger"
	"github.com/rise-and-shine/repokit/repoinfo"
	"github.com/rise-and-shine/repokit/repometa"
	"github.com/rise-and-shine/repokit/repoquery"
	"github.com/rise-and-shine/repokit/resultconv"
	"github.com/rise-and-shine/repokit/val"
	"github.com/rise-and-shine/repokit/wrap"
)

// Factory builds repositories. Options are applied at construction and
// frozen; a factory is safe for concurrent use.
type Factory struct {
	cfg        Config
	log        logger.Logger
	registry   *wrap.Registry
	handler    *resultconv.Handler
	lookup     repoquery.LookupStrategy
	decorators []Decorator
	listeners  []InvocationListener
	repos      *Registry
}

// New builds a factory, applying config defaults and validation.
func New(cfg Config, opts ...Option) (*Factory, error) {
	if err := defaults.Set(&cfg); err != nil {
		return nil, errx.Wrap(err)
	}
	if err := val.ValidateSchema(cfg); err != nil {
		return nil, err
	}

	f := &Factory{cfg: cfg, repos: NewRegistry()}
	for _, opt := range opts {
		opt(f)
	}
	if f.log == nil {
		f.log = logger.NewNoop()
	}
	if f.registry == nil {
		f.registry = wrap.NewRegistry()
	}
	f.handler = resultconv.NewHandler(f.registry)

	return f, nil
}

// Repositories returns the registry of repositories this factory has built.
func (f *Factory) Repositories() *Registry { return f.repos }

// WrapRegistry returns the container registry repositories are built with.
func (f *Factory) WrapRegistry() *wrap.Registry { return f.registry }

// InitRepository resolves, composes and fills the given definition. def must
// be a non-nil pointer to a definition struct; its unassigned func fields
// are filled in place and the built repository is registered and returned.
//
// Func fields assigned before the call are kept as-is and excluded from
// dispatch.
func (f *Factory) InitRepository(def any, opts ...RepoOption) (*Repository, error) {
	v := reflect.ValueOf(def)
	if !v.IsValid() || v.Kind() != reflect.Pointer || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return nil, errx.New(
			"definition must be a non-nil struct pointer",
			errx.WithCode(repometa.CodeInvalidRepositoryDefinition),
			errx.WithType(errx.T_Validation),
			errx.WithDetails(errx.D{"type": typeLabel(def)}),
		)
	}

	md, err := repometa.Resolve(v.Type(), f.registry)
	if err != nil {
		return nil, err
	}

	ro := &repoOptions{lookup: f.lookup}
	for _, opt := range opts {
		opt(ro)
	}
	name := ro.name
	if name == "" {
		name = md.DefinitionType().Name()
	}

	base, caps, err := f.resolveBase(md, ro)
	if err != nil {
		return nil, err
	}

	frs := slices.Clone(ro.fragments)
	for _, inst := range ro.instances {
		frs = append(frs, conventionFragment(md, inst))
	}
	if base != nil {
		frs = append(frs, fragments.OfInstance(base))
	}

	comp := fragments.NewComposition(frs, fragments.WithConvertible(f.handler.Convertible))
	if err := comp.Validate(); err != nil {
		return nil, err
	}

	infoOpts := []repoinfo.Option{repoinfo.WithCapabilities(caps...)}
	if base != nil {
		infoOpts = append(infoOpts, repoinfo.WithBaseContributor(reflect.TypeOf(base)))
	}
	info, err := repoinfo.New(md, v, comp, infoOpts...)
	if err != nil {
		return nil, err
	}

	plans, err := f.plan(name, info, ro)
	if err != nil {
		return nil, err
	}
	if err := fillDefinition(v, plans); err != nil {
		return nil, err
	}

	rep := &Repository{name: name, info: info, def: def}
	f.repos.store(rep)

	f.log.Debugw("repository built",
		"repository", name,
		"domain", md.DomainType().String(),
		"methods", len(plans),
		"fragments", len(comp.Fragments()),
	)
	return rep, nil
}

// Build constructs, fills and registers a fresh definition of type R.
func Build[R any](f *Factory, opts ...RepoOption) (*R, error) {
	def := new(R)
	if _, err := f.InitRepository(def, opts...); err != nil {
		return nil, err
	}
	return def, nil
}

func typeLabel(v any) string {
	if v == nil {
		return "<nil>"
	}
	return reflect.TypeOf(v).String()
}
