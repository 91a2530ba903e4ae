package repofactory

import (
	"github.com/rise-and-shine/repokit/logger"
	"github.com/rise-and-shine/repokit/repoquery"
	"github.com/rise-and-shine/repokit/wrap"
)

// Option configures a Factory at construction.
type Option func(*Factory)

// WithLogger sets the logger used by the factory and the bases it builds.
func WithLogger(log logger.Logger) Option {
	return func(f *Factory) { f.log = log }
}

// WithQueryLookup installs the strategy that resolves query methods.
// Individual builds may override it with WithQueryStrategy.
func WithQueryLookup(s repoquery.LookupStrategy) Option {
	return func(f *Factory) { f.lookup = s }
}

// WithDecorators registers pipeline decorators applied to every method of
// every repository this factory builds. The first registered decorator is
// the outermost stage.
func WithDecorators(ds ...Decorator) Option {
	return func(f *Factory) { f.decorators = append(f.decorators, ds...) }
}

// WithListeners registers invocation listeners notified once per logical
// call on every repository this factory builds.
func WithListeners(ls ...InvocationListener) Option {
	return func(f *Factory) { f.listeners = append(f.listeners, ls...) }
}

// WithWrapAdapters rebuilds the container registry with extra adapters
// consulted before the built-in ones, so project-specific container types
// participate in result conversion.
func WithWrapAdapters(extras ...wrap.Adapter) Option {
	return func(f *Factory) { f.registry = wrap.NewRegistry(extras...) }
}
