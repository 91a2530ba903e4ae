package repofactory

import (
	"context"

	"github.com/rise-and-shine/repokit/repometa"
)

// CallFunc is one stage of a method's dispatch pipeline. Args follow the
// declared signature with the leading context omitted; variadic arguments
// arrive flattened. The result carries the declared result type.
type CallFunc func(ctx context.Context, args []any) (any, error)

// Decorator wraps method pipelines with cross-cutting behavior such as
// logging, retries or caching. Decorate runs once per method at build time;
// the returned CallFunc runs per invocation.
//
// Decorators apply in registration order: the first registered decorator
// becomes the outermost stage.
type Decorator interface {
	Decorate(repository string, m repometa.Method, next CallFunc) CallFunc
}

// DecorateFunc adapts a function to the Decorator interface.
type DecorateFunc func(repository string, m repometa.Method, next CallFunc) CallFunc

func (f DecorateFunc) Decorate(repository string, m repometa.Method, next CallFunc) CallFunc {
	return f(repository, m, next)
}
