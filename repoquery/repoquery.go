// Package repoquery defines the query plug-in surface of the repository
// core. The core never derives or parses queries itself; it resolves one
// Query per query method at build time through a LookupStrategy and executes
// it with the runtime arguments on every call.
package repoquery

import (
	"context"
	"reflect"

	"github.com/code19m/errx"

	"github.com/rise-and-shine/repokit/repometa"
)

// Query is an externally resolved, executable representation of one query
// method. Implementations must be safe for concurrent use; a resolved Query
// is cached for the proxy's lifetime.
type Query interface {
	Execute(ctx context.Context, args []any) (any, error)
}

// QueryFunc adapts a plain function to the Query interface.
type QueryFunc func(ctx context.Context, args []any) (any, error)

func (f QueryFunc) Execute(ctx context.Context, args []any) (any, error) {
	return f(ctx, args)
}

// Method carries everything a strategy may need to resolve one query method.
type Method struct {
	// Repository is the definition struct type declaring the method.
	Repository reflect.Type

	// Name is the method name as declared.
	Name string

	// Func is the declared func signature.
	Func reflect.Type

	// Domain is the repository's primary domain type.
	Domain reflect.Type

	// ResultElem is the element type after unwrapping the declared result
	// containers, nil for methods that return only error.
	ResultElem reflect.Type

	// NamedKey is the named-query key: the `named` tag option when present,
	// otherwise "<Domain>.<Name>".
	NamedKey string

	// Tag holds the parsed `repo` tag options.
	Tag repometa.Tag
}

// KeyFor returns the conventional named-query key for a method.
func KeyFor(domain reflect.Type, methodName string) string {
	return domain.Name() + "." + methodName
}

// LookupStrategy resolves a Query for one method at build time. Returning
// (nil, nil) or a T_NotFound error signals "not mine" so chained strategies
// can fall through; any other error aborts the build.
type LookupStrategy interface {
	Resolve(m Method) (Query, error)
}

// LookupFunc adapts a plain function to the LookupStrategy interface.
type LookupFunc func(m Method) (Query, error)

func (f LookupFunc) Resolve(m Method) (Query, error) {
	return f(m)
}

type chain struct {
	strategies []LookupStrategy
}

// FirstOf combines strategies: each is tried in order and the first resolved
// Query wins. A strategy that reports T_NotFound (or yields no query) passes
// the method on to the next one.
func FirstOf(strategies ...LookupStrategy) LookupStrategy {
	return chain{strategies: strategies}
}

func (c chain) Resolve(m Method) (Query, error) {
	for _, s := range c.strategies {
		q, err := s.Resolve(m)
		if err != nil {
			if errx.GetType(err) == errx.T_NotFound {
				continue
			}
			return nil, err
		}
		if q != nil {
			return q, nil
		}
	}
	return nil, errx.New(
		"no strategy resolved a query for method",
		errx.WithCode(CodeQueryLookupFailed),
		errx.WithType(errx.T_NotFound),
		errx.WithDetails(errx.D{
			"method":    m.Name,
			"named_key": m.NamedKey,
			"tried":     len(c.strategies),
		}),
	)
}
