package repoquery

import (
	"io"
	"sort"

	"github.com/code19m/errx"
	"github.com/samber/lo"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

// NamedQueries is an immutable key to query-source map. Keys follow the
// "<Domain>.<Method>" convention or come from `named` tag options.
type NamedQueries struct {
	queries map[string]string
}

// NewNamedQueries copies the given map into a NamedQueries.
func NewNamedQueries(queries map[string]string) NamedQueries {
	cp := make(map[string]string, len(queries))
	for k, v := range queries {
		cp[k] = v
	}
	return NamedQueries{queries: cp}
}

// Has reports whether a query source is registered under key.
func (nq NamedQueries) Has(key string) bool {
	_, ok := nq.queries[key]
	return ok
}

// Get returns the query source registered under key.
func (nq NamedQueries) Get(key string) (string, bool) {
	src, ok := nq.queries[key]
	return src, ok
}

// Keys returns the registered keys in sorted order.
func (nq NamedQueries) Keys() []string {
	keys := lo.Keys(nq.queries)
	sort.Strings(keys)
	return keys
}

// Len returns the number of registered queries.
func (nq NamedQueries) Len() int { return len(nq.queries) }

// LoadNamedQueriesYAML reads named queries from YAML. Both flat
// "Domain.Method: source" keys and nested mappings are accepted; nested
// keys are joined with dots.
func LoadNamedQueriesYAML(r io.Reader) (NamedQueries, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return NamedQueries{}, errx.Wrap(err, errx.WithCode(CodeNamedQuerySource))
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return NamedQueries{}, errx.Wrap(err,
			errx.WithCode(CodeNamedQuerySource),
			errx.WithType(errx.T_Validation),
		)
	}

	flat := make(map[string]string)
	if err := flatten("", raw, flat); err != nil {
		return NamedQueries{}, err
	}
	return NamedQueries{queries: flat}, nil
}

func flatten(prefix string, node map[string]any, out map[string]string) error {
	for k, v := range node {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch child := v.(type) {
		case map[string]any:
			if err := flatten(key, child, out); err != nil {
				return err
			}
		default:
			src, err := cast.ToStringE(v)
			if err != nil {
				return errx.Wrap(err,
					errx.WithCode(CodeNamedQuerySource),
					errx.WithType(errx.T_Validation),
					errx.WithDetails(errx.D{"key": key}),
				)
			}
			out[key] = src
		}
	}
	return nil
}

// CompileFunc turns a named query source into an executable Query.
type CompileFunc func(m Method, source string) (Query, error)

// NamedStrategy resolves query methods against a NamedQueries set and hands
// the source text to a store-specific compiler.
type NamedStrategy struct {
	queries NamedQueries
	compile CompileFunc
}

// NewNamedStrategy builds a NamedStrategy from a query set and compiler.
func NewNamedStrategy(queries NamedQueries, compile CompileFunc) NamedStrategy {
	return NamedStrategy{queries: queries, compile: compile}
}

// Resolve looks up the method's named key and compiles its source. A missing
// key reports T_NotFound so chained strategies can take over.
func (s NamedStrategy) Resolve(m Method) (Query, error) {
	src, ok := s.queries.Get(m.NamedKey)
	if !ok {
		return nil, errx.New(
			"named query not found",
			errx.WithCode(CodeNamedQueryMissing),
			errx.WithType(errx.T_NotFound),
			errx.WithDetails(errx.D{"named_key": m.NamedKey, "method": m.Name}),
		)
	}
	if s.compile == nil {
		return nil, errx.New(
			"named strategy has no compiler",
			errx.WithCode(CodeQueryLookupFailed),
			errx.WithType(errx.T_Internal),
			errx.WithDetails(errx.D{"named_key": m.NamedKey}),
		)
	}
	return s.compile(m, src)
}
