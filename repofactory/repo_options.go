package repofactory

import (
	"reflect"

	"github.com/rise-and-shine/repokit/fragments"
	"github.com/rise-and-shine/repokit/repoquery"
)

type repoOptions struct {
	name         string
	base         any
	constructors []any
	capabilities []reflect.Type
	fragments    []fragments.Fragment
	instances    []any
	auditor      any
	lookup       repoquery.LookupStrategy
}

// RepoOption configures one repository build.
type RepoOption func(*repoOptions)

// WithRepositoryName overrides the name used in logs, errors and invocation
// records. It defaults to the definition type name.
func WithRepositoryName(name string) RepoOption {
	return func(o *repoOptions) { o.name = name }
}

// WithBase supplies the base fragment instance directly, bypassing both
// constructor matching and the contract's default provider.
func WithBase(instance any) RepoOption {
	return func(o *repoOptions) { o.base = instance }
}

// WithBaseConstructors registers constructor candidates for the base
// fragment. Each must be a func returning the instance, optionally with a
// trailing error. The first whose parameters the factory can satisfy from
// its collaborators wins.
func WithBaseConstructors(ctors ...any) RepoOption {
	return func(o *repoOptions) { o.constructors = append(o.constructors, ctors...) }
}

// WithCapabilities declares additional capability contracts by prototype
// value. Methods they contribute must be served by a fragment; leaving one
// unserved fails the build instead of falling through to query resolution.
func WithCapabilities(prototypes ...any) RepoOption {
	return func(o *repoOptions) {
		for _, p := range prototypes {
			o.capabilities = append(o.capabilities, reflect.TypeOf(p))
		}
	}
}

// WithFragment appends a fragment for the given contributor contract,
// identified by prototype value. A nil instance declares the capability
// without implementing it, which fails composition validation; it exists
// for staged assembly and tests.
func WithFragment(contributor any, instance any) RepoOption {
	return func(o *repoOptions) {
		ct := reflect.TypeOf(contributor)
		if instance == nil {
			o.fragments = append(o.fragments, fragments.Structural(ct))
			return
		}
		o.fragments = append(o.fragments, fragments.Implemented(ct, instance))
	}
}

// WithImplementations appends custom fragments for the given instances. An
// instance whose type name is <Contract>Impl binds to the embedded contract
// of that name; any other instance contributes its own method set. Custom
// fragments precede the base, so they override base methods of the same
// name.
func WithImplementations(instances ...any) RepoOption {
	return func(o *repoOptions) { o.instances = append(o.instances, instances...) }
}

// WithAuditor hands an auditor to the contract's default base provider.
func WithAuditor(a any) RepoOption {
	return func(o *repoOptions) { o.auditor = a }
}

// WithQueryStrategy overrides the factory-level lookup strategy for this
// build.
func WithQueryStrategy(s repoquery.LookupStrategy) RepoOption {
	return func(o *repoOptions) { o.lookup = s }
}
