// Package fragments models a repository implementation as an ordered list
// of fragments. A fragment pairs a contributor type (the capability contract
// whose methods it provides) with an optional backing instance. Fragments
// without an instance are structural: they declare a capability that must be
// resolved before the repository is usable.
package fragments

import (
	"fmt"
	"reflect"
)

// Fragment is one unit of a composed repository implementation.
type Fragment struct {
	contributor reflect.Type
	instance    any
}

// Structural declares a capability with no backing instance yet.
func Structural(contributor reflect.Type) Fragment {
	return Fragment{contributor: contributor}
}

// Implemented pairs a contributor type with the instance backing it.
func Implemented(contributor reflect.Type, instance any) Fragment {
	return Fragment{contributor: contributor, instance: instance}
}

// OfInstance builds an implemented fragment whose contributor is the
// instance's own type.
func OfInstance(instance any) Fragment {
	return Fragment{contributor: reflect.TypeOf(instance), instance: instance}
}

// Contributor returns the capability contract type this fragment stands for.
func (f Fragment) Contributor() reflect.Type { return f.contributor }

// Instance returns the backing instance, or nil for structural fragments.
func (f Fragment) Instance() any { return f.instance }

// IsStructural reports whether the fragment still lacks a backing instance.
func (f Fragment) IsStructural() bool { return f.instance == nil }

// WithInstance returns a copy of the fragment backed by instance.
func (f Fragment) WithInstance(instance any) Fragment {
	f.instance = instance
	return f
}

func (f Fragment) String() string {
	name := "<nil>"
	if f.contributor != nil {
		name = f.contributor.String()
	}
	if f.IsStructural() {
		return fmt.Sprintf("structural(%s)", name)
	}
	return fmt.Sprintf("implemented(%s)", name)
}

// methodByName returns the bound method with the given name on the backing
// instance. The zero Value means the instance does not provide it.
func (f Fragment) methodByName(name string) reflect.Value {
	if f.instance == nil {
		return reflect.Value{}
	}
	return reflect.ValueOf(f.instance).MethodByName(name)
}
