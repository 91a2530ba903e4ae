package repofactory

import (
	"reflect"

	"github.com/puzpuzpuz/xsync/v3"
)

// Registry indexes built repositories by definition type. Rebuilding a
// definition replaces the previous entry.
type Registry struct {
	repos *xsync.MapOf[reflect.Type, *Repository]
}

// NewRegistry builds an empty repository registry.
func NewRegistry() *Registry {
	return &Registry{repos: xsync.NewMapOf[reflect.Type, *Repository]()}
}

func (r *Registry) store(rep *Repository) {
	r.repos.Store(reflect.TypeOf(rep.def).Elem(), rep)
}

// Lookup returns the built repository for the definition type. A pointer
// type is unwrapped first.
func (r *Registry) Lookup(defType reflect.Type) (*Repository, bool) {
	if defType != nil && defType.Kind() == reflect.Pointer {
		defType = defType.Elem()
	}
	return r.repos.Load(defType)
}

// Range calls fn for every built repository until fn returns false.
func (r *Registry) Range(fn func(*Repository) bool) {
	r.repos.Range(func(_ reflect.Type, rep *Repository) bool { return fn(rep) })
}

// Size returns the number of built repositories.
func (r *Registry) Size() int { return r.repos.Size() }

// RepositoryOf returns the filled definition of type R, if the factory has
// built one.
func RepositoryOf[R any](f *Factory) (*R, bool) {
	rep, ok := f.repos.Lookup(reflect.TypeOf((*R)(nil)).Elem())
	if !ok {
		return nil, false
	}
	def, ok := rep.def.(*R)
	return def, ok
}
