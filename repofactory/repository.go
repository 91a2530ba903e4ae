package repofactory

import (
	"github.com/rise-and-shine/repokit/repoinfo"
)

// Repository is the built handle for one definition. It is immutable and
// safe for concurrent use.
type Repository struct {
	name string
	info *repoinfo.Information
	def  any
}

// Name returns the repository name used in logs and invocation records.
func (r *Repository) Name() string { return r.name }

// Information returns the method classification the build produced.
func (r *Repository) Information() *repoinfo.Information { return r.info }

// Definition returns the filled definition as the pointer given to the
// factory.
func (r *Repository) Definition() any { return r.def }
