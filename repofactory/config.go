package repofactory

import (
	"github.com/rise-and-shine/repokit/inmem"
)

// Config controls factory-wide behavior.
type Config struct {
	// DisableNilChecks turns off the nil guard on non-nullable parameters.
	// Arguments then reach fragments and queries unchecked.
	DisableNilChecks bool `yaml:"disable_nil_checks"`

	// Store configures the in-memory bases built for contract embeds that
	// provide their own default implementation.
	Store inmem.Config `yaml:"store"`
}
