package inmem

// Config defines the tuning options of an in-memory store.
type Config struct {
	// InitialCapacity presizes the backing map.
	InitialCapacity int `yaml:"initial_capacity" default:"64" validate:"gte=0"`

	// MaxEntries caps the number of stored entities. Zero means unbounded.
	MaxEntries int `yaml:"max_entries" default:"0" validate:"gte=0"`

	// GrowOnly keeps the backing map from shrinking after deletions, which
	// trades memory for steadier write latency.
	GrowOnly bool `yaml:"grow_only" default:"false"`
}
