package cfgloader

const defaultDir = "./config"

// Options holds the load behavior knobs.
type Options struct {
	// Dir is the directory holding the ${ENVIRONMENT}.yaml files.
	Dir string

	// Silent disables logging the loaded config.
	Silent bool
}

// Option configures Load and MustLoad.
type Option func(*Options)

// WithDir overrides the config directory. The default is ./config relative
// to the working directory.
func WithDir(dir string) Option {
	return func(o *Options) {
		o.Dir = dir
	}
}

// WithSilent disables logging the loaded config.
func WithSilent() Option {
	return func(o *Options) {
		o.Silent = true
	}
}

func buildOptions(opts []Option) Options {
	o := Options{Dir: defaultDir}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
