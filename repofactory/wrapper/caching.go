package wrapper

import (
	"context"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/code19m/errx"
	"github.com/creasty/defaults"
	"github.com/viccon/sturdyc"

	"github.com/rise-and-shine/repokit/repofactory"
	"github.com/rise-and-shine/repokit/repometa"
	"github.com/rise-and-shine/repokit/val"
	"github.com/rise-and-shine/repokit/wrap"
)

// CacheConfig controls the read-through cache decorator.
type CacheConfig struct {
	// Capacity caps the number of cached entries.
	Capacity int `yaml:"capacity" default:"10000" validate:"min=1"`

	// NumShards spreads entries across shards for concurrent access.
	NumShards int `yaml:"num_shards" default:"64" validate:"min=1"`

	// TTL expires entries after this duration.
	TTL time.Duration `yaml:"ttl" default:"5m"`

	// EvictionPercentage is the share of entries evicted at capacity.
	EvictionPercentage int `yaml:"eviction_percentage" default:"10" validate:"min=1,max=100"`

	// MutatingPrefixes classify methods that invalidate their repository's
	// cached reads, matched by method name prefix. Empty means the default
	// write vocabulary.
	MutatingPrefixes []string `yaml:"mutating_prefixes"`
}

var defaultMutatingPrefixes = []string{
	"Save", "Create", "Insert", "Upsert", "Update", "Delete", "Remove",
}

// CachingDecorator serves tagged read methods from an in-process cache and
// drops a repository's entries whenever one of its mutating methods
// succeeds.
//
// Only methods tagged `repo:"cached"` whose results materialize are cached;
// stream and future results pass through untouched. Keys are scoped by
// repository name, so invalidation never crosses repositories.
type CachingDecorator struct {
	cfg    CacheConfig
	client *sturdyc.Client[any]
	ser    KeySerializer
	reg    *wrap.Registry
}

// NewCachingDecorator builds a caching decorator, applying config defaults.
// reg classifies declared result types; pass the factory's registry so
// custom container adapters are honored. A nil reg falls back to the
// built-in adapters, a nil ser to the default serializer.
func NewCachingDecorator(cfg CacheConfig, reg *wrap.Registry, ser KeySerializer) (*CachingDecorator, error) {
	if err := defaults.Set(&cfg); err != nil {
		return nil, errx.Wrap(err)
	}
	if err := val.ValidateSchema(cfg); err != nil {
		return nil, err
	}
	if len(cfg.MutatingPrefixes) == 0 {
		cfg.MutatingPrefixes = slices.Clone(defaultMutatingPrefixes)
	}
	if reg == nil {
		reg = wrap.NewRegistry()
	}
	if ser == nil {
		ser = NewDefaultKeySerializer()
	}

	client := sturdyc.New[any](cfg.Capacity, cfg.NumShards, cfg.TTL, cfg.EvictionPercentage)

	return &CachingDecorator{cfg: cfg, client: client, ser: ser, reg: reg}, nil
}

func (d *CachingDecorator) Decorate(repository string, m repometa.Method, next repofactory.CallFunc) repofactory.CallFunc {
	if d.mutating(m.Name) {
		return func(ctx context.Context, args []any) (any, error) {
			out, err := next(ctx, args)
			if err == nil {
				d.invalidate(repository)
			}
			return out, err
		}
	}

	if !m.Tag.Cached || !d.cacheable(m.Type) {
		return next
	}

	prefix := repository + "." + m.Name
	return func(ctx context.Context, args []any) (any, error) {
		key := d.ser.SerializeKey(prefix, args...)
		return d.client.GetOrFetch(ctx, key, func(fctx context.Context) (any, error) {
			return next(fctx, args)
		})
	}
}

func (d *CachingDecorator) mutating(name string) bool {
	for _, p := range d.cfg.MutatingPrefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

// cacheable reports whether the declared result materializes. Streams are
// single-consumption and futures resolve per call, so neither can be
// replayed from a cache.
func (d *CachingDecorator) cacheable(mt reflect.Type) bool {
	var declared reflect.Type
	for i := range mt.NumOut() {
		if mt.Out(i) != errType {
			declared = mt.Out(i)
			break
		}
	}
	if declared == nil {
		return false
	}
	if info, ok := d.reg.Lookup(declared); ok {
		return info.Shape != wrap.ShapeStream && info.Shape != wrap.ShapeAsync
	}
	return true
}

// invalidate drops every cached entry of one repository.
func (d *CachingDecorator) invalidate(repository string) {
	prefix := repository + "."
	for _, key := range d.client.ScanKeys() {
		if strings.HasPrefix(key, prefix) {
			d.client.Delete(key)
		}
	}
}

var errType = reflect.TypeOf((*error)(nil)).Elem()
