// Package inmem provides a concurrency-safe in-memory store that backs the
// base repository contract. Entities are kept as value copies keyed by id,
// with a monotonic sequence preserving insertion order for deterministic
// listing. Integer ids auto-increment; string and uuid ids are generated
// through the entity information.
package inmem

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"sync/atomic"

	"github.com/code19m/errx"
	"github.com/creasty/defaults"
	"github.com/puzpuzpuz/xsync/v3"

	"github.com/rise-and-shine/repokit/entity"
	"github.com/rise-and-shine/repokit/logger"
	"github.com/rise-and-shine/repokit/val"
)

type record[T any] struct {
	val T
	seq uint64
}

// Store keeps entities of type T keyed by ID. It is safe for concurrent use.
type Store[T any, ID comparable] struct {
	cfg     Config
	log     logger.Logger
	info    entity.Information[T, ID]
	auditor Auditor[T]

	data    *xsync.MapOf[ID, record[T]]
	seq     atomic.Uint64
	nextInt atomic.Int64
	intID   bool
}

// New builds a store, applying config defaults and validation.
func New[T any, ID comparable](cfg Config, opts ...Option[T, ID]) (*Store[T, ID], error) {
	if err := defaults.Set(&cfg); err != nil {
		return nil, errx.Wrap(err)
	}
	if err := val.ValidateSchema(cfg); err != nil {
		return nil, err
	}

	s := &Store[T, ID]{cfg: cfg}
	for _, opt := range opts {
		opt(s)
	}

	if s.info == nil {
		info, err := entity.NewReflective[T, ID]()
		if err != nil {
			return nil, err
		}
		s.info = info
	}
	if s.log == nil {
		s.log = logger.NewNoop()
	}

	mapOpts := []func(*xsync.MapConfig){}
	if cfg.InitialCapacity > 0 {
		mapOpts = append(mapOpts, xsync.WithPresize(cfg.InitialCapacity))
	}
	if cfg.GrowOnly {
		mapOpts = append(mapOpts, xsync.WithGrowOnly())
	}
	s.data = xsync.NewMapOf[ID, record[T]](mapOpts...)

	switch s.info.IDType().Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		s.intID = true
	default:
	}

	return s, nil
}

// EntityInformation exposes the entity introspection the store was built
// with, so adapters can share it.
func (s *Store[T, ID]) EntityInformation() entity.Information[T, ID] { return s.info }

// Save inserts or updates one entity. New entities get an id assigned; the
// given entity is mutated in place and also returned.
func (s *Store[T, ID]) Save(ctx context.Context, e *T) (*T, error) {
	if e == nil {
		return nil, s.nilEntityErr("save")
	}

	id, hasID := s.info.ID(e)
	if !hasID {
		assigned, err := s.assignID(e)
		if err != nil {
			return nil, err
		}
		id = assigned
	} else {
		s.raiseIntWatermark(id)
	}

	if s.auditor != nil {
		if hasID {
			s.auditor.MarkModified(ctx, e)
		} else {
			s.auditor.MarkCreated(ctx, e)
		}
	}

	var full bool
	s.data.Compute(id, func(old record[T], loaded bool) (record[T], bool) {
		if !loaded {
			if s.cfg.MaxEntries > 0 && s.data.Size() >= s.cfg.MaxEntries {
				full = true
				return old, true
			}
			return record[T]{val: *e, seq: s.seq.Add(1)}, false
		}
		return record[T]{val: *e, seq: old.seq}, false
	})
	if full {
		return nil, errx.New(
			fmt.Sprintf("store for %s is full", s.info.Name()),
			errx.WithCode(CodeStoreFull),
			errx.WithType(errx.T_Throttling),
			errx.WithDetails(errx.D{"max_entries": s.cfg.MaxEntries}),
		)
	}

	s.log.Debugw("entity saved", "entity", s.info.Name(), "id", id, "insert", !hasID)
	return e, nil
}

// SaveAll saves every entity in order. It stops at the first failure.
func (s *Store[T, ID]) SaveAll(ctx context.Context, es []*T) ([]*T, error) {
	for i, e := range es {
		if e == nil {
			return nil, errx.New(
				fmt.Sprintf("nil %s in batch", s.info.Name()),
				errx.WithCode(CodeNilEntity),
				errx.WithType(errx.T_Validation),
				errx.WithDetails(errx.D{"index": i}),
			)
		}
		if _, err := s.Save(ctx, e); err != nil {
			return nil, err
		}
	}
	return es, nil
}

// FindByID returns a copy of the entity stored under id.
func (s *Store[T, ID]) FindByID(_ context.Context, id ID) (*T, error) {
	rec, ok := s.data.Load(id)
	if !ok {
		return nil, s.notFoundErr(id)
	}
	e := rec.val
	return &e, nil
}

// FindAll returns all entities in insertion order.
func (s *Store[T, ID]) FindAll(_ context.Context) ([]T, error) {
	return s.snapshot(), nil
}

// ExistsByID reports whether an entity is stored under id.
func (s *Store[T, ID]) ExistsByID(_ context.Context, id ID) (bool, error) {
	_, ok := s.data.Load(id)
	return ok, nil
}

// Count returns the number of stored entities.
func (s *Store[T, ID]) Count(_ context.Context) (int64, error) {
	return int64(s.data.Size()), nil
}

// DeleteByID removes the entity stored under id. Absent ids are ignored.
func (s *Store[T, ID]) DeleteByID(_ context.Context, id ID) error {
	if _, loaded := s.data.LoadAndDelete(id); loaded {
		s.log.Debugw("entity deleted", "entity", s.info.Name(), "id", id)
	}
	return nil
}

// Delete removes the given entity by its id. Entities that were never
// saved are ignored.
func (s *Store[T, ID]) Delete(ctx context.Context, e *T) error {
	if e == nil {
		return s.nilEntityErr("delete")
	}
	id, ok := s.info.ID(e)
	if !ok {
		return nil
	}
	return s.DeleteByID(ctx, id)
}

// DeleteAllByID removes every entity stored under the given ids.
func (s *Store[T, ID]) DeleteAllByID(ctx context.Context, ids []ID) error {
	for _, id := range ids {
		if err := s.DeleteByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// DeleteAll removes every stored entity.
func (s *Store[T, ID]) DeleteAll(_ context.Context) error {
	s.data.Clear()
	s.log.Debugw("store cleared", "entity", s.info.Name())
	return nil
}

// snapshot copies the live records sorted by insertion sequence.
func (s *Store[T, ID]) snapshot() []T {
	recs := make([]record[T], 0, s.data.Size())
	s.data.Range(func(_ ID, rec record[T]) bool {
		recs = append(recs, rec)
		return true
	})
	sort.Slice(recs, func(i, j int) bool { return recs[i].seq < recs[j].seq })

	out := make([]T, len(recs))
	for i, rec := range recs {
		out[i] = rec.val
	}
	return out
}

func (s *Store[T, ID]) assignID(e *T) (ID, error) {
	if id, ok := s.info.GenerateID(); ok {
		if err := s.info.SetID(e, id); err != nil {
			return id, err
		}
		return id, nil
	}

	if s.intID {
		id := s.nextIntID()
		if err := s.info.SetID(e, id); err != nil {
			return id, err
		}
		return id, nil
	}

	var zero ID
	return zero, errx.New(
		fmt.Sprintf("cannot assign id for %s", s.info.Name()),
		errx.WithCode(CodeIDGeneration),
		errx.WithType(errx.T_Internal),
		errx.WithDetails(errx.D{"id_type": s.info.IDType().String()}),
	)
}

func (s *Store[T, ID]) nextIntID() ID {
	n := s.nextInt.Add(1)
	v := reflect.ValueOf(n).Convert(s.info.IDType())
	return v.Interface().(ID)
}

// raiseIntWatermark keeps the auto-increment counter above every explicit
// integer id, so later generated ids never collide.
func (s *Store[T, ID]) raiseIntWatermark(id ID) {
	if !s.intID {
		return
	}
	var n int64
	v := reflect.ValueOf(id)
	if v.CanInt() {
		n = v.Int()
	} else if v.CanUint() {
		n = int64(v.Uint())
	}
	for {
		cur := s.nextInt.Load()
		if cur >= n || s.nextInt.CompareAndSwap(cur, n) {
			return
		}
	}
}

func (s *Store[T, ID]) notFoundErr(id ID) error {
	return errx.New(
		fmt.Sprintf("no %s found", s.info.Name()),
		errx.WithCode(CodeObjectNotFound),
		errx.WithType(errx.T_NotFound),
		errx.WithDetails(errx.D{"id": fmt.Sprintf("%v", id)}),
	)
}

func (s *Store[T, ID]) nilEntityErr(op string) error {
	return errx.New(
		fmt.Sprintf("nil %s given to %s", s.info.Name(), op),
		errx.WithCode(CodeNilEntity),
		errx.WithType(errx.T_Validation),
	)
}
