// Package crud declares the embeddable repository contracts served by the
// default in-memory base. Embedding CrudOps (or PagingOps) into a definition
// struct brings the domain marker, the base method set, and a provider the
// factory uses to construct the backing store. QueryByExampleOps and
// StreamOps are optional capabilities; they require a base (or a custom
// fragment) whose instance actually implements them.
package crud

import (
	"context"

	"github.com/rise-and-shine/repokit/pagination"
	"github.com/rise-and-shine/repokit/qbe"
	"github.com/rise-and-shine/repokit/repometa"
	"github.com/rise-and-shine/repokit/sorter"
	"github.com/rise-and-shine/repokit/streams"
)

// CrudOps is the base create/read/update/delete contract.
type CrudOps[T any, ID comparable] struct {
	repometa.Of[T, ID]

	Save          func(ctx context.Context, e *T) (*T, error)
	SaveAll       func(ctx context.Context, es []*T) ([]*T, error)
	FindByID      func(ctx context.Context, id ID) (*T, error)
	FindAll       func(ctx context.Context) ([]T, error)
	ExistsByID    func(ctx context.Context, id ID) (bool, error)
	Count         func(ctx context.Context) (int64, error)
	DeleteByID    func(ctx context.Context, id ID) error
	Delete        func(ctx context.Context, e *T) error
	DeleteAllByID func(ctx context.Context, ids []ID) error
	DeleteAll     func(ctx context.Context) error
}

// PagingOps extends the base contract with sorted and paged reads.
type PagingOps[T any, ID comparable] struct {
	CrudOps[T, ID]

	FindAllSorted func(ctx context.Context, so sorter.SortOpts) ([]T, error)
	FindPage      func(ctx context.Context, req pagination.Request) (pagination.Page[T], error)
}

// QueryByExampleOps matches entities against probe instances.
type QueryByExampleOps[T any] struct {
	FindOneByExample func(ctx context.Context, ex qbe.Example[T]) (*T, error)
	FindByExample    func(ctx context.Context, ex qbe.Example[T], so sorter.SortOpts) ([]T, error)
	CountByExample   func(ctx context.Context, ex qbe.Example[T]) (int64, error)
	ExistsByExample  func(ctx context.Context, ex qbe.Example[T]) (bool, error)
}

// StreamOps reads entities as streams over a point-in-time snapshot.
type StreamOps[T any] struct {
	StreamAll       func(ctx context.Context) (*streams.Stream[T], error)
	StreamByExample func(ctx context.Context, ex qbe.Example[T]) (*streams.Stream[T], error)
}
