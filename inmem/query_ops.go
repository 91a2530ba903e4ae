package inmem

import (
	"context"
	"fmt"

	"github.com/code19m/errx"
	"github.com/samber/lo"

	"github.com/rise-and-shine/repokit/pagination"
	"github.com/rise-and-shine/repokit/qbe"
	"github.com/rise-and-shine/repokit/sorter"
	"github.com/rise-and-shine/repokit/streams"
)

// FindAllSorted returns all entities ordered by the given sort options.
func (s *Store[T, ID]) FindAllSorted(_ context.Context, so sorter.SortOpts) ([]T, error) {
	items := s.snapshot()
	if err := sorter.Apply(items, so); err != nil {
		return nil, err
	}
	return items, nil
}

// FindPage returns one page of entities. The request is normalized first,
// so zero values fall back to the first page with the default size.
func (s *Store[T, ID]) FindPage(_ context.Context, req pagination.Request) (pagination.Page[T], error) {
	req.Normalize()

	items := s.snapshot()
	if err := sorter.Apply(items, req.Sort); err != nil {
		return pagination.Page[T]{}, err
	}

	total := int64(len(items))
	start := min(req.Offset(), len(items))
	end := min(start+req.Limit(), len(items))

	return pagination.NewPage(items[start:end], total, req), nil
}

// FindOneByExample returns the single entity matching the example.
func (s *Store[T, ID]) FindOneByExample(_ context.Context, ex qbe.Example[T]) (*T, error) {
	matched := s.filter(ex)
	switch len(matched) {
	case 0:
		return nil, errx.New(
			fmt.Sprintf("no %s found", s.info.Name()),
			errx.WithCode(CodeObjectNotFound),
			errx.WithType(errx.T_NotFound),
		)
	case 1:
		return &matched[0], nil
	default:
		return nil, errx.New(
			fmt.Sprintf("multiple %s found", s.info.Name()),
			errx.WithCode(CodeMultipleRowsFound),
			errx.WithType(errx.T_Conflict),
			errx.WithDetails(errx.D{"matched": len(matched)}),
		)
	}
}

// FindByExample returns every entity matching the example, ordered by the
// given sort options.
func (s *Store[T, ID]) FindByExample(_ context.Context, ex qbe.Example[T], so sorter.SortOpts) ([]T, error) {
	matched := s.filter(ex)
	if err := sorter.Apply(matched, so); err != nil {
		return nil, err
	}
	return matched, nil
}

// CountByExample returns the number of entities matching the example.
func (s *Store[T, ID]) CountByExample(_ context.Context, ex qbe.Example[T]) (int64, error) {
	return int64(len(s.filter(ex))), nil
}

// ExistsByExample reports whether any entity matches the example.
func (s *Store[T, ID]) ExistsByExample(_ context.Context, ex qbe.Example[T]) (bool, error) {
	for _, item := range s.snapshot() {
		if ex.Matches(item) {
			return true, nil
		}
	}
	return false, nil
}

// StreamAll streams a point-in-time snapshot in insertion order. Writes
// after the call do not show up in the stream.
func (s *Store[T, ID]) StreamAll(_ context.Context) (*streams.Stream[T], error) {
	return streams.FromSlice(s.snapshot()), nil
}

// StreamByExample streams the snapshot entities matching the example.
func (s *Store[T, ID]) StreamByExample(_ context.Context, ex qbe.Example[T]) (*streams.Stream[T], error) {
	return streams.FromSlice(s.filter(ex)), nil
}

func (s *Store[T, ID]) filter(ex qbe.Example[T]) []T {
	return lo.Filter(s.snapshot(), func(item T, _ int) bool {
		return ex.Matches(item)
	})
}
