package pagination

import (
	"fmt"
	"reflect"

	"github.com/samber/lo"
)

// Page is one slice of a larger result set together with paging metadata.
type Page[T any] struct {
	PageNumber int   `json:"page_number"`
	PageSize   int   `json:"page_size"`
	PageCount  int   `json:"page_count"`
	TotalCount int64 `json:"total_count"`
	Content    []T   `json:"content"`
}

// NewPage creates a page from items and the total count of the full result set.
func NewPage[T any](items []T, totalCount int64, req Request) Page[T] {
	size := req.PageSize
	if size <= 0 {
		size = max(len(items), 1)
	}
	number := req.PageNumber
	if number <= 0 {
		number = 1
	}

	pageCount := int(totalCount) / size
	if int(totalCount)%size > 0 {
		pageCount++
	}

	return Page[T]{
		PageNumber: number,
		PageSize:   size,
		PageCount:  pageCount,
		TotalCount: totalCount,
		Content:    items,
	}
}

// HasNext reports whether pages remain after this one.
func (p Page[T]) HasNext() bool {
	return p.PageNumber < p.PageCount
}

// HasPrev reports whether this is not the first page.
func (p Page[T]) HasPrev() bool {
	return p.PageNumber > 1
}

// String returns a short summary of the page position.
func (p Page[T]) String() string {
	return fmt.Sprintf("page %d of %d (total: %d, size: %d)", p.PageNumber, p.PageCount, p.TotalCount, p.PageSize)
}

// MapPage converts page content with fn while keeping the paging metadata.
func MapPage[T, U any](p Page[T], fn func(T) U) Page[U] {
	return Page[U]{
		PageNumber: p.PageNumber,
		PageSize:   p.PageSize,
		PageCount:  p.PageCount,
		TotalCount: p.TotalCount,
		Content:    lo.Map(p.Content, func(item T, _ int) U { return fn(item) }),
	}
}

// ElementType reports the page content element type.
func (Page[T]) ElementType() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// WrapSlice builds a single page holding every given item.
func (Page[T]) WrapSlice(items any) any {
	content, _ := items.([]T)
	return NewPage(content, int64(len(content)), Request{PageNumber: 1, PageSize: max(len(content), 1)})
}

// UnwrapSlice returns the page content.
func (p Page[T]) UnwrapSlice() any {
	return p.Content
}
