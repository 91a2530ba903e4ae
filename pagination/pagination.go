// Package pagination provides page-based request and result types shared by
// repository list operations.
package pagination

import (
	"github.com/rise-and-shine/repokit/sorter"
)

// Request describes which slice of a result set the caller wants, using
// 1-based page numbers. An optional sort order is applied before slicing.
type Request struct {
	PageNumber int             `query:"page_number" json:"page_number"`
	PageSize   int             `query:"page_size" json:"page_size"`
	Sort       sorter.SortOpts `json:"sort,omitempty"`
}

// Normalize applies defaults and constraints.
func (r *Request) Normalize(opts ...Option) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	if r.PageNumber <= 0 {
		r.PageNumber = 1
	}
	if r.PageSize <= 0 {
		r.PageSize = o.DefaultPageSize
	}
	if r.PageSize > o.MaxPageSize {
		r.PageSize = o.MaxPageSize
	}
}

// Offset returns the number of items to skip to reach the requested page.
func (r *Request) Offset() int {
	return (r.PageNumber - 1) * r.PageSize
}

// Limit returns the maximum number of items on the requested page.
func (r *Request) Limit() int {
	return r.PageSize
}
