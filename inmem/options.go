package inmem

import (
	"context"

	"github.com/rise-and-shine/repokit/entity"
	"github.com/rise-and-shine/repokit/logger"
)

// Auditor stamps audit metadata on entities as the store saves them.
type Auditor[T any] interface {
	MarkCreated(ctx context.Context, e *T)
	MarkModified(ctx context.Context, e *T)
}

// Option configures a Store.
type Option[T any, ID comparable] func(*Store[T, ID])

// WithLogger attaches a logger; the store logs writes at debug level.
func WithLogger[T any, ID comparable](log logger.Logger) Option[T, ID] {
	return func(s *Store[T, ID]) { s.log = log }
}

// WithEntityInformation overrides the reflective entity introspection.
func WithEntityInformation[T any, ID comparable](info entity.Information[T, ID]) Option[T, ID] {
	return func(s *Store[T, ID]) { s.info = info }
}

// WithAuditor stamps created/modified metadata on save.
func WithAuditor[T any, ID comparable](a Auditor[T]) Option[T, ID] {
	return func(s *Store[T, ID]) { s.auditor = a }
}
