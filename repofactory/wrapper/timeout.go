package wrapper

import (
	"context"
	"time"

	"github.com/rise-and-shine/repokit/repofactory"
	"github.com/rise-and-shine/repokit/repometa"
)

// TimeoutDecorator bounds every invocation with a deadline. The deadline
// covers the synchronous part of the call; stream and future results keep
// the derived context only until the method returns.
type TimeoutDecorator struct {
	timeout time.Duration
}

// NewTimeoutDecorator builds a timeout decorator with the given deadline.
func NewTimeoutDecorator(timeout time.Duration) *TimeoutDecorator {
	return &TimeoutDecorator{timeout: timeout}
}

func (d *TimeoutDecorator) Decorate(_ string, _ repometa.Method, next repofactory.CallFunc) repofactory.CallFunc {
	return func(ctx context.Context, args []any) (any, error) {
		ctx, cancel := context.WithTimeout(ctx, d.timeout)
		defer cancel()

		return next(ctx, args)
	}
}
