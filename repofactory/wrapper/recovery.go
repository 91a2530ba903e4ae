package wrapper

import (
	"context"
	"fmt"
	"runtime"

	"github.com/code19m/errx"

	"github.com/rise-and-shine/repokit/logger"
	"github.com/rise-and-shine/repokit/repofactory"
	"github.com/rise-and-shine/repokit/repometa"
)

// RecoveryDecorator converts panics escaping a repository call into errors,
// so a misbehaving fragment cannot take the process down.
type RecoveryDecorator struct {
	log logger.Logger
}

// NewRecoveryDecorator builds a recovery decorator logging through log.
func NewRecoveryDecorator(log logger.Logger) *RecoveryDecorator {
	return &RecoveryDecorator{log: log.Named("repository.recovery")}
}

func (d *RecoveryDecorator) Decorate(repository string, m repometa.Method, next repofactory.CallFunc) repofactory.CallFunc {
	log := d.log.With("repository", repository, "method", m.Name)

	return func(ctx context.Context, args []any) (out any, err error) {
		defer func() {
			if r := recover(); r != nil {
				stackTrace := make([]byte, 4096) // 4KB
				stackTrace = stackTrace[:runtime.Stack(stackTrace, false)]

				log.WithContext(ctx).
					With("stack_trace", string(stackTrace)).
					With("panic_values", fmt.Sprintf("%v", r)).
					Error("panic recovered in repository call")

				out = nil
				err = errx.New("panic recovered in repository call", errx.WithDetails(errx.D{
					"stack_trace":  string(stackTrace),
					"panic_values": fmt.Sprintf("%v", r),
				}))
			}
		}()

		return next(ctx, args)
	}
}
