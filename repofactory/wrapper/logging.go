package wrapper

import (
	"context"
	"time"

	"github.com/code19m/errx"

	"github.com/rise-and-shine/repokit/logger"
	"github.com/rise-and-shine/repokit/mask"
	"github.com/rise-and-shine/repokit/repofactory"
	"github.com/rise-and-shine/repokit/repometa"
)

// LoggingDecorator logs every repository invocation with its duration.
// Successful calls log at debug level, failures at error level with the
// full error object.
type LoggingDecorator struct {
	log     logger.Logger
	logArgs bool
}

// LoggingOption configures a LoggingDecorator.
type LoggingOption func(*LoggingDecorator)

// WithCallArgs includes the call arguments in every log entry. Entity
// arguments are flattened with fields tagged `mask:"true"` redacted.
func WithCallArgs() LoggingOption {
	return func(d *LoggingDecorator) {
		d.logArgs = true
	}
}

// NewLoggingDecorator builds a logging decorator on top of log.
func NewLoggingDecorator(log logger.Logger, opts ...LoggingOption) *LoggingDecorator {
	d := &LoggingDecorator{log: log.Named("repository.logger")}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *LoggingDecorator) Decorate(repository string, m repometa.Method, next repofactory.CallFunc) repofactory.CallFunc {
	log := d.log.With("repository", repository, "method", m.Name)

	return func(ctx context.Context, args []any) (any, error) {
		start := time.Now()

		out, err := next(ctx, args)

		duration := time.Since(start)

		l := log.WithContext(ctx).With("duration", duration.String())
		if d.logArgs {
			l = l.With("args", mask.Args(args))
		}
		if err != nil {
			l.With("error", errObject(err)).Errorw("repository call failed")
			return out, err
		}
		l.Debugw("repository call")
		return out, nil
	}
}

// errObject flattens an error into structured log fields.
func errObject(err error) any {
	e := errx.AsErrorX(err)
	return map[string]any{
		"code":    e.Code(),
		"message": e.Error(),
		"type":    e.Type().String(),
		"trace":   e.Trace(),
		"fields":  e.Fields(),
		"details": e.Details(),
	}
}
