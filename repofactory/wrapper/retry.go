package wrapper

import (
	"context"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/code19m/errx"
	"github.com/creasty/defaults"

	"github.com/rise-and-shine/repokit/logger"
	"github.com/rise-and-shine/repokit/repofactory"
	"github.com/rise-and-shine/repokit/repometa"
	"github.com/rise-and-shine/repokit/val"
)

// RetryConfig controls the retry decorator.
type RetryConfig struct {
	// Attempts is the total number of tries per invocation.
	Attempts uint `yaml:"attempts" default:"3" validate:"min=1"`

	// Delay is the base delay between tries.
	Delay time.Duration `yaml:"delay" default:"100ms"`

	// MaxJitter is added on top of the delay to spread repeated tries.
	MaxJitter time.Duration `yaml:"max_jitter" default:"50ms"`
}

// RetryDecorator re-runs failed invocations with backoff and jitter.
// Validation, not-found and conflict failures repeat deterministically and
// are not retried. Each try counts as its own invocation for listeners.
type RetryDecorator struct {
	cfg RetryConfig
	log logger.Logger
}

// NewRetryDecorator builds a retry decorator, applying config defaults.
func NewRetryDecorator(cfg RetryConfig, log logger.Logger) (*RetryDecorator, error) {
	if err := defaults.Set(&cfg); err != nil {
		return nil, errx.Wrap(err)
	}
	if err := val.ValidateSchema(cfg); err != nil {
		return nil, err
	}

	return &RetryDecorator{cfg: cfg, log: log.Named("repository.retry")}, nil
}

func (d *RetryDecorator) Decorate(repository string, m repometa.Method, next repofactory.CallFunc) repofactory.CallFunc {
	log := d.log.With("repository", repository, "method", m.Name)

	return func(ctx context.Context, args []any) (any, error) {
		return retry.DoWithData(
			func() (any, error) {
				return next(ctx, args)
			},
			retry.Attempts(d.cfg.Attempts),
			retry.Delay(d.cfg.Delay),
			retry.MaxJitter(d.cfg.MaxJitter),
			retry.LastErrorOnly(true),
			retry.RetryIf(retryable),
			retry.OnRetry(func(n uint, err error) {
				log.With("error", errObject(err)).
					With("attempt", n+1).
					With("max_attempts", d.cfg.Attempts).
					Warn("retrying repository call")
			}),
			retry.Context(ctx),
		)
	}
}

// retryable filters out failures that would repeat identically.
func retryable(err error) bool {
	switch errx.GetType(err) {
	case errx.T_Validation, errx.T_NotFound, errx.T_Conflict:
		return false
	default:
		return true
	}
}
