// Package alerting forwards failed repository invocations to an alert
// provider with per call-site cooldown, so a failing hot path does not
// flood the channel.
package alerting

import (
	"context"
	"time"

	"github.com/code19m/errx"
	"github.com/creasty/defaults"
	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v3"

	"github.com/rise-and-shine/repokit/alert"
	"github.com/rise-and-shine/repokit/logger"
	"github.com/rise-and-shine/repokit/repofactory"
	"github.com/rise-and-shine/repokit/val"
)

// Config controls alert dispatch.
type Config struct {
	// Cooldown is the minimum interval between alerts for the same
	// repository and method.
	Cooldown time.Duration `yaml:"cooldown" default:"5m"`

	// SendTimeout bounds one provider call.
	SendTimeout time.Duration `yaml:"send_timeout" default:"3s"`
}

// Listener sends an alert for every errored invocation, at most once per
// cooldown window per call site. Canceled invocations never alert. Sending
// happens on a separate goroutine and never blocks the caller.
type Listener struct {
	cfg      Config
	provider alert.Provider
	log      logger.Logger
	lastSent *xsync.MapOf[string, time.Time]
}

// NewListener builds a listener delivering through provider, applying
// config defaults. A nil log falls back to the noop logger.
func NewListener(cfg Config, provider alert.Provider, log logger.Logger) (*Listener, error) {
	if err := defaults.Set(&cfg); err != nil {
		return nil, errx.Wrap(err)
	}
	if err := val.ValidateSchema(cfg); err != nil {
		return nil, err
	}
	if provider == nil {
		return nil, errx.New("alert provider is required", errx.WithType(errx.T_Validation))
	}
	if log == nil {
		log = logger.NewNoop()
	}

	return &Listener{
		cfg:      cfg,
		provider: provider,
		log:      log.Named("repository.alerting"),
		lastSent: xsync.NewMapOf[string, time.Time](),
	}, nil
}

// AfterInvocation implements repofactory.InvocationListener.
func (l *Listener) AfterInvocation(iv repofactory.Invocation) {
	if iv.State != repofactory.StateError || iv.Err == nil {
		return
	}

	operation := iv.Repository + "." + iv.Method
	if !l.admit(operation) {
		return
	}

	e := errx.AsErrorX(iv.Err)
	details := map[string]string{
		"event_id":   uuid.NewString(),
		"repository": iv.Repository,
		"method":     iv.Method,
		"duration":   iv.Duration.String(),
		"trace":      e.Trace(),
	}

	go l.send(operation, e.Code(), iv.Err.Error(), details)
}

// admit applies the cooldown window atomically per call site.
func (l *Listener) admit(operation string) bool {
	now := time.Now()
	allowed := false
	l.lastSent.Compute(operation, func(last time.Time, loaded bool) (time.Time, bool) {
		if loaded && now.Sub(last) < l.cfg.Cooldown {
			return last, false
		}
		allowed = true
		return now, false
	})
	return allowed
}

func (l *Listener) send(operation, code, msg string, details map[string]string) {
	ctx, cancel := context.WithTimeout(context.Background(), l.cfg.SendTimeout)
	defer cancel()

	if err := l.provider.SendError(ctx, code, msg, operation, details); err != nil {
		l.log.With("send_error", err.Error()).Warnw("failed to send error alert", "operation", operation)
	}
}
