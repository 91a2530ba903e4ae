// Package repometrics exposes repository invocations as prometheus metrics.
package repometrics

import (
	"github.com/code19m/errx"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/rise-and-shine/repokit/repofactory"
)

// Listener counts repository invocations and observes their latency.
// Register it on a factory with repofactory.WithListeners.
type Listener struct {
	total    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewListener builds a listener and registers its collectors on reg. A nil
// reg falls back to the default registerer. Collectors already registered
// are reused, so factories can share one registry.
func NewListener(reg prometheus.Registerer) (*Listener, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	total := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "repository_invocations_total",
		Help: "Repository method invocations by terminal state.",
	}, []string{"repository", "method", "state"})

	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "repository_invocation_duration_seconds",
		Help:    "Repository method invocation latency in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"repository", "method"})

	if err := reg.Register(total); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok { //nolint:errorlint // Register returns the error unwrapped
			total = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, errx.Wrap(err)
		}
	}
	if err := reg.Register(duration); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok { //nolint:errorlint // Register returns the error unwrapped
			duration = are.ExistingCollector.(*prometheus.HistogramVec)
		} else {
			return nil, errx.Wrap(err)
		}
	}

	return &Listener{total: total, duration: duration}, nil
}

// AfterInvocation implements repofactory.InvocationListener.
func (l *Listener) AfterInvocation(iv repofactory.Invocation) {
	l.total.WithLabelValues(iv.Repository, iv.Method, iv.State.String()).Inc()
	l.duration.WithLabelValues(iv.Repository, iv.Method).Observe(iv.Duration.Seconds())
}
