package repofactory

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rise-and-shine/repokit/wrap"
)

// InvocationState is the terminal outcome of one logical invocation.
type InvocationState int8

const (
	// StateSuccess marks a completed invocation.
	StateSuccess InvocationState = iota + 1

	// StateError marks a failed invocation; the error is attached.
	StateError

	// StateCanceled marks an invocation ended early: a canceled context, a
	// closed stream or a consumer that stopped before exhaustion.
	StateCanceled
)

func (s InvocationState) String() string {
	switch s {
	case StateSuccess:
		return "success"
	case StateError:
		return "error"
	case StateCanceled:
		return "canceled"
	}
	return "unknown"
}

// Invocation is the observability record of one logical repository call.
// For stream results the duration accrues between successive pulls from
// first access until the terminal signal; for futures it spans invocation
// to completion.
type Invocation struct {
	Repository string
	Method     string
	Duration   time.Duration
	State      InvocationState
	Err        error
}

// InvocationListener receives exactly one record per logical invocation.
// Listeners run synchronously on the terminating goroutine; panics
// propagate to the caller.
type InvocationListener interface {
	AfterInvocation(inv Invocation)
}

// ListenerFunc adapts a function to the InvocationListener interface.
type ListenerFunc func(Invocation)

func (f ListenerFunc) AfterInvocation(inv Invocation) { f(inv) }

// invoker notifies the frozen listener set for one method.
type invoker struct {
	repository string
	method     string
	listeners  []InvocationListener
}

func (iv *invoker) begin() *tracker {
	return &tracker{iv: iv, started: time.Now()}
}

func (iv *invoker) notify(inv Invocation) {
	for _, l := range iv.listeners {
		l.AfterInvocation(inv)
	}
}

// tracker accumulates one logical invocation and guarantees a single
// terminal notification.
type tracker struct {
	iv       *invoker
	started  time.Time
	accrued  atomic.Int64
	streamed atomic.Bool
	once     sync.Once
}

func (t *tracker) add(d time.Duration) {
	t.accrued.Add(int64(d))
}

// complete ends the invocation with err deciding the state. A context
// cancellation counts as canceled rather than failed.
func (t *tracker) complete(err error) {
	state := StateSuccess
	if err != nil {
		state = StateError
		if errors.Is(err, context.Canceled) {
			state = StateCanceled
		}
	}
	t.finish(state, err)
}

// abandon ends the invocation as canceled. Calling it after a terminal
// event is a no-op.
func (t *tracker) abandon() {
	t.finish(StateCanceled, nil)
}

func (t *tracker) finish(state InvocationState, err error) {
	t.once.Do(func() {
		d := time.Since(t.started)
		if t.streamed.Load() {
			d = time.Duration(t.accrued.Load())
		}
		t.iv.notify(Invocation{
			Repository: t.iv.repository,
			Method:     t.iv.method,
			Duration:   d,
			State:      state,
			Err:        err,
		})
	})
}

// measuredPuller meters a lazy source: pull latency accrues on the tracker
// and the terminal signal finishes the invocation. Closing before
// exhaustion counts as canceled.
type measuredPuller struct {
	src wrap.Puller
	tr  *tracker
}

func (p *measuredPuller) Pull() (any, bool, error) {
	start := time.Now()
	v, ok, err := p.src.Pull()
	p.tr.add(time.Since(start))

	switch {
	case err != nil:
		p.tr.complete(err)
	case !ok:
		p.tr.complete(nil)
	}
	return v, ok, err
}

func (p *measuredPuller) Close() {
	p.src.Close()
	p.tr.abandon()
}

// slicePuller replays a materialized carrier as a lazy source.
type slicePuller struct {
	items reflect.Value
	i     int
}

func (p *slicePuller) Pull() (any, bool, error) {
	if !p.items.IsValid() || p.i >= p.items.Len() {
		return nil, false, nil
	}
	v := p.items.Index(p.i).Interface()
	p.i++
	return v, true, nil
}

func (p *slicePuller) Close() {}
