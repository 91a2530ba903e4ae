// Package future provides a single-value asynchronous result container.
//
// Repository methods declare a future result when execution is handed off to
// another goroutine. The caller awaits, polls or subscribes for completion.
// A future completes exactly once; later completions are ignored.
package future

import (
	"context"
	"reflect"
	"sync"
)

// Future holds a value of type T that may not be available yet.
type Future[T any] struct {
	st *state
}

type state struct {
	mu   sync.Mutex
	done chan struct{}
	val  any
	err  error
	subs []func(v any, err error)
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{st: &state{done: make(chan struct{})}}
}

// Completed returns an already-completed future holding v.
func Completed[T any](v T) *Future[T] {
	f := newFuture[T]()
	f.st.complete(v, nil)
	return f
}

// Failed returns an already-completed future holding err.
func Failed[T any](err error) *Future[T] {
	f := newFuture[T]()
	var zero T
	f.st.complete(zero, err)
	return f
}

// Go runs fn in a new goroutine and returns a future completed with its
// result.
func Go[T any](fn func() (T, error)) *Future[T] {
	f := newFuture[T]()
	go func() {
		v, err := fn()
		f.st.complete(v, err)
	}()
	return f
}

// Deferred returns an incomplete future and the function that completes it.
// Completing more than once is a no-op.
func Deferred[T any]() (*Future[T], func(v T, err error)) {
	f := newFuture[T]()
	return f, func(v T, err error) {
		f.st.complete(v, err)
	}
}

func (s *state) complete(v any, err error) {
	s.mu.Lock()
	select {
	case <-s.done:
		s.mu.Unlock()
		return
	default:
	}
	s.val = v
	s.err = err
	subs := s.subs
	s.subs = nil
	close(s.done)
	s.mu.Unlock()

	for _, fn := range subs {
		fn(v, err)
	}
}

// Await blocks until the future completes or ctx is done.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	var zero T
	select {
	case <-f.st.done:
		if f.st.err != nil {
			return zero, f.st.err
		}
		return f.st.val.(T), nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Done returns a channel closed on completion.
func (f *Future[T]) Done() <-chan struct{} {
	return f.st.done
}

// Peek returns the result without blocking. done is false while the future
// is still pending.
func (f *Future[T]) Peek() (v T, done bool, err error) {
	var zero T
	select {
	case <-f.st.done:
		if f.st.err != nil {
			return zero, true, f.st.err
		}
		return f.st.val.(T), true, nil
	default:
		return zero, false, nil
	}
}

// Subscribe registers fn to run exactly once on completion. When the future
// is already complete, fn runs immediately on the calling goroutine.
// Part of the container contract.
func (f *Future[T]) Subscribe(fn func(v any, err error)) {
	f.st.mu.Lock()
	select {
	case <-f.st.done:
		v, err := f.st.val, f.st.err
		f.st.mu.Unlock()
		fn(v, err)
		return
	default:
	}
	f.st.subs = append(f.st.subs, fn)
	f.st.mu.Unlock()
}

// Result blocks until completion and returns the value untyped.
// Part of the container contract.
func (f *Future[T]) Result(ctx context.Context) (any, error) {
	v, err := f.Await(ctx)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// ElementType returns the type of T. Part of the container contract; safe
// on a nil receiver.
func (*Future[T]) ElementType() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// WrapValue builds a completed future holding v; a nil v completes with the
// zero value. v must be assignable to T. Part of the container contract;
// safe on a nil receiver.
func (*Future[T]) WrapValue(v any) any {
	if v == nil {
		var zero T
		return Completed(zero)
	}
	return Completed(v.(T))
}

// WrapSubscription builds a future completed by subscribe, converting the
// produced value first. Part of the container contract; safe on a nil
// receiver.
func (*Future[T]) WrapSubscription(
	subscribe func(fn func(v any, err error)),
	convert func(v any) (any, error),
) any {
	out, complete := Deferred[T]()
	subscribe(func(v any, err error) {
		var zero T
		if err != nil {
			complete(zero, err)
			return
		}
		cv := v
		if convert != nil {
			cv, err = convert(v)
			if err != nil {
				complete(zero, err)
				return
			}
		}
		if cv == nil {
			complete(zero, nil)
			return
		}
		complete(cv.(T), nil)
	})
	return out
}
