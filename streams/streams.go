// Package streams provides a closeable, lazily pulled sequence of values.
//
// A Stream is the result vocabulary for repository methods that want to
// consume large results incrementally. Streams are single-consumer and
// single-use: once exhausted, closed or failed they stay terminal. Callers
// that stop early must Close the stream so the producing side can release
// its resources.
package streams

import (
	"iter"
	"reflect"
	"sync"

	"github.com/rise-and-shine/repokit/wrap"
)

// Hooks observe the lifecycle of a stream. All callbacks are optional.
// OnTerminal fires exactly once, whether the stream was exhausted, failed
// or closed early.
type Hooks struct {
	// BeforePull runs before each pull from the source.
	BeforePull func()
	// AfterPull runs after each pull with whether a value was produced.
	AfterPull func(pulled bool, err error)
	// OnTerminal runs once at the end. completed is true only when the
	// source was fully drained without error.
	OnTerminal func(completed bool, err error)
}

// Stream is a pull-based sequence of T values.
// It is not safe for concurrent use.
type Stream[T any] struct {
	next  func() (T, bool, error)
	stop  func()
	hooks []Hooks

	term sync.Once
	done bool
	err  error
}

// Option configures a stream created by New.
type Option func(*streamOptions)

type streamOptions struct {
	stop func()
}

// WithStop registers a release function invoked once when the stream
// becomes terminal.
func WithStop(stop func()) Option {
	return func(o *streamOptions) {
		o.stop = stop
	}
}

// New builds a stream from a pull function. next returns the next value,
// whether one was produced, and a terminal error.
func New[T any](next func() (T, bool, error), opts ...Option) *Stream[T] {
	o := streamOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	return &Stream[T]{next: next, stop: o.stop}
}

// Of builds a stream replaying the given values.
func Of[T any](values ...T) *Stream[T] {
	return FromSlice(values)
}

// FromSlice builds a stream replaying items. A nil slice yields an empty
// stream.
func FromSlice[T any](items []T) *Stream[T] {
	i := 0
	return New(func() (T, bool, error) {
		var zero T
		if i >= len(items) {
			return zero, false, nil
		}
		v := items[i]
		i++
		return v, true, nil
	})
}

// FromSeq builds a stream pulling from an iterator sequence.
func FromSeq[T any](seq iter.Seq[T]) *Stream[T] {
	next, stop := iter.Pull(seq)
	return New(func() (T, bool, error) {
		v, ok := next()
		return v, ok, nil
	}, WithStop(stop))
}

// FromSeq2 builds a stream pulling from an error-carrying iterator sequence.
// The first non-nil error ends the stream with that error.
func FromSeq2[T any](seq iter.Seq2[T, error]) *Stream[T] {
	next, stop := iter.Pull2(seq)
	return New(func() (T, bool, error) {
		v, err, ok := next()
		if !ok {
			var zero T
			return zero, false, nil
		}
		if err != nil {
			var zero T
			return zero, false, err
		}
		return v, true, nil
	}, WithStop(stop))
}

// FromChan builds a stream receiving from ch until it is closed.
func FromChan[T any](ch <-chan T) *Stream[T] {
	return New(func() (T, bool, error) {
		v, ok := <-ch
		return v, ok, nil
	})
}

// Next pulls the next value. It returns false once the stream is terminal.
// After a failure, the terminal error keeps being returned.
func (s *Stream[T]) Next() (T, bool, error) {
	var zero T
	if s.done {
		return zero, false, s.err
	}

	for i := range s.hooks {
		if s.hooks[i].BeforePull != nil {
			s.hooks[i].BeforePull()
		}
	}

	v, ok, err := s.next()

	for i := range s.hooks {
		if s.hooks[i].AfterPull != nil {
			s.hooks[i].AfterPull(ok, err)
		}
	}

	if err != nil {
		s.fireTerminal(false, err)
		return zero, false, err
	}
	if !ok {
		s.fireTerminal(true, nil)
		return zero, false, nil
	}
	return v, true, nil
}

// Close ends the stream early. Closing an already terminal stream is a
// no-op.
func (s *Stream[T]) Close() {
	s.fireTerminal(false, nil)
}

// Err returns the terminal error, if any.
func (s *Stream[T]) Err() error {
	return s.err
}

// Seq returns an iterator view of the stream. Breaking out of the loop
// closes the stream. Pull errors end the iteration and are available via
// Err afterwards.
func (s *Stream[T]) Seq() iter.Seq[T] {
	return func(yield func(T) bool) {
		for {
			v, ok, err := s.Next()
			if err != nil || !ok {
				return
			}
			if !yield(v) {
				s.Close()
				return
			}
		}
	}
}

// Seq2 returns an error-carrying iterator view of the stream. A pull error
// is yielded once as the second element before the iteration ends.
func (s *Stream[T]) Seq2() iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for {
			v, ok, err := s.Next()
			if err != nil {
				var zero T
				yield(zero, err)
				return
			}
			if !ok {
				return
			}
			if !yield(v, nil) {
				s.Close()
				return
			}
		}
	}
}

// Collect drains the stream into a slice.
func (s *Stream[T]) Collect() ([]T, error) {
	var out []T
	for {
		v, ok, err := s.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, v)
	}
}

// Instrument registers lifecycle hooks. It must be called before the first
// pull.
func (s *Stream[T]) Instrument(h Hooks) {
	s.hooks = append(s.hooks, h)
}

func (s *Stream[T]) fireTerminal(completed bool, err error) {
	s.term.Do(func() {
		s.done = true
		s.err = err
		if s.stop != nil {
			s.stop()
		}
		for i := range s.hooks {
			if s.hooks[i].OnTerminal != nil {
				s.hooks[i].OnTerminal(completed, err)
			}
		}
	})
}

// Instrumentable is implemented by streams that accept lifecycle hooks.
// It gives reflective callers a way to instrument a stream without knowing
// its element type.
type Instrumentable interface {
	Instrument(h Hooks)
}

// Pull implements wrap.Puller, exposing elements as any.
func (s *Stream[T]) Pull() (any, bool, error) {
	v, ok, err := s.Next()
	if err != nil || !ok {
		return nil, false, err
	}
	return v, true, nil
}

// ElementType returns the type of T. Part of the container contract; safe
// on a nil receiver.
func (*Stream[T]) ElementType() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// WrapSlice builds a stream replaying items, a []T. Part of the container
// contract; safe on a nil receiver.
func (*Stream[T]) WrapSlice(items any) any {
	if items == nil {
		return FromSlice[T](nil)
	}
	return FromSlice(items.([]T))
}

// WrapPuller builds a stream draining p. Part of the container contract;
// safe on a nil receiver.
func (*Stream[T]) WrapPuller(p wrap.Puller) any {
	return New(func() (T, bool, error) {
		v, ok, err := p.Pull()
		var zero T
		if err != nil {
			return zero, false, err
		}
		if !ok {
			return zero, false, nil
		}
		return v.(T), true, nil
	}, WithStop(p.Close))
}
