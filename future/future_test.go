// Package future_test contains tests for the future package.
package future_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rise-and-shine/repokit/future"
)

func TestCompleted(t *testing.T) {
	f := future.Completed(42)

	v, err := f.Await(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestFailed(t *testing.T) {
	boom := errors.New("boom")
	f := future.Failed[int](boom)

	_, err := f.Await(t.Context())
	assert.ErrorIs(t, err, boom)
}

func TestGo(t *testing.T) {
	f := future.Go(func() (string, error) {
		return "done", nil
	})

	v, err := f.Await(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "done", v)
}

func TestDeferredCompletesOnce(t *testing.T) {
	f, complete := future.Deferred[int]()

	_, done, _ := f.Peek()
	assert.False(t, done)

	complete(1, nil)
	complete(2, nil) // ignored

	v, err := f.Await(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 1, v)
}

func TestAwaitHonorsContext(t *testing.T) {
	f, _ := future.Deferred[int]()

	ctx, cancel := context.WithTimeout(t.Context(), 10*time.Millisecond)
	defer cancel()

	_, err := f.Await(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSubscribe(t *testing.T) {
	t.Run("fires once on completion", func(t *testing.T) {
		f, complete := future.Deferred[int]()
		var fired atomic.Int32

		f.Subscribe(func(v any, err error) {
			fired.Add(1)
			assert.Equal(t, 5, v)
			assert.NoError(t, err)
		})

		complete(5, nil)
		complete(6, nil)

		assert.Equal(t, int32(1), fired.Load())
	})

	t.Run("fires immediately when already complete", func(t *testing.T) {
		f := future.Completed("x")
		var fired atomic.Int32

		f.Subscribe(func(v any, err error) { fired.Add(1) })

		assert.Equal(t, int32(1), fired.Load())
	})
}

func TestWrapSubscription(t *testing.T) {
	src := future.Completed(2)

	wrapped := (*future.Future[int])(nil).WrapSubscription(src.Subscribe, func(v any) (any, error) {
		return v.(int) * 10, nil
	})

	out, ok := wrapped.(*future.Future[int])
	require.True(t, ok)

	v, err := out.Await(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 20, v)
}
