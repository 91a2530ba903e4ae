// Package optional_test contains tests for the optional package.
package optional_test

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rise-and-shine/repokit/optional"
)

func TestOptionalGet(t *testing.T) {
	tests := []struct {
		name        string
		opt         optional.Optional[string]
		wantValue   string
		wantPresent bool
	}{
		{
			name:        "holds value",
			opt:         optional.Of("hello"),
			wantValue:   "hello",
			wantPresent: true,
		},
		{
			name:        "holds zero value",
			opt:         optional.Of(""),
			wantValue:   "",
			wantPresent: true,
		},
		{
			name:        "empty",
			opt:         optional.Empty[string](),
			wantValue:   "",
			wantPresent: false,
		},
		{
			name:        "zero value is empty",
			opt:         optional.Optional[string]{},
			wantValue:   "",
			wantPresent: false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, present := tc.opt.Get()
			assert.Equal(t, tc.wantValue, got)
			assert.Equal(t, tc.wantPresent, present)
		})
	}
}

func TestFromPtr(t *testing.T) {
	v := 42
	assert.Equal(t, optional.Of(42), optional.FromPtr(&v))
	assert.Equal(t, optional.Empty[int](), optional.FromPtr[int](nil))
}

func TestOrElse(t *testing.T) {
	assert.Equal(t, 7, optional.Of(7).OrElse(9))
	assert.Equal(t, 9, optional.Empty[int]().OrElse(9))
}

func TestMustGetPanicsWhenEmpty(t *testing.T) {
	assert.Panics(t, func() {
		optional.Empty[int]().MustGet()
	})
	assert.NotPanics(t, func() {
		assert.Equal(t, 3, optional.Of(3).MustGet())
	})
}

func TestPtr(t *testing.T) {
	p := optional.Of("x").Ptr()
	require.NotNil(t, p)
	assert.Equal(t, "x", *p)
	assert.Nil(t, optional.Empty[string]().Ptr())
}

func TestContainerContract(t *testing.T) {
	t.Run("element type", func(t *testing.T) {
		assert.Equal(t, reflect.TypeOf(0), optional.Optional[int]{}.ElementType())
	})

	t.Run("wrap value", func(t *testing.T) {
		wrapped := optional.Optional[int]{}.WrapValue(5)
		opt, ok := wrapped.(optional.Optional[int])
		require.True(t, ok)
		assert.Equal(t, optional.Of(5), opt)
	})

	t.Run("wrap nil yields empty", func(t *testing.T) {
		wrapped := optional.Optional[int]{}.WrapValue(nil)
		opt, ok := wrapped.(optional.Optional[int])
		require.True(t, ok)
		assert.False(t, opt.IsPresent())
	})

	t.Run("unwrap round trip", func(t *testing.T) {
		v, present := optional.Of("a").UnwrapValue()
		assert.True(t, present)
		assert.Equal(t, "a", v)

		_, present = optional.Empty[string]().UnwrapValue()
		assert.False(t, present)
	})
}
