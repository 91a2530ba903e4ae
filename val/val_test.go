package val_test

import (
	"testing"

	"github.com/code19m/errx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rise-and-shine/repokit/val"
)

type storeConfig struct {
	Mode     string `yaml:"mode" validate:"required,oneof=strict lenient"`
	Capacity int    `yaml:"capacity" validate:"gte=1"`
}

func TestValidateSchema(t *testing.T) {
	t.Run("valid schema passes", func(t *testing.T) {
		cfg := storeConfig{Mode: "strict", Capacity: 10}
		assert.NoError(t, val.ValidateSchema(cfg))
	})

	t.Run("violations are collected per field", func(t *testing.T) {
		cfg := storeConfig{Mode: "weird", Capacity: 0}

		err := val.ValidateSchema(cfg)
		require.Error(t, err)

		e := errx.AsErrorX(err)
		assert.Equal(t, val.CodeValidationFailed, e.Code())
		assert.Equal(t, errx.T_Validation, e.Type())

		fields := e.Fields()
		assert.Contains(t, fields["mode"], "Must be one of")
		assert.Contains(t, fields["capacity"], "greater than or equal")
	})

	t.Run("field names come from yaml tags", func(t *testing.T) {
		cfg := storeConfig{Capacity: 5}

		err := val.ValidateSchema(cfg)
		require.Error(t, err)

		e := errx.AsErrorX(err)
		assert.Contains(t, e.Fields(), "mode")
	})
}
