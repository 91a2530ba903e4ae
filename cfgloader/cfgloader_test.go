package cfgloader_test

import (
	"testing"

	"github.com/code19m/errx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rise-and-shine/repokit/cfgloader"
	"github.com/rise-and-shine/repokit/val"
)

type testConfig struct {
	ServiceName string `yaml:"service_name" validate:"required"`

	Store struct {
		InitialCapacity int `yaml:"initial_capacity" default:"64"`
		MaxEntries      int `yaml:"max_entries" default:"1000"`
	} `yaml:"store"`

	Database struct {
		Host     string `yaml:"host" validate:"required"`
		Port     int    `yaml:"port" default:"5432"`
		Password string `yaml:"password" mask:"true"`
	} `yaml:"database"`
}

func TestLoad(t *testing.T) {
	t.Setenv("ENVIRONMENT", cfgloader.EnvTest)
	t.Setenv("ORDERS_DB_PASSWORD", "hunter2")

	cfg, err := cfgloader.Load[testConfig](cfgloader.WithDir("testdata"), cfgloader.WithSilent())
	require.NoError(t, err)

	assert.Equal(t, "orders", cfg.ServiceName)
	assert.Equal(t, 128, cfg.Store.InitialCapacity, "yaml value wins over default")
	assert.Equal(t, 1000, cfg.Store.MaxEntries, "default applies when yaml omits the field")
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "hunter2", cfg.Database.Password, "env references are expanded")
}

func TestLoadValidatesResult(t *testing.T) {
	type strictConfig struct {
		ServiceName string `yaml:"service_name" validate:"required"`
		APIKey      string `yaml:"api_key" validate:"required"`
	}

	t.Setenv("ENVIRONMENT", cfgloader.EnvTest)

	_, err := cfgloader.Load[strictConfig](cfgloader.WithDir("testdata"), cfgloader.WithSilent())
	require.Error(t, err)
	assert.Equal(t, val.CodeValidationFailed, errx.AsErrorX(err).Code())
}

func TestLoadRequiresEnvironment(t *testing.T) {
	t.Setenv("ENVIRONMENT", "somewhere")

	_, err := cfgloader.Load[testConfig](cfgloader.WithDir("testdata"), cfgloader.WithSilent())
	require.Error(t, err)
	assert.Equal(t, cfgloader.CodeConfigLoadFailed, errx.AsErrorX(err).Code())
}

func TestLoadMissingFile(t *testing.T) {
	t.Setenv("ENVIRONMENT", cfgloader.EnvLocal)

	_, err := cfgloader.Load[testConfig](cfgloader.WithDir("testdata"), cfgloader.WithSilent())
	require.Error(t, err)
	assert.Equal(t, cfgloader.CodeConfigLoadFailed, errx.AsErrorX(err).Code())
}

func TestLoadRejectsPointerTypes(t *testing.T) {
	t.Setenv("ENVIRONMENT", cfgloader.EnvTest)

	_, err := cfgloader.Load[*testConfig](cfgloader.WithDir("testdata"), cfgloader.WithSilent())
	require.Error(t, err)
	assert.Equal(t, cfgloader.CodeConfigLoadFailed, errx.AsErrorX(err).Code())
}
