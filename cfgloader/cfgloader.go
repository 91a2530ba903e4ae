// Package cfgloader loads and validates application configuration from
// environment-specific YAML files.
//
// The file is selected by the ENVIRONMENT variable and named
// ${ENVIRONMENT}.yaml inside the config directory. Environment variable
// references in the file are expanded before parsing, default values are
// applied from `default` struct tags and the result is validated with
// `validate` struct tags.
package cfgloader

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"slices"

	"github.com/code19m/errx"
	"github.com/creasty/defaults"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/rise-and-shine/repokit/val"
)

// Recognized values of the ENVIRONMENT variable.
const (
	EnvProduction = "production"
	EnvStaging    = "staging"
	EnvDev        = "dev"
	EnvLocal      = "local"
	EnvTest       = "test"
)

// CodeConfigLoadFailed marks failures to locate, read or parse a
// configuration file. Validation failures keep their own code from the
// val package.
const CodeConfigLoadFailed = "CONFIG_LOAD_FAILED"

var environments = []string{EnvProduction, EnvStaging, EnvDev, EnvLocal, EnvTest}

// Load reads the configuration file for the current ENVIRONMENT into a
// value of type T.
//
// A .env file in the working directory is loaded first, so references like
// ${DB_PASSWORD} inside the YAML file can be provided either by the process
// environment or by a local dotenv file. Unless silenced, the loaded config
// is logged with fields tagged `mask:"true"` redacted.
func Load[T any](opts ...Option) (T, error) {
	var config T

	if reflect.TypeFor[T]().Kind() == reflect.Pointer {
		return config, errx.New(
			"config type must be a struct, not a pointer",
			errx.WithCode(CodeConfigLoadFailed),
			errx.WithType(errx.T_Internal),
		)
	}

	o := buildOptions(opts)

	_ = godotenv.Load()

	env := os.Getenv("ENVIRONMENT")
	if !slices.Contains(environments, env) {
		return config, errx.New(
			fmt.Sprintf("ENVIRONMENT variable is not set or invalid, choices are: %v", environments),
			errx.WithCode(CodeConfigLoadFailed),
			errx.WithType(errx.T_Internal),
		)
	}

	path := filepath.Join(o.Dir, env+".yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		return config, errx.Wrap(err,
			errx.WithCode(CodeConfigLoadFailed),
			errx.WithDetails(errx.D{"path": path}),
		)
	}

	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), &config); err != nil {
		return config, errx.Wrap(err,
			errx.WithCode(CodeConfigLoadFailed),
			errx.WithDetails(errx.D{"path": path}),
		)
	}

	if err := defaults.Set(&config); err != nil {
		return config, errx.Wrap(err, errx.WithCode(CodeConfigLoadFailed))
	}

	if err := val.ValidateSchema(config); err != nil {
		return config, err
	}

	if !o.Silent {
		printConfig(env, config)
	}

	return config, nil
}

// MustLoad is Load for program startup: any failure is logged and the
// process exits.
func MustLoad[T any](opts ...Option) T {
	config, err := Load[T](opts...)
	if err != nil {
		slog.Error(fmt.Sprintf("[cfgloader]: %v", err))
		os.Exit(1)
	}
	return config
}
