// Package config loads the options that control how a graph is assembled.
//
// Options are read in three layers, later layers winning:
//
//  1. Default()
//  2. an optional YAML file
//  3. OBJECTGRAPH_* environment variables
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

const envPrefix = "OBJECTGRAPH_"

// Options controls graph assembly.
type Options struct {
	// Lazy defers linking until first use.
	Lazy bool `yaml:"lazy"`
	// DetectProblems runs problem detection right after assembly.
	DetectProblems bool `yaml:"validate"`
	// LogLevel is the level of the logger built by NewLogger.
	LogLevel string `yaml:"log_level" validate:"required,oneof=debug info warn error"`
	// Metrics registers linker counters with Registerer.
	Metrics bool `yaml:"metrics"`
	// RegistryFile names a YAML file whose entries are bound as named
	// instances.
	RegistryFile string `yaml:"registry_file"`

	// Registerer receives the linker counters; nil means
	// prometheus.DefaultRegisterer.
	Registerer prometheus.Registerer `yaml:"-" validate:"-"`
}

// Default returns eager, unvalidated assembly logging at info.
func Default() Options {
	return Options{LogLevel: "info"}
}

var validate = validator.New()

// Load reads path (if not empty), then applies environment overrides and
// validates the result.
func Load(path string) (Options, error) {
	opts := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Options{}, fmt.Errorf("config: %w", err)
		}
		if err := yaml.Unmarshal(raw, &opts); err != nil {
			return Options{}, fmt.Errorf("config: decode %s: %w", path, err)
		}
	}
	if err := opts.applyEnv(); err != nil {
		return Options{}, err
	}
	if err := opts.Validate(); err != nil {
		return Options{}, err
	}
	return opts, nil
}

// Validate reports the first invalid field.
func (o Options) Validate() error {
	err := validate.Struct(o)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		e := verrs[0]
		field := strings.ToLower(e.Field())
		switch e.Tag() {
		case "required":
			return fmt.Errorf("config: %s is required", field)
		case "oneof":
			return fmt.Errorf("config: %s must be one of: %s", field, e.Param())
		default:
			return fmt.Errorf("config: %s is invalid", field)
		}
	}
	return fmt.Errorf("config: %w", err)
}

// NewLogger builds a production zap logger at LogLevel.
func (o Options) NewLogger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(o.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	return cfg.Build()
}

func (o *Options) applyEnv() error {
	var err error
	if o.Lazy, err = getenvBool(envPrefix+"LAZY", o.Lazy); err != nil {
		return err
	}
	if o.DetectProblems, err = getenvBool(envPrefix+"VALIDATE", o.DetectProblems); err != nil {
		return err
	}
	if o.Metrics, err = getenvBool(envPrefix+"METRICS", o.Metrics); err != nil {
		return err
	}
	o.LogLevel = getenv(envPrefix+"LOG_LEVEL", o.LogLevel)
	o.RegistryFile = getenv(envPrefix+"REGISTRY_FILE", o.RegistryFile)
	return nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvBool(k string, def bool) (bool, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def, fmt.Errorf("config: %s must be a boolean, got %q", k, v)
	}
	return b, nil
}
