// Package config loads the configuration file of the cosim command.
//
package config

import (
	"bytes"
	"io"
	"os"

	"github.com/db47h/cosim"
	"github.com/db47h/cosim/telemetry"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// MetricsConfig configures the scheduler metrics.
//
type MetricsConfig struct {
	// Enabled prints the gathered metrics once all examples have run.
	Enabled bool `yaml:"enabled"`

	// Namespace is the Prometheus namespace of the metrics.
	Namespace string `yaml:"namespace" validate:"required,alphanum"`
}

// File is the content of a configuration file.
//
type File struct {
	Simulator cosim.Config            `yaml:"simulator"`
	Logging   telemetry.LoggingConfig `yaml:"logging"`
	Metrics   MetricsConfig           `yaml:"metrics"`
}

// Default returns the default configuration.
//
func Default() *File {
	return &File{
		Logging: telemetry.DefaultLoggingConfig(),
		Metrics: MetricsConfig{Namespace: "cosim"},
	}
}

var validate = validator.New()

// Validate checks the configuration.
//
func (f *File) Validate() error {
	if err := validate.Struct(&f.Logging); err != nil {
		return errors.Wrap(err, "invalid logging configuration")
	}
	if err := validate.Struct(&f.Metrics); err != nil {
		return errors.Wrap(err, "invalid metrics configuration")
	}
	return f.Simulator.Validate()
}

// Parse reads a configuration from r. Fields missing from the input keep
// their default value; unknown fields are an error.
//
func Parse(r io.Reader) (*File, error) {
	f := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(f); err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "failed to parse configuration")
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

// Load reads the configuration file at path. An empty path returns the
// default configuration.
//
func Load(path string) (*File, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read configuration")
	}
	f, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrapf(err, "%s", path)
	}
	return f, nil
}
