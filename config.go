// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package cosim

import (
	"os"

	"github.com/go-playground/validator/v10"
)

// CastPolicy selects how plain bit vector ports are presented to testbenches.
//
type CastPolicy string

// Cast policies.
//
const (
	CastNone     CastPolicy = ""
	CastUnsigned CastPolicy = "unsigned"
	CastSigned   CastPolicy = "signed"
)

// Config holds the simulator configuration.
//
type Config struct {
	// BuildDir is the working directory of the simulation. It is not used by
	// in-process kernels but must exist if set.
	BuildDir string `yaml:"build_dir"`
	// Mkdir allows New to create BuildDir.
	Mkdir bool `yaml:"mkdir"`
	// CastVectors coerces every plain bit vector port to an unsigned or
	// signed view.
	CastVectors CastPolicy `yaml:"cast_vectors" validate:"omitempty,oneof=unsigned signed"`
	// SimArgs are passed to the kernel on creation.
	SimArgs []string `yaml:"sim_args" validate:"dive,required"`
	// ExtraEnv is set in the process environment for the duration of each
	// test.
	ExtraEnv map[string]string `yaml:"extra_env" validate:"dive,keys,required,endkeys"`
}

var validate = validator.New()

// Validate checks the configuration for errors and returns a configuration
// fault if any.
//
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return newFault(ConfigFault, "Validate", "%v", err)
	}
	return nil
}

// checkBuildDir makes sure that the build directory exists, creating it if
// allowed.
//
func (c *Config) checkBuildDir() error {
	if c.BuildDir == "" {
		return nil
	}
	fi, err := os.Stat(c.BuildDir)
	switch {
	case err == nil:
		if !fi.IsDir() {
			return newFault(ConfigFault, "New", "build directory %s is not a directory", c.BuildDir)
		}
		return nil
	case !os.IsNotExist(err):
		return newFault(ConfigFault, "New", "cannot access build directory: %v", err)
	case !c.Mkdir:
		return newFault(ConfigFault, "New", "build directory %s does not exist", c.BuildDir)
	}
	if err = os.MkdirAll(c.BuildDir, 0755); err != nil {
		return newFault(ConfigFault, "New", "cannot create build directory: %v", err)
	}
	return nil
}
