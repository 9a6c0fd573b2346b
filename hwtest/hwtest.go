// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package hwtest provides utility functions for testing designs and
// testbenches with the standard testing package.
//
package hwtest

import (
	"context"
	"testing"

	"github.com/db47h/cosim"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Trace logs the stack trace of err, if any.
//
func Trace(t testing.TB, err error) {
	t.Helper()
	if err, ok := err.(interface {
		StackTrace() errors.StackTrace
	}); ok {
		for _, f := range err.StackTrace() {
			t.Logf("%+v ", f)
		}
	}
}

// Logger returns a logger writing to the test log.
//
func Logger(t testing.TB) zerolog.Logger {
	return zerolog.New(zerolog.NewTestWriter(t)).Level(zerolog.DebugLevel)
}

// Run runs tb against design d as a test named after t. Any error fails t.
//
func Run(t testing.TB, d cosim.Design, cfg cosim.Config, tb cosim.Testbench, opts ...cosim.Option) {
	t.Helper()
	if err := Test(t, d, cfg, tb, opts...); err != nil {
		Trace(t, err)
		t.Fatal(err)
	}
}

// Test is like Run but returns the test error instead of failing t.
//
func Test(t testing.TB, d cosim.Design, cfg cosim.Config, tb cosim.Testbench, opts ...cosim.Option) error {
	t.Helper()
	opts = append([]cosim.Option{cosim.WithLogger(Logger(t))}, opts...)
	s, err := cosim.New(d, cfg, opts...)
	if err != nil {
		return err
	}
	return s.Test(context.Background(), t.Name(), tb)
}
