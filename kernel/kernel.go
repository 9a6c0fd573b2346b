// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package kernel defines the contract between testbench schedulers and
// event-driven simulation kernels.
//
package kernel

import (
	"context"

	"github.com/db47h/cosim/logic"
	"github.com/db47h/cosim/simtime"
)

// A Handle identifies a named simulation object.
//
type Handle interface {
	Name() string
}

// A Token is a pending callback registration. Dispose cancels any future
// firing; it is idempotent and may be called after the callback fired.
//
type Token interface {
	Dispose()
}

// Kernel is the interface implemented by simulation kernels.
//
// Callbacks are invoked from the goroutine running Run, one at a time.
//
type Kernel interface {
	// After registers fn to be called once, d time units from now. A zero
	// delay fires once the design has settled at the current time.
	After(d simtime.Duration, fn func()) Token
	// OnChange registers fn to be called every time the value of h changes.
	OnChange(h Handle, fn func()) Token
	// Lookup resolves a hierarchical object name.
	Lookup(name string) (Handle, error)
	// Read returns the current value of h.
	Read(h Handle) logic.Value
	// Write schedules an update of h.
	Write(h Handle, v logic.Value) error
	// Now returns the current simulation time.
	Now() simtime.Duration
	// Run runs the simulation until Finish is called, nothing is left to
	// simulate, a stop condition is met or ctx is done.
	Run(ctx context.Context) error
	// Finish stops the simulation at the end of the current callback.
	Finish()
}

// Forcer is implemented by kernels that can hold a signal at a given value.
//
type Forcer interface {
	// Force holds h at its current value. The design can no longer change
	// it; Write still can.
	Force(h Handle) error
	// Release lets the design drive h again.
	Release(h Handle) error
}
