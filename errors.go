// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package cosim

import (
	"fmt"

	"github.com/pkg/errors"
)

// FaultKind classifies faults.
//
type FaultKind uint8

// Fault kinds.
//
const (
	// ConfigFault reports an invalid configuration, detected before the
	// simulation starts.
	ConfigFault FaultKind = iota
	// ProtocolFault reports a misuse of the scheduler API.
	ProtocolFault
	// LivenessFault reports a testbench that did not complete: an exhausted
	// timeout or a simulation that ended first.
	LivenessFault
	// AssertionFault reports a failed testbench assertion.
	AssertionFault
	// InternalFault reports a broken scheduler invariant.
	InternalFault
)

var faultNames = [...]string{
	ConfigFault:    "configuration",
	ProtocolFault:  "protocol",
	LivenessFault:  "liveness",
	AssertionFault: "assertion",
	InternalFault:  "internal",
}

func (k FaultKind) String() string {
	if int(k) < len(faultNames) {
		return faultNames[k]
	}
	return fmt.Sprintf("FaultKind(%d)", k)
}

// A Fault is an error raised by the scheduler.
//
type Fault struct {
	Kind FaultKind
	Op   string
	Msg  string
}

func (f *Fault) Error() string {
	if f.Op == "" {
		return f.Kind.String() + " fault: " + f.Msg
	}
	return f.Kind.String() + " fault in " + f.Op + ": " + f.Msg
}

func newFault(kind FaultKind, op string, format string, args ...interface{}) error {
	return errors.WithStack(&Fault{Kind: kind, Op: op, Msg: fmt.Sprintf(format, args...)})
}

// IsFault returns true if err is or wraps a Fault of the given kind.
//
func IsFault(err error, kind FaultKind) bool {
	var f *Fault
	return errors.As(err, &f) && f.Kind == kind
}

// Assert panics with an assertion fault if cond is false. The panic is
// recovered by the scheduler and fails the running test.
//
func Assert(cond bool, format string, args ...interface{}) {
	if !cond {
		panic(newFault(AssertionFault, "", format, args...))
	}
}

// protect calls fn and turns panics into errors.
//
func protect(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			switch e := r.(type) {
			case error:
				var f *Fault
				if errors.As(e, &f) {
					err = e
				} else {
					err = errors.Wrap(e, "panic")
				}
			default:
				err = errors.Errorf("panic: %v", r)
			}
		}
	}()
	return fn()
}
