// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package cosim

import (
	"github.com/db47h/cosim/kernel"
	"github.com/db47h/cosim/logic"
)

// Signal is the interface implemented by anything that can be waited on: ports
// and their views, clocks.
//
type Signal interface {
	// Handle returns the kernel handle change callbacks are registered on.
	Handle() kernel.Handle
	// Bool returns the truth value of the last synchronized value.
	Bool() bool
	// Value returns the last synchronized value.
	Value() logic.Value
}

// Driver is a Signal that testbenches can drive.
//
type Driver interface {
	Signal
	SetBool(v bool)
}

// NoTimeout disables the timeout countdown of the TrueOn and TrueAfter wait
// functions.
//
const NoTimeout = -1

// watch registers a change callback on sig that resumes the calling
// coroutine. The returned token must be disposed once the wait is over.
//
func (s *Simulator) watch(op string, sig Signal) (*coroutine, kernel.Token) {
	if sig == nil {
		panic(newFault(ProtocolFault, op, "nil signal"))
	}
	co := s.self(op)
	return co, s.k.OnChange(sig.Handle(), func() { s.resume(co) })
}

func (s *Simulator) edge(op string, sig Signal, rising bool) {
	co, tok := s.watch(op, sig)
	defer tok.Dispose()
	prev := sig.Bool()
	for {
		co.park()
		cur := sig.Bool()
		if cur != prev && cur == rising {
			return
		}
		prev = cur
	}
}

// RisingEdge waits for a false to true transition of sig.
//
func (s *Simulator) RisingEdge(sig Signal) { s.edge("RisingEdge", sig, true) }

// FallingEdge waits for a true to false transition of sig.
//
func (s *Simulator) FallingEdge(sig Signal) { s.edge("FallingEdge", sig, false) }

// AnyEdge waits for any change of the value of sig, like a vector going from
// 1 to 2. Changes of the port a view belongs to that leave the bits of the
// view untouched are ignored.
//
func (s *Simulator) AnyEdge(sig Signal) {
	co, tok := s.watch("AnyEdge", sig)
	defer tok.Dispose()
	prev := sig.Value()
	for {
		co.park()
		if sig.Value() != prev {
			return
		}
	}
}

// ClockEdge waits for the next active edge of clk.
//
func (s *Simulator) ClockEdge(clk *Clock) error {
	if clk == nil {
		return newFault(ProtocolFault, "ClockEdge", "nil clock")
	}
	switch clk.edge {
	case EdgeRising:
		s.RisingEdge(clk)
	case EdgeFalling:
		s.FallingEdge(clk)
	case EdgeBoth:
		s.AnyEdge(clk)
	default:
		return newFault(ProtocolFault, "ClockEdge", "unknown edge policy %v", clk.edge)
	}
	return nil
}

// ClockCycles waits for n rising (or falling) edges of sig.
//
func (s *Simulator) ClockCycles(sig Signal, n int, rising bool) error {
	if n <= 0 {
		return newFault(ProtocolFault, "ClockCycles", "cycle count must be positive, got %d", n)
	}
	for ; n > 0; n-- {
		s.edge("ClockCycles", sig, rising)
	}
	return nil
}

// ValueTrue waits until sig is true. It returns immediately, without
// suspending, if sig is already true.
//
func (s *Simulator) ValueTrue(sig Signal) { s.value("ValueTrue", sig, true) }

// ValueFalse waits until sig is false. It returns immediately, without
// suspending, if sig is already false.
//
func (s *Simulator) ValueFalse(sig Signal) { s.value("ValueFalse", sig, false) }

func (s *Simulator) value(op string, sig Signal, want bool) {
	if sig == nil {
		panic(newFault(ProtocolFault, op, "nil signal"))
	}
	if sig.Bool() == want {
		return
	}
	co, tok := s.watch(op, sig)
	defer tok.Dispose()
	for sig.Bool() != want {
		co.park()
	}
}

// ValueChange waits for exactly one change notification of sig, whatever the
// new value.
//
func (s *Simulator) ValueChange(sig Signal) {
	co, tok := s.watch("ValueChange", sig)
	defer tok.Dispose()
	co.park()
}

// trueOn implements the TrueOn and TrueAfter families. wait waits for the next
// edge.
//
func (s *Simulator) trueOn(op string, wait func() error, settle bool, cond func() bool, timeout int) error {
	if cond == nil {
		return newFault(ProtocolFault, op, "nil condition")
	}
	for {
		if err := wait(); err != nil {
			return err
		}
		if settle {
			s.DeltaStep()
		}
		if cond() {
			return nil
		}
		if timeout >= 0 {
			timeout--
			if timeout <= 0 {
				return newFault(LivenessFault, op, "condition still false at %v, timeout exhausted", s.Now())
			}
		}
	}
}

func (s *Simulator) waitEdge(sig Signal, rising bool) func() error {
	return func() error {
		if rising {
			s.RisingEdge(sig)
		} else {
			s.FallingEdge(sig)
		}
		return nil
	}
}

// TrueOnRising waits for a rising edge of sig where cond returns true. If
// timeout is not NoTimeout, a liveness fault is returned once timeout edges
// (at least one) have been seen with cond false.
//
func (s *Simulator) TrueOnRising(sig Signal, cond func() bool, timeout int) error {
	return s.trueOn("TrueOnRising", s.waitEdge(sig, true), false, cond, timeout)
}

// TrueOnFalling is like TrueOnRising for falling edges.
//
func (s *Simulator) TrueOnFalling(sig Signal, cond func() bool, timeout int) error {
	return s.trueOn("TrueOnFalling", s.waitEdge(sig, false), false, cond, timeout)
}

// TrueOnClock is like TrueOnRising for the active edges of clk.
//
func (s *Simulator) TrueOnClock(clk *Clock, cond func() bool, timeout int) error {
	return s.trueOn("TrueOnClock", func() error { return s.ClockEdge(clk) }, false, cond, timeout)
}

// TrueAfterRising is like TrueOnRising but does a DeltaStep after each edge
// before evaluating cond, so that cond sees the state of the design once the
// edge has propagated.
//
func (s *Simulator) TrueAfterRising(sig Signal, cond func() bool, timeout int) error {
	return s.trueOn("TrueAfterRising", s.waitEdge(sig, true), true, cond, timeout)
}

// TrueAfterFalling is like TrueAfterRising for falling edges.
//
func (s *Simulator) TrueAfterFalling(sig Signal, cond func() bool, timeout int) error {
	return s.trueOn("TrueAfterFalling", s.waitEdge(sig, false), true, cond, timeout)
}

// TrueAfterClock is like TrueAfterRising for the active edges of clk.
//
func (s *Simulator) TrueAfterClock(clk *Clock, cond func() bool, timeout int) error {
	return s.trueOn("TrueAfterClock", func() error { return s.ClockEdge(clk) }, true, cond, timeout)
}

// ResetCond waits for the reset condition described by rst:
//
//	async, active high: ValueTrue
//	async, active low:  ValueFalse
//	sync, active high:  RisingEdge
//	sync, active low:   FallingEdge
//
func (s *Simulator) ResetCond(rst *Reset) error {
	if rst == nil || rst.port == nil {
		return newFault(ProtocolFault, "ResetCond", "invalid reset descriptor")
	}
	switch {
	case rst.async && !rst.activeLow:
		s.ValueTrue(rst.port)
	case rst.async && rst.activeLow:
		s.ValueFalse(rst.port)
	case !rst.async && !rst.activeLow:
		s.RisingEdge(rst.port)
	default:
		s.FallingEdge(rst.port)
	}
	return nil
}
