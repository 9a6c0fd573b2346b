// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package cosim

import (
	"strconv"

	"github.com/db47h/cosim/kernel"
	"github.com/db47h/cosim/logic"
	"github.com/db47h/cosim/simtime"
)

// Edge is the edge policy of a clock.
//
type Edge uint8

// Edge policies.
//
const (
	EdgeRising Edge = iota
	EdgeFalling
	EdgeBoth
)

func (e Edge) String() string {
	switch e {
	case EdgeRising:
		return "rising"
	case EdgeFalling:
		return "falling"
	case EdgeBoth:
		return "both"
	}
	return "Edge(" + strconv.Itoa(int(e)) + ")"
}

// Clock describes a clock signal: its port, active edge and period.
//
// Clock implements Signal, Driver and simtime.Periodic.
//
type Clock struct {
	port   *Port
	edge   Edge
	period simtime.Duration
}

// NewClock returns a new clock descriptor for the given port. p may be a
// simtime.Duration or a simtime.Frequency, or nil if the period is not known.
//
func NewClock(port *Port, p simtime.Periodic, edge Edge) *Clock {
	c := &Clock{port: port, edge: edge}
	if p != nil {
		c.period = p.Period()
	}
	return c
}

// Port returns the clock port.
//
func (c *Clock) Port() *Port { return c.port }

// Edge returns the clock's edge policy.
//
func (c *Clock) Edge() Edge { return c.edge }

// Period returns the clock period.
//
func (c *Clock) Period() simtime.Duration { return c.period }

// Handle implements Signal.
//
func (c *Clock) Handle() kernel.Handle { return c.port.Handle() }

// Bool implements Signal.
//
func (c *Clock) Bool() bool { return c.port.Bool() }

// Value implements Signal.
//
func (c *Clock) Value() logic.Value { return c.port.Value() }

// SetBool implements Driver.
//
func (c *Clock) SetBool(v bool) { c.port.SetBool(v) }

// Reset describes a reset signal.
//
type Reset struct {
	port      *Port
	activeLow bool
	async     bool
}

// NewReset returns a new reset descriptor.
//
func NewReset(port *Port, activeLow, async bool) *Reset {
	return &Reset{port: port, activeLow: activeLow, async: async}
}

// Port returns the reset port.
//
func (r *Reset) Port() *Port { return r.port }

// ActiveLow returns true if the reset is active low.
//
func (r *Reset) ActiveLow() bool { return r.activeLow }

// Async returns true for asynchronous resets.
//
func (r *Reset) Async() bool { return r.async }

// Active returns true if the reset is asserted.
//
func (r *Reset) Active() bool { return r.port.Bool() != r.activeLow }

// Assert drives the reset to its active level, or inactive level if active is
// false.
//
func (r *Reset) Assert(active bool) { r.port.SetBool(active != r.activeLow) }

// GenClock spawns a clock generator driving clk. The generator drives start,
// waits floor(P/2), drives !start, waits P - floor(P/2) and so on forever. With
// odd periods the start phase is one unit shorter than the other one.
//
// If p is nil, the period of clk is used; clk must then be a simtime.Periodic
// like *Clock. Non positive periods are a configuration fault.
//
func (s *Simulator) GenClock(clk Driver, p simtime.Periodic, start bool) error {
	if clk == nil {
		return newFault(ProtocolFault, "GenClock", "nil clock")
	}
	if p == nil {
		var ok bool
		if p, ok = clk.(simtime.Periodic); !ok {
			return newFault(ConfigFault, "GenClock", "no period given for clock %v", clk.Handle().Name())
		}
	}
	period := p.Period()
	if period <= 0 {
		return newFault(ConfigFault, "GenClock", "invalid clock period %v", period)
	}
	half := period / 2
	s.StartSoon("clock "+clk.Handle().Name(), func() error {
		for {
			clk.SetBool(start)
			s.Wait(half)
			clk.SetBool(!start)
			s.Wait(period - half)
		}
	})
	return nil
}
