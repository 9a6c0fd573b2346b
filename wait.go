// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package cosim

import (
	"github.com/db47h/cosim/simtime"
)

// DeltaStep suspends the calling coroutine until the design has settled at
// the current time. Writes done before the call are then visible on the
// outputs that depend on them.
//
func (s *Simulator) DeltaStep() {
	s.delay("DeltaStep", 0)
}

// Wait suspends the calling coroutine for d time units. Wait panics with a
// protocol fault if d is negative.
//
// A zero duration registers the same zero delay as DeltaStep: kernels have a
// single zero-time evaluation tick, so Wait(0) lets the design settle and
// resumes at the current time, after every callback already due at that time.
//
func (s *Simulator) Wait(d simtime.Duration) {
	if d < 0 {
		panic(newFault(ProtocolFault, "Wait", "negative duration %v", d))
	}
	s.delay("Wait", d)
}

func (s *Simulator) delay(op string, d simtime.Duration) {
	co := s.self(op)
	tok := s.k.After(d, func() { s.resume(co) })
	defer tok.Dispose()
	co.park()
}

// Now returns the current simulation time.
//
func (s *Simulator) Now() simtime.Duration {
	if s.k == nil {
		return 0
	}
	return s.k.Now()
}
