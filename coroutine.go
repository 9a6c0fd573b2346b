// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package cosim

import (
	"runtime"
	"sort"
)

// A coroutine is a logical thread of testbench execution. It is backed by a
// goroutine that only runs while it holds the baton: resume hands it over
// through wake and waits for it to come back through parked.
//
type coroutine struct {
	s    *Simulator
	name string
	seq  uint64
	fn   func() error

	wake   chan struct{}
	parked chan struct{}
	quit   chan struct{}
	exited chan struct{}

	started   bool
	running   bool
	done      bool
	abandoned bool
	err       error

	// called by the resumer once the coroutine has returned
	onDone func(err error)
}

func (s *Simulator) newCoroutine(name string, fn func() error) *coroutine {
	co := &coroutine{
		s:      s,
		name:   name,
		seq:    s.seq,
		fn:     fn,
		wake:   make(chan struct{}),
		parked: make(chan struct{}),
		quit:   make(chan struct{}),
		exited: make(chan struct{}),
	}
	s.seq++
	s.live[co] = struct{}{}
	return co
}

func (co *coroutine) main() {
	normal := false
	defer func() {
		if !normal && !co.abandoned {
			// runtime.Goexit called from testbench code
			co.err = newFault(InternalFault, co.name, "coroutine exited without returning")
			co.done = true
			co.parked <- struct{}{}
		}
		close(co.exited)
	}()
	co.err = protect(co.fn)
	normal = true
	co.done = true
	co.parked <- struct{}{}
}

// park gives the baton back to the resumer and blocks until resumed. If the
// coroutine is abandoned while parked, its goroutine exits and deferred calls
// are run.
//
func (co *coroutine) park() {
	if co.abandoned {
		runtime.Goexit()
	}
	co.s.metrics.Suspend()
	co.parked <- struct{}{}
	select {
	case <-co.wake:
	case <-co.quit:
		co.abandoned = true
		runtime.Goexit()
	}
}

// resume runs co until it parks or returns. Resuming a finished coroutine is
// a no-op.
//
func (s *Simulator) resume(co *coroutine) {
	if co.done || co.abandoned {
		return
	}
	if co.running {
		panic(newFault(InternalFault, "resume", "coroutine %s is already running", co.name))
	}
	s.sync()
	prev := s.current
	s.current = co
	co.running = true
	s.metrics.Resume()
	if e := s.log.Trace(); e.Enabled() {
		e.Str("coroutine", co.name).Stringer("time", s.k.Now()).Msg("resume")
	}
	if !co.started {
		co.started = true
		go co.main()
	} else {
		co.wake <- struct{}{}
	}
	<-co.parked
	co.running = false
	s.current = prev
	if co.done {
		delete(s.live, co)
		if co.onDone != nil {
			co.onDone(co.err)
		}
	}
}

// self returns the running coroutine. It panics with a protocol fault when
// called from outside a coroutine.
//
func (s *Simulator) self(op string) *coroutine {
	if s.current == nil {
		panic(newFault(ProtocolFault, op, "must be called from a testbench coroutine"))
	}
	return s.current
}

// abandon unwinds all coroutines still parked, one at a time, in creation
// order.
//
func (s *Simulator) abandon() error {
	cos := make([]*coroutine, 0, len(s.live))
	for co := range s.live {
		cos = append(cos, co)
	}
	sort.Slice(cos, func(i, j int) bool { return cos[i].seq < cos[j].seq })
	for _, co := range cos {
		if !co.started || co.done {
			continue
		}
		if co.running {
			return newFault(InternalFault, "abandon", "coroutine %s still running", co.name)
		}
		s.current = co
		close(co.quit)
		<-co.exited
		s.current = nil
	}
	s.live = make(map[*coroutine]struct{})
	return nil
}
