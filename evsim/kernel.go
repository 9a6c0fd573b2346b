// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package evsim

import (
	"container/heap"
	"context"
	"fmt"

	"github.com/db47h/cosim/kernel"
	"github.com/db47h/cosim/logic"
	"github.com/db47h/cosim/simtime"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// DefaultMaxDeltas is the default limit of delta cycles per time step.
//
const DefaultMaxDeltas = 10000

// A Signal is a named wire in a running simulation. It implements
// kernel.Handle.
//
// Signal values are double buffered: writes go to the next frame and become
// visible at the next delta cycle.
//
type Signal struct {
	name string
	typ  logic.Type
	k    *Kernel

	cur, prev, next logic.Value
	pending         bool
	forced          bool
	event           int64 // delta cycle of the last change

	procs    []*process
	watchers []*watcher
}

// Name returns the hierarchical name of the signal.
//
func (s *Signal) Name() string { return s.name }

// Type returns the logical type of the signal.
//
func (s *Signal) Type() logic.Type { return s.typ }

func (s *Signal) String() string { return s.name }

type process struct {
	fn     func(k *Kernel)
	seq    bool
	queued bool
}

type watcher struct {
	s  *Signal
	fn func()
}

func (w *watcher) Dispose() {
	if w.s == nil {
		return
	}
	ws := w.s.watchers
	for i, x := range ws {
		if x == w {
			w.s.watchers = append(ws[:i:i], ws[i+1:]...)
			break
		}
	}
	w.s = nil
}

// Kernel is a discrete event simulation kernel. It implements kernel.Kernel.
//
// A Kernel is not safe for concurrent use: callbacks and processes run on the
// goroutine that called Run.
//
type Kernel struct {
	name    string
	signals map[string]*Signal
	order   []*Signal
	procs   []*process

	runq    []*process
	pending []*Signal
	timers  timerQueue
	seq     uint64

	now       simtime.Duration
	cycle     int64
	deltas    uint64
	maxDeltas int
	stopTime  simtime.Duration
	finished  bool

	log zerolog.Logger
}

var (
	_ kernel.Kernel = (*Kernel)(nil)
	_ kernel.Forcer = (*Kernel)(nil)
)

func newKernel(name string, log zerolog.Logger) *Kernel {
	return &Kernel{
		name:      name,
		signals:   make(map[string]*Signal),
		maxDeltas: DefaultMaxDeltas,
		log:       log,
	}
}

func (k *Kernel) newSignal(name string, t logic.Type, init logic.Value) (*Signal, error) {
	if _, ok := k.signals[name]; ok {
		return nil, errors.Errorf("duplicate signal name %q", name)
	}
	if !t.Valid() {
		return nil, errors.Errorf("invalid type %v for signal %q", t, name)
	}
	if init == "" {
		init = logic.Null.Value(t)
	}
	if init.Width() != t.Width {
		return nil, errors.Errorf("initial value %q does not match width of signal %q", init, name)
	}
	s := &Signal{name: name, typ: t, k: k, cur: init, prev: init, next: init, event: -1}
	k.signals[name] = s
	k.order = append(k.order, s)
	return s, nil
}

func (k *Kernel) addProcess(fn func(k *Kernel), seq bool, sens ...*Signal) {
	p := &process{fn: fn, seq: seq}
	k.procs = append(k.procs, p)
	for _, s := range sens {
		s.procs = append(s.procs, p)
	}
}

func (k *Kernel) schedule(p *process) {
	if !p.queued {
		p.queued = true
		k.runq = append(k.runq, p)
	}
}

// Get returns the current value of s.
//
func (k *Kernel) Get(s *Signal) logic.Value {
	return s.cur
}

// Set schedules the update of s to v at the next delta cycle. It panics if
// the width of v does not match s. Set has no effect on forced signals.
//
func (k *Kernel) Set(s *Signal, v logic.Value) {
	if v.Width() != s.typ.Width {
		panic(errors.Errorf("cannot set %d bits signal %s to %q", s.typ.Width, s.name, v))
	}
	if !s.forced {
		k.drive(s, v)
	}
}

func (k *Kernel) drive(s *Signal, v logic.Value) {
	s.next = v
	if !s.pending {
		s.pending = true
		k.pending = append(k.pending, s)
	}
}

// Event returns true if s changed during the last delta cycle.
//
func (k *Kernel) Event(s *Signal) bool {
	return s.event == k.cycle
}

// Rising returns true if s went from false to true during the last delta
// cycle.
//
func (k *Kernel) Rising(s *Signal) bool {
	return k.Event(s) && s.cur.Bool() && !s.prev.Bool()
}

// Falling returns true if s went from true to false during the last delta
// cycle.
//
func (k *Kernel) Falling(s *Signal) bool {
	return k.Event(s) && !s.cur.Bool() && s.prev.Bool()
}

// Now returns the current simulation time.
//
func (k *Kernel) Now() simtime.Duration { return k.now }

// Deltas returns the total number of delta cycles run so far.
//
func (k *Kernel) Deltas() uint64 { return k.deltas }

// Signals returns all signals in creation order.
//
func (k *Kernel) Signals() []*Signal {
	ss := make([]*Signal, len(k.order))
	copy(ss, k.order)
	return ss
}

// Lookup returns the signal with the given hierarchical name.
//
func (k *Kernel) Lookup(name string) (kernel.Handle, error) {
	s, ok := k.signals[name]
	if !ok {
		return nil, errors.Errorf("no signal named %q in %s", name, k.name)
	}
	return s, nil
}

func (k *Kernel) signal(h kernel.Handle) (*Signal, error) {
	s, ok := h.(*Signal)
	if !ok || s.k != k {
		return nil, errors.Errorf("handle %v does not belong to %s", h, k.name)
	}
	return s, nil
}

// Read returns the current value of h.
//
func (k *Kernel) Read(h kernel.Handle) logic.Value {
	s, err := k.signal(h)
	if err != nil {
		panic(err)
	}
	return s.cur
}

// Write schedules an update of h at the next delta cycle. Unlike Set, it
// also updates forced signals.
//
func (k *Kernel) Write(h kernel.Handle, v logic.Value) error {
	s, err := k.signal(h)
	if err != nil {
		return err
	}
	if v.Width() != s.typ.Width {
		return errors.Errorf("cannot write %q to %d bits signal %s", v, s.typ.Width, s.name)
	}
	k.drive(s, v)
	return nil
}

// Force holds h at its current value: processes of the design can no longer
// change it until Release is called. Writes through Write still apply.
//
func (k *Kernel) Force(h kernel.Handle) error {
	s, err := k.signal(h)
	if err != nil {
		return err
	}
	s.forced = true
	return nil
}

// Release undoes Force. Combinational processes are evaluated again at the
// next delta cycle so that they drive the signal again; sequential ones do at
// their next clock edge.
//
func (k *Kernel) Release(h kernel.Handle) error {
	s, err := k.signal(h)
	if err != nil {
		return err
	}
	if !s.forced {
		return nil
	}
	s.forced = false
	for _, p := range k.procs {
		if !p.seq {
			k.schedule(p)
		}
	}
	return nil
}

// Forced returns true if s is forced.
//
func (k *Kernel) Forced(s *Signal) bool { return s.forced }

// After registers fn to be called once, d time units from now. Callbacks due
// at the same time fire in registration order, after the design has settled.
//
func (k *Kernel) After(d simtime.Duration, fn func()) kernel.Token {
	if d < 0 {
		panic(errors.Errorf("negative delay %v", d))
	}
	t := &timer{k: k, at: k.now + d, seq: k.seq, fn: fn}
	k.seq++
	heap.Push(&k.timers, t)
	return t
}

// OnChange registers fn to be called every time the value of h changes.
//
func (k *Kernel) OnChange(h kernel.Handle, fn func()) kernel.Token {
	s, err := k.signal(h)
	if err != nil {
		panic(err)
	}
	w := &watcher{s: s, fn: fn}
	s.watchers = append(s.watchers, w)
	return w
}

// Finish stops the simulation. Callbacks and processes not yet run are
// dropped.
//
func (k *Kernel) Finish() {
	k.finished = true
}

// Finished returns true if Finish has been called.
//
func (k *Kernel) Finished() bool { return k.finished }

// settle runs delta cycles until no process is runnable and no signal update
// is pending.
//
func (k *Kernel) settle() error {
	for n := 0; len(k.runq) > 0 || len(k.pending) > 0; n++ {
		if k.finished {
			return nil
		}
		if n >= k.maxDeltas {
			return errors.Errorf("%s: no convergence after %d delta cycles at %v", k.name, n, k.now)
		}

		q := k.runq
		k.runq = nil
		for _, p := range q {
			p.queued = false
			p.fn(k)
		}

		k.cycle++
		k.deltas++
		var changed []*Signal
		ps := k.pending
		k.pending = nil
		for _, s := range ps {
			s.pending = false
			if s.next != s.cur {
				s.prev, s.cur = s.cur, s.next
				s.event = k.cycle
				changed = append(changed, s)
			}
		}
		for _, s := range changed {
			for _, p := range s.procs {
				k.schedule(p)
			}
		}
		for _, s := range changed {
			ws := append([]*watcher(nil), s.watchers...)
			for _, w := range ws {
				if k.finished {
					return nil
				}
				if w.s != nil {
					w.fn()
				}
			}
		}
	}
	return nil
}

// Run runs the simulation until Finish is called, nothing is left to
// simulate, the stop time is reached or ctx is done.
//
func (k *Kernel) Run(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = errors.Wrapf(e, "%s: panic at %v", k.name, k.now)
			} else {
				err = errors.Errorf("%s: panic at %v: %v", k.name, k.now, r)
			}
		}
	}()

	k.log.Debug().Str("entity", k.name).Int("signals", len(k.order)).Msg("simulation started")
	defer func() {
		k.log.Debug().Str("entity", k.name).Stringer("time", k.now).Uint64("deltas", k.deltas).Msg("simulation stopped")
	}()

	for {
		if err = ctx.Err(); err != nil {
			return errors.Wrap(err, "simulation interrupted")
		}
		if err = k.settle(); err != nil {
			return err
		}
		if k.finished || len(k.timers) == 0 {
			return nil
		}
		if next := k.timers[0].at; next > k.now {
			if k.stopTime > 0 && next > k.stopTime {
				k.now = k.stopTime
				return nil
			}
			k.now = next
			if e := k.log.Trace(); e.Enabled() {
				e.Str("entity", k.name).Stringer("time", k.now).Msg("time advance")
			}
			continue
		}
		var due []*timer
		for len(k.timers) > 0 && k.timers[0].at == k.now {
			due = append(due, heap.Pop(&k.timers).(*timer))
		}
		for _, t := range due {
			if k.finished {
				return nil
			}
			if t.fn != nil {
				t.fn()
			}
		}
	}
}

func (k *Kernel) String() string {
	return fmt.Sprintf("%s@%v", k.name, k.now)
}
