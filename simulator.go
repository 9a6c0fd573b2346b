// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package cosim

import (
	"context"
	"os"
	"time"

	"github.com/db47h/cosim/entity"
	"github.com/db47h/cosim/kernel"
	"github.com/db47h/cosim/logic"
	"github.com/db47h/cosim/telemetry"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Design is a device under test: an entity and a way to instantiate
// simulation kernels running it.
//
type Design interface {
	// Entity returns the frozen entity of the design.
	Entity() *entity.Entity
	// NewKernel returns a new kernel instance. Ports must be accessible
	// through kernel.Lookup as "<entity>.<port>".
	NewKernel(args []string) (kernel.Kernel, error)
}

// Testbench is a test procedure. It runs as a coroutine; returning a non-nil
// error, or panicking, fails the test.
//
type Testbench func(s *Simulator, dut *DUT) error

// Option configures a Simulator.
//
type Option func(*Simulator)

// WithLogger sets the simulator's logger.
//
func WithLogger(l zerolog.Logger) Option {
	return func(s *Simulator) { s.log = l }
}

// WithMetrics sets the metrics updated by the simulator.
//
func WithMetrics(m *telemetry.Metrics) Option {
	return func(s *Simulator) { s.metrics = m }
}

// Simulator runs testbenches against a design.
//
// A Simulator runs one test at a time; Test is not reentrant. All wait
// functions must be called from the test coroutine or from tasks it spawned.
//
type Simulator struct {
	design  Design
	cfg     Config
	log     zerolog.Logger
	baseLog zerolog.Logger
	metrics *telemetry.Metrics

	// state of the running test
	k       kernel.Kernel
	dut     *DUT
	current *coroutine
	live    map[*coroutine]struct{}
	seq     uint64
	err     error
	running bool
}

// New returns a new Simulator for the given design. It validates the
// configuration and checks the build directory.
//
func New(d Design, cfg Config, opts ...Option) (*Simulator, error) {
	if d == nil || d.Entity() == nil {
		return nil, newFault(ConfigFault, "New", "no design")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.checkBuildDir(); err != nil {
		return nil, err
	}
	s := &Simulator{
		design:  d,
		cfg:     cfg,
		log:     zerolog.Nop(),
		metrics: telemetry.NewMetrics("cosim"),
	}
	for _, o := range opts {
		o(s)
	}
	s.baseLog = s.log
	return s, nil
}

// Metrics returns the simulator's metrics.
//
func (s *Simulator) Metrics() *telemetry.Metrics { return s.metrics }

// Entity returns the entity of the design under test.
//
func (s *Simulator) Entity() *entity.Entity { return s.design.Entity() }

// PortNames returns the names of all entity ports, in declaration order.
//
func (s *Simulator) PortNames() []string {
	ps := s.design.Entity().Ports()
	names := make([]string, len(ps))
	for i := range ps {
		names[i] = ps[i].Name
	}
	return names
}

// fail records the first error of a run and finishes the simulation.
//
func (s *Simulator) fail(err error) {
	if s.err == nil {
		s.err = err
		if s.k != nil {
			s.k.Finish()
		}
	}
}

func setenv(env map[string]string) (restore func()) {
	type saved struct {
		v  string
		ok bool
	}
	prev := make(map[string]saved, len(env))
	for k, v := range env {
		old, ok := os.LookupEnv(k)
		prev[k] = saved{old, ok}
		os.Setenv(k, v)
	}
	return func() {
		for k, v := range prev {
			if v.ok {
				os.Setenv(k, v.v)
			} else {
				os.Unsetenv(k)
			}
		}
	}
}

// Test runs tb in a new simulation kernel. It returns the first error
// reported by the testbench, one of its tasks or the kernel. If the simulation
// ends before tb returns, Test returns a liveness fault.
//
func (s *Simulator) Test(ctx context.Context, name string, tb Testbench) (err error) {
	if s.running {
		return newFault(ProtocolFault, "Test", "a test is already running")
	}
	if tb == nil {
		return newFault(ProtocolFault, "Test", "nil testbench")
	}
	s.running = true
	defer func() { s.running = false }()

	runID := uuid.New()
	ent := s.design.Entity()
	s.log = s.baseLog.With().Str("run_id", runID.String()).Str("entity", ent.Name()).Str("test", name).Logger()
	defer func() { s.log = s.baseLog }()

	defer setenv(s.cfg.ExtraEnv)()

	k, err := s.design.NewKernel(s.cfg.SimArgs)
	if err != nil {
		return newFault(ConfigFault, "Test", "%v", err)
	}
	s.k, s.err, s.current, s.seq = k, nil, nil, 0
	s.live = make(map[*coroutine]struct{})
	defer s.reset()

	if s.dut, err = s.wire(); err != nil {
		return err
	}

	top := s.newCoroutine("test "+name, func() error { return tb(s, s.dut) })
	top.onDone = func(err error) {
		if err != nil {
			s.fail(err)
			return
		}
		k.Finish()
	}
	start := k.After(0, func() { s.resume(top) })
	defer start.Dispose()

	s.log.Info().Msg("test started")
	t0 := time.Now()
	runErr := k.Run(ctx)
	if aerr := s.abandon(); aerr != nil && runErr == nil {
		runErr = aerr
	}

	switch {
	case s.err != nil:
		err = s.err
	case runErr != nil:
		err = errors.Wrap(runErr, "simulation failed")
	case !top.done:
		err = newFault(LivenessFault, "Test", "simulation ended at %v before the testbench returned", k.Now())
	}

	s.metrics.TestDone(err == nil)
	ev := s.log.Info()
	if err != nil {
		ev = s.log.Error().Err(err)
	}
	ev.Stringer("time", k.Now()).Dur("elapsed", time.Since(t0)).Msg("test done")
	return err
}

func (s *Simulator) reset() {
	s.k, s.dut, s.current, s.live = nil, nil, nil, nil
}

// sync refreshes the cached value of every port. It is called before each
// coroutine resumption so that a coroutine woken by a change of one signal
// sees every other signal that changed in the same delta cycle. Values
// written by the testbench and not yet applied by the kernel are kept.
//
func (s *Simulator) sync() {
	if s.dut == nil {
		return
	}
	for _, p := range s.dut.ports {
		p.refresh()
	}
}

// wire resolves the kernel handle of every entity port and builds the port
// proxies.
//
func (s *Simulator) wire() (*DUT, error) {
	ent := s.design.Entity()
	dut := &DUT{name: ent.Name(), index: make(map[string]*Port, ent.Len())}
	for _, ep := range ent.Ports() {
		h, err := s.k.Lookup(ent.Name() + "." + ep.Name)
		if err != nil {
			return nil, newFault(ConfigFault, "Test", "cannot resolve port %s: %v", ep.Name, err)
		}
		t := ep.Type
		if t.IsVector() {
			switch s.cfg.CastVectors {
			case CastNone:
			case CastUnsigned:
				t = t.As(logic.KindUnsigned)
			case CastSigned:
				t = t.As(logic.KindSigned)
			default:
				return nil, newFault(ConfigFault, "Test", "unknown cast policy %q", s.cfg.CastVectors)
			}
		}
		p := &Port{s: s, name: ep.Name, dir: ep.Dir, typ: t, h: h, val: s.k.Read(h)}
		dut.ports = append(dut.ports, p)
		dut.index[ep.Name] = p
	}
	s.log.Debug().Int("ports", len(dut.ports)).Str("cast", string(s.cfg.CastVectors)).Msg("ports wired")
	return dut, nil
}

func (s *Simulator) category(op string, dir entity.Direction) []*Port {
	if s.dut == nil {
		panic(newFault(ProtocolFault, op, "no test running"))
	}
	return s.dut.filter(dir)
}

// Inputs returns the input ports of the running test.
//
func (s *Simulator) Inputs() []*Port { return s.category("Inputs", entity.Input) }

// Outputs returns the output ports of the running test.
//
func (s *Simulator) Outputs() []*Port { return s.category("Outputs", entity.Output) }

// Inouts returns the bidirectional ports of the running test.
//
func (s *Simulator) Inouts() []*Port { return s.category("Inouts", entity.Inout) }

// InitInputs drives every input port to f.
//
func (s *Simulator) InitInputs(f logic.Fill) {
	for _, p := range s.category("InitInputs", entity.Input) {
		p.Fill(f)
	}
}

// InitOutputs drives every output port to f. This is the only way for a
// testbench to write to output ports.
//
func (s *Simulator) InitOutputs(f logic.Fill) {
	for _, p := range s.category("InitOutputs", entity.Output) {
		p.set("InitOutputs", f.Value(p.typ), true)
	}
}

// InitInouts drives every bidirectional port to f.
//
func (s *Simulator) InitInouts(f logic.Fill) {
	for _, p := range s.category("InitInouts", entity.Inout) {
		p.Fill(f)
	}
}

func (s *Simulator) forcer(op string, p *Port) (kernel.Forcer, error) {
	if s.dut == nil {
		return nil, newFault(ProtocolFault, op, "no test running")
	}
	if p == nil || p.s != s {
		return nil, newFault(ProtocolFault, op, "port does not belong to the running test")
	}
	f, ok := s.k.(kernel.Forcer)
	if !ok {
		return nil, newFault(ConfigFault, op, "kernel cannot force signals")
	}
	return f, nil
}

// Freeze holds p at its current value: the design can no longer change it
// until Release is called. Freezing a view freezes the whole port. The
// testbench can still write to frozen input and inout ports.
//
func (s *Simulator) Freeze(p *Port) error {
	f, err := s.forcer("Freeze", p)
	if err != nil {
		return err
	}
	if err = f.Force(p.h); err != nil {
		return newFault(InternalFault, "Freeze", "%v", err)
	}
	s.log.Debug().Str("port", p.base().name).Msg("port frozen")
	return nil
}

// Release lets the design drive a port frozen by Freeze again.
//
func (s *Simulator) Release(p *Port) error {
	f, err := s.forcer("Release", p)
	if err != nil {
		return err
	}
	if err = f.Release(p.h); err != nil {
		return newFault(InternalFault, "Release", "%v", err)
	}
	s.log.Debug().Str("port", p.base().name).Msg("port released")
	return nil
}
