package cosim_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/db47h/cosim"
	"github.com/db47h/cosim/entity"
	"github.com/db47h/cosim/evsim"
	"github.com/db47h/cosim/hwlib"
	"github.com/db47h/cosim/kernel"
	"github.com/db47h/cosim/logic"
	"github.com/db47h/cosim/simtime"
	"github.com/db47h/cosim/telemetry"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
)

func trace(t *testing.T, err error) {
	t.Helper()
	if err, ok := err.(interface {
		StackTrace() errors.StackTrace
	}); ok {
		for _, f := range err.StackTrace() {
			t.Logf("%+v ", f)
		}
	}
}

func elaborate(t *testing.T, b *entity.Builder, arch evsim.Architecture) *evsim.Design {
	t.Helper()
	d, err := evsim.Elaborate(b, arch)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func orDesign(t *testing.T) *evsim.Design {
	return elaborate(t,
		entity.New("or_gate").Input("inp_a, inp_b", logic.BitType).Output("result", logic.BitType),
		func(a *evsim.Arch) {
			hwlib.Or(a, a.Port("inp_a"), a.Port("inp_b"), a.Port("result"))
		})
}

func counterDesign(t *testing.T) *evsim.Design {
	return elaborate(t,
		entity.New("counter").Input("clk, rst", logic.BitType).Output("count", logic.Unsigned(4)),
		func(a *evsim.Arch) {
			hwlib.Counter(a, a.Port("clk"), a.Port("rst"), a.Port("count"))
		})
}

func vecDesign(t *testing.T) *evsim.Design {
	return elaborate(t,
		entity.New("vec").Input("data", logic.BitVector(8)).Output("copy", logic.BitVector(8)),
		func(a *evsim.Arch) {
			hwlib.Concat(a, a.Port("copy"), a.Port("data"))
		})
}

// wires has no architecture: testbenches drive its inputs directly.
func wires(t *testing.T) *evsim.Design {
	return elaborate(t, entity.New("wires").Input("clk, rst", logic.BitType), func(a *evsim.Arch) {})
}

func newSim(t *testing.T, d cosim.Design, cfg cosim.Config, opts ...cosim.Option) *cosim.Simulator {
	t.Helper()
	s, err := cosim.New(d, cfg, opts...)
	if err != nil {
		trace(t, err)
		t.Fatal(err)
	}
	return s
}

func run(t *testing.T, s *cosim.Simulator, tb cosim.Testbench) error {
	t.Helper()
	return s.Test(context.Background(), t.Name(), tb)
}

func mustRun(t *testing.T, s *cosim.Simulator, tb cosim.Testbench) {
	t.Helper()
	if err := run(t, s, tb); err != nil {
		trace(t, err)
		t.Fatal(err)
	}
}

func TestOrGate(t *testing.T) {
	s := newSim(t, orDesign(t), cosim.Config{})
	mustRun(t, s, func(s *cosim.Simulator, dut *cosim.DUT) error {
		a, b, y := dut.Port("inp_a"), dut.Port("inp_b"), dut.Port("result")
		for i := 0; i < 4; i++ {
			va, vb := i&1 != 0, i&2 != 0
			a.SetBool(va)
			b.SetBool(vb)
			s.DeltaStep()
			if y.Bool() != (va || vb) {
				return errors.Errorf("%v | %v: got %v", va, vb, y.Bool())
			}
		}
		if s.Now() != 0 {
			return errors.Errorf("delta steps advanced time to %v", s.Now())
		}
		return nil
	})
}

func TestConfigFaults(t *testing.T) {
	d := orDesign(t)
	_, err := cosim.New(d, cosim.Config{CastVectors: "bogus"})
	if !cosim.IsFault(err, cosim.ConfigFault) {
		t.Errorf("bad cast policy: expected configuration fault, got %v", err)
	}
	_, err = cosim.New(d, cosim.Config{SimArgs: []string{""}})
	if !cosim.IsFault(err, cosim.ConfigFault) {
		t.Errorf("empty sim arg: expected configuration fault, got %v", err)
	}
	_, err = cosim.New(nil, cosim.Config{})
	if !cosim.IsFault(err, cosim.ConfigFault) {
		t.Errorf("nil design: expected configuration fault, got %v", err)
	}

	dir := filepath.Join(t.TempDir(), "build")
	_, err = cosim.New(d, cosim.Config{BuildDir: dir})
	if !cosim.IsFault(err, cosim.ConfigFault) {
		t.Errorf("missing build dir: expected configuration fault, got %v", err)
	}
	if _, err = cosim.New(d, cosim.Config{BuildDir: dir, Mkdir: true}); err != nil {
		t.Fatal(err)
	}
	if fi, err := os.Stat(dir); err != nil || !fi.IsDir() {
		t.Errorf("build dir not created: %v", err)
	}

	s := newSim(t, d, cosim.Config{SimArgs: []string{"--bogus=1"}})
	err = run(t, s, func(s *cosim.Simulator, dut *cosim.DUT) error { return nil })
	if !cosim.IsFault(err, cosim.ConfigFault) {
		t.Errorf("bad kernel argument: expected configuration fault, got %v", err)
	}
}

func TestExtraEnv(t *testing.T) {
	const key = "COSIM_TEST_EXTRA_ENV"
	os.Unsetenv(key)
	s := newSim(t, orDesign(t), cosim.Config{ExtraEnv: map[string]string{key: "42"}})
	mustRun(t, s, func(s *cosim.Simulator, dut *cosim.DUT) error {
		if v := os.Getenv(key); v != "42" {
			return errors.Errorf("got %s=%q", key, v)
		}
		return nil
	})
	if v, ok := os.LookupEnv(key); ok {
		t.Errorf("%s not restored, got %q", key, v)
	}
}

func TestLivenessEarlyEnd(t *testing.T) {
	s := newSim(t, orDesign(t), cosim.Config{SimArgs: []string{"--stop-time=100ns"}})
	err := run(t, s, func(s *cosim.Simulator, dut *cosim.DUT) error {
		s.Wait(simtime.Microsecond)
		return errors.New("should not be reached")
	})
	if !cosim.IsFault(err, cosim.LivenessFault) {
		t.Fatalf("expected liveness fault, got %v", err)
	}
}

func TestAssertion(t *testing.T) {
	s := newSim(t, orDesign(t), cosim.Config{})
	err := run(t, s, func(s *cosim.Simulator, dut *cosim.DUT) error {
		s.DeltaStep()
		cosim.Assert(dut.Port("result").Bool(), "result is %v", dut.Port("result").Value())
		return nil
	})
	if !cosim.IsFault(err, cosim.AssertionFault) {
		t.Fatalf("expected assertion fault, got %v", err)
	}
	if !strings.Contains(err.Error(), "result is 0") {
		t.Errorf("unexpected message %q", err)
	}
}

func TestPanics(t *testing.T) {
	s := newSim(t, orDesign(t), cosim.Config{})
	err := run(t, s, func(s *cosim.Simulator, dut *cosim.DUT) error {
		panic("oops")
	})
	if err == nil || !strings.Contains(err.Error(), "panic: oops") {
		t.Errorf("unexpected error %v", err)
	}
	err = run(t, s, func(s *cosim.Simulator, dut *cosim.DUT) error {
		panic(errors.New("broken"))
	})
	if err == nil || err.Error() != "panic: broken" {
		t.Errorf("unexpected error %v", err)
	}
}

func TestProtocolFaults(t *testing.T) {
	s := newSim(t, orDesign(t), cosim.Config{})
	for _, tc := range []struct {
		name string
		tb   cosim.Testbench
	}{
		{"write output", func(s *cosim.Simulator, dut *cosim.DUT) error {
			dut.Port("result").SetBool(true)
			return nil
		}},
		{"unknown port", func(s *cosim.Simulator, dut *cosim.DUT) error {
			dut.Port("nope")
			return nil
		}},
		{"negative wait", func(s *cosim.Simulator, dut *cosim.DUT) error {
			s.Wait(-1)
			return nil
		}},
		{"zero clock cycles", func(s *cosim.Simulator, dut *cosim.DUT) error {
			return s.ClockCycles(dut.Port("inp_a"), 0, true)
		}},
		{"reentrant test", func(s *cosim.Simulator, dut *cosim.DUT) error {
			return s.Test(context.Background(), "inner", func(*cosim.Simulator, *cosim.DUT) error { return nil })
		}},
		{"bad edge policy", func(s *cosim.Simulator, dut *cosim.DUT) error {
			return s.ClockEdge(cosim.NewClock(dut.Port("inp_a"), nil, cosim.Edge(42)))
		}},
		{"nil reset", func(s *cosim.Simulator, dut *cosim.DUT) error {
			return s.ResetCond(nil)
		}},
	} {
		err := run(t, s, tc.tb)
		if !cosim.IsFault(err, cosim.ProtocolFault) {
			t.Errorf("%s: expected protocol fault, got %v", tc.name, err)
		}
	}

	func() {
		defer func() {
			err, _ := recover().(error)
			if !cosim.IsFault(err, cosim.ProtocolFault) {
				t.Errorf("wait outside of a test: expected protocol fault, got %v", err)
			}
		}()
		s.DeltaStep()
	}()
}

func TestLoggingAndMetrics(t *testing.T) {
	var buf bytes.Buffer
	m := telemetry.NewMetrics("test")
	s := newSim(t, orDesign(t), cosim.Config{}, cosim.WithLogger(zerolog.New(&buf)), cosim.WithMetrics(m))
	if s.Metrics() != m {
		t.Fatal("metrics not set")
	}
	mustRun(t, s, func(s *cosim.Simulator, dut *cosim.DUT) error {
		s.Wait(10)
		s.StartSoon("noop", func() error { return nil })
		s.Wait(10)
		return nil
	})
	_ = run(t, s, func(s *cosim.Simulator, dut *cosim.DUT) error { return errors.New("fail") })

	if n := testutil.ToFloat64(m.Tests.WithLabelValues(telemetry.ResultPassed)); n != 1 {
		t.Errorf("passed tests: got %v, expected 1", n)
	}
	if n := testutil.ToFloat64(m.Tests.WithLabelValues(telemetry.ResultFailed)); n != 1 {
		t.Errorf("failed tests: got %v, expected 1", n)
	}
	if n := testutil.ToFloat64(m.TasksSpawned); n != 1 {
		t.Errorf("spawned tasks: got %v, expected 1", n)
	}
	// two waits in the first test
	if n := testutil.ToFloat64(m.Suspensions); n != 2 {
		t.Errorf("suspensions: got %v, expected 2", n)
	}

	out := buf.String()
	for _, s := range []string{`"message":"test done"`, `"run_id":`, `"entity":"or_gate"`, `"test":"TestLoggingAndMetrics"`} {
		if !strings.Contains(out, s) {
			t.Errorf("log output does not contain %s", s)
		}
	}
}

func TestSimulatorPorts(t *testing.T) {
	s := newSim(t, orDesign(t), cosim.Config{})
	if got := strings.Join(s.PortNames(), ","); got != "inp_a,inp_b,result" {
		t.Errorf("got port names %s", got)
	}
	mustRun(t, s, func(s *cosim.Simulator, dut *cosim.DUT) error {
		if n := len(s.Inputs()); n != 2 {
			return errors.Errorf("got %d inputs", n)
		}
		if n := len(s.Outputs()); n != 1 {
			return errors.Errorf("got %d outputs", n)
		}
		if n := len(s.Inouts()); n != 0 {
			return errors.Errorf("got %d inouts", n)
		}
		return nil
	})
}

// plainKernel hides the optional interfaces of the kernel it wraps.
type plainKernel struct{ kernel.Kernel }

type plainDesign struct{ *evsim.Design }

func (d plainDesign) NewKernel(args []string) (kernel.Kernel, error) {
	k, err := d.Design.NewKernel(args)
	return plainKernel{k}, err
}

func TestFreeze(t *testing.T) {
	s := newSim(t, orDesign(t), cosim.Config{})
	mustRun(t, s, func(s *cosim.Simulator, dut *cosim.DUT) error {
		a, b, y := dut.Port("inp_a"), dut.Port("inp_b"), dut.Port("result")
		s.InitInputs(logic.Null)
		s.DeltaStep()
		if err := s.Freeze(y); err != nil {
			return err
		}
		a.SetBool(true)
		s.DeltaStep()
		if y.Bool() {
			return errors.New("frozen result driven by the design")
		}
		if err := s.Release(y); err != nil {
			return err
		}
		s.DeltaStep()
		if !y.Bool() {
			return errors.New("released result not driven by the design")
		}

		// frozen inputs can still be written by the testbench
		if err := s.Freeze(b.Index(0)); err != nil {
			return err
		}
		a.SetBool(false)
		b.SetBool(true)
		s.DeltaStep()
		if !y.Bool() {
			return errors.New("write to frozen input lost")
		}
		return s.Release(b)
	})

	mustRun(t, s, func(s *cosim.Simulator, dut *cosim.DUT) error {
		if err := s.Freeze(nil); !cosim.IsFault(err, cosim.ProtocolFault) {
			return errors.Errorf("nil port: expected protocol fault, got %v", err)
		}
		return nil
	})
	var port *cosim.Port
	mustRun(t, s, func(s *cosim.Simulator, dut *cosim.DUT) error {
		port = dut.Port("result")
		return nil
	})
	if err := s.Freeze(port); !cosim.IsFault(err, cosim.ProtocolFault) {
		t.Errorf("no test running: expected protocol fault, got %v", err)
	}

	s = newSim(t, plainDesign{orDesign(t)}, cosim.Config{})
	mustRun(t, s, func(s *cosim.Simulator, dut *cosim.DUT) error {
		if err := s.Freeze(dut.Port("result")); !cosim.IsFault(err, cosim.ConfigFault) {
			return errors.Errorf("expected configuration fault, got %v", err)
		}
		return nil
	})
}
