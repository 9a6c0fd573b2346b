package hwlib_test

import (
	"context"
	"testing"

	"github.com/db47h/cosim/entity"
	"github.com/db47h/cosim/evsim"
	"github.com/db47h/cosim/logic"
	"github.com/db47h/cosim/simtime"
)

// bench drives a kernel with timed callbacks.
type bench struct {
	t *testing.T
	k *evsim.Kernel
}

func newBench(t *testing.T, b *entity.Builder, arch evsim.Architecture) *bench {
	t.Helper()
	d, err := evsim.Elaborate(b, arch)
	if err != nil {
		t.Fatal(err)
	}
	k, err := d.Instantiate()
	if err != nil {
		t.Fatal(err)
	}
	return &bench{t, k}
}

func (b *bench) sig(name string) *evsim.Signal {
	b.t.Helper()
	h, err := b.k.Lookup(name)
	if err != nil {
		b.t.Fatal(err)
	}
	return h.(*evsim.Signal)
}

func (b *bench) at(d simtime.Duration, fn func()) { b.k.After(d, fn) }

func (b *bench) run() {
	b.t.Helper()
	if err := b.k.Run(context.Background()); err != nil {
		b.t.Fatal(err)
	}
}

func (b *bench) set(s *evsim.Signal, v logic.Value) {
	b.t.Helper()
	if err := b.k.Write(s, v); err != nil {
		b.t.Fatal(err)
	}
}

func u(width int, v uint64) logic.Value {
	r, err := logic.FromUint(width, v)
	if err != nil {
		panic(err)
	}
	return r
}

func val(t *testing.T, v logic.Value) uint64 {
	t.Helper()
	n, err := v.Uint64()
	if err != nil {
		t.Fatal(err)
	}
	return n
}

// clock toggles clk every half period, starting low, until stop.
func (b *bench) clock(clk *evsim.Signal, half, stop simtime.Duration) {
	var tick func()
	tick = func() {
		if b.k.Now() >= stop {
			return
		}
		b.k.Write(clk, b.k.Read(clk).Not())
		b.k.After(half, tick)
	}
	b.k.After(half, tick)
}
