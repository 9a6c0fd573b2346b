package hwlib_test

import (
	"math/rand"
	"testing"

	"github.com/db47h/cosim/entity"
	"github.com/db47h/cosim/evsim"
	hl "github.com/db47h/cosim/hwlib"
	"github.com/db47h/cosim/logic"
	"github.com/db47h/cosim/simtime"
)

func TestDFF(t *testing.T) {
	e := entity.New("dff")
	e.Input("clk", logic.BitType).Input("in", logic.BitVector(4)).Output("out", logic.BitVector(4))
	b := newBench(t, e, func(a *evsim.Arch) {
		hl.DFF(a, a.Port("clk"), a.Port("in"), a.Port("out"))
	})
	clk, in, out := b.sig("dff.clk"), b.sig("dff.in"), b.sig("dff.out")
	b.clock(clk, 10, 400)
	var prev uint64
	for i := 15; i >= 0; i-- {
		// edges at 10 + 20*n
		at := simtime.Duration(10 + 20*(15-i))
		i := uint64(i)
		b.at(at-5, func() {
			b.set(in, u(4, i))
			b.k.After(0, func() {
				if got := val(t, b.k.Read(out)); got != prev {
					t.Errorf("before edge: expected out = %d, got %d", prev, got)
				}
			})
		})
		b.at(at+5, func() {
			if got := val(t, b.k.Read(out)); got != i {
				t.Errorf("after edge: expected out = %d, got %d", i, got)
			}
			prev = i
			b.set(in, "0000")
		})
	}
	b.run()
}

func TestDelay(t *testing.T) {
	e := entity.New("dly")
	e.Input("clk", logic.BitType).Input("in", logic.BitVector(8)).Output("out", logic.BitVector(8))
	b := newBench(t, e, func(a *evsim.Arch) {
		hl.Delay(a, "line", 3, a.Port("clk"), a.Port("in"), a.Port("out"))
	})
	if _, err := b.k.Lookup("dly.line.stage2"); err != nil {
		t.Fatal(err)
	}
	clk, in, out := b.sig("dly.clk"), b.sig("dly.in"), b.sig("dly.out")
	b.clock(clk, 10, 1000)
	var hist []uint64
	for n := 0; n < 20; n++ {
		v := uint64(rand.Intn(256))
		at := simtime.Duration(10 + 20*n)
		n := n
		b.at(at-5, func() {
			hist = append(hist, v)
			b.set(in, u(8, v))
		})
		b.at(at+5, func() {
			if n < 2 {
				return
			}
			if got := val(t, b.k.Read(out)); got != hist[n-2] {
				t.Errorf("cycle %d: expected %d, got %d", n, hist[n-2], got)
			}
		})
	}
	b.run()
}
