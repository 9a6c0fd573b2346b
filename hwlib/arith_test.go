package hwlib_test

import (
	"testing"
	"testing/quick"

	"github.com/db47h/cosim/entity"
	"github.com/db47h/cosim/evsim"
	hl "github.com/db47h/cosim/hwlib"
	"github.com/db47h/cosim/logic"
	"github.com/db47h/cosim/simtime"
)

func TestAddSub(t *testing.T) {
	e := entity.New("alu")
	e.Input("x, y", logic.Unsigned(8)).Output("sum, diff", logic.Unsigned(8))
	b := newBench(t, e, func(a *evsim.Arch) {
		x, y := a.Port("x"), a.Port("y")
		hl.Add(a, x, y, a.Port("sum"))
		hl.Sub(a, x, y, a.Port("diff"))
	})
	x, y, sum, diff := b.sig("alu.x"), b.sig("alu.y"), b.sig("alu.sum"), b.sig("alu.diff")
	type result struct{ x, y, sum, diff uint8 }
	var results []result
	var now simtime.Duration
	f := func(vx, vy uint8) bool {
		now += 10
		b.at(now, func() {
			b.set(x, u(8, uint64(vx)))
			b.set(y, u(8, uint64(vy)))
			b.k.After(0, func() {
				results = append(results, result{vx, vy, uint8(val(t, b.k.Read(sum))), uint8(val(t, b.k.Read(diff)))})
			})
		})
		return true
	}
	if err := quick.Check(f, nil); err != nil {
		t.Fatal(err)
	}
	b.run()
	if len(results) == 0 {
		t.Fatal("no results")
	}
	for _, r := range results {
		if r.sum != r.x+r.y || r.diff != r.x-r.y {
			t.Errorf("%d, %d: sum = %d, diff = %d", r.x, r.y, r.sum, r.diff)
		}
	}
}

func TestAddMetavalue(t *testing.T) {
	e := entity.New("add")
	e.Input("x, y", logic.Unsigned(2)).Output("sum", logic.Unsigned(2))
	b := newBench(t, e, func(a *evsim.Arch) {
		hl.Add(a, a.Port("x"), a.Port("y"), a.Port("sum"))
	})
	b.at(1, func() { b.set(b.sig("add.x"), "0U") })
	b.at(2, func() {
		if got := b.k.Read(b.sig("add.sum")); got != "XX" {
			t.Errorf("expected XX, got %s", got)
		}
	})
	b.run()
}

func TestCounter(t *testing.T) {
	e := entity.New("cnt")
	e.Input("clk, rst", logic.BitType).Output("q", logic.Unsigned(3))
	b := newBench(t, e, func(a *evsim.Arch) {
		hl.Counter(a, a.Port("clk"), a.Port("rst"), a.Port("q"))
	})
	clk, rst, q := b.sig("cnt.clk"), b.sig("cnt.rst"), b.sig("cnt.q")
	// rising edges at 10, 30, 50, ...
	b.clock(clk, 10, 400)
	var got []uint64
	for i := 0; i < 12; i++ {
		b.at(simtime.Duration(20*i+15), func() { got = append(got, val(t, b.k.Read(q))) })
	}
	b.at(161, func() { b.set(rst, "1") })
	b.at(181, func() { b.set(rst, "0") })
	b.run()
	// wraps at 8, reset sampled on the edge at 170
	exp := []uint64{1, 2, 3, 4, 5, 6, 7, 0, 0, 1, 2, 3}
	for i := range exp {
		if got[i] != exp[i] {
			t.Fatalf("got %v, expected %v", got, exp)
		}
	}
}
