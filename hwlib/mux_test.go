package hwlib_test

import (
	"testing"

	"github.com/db47h/cosim/entity"
	"github.com/db47h/cosim/evsim"
	hl "github.com/db47h/cosim/hwlib"
	"github.com/db47h/cosim/logic"
	"github.com/db47h/cosim/simtime"
)

func TestMux(t *testing.T) {
	e := entity.New("mux")
	e.Input("x, y", logic.BitVector(4)).Input("sel", logic.BitType).Output("out", logic.BitVector(4))
	b := newBench(t, e, func(a *evsim.Arch) {
		hl.Mux(a, a.Port("x"), a.Port("y"), a.Port("sel"), a.Port("out"))
	})
	x, y, sel, out := b.sig("mux.x"), b.sig("mux.y"), b.sig("mux.sel"), b.sig("mux.out")
	td := []struct {
		x, y, sel, out logic.Value
	}{
		{"0001", "1000", "0", "0001"},
		{"0001", "1000", "1", "1000"},
		{"0110", "1000", "1", "1000"},
		{"0110", "1000", "0", "0110"},
	}
	for i, d := range td {
		d := d
		b.at(simtime.Duration(i*10+1), func() {
			b.set(x, d.x)
			b.set(y, d.y)
			b.set(sel, d.sel)
			b.k.After(0, func() {
				if got := b.k.Read(out); got != d.out {
					t.Errorf("mux(%s, %s, %s) = %s, expected %s", d.x, d.y, d.sel, got, d.out)
				}
			})
		})
	}
	b.run()
}
