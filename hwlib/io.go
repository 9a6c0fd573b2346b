// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwlib

import (
	"github.com/db47h/cosim/evsim"
	"github.com/db47h/cosim/logic"
)

// Input mounts a part that drives out with the value returned by f on every
// rising edge of clk. The value is truncated to the width of out.
//
//	Inputs: clk
//	Outputs: out
//	Function: out = f()
//
func Input(a *evsim.Arch, clk, out *evsim.Signal, f func() uint64) {
	w := out.Type().Width
	a.Seq(clk, func(k *evsim.Kernel) {
		k.Set(out, trunc(w, f()))
	})
}

// Output mounts a part that calls f with the value of in at the start of the
// simulation and every time in changes.
//
//	Inputs: in
//	Function: f(in)
//
func Output(a *evsim.Arch, in *evsim.Signal, f func(logic.Value)) {
	a.Comb(func(k *evsim.Kernel) {
		f(k.Get(in))
	}, in)
}
