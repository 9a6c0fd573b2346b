// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwlib

import (
	"strconv"

	"github.com/db47h/cosim/evsim"
)

// DFF mounts a clocked data flip flop.
//
//	Inputs: clk, in
//	Outputs: out
//	Function: out(t) = in(t-1) // where t is the current clock cycle.
//
func DFF(a *evsim.Arch, clk, in, out *evsim.Signal) {
	checkWidth("DFF", in.Type().Width, out)
	a.Seq(clk, func(k *evsim.Kernel) {
		k.Set(out, k.Get(in))
	})
}

// Delay mounts a chain of n DFFs. Intermediate stages are internal signals
// of a sub-scope named name.
//
//	Inputs: clk, in
//	Outputs: out
//	Function: out(t) = in(t-n)
//
func Delay(a *evsim.Arch, name string, n int, clk, in, out *evsim.Signal) {
	if n < 1 {
		n = 1
	}
	sub := a.Sub(name)
	prev := in
	for i := 1; i < n; i++ {
		s := sub.Signal("stage"+strconv.Itoa(i), in.Type())
		DFF(sub, clk, prev, s)
		prev = s
	}
	DFF(sub, clk, prev, out)
}
