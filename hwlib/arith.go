// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwlib

import (
	"github.com/db47h/cosim/evsim"
	"github.com/db47h/cosim/logic"
)

// trunc returns the lowest width bits of v as a value.
func trunc(width int, v uint64) logic.Value {
	if width < 64 {
		v &= 1<<uint(width) - 1
	}
	r, err := logic.FromUint(width, v)
	if err != nil {
		panic(err)
	}
	return r
}

type arith func(x, y uint64) uint64

func (f arith) mount(name string, a *evsim.Arch, x, y, out *evsim.Signal) {
	w := out.Type().Width
	checkWidth(name, w, x, y)
	a.Comb(func(k *evsim.Kernel) {
		vx, ex := k.Get(x).Uint64()
		vy, ey := k.Get(y).Uint64()
		if ex != nil || ey != nil {
			k.Set(out, logic.Unknown.Value(out.Type()))
			return
		}
		k.Set(out, trunc(w, f(vx, vy)))
	}, x, y)
}

// Add mounts a modular adder. Metavalues on any input yield an unknown
// result.
//
//	Inputs: x, y
//	Outputs: out
//	Function: out = (x + y) mod 2^width
//
func Add(a *evsim.Arch, x, y, out *evsim.Signal) {
	arith(func(x, y uint64) uint64 { return x + y }).mount("Add", a, x, y, out)
}

// Sub mounts a modular subtractor.
//
//	Inputs: x, y
//	Outputs: out
//	Function: out = (x - y) mod 2^width
//
func Sub(a *evsim.Arch, x, y, out *evsim.Signal) {
	arith(func(x, y uint64) uint64 { return x - y }).mount("Sub", a, x, y, out)
}

// Counter mounts a free running counter with an optional synchronous, active
// high reset. rst may be nil.
//
//	Inputs: clk, rst
//	Outputs: out
//	Function: if rst(t-1) out(t) = 0 else out(t) = out(t-1) + 1
//
func Counter(a *evsim.Arch, clk, rst, out *evsim.Signal) {
	w := out.Type().Width
	a.Seq(clk, func(k *evsim.Kernel) {
		if rst != nil && k.Get(rst).Bool() {
			k.Set(out, logic.Null.Value(out.Type()))
			return
		}
		v, err := k.Get(out).Uint64()
		if err != nil {
			k.Set(out, logic.Unknown.Value(out.Type()))
			return
		}
		k.Set(out, trunc(w, v+1))
	})
}
