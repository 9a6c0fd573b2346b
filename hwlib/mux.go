// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwlib

import "github.com/db47h/cosim/evsim"

// Mux mounts a multiplexer.
//
//	Inputs: x, y, sel
//	Outputs: out
//	Function: If sel=0 then out=x else out=y.
//
func Mux(a *evsim.Arch, x, y, sel, out *evsim.Signal) {
	checkWidth("Mux", out.Type().Width, x, y)
	a.Comb(func(k *evsim.Kernel) {
		if k.Get(sel).Bool() {
			k.Set(out, k.Get(y))
		} else {
			k.Set(out, k.Get(x))
		}
	}, x, y, sel)
}
