// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package hwlib provides a library of reusable components for evsim
// architectures.
//
// Components are mounted by calling them from an architecture with the
// signals they connect to. They panic if signal widths do not match, which
// is reported as an elaboration error by evsim.
//
// Copyright 2018 Denis Bernard <db047h@gmail.com>
//
// This package is licensed under the MIT license. See license text in the LICENSE file.
//
package hwlib

import (
	"github.com/db47h/cosim/evsim"
	"github.com/db47h/cosim/logic"
	"github.com/pkg/errors"
)

func checkWidth(name string, w int, ss ...*evsim.Signal) {
	for _, s := range ss {
		if s.Type().Width != w {
			panic(errors.Errorf("%s: signal %s has width %d, expected %d", name, s.Name(), s.Type().Width, w))
		}
	}
}

// Not mounts a bitwise NOT gate.
//
//	Inputs: in
//	Outputs: out
//	Function: out = !in
//
func Not(a *evsim.Arch, in, out *evsim.Signal) {
	checkWidth("Not", in.Type().Width, out)
	a.Comb(func(k *evsim.Kernel) { k.Set(out, k.Get(in).Not()) }, in)
}

// other gates
type gate func(x, y logic.Value) logic.Value

func (g gate) mount(name string, a *evsim.Arch, x, y, out *evsim.Signal) {
	checkWidth(name, x.Type().Width, y, out)
	a.Comb(func(k *evsim.Kernel) { k.Set(out, g(k.Get(x), k.Get(y))) }, x, y)
}

var (
	and = gate(logic.Value.And)
	or  = gate(logic.Value.Or)
	xor = gate(logic.Value.Xor)
)

// And mounts a bitwise AND gate.
//
//	Inputs: x, y
//	Outputs: out
//	Function: out = x && y
//
func And(a *evsim.Arch, x, y, out *evsim.Signal) { and.mount("And", a, x, y, out) }

// Or mounts a bitwise OR gate.
//
//	Inputs: x, y
//	Outputs: out
//	Function: out = x || y
//
func Or(a *evsim.Arch, x, y, out *evsim.Signal) { or.mount("Or", a, x, y, out) }

// Xor mounts a bitwise XOR gate.
//
//	Inputs: x, y
//	Outputs: out
//	Function: out = (x && !y) || (!x && y)
//
func Xor(a *evsim.Arch, x, y, out *evsim.Signal) { xor.mount("Xor", a, x, y, out) }

// Concat mounts a concatenation of its inputs. The first input ends up in the
// most significant bits of out.
//
//	Inputs: in...
//	Outputs: out
//	Function: out = in[0] & in[1] & ... & in[n-1]
//
func Concat(a *evsim.Arch, out *evsim.Signal, in ...*evsim.Signal) {
	w := 0
	for _, s := range in {
		w += s.Type().Width
	}
	checkWidth("Concat", w, out)
	a.Comb(func(k *evsim.Kernel) {
		var v logic.Value
		for _, s := range in {
			v = v.Concat(k.Get(s))
		}
		k.Set(out, v)
	}, in...)
}
