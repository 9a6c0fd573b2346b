// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package evsim provides an in-process, event-driven simulation kernel.
//
// A design is described by an entity (its ports, see package entity) and an
// Architecture, a function that mounts processes into the kernel:
//
//	b := entity.New("inverter")
//	b.Input("a", logic.BitType).Output("y", logic.BitType)
//	d, err := evsim.Elaborate(b, func(a *evsim.Arch) {
//		in, out := a.Port("a"), a.Port("y")
//		a.Comb(func(k *evsim.Kernel) { k.Set(out, k.Get(in).Not()) }, in)
//	})
//
// Simulation proceeds in delta cycles: processes read the current frame of
// signal values and write the next one. Once all runnable processes have been
// evaluated, pending values are applied, processes sensitive to changed
// signals are queued and change callbacks fire. This repeats until the design
// is stable, then timed callbacks due at the current time are fired, or time
// advances to the next one.
//
// Kernels implement kernel.Kernel and can be driven by the cosim scheduler.
//
package evsim
