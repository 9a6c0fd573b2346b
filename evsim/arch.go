// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package evsim

import (
	"github.com/db47h/cosim/entity"
	"github.com/db47h/cosim/logic"
	"github.com/pkg/errors"
)

// An Architecture describes the implementation of an entity: it looks up or
// creates signals and mounts processes into an Arch.
//
// Architectures are run once per kernel instance and once more during
// elaboration. They must not keep references to the signals they get between
// runs. Errors are reported by panicking; the panic is recovered by the caller.
//
type Architecture func(a *Arch)

// An Arch maps names to signals in a given scope of a kernel and mounts
// processes. Port names are only visible from the top level scope.
//
type Arch struct {
	k      *Kernel
	b      *entity.Builder // non-nil during elaboration
	top    string
	prefix string
	ports  map[string]*Signal
}

func newArch(k *Kernel, top string, b *entity.Builder) *Arch {
	return &Arch{k: k, b: b, top: top, prefix: top + ".", ports: make(map[string]*Signal)}
}

// Kernel returns the kernel the architecture is being mounted into.
//
func (a *Arch) Kernel() *Kernel { return a.k }

// Elaborating returns true if the architecture is run against a probe kernel
// in order to collect dynamic ports.
//
func (a *Arch) Elaborating() bool { return a.b != nil }

// Port returns the signal attached to the given entity port.
// This function panics if the port does not exist or if a is not the top level
// scope.
//
func (a *Arch) Port(name string) *Signal {
	s, ok := a.ports[name]
	if !ok {
		panic(errors.Errorf("port %s does not exist in %s", name, a.prefix[:len(a.prefix)-1]))
	}
	return s
}

// AddPort adds a port to the entity and returns its signal. During
// elaboration the port is added to the entity builder; in a running kernel the
// port must already exist with the same direction and type.
//
func (a *Arch) AddPort(p entity.Port) *Signal {
	if a.prefix != a.top+"." {
		panic(errors.Errorf("cannot add port %s to sub-scope %s", p.Name, a.prefix))
	}
	if a.b == nil {
		s := a.Port(p.Name)
		if s.typ != p.Type {
			panic(errors.Errorf("port %s: type %v does not match elaborated type %v", p.Name, p.Type, s.typ))
		}
		return s
	}
	if err := a.b.Add(p); err != nil {
		panic(err)
	}
	s, err := a.k.newSignal(a.prefix+p.Name, p.Type, p.Default)
	if err != nil {
		panic(err)
	}
	a.ports[p.Name] = s
	return s
}

// Signal creates an internal signal. Its full name is the scope prefix
// followed by name. An empty initial value means all zeros.
//
func (a *Arch) Signal(name string, t logic.Type, init ...logic.Value) *Signal {
	var v logic.Value
	if len(init) > 0 {
		v = init[0]
	}
	s, err := a.k.newSignal(a.prefix+name, t, v)
	if err != nil {
		panic(err)
	}
	return s
}

// Sub returns a new scope for a sub-component named name. Signals created
// through the returned Arch are named <scope>.<name>.<signal>.
//
func (a *Arch) Sub(name string) *Arch {
	return &Arch{k: a.k, b: a.b, top: a.top, prefix: a.prefix + name + ".", ports: nil}
}

// Comb mounts a combinational process: fn is evaluated once at the start of
// the simulation, then every time one of the signals in sens changes.
//
func (a *Arch) Comb(fn func(k *Kernel), sens ...*Signal) {
	a.k.addProcess(fn, false, sens...)
}

// Seq mounts a sequential process: fn is evaluated on every rising edge of
// clk.
//
func (a *Arch) Seq(clk *Signal, fn func(k *Kernel)) {
	a.k.addProcess(func(k *Kernel) {
		if k.Rising(clk) {
			fn(k)
		}
	}, true, clk)
}
