// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package cosim

import (
	"strconv"

	"github.com/db47h/cosim/entity"
	"github.com/db47h/cosim/kernel"
	"github.com/db47h/cosim/logic"
	"github.com/db47h/cosim/simtime"
)

// A Port is a proxy for one port of the device under test.
//
// Root ports hold the last synchronized value of the port: it is refreshed
// from the kernel every time a coroutine is resumed and updated immediately by
// the testbench's own writes. A written value is kept until the kernel has
// applied it, so that writes to different bits of a port from different
// coroutines at the same instant all take effect. Views returned by Index, Slice, Unsigned, Signed
// and Vector share the handle and value of their root port.
//
// Setters panic with a protocol fault when used on output ports and with an
// assertion fault when the value does not fit the port.
//
type Port struct {
	s    *Simulator
	name string
	dir  entity.Direction
	typ  logic.Type
	h    kernel.Handle

	root *Port // nil for root ports
	lo   int

	// root ports only
	val     logic.Value
	pending bool             // val has been written but not yet applied by the kernel
	old     logic.Value      // kernel value when the pending write was done
	wroteAt simtime.Duration // time of the last write
}

func (p *Port) base() *Port {
	if p.root != nil {
		return p.root
	}
	return p
}

// Name returns the name of the port. Views are named after the root port
// followed by the bit range.
//
func (p *Port) Name() string { return p.name }

// Dir returns the port direction.
//
func (p *Port) Dir() entity.Direction { return p.dir }

// Type returns the logical type of the port, or view.
//
func (p *Port) Type() logic.Type { return p.typ }

// Handle implements Signal.
//
func (p *Port) Handle() kernel.Handle { return p.h }

func (p *Port) String() string { return p.name }

// Value returns the last synchronized value of the port.
//
func (p *Port) Value() logic.Value {
	if p.root == nil {
		return p.val
	}
	return p.root.val.Slice(p.lo+p.typ.Width-1, p.lo)
}

// Bool returns true if any bit of the port is high.
//
func (p *Port) Bool() bool { return p.Value().Bool() }

// Uint returns the unsigned value of the port. It panics with an assertion
// fault if the value contains metavalues.
//
func (p *Port) Uint() uint64 {
	v, err := p.Value().Uint64()
	if err != nil {
		panic(newFault(AssertionFault, p.name, "%v", err))
	}
	return v
}

// Int returns the two's complement value of the port. It panics with an
// assertion fault if the value contains metavalues.
//
func (p *Port) Int() int64 {
	v, err := p.Value().Int64()
	if err != nil {
		panic(newFault(AssertionFault, p.name, "%v", err))
	}
	return v
}

// Number returns the numeric value of the port, interpreted according to its
// type: two's complement for Signed ports, unsigned otherwise.
//
func (p *Port) Number() int64 {
	if p.typ.Kind == logic.KindSigned {
		return p.Int()
	}
	return int64(p.Uint())
}

// Set drives the port (or the bits of a view) to v.
//
func (p *Port) Set(v logic.Value) { p.set("Set", v, false) }

func (p *Port) set(op string, v logic.Value, force bool) {
	if p.dir == entity.Output && !force {
		panic(newFault(ProtocolFault, op, "cannot write to output port %s", p.name))
	}
	if v.Width() != p.typ.Width {
		panic(newFault(AssertionFault, op, "cannot write %d bits value %q to %d bits port %s", v.Width(), v, p.typ.Width, p.name))
	}
	r := p.base()
	nv := v
	if p.root != nil {
		nv = r.val.Replace(p.lo, v)
	}
	if err := p.s.k.Write(r.h, nv); err != nil {
		panic(newFault(InternalFault, op, "%v", err))
	}
	if !r.pending {
		r.old = r.val
	}
	r.val, r.pending, r.wroteAt = nv, true, p.s.k.Now()
}

// refresh updates the cached value of a root port from the kernel. A pending
// write is kept as long as the kernel still holds the value it replaced.
//
func (p *Port) refresh() {
	v := p.s.k.Read(p.h)
	if p.pending {
		if v == p.old && v != p.val && p.s.k.Now() == p.wroteAt {
			return
		}
		p.pending = false
	}
	p.val = v
}

// SetBool drives every bit of the port to v.
//
func (p *Port) SetBool(v bool) {
	f := logic.Null
	if v {
		f = logic.Full
	}
	p.set("SetBool", f.Value(p.typ), false)
}

// SetUint drives the port to the unsigned value v.
//
func (p *Port) SetUint(v uint64) {
	nv, err := logic.FromUint(p.typ.Width, v)
	if err != nil {
		panic(newFault(AssertionFault, "SetUint", "port %s: %v", p.name, err))
	}
	p.set("SetUint", nv, false)
}

// SetInt drives the port to the two's complement value v.
//
func (p *Port) SetInt(v int64) {
	nv, err := logic.FromInt(p.typ.Width, v)
	if err != nil {
		panic(newFault(AssertionFault, "SetInt", "port %s: %v", p.name, err))
	}
	p.set("SetInt", nv, false)
}

// SetNumber drives the port to v, interpreted according to the port type:
// two's complement for Signed ports, unsigned otherwise.
//
func (p *Port) SetNumber(v int64) {
	if p.typ.Kind == logic.KindSigned {
		p.SetInt(v)
		return
	}
	if v < 0 {
		panic(newFault(AssertionFault, "SetNumber", "negative value %d for unsigned port %s", v, p.name))
	}
	p.SetUint(uint64(v))
}

// Fill drives every bit of the port to f.
//
func (p *Port) Fill(f logic.Fill) { p.set("Fill", f.Value(p.typ), false) }

func (p *Port) view(name string, lo int, t logic.Type) *Port {
	return &Port{s: p.s, name: name, dir: p.dir, typ: t, h: p.h, root: p.base(), lo: p.lo + lo}
}

// Index returns a 1 bit view of bit i of the port.
//
func (p *Port) Index(i int) *Port {
	if i < 0 || i >= p.typ.Width {
		panic(newFault(ProtocolFault, "Index", "bit %d out of range for %d bits port %s", i, p.typ.Width, p.name))
	}
	return p.view(p.name+"["+strconv.Itoa(i)+"]", i, logic.BitType)
}

// Slice returns a view of bits hi down to lo of the port. The view has the
// same kind as the port.
//
func (p *Port) Slice(hi, lo int) *Port {
	if lo < 0 || hi < lo || hi >= p.typ.Width {
		panic(newFault(ProtocolFault, "Slice", "invalid range [%d:%d] for %d bits port %s", hi, lo, p.typ.Width, p.name))
	}
	k := p.typ.Kind
	if k == logic.KindBit {
		k = logic.KindVector
	}
	return p.view(p.name+"["+strconv.Itoa(hi)+":"+strconv.Itoa(lo)+"]", lo, logic.Type{Kind: k, Width: hi - lo + 1})
}

func (p *Port) cast(k logic.Kind) *Port {
	return p.view(p.name, 0, p.typ.As(k))
}

// Unsigned returns an unsigned view of the port.
//
func (p *Port) Unsigned() *Port { return p.cast(logic.KindUnsigned) }

// Signed returns a signed view of the port.
//
func (p *Port) Signed() *Port { return p.cast(logic.KindSigned) }

// Vector returns a plain bit vector view of the port.
//
func (p *Port) Vector() *Port { return p.cast(logic.KindVector) }
