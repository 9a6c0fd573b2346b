// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package entity describes the external interface of a device under test: an
// ordered table of named, directed and typed ports.
//
// Entities are built with a Builder that stays mutable until Build is called,
// so that architectures can attach ports dynamically while they are being
// elaborated:
//
//	b := entity.New("adder")
//	b.Input("a, b", logic.Unsigned(8))
//	b.Output("sum", logic.Unsigned(8))
//	e, err := b.Build()
//
package entity

import (
	"strings"

	"github.com/db47h/cosim/logic"
	"github.com/pkg/errors"
)

// Direction of a port, seen from the device under test.
//
type Direction uint8

// Port directions.
//
const (
	Input Direction = iota
	Output
	Inout
)

func (d Direction) String() string {
	switch d {
	case Input:
		return "in"
	case Output:
		return "out"
	case Inout:
		return "inout"
	}
	return "invalid"
}

// Port describes a single port.
//
type Port struct {
	Name string
	Dir  Direction
	Type logic.Type
	// Default is the initial value of the port. An empty Default means all zeros.
	Default logic.Value
}

// Init returns the initial value of the port.
//
func (p *Port) Init() logic.Value {
	if p.Default != "" {
		return p.Default
	}
	return logic.Null.Value(p.Type)
}

// Entity is a frozen, ordered port table.
//
type Entity struct {
	name  string
	ports []Port
	index map[string]int
}

// Name returns the entity name.
//
func (e *Entity) Name() string { return e.name }

// Len returns the number of ports.
//
func (e *Entity) Len() int { return len(e.ports) }

// Ports returns a copy of the port table, in declaration order.
//
func (e *Entity) Ports() []Port {
	ps := make([]Port, len(e.ports))
	copy(ps, e.ports)
	return ps
}

// Port returns the port with the given name.
//
func (e *Entity) Port(name string) (Port, bool) {
	i, ok := e.index[name]
	if !ok {
		return Port{}, false
	}
	return e.ports[i], true
}

// Builder collects port declarations. The first error encountered is recorded
// and reported by Build; later declarations are then ignored.
//
type Builder struct {
	name  string
	ports []Port
	index map[string]int
	built bool
	err   error
}

// New returns a new Builder for an entity with the given name.
//
func New(name string) *Builder {
	b := &Builder{name: name, index: make(map[string]int)}
	if !validIdent(name) {
		b.err = errors.Errorf("invalid entity name %q", name)
	}
	return b
}

// Name returns the name of the entity being built.
//
func (b *Builder) Name() string { return b.name }

// Ports returns the ports declared so far.
//
func (b *Builder) Ports() []Port {
	ps := make([]Port, len(b.ports))
	copy(ps, b.ports)
	return ps
}

// Input declares input ports. names is a comma separated list of port names.
//
func (b *Builder) Input(names string, t logic.Type) *Builder { return b.declare(names, Input, t) }

// Output declares output ports.
//
func (b *Builder) Output(names string, t logic.Type) *Builder { return b.declare(names, Output, t) }

// Inout declares bidirectional ports.
//
func (b *Builder) Inout(names string, t logic.Type) *Builder { return b.declare(names, Inout, t) }

func (b *Builder) declare(names string, d Direction, t logic.Type) *Builder {
	ns, err := parseNames(names)
	if err != nil {
		b.fail(err)
		return b
	}
	for _, n := range ns {
		b.Add(Port{Name: n, Dir: d, Type: t})
	}
	return b
}

func (b *Builder) fail(err error) {
	if b.err == nil {
		b.err = errors.Wrapf(err, "entity %s", b.name)
	}
}

// Add adds a single port.
//
func (b *Builder) Add(p Port) error {
	if b.err != nil {
		return b.err
	}
	switch {
	case b.built:
		b.fail(errors.Errorf("cannot add port %q: entity already built", p.Name))
	case !validIdent(p.Name):
		b.fail(errors.Errorf("invalid port name %q", p.Name))
	case !p.Type.Valid():
		b.fail(errors.Errorf("invalid type %v for port %q", p.Type, p.Name))
	case p.Dir > Inout:
		b.fail(errors.Errorf("invalid direction for port %q", p.Name))
	case p.Default != "" && p.Default.Width() != p.Type.Width:
		b.fail(errors.Errorf("default value %q of port %q does not match its width %d", p.Default, p.Name, p.Type.Width))
	default:
		if _, ok := b.index[p.Name]; ok {
			b.fail(errors.Errorf("duplicate port name %q", p.Name))
			break
		}
		b.index[p.Name] = len(b.ports)
		b.ports = append(b.ports, p)
	}
	return b.err
}

// Err returns the first error recorded by the builder.
//
func (b *Builder) Err() error { return b.err }

// Build freezes the port table and returns the resulting entity. Any further
// call to Add fails.
//
func (b *Builder) Build() (*Entity, error) {
	if b.err != nil {
		return nil, b.err
	}
	b.built = true
	e := &Entity{
		name:  b.name,
		ports: make([]Port, len(b.ports)),
		index: make(map[string]int, len(b.index)),
	}
	copy(e.ports, b.ports)
	for k, v := range b.index {
		e.index[k] = v
	}
	return e, nil
}

// parseNames splits a comma separated list of identifiers.
//
//	parseNames("a, b,c") // returns []string{"a", "b", "c"}
//
func parseNames(names string) ([]string, error) {
	var out []string
	for i, n := range strings.Split(names, ",") {
		n = strings.TrimSpace(n)
		if !validIdent(n) {
			return nil, errors.Errorf("in %q at item %d: expected port name", names, i+1)
		}
		out = append(out, n)
	}
	return out, nil
}

func validIdent(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case c == '_' || (c >= '0' && c <= '9'):
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}
