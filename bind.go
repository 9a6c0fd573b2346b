// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package cosim

import (
	"reflect"
	"strings"

	"github.com/db47h/cosim/entity"
)

// DUT gives testbenches access to the ports of the device under test.
//
type DUT struct {
	name  string
	ports []*Port
	index map[string]*Port
}

// Name returns the entity name.
//
func (d *DUT) Name() string { return d.name }

// Ports returns all ports in declaration order.
//
func (d *DUT) Ports() []*Port {
	ps := make([]*Port, len(d.ports))
	copy(ps, d.ports)
	return ps
}

// Lookup returns the port with the given name.
//
func (d *DUT) Lookup(name string) (*Port, bool) {
	p, ok := d.index[name]
	return p, ok
}

// Port returns the port with the given name.
// This function panics with a protocol fault if the port does not exist.
//
func (d *DUT) Port(name string) *Port {
	p, ok := d.index[name]
	if !ok {
		panic(newFault(ProtocolFault, "Port", "port %s does not exist in %s", name, d.name))
	}
	return p
}

func (d *DUT) filter(dir entity.Direction) []*Port {
	var ps []*Port
	for _, p := range d.ports {
		if p.dir == dir {
			ps = append(ps, p)
		}
	}
	return ps
}

var portType = reflect.TypeOf((*Port)(nil))

// Bind fills the *Port fields of the struct pointed to by v with the
// corresponding DUT ports.
//
// The port name is given by the field tag `hw:"name"`. By default, it is the
// field name converted to snake case: InpA becomes inp_a. Fields tagged with
// `hw:"-"` and fields of other types are ignored.
//
func (d *DUT) Bind(v interface{}) error {
	pv := reflect.ValueOf(v)
	if pv.Kind() != reflect.Ptr || pv.IsNil() || pv.Elem().Kind() != reflect.Struct {
		return newFault(ProtocolFault, "Bind", "unsupported type %T, expected pointer to struct", v)
	}
	e := pv.Elem()
	typ := e.Type()
	n := typ.NumField()
	for i := 0; i < n; i++ {
		f := typ.Field(i)
		if f.Type != portType {
			continue
		}
		name := snakeCase(f.Name)
		if tag, ok := f.Tag.Lookup("hw"); ok {
			if tag == "-" {
				continue
			}
			if tag != "" {
				name = tag
			}
		}
		fv := e.Field(i)
		if !fv.CanSet() {
			return newFault(ProtocolFault, "Bind", "cannot set unexported field %s of %s", f.Name, typ.Name())
		}
		p, ok := d.index[name]
		if !ok {
			return newFault(ProtocolFault, "Bind", "no port %s for field %s of %s", name, f.Name, typ.Name())
		}
		fv.Set(reflect.ValueOf(p))
	}
	return nil
}

// snakeCase converts a Go identifier to snake case. An underscore is inserted
// before an upper case letter that follows a lower case letter or a digit, or
// that precedes a lower case letter in an upper case sequence:
//
//	InpA     -> inp_a
//	AStart   -> a_start
//	DataOut1 -> data_out1
//	HTTPPort -> http_port
//
func snakeCase(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUpper(c) && i > 0 {
			prev := s[i-1]
			if isLower(prev) || isDigit(prev) || (isUpper(prev) && i+1 < len(s) && isLower(s[i+1])) {
				b.WriteByte('_')
			}
		}
		if isUpper(c) {
			c += 'a' - 'A'
		}
		b.WriteByte(c)
	}
	return b.String()
}

func isUpper(c byte) bool { return c >= 'A' && c <= 'Z' }
func isLower(c byte) bool { return c >= 'a' && c <= 'z' }
func isDigit(c byte) bool { return c >= '0' && c <= '9' }
