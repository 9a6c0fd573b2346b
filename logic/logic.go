// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package logic provides the logical values and types exchanged between
// testbenches and a simulation kernel.
//
// A Value is an immutable string of logic levels, most significant bit first,
// as returned by the binstr interface of most HDL simulators:
//
//	'0', '1'       forcing low/high
//	'L', 'H'       weak low/high
//	'U', 'X', 'W'  uninitialized, unknown, weak unknown
//	'Z'            high impedance
//	'-'            don't care
//
// Bit 0 is the least significant bit, i.e. the last character of the string.
//
package logic

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// A Kind identifies the logical representation of a signal.
//
type Kind uint8

// Supported kinds.
//
const (
	KindBit Kind = iota
	KindVector
	KindUnsigned
	KindSigned
)

func (k Kind) String() string {
	switch k {
	case KindBit:
		return "Bit"
	case KindVector:
		return "BitVector"
	case KindUnsigned:
		return "Unsigned"
	case KindSigned:
		return "Signed"
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// Type is the logical type of a signal: its kind and width in bits.
//
type Type struct {
	Kind  Kind
	Width int
}

// BitType is the type of single bit signals.
//
var BitType = Type{Kind: KindBit, Width: 1}

// BitVector returns a plain bit vector type of the given width.
//
func BitVector(width int) Type { return Type{Kind: KindVector, Width: width} }

// Unsigned returns an unsigned integer type of the given width.
//
func Unsigned(width int) Type { return Type{Kind: KindUnsigned, Width: width} }

// Signed returns a two's complement signed integer type of the given width.
//
func Signed(width int) Type { return Type{Kind: KindSigned, Width: width} }

func (t Type) String() string {
	if t.Kind == KindBit {
		return t.Kind.String()
	}
	return t.Kind.String() + "[" + strconv.Itoa(t.Width) + "]"
}

// Valid reports whether t has a known kind and a usable width.
//
func (t Type) Valid() bool {
	switch t.Kind {
	case KindBit:
		return t.Width == 1
	case KindVector, KindUnsigned, KindSigned:
		return t.Width > 0
	}
	return false
}

// IsVector reports whether t is a plain bit vector (neither signed nor unsigned).
//
func (t Type) IsVector() bool { return t.Kind == KindVector }

// IsNumeric reports whether t has a numeric interpretation.
//
func (t Type) IsNumeric() bool { return t.Kind == KindUnsigned || t.Kind == KindSigned }

// As returns t with its kind replaced by k. The width is kept, except for
// KindBit which is always 1 bit wide.
//
func (t Type) As(k Kind) Type {
	if k == KindBit {
		return BitType
	}
	return Type{Kind: k, Width: t.Width}
}

// A Fill is a logic level used to initialize every bit of a value.
//
type Fill byte

// Common fills.
//
const (
	Null      Fill = '0'
	Full      Fill = '1'
	Undefined Fill = 'U'
	Unknown   Fill = 'X'
	HighZ     Fill = 'Z'
)

// Value returns a value of the given type with all bits set to f.
//
func (f Fill) Value(t Type) Value {
	return Value(strings.Repeat(string(f), t.Width))
}

// Value is a logic value. See the package documentation for its encoding.
//
type Value string

// Parse checks that s only contains valid logic levels and returns it as a
// Value. Lower case levels are accepted and converted to upper case.
//
func Parse(s string) (Value, error) {
	if s == "" {
		return "", errors.New("empty logic value")
	}
	s = strings.ToUpper(s)
	for i := 0; i < len(s); i++ {
		if !isLevel(s[i]) {
			return "", errors.Errorf("invalid logic level %q in %q", s[i], s)
		}
	}
	return Value(s), nil
}

// MustParse is like Parse but panics on error.
//
func MustParse(s string) Value {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

func isLevel(b byte) bool {
	switch b {
	case '0', '1', 'L', 'H', 'U', 'X', 'W', 'Z', '-':
		return true
	}
	return false
}

// FromBool returns a 1 bit value.
//
func FromBool(b bool) Value {
	if b {
		return "1"
	}
	return "0"
}

// FromUint returns the width bits wide encoding of v. It returns an error if
// v does not fit.
//
func FromUint(width int, v uint64) (Value, error) {
	if width <= 0 {
		return "", errors.Errorf("invalid width %d", width)
	}
	if width < 64 && v>>uint(width) != 0 {
		return "", errors.Errorf("value %d does not fit in %d bits", v, width)
	}
	return encode(width, v), nil
}

// FromInt returns the width bits wide two's complement encoding of v. It
// returns an error if v does not fit.
//
func FromInt(width int, v int64) (Value, error) {
	if width <= 0 {
		return "", errors.Errorf("invalid width %d", width)
	}
	if width < 64 {
		min, max := -(int64(1) << uint(width-1)), int64(1)<<uint(width-1)-1
		if v < min || v > max {
			return "", errors.Errorf("value %d does not fit in %d bits signed", v, width)
		}
	}
	return encode(width, uint64(v)), nil
}

func encode(width int, v uint64) Value {
	b := make([]byte, width)
	for i := 0; i < width; i++ {
		bit := byte('0')
		if i < 64 && v&(1<<uint(i)) != 0 {
			bit = '1'
		}
		b[width-1-i] = bit
	}
	return Value(b)
}

// Width returns the number of bits in v.
//
func (v Value) Width() int { return len(v) }

func (v Value) String() string { return string(v) }

// Resolved reports whether all bits of v are 0/1 (or their weak variants).
//
func (v Value) Resolved() bool {
	for i := 0; i < len(v); i++ {
		switch v[i] {
		case '0', '1', 'L', 'H':
		default:
			return false
		}
	}
	return true
}

func high(b byte) bool { return b == '1' || b == 'H' }
func low(b byte) bool  { return b == '0' || b == 'L' }

// Bool returns true if any bit of v is high. This is the truth value used by
// edge and level detection: a Bit is true when it is '1', a vector when it is
// non-zero.
//
func (v Value) Bool() bool {
	for i := 0; i < len(v); i++ {
		if high(v[i]) {
			return true
		}
	}
	return false
}

// Bit returns the level of bit i (0 is the lsb).
//
func (v Value) Bit(i int) byte {
	return v[len(v)-1-i]
}

// Index returns bit i of v as a 1 bit value.
//
func (v Value) Index(i int) Value {
	if i < 0 || i >= len(v) {
		panic(errors.Errorf("bit index %d out of range [0, %d)", i, len(v)))
	}
	n := len(v) - 1 - i
	return v[n : n+1]
}

// Slice returns bits hi down to lo (inclusive) of v.
//
func (v Value) Slice(hi, lo int) Value {
	if lo < 0 || hi < lo || hi >= len(v) {
		panic(errors.Errorf("invalid slice [%d:%d] of %d bits value", hi, lo, len(v)))
	}
	return v[len(v)-1-hi : len(v)-lo]
}

// Replace returns a copy of v where the bits starting at lo are replaced by w.
//
func (v Value) Replace(lo int, w Value) Value {
	hi := lo + len(w) - 1
	if lo < 0 || hi >= len(v) {
		panic(errors.Errorf("cannot replace bits [%d:%d] of %d bits value", hi, lo, len(v)))
	}
	return v[:len(v)-1-hi] + w + v[len(v)-lo:]
}

// Concat returns the concatenation of v (most significant part) and w.
//
func (v Value) Concat(w Value) Value { return v + w }

// Uint64 returns the unsigned integer value of v. It fails if v has more than
// 64 bits or contains metavalues.
//
func (v Value) Uint64() (uint64, error) {
	if len(v) > 64 {
		return 0, errors.Errorf("%d bits value does not fit in an uint64", len(v))
	}
	var r uint64
	for i := 0; i < len(v); i++ {
		r <<= 1
		switch b := v[i]; {
		case high(b):
			r |= 1
		case low(b):
		default:
			return 0, errors.Errorf("value %q contains metavalue %q", string(v), b)
		}
	}
	return r, nil
}

// Int64 returns the two's complement signed value of v.
//
func (v Value) Int64() (int64, error) {
	u, err := v.Uint64()
	if err != nil {
		return 0, err
	}
	if n := len(v); n < 64 && u&(1<<uint(n-1)) != 0 {
		u |= ^uint64(0) << uint(n)
	}
	return int64(u), nil
}

func (v Value) mustMatch(w Value, op string) {
	if len(v) != len(w) {
		panic(errors.Errorf("%s: width mismatch %d != %d", op, len(v), len(w)))
	}
}

func mapBits(v Value, f func(b byte) byte) Value {
	b := make([]byte, len(v))
	for i := range b {
		b[i] = f(v[i])
	}
	return Value(b)
}

func zipBits(v, w Value, f func(a, b byte) byte) Value {
	b := make([]byte, len(v))
	for i := range b {
		b[i] = f(v[i], w[i])
	}
	return Value(b)
}

// Not returns the bitwise complement of v. Metavalues become 'X'.
//
func (v Value) Not() Value {
	return mapBits(v, func(b byte) byte {
		switch {
		case high(b):
			return '0'
		case low(b):
			return '1'
		}
		return 'X'
	})
}

// And returns the bitwise AND of v and w. A low bit dominates metavalues.
//
func (v Value) And(w Value) Value {
	v.mustMatch(w, "and")
	return zipBits(v, w, func(a, b byte) byte {
		switch {
		case low(a) || low(b):
			return '0'
		case high(a) && high(b):
			return '1'
		}
		return 'X'
	})
}

// Or returns the bitwise OR of v and w. A high bit dominates metavalues.
//
func (v Value) Or(w Value) Value {
	v.mustMatch(w, "or")
	return zipBits(v, w, func(a, b byte) byte {
		switch {
		case high(a) || high(b):
			return '1'
		case low(a) && low(b):
			return '0'
		}
		return 'X'
	})
}

// Xor returns the bitwise XOR of v and w.
//
func (v Value) Xor(w Value) Value {
	v.mustMatch(w, "xor")
	return zipBits(v, w, func(a, b byte) byte {
		switch {
		case high(a) && low(b), low(a) && high(b):
			return '1'
		case high(a) && high(b), low(a) && low(b):
			return '0'
		}
		return 'X'
	})
}
