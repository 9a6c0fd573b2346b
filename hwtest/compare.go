// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwtest

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/db47h/cosim"
	"github.com/db47h/cosim/entity"
	"github.com/db47h/cosim/logic"
	"github.com/pkg/errors"
)

// RandValue returns a random fully resolved value of type t.
//
func RandValue(r *rand.Rand, t logic.Type) logic.Value {
	var b strings.Builder
	for i := 0; i < t.Width; i++ {
		if r.Int63()&(1<<62) != 0 {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return logic.Value(b.String())
}

func sameEntity(e1, e2 *entity.Entity) error {
	p1, p2 := e1.Ports(), e2.Ports()
	if len(p1) != len(p2) {
		return errors.Errorf("%s has %d ports, %s has %d", e1.Name(), len(p1), e2.Name(), len(p2))
	}
	for i := range p1 {
		if p1[i].Name != p2[i].Name || p1[i].Dir != p2[i].Dir || p1[i].Type != p2[i].Type {
			return errors.Errorf("port %d: %s %v %v != %s %v %v", i,
				p1[i].Name, p1[i].Dir, p1[i].Type, p2[i].Name, p2[i].Dir, p2[i].Type)
		}
	}
	return nil
}

// sample drives the inputs of a design with a sequence of input vectors and
// records the settled value of every output after each of them.
//
func sample(t testing.TB, d cosim.Design, vectors [][]logic.Value) ([][]logic.Value, error) {
	var res [][]logic.Value
	err := Test(t, d, cosim.Config{}, func(s *cosim.Simulator, dut *cosim.DUT) error {
		ins, outs := s.Inputs(), s.Outputs()
		for _, vec := range vectors {
			for i, p := range ins {
				p.Set(vec[i])
			}
			s.DeltaStep()
			o := make([]logic.Value, len(outs))
			for i, p := range outs {
				o[i] = p.Value()
			}
			res = append(res, o)
		}
		return nil
	})
	return res, err
}

// CompareDesigns takes two designs and compares their outputs given the same
// inputs. Both designs must have the same ports.
//
// The designs are first driven with all inputs low, then all inputs high,
// then up to 4096 random input vectors.
//
func CompareDesigns(t testing.TB, d1, d2 cosim.Design) {
	t.Helper()
	if err := sameEntity(d1.Entity(), d2.Entity()); err != nil {
		t.Fatal(err)
	}

	var ins []entity.Port
	bits := 0
	for _, p := range d1.Entity().Ports() {
		if p.Dir == entity.Input {
			ins = append(ins, p)
			bits += p.Type.Width
		}
	}
	if bits > 12 {
		bits = 12
	}

	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	var vectors [][]logic.Value
	for _, f := range []logic.Fill{logic.Null, logic.Full} {
		vec := make([]logic.Value, len(ins))
		for i, p := range ins {
			vec[i] = f.Value(p.Type)
		}
		vectors = append(vectors, vec)
	}
	for n := 1 << uint(bits); n > 0; n-- {
		vec := make([]logic.Value, len(ins))
		for i, p := range ins {
			vec[i] = RandValue(r, p.Type)
		}
		vectors = append(vectors, vec)
	}

	start := time.Now()
	out1, err := sample(t, d1, vectors)
	if err != nil {
		Trace(t, err)
		t.Fatal(err)
	}
	out2, err := sample(t, d2, vectors)
	if err != nil {
		Trace(t, err)
		t.Fatal(err)
	}

	var outNames []string
	for _, p := range d1.Entity().Ports() {
		if p.Dir == entity.Output {
			outNames = append(outNames, p.Name)
		}
	}
	for v := range vectors {
		for o := range out1[v] {
			if out1[v][o] != out2[v][o] {
				var b strings.Builder
				for i, p := range ins {
					if i > 0 {
						b.WriteString(", ")
					}
					fmt.Fprintf(&b, "%s=%s", p.Name, vectors[v][i])
				}
				t.Fatalf("\nExpected %s => %s=%s\nGot %s", b.String(), outNames[o], out1[v][o], out2[v][o])
			}
		}
	}
	t.Logf("%d input vectors compared in %v", len(vectors), time.Since(start))
}
