package entity_test

import (
	"testing"

	"github.com/db47h/cosim/entity"
	"github.com/db47h/cosim/logic"
)

func TestBuilder(t *testing.T) {
	b := entity.New("adder")
	b.Input("a, b", logic.Unsigned(4)).
		Input("cin", logic.BitType).
		Output("sum", logic.Unsigned(4))
	if err := b.Add(entity.Port{Name: "cout", Dir: entity.Output, Type: logic.BitType, Default: "1"}); err != nil {
		t.Fatal(err)
	}
	e, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	if e.Name() != "adder" || e.Len() != 5 {
		t.Fatalf("bad entity %s with %d ports", e.Name(), e.Len())
	}
	var names []string
	for _, p := range e.Ports() {
		names = append(names, p.Name)
	}
	exp := []string{"a", "b", "cin", "sum", "cout"}
	for i := range exp {
		if names[i] != exp[i] {
			t.Fatalf("port order: got %v, expected %v", names, exp)
		}
	}
	p, ok := e.Port("sum")
	if !ok || p.Dir != entity.Output || p.Type != logic.Unsigned(4) || p.Init() != "0000" {
		t.Fatalf("bad port sum: %+v", p)
	}
	if p, _ = e.Port("cout"); p.Init() != "1" {
		t.Fatalf("default not kept: %q", p.Init())
	}
	if _, ok = e.Port("nope"); ok {
		t.Fatal("found non-existent port")
	}
	if err = b.Add(entity.Port{Name: "late", Type: logic.BitType}); err == nil {
		t.Fatal("expected error when adding to a built entity")
	}
}

func TestBuilderErrors(t *testing.T) {
	td := []struct {
		name string
		fn   func(b *entity.Builder)
	}{
		{"duplicate", func(b *entity.Builder) { b.Input("a, a", logic.BitType) }},
		{"empty name", func(b *entity.Builder) { b.Input("a,,b", logic.BitType) }},
		{"bad ident", func(b *entity.Builder) { b.Output("0a", logic.BitType) }},
		{"bad type", func(b *entity.Builder) { b.Output("o", logic.BitVector(0)) }},
		{"bad default", func(b *entity.Builder) {
			b.Add(entity.Port{Name: "x", Type: logic.BitVector(2), Default: "1"})
		}},
	}
	for _, d := range td {
		t.Run(d.name, func(t *testing.T) {
			b := entity.New("e")
			d.fn(b)
			b.Input("ok", logic.BitType)
			if _, err := b.Build(); err == nil {
				t.Fatal("expected error")
			}
		})
	}
	if _, err := entity.New("bad name").Build(); err == nil {
		t.Fatal("expected error for invalid entity name")
	}
}
