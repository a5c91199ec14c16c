package ast

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/samlang-wasm/samlang/internal/heap"
)

func TestPrintExprRoundTripsFreeNames(t *testing.T) {
	h := heap.New()
	loc := heap.DummyLocation
	x := h.Alloc("x")
	expr := &Binary{
		Operator: BinPlus,
		Left:     &LocalId{Name: x, Location: loc},
		Right:    &Literal{Kind: LitInt, IntValue: 1, Location: loc},
		Location: loc,
	}
	p := &Printer{Heap: h}
	out := p.PrintExpr(expr)
	if !strings.Contains(out, `"x"`) {
		t.Fatalf("expected printed form to retain free name x, got:\n%s", out)
	}
	if !strings.Contains(out, `"binary"`) {
		t.Fatalf("expected printed form to retain control structure, got:\n%s", out)
	}
}

func TestPrintModuleStable(t *testing.T) {
	h := heap.New()
	loc := heap.DummyLocation
	mod := &Module{
		ModuleRef: heap.ModuleRoot,
		Toplevels: []*Toplevel{
			{
				Name:     h.Alloc("Box"),
				Location: loc,
				TypeDefinition: &TypeDefinition{
					Kind: TypeDefStruct,
					Fields: []FieldDefinition{
						{Name: h.Alloc("value"), Type: &TypePrimitive{Kind: PrimitiveInt, Location: loc}, IsPublic: true},
					},
				},
			},
		},
	}
	p := &Printer{Heap: h}
	out1 := p.PrintModule(mod)
	out2 := p.PrintModule(mod)
	if diff := cmp.Diff(out1, out2); diff != "" {
		t.Fatalf("pretty-print is not deterministic across runs (-first +second):\n%s", diff)
	}
	if !strings.Contains(out1, "Box") || !strings.Contains(out1, "value") {
		t.Fatalf("expected printed module to retain class/field names, got:\n%s", out1)
	}
}
