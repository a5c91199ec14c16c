package lir

import (
	"testing"

	"github.com/samlang-wasm/samlang/internal/heap"
	"github.com/samlang-wasm/samlang/internal/mir"
)

// TestDecideLayoutThreeKinds exercises spec §8 S4: a zero-field variant gets
// Int31, a single-pointer-field variant gets Unboxed, and anything else
// (including a single non-pointer field, or more than one field) gets
// Boxed — decided per variant, independent of its siblings.
func TestDecideLayoutThreeKinds(t *testing.T) {
	h := heap.New()
	none := h.Alloc("None")
	some := h.Alloc("Some")
	pair := h.Alloc("Pair")

	idType := mir.NewIdType(mir.NominalTypeName(heap.ModuleRoot, h.Alloc("Box")))

	variants := []mir.EnumVariant{
		{Tag: none, Fields: nil},
		{Tag: some, Fields: []mir.Type{idType}},
		{Tag: pair, Fields: []mir.Type{mir.Int32Type, mir.Int32Type}},
	}

	layouts := decideLayout(variants)
	if layouts[0].Kind != LayoutInt31 {
		t.Errorf("zero-field variant: expected Int31, got %v", layouts[0].Kind)
	}
	if layouts[1].Kind != LayoutUnboxed {
		t.Errorf("single pointer-shaped field: expected Unboxed, got %v", layouts[1].Kind)
	}
	if layouts[2].Kind != LayoutBoxed {
		t.Errorf("two fields: expected Boxed, got %v", layouts[2].Kind)
	}

	for i, l := range layouts {
		if l.Tag != i {
			t.Errorf("variant %d: expected Tag %d, got %d", i, i, l.Tag)
		}
	}
}

// TestDecideLayoutSingleNonPointerFieldIsBoxed exercises the boundary case:
// one field that is not pointer-shaped (a plain Int32) still gets Boxed,
// since Unboxed requires the lone field to itself be a heap pointer.
func TestDecideLayoutSingleNonPointerFieldIsBoxed(t *testing.T) {
	h := heap.New()
	tag := h.Alloc("Count")
	layouts := decideLayout([]mir.EnumVariant{{Tag: tag, Fields: []mir.Type{mir.Int32Type}}})
	if layouts[0].Kind != LayoutBoxed {
		t.Errorf("expected a single non-pointer field to be Boxed, got %v", layouts[0].Kind)
	}
}

// TestLowerStructInitRespectsLayout exercises spec §8 S4 end to end through
// Lower itself: constructing a zero-payload variant must not allocate (it
// lowers to a bare Cast to the Int31 literal), constructing a
// single-pointer-payload variant must not allocate either (it lowers to a
// Cast of the payload expression straight through), and only the two-field
// variant reaches WASM emission as a real StructInit.
func TestLowerStructInitRespectsLayout(t *testing.T) {
	h := heap.New()
	boxName := mir.NominalTypeName(heap.ModuleRoot, h.Alloc("Box"))
	strName := mir.NominalTypeName(heap.ModuleRoot, h.Alloc("Str"))
	idType := mir.NewIdType(strName)

	td := &mir.TypeDefinition{
		NameId: 0,
		Name:   boxName,
		Kind:   mir.TypeDefEnum,
		EnumVariants: []mir.EnumVariant{
			{Tag: h.Alloc("None"), Fields: nil},
			{Tag: h.Alloc("Some"), Fields: []mir.Type{idType}},
			{Tag: h.Alloc("Pair"), Fields: []mir.Type{mir.Int32Type, mir.Int32Type}},
		},
	}

	payload := mir.Variable{VariableName: mir.VariableName{Name: h.Alloc("s"), Type: idType}}
	noneVar := h.Alloc("none")
	someVar := h.Alloc("some")
	pairVar := h.Alloc("pair")

	fn := &mir.Function{
		Name: mir.FunctionName{TypeName: boxName, FnName: h.Alloc("make")},
		Type: &mir.FunctionType{Ret: mir.Int32Type},
		Body: []mir.Statement{
			&mir.StructInit{StructVariableName: noneVar, Type: mir.NewIdType(boxName), ExpressionList: []mir.Expression{mir.IntLiteral{Value: 0}}},
			&mir.StructInit{StructVariableName: someVar, Type: mir.NewIdType(boxName), ExpressionList: []mir.Expression{mir.IntLiteral{Value: 1}, payload}},
			&mir.StructInit{StructVariableName: pairVar, Type: mir.NewIdType(boxName), ExpressionList: []mir.Expression{mir.IntLiteral{Value: 2}, mir.IntLiteral{Value: 1}, mir.IntLiteral{Value: 2}}},
		},
		ReturnValue: mir.Zero,
	}

	src := &mir.Sources{Table: mir.NewSymbolTable(), TypeDefinitions: []*mir.TypeDefinition{td}, Functions: []*mir.Function{fn}}
	out := Lower(h, src)

	body := out.Functions[0].Body
	if len(body) != 3 {
		t.Fatalf("expected 3 lowered statements, got %d", len(body))
	}

	noneCast, ok := body[0].(*Cast)
	if !ok {
		t.Fatalf("expected None variant to lower to a bare Cast, got %T", body[0])
	}
	if lit, ok := noneCast.Operand.(IntLiteral); !ok || lit.Value != 1 {
		t.Errorf("expected None's Cast operand to be the Int31 literal 0*2+1=1, got %#v", noneCast.Operand)
	}

	someCast, ok := body[1].(*Cast)
	if !ok {
		t.Fatalf("expected Some variant to lower to a bare Cast, got %T", body[1])
	}
	if v, ok := someCast.Operand.(mir.Variable); !ok || v.Name != payload.Name {
		t.Errorf("expected Some's Cast operand to be the payload itself, got %#v", someCast.Operand)
	}

	if _, ok := body[2].(*StructInit); !ok {
		t.Fatalf("expected Pair variant to still lower to a StructInit (Boxed), got %T", body[2])
	}
}
