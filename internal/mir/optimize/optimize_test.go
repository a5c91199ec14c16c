package optimize

import (
	"testing"

	"github.com/samlang-wasm/samlang/internal/heap"
	"github.com/samlang-wasm/samlang/internal/hir"
	"github.com/samlang-wasm/samlang/internal/mir"
)

func fn(h *heap.Heap, name string, body []mir.Statement, ret mir.Expression) *mir.Function {
	return &mir.Function{
		Name:        mir.FunctionName{TypeName: mir.NominalTypeName(heap.ModuleRoot, h.Alloc("Main")), FnName: h.Alloc(name)},
		Type:        &hir.FunctionType{Ret: mir.Int32Type},
		Body:        body,
		ReturnValue: ret,
	}
}

// TestConstantArithmeticFolding exercises spec §8 S1: `2 + 3` folds to the
// literal 5 with no residual Binary statement left in the body.
func TestConstantArithmeticFolding(t *testing.T) {
	h := heap.New()
	sum := h.Alloc("sum")
	f := fn(h, "compute", []mir.Statement{
		&mir.Binary{Name: sum, Operator: mir.Plus, E1: mir.IntLiteral{Value: 2}, E2: mir.IntLiteral{Value: 3}},
	}, mir.Variable{VariableName: mir.VariableName{Name: sum, Type: mir.Int32Type}})

	out := Run(h, &mir.Sources{MainFunctionNames: []mir.FunctionName{f.Name}, Functions: []*mir.Function{f}})
	got := out.Functions[0]
	if len(got.Body) != 0 {
		t.Fatalf("expected the Binary to fold away entirely, got %+v", got.Body)
	}
	lit, ok := got.ReturnValue.(mir.IntLiteral)
	if !ok || lit.Value != 5 {
		t.Fatalf("expected folded return value 5, got %+v", got.ReturnValue)
	}
}

// TestDeadBranchElimination exercises spec §8 S2: an IfElse with a
// statically-known condition collapses to just its taken branch.
func TestDeadBranchElimination(t *testing.T) {
	h := heap.New()
	x := h.Alloc("x")
	f := fn(h, "pick", []mir.Statement{
		&mir.IfElse{
			Condition: mir.One,
			S1:        []mir.Statement{&mir.Binary{Name: x, Operator: mir.Plus, E1: mir.IntLiteral{Value: 1}, E2: mir.IntLiteral{Value: 1}}},
			S2:        []mir.Statement{&mir.Binary{Name: x, Operator: mir.Plus, E1: mir.IntLiteral{Value: 9}, E2: mir.IntLiteral{Value: 9}}},
		},
	}, mir.Variable{VariableName: mir.VariableName{Name: x, Type: mir.Int32Type}})

	out := Run(h, &mir.Sources{MainFunctionNames: []mir.FunctionName{f.Name}, Functions: []*mir.Function{f}})
	got := out.Functions[0]
	for _, s := range got.Body {
		if _, ok := s.(*mir.IfElse); ok {
			t.Fatalf("expected the IfElse to disappear entirely, got %+v", got.Body)
		}
	}
	lit, ok := got.ReturnValue.(mir.IntLiteral)
	if !ok || lit.Value != 2 {
		t.Fatalf("expected the taken branch's folded value 2, got %+v", got.ReturnValue)
	}
}

// TestAlgebraicIdentityXPlusZero exercises the `x + 0 -> x` rewrite.
func TestAlgebraicIdentityXPlusZero(t *testing.T) {
	h := heap.New()
	param := h.Alloc("n")
	result := h.Alloc("r")
	f := &mir.Function{
		Name:       mir.FunctionName{TypeName: mir.NominalTypeName(heap.ModuleRoot, h.Alloc("Main")), FnName: h.Alloc("identity")},
		Parameters: []heap.PStr{param},
		Type:       &hir.FunctionType{Params: []mir.Type{mir.Int32Type}, Ret: mir.Int32Type},
		Body: []mir.Statement{
			&mir.Binary{Name: result, Operator: mir.Plus, E1: mir.Variable{VariableName: mir.VariableName{Name: param, Type: mir.Int32Type}}, E2: mir.IntLiteral{Value: 0}},
		},
		ReturnValue: mir.Variable{VariableName: mir.VariableName{Name: result, Type: mir.Int32Type}},
	}

	out := Run(h, &mir.Sources{MainFunctionNames: []mir.FunctionName{f.Name}, Functions: []*mir.Function{f}})
	got := out.Functions[0]
	v, ok := got.ReturnValue.(mir.Variable)
	if !ok || v.Name != param {
		t.Fatalf("expected x+0 to simplify straight to the parameter, got %+v", got.ReturnValue)
	}
}
