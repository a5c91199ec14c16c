package wasmtext

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/samlang-wasm/samlang/internal/heap"
	"github.com/samlang-wasm/samlang/internal/lir"
	"github.com/samlang-wasm/samlang/internal/mir"
)

// TestMinimalMainModule reproduces spec §8 S5: a minimal module with one
// exported `main` compiles to a function-type table entry, a one-slot
// funcref table, the function body, and a matching export.
func TestMinimalMainModule(t *testing.T) {
	h := heap.New()
	mainName := mir.FunctionName{TypeName: mir.NominalTypeName(heap.ModuleRoot, h.Alloc("Main")), FnName: h.Alloc("main")}
	src := &lir.Sources{
		MainFunctionNames: []lir.FunctionName{mainName},
		Functions: []*lir.Function{
			{
				Name:        mainName,
				Type:        &mir.FunctionType{Ret: mir.Int32Type},
				ReturnValue: lir.IntLiteral{Value: 0},
			},
		},
	}

	mod := Lower(h, src)
	text := Render(mod)

	for _, want := range []string{
		"(type $none_=>_i32 (func (result i32)))",
		"(table $0 1 funcref) (elem $0 (i32.const 0) $__$main)",
		"(func $__$main (result i32) (i32.const 0))",
		`(export "__$main" (func $__$main))`,
	} {
		if !strings.Contains(text, want) {
			t.Errorf("rendered module missing %q\nfull text:\n%s", want, text)
		}
	}

	wantShape := struct {
		FunctionTypes []FunctionTypeParamCount
		FunctionTable []string
		ExportedNames []string
	}{
		FunctionTypes: []FunctionTypeParamCount{{ParamCount: 0}},
		FunctionTable: []string{"__$main"},
		ExportedNames: []string{"__$main"},
	}
	gotShape := struct {
		FunctionTypes []FunctionTypeParamCount
		FunctionTable []string
		ExportedNames []string
	}{
		FunctionTypes: mod.FunctionTypes,
		FunctionTable: mod.FunctionTable,
		ExportedNames: mod.ExportedNames,
	}
	if diff := cmp.Diff(wantShape, gotShape); diff != "" {
		t.Errorf("minimal module shape mismatch (-want +got):\n%s", diff)
	}
}

// TestConstantArithmeticFolding exercises S1's shape at the WASM layer: a
// function whose body is nothing but a literal return compiles to a single
// i32.const with no intervening instructions.
func TestConstantArithmeticFolding(t *testing.T) {
	h := heap.New()
	fnName := mir.FunctionName{TypeName: mir.NominalTypeName(heap.ModuleRoot, h.Alloc("Main")), FnName: h.Alloc("compute")}
	src := &lir.Sources{
		Functions: []*lir.Function{
			{Name: fnName, Type: &mir.FunctionType{Ret: mir.Int32Type}, ReturnValue: lir.IntLiteral{Value: 7}},
		},
	}
	text := Render(Lower(h, src))
	if !strings.Contains(text, "(i32.const 7)") {
		t.Errorf("expected folded constant 7 in output, got:\n%s", text)
	}
}

// TestEnumLayoutIsPointer exercises S4's IsPointer predicate at the WASM
// layer: it compiles to the documented bit-pattern test.
func TestEnumLayoutIsPointer(t *testing.T) {
	h := heap.New()
	operandName := h.Alloc("x")
	resultName := h.Alloc("isPtr")
	fnName := mir.FunctionName{TypeName: mir.NominalTypeName(heap.ModuleRoot, h.Alloc("Main")), FnName: h.Alloc("check")}
	src := &lir.Sources{
		Functions: []*lir.Function{{
			Name:       fnName,
			Parameters: []heap.PStr{operandName},
			Type:       &mir.FunctionType{Params: []mir.Type{mir.Int32Type}, Ret: mir.Int32Type},
			Body: []lir.Statement{
				&lir.IsPointer{Name: resultName, Operand: lir.Variable{VariableName: lir.VariableName{Name: operandName, Type: lir.Int32Type}}},
			},
			ReturnValue: lir.Variable{VariableName: lir.VariableName{Name: resultName, Type: lir.Int32Type}},
		}},
	}
	text := Render(Lower(h, src))
	if !strings.Contains(text, "(i32.const 1024)") || !strings.Contains(text, "ge_s") || !strings.Contains(text, "and") {
		t.Errorf("expected IsPointer's >= 1024 && (x & 1) == 0 pattern, got:\n%s", text)
	}
}
