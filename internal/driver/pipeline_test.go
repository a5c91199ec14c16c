package driver

import (
	"strings"
	"testing"

	"github.com/samlang-wasm/samlang/internal/ast"
	"github.com/samlang-wasm/samlang/internal/heap"
)

// TestCompileMinimalMain drives the whole pipeline over `class Main { function
// main(): int = 0 }`, echoing spec §8 S5's minimal-module shape end to end.
func TestCompileMinimalMain(t *testing.T) {
	h := heap.New()
	loc := heap.DummyLocation

	mainName := h.Alloc("Main")
	memberName := h.Alloc("main")

	mod := &ast.Module{
		ModuleRef: heap.ModuleRoot,
		Toplevels: []*ast.Toplevel{
			{
				Name:           mainName,
				TypeDefinition: &ast.TypeDefinition{Kind: ast.TypeDefStruct},
				Members: []ast.MemberDefinition{
					{
						IsPublic:   true,
						IsMethod:   false,
						Name:       memberName,
						ReturnType: &ast.TypePrimitive{Kind: ast.PrimitiveInt, Location: loc},
						Body:       &ast.Literal{Kind: ast.LitInt, IntValue: 0, Location: loc},
						Location:   loc,
					},
				},
				Location: loc,
			},
		},
	}

	wasmMod, errs := CompileModules(h, []*ast.Module{mod})
	if errs.HasErrors() {
		t.Fatalf("unexpected compile errors: %+v", errs.Reports())
	}
	if wasmMod == nil {
		t.Fatal("expected a compiled module")
	}
	if len(wasmMod.ExportedNames) != 1 {
		t.Fatalf("expected exactly one exported main, got %+v", wasmMod.ExportedNames)
	}
}

// TestCompileReportsResolutionErrors exercises spec §7's "compilation halts
// at the first phase that reports an error": Main.main's body names an
// unbound variable, so the SSA pass reports it, the module never reaches
// lowering, and the returned module is nil while errs carries that report.
func TestCompileReportsResolutionErrors(t *testing.T) {
	h := heap.New()
	loc := heap.DummyLocation
	mod := &ast.Module{
		ModuleRef: heap.ModuleRoot,
		Toplevels: []*ast.Toplevel{
			{
				Name:           h.Alloc("Main"),
				TypeDefinition: &ast.TypeDefinition{Kind: ast.TypeDefStruct},
				Members: []ast.MemberDefinition{
					{
						IsPublic:   true,
						IsMethod:   false,
						Name:       h.Alloc("main"),
						ReturnType: &ast.TypePrimitive{Kind: ast.PrimitiveInt, Location: loc},
						// Body references an unbound name: the SSA pass must
						// report it before the checker or lowering ever run.
						Body:     &ast.LocalId{Name: h.Alloc("undefinedVariable"), Location: loc},
						Location: loc,
					},
				},
				Location: loc,
			},
		},
	}

	wasmMod, errs := CompileModules(h, []*ast.Module{mod})
	if wasmMod != nil {
		t.Fatalf("expected no module on error, got %+v", wasmMod)
	}
	if !errs.HasErrors() {
		t.Fatal("expected at least one error report")
	}
	found := false
	for _, r := range errs.Reports() {
		if strings.Contains(r.Error(), "undefinedVariable") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a report mentioning the unbound name, got %+v", errs.Reports())
	}
}
