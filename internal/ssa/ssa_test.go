package ssa

import (
	"testing"

	"github.com/samlang-wasm/samlang/internal/ast"
	"github.com/samlang-wasm/samlang/internal/errors"
	"github.com/samlang-wasm/samlang/internal/heap"
)

func TestUnboundNameReported(t *testing.T) {
	h := heap.New()
	loc := heap.DummyLocation
	x := h.Alloc("x")
	mod := &ast.Module{
		ModuleRef: heap.ModuleRoot,
		Toplevels: []*ast.Toplevel{
			{
				Name:     h.Alloc("Main"),
				Location: loc,
				Members: []ast.MemberDefinition{
					{
						Name:       h.Alloc("run"),
						IsMethod:   false,
						ReturnType: &ast.TypePrimitive{Kind: ast.PrimitiveInt, Location: loc},
						Body:       &ast.LocalId{Name: x, Location: loc},
						Location:   loc,
					},
				},
			},
		},
	}
	errs := errors.NewSet()
	result := New(h, errs).Analyze(mod)
	if !errs.HasErrors() {
		t.Fatalf("expected an unresolved-name error")
	}
	if errs.Reports()[0].Code != errors.RES001 {
		t.Fatalf("expected RES001, got %s", errs.Reports()[0].Code)
	}
	_ = result
}

func TestLambdaCapturesOuterLocal(t *testing.T) {
	h := heap.New()
	loc := heap.DummyLocation
	x := h.Alloc("x")
	y := h.Alloc("y")
	lambdaLoc := heap.Location{ModuleRef: heap.ModuleRoot, Start: heap.Position{Line: 1}, End: heap.Position{Line: 2}}
	lambda := &ast.Lambda{
		Parameters: []ast.LambdaParam{{Name: y, Location: loc}},
		Body: &ast.Binary{
			Operator: ast.BinPlus,
			Left:     &ast.LocalId{Name: x, Location: loc},
			Right:    &ast.LocalId{Name: y, Location: loc},
			Location: loc,
		},
		Location: lambdaLoc,
	}
	mod := &ast.Module{
		ModuleRef: heap.ModuleRoot,
		Toplevels: []*ast.Toplevel{
			{
				Name:     h.Alloc("Main"),
				Location: loc,
				Members: []ast.MemberDefinition{
					{
						Name:     h.Alloc("run"),
						IsMethod: false,
						Parameters: []ast.Param{
							{Name: x, Type: &ast.TypePrimitive{Kind: ast.PrimitiveInt, Location: loc}, Location: loc},
						},
						ReturnType: &ast.TypePrimitive{Kind: ast.PrimitiveInt, Location: loc},
						Body:       lambda,
						Location:   loc,
					},
				},
			},
		},
	}
	errs := errors.NewSet()
	result := New(h, errs).Analyze(mod)
	if errs.HasErrors() {
		t.Fatalf("unexpected errors: %v", errs.Reports())
	}
	captures := result.LambdaCaptures[lambdaLoc]
	if len(captures) != 1 || captures[0] != x {
		t.Fatalf("expected capture set {x}, got %v", captures)
	}
}

func TestDuplicateBindingReported(t *testing.T) {
	h := heap.New()
	loc := heap.DummyLocation
	x := h.Alloc("x")
	mod := &ast.Module{
		ModuleRef: heap.ModuleRoot,
		Toplevels: []*ast.Toplevel{
			{
				Name:     h.Alloc("Main"),
				Location: loc,
				Members: []ast.MemberDefinition{
					{
						Name:     h.Alloc("run"),
						IsMethod: false,
						Parameters: []ast.Param{
							{Name: x, Type: &ast.TypePrimitive{Kind: ast.PrimitiveInt, Location: loc}, Location: loc},
						},
						ReturnType: &ast.TypePrimitive{Kind: ast.PrimitiveInt, Location: loc},
						Body: &ast.Block{
							Statements: []ast.BlockStatement{
								{Pattern: &ast.PatternId{Name: x, Location: loc}, Value: &ast.Literal{Kind: ast.LitInt, IntValue: 1, Location: loc}, Location: loc},
							},
							FinalExpr: &ast.LocalId{Name: x, Location: loc},
							Location:  loc,
						},
						Location: loc,
					},
				},
			},
		},
	}
	errs := errors.NewSet()
	New(h, errs).Analyze(mod)
	if !errs.HasErrors() {
		t.Fatalf("expected NameAlreadyBound error")
	}
	if errs.Reports()[0].Code != errors.RES002 {
		t.Fatalf("expected RES002, got %s", errs.Reports()[0].Code)
	}
}
