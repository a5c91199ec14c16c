package hir

import (
	"testing"

	"github.com/samlang-wasm/samlang/internal/heap"
	"github.com/samlang-wasm/samlang/internal/ssa"
	"github.com/samlang-wasm/samlang/internal/typedast"
)

// TestLowerLambdaCapturesViaExplicitContext exercises spec §4.3's closure
// conversion: a lambda referencing an outer parameter lowers to a
// StructInit that packs the capture into a context struct, followed by a
// ClosureInit combining that context with the lifted function's name — no
// direct reference to the outer parameter survives inside the emitted
// ClosureInit itself.
func TestLowerLambdaCapturesViaExplicitContext(t *testing.T) {
	h := heap.New()
	intType := &typedast.TypePrimitive{Kind: typedast.PrimInt}
	fnType := &typedast.TypeFn{Params: nil, Ret: intType}

	n := h.Alloc("n")
	loc := heap.DummyLocation

	lambda := &typedast.Lambda{
		Base:       typedast.Base{Type: fnType, Location: loc},
		Parameters: nil,
		Body:       &typedast.LocalId{Base: typedast.Base{Type: intType, Location: loc}, Name: n},
		Captures:   []heap.PStr{n},
	}

	mod := &typedast.Module{
		ModuleRef: heap.ModuleRoot,
		Toplevels: []*typedast.Toplevel{{
			Name:    h.Alloc("Main"),
			TypeDef: &typedast.TypeDefContext{IsStruct: true},
			Members: []typedast.Member{{
				IsPublic:   true,
				Name:       h.Alloc("main"),
				Parameters: []typedast.Param{{Name: n, Type: intType}},
				ReturnType: fnType,
				Body:       lambda,
				Location:   loc,
			}},
		}},
	}

	globals := typedast.NewGlobalSignatures()
	src := Lower(h, globals, ssa.NewResult(), mod)

	if len(src.Functions) != 2 {
		t.Fatalf("expected the static member plus one lifted lambda function, got %d", len(src.Functions))
	}

	mainName := h.Alloc("main")
	var mainFn, lifted *Function
	for _, fn := range src.Functions {
		if fn.Name.FnName == mainName {
			mainFn = fn
		} else {
			lifted = fn
		}
	}
	if mainFn == nil || lifted == nil {
		t.Fatalf("expected one main function and one lifted lambda, got %+v", src.Functions)
	}

	var sawStructInit, sawClosureInit bool
	for _, s := range mainFn.Body {
		if si, ok := s.(*StructInit); ok {
			sawStructInit = true
			if len(si.ExpressionList) != 1 {
				t.Errorf("expected the context struct to pack exactly the one capture, got %d fields", len(si.ExpressionList))
			}
		}
		if _, ok := s.(*ClosureInit); ok {
			sawClosureInit = true
		}
	}
	if !sawStructInit {
		t.Error("expected a StructInit building the capture context")
	}
	if !sawClosureInit {
		t.Error("expected a ClosureInit combining the context with the lifted function")
	}

	if len(lifted.Parameters) < 1 {
		t.Fatalf("expected the lifted lambda to take an explicit context parameter, got %+v", lifted.Parameters)
	}
}
