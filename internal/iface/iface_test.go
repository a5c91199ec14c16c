package iface

import (
	"testing"

	"github.com/samlang-wasm/samlang/internal/ast"
	"github.com/samlang-wasm/samlang/internal/heap"
	"github.com/samlang-wasm/samlang/internal/typedast"
)

// TestBuildStructSignature exercises the pre-pass shape: a public struct
// field and a public static function both surface in the ModuleSignature
// without any expression ever being checked.
func TestBuildStructSignature(t *testing.T) {
	h := heap.New()
	loc := heap.DummyLocation
	className := h.Alloc("Point")
	fieldName := h.Alloc("x")
	memberName := h.Alloc("origin")

	mod := &ast.Module{
		ModuleRef: heap.ModuleRoot,
		Toplevels: []*ast.Toplevel{{
			Name: className,
			TypeDefinition: &ast.TypeDefinition{
				Kind:   ast.TypeDefStruct,
				Fields: []ast.FieldDefinition{{Name: fieldName, Type: &ast.TypePrimitive{Kind: ast.PrimitiveInt, Location: loc}, IsPublic: true}},
			},
			Members: []ast.MemberDefinition{{
				IsPublic:   true,
				Name:       memberName,
				ReturnType: &ast.TypeId{Name: className, ModuleRef: heap.ModuleRoot, Location: loc},
				Location:   loc,
			}},
			Location: loc,
		}},
	}

	sig := Build(mod)
	iface, ok := sig.Interfaces[className]
	if !ok {
		t.Fatal("expected an interface signature for Point")
	}
	if !iface.IsConcrete {
		t.Error("a class (not an interface) must be concrete")
	}
	fn, ok := iface.Functions[memberName]
	if !ok {
		t.Fatal("expected the static function origin in the signature")
	}
	if !fn.IsPublic {
		t.Error("expected origin to be public")
	}

	typeDef, ok := sig.TypeDefs[className]
	if !ok {
		t.Fatal("expected a type definition context for Point")
	}
	if !typeDef.IsStruct {
		t.Error("expected a struct type definition")
	}
	if len(typeDef.FieldOrder) != 1 || typeDef.FieldOrder[0] != fieldName {
		t.Fatalf("expected field order [x], got %+v", typeDef.FieldOrder)
	}
	ft, ok := typeDef.FieldTypes[fieldName]
	if !ok || !ft.IsPublic {
		t.Fatalf("expected a public field type for x, got %+v (ok=%v)", ft, ok)
	}
	if _, ok := ft.Type.(*typedast.TypePrimitive); !ok {
		t.Fatalf("expected x to lift to a TypePrimitive, got %T", ft.Type)
	}
}

// TestLiftTypeFunctionType exercises LiftType's function-type case, used
// wherever a member parameter or field is itself a lambda type.
func TestLiftTypeFunctionType(t *testing.T) {
	loc := heap.DummyLocation
	src := &ast.TypeFn{
		Params: []ast.Type{&ast.TypePrimitive{Kind: ast.PrimitiveInt, Location: loc}},
		Ret:    &ast.TypePrimitive{Kind: ast.PrimitiveBool, Location: loc},
	}
	lifted, ok := LiftType(src).(*typedast.TypeFn)
	if !ok {
		t.Fatalf("expected a TypeFn, got %T", LiftType(src))
	}
	if len(lifted.Params) != 1 {
		t.Fatalf("expected one parameter, got %d", len(lifted.Params))
	}
}
