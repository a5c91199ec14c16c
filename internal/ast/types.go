// Package ast defines the source-level abstract syntax tree samlang
// programs are parsed into. Every node carries a heap.Location; names are
// interned heap.PStr ids rather than raw strings so that later passes never
// need to re-hash identifiers.
package ast

import "github.com/samlang-wasm/samlang/internal/heap"

// Type is a type annotation as written by the programmer (as opposed to
// typedast.Type, which is the checker's resolved representation).
type Type interface {
	typeNode()
	Loc() heap.Location
}

// PrimitiveKind enumerates the built-in annotation-level primitive types.
type PrimitiveKind int

const (
	PrimitiveAny PrimitiveKind = iota
	PrimitiveUnit
	PrimitiveBool
	PrimitiveInt
)

func (k PrimitiveKind) String() string {
	switch k {
	case PrimitiveAny:
		return "Any"
	case PrimitiveUnit:
		return "unit"
	case PrimitiveBool:
		return "bool"
	case PrimitiveInt:
		return "int"
	default:
		return "?"
	}
}

// TypePrimitive is one of Any, Unit, Bool, Int.
type TypePrimitive struct {
	Kind     PrimitiveKind
	Location heap.Location
}

func (*TypePrimitive) typeNode()         {}
func (t *TypePrimitive) Loc() heap.Location { return t.Location }

// TypeId is a nominal reference to a class or interface, optionally
// parameterized: module_ref.Name<TypeArgs...>.
type TypeId struct {
	ModuleRef heap.ModuleReference
	Name      heap.PStr
	TypeArgs  []Type
	Location  heap.Location
}

func (*TypeId) typeNode()         {}
func (t *TypeId) Loc() heap.Location { return t.Location }

// TypeGeneric is a reference to an in-scope type parameter.
type TypeGeneric struct {
	Name     heap.PStr
	Location heap.Location
}

func (*TypeGeneric) typeNode()         {}
func (t *TypeGeneric) Loc() heap.Location { return t.Location }

// TypeFn is a function type: (Params...) -> Ret.
type TypeFn struct {
	Params   []Type
	Ret      Type
	Location heap.Location
}

func (*TypeFn) typeNode()         {}
func (t *TypeFn) Loc() heap.Location { return t.Location }
