// Package typedast is the output of the type checker: it mirrors the shape
// of internal/ast but every expression and toplevel carries a resolved
// Type, and type annotations have been replaced by checked Type values.
package typedast

import "github.com/samlang-wasm/samlang/internal/heap"

// TypeReason records why a Type node has the shape it does, for diagnostics
// and for distinguishing an inference placeholder from a genuine program
// error once checking completes.
type TypeReason int

const (
	ReasonAnnotated TypeReason = iota
	ReasonInferred
	ReasonPlaceholder
	ReasonBuiltin
)

// Type is a resolved, checked type. Unlike ast.Type (annotation syntax),
// every Type here is either fully resolved or the designated `Any`
// placeholder used to keep checking going after an error.
type Type interface {
	typeNode()
}

// TypeAny is the unresolved placeholder substituted whenever checking a
// subterm failed; it unifies permissively with everything so one error
// does not cascade into unrelated diagnostics.
type TypeAny struct {
	Reason      TypeReason
	Placeholder string
}

func (*TypeAny) typeNode() {}

// PrimitiveKind enumerates the checked primitive types.
type PrimitiveKind int

const (
	PrimUnit PrimitiveKind = iota
	PrimBool
	PrimInt
)

// TypePrimitive is Unit, Bool, or Int.
type TypePrimitive struct {
	Reason TypeReason
	Kind   PrimitiveKind
}

func (*TypePrimitive) typeNode() {}

// TypeNominal is a named reference to a class or interface. IsClassStatics
// disambiguates `ClassName` used as a static-member-bearing value from an
// instance value of that class.
type TypeNominal struct {
	ModuleRef       heap.ModuleReference
	Id              heap.PStr
	IsClassStatics  bool
	TypeArgs        []Type
}

func (*TypeNominal) typeNode() {}

// TypeGeneric is a reference to an in-scope type parameter.
type TypeGeneric struct {
	Reason TypeReason
	Name   heap.PStr
}

func (*TypeGeneric) typeNode() {}

// TypeFn is a function type `(params) -> ret`.
type TypeFn struct {
	Params []Type
	Ret    Type
}

func (*TypeFn) typeNode() {}

// Equal reports whether two checked types are structurally identical. It is
// used by subtyping (identity fallback for primitives/functions) and by
// instantiation-bound checks.
func Equal(a, b Type) bool {
	switch x := a.(type) {
	case *TypeAny:
		_, ok := b.(*TypeAny)
		return ok
	case *TypePrimitive:
		y, ok := b.(*TypePrimitive)
		return ok && x.Kind == y.Kind
	case *TypeGeneric:
		y, ok := b.(*TypeGeneric)
		return ok && x.Name == y.Name
	case *TypeNominal:
		y, ok := b.(*TypeNominal)
		if !ok || x.ModuleRef != y.ModuleRef || x.Id != y.Id || x.IsClassStatics != y.IsClassStatics || len(x.TypeArgs) != len(y.TypeArgs) {
			return false
		}
		for i := range x.TypeArgs {
			if !Equal(x.TypeArgs[i], y.TypeArgs[i]) {
				return false
			}
		}
		return true
	case *TypeFn:
		y, ok := b.(*TypeFn)
		if !ok || len(x.Params) != len(y.Params) {
			return false
		}
		for i := range x.Params {
			if !Equal(x.Params[i], y.Params[i]) {
				return false
			}
		}
		return Equal(x.Ret, y.Ret)
	default:
		return false
	}
}

// Substitute replaces every TypeGeneric in t whose name is a key of subst
// with the corresponding Type, recursively.
func Substitute(t Type, subst map[heap.PStr]Type) Type {
	switch n := t.(type) {
	case *TypeGeneric:
		if repl, ok := subst[n.Name]; ok {
			return repl
		}
		return n
	case *TypeNominal:
		args := make([]Type, len(n.TypeArgs))
		for i, a := range n.TypeArgs {
			args[i] = Substitute(a, subst)
		}
		return &TypeNominal{ModuleRef: n.ModuleRef, Id: n.Id, IsClassStatics: n.IsClassStatics, TypeArgs: args}
	case *TypeFn:
		params := make([]Type, len(n.Params))
		for i, p := range n.Params {
			params[i] = Substitute(p, subst)
		}
		return &TypeFn{Params: params, Ret: Substitute(n.Ret, subst)}
	default:
		return t
	}
}
