package checker

import (
	"fmt"

	"github.com/samlang-wasm/samlang/internal/ast"
	"github.com/samlang-wasm/samlang/internal/heap"
	"github.com/samlang-wasm/samlang/internal/typedast"
)

// SynthesizeTupleType builds the nominal type samlang tuples check against:
// a module-root type named "$TupleN" (N = arity) whose type arguments are
// the element types, so two tuples of the same arity and element types
// compare Equal without any separate structural-key bookkeeping at the
// checker level (HIR lowering synthesizes its own, memoized struct layout
// for the same tuple independently, per spec §4.3).
func SynthesizeTupleType(h *heap.Heap, elemTypes []typedast.Type) typedast.Type {
	name := h.Alloc(fmt.Sprintf("$Tuple%d", len(elemTypes)))
	return &typedast.TypeNominal{ModuleRef: heap.ModuleRoot, Id: name, TypeArgs: elemTypes}
}

// CheckPattern resolves a source pattern against the type of the value it
// destructures, returning a best-effort typedast.Pattern so checking the
// body can proceed. It reports no errors itself: a field or tag that the
// scrutinee's type does not define leaves the affected sub-patterns checked
// against Any.
func (c *Context) CheckPattern(p ast.Pattern, scrutineeType typedast.Type) typedast.Pattern {
	switch n := p.(type) {
	case *ast.PatternWildcard:
		return &typedast.PatternWildcard{PatternBase: typedast.PatternBase{Location: n.Location}}
	case *ast.PatternId:
		return &typedast.PatternId{PatternBase: typedast.PatternBase{Location: n.Location}, Name: n.Name, Type: scrutineeType}
	case *ast.PatternTuple:
		return c.checkPatternTuple(n, scrutineeType)
	case *ast.PatternObject:
		return c.checkPatternObject(n, scrutineeType)
	case *ast.PatternVariant:
		return c.checkPatternVariant(n, scrutineeType)
	default:
		return &typedast.PatternWildcard{PatternBase: typedast.PatternBase{Location: p.Loc()}}
	}
}

func (c *Context) checkPatternTuple(n *ast.PatternTuple, scrutineeType typedast.Type) typedast.Pattern {
	nom, _ := scrutineeType.(*typedast.TypeNominal)
	elems := make([]typedast.Pattern, len(n.Elements))
	for i, el := range n.Elements {
		want := anyType()
		if nom != nil && i < len(nom.TypeArgs) {
			want = nom.TypeArgs[i]
		}
		elems[i] = c.CheckPattern(el, want)
	}
	return &typedast.PatternTuple{PatternBase: typedast.PatternBase{Location: n.Location}, Elements: elems}
}

func (c *Context) checkPatternObject(n *ast.PatternObject, scrutineeType typedast.Type) typedast.Pattern {
	var fields map[heap.PStr]typedast.FieldType
	if nom, ok := scrutineeType.(*typedast.TypeNominal); ok {
		_, fields = c.ResolveTypeDefinition(nom.ModuleRef, nom.Id, nom.TypeArgs, true)
	}
	out := make([]typedast.ObjectFieldPattern, len(n.Fields))
	for i, f := range n.Fields {
		ft, ok := fields[f.FieldName]
		want := anyType()
		if ok {
			want = ft.Type
		}
		out[i] = typedast.ObjectFieldPattern{FieldName: f.FieldName, FieldType: want, Binder: c.CheckPattern(f.Binder, want)}
	}
	return &typedast.PatternObject{PatternBase: typedast.PatternBase{Location: n.Location}, Fields: out}
}

func (c *Context) checkPatternVariant(n *ast.PatternVariant, scrutineeType typedast.Type) typedast.Pattern {
	var argTypes []typedast.Type
	if nom, ok := scrutineeType.(*typedast.TypeNominal); ok {
		argTypes, _ = c.ResolveVariantFields(nom.ModuleRef, nom.Id, nom.TypeArgs, n.Tag)
	}
	args := make([]typedast.Pattern, len(n.Args))
	for i, a := range n.Args {
		want := anyType()
		if i < len(argTypes) {
			want = argTypes[i]
		}
		args[i] = c.CheckPattern(a, want)
	}
	return &typedast.PatternVariant{PatternBase: typedast.PatternBase{Location: n.Location}, Tag: n.Tag, TagIndex: n.TagOrder, Args: args}
}
