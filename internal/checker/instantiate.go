package checker

import (
	"github.com/samlang-wasm/samlang/internal/errors"
	"github.com/samlang-wasm/samlang/internal/heap"
	"github.com/samlang-wasm/samlang/internal/typedast"
)

// ValidateInstantiation checks that t is well-formed in the current scope:
// type-parameter references must be nullary, nominal references must match
// their declared arity and satisfy any parameter bounds, and function types
// are validated component-wise. enforceConcrete additionally rejects a
// nominal reference whose interface is abstract (an interface with no
// concrete definition), per spec §4.2.
func (c *Context) ValidateInstantiation(t typedast.Type, loc heap.Location, enforceConcrete bool) {
	switch n := t.(type) {
	case *typedast.TypeAny, *typedast.TypePrimitive:
		return
	case *typedast.TypeGeneric:
		if _, ok := c.lookupBound(n.Name); !ok {
			c.report(errors.RES001, "unresolved type parameter: "+c.Heap.Str(n.Name), loc)
		}
	case *typedast.TypeFn:
		for _, p := range n.Params {
			c.ValidateInstantiation(p, loc, true)
		}
		c.ValidateInstantiation(n.Ret, loc, true)
	case *typedast.TypeNominal:
		c.validateNominal(n, loc, enforceConcrete)
	}
}

func (c *Context) validateNominal(n *typedast.TypeNominal, loc heap.Location, enforceConcrete bool) {
	iface, ok := c.Globals.Lookup(n.ModuleRef, n.Id)
	if !ok {
		c.report(errors.RES001, "unresolved type: "+c.Heap.Str(n.Id), loc)
		return
	}
	if len(iface.TypeParameters) != len(n.TypeArgs) {
		c.report(errors.TYP001, "arity mismatch for "+c.Heap.Str(n.Id), loc).WithData(map[string]any{
			"expected": len(iface.TypeParameters),
			"actual":   len(n.TypeArgs),
		})
		return
	}
	if enforceConcrete && !iface.IsConcrete {
		c.report(errors.TYP003, "unexpected type kind: expected a non-abstract type", loc)
	}
	for i, arg := range n.TypeArgs {
		c.ValidateInstantiation(arg, loc, true)
		bound := iface.TypeParameters[i].Bound
		if bound != nil && !c.IsSubtype(arg, bound) {
			c.report(errors.TYP002, "type argument is not a subtype of its bound", loc)
		}
	}
}

