package checker

import "github.com/samlang-wasm/samlang/internal/typedast"

// IsSubtype reports whether lower <: upper under nominal subtyping: lower
// must be a TypeNominal whose declared supertypes (after substituting its
// own type arguments for its declaration's type parameters) include a type
// equal to upper. Primitives and function types participate only by
// identity (spec §4.2 "Subtyping").
func (c *Context) IsSubtype(lower, upper typedast.Type) bool {
	if typedast.Equal(lower, upper) {
		return true
	}
	if _, ok := lower.(*typedast.TypeAny); ok {
		return true
	}
	if _, ok := upper.(*typedast.TypeAny); ok {
		return true
	}
	lowNom, ok := lower.(*typedast.TypeNominal)
	if !ok {
		return false
	}
	iface, ok := c.Globals.Lookup(lowNom.ModuleRef, lowNom.Id)
	if !ok {
		return false
	}
	instantiated := iface.Instantiate(lowNom.TypeArgs)
	for _, super := range instantiated.SuperTypes {
		if typedast.Equal(super, upper) {
			return true
		}
		// Transitive: super's own declared supertypes also count.
		if c.IsSubtype(super, upper) {
			return true
		}
	}
	return false
}
