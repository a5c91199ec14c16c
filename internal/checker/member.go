package checker

import (
	"github.com/samlang-wasm/samlang/internal/errors"
	"github.com/samlang-wasm/samlang/internal/heap"
	"github.com/samlang-wasm/samlang/internal/typedast"
)

// queryFunctionType resolves a static member `fn` on class/interface
// (mod, class), returning its signature iff it exists and is visible from
// the current checking context (public, or accessed from within the same
// class). It reports nothing when the function does not exist, so callers
// can fall back to another interpretation (e.g. a variant constructor)
// before deciding the reference is genuinely unresolved; a function that
// exists but is not accessible reports TYP005.
func (c *Context) queryFunctionType(mod heap.ModuleReference, class, fn heap.PStr) (*typedast.MemberSignature, bool) {
	iface, ok := c.Globals.Lookup(mod, class)
	if !ok {
		return nil, false
	}
	sig, ok := iface.Functions[fn]
	if !ok {
		return nil, false
	}
	if !sig.IsPublic && !(mod == c.CurrentModule && class == c.CurrentClass) {
		c.report(errors.TYP005, "function not accessible: "+c.Heap.Str(fn), heap.DummyLocation)
		return nil, false
	}
	return sig, true
}

// variantConstructorType returns the synthesized function type of the
// constructor for enum tag `field` on (mod, class) — its variant's ordered
// field types to the enum's own nominal type, generic over the class's own
// type parameters (spec §2, "variant tags double as constructor functions").
func (c *Context) variantConstructorType(mod heap.ModuleReference, class, field heap.PStr) (*typedast.TypeFn, bool) {
	td, ok := c.Globals.LookupTypeDef(mod, class)
	if !ok || td.IsStruct {
		return nil, false
	}
	fields, ok := td.VariantFields[field]
	if !ok {
		return nil, false
	}
	args := make([]typedast.Type, len(td.TypeParameters))
	for i, p := range td.TypeParameters {
		args[i] = &typedast.TypeGeneric{Name: p}
	}
	ret := &typedast.TypeNominal{ModuleRef: mod, Id: class, TypeArgs: args}
	return &typedast.TypeFn{Params: fields, Ret: ret}, true
}

// GetMethodType resolves method `method` on (mod, class), instantiating the
// class's interface context with classTypeArgs and returning the
// instantiated member signature. When the receiver was resolved via a type
// parameter whose bound is nominal, callers pass that bound's module/class/
// args instead of the parameter's own identity (spec §4.2).
func (c *Context) GetMethodType(mod heap.ModuleReference, class, method heap.PStr, classTypeArgs []typedast.Type, useLoc heap.Location) *typedast.MemberSignature {
	iface, ok := c.Globals.Lookup(mod, class)
	if !ok {
		c.report(errors.RES001, "unresolved class: "+c.Heap.Str(class), useLoc)
		return nil
	}
	instantiated := iface.Instantiate(classTypeArgs)
	sig, ok := instantiated.Methods[method]
	if !ok {
		c.report(errors.TYP004, "no such method: "+c.Heap.Str(method), useLoc)
		return nil
	}
	if !sig.IsPublic && !(mod == c.CurrentModule && class == c.CurrentClass) {
		c.report(errors.TYP005, "method not accessible: "+c.Heap.Str(method), useLoc)
		return nil
	}
	return sig
}

// ResolveTypeDefinition fetches the type definition for Id{mod,class,args},
// substitutes args for the class's own type parameters into every
// field/variant type, and returns the ordered field/variant names plus a
// name-indexed map. expectObject selects which shape the caller expects
// (struct vs enum); a mismatch yields an empty result rather than an error,
// matching spec §4.2 ("return empty").
func (c *Context) ResolveTypeDefinition(mod heap.ModuleReference, class heap.PStr, args []typedast.Type, expectObject bool) (order []heap.PStr, fields map[heap.PStr]typedast.FieldType) {
	td, ok := c.Globals.LookupTypeDef(mod, class)
	if !ok || td.IsStruct != expectObject {
		return nil, map[heap.PStr]typedast.FieldType{}
	}
	subst := make(map[heap.PStr]typedast.Type, len(td.TypeParameters))
	for i, p := range td.TypeParameters {
		if i < len(args) {
			subst[p] = args[i]
		}
	}
	fields = make(map[heap.PStr]typedast.FieldType, len(td.FieldOrder))
	for _, name := range td.FieldOrder {
		ft := td.FieldTypes[name]
		fields[name] = typedast.FieldType{IsPublic: ft.IsPublic, Type: typedast.Substitute(ft.Type, subst)}
	}
	return td.FieldOrder, fields
}

// ResolveVariantFields is ResolveTypeDefinition's enum analogue: it returns
// the substituted field types for one variant tag of Id{mod,class,args}.
func (c *Context) ResolveVariantFields(mod heap.ModuleReference, class heap.PStr, args []typedast.Type, tag heap.PStr) ([]typedast.Type, bool) {
	td, ok := c.Globals.LookupTypeDef(mod, class)
	if !ok || td.IsStruct {
		return nil, false
	}
	fields, ok := td.VariantFields[tag]
	if !ok {
		return nil, false
	}
	subst := make(map[heap.PStr]typedast.Type, len(td.TypeParameters))
	for i, p := range td.TypeParameters {
		if i < len(args) {
			subst[p] = args[i]
		}
	}
	out := make([]typedast.Type, len(fields))
	for i, f := range fields {
		out[i] = typedast.Substitute(f, subst)
	}
	return out, true
}

// VariantTagIndex returns the 0-based declaration order of tag within the
// enum Id{mod,class}, used as the runtime discriminant.
func (c *Context) VariantTagIndex(mod heap.ModuleReference, class, tag heap.PStr) (int, bool) {
	td, ok := c.Globals.LookupTypeDef(mod, class)
	if !ok || td.IsStruct {
		return 0, false
	}
	for i, t := range td.VariantOrder {
		if t == tag {
			return i, true
		}
	}
	return 0, false
}
