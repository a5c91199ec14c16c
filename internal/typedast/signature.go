package typedast

import "github.com/samlang-wasm/samlang/internal/heap"

// TypeParameterSig is a type parameter together with its optional nominal
// bound, as carried by a checked signature.
type TypeParameterSig struct {
	Name  heap.PStr
	Bound *TypeNominal // nil if unbounded
}

// MemberSignature is the checked shape of one class/interface member:
// whether it is exported, its own type parameters, and its function type.
type MemberSignature struct {
	IsPublic       bool
	TypeParameters []TypeParameterSig
	Type           *TypeFn
}

// InterfaceSignature is the checked shape of a class or interface as a
// whole: whether it has a concrete (non-abstract) definition, its type
// parameters, declared supertypes, and its functions/methods by name.
type InterfaceSignature struct {
	IsConcrete     bool
	TypeParameters []TypeParameterSig
	SuperTypes     []*TypeNominal
	Functions      map[heap.PStr]*MemberSignature
	Methods        map[heap.PStr]*MemberSignature
}

// Instantiate substitutes this signature's type parameters with typeArgs
// (positional) throughout its super types and member function types,
// returning a fresh InterfaceSignature with no remaining type parameters.
func (s *InterfaceSignature) Instantiate(typeArgs []Type) *InterfaceSignature {
	subst := make(map[heap.PStr]Type, len(s.TypeParameters))
	for i, tp := range s.TypeParameters {
		if i < len(typeArgs) {
			subst[tp.Name] = typeArgs[i]
		}
	}
	out := &InterfaceSignature{
		IsConcrete: s.IsConcrete,
		Functions:  make(map[heap.PStr]*MemberSignature, len(s.Functions)),
		Methods:    make(map[heap.PStr]*MemberSignature, len(s.Methods)),
	}
	for _, st := range s.SuperTypes {
		out.SuperTypes = append(out.SuperTypes, Substitute(st, subst).(*TypeNominal))
	}
	for name, m := range s.Functions {
		out.Functions[name] = instantiateMember(m, subst)
	}
	for name, m := range s.Methods {
		out.Methods[name] = instantiateMember(m, subst)
	}
	return out
}

func instantiateMember(m *MemberSignature, subst map[heap.PStr]Type) *MemberSignature {
	return &MemberSignature{
		IsPublic:       m.IsPublic,
		TypeParameters: m.TypeParameters,
		Type:           Substitute(m.Type, subst).(*TypeFn),
	}
}

// TypeDefContext is the checked, substitutable shape of a class's type
// definition: either a struct's ordered fields or an enum's ordered
// variants, each carrying unsubstituted field types keyed by the class's
// own type parameters.
type TypeDefContext struct {
	IsStruct       bool
	TypeParameters []heap.PStr
	FieldOrder     []heap.PStr          // struct field names, declared order
	FieldTypes     map[heap.PStr]FieldType
	VariantOrder   []heap.PStr // enum tags, declared order
	VariantFields  map[heap.PStr][]Type
}

// FieldType pairs a struct field's checked type with its visibility.
type FieldType struct {
	IsPublic bool
	Type     Type
}

// ModuleSignature maps every toplevel name declared in a module to its
// interface signature and (for classes) type-definition context.
type ModuleSignature struct {
	Interfaces map[heap.PStr]*InterfaceSignature
	TypeDefs   map[heap.PStr]*TypeDefContext
}

// NewModuleSignature returns an empty signature ready for population during
// a pre-pass over a module's toplevels.
func NewModuleSignature() *ModuleSignature {
	return &ModuleSignature{
		Interfaces: make(map[heap.PStr]*InterfaceSignature),
		TypeDefs:   make(map[heap.PStr]*TypeDefContext),
	}
}

// GlobalSignatures is the full set of module signatures visible during
// checking, keyed by module reference.
type GlobalSignatures struct {
	Modules map[heap.ModuleReference]*ModuleSignature
}

// NewGlobalSignatures returns an empty collection.
func NewGlobalSignatures() *GlobalSignatures {
	return &GlobalSignatures{Modules: make(map[heap.ModuleReference]*ModuleSignature)}
}

// Lookup returns the interface signature for (module, name), if declared.
func (g *GlobalSignatures) Lookup(mod heap.ModuleReference, name heap.PStr) (*InterfaceSignature, bool) {
	ms, ok := g.Modules[mod]
	if !ok {
		return nil, false
	}
	iface, ok := ms.Interfaces[name]
	return iface, ok
}

// LookupTypeDef returns the type-definition context for (module, name), if
// the toplevel is a class (interfaces have none).
func (g *GlobalSignatures) LookupTypeDef(mod heap.ModuleReference, name heap.PStr) (*TypeDefContext, bool) {
	ms, ok := g.Modules[mod]
	if !ok {
		return nil, false
	}
	td, ok := ms.TypeDefs[name]
	return td, ok
}
