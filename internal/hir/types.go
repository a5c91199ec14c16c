// Package hir is the high-level IR that samlang's typed source lowers into:
// closures are made explicit via ClosureInit, pattern matches are elaborated
// into tag tests plus indexed field projections, and every anonymous
// function/tuple type used in the source is synthesized into a named
// nominal type. See spec §3.4 and §4.3.
package hir

import "github.com/samlang-wasm/samlang/internal/heap"

// TypeName is a fully-qualified HIR type name: a module-scoped nominal type
// when ModuleRef is set, or a generic type parameter when it is not (spec
// §3.4, "a None module means a generic parameter").
type TypeName struct {
	HasModule bool
	ModuleRef heap.ModuleReference
	Name      heap.PStr
}

// GenericTypeName builds a TypeName referring to an in-scope type
// parameter.
func GenericTypeName(name heap.PStr) TypeName { return TypeName{Name: name} }

// NominalTypeName builds a TypeName referring to a module-scoped class or
// synthesized type.
func NominalTypeName(mod heap.ModuleReference, name heap.PStr) TypeName {
	return TypeName{HasModule: true, ModuleRef: mod, Name: name}
}

// Equal reports structural equality of two TypeNames.
func (t TypeName) Equal(o TypeName) bool {
	return t.HasModule == o.HasModule && (!t.HasModule || t.ModuleRef == o.ModuleRef) && t.Name == o.Name
}

// EncodedForm renders a deterministic string key for t, used by the
// symbol-table interner (internal/mir) and by memoized type synthesis.
func (t TypeName) EncodedForm(h *heap.Heap) string {
	if !t.HasModule {
		return "$generic$" + h.Str(t.Name)
	}
	return h.ModuleEncodedForm(t.ModuleRef) + "$" + h.Str(t.Name)
}

// IdType is a nominal type reference with type arguments.
type IdType struct {
	Name     TypeName
	TypeArgs []Type
}

// FunctionType is `(params) -> ret`.
type FunctionType struct {
	Params []Type
	Ret    Type
}

// Type is a HIR type: Int32, Int31 (a tagged 31-bit integer), or a nominal
// Id. Every other source type (Unit, Bool, function types, tuples) has
// already been mapped to one of these three by the time HIR lowering
// completes (spec §3.4).
type Type interface {
	typeNode()
}

type TypeInt32 struct{}
type TypeInt31 struct{}
type TypeId struct{ IdType }

func (TypeInt32) typeNode() {}
func (TypeInt31) typeNode() {}
func (*TypeId) typeNode()   {}

// Int32Type and Int31Type are the shared singleton values for the two
// primitive HIR types.
var Int32Type Type = TypeInt32{}
var Int31Type Type = TypeInt31{}

// NewIdType constructs a *TypeId.
func NewIdType(name TypeName, args ...Type) *TypeId {
	return &TypeId{IdType{Name: name, TypeArgs: args}}
}

// TypeEqual reports structural equality of two HIR types.
func TypeEqual(a, b Type) bool {
	switch x := a.(type) {
	case TypeInt32:
		_, ok := b.(TypeInt32)
		return ok
	case TypeInt31:
		_, ok := b.(TypeInt31)
		return ok
	case *TypeId:
		y, ok := b.(*TypeId)
		if !ok || !x.Name.Equal(y.Name) || len(x.TypeArgs) != len(y.TypeArgs) {
			return false
		}
		for i := range x.TypeArgs {
			if !TypeEqual(x.TypeArgs[i], y.TypeArgs[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// ClosureTypeDefinition is a synthesized nominal type standing for a
// function value plus its captured-context pointer.
type ClosureTypeDefinition struct {
	Name       TypeName
	TypeParams []heap.PStr
	FnType     *FunctionType
}

// TypeDefinitionKind distinguishes a struct layout from an enum layout.
type TypeDefinitionKind int

const (
	TypeDefStruct TypeDefinitionKind = iota
	TypeDefEnum
)

// EnumVariant is one (tag, field types) pair of an enum TypeDefinition.
type EnumVariant struct {
	Tag    heap.PStr
	Fields []Type
}

// TypeDefinition is a struct (ordered field types) or enum (ordered
// variants) nominal type definition, keyed by TypeName in Sources.
type TypeDefinition struct {
	Name       TypeName
	TypeParams []heap.PStr
	Kind       TypeDefinitionKind
	StructFields []Type
	EnumVariants []EnumVariant
}
