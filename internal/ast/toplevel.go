package ast

import "github.com/samlang-wasm/samlang/internal/heap"

// TypeParameter is a toplevel or member type parameter, optionally bounded
// by a nominal interface type.
type TypeParameter struct {
	Name     heap.PStr
	Bound    *TypeId // nil if unbounded
	Location heap.Location
}

// Param is one parameter of a method or function member.
type Param struct {
	Name     heap.PStr
	Type     Type
	Location heap.Location
}

// MemberDefinition is a method (IsMethod=true, implicit `this` receiver) or
// a static function (IsMethod=false) belonging to a class or interface.
// Body is nil for interface members (they have no implementation) and for
// abstract declarations; it is always present for class members.
type MemberDefinition struct {
	IsPublic       bool
	IsMethod       bool
	Name           heap.PStr
	TypeParameters []TypeParameter
	Parameters     []Param
	ReturnType     Type
	Body           Expr
	Location       heap.Location
}

// FieldDefinition is one field of a Struct type definition.
type FieldDefinition struct {
	Name     heap.PStr
	Type     Type
	IsPublic bool
}

// VariantDefinition is one variant of an Enum type definition. Fields are
// positional (samlang variants are `Tag(T1, T2, ...)`, never named).
type VariantDefinition struct {
	Tag    heap.PStr
	Fields []Type
}

// TypeDefinitionKind distinguishes Struct from Enum toplevel shapes.
type TypeDefinitionKind int

const (
	TypeDefStruct TypeDefinitionKind = iota
	TypeDefEnum
)

// TypeDefinition is the `Struct{...}` or `Enum{...}` payload of a class.
// It is absent (nil) on interfaces.
type TypeDefinition struct {
	Kind     TypeDefinitionKind
	Fields   []FieldDefinition   // set when Kind == TypeDefStruct
	Variants []VariantDefinition // set when Kind == TypeDefEnum
}

// Toplevel is a `class` or `interface` declaration. TypeDefinition is nil
// iff IsInterface is true. A toplevel's TypeParameters are always distinct
// from its members' own TypeParameters (no shadowing is permitted; the SSA
// analyzer enforces this as a NameAlreadyBound error).
type Toplevel struct {
	IsInterface    bool
	IsPrivate      bool
	Name           heap.PStr
	TypeParameters []TypeParameter
	Extends        []*TypeId
	Implements     []*TypeId
	TypeDefinition *TypeDefinition
	Members        []MemberDefinition
	Location       heap.Location
}

// Import is a module import statement.
type Import struct {
	ImportedModule heap.ModuleReference
	ImportedNames  []heap.PStr
	Location       heap.Location
}

// Module is a complete parsed source file.
type Module struct {
	ModuleRef        heap.ModuleReference
	Imports          []Import
	Toplevels        []*Toplevel
}
