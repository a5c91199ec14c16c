package typedast

import "github.com/samlang-wasm/samlang/internal/heap"

type Param struct {
	Name heap.PStr
	Type Type
}

// Member is a checked method or static function: Body is nil for an
// interface member (no implementation).
type Member struct {
	IsPublic       bool
	IsMethod       bool
	Name           heap.PStr
	TypeParameters []TypeParameterSig
	Parameters     []Param
	ReturnType     Type
	Body           Expr
	Location       heap.Location
}

// Toplevel is a checked class or interface.
type Toplevel struct {
	IsInterface    bool
	IsPrivate      bool
	Name           heap.PStr
	TypeParameters []TypeParameterSig
	TypeDef        *TypeDefContext // nil on interfaces
	Members        []Member
	Location       heap.Location
}

// Module is a fully checked source module.
type Module struct {
	ModuleRef heap.ModuleReference
	Toplevels []*Toplevel
}
