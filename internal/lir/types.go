// Package lir is the low-level IR that fixes every enum's runtime layout
// (spec §3.6, §4.6): each variant becomes exactly one of Int31 (a tagged
// integer, no allocation), Unboxed (the single pointer-shaped payload
// stands in for the whole value), or Boxed (a heap struct
// `{tag, fields...}`). LIR otherwise mirrors MIR (spec §3.6) — the same
// statement vocabulary, redeclared here exactly as internal/mir redeclared
// it from internal/hir, plus one addition (IsPointer). A MIR StructInit
// constructing an Int31 or Unboxed variant is rewritten to a bare Cast (no
// allocation); only a Boxed variant (or a plain, non-enum struct) keeps the
// StructInit shape, whose malloc+IndexedAssign expansion the spec describes
// happens later, during WASM emission. MIR's abstract TagTest is resolved
// away entirely by this package's lowering pass.
package lir

import (
	"github.com/samlang-wasm/samlang/internal/heap"
	"github.com/samlang-wasm/samlang/internal/mir"
)

type (
	Type                   = mir.Type
	BinaryOperator         = mir.BinaryOperator
	FunctionName           = mir.FunctionName
	FunctionNameExpression = mir.FunctionNameExpression
	Callee                 = mir.Callee
	FunctionNameCallee     = mir.FunctionNameCallee
	VariableCallee         = mir.VariableCallee
	VariableName           = mir.VariableName
	TypeNameId             = mir.TypeNameId
	TypeName               = mir.TypeName
	ClosureTypeDefinition  = mir.ClosureTypeDefinition
	EnumVariant            = mir.EnumVariant
	GeneralLoopVariable    = mir.GeneralLoopVariable
	IfElseFinalAssignment  = mir.IfElseFinalAssignment
	Expression             = mir.Expression
	Variable               = mir.Variable
	IntLiteral             = mir.IntLiteral
	Int31Zero              = mir.Int31Zero
	StringName             = mir.StringName
)

var (
	Int31Type = mir.Int31Type
	Int32Type = mir.Int32Type
	Zero      = mir.Zero
	One       = mir.One
)

const (
	Plus = mir.Plus
	Mul  = mir.Mul
	Eq   = mir.Eq
)

// EnumLayoutKind is the chosen runtime representation of one enum variant
// (spec §4.6).
type EnumLayoutKind int

const (
	// LayoutInt31 represents a zero-payload variant as a tagged integer
	// `tag*2 + 1`; the low bit distinguishes it from any pointer.
	LayoutInt31 EnumLayoutKind = iota
	// LayoutUnboxed represents a single-pointer-payload variant as that
	// pointer itself — no wrapper allocation.
	LayoutUnboxed
	// LayoutBoxed represents a multi-field (or non-pointer-payload)
	// variant as a pointer to a heap struct `{tag, fields...}`.
	LayoutBoxed
)

// VariantLayout pairs one MIR EnumVariant with the representation chosen
// for it.
type VariantLayout struct {
	Tag    int
	Name   heap.PStr
	Fields []Type
	Kind   EnumLayoutKind
}

// TypeDefinition keeps MIR's struct fields unchanged and adds, for an enum,
// the per-variant Layout decided by this package's lowering pass.
type TypeDefinition struct {
	NameId       TypeNameId
	Name         TypeName
	Kind         mir.TypeDefinitionKind
	StructFields []Type
	Layout       []VariantLayout // enum only
}

// StaticDataBase is the address at/above which malloc'd values live;
// IsPointer uses it to tell a real pointer apart from a small Int31 value
// sharing the same 32-bit word (spec §4.6, §4.7 "Global data pointer starts
// at 4096"; 1024 is the lowest address a pointer can ever take, reserved
// ahead of it for encoding headroom).
const StaticDataBase = 1024

// Statement is one LIR instruction: MIR's vocabulary (spec §3.6, "otherwise
// mirrors MIR") plus IsPointer. Redeclared fresh in this package rather
// than aliased from mir, exactly as internal/mir redeclared HIR's
// Statement rather than reusing it (see internal/mir/expr.go) — an
// interface with an unexported marker method can only be implemented by
// types declared in the same package.
type Statement interface {
	stmtNode()
}

type Not struct {
	Name    heap.PStr
	Operand Expression
}

type Binary struct {
	Name     heap.PStr
	Operator BinaryOperator
	E1, E2   Expression
}

type IndexedAccess struct {
	Name    heap.PStr
	Type    Type
	Pointer Expression
	Index   int
}

// IsPointer binds Name to the boolean test "does Operand currently hold a
// pointer (as opposed to a tagged Int31)", per spec §4.6:
// `(operand >= 1024) && ((operand & 1) == 0)`.
type IsPointer struct {
	Name    heap.PStr
	Operand Expression
}

type Call struct {
	Callee          Callee
	Arguments       []Expression
	ReturnType      Type
	ReturnCollector heap.PStr
	HasCollector    bool
}

type LateInitDeclaration struct {
	Name heap.PStr
	Type Type
}

type LateInitAssignment struct {
	Name     heap.PStr
	Assigned Expression
}

type StructInit struct {
	StructVariableName heap.PStr
	TypeId             TypeNameId
	ExpressionList     []Expression
}

type ClosureInit struct {
	ClosureVariableName heap.PStr
	ClosureTypeId       TypeNameId
	FunctionName        FunctionNameExpression
	Context             Expression
}

type Cast struct {
	Name    heap.PStr
	Type    Type
	Operand Expression
}

type SingleIf struct {
	Condition Expression
	Body      []Statement
}

type Break struct {
	BreakValue Expression
}

type While struct {
	LoopVariables  []GeneralLoopVariable
	Statements     []Statement
	BreakCollector *VariableName
}

type IfElse struct {
	Condition        Expression
	S1, S2           []Statement
	FinalAssignments []IfElseFinalAssignment
}

func (*Not) stmtNode()                 {}
func (*Binary) stmtNode()              {}
func (*IndexedAccess) stmtNode()       {}
func (*IsPointer) stmtNode()           {}
func (*Call) stmtNode()                {}
func (*LateInitDeclaration) stmtNode() {}
func (*LateInitAssignment) stmtNode()  {}
func (*StructInit) stmtNode()          {}
func (*ClosureInit) stmtNode()         {}
func (*Cast) stmtNode()                {}
func (*SingleIf) stmtNode()            {}
func (*Break) stmtNode()               {}
func (*While) stmtNode()               {}
func (*IfElse) stmtNode()              {}

// Function is one top-level LIR function.
type Function struct {
	Name        FunctionName
	Parameters  []heap.PStr
	Type        *mir.FunctionType
	Body        []Statement
	ReturnValue Expression
}

// Sources is the complete output of MIR→LIR lowering.
type Sources struct {
	ClosureTypes      []*ClosureTypeDefinition
	TypeDefinitions   []*TypeDefinition
	MainFunctionNames []FunctionName
	Functions         []*Function
}
