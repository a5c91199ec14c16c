package mir

import (
	"github.com/samlang-wasm/samlang/internal/heap"
	"github.com/samlang-wasm/samlang/internal/hir"
)

// MIR reuses HIR's Type, BinaryOperator, FunctionName and Callee shapes
// unchanged (spec §3.5, "like HIR but ..."); no new type or callee variant
// is needed at this level. Expression is NOT reused: SingleIf's abstract
// tag test (TagTest below) has no HIR equivalent, so MIR declares its own
// Expression interface and its own copies of the HIR leaf expressions
// rather than widening HIR's.
type (
	Type                   = hir.Type
	FunctionType           = hir.FunctionType
	BinaryOperator         = hir.BinaryOperator
	FunctionName           = hir.FunctionName
	FunctionNameExpression = hir.FunctionNameExpression
	Callee                 = hir.Callee
	FunctionNameCallee     = hir.FunctionNameCallee
	VariableCallee         = hir.VariableCallee
	TypeId                 = hir.TypeId
	TypeName               = hir.TypeName
	ClosureTypeDefinition  = hir.ClosureTypeDefinition
)

var (
	NewIdType       = hir.NewIdType
	Int32Type       = hir.Int32Type
	Int31Type       = hir.Int31Type
	TypeEqual       = hir.TypeEqual
	NominalTypeName = hir.NominalTypeName
	GenericTypeName = hir.GenericTypeName
)

const (
	Mul   = hir.Mul
	Div   = hir.Div
	Mod   = hir.Mod
	Plus  = hir.Plus
	Minus = hir.Minus
	Land  = hir.Land
	Lor   = hir.Lor
	Shl   = hir.Shl
	Shr   = hir.Shr
	Xor   = hir.Xor
	Lt    = hir.Lt
	Le    = hir.Le
	Gt    = hir.Gt
	Ge    = hir.Ge
	Eq    = hir.Eq
	Ne    = hir.Ne
)

// Expression is an MIR operand.
type Expression interface {
	mirExprNode()
	ExprType() Type
}

type VariableName struct {
	Name heap.PStr
	Type Type
}

type Variable struct{ VariableName }

func (Variable) mirExprNode()  {}
func (v Variable) ExprType() Type { return v.Type }

type IntLiteral struct{ Value int32 }

func (IntLiteral) mirExprNode()    {}
func (IntLiteral) ExprType() Type { return Int32Type }

type Int31Zero struct{}

func (Int31Zero) mirExprNode()    {}
func (Int31Zero) ExprType() Type { return Int31Type }

type StringName struct{ Name heap.PStr }

func (StringName) mirExprNode()   {}
func (StringName) ExprType() Type { return NewIdType(NominalTypeName(heap.ModuleRoot, heap.PStrString)) }

// TagTest is an abstract "does Operand carry enum variant #Tag" boolean
// expression. Which concrete bit pattern that test compiles to (an
// IndexedAccess-and-compare for a Boxed enum, a shifted-equality check for
// an Int31 one, or an IsPointer test to distinguish Int31 from Unboxed) is
// undecided until the enum's layout is chosen in LIR (spec §4.6); MIR keeps
// the test abstract rather than guessing a representation early.
type TagTest struct {
	Operand Expression
	Tag     int
}

func (TagTest) mirExprNode()    {}
func (TagTest) ExprType() Type { return Int31Type }

var Zero Expression = IntLiteral{Value: 0}
var One Expression = IntLiteral{Value: 1}

// Statement is one MIR instruction. Unlike HIR, pattern-match
// destructuring (ConditionalDestructure) and variant construction
// (EnumInit) no longer exist: they have been compiled down to tag tests
// (SingleIf/While+Break), indexed field access, and plain StructInit of
// the boxed shape (tag first, then the payload); the enum layout is only
// chosen in LIR (spec §3.5, §4.4).
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
	Type               *TypeId
	ExpressionList     []Expression
}

// ClosureInit keeps HIR's shape at this level: the "two-word struct
// {fn_index, context}" materialization spec §4.4 describes is performed
// during MIR→LIR lowering, where the fn_index value (a funcref-table slot)
// becomes expressible as an ordinary LIR Expression. See internal/lir.
type ClosureInit struct {
	ClosureVariableName heap.PStr
	ClosureType         *TypeId
	FunctionName        FunctionNameExpression
	Context             Expression
}

// Cast reinterprets operand as Type without emitting any instruction of
// its own at this level; LIR lowers it to a no-op or a tag-bit test
// depending on the source/target representation (spec §3.6).
type Cast struct {
	Name    heap.PStr
	Type    Type
	Operand Expression
}

// SingleIf runs Body when Condition holds and is otherwise skipped; it
// carries no else-branch and no final assignments, used by pattern-match
// compilation for a single tag test inside a surrounding While (spec §3.5).
type SingleIf struct {
	Condition Expression
	Body      []Statement
}

// Break exits the nearest enclosing While, assigning BreakValue to that
// loop's break collector.
type Break struct {
	BreakValue Expression
}

// GeneralLoopVariable is one of a While's loop-carried variables: it starts
// at InitialValue and is rewritten to LoopValue (computed from the body) at
// the end of each iteration.
type GeneralLoopVariable struct {
	Name         heap.PStr
	Type         Type
	InitialValue Expression
	LoopValue    Expression
}

// While is MIR's sole looping construct. Every occurrence originates from
// match compilation (a one-shot "loop" used purely for its Break-as-early-
// exit control flow, per the flattened ConditionalDestructure chain built
// in internal/mir's HIR lowering). The optimizer passes rewrite existing
// loops (loop induction, §4.5.4) or unroll them away (conditional constant
// propagation, §4.5.1) but never create new ones.
type While struct {
	LoopVariables  []GeneralLoopVariable
	Statements     []Statement
	BreakCollector *VariableName // nil if the loop's value is never used
}

// IfElseFinalAssignment materializes a phi-like merge of an IfElse's two
// branches into a single name (spec §3.5).
type IfElseFinalAssignment struct {
	Name             heap.PStr
	Type             Type
	Branch1, Branch2 Expression
}

type IfElse struct {
	Condition        Expression
	S1, S2           []Statement
	FinalAssignments []IfElseFinalAssignment
}

func (*Not) stmtNode()                {}
func (*Binary) stmtNode()             {}
func (*IndexedAccess) stmtNode()      {}
func (*Call) stmtNode()               {}
func (*LateInitDeclaration) stmtNode() {}
func (*LateInitAssignment) stmtNode() {}
func (*StructInit) stmtNode()         {}
func (*ClosureInit) stmtNode()        {}
func (*Cast) stmtNode()               {}
func (*SingleIf) stmtNode()           {}
func (*Break) stmtNode()              {}
func (*While) stmtNode()              {}
func (*IfElse) stmtNode()             {}

// Function is one top-level MIR function.
type Function struct {
	Name        FunctionName
	Parameters  []heap.PStr
	Type        *hir.FunctionType
	Body        []Statement
	ReturnValue Expression
}

// TypeDefinitionKind mirrors HIR's (struct/enum layout is only finalized at
// LIR).
type TypeDefinitionKind = hir.TypeDefinitionKind

const (
	TypeDefStruct = hir.TypeDefStruct
	TypeDefEnum   = hir.TypeDefEnum
)

type EnumVariant struct {
	Tag    heap.PStr
	Fields []Type
}

// TypeDefinition is keyed by TypeNameId rather than TypeName so the
// unused-type pass (§4.5.3) works over compact ids rather than re-encoding
// names on every set operation.
type TypeDefinition struct {
	NameId       TypeNameId
	Name         TypeName
	TypeParams   []heap.PStr
	Kind         TypeDefinitionKind
	StructFields []Type
	EnumVariants []EnumVariant
}

// Sources is the complete output of HIR→MIR lowering, before optimization.
type Sources struct {
	Table             *SymbolTable
	ClosureTypes      []*ClosureTypeDefinition
	TypeDefinitions   []*TypeDefinition
	MainFunctionNames []FunctionName
	Functions         []*Function
}
