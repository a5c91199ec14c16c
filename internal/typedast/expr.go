package typedast

import "github.com/samlang-wasm/samlang/internal/heap"

// Expr is a checked expression: it mirrors internal/ast.Expr's shape one
// constructor at a time, but every node carries its resolved Type instead
// of (or in addition to) source annotation syntax.
type Expr interface {
	exprNode()
	ExprType() Type
	Loc() heap.Location
}

type Base struct {
	Type     Type
	Location heap.Location
}

func (b Base) ExprType() Type        { return b.Type }
func (b Base) Loc() heap.Location    { return b.Location }

type LiteralKind int

const (
	LitInt LiteralKind = iota
	LitString
	LitBool
	LitUnit
)

type Literal struct {
	Base
	Kind      LiteralKind
	IntValue  int64
	StrValue  heap.PStr
	BoolValue bool
}

func (*Literal) exprNode() {}

type LocalId struct {
	Base
	Name heap.PStr
}

func (*LocalId) exprNode() {}

// ClassId is a reference to a class used as a value; its type is always a
// TypeNominal with IsClassStatics set.
type ClassId struct {
	Base
	ModuleRef heap.ModuleReference
	Name      heap.PStr
}

func (*ClassId) exprNode() {}

type Tuple struct {
	Base
	Elements []Expr
}

func (*Tuple) exprNode() {}

type FieldAccess struct {
	Base
	Object Expr
	Field  heap.PStr
}

func (*FieldAccess) exprNode() {}

type MethodAccess struct {
	Base
	Object Expr
	Method heap.PStr
}

func (*MethodAccess) exprNode() {}

type UnaryOperator int

const (
	UnaryNot UnaryOperator = iota
	UnaryNeg
)

type Unary struct {
	Base
	Operator UnaryOperator
	Operand  Expr
}

func (*Unary) exprNode() {}

type BinaryOperator int

const (
	BinMul BinaryOperator = iota
	BinDiv
	BinMod
	BinPlus
	BinMinus
	BinLt
	BinLe
	BinGt
	BinGe
	BinEq
	BinNe
	BinAnd
	BinOr
	BinConcat
)

type Binary struct {
	Base
	Operator BinaryOperator
	Left     Expr
	Right    Expr
}

func (*Binary) exprNode() {}

type Call struct {
	Base
	Callee Expr
	Args   []Expr
}

func (*Call) exprNode() {}

type PatternGuard struct {
	Pattern Pattern
	Expr    Expr
}

type IfElse struct {
	Base
	Condition Expr
	Guard     *PatternGuard
	Then      Expr
	Else      Expr
}

func (*IfElse) exprNode() {}

type MatchCase struct {
	Pattern Pattern
	Body    Expr
}

type Match struct {
	Base
	Scrutinee Expr
	Cases     []MatchCase
	// Exhaustive is true iff the checker proved every tag of the
	// scrutinee's enum type is covered; false means a TYP006 was reported
	// and checking continued treating the match as total anyway.
	Exhaustive bool
}

func (*Match) exprNode() {}

type LambdaParam struct {
	Name heap.PStr
	Type Type
}

// Lambda is a checked closure. Captures is populated from the SSA result
// during checking, in the same order the analyzer recorded first use.
type Lambda struct {
	Base
	Parameters []LambdaParam
	Body       Expr
	Captures   []heap.PStr
}

func (*Lambda) exprNode() {}

type BlockStatement struct {
	Pattern Pattern
	Value   Expr
}

type Block struct {
	Base
	Statements []BlockStatement
	FinalExpr  Expr // nil means Unit
}

func (*Block) exprNode() {}
