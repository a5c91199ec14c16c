package ast

import "github.com/samlang-wasm/samlang/internal/heap"

// Expr is a source-level expression node.
type Expr interface {
	exprNode()
	Loc() heap.Location
}

// LiteralKind enumerates the literal forms.
type LiteralKind int

const (
	LitInt LiteralKind = iota
	LitString
	LitBool
	LitUnit
)

// Literal is an int, string, bool, or unit literal.
type Literal struct {
	Kind     LiteralKind
	IntValue int64
	StrValue heap.PStr
	BoolValue bool
	Location heap.Location
}

func (*Literal) exprNode()         {}
func (l *Literal) Loc() heap.Location { return l.Location }

// LocalId is a reference to a local variable, parameter, or toplevel
// function/value binding.
type LocalId struct {
	Name     heap.PStr
	Location heap.Location
}

func (*LocalId) exprNode()         {}
func (l *LocalId) Loc() heap.Location { return l.Location }

// ClassId is a reference to a class name used as a value, e.g. the `Foo` in
// `Foo.bar()`.
type ClassId struct {
	ModuleRef heap.ModuleReference
	Name      heap.PStr
	Location  heap.Location
}

func (*ClassId) exprNode()         {}
func (c *ClassId) Loc() heap.Location { return c.Location }

// Tuple is a tuple literal `(e1, e2, ...)`.
type Tuple struct {
	Elements []Expr
	Location heap.Location
}

func (*Tuple) exprNode()         {}
func (t *Tuple) Loc() heap.Location { return t.Location }

// FieldAccess is `object.field`.
type FieldAccess struct {
	Object   Expr
	Field    heap.PStr
	TypeArgs []Type
	Location heap.Location
}

func (*FieldAccess) exprNode()         {}
func (f *FieldAccess) Loc() heap.Location { return f.Location }

// MethodAccess is `object.method` used without being immediately called
// (produces a bound closure value); `object.method(args)` is parsed as a
// Call whose Callee is a MethodAccess.
type MethodAccess struct {
	Object   Expr
	Method   heap.PStr
	TypeArgs []Type
	Location heap.Location
}

func (*MethodAccess) exprNode()         {}
func (m *MethodAccess) Loc() heap.Location { return m.Location }

// UnaryOperator enumerates unary operators.
type UnaryOperator int

const (
	UnaryNot UnaryOperator = iota
	UnaryNeg
)

// Unary is `!e` or `-e`.
type Unary struct {
	Operator UnaryOperator
	Operand  Expr
	Location heap.Location
}

func (*Unary) exprNode()         {}
func (u *Unary) Loc() heap.Location { return u.Location }

// BinaryOperator enumerates binary operators available at the source level.
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
	BinConcat // string concatenation, lowered away before HIR
)

// Binary is `left op right`.
type Binary struct {
	Operator BinaryOperator
	Left     Expr
	Right    Expr
	Location heap.Location
}

func (*Binary) exprNode()         {}
func (b *Binary) Loc() heap.Location { return b.Location }

// Call is `callee<type_args>(args...)`.
type Call struct {
	Callee       Expr
	TypeArgs     []Type
	Args         []Expr
	Location     heap.Location
}

func (*Call) exprNode()         {}
func (c *Call) Loc() heap.Location { return c.Location }

// PatternGuard is the `let pattern = expr` condition form of an IfElse,
// binding Pattern's variables in the `then` branch only.
type PatternGuard struct {
	Pattern Pattern
	Expr    Expr
}

// IfElse is `if (cond) then e1 else e2`. Exactly one of Condition /
// PatternGuard is set.
type IfElse struct {
	Condition Expr          // nil if Guard != nil
	Guard     *PatternGuard // nil for a plain boolean condition
	Then      Expr
	Else      Expr
	Location  heap.Location
}

func (*IfElse) exprNode()         {}
func (i *IfElse) Loc() heap.Location { return i.Location }

// MatchCase is one arm of a Match.
type MatchCase struct {
	Pattern Pattern
	Body    Expr
}

// Match is `match (scrutinee) { case1 -> e1, case2 -> e2, ... }`.
type Match struct {
	Scrutinee Expr
	Cases     []MatchCase
	Location  heap.Location
}

func (*Match) exprNode()         {}
func (m *Match) Loc() heap.Location { return m.Location }

// LambdaParam is one parameter of a Lambda; TypeAnnotation is nil when the
// parameter's type must be inferred from the call site.
type LambdaParam struct {
	Name           heap.PStr
	TypeAnnotation Type
	Location       heap.Location
}

// Lambda is `(params) -> body`.
type Lambda struct {
	Parameters []LambdaParam
	Body       Expr
	Location   heap.Location
}

func (*Lambda) exprNode()         {}
func (l *Lambda) Loc() heap.Location { return l.Location }

// BlockStatement is one `let pattern [: type] = value;` declaration inside
// a Block.
type BlockStatement struct {
	Pattern        Pattern
	TypeAnnotation Type // nil if not annotated
	Value          Expr
	Location       heap.Location
}

// Block is `{ stmt1; stmt2; ...; [final] }`. FinalExpr is nil for a block
// whose value is Unit.
type Block struct {
	Statements []BlockStatement
	FinalExpr  Expr // nil if the block has no trailing expression
	Location   heap.Location
}

func (*Block) exprNode()         {}
func (b *Block) Loc() heap.Location { return b.Location }
