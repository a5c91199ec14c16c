package hir

import "github.com/samlang-wasm/samlang/internal/heap"

// BinaryOperator enumerates HIR/MIR/LIR's single shared arithmetic and
// comparison operator set (spec §9.1 Decisions: unify `Operator::GE` and
// `BinaryOperator::GE` on one enum reused across IR levels).
type BinaryOperator int

const (
	Mul BinaryOperator = iota
	Div
	Mod
	Plus
	Minus
	Land
	Lor
	Shl
	Shr
	Xor
	Lt
	Le
	Gt
	Ge
	Eq
	Ne
)

// VariableName is a HIR local reference: a name plus its HIR type. It is a
// plain comparable struct, so == compares the Type value as well as Name.
type VariableName struct {
	Name heap.PStr
	Type Type
}

// FunctionName identifies a top-level HIR function by the type it belongs
// to (or the module-root pseudo-type for free functions) and its own name.
type FunctionName struct {
	TypeName TypeName
	FnName   heap.PStr
}

// FunctionNameExpression is a reference to a named function as a callee or
// first-class value, with any explicit/inferred type arguments.
type FunctionNameExpression struct {
	Name     FunctionName
	Type     *FunctionType
	TypeArgs []Type
}

// Expression is a HIR operand: HIR keeps every compound computation in
// Statement form and binds intermediate results to names, so Expression is
// deliberately small (spec §3.4).
type Expression interface {
	exprNode()
	ExprType() Type
}

type IntLiteral struct{ Value int32 }

func (IntLiteral) exprNode()      {}
func (IntLiteral) ExprType() Type { return Int32Type }

// Int31Zero is the canonical representation of the Unit value: a zero
// tagged 31-bit integer.
type Int31Zero struct{}

func (Int31Zero) exprNode()      {}
func (Int31Zero) ExprType() Type { return Int31Type }

type StringName struct{ Name heap.PStr }

func (StringName) exprNode()      {}
func (StringName) ExprType() Type { return NewIdType(rootStringTypeName) }

// rootStringTypeName names the builtin String class, assumed to live in
// the root module like every other builtin.
var rootStringTypeName = NominalTypeName(heap.ModuleRoot, heap.PStrString)

type Variable struct{ VariableName }

func (v Variable) exprNode()      {}
func (v Variable) ExprType() Type { return v.Type }

var Zero Expression = IntLiteral{Value: 0}
var One Expression = IntLiteral{Value: 1}

// Callee is either a named top-level function or a variable holding a
// closure/function pointer.
type Callee interface {
	calleeNode()
}

type FunctionNameCallee struct{ FunctionNameExpression }
type VariableCallee struct{ VariableName }

func (FunctionNameCallee) calleeNode() {}
func (VariableCallee) calleeNode()     {}

// Statement is one instruction of a HIR function body; statements bind
// their result(s) to fresh names rather than nesting expressions (spec
// §3.4).
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
	Name       heap.PStr
	Type       Type
	Pointer    Expression
	Index      int
}

type Call struct {
	Callee         Callee
	Arguments      []Expression
	ReturnType     Type
	ReturnCollector heap.PStr
	HasCollector   bool
}

// Binding names one field produced by ConditionalDestructure's tag test.
type Binding struct {
	Name heap.PStr
	Type Type
}

type ConditionalDestructure struct {
	TestExpr         Expression
	Tag              int
	Bindings         []*Binding // nil entry = this field is not bound by the pattern
	S1, S2           []Statement
	FinalAssignments []FinalAssignment
}

// FinalAssignment materializes a phi-like merge of two branches into a
// single name, à la `IfElseFinalAssignment` in MIR (spec §3.5); HIR reuses
// the same shape for both IfElse and ConditionalDestructure joins.
type FinalAssignment struct {
	Name   heap.PStr
	Type   Type
	Branch1, Branch2 Expression
}

type IfElse struct {
	Condition        Expression
	S1, S2           []Statement
	FinalAssignments []FinalAssignment
}

type LateInitDeclaration struct {
	Name heap.PStr
	Type Type
}

type LateInitAssignment struct {
	Name       heap.PStr
	Assigned   Expression
}

type StructInit struct {
	StructVariableName heap.PStr
	Type               *TypeId
	ExpressionList     []Expression
}

type EnumInit struct {
	EnumVariableName   heap.PStr
	EnumType           *TypeId
	Tag                int
	AssociatedDataList []Expression
}

type ClosureInit struct {
	ClosureVariableName heap.PStr
	ClosureType         *TypeId
	FunctionName        FunctionNameExpression
	Context             Expression
}

func (*Not) stmtNode()                     {}
func (*Binary) stmtNode()                  {}
func (*IndexedAccess) stmtNode()           {}
func (*Call) stmtNode()                    {}
func (*ConditionalDestructure) stmtNode()  {}
func (*IfElse) stmtNode()                  {}
func (*LateInitDeclaration) stmtNode()     {}
func (*LateInitAssignment) stmtNode()      {}
func (*StructInit) stmtNode()              {}
func (*EnumInit) stmtNode()                {}
func (*ClosureInit) stmtNode()             {}

// Function is one top-level HIR function: its formal parameters (by name,
// with types carried in Type), its own (possibly empty, after
// monomorphization) type parameters, its body, and its return value
// expression.
type Function struct {
	Name           FunctionName
	Parameters     []heap.PStr
	TypeParameters []heap.PStr
	Type           *FunctionType
	Body           []Statement
	ReturnValue    Expression
}

// Sources is the complete output of HIR lowering for one compiled program:
// every class/closure/tuple type definition, every lowered function, and
// the module-level entry points.
type Sources struct {
	ModuleRefs        []heap.ModuleReference
	ClosureTypes      []*ClosureTypeDefinition
	TypeDefinitions   []*TypeDefinition
	MainFunctionNames []FunctionName
	Functions         []*Function
}
