package mir

import (
	"fmt"

	"github.com/samlang-wasm/samlang/internal/heap"
	"github.com/samlang-wasm/samlang/internal/hir"
)

// moduleLowering carries the state shared while lowering every HIR function
// in one compile unit to MIR: the interner, the shared symbol table (spec
// §3.5, "introduces a process-wide SymbolTable"), and a counter for the
// fresh break-collector/loop-variable names pattern-match compilation needs.
type moduleLowering struct {
	heap    *heap.Heap
	table   *SymbolTable
	counter int
}

func (m *moduleLowering) fresh(prefix string) heap.PStr {
	n := m.counter
	m.counter++
	return m.heap.Alloc(fmt.Sprintf("$%s%d", prefix, n))
}

// Lower converts HIR Sources into MIR Sources: it builds the SymbolTable by
// interning the name of every type definition and closure type, then
// lowers each function's body by replacing
// ConditionalDestructure/EnumInit with the While/SingleIf/Break/StructInit
// combination described in spec §4.4.
func Lower(h *heap.Heap, src *hir.Sources) *Sources {
	ml := &moduleLowering{heap: h, table: NewSymbolTable()}

	out := &Sources{Table: ml.table, ClosureTypes: src.ClosureTypes, MainFunctionNames: src.MainFunctionNames}

	for _, td := range src.TypeDefinitions {
		ml.table.Intern(h, td.Name)
		out.TypeDefinitions = append(out.TypeDefinitions, ml.lowerTypeDefinition(td))
	}
	for _, ct := range src.ClosureTypes {
		ml.table.Intern(h, ct.Name)
	}
	for _, fn := range src.Functions {
		out.Functions = append(out.Functions, ml.lowerFunction(fn))
	}
	return out
}

func (ml *moduleLowering) lowerTypeDefinition(td *hir.TypeDefinition) *TypeDefinition {
	out := &TypeDefinition{
		NameId:     ml.table.Intern(ml.heap, td.Name),
		Name:       td.Name,
		TypeParams: td.TypeParams,
		Kind:       td.Kind,
	}
	switch td.Kind {
	case hir.TypeDefStruct:
		out.StructFields = td.StructFields
	case hir.TypeDefEnum:
		for _, v := range td.EnumVariants {
			out.EnumVariants = append(out.EnumVariants, EnumVariant{Tag: v.Tag, Fields: v.Fields})
		}
	}
	return out
}

func (ml *moduleLowering) lowerFunction(fn *hir.Function) *Function {
	fb := &funcLowering{ml: ml}
	ret := fb.lowerExpr(fn.ReturnValue)
	return &Function{
		Name:        fn.Name,
		Parameters:  fn.Parameters,
		Type:        fn.Type,
		Body:        fb.stmts,
		ReturnValue: ret,
	}
}

// funcLowering accumulates MIR statements for one function body, mirroring
// hir's funcBuilder: lowerExpr never has to look inside HIR expressions
// (they already bottom out in Variable/IntLiteral/etc.) so its job is purely
// to translate each HIR Statement in order, expanding the two
// pattern-match-only constructs into their MIR equivalents.
type funcLowering struct {
	ml    *moduleLowering
	stmts []Statement
}

func (fb *funcLowering) emit(s Statement) { fb.stmts = append(fb.stmts, s) }

func (fb *funcLowering) child() *funcLowering { return &funcLowering{ml: fb.ml} }

func lowerExprLeaf(e hir.Expression) Expression {
	switch n := e.(type) {
	case hir.Variable:
		return Variable{VariableName{Name: n.Name, Type: n.Type}}
	case hir.IntLiteral:
		return IntLiteral{Value: n.Value}
	case hir.Int31Zero:
		return Int31Zero{}
	case hir.StringName:
		return StringName{Name: n.Name}
	default:
		return Int31Zero{}
	}
}

func lowerCallee(c hir.Callee) Callee {
	switch n := c.(type) {
	case hir.FunctionNameCallee:
		return FunctionNameCallee{n.FunctionNameExpression}
	case hir.VariableCallee:
		return VariableCallee{n.VariableName}
	default:
		return nil
	}
}

// lowerExpr translates one HIR statement list + final value into this
// builder's MIR statement list, returning the MIR expression standing for
// the final value (always a Variable or a leaf literal, since HIR keeps the
// same "every computation is a named statement" discipline MIR does).
func (fb *funcLowering) lowerExpr(v hir.Expression) Expression {
	return lowerExprLeaf(v)
}

func (fb *funcLowering) lowerStatements(stmts []hir.Statement) {
	for _, s := range stmts {
		fb.lowerStatement(s)
	}
}

func (fb *funcLowering) lowerStatement(s hir.Statement) {
	switch n := s.(type) {
	case *hir.Not:
		fb.emit(&Not{Name: n.Name, Operand: lowerExprLeaf(n.Operand)})
	case *hir.Binary:
		fb.emit(&Binary{Name: n.Name, Operator: n.Operator, E1: lowerExprLeaf(n.E1), E2: lowerExprLeaf(n.E2)})
	case *hir.IndexedAccess:
		fb.emit(&IndexedAccess{Name: n.Name, Type: n.Type, Pointer: lowerExprLeaf(n.Pointer), Index: n.Index})
	case *hir.Call:
		args := make([]Expression, len(n.Arguments))
		for i, a := range n.Arguments {
			args[i] = lowerExprLeaf(a)
		}
		fb.emit(&Call{Callee: lowerCallee(n.Callee), Arguments: args, ReturnType: n.ReturnType, ReturnCollector: n.ReturnCollector, HasCollector: n.HasCollector})
	case *hir.LateInitDeclaration:
		fb.emit(&LateInitDeclaration{Name: n.Name, Type: n.Type})
	case *hir.LateInitAssignment:
		fb.emit(&LateInitAssignment{Name: n.Name, Assigned: lowerExprLeaf(n.Assigned)})
	case *hir.StructInit:
		args := make([]Expression, len(n.ExpressionList))
		for i, e := range n.ExpressionList {
			args[i] = lowerExprLeaf(e)
		}
		fb.emit(&StructInit{StructVariableName: n.StructVariableName, Type: n.Type, ExpressionList: args})
	case *hir.ClosureInit:
		fb.emit(&ClosureInit{
			ClosureVariableName: n.ClosureVariableName,
			ClosureType:         n.ClosureType,
			FunctionName:        n.FunctionName,
			Context:             lowerExprLeaf(n.Context),
		})
	case *hir.IfElse:
		fb.lowerIfElse(n)
	case *hir.ConditionalDestructure:
		fb.lowerConditionalDestructure(n)
	case *hir.EnumInit:
		fb.lowerEnumInit(n)
	}
}

func (fb *funcLowering) lowerIfElse(n *hir.IfElse) {
	thenB, elseB := fb.child(), fb.child()
	thenB.lowerStatements(n.S1)
	elseB.lowerStatements(n.S2)
	fas := make([]IfElseFinalAssignment, len(n.FinalAssignments))
	for i, fa := range n.FinalAssignments {
		fas[i] = IfElseFinalAssignment{Name: fa.Name, Type: fa.Type, Branch1: lowerExprLeaf(fa.Branch1), Branch2: lowerExprLeaf(fa.Branch2)}
	}
	fb.emit(&IfElse{Condition: lowerExprLeaf(n.Condition), S1: thenB.stmts, S2: elseB.stmts, FinalAssignments: fas})
}

// lowerConditionalDestructure compiles a pattern-match tag test into a
// one-shot MIR While whose sole purpose is to provide Break as an early-exit
// mechanism (spec §4.4): the loop body runs the abstract TagTest; on success
// it runs S1 and Breaks with that value; on failure it falls through to S2
// (a further nested match test, or the chain's final default) and Breaks
// with that result instead. The while always executes exactly once, so
// BreakCollector simply becomes the destructure's merged value. CCP's loop
// unrolling (§4.5.1) leaves this loop in place: it only unrolls a body
// whose trailing Break is its only one, and the SingleIf here breaks too.
func (fb *funcLowering) lowerConditionalDestructure(n *hir.ConditionalDestructure) {
	test := lowerExprLeaf(n.TestExpr)
	succ, fail := fb.child(), fb.child()

	for i, b := range n.Bindings {
		if b == nil {
			continue
		}
		succ.emit(&IndexedAccess{Name: b.Name, Type: b.Type, Pointer: test, Index: i})
	}
	succ.lowerStatements(n.S1)
	fail.lowerStatements(n.S2)

	collectorName := fb.ml.fresh("destructure")
	var resultType Type = hir.Int31Type
	if len(n.FinalAssignments) > 0 {
		resultType = n.FinalAssignments[0].Type
	}
	var breakVal1, breakVal2 Expression = Int31Zero{}, Int31Zero{}
	if len(n.FinalAssignments) > 0 {
		breakVal1 = lowerExprLeaf(n.FinalAssignments[0].Branch1)
		breakVal2 = lowerExprLeaf(n.FinalAssignments[0].Branch2)
	}
	succ.emit(&Break{BreakValue: breakVal1})
	fail.emit(&Break{BreakValue: breakVal2})

	tagTest := TagTest{Operand: test, Tag: n.Tag}
	body := []Statement{&SingleIf{Condition: tagTest, Body: succ.stmts}}
	body = append(body, fail.stmts...)

	fb.emit(&While{Statements: body, BreakCollector: &VariableName{Name: collectorName, Type: resultType}})
	if len(n.FinalAssignments) > 0 {
		fa := n.FinalAssignments[0]
		fb.emit(&LateInitDeclaration{Name: fa.Name, Type: fa.Type})
		fb.emit(&LateInitAssignment{Name: fa.Name, Assigned: Variable{VariableName{Name: collectorName, Type: resultType}}})
	}
}

// lowerEnumInit compiles a variant constructor call into a plain StructInit
// whose first field is the integer tag and remaining fields are the
// variant's associated data (spec §4.4); the choice of whether this struct
// ultimately needs to exist at all (vs. being unboxed/Int31) is deferred to
// LIR (§4.6), so MIR always materializes the boxed shape.
func (fb *funcLowering) lowerEnumInit(n *hir.EnumInit) {
	args := make([]Expression, 0, len(n.AssociatedDataList)+1)
	args = append(args, IntLiteral{Value: int32(n.Tag)})
	for _, e := range n.AssociatedDataList {
		args = append(args, lowerExprLeaf(e))
	}
	fb.emit(&StructInit{StructVariableName: n.EnumVariableName, Type: n.EnumType, ExpressionList: args})
}
