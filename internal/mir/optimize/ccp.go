package optimize

import (
	"github.com/samlang-wasm/samlang/internal/heap"
	"github.com/samlang-wasm/samlang/internal/mir"
)

// ccpContext holds the three stacked lookup tables conditional constant
// propagation threads through a function body (spec §4.5.1): a
// variable→expression table for names bound to a known-constant value, an
// indexed-access table keyed by (pointer, index) for fields whose value a
// preceding StructInit already pinned down, and a variable→BinaryExpression
// table used purely for the algebraic merge rewrites
// ((y+c1)+c2 -> y+(c1+c2), etc).
type ccpContext struct {
	parent   *ccpContext
	consts   map[heap.PStr]mir.Expression
	indexed  map[indexKey]mir.Expression
	binaries map[heap.PStr]mir.Binary
}

type indexKey struct {
	ptr heap.PStr
	idx int
}

func newCCPContext(parent *ccpContext) *ccpContext {
	return &ccpContext{parent: parent, consts: map[heap.PStr]mir.Expression{}, indexed: map[indexKey]mir.Expression{}, binaries: map[heap.PStr]mir.Binary{}}
}

func (c *ccpContext) lookupConst(name heap.PStr) (mir.Expression, bool) {
	for ctx := c; ctx != nil; ctx = ctx.parent {
		if v, ok := ctx.consts[name]; ok {
			return v, true
		}
	}
	return nil, false
}

func (c *ccpContext) lookupIndexed(key indexKey) (mir.Expression, bool) {
	for ctx := c; ctx != nil; ctx = ctx.parent {
		if v, ok := ctx.indexed[key]; ok {
			return v, true
		}
	}
	return nil, false
}

func (c *ccpContext) lookupBinary(name heap.PStr) (mir.Binary, bool) {
	for ctx := c; ctx != nil; ctx = ctx.parent {
		if v, ok := ctx.binaries[name]; ok {
			return v, true
		}
	}
	return mir.Binary{}, false
}

// runCCP rewrites every function body under a fresh ccpContext. It is a
// single pass; the outer fixed-point driver (optimize.Run) is what achieves
// the "running CCP twice equals running it once" property of spec §8.3 by
// repeating the whole sequence until nothing changes.
func runCCP(h *heap.Heap, src *mir.Sources) (*mir.Sources, bool) {
	changed := false
	fns := make([]*mir.Function, len(src.Functions))
	for i, fn := range src.Functions {
		next, ch := ccpFunction(fn)
		fns[i] = next
		changed = changed || ch
	}
	return withFunctions(src, fns), changed
}

func ccpFunction(fn *mir.Function) (*mir.Function, bool) {
	cx := newCCPContext(nil)
	body, changed := ccpStatements(cx, fn.Body)
	ret, rc := substExpr(cx, fn.ReturnValue)
	out := *fn
	out.Body = body
	out.ReturnValue = ret
	return &out, changed || rc
}

func substExpr(cx *ccpContext, e mir.Expression) (mir.Expression, bool) {
	if v, ok := e.(mir.Variable); ok {
		if c, ok := cx.lookupConst(v.Name); ok {
			return c, true
		}
	}
	return e, false
}

func ccpStatements(cx *ccpContext, stmts []mir.Statement) ([]mir.Statement, bool) {
	var out []mir.Statement
	changed := false
	for _, s := range stmts {
		ns, ch := ccpStatement(cx, s)
		changed = changed || ch
		out = append(out, ns...)
	}
	return out, changed
}

func ccpStatement(cx *ccpContext, s mir.Statement) ([]mir.Statement, bool) {
	switch n := s.(type) {
	case *mir.Not:
		operand, ch := substExpr(cx, n.Operand)
		return []mir.Statement{&mir.Not{Name: n.Name, Operand: operand}}, ch
	case *mir.Binary:
		return ccpBinary(cx, n)
	case *mir.IndexedAccess:
		return ccpIndexedAccess(cx, n)
	case *mir.Call:
		args := make([]mir.Expression, len(n.Arguments))
		changed := false
		for i, a := range n.Arguments {
			na, ch := substExpr(cx, a)
			args[i] = na
			changed = changed || ch
		}
		return []mir.Statement{&mir.Call{Callee: n.Callee, Arguments: args, ReturnType: n.ReturnType, ReturnCollector: n.ReturnCollector, HasCollector: n.HasCollector}}, changed
	case *mir.LateInitDeclaration:
		return []mir.Statement{n}, false
	case *mir.LateInitAssignment:
		assigned, ch := substExpr(cx, n.Assigned)
		return []mir.Statement{&mir.LateInitAssignment{Name: n.Name, Assigned: assigned}}, ch
	case *mir.StructInit:
		args := make([]mir.Expression, len(n.ExpressionList))
		changed := false
		for i, a := range n.ExpressionList {
			na, ch := substExpr(cx, a)
			args[i] = na
			changed = changed || ch
		}
		for i, a := range args {
			cx.indexed[indexKey{ptr: n.StructVariableName, idx: i}] = a
		}
		return []mir.Statement{&mir.StructInit{StructVariableName: n.StructVariableName, Type: n.Type, ExpressionList: args}}, changed
	case *mir.ClosureInit:
		ctxVal, ch := substExpr(cx, n.Context)
		return []mir.Statement{&mir.ClosureInit{ClosureVariableName: n.ClosureVariableName, ClosureType: n.ClosureType, FunctionName: n.FunctionName, Context: ctxVal}}, ch
	case *mir.Cast:
		operand, ch := substExpr(cx, n.Operand)
		return []mir.Statement{&mir.Cast{Name: n.Name, Type: n.Type, Operand: operand}}, ch
	case *mir.IfElse:
		return ccpIfElse(cx, n)
	case *mir.While:
		return ccpWhile(cx, n)
	case *mir.SingleIf:
		cond, ch1 := substExpr(cx, n.Condition)
		body, ch2 := ccpStatements(newCCPContext(cx), n.Body)
		return []mir.Statement{&mir.SingleIf{Condition: cond, Body: body}}, ch1 || ch2
	case *mir.Break:
		val, ch := substExpr(cx, n.BreakValue)
		return []mir.Statement{&mir.Break{BreakValue: val}}, ch
	default:
		return []mir.Statement{s}, false
	}
}

func ccpIndexedAccess(cx *ccpContext, n *mir.IndexedAccess) ([]mir.Statement, bool) {
	ptr, ch := substExpr(cx, n.Pointer)
	if v, ok := ptr.(mir.Variable); ok {
		if val, ok := cx.lookupIndexed(indexKey{ptr: v.Name, idx: n.Index}); ok {
			cx.consts[n.Name] = val
			return nil, true
		}
	}
	return []mir.Statement{&mir.IndexedAccess{Name: n.Name, Type: n.Type, Pointer: ptr, Index: n.Index}}, ch
}

func ccpBinary(cx *ccpContext, n *mir.Binary) ([]mir.Statement, bool) {
	e1, c1 := substExpr(cx, n.E1)
	e2, c2 := substExpr(cx, n.E2)
	changed := c1 || c2

	if lit1, ok1 := asInt(e1); ok1 {
		if lit2, ok2 := asInt(e2); ok2 {
			if folded, ok := foldConstants(n.Operator, lit1, lit2); ok {
				cx.consts[n.Name] = folded
				return nil, true
			}
		}
	}

	if simplified, ok := algebraicIdentity(n.Operator, e1, e2); ok {
		if v, isVar := simplified.(mir.Variable); isVar {
			cx.consts[n.Name] = v
		} else {
			cx.consts[n.Name] = simplified
		}
		return nil, true
	}

	if merged, ok := mergeBinaryChain(cx, n.Operator, e1, e2); ok {
		cx.binaries[n.Name] = merged
		return []mir.Statement{&mir.Binary{Name: n.Name, Operator: merged.Operator, E1: merged.E1, E2: merged.E2}}, true
	}

	out := mir.Binary{Name: n.Name, Operator: n.Operator, E1: e1, E2: e2}
	cx.binaries[n.Name] = out
	return []mir.Statement{&out}, changed
}

func asInt(e mir.Expression) (int32, bool) {
	if l, ok := e.(mir.IntLiteral); ok {
		return l.Value, true
	}
	return 0, false
}

// foldConstants implements the literal/literal fold of spec §4.5.1.
func foldConstants(op mir.BinaryOperator, a, b int32) (mir.Expression, bool) {
	switch op {
	case mir.Plus:
		return mir.IntLiteral{Value: a + b}, true
	case mir.Minus:
		return mir.IntLiteral{Value: a - b}, true
	case mir.Mul:
		return mir.IntLiteral{Value: a * b}, true
	case mir.Div:
		if b == 0 {
			return nil, false
		}
		return mir.IntLiteral{Value: a / b}, true
	case mir.Mod:
		if b == 0 {
			return nil, false
		}
		return mir.IntLiteral{Value: a % b}, true
	case mir.Lt:
		return boolLit(a < b), true
	case mir.Le:
		return boolLit(a <= b), true
	case mir.Gt:
		return boolLit(a > b), true
	case mir.Ge:
		return boolLit(a >= b), true
	case mir.Eq:
		return boolLit(a == b), true
	case mir.Ne:
		return boolLit(a != b), true
	default:
		return nil, false
	}
}

func boolLit(b bool) mir.Expression {
	if b {
		return mir.One
	}
	return mir.Zero
}

// algebraicIdentity implements the per-case rewrites of spec §4.5.1:
// `x+0 -> x`, `x*0 -> 0`, `x*1|x/1 -> x`, `x%1 -> 0`, `x-x|x%x -> 0`,
// `x/x -> 1`.
func algebraicIdentity(op mir.BinaryOperator, e1, e2 mir.Expression) (mir.Expression, bool) {
	sameVar := exprEqual(e1, e2)
	if lit2, ok := asInt(e2); ok {
		switch {
		case op == mir.Plus && lit2 == 0:
			return e1, true
		case op == mir.Mul && lit2 == 0:
			return mir.Zero, true
		case op == mir.Mul && lit2 == 1:
			return e1, true
		case op == mir.Div && lit2 == 1:
			return e1, true
		case op == mir.Mod && lit2 == 1:
			return mir.Zero, true
		}
	}
	if sameVar {
		switch op {
		case mir.Minus, mir.Mod:
			return mir.Zero, true
		case mir.Div:
			return mir.One, true
		}
	}
	return nil, false
}

func exprEqual(a, b mir.Expression) bool {
	av, aok := a.(mir.Variable)
	bv, bok := b.(mir.Variable)
	if aok && bok {
		return av.Name == bv.Name
	}
	al, alok := a.(mir.IntLiteral)
	bl, blok := b.(mir.IntLiteral)
	if alok && blok {
		return al.Value == bl.Value
	}
	return false
}

var commutativeShift = map[mir.BinaryOperator]bool{mir.Lt: true, mir.Le: true, mir.Gt: true, mir.Ge: true, mir.Eq: true, mir.Ne: true}

// mergeBinaryChain implements the binary-context merge rule of spec
// §4.5.1: `((y+c1)+c2) -> y+(c1+c2)`, similarly for `*`, and
// `((y+c1) op c2) -> y op (c2-c1)` for comparison operators.
func mergeBinaryChain(cx *ccpContext, op mir.BinaryOperator, e1, e2 mir.Expression) (mir.Binary, bool) {
	v, ok := e1.(mir.Variable)
	if !ok {
		return mir.Binary{}, false
	}
	prev, ok := cx.lookupBinary(v.Name)
	if !ok {
		return mir.Binary{}, false
	}
	c2, ok := asInt(e2)
	if !ok {
		return mir.Binary{}, false
	}
	y, okY := prev.E1.(mir.Variable)
	c1, okC := asInt(prev.E2)
	if !okY || !okC {
		return mir.Binary{}, false
	}
	switch {
	case op == mir.Plus && prev.Operator == mir.Plus:
		return mir.Binary{Operator: mir.Plus, E1: y, E2: mir.IntLiteral{Value: c1 + c2}}, true
	case op == mir.Mul && prev.Operator == mir.Mul:
		return mir.Binary{Operator: mir.Mul, E1: y, E2: mir.IntLiteral{Value: c1 * c2}}, true
	case commutativeShift[op] && prev.Operator == mir.Plus:
		return mir.Binary{Operator: op, E1: y, E2: mir.IntLiteral{Value: c2 - c1}}, true
	}
	return mir.Binary{}, false
}

func ccpIfElse(cx *ccpContext, n *mir.IfElse) ([]mir.Statement, bool) {
	cond, condChanged := substExpr(cx, n.Condition)
	if lit, ok := asInt(cond); ok {
		var taken []mir.Statement
		var takenFA func(fa mir.IfElseFinalAssignment) mir.Expression
		if lit != 0 {
			taken = n.S1
			takenFA = func(fa mir.IfElseFinalAssignment) mir.Expression { return fa.Branch1 }
		} else {
			taken = n.S2
			takenFA = func(fa mir.IfElseFinalAssignment) mir.Expression { return fa.Branch2 }
		}
		// The taken branch becomes straight-line code in the enclosing scope,
		// so the constants it binds stay visible after it.
		body, _ := ccpStatements(cx, taken)
		for _, fa := range n.FinalAssignments {
			v, _ := substExpr(cx, takenFA(fa))
			body = append(body, &mir.LateInitDeclaration{Name: fa.Name, Type: fa.Type}, &mir.LateInitAssignment{Name: fa.Name, Assigned: v})
		}
		return body, true
	}

	thenCx, elseCx := newCCPContext(cx), newCCPContext(cx)
	s1, ch1 := ccpStatements(thenCx, n.S1)
	s2, ch2 := ccpStatements(elseCx, n.S2)

	var fas []mir.IfElseFinalAssignment
	changed := condChanged || ch1 || ch2
	for _, fa := range n.FinalAssignments {
		b1, _ := substExpr(thenCx, fa.Branch1)
		b2, _ := substExpr(elseCx, fa.Branch2)
		if exprEqual(b1, b2) {
			cx.consts[fa.Name] = b1
			changed = true
			continue
		}
		fas = append(fas, mir.IfElseFinalAssignment{Name: fa.Name, Type: fa.Type, Branch1: b1, Branch2: b2})
	}
	return []mir.Statement{&mir.IfElse{Condition: cond, S1: s1, S2: s2, FinalAssignments: fas}}, changed
}

// ccpWhile implements the two While-specific rewrites of spec §4.5.1:
// dropping loop variables whose initial value already equals their
// per-iteration value (they are invariant, not really looping), and
// unrolling the loop once when no loop variable remains and its body ends
// in an unconditional Break that is the body's only Break.
func ccpWhile(cx *ccpContext, n *mir.While) ([]mir.Statement, bool) {
	changed := false
	var vars []mir.GeneralLoopVariable
	bodyCx := newCCPContext(cx)
	for _, lv := range n.LoopVariables {
		init, _ := substExpr(cx, lv.InitialValue)
		if exprEqual(init, lv.LoopValue) {
			bodyCx.consts[lv.Name] = init
			changed = true
			continue
		}
		vars = append(vars, mir.GeneralLoopVariable{Name: lv.Name, Type: lv.Type, InitialValue: init, LoopValue: lv.LoopValue})
	}

	body, bodyChanged := ccpStatements(bodyCx, n.Statements)
	changed = changed || bodyChanged

	if breakVal, ok := unconditionalTrailingBreak(body); ok && n.BreakCollector != nil && len(vars) == 0 {
		prefix := body[:len(body)-1]
		nestedBreak := false
		walkStatements(prefix, func(s mir.Statement) {
			if _, isBreak := s.(*mir.Break); isBreak {
				nestedBreak = true
			}
		})
		if !nestedBreak {
			changed = true
			return append(append([]mir.Statement{}, prefix...),
				&mir.LateInitDeclaration{Name: n.BreakCollector.Name, Type: n.BreakCollector.Type},
				&mir.LateInitAssignment{Name: n.BreakCollector.Name, Assigned: breakVal},
			), changed
		}
	}

	return []mir.Statement{&mir.While{LoopVariables: vars, Statements: body, BreakCollector: n.BreakCollector}}, changed
}

// unconditionalTrailingBreak reports whether stmts' last statement is an
// unconditional Break, per spec §4.5.1's "if the loop's body ends in a
// Break, unroll once".
func unconditionalTrailingBreak(stmts []mir.Statement) (mir.Expression, bool) {
	if len(stmts) == 0 {
		return nil, false
	}
	if b, ok := stmts[len(stmts)-1].(*mir.Break); ok {
		return b.BreakValue, true
	}
	return nil, false
}
