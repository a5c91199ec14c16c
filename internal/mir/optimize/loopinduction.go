package optimize

import (
	"fmt"

	"github.com/samlang-wasm/samlang/internal/heap"
	"github.com/samlang-wasm/samlang/internal/mir"
)

// runLoopInduction eliminates a basic induction variable in favor of its
// sole derived induction variable, per spec §4.5.4, in every While whose
// shape matches: one basic variable `i` incremented by a loop-invariant
// step, one derived variable `j = i*M + A` with loop-invariant `M`/`A`, and
// no other reference to `i` in the loop (body, other loop variables, or
// break collector).
func runLoopInduction(h *heap.Heap, src *mir.Sources) (*mir.Sources, bool) {
	lr := &loopInductionRun{heap: h}
	changed := false
	fns := make([]*mir.Function, len(src.Functions))
	for i, fn := range src.Functions {
		body, ch := lr.statements(fn.Body)
		changed = changed || ch
		out := *fn
		out.Body = body
		fns[i] = &out
	}
	return withFunctions(src, fns), changed
}

type loopInductionRun struct {
	heap    *heap.Heap
	counter int
}

func (lr *loopInductionRun) fresh(prefix string) heap.PStr {
	n := lr.counter
	lr.counter++
	return lr.heap.Alloc(fmt.Sprintf("$%s%d", prefix, n))
}

func (lr *loopInductionRun) statements(stmts []mir.Statement) ([]mir.Statement, bool) {
	var out []mir.Statement
	changed := false
	for _, s := range stmts {
		ns, ch := lr.statement(s)
		changed = changed || ch
		out = append(out, ns...)
	}
	return out, changed
}

func (lr *loopInductionRun) statement(s mir.Statement) ([]mir.Statement, bool) {
	switch n := s.(type) {
	case *mir.IfElse:
		s1, c1 := lr.statements(n.S1)
		s2, c2 := lr.statements(n.S2)
		return []mir.Statement{&mir.IfElse{Condition: n.Condition, S1: s1, S2: s2, FinalAssignments: n.FinalAssignments}}, c1 || c2
	case *mir.SingleIf:
		body, ch := lr.statements(n.Body)
		return []mir.Statement{&mir.SingleIf{Condition: n.Condition, Body: body}}, ch
	case *mir.While:
		return lr.reduceWhile(n)
	default:
		return []mir.Statement{s}, false
	}
}

// binaryDefs indexes every top-level `*mir.Binary` in a loop body by the
// name it defines, the only information linear induction-variable
// decomposition needs: MIR's SSA discipline means a name is bound by at
// most one statement.
func binaryDefs(stmts []mir.Statement) map[heap.PStr]*mir.Binary {
	defs := map[heap.PStr]*mir.Binary{}
	for _, s := range stmts {
		if b, ok := s.(*mir.Binary); ok {
			defs[b.Name] = b
		}
	}
	return defs
}

// linearForm is `mult*<base> + add`, where base is a loop variable's name
// and mult/add are expressions not themselves mentioning any loop variable.
type linearForm struct {
	mult mir.Expression
	add  mir.Expression
}

// decomposeLinear determines whether value (a variable possibly defined by
// a chain of Binary statements in defs) equals `mult*base + add` for
// loop-invariant mult/add, bounded to a shallow chain since MIR never nests
// more than a couple of Binary statements to express one induction step.
// chain accumulates the names of every Binary consumed along the way, so
// the caller can tell "i appears only inside j's own derivation" apart from
// "i appears somewhere else too".
func decomposeLinear(value mir.Expression, base heap.PStr, defs map[heap.PStr]*mir.Binary, invariantNames map[heap.PStr]bool, depth int, chain map[heap.PStr]bool) (linearForm, bool) {
	if depth > 4 {
		return linearForm{}, false
	}
	v, ok := value.(mir.Variable)
	if !ok {
		return linearForm{}, false
	}
	if v.Name == base {
		return linearForm{mult: mir.One, add: mir.Zero}, true
	}
	def, ok := defs[v.Name]
	if !ok {
		return linearForm{}, false
	}
	switch def.Operator {
	case mir.Mul:
		if inner, ok := decomposeLinear(def.E1, base, defs, invariantNames, depth+1, chain); ok && isInvariantExpr(def.E2, invariantNames) {
			chain[v.Name] = true
			return linearForm{mult: foldOrInvariantProduct(inner.mult, def.E2), add: foldOrInvariantProduct(inner.add, def.E2)}, true
		}
	case mir.Plus:
		if inner, ok := decomposeLinear(def.E1, base, defs, invariantNames, depth+1, chain); ok && isInvariantExpr(def.E2, invariantNames) {
			chain[v.Name] = true
			return linearForm{mult: inner.mult, add: foldOrInvariantSum(inner.add, def.E2)}, true
		}
	}
	return linearForm{}, false
}

func isInvariantExpr(e mir.Expression, loopNames map[heap.PStr]bool) bool {
	switch n := e.(type) {
	case mir.Variable:
		return !loopNames[n.Name]
	case mir.IntLiteral, mir.Int31Zero, mir.StringName:
		return true
	default:
		return false
	}
}

// foldOrInvariantProduct/foldOrInvariantSum fold two constants, or collapse
// the 0/1 identity cases; they never synthesize a new Binary *expression*
// (MIR has none — Binary is a statement) and so only return an Expression
// when the combination is itself expressible without a new computation.
// decomposeLinear only needs this for constant-folded coefficients; the
// general case (both invariant but not both constant) is handled by
// emitting real prefix statements in reduceWhile.
func foldOrInvariantProduct(a, b mir.Expression) mir.Expression {
	if av, ok := asInt(a); ok {
		if bv, ok := asInt(b); ok {
			return mir.IntLiteral{Value: av * bv}
		}
		if av == 0 {
			return mir.Zero
		}
		if av == 1 {
			return b
		}
	}
	return a
}

func foldOrInvariantSum(a, b mir.Expression) mir.Expression {
	if av, ok := asInt(a); ok {
		if bv, ok := asInt(b); ok {
			return mir.IntLiteral{Value: av + bv}
		}
		if av == 0 {
			return b
		}
	}
	return a
}

func mentionsVar(e mir.Expression, name heap.PStr) bool {
	switch n := e.(type) {
	case mir.Variable:
		return n.Name == name
	case mir.TagTest:
		return mentionsVar(n.Operand, name)
	default:
		return false
	}
}

// statementsMentionVar reports whether name is mentioned anywhere in stmts,
// ignoring statements whose own defined name is in exclude — used to carve
// out the Binary chain that legitimately derives a surviving induction
// variable from the one being eliminated.
func statementsMentionVar(stmts []mir.Statement, name heap.PStr, exclude map[heap.PStr]bool) bool {
	found := false
	walkStatements(stmts, func(s mir.Statement) {
		switch n := s.(type) {
		case *mir.Not:
			found = found || mentionsVar(n.Operand, name)
		case *mir.Binary:
			if exclude[n.Name] {
				return
			}
			found = found || mentionsVar(n.E1, name) || mentionsVar(n.E2, name)
		case *mir.IndexedAccess:
			found = found || mentionsVar(n.Pointer, name)
		case *mir.Call:
			for _, a := range n.Arguments {
				found = found || mentionsVar(a, name)
			}
		case *mir.LateInitAssignment:
			found = found || mentionsVar(n.Assigned, name)
		case *mir.StructInit:
			for _, a := range n.ExpressionList {
				found = found || mentionsVar(a, name)
			}
		case *mir.ClosureInit:
			found = found || mentionsVar(n.Context, name)
		case *mir.Cast:
			found = found || mentionsVar(n.Operand, name)
		case *mir.IfElse:
			found = found || mentionsVar(n.Condition, name)
			for _, fa := range n.FinalAssignments {
				found = found || mentionsVar(fa.Branch1, name) || mentionsVar(fa.Branch2, name)
			}
		case *mir.SingleIf:
			found = found || mentionsVar(n.Condition, name)
		case *mir.Break:
			found = found || mentionsVar(n.BreakValue, name)
		}
	})
	return found
}

// reduceWhile attempts the rewrite of spec §4.5.4 on one While, recursing
// into the body first regardless of whether the outer loop matches. On a
// match it returns the prefix statements precomputing `new_initial` and the
// rewritten loop; otherwise just the (body-rewritten) loop.
func (lr *loopInductionRun) reduceWhile(n *mir.While) ([]mir.Statement, bool) {
	body, bodyChanged := lr.statements(n.Statements)
	loop := &mir.While{LoopVariables: n.LoopVariables, Statements: body, BreakCollector: n.BreakCollector}

	loopNames := map[heap.PStr]bool{}
	for _, lv := range loop.LoopVariables {
		loopNames[lv.Name] = true
	}
	defs := binaryDefs(body)

	for bi, basic := range loop.LoopVariables {
		selfChain := map[heap.PStr]bool{}
		step, ok := decomposeLinear(basic.LoopValue, basic.Name, defs, loopNames, 0, selfChain)
		if !ok || !exprEqual(step.mult, mir.One) {
			continue
		}
		invariantStep := step.add

		derivedIdx := -1
		var derived linearForm
		chain := map[heap.PStr]bool{}
		for di, cand := range loop.LoopVariables {
			if di == bi {
				continue
			}
			candChain := map[heap.PStr]bool{}
			lf, ok := decomposeLinear(cand.LoopValue, basic.Name, defs, loopNames, 0, candChain)
			if !ok {
				continue
			}
			if derivedIdx != -1 {
				derivedIdx = -2
				break
			}
			derivedIdx = di
			derived = lf
			chain = candChain
		}
		if derivedIdx < 0 {
			continue
		}

		usedElsewhere := false
		for vi, lv := range loop.LoopVariables {
			if vi == bi || vi == derivedIdx {
				continue
			}
			usedElsewhere = usedElsewhere || mentionsVar(lv.LoopValue, basic.Name) || mentionsVar(lv.InitialValue, basic.Name)
		}
		if statementsMentionVar(body, basic.Name, chain) {
			usedElsewhere = true
		}
		if usedElsewhere {
			continue
		}

		derivedVar := loop.LoopVariables[derivedIdx]
		var prefix []mir.Statement
		newInitName := lr.fresh("indvarInit")
		prefix = append(prefix,
			&mir.Binary{Name: newInitName, Operator: mir.Mul, E1: derived.mult, E2: basic.InitialValue})
		combinedInitName := lr.fresh("indvarInit")
		prefix = append(prefix,
			&mir.Binary{Name: combinedInitName, Operator: mir.Plus,
				E1: mir.Variable{VariableName: mir.VariableName{Name: newInitName, Type: derivedVar.Type}}, E2: derived.add})

		newIncName := lr.fresh("indvarStep")
		prefix = append(prefix, &mir.Binary{Name: newIncName, Operator: mir.Mul, E1: derived.mult, E2: invariantStep})

		// The old Binary chain computing derivedVar's per-iteration value from
		// `basic` no longer has a valid operand once `basic` is dropped as a
		// loop variable; drop those statements and recompute the next value
		// directly from the new invariant step instead.
		var filteredBody []mir.Statement
		for _, s := range body {
			if b, ok := s.(*mir.Binary); ok && chain[b.Name] {
				continue
			}
			filteredBody = append(filteredBody, s)
		}

		nextName := lr.fresh("indvarNext")
		filteredBody = append(filteredBody, &mir.Binary{
			Name:     nextName,
			Operator: mir.Plus,
			E1:       mir.Variable{VariableName: mir.VariableName{Name: derivedVar.Name, Type: derivedVar.Type}},
			E2:       mir.Variable{VariableName: mir.VariableName{Name: newIncName, Type: derivedVar.Type}},
		})

		newVars := make([]mir.GeneralLoopVariable, 0, len(loop.LoopVariables)-1)
		for vi, lv := range loop.LoopVariables {
			if vi == bi {
				continue
			}
			if vi == derivedIdx {
				lv = mir.GeneralLoopVariable{
					Name:         derivedVar.Name,
					Type:         derivedVar.Type,
					InitialValue: mir.Variable{VariableName: mir.VariableName{Name: combinedInitName, Type: derivedVar.Type}},
					LoopValue:    mir.Variable{VariableName: mir.VariableName{Name: nextName, Type: derivedVar.Type}},
				}
			}
			newVars = append(newVars, lv)
		}

		out := append(prefix, &mir.While{LoopVariables: newVars, Statements: filteredBody, BreakCollector: loop.BreakCollector})
		return out, true
	}
	return []mir.Statement{loop}, bodyChanged
}
