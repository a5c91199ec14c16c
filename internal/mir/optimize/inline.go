package optimize

import (
	"fmt"

	"github.com/samlang-wasm/samlang/internal/heap"
	"github.com/samlang-wasm/samlang/internal/mir"
)

// inlineableCost is the cost threshold under which a function is always
// inlined at a call site (spec §4.5.2).
const inlineableCost = 20

// mayInlineCost is the cost ceiling above which a function is never
// inlined even speculatively.
const mayInlineCost = 1000

// inlinePasses is the fixed pass count spec §4.5.2 specifies ("Five
// passes; early-exit when no callee is inlineable").
const inlinePasses = 5

// statementCost implements the per-statement cost model of spec §4.5.2.
func statementCost(s mir.Statement) int {
	switch n := s.(type) {
	case *mir.LateInitDeclaration:
		return 0
	case *mir.Binary, *mir.Cast, *mir.LateInitAssignment, *mir.Not, *mir.IndexedAccess:
		if _, ok := s.(*mir.IndexedAccess); ok {
			return 2
		}
		return 1
	case *mir.Call:
		return 10
	case *mir.StructInit:
		return 1 + len(n.ExpressionList)
	case *mir.ClosureInit:
		return 3
	case *mir.IfElse:
		return 2 + statementsCost(n.S1) + statementsCost(n.S2)
	case *mir.SingleIf:
		return 2 + statementsCost(n.Body)
	case *mir.While:
		return 3 + statementsCost(n.Statements)
	case *mir.Break:
		return 1
	default:
		return 1
	}
}

func statementsCost(stmts []mir.Statement) int {
	total := 0
	for _, s := range stmts {
		total += statementCost(s)
	}
	return total
}

// functionCost is a function's total body cost, used to decide
// inlineability and to check the "no function's cost exceeds its pre-inline
// cost by more than sum_of_inlined_callee_costs" invariant of spec §8.4.
func functionCost(fn *mir.Function) int { return statementsCost(fn.Body) }

func functionKey(name mir.FunctionName) string {
	return fmt.Sprintf("%v#%v", name.TypeName, name.FnName)
}

// runInline inlines call sites of small, non-self-recursive callees, five
// times per spec §4.5.2, stopping early once no function in the current set
// is inlineable.
func runInline(h *heap.Heap, src *mir.Sources) (*mir.Sources, bool) {
	fns := src.Functions
	byName := make(map[string]*mir.Function, len(fns))
	for _, fn := range fns {
		byName[functionKey(fn.Name)] = fn
	}

	changed := false
	counter := 0
	for pass := 0; pass < inlinePasses; pass++ {
		anyInlineable := false
		for _, fn := range fns {
			if functionCost(fn) <= inlineableCost {
				anyInlineable = true
				break
			}
		}
		if !anyInlineable {
			break
		}

		next := make([]*mir.Function, len(fns))
		passChanged := false
		for i, fn := range fns {
			body, ret, ch := inlineStatements(h, fn.Name, fn.Body, fn.ReturnValue, byName, &counter)
			passChanged = passChanged || ch
			out := *fn
			out.Body = body
			out.ReturnValue = ret
			next[i] = &out
		}
		fns = next
		byName = make(map[string]*mir.Function, len(fns))
		for _, fn := range fns {
			byName[functionKey(fn.Name)] = fn
		}
		changed = changed || passChanged
		if !passChanged {
			break
		}
	}
	return withFunctions(src, fns), changed
}

func inlineStatements(h *heap.Heap, self mir.FunctionName, stmts []mir.Statement, ret mir.Expression, byName map[string]*mir.Function, counter *int) ([]mir.Statement, mir.Expression, bool) {
	var out []mir.Statement
	changed := false
	for _, s := range stmts {
		ns, ch := inlineStatement(h, self, s, byName, counter)
		changed = changed || ch
		out = append(out, ns...)
	}
	return out, ret, changed
}

func inlineStatement(h *heap.Heap, self mir.FunctionName, s mir.Statement, byName map[string]*mir.Function, counter *int) ([]mir.Statement, bool) {
	switch n := s.(type) {
	case *mir.Call:
		callee, ok := n.Callee.(mir.FunctionNameCallee)
		if !ok {
			return []mir.Statement{s}, false
		}
		if callee.Name.TypeName.Equal(self.TypeName) && callee.Name.FnName == self.FnName {
			return []mir.Statement{s}, false // never inline a self-recursive call
		}
		target, ok := byName[functionKey(callee.Name)]
		if !ok || functionCost(target) > inlineableCost {
			return []mir.Statement{s}, false
		}
		return inlineCall(h, n, target, counter), true
	case *mir.IfElse:
		s1, c1 := inlineStatements(h, self, n.S1, nil, byName, counter)
		s2, c2 := inlineStatements(h, self, n.S2, nil, byName, counter)
		return []mir.Statement{&mir.IfElse{Condition: n.Condition, S1: s1, S2: s2, FinalAssignments: n.FinalAssignments}}, c1 || c2
	case *mir.SingleIf:
		body, ch := inlineStatements(h, self, n.Body, nil, byName, counter)
		return []mir.Statement{&mir.SingleIf{Condition: n.Condition, Body: body}}, ch
	case *mir.While:
		body, ch := inlineStatements(h, self, n.Statements, nil, byName, counter)
		return []mir.Statement{&mir.While{LoopVariables: n.LoopVariables, Statements: body, BreakCollector: n.BreakCollector}}, ch
	default:
		return []mir.Statement{s}, false
	}
}

// inlineCall splices target's body into the call site: every callee
// parameter is bound to the corresponding argument, every name target
// defines is mangled with a fresh unique prefix so it cannot collide with
// the caller's names, and — if the call has a return collector — a no-op
// `Binary(collector, +, inlined_return_value, 0)` is appended so downstream
// passes see a normal binding for the call's former result (spec §4.5.2).
func inlineCall(h *heap.Heap, call *mir.Call, target *mir.Function, counter *int) []mir.Statement {
	prefix := fmt.Sprintf("$inline%d$", *counter)
	*counter++

	bind := map[heap.PStr]mir.Expression{}
	for i, p := range target.Parameters {
		if i < len(call.Arguments) {
			bind[p] = call.Arguments[i]
		}
	}
	rename := map[heap.PStr]heap.PStr{}

	body := mangleStatements(h, target.Body, prefix, bind, rename)
	retVal := mangleExpr(h, target.ReturnValue, prefix, bind, rename)

	out := append([]mir.Statement{}, body...)
	if call.HasCollector {
		out = append(out, &mir.Binary{Name: call.ReturnCollector, Operator: mir.Plus, E1: retVal, E2: mir.Zero})
	}
	return out
}

func mangledName(h *heap.Heap, name heap.PStr, prefix string, rename map[heap.PStr]heap.PStr) heap.PStr {
	if m, ok := rename[name]; ok {
		return m
	}
	m := h.Alloc(prefix + h.Str(name))
	rename[name] = m
	return m
}

func mangleExpr(h *heap.Heap, e mir.Expression, prefix string, bind map[heap.PStr]mir.Expression, rename map[heap.PStr]heap.PStr) mir.Expression {
	v, ok := e.(mir.Variable)
	if !ok {
		return e
	}
	if arg, ok := bind[v.Name]; ok {
		return arg
	}
	return mir.Variable{VariableName: mir.VariableName{Name: mangledName(h, v.Name, prefix, rename), Type: v.Type}}
}

func mangleStatements(h *heap.Heap, stmts []mir.Statement, prefix string, bind map[heap.PStr]mir.Expression, rename map[heap.PStr]heap.PStr) []mir.Statement {
	out := make([]mir.Statement, len(stmts))
	for i, s := range stmts {
		out[i] = mangleStatement(h, s, prefix, bind, rename)
	}
	return out
}

func mangleStatement(h *heap.Heap, s mir.Statement, prefix string, bind map[heap.PStr]mir.Expression, rename map[heap.PStr]heap.PStr) mir.Statement {
	me := func(e mir.Expression) mir.Expression { return mangleExpr(h, e, prefix, bind, rename) }
	mn := func(n heap.PStr) heap.PStr { return mangledName(h, n, prefix, rename) }

	switch n := s.(type) {
	case *mir.Not:
		return &mir.Not{Name: mn(n.Name), Operand: me(n.Operand)}
	case *mir.Binary:
		return &mir.Binary{Name: mn(n.Name), Operator: n.Operator, E1: me(n.E1), E2: me(n.E2)}
	case *mir.IndexedAccess:
		return &mir.IndexedAccess{Name: mn(n.Name), Type: n.Type, Pointer: me(n.Pointer), Index: n.Index}
	case *mir.Call:
		args := make([]mir.Expression, len(n.Arguments))
		for i, a := range n.Arguments {
			args[i] = me(a)
		}
		callee := n.Callee
		if vc, ok := callee.(mir.VariableCallee); ok {
			callee = mir.VariableCallee{VariableName: mir.VariableName{Name: mn(vc.Name), Type: vc.Type}}
		}
		collector := n.ReturnCollector
		if n.HasCollector {
			collector = mn(collector)
		}
		return &mir.Call{Callee: callee, Arguments: args, ReturnType: n.ReturnType, ReturnCollector: collector, HasCollector: n.HasCollector}
	case *mir.LateInitDeclaration:
		return &mir.LateInitDeclaration{Name: mn(n.Name), Type: n.Type}
	case *mir.LateInitAssignment:
		return &mir.LateInitAssignment{Name: mn(n.Name), Assigned: me(n.Assigned)}
	case *mir.StructInit:
		args := make([]mir.Expression, len(n.ExpressionList))
		for i, a := range n.ExpressionList {
			args[i] = me(a)
		}
		return &mir.StructInit{StructVariableName: mn(n.StructVariableName), Type: n.Type, ExpressionList: args}
	case *mir.ClosureInit:
		return &mir.ClosureInit{ClosureVariableName: mn(n.ClosureVariableName), ClosureType: n.ClosureType, FunctionName: n.FunctionName, Context: me(n.Context)}
	case *mir.Cast:
		return &mir.Cast{Name: mn(n.Name), Type: n.Type, Operand: me(n.Operand)}
	case *mir.IfElse:
		s1 := mangleStatements(h, n.S1, prefix, bind, rename)
		s2 := mangleStatements(h, n.S2, prefix, bind, rename)
		fas := make([]mir.IfElseFinalAssignment, len(n.FinalAssignments))
		for i, fa := range n.FinalAssignments {
			fas[i] = mir.IfElseFinalAssignment{Name: mn(fa.Name), Type: fa.Type, Branch1: me(fa.Branch1), Branch2: me(fa.Branch2)}
		}
		return &mir.IfElse{Condition: me(n.Condition), S1: s1, S2: s2, FinalAssignments: fas}
	case *mir.SingleIf:
		return &mir.SingleIf{Condition: me(n.Condition), Body: mangleStatements(h, n.Body, prefix, bind, rename)}
	case *mir.Break:
		return &mir.Break{BreakValue: me(n.BreakValue)}
	case *mir.While:
		lvs := make([]mir.GeneralLoopVariable, len(n.LoopVariables))
		for i, lv := range n.LoopVariables {
			lvs[i] = mir.GeneralLoopVariable{Name: mn(lv.Name), Type: lv.Type, InitialValue: me(lv.InitialValue), LoopValue: me(lv.LoopValue)}
		}
		var bc *mir.VariableName
		if n.BreakCollector != nil {
			bc = &mir.VariableName{Name: mn(n.BreakCollector.Name), Type: n.BreakCollector.Type}
		}
		return &mir.While{LoopVariables: lvs, Statements: mangleStatements(h, n.Statements, prefix, bind, rename), BreakCollector: bc}
	default:
		return s
	}
}
