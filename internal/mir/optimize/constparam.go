package optimize

import (
	"github.com/samlang-wasm/samlang/internal/heap"
	"github.com/samlang-wasm/samlang/internal/mir"
)

// paramState is the per-parameter abstract lattice of spec §4.5.5:
// Unused ⊑ IntConstant(k)|StrConstant(p) ⊑ Unoptimizable. The two constant
// kinds are incomparable to each other — meeting an IntConstant with a
// StrConstant (which cannot happen for a well-typed parameter, but the
// lattice must still define it) goes straight to Unoptimizable.
type paramStateKind int

const (
	stateUnused paramStateKind = iota
	stateIntConstant
	stateStrConstant
	stateUnoptimizable
)

type paramState struct {
	kind  paramStateKind
	ival  int32
	sname heap.PStr
}

func (a paramState) meet(b paramState) paramState {
	if a.kind == stateUnused {
		return b
	}
	if b.kind == stateUnused {
		return a
	}
	if a.kind == stateUnoptimizable || b.kind == stateUnoptimizable {
		return paramState{kind: stateUnoptimizable}
	}
	if a.kind != b.kind {
		return paramState{kind: stateUnoptimizable}
	}
	switch a.kind {
	case stateIntConstant:
		if a.ival == b.ival {
			return a
		}
	case stateStrConstant:
		if a.sname == b.sname {
			return a
		}
	}
	return paramState{kind: stateUnoptimizable}
}

func argState(e mir.Expression) paramState {
	switch n := e.(type) {
	case mir.IntLiteral:
		return paramState{kind: stateIntConstant, ival: n.Value}
	case mir.Int31Zero:
		return paramState{kind: stateIntConstant, ival: 0}
	case mir.StringName:
		return paramState{kind: stateStrConstant, sname: n.Name}
	default:
		return paramState{kind: stateUnoptimizable}
	}
}

// runConstantParam removes every function parameter whose value is the
// same constant (or string) at every call site, substituting the literal
// into the body and dropping the argument at each call site, per spec
// §4.5.5.
func runConstantParam(h *heap.Heap, src *mir.Sources) (*mir.Sources, bool) {
	byName := make(map[string]*mir.Function, len(src.Functions))
	for _, fn := range src.Functions {
		byName[functionKey(fn.Name)] = fn
	}

	states := make(map[string][]paramState, len(src.Functions))
	for _, fn := range src.Functions {
		s := make([]paramState, len(fn.Parameters))
		for i := range s {
			s[i] = paramState{kind: stateUnused}
		}
		states[functionKey(fn.Name)] = s
	}

	for _, fn := range src.Functions {
		self := functionKey(fn.Name)
		walkCalls(fn.Body, func(call *mir.Call) {
			fc, ok := call.Callee.(mir.FunctionNameCallee)
			if !ok {
				return
			}
			key := functionKey(fc.Name)
			target, ok := byName[key]
			if !ok {
				return
			}
			st := states[key]
			isSelfCall := key == self
			for i, arg := range call.Arguments {
				if i >= len(st) {
					break
				}
				if isSelfCall && i < len(target.Parameters) {
					if v, ok := arg.(mir.Variable); ok && v.Name == target.Parameters[i] {
						// Passed through unchanged on recursion: ignore this
						// call site for this parameter (spec §4.5.5).
						continue
					}
				}
				st[i] = st[i].meet(argState(arg))
			}
		})
	}

	toLiteral := func(s paramState) (mir.Expression, bool) {
		switch s.kind {
		case stateIntConstant:
			return mir.IntLiteral{Value: s.ival}, true
		case stateStrConstant:
			return mir.StringName{Name: s.sname}, true
		default:
			return nil, false
		}
	}

	dropped := make(map[string]map[int]mir.Expression)
	for key, st := range states {
		for i, s := range st {
			if lit, ok := toLiteral(s); ok {
				if dropped[key] == nil {
					dropped[key] = map[int]mir.Expression{}
				}
				dropped[key][i] = lit
			}
		}
	}
	if len(dropped) == 0 {
		return src, false
	}

	var fns []*mir.Function
	for _, fn := range src.Functions {
		key := functionKey(fn.Name)
		drop := dropped[key]
		if len(drop) == 0 {
			fns = append(fns, fn)
			continue
		}
		bind := map[heap.PStr]mir.Expression{}
		var params []heap.PStr
		for i, p := range fn.Parameters {
			if lit, ok := drop[i]; ok {
				bind[p] = lit
				continue
			}
			params = append(params, p)
		}
		body := substituteStatements(fn.Body, bind)
		ret := substituteExpr(fn.ReturnValue, bind)
		out := *fn
		out.Parameters = params
		out.Body = body
		out.ReturnValue = ret
		fns = append(fns, &out)
	}

	for i, fn := range fns {
		body, _ := rewriteCallSites(fn.Body, dropped)
		out := *fn
		out.Body = body
		fns[i] = &out
	}

	return withFunctions(src, fns), true
}

func walkCalls(stmts []mir.Statement, visit func(*mir.Call)) {
	walkStatements(stmts, func(s mir.Statement) {
		if c, ok := s.(*mir.Call); ok {
			visit(c)
		}
	})
}

func substituteExpr(e mir.Expression, bind map[heap.PStr]mir.Expression) mir.Expression {
	if v, ok := e.(mir.Variable); ok {
		if lit, ok := bind[v.Name]; ok {
			return lit
		}
	}
	return e
}

func substituteStatements(stmts []mir.Statement, bind map[heap.PStr]mir.Expression) []mir.Statement {
	out := make([]mir.Statement, len(stmts))
	for i, s := range stmts {
		out[i] = substituteStatement(s, bind)
	}
	return out
}

func substituteStatement(s mir.Statement, bind map[heap.PStr]mir.Expression) mir.Statement {
	se := func(e mir.Expression) mir.Expression { return substituteExpr(e, bind) }
	switch n := s.(type) {
	case *mir.Not:
		return &mir.Not{Name: n.Name, Operand: se(n.Operand)}
	case *mir.Binary:
		return &mir.Binary{Name: n.Name, Operator: n.Operator, E1: se(n.E1), E2: se(n.E2)}
	case *mir.IndexedAccess:
		return &mir.IndexedAccess{Name: n.Name, Type: n.Type, Pointer: se(n.Pointer), Index: n.Index}
	case *mir.Call:
		args := make([]mir.Expression, len(n.Arguments))
		for i, a := range n.Arguments {
			args[i] = se(a)
		}
		return &mir.Call{Callee: n.Callee, Arguments: args, ReturnType: n.ReturnType, ReturnCollector: n.ReturnCollector, HasCollector: n.HasCollector}
	case *mir.LateInitDeclaration:
		return n
	case *mir.LateInitAssignment:
		return &mir.LateInitAssignment{Name: n.Name, Assigned: se(n.Assigned)}
	case *mir.StructInit:
		args := make([]mir.Expression, len(n.ExpressionList))
		for i, a := range n.ExpressionList {
			args[i] = se(a)
		}
		return &mir.StructInit{StructVariableName: n.StructVariableName, Type: n.Type, ExpressionList: args}
	case *mir.ClosureInit:
		return &mir.ClosureInit{ClosureVariableName: n.ClosureVariableName, ClosureType: n.ClosureType, FunctionName: n.FunctionName, Context: se(n.Context)}
	case *mir.Cast:
		return &mir.Cast{Name: n.Name, Type: n.Type, Operand: se(n.Operand)}
	case *mir.IfElse:
		fas := make([]mir.IfElseFinalAssignment, len(n.FinalAssignments))
		for i, fa := range n.FinalAssignments {
			fas[i] = mir.IfElseFinalAssignment{Name: fa.Name, Type: fa.Type, Branch1: se(fa.Branch1), Branch2: se(fa.Branch2)}
		}
		return &mir.IfElse{Condition: se(n.Condition), S1: substituteStatements(n.S1, bind), S2: substituteStatements(n.S2, bind), FinalAssignments: fas}
	case *mir.SingleIf:
		return &mir.SingleIf{Condition: se(n.Condition), Body: substituteStatements(n.Body, bind)}
	case *mir.Break:
		return &mir.Break{BreakValue: se(n.BreakValue)}
	case *mir.While:
		lvs := make([]mir.GeneralLoopVariable, len(n.LoopVariables))
		for i, lv := range n.LoopVariables {
			lvs[i] = mir.GeneralLoopVariable{Name: lv.Name, Type: lv.Type, InitialValue: se(lv.InitialValue), LoopValue: se(lv.LoopValue)}
		}
		return &mir.While{LoopVariables: lvs, Statements: substituteStatements(n.Statements, bind), BreakCollector: n.BreakCollector}
	default:
		return s
	}
}

// rewriteCallSites drops the arguments corresponding to eliminated
// parameters at every call site, per the dropped map built in
// runConstantParam.
func rewriteCallSites(stmts []mir.Statement, dropped map[string]map[int]mir.Expression) ([]mir.Statement, bool) {
	changed := false
	out := make([]mir.Statement, len(stmts))
	for i, s := range stmts {
		out[i], changed = rewriteCallSitesStatement(s, dropped, changed)
	}
	return out, changed
}

func rewriteCallSitesStatement(s mir.Statement, dropped map[string]map[int]mir.Expression, changed bool) (mir.Statement, bool) {
	switch n := s.(type) {
	case *mir.Call:
		fc, ok := n.Callee.(mir.FunctionNameCallee)
		if !ok {
			return s, changed
		}
		drop := dropped[functionKey(fc.Name)]
		if len(drop) == 0 {
			return s, changed
		}
		var args []mir.Expression
		for i, a := range n.Arguments {
			if _, ok := drop[i]; ok {
				continue
			}
			args = append(args, a)
		}
		return &mir.Call{Callee: n.Callee, Arguments: args, ReturnType: n.ReturnType, ReturnCollector: n.ReturnCollector, HasCollector: n.HasCollector}, true
	case *mir.IfElse:
		s1, c1 := rewriteCallSites(n.S1, dropped)
		s2, c2 := rewriteCallSites(n.S2, dropped)
		return &mir.IfElse{Condition: n.Condition, S1: s1, S2: s2, FinalAssignments: n.FinalAssignments}, changed || c1 || c2
	case *mir.SingleIf:
		body, ch := rewriteCallSites(n.Body, dropped)
		return &mir.SingleIf{Condition: n.Condition, Body: body}, changed || ch
	case *mir.While:
		body, ch := rewriteCallSites(n.Statements, dropped)
		return &mir.While{LoopVariables: n.LoopVariables, Statements: body, BreakCollector: n.BreakCollector}, changed || ch
	default:
		return s, changed
	}
}
