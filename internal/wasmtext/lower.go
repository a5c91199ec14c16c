package wasmtext

import (
	"fmt"
	"sort"

	"github.com/samlang-wasm/samlang/internal/heap"
	"github.com/samlang-wasm/samlang/internal/lir"
)

// Lower flattens LIR Sources into a WASM text Module (spec §4.7): it builds
// the function-type table (keyed by arity), assigns addresses to every
// interned string referenced from any function body, gives every function a
// funcref-table slot (so ClosureInit/IndirectCall can address it), and
// translates each function's statement list into a flat instruction stream.
func Lower(h *heap.Heap, src *lir.Sources) *Module {
	l := &lowering{heap: h, strings: map[heap.PStr]int{}, nextAddr: GlobalDataBase, tableIndex: map[string]int{}}

	m := &Module{}
	for i, fn := range src.Functions {
		name := encodeFunctionName(h, fn.Name)
		m.FunctionTable = append(m.FunctionTable, name)
		l.tableIndex[name] = i
	}
	for _, name := range src.MainFunctionNames {
		m.ExportedNames = append(m.ExportedNames, encodeFunctionName(h, name))
	}

	paramCounts := map[int]bool{}
	for _, fn := range src.Functions {
		m.Functions = append(m.Functions, l.lowerFunction(fn))
		paramCounts[len(fn.Parameters)] = true
		if fn.Type != nil {
			paramCounts[len(fn.Type.Params)] = true
		}
	}
	var counts []int
	for c := range paramCounts {
		counts = append(counts, c)
	}
	sort.Ints(counts)
	for _, c := range counts {
		m.FunctionTypes = append(m.FunctionTypes, FunctionTypeParamCount{ParamCount: c})
	}

	var addrs []heap.PStr
	for s := range l.strings {
		addrs = append(addrs, s)
	}
	sort.Slice(addrs, func(i, j int) bool { return l.strings[addrs[i]] < l.strings[addrs[j]] })
	for _, s := range addrs {
		m.GlobalData = append(m.GlobalData, GlobalString{Address: l.strings[s], Content: h.Str(s)})
	}
	m.NeedsMalloc = l.needsMalloc
	m.HeapBase = alignUp(l.nextAddr, 8)
	return m
}

// GlobalDataBase is the first address handed out to a global string (spec
// §6, "Global strings in WASM data begin at byte 4096").
const GlobalDataBase = 4096

func alignUp(n, to int) int {
	if r := n % to; r != 0 {
		n += to - r
	}
	return n
}

type lowering struct {
	heap        *heap.Heap
	strings     map[heap.PStr]int
	nextAddr    int
	labelCount  int
	needsMalloc bool
	tableIndex  map[string]int
}

func (l *lowering) freshLabel(prefix string) LabelId {
	l.labelCount++
	return LabelId(fmt.Sprintf("$%s%d", prefix, l.labelCount))
}

// internString assigns s a static address on first use. Layout per spec
// §4.7: a 4-byte refcount (zero for constants), a 4-byte length, then the
// raw bytes, with the whole record padded up to a multiple of 8.
func (l *lowering) internString(s heap.PStr) int {
	if addr, ok := l.strings[s]; ok {
		return addr
	}
	addr := l.nextAddr
	l.strings[s] = addr
	size := 8 + len(l.heap.Str(s))
	l.nextAddr = addr + alignUp(size, 8)
	return addr
}

// encodeFunctionName renders a lir.FunctionName to a WASM symbol. The
// compiled program's designated entry point (a class literally named "Main"
// with a static function literally named "main") collapses to the short
// mangled form `__$main` (spec §8 S5); every other function mangles as
// `_<module>_<class>_<member>`.
func encodeFunctionName(h *heap.Heap, fn lir.FunctionName) string {
	className := h.Str(fn.TypeName.Name)
	memberName := h.Str(fn.FnName)
	if className == "Main" && memberName == "main" {
		return "__$main"
	}
	mod := ""
	if fn.TypeName.HasModule {
		mod = h.ModuleEncodedForm(fn.TypeName.ModuleRef)
	}
	return fmt.Sprintf("_%s_%s_%s", mod, className, memberName)
}

func (l *lowering) lowerFunction(fn *lir.Function) *Function {
	out := &Function{Name: encodeFunctionName(l.heap, fn.Name), ParamNames: fn.Parameters}
	locals := map[heap.PStr]bool{}
	for _, p := range fn.Parameters {
		locals[p] = true
	}
	var body []Instruction
	for _, s := range fn.Body {
		body = append(body, l.lowerStatement(s, locals)...)
	}
	body = append(body, l.evalExpr(fn.ReturnValue)...)

	var localNames []heap.PStr
	for _, p := range fn.Parameters {
		delete(locals, p)
	}
	for name := range locals {
		localNames = append(localNames, name)
	}
	sort.Slice(localNames, func(i, j int) bool { return localNames[i] < localNames[j] })
	out.Locals = localNames
	out.Body = body
	return out
}

func (l *lowering) declare(locals map[heap.PStr]bool, name heap.PStr) { locals[name] = true }

// evalExpr renders e as a sequence of inline instructions that leave exactly
// one i32 value on the stack.
func (l *lowering) evalExpr(e lir.Expression) []Instruction {
	switch n := e.(type) {
	case lir.IntLiteral:
		return []Instruction{Inline{Const{Value: n.Value}}}
	case lir.Int31Zero:
		return []Instruction{Inline{Const{Value: 1}}} // tag 0 -> 0*2+1
	case lir.StringName:
		addr := l.internString(n.Name)
		return []Instruction{Inline{Const{Value: int32(addr)}}}
	case lir.Variable:
		return []Instruction{Inline{LocalGet{Name: n.Name}}}
	default:
		return []Instruction{Inline{Const{Value: 0}}}
	}
}

func binOp(op lir.BinaryOperator) BinOp {
	switch op {
	case lir.Mul:
		return OpMul
	case lir.Div:
		return OpDivS
	case lir.Mod:
		return OpRemS
	case lir.Plus:
		return OpAdd
	case lir.Minus:
		return OpSub
	case lir.Land:
		return OpAnd
	case lir.Lor:
		return OpOr
	case lir.Shl:
		return OpShl
	case lir.Shr:
		return OpShrU
	case lir.Xor:
		return OpXor
	case lir.Lt:
		return OpLtS
	case lir.Le:
		return OpLeS
	case lir.Gt:
		return OpGtS
	case lir.Ge:
		return OpGeS
	case lir.Eq:
		return OpEq
	default:
		return OpNe
	}
}

func (l *lowering) lowerStatement(s lir.Statement, locals map[heap.PStr]bool) []Instruction {
	switch n := s.(type) {
	case *lir.Not:
		l.declare(locals, n.Name)
		instrs := l.evalExpr(n.Operand)
		instrs = append(instrs, Inline{Const{Value: 1}}, Inline{Binary{Op: OpXor}}, Inline{LocalSet{Name: n.Name}})
		return instrs

	case *lir.Binary:
		l.declare(locals, n.Name)
		instrs := l.evalExpr(n.E1)
		instrs = append(instrs, l.evalExpr(n.E2)...)
		instrs = append(instrs, Inline{Binary{Op: binOp(n.Operator)}}, Inline{LocalSet{Name: n.Name}})
		return instrs

	case *lir.IndexedAccess:
		l.declare(locals, n.Name)
		instrs := l.evalExpr(n.Pointer)
		instrs = append(instrs, Inline{Load{Offset: n.Index}}, Inline{LocalSet{Name: n.Name}})
		return instrs

	case *lir.IsPointer:
		l.declare(locals, n.Name)
		ge := append(l.evalExpr(n.Operand), Inline{Const{Value: lir.StaticDataBase}}, Inline{Binary{Op: OpGeS}})
		bit := append(l.evalExpr(n.Operand), Inline{Const{Value: 1}}, Inline{Binary{Op: OpAnd}}, Inline{Const{Value: 0}}, Inline{Binary{Op: OpEq}})
		instrs := append(ge, bit...)
		instrs = append(instrs, Inline{Binary{Op: OpAnd}}, Inline{LocalSet{Name: n.Name}})
		return instrs

	case *lir.Call:
		var instrs []Instruction
		switch callee := n.Callee.(type) {
		case lir.FunctionNameCallee:
			for _, a := range n.Arguments {
				instrs = append(instrs, l.evalExpr(a)...)
			}
			instrs = append(instrs, Inline{DirectCall{FunctionName: encodeFunctionName(l.heap, callee.Name)}})
		case lir.VariableCallee:
			ptr := lir.Variable{VariableName: callee.VariableName}
			instrs = append(instrs, l.evalExpr(ptr)...)
			instrs = append(instrs, Inline{Load{Offset: 1}}) // context, pushed as first argument
			for _, a := range n.Arguments {
				instrs = append(instrs, l.evalExpr(a)...)
			}
			instrs = append(instrs, l.evalExpr(ptr)...)
			instrs = append(instrs, Inline{Load{Offset: 0}}) // function index, consumed last by call_indirect
			instrs = append(instrs, Inline{IndirectCall{ArgCount: len(n.Arguments) + 1}})
		}
		if n.HasCollector {
			l.declare(locals, n.ReturnCollector)
			instrs = append(instrs, Inline{LocalSet{Name: n.ReturnCollector}})
		} else {
			instrs = append(instrs, Inline{Drop{}})
		}
		return instrs

	case *lir.LateInitDeclaration:
		l.declare(locals, n.Name)
		return nil

	case *lir.LateInitAssignment:
		instrs := l.evalExpr(n.Assigned)
		return append(instrs, Inline{LocalSet{Name: n.Name}})

	case *lir.StructInit:
		l.declare(locals, n.StructVariableName)
		l.needsMalloc = true
		size := int32(len(n.ExpressionList) * 4)
		instrs := []Instruction{
			Inline{Const{Value: size}},
			Inline{DirectCall{FunctionName: "$malloc"}},
			Inline{LocalSet{Name: n.StructVariableName}},
		}
		ptr := lir.Variable{VariableName: lir.VariableName{Name: n.StructVariableName, Type: lir.Int32Type}}
		for i, fieldExpr := range n.ExpressionList {
			instrs = append(instrs, l.evalExpr(ptr)...)
			instrs = append(instrs, l.evalExpr(fieldExpr)...)
			instrs = append(instrs, Inline{Store{Offset: i}})
		}
		return instrs

	case *lir.ClosureInit:
		l.declare(locals, n.ClosureVariableName)
		l.needsMalloc = true
		fnIndex := l.functionTableIndexPlaceholder(n.FunctionName.Name)
		instrs := []Instruction{
			Inline{Const{Value: 8}},
			Inline{DirectCall{FunctionName: "$malloc"}},
			Inline{LocalSet{Name: n.ClosureVariableName}},
		}
		ptr := lir.Variable{VariableName: lir.VariableName{Name: n.ClosureVariableName, Type: lir.Int32Type}}
		instrs = append(instrs, l.evalExpr(ptr)...)
		instrs = append(instrs, Inline{Const{Value: fnIndex}}, Inline{Store{Offset: 0}})
		instrs = append(instrs, l.evalExpr(ptr)...)
		instrs = append(instrs, l.evalExpr(n.Context)...)
		instrs = append(instrs, Inline{Store{Offset: 1}})
		return instrs

	case *lir.Cast:
		l.declare(locals, n.Name)
		instrs := l.evalExpr(n.Operand)
		return append(instrs, Inline{LocalSet{Name: n.Name}})

	case *lir.SingleIf:
		var body []Instruction
		for _, st := range n.Body {
			body = append(body, l.lowerStatement(st, locals)...)
		}
		return []Instruction{IfElse{Cond: l.evalExpr(n.Condition), Then: body}}

	case *lir.Break:
		// A bare Break outside a While's body is unreachable per spec §3.5
		// ("exits the nearest enclosing While"); lowerWhile always routes a
		// loop's own body through rewriteBreaks instead of this method.
		return nil

	case *lir.While:
		return l.lowerWhile(n, locals)

	case *lir.IfElse:
		l.declareFinal(locals, n.FinalAssignments)
		var then, els []Instruction
		for _, st := range n.S1 {
			then = append(then, l.lowerStatement(st, locals)...)
		}
		for _, fa := range n.FinalAssignments {
			then = append(then, l.evalExpr(fa.Branch1)...)
			then = append(then, Inline{LocalSet{Name: fa.Name}})
		}
		for _, st := range n.S2 {
			els = append(els, l.lowerStatement(st, locals)...)
		}
		for _, fa := range n.FinalAssignments {
			els = append(els, l.evalExpr(fa.Branch2)...)
			els = append(els, Inline{LocalSet{Name: fa.Name}})
		}
		return []Instruction{IfElse{Cond: l.evalExpr(n.Condition), Then: then, Else: els}}

	default:
		return nil
	}
}

func (l *lowering) declareFinal(locals map[heap.PStr]bool, fas []lir.IfElseFinalAssignment) {
	for _, fa := range fas {
		l.declare(locals, fa.Name)
	}
}

// functionTableIndexPlaceholder resolves a FunctionName to its funcref-table
// slot. The table is built in declaration order in Lower, so this mirrors
// that same order; a closure can only ever reference a function already
// known to the module (spec §4.3, "ClosureInit ... function_name").
func (l *lowering) functionTableIndexPlaceholder(name lir.FunctionName) int32 {
	// Lower fills tableIndex for every function before lowering any body,
	// so self- and forward-references both resolve; a name with no slot
	// yields -1.
	idx, ok := l.tableIndex[encodeFunctionName(l.heap, name)]
	if !ok {
		return -1
	}
	return int32(idx)
}

// lowerWhile compiles a While into a Loop wrapping its statements, preceded by the loop
// variables' initial-value assignment and trailed by their loop-value
// update plus a branch back to the continue label (spec §4.7).
func (l *lowering) lowerWhile(n *lir.While, locals map[heap.PStr]bool) []Instruction {
	cont := l.freshLabel("cont")
	exit := l.freshLabel("exit")

	var prefix []Instruction
	for _, lv := range n.LoopVariables {
		l.declare(locals, lv.Name)
		prefix = append(prefix, l.evalExpr(lv.InitialValue)...)
		prefix = append(prefix, Inline{LocalSet{Name: lv.Name}})
	}
	if n.BreakCollector != nil {
		l.declare(locals, n.BreakCollector.Name)
	}

	var body []Instruction
	for _, st := range n.Statements {
		body = append(body, l.rewriteBreaks(st, locals, exit, n.BreakCollector)...)
	}
	for _, lv := range n.LoopVariables {
		body = append(body, l.evalExpr(lv.LoopValue)...)
		body = append(body, Inline{LocalSet{Name: lv.Name}})
	}

	return append(prefix, Loop{ContinueLabel: cont, ExitLabel: exit, Body: body})
}

// rewriteBreaks is lowerStatement specialized for a While's body: a Break
// sets the collector (if any) and jumps to exitLabel, rather than the
// context-free placeholder lowerStatement emits in isolation.
func (l *lowering) rewriteBreaks(s lir.Statement, locals map[heap.PStr]bool, exitLabel LabelId, collector *lir.VariableName) []Instruction {
	switch n := s.(type) {
	case *lir.Break:
		var instrs []Instruction
		if collector != nil {
			instrs = append(instrs, l.evalExpr(n.BreakValue)...)
			instrs = append(instrs, Inline{LocalSet{Name: collector.Name}})
		}
		return append(instrs, UnconditionalJump{Label: exitLabel})
	case *lir.SingleIf:
		var body []Instruction
		for _, st := range n.Body {
			body = append(body, l.rewriteBreaks(st, locals, exitLabel, collector)...)
		}
		return []Instruction{IfElse{Cond: l.evalExpr(n.Condition), Then: body}}
	case *lir.IfElse:
		l.declareFinal(locals, n.FinalAssignments)
		var then, els []Instruction
		for _, st := range n.S1 {
			then = append(then, l.rewriteBreaks(st, locals, exitLabel, collector)...)
		}
		for _, fa := range n.FinalAssignments {
			then = append(then, l.evalExpr(fa.Branch1)...)
			then = append(then, Inline{LocalSet{Name: fa.Name}})
		}
		for _, st := range n.S2 {
			els = append(els, l.rewriteBreaks(st, locals, exitLabel, collector)...)
		}
		for _, fa := range n.FinalAssignments {
			els = append(els, l.evalExpr(fa.Branch2)...)
			els = append(els, Inline{LocalSet{Name: fa.Name}})
		}
		return []Instruction{IfElse{Cond: l.evalExpr(n.Condition), Then: then, Else: els}}
	default:
		return l.lowerStatement(s, locals)
	}
}
