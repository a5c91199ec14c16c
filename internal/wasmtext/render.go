package wasmtext

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/samlang-wasm/samlang/internal/heap"
)

// Render pretty-prints m as a single WASM text module (spec §4.7, §6 "a
// single __all__.wasm text module").
func Render(m *Module) string {
	var b strings.Builder
	b.WriteString("(module\n")
	for _, ft := range m.FunctionTypes {
		b.WriteString("  " + renderFunctionType(ft) + "\n")
	}
	if len(m.FunctionTable) > 0 {
		b.WriteString("  " + renderTable(m.FunctionTable) + "\n")
	}
	if m.NeedsMalloc {
		b.WriteString(renderMalloc(m.HeapBase))
	}
	for _, g := range m.GlobalData {
		b.WriteString("  " + renderGlobalString(g) + "\n")
	}
	for _, fn := range m.Functions {
		b.WriteString("  " + renderFunction(fn) + "\n")
	}
	for _, name := range m.ExportedNames {
		b.WriteString(fmt.Sprintf("  (export %q (func $%s))\n", name, name))
	}
	b.WriteString(")\n")
	return b.String()
}

func renderFunctionType(ft FunctionTypeParamCount) string {
	if ft.ParamCount == 0 {
		return fmt.Sprintf("(type %s (func (result i32)))", ft.Name())
	}
	params := strings.Repeat("i32 ", ft.ParamCount)
	params = strings.TrimSuffix(params, " ")
	return fmt.Sprintf("(type %s (func (param %s) (result i32)))", ft.Name(), params)
}

func renderTable(fns []string) string {
	var elems strings.Builder
	for _, name := range fns {
		elems.WriteString(" $" + name)
	}
	return fmt.Sprintf("(table $0 %d funcref) (elem $0 (i32.const 0)%s)", len(fns), elems.String())
}

// renderMalloc emits the trivial bump allocator spec §5 assumes exists: a
// mutable global tracking the next free address, and a function that
// returns the current value and advances it by the requested (8-byte
// rounded) size.
func renderMalloc(heapBase int) string {
	return fmt.Sprintf(`  (global $heap_ptr (mut i32) (i32.const %d))
  (func $malloc (param $size i32) (result i32)
    (local $ptr i32)
    (local.set $ptr (global.get $heap_ptr))
    (global.set $heap_ptr
      (i32.add (global.get $heap_ptr)
        (i32.mul (i32.div_s (i32.add (local.get $size) (i32.const 7)) (i32.const 8)) (i32.const 8))))
    (local.get $ptr))
`, heapBase)
}

func renderGlobalString(g GlobalString) string {
	data := make([]byte, 8+len(g.Content))
	// 4-byte refcount (zero for a compile-time constant), 4-byte length,
	// then the raw bytes (spec §6).
	putLE32(data[0:4], 0)
	putLE32(data[4:8], uint32(len(g.Content)))
	copy(data[8:], g.Content)
	return fmt.Sprintf("(data (i32.const %d) %s)", g.Address, quoteBytes(data))
}

func putLE32(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}

func quoteBytes(data []byte) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, c := range data {
		if c >= 0x20 && c < 0x7f && c != '"' && c != '\\' {
			b.WriteByte(c)
		} else {
			fmt.Fprintf(&b, "\\%02x", c)
		}
	}
	b.WriteByte('"')
	return b.String()
}

func renderFunction(fn *Function) string {
	var b strings.Builder
	b.WriteString("(func $" + fn.Name)
	for _, p := range fn.ParamNames {
		b.WriteString(fmt.Sprintf(" (param $%s i32)", localName(p)))
	}
	b.WriteString(" (result i32)")
	for _, l := range fn.Locals {
		b.WriteString(fmt.Sprintf(" (local $%s i32)", localName(l)))
	}
	for _, instr := range fn.Body {
		b.WriteString(" ")
		b.WriteString(renderInstr(instr))
	}
	b.WriteString(")")
	return b.String()
}

func localName(p heap.PStr) string { return "v" + strconv.Itoa(int(p)) }

func renderInstr(i Instruction) string {
	switch n := i.(type) {
	case Inline:
		return renderInline(n.I)
	case IfElse:
		var cond strings.Builder
		for _, c := range n.Cond {
			cond.WriteString(renderInstr(c) + " ")
		}
		then := renderInstrs(n.Then)
		if len(n.Else) == 0 {
			return fmt.Sprintf("(if %s(then %s))", cond.String(), then)
		}
		return fmt.Sprintf("(if %s(then %s) (else %s))", cond.String(), then, renderInstrs(n.Else))
	case UnconditionalJump:
		return fmt.Sprintf("(br %s)", n.Label)
	case Loop:
		return fmt.Sprintf("(loop %s (block %s %s (br %s)))", n.ContinueLabel, n.ExitLabel, renderInstrs(n.Body), n.ContinueLabel)
	default:
		return ""
	}
}

func renderInstrs(instrs []Instruction) string {
	parts := make([]string, len(instrs))
	for i, in := range instrs {
		parts[i] = renderInstr(in)
	}
	return strings.Join(parts, " ")
}

func renderInline(i InlineInstruction) string {
	switch n := i.(type) {
	case Const:
		return fmt.Sprintf("(i32.const %d)", n.Value)
	case Drop:
		return "(drop)"
	case LocalGet:
		return fmt.Sprintf("(local.get $%s)", localName(n.Name))
	case LocalSet:
		return fmt.Sprintf("(local.set $%s)", localName(n.Name))
	case Binary:
		return fmt.Sprintf("(i32.%s)", binOpName(n.Op))
	case Load:
		return fmt.Sprintf("(i32.load offset=%d)", n.Offset*4)
	case Store:
		return fmt.Sprintf("(i32.store offset=%d)", n.Offset*4)
	case DirectCall:
		return fmt.Sprintf("(call $%s)", n.FunctionName)
	case IndirectCall:
		return fmt.Sprintf("(call_indirect (type %s))", FunctionTypeParamCount{ParamCount: n.ArgCount}.Name())
	default:
		return ""
	}
}

func binOpName(op BinOp) string {
	switch op {
	case OpAdd:
		return "add"
	case OpSub:
		return "sub"
	case OpMul:
		return "mul"
	case OpDivS:
		return "div_s"
	case OpRemS:
		return "rem_s"
	case OpAnd:
		return "and"
	case OpOr:
		return "or"
	case OpXor:
		return "xor"
	case OpShl:
		return "shl"
	case OpShrU:
		return "shr_u"
	case OpLtS:
		return "lt_s"
	case OpLeS:
		return "le_s"
	case OpGtS:
		return "gt_s"
	case OpGeS:
		return "ge_s"
	case OpEq:
		return "eq"
	default:
		return "ne"
	}
}
