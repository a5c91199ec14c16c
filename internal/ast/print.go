package ast

import (
	"encoding/json"
	"fmt"

	"github.com/samlang-wasm/samlang/internal/heap"
)

// Printer renders AST nodes to a deterministic JSON shape used for golden
// snapshot tests. Positions are dropped so that pretty-print round trips
// are only required to preserve free names, type structure, and
// control-flow topology (spec testable property #1), not formatting.
type Printer struct {
	Heap *heap.Heap
}

func (p *Printer) name(s heap.PStr) string { return p.Heap.Str(s) }

// PrintModule renders a whole module.
func (p *Printer) PrintModule(m *Module) string {
	data, err := json.MarshalIndent(p.simplifyModule(m), "", "  ")
	if err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	return string(data)
}

// PrintExpr renders a single expression.
func (p *Printer) PrintExpr(e Expr) string {
	data, err := json.MarshalIndent(p.expr(e), "", "  ")
	if err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	return string(data)
}

func (p *Printer) simplifyModule(m *Module) map[string]any {
	tops := make([]any, 0, len(m.Toplevels))
	for _, t := range m.Toplevels {
		tops = append(tops, p.toplevel(t))
	}
	return map[string]any{"type": "Module", "toplevels": tops}
}

func (p *Printer) toplevel(t *Toplevel) map[string]any {
	members := make([]any, 0, len(t.Members))
	for _, mem := range t.Members {
		members = append(members, p.member(mem))
	}
	kind := "class"
	if t.IsInterface {
		kind = "interface"
	}
	m := map[string]any{
		"type":    kind,
		"name":    p.name(t.Name),
		"members": members,
	}
	if t.TypeDefinition != nil {
		m["typeDefinition"] = p.typeDef(t.TypeDefinition)
	}
	return m
}

func (p *Printer) typeDef(td *TypeDefinition) map[string]any {
	switch td.Kind {
	case TypeDefStruct:
		fields := make([]any, 0, len(td.Fields))
		for _, f := range td.Fields {
			fields = append(fields, map[string]any{"name": p.name(f.Name), "type": p.typ(f.Type)})
		}
		return map[string]any{"kind": "struct", "fields": fields}
	default:
		variants := make([]any, 0, len(td.Variants))
		for _, v := range td.Variants {
			fs := make([]any, 0, len(v.Fields))
			for _, f := range v.Fields {
				fs = append(fs, p.typ(f))
			}
			variants = append(variants, map[string]any{"tag": p.name(v.Tag), "fields": fs})
		}
		return map[string]any{"kind": "enum", "variants": variants}
	}
}

func (p *Printer) member(m MemberDefinition) map[string]any {
	params := make([]any, 0, len(m.Parameters))
	for _, prm := range m.Parameters {
		params = append(params, map[string]any{"name": p.name(prm.Name), "type": p.typ(prm.Type)})
	}
	out := map[string]any{
		"name":     p.name(m.Name),
		"isMethod": m.IsMethod,
		"params":   params,
		"ret":      p.typ(m.ReturnType),
	}
	if m.Body != nil {
		out["body"] = p.expr(m.Body)
	}
	return out
}

func (p *Printer) typ(t Type) any {
	if t == nil {
		return nil
	}
	switch n := t.(type) {
	case *TypePrimitive:
		return map[string]any{"type": "primitive", "kind": n.Kind.String()}
	case *TypeGeneric:
		return map[string]any{"type": "generic", "name": p.name(n.Name)}
	case *TypeId:
		args := make([]any, 0, len(n.TypeArgs))
		for _, a := range n.TypeArgs {
			args = append(args, p.typ(a))
		}
		return map[string]any{"type": "id", "name": p.name(n.Name), "args": args}
	case *TypeFn:
		params := make([]any, 0, len(n.Params))
		for _, prm := range n.Params {
			params = append(params, p.typ(prm))
		}
		return map[string]any{"type": "fn", "params": params, "ret": p.typ(n.Ret)}
	default:
		return nil
	}
}

func (p *Printer) expr(e Expr) any {
	if e == nil {
		return nil
	}
	switch n := e.(type) {
	case *Literal:
		switch n.Kind {
		case LitInt:
			return map[string]any{"type": "int", "value": n.IntValue}
		case LitString:
			return map[string]any{"type": "string", "value": p.name(n.StrValue)}
		case LitBool:
			return map[string]any{"type": "bool", "value": n.BoolValue}
		default:
			return map[string]any{"type": "unit"}
		}
	case *LocalId:
		return map[string]any{"type": "var", "name": p.name(n.Name)}
	case *ClassId:
		return map[string]any{"type": "classId", "name": p.name(n.Name)}
	case *Tuple:
		els := make([]any, 0, len(n.Elements))
		for _, el := range n.Elements {
			els = append(els, p.expr(el))
		}
		return map[string]any{"type": "tuple", "elements": els}
	case *FieldAccess:
		return map[string]any{"type": "field", "object": p.expr(n.Object), "field": p.name(n.Field)}
	case *MethodAccess:
		return map[string]any{"type": "methodRef", "object": p.expr(n.Object), "method": p.name(n.Method)}
	case *Unary:
		return map[string]any{"type": "unary", "op": int(n.Operator), "operand": p.expr(n.Operand)}
	case *Binary:
		return map[string]any{"type": "binary", "op": int(n.Operator), "left": p.expr(n.Left), "right": p.expr(n.Right)}
	case *Call:
		args := make([]any, 0, len(n.Args))
		for _, a := range n.Args {
			args = append(args, p.expr(a))
		}
		return map[string]any{"type": "call", "callee": p.expr(n.Callee), "args": args}
	case *IfElse:
		m := map[string]any{"type": "if", "then": p.expr(n.Then), "else": p.expr(n.Else)}
		if n.Guard != nil {
			m["guard"] = p.pattern(n.Guard.Pattern)
			m["guardExpr"] = p.expr(n.Guard.Expr)
		} else {
			m["cond"] = p.expr(n.Condition)
		}
		return m
	case *Match:
		cases := make([]any, 0, len(n.Cases))
		for _, c := range n.Cases {
			cases = append(cases, map[string]any{"pattern": p.pattern(c.Pattern), "body": p.expr(c.Body)})
		}
		return map[string]any{"type": "match", "scrutinee": p.expr(n.Scrutinee), "cases": cases}
	case *Lambda:
		params := make([]any, 0, len(n.Parameters))
		for _, prm := range n.Parameters {
			params = append(params, p.name(prm.Name))
		}
		return map[string]any{"type": "lambda", "params": params, "body": p.expr(n.Body)}
	case *Block:
		stmts := make([]any, 0, len(n.Statements))
		for _, s := range n.Statements {
			stmts = append(stmts, map[string]any{"pattern": p.pattern(s.Pattern), "value": p.expr(s.Value)})
		}
		m := map[string]any{"type": "block", "statements": stmts}
		if n.FinalExpr != nil {
			m["final"] = p.expr(n.FinalExpr)
		}
		return m
	default:
		return nil
	}
}

func (p *Printer) pattern(pat Pattern) any {
	if pat == nil {
		return nil
	}
	switch n := pat.(type) {
	case *PatternWildcard:
		return map[string]any{"type": "wildcard"}
	case *PatternId:
		return map[string]any{"type": "id", "name": p.name(n.Name)}
	case *PatternTuple:
		els := make([]any, 0, len(n.Elements))
		for _, el := range n.Elements {
			els = append(els, p.pattern(el))
		}
		return map[string]any{"type": "tuple", "elements": els}
	case *PatternObject:
		fields := make([]any, 0, len(n.Fields))
		for _, f := range n.Fields {
			fields = append(fields, map[string]any{"field": p.name(f.FieldName), "binder": p.pattern(f.Binder)})
		}
		return map[string]any{"type": "object", "fields": fields}
	case *PatternVariant:
		args := make([]any, 0, len(n.Args))
		for _, a := range n.Args {
			args = append(args, p.pattern(a))
		}
		return map[string]any{"type": "variant", "tag": p.name(n.Tag), "args": args}
	default:
		return nil
	}
}
