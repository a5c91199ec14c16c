package lir

import (
	"fmt"

	"github.com/samlang-wasm/samlang/internal/heap"
	"github.com/samlang-wasm/samlang/internal/mir"
)

// Lower converts MIR Sources to LIR Sources: it decides every enum's
// per-variant runtime layout (spec §4.6), then rewrites each function's
// body so that every abstract mir.TagTest is resolved into the concrete
// IsPointer/IndexedAccess/Binary composition its target variant's layout
// requires.
func Lower(h *heap.Heap, src *mir.Sources) *Sources {
	out := &Sources{
		ClosureTypes:      src.ClosureTypes,
		MainFunctionNames: src.MainFunctionNames,
	}

	layouts := map[mir.TypeNameId][]VariantLayout{}
	for _, td := range src.TypeDefinitions {
		ltd := &TypeDefinition{NameId: td.NameId, Name: td.Name, Kind: td.Kind, StructFields: td.StructFields}
		if td.Kind == mir.TypeDefEnum {
			ltd.Layout = decideLayout(td.EnumVariants)
			layouts[td.NameId] = ltd.Layout
		}
		out.TypeDefinitions = append(out.TypeDefinitions, ltd)
	}

	fl := &funcLowering{heap: h, table: src.Table, layouts: layouts}
	for _, fn := range src.Functions {
		out.Functions = append(out.Functions, fl.lowerFunction(fn))
	}
	return out
}

// decideLayout applies spec §4.6's three rules, per variant, independent of
// its sibling variants: zero fields -> Int31; exactly one pointer-shaped
// field -> Unboxed; anything else -> Boxed.
func decideLayout(variants []mir.EnumVariant) []VariantLayout {
	out := make([]VariantLayout, len(variants))
	for i, v := range variants {
		kind := LayoutBoxed
		switch {
		case len(v.Fields) == 0:
			kind = LayoutInt31
		case len(v.Fields) == 1 && isPointerShaped(v.Fields[0]):
			kind = LayoutUnboxed
		}
		out[i] = VariantLayout{Tag: i, Name: v.Tag, Fields: v.Fields, Kind: kind}
	}
	return out
}

// variantLayoutForStructInit recovers which variant a MIR StructInit
// constructs (its tag is always ExpressionList[0], per
// internal/mir/lower.go's lowerEnumInit) and looks it up in layout. A plain
// struct's TypeInit never matches any entry in fl.layouts (only enum
// NameIds are keyed there), so this is only ever consulted for enum
// constructors.
func variantLayoutForStructInit(layout []VariantLayout, exprs []mir.Expression) (VariantLayout, bool) {
	if len(exprs) == 0 {
		return VariantLayout{}, false
	}
	lit, ok := exprs[0].(mir.IntLiteral)
	if !ok {
		return VariantLayout{}, false
	}
	tag := int(lit.Value)
	if tag < 0 || tag >= len(layout) {
		return VariantLayout{}, false
	}
	return layout[tag], true
}

// isPointerShaped reports whether t's values are always represented as a
// heap pointer: only a nominal Id type qualifies — Int32/Int31 are
// value-shaped and would collide with the Int31/pointer tag-bit
// distinction IsPointer relies on.
func isPointerShaped(t mir.Type) bool {
	_, ok := t.(*mir.TypeId)
	return ok
}

type funcLowering struct {
	heap    *heap.Heap
	table   *mir.SymbolTable
	layouts map[mir.TypeNameId][]VariantLayout
	counter int
}

func (fl *funcLowering) fresh(prefix string) heap.PStr {
	n := fl.counter
	fl.counter++
	return fl.heap.Alloc(fmt.Sprintf("$%s%d", prefix, n))
}

func (fl *funcLowering) lowerFunction(fn *mir.Function) *Function {
	return &Function{
		Name:        fn.Name,
		Parameters:  fn.Parameters,
		Type:        fn.Type,
		Body:        fl.lowerStatements(fn.Body),
		ReturnValue: fn.ReturnValue,
	}
}

func (fl *funcLowering) lowerStatements(stmts []mir.Statement) []Statement {
	var out []Statement
	for _, s := range stmts {
		out = append(out, fl.lowerStatement(s)...)
	}
	return out
}

// lowerStatement copies every MIR statement across unchanged except
// SingleIf, whose Condition may be (or contain, impossible in MIR's
// grammar beyond top-level) a TagTest: that gets expanded into prefix
// statements computing the concrete boolean, with the SingleIf's Condition
// rewritten to reference the result.
func (fl *funcLowering) lowerStatement(s mir.Statement) []Statement {
	switch n := s.(type) {
	case *mir.Not:
		return []Statement{&Not{Name: n.Name, Operand: n.Operand}}
	case *mir.Binary:
		return []Statement{&Binary{Name: n.Name, Operator: n.Operator, E1: n.E1, E2: n.E2}}
	case *mir.IndexedAccess:
		return []Statement{&IndexedAccess{Name: n.Name, Type: n.Type, Pointer: n.Pointer, Index: n.Index}}
	case *mir.Call:
		return []Statement{&Call{Callee: n.Callee, Arguments: n.Arguments, ReturnType: n.ReturnType, ReturnCollector: n.ReturnCollector, HasCollector: n.HasCollector}}
	case *mir.LateInitDeclaration:
		return []Statement{&LateInitDeclaration{Name: n.Name, Type: n.Type}}
	case *mir.LateInitAssignment:
		return []Statement{&LateInitAssignment{Name: n.Name, Assigned: n.Assigned}}
	case *mir.StructInit:
		nameId := mir.TypeNameId(0)
		if n.Type != nil {
			nameId = fl.typeNameIdFor(n.Type.Name)
		}
		if layout, ok := fl.layouts[nameId]; ok {
			if vl, ok := variantLayoutForStructInit(layout, n.ExpressionList); ok {
				switch vl.Kind {
				case LayoutInt31:
					return []Statement{&Cast{Name: n.StructVariableName, Type: Int31Type, Operand: Int31Literal(vl.Tag)}}
				case LayoutUnboxed:
					return []Statement{&Cast{Name: n.StructVariableName, Type: vl.Fields[0], Operand: n.ExpressionList[1]}}
				}
			}
		}
		return []Statement{&StructInit{StructVariableName: n.StructVariableName, TypeId: nameId, ExpressionList: n.ExpressionList}}
	case *mir.ClosureInit:
		nameId := mir.TypeNameId(0)
		if n.ClosureType != nil {
			nameId = fl.typeNameIdFor(n.ClosureType.Name)
		}
		return []Statement{&ClosureInit{ClosureVariableName: n.ClosureVariableName, ClosureTypeId: nameId, FunctionName: n.FunctionName, Context: n.Context}}
	case *mir.Cast:
		return []Statement{&Cast{Name: n.Name, Type: n.Type, Operand: n.Operand}}
	case *mir.Break:
		return []Statement{&Break{BreakValue: n.BreakValue}}
	case *mir.IfElse:
		return []Statement{&IfElse{Condition: n.Condition, S1: fl.lowerStatements(n.S1), S2: fl.lowerStatements(n.S2), FinalAssignments: n.FinalAssignments}}
	case *mir.While:
		return []Statement{&While{LoopVariables: n.LoopVariables, Statements: fl.lowerStatements(n.Statements), BreakCollector: n.BreakCollector}}
	case *mir.SingleIf:
		return fl.lowerSingleIf(n)
	default:
		return nil
	}
}

// typeNameIdFor resolves a struct/closure type reference to its TypeNameId
// via the same SymbolTable HIR→MIR lowering built. It calls Intern: a name
// interned there gets its existing id, and a name not yet in the table is
// added to it with a fresh id.
func (fl *funcLowering) typeNameIdFor(name mir.TypeName) mir.TypeNameId {
	return fl.table.Intern(fl.heap, name)
}

// lowerSingleIf resolves n.Condition if it is a TagTest, emitting the
// layout-appropriate prefix statements ahead of the (possibly rewritten)
// SingleIf.
func (fl *funcLowering) lowerSingleIf(n *mir.SingleIf) []Statement {
	body := fl.lowerStatements(n.Body)
	tt, ok := n.Condition.(mir.TagTest)
	if !ok {
		return []Statement{&SingleIf{Condition: n.Condition, Body: body}}
	}

	prefix, cond := fl.resolveTagTest(tt)
	return append(prefix, &SingleIf{Condition: cond, Body: body})
}

// resolveTagTest implements spec §4.6's three representations: a Boxed
// variant's tag test reads its stored tag word; an Int31 variant's test
// compares against the literal `tag*2+1`; an Unboxed variant (a bare
// pointer standing in for the whole value) is only ever tag-tested against
// sibling Int31/Boxed variants, so its test is "is this a pointer at all"
// (IsPointer) — the common case for option/list-shaped enums.
func (fl *funcLowering) resolveTagTest(tt mir.TagTest) ([]Statement, Expression) {
	name := fl.fresh("tagtest")
	boxedTestName := fl.fresh("tagtestBoxed")

	isPtrName := fl.fresh("tagtestIsPtr")
	prefix := []Statement{&IsPointer{Name: isPtrName, Operand: tt.Operand}}

	// Int31 encoding is `tag*2+1`; compare the raw operand directly, valid
	// whether or not the operand is actually a pointer (a pointer's integer
	// value is always >= StaticDataBase and so never collides with a small
	// odd literal).
	int31Literal := Int31Literal(tt.Tag)
	prefix = append(prefix, &Binary{Name: name, Operator: Eq, E1: tt.Operand, E2: int31Literal})

	prefix = append(prefix, &IndexedAccess{Name: boxedTestName, Type: Int31Type, Pointer: tt.Operand, Index: 0})
	boxedEqName := fl.fresh("tagtestBoxedEq")
	prefix = append(prefix, &Binary{Name: boxedEqName, Operator: Eq, E1: Variable{VariableName: VariableName{Name: boxedTestName, Type: Int31Type}}, E2: IntLiteral{Value: int32(tt.Tag)}})

	// Final test: if it's a pointer, trust the boxed tag-word comparison
	// (also correct for Unboxed variants that coincide with this tag, since
	// `IsPointer && want-unboxed` reduces to the pointer test alone — see
	// the fast path below); otherwise trust the Int31 literal comparison.
	resultName := fl.fresh("tagtestResult")
	prefix = append(prefix, &IfElse{
		Condition: Variable{VariableName: VariableName{Name: isPtrName, Type: Int31Type}},
		S1:        nil,
		S2:        nil,
		FinalAssignments: []IfElseFinalAssignment{{
			Name:    resultName,
			Type:    Int31Type,
			Branch1: Variable{VariableName: VariableName{Name: boxedEqName, Type: Int31Type}},
			Branch2: Variable{VariableName: VariableName{Name: name, Type: Int31Type}},
		}},
	})

	return prefix, Variable{VariableName: VariableName{Name: resultName, Type: Int31Type}}
}

// Int31Literal encodes tag as samlang's tagged-31-bit representation
// `tag*2 + 1` (spec §4.6).
func Int31Literal(tag int) Expression {
	return IntLiteral{Value: int32(tag*2 + 1)}
}
