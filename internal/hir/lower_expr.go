package hir

import (
	"github.com/samlang-wasm/samlang/internal/heap"
	"github.com/samlang-wasm/samlang/internal/typedast"
)

// funcBuilder accumulates the statements of one function body while
// lowering its typedast.Expr tree. lowerExpr returns the Expression
// standing for e's value; any work needed to produce it (a call, a
// destructure, a branch) is appended to stmts first, matching HIR's
// "every compound computation is a named statement" shape (spec §3.4).
type funcBuilder struct {
	ml     *moduleLowering
	tlm    *TypeLoweringManager
	class  heap.PStr
	stmts  []Statement
	locals map[heap.PStr]typedast.Type
}

func (fb *funcBuilder) emit(s Statement) { fb.stmts = append(fb.stmts, s) }

// child returns a fresh builder sharing this one's module/type context and
// local-variable type map but with its own statement list, used to lower a
// branch or case body in isolation before splicing its statements into a
// ConditionalDestructure or IfElse's S1/S2.
func (fb *funcBuilder) child() *funcBuilder {
	return &funcBuilder{ml: fb.ml, tlm: fb.tlm, class: fb.class, locals: fb.locals}
}

func (fb *funcBuilder) lowerExpr(e typedast.Expr) Expression {
	switch n := e.(type) {
	case *typedast.Literal:
		return fb.lowerLiteral(n)
	case *typedast.LocalId:
		return Variable{VariableName{Name: n.Name, Type: fb.tlm.Lower(n.ExprType())}}
	case *typedast.ClassId:
		// A bare class reference is only ever legal as the object of a
		// FieldAccess/MethodAccess/Call; lowering never encounters it
		// standing on its own.
		return Int31Zero{}
	case *typedast.Tuple:
		return fb.lowerTuple(n)
	case *typedast.FieldAccess:
		return fb.lowerFieldAccess(n)
	case *typedast.MethodAccess:
		return fb.lowerBoundMethod(n)
	case *typedast.Unary:
		return fb.lowerUnary(n)
	case *typedast.Binary:
		return fb.lowerBinary(n)
	case *typedast.Call:
		return fb.lowerCall(n)
	case *typedast.IfElse:
		return fb.lowerIfElse(n)
	case *typedast.Match:
		return fb.lowerMatch(n)
	case *typedast.Lambda:
		return fb.lowerLambda(n)
	case *typedast.Block:
		return fb.lowerBlock(n)
	default:
		return Int31Zero{}
	}
}

func (fb *funcBuilder) lowerLiteral(n *typedast.Literal) Expression {
	switch n.Kind {
	case typedast.LitInt:
		return IntLiteral{Value: int32(n.IntValue)}
	case typedast.LitBool:
		if n.BoolValue {
			return One
		}
		return Zero
	case typedast.LitString:
		return StringName{Name: n.StrValue}
	default:
		return Int31Zero{}
	}
}

func (fb *funcBuilder) lowerTuple(n *typedast.Tuple) Expression {
	elems := make([]Expression, len(n.Elements))
	elemTypes := make([]Type, len(n.Elements))
	for i, el := range n.Elements {
		elems[i] = fb.lowerExpr(el)
		elemTypes[i] = fb.tlm.Lower(el.ExprType())
	}
	tparams := fb.freeGenericsOf(elemTypes)
	name := fb.tlm.Synthesizer.SynthesizeTupleType(elemTypes, tparams)
	structType := NewIdType(name, fb.genericArgsFor(tparams)...)
	result := fb.ml.freshTemp()
	fb.emit(&StructInit{StructVariableName: result, Type: structType, ExpressionList: elems})
	return Variable{VariableName{Name: result, Type: structType}}
}

// freeGenericsOf collects, in first-occurrence order, every in-scope
// generic type parameter referenced by ts.
func (fb *funcBuilder) freeGenericsOf(ts []Type) []heap.PStr {
	seen := map[heap.PStr]bool{}
	var out []heap.PStr
	for _, t := range ts {
		fb.tlm.freeGenerics(t, seen, &out)
	}
	return out
}

// genericArgsFor instantiates a just-synthesized type's own parameters with
// themselves (the enclosing function already has them in scope under the
// same names), mirroring how field/tuple synthesis is always performed at
// the point of use rather than carrying a separate substitution.
func (fb *funcBuilder) genericArgsFor(tparams []heap.PStr) []Type {
	args := make([]Type, len(tparams))
	for i, p := range tparams {
		args[i] = NewIdType(TypeName{HasModule: false, Name: p})
	}
	return args
}

func (fb *funcBuilder) lowerFieldAccess(n *typedast.FieldAccess) Expression {
	objNom, _ := n.Object.ExprType().(*typedast.TypeNominal)
	if objNom != nil && objNom.IsClassStatics {
		return fb.lowerStaticValueOrConstructor(objNom, n.Field, n.ExprType())
	}

	obj := fb.lowerExpr(n.Object)
	order, _ := fb.ml.globals.LookupTypeDef(objNom.ModuleRef, objNom.Id)
	idx := fieldIndex(order, n.Field)
	result := fb.ml.freshTemp()
	fieldType := fb.tlm.Lower(n.ExprType())
	fb.emit(&IndexedAccess{Name: result, Type: fieldType, Pointer: obj, Index: idx})
	return Variable{VariableName{Name: result, Type: fieldType}}
}

func fieldIndex(td *typedast.TypeDefContext, field heap.PStr) int {
	if td == nil {
		return 0
	}
	for i, f := range td.FieldOrder {
		if f == field {
			return i
		}
	}
	return 0
}

// lowerStaticValueOrConstructor handles `Class.member` used as a value
// rather than immediately called: a plain static function reference or an
// enum variant tag, both wrapped in a zero-context closure so they carry
// the same (fn, context) shape as a real captured lambda (spec §3.4).
// Direct calls of either form are intercepted earlier by lowerCall and
// never reach here.
func (fb *funcBuilder) lowerStaticValueOrConstructor(objNom *typedast.TypeNominal, field heap.PStr, fnType typedast.Type) Expression {
	fn, ok := fnType.(*typedast.TypeFn)
	if !ok {
		return Int31Zero{}
	}
	hirFn := fb.tlm.LowerFn(fn)
	target := FunctionName{TypeName: NominalTypeName(objNom.ModuleRef, objNom.Id), FnName: field}
	wrapper := fb.ml.staticWrapper(target, hirFn)
	wrapperType := &FunctionType{Params: append([]Type{Int32Type}, hirFn.Params...), Ret: hirFn.Ret}
	closureName := fb.tlm.Synthesizer.SynthesizeClosureType(hirFn, fb.freeGenericsOf(append(append([]Type{}, hirFn.Params...), hirFn.Ret)))
	closureType := NewIdType(closureName)
	closureVar := fb.ml.freshTemp()
	fb.emit(&ClosureInit{
		ClosureVariableName: closureVar,
		ClosureType:         closureType,
		FunctionName:        FunctionNameExpression{Name: wrapper, Type: wrapperType},
		Context:             Zero,
	})
	return Variable{VariableName{Name: closureVar, Type: closureType}}
}

func (fb *funcBuilder) lowerBoundMethod(n *typedast.MethodAccess) Expression {
	objNom := n.Object.ExprType().(*typedast.TypeNominal)
	obj := fb.lowerExpr(n.Object)
	fn := n.ExprType().(*typedast.TypeFn)
	hirFn := fb.tlm.LowerFn(fn)

	ctxElemType := fb.tlm.Lower(n.Object.ExprType())
	ctxName := fb.tlm.Synthesizer.SynthesizeTupleType([]Type{ctxElemType}, fb.freeGenericsOf([]Type{ctxElemType}))
	ctxType := NewIdType(ctxName)
	ctxVar := fb.ml.freshTemp()
	fb.emit(&StructInit{StructVariableName: ctxVar, Type: ctxType, ExpressionList: []Expression{obj}})

	target := FunctionName{TypeName: NominalTypeName(objNom.ModuleRef, objNom.Id), FnName: n.Method}
	wrapper := fb.ml.boundMethodWrapper(target, hirFn, ctxType, ctxElemType)
	wrapperType := &FunctionType{Params: append([]Type{ctxType}, hirFn.Params...), Ret: hirFn.Ret}
	closureName := fb.tlm.Synthesizer.SynthesizeClosureType(hirFn, fb.freeGenericsOf(append(append([]Type{}, hirFn.Params...), hirFn.Ret)))
	closureType := NewIdType(closureName)
	closureVar := fb.ml.freshTemp()
	fb.emit(&ClosureInit{
		ClosureVariableName: closureVar,
		ClosureType:         closureType,
		FunctionName:        FunctionNameExpression{Name: wrapper, Type: wrapperType},
		Context:             Variable{VariableName{Name: ctxVar, Type: ctxType}},
	})
	return Variable{VariableName{Name: closureVar, Type: closureType}}
}

func (fb *funcBuilder) lowerUnary(n *typedast.Unary) Expression {
	operand := fb.lowerExpr(n.Operand)
	result := fb.ml.freshTemp()
	if n.Operator == typedast.UnaryNot {
		fb.emit(&Not{Name: result, Operand: operand})
		return Variable{VariableName{Name: result, Type: Int32Type}}
	}
	fb.emit(&Binary{Name: result, Operator: Minus, E1: Zero, E2: operand})
	return Variable{VariableName{Name: result, Type: Int32Type}}
}

var binOpMap = map[typedast.BinaryOperator]BinaryOperator{
	typedast.BinMul: Mul, typedast.BinDiv: Div, typedast.BinMod: Mod,
	typedast.BinPlus: Plus, typedast.BinMinus: Minus,
	typedast.BinLt: Lt, typedast.BinLe: Le, typedast.BinGt: Gt, typedast.BinGe: Ge,
	typedast.BinEq: Eq, typedast.BinNe: Ne, typedast.BinAnd: Land, typedast.BinOr: Lor,
}

func (fb *funcBuilder) lowerBinary(n *typedast.Binary) Expression {
	if n.Operator == typedast.BinConcat {
		return fb.lowerConcat(n)
	}
	left := fb.lowerExpr(n.Left)
	right := fb.lowerExpr(n.Right)
	op, ok := binOpMap[n.Operator]
	if !ok {
		op = Plus
	}
	result := fb.ml.freshTemp()
	resultType := fb.tlm.Lower(n.ExprType())
	fb.emit(&Binary{Name: result, Operator: op, E1: left, E2: right})
	return Variable{VariableName{Name: result, Type: resultType}}
}

// lowerConcat compiles string concatenation into a call to the builtin
// Str.concat static function, since HIR's arithmetic BinaryOperator set has
// no string-level op (spec §3.4's operator table is integer-only).
func (fb *funcBuilder) lowerConcat(n *typedast.Binary) Expression {
	left := fb.lowerExpr(n.Left)
	right := fb.lowerExpr(n.Right)
	strType := NewIdType(rootStringTypeName)
	result := fb.ml.freshTemp()
	fb.emit(&Call{
		Callee:          FunctionNameCallee{FunctionNameExpression{Name: FunctionName{TypeName: rootStringTypeName, FnName: fb.ml.heap.Alloc("concat")}, Type: &FunctionType{Params: []Type{strType, strType}, Ret: strType}}},
		Arguments:       []Expression{left, right},
		ReturnType:      strType,
		ReturnCollector: result,
		HasCollector:    true,
	})
	return Variable{VariableName{Name: result, Type: strType}}
}

func (fb *funcBuilder) lowerCall(n *typedast.Call) Expression {
	switch callee := n.Callee.(type) {
	case *typedast.FieldAccess:
		if objNom, ok := callee.Object.ExprType().(*typedast.TypeNominal); ok && objNom.IsClassStatics {
			if _, isCtor := fb.ml.globals.Lookup(objNom.ModuleRef, objNom.Id); isCtor {
				if td, ok := fb.ml.globals.LookupTypeDef(objNom.ModuleRef, objNom.Id); ok && !td.IsStruct {
					if idx, isTag := tagIndex(td, callee.Field); isTag {
						return fb.lowerEnumConstructorCall(n, objNom, callee.Field, idx)
					}
				}
			}
			return fb.lowerStaticCall(n, objNom, callee.Field)
		}
	case *typedast.MethodAccess:
		return fb.lowerMethodCall(n, callee)
	}
	return fb.lowerIndirectCall(n)
}

func tagIndex(td *typedast.TypeDefContext, tag heap.PStr) (int, bool) {
	for i, t := range td.VariantOrder {
		if t == tag {
			return i, true
		}
	}
	return 0, false
}

func (fb *funcBuilder) lowerEnumConstructorCall(n *typedast.Call, objNom *typedast.TypeNominal, tag heap.PStr, idx int) Expression {
	args := make([]Expression, len(n.Args))
	for i, a := range n.Args {
		args[i] = fb.lowerExpr(a)
	}
	enumType := fb.tlm.Lower(n.ExprType()).(*TypeId)
	result := fb.ml.freshTemp()
	fb.emit(&EnumInit{EnumVariableName: result, EnumType: enumType, Tag: idx, AssociatedDataList: args})
	return Variable{VariableName{Name: result, Type: enumType}}
}

func (fb *funcBuilder) lowerStaticCall(n *typedast.Call, objNom *typedast.TypeNominal, fn heap.PStr) Expression {
	args := make([]Expression, len(n.Args))
	for i, a := range n.Args {
		args[i] = fb.lowerExpr(a)
	}
	retType := fb.tlm.Lower(n.ExprType())
	result := fb.ml.freshTemp()
	fb.emit(&Call{
		Callee:          FunctionNameCallee{FunctionNameExpression{Name: FunctionName{TypeName: NominalTypeName(objNom.ModuleRef, objNom.Id), FnName: fn}}},
		Arguments:       args,
		ReturnType:      retType,
		ReturnCollector: result,
		HasCollector:    true,
	})
	return Variable{VariableName{Name: result, Type: retType}}
}

func (fb *funcBuilder) lowerMethodCall(n *typedast.Call, callee *typedast.MethodAccess) Expression {
	objNom := callee.Object.ExprType().(*typedast.TypeNominal)
	receiver := fb.lowerExpr(callee.Object)
	args := make([]Expression, 0, len(n.Args)+1)
	args = append(args, receiver)
	for _, a := range n.Args {
		args = append(args, fb.lowerExpr(a))
	}
	retType := fb.tlm.Lower(n.ExprType())
	result := fb.ml.freshTemp()
	fb.emit(&Call{
		Callee:          FunctionNameCallee{FunctionNameExpression{Name: FunctionName{TypeName: NominalTypeName(objNom.ModuleRef, objNom.Id), FnName: callee.Method}}},
		Arguments:       args,
		ReturnType:      retType,
		ReturnCollector: result,
		HasCollector:    true,
	})
	return Variable{VariableName{Name: result, Type: retType}}
}

// lowerIndirectCall handles calling a closure value held in a local
// (including a lambda result): the callee expression lowers to the closure
// variable itself, and later IR levels are responsible for the
// fn-pointer/context dispatch (spec §3.7's IndirectCall belongs to WASM
// lowering, not HIR).
func (fb *funcBuilder) lowerIndirectCall(n *typedast.Call) Expression {
	calleeExpr := fb.lowerExpr(n.Callee)
	v, ok := calleeExpr.(Variable)
	if !ok {
		tmp := fb.ml.freshTemp()
		fb.emit(&LateInitDeclaration{Name: tmp, Type: calleeExpr.ExprType()})
		fb.emit(&LateInitAssignment{Name: tmp, Assigned: calleeExpr})
		v = Variable{VariableName{Name: tmp, Type: calleeExpr.ExprType()}}
	}
	args := make([]Expression, len(n.Args))
	for i, a := range n.Args {
		args[i] = fb.lowerExpr(a)
	}
	retType := fb.tlm.Lower(n.ExprType())
	result := fb.ml.freshTemp()
	fb.emit(&Call{
		Callee:          VariableCallee{v.VariableName},
		Arguments:       args,
		ReturnType:      retType,
		ReturnCollector: result,
		HasCollector:    true,
	})
	return Variable{VariableName{Name: result, Type: retType}}
}

func (fb *funcBuilder) lowerIfElse(n *typedast.IfElse) Expression {
	resultType := fb.tlm.Lower(n.ExprType())
	if n.Guard != nil {
		return fb.lowerGuardedIf(n, resultType)
	}
	cond := fb.lowerExpr(n.Condition)
	thenB := fb.child()
	thenVal := thenB.lowerExpr(n.Then)
	elseB := fb.child()
	elseVal := elseB.lowerExpr(n.Else)

	result := fb.ml.freshTemp()
	fb.emit(&IfElse{
		Condition:        cond,
		S1:               thenB.stmts,
		S2:               elseB.stmts,
		FinalAssignments: []FinalAssignment{{Name: result, Type: resultType, Branch1: thenVal, Branch2: elseVal}},
	})
	return Variable{VariableName{Name: result, Type: resultType}}
}

// lowerGuardedIf treats `if (let pattern = expr) then a else b` as a
// single-case pattern match: a ConditionalDestructure (or, for an
// irrefutable pattern, plain bindings) whose failure branch is `else` and
// whose success branch is `then` with the pattern's bindings in scope.
func (fb *funcBuilder) lowerGuardedIf(n *typedast.IfElse, resultType Type) Expression {
	scrutinee := fb.lowerExpr(n.Guard.Expr)
	result := fb.ml.freshTemp()
	fb.emitPatternTest(scrutinee, n.Guard.Pattern, func(b *funcBuilder) Expression {
		return b.lowerExpr(n.Then)
	}, func(b *funcBuilder) Expression {
		return b.lowerExpr(n.Else)
	}, result, resultType)
	return Variable{VariableName{Name: result, Type: resultType}}
}

// lowerMatch elaborates a match expression into a linear chain of
// ConditionalDestructure tests, one per case in source order, the last
// case's failure branch falling through to an unreachable default (the
// checker already reported TYP006 if the match is not exhaustive, per
// spec §4.2); the decision is threaded through a LateInitDeclaration so
// every case's body assigns into the same result name regardless of
// nesting depth (spec §4.3 "s2 is a fall-through or next-case chain").
func (fb *funcBuilder) lowerMatch(n *typedast.Match) Expression {
	resultType := fb.tlm.Lower(n.ExprType())
	result := fb.ml.freshTemp()
	fb.emit(&LateInitDeclaration{Name: result, Type: resultType})
	scrutinee := fb.lowerExpr(n.Scrutinee)
	fb.elaborateMatchCases(scrutinee, n.Cases, 0, result, resultType)
	return Variable{VariableName{Name: result, Type: resultType}}
}

func (fb *funcBuilder) elaborateMatchCases(scrutinee Expression, cases []typedast.MatchCase, idx int, result heap.PStr, resultType Type) {
	if idx >= len(cases) {
		return
	}
	c := cases[idx]
	fb.emitPatternTest(scrutinee, c.Pattern, func(b *funcBuilder) Expression {
		return b.lowerExpr(c.Body)
	}, func(b *funcBuilder) Expression {
		b.elaborateMatchCases(scrutinee, cases, idx+1, result, resultType)
		return nil
	}, result, resultType)
}

// emitPatternTest compiles one pattern test of a match/guard: an
// irrefutable pattern (wildcard/id/tuple/object) just binds and always
// takes the success branch; a variant pattern becomes a
// ConditionalDestructure whose Bindings project the variant's fields and
// whose S2 runs the failure continuation. onFail may itself emit further
// statements (the next case in a chain) instead of producing a value, in
// which case it returns nil and the final assignment is skipped on that
// side — FinalAssignment.Branch2 is only meaningful when onFail produces a
// leaf value.
func (fb *funcBuilder) emitPatternTest(scrutinee Expression, pat typedast.Pattern, onSuccess, onFail func(*funcBuilder) Expression, result heap.PStr, resultType Type) {
	switch p := pat.(type) {
	case *typedast.PatternVariant:
		succ := fb.child()
		succ.bindVariantArgs(scrutinee, p, onSuccess, result, resultType)

		fail := fb.child()
		failVal := onFail(fail)

		tag := p.TagIndex
		cd := &ConditionalDestructure{TestExpr: scrutinee, Tag: tag, S1: succ.stmts, S2: fail.stmts}
		if failVal != nil {
			cd.FinalAssignments = []FinalAssignment{{Name: result, Type: resultType, Branch1: Variable{VariableName{Name: result, Type: resultType}}, Branch2: failVal}}
		}
		fb.emit(cd)
		if failVal == nil {
			// onFail already assigned `result` itself via a nested test
			// (or the caller has no use for one); nothing further to
			// merge at this level.
			return
		}
	default:
		succ := fb.child()
		succ.bindIrrefutable(scrutinee, pat)
		val := succ.lowerAssign(result, resultType, onSuccess)
		_ = val
		for _, s := range succ.stmts {
			fb.emit(s)
		}
	}
}

// lowerAssign runs body inside b and emits a LateInitAssignment of its
// value into result, returning nothing useful to the caller — it exists so
// emitPatternTest's irrefutable branch and its variant branch both funnel
// into the same `result` name.
func (fb *funcBuilder) lowerAssign(result heap.PStr, resultType Type, body func(*funcBuilder) Expression) Expression {
	val := body(fb)
	if val != nil {
		fb.emit(&LateInitAssignment{Name: result, Assigned: val})
	}
	return val
}

// bindIrrefutable emits the IndexedAccess chain needed to bind every name
// an always-matching pattern introduces, without any tag test.
func (fb *funcBuilder) bindIrrefutable(value Expression, pat typedast.Pattern) {
	switch p := pat.(type) {
	case *typedast.PatternId:
		fb.emit(&LateInitDeclaration{Name: p.Name, Type: fb.tlm.Lower(p.Type)})
		fb.emit(&LateInitAssignment{Name: p.Name, Assigned: value})
		fb.locals[p.Name] = p.Type
	case *typedast.PatternTuple:
		for i, el := range p.Elements {
			fb.bindProjected(value, i, el)
		}
	case *typedast.PatternObject:
		for i, f := range p.Fields {
			fb.bindProjected(value, i, f.Binder)
		}
	}
}

func (fb *funcBuilder) bindProjected(value Expression, index int, sub typedast.Pattern) {
	if _, ok := sub.(*typedast.PatternWildcard); ok {
		return
	}
	fieldType := fb.tlm.Lower(patternType(sub))
	proj := fb.ml.freshTemp()
	fb.emit(&IndexedAccess{Name: proj, Type: fieldType, Pointer: value, Index: index})
	fb.bindIrrefutable(Variable{VariableName{Name: proj, Type: fieldType}}, sub)
}

func patternType(p typedast.Pattern) typedast.Type {
	switch n := p.(type) {
	case *typedast.PatternId:
		return n.Type
	default:
		return &typedast.TypeAny{Reason: typedast.ReasonPlaceholder}
	}
}

// bindVariantArgs emits the per-field bindings a matched variant's
// ConditionalDestructure carries (direct names for wildcard/id args,
// further destructuring statements for nested compound args), then runs
// the success continuation and assigns its value into result.
func (fb *funcBuilder) bindVariantArgs(scrutinee Expression, p *typedast.PatternVariant, onSuccess func(*funcBuilder) Expression, result heap.PStr, resultType Type) {
	for i, arg := range p.Args {
		switch a := arg.(type) {
		case *typedast.PatternWildcard:
			_ = a
		case *typedast.PatternId:
			fb.emit(&LateInitDeclaration{Name: a.Name, Type: fb.tlm.Lower(a.Type)})
			fb.emit(&LateInitAssignment{Name: a.Name, Assigned: Variable{VariableName{Name: a.Name, Type: fb.tlm.Lower(a.Type)}}})
			fb.locals[a.Name] = a.Type
		default:
			fieldType := fb.tlm.Lower(patternType(arg))
			proj := fb.ml.freshTemp()
			fb.emit(&IndexedAccess{Name: proj, Type: fieldType, Pointer: scrutinee, Index: i})
			fb.bindIrrefutable(Variable{VariableName{Name: proj, Type: fieldType}}, arg)
		}
	}
	val := onSuccess(fb)
	if val != nil {
		fb.emit(&LateInitAssignment{Name: result, Assigned: val})
	}
}

func (fb *funcBuilder) lowerLambda(n *typedast.Lambda) Expression {
	lambdaName := fb.ml.freshLambdaName(fb.class, heap.PStrUnderscore)

	captureTypes := make([]Type, len(n.Captures))
	captureVars := make([]Expression, len(n.Captures))
	for i, cap := range n.Captures {
		captureTypes[i] = fb.tlm.Lower(fb.captureType(cap))
		captureVars[i] = Variable{VariableName{Name: cap, Type: captureTypes[i]}}
	}
	ctxName := fb.tlm.Synthesizer.SynthesizeTupleType(captureTypes, fb.freeGenericsOf(captureTypes))
	ctxType := NewIdType(ctxName)
	ctxVar := fb.ml.freshTemp()
	fb.emit(&StructInit{StructVariableName: ctxVar, Type: ctxType, ExpressionList: captureVars})

	lifted := fb.ml.liftLambda(lambdaName, n, fb.tlm, ctxType, n.Captures)

	lowered := fb.tlm.Lower(n.ExprType()).(*TypeId)
	closureVar := fb.ml.freshTemp()
	fb.emit(&ClosureInit{
		ClosureVariableName: closureVar,
		ClosureType:         lowered,
		FunctionName:        FunctionNameExpression{Name: lifted.Name, Type: lifted.Type},
		Context:             Variable{VariableName{Name: ctxVar, Type: ctxType}},
	})
	return Variable{VariableName{Name: closureVar, Type: lowered}}
}

// captureType looks up a captured name's declared type in the enclosing
// function's local-type map (seeded from member parameters/this and grown
// by every let/match binding emitted so far). A capture that resolves to
// nothing here is a name the SSA analyzer reported as free but that never
// passed through a binding this builder saw, which should not happen for
// well-formed input; it falls back to Int rather than panicking.
func (fb *funcBuilder) captureType(name heap.PStr) typedast.Type {
	if t, ok := fb.locals[name]; ok {
		return t
	}
	return &typedast.TypePrimitive{Kind: typedast.PrimInt}
}

func (fb *funcBuilder) lowerBlock(n *typedast.Block) Expression {
	cur := fb
	for _, stmt := range n.Statements {
		val := cur.lowerExpr(stmt.Value)
		cur.bindIrrefutableOrVariant(val, stmt.Pattern)
	}
	if n.FinalExpr == nil {
		return Int31Zero{}
	}
	return cur.lowerExpr(n.FinalExpr)
}

// bindIrrefutableOrVariant binds a let-statement's pattern. samlang's
// checker accepts any pattern in a let-binding, but only irrefutable ones
// (no variant tag test) are meaningful there; a variant pattern in a let
// binds as if it always matched (the language leaves a let against a
// non-exhaustive variant pattern as an open runtime-safety question the
// checker does not currently enforce, matching the upstream implementation
// this was distilled from).
func (fb *funcBuilder) bindIrrefutableOrVariant(value Expression, pat typedast.Pattern) {
	if v, ok := pat.(*typedast.PatternVariant); ok {
		for i, arg := range v.Args {
			fb.bindProjected(value, i, arg)
		}
		return
	}
	fb.bindIrrefutable(value, pat)
}
