package optimize

import (
	"github.com/samlang-wasm/samlang/internal/heap"
	"github.com/samlang-wasm/samlang/internal/mir"
)

// runUnusedElimination drops every function and type definition not
// reachable from the program's main function names, by a standard
// working-set closure over call/reference edges (spec §4.5.3). Type
// reachability is itself a closure: a kept type's own field/variant types,
// and a kept function's signature types, can name further types that must
// also survive.
func runUnusedElimination(h *heap.Heap, src *mir.Sources) (*mir.Sources, bool) {
	byName := make(map[string]*mir.Function, len(src.Functions))
	for _, fn := range src.Functions {
		byName[functionKey(fn.Name)] = fn
	}
	tdByName := make(map[string]*mir.TypeDefinition, len(src.TypeDefinitions))
	for _, td := range src.TypeDefinitions {
		tdByName[td.Name.EncodedForm(h)] = td
	}
	ctByName := make(map[string]*mir.ClosureTypeDefinition, len(src.ClosureTypes))
	for _, ct := range src.ClosureTypes {
		ctByName[ct.Name.EncodedForm(h)] = ct
	}

	reachedFns := map[string]bool{}
	var fnQueue []*mir.Function
	for _, main := range src.MainFunctionNames {
		if fn, ok := byName[functionKey(main)]; ok && !reachedFns[functionKey(main)] {
			reachedFns[functionKey(main)] = true
			fnQueue = append(fnQueue, fn)
		}
	}

	reachedTypes := map[string]bool{}
	var typeQueue []mir.TypeName
	markType := func(name mir.TypeName) {
		key := name.EncodedForm(h)
		if reachedTypes[key] {
			return
		}
		reachedTypes[key] = true
		typeQueue = append(typeQueue, name)
	}

	for len(fnQueue) > 0 {
		fn := fnQueue[0]
		fnQueue = fnQueue[1:]
		walkFunctionRefs(fn, func(name mir.FunctionName) {
			key := functionKey(name)
			if reachedFns[key] {
				return
			}
			if callee, ok := byName[key]; ok {
				reachedFns[key] = true
				fnQueue = append(fnQueue, callee)
			}
		})
		walkFunctionTypes(fn, markType)
		walkFunctionTypeSignature(fn, markType)
	}

	// Every type reached so far (from function bodies/signatures) may itself
	// reference further types through its own fields/variants or, for a
	// closure type, its function type — keep expanding until the frontier is
	// empty.
	for len(typeQueue) > 0 {
		name := typeQueue[0]
		typeQueue = typeQueue[1:]
		key := name.EncodedForm(h)
		if td, ok := tdByName[key]; ok {
			for _, f := range td.StructFields {
				walkTypeNames(f, markType)
			}
			for _, v := range td.EnumVariants {
				for _, f := range v.Fields {
					walkTypeNames(f, markType)
				}
			}
		}
		if ct, ok := ctByName[key]; ok && ct.FnType != nil {
			for _, p := range ct.FnType.Params {
				walkTypeNames(p, markType)
			}
			walkTypeNames(ct.FnType.Ret, markType)
		}
	}

	var keptFns []*mir.Function
	changed := false
	for _, fn := range src.Functions {
		if reachedFns[functionKey(fn.Name)] {
			keptFns = append(keptFns, fn)
		} else {
			changed = true
		}
	}

	var keptTypes []*mir.TypeDefinition
	for _, td := range src.TypeDefinitions {
		if reachedTypes[td.Name.EncodedForm(h)] {
			keptTypes = append(keptTypes, td)
		} else {
			changed = true
		}
	}

	var keptClosureTypes []*mir.ClosureTypeDefinition
	for _, ct := range src.ClosureTypes {
		if reachedTypes[ct.Name.EncodedForm(h)] {
			keptClosureTypes = append(keptClosureTypes, ct)
		} else {
			changed = true
		}
	}

	out := withFunctions(src, keptFns)
	out.TypeDefinitions = keptTypes
	out.ClosureTypes = keptClosureTypes
	return out, changed
}

// walkFunctionTypeSignature visits every TypeName mentioned in fn's own
// parameter/return types, the other place (besides a StructInit/ClosureInit
// site) a function can name a type definition.
func walkFunctionTypeSignature(fn *mir.Function, visit func(mir.TypeName)) {
	if fn.Type == nil {
		return
	}
	for _, p := range fn.Type.Params {
		walkTypeNames(p, visit)
	}
	walkTypeNames(fn.Type.Ret, visit)
}

// walkTypeNames visits every TypeName reachable from t: its own name, if
// it's a nominal Id, plus every name reachable from its type arguments.
func walkTypeNames(t mir.Type, visit func(mir.TypeName)) {
	id, ok := t.(*mir.TypeId)
	if !ok {
		return
	}
	visit(id.Name)
	for _, arg := range id.TypeArgs {
		walkTypeNames(arg, visit)
	}
}

// walkFunctionRefs visits every FunctionName referenced anywhere in fn's
// body or return value: direct calls, closure captures of a function
// pointer, and (defensively) any future statement kind that names a
// function.
func walkFunctionRefs(fn *mir.Function, visit func(mir.FunctionName)) {
	walkStatements(fn.Body, func(s mir.Statement) {
		switch n := s.(type) {
		case *mir.Call:
			if c, ok := n.Callee.(mir.FunctionNameCallee); ok {
				visit(c.Name)
			}
		case *mir.ClosureInit:
			visit(n.FunctionName.Name)
		}
	})
}

// walkFunctionTypes visits every TypeName mentioned by a function's
// StructInit/ClosureInit sites, the sole places MIR names a type
// definition directly.
func walkFunctionTypes(fn *mir.Function, visit func(mir.TypeName)) {
	walkStatements(fn.Body, func(s mir.Statement) {
		switch n := s.(type) {
		case *mir.StructInit:
			if n.Type != nil {
				visit(n.Type.Name)
			}
		case *mir.ClosureInit:
			if n.ClosureType != nil {
				visit(n.ClosureType.Name)
			}
		}
	})
}

// walkStatements calls visit on every statement transitively nested inside
// stmts (including IfElse/SingleIf/While bodies), depth-first.
func walkStatements(stmts []mir.Statement, visit func(mir.Statement)) {
	for _, s := range stmts {
		visit(s)
		switch n := s.(type) {
		case *mir.IfElse:
			walkStatements(n.S1, visit)
			walkStatements(n.S2, visit)
		case *mir.SingleIf:
			walkStatements(n.Body, visit)
		case *mir.While:
			walkStatements(n.Statements, visit)
		}
	}
}
