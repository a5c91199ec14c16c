package checker

import (
	"github.com/samlang-wasm/samlang/internal/ast"
	"github.com/samlang-wasm/samlang/internal/errors"
	"github.com/samlang-wasm/samlang/internal/heap"
	"github.com/samlang-wasm/samlang/internal/iface"
	"github.com/samlang-wasm/samlang/internal/ssa"
	"github.com/samlang-wasm/samlang/internal/typedast"
)

// CheckModule type-checks every member body of a parsed module against the
// already-built global signatures, returning the fully checked module and
// the diagnostics collected along the way. Checking never aborts early: a
// member whose body fails to check still contributes a (possibly Any-typed)
// typedast.Member so later members keep being checked (spec §4.2, "a single
// ill-typed member does not stop the compiler from checking its siblings").
func CheckModule(h *heap.Heap, globals *typedast.GlobalSignatures, ssaResult *ssa.Result, mod *ast.Module) (*typedast.Module, *errors.Set) {
	errs := errors.NewSet()
	out := &typedast.Module{ModuleRef: mod.ModuleRef}

	for _, top := range mod.Toplevels {
		out.Toplevels = append(out.Toplevels, checkToplevel(h, globals, ssaResult, errs, mod.ModuleRef, top))
	}
	return out, errs
}

func checkToplevel(h *heap.Heap, globals *typedast.GlobalSignatures, ssaResult *ssa.Result, errs *errors.Set, mod heap.ModuleReference, top *ast.Toplevel) *typedast.Toplevel {
	tparams := make([]typedast.TypeParameterSig, 0, len(top.TypeParameters))
	scope := make([]TypeParamInScope, 0, len(top.TypeParameters))
	for _, tp := range top.TypeParameters {
		var bound *typedast.TypeNominal
		if tp.Bound != nil {
			bound = liftBound(tp.Bound)
		}
		tparams = append(tparams, typedast.TypeParameterSig{Name: tp.Name, Bound: bound})
		scope = append(scope, TypeParamInScope{Name: tp.Name, Bound: bound})
	}

	out := &typedast.Toplevel{
		IsInterface:    top.IsInterface,
		IsPrivate:      top.IsPrivate,
		Name:           top.Name,
		TypeParameters: tparams,
		Location:       top.Location,
	}
	if td, ok := globals.LookupTypeDef(mod, top.Name); ok {
		out.TypeDef = td
	}

	cx := NewContext(h, globals, ssaResult, errs, mod)
	cx.CurrentClass = top.Name
	cx = cx.withTypeParams(scope)

	for _, m := range top.Members {
		out.Members = append(out.Members, checkMember(cx, m))
	}
	return out
}

func checkMember(cx *Context, m ast.MemberDefinition) typedast.Member {
	mtparams := make([]typedast.TypeParameterSig, 0, len(m.TypeParameters))
	scope := append([]TypeParamInScope{}, cx.TypeParams...)
	for _, tp := range m.TypeParameters {
		var bound *typedast.TypeNominal
		if tp.Bound != nil {
			bound = liftBound(tp.Bound)
		}
		mtparams = append(mtparams, typedast.TypeParameterSig{Name: tp.Name, Bound: bound})
		scope = append(scope, TypeParamInScope{Name: tp.Name, Bound: bound})
	}
	mcx := cx.withTypeParams(scope)

	params := make([]typedast.Param, len(m.Parameters))
	for i, p := range m.Parameters {
		params[i] = typedast.Param{Name: p.Name, Type: iface.LiftType(p.Type)}
	}
	retType := iface.LiftType(m.ReturnType)

	names := make([]heap.PStr, 0, len(params)+1)
	types := make([]typedast.Type, 0, len(params)+1)
	if m.IsMethod {
		thisArgs := make([]typedast.Type, len(cx.TypeParams))
		for i, tp := range cx.TypeParams {
			thisArgs[i] = &typedast.TypeGeneric{Name: tp.Name}
		}
		names = append(names, heap.PStrThis)
		types = append(types, &typedast.TypeNominal{ModuleRef: cx.CurrentModule, Id: cx.CurrentClass, TypeArgs: thisArgs})
	}
	for _, p := range params {
		names = append(names, p.Name)
		types = append(types, p.Type)
	}
	withParams := mcx.withLocalBindings(names, types)

	out := typedast.Member{
		IsPublic:       m.IsPublic,
		IsMethod:       m.IsMethod,
		Name:           m.Name,
		TypeParameters: mtparams,
		Parameters:     params,
		ReturnType:     retType,
		Location:       m.Location,
	}
	if m.Body != nil {
		out.Body = withParams.CheckExpr(m.Body, retType)
	}
	return out
}

func liftBound(t *ast.TypeId) *typedast.TypeNominal {
	if t == nil {
		return nil
	}
	if nom, ok := iface.LiftType(t).(*typedast.TypeNominal); ok {
		return nom
	}
	return nil
}
