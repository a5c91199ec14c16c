// Package driver wires the whole compiler pipeline — ssa, iface, checker,
// hir, mir, mir/optimize, lir, wasmtext — into the single entry point
// cmd/samlang calls, the way the teacher's internal/pipeline strings its
// eval stages together behind one function so the CLI driver stays thin
// (spec §7 "Compile pipeline").
package driver

import (
	"github.com/samlang-wasm/samlang/internal/ast"
	"github.com/samlang-wasm/samlang/internal/checker"
	"github.com/samlang-wasm/samlang/internal/errors"
	"github.com/samlang-wasm/samlang/internal/heap"
	"github.com/samlang-wasm/samlang/internal/hir"
	"github.com/samlang-wasm/samlang/internal/iface"
	"github.com/samlang-wasm/samlang/internal/lir"
	"github.com/samlang-wasm/samlang/internal/mir"
	"github.com/samlang-wasm/samlang/internal/mir/optimize"
	"github.com/samlang-wasm/samlang/internal/ssa"
	"github.com/samlang-wasm/samlang/internal/typedast"
	"github.com/samlang-wasm/samlang/internal/wasmtext"
)

// CompileModules runs every phase of the pipeline over the given parsed
// modules and returns the single WASM text module spec §6 expects
// ("a single __all__.wasm text module"). It stops before lowering if any
// module fails SSA or type checking, mirroring spec §7's "compilation halts
// at the first phase that reports an error; later phases never run."
func CompileModules(h *heap.Heap, mods []*ast.Module) (*wasmtext.Module, *errors.Set) {
	errs := errors.NewSet()
	globals := typedast.NewGlobalSignatures()

	ssaResults := make([]*ssa.Result, len(mods))
	for i, mod := range mods {
		analyzer := ssa.New(h, errs)
		ssaResults[i] = analyzer.Analyze(mod)
	}
	for _, mod := range mods {
		globals.Modules[mod.ModuleRef] = iface.Build(mod)
	}
	if errs.HasErrors() {
		return nil, errs
	}

	typedMods := make([]*typedast.Module, 0, len(mods))
	for i, mod := range mods {
		typedMod, moduleErrs := checker.CheckModule(h, globals, ssaResults[i], mod)
		for _, r := range moduleErrs.Reports() {
			errs.Add(r)
		}
		if typedMod != nil {
			typedMods = append(typedMods, typedMod)
		}
	}
	if errs.HasErrors() {
		return nil, errs
	}

	hirSrc := &hir.Sources{}
	for i, typedMod := range typedMods {
		modSrc := hir.Lower(h, globals, ssaResults[i], typedMod)
		mergeHIR(hirSrc, modSrc)
	}

	mirSrc := mir.Lower(h, hirSrc)
	optimized := optimize.Run(h, mirSrc)
	lirSrc := lir.Lower(h, optimized)
	wasmMod := wasmtext.Lower(h, lirSrc)
	return wasmMod, errs
}

// mergeHIR appends one module's lowering output onto the whole-program
// Sources value every later stage expects to receive as a single unit (HIR
// is lowered per module; MIR onward operates over the whole program).
func mergeHIR(out, mod *hir.Sources) {
	out.ModuleRefs = append(out.ModuleRefs, mod.ModuleRefs...)
	out.TypeDefinitions = append(out.TypeDefinitions, mod.TypeDefinitions...)
	out.ClosureTypes = append(out.ClosureTypes, mod.ClosureTypes...)
	out.Functions = append(out.Functions, mod.Functions...)
	out.MainFunctionNames = append(out.MainFunctionNames, mod.MainFunctionNames...)
}
