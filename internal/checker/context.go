// Package checker implements samlang's nominal, subtyping-aware type
// checker: it consumes a parsed module plus the SSA analysis result and
// produces a typedast.Module, collecting every diagnostic into a
// non-aborting errors.Set rather than stopping at the first failure.
package checker

import (
	"github.com/samlang-wasm/samlang/internal/errors"
	"github.com/samlang-wasm/samlang/internal/heap"
	"github.com/samlang-wasm/samlang/internal/ssa"
	"github.com/samlang-wasm/samlang/internal/typedast"
)

// TypeParamInScope is an in-scope type parameter together with its bound,
// used while validating instantiations and checking subtype bounds.
type TypeParamInScope struct {
	Name  heap.PStr
	Bound *typedast.TypeNominal
}

// Context bundles everything expression checking needs: the global
// signatures of every module, the local variable scope (parameters and
// let-bindings currently visible), the error sink, and the identity of the
// toplevel currently being checked.
type Context struct {
	Heap    *heap.Heap
	Globals *typedast.GlobalSignatures
	Errs    *errors.Set
	SSA     *ssa.Result

	CurrentModule heap.ModuleReference
	CurrentClass  heap.PStr
	TypeParams    []TypeParamInScope
	Locals        map[heap.PStr]typedast.Type
}

// NewContext constructs a checking context for one module.
func NewContext(h *heap.Heap, globals *typedast.GlobalSignatures, ssaResult *ssa.Result, errs *errors.Set, mod heap.ModuleReference) *Context {
	return &Context{Heap: h, Globals: globals, Errs: errs, SSA: ssaResult, CurrentModule: mod}
}

// withTypeParams returns a shallow copy of c with TypeParams replaced, used
// when entering a member or toplevel's scope.
func (c *Context) withTypeParams(params []TypeParamInScope) *Context {
	cp := *c
	cp.TypeParams = params
	return &cp
}

// lookupBound returns the bound of an in-scope type parameter named name,
// and whether name is in scope at all.
func (c *Context) lookupBound(name heap.PStr) (*typedast.TypeNominal, bool) {
	for _, tp := range c.TypeParams {
		if tp.Name == name {
			return tp.Bound, true
		}
	}
	return nil, false
}

func (c *Context) report(code, msg string, loc heap.Location) *errors.Report {
	r := errors.New("checker", code, msg, loc)
	c.Errs.Add(r)
	return r
}

func anyType() typedast.Type {
	return &typedast.TypeAny{Reason: typedast.ReasonPlaceholder}
}

// LocalType looks up the checked type of a local variable, parameter, or
// bound pattern name in scope. An unresolved name reports RES001 and
// degrades to Any so checking the rest of the expression can continue.
func (c *Context) LocalType(name heap.PStr, loc heap.Location) typedast.Type {
	if t, ok := c.Locals[name]; ok {
		return t
	}
	c.report(errors.RES001, "unresolved variable: "+c.Heap.Str(name), loc)
	return anyType()
}

// withLocalBindings returns a shallow copy of c whose local scope extends
// the current one with names[i]:types[i], later names shadowing earlier
// ones (including any of the same name already in scope).
func (c *Context) withLocalBindings(names []heap.PStr, types []typedast.Type) *Context {
	cp := *c
	cp.Locals = make(map[heap.PStr]typedast.Type, len(c.Locals)+len(names))
	for k, v := range c.Locals {
		cp.Locals[k] = v
	}
	for i, n := range names {
		cp.Locals[n] = types[i]
	}
	return &cp
}

// withLocals extends scope with a lambda's own parameters.
func (c *Context) withLocals(params []typedast.LambdaParam) *Context {
	names := make([]heap.PStr, len(params))
	types := make([]typedast.Type, len(params))
	for i, p := range params {
		names[i], types[i] = p.Name, p.Type
	}
	return c.withLocalBindings(names, types)
}

// withBoundPattern extends scope with every name a checked pattern binds,
// used after checking a Block's let-statement so later statements and the
// final expression see the binding (spec §4.2 pattern semantics).
func (c *Context) withBoundPattern(pat typedast.Pattern) *Context {
	bound := map[heap.PStr]typedast.Type{}
	collectPatternBindings(pat, bound)
	names := make([]heap.PStr, 0, len(bound))
	types := make([]typedast.Type, 0, len(bound))
	for n, t := range bound {
		names = append(names, n)
		types = append(types, t)
	}
	return c.withLocalBindings(names, types)
}

func collectPatternBindings(pat typedast.Pattern, out map[heap.PStr]typedast.Type) {
	switch p := pat.(type) {
	case *typedast.PatternId:
		out[p.Name] = p.Type
	case *typedast.PatternTuple:
		for _, el := range p.Elements {
			collectPatternBindings(el, out)
		}
	case *typedast.PatternObject:
		for _, f := range p.Fields {
			collectPatternBindings(f.Binder, out)
		}
	case *typedast.PatternVariant:
		for _, a := range p.Args {
			collectPatternBindings(a, out)
		}
	}
}
