// Package ssa performs name-resolution analysis over the parsed source AST:
// it resolves every use to its binding, rejects illegal redefinitions, and
// records the set of free variables each lambda captures from its enclosing
// scopes. This runs before type checking, which relies on its result to
// decide which identifiers are legal to reference.
package ssa

import (
	"github.com/samlang-wasm/samlang/internal/ast"
	"github.com/samlang-wasm/samlang/internal/errors"
	"github.com/samlang-wasm/samlang/internal/heap"
)

// Result is the output of analyzing a module: the information the type
// checker and HIR lowering consume to resolve names and convert closures.
type Result struct {
	// LambdaCaptures maps a lambda's location to the set of outer-scope
	// names it references, in first-use order.
	LambdaCaptures map[heap.Location][]heap.PStr
}

// NewResult returns an empty analysis result.
func NewResult() *Result {
	return &Result{LambdaCaptures: make(map[heap.Location][]heap.PStr)}
}

// binding records where a name was first bound, for NameAlreadyBound
// diagnostics.
type binding struct {
	loc heap.Location
}

// scopeKind distinguishes an ordinary block scope from one pushed for a
// lambda body: only the latter causes an outer hit to be recorded as a
// capture.
type scopeKind int

const (
	scopeBlock scopeKind = iota
	scopeLambda
)

type scope struct {
	kind     scopeKind
	names    map[heap.PStr]binding
	lambdaAt heap.Location // valid iff kind == scopeLambda
	captured map[heap.PStr]bool
	order    []heap.PStr
}

// Analyzer walks a module tracking nested lexical scopes.
type Analyzer struct {
	heap   *heap.Heap
	errs   *errors.Set
	result *Result
	scopes []*scope
}

// New creates an Analyzer that reports diagnostics into errs.
func New(h *heap.Heap, errs *errors.Set) *Analyzer {
	return &Analyzer{heap: h, errs: errs, result: NewResult()}
}

// Analyze runs name resolution over the whole module and returns the
// captured-variable map. Errors are appended to the Analyzer's error set;
// Analyze never aborts early.
func (a *Analyzer) Analyze(m *ast.Module) *Result {
	// Pre-pass: hoist every toplevel name into the module scope.
	a.pushScope(scopeBlock, heap.DummyLocation)
	for _, top := range m.Toplevels {
		a.insert(top.Name, top.Location)
	}
	for _, top := range m.Toplevels {
		a.analyzeToplevel(top)
	}
	a.popScope()
	return a.result
}

func (a *Analyzer) pushScope(kind scopeKind, lambdaLoc heap.Location) {
	a.scopes = append(a.scopes, &scope{kind: kind, names: map[heap.PStr]binding{}, lambdaAt: lambdaLoc, captured: map[heap.PStr]bool{}})
}

func (a *Analyzer) popScope() {
	top := a.scopes[len(a.scopes)-1]
	a.scopes = a.scopes[:len(a.scopes)-1]
	if top.kind == scopeLambda {
		a.result.LambdaCaptures[top.lambdaAt] = top.order
	}
}

// insert binds name at loc in the current scope, reporting NameAlreadyBound
// if any ancestor scope already binds it.
func (a *Analyzer) insert(name heap.PStr, loc heap.Location) {
	for _, s := range a.scopes {
		if prev, ok := s.names[name]; ok {
			a.errs.Add(errors.New("ssa", errors.RES002, "name already bound: "+a.heap.Str(name), loc).
				WithData(map[string]any{"previous": prev.loc.String()}))
			return
		}
	}
	top := a.scopes[len(a.scopes)-1]
	top.names[name] = binding{loc: loc}
}

// use resolves a value-position reference, recording captures across any
// lambda-scope boundary it crosses. isTypePosition suppresses the capture
// side effect, per spec §4.1 ("type-position uses do not induce captures").
func (a *Analyzer) use(name heap.PStr, loc heap.Location, isTypePosition bool) {
	crossedLambda := false
	for i := len(a.scopes) - 1; i >= 0; i-- {
		s := a.scopes[i]
		if _, ok := s.names[name]; ok {
			if crossedLambda && !isTypePosition {
				// Record the capture on every lambda scope crossed between
				// the use site and the binding scope.
				for j := i + 1; j < len(a.scopes); j++ {
					if a.scopes[j].kind == scopeLambda && !a.scopes[j].captured[name] {
						a.scopes[j].captured[name] = true
						a.scopes[j].order = append(a.scopes[j].order, name)
					}
				}
			}
			return
		}
		if s.kind == scopeLambda {
			crossedLambda = true
		}
	}
	a.errs.Add(errors.New("ssa", errors.RES001, "cannot resolve name: "+a.heap.Str(name), loc))
}

func (a *Analyzer) analyzeToplevel(t *ast.Toplevel) {
	// (a) hoist toplevel name into the outermost (module) scope, already
	// done by the caller via a pre-pass in practice; here we register the
	// toplevel's own type parameters and definition in a nested scope.
	a.pushScope(scopeBlock, heap.DummyLocation)
	for _, tp := range t.TypeParameters {
		a.insert(tp.Name, tp.Location)
	}
	for _, ext := range t.Extends {
		a.useType(ext)
	}
	for _, impl := range t.Implements {
		a.useType(impl)
	}
	if t.TypeDefinition != nil {
		switch t.TypeDefinition.Kind {
		case ast.TypeDefStruct:
			for _, f := range t.TypeDefinition.Fields {
				a.useType(f.Type)
			}
		case ast.TypeDefEnum:
			for _, v := range t.TypeDefinition.Variants {
				for _, f := range v.Fields {
					a.useType(f)
				}
			}
		}
	}

	// (c) members-as-names scope, purely to detect duplicate member names.
	a.pushScope(scopeBlock, heap.DummyLocation)
	for _, m := range t.Members {
		a.insert(m.Name, m.Location)
	}

	for _, m := range t.Members {
		a.analyzeMember(t, m)
	}

	a.popScope() // members-as-names
	a.popScope() // toplevel type-parameter scope
}

func (a *Analyzer) analyzeMember(t *ast.Toplevel, m ast.MemberDefinition) {
	if m.IsMethod {
		a.pushScope(scopeBlock, heap.DummyLocation)
		a.insert(heap.PStrThis, m.Location)
		for _, tp := range t.TypeParameters {
			a.insert(tp.Name, tp.Location)
		}
	} else {
		a.pushScope(scopeBlock, heap.DummyLocation)
	}
	for _, tp := range m.TypeParameters {
		a.insert(tp.Name, tp.Location)
	}
	for _, p := range m.Parameters {
		a.useType(p.Type)
		a.insert(p.Name, p.Location)
	}
	if m.ReturnType != nil {
		a.useType(m.ReturnType)
	}
	if m.Body != nil {
		a.expr(m.Body)
	}
	a.popScope()
}

func (a *Analyzer) useType(t ast.Type) {
	if t == nil {
		return
	}
	switch n := t.(type) {
	case *ast.TypeId:
		a.use(n.Name, n.Location, true)
		for _, arg := range n.TypeArgs {
			a.useType(arg)
		}
	case *ast.TypeGeneric:
		a.use(n.Name, n.Location, true)
	case *ast.TypeFn:
		for _, p := range n.Params {
			a.useType(p)
		}
		a.useType(n.Ret)
	}
}

func (a *Analyzer) expr(e ast.Expr) {
	switch n := e.(type) {
	case *ast.Literal, *ast.ClassId:
		// no names to resolve
	case *ast.LocalId:
		a.use(n.Name, n.Location, false)
	case *ast.Tuple:
		for _, el := range n.Elements {
			a.expr(el)
		}
	case *ast.FieldAccess:
		a.expr(n.Object)
		for _, ta := range n.TypeArgs {
			a.useType(ta)
		}
	case *ast.MethodAccess:
		a.expr(n.Object)
		for _, ta := range n.TypeArgs {
			a.useType(ta)
		}
	case *ast.Unary:
		a.expr(n.Operand)
	case *ast.Binary:
		a.expr(n.Left)
		a.expr(n.Right)
	case *ast.Call:
		a.expr(n.Callee)
		for _, ta := range n.TypeArgs {
			a.useType(ta)
		}
		for _, arg := range n.Args {
			a.expr(arg)
		}
	case *ast.IfElse:
		if n.Guard != nil {
			a.expr(n.Guard.Expr)
			a.pushScope(scopeBlock, heap.DummyLocation)
			a.bindPattern(n.Guard.Pattern)
			a.expr(n.Then)
			a.popScope()
		} else {
			a.expr(n.Condition)
			a.expr(n.Then)
		}
		a.expr(n.Else)
	case *ast.Match:
		a.expr(n.Scrutinee)
		for _, c := range n.Cases {
			a.pushScope(scopeBlock, heap.DummyLocation)
			a.bindPattern(c.Pattern)
			a.expr(c.Body)
			a.popScope()
		}
	case *ast.Lambda:
		a.pushScope(scopeLambda, n.Location)
		for _, p := range n.Parameters {
			if p.TypeAnnotation != nil {
				a.useType(p.TypeAnnotation)
			}
			a.insert(p.Name, p.Location)
		}
		a.expr(n.Body)
		a.popScope()
	case *ast.Block:
		a.pushScope(scopeBlock, heap.DummyLocation)
		for _, stmt := range n.Statements {
			a.expr(stmt.Value)
			if stmt.TypeAnnotation != nil {
				a.useType(stmt.TypeAnnotation)
			}
			a.bindPattern(stmt.Pattern)
		}
		if n.FinalExpr != nil {
			a.expr(n.FinalExpr)
		}
		a.popScope()
	}
}

func (a *Analyzer) bindPattern(p ast.Pattern) {
	switch n := p.(type) {
	case *ast.PatternWildcard:
	case *ast.PatternId:
		a.insert(n.Name, n.Location)
	case *ast.PatternTuple:
		for _, el := range n.Elements {
			a.bindPattern(el)
		}
	case *ast.PatternObject:
		for _, f := range n.Fields {
			a.bindPattern(f.Binder)
		}
	case *ast.PatternVariant:
		for _, arg := range n.Args {
			a.bindPattern(arg)
		}
	}
}
