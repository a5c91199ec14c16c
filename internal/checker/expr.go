package checker

import (
	"github.com/samlang-wasm/samlang/internal/ast"
	"github.com/samlang-wasm/samlang/internal/errors"
	"github.com/samlang-wasm/samlang/internal/heap"
	"github.com/samlang-wasm/samlang/internal/iface"
	"github.com/samlang-wasm/samlang/internal/typedast"
)

// expect reports an UnexpectedSubtype error unless got <: want, returning
// got unchanged either way (errors never change the inferred type, per the
// "substitute a permissive placeholder" recovery policy — Any always
// passes, so the caller's own type continues to flow).
func (c *Context) expect(want, got typedast.Type, loc heap.Location) typedast.Type {
	if want == nil {
		return got
	}
	if !c.IsSubtype(got, want) {
		c.report(errors.TYP002, "type is not a subtype of the expected type", loc)
	}
	return got
}

// CheckExpr infers and checks e, reporting into c.Errs. expected may be nil
// when no contextual type is available (e.g. a bare statement value).
func (c *Context) CheckExpr(e ast.Expr, expected typedast.Type) typedast.Expr {
	switch n := e.(type) {
	case *ast.Literal:
		return c.checkLiteral(n, expected)
	case *ast.LocalId:
		return c.checkLocalId(n, expected)
	case *ast.ClassId:
		return c.checkClassId(n)
	case *ast.Tuple:
		return c.checkTuple(n, expected)
	case *ast.FieldAccess:
		return c.checkFieldAccess(n)
	case *ast.MethodAccess:
		return c.checkMethodAccess(n)
	case *ast.Unary:
		return c.checkUnary(n)
	case *ast.Binary:
		return c.checkBinary(n)
	case *ast.Call:
		return c.checkCall(n, expected)
	case *ast.IfElse:
		return c.checkIfElse(n, expected)
	case *ast.Match:
		return c.checkMatch(n, expected)
	case *ast.Lambda:
		return c.checkLambda(n, expected)
	case *ast.Block:
		return c.checkBlock(n, expected)
	default:
		return &typedast.Literal{base: typedast.Base{Type: anyType(), Location: e.Loc(}), Kind: typedast.LitUnit}
	}
}

func (c *Context) checkLiteral(n *ast.Literal, expected typedast.Type) typedast.Expr {
	var t typedast.Type
	var kind typedast.LiteralKind
	switch n.Kind {
	case ast.LitInt:
		t, kind = &typedast.TypePrimitive{Kind: typedast.PrimInt}, typedast.LitInt
	case ast.LitString:
		t, kind = &typedast.TypeNominal{ModuleRef: heap.ModuleRoot, Id: c.Heap.Alloc("String")}, typedast.LitString
	case ast.LitBool:
		t, kind = &typedast.TypePrimitive{Kind: typedast.PrimBool}, typedast.LitBool
	default:
		t, kind = &typedast.TypePrimitive{Kind: typedast.PrimUnit}, typedast.LitUnit
	}
	t = c.expect(expected, t, n.Location)
	return &typedast.Literal{base: typedast.Base{Type: t, Location: n.Location}, Kind: kind, IntValue: n.IntValue, StrValue: n.StrValue, BoolValue: n.BoolValue}
}

func (c *Context) checkLocalId(n *ast.LocalId, expected typedast.Type) typedast.Expr {
	t := c.LocalType(n.Name, n.Location)
	t = c.expect(expected, t, n.Location)
	return &typedast.LocalId{base: typedast.Base{Type: t, Location: n.Location}, Name: n.Name}
}

func (c *Context) checkClassId(n *ast.ClassId) typedast.Expr {
	t := &typedast.TypeNominal{ModuleRef: n.ModuleRef, Id: n.Name, IsClassStatics: true}
	return &typedast.ClassId{base: typedast.Base{Type: t, Location: n.Location}, ModuleRef: n.ModuleRef, Name: n.Name}
}

func (c *Context) checkTuple(n *ast.Tuple, expected typedast.Type) typedast.Expr {
	elTypes := make([]typedast.Type, len(n.Elements))
	var wantElems []typedast.Type
	if nom, ok := expected.(*typedast.TypeNominal); ok {
		wantElems = nom.TypeArgs
	}
	elems := make([]typedast.Expr, len(n.Elements))
	for i, el := range n.Elements {
		var want typedast.Type
		if i < len(wantElems) {
			want = wantElems[i]
		}
		elems[i] = c.CheckExpr(el, want)
		elTypes[i] = elems[i].ExprType()
	}
	t := SynthesizeTupleType(c.Heap, elTypes)
	return &typedast.Tuple{base: typedast.Base{Type: t, Location: n.Location}, Elements: elems}
}

func (c *Context) checkFieldAccess(n *ast.FieldAccess) typedast.Expr {
	obj := c.CheckExpr(n.Object, nil)
	objNom, ok := obj.ExprType().(*typedast.TypeNominal)
	if !ok {
		c.report(errors.TYP004, "field access on non-nominal type", n.Location)
		return &typedast.FieldAccess{base: typedast.Base{Type: anyType(), Location: n.Location}, Object: obj, Field: n.Field}
	}
	if objNom.IsClassStatics {
		if sig, ok := c.queryFunctionType(objNom.ModuleRef, objNom.Id, n.Field); ok {
			return &typedast.FieldAccess{base: typedast.Base{Type: sig.Type, Location: n.Location}, Object: obj, Field: n.Field}
		}
		if fnType, ok := c.variantConstructorType(objNom.ModuleRef, objNom.Id, n.Field); ok {
			return &typedast.FieldAccess{base: typedast.Base{Type: fnType, Location: n.Location}, Object: obj, Field: n.Field}
		}
		c.report(errors.TYP004, "no such function: "+c.Heap.Str(n.Field), n.Location)
		return &typedast.FieldAccess{base: typedast.Base{Type: anyType(), Location: n.Location}, Object: obj, Field: n.Field}
	}
	_, fields := c.ResolveTypeDefinition(objNom.ModuleRef, objNom.Id, objNom.TypeArgs, true)
	ft, ok := fields[n.Field]
	if !ok {
		c.report(errors.TYP004, "no such field: "+c.Heap.Str(n.Field), n.Location)
		return &typedast.FieldAccess{base: typedast.Base{Type: anyType(), Location: n.Location}, Object: obj, Field: n.Field}
	}
	if !ft.IsPublic && objNom.Id != c.CurrentClass {
		c.report(errors.TYP005, "field not accessible: "+c.Heap.Str(n.Field), n.Location)
	}
	return &typedast.FieldAccess{base: typedast.Base{Type: ft.Type, Location: n.Location}, Object: obj, Field: n.Field}
}

func (c *Context) checkMethodAccess(n *ast.MethodAccess) typedast.Expr {
	obj := c.CheckExpr(n.Object, nil)
	objNom, _ := obj.ExprType().(*typedast.TypeNominal)
	if g, isGeneric := obj.ExprType().(*typedast.TypeGeneric); isGeneric {
		// A bounded type parameter resolves its methods against its bound.
		objNom, _ = c.lookupBound(g.Name)
	}
	if objNom == nil {
		c.report(errors.TYP004, "method access on non-nominal type", n.Location)
		return &typedast.MethodAccess{base: typedast.Base{Type: anyType(), Location: n.Location}, Object: obj, Method: n.Method}
	}
	sig := c.GetMethodType(objNom.ModuleRef, objNom.Id, n.Method, objNom.TypeArgs, n.Location)
	if sig == nil {
		return &typedast.MethodAccess{base: typedast.Base{Type: anyType(), Location: n.Location}, Object: obj, Method: n.Method}
	}
	return &typedast.MethodAccess{base: typedast.Base{Type: sig.Type, Location: n.Location}, Object: obj, Method: n.Method}
}

func (c *Context) checkUnary(n *ast.Unary) typedast.Expr {
	var t typedast.Type
	var op typedast.UnaryOperator
	switch n.Operator {
	case ast.UnaryNot:
		t, op = &typedast.TypePrimitive{Kind: typedast.PrimBool}, typedast.UnaryNot
	default:
		t, op = &typedast.TypePrimitive{Kind: typedast.PrimInt}, typedast.UnaryNeg
	}
	operand := c.CheckExpr(n.Operand, t)
	return &typedast.Unary{base: typedast.Base{Type: t, Location: n.Location}, Operator: op, Operand: operand}
}

var comparisonOps = map[ast.BinaryOperator]bool{
	ast.BinLt: true, ast.BinLe: true, ast.BinGt: true, ast.BinGe: true,
	ast.BinEq: true, ast.BinNe: true,
}

func (c *Context) checkBinary(n *ast.Binary) typedast.Expr {
	op := typedast.BinaryOperator(n.Operator)
	intType := &typedast.TypePrimitive{Kind: typedast.PrimInt}
	boolType := &typedast.TypePrimitive{Kind: typedast.PrimBool}

	var operandWant, resultType typedast.Type
	switch {
	case n.Operator == ast.BinAnd || n.Operator == ast.BinOr:
		operandWant, resultType = boolType, boolType
	case comparisonOps[n.Operator]:
		operandWant, resultType = intType, boolType
	case n.Operator == ast.BinConcat:
		operandWant, resultType = nil, &typedast.TypeNominal{ModuleRef: heap.ModuleRoot, Id: c.Heap.Alloc("String")}
	default:
		operandWant, resultType = intType, intType
	}
	left := c.CheckExpr(n.Left, operandWant)
	right := c.CheckExpr(n.Right, operandWant)
	return &typedast.Binary{base: typedast.Base{Type: resultType, Location: n.Location}, Operator: op, Left: left, Right: right}
}

func (c *Context) checkCall(n *ast.Call, expected typedast.Type) typedast.Expr {
	callee := c.CheckExpr(n.Callee, nil)
	fnType, ok := callee.ExprType().(*typedast.TypeFn)
	if !ok {
		c.report(errors.TYP004, "callee is not a function", n.Location)
		return &typedast.Call{base: typedast.Base{Type: anyType(), Location: n.Location}, Callee: callee}
	}
	if len(fnType.Params) != len(n.Args) {
		c.report(errors.TYP001, "argument count mismatch", n.Location).WithData(map[string]any{
			"expected": len(fnType.Params), "actual": len(n.Args),
		})
	}
	args := make([]typedast.Expr, len(n.Args))
	for i, a := range n.Args {
		var want typedast.Type
		if i < len(fnType.Params) {
			want = fnType.Params[i]
		}
		args[i] = c.CheckExpr(a, want)
	}
	ret := c.expect(expected, fnType.Ret, n.Location)
	return &typedast.Call{base: typedast.Base{Type: ret, Location: n.Location}, Callee: callee, Args: args}
}

func (c *Context) checkIfElse(n *ast.IfElse, expected typedast.Type) typedast.Expr {
	if n.Guard != nil {
		guardExpr := c.CheckExpr(n.Guard.Expr, nil)
		pat := c.CheckPattern(n.Guard.Pattern, guardExpr.ExprType())
		thenE := c.CheckExpr(n.Then, expected)
		elseE := c.CheckExpr(n.Else, thenE.ExprType())
		t := c.joinBranches(thenE.ExprType(), elseE.ExprType(), n.Location)
		return &typedast.IfElse{
			base:  typedast.Base{Type: t, Location: n.Location},
			Guard: &typedast.PatternGuard{Pattern: pat, Expr: guardExpr},
			Then:  thenE, Else: elseE,
		}
	}
	cond := c.CheckExpr(n.Condition, &typedast.TypePrimitive{Kind: typedast.PrimBool})
	thenE := c.CheckExpr(n.Then, expected)
	elseE := c.CheckExpr(n.Else, thenE.ExprType())
	t := c.joinBranches(thenE.ExprType(), elseE.ExprType(), n.Location)
	return &typedast.IfElse{base: typedast.Base{Type: t, Location: n.Location}, Condition: cond, Then: thenE, Else: elseE}
}

func (c *Context) joinBranches(a, b typedast.Type, loc heap.Location) typedast.Type {
	if typedast.Equal(a, b) {
		return a
	}
	if _, ok := a.(*typedast.TypeAny); ok {
		return b
	}
	if _, ok := b.(*typedast.TypeAny); ok {
		return a
	}
	c.report(errors.TYP002, "if/else branches disagree on type", loc)
	return a
}

func (c *Context) checkMatch(n *ast.Match, expected typedast.Type) typedast.Expr {
	scrutinee := c.CheckExpr(n.Scrutinee, nil)
	scrutNom, _ := scrutinee.ExprType().(*typedast.TypeNominal)

	var resultType typedast.Type
	coveredTags := map[heap.PStr]bool{}
	cases := make([]typedast.MatchCase, len(n.Cases))
	for i, mc := range n.Cases {
		pat := c.CheckPattern(mc.Pattern, scrutinee.ExprType())
		if v, ok := pat.(*typedast.PatternVariant); ok {
			coveredTags[v.Tag] = true
		}
		body := c.CheckExpr(mc.Body, expected)
		if resultType == nil {
			resultType = body.ExprType()
		} else {
			resultType = c.joinBranches(resultType, body.ExprType(), mc.Body.Loc())
		}
		cases[i] = typedast.MatchCase{Pattern: pat, Body: body}
	}
	exhaustive := true
	if scrutNom != nil {
		if td, ok := c.Globals.LookupTypeDef(scrutNom.ModuleRef, scrutNom.Id); ok && !td.IsStruct {
			for _, tag := range td.VariantOrder {
				if !coveredTags[tag] {
					exhaustive = false
					break
				}
			}
		}
	}
	if !exhaustive {
		c.report(errors.TYP006, "non-exhaustive match", n.Location)
	}
	if resultType == nil {
		resultType = anyType()
	}
	return &typedast.Match{base: typedast.Base{Type: resultType, Location: n.Location}, Scrutinee: scrutinee, Cases: cases, Exhaustive: exhaustive}
}

func (c *Context) checkLambda(n *ast.Lambda, expected typedast.Type) typedast.Expr {
	var wantParams []typedast.Type
	var wantRet typedast.Type
	if fn, ok := expected.(*typedast.TypeFn); ok {
		wantParams = fn.Params
		wantRet = fn.Ret
	}
	params := make([]typedast.LambdaParam, len(n.Parameters))
	paramTypes := make([]typedast.Type, len(n.Parameters))
	for i, p := range n.Parameters {
		var t typedast.Type
		if p.TypeAnnotation != nil {
			t = iface.LiftType(p.TypeAnnotation)
		} else if i < len(wantParams) {
			t = wantParams[i]
		} else {
			t = anyType()
		}
		params[i] = typedast.LambdaParam{Name: p.Name, Type: t}
		paramTypes[i] = t
	}
	captures := c.SSA.LambdaCaptures[n.Location]
	body := c.withLocals(params).CheckExpr(n.Body, wantRet)
	fnType := &typedast.TypeFn{Params: paramTypes, Ret: body.ExprType()}
	return &typedast.Lambda{base: typedast.Base{Type: fnType, Location: n.Location}, Parameters: params, Body: body, Captures: captures}
}

func (c *Context) checkBlock(n *ast.Block, expected typedast.Type) typedast.Expr {
	cur := c
	stmts := make([]typedast.BlockStatement, len(n.Statements))
	for i, s := range n.Statements {
		var want typedast.Type
		if s.TypeAnnotation != nil {
			want = iface.LiftType(s.TypeAnnotation)
		}
		value := cur.CheckExpr(s.Value, want)
		pat := cur.CheckPattern(s.Pattern, value.ExprType())
		stmts[i] = typedast.BlockStatement{Pattern: pat, Value: value}
		cur = cur.withBoundPattern(pat)
	}
	var final typedast.Expr
	if n.FinalExpr != nil {
		final = cur.CheckExpr(n.FinalExpr, expected)
	}
	t := typedast.Type(&typedast.TypePrimitive{Kind: typedast.PrimUnit})
	if final != nil {
		t = final.ExprType()
	}
	return &typedast.Block{base: typedast.Base{Type: t, Location: n.Location}, Statements: stmts, FinalExpr: final}
}
