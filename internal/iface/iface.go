// Package iface builds the checked ModuleSignature for a parsed module: the
// pre-pass that runs before expression checking so that forward references
// between classes (a method body referring to a class declared later in the
// same module, or in another module) resolve correctly.
package iface

import (
	"github.com/samlang-wasm/samlang/internal/ast"
	"github.com/samlang-wasm/samlang/internal/heap"
	"github.com/samlang-wasm/samlang/internal/typedast"
)

// Build computes the ModuleSignature for m without checking any expression
// bodies; it resolves only the shapes (type parameters, member signatures,
// struct/enum layouts) needed to check other modules against this one.
func Build(m *ast.Module) *typedast.ModuleSignature {
	sig := typedast.NewModuleSignature()
	for _, top := range m.Toplevels {
		sig.Interfaces[top.Name] = buildInterface(m.ModuleRef, top)
		if top.TypeDefinition != nil {
			sig.TypeDefs[top.Name] = buildTypeDef(top)
		}
	}
	return sig
}

func buildInterface(modRef heap.ModuleReference, top *ast.Toplevel) *typedast.InterfaceSignature {
	tparams := make([]typedast.TypeParameterSig, 0, len(top.TypeParameters))
	for _, tp := range top.TypeParameters {
		tparams = append(tparams, typedast.TypeParameterSig{Name: tp.Name, Bound: liftBound(tp.Bound)})
	}

	iface := &typedast.InterfaceSignature{
		IsConcrete:     !top.IsInterface,
		TypeParameters: tparams,
		Functions:      make(map[heap.PStr]*typedast.MemberSignature),
		Methods:        make(map[heap.PStr]*typedast.MemberSignature),
	}
	for _, ext := range top.Extends {
		iface.SuperTypes = append(iface.SuperTypes, liftTypeId(ext))
	}
	for _, impl := range top.Implements {
		iface.SuperTypes = append(iface.SuperTypes, liftTypeId(impl))
	}
	for _, m := range top.Members {
		sig := buildMember(m)
		if m.IsMethod {
			iface.Methods[m.Name] = sig
		} else {
			iface.Functions[m.Name] = sig
		}
	}
	return iface
}

func buildMember(m ast.MemberDefinition) *typedast.MemberSignature {
	tparams := make([]typedast.TypeParameterSig, 0, len(m.TypeParameters))
	for _, tp := range m.TypeParameters {
		tparams = append(tparams, typedast.TypeParameterSig{Name: tp.Name, Bound: liftBound(tp.Bound)})
	}
	params := make([]typedast.Type, 0, len(m.Parameters))
	for _, p := range m.Parameters {
		params = append(params, LiftType(p.Type))
	}
	return &typedast.MemberSignature{
		IsPublic:       m.IsPublic,
		TypeParameters: tparams,
		Type:           &typedast.TypeFn{Params: params, Ret: LiftType(m.ReturnType)},
	}
}

func buildTypeDef(top *ast.Toplevel) *typedast.TypeDefContext {
	tparams := make([]heap.PStr, 0, len(top.TypeParameters))
	for _, tp := range top.TypeParameters {
		tparams = append(tparams, tp.Name)
	}
	td := top.TypeDefinition
	ctx := &typedast.TypeDefContext{
		IsStruct:       td.Kind == ast.TypeDefStruct,
		TypeParameters: tparams,
		FieldTypes:     make(map[heap.PStr]typedast.FieldType),
		VariantFields:  make(map[heap.PStr][]typedast.Type),
	}
	switch td.Kind {
	case ast.TypeDefStruct:
		for _, f := range td.Fields {
			ctx.FieldOrder = append(ctx.FieldOrder, f.Name)
			ctx.FieldTypes[f.Name] = typedast.FieldType{IsPublic: f.IsPublic, Type: LiftType(f.Type)}
		}
	case ast.TypeDefEnum:
		for _, v := range td.Variants {
			ctx.VariantOrder = append(ctx.VariantOrder, v.Tag)
			fields := make([]typedast.Type, 0, len(v.Fields))
			for _, f := range v.Fields {
				fields = append(fields, LiftType(f))
			}
			ctx.VariantFields[v.Tag] = fields
		}
	}
	return ctx
}

func liftBound(t *ast.TypeId) *typedast.TypeNominal {
	if t == nil {
		return nil
	}
	lifted := liftTypeId(t)
	return lifted
}

func liftTypeId(t *ast.TypeId) *typedast.TypeNominal {
	args := make([]typedast.Type, 0, len(t.TypeArgs))
	for _, a := range t.TypeArgs {
		args = append(args, LiftType(a))
	}
	return &typedast.TypeNominal{ModuleRef: t.ModuleRef, Id: t.Name, TypeArgs: args}
}

// LiftType converts a source annotation-syntax Type into an unresolved
// checked Type shape (nominal/generic/fn/primitive), without validating
// arity or bounds — that happens during checking via ValidateInstantiation.
func LiftType(t ast.Type) typedast.Type {
	if t == nil {
		return &typedast.TypePrimitive{Kind: typedast.PrimUnit}
	}
	switch n := t.(type) {
	case *ast.TypePrimitive:
		switch n.Kind {
		case ast.PrimitiveUnit:
			return &typedast.TypePrimitive{Kind: typedast.PrimUnit}
		case ast.PrimitiveBool:
			return &typedast.TypePrimitive{Kind: typedast.PrimBool}
		case ast.PrimitiveInt:
			return &typedast.TypePrimitive{Kind: typedast.PrimInt}
		default:
			return &typedast.TypeAny{Reason: typedast.ReasonPlaceholder}
		}
	case *ast.TypeId:
		return liftTypeId(n)
	case *ast.TypeGeneric:
		return &typedast.TypeGeneric{Name: n.Name}
	case *ast.TypeFn:
		params := make([]typedast.Type, 0, len(n.Params))
		for _, p := range n.Params {
			params = append(params, LiftType(p))
		}
		return &typedast.TypeFn{Params: params, Ret: LiftType(n.Ret)}
	default:
		return &typedast.TypeAny{Reason: typedast.ReasonPlaceholder}
	}
}
