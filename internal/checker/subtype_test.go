package checker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samlang-wasm/samlang/internal/errors"
	"github.com/samlang-wasm/samlang/internal/heap"
	"github.com/samlang-wasm/samlang/internal/typedast"
)

// TestIsSubtypeNominalChain builds Base <- Mid <- Child (each declaring its
// immediate parent as its only SuperType) and checks that subtyping is
// reflexive, direct, and transitive, but never symmetric (spec §4.2).
func TestIsSubtypeNominalChain(t *testing.T) {
	h := heap.New()
	base := h.Alloc("Base")
	mid := h.Alloc("Mid")
	child := h.Alloc("Child")

	baseType := &typedast.TypeNominal{ModuleRef: heap.ModuleRoot, Id: base}
	midType := &typedast.TypeNominal{ModuleRef: heap.ModuleRoot, Id: mid}
	childType := &typedast.TypeNominal{ModuleRef: heap.ModuleRoot, Id: child}

	globals := typedast.NewGlobalSignatures()
	sig := typedast.NewModuleSignature()
	sig.Interfaces[base] = &typedast.InterfaceSignature{IsConcrete: true, Functions: map[heap.PStr]*typedast.MemberSignature{}, Methods: map[heap.PStr]*typedast.MemberSignature{}}
	sig.Interfaces[mid] = &typedast.InterfaceSignature{IsConcrete: true, SuperTypes: []*typedast.TypeNominal{baseType}, Functions: map[heap.PStr]*typedast.MemberSignature{}, Methods: map[heap.PStr]*typedast.MemberSignature{}}
	sig.Interfaces[child] = &typedast.InterfaceSignature{IsConcrete: true, SuperTypes: []*typedast.TypeNominal{midType}, Functions: map[heap.PStr]*typedast.MemberSignature{}, Methods: map[heap.PStr]*typedast.MemberSignature{}}
	globals.Modules[heap.ModuleRoot] = sig

	cx := NewContext(h, globals, nil, errors.NewSet(), heap.ModuleRoot)

	require.True(t, cx.IsSubtype(childType, childType), "subtyping must be reflexive")
	assert.True(t, cx.IsSubtype(childType, midType), "Child <: Mid directly")
	assert.True(t, cx.IsSubtype(childType, baseType), "Child <: Base transitively through Mid")
	assert.False(t, cx.IsSubtype(baseType, childType), "subtyping must not be symmetric")
	assert.False(t, cx.IsSubtype(midType, childType), "a supertype is never a subtype of its own subtype")
}

// TestIsSubtypeAnyIsUniversal exercises Any's role as both a universal
// subtype and supertype, used to degrade checking after an earlier error
// (spec §4.2 "Any").
func TestIsSubtypeAnyIsUniversal(t *testing.T) {
	h := heap.New()
	globals := typedast.NewGlobalSignatures()
	cx := NewContext(h, globals, nil, errors.NewSet(), heap.ModuleRoot)

	any := &typedast.TypeAny{Reason: typedast.ReasonPlaceholder}
	intType := &typedast.TypePrimitive{Kind: typedast.PrimInt}

	assert.True(t, cx.IsSubtype(any, intType))
	assert.True(t, cx.IsSubtype(intType, any))
}
