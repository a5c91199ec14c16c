package hir

import (
	"fmt"
	"sort"

	"github.com/samlang-wasm/samlang/internal/heap"
	"github.com/samlang-wasm/samlang/internal/typedast"
)

// SynthesizedTypes is the side output of TypeLoweringManager: every closure
// and tuple (struct) type synthesized while lowering a module's function
// types, in the order they were first allocated.
type SynthesizedTypes struct {
	ClosureTypes []*ClosureTypeDefinition
	TupleTypes   []*TypeDefinition
}

// TypeSynthesizer memoizes the nominal types synthesized for anonymous
// function and tuple types. Two occurrences of a structurally identical
// function/tuple type (same shape, same free type parameters) always
// receive the same synthesized name (spec §4.3, "deduplicated by
// structural key").
type TypeSynthesizer struct {
	heap        *heap.Heap
	moduleRef   heap.ModuleReference
	closureKeys map[string]TypeName
	tupleKeys   map[string]TypeName
	nextID      int
	out         SynthesizedTypes
}

// NewTypeSynthesizer creates a synthesizer that allocates its generated
// names under moduleRef (conventionally the module currently being
// lowered).
func NewTypeSynthesizer(h *heap.Heap, moduleRef heap.ModuleReference) *TypeSynthesizer {
	return &TypeSynthesizer{
		heap:        h,
		moduleRef:   moduleRef,
		closureKeys: make(map[string]TypeName),
		tupleKeys:   make(map[string]TypeName),
	}
}

// Result returns the synthesized types accumulated so far, in insertion
// order.
func (s *TypeSynthesizer) Result() SynthesizedTypes { return s.out }

func (s *TypeSynthesizer) freshName() TypeName {
	name := fmt.Sprintf("$SyntheticIDType%d", s.nextID)
	s.nextID++
	return NominalTypeName(s.moduleRef, s.heap.Alloc(name))
}

func fnTypeKey(fn *FunctionType) string {
	key := "("
	for i, p := range fn.Params {
		if i > 0 {
			key += ","
		}
		key += typeKey(p)
	}
	return key + ")->" + typeKey(fn.Ret)
}

func typeKey(t Type) string {
	switch n := t.(type) {
	case TypeInt32:
		return "i32"
	case TypeInt31:
		return "i31"
	case *TypeId:
		key := fmt.Sprintf("%v:%d", n.Name.HasModule, n.Name.Name)
		if n.Name.HasModule {
			key += fmt.Sprintf(":%d", n.Name.ModuleRef)
		}
		for _, a := range n.TypeArgs {
			key += "<" + typeKey(a) + ">"
		}
		return key
	default:
		return "?"
	}
}

// SynthesizeClosureType returns the (memoized) TypeName of a closure type
// standing for fn, with tparams as its own type parameters (the free
// generic types occurring in fn, deterministically sorted per spec §4.3).
func (s *TypeSynthesizer) SynthesizeClosureType(fn *FunctionType, tparams []heap.PStr) TypeName {
	key := fnTypeKey(fn)
	if name, ok := s.closureKeys[key]; ok {
		return name
	}
	name := s.freshName()
	s.closureKeys[key] = name
	sorted := append([]heap.PStr{}, tparams...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	s.out.ClosureTypes = append(s.out.ClosureTypes, &ClosureTypeDefinition{
		Name:       name,
		TypeParams: sorted,
		FnType:     fn,
	})
	return name
}

// SynthesizeTupleType returns the (memoized) TypeName of a struct type
// whose fields are fieldTypes in order, with tparams as its own type
// parameters.
func (s *TypeSynthesizer) SynthesizeTupleType(fieldTypes []Type, tparams []heap.PStr) TypeName {
	key := "("
	for i, f := range fieldTypes {
		if i > 0 {
			key += ","
		}
		key += typeKey(f)
	}
	key += ")"
	if name, ok := s.tupleKeys[key]; ok {
		return name
	}
	name := s.freshName()
	s.tupleKeys[key] = name
	sorted := append([]heap.PStr{}, tparams...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	s.out.TupleTypes = append(s.out.TupleTypes, &TypeDefinition{
		Name:         name,
		TypeParams:   sorted,
		Kind:         TypeDefStruct,
		StructFields: fieldTypes,
	})
	return name
}

// TypeLoweringManager lowers typedast.Type (the checker's resolved type
// representation) into hir.Type, synthesizing a nominal closure type for
// every function type and tracking which generic type-parameter names are
// currently in scope so synthesized closure/tuple types can record their
// own free type parameters (spec §4.3).
type TypeLoweringManager struct {
	Heap         *heap.Heap
	GenericTypes map[heap.PStr]bool
	Synthesizer  *TypeSynthesizer
}

// NewTypeLoweringManager creates a manager whose generic-type scope is
// genericTypes (typically a toplevel's own type parameters plus the
// current member's).
func NewTypeLoweringManager(h *heap.Heap, synth *TypeSynthesizer, genericTypes []heap.PStr) *TypeLoweringManager {
	scope := make(map[heap.PStr]bool, len(genericTypes))
	for _, g := range genericTypes {
		scope[g] = true
	}
	return &TypeLoweringManager{Heap: h, GenericTypes: scope, Synthesizer: synth}
}

// LowerFn lowers a checked function type component-wise into a bare
// *FunctionType, without synthesizing a closure type for it. Used where the
// caller already knows it is naming a plain function (a wrapper, or a
// static/method FunctionName's own signature) rather than lowering a value
// of function type, which is Lower's job (spec §4.3).
func (m *TypeLoweringManager) LowerFn(fn *typedast.TypeFn) *FunctionType {
	params := make([]Type, len(fn.Params))
	for i, p := range fn.Params {
		params[i] = m.Lower(p)
	}
	return &FunctionType{Params: params, Ret: m.Lower(fn.Ret)}
}

// freeGenerics collects, in first-occurrence order, every name in t that is
// an in-scope generic type parameter.
func (m *TypeLoweringManager) freeGenerics(t Type, seen map[heap.PStr]bool, out *[]heap.PStr) {
	switch n := t.(type) {
	case *TypeId:
		if !n.Name.HasModule && m.GenericTypes[n.Name.Name] && !seen[n.Name.Name] {
			seen[n.Name.Name] = true
			*out = append(*out, n.Name.Name)
		}
		for _, a := range n.TypeArgs {
			m.freeGenerics(a, seen, out)
		}
	}
}
