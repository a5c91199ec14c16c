// Package heap provides the process-wide interner for strings and module
// references that every later intermediate representation references
// instead of carrying raw strings. Allocating the same string or the same
// module path twice always returns the same id.
package heap

import (
	"strings"
	"sync"

	"golang.org/x/text/unicode/norm"
)

// PStr is an opaque id for an interned string. Two PStr values compare
// equal iff the underlying strings are equal; ordering is the allocation
// order, which gives a cheap total order for use as map/sort keys.
type PStr uint32

// Well-known strings reserved with fixed ids so that passes which need to
// special-case "this", "_", or common generic-parameter names never have to
// round-trip through the string table.
const (
	PStrThis PStr = iota
	PStrUnderscore
	PStrA
	PStrB
	PStrT
	PStrClass
	PStrMain
	PStrString
	PStrInt
	PStrBool
	PStrUnit
	pstrWellKnownCount
)

var wellKnownStrings = [...]string{
	PStrThis:       "this",
	PStrUnderscore: "_",
	PStrA:          "A",
	PStrB:          "B",
	PStrT:          "T",
	PStrClass:      "class",
	PStrMain:       "Main",
	PStrString:     "Str",
	PStrInt:        "int",
	PStrBool:       "bool",
	PStrUnit:       "unit",
}

// ModuleReference is an interned, ordered list of path segments (e.g. the
// module "Foo.Bar" is the segment list ["Foo", "Bar"]). Its encoded form
// joins segments with "_".
type ModuleReference uint32

const (
	// ModuleDummy is used by synthesized nodes that have no real source
	// module (e.g. compiler-internal scaffolding).
	ModuleDummy ModuleReference = iota
	// ModuleRoot is the conventional top-level/entry module reference.
	ModuleRoot
	moduleWellKnownCount
)

// Heap is the process-wide owned interner. It is mutated only between
// compiler passes; no pass caches *string across a mutation of the Heap.
type Heap struct {
	mu sync.Mutex

	strs    []string
	strsIdx map[string]PStr

	mods    [][]string
	modsIdx map[string]ModuleReference
}

// New creates a Heap with the well-known strings and modules pre-seeded at
// their fixed ids.
func New() *Heap {
	h := &Heap{
		strs:    make([]string, pstrWellKnownCount),
		strsIdx: make(map[string]PStr, 64),
		mods:    make([][]string, moduleWellKnownCount),
		modsIdx: make(map[string]ModuleReference, 16),
	}
	for id, s := range wellKnownStrings {
		h.strs[id] = s
		h.strsIdx[s] = PStr(id)
	}
	h.mods[ModuleDummy] = []string{"$dummy"}
	h.mods[ModuleRoot] = []string{}
	h.modsIdx[encodeSegments(h.mods[ModuleDummy])] = ModuleDummy
	h.modsIdx[encodeSegments(h.mods[ModuleRoot])] = ModuleRoot
	return h
}

// Alloc interns s, normalizing it to NFC first so that two source files
// using different Unicode normal forms for the same identifier intern to
// the same PStr.
func (h *Heap) Alloc(s string) PStr {
	s = norm.NFC.String(s)
	h.mu.Lock()
	defer h.mu.Unlock()
	if id, ok := h.strsIdx[s]; ok {
		return id
	}
	id := PStr(len(h.strs))
	h.strs = append(h.strs, s)
	h.strsIdx[s] = id
	return id
}

// AllocForTest is a convenience wrapper used by tests constructing fixtures
// from string literals.
func (h *Heap) AllocForTest(s string) PStr { return h.Alloc(s) }

// Str returns the interned string for id. id must have been produced by
// this Heap.
func (h *Heap) Str(id PStr) string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.strs[id]
}

// AllocModule interns a module reference given its path segments.
func (h *Heap) AllocModule(segments []string) ModuleReference {
	key := encodeSegments(segments)
	h.mu.Lock()
	defer h.mu.Unlock()
	if id, ok := h.modsIdx[key]; ok {
		return id
	}
	id := ModuleReference(len(h.mods))
	cp := append([]string(nil), segments...)
	h.mods = append(h.mods, cp)
	h.modsIdx[key] = id
	return id
}

// ModuleSegments returns the path segments for a module reference.
func (h *Heap) ModuleSegments(id ModuleReference) []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.mods[id]...)
}

// ModuleEncodedForm returns the "_"-joined encoded form of a module
// reference, used for WASM symbol names and synthetic type names.
func (h *Heap) ModuleEncodedForm(id ModuleReference) string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return encodeSegments(h.mods[id])
}

func encodeSegments(segments []string) string {
	return strings.Join(segments, "_")
}
