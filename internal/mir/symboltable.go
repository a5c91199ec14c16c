// Package mir is the mid-level IR: HIR generalized with a process-wide
// symbol table of compact type-name ids, loop constructs in place of
// pattern-match destructuring, and the fixed-point optimizer pipeline that
// runs over it before LIR lowering (spec §3.5, §4.4, §4.5).
package mir

import (
	"github.com/samlang-wasm/samlang/internal/heap"
	"github.com/samlang-wasm/samlang/internal/hir"
)

// TypeNameId is a compact id assigned to each distinct (module_ref, name,
// optional subtype tag) triple seen while lowering HIR to MIR. Enum
// variants promoted to their own LIR subtype (see internal/lir) share the
// parent's TypeNameId's name but get a distinct id keyed by SubtypeTag.
type TypeNameId uint32

type symbolKey struct {
	encoded    string
	hasSubtype bool
	subtype    int
}

// SymbolTable assigns a TypeNameId to each distinct hir.TypeName (optionally
// qualified by an enum subtype tag) encountered during HIR→MIR lowering.
// It is built during HIR→MIR lowering. Nothing freezes it afterward: LIR
// lowering resolves struct and closure types through Intern, which adds any
// name not already present.
type SymbolTable struct {
	byKey map[symbolKey]TypeNameId
	names []hir.TypeName
	tags  []int // -1 when the entry has no subtype
}

// NewSymbolTable creates an empty table.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{byKey: make(map[symbolKey]TypeNameId)}
}

// Intern returns the TypeNameId for name, allocating a fresh one on first
// use.
func (t *SymbolTable) Intern(h *heap.Heap, name hir.TypeName) TypeNameId {
	return t.internKey(symbolKey{encoded: name.EncodedForm(h)}, name, -1)
}

// InternSubtype returns the TypeNameId for name qualified by an enum
// subtype tag (the LIR layout pass's per-variant struct type, spec §4.6).
func (t *SymbolTable) InternSubtype(h *heap.Heap, name hir.TypeName, tag int) TypeNameId {
	return t.internKey(symbolKey{encoded: name.EncodedForm(h), hasSubtype: true, subtype: tag}, name, tag)
}

func (t *SymbolTable) internKey(key symbolKey, name hir.TypeName, tag int) TypeNameId {
	if id, ok := t.byKey[key]; ok {
		return id
	}
	id := TypeNameId(len(t.names))
	t.names = append(t.names, name)
	t.tags = append(t.tags, tag)
	t.byKey[key] = id
	return id
}

// Name returns the hir.TypeName an id was interned from.
func (t *SymbolTable) Name(id TypeNameId) hir.TypeName { return t.names[id] }

// SubtypeTag returns the enum subtype tag an id was interned with, or -1.
func (t *SymbolTable) SubtypeTag(id TypeNameId) int { return t.tags[id] }
