package ast

import "github.com/samlang-wasm/samlang/internal/heap"

// Pattern is a pattern occurring in a `match` arm, a `let` binding, or an
// `if let` guard.
type Pattern interface {
	patternNode()
	Loc() heap.Location
}

// PatternWildcard matches anything and binds nothing: `_`.
type PatternWildcard struct {
	Location heap.Location
}

func (*PatternWildcard) patternNode()      {}
func (p *PatternWildcard) Loc() heap.Location { return p.Location }

// PatternId binds the scrutinee to Name.
type PatternId struct {
	Name     heap.PStr
	Location heap.Location
}

func (*PatternId) patternNode()      {}
func (p *PatternId) Loc() heap.Location { return p.Location }

// PatternTuple destructures a tuple positionally.
type PatternTuple struct {
	Elements []Pattern
	Location heap.Location
}

func (*PatternTuple) patternNode()      {}
func (p *PatternTuple) Loc() heap.Location { return p.Location }

// ObjectFieldPattern is one `field as name` entry of a PatternObject.
type ObjectFieldPattern struct {
	FieldName heap.PStr
	FieldType heap.PStr // unused by patterns proper; reserved for future field-type display
	Binder    Pattern
}

// PatternObject destructures a struct by field name. FieldOrder records the
// declaration order of the fields being bound, independent of the order
// they're written in the pattern, since HIR lowering must emit
// IndexedAccess in declaration order.
type PatternObject struct {
	Fields     []ObjectFieldPattern
	FieldOrder []heap.PStr
	Location   heap.Location
}

func (*PatternObject) patternNode()      {}
func (p *PatternObject) Loc() heap.Location { return p.Location }

// PatternVariant matches a tagged-sum variant: `Tag(p1, p2, ...)`.
// TagOrder is the variant's 0-based position within its enum's declared
// variant list, used by HIR lowering to assign the tag-test integer without
// re-resolving the enum's type definition.
type PatternVariant struct {
	Tag      heap.PStr
	Args     []Pattern
	TagOrder int
	Location heap.Location
}

func (*PatternVariant) patternNode()      {}
func (p *PatternVariant) Loc() heap.Location { return p.Location }
