package typedast

import "github.com/samlang-wasm/samlang/internal/heap"

// Pattern is a checked pattern: every binder carries its resolved Type.
type Pattern interface {
	patternNode()
	Loc() heap.Location
}

type PatternBase struct {
	Location heap.Location
}

func (p PatternBase) Loc() heap.Location { return p.Location }

type PatternWildcard struct{ PatternBase }

func (*PatternWildcard) patternNode() {}

type PatternId struct {
	PatternBase
	Name heap.PStr
	Type Type
}

func (*PatternId) patternNode() {}

type PatternTuple struct {
	PatternBase
	Elements []Pattern
}

func (*PatternTuple) patternNode() {}

type ObjectFieldPattern struct {
	FieldName heap.PStr
	FieldType Type
	Binder    Pattern
}

type PatternObject struct {
	PatternBase
	Fields []ObjectFieldPattern
}

func (*PatternObject) patternNode() {}

// PatternVariant matches one tagged variant of an enum; TagIndex is the
// variant's 0-based declaration order, used directly as the runtime tag.
type PatternVariant struct {
	PatternBase
	Tag      heap.PStr
	TagIndex int
	Args     []Pattern
}

func (*PatternVariant) patternNode() {}
