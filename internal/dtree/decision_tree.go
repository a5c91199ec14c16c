// Package dtree compiles a list of match-case patterns into a decision
// tree: a sequence of tag tests (and structural flattening of tuple/object
// patterns) that avoids redundant discrimination when patterns overlap or
// nest. No other package calls it: HIR lowering (internal/hir) builds its
// ConditionalDestructure chain directly from the match cases.
package dtree

import (
	"fmt"

	"github.com/samlang-wasm/samlang/internal/heap"
	"github.com/samlang-wasm/samlang/internal/typedast"
)

// DecisionTree is one node of a compiled match.
type DecisionTree interface {
	isDecisionTree()
	String() string
}

// LeafNode is a match: the body to execute for one original arm.
type LeafNode struct {
	ArmIndex int
}

func (*LeafNode) isDecisionTree() {}
func (l *LeafNode) String() string { return fmt.Sprintf("Leaf(arm=%d)", l.ArmIndex) }

// FailNode means no arm matches (non-exhaustive); the checker rejects this
// before HIR lowering ever sees it (spec TYP006), but lowering still needs
// a concrete fallthrough target to compile against.
type FailNode struct{}

func (*FailNode) isDecisionTree() {}
func (*FailNode) String() string { return "Fail" }

// Case is one branch of a SwitchNode: the variant tag being tested, its
// declaration-order index (used directly as the runtime discriminant), and
// the subtree to take when the test succeeds.
type Case struct {
	Tag      heap.PStr
	TagIndex int
	Body     DecisionTree
}

// SwitchNode tests the tag of the value reached via Path (a sequence of
// projection indices from the match scrutinee) against each Case in order,
// falling through to Default if none match.
type SwitchNode struct {
	Path    []int
	Cases   []Case
	Default DecisionTree
}

func (*SwitchNode) isDecisionTree() {}
func (s *SwitchNode) String() string {
	return fmt.Sprintf("Switch(path=%v, cases=%d, hasDefault=%v)", s.Path, len(s.Cases), s.Default != nil)
}

// Row is one match arm's pattern column(s) plus the arm it leads to. Compile
// starts with one column per row (the arm's top-level pattern); columns
// grow as tuple/object/variant patterns are flattened during compilation.
type Row struct {
	Patterns []typedast.Pattern
	ArmIndex int
}

// Compile builds a decision tree from match arms, in arm declaration order
// (earlier arms shadow later ones on overlapping patterns, matching
// ordinary pattern-match semantics).
func Compile(arms []Row) DecisionTree {
	return compileMatrix(arms, nil)
}

func compileMatrix(rows []Row, path []int) DecisionTree {
	if len(rows) == 0 {
		return &FailNode{}
	}
	rows = flattenIrrefutableColumn0(rows)
	if len(rows[0].Patterns) == 0 || isDefaultRow(rows[0]) {
		return &LeafNode{ArmIndex: rows[0].ArmIndex}
	}
	return buildSwitch(rows, path)
}

// flattenIrrefutableColumn0 expands every row whose leading pattern is a
// tuple or object (always matches, never branches) into its sub-patterns,
// so that the only patterns remaining in column 0 across all rows are
// wildcards, id-binders, or variant tests.
func flattenIrrefutableColumn0(rows []Row) []Row {
	out := make([]Row, len(rows))
	for i, row := range rows {
		patterns := row.Patterns
		for len(patterns) > 0 {
			switch p := patterns[0].(type) {
			case *typedast.PatternTuple:
				patterns = append(append([]typedast.Pattern{}, p.Elements...), patterns[1:]...)
				continue
			case *typedast.PatternObject:
				sub := make([]typedast.Pattern, len(p.Fields))
				for j, f := range p.Fields {
					sub[j] = f.Binder
				}
				patterns = append(append([]typedast.Pattern{}, sub...), patterns[1:]...)
				continue
			}
			break
		}
		out[i] = Row{Patterns: patterns, ArmIndex: row.ArmIndex}
	}
	return out
}

// isDefaultRow reports whether every column of row is an irrefutable
// wildcard or id-binder, meaning the row matches unconditionally.
func isDefaultRow(row Row) bool {
	for _, p := range row.Patterns {
		switch p.(type) {
		case *typedast.PatternWildcard, *typedast.PatternId:
			continue
		default:
			return false
		}
	}
	return true
}

// buildSwitch splits rows on column 0, which must contain at least one
// PatternVariant (otherwise compileMatrix would have returned a leaf via
// isDefaultRow): rows with a variant pattern there are grouped by tag and
// specialized by substituting the variant's argument patterns for the
// column; default rows (wildcard/id at column 0) become the fallback.
func buildSwitch(rows []Row, path []int) DecisionTree {
	type group struct {
		tagIndex int
		rows     []Row
	}
	var order []heap.PStr
	groups := map[heap.PStr]*group{}
	var defaultRows []Row

	for _, row := range rows {
		switch p := row.Patterns[0].(type) {
		case *typedast.PatternVariant:
			g, ok := groups[p.Tag]
			if !ok {
				g = &group{tagIndex: p.TagIndex}
				groups[p.Tag] = g
				order = append(order, p.Tag)
			}
			specialized := append(append([]typedast.Pattern{}, p.Args...), row.Patterns[1:]...)
			g.rows = append(g.rows, Row{Patterns: specialized, ArmIndex: row.ArmIndex})
		default:
			// Wildcard or id-binder: drop the column, it binds nothing
			// further to test.
			defaultRows = append(defaultRows, Row{Patterns: row.Patterns[1:], ArmIndex: row.ArmIndex})
		}
	}

	sw := &SwitchNode{Path: append(append([]int{}, path...), 0)}
	for _, tag := range order {
		g := groups[tag]
		sw.Cases = append(sw.Cases, Case{Tag: tag, TagIndex: g.tagIndex, Body: compileMatrix(g.rows, sw.Path)})
	}
	if len(defaultRows) > 0 {
		sw.Default = compileMatrix(defaultRows, sw.Path)
	} else {
		sw.Default = &FailNode{}
	}
	return sw
}
