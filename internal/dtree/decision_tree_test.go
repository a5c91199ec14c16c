package dtree

import (
	"testing"

	"github.com/samlang-wasm/samlang/internal/heap"
	"github.com/samlang-wasm/samlang/internal/typedast"
)

func variant(h *heap.Heap, tag string, tagIndex int, args ...typedast.Pattern) *typedast.PatternVariant {
	return &typedast.PatternVariant{Tag: h.Alloc(tag), TagIndex: tagIndex, Args: args}
}

// TestDecisionTree_TwoTags covers `match x { Some(y) => 1, None => 0 }`.
func TestDecisionTree_TwoTags(t *testing.T) {
	h := heap.New()
	arms := []Row{
		{Patterns: []typedast.Pattern{variant(h, "Some", 0, &typedast.PatternId{Name: h.Alloc("y")})}, ArmIndex: 0},
		{Patterns: []typedast.Pattern{variant(h, "None", 1)}, ArmIndex: 1},
	}

	tree := Compile(arms)

	sw, ok := tree.(*SwitchNode)
	if !ok {
		t.Fatalf("expected SwitchNode, got %T", tree)
	}
	if len(sw.Cases) != 2 {
		t.Fatalf("expected 2 cases, got %d", len(sw.Cases))
	}
	if _, ok := sw.Default.(*FailNode); !ok {
		t.Errorf("expected FailNode default for an exhaustive tag set, got %T", sw.Default)
	}
}

// TestDecisionTree_WithWildcardDefault covers `match x { Some(y) => 1, _ => 0 }`.
func TestDecisionTree_WithWildcardDefault(t *testing.T) {
	h := heap.New()
	arms := []Row{
		{Patterns: []typedast.Pattern{variant(h, "Some", 0, &typedast.PatternId{Name: h.Alloc("y")})}, ArmIndex: 0},
		{Patterns: []typedast.Pattern{&typedast.PatternWildcard{}}, ArmIndex: 1},
	}

	tree := Compile(arms)

	sw, ok := tree.(*SwitchNode)
	if !ok {
		t.Fatalf("expected SwitchNode, got %T", tree)
	}
	leaf, ok := sw.Default.(*LeafNode)
	if !ok {
		t.Fatalf("expected LeafNode default, got %T", sw.Default)
	}
	if leaf.ArmIndex != 1 {
		t.Errorf("expected default arm index 1, got %d", leaf.ArmIndex)
	}
}

// TestDecisionTree_AllWildcards covers a single catch-all arm: `_ => 42`.
func TestDecisionTree_AllWildcards(t *testing.T) {
	arms := []Row{
		{Patterns: []typedast.Pattern{&typedast.PatternWildcard{}}, ArmIndex: 0},
	}

	tree := Compile(arms)

	leaf, ok := tree.(*LeafNode)
	if !ok {
		t.Fatalf("expected LeafNode for wildcard-only match, got %T", tree)
	}
	if leaf.ArmIndex != 0 {
		t.Errorf("expected arm index 0, got %d", leaf.ArmIndex)
	}
}

// TestDecisionTree_NestedVariant covers `match x { Some(Some(y)) => 1, _ => 0 }`,
// exercising recursive specialization into a nested variant pattern.
func TestDecisionTree_NestedVariant(t *testing.T) {
	h := heap.New()
	inner := variant(h, "Some", 0, &typedast.PatternId{Name: h.Alloc("y")})
	arms := []Row{
		{Patterns: []typedast.Pattern{variant(h, "Some", 0, inner)}, ArmIndex: 0},
		{Patterns: []typedast.Pattern{&typedast.PatternWildcard{}}, ArmIndex: 1},
	}

	tree := Compile(arms)

	outer, ok := tree.(*SwitchNode)
	if !ok {
		t.Fatalf("expected outer SwitchNode, got %T", tree)
	}
	if len(outer.Cases) != 1 {
		t.Fatalf("expected 1 outer case, got %d", len(outer.Cases))
	}
	if _, ok := outer.Cases[0].Body.(*SwitchNode); !ok {
		t.Errorf("expected nested SwitchNode for the inner Some(), got %T", outer.Cases[0].Body)
	}
}

// TestDecisionTree_TupleFlattensWithoutBranching covers a tuple pattern
// wrapping a variant test: `match (a, b) { (Some(x), _) => 1, _ => 0 }`.
func TestDecisionTree_TupleFlattensWithoutBranching(t *testing.T) {
	h := heap.New()
	tuplePat := &typedast.PatternTuple{Elements: []typedast.Pattern{
		variant(h, "Some", 0, &typedast.PatternId{Name: h.Alloc("x")}),
		&typedast.PatternWildcard{},
	}}
	arms := []Row{
		{Patterns: []typedast.Pattern{tuplePat}, ArmIndex: 0},
		{Patterns: []typedast.Pattern{&typedast.PatternWildcard{}}, ArmIndex: 1},
	}

	tree := Compile(arms)

	sw, ok := tree.(*SwitchNode)
	if !ok {
		t.Fatalf("expected SwitchNode (tuple flattens directly to its first field's test), got %T", tree)
	}
	if len(sw.Cases) != 1 || sw.Cases[0].Tag != h.Alloc("Some") {
		t.Errorf("expected a single Some case after tuple flattening, got %+v", sw.Cases)
	}
}
