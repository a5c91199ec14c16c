package heap

import "testing"

func TestAllocDeterministic(t *testing.T) {
	h := New()
	a := h.Alloc("foo")
	b := h.Alloc("foo")
	if a != b {
		t.Fatalf("Alloc(\"foo\") not idempotent: %v != %v", a, b)
	}
	if h.Str(a) != "foo" {
		t.Fatalf("Str(%v) = %q, want foo", a, h.Str(a))
	}
}

func TestAllocModuleDeterministic(t *testing.T) {
	h := New()
	m1 := h.AllocModule([]string{"Foo", "Bar"})
	m2 := h.AllocModule([]string{"Foo", "Bar"})
	if m1 != m2 {
		t.Fatalf("AllocModule not idempotent: %v != %v", m1, m2)
	}
	if got := h.ModuleEncodedForm(m1); got != "Foo_Bar" {
		t.Fatalf("ModuleEncodedForm = %q, want Foo_Bar", got)
	}
}

func TestWellKnownStrings(t *testing.T) {
	h := New()
	if h.Alloc("this") != PStrThis {
		t.Fatalf("expected \"this\" to reuse the reserved id")
	}
	if h.Alloc("_") != PStrUnderscore {
		t.Fatalf("expected \"_\" to reuse the reserved id")
	}
}

func TestLocationUnion(t *testing.T) {
	l1 := Location{ModuleRef: ModuleRoot, Start: Position{1, 1}, End: Position{1, 5}}
	l2 := Location{ModuleRef: ModuleRoot, Start: Position{2, 1}, End: Position{2, 3}}
	u := l1.Union(l2)
	if u.Start != l1.Start || u.End != l2.End {
		t.Fatalf("Union = %+v, want start=%+v end=%+v", u, l1.Start, l2.End)
	}
}

func TestLocationContains(t *testing.T) {
	l := Location{ModuleRef: ModuleRoot, Start: Position{1, 1}, End: Position{3, 1}}
	if !l.Contains(Position{2, 5}) {
		t.Fatalf("expected location to contain (2,5)")
	}
	if l.Contains(Position{3, 1}) {
		t.Fatalf("end position should be exclusive")
	}
}
