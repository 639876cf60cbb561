package graph

import (
	"fmt"
	"testing"
)

// chain builds $ -> $.a -> $.a.b -> $.a.b.c plus a second root branch.
func chainGraph(t *testing.T) (*Graph, *Index) {
	t.Helper()
	g := New()
	ids := []string{"$", "$.a", "$.a.b", "$.a.b.c", "$.z"}
	for _, id := range ids {
		if err := g.AddNode(&Node{ID: id}); err != nil {
			t.Fatalf("AddNode(%s) error = %v", id, err)
		}
	}
	edges := [][2]string{{"$", "$.a"}, {"$.a", "$.a.b"}, {"$.a.b", "$.a.b.c"}, {"$", "$.z"}}
	for _, e := range edges {
		if err := g.AddEdge(&Edge{Source: e[0], Target: e[1]}); err != nil {
			t.Fatalf("AddEdge error = %v", err)
		}
	}
	return g, BuildIndex(g)
}

func TestVisibleDisabledReturnsAll(t *testing.T) {
	g, idx := chainGraph(t)
	v := Visible(g, idx, map[string]bool{"$.a": true}, false)
	if v.NodeCount() != g.NodeCount() {
		t.Errorf("NodeCount = %d, want %d", v.NodeCount(), g.NodeCount())
	}
	if v.EdgeCount() != g.EdgeCount() {
		t.Errorf("EdgeCount = %d, want %d", v.EdgeCount(), g.EdgeCount())
	}
}

func TestVisibleCollapsedNodeStaysVisible(t *testing.T) {
	g, idx := chainGraph(t)
	v := Visible(g, idx, map[string]bool{"$.a": true}, true)

	if _, ok := v.Node("$.a"); !ok {
		t.Error("collapsed node $.a should remain visible")
	}
	if _, ok := v.Node("$.a.b"); ok {
		t.Error("$.a.b should be hidden under collapsed $.a")
	}
	if _, ok := v.Node("$.a.b.c"); ok {
		t.Error("$.a.b.c should be hidden under collapsed $.a")
	}
	if _, ok := v.Node("$.z"); !ok {
		t.Error("$.z is not a descendant of $.a and should be visible")
	}
}

func TestVisibleStrictAncestorRule(t *testing.T) {
	g, idx := chainGraph(t)

	// Collapsing a leaf hides nothing.
	v := Visible(g, idx, map[string]bool{"$.a.b.c": true}, true)
	if v.NodeCount() != g.NodeCount() {
		t.Errorf("NodeCount = %d, want %d", v.NodeCount(), g.NodeCount())
	}

	// Collapsing the root keeps only the root... and nothing else.
	v = Visible(g, idx, map[string]bool{"$": true}, true)
	if v.NodeCount() != 1 {
		t.Errorf("NodeCount = %d, want 1", v.NodeCount())
	}
	if _, ok := v.Node("$"); !ok {
		t.Error("root should remain visible when collapsed")
	}
}

func TestVisibleEdgesRequireBothEndpoints(t *testing.T) {
	g, idx := chainGraph(t)
	v := Visible(g, idx, map[string]bool{"$.a": true}, true)

	for _, e := range v.Edges {
		if _, ok := v.Node(e.Source); !ok {
			t.Errorf("edge %s has hidden source", e.ID)
		}
		if _, ok := v.Node(e.Target); !ok {
			t.Errorf("edge %s has hidden target", e.ID)
		}
	}
	// $ -> $.a survives, $.a -> $.a.b does not.
	if v.EdgeCount() != 2 {
		t.Errorf("EdgeCount = %d, want 2", v.EdgeCount())
	}
}

func TestVisibleDeepChainMemoization(t *testing.T) {
	// A long chain exercises the memoized walk; without memoization this
	// is quadratic and the test gets slow enough to notice.
	g := New()
	const depth = 5000
	prev := "$"
	if err := g.AddNode(&Node{ID: prev}); err != nil {
		t.Fatalf("AddNode error = %v", err)
	}
	for i := 0; i < depth; i++ {
		id := fmt.Sprintf("$[%d]", i)
		if err := g.AddNode(&Node{ID: id}); err != nil {
			t.Fatalf("AddNode error = %v", err)
		}
		if err := g.AddEdge(&Edge{Source: prev, Target: id}); err != nil {
			t.Fatalf("AddEdge error = %v", err)
		}
		prev = id
	}
	idx := BuildIndex(g)

	v := Visible(g, idx, map[string]bool{"$": true}, true)
	if v.NodeCount() != 1 {
		t.Errorf("NodeCount = %d, want 1", v.NodeCount())
	}
}
