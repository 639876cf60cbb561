package normalize

import (
	"reflect"
	"testing"

	"github.com/matzehuels/treetop/pkg/graph"
	"github.com/matzehuels/treetop/pkg/jsondoc"
)

func parse(t *testing.T, input string) *jsondoc.Value {
	t.Helper()
	doc, err := jsondoc.Parse([]byte(input))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return doc
}

const familyDoc = `{"name":"A","children":[{"name":"B"},{"name":"C","children":[{"name":"D"}]}]}`

func TestNormalizeFamily(t *testing.T) {
	g := Normalize(parse(t, familyDoc), Options{})

	wantIDs := []string{"$", "$.children[0]", "$.children[1]", "$.children[1].children[0]"}
	if got := g.NodeIDs(); !reflect.DeepEqual(got, wantIDs) {
		t.Errorf("NodeIDs() = %v, want %v", got, wantIDs)
	}

	if g.EdgeCount() != 3 {
		t.Errorf("EdgeCount = %d, want 3", g.EdgeCount())
	}

	wantEdges := []string{"$__$.children[0]", "$__$.children[1]", "$.children[1]__$.children[1].children[0]"}
	for i, e := range g.Edges {
		if e.ID != wantEdges[i] {
			t.Errorf("edge[%d].ID = %q, want %q", i, e.ID, wantEdges[i])
		}
	}

	titles := map[string]string{
		"$":                         "A",
		"$.children[0]":             "B",
		"$.children[1]":             "C",
		"$.children[1].children[0]": "D",
	}
	for id, want := range titles {
		n, ok := g.Node(id)
		if !ok {
			t.Fatalf("Node(%s) missing", id)
		}
		if n.Meta.Title != want {
			t.Errorf("Node(%s).Title = %q, want %q", id, n.Meta.Title, want)
		}
	}
}

func TestNormalizeChildOrderDense(t *testing.T) {
	g := Normalize(parse(t, familyDoc), Options{})

	orders := map[string]int{
		"$":                         0,
		"$.children[0]":             0,
		"$.children[1]":             1,
		"$.children[1].children[0]": 0,
	}
	for id, want := range orders {
		n, _ := g.Node(id)
		if n.Meta.ChildOrder != want {
			t.Errorf("Node(%s).ChildOrder = %d, want %d", id, n.Meta.ChildOrder, want)
		}
	}
}

func TestNormalizeDeterminism(t *testing.T) {
	doc := parse(t, `{"name":"x","metrics":{"cpu":1,"mem":2},"items":[{"id":1},{"id":2}]}`)

	a := Normalize(doc, Options{})
	b := Normalize(doc, Options{})

	if !reflect.DeepEqual(a.NodeIDs(), b.NodeIDs()) {
		t.Errorf("node ids differ between runs: %v vs %v", a.NodeIDs(), b.NodeIDs())
	}
	for i := range a.Edges {
		if a.Edges[i].ID != b.Edges[i].ID {
			t.Errorf("edge[%d] differs: %q vs %q", i, a.Edges[i].ID, b.Edges[i].ID)
		}
	}
	for i := range a.Nodes {
		if a.Nodes[i].Meta.ChildOrder != b.Nodes[i].Meta.ChildOrder {
			t.Errorf("node %s ChildOrder differs", a.Nodes[i].ID)
		}
	}
}

func TestNormalizeIDStability(t *testing.T) {
	// Appending a sibling must not change pre-existing ids.
	before := Normalize(parse(t, `{"name":"A","children":[{"name":"B"}]}`), Options{})
	after := Normalize(parse(t, `{"name":"A","children":[{"name":"B"},{"name":"NEW"}]}`), Options{})

	for _, id := range before.NodeIDs() {
		if _, ok := after.Node(id); !ok {
			t.Errorf("id %s missing after sibling insertion", id)
		}
	}
}

func TestNormalizeWrappersAreTransparent(t *testing.T) {
	// Neither the root (no scalar members) nor "wrap" produce nodes; the
	// nested entity hangs directly off nothing (a root).
	g := Normalize(parse(t, `{"wrap":{"deep":{"name":"leaf","v":1}}}`), Options{})

	wantIDs := []string{"$.wrap.deep"}
	if got := g.NodeIDs(); !reflect.DeepEqual(got, wantIDs) {
		t.Errorf("NodeIDs() = %v, want %v", got, wantIDs)
	}
	if g.EdgeCount() != 0 {
		t.Errorf("EdgeCount = %d, want 0", g.EdgeCount())
	}
}

func TestNormalizeWrapperBridgesToNearestEntity(t *testing.T) {
	// The "groups" wrapper array is transparent: entities below it
	// connect to the root entity.
	g := Normalize(parse(t, `{"name":"root","groups":[[{"name":"inner","v":1}]]}`), Options{})

	if _, ok := g.Node("$.groups[0][0]"); !ok {
		t.Fatalf("nested entity missing, ids = %v", g.NodeIDs())
	}
	if g.EdgeCount() != 1 {
		t.Fatalf("EdgeCount = %d, want 1", g.EdgeCount())
	}
	if g.Edges[0].Source != "$" || g.Edges[0].Target != "$.groups[0][0]" {
		t.Errorf("edge = %s -> %s, want $ -> $.groups[0][0]", g.Edges[0].Source, g.Edges[0].Target)
	}
}

func TestNormalizeArrayRoots(t *testing.T) {
	g := Normalize(parse(t, `[{"name":"a"},{"name":"b"}]`), Options{})

	wantIDs := []string{"$[0]", "$[1]"}
	if got := g.NodeIDs(); !reflect.DeepEqual(got, wantIDs) {
		t.Errorf("NodeIDs() = %v, want %v", got, wantIDs)
	}
	idx := graph.BuildIndex(g)
	if len(idx.Roots) != 2 {
		t.Errorf("Roots = %v, want two roots", idx.Roots)
	}
	// Root ordering is recorded through ChildOrder.
	a, _ := g.Node("$[0]")
	b, _ := g.Node("$[1]")
	if a.Meta.ChildOrder != 0 || b.Meta.ChildOrder != 1 {
		t.Errorf("root ChildOrders = %d, %d, want 0, 1", a.Meta.ChildOrder, b.Meta.ChildOrder)
	}
}

func TestNormalizeScalarArrayAsAttribute(t *testing.T) {
	input := `{"name":"n","tags":["red","blue"]}`

	joined := Normalize(parse(t, input), Options{ScalarArraysAsAttribute: true})
	n, _ := joined.Node("$")
	if len(n.Meta.Attrs) != 1 {
		t.Fatalf("Attrs = %v, want one joined attr", n.Meta.Attrs)
	}
	if n.Meta.Attrs[0].Key != "tags" || n.Meta.Attrs[0].Value != "red, blue" {
		t.Errorf("Attrs[0] = %+v, want {tags red, blue}", n.Meta.Attrs[0])
	}

	split := Normalize(parse(t, input), Options{ScalarArraysAsAttribute: false})
	n, _ = split.Node("$")
	if len(n.Meta.Attrs) != 0 {
		t.Errorf("Attrs = %v, want none without joining", n.Meta.Attrs)
	}
	// Scalar elements never become nodes either way.
	if split.NodeCount() != 1 {
		t.Errorf("NodeCount = %d, want 1", split.NodeCount())
	}
}

func TestNormalizeArrayCounts(t *testing.T) {
	g := Normalize(parse(t, `{"name":"n","children":[{"name":"c"}],"notes":["a"],"empty":[]}`), Options{ScalarArraysAsAttribute: true})
	n, _ := g.Node("$")

	if got := n.Meta.ArrayCounts["children"]; got != 1 {
		t.Errorf("ArrayCounts[children] = %d, want 1", got)
	}
	if _, ok := n.Meta.ArrayCounts["notes"]; ok {
		t.Error("scalar-only array counted, want excluded")
	}
	if _, ok := n.Meta.ArrayCounts["empty"]; ok {
		t.Error("empty array counted, want excluded")
	}
}

func TestNormalizeMaxDepth(t *testing.T) {
	input := `{"name":"r","children":[{"name":"c1","children":[{"name":"c2"}]}]}`

	unlimited := Normalize(parse(t, input), Options{})
	if unlimited.NodeCount() != 3 {
		t.Errorf("unlimited NodeCount = %d, want 3", unlimited.NodeCount())
	}

	// Depth 2 reaches $.children[0] (depth 2) but not its children.
	capped := Normalize(parse(t, input), Options{MaxDepth: 2})
	if capped.NodeCount() != 2 {
		t.Errorf("capped NodeCount = %d, want 2, ids = %v", capped.NodeCount(), capped.NodeIDs())
	}
}

func TestNormalizeTitlePriority(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"title wins over name", `{"title":"T","name":"N"}`, "T"},
		{"name when no title", `{"name":"N","id":"I"}`, "N"},
		{"case-insensitive", `{"Name":"N"}`, "N"},
		{"skips empty", `{"name":"","id":"I"}`, "I"},
		{"skips null", `{"name":null,"id":"I"}`, "I"},
		{"first scalar fallback", `{"weight":12,"height":3}`, "12"},
		{"placeholder", `{"x":null}`, "untitled"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := Normalize(parse(t, tt.input), Options{})
			if g.NodeCount() != 1 {
				t.Fatalf("NodeCount = %d, want 1", g.NodeCount())
			}
			if got := g.Nodes[0].Meta.Title; got != tt.want {
				t.Errorf("Title = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNormalizePreviewAttrs(t *testing.T) {
	g := Normalize(parse(t, `{"name":"n","a":1,"b":"two","secret":"x","c":true,"d":4,"e":5}`), Options{
		HiddenKeys: []string{"secret"},
	})
	n, _ := g.Node("$")

	// name is the title source, secret is hidden, cap is 4.
	want := []graph.Attr{{Key: "a", Value: "1"}, {Key: "b", Value: "two"}, {Key: "c", Value: "true"}, {Key: "d", Value: "4"}}
	if !reflect.DeepEqual(n.Meta.Attrs, want) {
		t.Errorf("Attrs = %v, want %v", n.Meta.Attrs, want)
	}
}

func TestNormalizeAccentKey(t *testing.T) {
	g := Normalize(parse(t, `{"name":"n","color":"#ff0000","v":1}`), Options{})
	n, _ := g.Node("$")

	if n.Meta.Accent != "#ff0000" {
		t.Errorf("Accent = %q, want %q", n.Meta.Accent, "#ff0000")
	}
	for _, a := range n.Meta.Attrs {
		if a.Key == "color" {
			t.Error("accent key leaked into preview attrs")
		}
	}
}

func TestNormalizeScalarRootProducesEmptyGraph(t *testing.T) {
	g := Normalize(parse(t, `42`), Options{})
	if g.NodeCount() != 0 {
		t.Errorf("NodeCount = %d, want 0", g.NodeCount())
	}
	if g = Normalize(nil, Options{}); g.NodeCount() != 0 {
		t.Errorf("NodeCount(nil) = %d, want 0", g.NodeCount())
	}
}
