package layout

import (
	"reflect"
	"testing"

	"github.com/matzehuels/treetop/pkg/graph"
)

// pairGraph builds two laid-out nodes and one edge between them.
func pairGraph(t *testing.T, sx, sy, tx, ty float64) *graph.Graph {
	t.Helper()
	g := graph.New()
	for _, n := range []*graph.Node{
		{ID: "a", X: sx, Y: sy, Width: 100, Height: 40},
		{ID: "b", X: tx, Y: ty, Width: 100, Height: 40},
	} {
		if err := g.AddNode(n); err != nil {
			t.Fatalf("AddNode() error = %v", err)
		}
	}
	if err := g.AddEdge(&graph.Edge{Source: "a", Target: "b"}); err != nil {
		t.Fatalf("AddEdge() error = %v", err)
	}
	return g
}

func TestRouteOrthogonal(t *testing.T) {
	g := pairGraph(t, 0, 0, 200, 80)
	out := Route(g, Settings{LinkStyle: LinkOrthogonal})

	// Source trailing midpoint (100, 20) to target leading midpoint
	// (200, 100), bending at the main-axis mid gap x=150.
	want := []graph.Point{{X: 100, Y: 20}, {X: 150, Y: 20}, {X: 150, Y: 100}, {X: 200, Y: 100}}
	if got := out.Edges[0].Points; !reflect.DeepEqual(got, want) {
		t.Errorf("Points = %v, want %v", got, want)
	}
}

func TestRouteOrthogonalDownward(t *testing.T) {
	g := pairGraph(t, 0, 0, 80, 200)
	out := Route(g, Settings{LinkStyle: LinkOrthogonal, Direction: DirectionDownward})

	want := []graph.Point{{X: 50, Y: 40}, {X: 50, Y: 120}, {X: 130, Y: 120}, {X: 130, Y: 200}}
	if got := out.Edges[0].Points; !reflect.DeepEqual(got, want) {
		t.Errorf("Points = %v, want %v", got, want)
	}
}

func TestRouteLine(t *testing.T) {
	g := pairGraph(t, 0, 0, 200, 80)
	out := Route(g, Settings{LinkStyle: LinkLine})

	want := []graph.Point{{X: 100, Y: 20}, {X: 200, Y: 100}}
	if got := out.Edges[0].Points; !reflect.DeepEqual(got, want) {
		t.Errorf("Points = %v, want %v", got, want)
	}
}

func TestRouteCurve(t *testing.T) {
	g := pairGraph(t, 0, 0, 200, 80)
	out := Route(g, Settings{LinkStyle: LinkCurve, CurveTension: 0.5, LineThreshold: 24})

	// Main gap 100, controls offset by 0.5*100 from each anchor. The
	// anchors differ on y, so no bow is added.
	want := []graph.Point{{X: 100, Y: 20}, {X: 150, Y: 20}, {X: 150, Y: 100}, {X: 200, Y: 100}}
	if got := out.Edges[0].Points; !reflect.DeepEqual(got, want) {
		t.Errorf("Points = %v, want %v", got, want)
	}
}

func TestRouteCurveBowWhenColinear(t *testing.T) {
	g := pairGraph(t, 0, 0, 200, 0)
	out := Route(g, Settings{LinkStyle: LinkCurve, CurveTension: 0.5, LineThreshold: 24})

	// Anchors share y=20; both controls bow by 0.25*100 on y.
	want := []graph.Point{{X: 100, Y: 20}, {X: 150, Y: 45}, {X: 150, Y: 45}, {X: 200, Y: 20}}
	if got := out.Edges[0].Points; !reflect.DeepEqual(got, want) {
		t.Errorf("Points = %v, want %v", got, want)
	}
}

func TestRouteCurveCollapsesBelowThreshold(t *testing.T) {
	// Nodes 10 apart on the main axis: gap below the threshold.
	g := pairGraph(t, 0, 0, 110, 80)
	out := Route(g, Settings{LinkStyle: LinkCurve, CurveTension: 0.5, LineThreshold: 24})

	if got := len(out.Edges[0].Points); got != 2 {
		t.Errorf("len(Points) = %d, want 2 (straight segment)", got)
	}
}

func TestRouteDanglingEdge(t *testing.T) {
	g := pairGraph(t, 0, 0, 200, 80)
	g.Edges = append(g.Edges, &graph.Edge{ID: "a__gone", Source: "a", Target: "gone", Points: []graph.Point{{X: 1, Y: 1}}})

	out := Route(g, Settings{})

	if got := out.Edges[1].Points; len(got) != 0 {
		t.Errorf("dangling edge Points = %v, want empty", got)
	}
	// The valid edge is still routed.
	if got := len(out.Edges[0].Points); got == 0 {
		t.Error("valid edge not routed")
	}
}

func TestRouteEndpointProperty(t *testing.T) {
	for _, style := range []LinkStyle{LinkOrthogonal, LinkLine} {
		g := pairGraph(t, 10, 30, 250, 140)
		out := Route(g, Settings{LinkStyle: style})

		src, _ := out.Node("a")
		tgt, _ := out.Node("b")
		pts := out.Edges[0].Points

		first, last := pts[0], pts[len(pts)-1]
		wantFirst := graph.Point{X: src.X + src.Width, Y: src.Y + src.Height/2}
		wantLast := graph.Point{X: tgt.X, Y: tgt.Y + tgt.Height/2}
		if first != wantFirst {
			t.Errorf("%s: first point = %v, want %v", style, first, wantFirst)
		}
		if last != wantLast {
			t.Errorf("%s: last point = %v, want %v", style, last, wantLast)
		}
	}
}
