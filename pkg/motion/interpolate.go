// Package motion animates between laid-out graphs.
//
// A transition interpolates node boxes and edge polylines from a start
// graph to an end graph over a fixed duration, with ease-in-out timing.
// The package is driven externally: the orchestrator owning the display
// clock calls Advance once per frame and renders whatever comes back.
// Nothing here spawns goroutines or sleeps.
package motion

import (
	"math"

	"github.com/matzehuels/treetop/pkg/graph"
)

// Ease is the ease-in-out timing curve applied to the linear time
// fraction: slow start, fast middle, slow stop (cubic on both halves).
func Ease(t float64) float64 {
	if t <= 0 {
		return 0
	}
	if t >= 1 {
		return 1
	}
	if t < 0.5 {
		return 4 * t * t * t
	}
	u := 2*t - 2
	return 1 + u*u*u/2
}

// Frame builds the intermediate graph at time fraction t in [0, 1].
//
// Every node of end is present in the frame. A node matched by id in
// start moves linearly (under the eased fraction) from its start box to
// its end box; an unmatched node (newly revealed) sits at its end
// position for the whole transition, so nothing flies in from an
// undefined origin. Coordinates are rounded to whole pixels on output;
// at t >= 1 the frame snaps to end's exact values so rounding never
// accumulates into the final state.
//
// Edge polylines are matched by edge id. The shorter point list is
// padded by repeating its last point before interpolating pointwise; an
// unmatched edge holds its end points. Neither start nor end is
// mutated.
func Frame(start, end *graph.Graph, t float64) *graph.Graph {
	if t >= 1 || start == nil {
		return end.Clone()
	}
	e := Ease(t)

	out := end.Clone()
	for _, n := range out.Nodes {
		from, ok := start.Node(n.ID)
		if !ok {
			continue
		}
		n.X = lerpRound(from.X, n.X, e)
		n.Y = lerpRound(from.Y, n.Y, e)
		n.Width = lerpRound(from.Width, n.Width, e)
		n.Height = lerpRound(from.Height, n.Height, e)
	}

	startEdges := make(map[string]*graph.Edge, len(start.Edges))
	for _, se := range start.Edges {
		startEdges[se.ID] = se
	}
	for _, edge := range out.Edges {
		se, ok := startEdges[edge.ID]
		if !ok || len(se.Points) == 0 || len(edge.Points) == 0 {
			continue
		}
		edge.Points = lerpPoints(se.Points, edge.Points, e)
	}
	return out
}

func lerpRound(a, b, t float64) float64 {
	return math.Round(a + (b-a)*t)
}

// lerpPoints interpolates two polylines pointwise, padding the shorter
// with its own last point.
func lerpPoints(from, to []graph.Point, t float64) []graph.Point {
	n := max(len(from), len(to))
	out := make([]graph.Point, n)
	for i := range out {
		a := from[min(i, len(from)-1)]
		b := to[min(i, len(to)-1)]
		out[i] = graph.Point{
			X: lerpRound(a.X, b.X, t),
			Y: lerpRound(a.Y, b.Y, t),
		}
	}
	return out
}

// Anchor pins one node to a fixed screen coordinate during a
// transition.
type Anchor struct {
	NodeID string
	Screen graph.Point
}

// Pan returns the global pan offset that maps the anchor node's current
// center onto the anchor's screen coordinate. The second return is
// false when the anchor node is not in the frame (collapsed away), in
// which case anchor preservation is silently disabled and the caller
// keeps its previous offset.
func Pan(frame *graph.Graph, a Anchor) (graph.Point, bool) {
	n, ok := frame.Node(a.NodeID)
	if !ok {
		return graph.Point{}, false
	}
	c := n.Center()
	return graph.Point{X: a.Screen.X - c.X, Y: a.Screen.Y - c.Y}, true
}
