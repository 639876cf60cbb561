package layout

import (
	"math"

	"github.com/matzehuels/treetop/pkg/graph"
)

// Secondary-axis geometry constants for curve routing: anchors closer
// together than colinearEps get a bow so the curve does not degenerate
// into a flat line, and the bow is this fraction of the main-axis gap.
const (
	colinearEps = 0.5
	bowFraction = 0.25
)

// Route fills in the drawing points of every edge of a laid-out graph.
//
// Each edge connects the source node's trailing-edge midpoint (the side
// facing the growth direction) to the target node's leading-edge
// midpoint:
//
//   - orthogonal: a four-point L-shaped polyline bending at the
//     midpoint of the main-axis gap.
//   - line: the two anchors.
//   - curve: the two anchors plus two cubic control points. Controls
//     are offset from their anchor along the main axis by tension times
//     the main-axis gap; nearly colinear anchors additionally get a
//     secondary-axis bow so the curve never degenerates to a flat line.
//     Gaps below LineThreshold collapse to a straight segment.
//
// An edge whose source or target is missing from the graph keeps an
// empty point list. Route returns a fresh clone and never mutates its
// input.
func Route(g *graph.Graph, s Settings) *graph.Graph {
	s.SetDefaults()

	out := g.Clone()
	for _, e := range out.Edges {
		src, okS := out.Node(e.Source)
		tgt, okT := out.Node(e.Target)
		if !okS || !okT {
			e.Points = nil
			continue
		}
		e.Points = routeEdge(src, tgt, s)
	}
	return out
}

func routeEdge(src, tgt *graph.Node, s Settings) []graph.Point {
	a := anchorOut(src, s.Direction)
	b := anchorIn(tgt, s.Direction)

	switch s.LinkStyle {
	case LinkLine:
		return []graph.Point{a, b}
	case LinkCurve:
		return curvePoints(a, b, s)
	default:
		return orthogonalPoints(a, b, s.Direction)
	}
}

// anchorOut is the source anchor: the midpoint of the node side facing
// the growth direction.
func anchorOut(n *graph.Node, d Direction) graph.Point {
	if d == DirectionDownward {
		return graph.Point{X: n.X + n.Width/2, Y: n.Y + n.Height}
	}
	return graph.Point{X: n.X + n.Width, Y: n.Y + n.Height/2}
}

// anchorIn is the target anchor: the midpoint of the node side facing
// against the growth direction.
func anchorIn(n *graph.Node, d Direction) graph.Point {
	if d == DirectionDownward {
		return graph.Point{X: n.X + n.Width/2, Y: n.Y}
	}
	return graph.Point{X: n.X, Y: n.Y + n.Height/2}
}

func orthogonalPoints(a, b graph.Point, d Direction) []graph.Point {
	if d == DirectionDownward {
		midY := (a.Y + b.Y) / 2
		return []graph.Point{a, {X: a.X, Y: midY}, {X: b.X, Y: midY}, b}
	}
	midX := (a.X + b.X) / 2
	return []graph.Point{a, {X: midX, Y: a.Y}, {X: midX, Y: b.Y}, b}
}

// curvePoints emits anchor, control, control, anchor for a cubic curve.
func curvePoints(a, b graph.Point, s Settings) []graph.Point {
	var mainGap, secGap float64
	if s.Direction == DirectionDownward {
		mainGap, secGap = b.Y-a.Y, b.X-a.X
	} else {
		mainGap, secGap = b.X-a.X, b.Y-a.Y
	}

	if math.Abs(mainGap) < s.LineThreshold {
		return []graph.Point{a, b}
	}

	offset := s.CurveTension * mainGap
	bow := 0.0
	if math.Abs(secGap) < colinearEps {
		bow = bowFraction * mainGap
	}

	c1, c2 := a, b
	if s.Direction == DirectionDownward {
		c1.Y += offset
		c2.Y -= offset
		c1.X += bow
		c2.X += bow
	} else {
		c1.X += offset
		c2.X -= offset
		c1.Y += bow
		c2.Y += bow
	}
	return []graph.Point{a, c1, c2, b}
}
