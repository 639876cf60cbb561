// Package layout positions the nodes of a visible graph and routes its
// edges.
//
// The layout is a tidy tree over a forest: depth levels occupy fixed
// bands on the main axis, siblings stack without overlap on the
// secondary axis. Which concrete axis is "main" depends on the growth
// direction: forward growth advances x with depth and stacks siblings
// on y, downward growth advances y and stacks on x.
//
// Layout and Route are pure: they return fresh graphs and never mutate
// their input.
package layout

import "math"

// Direction selects the growth axis of the tree.
type Direction string

// Growth directions.
const (
	// DirectionForward grows left-to-right: x is the main axis.
	DirectionForward Direction = "forward"

	// DirectionDownward grows top-to-bottom: y is the main axis.
	DirectionDownward Direction = "downward"
)

// Align selects how a parent is positioned relative to its children on
// the secondary axis.
type Align string

// Alignment modes.
const (
	// AlignFirstChild centers the parent on its first child.
	AlignFirstChild Align = "alignFirstChild"

	// AlignCenter centers the parent on the mean of its children's
	// centers.
	AlignCenter Align = "alignCenter"
)

// LinkStyle selects the edge routing family for a diagram.
type LinkStyle string

// Link styles.
const (
	// LinkOrthogonal routes edges as L-shaped two-bend polylines.
	LinkOrthogonal LinkStyle = "orthogonal"

	// LinkCurve routes edges as cubic curves (anchor, control, control,
	// anchor).
	LinkCurve LinkStyle = "curve"

	// LinkLine routes edges as straight segments.
	LinkLine LinkStyle = "line"
)

// Default settings values.
const (
	DefaultLevelGap   = 80.0
	DefaultSiblingGap = 24.0
	DefaultRootGap    = 40.0

	DefaultNodeWidth  = 160.0
	DefaultNodeHeight = 56.0

	DefaultCurveTension  = 0.5
	DefaultLineThreshold = 24.0
)

// Settings configures layout and routing. The zero value is usable;
// SetDefaults (idempotent) fills in documented defaults and clamps
// invalid numeric fields so layout output is always finite.
type Settings struct {
	// Direction is the growth direction of the tree.
	Direction Direction `json:"direction,omitempty"`

	// Align positions parents relative to their children.
	Align Align `json:"align,omitempty"`

	// LinkStyle selects the edge routing family.
	LinkStyle LinkStyle `json:"link_style,omitempty"`

	// CurveTension scales the main-axis offset of curve control points,
	// clamped to [0, 1].
	CurveTension float64 `json:"curve_tension,omitempty"`

	// LineThreshold is the main-axis gap below which a curve collapses
	// to a straight segment.
	LineThreshold float64 `json:"line_threshold,omitempty"`

	// LevelGap is the main-axis distance between depth levels.
	LevelGap float64 `json:"level_gap,omitempty"`

	// SiblingGap is the secondary-axis distance between consecutive
	// sibling subtrees.
	SiblingGap float64 `json:"sibling_gap,omitempty"`

	// RootGap is the secondary-axis margin before the first root and
	// between stacked root subtrees.
	RootGap float64 `json:"root_gap,omitempty"`

	// DefaultNodeWidth and DefaultNodeHeight substitute for unmeasured
	// or invalid node sizes during measurement.
	DefaultNodeWidth  float64 `json:"default_node_width,omitempty"`
	DefaultNodeHeight float64 `json:"default_node_height,omitempty"`
}

// SetDefaults fills unset fields and clamps invalid numeric values.
// Safe to call multiple times.
func (s *Settings) SetDefaults() {
	switch s.Direction {
	case DirectionForward, DirectionDownward:
	default:
		s.Direction = DirectionForward
	}
	switch s.Align {
	case AlignFirstChild, AlignCenter:
	default:
		s.Align = AlignCenter
	}
	switch s.LinkStyle {
	case LinkOrthogonal, LinkCurve, LinkLine:
	default:
		s.LinkStyle = LinkOrthogonal
	}

	s.CurveTension = clamp(s.CurveTension, 0, 1, DefaultCurveTension)
	s.LineThreshold = positiveOr(s.LineThreshold, DefaultLineThreshold)
	s.LevelGap = positiveOr(s.LevelGap, DefaultLevelGap)
	s.SiblingGap = positiveOr(s.SiblingGap, DefaultSiblingGap)
	s.RootGap = positiveOr(s.RootGap, DefaultRootGap)
	s.DefaultNodeWidth = positiveOr(s.DefaultNodeWidth, DefaultNodeWidth)
	s.DefaultNodeHeight = positiveOr(s.DefaultNodeHeight, DefaultNodeHeight)
}

// clamp bounds v to [lo, hi], substituting fallback for non-finite or
// zero values (a zero tension means "unset", not "no tension").
func clamp(v, lo, hi, fallback float64) float64 {
	if v == 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return math.Min(hi, math.Max(lo, v))
}

// positiveOr returns v when it is a positive finite number, otherwise
// the fallback.
func positiveOr(v, fallback float64) float64 {
	if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return v
}
