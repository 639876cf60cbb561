// Package render turns laid-out graphs into display artifacts.
//
// Four sinks share one input, a graph with positioned nodes and routed
// edges:
//
//   - SVG: hand-built markup, the primary output.
//   - PNG: raster canvas drawing, for contexts without SVG support.
//   - DOT: Graphviz source with pinned node positions, plus a variant
//     rendered to SVG through the Graphviz engine for comparison against
//     the native layout.
//   - JSON: the positioned graph itself, for downstream tooling.
//
// The renderers draw what they are given: node boxes, titles, preview
// attributes, and edge polylines or curves. They never relayout.
package render

import (
	"context"
	"fmt"

	"github.com/matzehuels/treetop/pkg/graph"
	"github.com/matzehuels/treetop/pkg/layout"
)

// Format constants for output artifacts.
const (
	FormatSVG   = "svg"
	FormatPNG   = "png"
	FormatDOT   = "dot"
	FormatGVSVG = "gv-svg"
	FormatJSON  = "json"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:   true,
	FormatPNG:   true,
	FormatDOT:   true,
	FormatGVSVG: true,
	FormatJSON:  true,
}

// ValidateFormat checks that a format is supported.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return fmt.Errorf("invalid format: %q (must be one of: svg, png, dot, gv-svg, json)", format)
	}
	return nil
}

// Theme names.
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// Options configures rendering across all sinks.
type Options struct {
	// Theme selects the color palette (light or dark).
	Theme string `json:"theme,omitempty"`

	// Scale multiplies PNG output resolution. Default 2 for high-DPI
	// displays.
	Scale float64 `json:"scale,omitempty"`

	// LinkStyle tells the renderer how to interpret edge points: curve
	// points are anchor/control/control/anchor, everything else is a
	// polyline. Should match the settings the router ran with.
	LinkStyle layout.LinkStyle `json:"link_style,omitempty"`
}

// SetDefaults fills unset fields. Safe to call multiple times.
func (o *Options) SetDefaults() {
	switch o.Theme {
	case ThemeLight, ThemeDark:
	default:
		o.Theme = ThemeLight
	}
	if o.Scale <= 0 {
		o.Scale = 2
	}
	if o.LinkStyle == "" {
		o.LinkStyle = layout.LinkOrthogonal
	}
}

// Render produces one artifact in the requested format.
func Render(ctx context.Context, g *graph.Graph, format string, opts Options) ([]byte, error) {
	opts.SetDefaults()
	switch format {
	case FormatSVG:
		return SVG(g, opts), nil
	case FormatPNG:
		return PNG(g, opts)
	case FormatDOT:
		return []byte(DOT(g)), nil
	case FormatGVSVG:
		return GraphvizSVG(ctx, g)
	case FormatJSON:
		return graph.Marshal(g)
	}
	return nil, fmt.Errorf("invalid format: %q", format)
}

// bounds returns the bounding box of all nodes and edge points with a
// uniform margin, so artifacts never clip content laid out at negative
// coordinates.
func bounds(g *graph.Graph, margin float64) (minX, minY, width, height float64) {
	if g.NodeCount() == 0 {
		return 0, 0, 2 * margin, 2 * margin
	}
	minX, minY = g.Nodes[0].X, g.Nodes[0].Y
	maxX, maxY := minX, minY
	for _, n := range g.Nodes {
		minX = min(minX, n.X)
		minY = min(minY, n.Y)
		maxX = max(maxX, n.X+n.Width)
		maxY = max(maxY, n.Y+n.Height)
	}
	for _, e := range g.Edges {
		for _, p := range e.Points {
			minX = min(minX, p.X)
			minY = min(minY, p.Y)
			maxX = max(maxX, p.X)
			maxY = max(maxY, p.Y)
		}
	}
	return minX - margin, minY - margin, maxX - minX + 2*margin, maxY - minY + 2*margin
}
