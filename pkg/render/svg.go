package render

import (
	"bytes"
	"encoding/xml"
	"fmt"

	"github.com/matzehuels/treetop/pkg/fonts"
	"github.com/matzehuels/treetop/pkg/graph"
	"github.com/matzehuels/treetop/pkg/layout"
)

const svgMargin = 24

// palette holds the colors of one theme.
type palette struct {
	background string
	nodeFill   string
	nodeStroke string
	title      string
	attrKey    string
	attrValue  string
	edge       string
}

var palettes = map[string]palette{
	ThemeLight: {
		background: "#ffffff",
		nodeFill:   "#f8f9fa",
		nodeStroke: "#adb5bd",
		title:      "#212529",
		attrKey:    "#868e96",
		attrValue:  "#495057",
		edge:       "#adb5bd",
	},
	ThemeDark: {
		background: "#1a1b1e",
		nodeFill:   "#25262b",
		nodeStroke: "#5c5f66",
		title:      "#f1f3f5",
		attrKey:    "#909296",
		attrValue:  "#c1c2c5",
		edge:       "#5c5f66",
	},
}

// SVG renders the graph as a standalone SVG document.
//
// Nodes draw as rounded boxes with the title on the first line and
// preview attributes below; an accent color, when present, becomes the
// box's left border. Edge point lists draw as polylines, except in
// curve mode where the four points are the anchors and control points
// of a cubic path.
func SVG(g *graph.Graph, opts Options) []byte {
	opts.SetDefaults()
	pal := palettes[opts.Theme]
	minX, minY, w, h := bounds(g, svgMargin)

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="%.1f %.1f %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		minX, minY, w, h, w, h)
	writeDefs(&buf, pal)
	fmt.Fprintf(&buf, `<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="%s"/>`+"\n", minX, minY, w, h, pal.background)

	// Edges under nodes.
	for _, e := range g.Edges {
		writeEdge(&buf, e, opts.LinkStyle)
	}
	for _, n := range g.Nodes {
		writeNode(&buf, n, pal)
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func writeDefs(buf *bytes.Buffer, pal palette) {
	fmt.Fprintf(buf, `<style>
  .node { fill: %s; stroke: %s; stroke-width: 1; }
  .title { fill: %s; font: 600 13px %s; }
  .attr-key { fill: %s; font: 11px %s; }
  .attr-val { fill: %s; font: 11px %s; }
  .edge { fill: none; stroke: %s; stroke-width: 1.5; }
</style>
`, pal.nodeFill, pal.nodeStroke, pal.title, fonts.FontFamily,
		pal.attrKey, fonts.MonoFontFamily, pal.attrValue, fonts.MonoFontFamily, pal.edge)
}

func writeNode(buf *bytes.Buffer, n *graph.Node, pal palette) {
	fmt.Fprintf(buf, `<g id="node-%s">`+"\n", escapeAttr(n.ID))
	fmt.Fprintf(buf, `<rect class="node" x="%.1f" y="%.1f" width="%.1f" height="%.1f" rx="6"/>`+"\n",
		n.X, n.Y, n.Width, n.Height)
	if n.Meta.Accent != "" {
		fmt.Fprintf(buf, `<rect x="%.1f" y="%.1f" width="4" height="%.1f" rx="2" fill="%s"/>`+"\n",
			n.X, n.Y, n.Height, escapeAttr(n.Meta.Accent))
	}

	tx, ty := n.X+12, n.Y+20
	fmt.Fprintf(buf, `<text class="title" x="%.1f" y="%.1f">%s</text>`+"\n", tx, ty, escapeText(n.Meta.Title))
	for i, a := range n.Meta.Attrs {
		y := ty + float64(i+1)*16
		if y > n.Y+n.Height-4 {
			break
		}
		fmt.Fprintf(buf, `<text class="attr-key" x="%.1f" y="%.1f">%s: <tspan class="attr-val">%s</tspan></text>`+"\n",
			tx, y, escapeText(a.Key), escapeText(a.Value))
	}
	buf.WriteString("</g>\n")
}

func writeEdge(buf *bytes.Buffer, e *graph.Edge, style layout.LinkStyle) {
	if len(e.Points) < 2 {
		return
	}
	fmt.Fprintf(buf, `<path class="edge" id="edge-%s" d="%s"/>`+"\n", escapeAttr(e.ID), pathData(e.Points, style))
}

// pathData builds the SVG path for an edge's points. Curve mode with
// four points treats them as anchor, control, control, anchor.
func pathData(pts []graph.Point, style layout.LinkStyle) string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "M %.1f %.1f", pts[0].X, pts[0].Y)
	if style == layout.LinkCurve && len(pts) == 4 {
		fmt.Fprintf(&buf, " C %.1f %.1f, %.1f %.1f, %.1f %.1f",
			pts[1].X, pts[1].Y, pts[2].X, pts[2].Y, pts[3].X, pts[3].Y)
		return buf.String()
	}
	for _, p := range pts[1:] {
		fmt.Fprintf(&buf, " L %.1f %.1f", p.X, p.Y)
	}
	return buf.String()
}

func escapeText(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

func escapeAttr(s string) string {
	return escapeText(s)
}
