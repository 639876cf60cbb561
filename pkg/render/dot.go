package render

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/treetop/pkg/graph"
)

// dotScale converts diagram pixels to Graphviz inches (72pt per inch).
const dotScale = 72.0

// DOT converts a positioned graph to Graphviz DOT source. Node positions
// are pinned with the "!" suffix so a neato pass reproduces the diagram's
// own layout instead of computing a new one. Y is flipped because
// Graphviz grows upward.
func DOT(g *graph.Graph) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  layout=neato;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  splines=polyline;\n")
	buf.WriteString("\n")

	for _, n := range g.Nodes {
		c := n.Center()
		attrs := []string{
			fmt.Sprintf("label=%q", dotLabel(n)),
			fmt.Sprintf("pos=\"%.3f,%.3f!\"", c.X/dotScale, -c.Y/dotScale),
			fmt.Sprintf("width=%.3f", n.Width/dotScale),
			fmt.Sprintf("height=%.3f", n.Height/dotScale),
			"fixedsize=true",
		}
		if n.Meta.Accent != "" {
			attrs = append(attrs, fmt.Sprintf("color=%q", n.Meta.Accent))
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range g.Edges {
		fmt.Fprintf(&buf, "  %q -> %q;\n", e.Source, e.Target)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func dotLabel(n *graph.Node) string {
	if len(n.Meta.Attrs) == 0 {
		return n.Meta.Title
	}
	parts := make([]string, 0, len(n.Meta.Attrs)+1)
	parts = append(parts, n.Meta.Title)
	for _, a := range n.Meta.Attrs {
		parts = append(parts, a.Key+": "+a.Value)
	}
	return strings.Join(parts, "\n")
}

// GraphvizSVG renders the graph through the Graphviz engine, useful for
// comparing the pinned layout against what neato draws from the same
// positions.
func GraphvizSVG(ctx context.Context, g *graph.Graph) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	parsed, err := graphviz.ParseBytes([]byte(DOT(g)))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer parsed.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, parsed, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the Graphviz SVG root element so the viewBox
// starts at the origin and width/height match it. Graphviz emits point
// units and scale transforms that confuse downstream embedding.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
