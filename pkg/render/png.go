package render

import (
	"bytes"
	"fmt"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"

	"github.com/matzehuels/treetop/pkg/fonts"
	"github.com/matzehuels/treetop/pkg/graph"
	"github.com/matzehuels/treetop/pkg/layout"
)

// PNG renders the graph onto a raster canvas.
//
// The canvas is scaled by opts.Scale (2 by default) so text stays sharp
// on high-DPI displays. Drawing order matches the SVG sink: background,
// edges, node boxes, text.
func PNG(g *graph.Graph, opts Options) ([]byte, error) {
	opts.SetDefaults()
	pal := palettes[opts.Theme]
	minX, minY, w, h := bounds(g, svgMargin)

	regular, err := fonts.Regular()
	if err != nil {
		return nil, fmt.Errorf("load title font: %w", err)
	}
	mono, err := fonts.Mono()
	if err != nil {
		return nil, fmt.Errorf("load attr font: %w", err)
	}

	dc := gg.NewContext(int(w*opts.Scale), int(h*opts.Scale))
	dc.Scale(opts.Scale, opts.Scale)
	dc.Translate(-minX, -minY)

	dc.SetHexColor(pal.background)
	dc.DrawRectangle(minX, minY, w, h)
	dc.Fill()

	for _, e := range g.Edges {
		drawEdge(dc, e, pal, opts.LinkStyle)
	}
	for _, n := range g.Nodes {
		drawNode(dc, n, pal, regular, mono)
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func drawEdge(dc *gg.Context, e *graph.Edge, pal palette, style layout.LinkStyle) {
	pts := e.Points
	if len(pts) < 2 {
		return
	}
	dc.SetHexColor(pal.edge)
	dc.SetLineWidth(1.5)

	dc.MoveTo(pts[0].X, pts[0].Y)
	if style == layout.LinkCurve && len(pts) == 4 {
		dc.CubicTo(pts[1].X, pts[1].Y, pts[2].X, pts[2].Y, pts[3].X, pts[3].Y)
	} else {
		for _, p := range pts[1:] {
			dc.LineTo(p.X, p.Y)
		}
	}
	dc.Stroke()
}

func drawNode(dc *gg.Context, n *graph.Node, pal palette, regular, mono *truetype.Font) {
	dc.SetHexColor(pal.nodeFill)
	dc.DrawRoundedRectangle(n.X, n.Y, n.Width, n.Height, 6)
	dc.FillPreserve()
	dc.SetHexColor(pal.nodeStroke)
	dc.SetLineWidth(1)
	dc.Stroke()

	if n.Meta.Accent != "" {
		dc.SetHexColor(n.Meta.Accent)
		dc.DrawRoundedRectangle(n.X, n.Y, 4, n.Height, 2)
		dc.Fill()
	}

	tx, ty := n.X+12, n.Y+20
	dc.SetFontFace(fonts.Face(regular, 13))
	dc.SetHexColor(pal.title)
	dc.DrawString(n.Meta.Title, tx, ty)

	dc.SetFontFace(fonts.Face(mono, 11))
	dc.SetHexColor(pal.attrKey)
	for i, a := range n.Meta.Attrs {
		y := ty + float64(i+1)*16
		if y > n.Y+n.Height-4 {
			break
		}
		dc.DrawString(a.Key+": "+a.Value, tx, y)
	}
}
