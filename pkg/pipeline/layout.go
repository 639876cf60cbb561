package pipeline

import (
	"github.com/matzehuels/treetop/pkg/graph"
	"github.com/matzehuels/treetop/pkg/layout"
)

// runLayout filters visibility, applies measured sizes, positions nodes,
// and routes edges. The input graph is never mutated; the returned graph
// carries the updated pin map in its metadata.
func runLayout(g *graph.Graph, opts Options) *graph.Graph {
	idx := graph.BuildIndex(g)
	visible := graph.Visible(g, idx, opts.collapsedSet(), opts.CollapseEnabled)
	applySizes(visible, opts.Sizes)

	vidx := graph.BuildIndex(visible)
	laid := layout.Layout(visible, vidx, opts.Layout)
	return layout.Route(laid, opts.Layout)
}

// applySizes writes measured sizes onto the nodes of a pipeline-local
// graph. Ids without a measurement keep their current size and fall back
// to the layout defaults.
func applySizes(g *graph.Graph, sizes map[string]graph.Size) {
	if len(sizes) == 0 {
		return
	}
	for _, n := range g.Nodes {
		if s, ok := sizes[n.ID]; ok {
			n.Width = s.Width
			n.Height = s.Height
		}
	}
}
