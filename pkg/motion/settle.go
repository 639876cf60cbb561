package motion

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/treetop/pkg/graph"
)

// DefaultMaxSettlePasses bounds the measure→relayout loop.
const DefaultMaxSettlePasses = 5

// ApplyFunc lays out a graph using the given measured node sizes and
// returns the result. A nil size map means "no measurements yet".
type ApplyFunc func(sizes map[string]graph.Size) (*graph.Graph, error)

// MeasureFunc reports the rendered size of each node of a laid-out
// graph. It is called after the layout has been applied to the surface,
// so it may await one rendering frame internally.
type MeasureFunc func(ctx context.Context, g *graph.Graph) (map[string]graph.Size, error)

// SettleOptions configures the settle loop.
type SettleOptions struct {
	// MaxPasses caps the number of layout/measure iterations.
	// Non-positive values mean DefaultMaxSettlePasses.
	MaxPasses int

	// Logger, when set, receives a debug line when the loop stops at
	// the pass cap with sizes still changing.
	Logger *log.Logger
}

// Settle runs the bounded measure→relayout loop: lay out, measure the
// rendered result, and lay out again with the observed sizes until a
// pass reports no size changes or the pass cap is reached. Hitting the
// cap is not an error; the current layout is accepted as-is.
//
// Returns the settled graph and the number of layout passes executed.
func Settle(ctx context.Context, apply ApplyFunc, measure MeasureFunc, opts SettleOptions) (*graph.Graph, int, error) {
	maxPasses := opts.MaxPasses
	if maxPasses <= 0 {
		maxPasses = DefaultMaxSettlePasses
	}

	var sizes map[string]graph.Size
	var g *graph.Graph

	for pass := 1; ; pass++ {
		if err := ctx.Err(); err != nil {
			return nil, pass - 1, err
		}

		var err error
		g, err = apply(sizes)
		if err != nil {
			return nil, pass, err
		}

		measured, err := measure(ctx, g)
		if err != nil {
			return nil, pass, err
		}
		if !sizesChanged(g, measured) {
			return g, pass, nil
		}
		if pass >= maxPasses {
			if opts.Logger != nil {
				opts.Logger.Debug("settle loop hit pass cap with sizes still changing", "passes", pass)
			}
			return g, pass, nil
		}
		sizes = merged(sizes, measured)
	}
}

// sizesChanged reports whether any measured size differs from the size
// the layout currently assumes for that node.
func sizesChanged(g *graph.Graph, measured map[string]graph.Size) bool {
	for id, size := range measured {
		n, ok := g.Node(id)
		if !ok {
			continue
		}
		if n.Width != size.Width || n.Height != size.Height {
			return true
		}
	}
	return false
}

func merged(prev, next map[string]graph.Size) map[string]graph.Size {
	out := make(map[string]graph.Size, len(prev)+len(next))
	for id, s := range prev {
		out[id] = s
	}
	for id, s := range next {
		out[id] = s
	}
	return out
}
