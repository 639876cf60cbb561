package pipeline

import (
	"context"
	"fmt"

	"github.com/matzehuels/treetop/pkg/graph"
	"github.com/matzehuels/treetop/pkg/render"
)

// runRender produces one artifact per requested format from a laid-out
// graph.
func runRender(ctx context.Context, laid *graph.Graph, opts Options) (map[string][]byte, error) {
	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		data, err := render.Render(ctx, laid, format, opts.renderOptions())
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}
