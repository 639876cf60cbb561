package pipeline

import (
	"fmt"

	"github.com/matzehuels/treetop/pkg/cache"
	"github.com/matzehuels/treetop/pkg/graph"
	"github.com/matzehuels/treetop/pkg/jsondoc"
	"github.com/matzehuels/treetop/pkg/normalize"
)

// DocHash computes the content hash of a document, used as the cache
// key component for the normalize stage.
func DocHash(doc *jsondoc.Value) (string, error) {
	if doc == nil {
		return "", fmt.Errorf("document is nil")
	}
	data, err := doc.MarshalJSON()
	if err != nil {
		return "", fmt.Errorf("serialize document: %w", err)
	}
	return cache.Hash(data), nil
}

// runNormalize converts a document into a graph. Normalization itself
// never fails: any JSON document yields a graph, possibly empty.
func runNormalize(doc *jsondoc.Value, opts Options) *graph.Graph {
	return normalize.Normalize(doc, opts.Normalize)
}
