// Package normalize converts JSON documents into diagram graphs.
//
// Normalization walks a document depth-first and decides which values
// become visual nodes. An object with at least one scalar member is an
// "entity" and produces a node; arrays and non-entity objects are
// transparent wrappers that pass traversal through to their descendants
// without producing nodes of their own.
//
// Node ids are the JSONPath of the producing value ($.children[0]), so
// ids are stable across runs and across sibling insertions: a path only
// changes when the value actually moves.
//
// # Determinism
//
// Given the same document and options, normalization yields identical
// node ids, edge ids, and child orders on every call. This relies on the
// document model preserving declared member order; see
// [github.com/matzehuels/treetop/pkg/jsondoc].
package normalize

import (
	"strings"

	"github.com/matzehuels/treetop/pkg/graph"
	"github.com/matzehuels/treetop/pkg/jsondoc"
)

// Default option values.
var (
	// DefaultTitleKeys is the title-selection priority list.
	DefaultTitleKeys = []string{"title", "name", "label", "id", "key"}

	// DefaultAccentKeys are member keys reserved for display accents.
	// Matching members are excluded from preview attributes.
	DefaultAccentKeys = []string{"color", "accent"}
)

// DefaultMaxPreviewAttrs caps the preview attributes per node.
const DefaultMaxPreviewAttrs = 4

// Options configures normalization. The zero value is usable; call
// SetDefaults (idempotent) to fill in the documented defaults.
type Options struct {
	// TitleKeys is the priority list of member keys used to pick a
	// node's title. Matching is case-insensitive.
	TitleKeys []string `json:"title_keys,omitempty"`

	// HiddenKeys lists member keys excluded from preview attributes.
	HiddenKeys []string `json:"hidden_keys,omitempty"`

	// AccentKeys lists member keys whose scalar value becomes the node's
	// accent rather than a preview attribute.
	AccentKeys []string `json:"accent_keys,omitempty"`

	// MaxPreviewAttrs caps the preview attributes per node.
	MaxPreviewAttrs int `json:"max_preview_attrs,omitempty"`

	// MaxDepth bounds traversal depth, counting the root value as 0.
	// Zero means unlimited.
	MaxDepth int `json:"max_depth,omitempty"`

	// ScalarArraysAsAttribute renders an entity's scalar-only arrays as
	// a single joined preview attribute instead of traversing the
	// elements individually.
	ScalarArraysAsAttribute bool `json:"scalar_arrays_as_attribute,omitempty"`
}

// SetDefaults fills unset fields with defaults and clamps invalid
// numeric values. Safe to call multiple times.
func (o *Options) SetDefaults() {
	if o.TitleKeys == nil {
		o.TitleKeys = DefaultTitleKeys
	}
	if o.AccentKeys == nil {
		o.AccentKeys = DefaultAccentKeys
	}
	if o.MaxPreviewAttrs <= 0 {
		o.MaxPreviewAttrs = DefaultMaxPreviewAttrs
	}
	if o.MaxDepth < 0 {
		o.MaxDepth = 0
	}
}

// frame is one pending traversal step.
type frame struct {
	value  *jsondoc.Value
	path   string
	parent string // nearest ancestor entity's node id, "" for roots
	depth  int
}

// Normalize converts a document into a graph.
//
// # Algorithm
//
// The document is walked depth-first with an explicit stack (deeply
// nested untrusted input must not exhaust the call stack). For each
// object that qualifies as an entity, a node is created with the
// object's JSONPath as id, and an edge from the nearest ancestor entity.
// Arrays and non-entity objects are traversed transparently. Scalars
// never descend.
//
// Sibling order: children are visited in declared member order (array
// index order for arrays), and each created node receives a dense
// 0-based ChildOrder among the nodes created under the same parent.
// Edges are emitted in the same order.
func Normalize(doc *jsondoc.Value, opts Options) *graph.Graph {
	opts.SetDefaults()

	g := graph.New()
	if doc == nil {
		return g
	}

	childCount := make(map[string]int)
	stack := []frame{{value: doc, path: jsondoc.Root, depth: 0}}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		switch f.value.Kind {
		case jsondoc.KindObject:
			parentForChildren := f.parent
			if isEntity(f.value) {
				node := buildNode(f.value, f.path, opts)
				node.Meta.ChildOrder = childCount[f.parent]
				childCount[f.parent]++
				if err := g.AddNode(node); err != nil {
					// Duplicate paths cannot occur for tree-shaped
					// documents; skip rather than corrupt the graph.
					continue
				}
				if f.parent != "" {
					_ = g.AddEdge(&graph.Edge{Source: f.parent, Target: f.path})
				}
				parentForChildren = f.path
			}
			// Push members in reverse so they pop in declared order.
			for i := len(f.value.Members) - 1; i >= 0; i-- {
				m := f.value.Members[i]
				if !descends(m.Value, opts) {
					continue
				}
				if opts.MaxDepth > 0 && f.depth+1 > opts.MaxDepth {
					continue
				}
				stack = append(stack, frame{
					value:  m.Value,
					path:   jsondoc.ChildPath(f.path, m.Key),
					parent: parentForChildren,
					depth:  f.depth + 1,
				})
			}

		case jsondoc.KindArray:
			for i := len(f.value.Elems) - 1; i >= 0; i-- {
				e := f.value.Elems[i]
				if e.IsScalar() {
					continue
				}
				if opts.MaxDepth > 0 && f.depth+1 > opts.MaxDepth {
					continue
				}
				stack = append(stack, frame{
					value:  e,
					path:   jsondoc.ElemPath(f.path, i),
					parent: f.parent,
					depth:  f.depth + 1,
				})
			}
		}
	}

	return g
}

// descends reports whether a member value needs traversal.
func descends(v *jsondoc.Value, opts Options) bool {
	switch v.Kind {
	case jsondoc.KindObject:
		return true
	case jsondoc.KindArray:
		if len(v.Elems) == 0 {
			return false
		}
		if isScalarArray(v) && opts.ScalarArraysAsAttribute {
			return false
		}
		return true
	}
	return false
}

// isEntity reports whether an object has at least one scalar member.
func isEntity(v *jsondoc.Value) bool {
	if v == nil || v.Kind != jsondoc.KindObject {
		return false
	}
	for _, m := range v.Members {
		if m.Value.IsScalar() {
			return true
		}
	}
	return false
}

// isScalarArray reports whether a non-empty array holds only scalars.
func isScalarArray(v *jsondoc.Value) bool {
	if v.Kind != jsondoc.KindArray || len(v.Elems) == 0 {
		return false
	}
	for _, e := range v.Elems {
		if !e.IsScalar() {
			return false
		}
	}
	return true
}

// buildNode assembles the node for an entity object.
func buildNode(v *jsondoc.Value, path string, opts Options) *graph.Node {
	title, titleKey := pickTitle(v, opts.TitleKeys)

	node := &graph.Node{
		ID:    path,
		Label: title,
		Data:  v,
		Meta: graph.NodeMeta{
			Title: title,
		},
	}

	accentKey := ""
	for _, key := range opts.AccentKeys {
		if m, ok := fieldFold(v, key); ok && m.Value.IsScalar() && m.Value.Kind != jsondoc.KindNull {
			node.Meta.Accent = m.Value.ScalarString()
			accentKey = m.Key
			break
		}
	}

	for _, m := range v.Members {
		if m.Key == titleKey || m.Key == accentKey {
			continue
		}
		if containsFold(opts.HiddenKeys, m.Key) {
			continue
		}
		switch {
		case m.Value.IsScalar():
			if len(node.Meta.Attrs) < opts.MaxPreviewAttrs {
				node.Meta.Attrs = append(node.Meta.Attrs, graph.Attr{Key: m.Key, Value: m.Value.ScalarString()})
			}
		case isScalarArray(m.Value):
			if opts.ScalarArraysAsAttribute && len(node.Meta.Attrs) < opts.MaxPreviewAttrs {
				node.Meta.Attrs = append(node.Meta.Attrs, graph.Attr{Key: m.Key, Value: joinScalars(m.Value)})
			}
		case m.Value.Kind == jsondoc.KindArray && len(m.Value.Elems) > 0:
			if node.Meta.ArrayCounts == nil {
				node.Meta.ArrayCounts = make(map[string]int)
			}
			node.Meta.ArrayCounts[m.Key] = len(m.Value.Elems)
		}
	}

	return node
}

// pickTitle selects the node title and reports the member key it came
// from (so the key can be excluded from previews). Keys match
// case-insensitively in priority order; null and empty-string values are
// passed over. Falls back to the first usable scalar member, then to a
// placeholder.
func pickTitle(v *jsondoc.Value, titleKeys []string) (title, key string) {
	for _, want := range titleKeys {
		if m, ok := fieldFold(v, want); ok && usableTitle(m.Value) {
			return m.Value.ScalarString(), m.Key
		}
	}
	for _, m := range v.Members {
		if usableTitle(m.Value) {
			return m.Value.ScalarString(), m.Key
		}
	}
	return "untitled", ""
}

func usableTitle(v *jsondoc.Value) bool {
	return v.IsScalar() && v.Kind != jsondoc.KindNull && v.ScalarString() != ""
}

// fieldFold finds an object member by case-insensitive key.
func fieldFold(v *jsondoc.Value, key string) (jsondoc.Member, bool) {
	for _, m := range v.Members {
		if strings.EqualFold(m.Key, key) {
			return m, true
		}
	}
	return jsondoc.Member{}, false
}

func containsFold(keys []string, key string) bool {
	for _, k := range keys {
		if strings.EqualFold(k, key) {
			return true
		}
	}
	return false
}

func joinScalars(v *jsondoc.Value) string {
	parts := make([]string, len(v.Elems))
	for i, e := range v.Elems {
		parts[i] = e.ScalarString()
	}
	return strings.Join(parts, ", ")
}
