// Package graph defines the node-link graph produced by normalization and
// consumed by layout, routing, and rendering.
//
// A Graph is plain serializable data: nodes in traversal order, edges, and
// graph-level metadata carrying the pin map. Derived lookups (node by id,
// adjacency) live in Index, which is built once per graph and passed
// explicitly to the algorithms that need it. Keeping adjacency out of the
// Graph itself means a deserialized or hand-built graph is never carrying
// stale indices.
//
// Graphs are treated as immutable once handed to a consumer: pipeline
// stages return fresh copies (see Clone) instead of mutating their input.
package graph

import (
	"errors"
	"maps"
	"slices"

	"github.com/matzehuels/treetop/pkg/jsondoc"
)

var (
	// ErrInvalidNodeID is returned by [Graph.AddNode] when the node ID is
	// empty. All nodes must have non-empty identifiers.
	ErrInvalidNodeID = errors.New("node ID must not be empty")

	// ErrDuplicateNodeID is returned by [Graph.AddNode] when a node with
	// the same ID already exists in the graph.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrUnknownSourceNode is returned by [Graph.AddEdge] when the Source
	// node does not exist in the graph.
	ErrUnknownSourceNode = errors.New("unknown source node")

	// ErrUnknownTargetNode is returned by [Graph.AddEdge] when the Target
	// node does not exist in the graph.
	ErrUnknownTargetNode = errors.New("unknown target node")
)

// Point is a coordinate in diagram space.
type Point struct {
	X float64 `json:"x" bson:"x"`
	Y float64 `json:"y" bson:"y"`
}

// Size is a width/height pair, used for measured node sizes.
type Size struct {
	Width  float64 `json:"width" bson:"width"`
	Height float64 `json:"height" bson:"height"`
}

// Attr is one preview attribute of a node. Attribute order follows the
// member order of the source document, so attrs are a slice, not a map.
type Attr struct {
	Key   string `json:"key" bson:"key"`
	Value string `json:"value" bson:"value"`
}

// NodeMeta carries the display metadata computed during normalization.
type NodeMeta struct {
	// Title is the node's display title, chosen via the title-key
	// priority list.
	Title string `json:"title" bson:"title"`

	// Attrs are the preview attributes: scalar and scalar-array members,
	// excluding the title source and hidden keys, capped during
	// normalization.
	Attrs []Attr `json:"attrs,omitempty" bson:"attrs,omitempty"`

	// ArrayCounts maps member keys to the length of their non-scalar
	// arrays (e.g. children: 3).
	ArrayCounts map[string]int `json:"array_counts,omitempty" bson:"array_counts,omitempty"`

	// Accent is an optional display color pulled from a reserved member
	// key during normalization. Renderers may ignore it.
	Accent string `json:"accent,omitempty" bson:"accent,omitempty"`

	// ChildOrder is the node's 0-based position among siblings under the
	// same parent, dense and unique per parent.
	ChildOrder int `json:"child_order" bson:"child_order"`
}

// Node is one entity in the diagram. X, Y, Width, and Height are zero
// until a layout pass fills them in.
type Node struct {
	ID     string         `json:"id" bson:"id"`
	Label  string         `json:"label,omitempty" bson:"label,omitempty"`
	Data   *jsondoc.Value `json:"data,omitempty" bson:"-"`
	Meta   NodeMeta       `json:"meta" bson:"meta"`
	X      float64        `json:"x,omitempty" bson:"x,omitempty"`
	Y      float64        `json:"y,omitempty" bson:"y,omitempty"`
	Width  float64        `json:"width,omitempty" bson:"width,omitempty"`
	Height float64        `json:"height,omitempty" bson:"height,omitempty"`
}

// Center returns the node's center point.
func (n *Node) Center() Point {
	return Point{X: n.X + n.Width/2, Y: n.Y + n.Height/2}
}

// Edge is a directed parent→child connection. Points, filled by the edge
// router, is the ordered polyline (or curve anchor/control sequence) used
// to draw the edge.
type Edge struct {
	ID     string  `json:"id" bson:"id"`
	Source string  `json:"source" bson:"source"`
	Target string  `json:"target" bson:"target"`
	Points []Point `json:"points,omitempty" bson:"points,omitempty"`
}

// EdgeID derives the canonical edge identifier for a source/target pair.
func EdgeID(source, target string) string {
	return source + "__" + target
}

// Meta is graph-level metadata. The pin maps record each node's
// secondary-axis center from the most recent layout: PinY for forward
// (left-to-right) growth, PinX for downward growth. Entries persist
// across relayouts so overlays keep stable anchor coordinates even for
// nodes the current layout does not include.
type Meta struct {
	PinY map[string]float64 `json:"pin_y,omitempty" bson:"pin_y,omitempty"`
	PinX map[string]float64 `json:"pin_x,omitempty" bson:"pin_x,omitempty"`
}

// Graph is a set of nodes and edges plus graph-level metadata.
// Node order is the normalizer's traversal order and is preserved by all
// pipeline stages. Graph is not safe for concurrent mutation.
type Graph struct {
	Nodes []*Node `json:"nodes" bson:"nodes"`
	Edges []*Edge `json:"edges" bson:"edges"`
	Meta  Meta    `json:"meta" bson:"meta"`

	byID map[string]*Node
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{byID: make(map[string]*Node)}
}

func (g *Graph) index() map[string]*Node {
	if g.byID == nil || len(g.byID) != len(g.Nodes) {
		g.byID = make(map[string]*Node, len(g.Nodes))
		for _, n := range g.Nodes {
			g.byID[n.ID] = n
		}
	}
	return g.byID
}

// AddNode appends a node to the graph.
// Returns ErrInvalidNodeID for empty ids and ErrDuplicateNodeID when the
// id is already present.
func (g *Graph) AddNode(n *Node) error {
	if n.ID == "" {
		return ErrInvalidNodeID
	}
	if _, exists := g.index()[n.ID]; exists {
		return ErrDuplicateNodeID
	}
	g.Nodes = append(g.Nodes, n)
	g.byID[n.ID] = n
	return nil
}

// AddEdge appends an edge to the graph. Both endpoints must already
// exist. An empty edge ID is filled in from EdgeID.
func (g *Graph) AddEdge(e *Edge) error {
	idx := g.index()
	if _, ok := idx[e.Source]; !ok {
		return ErrUnknownSourceNode
	}
	if _, ok := idx[e.Target]; !ok {
		return ErrUnknownTargetNode
	}
	if e.ID == "" {
		e.ID = EdgeID(e.Source, e.Target)
	}
	g.Edges = append(g.Edges, e)
	return nil
}

// Node returns the node with the given id.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.index()[id]
	return n, ok
}

// NodeIDs returns all node ids in graph order.
func (g *Graph) NodeIDs() []string {
	ids := make([]string, len(g.Nodes))
	for i, n := range g.Nodes {
		ids[i] = n.ID
	}
	return ids
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.Nodes) }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return len(g.Edges) }

// Clone returns a deep copy of the graph. Node Data subdocuments are
// shared with the original: they are source-document views and never
// mutated by the pipeline.
func (g *Graph) Clone() *Graph {
	out := &Graph{
		Nodes: make([]*Node, len(g.Nodes)),
		Edges: make([]*Edge, len(g.Edges)),
		Meta: Meta{
			PinY: maps.Clone(g.Meta.PinY),
			PinX: maps.Clone(g.Meta.PinX),
		},
	}
	for i, n := range g.Nodes {
		cp := *n
		cp.Meta.Attrs = slices.Clone(n.Meta.Attrs)
		cp.Meta.ArrayCounts = maps.Clone(n.Meta.ArrayCounts)
		out.Nodes[i] = &cp
	}
	for i, e := range g.Edges {
		cp := *e
		cp.Points = slices.Clone(e.Points)
		out.Edges[i] = &cp
	}
	return out
}

// =============================================================================
// Index - Derived Adjacency
// =============================================================================

// Index holds the adjacency derived from a graph's edge list. Build it
// once with BuildIndex and pass it to the visibility filter and layout
// engine; the index is valid as long as the graph's structure (not its
// coordinates) is unchanged.
type Index struct {
	ByID         map[string]*Node
	ChildrenByID map[string][]string
	ParentsByID  map[string][]string

	// Roots lists nodes with no parent edge, in graph order.
	Roots []string
}

// BuildIndex derives adjacency maps from the graph's edges.
// Children lists keep edge order; the normalizer emits edges in child
// order, so edge order and sibling order agree for normalized graphs.
func BuildIndex(g *Graph) *Index {
	idx := &Index{
		ByID:         make(map[string]*Node, len(g.Nodes)),
		ChildrenByID: make(map[string][]string),
		ParentsByID:  make(map[string][]string),
	}
	for _, n := range g.Nodes {
		idx.ByID[n.ID] = n
	}
	for _, e := range g.Edges {
		if _, ok := idx.ByID[e.Source]; !ok {
			continue
		}
		if _, ok := idx.ByID[e.Target]; !ok {
			continue
		}
		idx.ChildrenByID[e.Source] = append(idx.ChildrenByID[e.Source], e.Target)
		idx.ParentsByID[e.Target] = append(idx.ParentsByID[e.Target], e.Source)
	}
	for _, n := range g.Nodes {
		if len(idx.ParentsByID[n.ID]) == 0 {
			idx.Roots = append(idx.Roots, n.ID)
		}
	}
	return idx
}

// Children returns the child ids of a node in edge order.
func (idx *Index) Children(id string) []string { return idx.ChildrenByID[id] }

// Parents returns the parent ids of a node.
func (idx *Index) Parents(id string) []string { return idx.ParentsByID[id] }
