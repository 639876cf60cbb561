package layout

import (
	"cmp"
	"math"
	"slices"

	"github.com/matzehuels/treetop/pkg/graph"
)

// Layout assigns coordinates to every node of a visible graph.
//
// The input graph is never mutated: Layout returns a fresh clone with
// X/Y/Width/Height filled in and the pin map in Meta updated. Pin
// entries for nodes absent from this layout are carried forward
// unchanged, so a node that collapses away and later reappears keeps a
// stable anchor coordinate for overlays.
//
// # Algorithm
//
// A two-phase tidy tree over the forest of root subtrees:
//
//  1. Measure (bottom-up): each node's subtree extent on the secondary
//     axis is its own size for a leaf, or the sum of its children's
//     extents plus a sibling gap between consecutive children.
//  2. Place (top-down): every depth level starts at the same main-axis
//     offset (the cumulative maximum node size of all shallower levels
//     plus level gaps), children pack consecutively along the secondary
//     axis inside their parent's allotted span, and the parent centers
//     on its first child or on the mean of all children depending on
//     the alignment mode. Root subtrees stack sequentially with a root
//     gap margin.
//
// Children are ordered by ChildOrder with id as tiebreak, so layout is
// fully deterministic for a given graph and settings.
//
// Nodes with a non-finite or non-positive size are measured as the
// default node size; the node's stored size is left untouched.
func Layout(g *graph.Graph, idx *graph.Index, s Settings) *graph.Graph {
	s.SetDefaults()

	out := g.Clone()
	outIdx := graph.BuildIndex(out)

	order := childOrdering(out, outIdx)
	depths := nodeDepths(out, outIdx, order)
	extents := measureExtents(out, outIdx, order, s)
	levels := levelOffsets(out, depths, s)

	pins := make(map[string]float64, len(out.Nodes))

	// Place each root subtree, stacked along the secondary axis.
	cursor := s.RootGap
	for _, root := range rootOrdering(out, outIdx) {
		place(out, outIdx, order, depths, extents, levels, pins, s, root, cursor)
		cursor += extents[root] + s.RootGap
	}

	recordPins(out, pins, s.Direction)
	return out
}

// place positions node id's subtree starting at secondary-axis offset
// start, using an explicit stack (children before parent on the second
// visit so parent centering sees final child positions).
func place(
	g *graph.Graph,
	idx *graph.Index,
	order map[string][]string,
	depths map[string]int,
	extents map[string]float64,
	levels []float64,
	pins map[string]float64,
	s Settings,
	id string,
	start float64,
) {
	type task struct {
		id     string
		start  float64
		placed bool // children already pushed
	}
	stack := []task{{id: id, start: start}}

	for len(stack) > 0 {
		t := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		node := idx.ByID[t.id]
		children := order[t.id]

		if len(children) == 0 {
			// Leaf: centered within its own allotted span.
			setPosition(node, levels[depths[t.id]], t.start+extents[t.id]/2, pins, s)
			continue
		}

		if !t.placed {
			// Revisit the parent after its children are placed.
			stack = append(stack, task{id: t.id, start: t.start, placed: true})
			// The span may be wider than the children block when the
			// node's own secondary size dominates its subtree extent;
			// center the block so the parent's box stays inside the span.
			childrenTotal := 0.0
			for i, c := range children {
				if i > 0 {
					childrenTotal += s.SiblingGap
				}
				childrenTotal += extents[c]
			}
			cursor := t.start + (extents[t.id]-childrenTotal)/2
			// Push in reverse so children pop in sibling order.
			offsets := make([]float64, len(children))
			for i, c := range children {
				offsets[i] = cursor
				cursor += extents[c] + s.SiblingGap
			}
			for i := len(children) - 1; i >= 0; i-- {
				stack = append(stack, task{id: children[i], start: offsets[i]})
			}
			continue
		}

		var center float64
		switch s.Align {
		case AlignFirstChild:
			center = secondaryCenter(idx.ByID[children[0]], s.Direction)
		default:
			sum := 0.0
			for _, c := range children {
				sum += secondaryCenter(idx.ByID[c], s.Direction)
			}
			center = sum / float64(len(children))
		}
		setPosition(node, levels[depths[t.id]], center, pins, s)
	}
}

// setPosition writes a node's coordinates from its main-axis offset and
// secondary-axis center, and records the center for the pin map.
func setPosition(n *graph.Node, mainOffset, secCenter float64, pins map[string]float64, s Settings) {
	w, h := nodeSize(n, s)
	if s.Direction == DirectionDownward {
		n.Y = mainOffset
		n.X = secCenter - w/2
	} else {
		n.X = mainOffset
		n.Y = secCenter - h/2
	}
	n.Width = w
	n.Height = h
	pins[n.ID] = secCenter
}

func secondaryCenter(n *graph.Node, d Direction) float64 {
	if d == DirectionDownward {
		return n.X + n.Width/2
	}
	return n.Y + n.Height/2
}

// nodeSize returns the size used for measurement, substituting defaults
// for invalid dimensions without mutating the node.
func nodeSize(n *graph.Node, s Settings) (w, h float64) {
	w, h = n.Width, n.Height
	if w <= 0 || math.IsNaN(w) || math.IsInf(w, 0) {
		w = s.DefaultNodeWidth
	}
	if h <= 0 || math.IsNaN(h) || math.IsInf(h, 0) {
		h = s.DefaultNodeHeight
	}
	return w, h
}

func mainSize(n *graph.Node, s Settings) float64 {
	w, h := nodeSize(n, s)
	if s.Direction == DirectionDownward {
		return h
	}
	return w
}

func secondarySize(n *graph.Node, s Settings) float64 {
	w, h := nodeSize(n, s)
	if s.Direction == DirectionDownward {
		return w
	}
	return h
}

// childOrdering sorts every adjacency list by ChildOrder, then id.
func childOrdering(g *graph.Graph, idx *graph.Index) map[string][]string {
	order := make(map[string][]string, len(idx.ChildrenByID))
	for parent, children := range idx.ChildrenByID {
		sorted := slices.Clone(children)
		slices.SortStableFunc(sorted, func(a, b string) int {
			na, nb := idx.ByID[a], idx.ByID[b]
			if c := cmp.Compare(na.Meta.ChildOrder, nb.Meta.ChildOrder); c != 0 {
				return c
			}
			return cmp.Compare(a, b)
		})
		order[parent] = sorted
	}
	return order
}

// rootOrdering returns the forest roots by ChildOrder, then id.
func rootOrdering(g *graph.Graph, idx *graph.Index) []string {
	roots := slices.Clone(idx.Roots)
	slices.SortStableFunc(roots, func(a, b string) int {
		na, nb := idx.ByID[a], idx.ByID[b]
		if c := cmp.Compare(na.Meta.ChildOrder, nb.Meta.ChildOrder); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})
	return roots
}

// nodeDepths computes each node's depth (roots at 0) top-down.
func nodeDepths(g *graph.Graph, idx *graph.Index, order map[string][]string) map[string]int {
	depths := make(map[string]int, len(g.Nodes))
	queue := slices.Clone(idx.Roots)
	for _, r := range queue {
		depths[r] = 0
	}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, c := range order[id] {
			if _, seen := depths[c]; seen {
				continue
			}
			depths[c] = depths[id] + 1
			queue = append(queue, c)
		}
	}
	return depths
}

// measureExtents computes every subtree's secondary-axis extent
// bottom-up with an explicit stack.
func measureExtents(g *graph.Graph, idx *graph.Index, order map[string][]string, s Settings) map[string]float64 {
	extents := make(map[string]float64, len(g.Nodes))

	type task struct {
		id       string
		expanded bool
	}
	var stack []task
	for _, r := range idx.Roots {
		stack = append(stack, task{id: r})
	}

	for len(stack) > 0 {
		t := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		children := order[t.id]
		if len(children) == 0 {
			extents[t.id] = secondarySize(idx.ByID[t.id], s)
			continue
		}
		if !t.expanded {
			stack = append(stack, task{id: t.id, expanded: true})
			for _, c := range children {
				stack = append(stack, task{id: c})
			}
			continue
		}
		total := 0.0
		for i, c := range children {
			if i > 0 {
				total += s.SiblingGap
			}
			total += extents[c]
		}
		// A subtree is never narrower than its own node.
		extents[t.id] = math.Max(total, secondarySize(idx.ByID[t.id], s))
	}
	return extents
}

// levelOffsets returns the main-axis start offset per depth level: the
// cumulative maximum node main-size of all shallower levels plus a
// level gap each.
func levelOffsets(g *graph.Graph, depths map[string]int, s Settings) []float64 {
	maxDepth := 0
	for _, d := range depths {
		maxDepth = max(maxDepth, d)
	}
	maxSize := make([]float64, maxDepth+1)
	for _, n := range g.Nodes {
		d := depths[n.ID]
		maxSize[d] = math.Max(maxSize[d], mainSize(n, s))
	}
	offsets := make([]float64, maxDepth+1)
	for d := 1; d <= maxDepth; d++ {
		offsets[d] = offsets[d-1] + maxSize[d-1] + s.LevelGap
	}
	return offsets
}

// recordPins merges this layout's secondary-axis centers into the pin
// map, keeping entries for nodes the layout did not include.
func recordPins(g *graph.Graph, pins map[string]float64, d Direction) {
	if d == DirectionDownward {
		if g.Meta.PinX == nil {
			g.Meta.PinX = make(map[string]float64, len(pins))
		}
		for id, c := range pins {
			g.Meta.PinX[id] = c
		}
		return
	}
	if g.Meta.PinY == nil {
		g.Meta.PinY = make(map[string]float64, len(pins))
	}
	for id, c := range pins {
		g.Meta.PinY[id] = c
	}
}
