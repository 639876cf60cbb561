package graph

import (
	"maps"
	"slices"
)

// visState tracks memoized visibility during an ancestor walk.
type visState int8

const (
	visUnknown visState = iota
	visWalking
	visHidden
	visShown
)

// Visible returns the subgraph currently visible under the given set of
// collapsed node ids. A node is hidden iff any strict ancestor is
// collapsed; a collapsed node itself stays visible (it is the handle for
// expanding again). Edges survive only when both endpoints are visible.
//
// When enabled is false the full graph is returned as a copy, so callers
// can always treat the result as theirs to own.
//
// # Performance
//
// Visibility is memoized per node: each node's hidden/shown state is
// computed once and reused by every descendant's walk, keeping a full
// query at O(V+E) instead of O(depth²) on deep chains. A walking marker
// guards against revisiting an ancestor on malformed cyclic input.
func Visible(g *Graph, idx *Index, collapsed map[string]bool, enabled bool) *Graph {
	if !enabled || len(collapsed) == 0 {
		return g.Clone()
	}

	state := make(map[string]visState, len(g.Nodes))
	var hidden func(id string) bool
	hidden = func(id string) bool {
		switch state[id] {
		case visHidden:
			return true
		case visShown:
			return false
		case visWalking:
			// Cycle guard: treat an in-progress ancestor as not hiding.
			return false
		}
		state[id] = visWalking
		result := false
		for _, parent := range idx.ParentsByID[id] {
			if collapsed[parent] || hidden(parent) {
				result = true
				break
			}
		}
		if result {
			state[id] = visHidden
		} else {
			state[id] = visShown
		}
		return result
	}

	out := New()
	out.Meta = Meta{PinY: maps.Clone(g.Meta.PinY), PinX: maps.Clone(g.Meta.PinX)}
	for _, n := range g.Nodes {
		if hidden(n.ID) {
			continue
		}
		cp := *n
		cp.Meta.Attrs = slices.Clone(n.Meta.Attrs)
		cp.Meta.ArrayCounts = maps.Clone(n.Meta.ArrayCounts)
		_ = out.AddNode(&cp)
	}
	for _, e := range g.Edges {
		if _, ok := out.Node(e.Source); !ok {
			continue
		}
		if _, ok := out.Node(e.Target); !ok {
			continue
		}
		cp := *e
		cp.Points = slices.Clone(e.Points)
		_ = out.AddEdge(&cp)
	}
	return out
}
