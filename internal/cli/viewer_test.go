package cli

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/treetop/pkg/cache"
	"github.com/matzehuels/treetop/pkg/graph"
	"github.com/matzehuels/treetop/pkg/jsondoc"
	"github.com/matzehuels/treetop/pkg/pipeline"
)

func testViewer(t *testing.T) *viewerModel {
	t.Helper()
	doc, err := jsondoc.Parse([]byte(`{
		"name": "root",
		"children": [
			{"name": "a", "children": [{"name": "a1"}]},
			{"name": "b"}
		]
	}`))
	if err != nil {
		t.Fatal(err)
	}
	docHash, err := pipeline.DocHash(doc)
	if err != nil {
		t.Fatal(err)
	}

	runner := pipeline.NewRunner(cache.NewNullCache(), nil, testLogger())
	m, err := newViewerModel(context.Background(), runner, doc, docHash, "test.json", pipeline.Options{}, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	m.width = 120
	m.height = 40
	return m
}

func TestViewerInitialLayout(t *testing.T) {
	m := testViewer(t)

	if m.full.NodeCount() != 4 {
		t.Fatalf("full nodes = %d, want 4", m.full.NodeCount())
	}
	if m.target.NodeCount() != 4 {
		t.Errorf("target nodes = %d, want 4", m.target.NodeCount())
	}
	if m.selected != "$" {
		t.Errorf("selected = %q, want $", m.selected)
	}
	// Settled sizes reflect node content, not the defaults.
	root, _ := m.target.Node("$")
	if root.Width < float64(minNodeWidth) || root.Height < 3 {
		t.Errorf("root box = %vx%v", root.Width, root.Height)
	}
}

func TestViewerCollapseStartsTransition(t *testing.T) {
	m := testViewer(t)
	m.selected = "$.children[0]"

	cmd := m.toggleCollapse()
	if cmd == nil {
		t.Fatal("expected a frame tick command")
	}
	if m.transition == nil {
		t.Fatal("expected an active transition")
	}
	if !m.collapseEnabled {
		t.Error("first collapse should enable the filter")
	}
	// a1 is hidden, the collapsed node itself stays visible.
	if m.target.NodeCount() != 3 {
		t.Errorf("target nodes = %d, want 3", m.target.NodeCount())
	}
	if _, ok := m.target.Node("$.children[0]"); !ok {
		t.Error("collapsed node missing from target")
	}

	// Drive the animation to completion.
	now := time.Now()
	m.advance(now)
	if m.transition == nil {
		t.Fatal("transition finished too early")
	}
	m.advance(now.Add(2 * viewerTransition))
	if m.transition != nil {
		t.Error("transition should be done")
	}
	if m.current.NodeCount() != 3 {
		t.Errorf("current nodes = %d, want 3", m.current.NodeCount())
	}
}

func TestViewerDoubleToggleSupersedes(t *testing.T) {
	m := testViewer(t)
	m.selected = "$.children[0]"

	m.toggleCollapse()
	first := m.transition
	m.advance(time.Now())

	// Toggle back while the first animation is still in flight.
	m.toggleCollapse()
	if m.transition == nil || m.transition == first {
		t.Fatal("second toggle should supersede the transition")
	}
	if m.target.NodeCount() != 4 {
		t.Errorf("target nodes = %d, want 4", m.target.NodeCount())
	}
	if m.collapsed["$.children[0]"] {
		t.Error("node should be expanded again")
	}
}

func TestViewerPinsSurviveCollapse(t *testing.T) {
	m := testViewer(t)

	const hidden = "$.children[0].children[0]"
	before, ok := m.target.Meta.PinY[hidden]
	if !ok {
		t.Fatalf("no pin recorded for %s", hidden)
	}

	m.selected = "$.children[0]"
	m.toggleCollapse()

	if _, ok := m.target.Node(hidden); ok {
		t.Fatalf("%s should be hidden after collapse", hidden)
	}
	// The relayout excludes the node, but its anchor coordinate must
	// carry over from the previous layout.
	got, ok := m.target.Meta.PinY[hidden]
	if !ok {
		t.Fatal("pin for the hidden node was dropped by the relayout")
	}
	if got != before {
		t.Errorf("pin = %v, want %v carried from the previous layout", got, before)
	}
}

func TestViewerSelectionFallsBackToAncestor(t *testing.T) {
	m := testViewer(t)
	m.selected = "$.children[0].children[0]"

	// Collapse the parent: the selected node disappears.
	m.collapsed["$.children[0]"] = true
	m.collapseEnabled = true
	m.retarget()

	if m.selected != "$.children[0]" {
		t.Errorf("selected = %q, want nearest visible ancestor", m.selected)
	}
}

func TestNearestVisible(t *testing.T) {
	g := &graph.Graph{Nodes: []*graph.Node{
		{ID: "$"},
		{ID: "$.children[0]"},
	}}
	if got := nearestVisible(g, "$.children[0].kids[2]"); got != "$.children[0]" {
		t.Errorf("nearestVisible = %q", got)
	}
	if got := nearestVisible(g, "$.other"); got != "$" {
		t.Errorf("nearestVisible fallback = %q", got)
	}
}

func TestViewerMoveSelectionWraps(t *testing.T) {
	m := testViewer(t)

	m.moveSelection(-1)
	if m.selected == "$" {
		t.Error("selection should wrap to the last node")
	}
	m.moveSelection(1)
	if m.selected != "$" {
		t.Errorf("selected = %q, want $", m.selected)
	}
}

func TestViewerViewRendersBoxes(t *testing.T) {
	m := testViewer(t)

	out := m.View()
	if !strings.Contains(out, "root") {
		t.Error("view missing root title")
	}
	// The selected node renders with double borders.
	if !strings.Contains(out, "╔") {
		t.Error("view missing selection border")
	}
	if !strings.Contains(out, "test.json") {
		t.Error("status line missing document ref")
	}
}

func TestViewerUpdateHandlesKeys(t *testing.T) {
	m := testViewer(t)

	model, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'d'}})
	got := model.(*viewerModel)
	if got.settings.Direction != "downward" {
		t.Errorf("direction = %q, want downward", got.settings.Direction)
	}

	model, cmd := got.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Error("ctrl+c should quit")
	}
	_ = model
}

func TestViewerSessionState(t *testing.T) {
	m := testViewer(t)
	m.collapsed["$.children[1]"] = true
	m.collapseEnabled = true

	s := m.sessionState()
	if s.DocHash != m.docHash {
		t.Errorf("doc hash = %q", s.DocHash)
	}
	if len(s.Collapsed) != 1 || s.Collapsed[0] != "$.children[1]" {
		t.Errorf("collapsed = %v", s.Collapsed)
	}
	if !s.CollapseEnabled {
		t.Error("collapse flag not carried")
	}
}

func TestMeasureNode(t *testing.T) {
	n := &graph.Node{Meta: graph.NodeMeta{
		Title:       "root",
		Attrs:       []graph.Attr{{Key: "kind", Value: "demo"}},
		ArrayCounts: map[string]int{"children": 2},
	}}

	lines := nodeLines(n)
	want := []string{"root", "kind: demo", "children (2)"}
	if len(lines) != len(want) {
		t.Fatalf("lines = %v", lines)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}

	size := measureNode(n)
	if size.Height != 5 {
		t.Errorf("height = %v, want 5", size.Height)
	}
	if size.Width < float64(minNodeWidth) || size.Width > float64(maxNodeWidth) {
		t.Errorf("width = %v out of bounds", size.Width)
	}
}

func TestCanvasDrawing(t *testing.T) {
	cv := newCanvas(30, 10)
	n := &graph.Node{
		ID:    "$",
		Meta:  graph.NodeMeta{Title: "root"},
		X:     0, Y: 0, Width: 12, Height: 4,
	}
	cv.drawNode(n, 0, 0, false)
	cv.drawEdge(&graph.Edge{
		ID: "e", Source: "$", Target: "x",
		Points: []graph.Point{{X: 12, Y: 2}, {X: 20, Y: 2}},
	}, 0, 0, "orthogonal")

	out := cv.String()
	if !strings.Contains(out, "┌") || !strings.Contains(out, "root") {
		t.Errorf("canvas missing node box:\n%s", out)
	}
	if !strings.Contains(out, "─────") {
		t.Errorf("canvas missing edge line:\n%s", out)
	}
}
