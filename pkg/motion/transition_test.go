package motion

import (
	"reflect"
	"testing"
	"time"

	"github.com/matzehuels/treetop/pkg/graph"
)

func singleNode(t *testing.T, x float64) *graph.Graph {
	t.Helper()
	g := graph.New()
	box(t, g, "a", x, 0, 100, 40)
	return g
}

func TestTransitionCompletes(t *testing.T) {
	start, end := singleNode(t, 0), singleNode(t, 200)
	tr := NewTransition(start, end, 100*time.Millisecond, nil)

	if tr.Done() {
		t.Fatal("Done() before any Advance")
	}

	mid, _ := tr.Advance(50 * time.Millisecond).Node("a")
	if mid.X <= 0 || mid.X >= 200 {
		t.Errorf("midway X = %v, want strictly between 0 and 200", mid.X)
	}

	final := tr.Advance(50 * time.Millisecond)
	if !tr.Done() {
		t.Error("Done() = false after full duration")
	}
	got, _ := final.Node("a")
	want, _ := end.Node("a")
	if !reflect.DeepEqual(*got, *want) {
		t.Errorf("final frame = %+v, want exact end %+v", got, want)
	}
}

func TestTransitionSupersede(t *testing.T) {
	start, end := singleNode(t, 0), singleNode(t, 200)
	tr := NewTransition(start, end, 100*time.Millisecond, nil)
	tr.Advance(50 * time.Millisecond)

	midFrame := tr.Latest()
	midNode, _ := midFrame.Node("a")

	// The superseding transition starts from the mid-animation frame,
	// not from the first transition's end graph.
	back := tr.Supersede(singleNode(t, 0), 100*time.Millisecond, nil)
	first, _ := back.Latest().Node("a")
	if first.X != midNode.X {
		t.Errorf("superseded start X = %v, want mid-frame X %v", first.X, midNode.X)
	}
}

func TestTransitionDoubleToggleRoundTrip(t *testing.T) {
	// Toggling twice before the first transition completes must land on
	// the original graph exactly.
	expanded, collapsed := singleNode(t, 0), singleNode(t, 200)

	tr := NewTransition(expanded, collapsed, 100*time.Millisecond, nil)
	tr.Advance(30 * time.Millisecond)

	tr = tr.Supersede(expanded, 100*time.Millisecond, nil)
	for !tr.Done() {
		tr.Advance(16 * time.Millisecond)
	}

	got, _ := tr.Latest().Node("a")
	want, _ := expanded.Node("a")
	if !reflect.DeepEqual(*got, *want) {
		t.Errorf("round-trip final = %+v, want original %+v", got, want)
	}
}

func TestTransitionAnchor(t *testing.T) {
	start, end := singleNode(t, 0), singleNode(t, 200)
	anchor := &Anchor{NodeID: "a", Screen: graph.Point{X: 400, Y: 300}}
	tr := NewTransition(start, end, 100*time.Millisecond, anchor)

	// Wherever the node is mid-flight, pan + center must equal the
	// anchor's screen coordinate.
	frame := tr.Advance(40 * time.Millisecond)
	pan, ok := tr.PanOffset()
	if !ok {
		t.Fatal("PanOffset() reported no anchor")
	}
	n, _ := frame.Node("a")
	c := n.Center()
	if c.X+pan.X != 400 || c.Y+pan.Y != 300 {
		t.Errorf("anchored center maps to (%v, %v), want (400, 300)", c.X+pan.X, c.Y+pan.Y)
	}
}

func TestTransitionMissingAnchorDisablesPreservation(t *testing.T) {
	start, end := singleNode(t, 0), singleNode(t, 200)
	tr := NewTransition(start, end, 100*time.Millisecond, &Anchor{NodeID: "gone"})

	tr.Advance(40 * time.Millisecond)
	if _, ok := tr.PanOffset(); ok {
		t.Error("PanOffset() reported an offset for a missing anchor node")
	}
}

func TestTransitionDefaultDuration(t *testing.T) {
	tr := NewTransition(singleNode(t, 0), singleNode(t, 10), 0, nil)
	tr.Advance(DefaultDuration)
	if !tr.Done() {
		t.Error("Done() = false after the default duration")
	}
}
