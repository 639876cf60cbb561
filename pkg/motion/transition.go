package motion

import (
	"time"

	"github.com/matzehuels/treetop/pkg/graph"
)

// DefaultDuration is the transition length used when the caller passes
// a non-positive duration.
const DefaultDuration = 300 * time.Millisecond

// Transition animates from a start graph to an end graph. It carries no
// clock of its own: the owner calls Advance with elapsed wall time once
// per display frame and renders the returned graph. A Transition is not
// safe for concurrent use; per the pipeline's concurrency model there
// is exactly one in flight at a time.
type Transition struct {
	start    *graph.Graph
	end      *graph.Graph
	duration time.Duration
	elapsed  time.Duration
	latest   *graph.Graph
	anchor   *Anchor
	pan      graph.Point
	hasPan   bool
}

// NewTransition starts a transition between two laid-out graphs.
// A nil anchor disables anchor preservation.
func NewTransition(start, end *graph.Graph, duration time.Duration, anchor *Anchor) *Transition {
	if duration <= 0 {
		duration = DefaultDuration
	}
	t := &Transition{
		start:    start,
		end:      end,
		duration: duration,
		anchor:   anchor,
	}
	t.latest = Frame(start, end, 0)
	if anchor != nil {
		t.pan, t.hasPan = Pan(t.latest, *anchor)
	}
	return t
}

// Advance moves the transition forward by dt and returns the frame to
// render. Once the accumulated time reaches the duration the frame is
// exactly the end graph and Done reports true.
func (t *Transition) Advance(dt time.Duration) *graph.Graph {
	t.elapsed += dt
	frac := float64(t.elapsed) / float64(t.duration)
	t.latest = Frame(t.start, t.end, frac)
	if t.anchor != nil {
		if pan, ok := Pan(t.latest, *t.anchor); ok {
			t.pan, t.hasPan = pan, true
		}
	}
	return t.latest
}

// Latest returns the most recently computed frame. Before the first
// Advance this is the frame at t=0.
func (t *Transition) Latest() *graph.Graph { return t.latest }

// Done reports whether the transition has reached its end graph.
func (t *Transition) Done() bool { return t.elapsed >= t.duration }

// PanOffset returns the current anchor-preserving pan offset. The
// second return is false when no anchor is set or the anchor node is
// missing from every frame so far.
func (t *Transition) PanOffset() (graph.Point, bool) { return t.pan, t.hasPan }

// Supersede replaces this transition with one toward a new end graph.
//
// The new transition starts from the most recently rendered frame, not
// from this transition's end graph: interrupting a half-finished
// animation with a second toggle must continue from what is on screen,
// or the diagram visibly jumps.
func (t *Transition) Supersede(end *graph.Graph, duration time.Duration, anchor *Anchor) *Transition {
	return NewTransition(t.latest, end, duration, anchor)
}
