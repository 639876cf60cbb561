package motion

import (
	"context"
	"testing"

	"github.com/matzehuels/treetop/pkg/graph"
)

// settleFixture simulates a surface whose rendered sizes differ from
// the layout's assumption for the first n measurements.
type settleFixture struct {
	stableAfter int
	measures    int
}

func (f *settleFixture) apply(sizes map[string]graph.Size) (*graph.Graph, error) {
	g := graph.New()
	n := &graph.Node{ID: "a", Width: 100, Height: 40}
	if s, ok := sizes["a"]; ok {
		n.Width, n.Height = s.Width, s.Height
	}
	_ = g.AddNode(n)
	return g, nil
}

func (f *settleFixture) measure(_ context.Context, g *graph.Graph) (map[string]graph.Size, error) {
	f.measures++
	n, _ := g.Node("a")
	if f.measures > f.stableAfter {
		// Rendered size now matches the layout's assumption.
		return map[string]graph.Size{"a": {Width: n.Width, Height: n.Height}}, nil
	}
	return map[string]graph.Size{"a": {Width: n.Width + 20, Height: n.Height}}, nil
}

func TestSettleConverges(t *testing.T) {
	f := &settleFixture{stableAfter: 2}
	g, passes, err := Settle(context.Background(), f.apply, f.measure, SettleOptions{})
	if err != nil {
		t.Fatalf("Settle() error = %v", err)
	}
	if passes != 3 {
		t.Errorf("passes = %d, want 3", passes)
	}
	n, _ := g.Node("a")
	if n.Width != 140 {
		t.Errorf("settled width = %v, want 140 (two growth rounds)", n.Width)
	}
}

func TestSettleStopsAtCap(t *testing.T) {
	// Sizes never stabilize; the loop must stop at the cap and accept
	// the current layout rather than fail.
	f := &settleFixture{stableAfter: 1 << 30}
	_, passes, err := Settle(context.Background(), f.apply, f.measure, SettleOptions{MaxPasses: 3})
	if err != nil {
		t.Fatalf("Settle() error = %v", err)
	}
	if passes != 3 {
		t.Errorf("passes = %d, want cap 3", passes)
	}
}

func TestSettleSinglePassWhenStable(t *testing.T) {
	f := &settleFixture{stableAfter: 0}
	_, passes, err := Settle(context.Background(), f.apply, f.measure, SettleOptions{})
	if err != nil {
		t.Fatalf("Settle() error = %v", err)
	}
	if passes != 1 {
		t.Errorf("passes = %d, want 1", passes)
	}
}

func TestSettleHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f := &settleFixture{stableAfter: 0}
	if _, _, err := Settle(ctx, f.apply, f.measure, SettleOptions{}); err == nil {
		t.Error("Settle() error = nil, want context error")
	}
}
