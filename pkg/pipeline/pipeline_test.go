package pipeline

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/treetop/pkg/cache"
	"github.com/matzehuels/treetop/pkg/graph"
	"github.com/matzehuels/treetop/pkg/jsondoc"
	"github.com/matzehuels/treetop/pkg/render"
)

func testLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

func testDoc(t *testing.T) *jsondoc.Value {
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
	return doc
}

func TestExecuteFullPipeline(t *testing.T) {
	runner := NewRunner(cache.NewNullCache(), nil, testLogger())
	defer runner.Close()

	result, err := runner.Execute(context.Background(), testDoc(t), Options{
		Formats: []string{render.FormatSVG, render.FormatJSON},
		Logger:  testLogger(),
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if result.Stats.NodeCount != 4 {
		t.Errorf("NodeCount = %d, want 4", result.Stats.NodeCount)
	}
	if result.Stats.EdgeCount != 3 {
		t.Errorf("EdgeCount = %d, want 3", result.Stats.EdgeCount)
	}
	if result.Stats.VisibleCount != 4 {
		t.Errorf("VisibleCount = %d, want 4", result.Stats.VisibleCount)
	}
	if result.GraphHash == "" {
		t.Error("GraphHash should be set")
	}
	if !strings.Contains(string(result.Artifacts["svg"]), "<svg") {
		t.Error("svg artifact missing")
	}
	if !strings.Contains(string(result.Artifacts["json"]), `"nodes"`) {
		t.Error("json artifact missing")
	}

	// Every visible node should be positioned.
	for _, n := range result.Layout.Nodes {
		if n.Width <= 0 || n.Height <= 0 {
			t.Errorf("node %s unpositioned: %+v", n.ID, n)
		}
	}
}

func TestExecuteCollapseFiltersDescendants(t *testing.T) {
	runner := NewRunner(cache.NewNullCache(), nil, testLogger())
	defer runner.Close()

	result, err := runner.Execute(context.Background(), testDoc(t), Options{
		Collapsed:       []string{"$.children[0]"},
		CollapseEnabled: true,
		Logger:          testLogger(),
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	// a1 hides, a stays (the collapsed node itself is visible).
	if result.Stats.VisibleCount != 3 {
		t.Errorf("VisibleCount = %d, want 3", result.Stats.VisibleCount)
	}
	if _, ok := result.Layout.Node("$.children[0].children[0]"); ok {
		t.Error("descendant of collapsed node should be hidden")
	}

	// Disabled filter ignores the collapsed set.
	result2, err := runner.Execute(context.Background(), testDoc(t), Options{
		Collapsed: []string{"$.children[0]"},
		Logger:    testLogger(),
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result2.Stats.VisibleCount != 4 {
		t.Errorf("VisibleCount with filter off = %d, want 4", result2.Stats.VisibleCount)
	}
}

func TestExecuteUsesCache(t *testing.T) {
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	runner := NewRunner(c, nil, testLogger())
	defer runner.Close()

	opts := Options{Logger: testLogger()}

	first, err := runner.Execute(context.Background(), testDoc(t), opts)
	if err != nil {
		t.Fatalf("first Execute: %v", err)
	}
	if first.CacheInfo.NormalizeHit || first.CacheInfo.LayoutHit || first.CacheInfo.RenderHit {
		t.Errorf("first run should miss everywhere: %+v", first.CacheInfo)
	}

	second, err := runner.Execute(context.Background(), testDoc(t), Options{Logger: testLogger()})
	if err != nil {
		t.Fatalf("second Execute: %v", err)
	}
	if !second.CacheInfo.NormalizeHit || !second.CacheInfo.LayoutHit || !second.CacheInfo.RenderHit {
		t.Errorf("second run should hit everywhere: %+v", second.CacheInfo)
	}
	if second.GraphHash != first.GraphHash {
		t.Error("graph hash should be stable across runs")
	}

	// Refresh bypasses the graph cache.
	third, err := runner.Execute(context.Background(), testDoc(t), Options{Refresh: true, Logger: testLogger()})
	if err != nil {
		t.Fatalf("third Execute: %v", err)
	}
	if third.CacheInfo.NormalizeHit {
		t.Error("refresh should bypass the graph cache")
	}
}

func TestMeasuredSizesChangeLayout(t *testing.T) {
	runner := NewRunner(cache.NewNullCache(), nil, testLogger())
	defer runner.Close()
	ctx := context.Background()

	g, err := runner.Normalize(ctx, testDoc(t), Options{Logger: testLogger()})
	if err != nil {
		t.Fatal(err)
	}

	plain, err := runner.ComputeLayout(ctx, g, Options{Logger: testLogger()})
	if err != nil {
		t.Fatal(err)
	}
	sized, err := runner.ComputeLayout(ctx, g, Options{
		Sizes:  map[string]graph.Size{"$": {Width: 300, Height: 90}},
		Logger: testLogger(),
	})
	if err != nil {
		t.Fatal(err)
	}

	root, _ := sized.Node("$")
	if root.Width != 300 || root.Height != 90 {
		t.Errorf("measured size not applied: %v x %v", root.Width, root.Height)
	}
	plainRoot, _ := plain.Node("$")
	if plainRoot.Width == 300 {
		t.Error("unsized layout should use defaults")
	}
}

func TestLayoutKeyVariesWithInputs(t *testing.T) {
	base := Options{}
	if err := base.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}

	collapsed := Options{Collapsed: []string{"$"}, CollapseEnabled: true}
	if err := collapsed.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	if base.LayoutKeyOpts() == collapsed.LayoutKeyOpts() {
		t.Error("collapsed set should change the layout key")
	}

	// Collapsed set without the filter enabled does not change the key.
	carried := Options{Collapsed: []string{"$"}}
	if err := carried.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	if base.LayoutKeyOpts() != carried.LayoutKeyOpts() {
		t.Error("disabled filter should not change the layout key")
	}

	sized := Options{Sizes: map[string]graph.Size{"$": {Width: 10, Height: 10}}}
	if err := sized.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	if base.LayoutKeyOpts() == sized.LayoutKeyOpts() {
		t.Error("sizes should change the layout key")
	}
}

func TestExecuteRejectsInvalidFormat(t *testing.T) {
	runner := NewRunner(cache.NewNullCache(), nil, testLogger())
	defer runner.Close()

	_, err := runner.Execute(context.Background(), testDoc(t), Options{
		Formats: []string{"pdf"},
		Logger:  testLogger(),
	})
	if err == nil {
		t.Error("invalid format should fail")
	}
}

func TestExecuteNilDocument(t *testing.T) {
	runner := NewRunner(cache.NewNullCache(), nil, testLogger())
	defer runner.Close()

	if _, err := runner.Execute(context.Background(), nil, Options{Logger: testLogger()}); err == nil {
		t.Error("nil document should fail")
	}
}
