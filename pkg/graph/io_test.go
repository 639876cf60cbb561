package graph

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteReadRoundTrip(t *testing.T) {
	g := testGraph(t)
	g.Nodes[0].Meta.Title = "root"
	g.Nodes[0].Meta.Attrs = []Attr{{Key: "k", Value: "v"}}
	g.Nodes[1].X, g.Nodes[1].Y = 10, 20
	g.Meta.PinY = map[string]float64{"$": 12.5}

	var buf bytes.Buffer
	if err := Write(g, &buf); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	back, err := Read(&buf)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	if back.NodeCount() != g.NodeCount() {
		t.Errorf("NodeCount = %d, want %d", back.NodeCount(), g.NodeCount())
	}
	if back.EdgeCount() != g.EdgeCount() {
		t.Errorf("EdgeCount = %d, want %d", back.EdgeCount(), g.EdgeCount())
	}

	n, ok := back.Node("$")
	if !ok {
		t.Fatal("Node($) missing after round trip")
	}
	if n.Meta.Title != "root" {
		t.Errorf("Title = %q, want %q", n.Meta.Title, "root")
	}
	if len(n.Meta.Attrs) != 1 || n.Meta.Attrs[0].Key != "k" {
		t.Errorf("Attrs = %v, want [{k v}]", n.Meta.Attrs)
	}
	if back.Meta.PinY["$"] != 12.5 {
		t.Errorf("PinY[$] = %v, want 12.5", back.Meta.PinY["$"])
	}
}

func TestReadRejectsDanglingEdge(t *testing.T) {
	input := `{"nodes":[{"id":"$"}],"edges":[{"source":"$","target":"ghost"}]}`
	_, err := Read(strings.NewReader(input))
	if err == nil {
		t.Fatal("Read() error = nil, want dangling edge error")
	}
	if !strings.Contains(err.Error(), "ghost") {
		t.Errorf("error %q does not name the bad edge", err)
	}
}

func TestReadRejectsDuplicateNode(t *testing.T) {
	input := `{"nodes":[{"id":"$"},{"id":"$"}],"edges":[]}`
	if _, err := Read(strings.NewReader(input)); err == nil {
		t.Fatal("Read() error = nil, want duplicate node error")
	}
}

func TestWriteFileReadFile(t *testing.T) {
	g := testGraph(t)
	path := filepath.Join(t.TempDir(), "graph.json")

	if err := WriteFile(g, path); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	back, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if back.NodeCount() != g.NodeCount() {
		t.Errorf("NodeCount = %d, want %d", back.NodeCount(), g.NodeCount())
	}
}
