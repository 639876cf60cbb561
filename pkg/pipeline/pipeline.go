// Package pipeline provides the core diagram pipeline for Treetop.
//
// This package implements the complete normalize → layout → render
// pipeline shared by the CLI, the HTTP API, and the interactive viewer.
// Centralizing it keeps behavior identical across entry points.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Normalize: convert a JSON document into a node-link graph
//  2. Layout: filter visibility, position nodes, route edges
//  3. Render: generate output artifacts (SVG, PNG, DOT, JSON)
//
// Each stage can run independently or as part of the complete pipeline.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    Formats: []string{"svg"},
//	}
//	result, err := runner.Execute(ctx, doc, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
//
// Run individual stages:
//
//	g, err := runner.Normalize(ctx, doc, opts)
//	laid, err := runner.ComputeLayout(ctx, g, opts)
//	artifacts, err := runner.Render(ctx, laid, opts)
package pipeline

import (
	"encoding/json"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/treetop/pkg/cache"
	"github.com/matzehuels/treetop/pkg/graph"
	"github.com/matzehuels/treetop/pkg/layout"
	"github.com/matzehuels/treetop/pkg/normalize"
	"github.com/matzehuels/treetop/pkg/render"
)

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the diagram pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Normalize configures document-to-graph conversion.
	Normalize normalize.Options `json:"normalize,omitempty"`

	// Layout configures positioning and edge routing.
	Layout layout.Settings `json:"layout,omitempty"`

	// Collapsed lists node ids whose descendants are hidden. Only
	// consulted when CollapseEnabled is true.
	Collapsed []string `json:"collapsed,omitempty"`

	// CollapseEnabled turns the visibility filter on. When false the
	// collapsed set is carried but ignored, so toggling filtering off
	// and on round-trips the same diagram.
	CollapseEnabled bool `json:"collapse_enabled,omitempty"`

	// Sizes maps node ids to measured sizes. Unmeasured nodes fall back
	// to the layout defaults.
	Sizes map[string]graph.Size `json:"sizes,omitempty"`

	// Render options.
	Formats []string `json:"formats,omitempty"`
	Theme   string   `json:"theme,omitempty"`
	Scale   float64  `json:"scale,omitempty"`

	// Refresh bypasses the graph cache and recomputes from the document.
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized).
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Graph is the full normalized graph, before visibility filtering.
	Graph *graph.Graph

	// GraphHash is the content hash of the normalized graph.
	GraphHash string

	// Layout is the visible graph with positions and routed edges.
	Layout *graph.Graph

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount     int
	EdgeCount     int
	VisibleCount  int
	NormalizeTime time.Duration
	LayoutTime    time.Duration
	RenderTime    time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	NormalizeHit bool // Whether the normalized graph came from cache
	LayoutHit    bool // Whether the layout came from cache
	RenderHit    bool // Whether all artifacts came from cache
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks fields and applies defaults for the full
// pipeline. Idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	o.Normalize.SetDefaults()
	o.Layout.SetDefaults()
	o.SetRenderDefaults()
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{render.FormatSVG}
	}
	if o.Theme == "" {
		o.Theme = render.ThemeLight
	}
	if o.Scale <= 0 {
		o.Scale = 2
	}
}

// collapsedSet converts the collapsed list to a set.
func (o *Options) collapsedSet() map[string]bool {
	if len(o.Collapsed) == 0 {
		return nil
	}
	set := make(map[string]bool, len(o.Collapsed))
	for _, id := range o.Collapsed {
		set[id] = true
	}
	return set
}

// GraphKeyOpts returns cache key options for the normalize stage.
func (o *Options) GraphKeyOpts() cache.GraphKeyOpts {
	return cache.GraphKeyOpts{
		TitleKeys:               o.Normalize.TitleKeys,
		HiddenKeys:              o.Normalize.HiddenKeys,
		MaxPreviewAttrs:         o.Normalize.MaxPreviewAttrs,
		MaxDepth:                o.Normalize.MaxDepth,
		ScalarArraysAsAttribute: o.Normalize.ScalarArraysAsAttribute,
	}
}

// LayoutKeyOpts returns cache key options for the layout stage. The
// collapsed set and measured sizes are folded in as hashes: both change
// the visible diagram without changing the graph.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{
		Direction:     string(o.Layout.Direction),
		Align:         string(o.Layout.Align),
		LinkStyle:     string(o.Layout.LinkStyle),
		CurveTension:  o.Layout.CurveTension,
		LineThreshold: o.Layout.LineThreshold,
		LevelGap:      o.Layout.LevelGap,
		SiblingGap:    o.Layout.SiblingGap,
		RootGap:       o.Layout.RootGap,
		CollapsedHash: o.collapsedHash(),
		SizesHash:     o.sizesHash(),
	}
}

// ArtifactKeyOpts returns cache key options for one rendered format.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format: format,
		Theme:  o.Theme,
		Scale:  o.Scale,
	}
}

func (o *Options) collapsedHash() string {
	if !o.CollapseEnabled || len(o.Collapsed) == 0 {
		return ""
	}
	ids := slices.Clone(o.Collapsed)
	slices.Sort(ids)
	return cache.Hash([]byte(strings.Join(ids, "\n")))
}

func (o *Options) sizesHash() string {
	if len(o.Sizes) == 0 {
		return ""
	}
	// encoding/json sorts map keys, so the encoding is deterministic.
	data, err := json.Marshal(o.Sizes)
	if err != nil {
		return ""
	}
	return cache.Hash(data)
}

func (o *Options) renderOptions() render.Options {
	return render.Options{
		Theme:     o.Theme,
		Scale:     o.Scale,
		LinkStyle: o.Layout.LinkStyle,
	}
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := render.ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}
