package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/treetop/pkg/layout"
	"github.com/matzehuels/treetop/pkg/normalize"
	"github.com/matzehuels/treetop/pkg/pipeline"
)

// pipelineFlags collects the flags shared by parse, layout, and render.
// Defaults come from the loaded config, so flag > env > file > built-in
// precedence falls out of cobra's default handling.
type pipelineFlags struct {
	// normalize
	titleKeys    string
	hiddenKeys   string
	maxDepth     int
	maxAttrs     int
	scalarArrays bool

	// layout
	direction  string
	align      string
	linkStyle  string
	levelGap   float64
	siblingGap float64
	rootGap    float64

	// visibility
	collapsed []string
	collapse  bool

	// render
	formats string
	theme   string
	scale   float64

	// shared
	refresh bool
	noCache bool
	output  string
}

// registerNormalizeFlags binds the document-to-graph flags.
func (f *pipelineFlags) registerNormalizeFlags(cmd *cobra.Command, cfg *Config) {
	f.titleKeys = strings.Join(cfg.Normalize.TitleKeys, ",")
	f.hiddenKeys = strings.Join(cfg.Normalize.HiddenKeys, ",")
	f.maxDepth = cfg.Normalize.MaxDepth
	f.maxAttrs = cfg.Normalize.MaxPreviewAttrs
	f.scalarArrays = cfg.Normalize.ScalarArraysAsAttribute

	cmd.Flags().StringVar(&f.titleKeys, "title-keys", f.titleKeys, "comma-separated title key priority list")
	cmd.Flags().StringVar(&f.hiddenKeys, "hidden-keys", f.hiddenKeys, "comma-separated keys hidden from previews")
	cmd.Flags().IntVar(&f.maxDepth, "max-depth", f.maxDepth, "maximum traversal depth (0 = unlimited)")
	cmd.Flags().IntVar(&f.maxAttrs, "max-attrs", f.maxAttrs, "maximum preview attributes per node")
	cmd.Flags().BoolVar(&f.scalarArrays, "scalar-arrays", f.scalarArrays, "render scalar arrays as a joined attribute")
}

// registerLayoutFlags binds the positioning and visibility flags.
func (f *pipelineFlags) registerLayoutFlags(cmd *cobra.Command, cfg *Config) {
	f.direction = cfg.Layout.Direction
	f.align = cfg.Layout.Align
	f.linkStyle = cfg.Layout.LinkStyle
	f.levelGap = cfg.Layout.LevelGap
	f.siblingGap = cfg.Layout.SiblingGap
	f.rootGap = cfg.Layout.RootGap

	cmd.Flags().StringVar(&f.direction, "direction", f.direction, "growth direction (forward|downward)")
	cmd.Flags().StringVar(&f.align, "align", f.align, "parent alignment (alignCenter|alignFirstChild)")
	cmd.Flags().StringVar(&f.linkStyle, "link-style", f.linkStyle, "edge routing (orthogonal|curve|line)")
	cmd.Flags().Float64Var(&f.levelGap, "level-gap", f.levelGap, "main-axis gap between depth levels")
	cmd.Flags().Float64Var(&f.siblingGap, "sibling-gap", f.siblingGap, "secondary-axis gap between siblings")
	cmd.Flags().Float64Var(&f.rootGap, "root-gap", f.rootGap, "secondary-axis gap between root subtrees")
	cmd.Flags().StringSliceVar(&f.collapsed, "collapse", nil, "node ids (JSONPaths) to collapse, repeatable")
}

// registerRenderFlags binds the artifact flags.
func (f *pipelineFlags) registerRenderFlags(cmd *cobra.Command, cfg *Config) {
	f.formats = strings.Join(cfg.Render.Formats, ",")
	f.theme = cfg.Render.Theme
	f.scale = cfg.Render.Scale

	cmd.Flags().StringVarP(&f.formats, "formats", "f", f.formats, "comma-separated output formats (svg,png,dot,gv-svg,json)")
	cmd.Flags().StringVar(&f.theme, "theme", f.theme, "color theme (light|dark)")
	cmd.Flags().Float64Var(&f.scale, "scale", f.scale, "PNG resolution multiplier")
}

// registerSharedFlags binds the caching and output flags.
func (f *pipelineFlags) registerSharedFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "bypass the cache and recompute")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable the cache entirely")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "output file (stdout if empty)")
}

// pipelineOptions converts the flags into pipeline options.
func (f *pipelineFlags) pipelineOptions() pipeline.Options {
	return pipeline.Options{
		Normalize: normalize.Options{
			TitleKeys:               parseList(f.titleKeys),
			HiddenKeys:              parseList(f.hiddenKeys),
			MaxPreviewAttrs:         f.maxAttrs,
			MaxDepth:                f.maxDepth,
			ScalarArraysAsAttribute: f.scalarArrays,
		},
		Layout: layout.Settings{
			Direction:  layout.Direction(f.direction),
			Align:      layout.Align(f.align),
			LinkStyle:  layout.LinkStyle(f.linkStyle),
			LevelGap:   f.levelGap,
			SiblingGap: f.siblingGap,
			RootGap:    f.rootGap,
		},
		Collapsed:       f.collapsed,
		CollapseEnabled: len(f.collapsed) > 0,
		Formats:         parseFormats(f.formats),
		Theme:           f.theme,
		Scale:           f.scale,
		Refresh:         f.refresh,
	}
}
