package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

// renderCommand creates the render command: document in, artifacts out.
func (c *CLI) renderCommand() *cobra.Command {
	var flags pipelineFlags
	var outDir string
	var name string

	cmd := &cobra.Command{
		Use:   "render <document>",
		Short: "Render a document as SVG, PNG, DOT, or positioned JSON",
		Long: `Run the full pipeline and write one artifact per requested format.

Artifacts are written next to each other as <name>.<format>. The base
name defaults to the document file name ("diagram" for stdin and URLs
without a usable path).

Examples:
  treetop render family.json
  treetop render family.json -f svg,png --theme dark
  treetop render family.json -f png --scale 3 --out-dir build/`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRender(cmd, args[0], &flags, outDir, name)
		},
	}

	flags.registerNormalizeFlags(cmd, c.Config)
	flags.registerLayoutFlags(cmd, c.Config)
	flags.registerRenderFlags(cmd, c.Config)
	cmd.Flags().BoolVar(&flags.refresh, "refresh", false, "bypass the cache and recompute")
	cmd.Flags().BoolVar(&flags.noCache, "no-cache", false, "disable the cache entirely")
	cmd.Flags().StringVar(&outDir, "out-dir", ".", "directory for rendered artifacts")
	cmd.Flags().StringVarP(&name, "name", "n", "", "base name for artifacts (defaults to the document name)")
	return cmd
}

func (c *CLI) runRender(cmd *cobra.Command, ref string, flags *pipelineFlags, outDir, name string) error {
	ctx := cmd.Context()

	fetcher, cleanup, err := c.newFetcher(flags.noCache)
	if err != nil {
		return err
	}
	defer cleanup()

	doc, err := fetcher.FetchDocument(ctx, ref)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(flags.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, "Rendering diagram...")
	spinner.Start()

	result, err := runner.Execute(ctx, doc, flags.pipelineOptions())
	if err != nil {
		spinner.StopWithError(fmt.Sprintf("Render failed: %v", err))
		return err
	}
	spinner.Stop()

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	base := name
	if base == "" {
		base = artifactBase(ref)
	}

	printSuccess("Rendered %d format(s)", len(result.Artifacts))
	printStats(result.Stats.NodeCount, result.Stats.VisibleCount, result.CacheInfo.RenderHit)

	for _, format := range flags.pipelineOptions().Formats {
		data, ok := result.Artifacts[format]
		if !ok {
			continue
		}
		path := filepath.Join(outDir, base+"."+format)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		printFile(path)
	}

	printNextStep("View interactively", fmt.Sprintf("treetop view %s", ref))
	return nil
}

// artifactBase derives an artifact base name from a document reference.
func artifactBase(ref string) string {
	if ref == "-" || ref == "" {
		return "diagram"
	}
	base := filepath.Base(strings.TrimSuffix(strings.SplitN(ref, "?", 2)[0], "/"))
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.TrimPrefix(base, "doc:")
	if base == "" || base == "." {
		return "diagram"
	}
	return base
}
