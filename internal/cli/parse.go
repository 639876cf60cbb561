package cli

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/treetop/pkg/graph"
)

// parseCommand creates the parse command: document in, normalized graph out.
func (c *CLI) parseCommand() *cobra.Command {
	var flags pipelineFlags

	cmd := &cobra.Command{
		Use:   "parse <document>",
		Short: "Normalize a JSON document into a node-link graph",
		Long: `Normalize a JSON document into a node-link graph.

The document reference may be a file path, an HTTP(S) URL, "-" for stdin,
or "doc:<id-or-name>" for a document saved with "treetop docs save".

Examples:
  treetop parse family.json
  treetop parse https://example.com/tree.json -o graph.json
  cat tree.json | treetop parse -
  treetop parse doc:family`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runParse(cmd, args[0], &flags)
		},
	}

	flags.registerNormalizeFlags(cmd, c.Config)
	flags.registerSharedFlags(cmd)
	return cmd
}

func (c *CLI) runParse(cmd *cobra.Command, ref string, flags *pipelineFlags) error {
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

	prog := newProgress(c.Logger)
	g, err := runner.Normalize(ctx, doc, flags.pipelineOptions())
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Normalized %d nodes with %d edges", g.NodeCount(), g.EdgeCount()))

	return writeGraph(g, flags.output, c.Logger)
}

// writeGraph serializes g as JSON to path, or stdout when path is empty.
func writeGraph(g *graph.Graph, path string, logger *log.Logger) error {
	out, err := openOutput(path)
	if err != nil {
		return err
	}
	defer out.Close()

	if err := graph.Write(g, out); err != nil {
		return err
	}
	if path != "" {
		logger.Infof("Wrote graph to %s", path)
	}
	return nil
}
