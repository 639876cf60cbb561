package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// layoutCommand creates the layout command: document in, positioned graph out.
func (c *CLI) layoutCommand() *cobra.Command {
	var flags pipelineFlags

	cmd := &cobra.Command{
		Use:   "layout <document>",
		Short: "Normalize and lay out a document as a positioned graph",
		Long: `Normalize a JSON document and compute a tidy-tree layout.

The output is the visible graph with node positions and routed edge
polylines, serialized as JSON. Collapsed nodes (via --collapse) keep
their own box but hide their descendants.

Examples:
  treetop layout family.json
  treetop layout family.json --direction downward --link-style curve
  treetop layout family.json --collapse '$.children[0]' -o laid.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runLayout(cmd, args[0], &flags)
		},
	}

	flags.registerNormalizeFlags(cmd, c.Config)
	flags.registerLayoutFlags(cmd, c.Config)
	flags.registerSharedFlags(cmd)
	return cmd
}

func (c *CLI) runLayout(cmd *cobra.Command, ref string, flags *pipelineFlags) error {
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

	opts := flags.pipelineOptions()

	prog := newProgress(c.Logger)
	g, err := runner.Normalize(ctx, doc, opts)
	if err != nil {
		return err
	}
	laid, err := runner.ComputeLayout(ctx, g, opts)
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Laid out %d of %d nodes", laid.NodeCount(), g.NodeCount()))

	return writeGraph(laid, flags.output, c.Logger)
}
