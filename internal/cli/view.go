package cli

import (
	"fmt"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/treetop/pkg/layout"
	"github.com/matzehuels/treetop/pkg/pipeline"
	"github.com/matzehuels/treetop/pkg/session"
)

// viewCommand creates the interactive viewer command.
func (c *CLI) viewCommand() *cobra.Command {
	var flags pipelineFlags

	cmd := &cobra.Command{
		Use:   "view <document>",
		Short: "Explore a document interactively in the terminal",
		Long: `Open a document in the interactive terminal viewer.

Navigate nodes, collapse and expand subtrees with animated transitions,
switch layout direction, and yank node paths or subdocuments to the
clipboard. The collapsed set and layout settings are remembered per
document and restored the next time the same document is opened.

Keys:
  tab / j / k     move selection
  enter / space   collapse or expand the selected node
  c               toggle the visibility filter
  d               switch growth direction
  s               cycle link style
  y / Y           yank node path / subdocument to the clipboard
  q               quit (view state is saved)`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runView(cmd, args[0], &flags)
		},
	}

	flags.registerNormalizeFlags(cmd, c.Config)
	flags.registerLayoutFlags(cmd, c.Config)
	cmd.Flags().BoolVar(&flags.noCache, "no-cache", false, "disable the cache")
	return cmd
}

func (c *CLI) runView(cmd *cobra.Command, ref string, flags *pipelineFlags) error {
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
	docHash, err := pipeline.DocHash(doc)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(flags.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	sessions, err := c.openSessions()
	if err != nil {
		c.Logger.Warn("sessions unavailable", "err", err)
	}

	opts := flags.pipelineOptions()
	if sessions != nil {
		if saved, err := sessions.Get(docHash); err == nil && saved != nil {
			opts.Collapsed = saved.Collapsed
			opts.CollapseEnabled = saved.CollapseEnabled
			opts.Layout = saved.Settings
			c.Logger.Debug("restored session", "doc", docHash, "collapsed", len(saved.Collapsed))
			// Explicit flags still beat the restored session.
			if cmd.Flags().Changed("direction") {
				opts.Layout.Direction = layout.Direction(flags.direction)
			}
			if cmd.Flags().Changed("align") {
				opts.Layout.Align = layout.Align(flags.align)
			}
			if cmd.Flags().Changed("link-style") {
				opts.Layout.LinkStyle = layout.LinkStyle(flags.linkStyle)
			}
		}
	}

	model, err := newViewerModel(ctx, runner, doc, docHash, ref, opts, c.Logger)
	if err != nil {
		return err
	}

	final, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err != nil {
		return err
	}

	if m, ok := final.(*viewerModel); ok && sessions != nil {
		if err := sessions.Set(m.sessionState()); err != nil {
			c.Logger.Warn("save session", "err", err)
		}
	}
	return nil
}

// openSessions opens the viewer session store under the state directory.
func (c *CLI) openSessions() (*session.FileStore, error) {
	dir, err := stateDir()
	if err != nil {
		return nil, fmt.Errorf("state dir: %w", err)
	}
	return session.NewFileStore(filepath.Join(dir, "sessions"))
}
