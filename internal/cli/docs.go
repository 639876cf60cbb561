package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	tterrors "github.com/matzehuels/treetop/pkg/errors"
	"github.com/matzehuels/treetop/pkg/jsondoc"
	"github.com/matzehuels/treetop/pkg/store"
)

// docsCommand creates the document store management command.
func (c *CLI) docsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docs",
		Short: "Manage the local document store",
		Long: `Manage the local document store.

Saved documents can be referenced anywhere a document is accepted using
the "doc:<id-or-name>" form, e.g. "treetop view doc:family".`,
	}

	cmd.AddCommand(c.docsSaveCommand())
	cmd.AddCommand(c.docsListCommand())
	cmd.AddCommand(c.docsShowCommand())
	cmd.AddCommand(c.docsDeleteCommand())
	return cmd
}

// docsSaveCommand creates the "docs save" subcommand.
func (c *CLI) docsSaveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "save <name> <document>",
		Short: "Save a document under a name",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, ref := args[0], args[1]
			if err := tterrors.ValidateDocumentName(name); err != nil {
				return err
			}

			fetcher, cleanup, err := c.newFetcher(false)
			if err != nil {
				return err
			}
			defer cleanup()

			data, err := fetcher.Fetch(cmd.Context(), ref)
			if err != nil {
				return err
			}
			// Reject unparseable payloads before they reach the store.
			if _, err := jsondoc.Parse(data); err != nil {
				return fmt.Errorf("parse document: %w", err)
			}

			st, err := c.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			doc, err := st.Save(cmd.Context(), name, data)
			if err != nil {
				return err
			}
			printSuccess("Saved %q (%d bytes)", doc.Name, len(doc.Data))
			printDetail("id: %s", doc.ID)
			printNextStep("View it", fmt.Sprintf("treetop view doc:%s", doc.Name))
			return nil
		},
	}
}

// docsListCommand creates the "docs list" subcommand.
func (c *CLI) docsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List saved documents",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := c.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			docs, err := st.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(docs) == 0 {
				printInfo("No saved documents")
				return nil
			}
			for _, d := range docs {
				fmt.Printf("%s  %s  %s\n",
					StyleValue.Render(fmt.Sprintf("%-24s", d.Name)),
					StyleDim.Render(d.ID),
					StyleDim.Render(formatRelativeTime(d.UpdatedAt)))
			}
			return nil
		},
	}
}

// docsShowCommand creates the "docs show" subcommand.
func (c *CLI) docsShowCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "show <id-or-name>",
		Short: "Print a saved document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := c.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			data, err := store.Resolver{Store: st}.ResolveRef(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out, err := openOutput(output)
			if err != nil {
				return err
			}
			defer out.Close()
			_, err = out.Write(data)
			return err
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (stdout if empty)")
	return cmd
}

// docsDeleteCommand creates the "docs delete" subcommand.
func (c *CLI) docsDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id-or-name>",
		Aliases: []string{"rm"},
		Short:   "Delete a saved document",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := c.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			// Accept either form, same as everywhere else.
			doc, err := st.Get(cmd.Context(), args[0])
			if err != nil {
				if doc, err = st.GetByName(cmd.Context(), args[0]); err != nil {
					return err
				}
			}
			if err := st.Delete(cmd.Context(), doc.ID); err != nil {
				return err
			}
			printSuccess("Deleted %q", doc.Name)
			return nil
		},
	}
}
