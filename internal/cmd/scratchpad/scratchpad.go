// Package scratchpad implements the "dna scratchpad" commands.
package scratchpad

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fraim-ai/fraim-toolkit/internal/cmd/cmdutil"
	"github.com/fraim-ai/fraim-toolkit/internal/decision"
	"github.com/fraim-ai/fraim-toolkit/internal/scratchpad"
)

// Register adds the scratchpad command and its subcommands to parent.
func Register(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:     "scratchpad",
		Aliases: []string{"sp"},
		Short:   "Record informal notes before they become decisions",
	}
	cmd.AddCommand(
		newAddCmd(),
		newListCmd(),
		newMatureCmd(),
		newSummaryCmd(),
	)
	parent.AddCommand(cmd)
}

func newAddCmd() *cobra.Command {
	var links string
	cmd := &cobra.Command{
		Use:     "add <type> <content>...",
		Short:   "Add an idea, constraint, question or concern",
		Example: `  dna scratchpad add question "Do we need offline support?" --links DEC-003`,
		Args:    cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			typ, err := scratchpad.ParseType(args[0])
			if err != nil {
				return err
			}

			env, err := cmdutil.Open(cmd, cmdutil.OpenOptions{RecordAudit: true})
			if err != nil {
				return err
			}
			defer env.Close()

			entry, err := env.Engine.AddScratchpad(typ, strings.Join(args[1:], " "), decision.ParseIDList(links))
			if err != nil {
				return err
			}
			cmdutil.NewPrinter(cmd.OutOrStdout()).Success("Added %s [%s]", entry.ID, entry.Type)
			return nil
		},
	}
	cmd.Flags().StringVar(&links, "links", "", "Comma separated related decision ids")
	return cmd
}

func newListCmd() *cobra.Command {
	var (
		typeFilter string
		asJSON     bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List active and matured entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var typ scratchpad.Type
			if typeFilter != "" {
				var err error
				if typ, err = scratchpad.ParseType(typeFilter); err != nil {
					return err
				}
			}

			env, err := cmdutil.Open(cmd, cmdutil.OpenOptions{})
			if err != nil {
				return err
			}
			defer env.Close()

			listing, err := env.Engine.Scratchpad().List(typ)
			if err != nil {
				return err
			}
			if asJSON {
				return cmdutil.WriteJSON(cmd.OutOrStdout(), listing)
			}

			p := cmdutil.NewPrinter(cmd.OutOrStdout())
			widths := []int{8, 11}
			p.Heading(fmt.Sprintf("ACTIVE (%d)", len(listing.Active)))
			for _, e := range listing.Active {
				p.Row(widths, e.ID, string(e.Type), withLinks(e))
			}
			if len(listing.Matured) > 0 {
				p.Println()
				p.Heading(fmt.Sprintf("MATURED (%d)", len(listing.Matured)))
				for _, e := range listing.Matured {
					p.Row(widths, e.ID, string(e.Type), fmt.Sprintf("%s → %s", e.Content, e.MaturedTo))
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&typeFilter, "type", "", "Only entries of this type")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func withLinks(e scratchpad.Entry) string {
	if len(e.Links) == 0 {
		return e.Content
	}
	return fmt.Sprintf("%s (%s)", e.Content, strings.Join(e.Links, ", "))
}

func newMatureCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mature <entry-id> <decision-id>",
		Short: "Mark an entry as matured into a decision",
		Long: `Record that a scratchpad entry became a decision. The decision must
already exist; create it first with "dna create".`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := cmdutil.Open(cmd, cmdutil.OpenOptions{RecordAudit: true})
			if err != nil {
				return err
			}
			defer env.Close()

			entry, err := env.Engine.MatureScratchpad(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			cmdutil.NewPrinter(cmd.OutOrStdout()).Success("Matured %s [%s] → %s", entry.ID, entry.Type, entry.MaturedTo)
			return nil
		},
	}
}

func newSummaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "One-line count of active entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := cmdutil.Open(cmd, cmdutil.OpenOptions{})
			if err != nil {
				return err
			}
			defer env.Close()

			entries, err := env.Engine.Scratchpad().Entries()
			if err != nil {
				return err
			}
			if s := scratchpad.Summary(entries); s != "" {
				fmt.Fprintln(cmd.OutOrStdout(), s)
			}
			return nil
		},
	}
}
