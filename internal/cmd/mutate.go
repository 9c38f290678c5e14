package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fraim-ai/fraim-toolkit/internal/cmd/cmdutil"
	"github.com/fraim-ai/fraim-toolkit/internal/decision"
	"github.com/fraim-ai/fraim-toolkit/internal/engine"
	"github.com/fraim-ai/fraim-toolkit/internal/errors"
)

func registerMutateCmds(root *cobra.Command) {
	root.AddCommand(
		newCreateCmd(),
		newSetCmd(),
		newEditCmd(),
	)
}

func newCreateCmd() *cobra.Command {
	var (
		title      string
		level      int
		dependsOn  string
		stakes     string
		governance bool
		dryRun     bool
		asJSON     bool
	)
	cmd := &cobra.Command{
		Use:   "create <id>",
		Short: "Create a suggested decision",
		Long: `Create a new decision in state "suggested" with the standard sections
(Decision, Reasoning, Assumptions, Tradeoffs). The id must be DEC- followed
by at least three digits. Dependencies must sit at strictly lower levels,
and a governance decision may only depend on governance decisions.`,
		Example: `  dna create DEC-012 --title "Use SQLite for the audit trail" --level 3 --depends-on DEC-004,DEC-007`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var s decision.Stakes
			if stakes != "" {
				var err error
				if s, err = decision.ParseStakes(stakes); err != nil {
					return err
				}
			}

			env, err := cmdutil.Open(cmd, cmdutil.OpenOptions{RecordAudit: !dryRun})
			if err != nil {
				return err
			}
			defer env.Close()

			res, err := env.Engine.Create(cmd.Context(), engine.CreateRequest{
				ID:         args[0],
				Title:      title,
				Level:      decision.Level(level),
				DependsOn:  decision.ParseIDList(dependsOn),
				Stakes:     s,
				Governance: governance,
				DryRun:     dryRun,
			})
			if err != nil {
				return err
			}
			if asJSON {
				return cmdutil.WriteJSON(cmd.OutOrStdout(), res)
			}

			p := cmdutil.NewPrinter(cmd.OutOrStdout())
			if res.DryRun {
				p.Success("Dry run: %s would be created at %s", res.ID, res.Path)
			} else {
				p.Success("Created %s → %s", res.ID, res.Path)
			}
			printMutation(p, res)
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "Decision title (required)")
	cmd.Flags().IntVar(&level, "level", 0, "Level: 1 Identity, 2 Direction, 3 Strategy, 4 Tactics (required)")
	cmd.Flags().StringVar(&dependsOn, "depends-on", "", "Comma separated dependency ids")
	cmd.Flags().StringVar(&stakes, "stakes", "", "Stakes: high, medium or low")
	cmd.Flags().BoolVar(&governance, "governance", false, "Create in the governance directory")
	cmd.Flags().BoolVar(&governance, "constitution", false, "Alias for --governance")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Validate without writing")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("level")
	return cmd
}

func newSetCmd() *cobra.Command {
	var dryRun, asJSON bool
	cmd := &cobra.Command{
		Use:   "set <id> <field> <value>...",
		Short: "Change a frontmatter field",
		Long: `Change one frontmatter field of a decision. Fields:

  state       suggested → committed | superseded, committed → superseded
  depends_on  comma separated ids, or [] for none
  level       1-4, checked against dependencies and dependents
  stakes      high, medium, low, or none
  title       the remaining arguments joined by spaces

A decision can be committed only when every dependency is committed.`,
		Example: `  dna set DEC-004 state committed
  dna set DEC-007 depends_on DEC-001,DEC-004
  dna set DEC-007 title Prefer boring storage`,
		Args: cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, field := args[0], args[1]
			value := args[2]
			if field == "title" {
				value = strings.Join(args[2:], " ")
			} else if len(args) > 3 {
				return errors.NewStructuralError(errors.CodeInvalidField,
					fmt.Sprintf("%s takes a single value, got %d", field, len(args)-2)).WithField(field)
			}

			env, err := cmdutil.Open(cmd, cmdutil.OpenOptions{RecordAudit: !dryRun})
			if err != nil {
				return err
			}
			defer env.Close()

			res, err := env.Engine.Set(cmd.Context(), engine.SetRequest{ID: id, Field: field, Value: value, DryRun: dryRun})
			if err != nil {
				return err
			}
			if asJSON {
				return cmdutil.WriteJSON(cmd.OutOrStdout(), res)
			}

			p := cmdutil.NewPrinter(cmd.OutOrStdout())
			switch {
			case !res.Changed:
				p.Muted("%s: %s already %s", res.ID, res.Field, res.NewValue)
			case res.DryRun:
				p.Printf("Dry run: %s: %s %s → %s\n", res.ID, res.Field, res.OldValue, res.NewValue)
			default:
				p.Printf("%s: %s %s → %s\n", res.ID, res.Field, res.OldValue, res.NewValue)
			}
			printMutation(p, res)
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Validate without writing")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newEditCmd() *cobra.Command {
	var dryRun, asJSON bool
	cmd := &cobra.Command{
		Use:   "edit <id> <old> <new>",
		Short: "Replace text in a decision body",
		Long: `Replace <old> with <new> in a decision document. <old> must occur
exactly once; if another writer already changed it, the edit fails rather
than overwriting their work. The frontmatter is never rewritten.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := cmdutil.Open(cmd, cmdutil.OpenOptions{RecordAudit: !dryRun})
			if err != nil {
				return err
			}
			defer env.Close()

			res, err := env.Engine.Edit(cmd.Context(), engine.EditRequest{
				ID: args[0], Old: args[1], New: args[2], DryRun: dryRun,
			})
			if err != nil {
				return err
			}
			if asJSON {
				return cmdutil.WriteJSON(cmd.OutOrStdout(), res)
			}

			p := cmdutil.NewPrinter(cmd.OutOrStdout())
			if res.DryRun {
				p.Success("Dry run: %s edit is valid", res.ID)
			} else {
				p.Success("Edited %s", res.ID)
			}
			printMutation(p, res)
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Validate without writing")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

// printMutation writes the warnings, validation delta and skipped advisory
// work of a mutation.
func printMutation(p *cmdutil.Printer, res *engine.MutationResult) {
	for _, w := range res.Warnings {
		p.Warn("%s", w)
	}
	for _, issue := range res.Delta.NewErrors {
		p.Fail("new error: %s", issue.Message)
	}
	for _, issue := range res.Delta.NewWarnings {
		p.Warn("new warning: %s", issue.Message)
	}
	for _, issue := range res.Delta.Resolved {
		p.Success("resolved: %s", issue.Message)
	}
	for _, a := range res.Advisories {
		p.Muted("advisory: %s", a)
	}
}
