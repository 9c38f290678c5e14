package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fraim-ai/fraim-toolkit/internal/cmd/cmdutil"
	"github.com/fraim-ai/fraim-toolkit/internal/errors"
	"github.com/fraim-ai/fraim-toolkit/internal/frontier"
	"github.com/fraim-ai/fraim-toolkit/internal/graph"
	"github.com/fraim-ai/fraim-toolkit/internal/search"
	"github.com/fraim-ai/fraim-toolkit/internal/util"
	"github.com/fraim-ai/fraim-toolkit/internal/validate"
)

// ErrValidationFailed is returned by validate when the graph has errors.
var ErrValidationFailed = errors.New("validation failed")

func registerQueryCmds(root *cobra.Command) {
	root.AddCommand(
		newValidateCmd(),
		newCascadeCmd(),
		newSearchCmd(),
		newFrontierCmd(),
		newCheckCmd(),
		newProgressCmd(),
	)
}

func newValidateCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the decision graph",
		Long: `Validate every decision document and the graph they form.

Errors (invalid fields, dangling references, cycles, level or scope
ordering violations) make the command exit non-zero. Warnings are advisory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := cmdutil.Open(cmd, cmdutil.OpenOptions{})
			if err != nil {
				return err
			}
			defer env.Close()

			report, err := env.Engine.Validate()
			if err != nil {
				return err
			}
			if asJSON {
				if err := cmdutil.WriteJSON(cmd.OutOrStdout(), report); err != nil {
					return err
				}
			} else {
				printValidation(cmdutil.NewPrinter(cmd.OutOrStdout()), report)
			}
			if !report.OK() {
				return fmt.Errorf("%w: %d error(s)", ErrValidationFailed, len(report.Errors))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output the report as JSON")
	return cmd
}

func printValidation(p *cmdutil.Printer, r *validate.Report) {
	if len(r.Errors) > 0 {
		p.Heading(fmt.Sprintf("ERRORS (%d)", len(r.Errors)))
		for _, issue := range r.Errors {
			p.Fail("%s", issue.Message)
		}
		p.Println()
	}
	if len(r.Warnings) > 0 {
		p.Heading(fmt.Sprintf("WARNINGS (%d)", len(r.Warnings)))
		for _, issue := range r.Warnings {
			p.Warn("%s", issue.Message)
		}
		p.Println()
	}
	if r.OK() {
		p.Success("Validation passed: 0 errors, %d warning(s)", len(r.Warnings))
		return
	}
	p.Fail("Validation failed: %d error(s), %d warning(s)", len(r.Errors), len(r.Warnings))
}

func newCascadeCmd() *cobra.Command {
	var asJSON, asMarkdown bool
	cmd := &cobra.Command{
		Use:   "cascade <id> [forward|reverse]",
		Short: "Show what a change to a decision affects",
		Long: `Show every decision affected by a change to <id>, grouped in waves by
distance. With "reverse" (or "upstream"), show every decision <id> depends on.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var raw string
			if len(args) == 2 {
				raw = args[1]
			}
			dir, ok := graph.ParseDirection(raw)
			if !ok {
				return errors.NewStructuralError(errors.CodeInvalidField,
					fmt.Sprintf("invalid direction %q (must be forward or reverse)", raw)).WithField("direction")
			}

			env, err := cmdutil.Open(cmd, cmdutil.OpenOptions{})
			if err != nil {
				return err
			}
			defer env.Close()

			c, err := env.Engine.Cascade(args[0], dir)
			if err != nil {
				return err
			}
			switch {
			case asJSON:
				return cmdutil.WriteJSON(cmd.OutOrStdout(), c)
			case asMarkdown:
				fmt.Fprint(cmd.OutOrStdout(), cascadeMarkdown(c))
			default:
				printCascade(cmdutil.NewPrinter(cmd.OutOrStdout()), c)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&asMarkdown, "markdown", false, "Output as a markdown table")
	cmd.MarkFlagsMutuallyExclusive("json", "markdown")
	return cmd
}

func cascadeNoun(c *graph.Cascade) string {
	if c.Direction == graph.Reverse {
		return "upstream decisions"
	}
	return "decisions need review"
}

func printCascade(p *cmdutil.Printer, c *graph.Cascade) {
	if len(c.Waves) == 0 {
		if c.Direction == graph.Reverse {
			p.Printf("No upstream dependencies for %s.\n", c.Origin)
		} else {
			p.Printf("No downstream dependents for %s.\n", c.Origin)
		}
		return
	}

	widths := []int{12, 14}
	for _, w := range c.Waves {
		p.Println()
		p.Heading(fmt.Sprintf("=== Wave %d ===", w.Wave))
		p.Row(widths, "Node", "State", "Reason")
		p.Rule()
		for _, e := range w.Effects {
			p.Row(widths, e.Node, string(e.CurrentState), e.Reason+crossTag(e))
		}
	}
	p.Println()
	p.Printf("Total: %d %s across %d wave(s).\n", c.Summary.TotalAffected, cascadeNoun(c), c.Summary.WaveCount)
}

func cascadeMarkdown(c *graph.Cascade) string {
	var sb strings.Builder
	heading := "Cascade"
	if c.Direction == graph.Reverse {
		heading = "Upstream"
	}
	fmt.Fprintf(&sb, "### %s: %s — %s\n\n", heading, c.Origin, c.OriginTitle)
	if len(c.Waves) == 0 {
		if c.Direction == graph.Reverse {
			sb.WriteString("No upstream dependencies.\n")
		} else {
			sb.WriteString("No downstream dependents.\n")
		}
		return sb.String()
	}
	fmt.Fprintf(&sb, "**%d %s** across %d wave(s).\n\n", c.Summary.TotalAffected, cascadeNoun(c), c.Summary.WaveCount)
	for _, w := range c.Waves {
		fmt.Fprintf(&sb, "#### Wave %d\n\n", w.Wave)
		sb.WriteString("| Node | Title | State | Reason |\n")
		sb.WriteString("|------|-------|-------|--------|\n")
		for _, e := range w.Effects {
			fmt.Fprintf(&sb, "| %s | %s | %s | %s%s |\n",
				e.Node, util.EscapeCell(e.Title), e.CurrentState, e.Reason, crossTag(e))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func crossTag(e graph.Effect) string {
	if e.CrossScope {
		return " [cross-scope]"
	}
	return ""
}

func newSearchCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "search <term>...",
		Short: "Search decision titles and bodies",
		Long: `Case-insensitive search over decision titles and bodies. A decision
matches when it contains any of the terms. No match is not an error.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := cmdutil.Open(cmd, cmdutil.OpenOptions{})
			if err != nil {
				return err
			}
			defer env.Close()

			res, err := env.Engine.Search(args)
			if err != nil {
				if !errors.IsAdvisorySafe(err) {
					return err
				}
				env.Logger.Warn("search degraded", "error", err)
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: search failed: %v\n", err)
				res = &search.Results{Query: args, Results: []search.Result{}}
			}
			if asJSON {
				return cmdutil.WriteJSON(cmd.OutOrStdout(), res)
			}
			printSearch(cmdutil.NewPrinter(cmd.OutOrStdout()), res)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func printSearch(p *cmdutil.Printer, res *search.Results) {
	query := strings.Join(res.Query, " ")
	if res.Count == 0 {
		p.Printf("No matches for %q.\n", query)
		return
	}
	p.Heading(fmt.Sprintf("%d match(es) for %q", res.Count, query))
	for _, r := range res.Results {
		p.Println()
		p.Printf("%s  %s\n", r.ID, r.Title)
		p.Muted("  L%d %s · %s · sections: %s", r.Level, r.State, r.Scope, strings.Join(r.MatchedSections, ", "))
		if r.Snippet != "" {
			p.Printf("  %s\n", r.Snippet)
		}
	}
}

func newFrontierCmd() *cobra.Command {
	var (
		asJSON, asMarkdown bool
		top                int
	)
	cmd := &cobra.Command{
		Use:   "frontier",
		Short: "Show which decisions can be committed next",
		Long: `Classify every suggested decision as committable now (all dependencies
committed) or blocked, with its blockers and critical path. Also reports
level gaps and the decisions with the most downstream weight.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := cmdutil.Open(cmd, cmdutil.OpenOptions{})
			if err != nil {
				return err
			}
			defer env.Close()

			f, err := env.Engine.Frontier(top)
			if err != nil {
				return err
			}
			switch {
			case asJSON:
				return cmdutil.WriteJSON(cmd.OutOrStdout(), f)
			case asMarkdown:
				fmt.Fprint(cmd.OutOrStdout(), frontierMarkdown(f))
			default:
				printFrontier(cmdutil.NewPrinter(cmd.OutOrStdout()), f)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&top, "top", 0, "Number of high-weight decisions to list (default from config)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&asMarkdown, "markdown", false, "Output as markdown")
	cmd.MarkFlagsMutuallyExclusive("json", "markdown")
	return cmd
}

func printFrontier(p *cmdutil.Printer, f *frontier.Frontier) {
	p.Heading(fmt.Sprintf("COMMITTABLE NOW (%d)", len(f.Committable)))
	p.Rule()
	if len(f.Committable) == 0 {
		p.Muted("(none)")
	}
	widths := []int{10, 4, 8}
	for _, e := range f.Committable {
		p.Row(widths, e.ID, fmt.Sprintf("L%d", e.Level), fmt.Sprintf("w=%d", e.DownstreamWeight), e.Title)
	}

	p.Println()
	p.Heading(fmt.Sprintf("BLOCKED (%d)", len(f.Blocked)))
	p.Rule()
	if len(f.Blocked) == 0 {
		p.Muted("(none)")
	}
	for _, b := range f.Blocked {
		p.Row(widths, b.ID, fmt.Sprintf("L%d", b.Level), fmt.Sprintf("w=%d", b.DownstreamWeight), b.Title)
		if len(b.Blockers) > 0 {
			p.Muted("    blocked by: %s", strings.Join(b.Blockers, ", "))
		}
		if len(b.Missing) > 0 {
			p.Muted("    missing: %s", strings.Join(b.Missing, ", "))
		}
		if len(b.CriticalPath) > 1 {
			p.Muted("    critical path: %s", strings.Join(b.CriticalPath, " → "))
		}
	}

	if len(f.LevelGaps) > 0 {
		p.Println()
		p.Heading("LEVEL GAPS")
		p.Rule()
		for _, g := range f.LevelGaps {
			p.Warn("L%d %s: %d committed, %d suggested (%s)",
				g.Level, g.LevelName, g.Committed, g.Suggested, strings.Join(g.Flags, "; "))
		}
	}

	if len(f.HighWeight) > 0 {
		p.Println()
		p.Heading(fmt.Sprintf("HIGH WEIGHT (top %d)", f.Top))
		p.Rule()
		for _, w := range f.HighWeight {
			p.Row(widths, w.ID, fmt.Sprintf("L%d", w.Level), fmt.Sprintf("w=%d", w.DownstreamWeight),
				fmt.Sprintf("%s [%s]", w.Title, w.State))
		}
	}

	p.Println()
	p.Printf("%d suggested: %d committable, %d blocked.\n",
		f.Summary.Suggested, f.Summary.CommittableCount, f.Summary.BlockedCount)
}

func frontierMarkdown(f *frontier.Frontier) string {
	var sb strings.Builder
	sb.WriteString("### Frontier\n\n")
	fmt.Fprintf(&sb, "**%d committable**, %d blocked.\n\n", f.Summary.CommittableCount, f.Summary.BlockedCount)
	if len(f.Committable) > 0 {
		sb.WriteString("#### Committable now\n\n")
		sb.WriteString("| Node | Level | Weight | Title |\n")
		sb.WriteString("|------|-------|--------|-------|\n")
		for _, e := range f.Committable {
			fmt.Fprintf(&sb, "| %s | L%d | %d | %s |\n", e.ID, e.Level, e.DownstreamWeight, util.EscapeCell(e.Title))
		}
		sb.WriteString("\n")
	}
	if len(f.Blocked) > 0 {
		sb.WriteString("#### Blocked\n\n")
		sb.WriteString("| Node | Level | Blocked by | Critical path |\n")
		sb.WriteString("|------|-------|------------|---------------|\n")
		for _, b := range f.Blocked {
			blockers := append(append([]string{}, b.Blockers...), b.Missing...)
			fmt.Fprintf(&sb, "| %s | L%d | %s | %s |\n",
				b.ID, b.Level, strings.Join(blockers, ", "), strings.Join(b.CriticalPath, " → "))
		}
		sb.WriteString("\n")
	}
	for _, g := range f.LevelGaps {
		fmt.Fprintf(&sb, "- L%d %s: %s\n", g.Level, g.LevelName, strings.Join(g.Flags, "; "))
	}
	return sb.String()
}

func newCheckCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "check <keyword>...",
		Short: "Find committed decisions related to a topic",
		Long: `Return committed decisions mentioning any keyword, and whether the
foundation levels (Identity and Direction) are still thin.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := cmdutil.Open(cmd, cmdutil.OpenOptions{})
			if err != nil {
				return err
			}
			defer env.Close()

			res, err := env.Engine.Check(args)
			if err != nil {
				return err
			}
			if asJSON {
				return cmdutil.WriteJSON(cmd.OutOrStdout(), res)
			}

			p := cmdutil.NewPrinter(cmd.OutOrStdout())
			if len(res.Matches) == 0 {
				p.Printf("No committed decisions mention %s.\n", strings.Join(res.Keywords, ", "))
			} else {
				p.Heading(fmt.Sprintf("%d committed decision(s)", len(res.Matches)))
				for _, m := range res.Matches {
					p.Row([]int{10, 4}, m.ID, fmt.Sprintf("L%d", m.Level), fmt.Sprintf("%s (%s)", m.Title, m.Keyword))
				}
			}
			if res.FoundationThin {
				p.Warn("Foundation is thin: Identity/Direction decisions are mostly uncommitted")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newProgressCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "progress",
		Short: "Count decisions per level and state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := cmdutil.Open(cmd, cmdutil.OpenOptions{})
			if err != nil {
				return err
			}
			defer env.Close()

			prog, err := env.Engine.Progress()
			if err != nil {
				return err
			}
			if asJSON {
				return cmdutil.WriteJSON(cmd.OutOrStdout(), prog)
			}
			printProgress(cmdutil.NewPrinter(cmd.OutOrStdout()), prog)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func printProgress(p *cmdutil.Printer, prog *frontier.Progress) {
	widths := []int{16, 10, 10, 11, 6}
	p.Row(widths, "Level", "Committed", "Suggested", "Superseded", "Total", "Done")
	p.Rule()
	for _, l := range prog.Levels {
		p.Row(widths,
			fmt.Sprintf("L%d %s", l.Level, l.Name),
			fmt.Sprint(l.Committed),
			fmt.Sprint(l.Suggested),
			fmt.Sprint(l.Superseded),
			fmt.Sprint(l.Total),
			fmt.Sprintf("%d%%", l.Percent))
	}
	p.Rule()
	p.Printf("%d of %d committed (%d%%)\n", prog.Committed, prog.Total, prog.Percent)
}
