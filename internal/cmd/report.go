package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fraim-ai/fraim-toolkit/internal/cmd/cmdutil"
	"github.com/fraim-ai/fraim-toolkit/internal/manifest"
)

func registerReportCmds(root *cobra.Command) {
	root.AddCommand(
		newIndexCmd(),
		newHealthCmd(),
		newCompileManifestCmd(),
	)
}

func newIndexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "index",
		Short: "Regenerate INDEX.md in both decision directories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := cmdutil.Open(cmd, cmdutil.OpenOptions{})
			if err != nil {
				return err
			}
			defer env.Close()

			results, err := env.Engine.Index()
			if err != nil {
				return err
			}
			p := cmdutil.NewPrinter(cmd.OutOrStdout())
			for _, r := range results {
				p.Success("%s: %d decision(s) → %s", r.Scope, r.Count, r.Path)
			}
			return nil
		},
	}
}

func newHealthCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Regenerate HEALTH.md and print the summary",
		Long: `Regenerate the health summary: counts per scope, level and state,
per-level certainty, and flagged items. The "## Manual Flags" section of an
existing HEALTH.md is preserved.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := cmdutil.Open(cmd, cmdutil.OpenOptions{})
			if err != nil {
				return err
			}
			defer env.Close()

			res, err := env.Engine.Health(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return cmdutil.WriteJSON(cmd.OutOrStdout(), res)
			}

			p := cmdutil.NewPrinter(cmd.OutOrStdout())
			r := res.Report
			p.Heading(fmt.Sprintf("%d decisions (%d governance, %d project)", r.Total, r.Governance.Total, r.Project.Total))
			for _, c := range r.Certainty {
				line := fmt.Sprintf("L%d %-10s %d/%d committed", c.Level, c.Name, c.Committed, c.Total)
				if c.Thin {
					p.Warn("%s (thin)", line)
				} else {
					p.Printf("  %s\n", line)
				}
			}
			for _, flag := range r.Flagged() {
				p.Muted("- %s", flag)
			}
			if res.ManuallyEdited {
				p.Warn("HEALTH.md had manual edits outside ## Manual Flags; they were overwritten")
			}
			p.Success("Wrote %s", res.Path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newCompileManifestCmd() *cobra.Command {
	var (
		target           string
		includeSuggested bool
		asJSON           bool
	)
	cmd := &cobra.Command{
		Use:   "compile-manifest",
		Short: "Compile the dependency-ordered decision manifest",
		Long: `Compile a deterministic, dependency-ordered list of decisions for
contract generation. Running it twice against unchanged documents produces
identical output.

Targets:
  human  levels 1-4 with their committed decisions
  agent  governance, high-stakes, committed and suggested lists
  all    both (default)`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := manifest.ParseTarget(target)
			if err != nil {
				return err
			}

			env, err := cmdutil.Open(cmd, cmdutil.OpenOptions{})
			if err != nil {
				return err
			}
			defer env.Close()

			m, err := env.Engine.CompileManifest(manifest.Options{Target: t, IncludeSuggested: includeSuggested})
			if err != nil {
				return err
			}
			if asJSON {
				return cmdutil.WriteJSON(cmd.OutOrStdout(), m)
			}
			fmt.Fprint(cmd.OutOrStdout(), manifest.Render(m))
			return nil
		},
	}
	cmd.Flags().StringVar(&target, "target", "all", "Manifest target: human, agent or all")
	cmd.Flags().BoolVar(&includeSuggested, "include-suggested", false, "Include suggested decisions")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}
