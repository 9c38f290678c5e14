package cmd

import (
	"github.com/spf13/cobra"

	"github.com/fraim-ai/fraim-toolkit/internal/cmd/audit"
	"github.com/fraim-ai/fraim-toolkit/internal/cmd/cmdutil"
	"github.com/fraim-ai/fraim-toolkit/internal/cmd/inbox"
	"github.com/fraim-ai/fraim-toolkit/internal/cmd/scratchpad"
)

// NewRootCmd builds the dna command tree.
func NewRootCmd(version string) *cobra.Command {
	root := &cobra.Command{
		Use:   "dna",
		Short: "Decision graph engine",
		Long: `dna manages a graph of decision documents (DEC-NNN.md) kept in a
governance directory and a project directory. It validates the graph,
computes impact cascades and the commit frontier, regenerates derived
reports, and coordinates asynchronous collaborators through an inbox and
a scratchpad.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	root.PersistentFlags().StringP(cmdutil.FlagProject, "C", "", "project root (default: $DNA_PROJECT_DIR, $CLAUDE_PROJECT_DIR or the working directory)")
	root.PersistentFlags().String(cmdutil.FlagConfig, "", "config file (default is <project>/.dna/config.json)")

	registerQueryCmds(root)
	registerReportCmds(root)
	registerMutateCmds(root)
	registerServeCmds(root)

	inbox.Register(root)
	scratchpad.Register(root)
	audit.Register(root)
	return root
}

// Execute runs the dna command line with os.Args.
func Execute(version string) error {
	return NewRootCmd(version).Execute()
}
