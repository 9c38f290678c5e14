package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/fraim-ai/fraim-toolkit/internal/cmd/cmdutil"
	"github.com/fraim-ai/fraim-toolkit/internal/engine"
	"github.com/fraim-ai/fraim-toolkit/internal/mcpserver"
	"github.com/fraim-ai/fraim-toolkit/internal/watch"
)

func registerServeCmds(root *cobra.Command) {
	root.AddCommand(
		newServeCmd(),
		newWatchCmd(),
	)
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the dna commands as MCP tools over stdio",
		Long: `Run an MCP server on stdin/stdout exposing every dna command as a tool.
Each tool call is bounded by server.tool_timeout. Logs go to the project
log file; stdout carries only the protocol.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := cmdutil.Open(cmd, cmdutil.OpenOptions{RecordAudit: true})
			if err != nil {
				return err
			}
			defer env.Close()

			env.Logger.Info("mcp server starting", "root", env.Engine.Root())
			return mcpserver.Serve(env.Engine, cmd.Root().Version)
		},
	}
}

func newWatchCmd() *cobra.Command {
	var debounce time.Duration
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Regenerate INDEX.md and HEALTH.md when decisions change",
		Long: `Watch both decision directories and regenerate the derived reports after
each burst of changes. Regeneration failures are logged and never stop the
watcher. Press Ctrl+C to stop.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := cmdutil.Open(cmd, cmdutil.OpenOptions{RecordAudit: true})
			if err != nil {
				return err
			}
			defer env.Close()

			e := env.Engine
			cfg := e.Config()
			w, err := watch.New(
				[]string{cfg.GovernancePath(e.Root()), cfg.ProjectPath(e.Root())},
				watch.WithDebounce(debounce),
				watch.WithLogger(env.Logger),
			)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			p := cmdutil.NewPrinter(cmd.OutOrStdout())
			w.OnChange(func(c watch.Change) {
				regenerateReports(ctx, e, env, p, c)
			})
			w.Start()
			defer w.Stop()

			p.Muted("Watching %v (Ctrl+C to stop)", w.Dirs())
			select {
			case <-ctx.Done():
			case <-w.Done():
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&debounce, "debounce", watch.DefaultDebounce, "Quiet period before regenerating")
	return cmd
}

// regenerateReports rewrites the derived documents after a change. Both
// steps are advisory.
func regenerateReports(ctx context.Context, e *engine.Engine, env *cmdutil.Env, p *cmdutil.Printer, c watch.Change) {
	env.Logger.Debug("decisions changed", "paths", c.Paths)
	if _, err := e.Index(); err != nil {
		env.Logger.Warn("index regeneration failed", "error", err)
		p.Warn("index: %v", err)
	}
	res, err := e.Health(ctx)
	if err != nil {
		env.Logger.Warn("health regeneration failed", "error", err)
		p.Warn("health: %v", err)
		return
	}
	p.Success("%s: regenerated reports (%d decisions)", c.At.Format("15:04:05"), res.Report.Total)
}
