// Package audit implements the "dna audit" commands.
package audit

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fraim-ai/fraim-toolkit/internal/audit"
	"github.com/fraim-ai/fraim-toolkit/internal/cmd/cmdutil"
)

// Register adds the audit command and its subcommands to parent.
func Register(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Append to or inspect the audit trail",
		Long: `The audit trail is an append-only log in .dna/audit.db. Engine mutations
are recorded automatically; collaborators can append their own events.`,
	}
	cmd.AddCommand(
		newLogCmd(),
		newShowCmd(),
		newClearCmd(),
	)
	parent.AddCommand(cmd)
}

func newLogCmd() *cobra.Command {
	var source, name, detail string
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Append an event",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := cmdutil.Open(cmd, cmdutil.OpenOptions{})
			if err != nil {
				return err
			}
			defer env.Close()

			l, err := env.Engine.OpenAudit()
			if err != nil {
				return err
			}
			defer func() { _ = l.Close() }()

			ev, err := l.Append(cmd.Context(), source, name, detail)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ev.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&source, "source", "", "Who is logging (required)")
	cmd.Flags().StringVar(&name, "event", "", "Event name (required)")
	cmd.Flags().StringVar(&detail, "detail", "", "Free-form detail")
	_ = cmd.MarkFlagRequired("source")
	_ = cmd.MarkFlagRequired("event")
	return cmd
}

func newShowCmd() *cobra.Command {
	var (
		limit  int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the most recent events, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := cmdutil.Open(cmd, cmdutil.OpenOptions{})
			if err != nil {
				return err
			}
			defer env.Close()

			l, err := env.Engine.OpenAudit()
			if err != nil {
				return err
			}
			defer func() { _ = l.Close() }()

			events, err := l.Show(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if asJSON {
				if events == nil {
					events = []audit.Event{}
				}
				return cmdutil.WriteJSON(cmd.OutOrStdout(), events)
			}

			p := cmdutil.NewPrinter(cmd.OutOrStdout())
			if len(events) == 0 {
				p.Muted("No audit events.")
				return nil
			}
			widths := []int{20, 12, 22}
			for _, ev := range events {
				p.Row(widths, ev.Timestamp.Format("2006-01-02 15:04:05"), ev.Source, ev.Event, ev.Detail)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", audit.DefaultShowLimit, "Maximum number of events")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete every audit event",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := cmdutil.Open(cmd, cmdutil.OpenOptions{})
			if err != nil {
				return err
			}
			defer env.Close()

			l, err := env.Engine.OpenAudit()
			if err != nil {
				return err
			}
			defer func() { _ = l.Close() }()

			n, err := l.Clear(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d event(s)\n", n)
			return nil
		},
	}
}
