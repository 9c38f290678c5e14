// Package inbox implements the "dna inbox" commands.
package inbox

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/fraim-ai/fraim-toolkit/internal/cmd/cmdutil"
	"github.com/fraim-ai/fraim-toolkit/internal/errors"
	"github.com/fraim-ai/fraim-toolkit/internal/inbox"
)

// Register adds the inbox command and its subcommands to parent.
func Register(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "inbox",
		Short: "Hand findings between collaborators",
		Long: `The inbox is a durable, priority-ordered queue. Background collaborators
add messages; the primary caller lists and delivers them.`,
	}
	cmd.AddCommand(
		newAddCmd(),
		newListCmd(),
		newDeliverCmd(),
		newClearCmd(),
		newWatchCmd(),
	)
	parent.AddCommand(cmd)
}

func newAddCmd() *cobra.Command {
	var (
		msgType  string
		priority string
		payload  string
	)
	cmd := &cobra.Command{
		Use:     "add <detail>...",
		Short:   "Add a message",
		Example: `  dna inbox add --type analysis --priority critical "DEC-007 conflicts with DEC-002" --context '{"decision":"DEC-007"}'`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := inbox.ParsePriority(priority)
			if err != nil {
				return err
			}
			var ctxMap map[string]any
			if payload != "" {
				if err := json.Unmarshal([]byte(payload), &ctxMap); err != nil {
					return errors.NewStructuralError(errors.CodeInvalidField,
						fmt.Sprintf("--context must be a JSON object: %v", err)).WithField("context")
				}
			}

			env, err := cmdutil.Open(cmd, cmdutil.OpenOptions{RecordAudit: true})
			if err != nil {
				return err
			}
			defer env.Close()

			msg, err := env.Engine.Inbox().Add(inbox.Message{
				Priority: p,
				Type:     msgType,
				Detail:   strings.Join(args, " "),
				Context:  ctxMap,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&msgType, "type", "capture", "Message tag, e.g. capture or analysis")
	cmd.Flags().StringVar(&priority, "priority", "normal", "Priority: critical, normal or low")
	cmd.Flags().StringVar(&payload, "context", "", "JSON object carried with the message")
	return cmd
}

func newListCmd() *cobra.Command {
	var (
		undelivered bool
		priority    string
		asMarkdown  bool
		asJSON      bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List messages by priority, then time",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := inbox.ListOptions{UndeliveredOnly: undelivered}
			if priority != "" {
				p, err := inbox.ParsePriority(priority)
				if err != nil {
					return err
				}
				opts.Priority = p
			}

			env, err := cmdutil.Open(cmd, cmdutil.OpenOptions{})
			if err != nil {
				return err
			}
			defer env.Close()

			msgs, err := env.Engine.Inbox().List(opts)
			if err != nil {
				return err
			}
			switch {
			case asJSON:
				if msgs == nil {
					msgs = []inbox.Message{}
				}
				return cmdutil.WriteJSON(cmd.OutOrStdout(), msgs)
			case asMarkdown:
				fmt.Fprint(cmd.OutOrStdout(), inbox.FormatMarkdown(msgs))
				return nil
			}

			p := cmdutil.NewPrinter(cmd.OutOrStdout())
			if len(msgs) == 0 {
				p.Muted("Inbox is empty.")
				return nil
			}
			widths := []int{28, 9, 10}
			for _, m := range msgs {
				status := ""
				if m.Delivered {
					status = " (delivered)"
				}
				p.Row(widths, m.ID, string(m.Priority), m.Type, m.Detail+status)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&undelivered, "undelivered", false, "Only undelivered messages")
	cmd.Flags().StringVar(&priority, "priority", "", "Only messages of this priority")
	cmd.Flags().BoolVar(&asMarkdown, "markdown", false, "Render for delivery into a conversation")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	cmd.MarkFlagsMutuallyExclusive("json", "markdown")
	return cmd
}

func newDeliverCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "deliver <id>...",
		Short: "Mark messages delivered",
		Long: `Mark messages delivered. Every known id is delivered even when some ids
are unknown; the unknown ids are reported and the command exits non-zero.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := cmdutil.Open(cmd, cmdutil.OpenOptions{RecordAudit: true})
			if err != nil {
				return err
			}
			defer env.Close()

			res, err := env.Engine.Inbox().Deliver(cmd.Context(), args...)
			if err != nil {
				return err
			}
			p := cmdutil.NewPrinter(cmd.OutOrStdout())
			for _, id := range res.Delivered {
				p.Success("delivered %s", id)
			}
			for _, id := range res.AlreadyDelivered {
				p.Muted("already delivered %s", id)
			}
			for _, id := range res.NotFound {
				p.Fail("not found %s", id)
			}
			return res.Err()
		},
	}
}

func newClearCmd() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove delivered messages (or all with --all)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mode := inbox.ClearDelivered
			if all {
				mode = inbox.ClearAll
			}

			env, err := cmdutil.Open(cmd, cmdutil.OpenOptions{RecordAudit: true})
			if err != nil {
				return err
			}
			defer env.Close()

			removed, err := env.Engine.Inbox().Clear(cmd.Context(), mode)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d message(s)\n", len(removed))
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Remove undelivered messages too")
	return cmd
}

func newWatchCmd() *cobra.Command {
	var interval time.Duration
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print new undelivered messages as they arrive",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := cmdutil.Open(cmd, cmdutil.OpenOptions{})
			if err != nil {
				return err
			}
			defer env.Close()

			ib := inbox.New(env.Engine.Inbox().Store().Dir(),
				inbox.WithBus(env.Engine.Bus()),
				inbox.WithLocks(env.Engine.Locks()),
				inbox.WithLogger(env.Logger),
				inbox.WithPollInterval(interval))

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			cancel := ib.Watch(func(m inbox.Message) {
				fmt.Fprint(out, inbox.FormatMarkdown([]inbox.Message{m}))
			})
			defer cancel()

			<-ctx.Done()
			return nil
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", time.Second, "Polling interval")
	return cmd
}
