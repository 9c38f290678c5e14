package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/fraim-ai/fraim-toolkit/internal/config"
	"github.com/fraim-ai/fraim-toolkit/internal/engine"
	"github.com/fraim-ai/fraim-toolkit/internal/errors"
)

// Tool is one registered MCP tool.
type Tool struct {
	Definition mcp.Tool
	Handle     func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)
}

// operation runs an engine call and returns a JSON-encodable result.
type operation func(ctx context.Context, req mcp.CallToolRequest) (any, error)

// Tools returns every dna tool bound to e.
func Tools(e *engine.Engine) []Tool {
	timeout := e.Config().Server.ToolTimeout
	if timeout <= 0 {
		timeout = config.Default().Server.ToolTimeout
	}
	h := &handlers{e: e}

	var tools []Tool
	add := func(def mcp.Tool, op operation) {
		tools = append(tools, Tool{Definition: def, Handle: bounded(def.Name, timeout, op)})
	}

	add(mcp.NewTool("dna_validate",
		mcp.WithDescription("Validate the whole decision graph. Returns errors (blocking) and warnings."),
	), h.validate)

	add(mcp.NewTool("dna_cascade",
		mcp.WithDescription("List every decision affected by a change to id (forward) or every decision id depends on (reverse), grouped in waves by distance."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Decision id, e.g. DEC-004")),
		mcp.WithString("direction", mcp.Description("forward (default) or reverse"), mcp.Enum("forward", "reverse")),
	), h.cascade)

	add(mcp.NewTool("dna_frontier",
		mcp.WithDescription("Classify suggested decisions as committable now or blocked, with blockers and critical paths."),
		mcp.WithNumber("top", mcp.Description("How many high-weight decisions to list (default from config)")),
	), h.frontier)

	add(mcp.NewTool("dna_progress",
		mcp.WithDescription("Count decisions per level and state."),
	), h.progress)

	add(mcp.NewTool("dna_search",
		mcp.WithDescription("Case-insensitive search over titles and bodies. Multiple terms match any."),
		mcp.WithString("terms", mcp.Required(), mcp.Description("Space separated search terms")),
	), h.search)

	add(mcp.NewTool("dna_check",
		mcp.WithDescription("Return committed decisions mentioning any keyword, plus whether the foundation levels are thin."),
		mcp.WithString("keywords", mcp.Required(), mcp.Description("Space or comma separated keywords")),
	), h.check)

	add(mcp.NewTool("dna_index",
		mcp.WithDescription("Regenerate INDEX.md in both decision directories."),
	), h.index)

	add(mcp.NewTool("dna_health",
		mcp.WithDescription("Regenerate HEALTH.md and return the health report."),
	), h.health)

	add(mcp.NewTool("dna_compile_manifest",
		mcp.WithDescription("Deterministic, dependency-ordered list of decisions for contract generation."),
		mcp.WithString("target", mcp.Description("human, agent or all (default)"), mcp.Enum("human", "agent", "all")),
		mcp.WithBoolean("include_suggested", mcp.Description("Include suggested decisions")),
	), h.compileManifest)

	add(mcp.NewTool("dna_create",
		mcp.WithDescription("Create a suggested decision with the scaffold body."),
		mcp.WithString("id", mcp.Required(), mcp.Description("New id, DEC- followed by at least three digits")),
		mcp.WithString("title", mcp.Required(), mcp.Description("Short title")),
		mcp.WithNumber("level", mcp.Required(), mcp.Description("1 Identity, 2 Direction, 3 Strategy, 4 Tactics")),
		mcp.WithString("depends_on", mcp.Description("Comma separated dependency ids")),
		mcp.WithString("stakes", mcp.Description("high, medium or low"), mcp.Enum("high", "medium", "low")),
		mcp.WithBoolean("governance", mcp.Description("Create in the governance scope")),
		mcp.WithBoolean("dry_run", mcp.Description("Validate without writing")),
	), h.create)

	add(mcp.NewTool("dna_set",
		mcp.WithDescription("Change one frontmatter field. Committing requires every dependency to be committed."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Decision id")),
		mcp.WithString("field", mcp.Required(), mcp.Description("Field to change"), mcp.Enum(engine.SettableFields...)),
		mcp.WithString("value", mcp.Required(), mcp.Description("New value; depends_on takes a comma list or []")),
		mcp.WithBoolean("dry_run", mcp.Description("Validate without writing")),
	), h.set)

	add(mcp.NewTool("dna_edit",
		mcp.WithDescription("Replace text that occurs exactly once in a decision body."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Decision id")),
		mcp.WithString("old", mcp.Required(), mcp.Description("Exact text to replace")),
		mcp.WithString("new", mcp.Required(), mcp.Description("Replacement text")),
		mcp.WithBoolean("dry_run", mcp.Description("Validate without writing")),
	), h.edit)

	add(mcp.NewTool("dna_scratchpad_add",
		mcp.WithDescription("Record an informal note that may later mature into a decision."),
		mcp.WithString("type", mcp.Required(), mcp.Enum("idea", "constraint", "question", "concern")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Note text")),
		mcp.WithString("links", mcp.Description("Comma separated related decision ids")),
	), h.scratchpadAdd)

	add(mcp.NewTool("dna_scratchpad_list",
		mcp.WithDescription("List scratchpad entries, split into active and matured."),
		mcp.WithString("type", mcp.Description("Only entries of this type")),
	), h.scratchpadList)

	add(mcp.NewTool("dna_scratchpad_mature",
		mcp.WithDescription("Mark a scratchpad entry as matured into an existing decision."),
		mcp.WithString("entry", mcp.Required(), mcp.Description("Entry id, e.g. SP-001")),
		mcp.WithString("decision", mcp.Required(), mcp.Description("Decision id it became")),
	), h.scratchpadMature)

	add(mcp.NewTool("dna_inbox_add",
		mcp.WithDescription("Hand a finding to the primary caller through the inbox."),
		mcp.WithString("type", mcp.Required(), mcp.Description("Free-form tag, e.g. capture or analysis")),
		mcp.WithString("detail", mcp.Required(), mcp.Description("Message text")),
		mcp.WithString("priority", mcp.Enum("critical", "normal", "low")),
		mcp.WithObject("context", mcp.Description("Opaque structured payload")),
	), h.inboxAdd)

	add(mcp.NewTool("dna_inbox_list",
		mcp.WithDescription("List inbox messages by priority, then time."),
		mcp.WithBoolean("undelivered", mcp.Description("Only undelivered messages")),
	), h.inboxList)

	add(mcp.NewTool("dna_inbox_deliver",
		mcp.WithDescription("Mark messages delivered. Unknown ids are reported without failing the rest."),
		mcp.WithString("ids", mcp.Required(), mcp.Description("Comma separated message ids")),
	), h.inboxDeliver)

	add(mcp.NewTool("dna_inbox_clear",
		mcp.WithDescription("Remove delivered messages, or all messages."),
		mcp.WithString("mode", mcp.Enum("delivered", "all")),
	), h.inboxClear)

	add(mcp.NewTool("dna_audit_log",
		mcp.WithDescription("Append an event to the audit trail."),
		mcp.WithString("source", mcp.Required()),
		mcp.WithString("event", mcp.Required()),
		mcp.WithString("detail"),
	), h.auditLog)

	add(mcp.NewTool("dna_audit_show",
		mcp.WithDescription("Show the most recent audit events."),
		mcp.WithNumber("limit", mcp.Description("Maximum events (default 20)")),
	), h.auditShow)

	return tools
}

// bounded wraps op with the tool timeout and JSON encoding.
func bounded(name string, timeout time.Duration, op operation) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		type outcome struct {
			value any
			err   error
		}
		done := make(chan outcome, 1)
		go func() {
			defer func() {
				if r := recover(); r != nil {
					done <- outcome{err: errors.Wrapf(errors.ErrInvalidInput, "%s panicked: %v", name, r)}
				}
			}()
			v, err := op(ctx, req)
			done <- outcome{v, err}
		}()

		var out outcome
		select {
		case out = <-done:
		case <-ctx.Done():
			out.err = errors.NewTimeoutError(name, timeout).WithCause(ctx.Err())
		}
		if out.err != nil {
			msg := out.err.Error()
			if errors.IsRetryable(out.err) {
				msg += " (retryable)"
			}
			return mcp.NewToolResultError(msg), nil
		}

		data, err := json.MarshalIndent(out.value, "", "  ")
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("encode result: %v", err)), nil
		}
		return mcp.NewToolResultText(string(data)), nil
	}
}

// intArg extracts an integer argument; JSON numbers arrive as float64.
func intArg(req mcp.CallToolRequest, key string, defaultVal int) int {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return int(v)
}

func boolArg(req mcp.CallToolRequest, key string, defaultVal bool) bool {
	v, ok := req.GetArguments()[key].(bool)
	if !ok {
		return defaultVal
	}
	return v
}

func requireString(req mcp.CallToolRequest, key string) (string, error) {
	v := strings.TrimSpace(req.GetString(key, ""))
	if v == "" {
		return "", errors.NewStructuralError(errors.CodeMissingField, fmt.Sprintf("'%s' is required", key)).WithField(key)
	}
	return v, nil
}

// listArg splits a comma or whitespace separated argument.
func listArg(req mcp.CallToolRequest, key string) []string {
	return strings.FieldsFunc(req.GetString(key, ""), func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
}
