package mcpserver

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/fraim-ai/fraim-toolkit/internal/audit"
	"github.com/fraim-ai/fraim-toolkit/internal/decision"
	"github.com/fraim-ai/fraim-toolkit/internal/engine"
	"github.com/fraim-ai/fraim-toolkit/internal/graph"
	"github.com/fraim-ai/fraim-toolkit/internal/inbox"
	"github.com/fraim-ai/fraim-toolkit/internal/manifest"
	"github.com/fraim-ai/fraim-toolkit/internal/scratchpad"
	"github.com/fraim-ai/fraim-toolkit/internal/search"
)

type handlers struct {
	e *engine.Engine
}

func (h *handlers) validate(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	return h.e.Validate()
}

func (h *handlers) cascade(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	id, err := requireString(req, "id")
	if err != nil {
		return nil, err
	}
	dir, ok := graph.ParseDirection(req.GetString("direction", ""))
	if !ok {
		dir = graph.Forward
	}
	return h.e.Cascade(id, dir)
}

func (h *handlers) frontier(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	return h.e.Frontier(intArg(req, "top", 0))
}

func (h *handlers) progress(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	return h.e.Progress()
}

func (h *handlers) search(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	res, err := h.e.Search(listArg(req, "terms"))
	if err != nil {
		// Search is advisory: an unreadable store yields no results.
		h.e.Logger().Warn("search degraded", "error", err)
		return &search.Results{Query: listArg(req, "terms"), Results: []search.Result{}}, nil
	}
	return res, nil
}

func (h *handlers) check(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	return h.e.Check(listArg(req, "keywords"))
}

func (h *handlers) index(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	return h.e.Index()
}

func (h *handlers) health(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	return h.e.Health(ctx)
}

func (h *handlers) compileManifest(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	target, err := manifest.ParseTarget(req.GetString("target", ""))
	if err != nil {
		return nil, err
	}
	return h.e.CompileManifest(manifest.Options{
		Target:           target,
		IncludeSuggested: boolArg(req, "include_suggested", false),
	})
}

func (h *handlers) create(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	id, err := requireString(req, "id")
	if err != nil {
		return nil, err
	}
	title, err := requireString(req, "title")
	if err != nil {
		return nil, err
	}
	var stakes decision.Stakes
	if s := req.GetString("stakes", ""); s != "" {
		if stakes, err = decision.ParseStakes(s); err != nil {
			return nil, err
		}
	}
	return h.e.Create(ctx, engine.CreateRequest{
		ID:         id,
		Title:      title,
		Level:      decision.Level(intArg(req, "level", 0)),
		DependsOn:  decision.ParseIDList(req.GetString("depends_on", "")),
		Stakes:     stakes,
		Governance: boolArg(req, "governance", false),
		DryRun:     boolArg(req, "dry_run", false),
	})
}

func (h *handlers) set(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	id, err := requireString(req, "id")
	if err != nil {
		return nil, err
	}
	field, err := requireString(req, "field")
	if err != nil {
		return nil, err
	}
	return h.e.Set(ctx, engine.SetRequest{
		ID:     id,
		Field:  field,
		Value:  req.GetString("value", ""),
		DryRun: boolArg(req, "dry_run", false),
	})
}

func (h *handlers) edit(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	id, err := requireString(req, "id")
	if err != nil {
		return nil, err
	}
	return h.e.Edit(ctx, engine.EditRequest{
		ID:     id,
		Old:    req.GetString("old", ""),
		New:    req.GetString("new", ""),
		DryRun: boolArg(req, "dry_run", false),
	})
}

func (h *handlers) scratchpadAdd(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	typ, err := scratchpad.ParseType(req.GetString("type", ""))
	if err != nil {
		return nil, err
	}
	return h.e.AddScratchpad(typ, req.GetString("content", ""), listArg(req, "links"))
}

func (h *handlers) scratchpadList(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	var typ scratchpad.Type
	if s := req.GetString("type", ""); s != "" {
		var err error
		if typ, err = scratchpad.ParseType(s); err != nil {
			return nil, err
		}
	}
	return h.e.Scratchpad().List(typ)
}

func (h *handlers) scratchpadMature(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	entry, err := requireString(req, "entry")
	if err != nil {
		return nil, err
	}
	dec, err := requireString(req, "decision")
	if err != nil {
		return nil, err
	}
	return h.e.MatureScratchpad(ctx, entry, dec)
}

func (h *handlers) inboxAdd(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	priority, err := inbox.ParsePriority(req.GetString("priority", ""))
	if err != nil {
		return nil, err
	}
	payload, _ := req.GetArguments()["context"].(map[string]any)
	return h.e.Inbox().Add(inbox.Message{
		Priority: priority,
		Type:     req.GetString("type", ""),
		Detail:   req.GetString("detail", ""),
		Context:  payload,
	})
}

func (h *handlers) inboxList(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	msgs, err := h.e.Inbox().List(inbox.ListOptions{UndeliveredOnly: boolArg(req, "undelivered", false)})
	if err != nil {
		return nil, err
	}
	if msgs == nil {
		msgs = []inbox.Message{}
	}
	return msgs, nil
}

func (h *handlers) inboxDeliver(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	// Partial success is a result, not an error: not_found lists the misses.
	return h.e.Inbox().Deliver(ctx, listArg(req, "ids")...)
}

func (h *handlers) inboxClear(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	mode, err := inbox.ParseClearMode(req.GetString("mode", ""))
	if err != nil {
		return nil, err
	}
	removed, err := h.e.Inbox().Clear(ctx, mode)
	if err != nil {
		return nil, err
	}
	return map[string]any{"mode": mode, "removed": len(removed), "ids": removed}, nil
}

func (h *handlers) auditLog(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	l, err := h.e.OpenAudit()
	if err != nil {
		return nil, err
	}
	defer func() { _ = l.Close() }()
	return l.Append(ctx, req.GetString("source", ""), req.GetString("event", ""), req.GetString("detail", ""))
}

func (h *handlers) auditShow(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	l, err := h.e.OpenAudit()
	if err != nil {
		return nil, err
	}
	defer func() { _ = l.Close() }()
	events, err := l.Show(ctx, intArg(req, "limit", audit.DefaultShowLimit))
	if err != nil {
		return nil, err
	}
	if events == nil {
		events = []audit.Event{}
	}
	return events, nil
}
