package engine

import (
	"context"
	"time"

	"github.com/fraim-ai/fraim-toolkit/internal/event"
	"github.com/fraim-ai/fraim-toolkit/internal/frontier"
	"github.com/fraim-ai/fraim-toolkit/internal/graph"
	"github.com/fraim-ai/fraim-toolkit/internal/health"
	"github.com/fraim-ai/fraim-toolkit/internal/manifest"
	"github.com/fraim-ai/fraim-toolkit/internal/scratchpad"
	"github.com/fraim-ai/fraim-toolkit/internal/search"
	"github.com/fraim-ai/fraim-toolkit/internal/validate"
)

// Validate checks the whole graph.
func (e *Engine) Validate() (*validate.Report, error) {
	st, err := e.Load()
	if err != nil {
		return nil, err
	}
	return validate.Graph(st.Graph, st.Issues, e.rules), nil
}

// Cascade computes the transitive impact of id in dir.
func (e *Engine) Cascade(id string, dir graph.Direction) (*graph.Cascade, error) {
	st, err := e.Load()
	if err != nil {
		return nil, err
	}
	return st.Graph.Cascade(id, dir)
}

// Frontier classifies every suggested decision. top <= 0 uses frontier.top.
func (e *Engine) Frontier(top int) (*frontier.Frontier, error) {
	if top <= 0 {
		top = e.cfg.Frontier.Top
	}
	st, err := e.Load()
	if err != nil {
		return nil, err
	}
	return frontier.Compute(st.Graph, top), nil
}

// Progress counts decisions by level and state.
func (e *Engine) Progress() (*frontier.Progress, error) {
	st, err := e.Load()
	if err != nil {
		return nil, err
	}
	return frontier.ComputeProgress(st.Graph), nil
}

// Search matches terms against titles and bodies.
func (e *Engine) Search(terms []string) (*search.Results, error) {
	st, err := e.Load()
	if err != nil {
		return nil, err
	}
	return search.Search(st.Graph, terms), nil
}

// Check narrows the committed graph to decisions matching keywords.
func (e *Engine) Check(keywords []string) (*health.CheckResult, error) {
	st, err := e.Load()
	if err != nil {
		return nil, err
	}
	return health.Check(st.Graph, keywords, e.cfg.Health.ThinThreshold), nil
}

// CompileManifest produces the deterministic compile order.
func (e *Engine) CompileManifest(opts manifest.Options) (*manifest.Manifest, error) {
	st, err := e.Load()
	if err != nil {
		return nil, err
	}
	return manifest.Compile(st.Graph, opts)
}

// Index regenerates INDEX.md in both scope directories.
func (e *Engine) Index() ([]health.IndexResult, error) {
	st, err := e.Load()
	if err != nil {
		return nil, err
	}
	return e.writeIndexes(st)
}

func (e *Engine) writeIndexes(st *State) ([]health.IndexResult, error) {
	results, err := health.WriteIndexes(e.store, st.Graph)
	if err != nil {
		return results, err
	}
	for _, r := range results {
		e.bus.Publish(event.NewReportWrittenEvent("index", r.Path, r.Count))
	}
	return results, nil
}

// HealthResult reports one HEALTH.md regeneration.
type HealthResult struct {
	Report *health.Report `json:"report"`
	Path   string         `json:"path"`
	// ManuallyEdited is true when the previous file had been edited by hand.
	// The edit is overwritten; only the Manual Flags section survives.
	ManuallyEdited bool `json:"manually_edited"`
}

// Health computes the health report and writes HEALTH.md.
func (e *Engine) Health(ctx context.Context) (*HealthResult, error) {
	st, err := e.Load()
	if err != nil {
		return nil, err
	}
	return e.writeHealth(ctx, st)
}

func (e *Engine) writeHealth(ctx context.Context, st *State) (*HealthResult, error) {
	report := health.Compute(ctx, st.Graph, st.Issues, e.healthOptions())
	path := e.HealthPath()
	existing, err := health.Write(path, report)
	if err != nil {
		return nil, err
	}
	if existing.ManuallyEdited {
		e.logger.Warn("HEALTH.md was edited by hand; regenerated content replaces the edit", "path", path)
	}
	e.bus.Publish(event.NewReportWrittenEvent("health", path, report.Total))
	return &HealthResult{Report: report, Path: path, ManuallyEdited: existing.ManuallyEdited}, nil
}

func (e *Engine) healthOptions() health.Options {
	return health.Options{
		ThinThreshold: e.cfg.Health.ThinThreshold,
		StaleAfter:    time.Duration(e.cfg.Validation.StaleAfterDays) * 24 * time.Hour,
		History:       e.History(),
		Rules:         e.rules,
		Now:           e.now,
	}
}

// AddScratchpad records a note. Links must name existing decisions.
func (e *Engine) AddScratchpad(typ scratchpad.Type, content string, links []string) (scratchpad.Entry, error) {
	st, err := e.Load()
	if err != nil {
		return scratchpad.Entry{}, err
	}
	return e.Scratchpad().Add(typ, content, links, st.Graph)
}

// MatureScratchpad marks entry spID as matured into the existing decision decID.
func (e *Engine) MatureScratchpad(ctx context.Context, spID, decID string) (scratchpad.Entry, error) {
	st, err := e.Load()
	if err != nil {
		return scratchpad.Entry{}, err
	}
	return e.Scratchpad().Mature(ctx, spID, decID, st.Graph)
}
