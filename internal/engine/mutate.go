package engine

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/fraim-ai/fraim-toolkit/internal/decision"
	"github.com/fraim-ai/fraim-toolkit/internal/errors"
	"github.com/fraim-ai/fraim-toolkit/internal/event"
	"github.com/fraim-ai/fraim-toolkit/internal/filelock"
	"github.com/fraim-ai/fraim-toolkit/internal/graph"
	"github.com/fraim-ai/fraim-toolkit/internal/store"
	"github.com/fraim-ai/fraim-toolkit/internal/validate"
)

// CreateRequest describes a new decision.
type CreateRequest struct {
	ID         string
	Title      string
	Level      decision.Level
	DependsOn  []string
	Stakes     decision.Stakes
	Governance bool
	DryRun     bool
}

// MutationResult is returned by Create, Set and Edit.
type MutationResult struct {
	ID     string         `json:"id"`
	Path   string         `json:"path,omitempty"`
	DryRun bool           `json:"dry_run,omitempty"`
	Delta  validate.Delta `json:"validation"`
	// Warnings are advisory notes about the mutation itself.
	Warnings []string `json:"warnings,omitempty"`
	// Advisories report post-write work that was skipped.
	Advisories []string `json:"advisories,omitempty"`

	// Set only.
	Field    string `json:"field,omitempty"`
	OldValue string `json:"old,omitempty"`
	NewValue string `json:"new,omitempty"`
	Changed  bool   `json:"changed"`
}

// Create writes a new suggested decision with the scaffold body.
func (e *Engine) Create(ctx context.Context, req CreateRequest) (*MutationResult, error) {
	scope := decision.ScopeProject
	if req.Governance {
		scope = decision.ScopeGovernance
	}
	deps := req.DependsOn
	if deps == nil {
		deps = []string{}
	}
	d := &decision.Decision{
		ID:        strings.TrimSpace(req.ID),
		Title:     strings.TrimSpace(req.Title),
		Date:      decision.Today(),
		Level:     req.Level,
		State:     decision.StateSuggested,
		Stakes:    req.Stakes,
		DependsOn: deps,
		Scope:     scope,
		Body:      decision.ScaffoldBody,
	}
	if d.Title == "" {
		return nil, errors.NewStructuralError(errors.CodeMissingField, "title is required").WithNode(d.ID).WithField("title")
	}

	release, err := e.lock(ctx, req.DryRun, "create")
	if err != nil {
		return nil, err
	}
	defer release()

	st, err := e.Load()
	if err != nil {
		return nil, err
	}
	if existing, ok := st.Graph.Get(d.ID); ok {
		return nil, errors.NewConflictError("decision", d.ID).
			WithReason(fmt.Sprintf("already exists in %s (%s)", existing.Scope, existing.Path))
	}
	if err := validate.Blocking(validate.CheckCreate(st.Graph, d)); err != nil {
		return nil, err
	}

	res := &MutationResult{
		ID:      d.ID,
		Path:    e.store.PathFor(d.ID, scope),
		DryRun:  req.DryRun,
		Delta:   e.delta(st, st.Graph.With(d)),
		Changed: true,
	}
	if req.DryRun {
		return res, nil
	}

	if err := e.store.Create(d); err != nil {
		return nil, err
	}
	e.logger.WithNode(d.ID).Info("decision created", "scope", scope, "level", int(d.Level))
	e.bus.Publish(event.NewDecisionCreatedEvent(d.ID, string(scope), int(d.Level), d.Title))

	release()
	res.Advisories = e.regenerate(ctx)
	return res, nil
}

// SetRequest changes one frontmatter field.
type SetRequest struct {
	ID     string
	Field  string
	Value  string
	DryRun bool
}

// SettableFields lists the fields Set accepts.
var SettableFields = []string{"state", "depends_on", "level", "stakes", "title"}

// Set changes a frontmatter field after validating it against the graph. A
// commit is refused unless every dependency is already committed.
func (e *Engine) Set(ctx context.Context, req SetRequest) (*MutationResult, error) {
	release, err := e.lock(ctx, req.DryRun, "set")
	if err != nil {
		return nil, err
	}
	defer release()

	st, err := e.Load()
	if err != nil {
		return nil, err
	}
	prev, ok := st.Graph.Get(req.ID)
	if !ok {
		return nil, errors.NewNotFoundError("decision", req.ID)
	}

	next := prev.Clone()
	if err := applyField(next, req.Field, req.Value); err != nil {
		return nil, err
	}
	if err := validate.Blocking(validate.CheckSet(st.Graph, prev, next, req.Field)); err != nil {
		return nil, err
	}

	res := &MutationResult{
		ID:       req.ID,
		Path:     prev.Path,
		DryRun:   req.DryRun,
		Field:    req.Field,
		OldValue: fieldValue(prev, req.Field),
		NewValue: fieldValue(next, req.Field),
	}
	res.Changed = res.OldValue != res.NewValue
	res.Delta = e.delta(st, st.Graph.With(next))
	if req.DryRun || !res.Changed {
		return res, nil
	}

	if err := e.store.Write(next); err != nil {
		return nil, err
	}
	e.logger.WithNode(req.ID).Info("decision updated", "field", req.Field, "old", res.OldValue, "new", res.NewValue)
	e.bus.Publish(event.NewDecisionUpdatedEvent(req.ID, req.Field, res.OldValue, res.NewValue))

	release()
	res.Advisories = e.regenerate(ctx)
	return res, nil
}

// applyField parses value into field of d. Invalid values that a parser can
// reject are StructuralErrors; range checks are left to validate.CheckSet.
func applyField(d *decision.Decision, field, value string) error {
	value = strings.TrimSpace(value)
	switch field {
	case "state":
		d.State = decision.State(value)
	case "depends_on":
		d.DependsOn = decision.ParseIDList(value)
	case "level":
		n, err := strconv.Atoi(value)
		if err != nil {
			return errors.NewStructuralError(errors.CodeInvalidField,
				fmt.Sprintf("invalid level '%s' (must be 1-4)", value)).WithNode(d.ID).WithField("level")
		}
		d.Level = decision.Level(n)
	case "stakes":
		if value == "none" {
			value = ""
		}
		d.Stakes = decision.Stakes(value)
	case "title":
		d.Title = strings.TrimSpace(value)
	}
	return nil
}

func fieldValue(d *decision.Decision, field string) string {
	switch field {
	case "state":
		return string(d.State)
	case "depends_on":
		return decision.FormatIDList(d.DependsOn)
	case "level":
		return strconv.Itoa(int(d.Level))
	case "stakes":
		if d.Stakes == "" {
			return "none"
		}
		return string(d.Stakes)
	case "title":
		return d.Title
	}
	return ""
}

// EditRequest replaces text in a decision body.
type EditRequest struct {
	ID     string
	Old    string
	New    string
	DryRun bool
}

// Edit replaces the single occurrence of Old with New in the body of ID.
// When Old is absent, for instance because a concurrent caller already
// replaced it, Edit fails with NotFoundError and leaves the file untouched.
// Superseded decisions are edited with an advisory warning.
func (e *Engine) Edit(ctx context.Context, req EditRequest) (*MutationResult, error) {
	release, err := e.lock(ctx, req.DryRun, "edit")
	if err != nil {
		return nil, err
	}
	defer release()

	st, err := e.Load()
	if err != nil {
		return nil, err
	}
	prev, ok := st.Graph.Get(req.ID)
	if !ok {
		return nil, errors.NewNotFoundError("decision", req.ID)
	}

	before, err := store.ReadRawAt(prev.Path)
	if err != nil {
		return nil, err
	}
	after, err := store.Substitute(req.ID, before, req.Old, req.New)
	if err != nil {
		return nil, err
	}

	res := &MutationResult{ID: req.ID, Path: prev.Path, DryRun: req.DryRun, Changed: before != after}
	if prev.State == decision.StateSuperseded {
		res.Warnings = append(res.Warnings, fmt.Sprintf("%s is superseded; edits to superseded decisions are discouraged", req.ID))
	}

	next, err := decision.Parse([]byte(after))
	if err != nil {
		return nil, err
	}
	next.Scope, next.Path = prev.Scope, prev.Path
	res.Delta = e.delta(st, st.Graph.With(next))
	if req.DryRun {
		return res, nil
	}

	if _, _, err := store.ReplaceTextAt(prev.Path, req.ID, req.Old, req.New); err != nil {
		return nil, err
	}
	e.logger.WithNode(req.ID).Info("decision edited", "removed", len(req.Old), "added", len(req.New))
	e.bus.Publish(event.NewDecisionEditedEvent(req.ID, len(req.Old), len(req.New)))

	release()
	res.Advisories = e.regenerate(ctx)
	return res, nil
}

// delta validates the graph before and after a change.
func (e *Engine) delta(st *State, after *graph.Graph) validate.Delta {
	return validate.Diff(
		validate.Graph(st.Graph, st.Issues, e.rules),
		validate.Graph(after, st.Issues, e.rules),
	)
}

// lock takes the graph lock for a mutation. Dry runs never write and take no lock.
func (e *Engine) lock(ctx context.Context, dryRun bool, holder string) (func(), error) {
	if dryRun {
		return func() {}, nil
	}
	return e.locks.Acquire(ctx, filelock.ResourceGraph, holder)
}
