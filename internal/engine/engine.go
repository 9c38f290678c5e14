// Package engine sequences the decision store, graph, validator and derived
// reports into the operations exposed by the command surface.
//
// Every operation reloads the graph from disk. Mutations hold the graph lock
// for their whole read-validate-write sequence, publish an event on success,
// and then run advisory work (HEALTH.md and INDEX.md regeneration) under a
// bounded budget whose failure never fails the mutation.
package engine

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fraim-ai/fraim-toolkit/internal/audit"
	"github.com/fraim-ai/fraim-toolkit/internal/config"
	"github.com/fraim-ai/fraim-toolkit/internal/errors"
	"github.com/fraim-ai/fraim-toolkit/internal/event"
	"github.com/fraim-ai/fraim-toolkit/internal/filelock"
	"github.com/fraim-ai/fraim-toolkit/internal/graph"
	"github.com/fraim-ai/fraim-toolkit/internal/history"
	"github.com/fraim-ai/fraim-toolkit/internal/inbox"
	"github.com/fraim-ai/fraim-toolkit/internal/logging"
	"github.com/fraim-ai/fraim-toolkit/internal/scratchpad"
	"github.com/fraim-ai/fraim-toolkit/internal/store"
	"github.com/fraim-ai/fraim-toolkit/internal/validate"
)

// slowLockWait is how long a caller may wait on a lock before the wait is logged.
const slowLockWait = 500 * time.Millisecond

// Engine operates on one project.
type Engine struct {
	root   string
	cfg    *config.Config
	store  *store.Store
	bus    *event.Bus
	locks  *filelock.Registry
	logger *logging.Logger
	rules  *validate.Rules
	now    func() time.Time

	historyOnce sync.Once
	history     *history.Tracker
}

// Option configures an Engine.
type Option func(*Engine)

// WithBus publishes engine events on bus instead of a private one.
func WithBus(bus *event.Bus) Option {
	return func(e *Engine) {
		if bus != nil {
			e.bus = bus
		}
	}
}

// WithLogger sets the engine logger.
func WithLogger(logger *logging.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithClock overrides time.Now for reports.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// New creates an Engine for the project rooted at root.
func New(root string, cfg *config.Config, opts ...Option) (*Engine, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	rules, err := validate.NewRules(cfg)
	if err != nil {
		return nil, err
	}
	e := &Engine{
		root:   root,
		cfg:    cfg,
		store:  store.New(cfg.GovernancePath(root), cfg.ProjectPath(root)),
		logger: logging.NopLogger(),
		rules:  rules,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.bus == nil {
		e.bus = event.NewBus(event.WithLogger(e.logger))
	}
	e.locks = filelock.NewRegistry(filepath.Join(cfg.StatePath(root), "locks"), e.bus)
	e.bus.Subscribe("lock.acquired", e.logLockWait)
	return e, nil
}

// logLockWait warns when another writer held a lock long enough to be noticed.
func (e *Engine) logLockWait(ev event.Event) {
	le, ok := ev.(event.LockEvent)
	if !ok || le.Waited < slowLockWait {
		return
	}
	e.logger.Warn("lock contended",
		"resource", le.Resource,
		"holder", le.Holder,
		"waited_ms", le.Waited.Milliseconds())
}

// Open loads the project configuration from root and creates an Engine.
func Open(root string, opts ...Option) (*Engine, error) {
	cfg, err := config.LoadProject(root)
	if err != nil {
		return nil, err
	}
	return New(root, cfg, opts...)
}

// Root returns the project root.
func (e *Engine) Root() string { return e.root }

// Config returns the project configuration.
func (e *Engine) Config() *config.Config { return e.cfg }

// Store returns the document store.
func (e *Engine) Store() *store.Store { return e.store }

// Bus returns the event bus mutations are published on.
func (e *Engine) Bus() *event.Bus { return e.bus }

// Locks returns the lock registry.
func (e *Engine) Locks() *filelock.Registry { return e.locks }

// Logger returns the engine logger.
func (e *Engine) Logger() *logging.Logger { return e.logger }

// StateDir returns the absolute engine state directory.
func (e *Engine) StateDir() string { return e.cfg.StatePath(e.root) }

// HealthPath returns where HEALTH.md is written.
func (e *Engine) HealthPath() string { return e.cfg.HealthPath(e.root) }

// State is one load of the graph.
type State struct {
	Graph  *graph.Graph
	Issues []store.LoadIssue
}

// Load reads every decision and builds the graph.
func (e *Engine) Load() (*State, error) {
	snap, err := e.store.Load()
	if err != nil {
		return nil, err
	}
	return &State{Graph: graph.Build(snap.Decisions), Issues: snap.Issues}, nil
}

// Inbox returns the project inbox.
func (e *Engine) Inbox() *inbox.Inbox {
	return inbox.New(filepath.Join(e.StateDir(), "inbox"),
		inbox.WithBus(e.bus),
		inbox.WithLocks(e.locks),
		inbox.WithLogger(e.logger.With("component", "inbox")))
}

// Scratchpad returns the project scratchpad.
func (e *Engine) Scratchpad() *scratchpad.Pad {
	return scratchpad.New(filepath.Join(e.StateDir(), "scratchpad"),
		scratchpad.WithBus(e.bus),
		scratchpad.WithLocks(e.locks))
}

// OpenAudit opens the audit database of the project.
func (e *Engine) OpenAudit() (*audit.Log, error) {
	return audit.Open(filepath.Join(e.StateDir(), audit.FileName))
}

// RecordAudit starts appending every published event to the audit trail.
// The returned stop function closes the database.
func (e *Engine) RecordAudit() (stop func(), err error) {
	l, err := e.OpenAudit()
	if err != nil {
		return nil, err
	}
	rec := audit.NewRecorder(l, e.bus, e.logger.With("component", "audit"))
	return func() {
		rec.Stop()
		_ = l.Close()
	}, nil
}

// History returns the git history tracker for the project, or nil when the
// project is not inside a git repository.
func (e *Engine) History() *history.Tracker {
	e.historyOnce.Do(func() {
		t, err := history.Open(e.root)
		if err != nil {
			if !errors.Is(err, history.ErrNoRepository) {
				e.logger.Warn("git history unavailable", "error", err)
			}
			return
		}
		e.history = t
	})
	return e.history
}
