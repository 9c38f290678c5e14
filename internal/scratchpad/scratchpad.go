// Package scratchpad stores informal pre-decision notes. An entry may later
// mature into a decision; maturing only records the link, the decision itself
// is created separately through the document store.
//
// Entries live one per file under the scratchpad directory (SP-001.json,
// SP-002.json, ...). Ids are allocated by exclusive create, so two processes
// adding at once get distinct ids.
package scratchpad

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/fraim-ai/fraim-toolkit/internal/errors"
	"github.com/fraim-ai/fraim-toolkit/internal/event"
	"github.com/fraim-ai/fraim-toolkit/internal/filelock"
	"github.com/fraim-ai/fraim-toolkit/internal/store"
)

// Type classifies an entry.
type Type string

const (
	TypeIdea       Type = "idea"
	TypeConstraint Type = "constraint"
	TypeQuestion   Type = "question"
	TypeConcern    Type = "concern"
)

// Types lists the valid entry types in sorted order.
var Types = []Type{TypeConcern, TypeConstraint, TypeIdea, TypeQuestion}

// ParseType converts s to a Type.
func ParseType(s string) (Type, error) {
	t := Type(strings.TrimSpace(s))
	for _, valid := range Types {
		if t == valid {
			return t, nil
		}
	}
	names := make([]string, len(Types))
	for i, v := range Types {
		names[i] = string(v)
	}
	return "", errors.NewStructuralError(errors.CodeInvalidField,
		fmt.Sprintf("invalid type '%s' (must be one of: %s)", s, strings.Join(names, ", "))).WithField("type")
}

// Entry is one scratchpad note.
type Entry struct {
	ID      string   `json:"id"`
	Type    Type     `json:"type"`
	Content string   `json:"content"`
	Created string   `json:"created"`
	Links   []string `json:"links"`
	// MaturedTo is the decision this entry became, empty while active.
	MaturedTo string `json:"matured_to,omitempty"`
}

// Active reports whether the entry has not matured.
func (e Entry) Active() bool { return e.MaturedTo == "" }

// Resolver answers whether a decision id exists. *graph.Graph satisfies it.
type Resolver interface {
	Exists(id string) bool
}

// Listing splits entries into active and matured.
type Listing struct {
	Active  []Entry `json:"active"`
	Matured []Entry `json:"matured"`
}

const maxAllocAttempts = 50

var idPattern = regexp.MustCompile(`^SP-(\d{3,})\.json$`)

// Pad is the scratchpad of one project.
type Pad struct {
	dir   string
	bus   *event.Bus
	locks *filelock.Registry
	now   func() time.Time
}

// Option configures a Pad.
type Option func(*Pad)

// WithBus publishes a ScratchpadEvent after every add and mature.
func WithBus(bus *event.Bus) Option {
	return func(p *Pad) { p.bus = bus }
}

// WithLocks serializes Mature across processes.
func WithLocks(registry *filelock.Registry) Option {
	return func(p *Pad) { p.locks = registry }
}

// New creates a Pad storing entries in dir.
func New(dir string, opts ...Option) *Pad {
	p := &Pad{dir: dir, now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Add stores a new active entry. Every link must name an existing decision.
func (p *Pad) Add(typ Type, content string, links []string, decisions Resolver) (Entry, error) {
	if _, err := ParseType(string(typ)); err != nil {
		return Entry{}, err
	}
	if strings.TrimSpace(content) == "" {
		return Entry{}, errors.NewStructuralError(errors.CodeMissingField, "content string is required").WithField("content")
	}
	if links == nil {
		links = []string{}
	}
	for _, link := range links {
		if decisions == nil || !decisions.Exists(link) {
			return Entry{}, errors.NewNotFoundError("decision", link).WithDetail("linked decision not found in graph")
		}
	}

	entry := Entry{
		Type:    typ,
		Content: content,
		Created: p.now().Format(time.DateOnly),
		Links:   links,
	}
	for range maxAllocAttempts {
		n, err := p.maxID()
		if err != nil {
			return Entry{}, err
		}
		entry.ID = fmt.Sprintf("SP-%03d", n+1)
		data, err := marshal(entry)
		if err != nil {
			return Entry{}, err
		}
		created, err := store.CreateFileExclusive(p.path(entry.ID), data, 0o644)
		if err != nil {
			return Entry{}, err
		}
		if created {
			summary := fmt.Sprintf("Added %s [%s]: %s", entry.ID, entry.Type, entry.Content)
			p.publish(event.NewScratchpadEvent("added", entry.ID, "", summary))
			return entry, nil
		}
	}
	return Entry{}, errors.NewConflictError("scratchpad entry", entry.ID).
		WithReason(fmt.Sprintf("could not allocate an id after %d attempts", maxAllocAttempts))
}

// Get reads one entry.
func (p *Pad) Get(id string) (Entry, error) {
	if strings.ContainsAny(id, `/\`) || id == "" {
		return Entry{}, errors.NewNotFoundError("scratchpad entry", id)
	}
	data, err := os.ReadFile(p.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return Entry{}, errors.NewNotFoundError("scratchpad entry", id).WithDetail("not found in scratchpad")
		}
		return Entry{}, errors.NewIOError("read", p.path(id), err)
	}
	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return Entry{}, errors.NewIOError("decode", p.path(id), err)
	}
	return e, nil
}

// Entries returns every readable entry ordered by id number.
func (p *Pad) Entries() ([]Entry, error) {
	names, err := p.entryFiles()
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(names))
	for _, name := range names {
		e, err := p.Get(strings.TrimSuffix(name, ".json"))
		if err != nil {
			continue
		}
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return idNumber(entries[i].ID) < idNumber(entries[j].ID) })
	return entries, nil
}

// List returns entries split by lifecycle, optionally restricted to one type.
func (p *Pad) List(typ Type) (*Listing, error) {
	entries, err := p.Entries()
	if err != nil {
		return nil, err
	}
	l := &Listing{Active: []Entry{}, Matured: []Entry{}}
	for _, e := range entries {
		if typ != "" && e.Type != typ {
			continue
		}
		if e.Active() {
			l.Active = append(l.Active, e)
		} else {
			l.Matured = append(l.Matured, e)
		}
	}
	return l, nil
}

// Mature records that entry spID became decision decID. It fails with
// NotFound for an unknown entry or decision and Conflict when the entry has
// already matured.
func (p *Pad) Mature(ctx context.Context, spID, decID string, decisions Resolver) (Entry, error) {
	release, err := p.lock(ctx, "scratchpad mature")
	if err != nil {
		return Entry{}, err
	}
	defer release()

	e, err := p.Get(spID)
	if err != nil {
		return Entry{}, err
	}
	if !e.Active() {
		return Entry{}, errors.NewConflictError("scratchpad entry", spID).
			WithReason("already matured to " + e.MaturedTo)
	}
	if decisions == nil || !decisions.Exists(decID) {
		return Entry{}, errors.NewNotFoundError("decision", decID).WithDetail("not found in graph")
	}

	e.MaturedTo = decID
	data, err := marshal(e)
	if err != nil {
		return Entry{}, err
	}
	if err := store.WriteFileAtomic(p.path(spID), data, 0o644); err != nil {
		return Entry{}, err
	}
	p.publish(event.NewScratchpadEvent("matured", spID, decID,
		fmt.Sprintf("Matured %s [%s] → %s", spID, e.Type, decID)))
	return e, nil
}

// Summary describes the active entries per type, or "" when there are none.
func Summary(entries []Entry) string {
	counts := make(map[Type]int)
	active := 0
	for _, e := range entries {
		if e.Active() {
			counts[e.Type]++
			active++
		}
	}
	if active == 0 {
		return ""
	}
	types := make([]string, 0, len(counts))
	for t := range counts {
		types = append(types, string(t))
	}
	sort.Strings(types)
	parts := make([]string, 0, len(types))
	for _, t := range types {
		parts = append(parts, fmt.Sprintf("%d %s(s)", counts[Type(t)], t))
	}
	return fmt.Sprintf("%d active — %s", active, strings.Join(parts, ", "))
}

func (p *Pad) path(id string) string {
	return filepath.Join(p.dir, id+".json")
}

func (p *Pad) entryFiles() ([]string, error) {
	dirEntries, err := os.ReadDir(p.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.NewIOError("list", p.dir, err)
	}
	var names []string
	for _, de := range dirEntries {
		if !de.IsDir() && idPattern.MatchString(de.Name()) {
			names = append(names, de.Name())
		}
	}
	return names, nil
}

func (p *Pad) maxID() (int, error) {
	names, err := p.entryFiles()
	if err != nil {
		return 0, err
	}
	highest := 0
	for _, name := range names {
		highest = max(highest, idNumber(strings.TrimSuffix(name, ".json")))
	}
	return highest, nil
}

func (p *Pad) lock(ctx context.Context, holder string) (func(), error) {
	if p.locks == nil {
		return func() {}, nil
	}
	return p.locks.Acquire(ctx, filelock.ResourceScratchpad, holder)
}

func (p *Pad) publish(e event.Event) {
	if p.bus != nil {
		p.bus.Publish(e)
	}
}

func idNumber(id string) int {
	n, err := strconv.Atoi(strings.TrimPrefix(id, "SP-"))
	if err != nil {
		return 0
	}
	return n
}

func marshal(e Entry) ([]byte, error) {
	data, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("scratchpad: marshal entry: %w", err)
	}
	return append(data, '\n'), nil
}
