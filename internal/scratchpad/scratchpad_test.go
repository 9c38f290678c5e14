package scratchpad

import (
	"context"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fraim-ai/fraim-toolkit/internal/errors"
	"github.com/fraim-ai/fraim-toolkit/internal/event"
	"github.com/fraim-ai/fraim-toolkit/internal/filelock"
)

type ids map[string]bool

func (s ids) Exists(id string) bool { return s[id] }

func newPad(t *testing.T, opts ...Option) *Pad {
	t.Helper()
	p := New(filepath.Join(t.TempDir(), "scratchpad"), opts...)
	p.now = func() time.Time { return time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC) }
	return p
}

func TestAdd(t *testing.T) {
	p := newPad(t)
	graph := ids{"DEC-001": true}

	e, err := p.Add(TypeIdea, "usage-based pricing", []string{"DEC-001"}, graph)
	require.NoError(t, err)
	assert.Equal(t, "SP-001", e.ID)
	assert.Equal(t, "2026-10-18", e.Created)
	assert.True(t, e.Active())

	e, err = p.Add(TypeQuestion, "who is the buyer?", nil, graph)
	require.NoError(t, err)
	assert.Equal(t, "SP-002", e.ID)
	assert.Equal(t, []string{}, e.Links)
}

func TestAdd_Validation(t *testing.T) {
	p := newPad(t)

	_, err := p.Add("musing", "x", nil, ids{})
	assert.ErrorIs(t, err, errors.ErrInvalidField)

	_, err = p.Add(TypeIdea, "  ", nil, ids{})
	assert.ErrorIs(t, err, errors.ErrMissingField)

	_, err = p.Add(TypeIdea, "linked", []string{"DEC-404"}, ids{})
	assert.ErrorIs(t, err, errors.ErrNotFound)

	entries, err := p.Entries()
	require.NoError(t, err)
	assert.Empty(t, entries, "failed adds leave nothing behind")
}

func TestAdd_ConcurrentIDsAreUnique(t *testing.T) {
	p := newPad(t)

	var wg sync.WaitGroup
	var mu sync.Mutex
	var got []string
	for i := 0; i < 10; i++ {
		wg.Go(func() {
			e, err := p.Add(TypeConcern, "parallel", nil, ids{})
			if assert.NoError(t, err) {
				mu.Lock()
				got = append(got, e.ID)
				mu.Unlock()
			}
		})
	}
	wg.Wait()

	sort.Strings(got)
	require.Len(t, got, 10)
	for i := 1; i < len(got); i++ {
		assert.NotEqual(t, got[i-1], got[i])
	}
}

func TestListAndSummary(t *testing.T) {
	p := newPad(t)
	graph := ids{"DEC-002": true}
	_, _ = p.Add(TypeIdea, "a", nil, graph)
	_, _ = p.Add(TypeIdea, "b", nil, graph)
	_, _ = p.Add(TypeConstraint, "c", nil, graph)
	_, err := p.Mature(context.Background(), "SP-002", "DEC-002", graph)
	require.NoError(t, err)

	l, err := p.List("")
	require.NoError(t, err)
	assert.Len(t, l.Active, 2)
	require.Len(t, l.Matured, 1)
	assert.Equal(t, "DEC-002", l.Matured[0].MaturedTo)

	l, err = p.List(TypeConstraint)
	require.NoError(t, err)
	assert.Len(t, l.Active, 1)
	assert.Empty(t, l.Matured)

	entries, err := p.Entries()
	require.NoError(t, err)
	assert.Equal(t, "2 active — 1 constraint(s), 1 idea(s)", Summary(entries))
	assert.Equal(t, "", Summary(nil))
}

func TestMature(t *testing.T) {
	bus := event.NewBus()
	var details []string
	bus.Subscribe("scratchpad.matured", func(e event.Event) { details = append(details, e.Detail()) })

	dir := t.TempDir()
	p := newPad(t, WithBus(bus), WithLocks(filelock.NewRegistry(filepath.Join(dir, "locks"), nil)))
	graph := ids{"DEC-003": true}
	_, err := p.Add(TypeIdea, "an idea", nil, graph)
	require.NoError(t, err)

	_, err = p.Mature(context.Background(), "SP-009", "DEC-003", graph)
	assert.ErrorIs(t, err, errors.ErrNotFound)

	_, err = p.Mature(context.Background(), "SP-001", "DEC-404", graph)
	assert.ErrorIs(t, err, errors.ErrNotFound)

	e, err := p.Mature(context.Background(), "SP-001", "DEC-003", graph)
	require.NoError(t, err)
	assert.Equal(t, "DEC-003", e.MaturedTo)
	assert.Equal(t, []string{"Matured SP-001 [idea] → DEC-003"}, details)

	_, err = p.Mature(context.Background(), "SP-001", "DEC-003", graph)
	assert.ErrorIs(t, err, errors.ErrConflict)
}

func TestParseType(t *testing.T) {
	typ, err := ParseType(" concern ")
	require.NoError(t, err)
	assert.Equal(t, TypeConcern, typ)

	_, err = ParseType("rant")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "concern, constraint, idea, question")
}
