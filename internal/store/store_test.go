package store

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fraim-ai/fraim-toolkit/internal/decision"
	"github.com/fraim-ai/fraim-toolkit/internal/errors"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	root := t.TempDir()
	return New(filepath.Join(root, "constitution"), filepath.Join(root, "dna"))
}

func newDecision(id string, level decision.Level, scope decision.Scope, deps ...string) *decision.Decision {
	if deps == nil {
		deps = []string{}
	}
	return &decision.Decision{
		ID:        id,
		Title:     "Title of " + id,
		Date:      "2026-01-02",
		Level:     level,
		State:     decision.StateSuggested,
		DependsOn: deps,
		Scope:     scope,
		Body:      decision.ScaffoldBody,
	}
}

func writeRaw(t *testing.T, dir, name, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_EmptyRoots(t *testing.T) {
	s := newTestStore(t)
	snap, err := s.Load()
	require.NoError(t, err)
	assert.Empty(t, snap.Decisions)
	assert.Empty(t, snap.Issues)
}

func TestLoad_OrderAndScope(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Create(newDecision("DEC-010", 2, decision.ScopeProject)))
	require.NoError(t, s.Create(newDecision("DEC-002", 3, decision.ScopeProject)))
	require.NoError(t, s.Create(newDecision("DEC-005", 1, decision.ScopeGovernance)))
	writeRaw(t, s.Dir(decision.ScopeProject), "INDEX.md", "# not a decision\n")

	snap, err := s.Load()
	require.NoError(t, err)

	var ids []string
	for _, d := range snap.Decisions {
		ids = append(ids, d.ID)
	}
	assert.Equal(t, []string{"DEC-005", "DEC-002", "DEC-010"}, ids)
	assert.Equal(t, decision.ScopeGovernance, snap.Decisions[0].Scope)
	assert.Equal(t, decision.ScopeProject, snap.Decisions[1].Scope)
	assert.Equal(t, s.PathFor("DEC-002", decision.ScopeProject), snap.Decisions[1].Path)
}

func TestLoad_MalformedDocumentIsAnIssue(t *testing.T) {
	s := newTestStore(t)
	path := writeRaw(t, s.Dir(decision.ScopeProject), "DEC-001.md", "no frontmatter here\n")
	require.NoError(t, s.Create(newDecision("DEC-002", 1, decision.ScopeProject)))

	snap, err := s.Load()
	require.NoError(t, err)
	require.Len(t, snap.Decisions, 1)
	require.Len(t, snap.Issues, 1)
	assert.Equal(t, path, snap.Issues[0].Path)
	assert.ErrorIs(t, snap.Issues[0].Err, errors.ErrMalformedDocument)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "no frontmatter here\n", string(data))
}

func TestRead(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Create(newDecision("DEC-001", 1, decision.ScopeGovernance)))

	d, err := s.Read("DEC-001")
	require.NoError(t, err)
	assert.Equal(t, decision.ScopeGovernance, d.Scope)
	assert.Equal(t, decision.ScaffoldBody, d.Body)

	_, err = s.Read("DEC-404")
	assert.ErrorIs(t, err, errors.ErrNotFound)

	_, err = s.Read("../etc/passwd")
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestCreate_Conflict(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Create(newDecision("DEC-001", 1, decision.ScopeGovernance)))

	err := s.Create(newDecision("DEC-001", 2, decision.ScopeProject))
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrConflict)
}

func TestCreate_ConcurrentSameID(t *testing.T) {
	s := newTestStore(t)

	var wg sync.WaitGroup
	results := make([]error, 10)
	for i := range results {
		wg.Go(func() {
			results[i] = s.Create(newDecision("DEC-007", 1, decision.ScopeProject))
		})
	}
	wg.Wait()

	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, errors.ErrConflict)
	}
	assert.Equal(t, 1, succeeded)

	entries, err := os.ReadDir(s.Dir(decision.ScopeProject))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must be cleaned up")
}

func TestWrite_Atomic(t *testing.T) {
	s := newTestStore(t)
	d := newDecision("DEC-001", 1, decision.ScopeProject)
	require.NoError(t, s.Create(d))

	d.State = decision.StateCommitted
	require.NoError(t, s.Write(d))

	got, err := s.Read("DEC-001")
	require.NoError(t, err)
	assert.Equal(t, decision.StateCommitted, got.State)
	assert.Equal(t, d.Body, got.Body)

	entries, err := os.ReadDir(s.Dir(decision.ScopeProject))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestSubstitute(t *testing.T) {
	doc := "---\nid: DEC-001\ntitle: keep\n---\n\n## Decision\n\nkeep going, keep calm\n"

	out, err := Substitute("DEC-001", doc, "going", "stopping")
	require.NoError(t, err)
	assert.Equal(t, "---\nid: DEC-001\ntitle: keep\n---\n\n## Decision\n\nkeep stopping, keep calm\n", out)

	out, err = Substitute("DEC-001", doc, "calm", "quiet")
	require.NoError(t, err)
	assert.Contains(t, out, "title: keep\n", "the frontmatter is copied unchanged")

	_, err = Substitute("DEC-001", doc, "keep", "x")
	require.Error(t, err)
	var nf *errors.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "old text matches 2 locations", nf.Detail)

	_, err = Substitute("DEC-001", doc, "title", "x")
	assert.ErrorIs(t, err, errors.ErrNotFound, "frontmatter text is not editable")

	_, err = Substitute("DEC-001", doc, "", "x")
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestWrite_RejectsTitleThatWouldNotParse(t *testing.T) {
	s := newTestStore(t)
	d := newDecision("DEC-001", 1, decision.ScopeProject)
	require.NoError(t, s.Create(d))
	original, err := s.ReadRaw("DEC-001")
	require.NoError(t, err)

	broken := *d
	broken.Title = "first line\nsecond line"
	err = s.Write(&broken)
	assert.ErrorIs(t, err, errors.ErrInvalidField)

	raw, err := s.ReadRaw("DEC-001")
	require.NoError(t, err)
	assert.Equal(t, original, raw)

	fresh := newDecision("DEC-002", 2, decision.ScopeProject)
	fresh.Title = "a\nb: c"
	assert.ErrorIs(t, s.Create(fresh), errors.ErrInvalidField)
	assert.NoFileExists(t, s.PathFor("DEC-002", decision.ScopeProject))
}

func TestReplaceTextAt_UsesGivenPath(t *testing.T) {
	s := newTestStore(t)
	d := newDecision("DEC-001", 1, decision.ScopeProject)
	d.Body = "\n\n## Decision\n\nUse X.\n"
	path := writeRaw(t, s.Dir(decision.ScopeProject), "DEC-001-storage.md", string(decision.Marshal(d)))

	_, err := s.ReadRaw("DEC-001")
	assert.ErrorIs(t, err, errors.ErrNotFound, "lookup by id only knows DEC-001.md")

	_, after, err := ReplaceTextAt(path, "DEC-001", "Use X.", "Use Y.")
	require.NoError(t, err)
	assert.Contains(t, after, "Use Y.")

	raw, err := ReadRawAt(path)
	require.NoError(t, err)
	assert.Equal(t, after, raw)

	_, err = ReadRawAt(path + ".missing")
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestReplaceText_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	d := newDecision("DEC-001", 1, decision.ScopeProject)
	d.Body = "\n\n## Decision\n\nUse X.\n"
	require.NoError(t, s.Create(d))

	original, err := s.ReadRaw("DEC-001")
	require.NoError(t, err)

	before, after, err := s.ReplaceText("DEC-001", "Use X.", "Use Y.")
	require.NoError(t, err)
	assert.Equal(t, original, before)
	assert.Contains(t, after, "Use Y.")

	_, _, err = s.ReplaceText("DEC-001", "Use Y.", "Use X.")
	require.NoError(t, err)

	restored, err := s.ReadRaw("DEC-001")
	require.NoError(t, err)
	assert.Equal(t, original, restored)
}

func TestReplaceText_SecondConcurrentEditFails(t *testing.T) {
	s := newTestStore(t)
	d := newDecision("DEC-001", 1, decision.ScopeProject)
	d.Body = "\n\n## Decision\n\nold wording\n"
	require.NoError(t, s.Create(d))

	_, _, err := s.ReplaceText("DEC-001", "old wording", "first writer")
	require.NoError(t, err)

	_, _, err = s.ReplaceText("DEC-001", "old wording", "second writer")
	assert.ErrorIs(t, err, errors.ErrNotFound)

	raw, err := s.ReadRaw("DEC-001")
	require.NoError(t, err)
	assert.Contains(t, raw, "first writer")
	assert.NotContains(t, raw, "second writer")
}
