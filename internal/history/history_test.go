package history

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fraim-ai/fraim-toolkit/internal/errors"
	"github.com/fraim-ai/fraim-toolkit/internal/testutil"
)

func TestOpen_NotARepository(t *testing.T) {
	_, err := Open(t.TempDir())
	assert.ErrorIs(t, err, ErrNoRepository)
	assert.True(t, errors.Is(errors.Wrap(err, "stale check"), ErrNoRepository))
}

func TestLastCommit(t *testing.T) {
	dir := t.TempDir()
	repo := testutil.InitRepo(t, dir)

	first := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	second := time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)
	testutil.CommitFile(t, repo, "dna/DEC-001.md", "one\n", "add DEC-001", first)
	testutil.CommitFile(t, repo, "dna/DEC-002.md", "two\n", "add DEC-002", second)
	testutil.CommitFile(t, repo, "dna/DEC-002.md", "two, revised\n", "revise DEC-002", second.Add(24*time.Hour))

	tr, err := Open(filepath.Join(dir, "dna"))
	require.NoError(t, err)

	when, ok, err := tr.LastCommit(filepath.Join(dir, "dna", "DEC-001.md"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, when.Equal(first), "got %s", when)

	when, ok, err = tr.LastCommit(filepath.Join(dir, "dna", "DEC-002.md"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, when.Equal(second.Add(24*time.Hour)), "got %s", when)
}

func TestLastCommit_Untracked(t *testing.T) {
	dir := t.TempDir()
	repo := testutil.InitRepo(t, dir)
	testutil.CommitFile(t, repo, "README.md", "# test\n", "init", time.Now())

	path := filepath.Join(dir, "dna", "DEC-009.md")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("new\n"), 0o644))

	tr, err := Open(dir)
	require.NoError(t, err)

	_, ok, err := tr.LastCommit(path)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLastCommit_EmptyRepository(t *testing.T) {
	dir := t.TempDir()
	testutil.InitRepo(t, dir)

	tr, err := Open(dir)
	require.NoError(t, err)

	_, ok, err := tr.LastCommit(filepath.Join(dir, "dna", "DEC-001.md"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLastCommits(t *testing.T) {
	dir := t.TempDir()
	repo := testutil.InitRepo(t, dir)
	when := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	testutil.CommitFile(t, repo, "dna/DEC-001.md", "one\n", "add", when)

	tr, err := Open(dir)
	require.NoError(t, err)

	tracked := filepath.Join(dir, "dna", "DEC-001.md")
	untracked := filepath.Join(dir, "dna", "DEC-002.md")
	got, err := tr.LastCommits(context.Background(), []string{tracked, untracked})
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.True(t, got[tracked].Equal(when))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = tr.LastCommits(ctx, []string{tracked})
	assert.ErrorIs(t, err, context.Canceled)
}
