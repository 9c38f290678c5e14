package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Signature is the author used for fixture commits.
func Signature(when time.Time) *object.Signature {
	return &object.Signature{Name: "DNA Test", Email: "test@dna.dev", When: when}
}

// InitRepo turns dir into a git repository.
func InitRepo(t *testing.T, dir string) *git.Repository {
	t.Helper()

	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("failed to init git repo: %v", err)
	}
	return repo
}

// CommitFile writes content to path (relative to the worktree root), stages
// it and commits with the given author time.
func CommitFile(t *testing.T, repo *git.Repository, path, content, message string, when time.Time) {
	t.Helper()

	wt, err := repo.Worktree()
	if err != nil {
		t.Fatalf("failed to open worktree: %v", err)
	}
	full := filepath.Join(wt.Filesystem.Root(), path)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatalf("failed to create directory for %s: %v", path, err)
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write file %s: %v", path, err)
	}
	CommitPaths(t, repo, message, when, path)
}

// CommitPaths stages existing files and commits them with the given author time.
func CommitPaths(t *testing.T, repo *git.Repository, message string, when time.Time, paths ...string) {
	t.Helper()

	wt, err := repo.Worktree()
	if err != nil {
		t.Fatalf("failed to open worktree: %v", err)
	}
	for _, p := range paths {
		if _, err := wt.Add(filepath.ToSlash(p)); err != nil {
			t.Fatalf("failed to stage %s: %v", p, err)
		}
	}
	sig := Signature(when)
	if _, err := wt.Commit(message, &git.CommitOptions{Author: sig, Committer: sig}); err != nil {
		t.Fatalf("failed to commit: %v", err)
	}
}
