// Package history reads document modification times from the project's git
// history. It is used only for advisory staleness flags; a project that is
// not a git repository simply has no history.
package history

import (
	"context"
	"io"
	"path/filepath"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/fraim-ai/fraim-toolkit/internal/errors"
)

// ErrNoRepository is returned by Open when no enclosing git repository exists.
var ErrNoRepository = errors.New("history: not a git repository")

// Tracker answers "when was this file last committed".
type Tracker struct {
	repo *git.Repository
	root string
}

// Open finds the git repository containing path, searching parent directories.
func Open(path string) (*Tracker, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, ErrNoRepository
		}
		return nil, errors.Wrap(err, "history: open repo")
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, errors.Wrap(err, "history: open worktree")
	}
	return &Tracker{repo: repo, root: wt.Filesystem.Root()}, nil
}

// Root returns the worktree root of the repository.
func (t *Tracker) Root() string { return t.root }

// LastCommit returns the author time of the newest commit touching path.
// ok is false when the file has never been committed or HEAD does not exist.
func (t *Tracker) LastCommit(path string) (when time.Time, ok bool, err error) {
	rel, err := t.relative(path)
	if err != nil {
		return time.Time{}, false, err
	}

	iter, err := t.repo.Log(&git.LogOptions{FileName: &rel})
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, errors.Wrapf(err, "history: log %s", rel)
	}
	defer iter.Close()

	err = iter.ForEach(func(c *object.Commit) error {
		when = c.Author.When
		ok = true
		return io.EOF
	})
	if err != nil && !errors.Is(err, io.EOF) {
		return time.Time{}, false, errors.Wrapf(err, "history: iterate log %s", rel)
	}
	return when, ok, nil
}

// LastCommits looks up LastCommit for every path, stopping early when ctx is
// done. Paths without history are omitted from the result.
func (t *Tracker) LastCommits(ctx context.Context, paths []string) (map[string]time.Time, error) {
	out := make(map[string]time.Time, len(paths))
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		when, ok, err := t.LastCommit(p)
		if err != nil {
			return out, err
		}
		if ok {
			out[p] = when
		}
	}
	return out, nil
}

func (t *Tracker) relative(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", errors.Wrap(err, "history")
	}
	root, err := filepath.EvalSymlinks(t.root)
	if err != nil {
		root = t.root
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return "", errors.Wrapf(err, "history: %s is outside %s", path, t.root)
	}
	return filepath.ToSlash(rel), nil
}
