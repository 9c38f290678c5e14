package watch

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func waitChange(t *testing.T, ch <-chan Change) Change {
	t.Helper()
	select {
	case c := <-ch:
		return c
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for change")
		return Change{}
	}
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	w, err := New([]string{t.TempDir()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	w.Start()
	w.Stop()
	w.Stop()

	select {
	case <-w.Done():
	case <-time.After(time.Second):
		t.Fatal("loop did not exit after Stop")
	}
}

func TestWatcher_NoDirectories(t *testing.T) {
	_, err := New([]string{filepath.Join(t.TempDir(), "missing")})
	if err == nil {
		t.Fatal("expected error when no directory exists")
	}
}

func TestWatcher_SkipsMissingDirectory(t *testing.T) {
	dir := t.TempDir()
	w, err := New([]string{filepath.Join(dir, "constitution"), dir})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Stop()

	if got := w.Dirs(); len(got) != 1 || got[0] != dir {
		t.Errorf("Dirs() = %v, want [%s]", got, dir)
	}
}

func TestWatcher_DebouncesDecisionWrites(t *testing.T) {
	dir := t.TempDir()
	w, err := New([]string{dir}, WithDebounce(20*time.Millisecond))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Stop()

	changes := make(chan Change, 4)
	w.OnChange(func(c Change) { changes <- c })
	w.Start()

	path := filepath.Join(dir, "DEC-001.md")
	for i := range 3 {
		if err := os.WriteFile(path, []byte{byte('a' + i)}, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	// Derived documents must not show up in the batch.
	if err := os.WriteFile(filepath.Join(dir, "INDEX.md"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	c := waitChange(t, changes)
	if len(c.Paths) != 1 || c.Paths[0] != path {
		t.Errorf("Paths = %v, want [%s]", c.Paths, path)
	}
}

func TestWatcher_IgnoresDerivedDocuments(t *testing.T) {
	dir := t.TempDir()
	w, err := New([]string{dir}, WithDebounce(10*time.Millisecond))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Stop()

	changes := make(chan Change, 1)
	w.OnChange(func(c Change) { changes <- c })
	w.Start()

	for _, name := range []string{"HEALTH.md", "INDEX.md", ".tmp-DEC-001.md-123"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	select {
	case c := <-changes:
		t.Fatalf("unexpected change %v", c.Paths)
	case <-time.After(150 * time.Millisecond):
	}
}

func TestWatcher_CallbackPanicDoesNotStopLoop(t *testing.T) {
	dir := t.TempDir()
	w, err := New([]string{dir}, WithDebounce(10*time.Millisecond))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Stop()

	changes := make(chan Change, 2)
	calls := 0
	w.OnChange(func(c Change) {
		calls++
		if calls == 1 {
			panic("boom")
		}
		changes <- c
	})
	w.Start()

	if err := os.WriteFile(filepath.Join(dir, "DEC-001.md"), []byte("a"), 0o644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(dir, "DEC-002.md"), []byte("b"), 0o644); err != nil {
		t.Fatal(err)
	}

	c := waitChange(t, changes)
	if len(c.Paths) == 0 || filepath.Base(c.Paths[len(c.Paths)-1]) != "DEC-002.md" {
		t.Errorf("Paths = %v, want DEC-002.md", c.Paths)
	}
}

func TestIsDecisionFile(t *testing.T) {
	tests := map[string]bool{
		"/p/dna/DEC-001.md":           true,
		"/p/constitution/DEC-1234.md": true,
		"/p/dna/INDEX.md":             false,
		"/p/dna/HEALTH.md":            false,
		"/p/dna/.tmp-DEC-001.md-99":   false,
		"/p/dna/DEC-001.md.swp":       false,
		"/p/dna/notes.md":             false,
	}
	for path, want := range tests {
		if got := IsDecisionFile(path); got != want {
			t.Errorf("IsDecisionFile(%q) = %v, want %v", path, got, want)
		}
	}
}
