// Package watch notifies the engine when decision documents change on disk.
package watch

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/fraim-ai/fraim-toolkit/internal/errors"
	"github.com/fraim-ai/fraim-toolkit/internal/logging"
)

// DefaultDebounce collapses the burst of events most editors emit for one save.
const DefaultDebounce = 50 * time.Millisecond

// Change is one debounced batch of modified decision documents.
type Change struct {
	Paths []string // absolute, sorted
	At    time.Time
}

// Watcher watches scope directories for changes to DEC-*.md files. Derived
// documents (INDEX.md, HEALTH.md) and atomic-write temp files are ignored so
// regenerating them does not retrigger the watcher.
type Watcher struct {
	watcher  *fsnotify.Watcher
	dirs     []string
	debounce time.Duration
	logger   *logging.Logger

	onChange func(Change)

	mu       sync.Mutex
	stopCh   chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce overrides DefaultDebounce. Non-positive values are ignored.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithLogger sets the logger used for watcher errors.
func WithLogger(logger *logging.Logger) Option {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// New creates a watcher over dirs. Directories that do not exist are skipped,
// but at least one must exist.
func New(dirs []string, opts ...Option) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.NewIOError("create watcher", "", err)
	}
	w := &Watcher{
		watcher:  fw,
		debounce: DefaultDebounce,
		logger:   logging.NopLogger(),
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	for _, dir := range dirs {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			w.logger.Debug("watch dir skipped", "dir", dir)
			continue
		}
		if err := fw.Add(dir); err != nil {
			_ = fw.Close()
			return nil, errors.NewIOError("watch", dir, err)
		}
		w.dirs = append(w.dirs, dir)
	}
	if len(w.dirs) == 0 {
		_ = fw.Close()
		return nil, errors.NewNotFoundError("directory", strings.Join(dirs, ", ")).
			WithDetail("no decision directory exists to watch")
	}
	return w, nil
}

// Dirs returns the directories being watched.
func (w *Watcher) Dirs() []string { return slices.Clone(w.dirs) }

// OnChange sets the callback invoked after each debounced batch.
func (w *Watcher) OnChange(cb func(Change)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = cb
}

// Start begins processing filesystem events in a goroutine.
func (w *Watcher) Start() {
	go w.loop()
}

// Stop stops the watcher and waits for the loop to exit. Safe to call more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		_ = w.watcher.Close()
	})
}

// Done is closed once the event loop has exited.
func (w *Watcher) Done() <-chan struct{} { return w.done }

func (w *Watcher) loop() {
	defer close(w.done)

	timer := time.NewTimer(0)
	<-timer.C

	pending := make(map[string]struct{})

	for {
		select {
		case <-w.stopCh:
			timer.Stop()
			return

		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if !IsDecisionFile(ev.Name) {
				continue
			}
			pending[ev.Name] = struct{}{}
			timer.Reset(w.debounce)

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			clear(pending)
			slices.Sort(paths)
			w.dispatch(Change{Paths: paths, At: time.Now()})

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", "error", err)
		}
	}
}

func (w *Watcher) dispatch(c Change) {
	w.mu.Lock()
	cb := w.onChange
	w.mu.Unlock()
	if cb == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("watch callback panicked", "panic", r)
		}
	}()
	cb(c)
}

// IsDecisionFile reports whether path names a decision document.
func IsDecisionFile(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return false
	}
	return strings.HasPrefix(base, "DEC-") && strings.HasSuffix(base, ".md")
}
