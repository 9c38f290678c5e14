package filelock

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fraim-ai/fraim-toolkit/internal/errors"
	"github.com/fraim-ai/fraim-toolkit/internal/event"
)

const (
	defaultPollInterval = 5 * time.Millisecond
	maxPollInterval     = 100 * time.Millisecond
)

// Registry hands out exclusive locks on project resources. Each resource is
// backed by a lock file under dir, so holders in other processes are excluded
// as well as other goroutines of this one.
type Registry struct {
	dir          string
	bus          *event.Bus
	pollInterval time.Duration
}

// NewRegistry creates a Registry keeping lock files in dir. bus may be nil.
func NewRegistry(dir string, bus *event.Bus, opts ...Option) *Registry {
	r := &Registry{
		dir:          dir,
		bus:          bus,
		pollInterval: defaultPollInterval,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// LockPath returns the lock file backing resource.
func (r *Registry) LockPath(resource Resource) string {
	return filepath.Join(r.dir, string(resource)+".lock")
}

// Acquire blocks until resource is held or ctx is done. On success it returns
// a release function that is safe to call more than once. When ctx expires
// first the error is a TimeoutError. The lock.acquired event carries how long
// the caller waited.
func (r *Registry) Acquire(ctx context.Context, resource Resource, holder string) (func(), error) {
	fl := NewFileLock(r.LockPath(resource))
	start := time.Now()
	interval := r.pollInterval

	for {
		ok, err := fl.TryLock()
		if err != nil {
			return nil, errors.NewIOError("lock", fl.Path(), err)
		}
		if ok {
			break
		}

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, errors.NewTimeoutError("acquire "+string(resource)+" lock", time.Since(start)).
				WithCause(ctx.Err())
		case <-timer.C:
		}
		interval = min(interval*2, maxPollInterval)
	}

	waited := time.Since(start)
	r.publish(event.NewLockAcquiredEvent(string(resource), holder, waited))

	var once sync.Once
	release := func() {
		once.Do(func() {
			_ = fl.Unlock()
			r.publish(event.NewLockReleasedEvent(string(resource), holder))
		})
	}
	return release, nil
}

func (r *Registry) publish(e event.Event) {
	if r.bus != nil {
		r.bus.Publish(e)
	}
}
