package filelock

import (
	"time"
)

// Resource names a lockable part of the project state.
type Resource string

const (
	// ResourceGraph covers every decision document. Validation is graph-wide,
	// so all decision mutations serialize on this single resource.
	ResourceGraph Resource = "graph"

	// ResourceInbox covers the message inbox directory.
	ResourceInbox Resource = "inbox"

	// ResourceScratchpad covers the scratchpad directory.
	ResourceScratchpad Resource = "scratchpad"
)

// Option configures a Registry.
type Option func(*Registry)

// WithPollInterval sets the initial retry interval while a lock is contended.
// The interval doubles on each retry up to maxPollInterval.
func WithPollInterval(d time.Duration) Option {
	return func(r *Registry) {
		if d > 0 {
			r.pollInterval = d
		}
	}
}
