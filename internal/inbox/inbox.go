package inbox

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fraim-ai/fraim-toolkit/internal/event"
	"github.com/fraim-ai/fraim-toolkit/internal/filelock"
	"github.com/fraim-ai/fraim-toolkit/internal/logging"
)

const defaultPollInterval = 500 * time.Millisecond

// maxWatchErrors is the number of consecutive List failures before the
// watcher logs at error level.
const maxWatchErrors = 5

// Inbox wraps a Store with locking, event publishing and a poll-based watcher.
type Inbox struct {
	store        *Store
	bus          *event.Bus
	locks        *filelock.Registry
	logger       *logging.Logger
	pollInterval time.Duration
}

// Option configures an Inbox.
type Option func(*Inbox)

// WithBus publishes an InboxEvent after every successful mutation.
func WithBus(bus *event.Bus) Option {
	return func(ib *Inbox) { ib.bus = bus }
}

// WithLocks serializes Deliver and Clear across processes through registry.
func WithLocks(registry *filelock.Registry) Option {
	return func(ib *Inbox) { ib.locks = registry }
}

// WithLogger sets the logger used by Watch.
func WithLogger(logger *logging.Logger) Option {
	return func(ib *Inbox) {
		if logger != nil {
			ib.logger = logger
		}
	}
}

// WithPollInterval sets the interval between Watch polls. Non-positive values are ignored.
func WithPollInterval(d time.Duration) Option {
	return func(ib *Inbox) {
		if d > 0 {
			ib.pollInterval = d
		}
	}
}

// New creates an Inbox storing messages in dir.
func New(dir string, opts ...Option) *Inbox {
	ib := &Inbox{
		store:        NewStore(dir),
		logger:       logging.NopLogger(),
		pollInterval: defaultPollInterval,
	}
	for _, opt := range opts {
		opt(ib)
	}
	return ib
}

// Store returns the underlying store.
func (ib *Inbox) Store() *Store { return ib.store }

// Add appends a new undelivered message.
func (ib *Inbox) Add(msg Message) (Message, error) {
	added, err := ib.store.Add(msg)
	if err != nil {
		return Message{}, err
	}
	ib.publish(event.NewInboxEvent("added", []string{added.ID},
		fmt.Sprintf("%s %s message %s: %s", added.Priority, added.Type, added.ID, added.Detail)))
	return added, nil
}

// List returns messages matching opts.
func (ib *Inbox) List(opts ListOptions) ([]Message, error) {
	return ib.store.List(opts)
}

// Deliver marks ids delivered. The result lists which ids succeeded; missing
// ids are reported in it and do not fail the call.
func (ib *Inbox) Deliver(ctx context.Context, ids ...string) (DeliverResult, error) {
	release, err := ib.lock(ctx, "inbox deliver")
	if err != nil {
		return DeliverResult{}, err
	}
	defer release()

	res, err := ib.store.Deliver(ids...)
	if err != nil {
		return res, err
	}
	if len(res.Delivered) > 0 {
		ib.publish(event.NewInboxEvent("delivered", res.Delivered,
			fmt.Sprintf("delivered %d message(s)", len(res.Delivered))))
	}
	return res, nil
}

// Clear removes messages according to mode.
func (ib *Inbox) Clear(ctx context.Context, mode ClearMode) ([]string, error) {
	release, err := ib.lock(ctx, "inbox clear")
	if err != nil {
		return nil, err
	}
	defer release()

	removed, err := ib.store.Clear(mode)
	if err != nil {
		return removed, err
	}
	ib.publish(event.NewInboxEvent("cleared", removed,
		fmt.Sprintf("cleared %d %s message(s)", len(removed), mode)))
	return removed, nil
}

func (ib *Inbox) lock(ctx context.Context, holder string) (func(), error) {
	if ib.locks == nil {
		return func() {}, nil
	}
	return ib.locks.Acquire(ctx, filelock.ResourceInbox, holder)
}

func (ib *Inbox) publish(e event.Event) {
	if ib.bus != nil {
		ib.bus.Publish(e)
	}
}

// Watch polls for undelivered messages that were not present when Watch was
// called and invokes handler for each, in List order. It returns a function
// that stops the watcher and waits for it to exit.
func (ib *Inbox) Watch(handler func(Message)) (cancel func()) {
	var stopped atomic.Bool
	var wg sync.WaitGroup

	// Snapshot synchronously so any Add after Watch returns is seen by the poller.
	seen := make(map[string]bool)
	if existing, err := ib.store.List(ListOptions{}); err == nil {
		for _, msg := range existing {
			seen[msg.ID] = true
		}
	}

	wg.Go(func() {
		consecutiveErrors := 0
		for !stopped.Load() {
			time.Sleep(ib.pollInterval)
			if stopped.Load() {
				return
			}

			messages, err := ib.store.List(ListOptions{UndeliveredOnly: true})
			if err != nil {
				consecutiveErrors++
				if consecutiveErrors >= maxWatchErrors {
					ib.logger.Error("inbox watch failing", "error", err, "attempts", consecutiveErrors)
					consecutiveErrors = 0
				}
				continue
			}
			consecutiveErrors = 0

			for _, msg := range messages {
				if seen[msg.ID] {
					continue
				}
				seen[msg.ID] = true
				handler(msg)
			}
		}
	})

	return func() {
		stopped.Store(true)
		wg.Wait()
	}
}
