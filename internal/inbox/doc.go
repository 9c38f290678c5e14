// Package inbox is the handoff queue between asynchronous collaborators and
// the primary caller of dna.
//
// A background process that finishes some analysis adds a message; the
// primary caller lists undelivered messages, weaves them into its own output,
// and marks them delivered. It is a single-consumer, best-effort queue:
// clearing delivered messages discards them for good.
//
// # Storage
//
// Each message is one JSON file, so concurrent writers never share a mutable
// index:
//
//	.dna/inbox/
//	    msg-1760000000000000000-3f2a9c1e.json
//	    msg-1760000000500000000-b81d0e47.json
//
// Adding is lock free because every message has its own file. Deliver and
// Clear rewrite or remove existing files and take the inbox lock from the
// [filelock.Registry] when one is configured.
//
// # Main Types
//
//   - [Message]: One handoff with priority, type, detail and opaque context
//   - [Store]: Low-level per-file storage
//   - [Inbox]: Facade adding locking, events and a poll-based watcher
//
// # Basic Usage
//
//	ib := inbox.New(filepath.Join(stateDir, "inbox"), inbox.WithBus(bus), inbox.WithLocks(locks))
//	msg, err := ib.Add(inbox.Message{Priority: inbox.PriorityCritical, Type: "analysis", Detail: "DEC-004 contradicts DEC-002"})
//	pending, err := ib.List(inbox.ListOptions{UndeliveredOnly: true})
//	res, err := ib.Deliver(ctx, msg.ID)
package inbox
