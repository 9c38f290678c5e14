// Package event provides a synchronous pub-sub bus that decouples the
// decision engine from its side effects.
//
// The engine publishes an event after every successful mutation; the audit
// recorder and the logger subscribe without the engine knowing about either.
//
// # Main Types
//
//   - [Event]: Interface with EventType(), Timestamp() and Detail()
//   - [Bus]: Synchronous dispatcher, safe for concurrent use
//   - [Handler]: Function type for event handlers (func(Event))
//
// # Event Categories
//
// Decisions:
//   - [DecisionCreatedEvent], [DecisionUpdatedEvent], [DecisionEditedEvent]
//
// Derived documents and advisory work:
//   - [ReportWrittenEvent]: INDEX.md or HEALTH.md regenerated
//   - [AdvisoryDegradedEvent]: best-effort step failed or timed out
//
// Auxiliary stores:
//   - [InboxEvent]: inbox.added, inbox.delivered, inbox.cleared
//   - [ScratchpadEvent]: scratchpad.added, scratchpad.matured
//
// Locking:
//   - [LockEvent]: lock.acquired, lock.released
//
// # Usage
//
//	bus := event.NewBus(event.WithLogger(logger))
//	bus.Subscribe("decision.updated", func(e event.Event) {
//	    u := e.(event.DecisionUpdatedEvent)
//	    fmt.Println(u.ID, u.Field, u.NewValue)
//	})
//	bus.Publish(event.NewDecisionUpdatedEvent("DEC-002", "state", "suggested", "committed"))
package event
