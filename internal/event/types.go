package event

import (
	"fmt"
	"strings"
	"time"
)

// Event is the interface that all events must implement.
type Event interface {
	// EventType returns a "category.action" identifier, e.g. "decision.created".
	EventType() string

	// Timestamp returns when the event occurred.
	Timestamp() time.Time

	// Detail is a one-line human description, used for the audit trail.
	Detail() string
}

type baseEvent struct {
	eventType string
	timestamp time.Time
}

func (e baseEvent) EventType() string    { return e.eventType }
func (e baseEvent) Timestamp() time.Time { return e.timestamp }
func (e baseEvent) Detail() string       { return "" }

func newBaseEvent(eventType string) baseEvent {
	return baseEvent{
		eventType: eventType,
		timestamp: time.Now(),
	}
}

// Category returns the part of an event type before the first dot.
func Category(eventType string) string {
	category, _, _ := strings.Cut(eventType, ".")
	return category
}

// -----------------------------------------------------------------------------
// Decision Events
// -----------------------------------------------------------------------------

// DecisionCreatedEvent is emitted after a new decision document is written.
type DecisionCreatedEvent struct {
	baseEvent
	ID    string
	Scope string
	Level int
	Title string
}

// NewDecisionCreatedEvent creates a DecisionCreatedEvent.
func NewDecisionCreatedEvent(id, scope string, level int, title string) DecisionCreatedEvent {
	return DecisionCreatedEvent{
		baseEvent: newBaseEvent("decision.created"),
		ID:        id,
		Scope:     scope,
		Level:     level,
		Title:     title,
	}
}

func (e DecisionCreatedEvent) Detail() string {
	return fmt.Sprintf("%s created in %s (level %d): %s", e.ID, e.Scope, e.Level, e.Title)
}

// DecisionUpdatedEvent is emitted after a frontmatter field changes.
type DecisionUpdatedEvent struct {
	baseEvent
	ID       string
	Field    string
	OldValue string
	NewValue string
}

// NewDecisionUpdatedEvent creates a DecisionUpdatedEvent.
func NewDecisionUpdatedEvent(id, field, oldValue, newValue string) DecisionUpdatedEvent {
	return DecisionUpdatedEvent{
		baseEvent: newBaseEvent("decision.updated"),
		ID:        id,
		Field:     field,
		OldValue:  oldValue,
		NewValue:  newValue,
	}
}

func (e DecisionUpdatedEvent) Detail() string {
	return fmt.Sprintf("%s: %s %s → %s", e.ID, e.Field, e.OldValue, e.NewValue)
}

// DecisionEditedEvent is emitted after body text is replaced.
type DecisionEditedEvent struct {
	baseEvent
	ID           string
	CharsRemoved int
	CharsAdded   int
}

// NewDecisionEditedEvent creates a DecisionEditedEvent.
func NewDecisionEditedEvent(id string, removed, added int) DecisionEditedEvent {
	return DecisionEditedEvent{
		baseEvent:    newBaseEvent("decision.edited"),
		ID:           id,
		CharsRemoved: removed,
		CharsAdded:   added,
	}
}

func (e DecisionEditedEvent) Detail() string {
	return fmt.Sprintf("%s: body edited (%d chars → %d chars)", e.ID, e.CharsRemoved, e.CharsAdded)
}

// -----------------------------------------------------------------------------
// Derived Document Events
// -----------------------------------------------------------------------------

// ReportWrittenEvent is emitted when a derived document (INDEX.md, HEALTH.md) is regenerated.
type ReportWrittenEvent struct {
	baseEvent
	Kind  string // "index" or "health"
	Path  string
	Nodes int
}

// NewReportWrittenEvent creates a ReportWrittenEvent.
func NewReportWrittenEvent(kind, path string, nodes int) ReportWrittenEvent {
	return ReportWrittenEvent{
		baseEvent: newBaseEvent("report.written"),
		Kind:      kind,
		Path:      path,
		Nodes:     nodes,
	}
}

func (e ReportWrittenEvent) Detail() string {
	return fmt.Sprintf("%s regenerated: %s (%d decisions)", e.Kind, e.Path, e.Nodes)
}

// AdvisoryDegradedEvent is emitted when best-effort work fails or runs out of time.
type AdvisoryDegradedEvent struct {
	baseEvent
	Operation string
	Reason    string
}

// NewAdvisoryDegradedEvent creates an AdvisoryDegradedEvent.
func NewAdvisoryDegradedEvent(operation string, err error) AdvisoryDegradedEvent {
	return AdvisoryDegradedEvent{
		baseEvent: newBaseEvent("advisory.degraded"),
		Operation: operation,
		Reason:    err.Error(),
	}
}

func (e AdvisoryDegradedEvent) Detail() string {
	return fmt.Sprintf("%s skipped: %s", e.Operation, e.Reason)
}

// -----------------------------------------------------------------------------
// Inbox and Scratchpad Events
// -----------------------------------------------------------------------------

// InboxEvent is emitted for inbox add, deliver and clear operations.
type InboxEvent struct {
	baseEvent
	IDs     []string
	Summary string
}

// NewInboxEvent creates an InboxEvent of type "inbox.<action>".
func NewInboxEvent(action string, ids []string, summary string) InboxEvent {
	return InboxEvent{
		baseEvent: newBaseEvent("inbox." + action),
		IDs:       ids,
		Summary:   summary,
	}
}

func (e InboxEvent) Detail() string { return e.Summary }

// ScratchpadEvent is emitted for scratchpad add and mature operations.
type ScratchpadEvent struct {
	baseEvent
	EntryID    string
	DecisionID string
	Summary    string
}

// NewScratchpadEvent creates a ScratchpadEvent of type "scratchpad.<action>".
func NewScratchpadEvent(action, entryID, decisionID, summary string) ScratchpadEvent {
	return ScratchpadEvent{
		baseEvent:  newBaseEvent("scratchpad." + action),
		EntryID:    entryID,
		DecisionID: decisionID,
		Summary:    summary,
	}
}

func (e ScratchpadEvent) Detail() string { return e.Summary }

// -----------------------------------------------------------------------------
// Lock Events
// -----------------------------------------------------------------------------

// LockEvent is emitted when a store lock is acquired or released.
type LockEvent struct {
	baseEvent
	Resource string
	Holder   string
	Waited   time.Duration
}

// NewLockAcquiredEvent creates a "lock.acquired" LockEvent.
func NewLockAcquiredEvent(resource, holder string, waited time.Duration) LockEvent {
	return LockEvent{
		baseEvent: newBaseEvent("lock.acquired"),
		Resource:  resource,
		Holder:    holder,
		Waited:    waited,
	}
}

// NewLockReleasedEvent creates a "lock.released" LockEvent.
func NewLockReleasedEvent(resource, holder string) LockEvent {
	return LockEvent{
		baseEvent: newBaseEvent("lock.released"),
		Resource:  resource,
		Holder:    holder,
	}
}

func (e LockEvent) Detail() string {
	return fmt.Sprintf("%s %s by %s", e.Resource, strings.TrimPrefix(e.EventType(), "lock."), e.Holder)
}
