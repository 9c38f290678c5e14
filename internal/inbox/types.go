package inbox

import (
	"fmt"
	"strings"
	"time"

	"github.com/fraim-ai/fraim-toolkit/internal/errors"
)

// Priority orders messages for delivery.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityNormal   Priority = "normal"
	PriorityLow      Priority = "low"
)

var priorityRank = map[Priority]int{
	PriorityCritical: 0,
	PriorityNormal:   1,
	PriorityLow:      2,
}

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	_, ok := priorityRank[p]
	return ok
}

// ParsePriority converts s to a Priority. Empty means normal.
func ParsePriority(s string) (Priority, error) {
	p := Priority(strings.ToLower(strings.TrimSpace(s)))
	if p == "" {
		return PriorityNormal, nil
	}
	if !p.Valid() {
		return "", errors.NewStructuralError(errors.CodeInvalidField,
			fmt.Sprintf("invalid priority '%s' (must be critical/normal/low)", s)).WithField("priority")
	}
	return p, nil
}

// Message is a single handoff record.
type Message struct {
	ID       string   `json:"id"`
	Priority Priority `json:"priority"`
	// Type is a free-form tag such as "capture" or "analysis".
	Type   string `json:"type"`
	Detail string `json:"detail"`
	// Context is an opaque payload carried through untouched.
	Context     map[string]any `json:"context,omitempty"`
	Timestamp   time.Time      `json:"timestamp"`
	Delivered   bool           `json:"delivered"`
	DeliveredAt *time.Time     `json:"delivered_at,omitempty"`
}

// ClearMode selects what Clear removes.
type ClearMode string

const (
	ClearDelivered ClearMode = "delivered"
	ClearAll       ClearMode = "all"
)

// ParseClearMode accepts "delivered" (the default when empty) or "all".
func ParseClearMode(s string) (ClearMode, error) {
	switch m := ClearMode(strings.TrimSpace(s)); m {
	case "":
		return ClearDelivered, nil
	case ClearDelivered, ClearAll:
		return m, nil
	}
	return "", errors.NewStructuralError(errors.CodeInvalidField,
		fmt.Sprintf("invalid clear mode '%s' (must be delivered/all)", s)).WithField("mode")
}

// ListOptions filters List.
type ListOptions struct {
	UndeliveredOnly bool
	Priority        Priority
}

// DeliverResult reports a partially successful Deliver.
type DeliverResult struct {
	Delivered []string `json:"delivered"`
	// AlreadyDelivered were found but needed no change.
	AlreadyDelivered []string `json:"already_delivered,omitempty"`
	NotFound         []string `json:"not_found,omitempty"`
}

// Err returns a NotFoundError naming the missing ids, or nil.
func (r DeliverResult) Err() error {
	if len(r.NotFound) == 0 {
		return nil
	}
	return errors.NewNotFoundError("message", strings.Join(r.NotFound, ", "))
}
