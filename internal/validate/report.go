package validate

import (
	"fmt"
	"sort"

	"github.com/fraim-ai/fraim-toolkit/internal/errors"
)

// Severity separates blocking issues from informational ones.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is a single validation finding.
type Issue struct {
	Severity Severity `json:"severity"`
	// Code names the rule, e.g. "cycle", "level-order", "stale-ref".
	Code    string `json:"code"`
	NodeID  string `json:"node,omitempty"`
	Message string `json:"message"`
}

func (i Issue) String() string { return i.Message }

// Report is the result of validating a graph.
type Report struct {
	Errors   []Issue `json:"errors"`
	Warnings []Issue `json:"warnings"`
}

func newReport() *Report {
	return &Report{Errors: []Issue{}, Warnings: []Issue{}}
}

// OK reports whether there are no errors.
func (r *Report) OK() bool { return len(r.Errors) == 0 }

func (r *Report) errorf(code, node, format string, args ...any) {
	r.Errors = append(r.Errors, newIssue(SeverityError, code, node, fmt.Sprintf(format, args...)))
}

func (r *Report) warnf(code, node, format string, args ...any) {
	r.Warnings = append(r.Warnings, newIssue(SeverityWarning, code, node, fmt.Sprintf(format, args...)))
}

func (r *Report) addStructural(err *errors.StructuralError) {
	r.Errors = append(r.Errors, FromStructural(err))
}

func newIssue(sev Severity, code, node, msg string) Issue {
	if node != "" {
		msg = node + ": " + msg
	}
	return Issue{Severity: sev, Code: code, NodeID: node, Message: msg}
}

// FromStructural converts a StructuralError into an error Issue.
func FromStructural(err *errors.StructuralError) Issue {
	return newIssue(SeverityError, string(err.Code), err.NodeID, err.Message())
}

// ErrorsFor returns the errors attributed to id.
func (r *Report) ErrorsFor(id string) []Issue {
	return filterNode(r.Errors, id)
}

// WarningsFor returns the warnings attributed to id.
func (r *Report) WarningsFor(id string) []Issue {
	return filterNode(r.Warnings, id)
}

func filterNode(issues []Issue, id string) []Issue {
	var out []Issue
	for _, i := range issues {
		if i.NodeID == id {
			out = append(out, i)
		}
	}
	return out
}

// Delta is the change in findings between two reports of the same project.
type Delta struct {
	Resolved    []Issue `json:"resolved_warnings"`
	NewWarnings []Issue `json:"new_warnings"`
	NewErrors   []Issue `json:"new_errors"`
}

// Empty reports whether nothing changed.
func (d Delta) Empty() bool {
	return len(d.Resolved) == 0 && len(d.NewWarnings) == 0 && len(d.NewErrors) == 0
}

// Diff compares two reports by message text.
func Diff(before, after *Report) Delta {
	return Delta{
		Resolved:    subtract(before.Warnings, after.Warnings),
		NewWarnings: subtract(after.Warnings, before.Warnings),
		NewErrors:   subtract(after.Errors, before.Errors),
	}
}

// subtract returns the issues of a whose message is absent from b, sorted.
func subtract(a, b []Issue) []Issue {
	present := make(map[string]bool, len(b))
	for _, i := range b {
		present[i.Message] = true
	}
	out := []Issue{}
	for _, i := range a {
		if !present[i.Message] {
			out = append(out, i)
		}
	}
	sort.Slice(out, func(x, y int) bool { return out[x].Message < out[y].Message })
	return out
}

// Blocking joins write-time StructuralErrors into one error, or nil.
func Blocking(errs []*errors.StructuralError) error {
	switch len(errs) {
	case 0:
		return nil
	case 1:
		return errs[0]
	}
	joined := make([]error, len(errs))
	for i, e := range errs {
		joined[i] = e
	}
	return errors.Join(joined...)
}
