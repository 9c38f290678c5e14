package errors

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

// -----------------------------------------------------------------------------
// Severity Tests
// -----------------------------------------------------------------------------

func TestSeverity_String(t *testing.T) {
	tests := []struct {
		severity Severity
		want     string
	}{
		{SeverityDebug, "debug"},
		{SeverityInfo, "info"},
		{SeverityWarning, "warning"},
		{SeverityError, "error"},
		{SeverityCritical, "critical"},
		{Severity(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.severity.String(); got != tt.want {
				t.Errorf("Severity.String() = %q, want %q", got, tt.want)
			}
		})
	}
}

// -----------------------------------------------------------------------------
// StructuralError Tests
// -----------------------------------------------------------------------------

func TestStructuralError_Error(t *testing.T) {
	err := NewStructuralError(CodeIronRule, "cannot commit: upstream DEC-001 is 'suggested'").
		WithNode("DEC-002").WithField("state").WithRelated("DEC-001")

	want := "structural error [iron-rule, node=DEC-002, field=state]: cannot commit: upstream DEC-001 is 'suggested'"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if len(err.RelatedIDs) != 1 || err.RelatedIDs[0] != "DEC-001" {
		t.Errorf("RelatedIDs = %v, want [DEC-001]", err.RelatedIDs)
	}
	if err.Message() != "cannot commit: upstream DEC-001 is 'suggested'" {
		t.Errorf("Message() = %q", err.Message())
	}
}

func TestStructuralError_IsSentinel(t *testing.T) {
	tests := []struct {
		code     Code
		sentinel error
	}{
		{CodeCycle, ErrDependencyCycle},
		{CodeLevelOrder, ErrLevelOrder},
		{CodeScopeOrder, ErrScopeOrder},
		{CodeIronRule, ErrIronRule},
		{CodeIllegalTransition, ErrIllegalTransition},
		{CodeInvalidField, ErrInvalidField},
		{CodeMissingField, ErrMissingField},
		{CodeSuperseded, ErrSuperseded},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			err := fmt.Errorf("wrapped: %w", NewStructuralError(tt.code, "msg"))
			if !Is(err, tt.sentinel) {
				t.Errorf("Is(%s, %v) = false, want true", tt.code, tt.sentinel)
			}
			if Is(err, ErrTimeout) {
				t.Error("structural error should not match ErrTimeout")
			}
		})
	}
}

func TestStructuralError_As(t *testing.T) {
	err := fmt.Errorf("create: %w", NewStructuralError(CodeCycle, "cycle").WithNode("DEC-003"))

	var structural *StructuralError
	if !As(err, &structural) {
		t.Fatal("As() = false, want true")
	}
	if structural.NodeID != "DEC-003" {
		t.Errorf("NodeID = %q, want DEC-003", structural.NodeID)
	}
}

// -----------------------------------------------------------------------------
// Semantic Error Tests
// -----------------------------------------------------------------------------

func TestNotFoundError(t *testing.T) {
	err := NewNotFoundError("decision", "DEC-042")
	if got := err.Error(); got != "decision 'DEC-042' not found" {
		t.Errorf("Error() = %q", got)
	}
	if !Is(err, ErrNotFound) {
		t.Error("Is(ErrNotFound) = false, want true")
	}

	detailed := NewNotFoundError("text", "DEC-001").WithDetail("old text matches 2 locations")
	if got := detailed.Error(); got != "text 'DEC-001' not found (old text matches 2 locations)" {
		t.Errorf("Error() = %q", got)
	}
}

func TestConflictError(t *testing.T) {
	err := NewConflictError("decision", "DEC-001")
	if got := err.Error(); got != "decision 'DEC-001' already exists" {
		t.Errorf("Error() = %q", got)
	}

	matured := NewConflictError("scratchpad entry", "SP-001").WithReason("already matured to DEC-004")
	if got := matured.Error(); got != "scratchpad entry 'SP-001' already matured to DEC-004" {
		t.Errorf("Error() = %q", got)
	}
	if !Is(matured, ErrConflict) {
		t.Error("Is(ErrConflict) = false, want true")
	}
}

func TestIOError(t *testing.T) {
	cause := errors.New("permission denied")
	err := NewIOError("write", "dna/DEC-001.md", cause)

	if got := err.Error(); got != "io error [write dna/DEC-001.md]: permission denied" {
		t.Errorf("Error() = %q", got)
	}
	if !Is(err, cause) {
		t.Error("Is(cause) = false, want true")
	}
	if !IsRetryable(err) {
		t.Error("IsRetryable() = false, want true")
	}
}

func TestTimeoutError(t *testing.T) {
	err := NewTimeoutError("health regeneration", 2*time.Second)
	if got := err.Error(); got != "timeout error: health regeneration (timeout: 2s)" {
		t.Errorf("Error() = %q", got)
	}
	if !Is(err, ErrTimeout) {
		t.Error("Is(ErrTimeout) = false, want true")
	}
}

// -----------------------------------------------------------------------------
// Classification Tests
// -----------------------------------------------------------------------------

func TestIsAdvisorySafe(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, true},
		{"not found", NewNotFoundError("decision", "DEC-1"), true},
		{"timeout", NewTimeoutError("op", time.Second), true},
		{"io", NewIOError("read", "x", errors.New("boom")), true},
		{"structural", NewStructuralError(CodeCycle, "cycle"), false},
		{"wrapped structural", fmt.Errorf("x: %w", NewStructuralError(CodeCycle, "cycle")), false},
		{"conflict", NewConflictError("decision", "DEC-1"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsAdvisorySafe(tt.err); got != tt.want {
				t.Errorf("IsAdvisorySafe() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitOK},
		{"structural", NewStructuralError(CodeLevelOrder, "x"), ExitStructural},
		{"conflict", NewConflictError("decision", "DEC-1"), ExitStructural},
		{"not found", NewNotFoundError("decision", "DEC-1"), ExitStructural},
		{"io", fmt.Errorf("store: %w", NewIOError("write", "p", errors.New("x"))), ExitIO},
		{"timeout", NewTimeoutError("op", time.Second), ExitTimeout},
		{"plain", errors.New("plain"), ExitStructural},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestGetSeverity(t *testing.T) {
	if got := GetSeverity(nil); got != SeverityInfo {
		t.Errorf("GetSeverity(nil) = %v, want info", got)
	}
	if got := GetSeverity(NewStructuralError(CodeCycle, "x")); got != SeverityError {
		t.Errorf("GetSeverity(structural) = %v, want error", got)
	}
	if got := GetSeverity(NewNotFoundError("a", "b")); got != SeverityWarning {
		t.Errorf("GetSeverity(not found) = %v, want warning", got)
	}
	if got := GetSeverity(errors.New("plain")); got != SeverityError {
		t.Errorf("GetSeverity(plain) = %v, want error", got)
	}
}

func TestWrap(t *testing.T) {
	if Wrap(nil, "x") != nil {
		t.Error("Wrap(nil) should be nil")
	}
	base := NewNotFoundError("decision", "DEC-9")
	err := Wrapf(base, "cascade %s", "DEC-9")
	if err.Error() != "cascade DEC-9: decision 'DEC-9' not found" {
		t.Errorf("Wrapf() = %q", err.Error())
	}
	if !Is(err, ErrNotFound) {
		t.Error("wrapped error lost ErrNotFound")
	}
}
