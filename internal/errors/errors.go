// Package errors provides centralized error definitions and error handling utilities
// for the decision engine. It defines the error taxonomy surfaced by every command,
// error constructors with context wrapping, and classification helpers used to
// decide between blocking and advisory handling.
//
// # Error Types
//
//   - StructuralError: invalid field value, illegal transition, cycle, level-ordering
//     or cross-scope violation. Always blocks the originating write.
//   - NotFoundError: unknown id, or text-to-replace absent.
//   - ConflictError: duplicate id on create, or an entry already in its terminal state.
//   - IOError: storage unreadable or unwritable.
//   - TimeoutError: an advisory step exceeded its budget.
//
// # Usage
//
//	err := errors.NewStructuralError(errors.CodeIronRule, "cannot commit: upstream DEC-001 is 'suggested'").
//		WithNode("DEC-002").WithRelated("DEC-001")
//
//	if errors.Is(err, errors.ErrIronRule) { ... }
//
//	var nf *errors.NotFoundError
//	if errors.As(err, &nf) { ... }
//
// # Propagation
//
// Library calls return these errors unchanged; the command surface maps them to an
// exit status with [ExitCode]. Advisory callers use [IsAdvisorySafe] to decide whether
// a failure may be logged and skipped.
package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Severity represents the severity level of an error.
type Severity int

const (
	// SeverityDebug is for errors that are useful for debugging but not critical.
	SeverityDebug Severity = iota
	// SeverityInfo is for informational errors that don't indicate a problem.
	SeverityInfo
	// SeverityWarning is for errors that might indicate a problem but aren't critical.
	SeverityWarning
	// SeverityError is for errors that indicate a real problem.
	SeverityError
	// SeverityCritical is for errors that require immediate attention.
	SeverityCritical
)

// String returns the string representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

// Graph-related sentinel errors
var (
	// ErrDependencyCycle indicates a circular depends_on chain.
	ErrDependencyCycle = New("dependency cycle detected")
	// ErrLevelOrder indicates a dependency whose level is not strictly lower.
	ErrLevelOrder = New("dependency violates level ordering")
	// ErrScopeOrder indicates a governance node depending on a project node.
	ErrScopeOrder = New("governance node depends on project node")
	// ErrIllegalTransition indicates a state change outside the legal transitions.
	ErrIllegalTransition = New("illegal state transition")
	// ErrIronRule indicates a commit attempted while a dependency is not committed.
	ErrIronRule = New("dependency not committed")
	// ErrDuplicateID indicates the same id in more than one document.
	ErrDuplicateID = New("duplicate decision id")
	// ErrSuperseded indicates a mutation of a terminal node.
	ErrSuperseded = New("decision is superseded")
)

// Field-related sentinel errors
var (
	// ErrMissingField indicates a required metadata field is absent.
	ErrMissingField = New("missing required field")
	// ErrInvalidField indicates a metadata field holds an illegal value.
	ErrInvalidField = New("invalid value for field")
	// ErrMalformedDocument indicates a document without a readable metadata header.
	ErrMalformedDocument = New("malformed document")
)

// General sentinel errors
var (
	// ErrTimeout indicates that an operation timed out.
	ErrTimeout = New("operation timed out")
	// ErrInvalidInput indicates that input validation failed.
	ErrInvalidInput = New("invalid input")
	// ErrNotFound indicates a missing resource.
	ErrNotFound = New("not found")
	// ErrConflict indicates a resource that already exists or is in a conflicting state.
	ErrConflict = New("conflict")
)

// -----------------------------------------------------------------------------
// Base Error Interface
// -----------------------------------------------------------------------------

// EngineError is the base interface for all engine errors.
// It extends the standard error interface with additional methods for
// error handling and classification.
type EngineError interface {
	error

	// Unwrap returns the underlying error, if any.
	Unwrap() error

	// Is reports whether this error matches the target error.
	Is(target error) bool

	// Severity returns the severity level of this error.
	Severity() Severity

	// IsRetryable returns true if the error is transient and the operation
	// may succeed on retry.
	IsRetryable() bool

	// IsUserFacing returns true if the error message is safe to display
	// to end users.
	IsUserFacing() bool
}

// -----------------------------------------------------------------------------
// Base Error Implementation
// -----------------------------------------------------------------------------

// baseError provides common functionality for all error types.
type baseError struct {
	message    string
	cause      error
	severity   Severity
	retryable  bool
	userFacing bool
}

// Error returns the error message.
func (e *baseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Unwrap returns the underlying error.
func (e *baseError) Unwrap() error {
	return e.cause
}

// Is checks if this error matches the target.
func (e *baseError) Is(target error) bool {
	if e.cause != nil {
		return errors.Is(e.cause, target)
	}
	return false
}

// Severity returns the error severity.
func (e *baseError) Severity() Severity {
	return e.severity
}

// IsRetryable returns whether the error is retryable.
func (e *baseError) IsRetryable() bool {
	return e.retryable
}

// IsUserFacing returns whether the error is safe to show users.
func (e *baseError) IsUserFacing() bool {
	return e.userFacing
}

// -----------------------------------------------------------------------------
// Structural Errors
// -----------------------------------------------------------------------------

// Code identifies the structural rule an error violates.
type Code string

const (
	CodeInvalidField      Code = "invalid-field"
	CodeMissingField      Code = "missing-field"
	CodeIllegalTransition Code = "illegal-transition"
	CodeIronRule          Code = "iron-rule"
	CodeCycle             Code = "cycle"
	CodeLevelOrder        Code = "level-order"
	CodeScopeOrder        Code = "scope-order"
	CodeDanglingRef       Code = "dangling-ref"
	CodeDuplicateID       Code = "duplicate-id"
	CodeSuperseded        Code = "superseded"
	CodeInvalidID         Code = "invalid-id"
)

// codeSentinels maps codes to the sentinel they satisfy under errors.Is.
var codeSentinels = map[Code]error{
	CodeInvalidField:      ErrInvalidField,
	CodeMissingField:      ErrMissingField,
	CodeIllegalTransition: ErrIllegalTransition,
	CodeIronRule:          ErrIronRule,
	CodeCycle:             ErrDependencyCycle,
	CodeLevelOrder:        ErrLevelOrder,
	CodeScopeOrder:        ErrScopeOrder,
	CodeDuplicateID:       ErrDuplicateID,
	CodeSuperseded:        ErrSuperseded,
	CodeInvalidID:         ErrInvalidInput,
}

// StructuralError represents a violation of a graph or field invariant.
// It always blocks the originating write.
//
// Example:
//
//	err := errors.NewStructuralError(errors.CodeCycle, "adding this node would create a cycle").
//		WithNode("DEC-003").WithRelated("DEC-003")
//	fmt.Println(err) // "structural error [cycle, node=DEC-003]: adding this node would create a cycle"
type StructuralError struct {
	baseError
	Code       Code
	NodeID     string
	Field      string
	RelatedIDs []string
}

// NewStructuralError creates a new StructuralError.
func NewStructuralError(code Code, message string) *StructuralError {
	return &StructuralError{
		baseError: baseError{
			message:    message,
			severity:   SeverityError,
			retryable:  false,
			userFacing: true,
		},
		Code: code,
	}
}

// WithNode adds the offending node id to the error context.
func (e *StructuralError) WithNode(id string) *StructuralError {
	e.NodeID = id
	return e
}

// WithField adds the offending field name to the error context.
func (e *StructuralError) WithField(field string) *StructuralError {
	e.Field = field
	return e
}

// WithRelated adds ids of other nodes involved in the violation.
func (e *StructuralError) WithRelated(ids ...string) *StructuralError {
	e.RelatedIDs = append(e.RelatedIDs, ids...)
	return e
}

// WithCause adds a cause to the error.
func (e *StructuralError) WithCause(cause error) *StructuralError {
	e.cause = cause
	return e
}

// Message returns the bare violation message without the context prefix.
func (e *StructuralError) Message() string {
	return e.message
}

// Error returns the formatted error message.
func (e *StructuralError) Error() string {
	parts := []string{string(e.Code)}
	if e.NodeID != "" {
		parts = append(parts, fmt.Sprintf("node=%s", e.NodeID))
	}
	if e.Field != "" {
		parts = append(parts, fmt.Sprintf("field=%s", e.Field))
	}
	prefix := fmt.Sprintf("structural error [%s]", strings.Join(parts, ", "))

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *StructuralError) Is(target error) bool {
	if _, ok := target.(*StructuralError); ok {
		return true
	}
	if sentinel, ok := codeSentinels[e.Code]; ok && target == sentinel {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Semantic Errors
// -----------------------------------------------------------------------------

// NotFoundError represents a resource that could not be found.
//
// Example:
//
//	err := errors.NewNotFoundError("decision", "DEC-042")
//	fmt.Println(err) // "decision 'DEC-042' not found"
type NotFoundError struct {
	baseError
	ResourceType string
	ResourceID   string
	Detail       string
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(resourceType, resourceID string) *NotFoundError {
	return &NotFoundError{
		baseError: baseError{
			message:    fmt.Sprintf("%s '%s' not found", resourceType, resourceID),
			severity:   SeverityWarning,
			retryable:  false,
			userFacing: true,
		},
		ResourceType: resourceType,
		ResourceID:   resourceID,
	}
}

// WithDetail appends a short explanation, e.g. "old text matches 2 locations".
func (e *NotFoundError) WithDetail(detail string) *NotFoundError {
	e.Detail = detail
	return e
}

// WithCause adds a cause to the error.
func (e *NotFoundError) WithCause(cause error) *NotFoundError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *NotFoundError) Error() string {
	msg := fmt.Sprintf("%s '%s' not found", e.ResourceType, e.ResourceID)
	if e.Detail != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Detail)
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.cause)
	}
	return msg
}

// Is checks if this error matches the target.
func (e *NotFoundError) Is(target error) bool {
	if _, ok := target.(*NotFoundError); ok {
		return true
	}
	if target == ErrNotFound {
		return true
	}
	return e.baseError.Is(target)
}

// ConflictError represents a resource that already exists or whose current
// state rules out the requested change.
//
// Example:
//
//	err := errors.NewConflictError("decision", "DEC-001")
//	fmt.Println(err) // "decision 'DEC-001' already exists"
type ConflictError struct {
	baseError
	ResourceType string
	ResourceID   string
	Reason       string
}

// NewConflictError creates a new ConflictError.
func NewConflictError(resourceType, resourceID string) *ConflictError {
	return &ConflictError{
		baseError: baseError{
			message:    fmt.Sprintf("%s '%s' already exists", resourceType, resourceID),
			severity:   SeverityWarning,
			retryable:  false,
			userFacing: true,
		},
		ResourceType: resourceType,
		ResourceID:   resourceID,
	}
}

// WithReason replaces the default "already exists" wording.
func (e *ConflictError) WithReason(reason string) *ConflictError {
	e.Reason = reason
	return e
}

// WithCause adds a cause to the error.
func (e *ConflictError) WithCause(cause error) *ConflictError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *ConflictError) Error() string {
	reason := e.Reason
	if reason == "" {
		reason = "already exists"
	}
	msg := fmt.Sprintf("%s '%s' %s", e.ResourceType, e.ResourceID, reason)
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.cause)
	}
	return msg
}

// Is checks if this error matches the target.
func (e *ConflictError) Is(target error) bool {
	if _, ok := target.(*ConflictError); ok {
		return true
	}
	if target == ErrConflict {
		return true
	}
	return e.baseError.Is(target)
}

// IOError represents storage that could not be read or written.
//
// Example:
//
//	err := errors.NewIOError("write", "dna/DEC-001.md", cause)
//	fmt.Println(err) // "io error [write dna/DEC-001.md]: permission denied"
type IOError struct {
	baseError
	Op   string
	Path string
}

// NewIOError creates a new IOError.
func NewIOError(op, path string, cause error) *IOError {
	return &IOError{
		baseError: baseError{
			message:    op,
			cause:      cause,
			severity:   SeverityError,
			retryable:  true,
			userFacing: true,
		},
		Op:   op,
		Path: path,
	}
}

// Error returns the formatted error message.
func (e *IOError) Error() string {
	prefix := fmt.Sprintf("io error [%s %s]", e.Op, e.Path)
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", prefix, e.cause)
	}
	return prefix
}

// Is checks if this error matches the target.
func (e *IOError) Is(target error) bool {
	if _, ok := target.(*IOError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// TimeoutError represents an operation that timed out.
//
// Example:
//
//	err := errors.NewTimeoutError("health regeneration", 2*time.Second)
//	fmt.Println(err) // "timeout error: health regeneration (timeout: 2s)"
type TimeoutError struct {
	baseError
	Operation string
	Duration  time.Duration
}

// NewTimeoutError creates a new TimeoutError.
func NewTimeoutError(operation string, duration time.Duration) *TimeoutError {
	return &TimeoutError{
		baseError: baseError{
			message:    operation,
			severity:   SeverityWarning,
			retryable:  true,
			userFacing: true,
		},
		Operation: operation,
		Duration:  duration,
	}
}

// WithCause adds a cause to the error.
func (e *TimeoutError) WithCause(cause error) *TimeoutError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *TimeoutError) Error() string {
	base := fmt.Sprintf("timeout error: %s (timeout: %s)", e.Operation, e.Duration)
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", base, e.cause)
	}
	return base
}

// Is checks if this error matches the target.
func (e *TimeoutError) Is(target error) bool {
	if _, ok := target.(*TimeoutError); ok {
		return true
	}
	if errors.Is(target, ErrTimeout) {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Error Classification Helpers
// -----------------------------------------------------------------------------

// IsRetryable returns true if the error represents a transient condition
// that may succeed on retry.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var engineErr EngineError
	if As(err, &engineErr) {
		return engineErr.IsRetryable()
	}
	return Is(err, ErrTimeout)
}

// GetSeverity returns the severity of an error, defaulting to SeverityError.
func GetSeverity(err error) Severity {
	if err == nil {
		return SeverityInfo
	}
	var engineErr EngineError
	if As(err, &engineErr) {
		return engineErr.Severity()
	}
	return SeverityError
}

// IsAdvisorySafe reports whether an advisory caller may log the error and
// continue with default output. Structural and conflict errors never qualify.
func IsAdvisorySafe(err error) bool {
	if err == nil {
		return true
	}
	var structural *StructuralError
	var conflict *ConflictError
	if As(err, &structural) || As(err, &conflict) {
		return false
	}
	return true
}

// Exit statuses returned by ExitCode.
const (
	ExitOK         = 0
	ExitStructural = 1
	ExitIO         = 2
	ExitTimeout    = 3
)

// ExitCode maps an error to the process exit status used by the command surface.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var ioErr *IOError
	var timeout *TimeoutError
	switch {
	case As(err, &timeout):
		return ExitTimeout
	case As(err, &ioErr):
		return ExitIO
	default:
		return ExitStructural
	}
}

// -----------------------------------------------------------------------------
// Wrapping Helpers
// -----------------------------------------------------------------------------

// Wrap adds a message to an error, returning nil when err is nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf adds a formatted message to an error, returning nil when err is nil.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
