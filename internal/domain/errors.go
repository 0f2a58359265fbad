package domain

import (
	"errors"
	"fmt"
	"time"
)

// Error categories. Every structured error below unwraps to exactly one of them,
// so callers can branch with errors.Is and read details with errors.As.
var (
	ErrValidation   = errors.New("validation error")
	ErrConflict     = errors.New("conflict")
	ErrWindow       = errors.New("outside permitted time window")
	ErrNotFound     = errors.New("not found")
	ErrAccessDenied = errors.New("access denied")
)

// Validation codes
const (
	CodeInvalidValue        = "invalid_value"
	CodeRequired            = "required"
	CodeInvalidRange        = "invalid_range"
	CodeNotASlot            = "not_a_slot"
	CodeProviderUnavailable = "provider_unavailable"
	CodeTooLong             = "too_long"
)

// ValidationError malformed input, rejected before touching the store
type ValidationError struct {
	Field   string
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError creates a ValidationError
func NewValidationError(field, code, message string) *ValidationError {
	return &ValidationError{Field: field, Code: code, Message: message}
}

// NewInvalidRangeError is returned for dates or ranges that lie in the past or are inverted
func NewInvalidRangeError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Code: CodeInvalidRange, Message: message}
}

// ConflictReason explains why an instant is not available
type ConflictReason string

const (
	ConflictAlreadyBooked     ConflictReason = "already_booked"
	ConflictBlockedByProvider ConflictReason = "blocked_by_provider"
	ConflictSlotBusy          ConflictReason = "slot_busy"
	ConflictStaleState        ConflictReason = "stale_state"
)

// ConflictError the requested instant is occupied; retryable against a fresh slot list
type ConflictError struct {
	Reason     ConflictReason
	ProviderID int64
	Instant    time.Time
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict: provider %d at %s: %s",
		e.ProviderID, e.Instant.UTC().Format(time.RFC3339), e.Reason)
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

// NewConflictError creates a ConflictError
func NewConflictError(reason ConflictReason, providerID int64, instant time.Time) *ConflictError {
	return &ConflictError{Reason: reason, ProviderID: providerID, Instant: instant}
}

// ConflictFor picks the conflict reason for an occupying reservation
func ConflictFor(occupant *Reservation) *ConflictError {
	reason := ConflictAlreadyBooked
	if occupant.IsBlock() {
		reason = ConflictBlockedByProvider
	}
	return NewConflictError(reason, occupant.ProviderID, occupant.ScheduledAt)
}

// Window codes
const (
	WindowCancellation  = "cancellation_window"
	WindowReschedule    = "reschedule_window"
	WindowNotInFuture   = "not_in_future"
	WindowNotYetStarted = "not_yet_started"
	WindowInvalidStatus = "invalid_status"
)

// WindowError a lifecycle transition attempted outside its permitted time boundary
// or from a status that does not allow it. Terminal for the request.
type WindowError struct {
	Code     string
	Deadline *time.Time
	Message  string
}

func (e *WindowError) Error() string {
	return fmt.Sprintf("window error: %s: %s", e.Code, e.Message)
}

func (e *WindowError) Unwrap() error { return ErrWindow }

// NewWindowError creates a WindowError
func NewWindowError(code, message string, deadline *time.Time) *WindowError {
	return &WindowError{Code: code, Message: message, Deadline: deadline}
}

// NewInvalidStatusError is a WindowError for transitions the state machine forbids
func NewInvalidStatusError(from, to ReservationStatus) *WindowError {
	return &WindowError{
		Code:    WindowInvalidStatus,
		Message: fmt.Sprintf("transition %s -> %s is not allowed", from, to),
	}
}

// NotFoundError reference to a nonexistent entity
type NotFoundError struct {
	Entity string
	ID     int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// NewNotFoundError creates a NotFoundError
func NewNotFoundError(entity string, id int64) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}

// AccessDeniedError the actor is not allowed to perform the operation
type AccessDeniedError struct {
	Reason string
}

func (e *AccessDeniedError) Error() string {
	return "access denied: " + e.Reason
}

func (e *AccessDeniedError) Unwrap() error { return ErrAccessDenied }

// NewAccessDeniedError creates an AccessDeniedError
func NewAccessDeniedError(reason string) *AccessDeniedError {
	return &AccessDeniedError{Reason: reason}
}
