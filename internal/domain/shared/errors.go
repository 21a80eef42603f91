// Package shared contains common domain types, errors and events
// that are used across all domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")
	ErrInvalidEntity = errors.New("invalid entity")

	// Validation errors
	ErrValidation      = errors.New("validation error")
	ErrInvalidID       = errors.New("invalid ID")
	ErrInvalidInput    = errors.New("invalid input")
	ErrEmptyValue      = errors.New("value cannot be empty")
	ErrValueOutOfRange = errors.New("value out of range")
	ErrInvalidFormat   = errors.New("invalid format")

	// State errors
	ErrInvalidState     = errors.New("invalid state")
	ErrAlreadyProcessed = errors.New("already processed")

	// Authorization errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// External service errors
	ErrExternalService    = errors.New("external service error")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTimeout            = errors.New("operation timeout")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "checkin", "reminder", "gamification"
	Op      string // Operation that failed, e.g., "Record", "Undo"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Member domain errors
var (
	ErrMemberNotRegistered  = NewDomainError("member", "Find", ErrNotFound, "member is not registered")
	ErrMemberAlreadyExists  = NewDomainError("member", "Register", ErrAlreadyExists, "member already registered")
	ErrNameNotOnRoster      = NewDomainError("member", "Register", ErrInvalidInput, "display name is not on the roster")
	ErrInvalidExternalID    = NewDomainError("member", "Validate", ErrInvalidID, "invalid external ID")
	ErrAdminOnly            = NewDomainError("member", "Authorize", ErrForbidden, "admin-only operation")
)

// Check-in ledger errors. These are the user-visible rejection reasons;
// each maps 1:1 to a short message at the transport boundary.
var (
	ErrAlreadyCheckedInToday = NewDomainError("checkin", "Record", ErrAlreadyProcessed, "already checked in today")
	ErrOutOfOrderSlot        = NewDomainError("checkin", "Record", ErrInvalidState, "slot claimed out of order")
	ErrAlreadyLogged         = NewDomainError("checkin", "Record", ErrAlreadyExists, "check-in already logged")
	ErrNothingToUndo         = NewDomainError("checkin", "Undo", ErrNotFound, "no check-ins to undo this week")
	ErrInvalidSlot           = NewDomainError("checkin", "Validate", ErrValueOutOfRange, "slot must be 1, 2 or 3")
)

// Reminder scheduling errors
var (
	ErrInvalidSchedule  = NewDomainError("reminder", "Validate", ErrInvalidInput, "invalid weekday list or time")
	ErrNoActiveSchedule = NewDomainError("reminder", "Find", ErrNotFound, "no reminder schedule set")
)

// Gamification errors
var (
	ErrBadgeAlreadyGranted = NewDomainError("gamification", "GrantBadge", ErrAlreadyExists, "badge already granted")
	ErrUnknownBadge        = NewDomainError("gamification", "GrantBadge", ErrInvalidInput, "unknown badge code")
)

// Rollover / archiving errors
var (
	ErrArchiveStepFailed = NewDomainError("rollover", "Archive", ErrExternalService, "partial rollover failure, manual reconciliation required")
)

// External collaborator errors
var (
	ErrMirrorUnavailable = NewDomainError("mirror", "Sync", ErrServiceUnavailable, "sheet mirror is unavailable")
	ErrDeliveryFailed    = NewDomainError("telegram", "Send", ErrExternalService, "Telegram delivery failed")
)

// Program errors
var (
	ErrProgramNotFound   = NewDomainError("program", "Find", ErrNotFound, "program not found")
	ErrNotEnrolled       = NewDomainError("program", "Advance", ErrNotFound, "member has no active enrollment")
	ErrAlreadyEnrolled   = NewDomainError("program", "Enroll", ErrAlreadyExists, "member already enrolled in a program")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if the error is an "already exists" error.
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrValueOutOfRange)
}

// IsExternalService checks if the error is from an external service.
// Such errors are logged and swallowed: mirror and delivery failures must
// never fail the core ledger operation that triggered them.
func IsExternalService(err error) bool {
	return errors.Is(err, ErrExternalService) ||
		errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout)
}
