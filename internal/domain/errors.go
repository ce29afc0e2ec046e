package domain

import (
	"errors"
	"fmt"
)

// ErrorCode identifies the kind of a domain error. The set is closed: the
// HTTP layer and the cancellation engine's rescue loop both dispatch on it.
type ErrorCode string

const (
	CodeValidation          ErrorCode = "VALIDATION"
	CodeNotFound            ErrorCode = "NOT_FOUND"
	CodeConflict            ErrorCode = "CONFLICT"
	CodeForbidden           ErrorCode = "FORBIDDEN"
	CodeInvalidState        ErrorCode = "INVALID_STATE"
	CodePeriodNotConfirmed  ErrorCode = "PERIOD_NOT_CONFIRMED"
	CodeOccasionFull        ErrorCode = "OCCASION_FULL"
	CodeBookingLimitReached ErrorCode = "BOOKING_LIMIT_REACHED"
	CodeConflictingBooking  ErrorCode = "CONFLICTING_BOOKING"
)

// Error is the error type returned by the domain and application layers.
type Error struct {
	Code    ErrorCode
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewValidationError creates a validation error.
func NewValidationError(message string) *Error {
	return &Error{Code: CodeValidation, Message: message}
}

// NewNotFoundError creates a not-found error for the given entity and key.
func NewNotFoundError(entity, key string) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf("%s not found: %s", entity, key)}
}

// NewConflictError creates a conflict error (e.g. optimistic lock failure).
func NewConflictError(message string) *Error {
	return &Error{Code: CodeConflict, Message: message}
}

// NewForbiddenError creates a forbidden error.
func NewForbiddenError(message string) *Error {
	return &Error{Code: CodeForbidden, Message: message}
}

// NewInvalidStateError creates an error for a state transition outside the
// booking state machine's transition table.
func NewInvalidStateError(from, to string) *Error {
	return &Error{Code: CodeInvalidState, Message: fmt.Sprintf("cannot transition from %s to %s", from, to)}
}

// NewPeriodNotConfirmedError signals that matching has not started for the
// booking's period.
func NewPeriodNotConfirmedError(period string) *Error {
	return &Error{Code: CodePeriodNotConfirmed, Message: fmt.Sprintf("period %s is not confirmed", period)}
}

// NewOccasionFullError signals that the occasion has no spots left.
func NewOccasionFullError(occasion string) *Error {
	return &Error{Code: CodeOccasionFull, Message: fmt.Sprintf("occasion %s is fully booked", occasion)}
}

// NewBookingLimitReachedError signals that the attendee has no remaining
// booking capacity in the period.
func NewBookingLimitReachedError(attendee string, limit int) *Error {
	return &Error{Code: CodeBookingLimitReached, Message: fmt.Sprintf("attendee %s reached the booking limit of %d", attendee, limit)}
}

// NewConflictingBookingError signals two accepted, overlapping bookings for
// the same attendee. This is an invariant violation and is never recovered
// from automatically.
func NewConflictingBookingError(booking, conflicting string) *Error {
	return &Error{Code: CodeConflictingBooking, Message: fmt.Sprintf("booking %s overlaps already accepted booking %s", booking, conflicting)}
}

// CodeOf extracts the error code from err, or empty if err is not a domain error.
func CodeOf(err error) ErrorCode {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// IsCode reports whether err is a domain error with the given code.
func IsCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}
