package models

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by the gateways, services and handlers. Call
// sites match them with errors.Is and translate them into short
// user-facing notices.
var (
	// ErrInvalidCredentials is returned when email/password do not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrDuplicateEmail is returned when registering an email that is
	// already taken.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrUnknownUser is returned when a password reset targets an email
	// with no account.
	ErrUnknownUser = errors.New("unknown user")
	// ErrUnauthorized is returned when a call requires a session or role
	// the caller does not have.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidStatus is returned for a status outside the three-value
	// enum.
	ErrInvalidStatus = errors.New("invalid ticket status")
	// ErrNotFound is returned when a ticket or user does not exist.
	ErrNotFound = errors.New("not found")
)

// ValidationError reports a form-level input problem. It is created
// before any backend call is made.
type ValidationError struct {
	// Field names the offending input field.
	Field string
	// Reason is a short human-readable explanation.
	Reason string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// NewValidationError builds a ValidationError for the given field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}
