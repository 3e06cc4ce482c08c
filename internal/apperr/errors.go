// Package apperr defines the error kinds shared by the access-control
// packages and understood by the HTTP layer.
//
// Domain packages declare their own sentinels wrapping one of the kinds,
// for example:
//
//	var ErrSensorNotFound = fmt.Errorf("sensor: %w", apperr.ErrNotFound)
//
// so callers can test either the precise sentinel or the kind with errors.Is.
package apperr

import (
	"errors"
	"fmt"
)

// Error kinds.
var (
	ErrUnauthenticated   = errors.New("unauthenticated")
	ErrForbidden         = errors.New("forbidden")
	ErrNotFound          = errors.New("not found")
	ErrValidation        = errors.New("validation failed")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrInvalidValue      = errors.New("invalid value")
	ErrConflict          = errors.New("conflict")
)

// FieldError is a rejection tied to one input field.
type FieldError struct {
	Kind    error
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%v: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%v: %s: %s", e.Kind, e.Field, e.Message)
}

// Unwrap exposes the kind so errors.Is(err, ErrValidation) works.
func (e *FieldError) Unwrap() error { return e.Kind }

// Validation returns a ValidationFailed error for field.
func Validation(field, message string) error {
	return &FieldError{Kind: ErrValidation, Field: field, Message: message}
}

// Transition returns an InvalidTransition error for field.
func Transition(field, message string) error {
	return &FieldError{Kind: ErrInvalidTransition, Field: field, Message: message}
}

// InvalidValue returns an InvalidValue error for field.
func InvalidValue(field, message string) error {
	return &FieldError{Kind: ErrInvalidValue, Field: field, Message: message}
}

// Conflict returns a Conflict error for field.
func Conflict(field, message string) error {
	return &FieldError{Kind: ErrConflict, Field: field, Message: message}
}

// FieldOf returns the field named by err, or "" if err carries none.
func FieldOf(err error) string {
	var fe *FieldError
	if errors.As(err, &fe) {
		return fe.Field
	}
	return ""
}

// MessageOf returns the human-readable part of err. For a FieldError it
// is the bare message; otherwise the full error string.
func MessageOf(err error) string {
	var fe *FieldError
	if errors.As(err, &fe) {
		return fe.Message
	}
	return err.Error()
}
