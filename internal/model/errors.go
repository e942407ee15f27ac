package model

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks caller input that was rejected before any side effect.
	ErrValidation = errors.New("validation failed")
	// ErrSessionNotFound is returned when no session exists for an id.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrUpstream marks a failure of the trivia question provider.
	ErrUpstream = errors.New("question provider unavailable")
	// ErrStoreNotConnected is returned by a store used without a live connection.
	ErrStoreNotConnected = errors.New("session store not connected")
	// ErrDuplicateSession is returned when a session id is inserted twice.
	ErrDuplicateSession = errors.New("quiz session already exists")
)

// ValidationError describes one rejected input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Is lets errors.Is(err, ErrValidation) match any ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NewValidationError builds a ValidationError.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}
