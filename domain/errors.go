package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrLaneNotDeletable indicates an attempt to delete a project's
	// landing lane.
	ErrLaneNotDeletable = errors.New("lane is not deletable")
	// ErrConcurrencyConflict indicates the storage rejected a write because
	// the entity changed underneath it.
	ErrConcurrencyConflict = errors.New("concurrency conflict")
)

// ValidationError reports invalid caller input. It is raised before any
// write reaches the store.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidation reports whether err is a validation error.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
