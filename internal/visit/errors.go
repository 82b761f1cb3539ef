package visit

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks a zone or fix excluded from a run.
	ErrValidation = errors.New("validation failed")

	// ErrInputUnavailable is returned when fixes or zones cannot be loaded.
	ErrInputUnavailable = errors.New("input unavailable")

	// ErrComputation is returned when a run produces a non-finite result.
	ErrComputation = errors.New("computation failed")

	// ErrRangeTooLarge is returned when a comparison spans too many dates.
	ErrRangeTooLarge = errors.New("date range too large")
)

// ValidationError describes an entity rejected at load time.
// It matches ErrValidation and the underlying cause with errors.Is.
type ValidationError struct {
	Entity string // "zone" or "fix"
	ID     int64
	Err    error  // cause; its message names the offending field
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %d rejected: %v", e.Entity, e.ID, e.Err)
}

func (e *ValidationError) Unwrap() []error {
	return []error{ErrValidation, e.Err}
}
