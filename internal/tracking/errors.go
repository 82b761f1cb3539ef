package tracking

import "errors"

var (
	// ErrFixNotFound is returned when a fix ID does not exist.
	ErrFixNotFound = errors.New("fix not found")

	// ErrInvalidFix is returned when a fix fails validation.
	ErrInvalidFix = errors.New("invalid fix")

	// ErrInvalidDate is returned when a day is not YYYY-MM-DD.
	ErrInvalidDate = errors.New("invalid date")
)
