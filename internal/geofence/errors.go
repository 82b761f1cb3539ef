package geofence

import "errors"

var (
	// ErrZoneNotFound is returned when a zone ID does not exist.
	ErrZoneNotFound = errors.New("zone not found")

	// ErrInvalidZone is returned when a zone fails validation.
	ErrInvalidZone = errors.New("invalid zone")

	// ErrInvalidDate is returned when an applicable date is not YYYY-MM-DD.
	ErrInvalidDate = errors.New("invalid date")
)
