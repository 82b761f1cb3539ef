package geofence

import (
	"fmt"
	"math"
	"slices"
	"strings"
	"time"
)

const (
	maxNameLength = 100
	dateLayout    = "2006-01-02"
)

// ValidateGeometry checks the parts of a zone the visit engine depends on:
// a finite centre within coordinate range and a positive radius.
func ValidateGeometry(z Zone) error {
	if math.IsNaN(z.Latitude) || z.Latitude < -90 || z.Latitude > 90 {
		return fmt.Errorf("%w: latitude must be between -90 and 90", ErrInvalidZone)
	}
	if math.IsNaN(z.Longitude) || z.Longitude < -180 || z.Longitude > 180 {
		return fmt.Errorf("%w: longitude must be between -180 and 180", ErrInvalidZone)
	}
	if z.Radius <= 0 {
		return fmt.Errorf("%w: radius must be greater than 0", ErrInvalidZone)
	}
	return nil
}

// ValidateZone checks every field written through the administrative API.
func ValidateZone(z *Zone) error {
	if z == nil {
		return fmt.Errorf("%w: zone is required", ErrInvalidZone)
	}
	name := strings.TrimSpace(z.Name)
	if name == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidZone)
	}
	if len(name) > maxNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidZone, maxNameLength)
	}
	if err := ValidateGeometry(*z); err != nil {
		return err
	}
	for _, d := range z.ApplicableDates {
		if err := ValidateDate(d); err != nil {
			return err
		}
	}
	return nil
}

// ValidateDate checks that s is a canonical YYYY-MM-DD calendar date.
func ValidateDate(s string) error {
	t, err := time.Parse(dateLayout, s)
	if err != nil || t.Format(dateLayout) != s {
		return fmt.Errorf("%w: %q is not YYYY-MM-DD", ErrInvalidDate, s)
	}
	return nil
}

// NormalizeDates validates, deduplicates and sorts dates.
// YYYY-MM-DD strings sort chronologically.
func NormalizeDates(dates []string) ([]string, error) {
	out := make([]string, 0, len(dates))
	for _, d := range dates {
		d = strings.TrimSpace(d)
		if d == "" {
			continue
		}
		if err := ValidateDate(d); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	slices.Sort(out)
	return slices.Compact(out), nil
}

// ParseDates accepts the comma-separated form used by the zone editor,
// e.g. "2024-06-01, 2024-06-02".
func ParseDates(csv string) ([]string, error) {
	if strings.TrimSpace(csv) == "" {
		return []string{}, nil
	}
	return NormalizeDates(strings.Split(csv, ","))
}
