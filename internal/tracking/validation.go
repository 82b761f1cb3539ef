package tracking

import (
	"fmt"
	"math"
)

// Validate checks a fix before it is stored.
func Validate(f *Fix) error {
	if f == nil {
		return fmt.Errorf("%w: fix is required", ErrInvalidFix)
	}
	if f.Timestamp <= 0 {
		return fmt.Errorf("%w: timestamp must be positive milliseconds since epoch", ErrInvalidFix)
	}

	numbers := []struct {
		name  string
		value float64
	}{
		{"latitude", f.Latitude},
		{"longitude", f.Longitude},
		{"altitude", f.Altitude},
		{"heading", f.Heading},
		{"speed", f.Speed},
		{"accuracy", f.Accuracy},
	}
	for _, n := range numbers {
		if math.IsNaN(n.value) || math.IsInf(n.value, 0) {
			return fmt.Errorf("%w: %s must be a finite number", ErrInvalidFix, n.name)
		}
	}
	if f.AltitudeAccuracy != nil && (math.IsNaN(*f.AltitudeAccuracy) || math.IsInf(*f.AltitudeAccuracy, 0)) {
		return fmt.Errorf("%w: altitude_accuracy must be a finite number", ErrInvalidFix)
	}

	if f.Latitude < -90 || f.Latitude > 90 {
		return fmt.Errorf("%w: latitude must be between -90 and 90", ErrInvalidFix)
	}
	if f.Longitude < -180 || f.Longitude > 180 {
		return fmt.Errorf("%w: longitude must be between -180 and 180", ErrInvalidFix)
	}
	if f.Accuracy < 0 {
		return fmt.Errorf("%w: accuracy must not be negative", ErrInvalidFix)
	}

	if f.Battery != nil {
		p := f.Battery.Percentage
		if math.IsNaN(p) || p < 0 || p > 100 {
			return fmt.Errorf("%w: battery percentage must be between 0 and 100", ErrInvalidFix)
		}
	}
	return nil
}
