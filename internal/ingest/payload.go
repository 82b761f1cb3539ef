package ingest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nerrad567/tracker-core/internal/tracking"
)

// ErrInvalidPayload is returned for payloads that are not valid JSON or
// miss required fields. Range problems surface as tracking.ErrInvalidFix.
var ErrInvalidPayload = errors.New("invalid location payload")

// Payload is the device upload body.
type Payload struct {
	Location *LocationPayload `json:"location"`
	Battery  *BatteryPayload  `json:"battery"`
}

// LocationPayload is a position report.
type LocationPayload struct {
	Coords    *CoordsPayload `json:"coords"`
	Mocked    bool           `json:"mocked"`
	Timestamp *float64       `json:"timestamp"` // ms since epoch; some devices send fractions
}

// CoordsPayload holds the position and motion readings.
type CoordsPayload struct {
	Latitude         *float64 `json:"latitude"`
	Longitude        *float64 `json:"longitude"`
	Altitude         *float64 `json:"altitude"`
	AltitudeAccuracy *float64 `json:"altitudeAccuracy"`
	Heading          *float64 `json:"heading"`
	Speed            *float64 `json:"speed"`
	Accuracy         *float64 `json:"accuracy"`
}

// BatteryPayload is the device power state.
type BatteryPayload struct {
	Percentage *float64 `json:"percentage"`
	Charging   bool     `json:"charging"`
}

// Decode parses an upload body into an unsaved fix.
//
// Position, motion readings and timestamp are required; altitudeAccuracy and
// the battery block may be null. A negative battery percentage means the
// device could not read its battery and drops the battery block.
func Decode(data []byte) (*tracking.Fix, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	var p Payload
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data after JSON object", ErrInvalidPayload)
	}
	return p.Fix()
}

// Fix converts the payload, checking required fields.
func (p *Payload) Fix() (*tracking.Fix, error) {
	switch {
	case p.Location == nil:
		return nil, fmt.Errorf("%w: location is required", ErrInvalidPayload)
	case p.Location.Coords == nil:
		return nil, fmt.Errorf("%w: location.coords is required", ErrInvalidPayload)
	case p.Location.Timestamp == nil:
		return nil, fmt.Errorf("%w: location.timestamp is required", ErrInvalidPayload)
	}

	c := p.Location.Coords
	if field := c.missing(); field != "" {
		return nil, fmt.Errorf("%w: location.coords.%s is required", ErrInvalidPayload, field)
	}

	fix := &tracking.Fix{
		Timestamp:        int64(*p.Location.Timestamp),
		Latitude:         *c.Latitude,
		Longitude:        *c.Longitude,
		Altitude:         *c.Altitude,
		AltitudeAccuracy: c.AltitudeAccuracy,
		Heading:          *c.Heading,
		Speed:            *c.Speed,
		Accuracy:         *c.Accuracy,
		Mocked:           p.Location.Mocked,
	}

	if b := p.Battery; b != nil {
		if b.Percentage == nil {
			return nil, fmt.Errorf("%w: battery.percentage is required", ErrInvalidPayload)
		}
		if *b.Percentage >= 0 {
			fix.Battery = &tracking.Battery{Percentage: *b.Percentage, Charging: b.Charging}
		}
	}
	return fix, nil
}

// missing names the first absent required reading, or "" when all are set.
func (c *CoordsPayload) missing() string {
	required := []struct {
		name  string
		value *float64
	}{
		{"latitude", c.Latitude},
		{"longitude", c.Longitude},
		{"altitude", c.Altitude},
		{"heading", c.Heading},
		{"speed", c.Speed},
		{"accuracy", c.Accuracy},
	}
	for _, r := range required {
		if r.value == nil {
			return r.name
		}
	}
	return ""
}
