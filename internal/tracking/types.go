package tracking

import "time"

// Fix is one recorded GPS sample with device telemetry.
type Fix struct {
	ID int64 `json:"id"`

	// Timestamp is milliseconds since the Unix epoch, as reported by the device.
	Timestamp int64 `json:"timestamp"`

	Latitude         float64  `json:"latitude"`
	Longitude        float64  `json:"longitude"`
	Altitude         float64  `json:"altitude"`
	AltitudeAccuracy *float64 `json:"altitude_accuracy,omitempty"`
	Heading          float64  `json:"heading"`
	Speed            float64  `json:"speed"`
	Accuracy         float64  `json:"accuracy"`
	Mocked           bool     `json:"mocked"`
	Battery          *Battery `json:"battery"`

	CreatedAt time.Time `json:"created_at"`
}

// Battery is the device battery state at the time of a fix.
type Battery struct {
	Percentage float64 `json:"percentage"` // 0-100
	Charging   bool    `json:"charging"`
}

// Time returns the fix timestamp in UTC.
func (f Fix) Time() time.Time {
	return time.UnixMilli(f.Timestamp).UTC()
}

// Date returns the UTC calendar day of the fix as YYYY-MM-DD.
func (f Fix) Date() string {
	return f.Time().Format(DateLayout)
}

// Page is one keyset page of fixes, newest first.
type Page struct {
	Fixes []Fix `json:"fixes"`

	// NextCursor is passed back to fetch the following page; 0 when exhausted.
	NextCursor int64 `json:"next_cursor"`

	// Total is the number of fixes stored.
	Total int64 `json:"total"`
}
