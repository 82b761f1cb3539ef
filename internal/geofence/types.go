package geofence

import (
	"slices"
	"time"
)

// Defaults applied to new zones, matching the column defaults.
const (
	DefaultRadius = 10
	DefaultOrder  = 99999
)

// Zone is a circular geofence active on specific dates.
type Zone struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	Latitude        float64   `json:"latitude"`
	Longitude       float64   `json:"longitude"`
	Radius          int       `json:"radius"` // metres
	Order           int       `json:"order"`
	ApplicableDates []string  `json:"applicable_dates"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// New returns a zone with the default radius and order.
func New(name string, latitude, longitude float64) *Zone {
	return &Zone{
		Name:            name,
		Latitude:        latitude,
		Longitude:       longitude,
		Radius:          DefaultRadius,
		Order:           DefaultOrder,
		ApplicableDates: []string{},
	}
}

// ActiveOn reports whether date (YYYY-MM-DD) is one of the zone's applicable dates.
// Comparison is an exact string match.
func (z Zone) ActiveOn(date string) bool {
	return slices.Contains(z.ApplicableDates, date)
}

// Less orders zones by display order, then ID.
func Less(a, b Zone) bool {
	if a.Order != b.Order {
		return a.Order < b.Order
	}
	return a.ID < b.ID
}

// Compare is the three-way form of Less for slices.SortFunc.
func Compare(a, b Zone) int {
	switch {
	case Less(a, b):
		return -1
	case Less(b, a):
		return 1
	default:
		return 0
	}
}
