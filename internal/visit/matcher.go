package visit

import (
	"fmt"
	"math"

	"github.com/nerrad567/tracker-core/internal/geofence"
	"github.com/nerrad567/tracker-core/internal/tracking"
)

// Match is a fix recorded inside a zone on a given date.
type Match struct {
	Zone     geofence.Zone
	Fix      tracking.Fix
	Date     string
	Distance float64 // metres from the zone centre
}

// MatchFixes tests every zone against every fix and keeps the pairs where
// the fix lies within the zone radius (inclusive). Zones and fixes are
// expected to be validated and already restricted to date.
//
// Returns an ErrComputation error if any distance is not finite.
func MatchFixes(zones []geofence.Zone, fixes []tracking.Fix, date string) ([]Match, error) {
	var matches []Match
	for _, z := range zones {
		radius := float64(z.Radius)
		for _, f := range fixes {
			d := Distance(z.Latitude, z.Longitude, f.Latitude, f.Longitude)
			if math.IsNaN(d) || math.IsInf(d, 0) {
				return nil, fmt.Errorf("%w: distance from zone %d to fix %d is %v", ErrComputation, z.ID, f.ID, d)
			}
			if d <= radius {
				matches = append(matches, Match{Zone: z, Fix: f, Date: date, Distance: d})
			}
		}
	}
	return matches, nil
}
