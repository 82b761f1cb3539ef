package visit

import "github.com/nerrad567/tracker-core/internal/geofence"

// IsApplicable reports whether zone is active on date (YYYY-MM-DD).
// Zones with no applicable dates are never active.
func IsApplicable(zone geofence.Zone, date string) bool {
	return zone.ActiveOn(date)
}

// ApplicableZones returns the zones active on date, preserving input order.
func ApplicableZones(zones []geofence.Zone, date string) []geofence.Zone {
	var active []geofence.Zone
	for _, z := range zones {
		if IsApplicable(z, date) {
			active = append(active, z)
		}
	}
	return active
}
