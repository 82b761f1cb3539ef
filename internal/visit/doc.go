// Package visit classifies location fixes into zone visits.
//
// For each zone and each date the zone is active, the fixes recorded that UTC
// day inside the zone's radius are ranked by time. A single matching fix is a
// passage; otherwise the earliest is the arrival and the latest the departure.
// Fixes in between only prove continued occupancy and are dropped.
//
// The Engine is a pure batch transform: it holds immutable options and every
// call is a function of its arguments, so runs may execute concurrently.
// Presentation helpers (dwell merge, local-time display cells) sit on top of
// the raw classification without changing it.
//
// Service connects the engine to the fix and zone stores and adds the
// cross-day comparison entry points used by the API.
package visit
