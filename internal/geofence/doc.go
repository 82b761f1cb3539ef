// Package geofence defines circular zones ("timing points") and their storage.
//
// A zone is a named circle (centre and radius in metres) that is active only
// on the calendar dates listed in ApplicableDates. A zone with no dates is
// inactive. Order sets the display sequence and breaks ties between zones.
//
// Zones are created and edited through the administrative API and read as a
// snapshot by the visit engine, which never mutates them.
package geofence
