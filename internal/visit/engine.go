package visit

import (
	"time"

	"github.com/nerrad567/tracker-core/internal/geofence"
	"github.com/nerrad567/tracker-core/internal/tracking"
)

// DefaultDwellMergeThreshold is the longest visit whose departure is hidden
// in display projections.
const DefaultDwellMergeThreshold = 2 * time.Minute

// Options configures an Engine. The zero value is usable.
type Options struct {
	// DwellMergeThreshold hides departures of visits at most this long in
	// display projections. Zero means DefaultDwellMergeThreshold; a negative
	// value disables the merge.
	DwellMergeThreshold time.Duration

	// VisitGap splits a zone's day into separate visits when consecutive
	// matching fixes are more than this apart. Zero keeps one visit per day.
	VisitGap time.Duration

	// Location renders display times. Nil means UTC.
	Location *time.Location

	// OnReject is called for every zone or fix excluded from a run.
	OnReject func(*ValidationError)
}

// Engine classifies fixes into visits. It is safe for concurrent use.
type Engine struct {
	dwell    time.Duration
	gap      time.Duration
	loc      *time.Location
	onReject func(*ValidationError)
}

// NewEngine creates an Engine from opts.
func NewEngine(opts Options) *Engine {
	e := &Engine{
		dwell:    opts.DwellMergeThreshold,
		gap:      opts.VisitGap,
		loc:      opts.Location,
		onReject: opts.OnReject,
	}
	if e.dwell == 0 {
		e.dwell = DefaultDwellMergeThreshold
	}
	if e.loc == nil {
		e.loc = time.UTC
	}
	if e.onReject == nil {
		e.onReject = func(*ValidationError) {}
	}
	return e
}

// Location returns the display timezone.
func (e *Engine) Location() *time.Location {
	return e.loc
}

// DwellMergeThreshold returns the effective merge threshold. Negative means disabled.
func (e *Engine) DwellMergeThreshold() time.Duration {
	return e.dwell
}

// VisitGap returns the multi-visit split gap; zero means one visit per day.
func (e *Engine) VisitGap() time.Duration {
	return e.gap
}

// PrepareZones splits zones into those usable for classification and
// validation errors for the rest (non-positive radius, bad coordinates).
func PrepareZones(zones []geofence.Zone) (valid []geofence.Zone, rejected []*ValidationError) {
	for _, z := range zones {
		if err := geofence.ValidateGeometry(z); err != nil {
			rejected = append(rejected, &ValidationError{Entity: "zone", ID: z.ID, Err: err})
			continue
		}
		valid = append(valid, z)
	}
	return valid, rejected
}

// ClassifyDay labels the arrivals, departures and passages of every zone
// applicable on date, using the fixes recorded during that UTC day.
//
// Invalid zones and fixes are excluded and reported through OnReject.
// Fixes outside the day are ignored. No zones, no fixes or no matches
// produce an empty result, not an error.
//
// Returns:
//   - []Event: Boundary events ordered by zone order, then time
//   - error: tracking.ErrInvalidDate for a malformed date, ErrComputation on numeric failure
func (e *Engine) ClassifyDay(zones []geofence.Zone, fixes []tracking.Fix, date string) ([]Event, error) {
	valid, rejected := PrepareZones(zones)
	for _, r := range rejected {
		e.onReject(r)
	}
	return e.classifyDay(valid, fixes, date)
}

// classifyDay is ClassifyDay over zones that already passed PrepareZones.
func (e *Engine) classifyDay(zones []geofence.Zone, fixes []tracking.Fix, date string) ([]Event, error) {
	start, end, err := tracking.DayBounds(date)
	if err != nil {
		return nil, err
	}

	active := ApplicableZones(zones, date)
	if len(active) == 0 {
		return []Event{}, nil
	}

	dayFixes := e.dayFixes(fixes, start.UnixMilli(), end.UnixMilli())
	matches, err := MatchFixes(active, dayFixes, date)
	if err != nil {
		return nil, err
	}

	events := Classify(matches, e.gap)
	if events == nil {
		events = []Event{}
	}
	return events, nil
}

// dayFixes keeps valid fixes with timestamp in [startMs, endMs).
func (e *Engine) dayFixes(fixes []tracking.Fix, startMs, endMs int64) []tracking.Fix {
	out := make([]tracking.Fix, 0, len(fixes))
	for i := range fixes {
		f := fixes[i]
		if err := tracking.Validate(&f); err != nil {
			e.onReject(&ValidationError{Entity: "fix", ID: f.ID, Err: err})
			continue
		}
		if f.Timestamp < startMs || f.Timestamp >= endMs {
			continue
		}
		out = append(out, f)
	}
	return out
}
