package visit

import (
	"slices"

	"github.com/nerrad567/tracker-core/internal/geofence"
	"github.com/nerrad567/tracker-core/internal/tracking"
)

// Row is one zone of a cross-day comparison.
type Row struct {
	ZoneID int64  `json:"zone_id"`
	Name   string `json:"name"`
	Order  int    `json:"order"`

	// ByDate holds the zone's events for every requested date on which the
	// zone was applicable. Dates without matches map to an empty slice.
	ByDate map[string][]Event `json:"by_date"`
}

// CompareAcrossDates classifies each date and pivots the results into one
// row per zone. Zones never applicable within dates get no row. Rows are
// ordered by zone order (then ID); Columns gives the dates in ascending order.
//
// Parameters:
//   - zones: Zone snapshot; invalid zones are excluded and reported
//   - fixesByDate: Fixes for each date's UTC day
//   - dates: Requested dates, YYYY-MM-DD; duplicates are ignored
//
// Returns:
//   - []Row: Comparison rows
//   - error: tracking.ErrInvalidDate for a malformed date, ErrComputation on numeric failure
func (e *Engine) CompareAcrossDates(zones []geofence.Zone, fixesByDate map[string][]tracking.Fix, dates []string) ([]Row, error) {
	valid, rejected := PrepareZones(zones)
	for _, r := range rejected {
		e.onReject(r)
	}
	slices.SortFunc(valid, geofence.Compare)

	dates = slices.Clone(dates)
	slices.Sort(dates)
	dates = slices.Compact(dates)

	var all []Event
	for _, date := range dates {
		events, err := e.classifyDay(valid, fixesByDate[date], date)
		if err != nil {
			return nil, err
		}
		all = append(all, events...)
	}

	return pivot(valid, dates, all), nil
}

// pivot groups events by (zone, date) in a single pass and lays them out
// along the applicable dates of each zone. zones and dates must be sorted.
func pivot(zones []geofence.Zone, dates []string, events []Event) []Row {
	byGroup := make(map[groupKey][]Event)
	for _, ev := range events {
		k := groupKey{zoneID: ev.ZoneID, date: ev.Date}
		byGroup[k] = append(byGroup[k], ev)
	}

	rows := []Row{}
	for _, z := range zones {
		var byDate map[string][]Event
		for _, date := range dates {
			if !IsApplicable(z, date) {
				continue
			}
			if byDate == nil {
				byDate = make(map[string][]Event)
			}
			evs := byGroup[groupKey{zoneID: z.ID, date: date}]
			if evs == nil {
				evs = []Event{}
			}
			byDate[date] = evs
		}
		if byDate == nil {
			continue
		}
		rows = append(rows, Row{ZoneID: z.ID, Name: z.Name, Order: z.Order, ByDate: byDate})
	}
	return rows
}

// Columns returns the dates present in any row, ascending.
func Columns(rows []Row) []string {
	var dates []string
	for _, r := range rows {
		for d := range r.ByDate {
			dates = append(dates, d)
		}
	}
	slices.Sort(dates)
	return slices.Compact(dates)
}
