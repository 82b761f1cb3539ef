package visit

import (
	"cmp"
	"slices"
	"time"

	"github.com/nerrad567/tracker-core/internal/geofence"
)

// EventType labels a boundary fix of a visit.
type EventType string

// Event types.
const (
	Arrival   EventType = "arrival"
	Departure EventType = "departure"
	Passage   EventType = "passage"
)

// Event is a classified boundary fix. Events are derived on every query
// and never stored.
type Event struct {
	ZoneID    int64     `json:"zone_id"`
	Date      string    `json:"date"`
	FixID     int64     `json:"fix_id"`
	Timestamp int64     `json:"timestamp"`
	Type      EventType `json:"type"`

	// Visit numbers the visits of a zone on one date from 0. It is always 0
	// unless a visit gap is configured.
	Visit int `json:"visit"`
}

// groupKey identifies one (zone, date) partition.
type groupKey struct {
	zoneID int64
	date   string
}

// Classify partitions matches by (zone, date), ranks each partition by
// timestamp (ties broken by lowest fix ID) and labels its boundary fixes.
//
// With gap <= 0 a partition is one visit: one fix yields a passage, two or
// more yield an arrival (earliest) and a departure (latest). With gap > 0 a
// partition is first split wherever consecutive fixes are more than gap
// apart and each piece is labelled the same way.
//
// Output is ordered by zone display order, zone ID, date, then timestamp.
func Classify(matches []Match, gap time.Duration) []Event {
	groups := make(map[groupKey][]Match)
	zones := make(map[int64]geofence.Zone)
	for _, m := range matches {
		k := groupKey{zoneID: m.Zone.ID, date: m.Date}
		groups[k] = append(groups[k], m)
		zones[m.Zone.ID] = m.Zone
	}

	keys := make([]groupKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b groupKey) int {
		if c := geofence.Compare(zones[a.zoneID], zones[b.zoneID]); c != 0 {
			return c
		}
		return cmp.Compare(a.date, b.date)
	})

	var events []Event
	for _, k := range keys {
		group := groups[k]
		slices.SortFunc(group, func(a, b Match) int {
			if c := cmp.Compare(a.Fix.Timestamp, b.Fix.Timestamp); c != 0 {
				return c
			}
			return cmp.Compare(a.Fix.ID, b.Fix.ID)
		})
		for i, visit := range splitVisits(group, gap) {
			events = append(events, labelVisit(visit, i)...)
		}
	}
	return events
}

// splitVisits cuts a time-ordered group wherever the gap between
// neighbouring fixes exceeds gap.
func splitVisits(group []Match, gap time.Duration) [][]Match {
	if gap <= 0 || len(group) < 2 {
		return [][]Match{group}
	}

	limit := gap.Milliseconds()
	var visits [][]Match
	start := 0
	for i := 1; i < len(group); i++ {
		if group[i].Fix.Timestamp-group[i-1].Fix.Timestamp > limit {
			visits = append(visits, group[start:i])
			start = i
		}
	}
	return append(visits, group[start:])
}

// labelVisit emits the boundary events of one time-ordered visit.
func labelVisit(visit []Match, index int) []Event {
	event := func(m Match, t EventType) Event {
		return Event{
			ZoneID:    m.Zone.ID,
			Date:      m.Date,
			FixID:     m.Fix.ID,
			Timestamp: m.Fix.Timestamp,
			Type:      t,
			Visit:     index,
		}
	}

	switch len(visit) {
	case 0:
		return nil
	case 1:
		return []Event{event(visit[0], Passage)}
	default:
		return []Event{
			event(visit[0], Arrival),
			event(visit[len(visit)-1], Departure),
		}
	}
}
