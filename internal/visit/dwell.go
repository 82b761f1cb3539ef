package visit

// visitKey identifies one visit within a (zone, date) partition.
type visitKey struct {
	zoneID int64
	date   string
	visit  int
}

// ApplyDwellMergeForDisplay returns events without the departures of visits
// whose dwell (departure minus arrival) is at most the configured threshold.
// Such visits are shown as their arrival only. The input is not modified
// and arrival/departure labels are unchanged; callers needing the raw
// classification use the events from ClassifyDay directly.
func (e *Engine) ApplyDwellMergeForDisplay(events []Event) []Event {
	out := make([]Event, 0, len(events))
	if e.dwell < 0 {
		return append(out, events...)
	}

	arrivals := make(map[visitKey]int64)
	for _, ev := range events {
		if ev.Type == Arrival {
			arrivals[visitKey{ev.ZoneID, ev.Date, ev.Visit}] = ev.Timestamp
		}
	}

	limit := e.dwell.Milliseconds()
	for _, ev := range events {
		if ev.Type == Departure {
			arrivedAt, ok := arrivals[visitKey{ev.ZoneID, ev.Date, ev.Visit}]
			if ok && ev.Timestamp-arrivedAt <= limit {
				continue
			}
		}
		out = append(out, ev)
	}
	return out
}
