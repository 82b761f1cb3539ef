package visit

import "time"

// displayTimeLayout renders times as 24-hour HH:MM.
const displayTimeLayout = "15:04"

// DisplayCell is the presentation of one visit in the display timezone.
// Departure is empty for passages and for visits collapsed by the dwell merge.
type DisplayCell struct {
	Visit              int    `json:"visit"`
	Arrival            string `json:"arrival"`
	Departure          string `json:"departure,omitempty"`
	ArrivalTimestamp   int64  `json:"arrival_timestamp"`
	DepartureTimestamp int64  `json:"departure_timestamp,omitempty"`
	Passage            bool   `json:"passage,omitempty"`
}

// DisplayCells applies the dwell merge to the events of a single
// (zone, date) partition and formats one cell per visit.
func (e *Engine) DisplayCells(events []Event) []DisplayCell {
	cells := []DisplayCell{}
	index := make(map[int]int)
	for _, ev := range e.ApplyDwellMergeForDisplay(events) {
		i, ok := index[ev.Visit]
		if !ok {
			cells = append(cells, DisplayCell{Visit: ev.Visit})
			i = len(cells) - 1
			index[ev.Visit] = i
		}
		cell := &cells[i]
		switch ev.Type {
		case Arrival, Passage:
			cell.Arrival = e.FormatTime(ev.Timestamp)
			cell.ArrivalTimestamp = ev.Timestamp
			cell.Passage = ev.Type == Passage
		case Departure:
			cell.Departure = e.FormatTime(ev.Timestamp)
			cell.DepartureTimestamp = ev.Timestamp
		}
	}
	return cells
}

// FormatTime renders a millisecond timestamp as HH:MM in the display timezone.
func (e *Engine) FormatTime(ms int64) string {
	return time.UnixMilli(ms).In(e.loc).Format(displayTimeLayout)
}
