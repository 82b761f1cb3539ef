package tracking

import (
	"fmt"
	"time"
)

// DateLayout is the canonical calendar-date format.
const DateLayout = "2006-01-02"

// DayBounds returns the UTC day [start, end) for a YYYY-MM-DD date.
func DayBounds(date string) (start, end time.Time, err error) {
	start, err = time.ParseInLocation(DateLayout, date, time.UTC)
	if err != nil || start.Format(DateLayout) != date {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: %q is not YYYY-MM-DD", ErrInvalidDate, date)
	}
	return start, start.AddDate(0, 0, 1), nil
}

// DateRange lists every date from first to last inclusive.
// It returns an error if either bound is malformed, last precedes first,
// or the range is longer than limit days.
func DateRange(first, last string, limit int) ([]string, error) {
	start, _, err := DayBounds(first)
	if err != nil {
		return nil, err
	}
	end, _, err := DayBounds(last)
	if err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, fmt.Errorf("%w: %s is before %s", ErrInvalidDate, last, first)
	}

	days := int(end.Sub(start).Hours()/24) + 1
	if days > limit {
		return nil, fmt.Errorf("%w: range of %d days exceeds limit of %d", ErrInvalidDate, days, limit)
	}

	dates := make([]string, 0, days)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d.Format(DateLayout))
	}
	return dates, nil
}
