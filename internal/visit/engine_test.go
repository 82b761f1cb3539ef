package visit

import (
	"errors"
	"math"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/nerrad567/tracker-core/internal/geofence"
	"github.com/nerrad567/tracker-core/internal/tracking"
)

// 2024-06-01T00:00:00Z
const june1 int64 = 1717200000000

func at(hour, minute int) int64 {
	return june1 + int64(hour)*3600000 + int64(minute)*60000
}

func westminster() geofence.Zone {
	return geofence.Zone{
		ID:              1,
		Name:            "Westminster",
		Latitude:        51.5007,
		Longitude:       -0.1246,
		Radius:          50,
		Order:           1,
		ApplicableDates: []string{"2024-06-01"},
	}
}

func fix(id, ts int64, lat, lon float64) tracking.Fix {
	return tracking.Fix{ID: id, Timestamp: ts, Latitude: lat, Longitude: lon}
}

func TestClassifyDay_ArrivalAndDeparture(t *testing.T) {
	e := NewEngine(Options{})
	fixes := []tracking.Fix{
		fix(1, at(9, 0), 51.5007, -0.1246),
		fix(2, at(9, 5), 51.5007, -0.1246),
		fix(3, at(9, 30), 51.6, 0.0),
	}

	events, err := e.ClassifyDay([]geofence.Zone{westminster()}, fixes, "2024-06-01")
	if err != nil {
		t.Fatalf("ClassifyDay() error = %v", err)
	}

	want := []Event{
		{ZoneID: 1, Date: "2024-06-01", FixID: 1, Timestamp: at(9, 0), Type: Arrival},
		{ZoneID: 1, Date: "2024-06-01", FixID: 2, Timestamp: at(9, 5), Type: Departure},
	}
	if !reflect.DeepEqual(events, want) {
		t.Fatalf("ClassifyDay() = %+v, want %+v", events, want)
	}

	// Five minutes exceeds the default two minute threshold.
	if got := e.ApplyDwellMergeForDisplay(events); !reflect.DeepEqual(got, want) {
		t.Errorf("ApplyDwellMergeForDisplay() = %+v, want both events", got)
	}
}

func TestClassifyDay_SingleFixIsPassage(t *testing.T) {
	e := NewEngine(Options{})
	fixes := []tracking.Fix{fix(7, at(9, 0), 51.5007, -0.1246)}

	events, err := e.ClassifyDay([]geofence.Zone{westminster()}, fixes, "2024-06-01")
	if err != nil {
		t.Fatalf("ClassifyDay() error = %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("ClassifyDay() returned %d events, want 1", len(events))
	}
	if events[0].Type != Passage || events[0].FixID != 7 {
		t.Errorf("event = %+v, want passage of fix 7", events[0])
	}
}

func TestClassifyDay_ZoneNotApplicable(t *testing.T) {
	e := NewEngine(Options{})
	june2 := june1 + 24*3600000
	fixes := []tracking.Fix{
		fix(1, june2+9*3600000, 51.5007, -0.1246),
		fix(2, june2+10*3600000, 51.5007, -0.1246),
	}

	events, err := e.ClassifyDay([]geofence.Zone{westminster()}, fixes, "2024-06-02")
	if err != nil {
		t.Fatalf("ClassifyDay() error = %v", err)
	}
	if len(events) != 0 {
		t.Errorf("ClassifyDay() = %+v, want no events", events)
	}
}

func TestClassifyDay_EmptyInputs(t *testing.T) {
	e := NewEngine(Options{})

	tests := []struct {
		name  string
		zones []geofence.Zone
		fixes []tracking.Fix
	}{
		{"no zones", nil, []tracking.Fix{fix(1, at(9, 0), 51.5007, -0.1246)}},
		{"no fixes", []geofence.Zone{westminster()}, nil},
		{"no matches", []geofence.Zone{westminster()}, []tracking.Fix{fix(1, at(9, 0), 10, 10)}},
		{"zone without dates", []geofence.Zone{{ID: 2, Name: "x", Latitude: 51.5007, Longitude: -0.1246, Radius: 50}},
			[]tracking.Fix{fix(1, at(9, 0), 51.5007, -0.1246)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events, err := e.ClassifyDay(tt.zones, tt.fixes, "2024-06-01")
			if err != nil {
				t.Fatalf("ClassifyDay() error = %v", err)
			}
			if events == nil || len(events) != 0 {
				t.Errorf("ClassifyDay() = %#v, want empty slice", events)
			}
		})
	}
}

func TestClassifyDay_ManyFixesOnlyBoundariesEmitted(t *testing.T) {
	e := NewEngine(Options{})
	// Deliberately unordered, with a timestamp tie at the start.
	fixes := []tracking.Fix{
		fix(5, at(12, 0), 51.5007, -0.1246),
		fix(4, at(8, 0), 51.5007, -0.1246),
		fix(2, at(8, 0), 51.50071, -0.1246),
		fix(9, at(17, 45), 51.5007, -0.12461),
		fix(3, at(10, 0), 51.5007, -0.1246),
	}

	events, err := e.ClassifyDay([]geofence.Zone{westminster()}, fixes, "2024-06-01")
	if err != nil {
		t.Fatalf("ClassifyDay() error = %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("ClassifyDay() returned %d events, want 2", len(events))
	}
	if events[0].Type != Arrival || events[0].FixID != 2 {
		t.Errorf("arrival = %+v, want fix 2 (lowest id at earliest time)", events[0])
	}
	if events[1].Type != Departure || events[1].FixID != 9 {
		t.Errorf("departure = %+v, want fix 9", events[1])
	}
}

func TestClassifyDay_RadiusIsInclusive(t *testing.T) {
	z := westminster()
	// A point due north of the centre; Distance is monotonic along the meridian.
	lat := z.Latitude + 0.0004
	d := Distance(z.Latitude, z.Longitude, lat, z.Longitude)
	z.Radius = int(math.Ceil(d))

	e := NewEngine(Options{})
	events, err := e.ClassifyDay([]geofence.Zone{z}, []tracking.Fix{fix(1, at(9, 0), lat, z.Longitude)}, "2024-06-01")
	if err != nil {
		t.Fatalf("ClassifyDay() error = %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("fix %.3fm from centre not matched by radius %d", d, z.Radius)
	}

	z.Radius = int(math.Floor(d))
	events, err = e.ClassifyDay([]geofence.Zone{z}, []tracking.Fix{fix(1, at(9, 0), lat, z.Longitude)}, "2024-06-01")
	if err != nil {
		t.Fatalf("ClassifyDay() error = %v", err)
	}
	if len(events) != 0 {
		t.Errorf("fix %.3fm from centre matched by radius %d", d, z.Radius)
	}
}

func TestClassifyDay_DayWindow(t *testing.T) {
	e := NewEngine(Options{})
	fixes := []tracking.Fix{
		fix(1, june1-1, 51.5007, -0.1246),          // previous day
		fix(2, june1, 51.5007, -0.1246),            // midnight, included
		fix(3, june1+24*3600000, 51.5007, -0.1246), // next midnight, excluded
	}

	events, err := e.ClassifyDay([]geofence.Zone{westminster()}, fixes, "2024-06-01")
	if err != nil {
		t.Fatalf("ClassifyDay() error = %v", err)
	}
	if len(events) != 1 || events[0].FixID != 2 || events[0].Type != Passage {
		t.Errorf("ClassifyDay() = %+v, want passage of fix 2", events)
	}
}

func TestClassifyDay_Rejections(t *testing.T) {
	var rejected []*ValidationError
	e := NewEngine(Options{OnReject: func(v *ValidationError) { rejected = append(rejected, v) }})

	bad := westminster()
	bad.ID = 2
	bad.Radius = 0

	fixes := []tracking.Fix{
		fix(1, at(9, 0), 51.5007, -0.1246),
		fix(2, at(9, 1), 123, -0.1246),
		fix(3, at(9, 2), math.NaN(), -0.1246),
	}

	events, err := e.ClassifyDay([]geofence.Zone{westminster(), bad}, fixes, "2024-06-01")
	if err != nil {
		t.Fatalf("ClassifyDay() error = %v", err)
	}
	if len(events) != 1 || events[0].Type != Passage {
		t.Errorf("ClassifyDay() = %+v, want one passage", events)
	}

	if len(rejected) != 3 {
		t.Fatalf("rejected %d entities, want 3", len(rejected))
	}
	if rejected[0].Entity != "zone" || rejected[0].ID != 2 {
		t.Errorf("rejected[0] = %v, want zone 2", rejected[0])
	}
	if !errors.Is(rejected[0], ErrValidation) || !errors.Is(rejected[0], geofence.ErrInvalidZone) {
		t.Errorf("zone rejection %v does not match ErrValidation and ErrInvalidZone", rejected[0])
	}
	if !strings.Contains(rejected[0].Err.Error(), "radius") {
		t.Errorf("zone rejection cause %q does not name the radius", rejected[0].Err)
	}
	for _, r := range rejected[1:] {
		if r.Entity != "fix" || !errors.Is(r, tracking.ErrInvalidFix) || !errors.Is(r, ErrValidation) {
			t.Errorf("fix rejection = %v", r)
		}
		if !strings.Contains(r.Err.Error(), "latitude") {
			t.Errorf("fix %d rejection cause %q does not name the latitude", r.ID, r.Err)
		}
	}
}

func TestClassifyDay_InvalidDate(t *testing.T) {
	e := NewEngine(Options{})
	for _, date := range []string{"", "2024-6-1", "2024-02-30", "yesterday"} {
		if _, err := e.ClassifyDay([]geofence.Zone{westminster()}, nil, date); !errors.Is(err, tracking.ErrInvalidDate) {
			t.Errorf("ClassifyDay(%q) error = %v, want ErrInvalidDate", date, err)
		}
	}
}

func TestClassifyDay_OrderedByZoneOrder(t *testing.T) {
	e := NewEngine(Options{})
	a := westminster()
	a.ID, a.Order = 10, 5
	b := westminster()
	b.ID, b.Order = 11, 2
	c := westminster()
	c.ID, c.Order = 3, 5

	events, err := e.ClassifyDay([]geofence.Zone{a, b, c}, []tracking.Fix{fix(1, at(9, 0), 51.5007, -0.1246)}, "2024-06-01")
	if err != nil {
		t.Fatalf("ClassifyDay() error = %v", err)
	}

	var got []int64
	for _, ev := range events {
		got = append(got, ev.ZoneID)
	}
	if want := []int64{11, 3, 10}; !reflect.DeepEqual(got, want) {
		t.Errorf("zone order = %v, want %v", got, want)
	}
}

func TestClassifyDay_VisitGap(t *testing.T) {
	e := NewEngine(Options{VisitGap: time.Hour})
	fixes := []tracking.Fix{
		fix(1, at(9, 0), 51.5007, -0.1246),
		fix(2, at(9, 20), 51.5007, -0.1246),
		fix(3, at(14, 0), 51.5007, -0.1246),
	}

	events, err := e.ClassifyDay([]geofence.Zone{westminster()}, fixes, "2024-06-01")
	if err != nil {
		t.Fatalf("ClassifyDay() error = %v", err)
	}
	want := []Event{
		{ZoneID: 1, Date: "2024-06-01", FixID: 1, Timestamp: at(9, 0), Type: Arrival},
		{ZoneID: 1, Date: "2024-06-01", FixID: 2, Timestamp: at(9, 20), Type: Departure},
		{ZoneID: 1, Date: "2024-06-01", FixID: 3, Timestamp: at(14, 0), Type: Passage, Visit: 1},
	}
	if !reflect.DeepEqual(events, want) {
		t.Errorf("ClassifyDay() = %+v, want %+v", events, want)
	}
}

func TestApplyDwellMergeForDisplay(t *testing.T) {
	tests := []struct {
		name      string
		threshold time.Duration
		dwell     int64
		wantDep   bool
	}{
		{"below threshold", 0, 119999, false},
		{"at threshold", 0, 120000, false},
		{"above threshold", 0, 120001, true},
		{"custom threshold", 10 * time.Minute, 5 * 60000, false},
		{"disabled", -1, 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEngine(Options{DwellMergeThreshold: tt.threshold})
			events := []Event{
				{ZoneID: 1, Date: "2024-06-01", FixID: 1, Timestamp: at(9, 0), Type: Arrival},
				{ZoneID: 1, Date: "2024-06-01", FixID: 2, Timestamp: at(9, 0) + tt.dwell, Type: Departure},
			}
			before := append([]Event(nil), events...)

			got := e.ApplyDwellMergeForDisplay(events)
			wantLen := 1
			if tt.wantDep {
				wantLen = 2
			}
			if len(got) != wantLen {
				t.Fatalf("ApplyDwellMergeForDisplay() returned %d events, want %d", len(got), wantLen)
			}
			if got[0].Type != Arrival {
				t.Errorf("first event = %v, want arrival", got[0].Type)
			}
			if !reflect.DeepEqual(events, before) {
				t.Error("input events were modified")
			}
		})
	}
}

func TestApplyDwellMergeForDisplay_PassagesUntouched(t *testing.T) {
	e := NewEngine(Options{})
	events := []Event{{ZoneID: 1, Date: "2024-06-01", FixID: 1, Timestamp: at(9, 0), Type: Passage}}
	if got := e.ApplyDwellMergeForDisplay(events); !reflect.DeepEqual(got, events) {
		t.Errorf("ApplyDwellMergeForDisplay() = %+v, want %+v", got, events)
	}
}

func TestDisplayCells(t *testing.T) {
	london, err := time.LoadLocation("Europe/London")
	if err != nil {
		t.Skipf("timezone data unavailable: %v", err)
	}
	e := NewEngine(Options{Location: london})

	long := []Event{
		{ZoneID: 1, Date: "2024-06-01", FixID: 1, Timestamp: at(9, 0), Type: Arrival},
		{ZoneID: 1, Date: "2024-06-01", FixID: 2, Timestamp: at(9, 5), Type: Departure},
	}
	cells := e.DisplayCells(long)
	want := []DisplayCell{{
		Arrival:            "10:00",
		Departure:          "10:05",
		ArrivalTimestamp:   at(9, 0),
		DepartureTimestamp: at(9, 5),
	}}
	if !reflect.DeepEqual(cells, want) {
		t.Errorf("DisplayCells() = %+v, want %+v", cells, want)
	}

	short := []Event{
		{ZoneID: 1, Date: "2024-06-01", FixID: 1, Timestamp: at(9, 0), Type: Arrival},
		{ZoneID: 1, Date: "2024-06-01", FixID: 2, Timestamp: at(9, 1), Type: Departure},
	}
	cells = e.DisplayCells(short)
	if len(cells) != 1 || cells[0].Departure != "" || cells[0].Arrival != "10:00" {
		t.Errorf("DisplayCells() = %+v, want arrival only", cells)
	}

	passage := []Event{{ZoneID: 1, Date: "2024-06-01", FixID: 1, Timestamp: at(23, 30), Type: Passage}}
	cells = e.DisplayCells(passage)
	if len(cells) != 1 || !cells[0].Passage || cells[0].Arrival != "00:30" {
		t.Errorf("DisplayCells() = %+v, want passage at 00:30", cells)
	}

	if cells := e.DisplayCells(nil); cells == nil || len(cells) != 0 {
		t.Errorf("DisplayCells(nil) = %#v, want empty slice", cells)
	}
}

func TestCompareAcrossDates(t *testing.T) {
	e := NewEngine(Options{})

	multi := westminster()
	multi.ApplicableDates = []string{"2024-06-01", "2024-06-02"}

	second := westminster()
	second.ID, second.Name, second.Order = 2, "Second", 0
	second.ApplicableDates = []string{"2024-06-02"}

	never := westminster()
	never.ID, never.Name = 3, "Never"
	never.ApplicableDates = []string{"2024-07-01"}

	fixesByDate := map[string][]tracking.Fix{
		"2024-06-01": {fix(1, at(9, 0), 51.5007, -0.1246)},
	}

	rows, err := e.CompareAcrossDates([]geofence.Zone{multi, second, never}, fixesByDate,
		[]string{"2024-06-02", "2024-06-01", "2024-06-02"})
	if err != nil {
		t.Fatalf("CompareAcrossDates() error = %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("CompareAcrossDates() returned %d rows, want 2", len(rows))
	}

	if rows[0].ZoneID != 2 || rows[1].ZoneID != 1 {
		t.Errorf("row order = [%d %d], want [2 1]", rows[0].ZoneID, rows[1].ZoneID)
	}

	if got := len(rows[0].ByDate); got != 1 {
		t.Errorf("zone 2 has %d dates, want 1", got)
	}
	if evs, ok := rows[0].ByDate["2024-06-02"]; !ok || evs == nil || len(evs) != 0 {
		t.Errorf("zone 2 2024-06-02 = %#v, want empty slice", evs)
	}

	multiRow := rows[1]
	if len(multiRow.ByDate["2024-06-01"]) != 1 || multiRow.ByDate["2024-06-01"][0].Type != Passage {
		t.Errorf("zone 1 2024-06-01 = %+v, want passage", multiRow.ByDate["2024-06-01"])
	}
	if evs, ok := multiRow.ByDate["2024-06-02"]; !ok || len(evs) != 0 {
		t.Errorf("zone 1 2024-06-02 = %#v, want empty entry", evs)
	}

	if got, want := Columns(rows), []string{"2024-06-01", "2024-06-02"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Columns() = %v, want %v", got, want)
	}
}

func TestCompareAcrossDates_NoApplicableZones(t *testing.T) {
	e := NewEngine(Options{})
	rows, err := e.CompareAcrossDates([]geofence.Zone{westminster()}, nil, []string{"2024-01-01"})
	if err != nil {
		t.Fatalf("CompareAcrossDates() error = %v", err)
	}
	if rows == nil || len(rows) != 0 {
		t.Errorf("CompareAcrossDates() = %#v, want empty slice", rows)
	}
	if cols := Columns(rows); len(cols) != 0 {
		t.Errorf("Columns() = %v, want none", cols)
	}
}

func TestMatchFixes_NonFiniteDistance(t *testing.T) {
	z := westminster()
	_, err := MatchFixes([]geofence.Zone{z}, []tracking.Fix{fix(1, at(9, 0), math.Inf(1), 0)}, "2024-06-01")
	if !errors.Is(err, ErrComputation) {
		t.Errorf("MatchFixes() error = %v, want ErrComputation", err)
	}
}
