package visit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nerrad567/tracker-core/internal/geofence"
	"github.com/nerrad567/tracker-core/internal/infrastructure/logging"
	"github.com/nerrad567/tracker-core/internal/infrastructure/metrics"
	"github.com/nerrad567/tracker-core/internal/tracking"
)

// DefaultMaxCompareDays caps comparisons when no limit is configured.
const DefaultMaxCompareDays = 62

// dayLoadConcurrency bounds parallel fix loads during comparisons.
const dayLoadConcurrency = 4

// ErrPublishingDisabled is returned by PublishDay when no publisher is wired.
var ErrPublishingDisabled = errors.New("publishing disabled")

// FixStore loads the fixes of a UTC day.
type FixStore interface {
	ListDay(ctx context.Context, start, end time.Time) ([]tracking.Fix, error)
}

// ZoneStore loads the current zone set.
type ZoneStore interface {
	List(ctx context.Context) ([]geofence.Zone, error)
}

// Publisher delivers a serialised day classification.
type Publisher interface {
	PublishVisits(date string, payload []byte) error
}

// ServiceDeps holds the dependencies of a Service.
type ServiceDeps struct {
	Engine    *Engine
	Zones     ZoneStore
	Fixes     FixStore
	Publisher Publisher // optional
	Logger    *logging.Logger

	// MaxCompareDays caps the dates of one comparison. Zero means
	// DefaultMaxCompareDays.
	MaxCompareDays int
}

// Service runs classifications against the stores.
type Service struct {
	engine    *Engine
	zones     ZoneStore
	fixes     FixStore
	publisher Publisher
	logger    *logging.Logger
	maxDays   int
}

// NewService creates a Service. Engine, Zones and Fixes are required.
func NewService(deps ServiceDeps) *Service {
	s := &Service{
		engine:    deps.Engine,
		zones:     deps.Zones,
		fixes:     deps.Fixes,
		publisher: deps.Publisher,
		logger:    deps.Logger,
		maxDays:   deps.MaxCompareDays,
	}
	if s.engine == nil {
		s.engine = NewEngine(Options{})
	}
	if s.logger == nil {
		s.logger = logging.Discard()
	}
	if s.maxDays <= 0 {
		s.maxDays = DefaultMaxCompareDays
	}
	return s
}

// Engine returns the engine the service classifies with.
func (s *Service) Engine() *Engine {
	return s.engine
}

// RejectReporter returns an OnReject hook that logs each rejected entity
// and counts it in the rejection metric.
func RejectReporter(logger *logging.Logger) func(*ValidationError) {
	return func(v *ValidationError) {
		metrics.EntitiesRejectedTotal.WithLabelValues(v.Entity).Inc()
		logger.Warn("excluded from classification",
			"entity", v.Entity,
			"id", v.ID,
			"reason", v.Err.Error(),
		)
	}
}

// ZoneDay is one applicable zone's classification for a date.
type ZoneDay struct {
	ZoneID  int64         `json:"zone_id"`
	Name    string        `json:"name"`
	Order   int           `json:"order"`
	Events  []Event       `json:"events"`
	Display []DisplayCell `json:"display"`
}

// DayResult is the classification of a single date.
type DayResult struct {
	Date   string    `json:"date"`
	Events []Event   `json:"events"`
	Zones  []ZoneDay `json:"zones"`
}

// CompareRow is a pivot row with its display projection.
type CompareRow struct {
	Row
	Display map[string][]DisplayCell `json:"display"`
}

// Comparison is a cross-day pivot.
type Comparison struct {
	Dates []string     `json:"dates"`
	Rows  []CompareRow `json:"rows"`
}

// ClassifyDate loads zones and the fixes of date's UTC day and classifies them.
// Every zone applicable on date appears in Zones, with empty events when
// nothing matched.
//
// Returns:
//   - *DayResult: Raw events and the per-zone display projection
//   - error: tracking.ErrInvalidDate, ErrInputUnavailable or ErrComputation
func (s *Service) ClassifyDate(ctx context.Context, date string) (result *DayResult, err error) {
	defer s.observe("day", time.Now(), &err)

	start, end, err := tracking.DayBounds(date)
	if err != nil {
		return nil, err
	}

	zones, err := s.loadZones(ctx)
	if err != nil {
		return nil, err
	}
	fixes, err := s.fixes.ListDay(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("%w: loading fixes for %s: %v", ErrInputUnavailable, date, err)
	}

	valid, rejected := PrepareZones(zones)
	for _, r := range rejected {
		s.engine.onReject(r)
	}
	events, err := s.engine.classifyDay(valid, fixes, date)
	if err != nil {
		return nil, err
	}

	active := ApplicableZones(valid, date)
	slices.SortFunc(active, geofence.Compare)
	byZone := make(map[int64][]Event, len(active))
	for _, ev := range events {
		byZone[ev.ZoneID] = append(byZone[ev.ZoneID], ev)
	}

	result = &DayResult{Date: date, Events: events, Zones: make([]ZoneDay, 0, len(active))}
	for _, z := range active {
		evs := byZone[z.ID]
		if evs == nil {
			evs = []Event{}
		}
		result.Zones = append(result.Zones, ZoneDay{
			ZoneID:  z.ID,
			Name:    z.Name,
			Order:   z.Order,
			Events:  evs,
			Display: s.engine.DisplayCells(evs),
		})
	}

	s.logger.Debug("classified day",
		"date", date,
		"zones", len(active),
		"fixes", len(fixes),
		"events", len(events),
	)
	return result, nil
}

// Compare pivots the classifications of dates across all zones.
func (s *Service) Compare(ctx context.Context, dates []string) (cmp *Comparison, err error) {
	defer s.observe("compare", time.Now(), &err)

	dates, err = s.normaliseDates(dates)
	if err != nil {
		return nil, err
	}
	zones, err := s.loadZones(ctx)
	if err != nil {
		return nil, err
	}
	return s.compare(ctx, zones, dates)
}

// CompareRange is Compare over every date from first to last inclusive.
func (s *Service) CompareRange(ctx context.Context, first, last string) (*Comparison, error) {
	start, _, err := tracking.DayBounds(first)
	if err != nil {
		return nil, err
	}
	end, _, err := tracking.DayBounds(last)
	if err != nil {
		return nil, err
	}
	if days := int(end.Sub(start).Hours()/24) + 1; days > s.maxDays {
		return nil, fmt.Errorf("%w: %d days requested, limit is %d", ErrRangeTooLarge, days, s.maxDays)
	}
	dates, err := tracking.DateRange(first, last, s.maxDays)
	if err != nil {
		return nil, err
	}
	return s.Compare(ctx, dates)
}

// CompareForDate compares the zones applicable on date across every date
// any of them is applicable on. A zone with a malformed stored date is
// excluded and reported through OnReject.
func (s *Service) CompareForDate(ctx context.Context, date string) (cmp *Comparison, err error) {
	defer s.observe("compare", time.Now(), &err)

	if _, _, err := tracking.DayBounds(date); err != nil {
		return nil, err
	}
	zones, err := s.loadZones(ctx)
	if err != nil {
		return nil, err
	}

	var selected []geofence.Zone
	var dates []string
	for _, z := range zones {
		if !z.ActiveOn(date) {
			continue
		}
		zoneDates, err := geofence.NormalizeDates(z.ApplicableDates)
		if err != nil {
			s.engine.onReject(&ValidationError{Entity: "zone", ID: z.ID, Err: err})
			continue
		}
		selected = append(selected, z)
		dates = append(dates, zoneDates...)
	}

	dates, err = s.normaliseDates(dates)
	if err != nil {
		return nil, err
	}
	return s.compare(ctx, selected, dates)
}

// PublishDay classifies date and hands the JSON result to the publisher.
func (s *Service) PublishDay(ctx context.Context, date string) (*DayResult, error) {
	if s.publisher == nil {
		return nil, ErrPublishingDisabled
	}
	result, err := s.ClassifyDate(ctx, date)
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("encoding visits for %s: %w", date, err)
	}
	if err := s.publisher.PublishVisits(date, payload); err != nil {
		return nil, fmt.Errorf("publishing visits for %s: %w", date, err)
	}
	s.logger.Info("published visits", "date", date, "events", len(result.Events))
	return result, nil
}

// compare loads each date's fixes concurrently and pivots them.
func (s *Service) compare(ctx context.Context, zones []geofence.Zone, dates []string) (*Comparison, error) {
	fixesByDate, err := s.loadDays(ctx, dates)
	if err != nil {
		return nil, err
	}

	rows, err := s.engine.CompareAcrossDates(zones, fixesByDate, dates)
	if err != nil {
		return nil, err
	}

	out := &Comparison{Dates: Columns(rows), Rows: make([]CompareRow, 0, len(rows))}
	if out.Dates == nil {
		out.Dates = []string{}
	}
	for _, r := range rows {
		display := make(map[string][]DisplayCell, len(r.ByDate))
		for date, evs := range r.ByDate {
			display[date] = s.engine.DisplayCells(evs)
		}
		out.Rows = append(out.Rows, CompareRow{Row: r, Display: display})
	}

	s.logger.Debug("compared dates", "dates", len(dates), "rows", len(rows))
	return out, nil
}

// loadDays fetches the fixes of every date with bounded parallelism.
func (s *Service) loadDays(ctx context.Context, dates []string) (map[string][]tracking.Fix, error) {
	var mu sync.Mutex
	out := make(map[string][]tracking.Fix, len(dates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(dayLoadConcurrency)
	for _, date := range dates {
		g.Go(func() error {
			start, end, err := tracking.DayBounds(date)
			if err != nil {
				return err
			}
			fixes, err := s.fixes.ListDay(gctx, start, end)
			if err != nil {
				return fmt.Errorf("%w: loading fixes for %s: %v", ErrInputUnavailable, date, err)
			}
			mu.Lock()
			out[date] = fixes
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) loadZones(ctx context.Context) ([]geofence.Zone, error) {
	zones, err := s.zones.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: loading zones: %v", ErrInputUnavailable, err)
	}
	return zones, nil
}

// normaliseDates validates, sorts and deduplicates dates and enforces the cap.
func (s *Service) normaliseDates(dates []string) ([]string, error) {
	for _, d := range dates {
		if _, _, err := tracking.DayBounds(d); err != nil {
			return nil, err
		}
	}
	dates = slices.Clone(dates)
	slices.Sort(dates)
	dates = slices.Compact(dates)
	if len(dates) > s.maxDays {
		return nil, fmt.Errorf("%w: %d dates requested, limit is %d", ErrRangeTooLarge, len(dates), s.maxDays)
	}
	return dates, nil
}

func (s *Service) observe(kind string, started time.Time, err *error) {
	outcome := "ok"
	if *err != nil {
		outcome = "error"
	}
	metrics.ClassificationRunsTotal.WithLabelValues(kind, outcome).Inc()
	metrics.ClassificationDurationMs.WithLabelValues(kind).Observe(float64(time.Since(started).Microseconds()) / 1000)
}
