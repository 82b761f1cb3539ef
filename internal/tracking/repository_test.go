package tracking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/nerrad567/tracker-core/internal/infrastructure/database"
	"github.com/nerrad567/tracker-core/migrations"
)

// setupTestRepo returns a repository over a migrated in-memory database.
func setupTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()

	db, err := database.Open(context.Background(), database.Config{Path: ":memory:"})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // Test cleanup

	if err := db.Migrate(context.Background(), migrations.FS); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return NewSQLiteRepository(db.DB)
}

// at returns milliseconds for a UTC wall-clock time on 2024-06-01.
func at(hour, minute int) int64 {
	return time.Date(2024, 6, 1, hour, minute, 0, 0, time.UTC).UnixMilli()
}

func insertFixes(t *testing.T, repo *SQLiteRepository, timestamps ...int64) []Fix {
	t.Helper()
	fixes := make([]Fix, 0, len(timestamps))
	for _, ts := range timestamps {
		f := Fix{Timestamp: ts, Latitude: 51.5007, Longitude: -0.1246}
		if err := repo.Insert(context.Background(), &f); err != nil {
			t.Fatalf("Insert() error = %v", err)
		}
		fixes = append(fixes, f)
	}
	return fixes
}

func TestSQLiteRepository_InsertAndGet(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	altAcc := 3.5
	fix := &Fix{
		Timestamp:        at(9, 0),
		Latitude:         51.5007,
		Longitude:        -0.1246,
		Altitude:         12,
		AltitudeAccuracy: &altAcc,
		Heading:          270,
		Speed:            1.4,
		Accuracy:         5,
		Battery:          &Battery{Percentage: 87, Charging: true},
	}
	if err := repo.Insert(ctx, fix); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if fix.ID == 0 {
		t.Fatal("Insert() did not set ID")
	}

	got, err := repo.GetByID(ctx, fix.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Timestamp != fix.Timestamp {
		t.Errorf("Timestamp = %d, want %d", got.Timestamp, fix.Timestamp)
	}
	if got.Battery == nil || got.Battery.Percentage != 87 || !got.Battery.Charging {
		t.Errorf("Battery = %+v, want 87%% charging", got.Battery)
	}
	if got.AltitudeAccuracy == nil || *got.AltitudeAccuracy != 3.5 {
		t.Errorf("AltitudeAccuracy = %v, want 3.5", got.AltitudeAccuracy)
	}
	if got.Date() != "2024-06-01" {
		t.Errorf("Date() = %q, want 2024-06-01", got.Date())
	}
}

func TestSQLiteRepository_InsertWithoutBattery(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	fix := &Fix{Timestamp: at(9, 0), Latitude: 1, Longitude: 1}
	if err := repo.Insert(ctx, fix); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	got, err := repo.GetByID(ctx, fix.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Battery != nil {
		t.Errorf("Battery = %+v, want nil", got.Battery)
	}
	if got.AltitudeAccuracy != nil {
		t.Errorf("AltitudeAccuracy = %v, want nil", *got.AltitudeAccuracy)
	}
}

func TestSQLiteRepository_InsertRejectsInvalid(t *testing.T) {
	repo := setupTestRepo(t)

	err := repo.Insert(context.Background(), &Fix{Timestamp: at(9, 0), Latitude: 95})
	if !errors.Is(err, ErrInvalidFix) {
		t.Errorf("Insert() error = %v, want ErrInvalidFix", err)
	}
}

func TestSQLiteRepository_GetByIDNotFound(t *testing.T) {
	repo := setupTestRepo(t)

	if _, err := repo.GetByID(context.Background(), 99); !errors.Is(err, ErrFixNotFound) {
		t.Errorf("GetByID() error = %v, want ErrFixNotFound", err)
	}
}

func TestSQLiteRepository_ListDay(t *testing.T) {
	repo := setupTestRepo(t)

	midnight := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC).UnixMilli()
	nextMidnight := time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC).UnixMilli()
	insertFixes(t, repo,
		midnight-1,   // previous day
		at(9, 5),     // out of insertion order
		midnight,     // first instant of the day
		at(9, 0),
		nextMidnight, // excluded upper bound
	)

	start, end, err := DayBounds("2024-06-01")
	if err != nil {
		t.Fatalf("DayBounds() error = %v", err)
	}
	fixes, err := repo.ListDay(context.Background(), start, end)
	if err != nil {
		t.Fatalf("ListDay() error = %v", err)
	}

	want := []int64{midnight, at(9, 0), at(9, 5)}
	if len(fixes) != len(want) {
		t.Fatalf("ListDay() returned %d fixes, want %d", len(fixes), len(want))
	}
	for i, f := range fixes {
		if f.Timestamp != want[i] {
			t.Errorf("fixes[%d].Timestamp = %d, want %d", i, f.Timestamp, want[i])
		}
	}
}

func TestSQLiteRepository_ListPage(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	inserted := insertFixes(t, repo, at(9, 0), at(9, 1), at(9, 2), at(9, 3), at(9, 4))

	first, err := repo.ListPage(ctx, 0, 2)
	if err != nil {
		t.Fatalf("ListPage() error = %v", err)
	}
	if first.Total != 5 {
		t.Errorf("Total = %d, want 5", first.Total)
	}
	if len(first.Fixes) != 2 || first.Fixes[0].ID != inserted[4].ID || first.Fixes[1].ID != inserted[3].ID {
		t.Fatalf("first page = %+v, want the two newest fixes", first.Fixes)
	}
	if first.NextCursor != inserted[3].ID {
		t.Errorf("NextCursor = %d, want %d", first.NextCursor, inserted[3].ID)
	}

	second, err := repo.ListPage(ctx, first.NextCursor, 2)
	if err != nil {
		t.Fatalf("ListPage() error = %v", err)
	}
	if len(second.Fixes) != 2 || second.Fixes[0].ID != inserted[2].ID {
		t.Fatalf("second page = %+v", second.Fixes)
	}

	last, err := repo.ListPage(ctx, second.NextCursor, 2)
	if err != nil {
		t.Fatalf("ListPage() error = %v", err)
	}
	if len(last.Fixes) != 1 || last.Fixes[0].ID != inserted[0].ID {
		t.Fatalf("last page = %+v", last.Fixes)
	}
	if last.NextCursor != 0 {
		t.Errorf("NextCursor = %d, want 0 on the last page", last.NextCursor)
	}
}

func TestSQLiteRepository_StreamDay(t *testing.T) {
	repo := setupTestRepo(t)

	// Two fixes share a timestamp to exercise the (timestamp, id) keyset.
	insertFixes(t, repo, at(9, 0), at(9, 1), at(9, 1), at(9, 2), at(9, 3))
	start, end, _ := DayBounds("2024-06-01") //nolint:errcheck // Constant date

	var (
		batches int
		seen    []int64
	)
	err := repo.StreamDay(context.Background(), start, end, 2, func(batch []Fix) error {
		batches++
		for _, f := range batch {
			seen = append(seen, f.ID)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("StreamDay() error = %v", err)
	}
	if batches != 3 {
		t.Errorf("batches = %d, want 3", batches)
	}
	if len(seen) != 5 {
		t.Fatalf("streamed %d fixes, want 5", len(seen))
	}
	for i := 1; i < len(seen); i++ {
		if seen[i] <= seen[i-1] {
			t.Errorf("fix %d streamed after %d; want ascending", seen[i], seen[i-1])
		}
	}
}

func TestSQLiteRepository_StreamDayStopsOnCallbackError(t *testing.T) {
	repo := setupTestRepo(t)
	insertFixes(t, repo, at(9, 0), at(9, 1), at(9, 2))
	start, end, _ := DayBounds("2024-06-01") //nolint:errcheck // Constant date

	errStop := errors.New("client went away")
	calls := 0
	err := repo.StreamDay(context.Background(), start, end, 1, func([]Fix) error {
		calls++
		return errStop
	})
	if !errors.Is(err, errStop) {
		t.Errorf("StreamDay() error = %v, want %v", err, errStop)
	}
	if calls != 1 {
		t.Errorf("callback called %d times, want 1", calls)
	}
}

func TestSQLiteRepository_ListDayQueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(`SELECT (.+) FROM fixes`).WillReturnError(sqlmock.ErrCancelled)

	repo := NewSQLiteRepository(db)
	start, end, _ := DayBounds("2024-06-01") //nolint:errcheck // Constant date
	if _, err := repo.ListDay(context.Background(), start, end); !errors.Is(err, sqlmock.ErrCancelled) {
		t.Errorf("ListDay() error = %v, want wrapped ErrCancelled", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestSQLiteRepository_InsertExecError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = db.Close() }()

	mock.ExpectExec(`INSERT INTO fixes`).WillReturnError(sqlmock.ErrCancelled)

	repo := NewSQLiteRepository(db)
	err = repo.Insert(context.Background(), &Fix{Timestamp: at(9, 0), Latitude: 1, Longitude: 1})
	if err == nil {
		t.Fatal("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestSQLiteRepository_ListPageCountError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(`SELECT (.+) FROM fixes ORDER BY id DESC LIMIT`).
		WithArgs(51).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM fixes`).WillReturnError(sqlmock.ErrCancelled)

	repo := NewSQLiteRepository(db)
	if _, err := repo.ListPage(context.Background(), 0, 50); !errors.Is(err, sqlmock.ErrCancelled) {
		t.Errorf("ListPage() error = %v, want wrapped ErrCancelled", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}
