package tracking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Repository defines persistence operations for fixes.
type Repository interface {
	Insert(ctx context.Context, fix *Fix) error
	GetByID(ctx context.Context, id int64) (*Fix, error)
	ListDay(ctx context.Context, start, end time.Time) ([]Fix, error)
	ListPage(ctx context.Context, cursor int64, limit int) (*Page, error)
	StreamDay(ctx context.Context, start, end time.Time, batchSize int, fn func([]Fix) error) error
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed fix repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const fixColumns = `id, timestamp, latitude, longitude, altitude, altitude_accuracy, heading, speed,
	accuracy, mocked, battery_percentage, battery_charging, created_at`

// Insert validates and stores a fix, setting its ID and CreatedAt.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - fix: Fix to persist
//
// Returns:
//   - error: ErrInvalidFix on bad input, otherwise the underlying database error
func (r *SQLiteRepository) Insert(ctx context.Context, fix *Fix) error {
	if err := Validate(fix); err != nil {
		return err
	}

	var (
		batteryPercentage sql.NullFloat64
		batteryCharging   sql.NullBool
	)
	if fix.Battery != nil {
		batteryPercentage = sql.NullFloat64{Float64: fix.Battery.Percentage, Valid: true}
		batteryCharging = sql.NullBool{Bool: fix.Battery.Charging, Valid: true}
	}
	var altitudeAccuracy sql.NullFloat64
	if fix.AltitudeAccuracy != nil {
		altitudeAccuracy = sql.NullFloat64{Float64: *fix.AltitudeAccuracy, Valid: true}
	}

	now := time.Now().UTC().Truncate(time.Second)
	result, err := r.db.ExecContext(ctx, `INSERT INTO fixes (
			timestamp, latitude, longitude, altitude, altitude_accuracy, heading, speed,
			accuracy, mocked, battery_percentage, battery_charging, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		fix.Timestamp,
		fix.Latitude,
		fix.Longitude,
		fix.Altitude,
		altitudeAccuracy,
		fix.Heading,
		fix.Speed,
		fix.Accuracy,
		fix.Mocked,
		batteryPercentage,
		batteryCharging,
		now.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting fix: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading fix id: %w", err)
	}
	fix.ID = id
	fix.CreatedAt = now
	return nil
}

// GetByID retrieves a single fix.
func (r *SQLiteRepository) GetByID(ctx context.Context, id int64) (*Fix, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+fixColumns+` FROM fixes WHERE id = ?`, id)
	fix, err := scanFixRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrFixNotFound
		}
		return nil, err
	}
	return fix, nil
}

// ListDay returns fixes with timestamp in [start, end), oldest first.
// Equal timestamps are ordered by ID.
func (r *SQLiteRepository) ListDay(ctx context.Context, start, end time.Time) ([]Fix, error) {
	return r.queryFixes(ctx, `SELECT `+fixColumns+` FROM fixes
		WHERE timestamp >= ? AND timestamp < ?
		ORDER BY timestamp, id`,
		start.UnixMilli(), end.UnixMilli(),
	)
}

// ListPage returns up to limit fixes with id below cursor, newest first.
// A cursor of 0 starts from the newest fix.
func (r *SQLiteRepository) ListPage(ctx context.Context, cursor int64, limit int) (*Page, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: page limit must be positive", ErrInvalidFix)
	}

	var (
		fixes []Fix
		err   error
	)
	// Fetch one extra row to learn whether another page exists.
	if cursor > 0 {
		fixes, err = r.queryFixes(ctx, `SELECT `+fixColumns+` FROM fixes
			WHERE id < ? ORDER BY id DESC LIMIT ?`, cursor, limit+1)
	} else {
		fixes, err = r.queryFixes(ctx, `SELECT `+fixColumns+` FROM fixes
			ORDER BY id DESC LIMIT ?`, limit+1)
	}
	if err != nil {
		return nil, err
	}

	page := &Page{Fixes: fixes}
	if len(fixes) > limit {
		page.Fixes = fixes[:limit]
		page.NextCursor = page.Fixes[limit-1].ID
	}

	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM fixes").Scan(&page.Total); err != nil {
		return nil, fmt.Errorf("counting fixes: %w", err)
	}
	return page, nil
}

// StreamDay calls fn with successive batches of at most batchSize fixes
// from [start, end), oldest first. Iteration stops at the first error
// returned by fn or by the database.
func (r *SQLiteRepository) StreamDay(ctx context.Context, start, end time.Time, batchSize int, fn func([]Fix) error) error {
	if batchSize <= 0 {
		return fmt.Errorf("%w: batch size must be positive", ErrInvalidFix)
	}

	lastTimestamp := start.UnixMilli() - 1
	var lastID int64 = -1
	for {
		batch, err := r.queryFixes(ctx, `SELECT `+fixColumns+` FROM fixes
			WHERE timestamp < ? AND (timestamp > ? OR (timestamp = ? AND id > ?))
			ORDER BY timestamp, id
			LIMIT ?`,
			end.UnixMilli(), lastTimestamp, lastTimestamp, lastID, batchSize,
		)
		if err != nil {
			return err
		}
		if len(batch) == 0 {
			return nil
		}
		if err := fn(batch); err != nil {
			return err
		}
		if len(batch) < batchSize {
			return nil
		}
		last := batch[len(batch)-1]
		lastTimestamp, lastID = last.Timestamp, last.ID
	}
}

func (r *SQLiteRepository) queryFixes(ctx context.Context, query string, args ...any) ([]Fix, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying fixes: %w", err)
	}
	defer rows.Close()

	fixes := []Fix{}
	for rows.Next() {
		fix, err := scanFixRow(rows)
		if err != nil {
			return nil, err
		}
		fixes = append(fixes, *fix)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating fixes: %w", err)
	}
	return fixes, nil
}

// fixRowScanner is satisfied by *sql.Row and *sql.Rows.
type fixRowScanner interface {
	Scan(dest ...any) error
}

func scanFixRow(scanner fixRowScanner) (*Fix, error) {
	var (
		fix               Fix
		altitudeAccuracy  sql.NullFloat64
		batteryPercentage sql.NullFloat64
		batteryCharging   sql.NullBool
		createdAt         string
	)
	if err := scanner.Scan(
		&fix.ID,
		&fix.Timestamp,
		&fix.Latitude,
		&fix.Longitude,
		&fix.Altitude,
		&altitudeAccuracy,
		&fix.Heading,
		&fix.Speed,
		&fix.Accuracy,
		&fix.Mocked,
		&batteryPercentage,
		&batteryCharging,
		&createdAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning fix: %w", err)
	}

	if altitudeAccuracy.Valid {
		v := altitudeAccuracy.Float64
		fix.AltitudeAccuracy = &v
	}
	if batteryPercentage.Valid {
		fix.Battery = &Battery{
			Percentage: batteryPercentage.Float64,
			Charging:   batteryCharging.Bool,
		}
	}
	fix.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // Format is controlled

	return &fix, nil
}
