package geofence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Repository defines persistence operations for zones.
type Repository interface {
	Create(ctx context.Context, zone *Zone) error
	GetByID(ctx context.Context, id int64) (*Zone, error)
	List(ctx context.Context) ([]Zone, error)
	Update(ctx context.Context, zone *Zone) error
	Delete(ctx context.Context, id int64) error
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed zone repository.
//
// Example:
//
//	repo := geofence.NewSQLiteRepository(db.DB)
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const zoneColumns = `id, name, latitude, longitude, radius, sort_order, applicable_dates, created_at, updated_at`

// Create validates and inserts a zone, setting its ID and timestamps.
// Applicable dates are stored sorted and deduplicated.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - zone: Zone definition to persist
//
// Returns:
//   - error: ErrInvalidZone/ErrInvalidDate on bad input, otherwise the underlying database error
func (r *SQLiteRepository) Create(ctx context.Context, zone *Zone) error {
	if err := ValidateZone(zone); err != nil {
		return err
	}
	dates, err := NormalizeDates(zone.ApplicableDates)
	if err != nil {
		return err
	}
	datesJSON, err := marshalDates(dates)
	if err != nil {
		return err
	}

	now := time.Now().UTC().Truncate(time.Second)
	result, err := r.db.ExecContext(ctx, `INSERT INTO zones (
			name, latitude, longitude, radius, sort_order, applicable_dates, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		zone.Name,
		zone.Latitude,
		zone.Longitude,
		zone.Radius,
		zone.Order,
		datesJSON,
		now.Format(time.RFC3339),
		now.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting zone: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading zone id: %w", err)
	}

	zone.ID = id
	zone.ApplicableDates = dates
	zone.CreatedAt = now
	zone.UpdatedAt = now
	return nil
}

// GetByID retrieves a zone.
//
// Returns:
//   - *Zone: Zone when found
//   - error: ErrZoneNotFound if missing, otherwise the underlying query error
func (r *SQLiteRepository) GetByID(ctx context.Context, id int64) (*Zone, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+zoneColumns+` FROM zones WHERE id = ?`, id)
	zone, err := scanZoneRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrZoneNotFound
		}
		return nil, err
	}
	return zone, nil
}

// List returns every zone ordered by display order, then ID.
// Rows are returned as stored; callers needing only usable zones must
// check them with ValidateGeometry.
func (r *SQLiteRepository) List(ctx context.Context) ([]Zone, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+zoneColumns+` FROM zones ORDER BY sort_order, id`)
	if err != nil {
		return nil, fmt.Errorf("querying zones: %w", err)
	}
	defer rows.Close()

	zones := []Zone{}
	for rows.Next() {
		zone, err := scanZoneRow(rows)
		if err != nil {
			return nil, err
		}
		zones = append(zones, *zone)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating zones: %w", err)
	}
	return zones, nil
}

// Update replaces the editable fields of an existing zone.
//
// Returns:
//   - error: ErrZoneNotFound if missing, ErrInvalidZone on bad input, otherwise the database error
func (r *SQLiteRepository) Update(ctx context.Context, zone *Zone) error {
	if err := ValidateZone(zone); err != nil {
		return err
	}
	dates, err := NormalizeDates(zone.ApplicableDates)
	if err != nil {
		return err
	}
	datesJSON, err := marshalDates(dates)
	if err != nil {
		return err
	}

	now := time.Now().UTC().Truncate(time.Second)
	result, err := r.db.ExecContext(ctx, `UPDATE zones SET
			name = ?, latitude = ?, longitude = ?, radius = ?, sort_order = ?,
			applicable_dates = ?, updated_at = ?
		WHERE id = ?`,
		zone.Name,
		zone.Latitude,
		zone.Longitude,
		zone.Radius,
		zone.Order,
		datesJSON,
		now.Format(time.RFC3339),
		zone.ID,
	)
	if err != nil {
		return fmt.Errorf("updating zone: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrZoneNotFound
	}

	zone.ApplicableDates = dates
	zone.UpdatedAt = now
	return nil
}

// Delete removes a zone by ID.
//
// Returns:
//   - error: ErrZoneNotFound if missing, otherwise the underlying database error
func (r *SQLiteRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM zones WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting zone: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrZoneNotFound
	}
	return nil
}

// zoneRowScanner is satisfied by *sql.Row and *sql.Rows.
type zoneRowScanner interface {
	Scan(dest ...any) error
}

func scanZoneRow(scanner zoneRowScanner) (*Zone, error) {
	var (
		zone                 Zone
		datesJSON            string
		createdAt, updatedAt string
	)
	if err := scanner.Scan(
		&zone.ID,
		&zone.Name,
		&zone.Latitude,
		&zone.Longitude,
		&zone.Radius,
		&zone.Order,
		&datesJSON,
		&createdAt,
		&updatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning zone: %w", err)
	}

	zone.ApplicableDates = []string{}
	if datesJSON != "" {
		if err := json.Unmarshal([]byte(datesJSON), &zone.ApplicableDates); err != nil {
			return nil, fmt.Errorf("decoding applicable dates for zone %d: %w", zone.ID, err)
		}
	}
	zone.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // Format is controlled
	zone.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt) //nolint:errcheck // Format is controlled

	return &zone, nil
}

func marshalDates(dates []string) (string, error) {
	if dates == nil {
		dates = []string{}
	}
	data, err := json.Marshal(dates)
	if err != nil {
		return "", fmt.Errorf("encoding applicable dates: %w", err)
	}
	return string(data), nil
}
