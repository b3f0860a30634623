package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/ghost-atlas/internal/model"
	"github.com/sakif/ghost-atlas/internal/repository"
)

// COMPILE-TIME INTERFACE CHECK:
// `var _ X = (*Y)(nil)` assigns a nil *Y to a variable of interface type X.
// If *Y doesn't implement X, the compiler errors immediately instead of at
// the first call site that passes *DB as a SightingRepository.
var _ repository.SightingRepository = (*DB)(nil)

const sightingColumns = `id, date_of_sighting, latitude, longitude, city, state,
	notes, time_of_day, apparition_tag, image_link, created_at, updated_at`

// Create inserts a single sighting report.
//
// ID GENERATION WITH xid:
// xid generates 20-char URL-safe IDs that sort by creation time (they
// start with a timestamp). The caller's record is modified in place —
// after Create() it carries the generated ID and server timestamps,
// which is exactly what the API returns to the submitter.
//
// The optional fields are *string: passing a nil pointer to ExecContext
// stores SQL NULL, so the null-coercion done in the service layer flows
// straight through to the table.
func (db *DB) Create(ctx context.Context, s *model.SightingRecord) error {
	s.ID = xid.New().String()
	now := time.Now().UTC()
	s.CreatedAt = now
	s.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO ghost_sightings (`+sightingColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID,
		s.DateOfSighting,
		s.Latitude,
		s.Longitude,
		s.City,
		s.State,
		s.Notes,
		s.TimeOfDay,
		s.ApparitionTag,
		s.ImageLink,
		s.CreatedAt,
		s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating sighting: %w", err)
	}

	return nil
}

// List returns sightings ordered by sighting date descending.
//
// opts.State filters by exact match — NULL states never equal a non-empty
// filter value, so unlocated reports drop out of filtered queries, which
// is the documented behavior. opts.Limit caps the row count when > 0.
func (db *DB) List(ctx context.Context, opts repository.ListOptions) ([]model.SightingRecord, error) {
	query := `SELECT ` + sightingColumns + ` FROM ghost_sightings`
	args := []any{}

	if opts.State != "" {
		query += ` WHERE state = ?`
		args = append(args, opts.State)
	}

	query += ` ORDER BY date_of_sighting DESC`

	if opts.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, opts.Limit)
	}

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing sightings: %w", err)
	}
	// rows MUST be closed, or the connection leaks back into the pool locked.
	defer rows.Close()

	sightings := []model.SightingRecord{}
	for rows.Next() {
		s, err := scanSighting(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning sighting row: %w", err)
		}
		sightings = append(sightings, s)
	}

	// rows.Err() reports errors that ended iteration early (e.g. a
	// connection dropping mid-scan) — rows.Next() just returns false.
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating sightings: %w", err)
	}

	return sightings, nil
}

// CreateBatch inserts many sightings in one transaction.
//
// Used by the CSV importer. One transaction per batch matters for SQLite:
// each standalone INSERT is its own fsync, so inserting 12,000 historical
// rows row-by-row takes minutes, while one transaction per 1000-row batch
// takes seconds. Returns the number of rows inserted; on error the whole
// batch rolls back (none of it is inserted).
func (db *DB) CreateBatch(ctx context.Context, recs []model.SightingRecord) (int, error) {
	if len(recs) == 0 {
		return 0, nil
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("sqlite: beginning batch transaction: %w", err)
	}
	// Rollback is a no-op after Commit — safe to defer unconditionally.
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO ghost_sightings (`+sightingColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("sqlite: preparing batch insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for i := range recs {
		s := &recs[i]
		s.ID = xid.New().String()
		s.CreatedAt = now
		s.UpdatedAt = now

		if _, err := stmt.ExecContext(ctx,
			s.ID, s.DateOfSighting, s.Latitude, s.Longitude,
			s.City, s.State, s.Notes, s.TimeOfDay, s.ApparitionTag,
			s.ImageLink, s.CreatedAt, s.UpdatedAt,
		); err != nil {
			return 0, fmt.Errorf("sqlite: batch insert row %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("sqlite: committing batch: %w", err)
	}

	return len(recs), nil
}

// Count returns the total number of sighting rows.
func (db *DB) Count(ctx context.Context) (int, error) {
	var n int
	if err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM ghost_sightings`).Scan(&n); err != nil {
		return 0, fmt.Errorf("sqlite: counting sightings: %w", err)
	}
	return n, nil
}

// scanSighting reads one row into a record, converting SQL NULLs in the
// optional columns into nil pointers via sql.NullString.
func scanSighting(rows *sql.Rows) (model.SightingRecord, error) {
	var s model.SightingRecord
	var city, state, notes, timeOfDay, tag, imageLink sql.NullString

	err := rows.Scan(
		&s.ID,
		&s.DateOfSighting,
		&s.Latitude,
		&s.Longitude,
		&city,
		&state,
		&notes,
		&timeOfDay,
		&tag,
		&imageLink,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return model.SightingRecord{}, err
	}

	s.City = fromNull(city)
	s.State = fromNull(state)
	s.Notes = fromNull(notes)
	s.TimeOfDay = fromNull(timeOfDay)
	s.ApparitionTag = fromNull(tag)
	s.ImageLink = fromNull(imageLink)

	return s, nil
}

func fromNull(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}
