package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/binsight/api/pkg/domain/shared"
	"github.com/binsight/api/pkg/domain/zone"
)

// ZoneRepository implements zone.Repository using PostgreSQL.
type ZoneRepository struct {
	db *DB
}

// NewZoneRepository creates a new ZoneRepository.
func NewZoneRepository(db *DB) *ZoneRepository {
	return &ZoneRepository{db: db}
}

const zoneColumns = `id, campus_id, code, boundary, status, last_score, last_scanned_at, created_at, updated_at`

// Create persists a new zone.
func (r *ZoneRepository) Create(ctx context.Context, z *zone.Zone) error {
	boundary, err := json.Marshal(z.Boundary)
	if err != nil {
		return fmt.Errorf("failed to marshal boundary: %w", err)
	}

	query := `
		INSERT INTO zones (` + zoneColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err = r.db.ExecContext(ctx, query,
		z.ID, z.CampusID, z.Code, boundary,
		string(z.Status), z.LastScore, nullTime(z.LastScannedAt),
		z.CreatedAt, z.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return shared.NewDomainError("ALREADY_EXISTS", "zone with this code already exists on the campus", shared.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create zone: %w", err)
	}
	return nil
}

// GetByID retrieves a zone by ID.
func (r *ZoneRepository) GetByID(ctx context.Context, id shared.ID) (*zone.Zone, error) {
	query := `SELECT ` + zoneColumns + ` FROM zones WHERE id = $1`
	return r.scanZone(r.db.QueryRowContext(ctx, query, id))
}

// ListByCampus returns all zones of a campus ordered by ID ascending.
// The ordering gives the geometry resolver a deterministic winner when a
// point lies on a boundary shared by two zones.
func (r *ZoneRepository) ListByCampus(ctx context.Context, campusID shared.ID) ([]*zone.Zone, error) {
	query := `SELECT ` + zoneColumns + ` FROM zones WHERE campus_id = $1 ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, campusID)
	if err != nil {
		return nil, fmt.Errorf("failed to list zones: %w", err)
	}
	defer rows.Close()

	var zones []*zone.Zone
	for rows.Next() {
		z, err := r.scanZoneRows(rows)
		if err != nil {
			return nil, err
		}
		zones = append(zones, z)
	}
	return zones, rows.Err()
}

// ListIDs returns the IDs of all zones.
func (r *ZoneRepository) ListIDs(ctx context.Context) ([]shared.ID, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM zones ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list zone ids: %w", err)
	}
	defer rows.Close()

	var ids []shared.ID
	for rows.Next() {
		var id shared.ID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan zone id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// RecomputeStatus re-derives the zone status from the full sum of its
// recorded result volumes inside a single transaction. The zone row is
// locked for the read-sum-write so two concurrent recomputes cannot race
// a stale score onto the row.
func (r *ZoneRepository) RecomputeStatus(ctx context.Context, id shared.ID) (*zone.Zone, error) {
	var updated *zone.Zone
	err := withConflictRetry(3, func() error {
		return r.db.Transaction(ctx, func(tx *sql.Tx) error {
			var err error
			updated, err = recomputeZoneStatusTx(ctx, tx, id)
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// recomputeZoneStatusTx performs the aggregation inside an existing
// transaction. Shared with the scan repository's RecordResult so a
// result insert and the status it implies commit atomically.
func recomputeZoneStatusTx(ctx context.Context, tx *sql.Tx, id shared.ID) (*zone.Zone, error) {
	// Lock the zone row first; result inserts only ever append, so the
	// sum read below is stable for the duration of the transaction.
	var boundary []byte
	z := &zone.Zone{}
	var lastScanned sql.NullTime
	err := tx.QueryRowContext(ctx, `
		SELECT `+zoneColumns+` FROM zones WHERE id = $1 FOR UPDATE
	`, id).Scan(
		&z.ID, &z.CampusID, &z.Code, &boundary,
		(*string)(&z.Status), &z.LastScore, &lastScanned,
		&z.CreatedAt, &z.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, zone.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock zone: %w", err)
	}
	if err := json.Unmarshal(boundary, &z.Boundary); err != nil {
		return nil, fmt.Errorf("failed to unmarshal boundary: %w", err)
	}

	var sum float64
	err = tx.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(volume_cm3), 0) FROM scan_results WHERE zone_id = $1
	`, id).Scan(&sum)
	if err != nil {
		return nil, fmt.Errorf("failed to sum zone results: %w", err)
	}

	now := time.Now().UTC()
	status := zone.Classify(sum)
	_, err = tx.ExecContext(ctx, `
		UPDATE zones SET status = $2, last_score = $3, last_scanned_at = $4, updated_at = $4
		WHERE id = $1
	`, id, string(status), sum, now)
	if err != nil {
		return nil, fmt.Errorf("failed to update zone status: %w", err)
	}

	z.Status = status
	z.LastScore = sum
	z.LastScannedAt = &now
	z.UpdatedAt = now
	return z, nil
}

func (r *ZoneRepository) scanZone(row *sql.Row) (*zone.Zone, error) {
	var boundary []byte
	var lastScanned sql.NullTime
	z := &zone.Zone{}
	err := row.Scan(
		&z.ID, &z.CampusID, &z.Code, &boundary,
		(*string)(&z.Status), &z.LastScore, &lastScanned,
		&z.CreatedAt, &z.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, zone.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan zone: %w", err)
	}
	if err := json.Unmarshal(boundary, &z.Boundary); err != nil {
		return nil, fmt.Errorf("failed to unmarshal boundary: %w", err)
	}
	z.LastScannedAt = nullTimeValue(lastScanned)
	return z, nil
}

func (r *ZoneRepository) scanZoneRows(rows *sql.Rows) (*zone.Zone, error) {
	var boundary []byte
	var lastScanned sql.NullTime
	z := &zone.Zone{}
	err := rows.Scan(
		&z.ID, &z.CampusID, &z.Code, &boundary,
		(*string)(&z.Status), &z.LastScore, &lastScanned,
		&z.CreatedAt, &z.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan zone: %w", err)
	}
	if err := json.Unmarshal(boundary, &z.Boundary); err != nil {
		return nil, fmt.Errorf("failed to unmarshal boundary: %w", err)
	}
	z.LastScannedAt = nullTimeValue(lastScanned)
	return z, nil
}
