package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/binsight/api/pkg/domain/scan"
	"github.com/binsight/api/pkg/domain/shared"
)

// ScanRepository implements scan.Repository using PostgreSQL.
type ScanRepository struct {
	db *DB
}

// NewScanRepository creates a new ScanRepository.
func NewScanRepository(db *DB) *ScanRepository {
	return &ScanRepository{db: db}
}

const jobColumns = `id, user_id, campus_id, image_ref, latitude, longitude, state, fail_reason, created_at, completed_at`

// CreateJob persists a new job.
func (r *ScanRepository) CreateJob(ctx context.Context, j *scan.Job) error {
	query := `
		INSERT INTO scan_jobs (` + jobColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.db.ExecContext(ctx, query,
		j.ID, j.UserID, j.CampusID, j.ImageRef, j.Latitude, j.Longitude,
		string(j.State), nullString(j.FailReason), j.CreatedAt, nullTime(j.CompletedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create scan job: %w", err)
	}
	return nil
}

// GetJob retrieves a job by ID.
func (r *ScanRepository) GetJob(ctx context.Context, id shared.ID) (*scan.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM scan_jobs WHERE id = $1`
	j := &scan.Job{}
	var failReason sql.NullString
	var completedAt sql.NullTime
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&j.ID, &j.UserID, &j.CampusID, &j.ImageRef, &j.Latitude, &j.Longitude,
		(*string)(&j.State), &failReason, &j.CreatedAt, &completedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, scan.ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get scan job: %w", err)
	}
	j.FailReason = nullStringValue(failReason)
	j.CompletedAt = nullTimeValue(completedAt)
	return j, nil
}

// GetJobResult returns the recorded result for a job.
func (r *ScanRepository) GetJobResult(ctx context.Context, jobID shared.ID) (*scan.Result, error) {
	query := `
		SELECT r.id, r.job_id, r.zone_id, r.image_ref, r.volume_cm3, r.processed_at, z.code
		FROM scan_results r
		JOIN zones z ON z.id = r.zone_id
		WHERE r.job_id = $1
	`
	res := &scan.Result{}
	err := r.db.QueryRowContext(ctx, query, jobID).Scan(
		&res.ID, &res.JobID, &res.ZoneID, &res.ImageRef, &res.VolumeCm3, &res.ProcessedAt, &res.ZoneCode,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, scan.ErrResultNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get scan result: %w", err)
	}
	return res, nil
}

// MarkJobProcessing transitions a job from pending to processing.
// A job already in a terminal state returns ErrJobTerminal, which lets a
// redelivered task stop without reprocessing.
func (r *ScanRepository) MarkJobProcessing(ctx context.Context, id shared.ID) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE scan_jobs SET state = $2
		WHERE id = $1 AND state IN ($3, $4)
	`, id, string(scan.StateProcessing), string(scan.StatePending), string(scan.StateProcessing))
	if err != nil {
		return fmt.Errorf("failed to mark job processing: %w", err)
	}
	return r.checkTransition(ctx, res, id)
}

// MarkJobCompleted transitions a job to completed without a result.
func (r *ScanRepository) MarkJobCompleted(ctx context.Context, id shared.ID) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE scan_jobs SET state = $2, completed_at = $3
		WHERE id = $1 AND state NOT IN ($4, $5)
	`, id, string(scan.StateCompleted), time.Now().UTC(),
		string(scan.StateCompleted), string(scan.StateFailed))
	if err != nil {
		return fmt.Errorf("failed to mark job completed: %w", err)
	}
	return r.checkTransition(ctx, res, id)
}

// MarkJobFailed transitions a job to failed with a reason.
func (r *ScanRepository) MarkJobFailed(ctx context.Context, id shared.ID, reason string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE scan_jobs SET state = $2, fail_reason = $3, completed_at = $4
		WHERE id = $1 AND state NOT IN ($5, $6)
	`, id, string(scan.StateFailed), nullString(reason), time.Now().UTC(),
		string(scan.StateCompleted), string(scan.StateFailed))
	if err != nil {
		return fmt.Errorf("failed to mark job failed: %w", err)
	}
	return r.checkTransition(ctx, res, id)
}

func (r *ScanRepository) checkTransition(ctx context.Context, res sql.Result, id shared.ID) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 1 {
		return nil
	}
	// Distinguish a missing job from one already in a terminal state.
	if _, err := r.GetJob(ctx, id); err != nil {
		return err
	}
	return scan.ErrJobTerminal
}

// RecordResult runs the recorder's single logical transaction: insert
// the immutable result row, mark the job completed, and recompute the
// zone's status from the full sum of its results. The job row is locked
// first, so a redelivered task for an already-completed job fails with
// ErrJobAlreadyCompleted before writing anything.
func (r *ScanRepository) RecordResult(ctx context.Context, result *scan.Result) (*scan.RecordOutcome, error) {
	var outcome *scan.RecordOutcome
	err := withConflictRetry(3, func() error {
		return r.recordResultTx(ctx, result, &outcome)
	})
	if err != nil {
		return nil, err
	}
	return outcome, nil
}

func (r *ScanRepository) recordResultTx(ctx context.Context, result *scan.Result, outcome **scan.RecordOutcome) error {
	return r.db.Transaction(ctx, func(tx *sql.Tx) error {
		var state string
		err := tx.QueryRowContext(ctx, `
			SELECT state FROM scan_jobs WHERE id = $1 FOR UPDATE
		`, result.JobID).Scan(&state)
		if errors.Is(err, sql.ErrNoRows) {
			return scan.ErrJobNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to lock scan job: %w", err)
		}
		if scan.State(state) == scan.StateCompleted {
			return scan.ErrJobAlreadyCompleted
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO scan_results (id, job_id, zone_id, image_ref, volume_cm3, processed_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, result.ID, result.JobID, result.ZoneID, result.ImageRef, result.VolumeCm3, result.ProcessedAt)
		if err != nil {
			return fmt.Errorf("failed to insert scan result: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE scan_jobs SET state = $2, completed_at = $3 WHERE id = $1
		`, result.JobID, string(scan.StateCompleted), result.ProcessedAt)
		if err != nil {
			return fmt.Errorf("failed to complete scan job: %w", err)
		}

		z, err := recomputeZoneStatusTx(ctx, tx, result.ZoneID)
		if err != nil {
			return err
		}

		*outcome = &scan.RecordOutcome{
			Result:     result,
			ZoneScore:  z.LastScore,
			ZoneStatus: string(z.Status),
		}
		return nil
	})
}

// SumVolumeByZone returns the sum of all recorded volumes for a zone.
func (r *ScanRepository) SumVolumeByZone(ctx context.Context, zoneID shared.ID) (float64, error) {
	var sum float64
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(volume_cm3), 0) FROM scan_results WHERE zone_id = $1
	`, zoneID).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("failed to sum zone results: %w", err)
	}
	return sum, nil
}

// ListResultsByCampus returns the most recent results for a campus.
func (r *ScanRepository) ListResultsByCampus(ctx context.Context, campusID shared.ID, limit int) ([]*scan.Result, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT r.id, r.job_id, r.zone_id, r.image_ref, r.volume_cm3, r.processed_at, z.code
		FROM scan_results r
		JOIN zones z ON z.id = r.zone_id
		WHERE z.campus_id = $1
		ORDER BY r.processed_at DESC
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, campusID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list scan results: %w", err)
	}
	defer rows.Close()

	var results []*scan.Result
	for rows.Next() {
		res := &scan.Result{}
		if err := rows.Scan(&res.ID, &res.JobID, &res.ZoneID, &res.ImageRef, &res.VolumeCm3, &res.ProcessedAt, &res.ZoneCode); err != nil {
			return nil, fmt.Errorf("failed to scan result row: %w", err)
		}
		results = append(results, res)
	}
	return results, rows.Err()
}

// ListStaleJobs returns jobs in the given state created before cutoff.
func (r *ScanRepository) ListStaleJobs(ctx context.Context, state scan.State, cutoff time.Time, limit int) ([]*scan.Job, error) {
	query := `
		SELECT ` + jobColumns + ` FROM scan_jobs
		WHERE state = $1 AND created_at < $2
		ORDER BY created_at
		LIMIT $3
	`
	rows, err := r.db.QueryContext(ctx, query, string(state), cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list stale jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*scan.Job
	for rows.Next() {
		j := &scan.Job{}
		var failReason sql.NullString
		var completedAt sql.NullTime
		if err := rows.Scan(
			&j.ID, &j.UserID, &j.CampusID, &j.ImageRef, &j.Latitude, &j.Longitude,
			(*string)(&j.State), &failReason, &j.CreatedAt, &completedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan job row: %w", err)
		}
		j.FailReason = nullStringValue(failReason)
		j.CompletedAt = nullTimeValue(completedAt)
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}
