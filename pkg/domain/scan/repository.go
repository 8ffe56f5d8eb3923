package scan

import (
	"context"
	"time"

	"github.com/binsight/api/pkg/domain/shared"
)

// RecordOutcome is what a transactional RecordResult returns: the result
// row as persisted plus the zone aggregate it produced.
type RecordOutcome struct {
	Result     *Result
	ZoneScore  float64
	ZoneStatus string
}

// Repository defines the interface for scan job and result persistence.
type Repository interface {
	// CreateJob persists a new job in state pending.
	CreateJob(ctx context.Context, j *Job) error

	// GetJob retrieves a job by ID.
	GetJob(ctx context.Context, id shared.ID) (*Job, error)

	// GetJobResult returns the recorded result for a job, or
	// ErrResultNotFound if none exists.
	GetJobResult(ctx context.Context, jobID shared.ID) (*Result, error)

	// MarkJobProcessing transitions a job from pending to processing.
	// Returns ErrJobTerminal if the job has already finished, which a
	// redelivered task uses to stop without reprocessing.
	MarkJobProcessing(ctx context.Context, id shared.ID) error

	// MarkJobCompleted transitions a job to completed without a result
	// (the zone-not-found outcome).
	MarkJobCompleted(ctx context.Context, id shared.ID) error

	// MarkJobFailed transitions a job to failed with a reason.
	MarkJobFailed(ctx context.Context, id shared.ID, reason string) error

	// RecordResult runs the single logical transaction of the recorder:
	// insert the result, mark the job completed, recompute the zone's
	// status from the full sum, and write it onto the zone row. Returns
	// ErrJobAlreadyCompleted if the job already holds a result.
	RecordResult(ctx context.Context, r *Result) (*RecordOutcome, error)

	// SumVolumeByZone returns the sum of all recorded volumes for a
	// zone. Zones with no results sum to zero.
	SumVolumeByZone(ctx context.Context, zoneID shared.ID) (float64, error)

	// ListResultsByCampus returns the most recent results for a campus,
	// newest first, joined with their zone codes.
	ListResultsByCampus(ctx context.Context, campusID shared.ID, limit int) ([]*Result, error)

	// ListStaleJobs returns jobs still in the given state that were
	// created before the cutoff, for the reconciliation sweep.
	ListStaleJobs(ctx context.Context, state State, cutoff time.Time, limit int) ([]*Job, error)
}
