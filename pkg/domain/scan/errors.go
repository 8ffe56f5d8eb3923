package scan

import "github.com/binsight/api/pkg/domain/shared"

// Domain errors for scan jobs and results.
var (
	// ErrJobNotFound indicates the requested job does not exist.
	ErrJobNotFound = shared.NewDomainError("JOB_NOT_FOUND", "scan job not found", shared.ErrNotFound)

	// ErrResultNotFound indicates a job has no recorded result yet.
	ErrResultNotFound = shared.NewDomainError("RESULT_NOT_FOUND", "no result recorded for job", shared.ErrNotFound)

	// ErrJobAlreadyCompleted rejects a second result for a job that has
	// already completed. This is the deduplication guard against
	// at-least-once task redelivery double-counting volume.
	ErrJobAlreadyCompleted = shared.NewDomainError("JOB_ALREADY_COMPLETED", "scan job already has a recorded result", shared.ErrConflict)

	// ErrJobTerminal indicates a state transition was attempted on a
	// job already in a terminal state.
	ErrJobTerminal = shared.NewDomainError("JOB_TERMINAL", "scan job is in a terminal state", shared.ErrConflict)
)
