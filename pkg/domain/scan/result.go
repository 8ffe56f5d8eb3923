package scan

import (
	"time"

	"github.com/binsight/api/pkg/domain/shared"
)

// Result is one processing outcome: the estimated waste volume observed
// for a job, attributed to a zone. Results are append-only; they are
// never updated or deleted, and the zone status is always re-derived
// from their full sum.
type Result struct {
	ID          shared.ID
	JobID       shared.ID
	ZoneID      shared.ID
	ImageRef    string
	VolumeCm3   float64
	ProcessedAt time.Time

	// ZoneCode is populated on reads joined with the zone table, for
	// result listings. Not persisted on the result row itself.
	ZoneCode string `json:"zone_code,omitempty"`
}

// NewResult creates an immutable scan result.
func NewResult(jobID, zoneID shared.ID, imageRef string, volumeCm3 float64) (*Result, error) {
	if jobID.IsZero() || zoneID.IsZero() {
		return nil, shared.NewDomainError("VALIDATION", "job id and zone id are required", shared.ErrValidation)
	}
	if volumeCm3 < 0 {
		return nil, shared.NewDomainError("VALIDATION", "volume must be non-negative", shared.ErrValidation)
	}

	return &Result{
		ID:          shared.NewID(),
		JobID:       jobID,
		ZoneID:      zoneID,
		ImageRef:    imageRef,
		VolumeCm3:   volumeCm3,
		ProcessedAt: time.Now().UTC(),
	}, nil
}
