// Package scan holds the scan-pipeline domain model: jobs representing a
// submitted image awaiting processing, and the immutable results the
// workers record against zones.
package scan

import (
	"time"

	"github.com/binsight/api/pkg/domain/shared"
)

// State is the lifecycle state of a scan job.
type State string

// Job lifecycle states.
const (
	StatePending    State = "pending"
	StateProcessing State = "processing"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
)

// IsValid checks if the state is a known value.
func (s State) IsValid() bool {
	switch s {
	case StatePending, StateProcessing, StateCompleted, StateFailed:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether the state admits no further transitions.
func (s State) IsTerminal() bool {
	return s == StateCompleted || s == StateFailed
}

// Job represents one submitted image awaiting asynchronous processing.
// The submission parameters (image reference and coordinates) are
// persisted alongside the lifecycle so stale jobs can be re-dispatched.
type Job struct {
	ID       shared.ID
	UserID   shared.ID
	CampusID shared.ID

	ImageRef  string
	Latitude  float64
	Longitude float64

	State       State
	FailReason  string
	CreatedAt   time.Time
	CompletedAt *time.Time
}

// NewJob creates a pending job for a submitted image.
func NewJob(userID, campusID shared.ID, imageRef string, lat, lon float64) (*Job, error) {
	if userID.IsZero() {
		return nil, shared.NewDomainError("VALIDATION", "user id is required", shared.ErrValidation)
	}
	if campusID.IsZero() {
		return nil, shared.NewDomainError("VALIDATION", "campus id is required", shared.ErrValidation)
	}
	if imageRef == "" {
		return nil, shared.NewDomainError("VALIDATION", "image reference is required", shared.ErrValidation)
	}

	return &Job{
		ID:        shared.NewID(),
		UserID:    userID,
		CampusID:  campusID,
		ImageRef:  imageRef,
		Latitude:  lat,
		Longitude: lon,
		State:     StatePending,
		CreatedAt: time.Now().UTC(),
	}, nil
}
