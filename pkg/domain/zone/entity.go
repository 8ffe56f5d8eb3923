// Package zone holds the zone domain model: polygonal campus sub-regions
// carrying a cumulative waste severity status.
package zone

import (
	"time"

	"github.com/binsight/api/pkg/domain/shared"
)

// Zone represents a polygonal sub-region of a campus. Boundaries are
// authored externally; this service reads them and mutates status fields
// as scan results accumulate.
type Zone struct {
	ID       shared.ID
	CampusID shared.ID
	Code     string
	Boundary Ring

	// Status fields, owned by the aggregator.
	Status        Status
	LastScore     float64
	LastScannedAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewZone creates a zone with a validated boundary and default status.
func NewZone(campusID shared.ID, code string, boundary Ring) (*Zone, error) {
	if campusID.IsZero() {
		return nil, shared.NewDomainError("VALIDATION", "campus id is required", shared.ErrValidation)
	}
	if code == "" {
		return nil, shared.NewDomainError("VALIDATION", "zone code is required", shared.ErrValidation)
	}
	if err := boundary.Validate(); err != nil {
		return nil, shared.NewDomainError("VALIDATION", err.Error(), shared.ErrValidation)
	}

	now := time.Now().UTC()
	return &Zone{
		ID:        shared.NewID(),
		CampusID:  campusID,
		Code:      code,
		Boundary:  boundary,
		Status:    StatusGreen,
		LastScore: 0,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Contains reports whether the given coordinates fall inside the zone.
func (z *Zone) Contains(lat, lon float64) bool {
	return z.Boundary.Contains(Point{Lon: lon, Lat: lat})
}
