// Package campus holds the campus domain model. Campuses are read-only
// from the scan pipeline's perspective: they exist to scope zones and
// queries.
package campus

import (
	"time"

	"github.com/binsight/api/pkg/domain/shared"
)

// Campus represents a monitored campus and its geographic center.
type Campus struct {
	ID        shared.ID
	Name      string
	City      string
	State     string
	CenterLat float64
	CenterLon float64
	CreatedAt time.Time
}

// NewCampus creates a campus.
func NewCampus(name, city, state string, centerLat, centerLon float64) (*Campus, error) {
	if name == "" {
		return nil, shared.NewDomainError("VALIDATION", "campus name is required", shared.ErrValidation)
	}
	return &Campus{
		ID:        shared.NewID(),
		Name:      name,
		City:      city,
		State:     state,
		CenterLat: centerLat,
		CenterLon: centerLon,
		CreatedAt: time.Now().UTC(),
	}, nil
}
