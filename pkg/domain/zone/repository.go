package zone

import (
	"context"

	"github.com/binsight/api/pkg/domain/shared"
)

// Repository defines the interface for zone persistence.
type Repository interface {
	// Create persists a new zone.
	Create(ctx context.Context, z *Zone) error

	// GetByID retrieves a zone by ID.
	GetByID(ctx context.Context, id shared.ID) (*Zone, error)

	// ListByCampus returns all zones of a campus, ordered by ID
	// ascending. The ordering is part of the contract: the geometry
	// resolver relies on it for a deterministic tie-break when a point
	// sits on a shared boundary.
	ListByCampus(ctx context.Context, campusID shared.ID) ([]*Zone, error)

	// RecomputeStatus re-derives the zone's status from the full sum of
	// its recorded result volumes and writes status, score, and scan
	// timestamp in a single transaction scoped to the zone row. It
	// returns the updated zone. Safe to call redundantly: the write is
	// a pure function of the stored result set.
	RecomputeStatus(ctx context.Context, id shared.ID) (*Zone, error)

	// ListIDs returns the IDs of all zones, for full recompute sweeps.
	ListIDs(ctx context.Context) ([]shared.ID, error)
}
