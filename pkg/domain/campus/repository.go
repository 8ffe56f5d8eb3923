package campus

import (
	"context"

	"github.com/binsight/api/pkg/domain/shared"
)

// ErrNotFound indicates the requested campus does not exist.
var ErrNotFound = shared.NewDomainError("CAMPUS_NOT_FOUND", "campus not found", shared.ErrNotFound)

// Repository defines the interface for campus persistence.
type Repository interface {
	// Create persists a new campus.
	Create(ctx context.Context, c *Campus) error

	// GetByID retrieves a campus by ID.
	GetByID(ctx context.Context, id shared.ID) (*Campus, error)

	// List returns all campuses.
	List(ctx context.Context) ([]*Campus, error)
}
