package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/binsight/api/pkg/domain/campus"
	"github.com/binsight/api/pkg/domain/shared"
)

// CampusRepository implements campus.Repository using PostgreSQL.
type CampusRepository struct {
	db *DB
}

// NewCampusRepository creates a new CampusRepository.
func NewCampusRepository(db *DB) *CampusRepository {
	return &CampusRepository{db: db}
}

// Create persists a new campus.
func (r *CampusRepository) Create(ctx context.Context, c *campus.Campus) error {
	query := `
		INSERT INTO campuses (id, name, city, state, center_lat, center_lon, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.ExecContext(ctx, query,
		c.ID, c.Name, c.City, c.State, c.CenterLat, c.CenterLon, c.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return shared.NewDomainError("ALREADY_EXISTS", "campus already exists", shared.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create campus: %w", err)
	}
	return nil
}

// GetByID retrieves a campus by ID.
func (r *CampusRepository) GetByID(ctx context.Context, id shared.ID) (*campus.Campus, error) {
	query := `
		SELECT id, name, city, state, center_lat, center_lon, created_at
		FROM campuses WHERE id = $1
	`
	var c campus.Campus
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&c.ID, &c.Name, &c.City, &c.State, &c.CenterLat, &c.CenterLon, &c.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, campus.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get campus: %w", err)
	}
	return &c, nil
}

// List returns all campuses.
func (r *CampusRepository) List(ctx context.Context) ([]*campus.Campus, error) {
	query := `
		SELECT id, name, city, state, center_lat, center_lon, created_at
		FROM campuses ORDER BY name
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list campuses: %w", err)
	}
	defer rows.Close()

	var campuses []*campus.Campus
	for rows.Next() {
		var c campus.Campus
		if err := rows.Scan(&c.ID, &c.Name, &c.City, &c.State, &c.CenterLat, &c.CenterLon, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan campus: %w", err)
		}
		campuses = append(campuses, &c)
	}
	return campuses, rows.Err()
}
