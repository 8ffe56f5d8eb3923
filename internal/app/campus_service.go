package app

import (
	"context"
	"fmt"

	"github.com/binsight/api/pkg/domain/campus"
	"github.com/binsight/api/pkg/domain/shared"
	"github.com/binsight/api/pkg/logger"
)

// CampusService manages the campus registry zones and scans hang off.
type CampusService struct {
	campusRepo campus.Repository
	logger     *logger.Logger
}

func NewCampusService(campusRepo campus.Repository, log *logger.Logger) *CampusService {
	return &CampusService{
		campusRepo: campusRepo,
		logger:     log.With("service", "campus"),
	}
}

func (s *CampusService) Create(ctx context.Context, name, city, state string, centerLat, centerLon float64) (*campus.Campus, error) {
	c, err := campus.NewCampus(name, city, state, centerLat, centerLon)
	if err != nil {
		return nil, err
	}
	if err := s.campusRepo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("creating campus: %w", err)
	}
	s.logger.InfoContext(ctx, "campus created", "campus_id", c.ID, "name", name)
	return c, nil
}

func (s *CampusService) GetByID(ctx context.Context, id shared.ID) (*campus.Campus, error) {
	return s.campusRepo.GetByID(ctx, id)
}

func (s *CampusService) List(ctx context.Context) ([]*campus.Campus, error) {
	return s.campusRepo.List(ctx)
}
