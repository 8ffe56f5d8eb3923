package app

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/binsight/api/internal/metrics"
	"github.com/binsight/api/pkg/domain/shared"
	"github.com/binsight/api/pkg/domain/zone"
	"github.com/binsight/api/pkg/logger"
)

// recomputeParallelism bounds concurrent zone recomputes during a
// sweep so the sweep cannot drain the connection pool.
const recomputeParallelism = 4

// ZoneService resolves coordinates to zones and owns status
// recomputation. Zone boundaries change rarely, so resolution reads
// through a short-lived cache of each campus's zone list.
type ZoneService struct {
	zoneRepo    zone.Repository
	cache       ZoneCache
	broadcaster StatusBroadcaster
	logger      *logger.Logger
}

func NewZoneService(zoneRepo zone.Repository, cache ZoneCache, broadcaster StatusBroadcaster, log *logger.Logger) *ZoneService {
	return &ZoneService{
		zoneRepo:    zoneRepo,
		cache:       cache,
		broadcaster: broadcaster,
		logger:      log.With("service", "zone"),
	}
}

func (s *ZoneService) Create(ctx context.Context, campusID shared.ID, code string, boundary zone.Ring) (*zone.Zone, error) {
	z, err := zone.NewZone(campusID, code, boundary)
	if err != nil {
		return nil, err
	}
	if err := s.zoneRepo.Create(ctx, z); err != nil {
		return nil, fmt.Errorf("creating zone: %w", err)
	}
	return z, nil
}

func (s *ZoneService) GetByID(ctx context.Context, id shared.ID) (*zone.Zone, error) {
	return s.zoneRepo.GetByID(ctx, id)
}

func (s *ZoneService) ListByCampus(ctx context.Context, campusID shared.ID) ([]*zone.Zone, error) {
	return s.zoneRepo.ListByCampus(ctx, campusID)
}

// Resolve finds the zone whose boundary contains the point. Zones are
// checked in ascending id order, so a point on a shared edge always
// resolves to the same zone. Returns zone.ErrNoZoneForPoint when no
// boundary matches.
func (s *ZoneService) Resolve(ctx context.Context, campusID shared.ID, lat, lon float64) (*zone.Zone, error) {
	zones, err := s.campusZones(ctx, campusID)
	if err != nil {
		return nil, err
	}
	for _, z := range zones {
		if z.Contains(lat, lon) {
			return z, nil
		}
	}
	return nil, zone.ErrNoZoneForPoint
}

func (s *ZoneService) campusZones(ctx context.Context, campusID shared.ID) ([]*zone.Zone, error) {
	key := campusID.String()
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, key); err == nil {
			return *cached, nil
		}
	}
	zones, err := s.zoneRepo.ListByCampus(ctx, campusID)
	if err != nil {
		return nil, fmt.Errorf("listing campus zones: %w", err)
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, zones); err != nil {
			s.logger.DebugContext(ctx, "zone cache set failed", "campus_id", key, "error", err)
		}
	}
	return zones, nil
}

// Recompute re-derives a zone's score and status from the full set of
// recorded results and publishes the outcome.
func (s *ZoneService) Recompute(ctx context.Context, zoneID shared.ID, trigger string) (*zone.Zone, error) {
	z, err := s.zoneRepo.RecomputeStatus(ctx, zoneID)
	if err != nil {
		return nil, fmt.Errorf("recomputing zone %s: %w", zoneID, err)
	}
	metrics.ZoneRecomputesTotal.WithLabelValues(trigger).Inc()
	s.publish(z)
	return z, nil
}

// RecomputeAll sweeps every zone. Used by the nightly reconciliation
// job to heal any drift between recorded results and zone status.
// Zones recompute concurrently; each zone's recompute is its own
// transaction, so one failure does not stop the sweep.
func (s *ZoneService) RecomputeAll(ctx context.Context) error {
	ids, err := s.zoneRepo.ListIDs(ctx)
	if err != nil {
		return fmt.Errorf("listing zone ids: %w", err)
	}

	var failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(recomputeParallelism)
	for _, id := range ids {
		g.Go(func() error {
			if _, err := s.Recompute(gctx, id, metrics.TriggerSweep); err != nil {
				failed.Add(1)
				s.logger.ErrorContext(gctx, "zone recompute failed", "zone_id", id, "error", err)
			}
			return nil
		})
	}
	_ = g.Wait()

	if n := failed.Load(); n > 0 {
		return fmt.Errorf("recompute sweep: %d of %d zones failed", n, len(ids))
	}
	return nil
}

func (s *ZoneService) publish(z *zone.Zone) {
	metrics.ZoneStatusCurrent.WithLabelValues(z.CampusID.String(), z.Code).Set(metrics.StatusGaugeValue(string(z.Status)))
	if s.broadcaster != nil {
		s.broadcaster.BroadcastZoneStatus(z.CampusID.String(), z.ID.String(), z.Code, string(z.Status), z.LastScore)
	}
}

// IsNoZone reports whether err means the point fell outside every
// boundary, which callers treat as a data-quality outcome rather than
// a failure.
func IsNoZone(err error) bool {
	return errors.Is(err, zone.ErrNoZoneForPoint)
}
