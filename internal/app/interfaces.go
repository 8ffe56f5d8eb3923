// Package app contains the application services of the scan pipeline:
// job admission, worker-side processing, zone resolution, and status
// aggregation.
package app

import (
	"context"
	"errors"
	"time"

	"github.com/binsight/api/pkg/domain/zone"
)

// ErrPermanent marks worker failures that must not be retried by the
// queue: the job has already been marked failed and redelivery would
// only repeat the same outcome.
var ErrPermanent = errors.New("permanent task failure")

// ProcessScanTask is the unit of work carried on the queue: everything a
// worker needs to process one submitted image.
type ProcessScanTask struct {
	JobID    string  `json:"job_id"`
	ImageRef string  `json:"image_ref"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	UserID   string  `json:"user_id"`
	CampusID string  `json:"campus_id"`
}

// TaskEnqueuer dispatches processing tasks onto the queue.
type TaskEnqueuer interface {
	EnqueueProcessScan(ctx context.Context, t ProcessScanTask) error
}

// ImageFetcher downloads an image reference to a scratch file. The
// returned release function must be called on every exit path.
type ImageFetcher interface {
	FetchToScratch(ctx context.Context, imageRef string) (path string, release func(), err error)
}

// ImagePresigner converts stored image references into fetchable URLs
// for result listings.
type ImagePresigner interface {
	PresignGet(ctx context.Context, imageRef string, ttl time.Duration) (string, error)
}

// VolumeEstimator is the opaque external estimation capability.
type VolumeEstimator interface {
	Estimate(ctx context.Context, imagePath string) (volumeCm3 float64, err error)
}

// ZoneCache caches a campus's zone list between resolutions.
type ZoneCache interface {
	Get(ctx context.Context, key string) (*[]*zone.Zone, error)
	Set(ctx context.Context, key string, zones []*zone.Zone) error
}

// StatusBroadcaster pushes zone status changes to connected dashboard
// clients. Implementations must not block the caller.
type StatusBroadcaster interface {
	BroadcastZoneStatus(campusID, zoneID, zoneCode, status string, score float64)
}
