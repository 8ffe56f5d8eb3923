package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/binsight/api/internal/metrics"
	"github.com/binsight/api/pkg/domain/campus"
	"github.com/binsight/api/pkg/domain/scan"
	"github.com/binsight/api/pkg/domain/shared"
	"github.com/binsight/api/pkg/logger"
)

const presignTTL = 15 * time.Minute

// ScanService handles the synchronous side of the pipeline: admitting
// scan jobs, reporting their status, and listing recorded results.
type ScanService struct {
	scanRepo   scan.Repository
	campusRepo campus.Repository
	enqueuer   TaskEnqueuer
	presigner  ImagePresigner
	logger     *logger.Logger
}

func NewScanService(scanRepo scan.Repository, campusRepo campus.Repository, enqueuer TaskEnqueuer, presigner ImagePresigner, log *logger.Logger) *ScanService {
	return &ScanService{
		scanRepo:   scanRepo,
		campusRepo: campusRepo,
		enqueuer:   enqueuer,
		presigner:  presigner,
		logger:     log.With("service", "scan"),
	}
}

// JobHandle is what a submitter gets back immediately after admission.
type JobHandle struct {
	JobID   shared.ID `json:"job_id"`
	Status  string    `json:"status"`
	Message string    `json:"message"`
}

// JobStatus is the full view of a job, including its result once the
// worker has recorded one.
type JobStatus struct {
	Job    *scan.Job    `json:"job"`
	Result *scan.Result `json:"result,omitempty"`
}

// SubmitScan admits a scan job: the job is persisted in the pending
// state and a processing task is dispatched. The caller gets a handle
// back without waiting for any processing.
func (s *ScanService) SubmitScan(ctx context.Context, userID, campusID shared.ID, imageRef string, lat, lon float64) (*JobHandle, error) {
	if _, err := s.campusRepo.GetByID(ctx, campusID); err != nil {
		return nil, fmt.Errorf("looking up campus: %w", err)
	}

	job, err := scan.NewJob(userID, campusID, imageRef, lat, lon)
	if err != nil {
		return nil, err
	}
	if err := s.scanRepo.CreateJob(ctx, job); err != nil {
		return nil, fmt.Errorf("persisting scan job: %w", err)
	}

	if err := s.enqueuer.EnqueueProcessScan(ctx, ProcessScanTask{
		JobID:    job.ID.String(),
		ImageRef: job.ImageRef,
		Lat:      job.Latitude,
		Lon:      job.Longitude,
		UserID:   job.UserID.String(),
		CampusID: job.CampusID.String(),
	}); err != nil {
		// The job row survives; the reconciler re-dispatches stale
		// pending jobs, so admission still fails loudly here.
		s.logger.ErrorContext(ctx, "failed to enqueue scan task", "job_id", job.ID, "error", err)
		return nil, fmt.Errorf("dispatching scan task: %w", err)
	}

	metrics.ScanJobsSubmittedTotal.Inc()
	s.logger.InfoContext(ctx, "scan job admitted", "job_id", job.ID, "campus_id", campusID, "image_ref", imageRef)

	return &JobHandle{
		JobID:   job.ID,
		Status:  string(job.State),
		Message: "scan accepted for processing",
	}, nil
}

// GetJobStatus returns a job and, when it has completed with a result,
// the recorded result alongside it.
func (s *ScanService) GetJobStatus(ctx context.Context, jobID shared.ID) (*JobStatus, error) {
	job, err := s.scanRepo.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	status := &JobStatus{Job: job}
	if job.State == scan.StateCompleted {
		result, err := s.scanRepo.GetJobResult(ctx, jobID)
		if err != nil && !errors.Is(err, scan.ErrResultNotFound) {
			return nil, fmt.Errorf("loading job result: %w", err)
		}
		status.Result = result
	}
	return status, nil
}

// ResultView is a recorded result enriched with a presigned image URL
// for dashboard display.
type ResultView struct {
	*scan.Result
	ImageURL string `json:"image_url,omitempty"`
}

// ListCampusResults returns the most recent results for a campus,
// newest first.
func (s *ScanService) ListCampusResults(ctx context.Context, campusID shared.ID, limit int) ([]*ResultView, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	results, err := s.scanRepo.ListResultsByCampus(ctx, campusID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing campus results: %w", err)
	}

	views := make([]*ResultView, 0, len(results))
	for _, r := range results {
		v := &ResultView{Result: r}
		if s.presigner != nil {
			url, err := s.presigner.PresignGet(ctx, r.ImageRef, presignTTL)
			if err != nil {
				s.logger.DebugContext(ctx, "presign failed", "image_ref", r.ImageRef, "error", err)
			} else {
				v.ImageURL = url
			}
		}
		views = append(views, v)
	}
	return views, nil
}
