package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/binsight/api/internal/metrics"
	"github.com/binsight/api/internal/tracing"
	"github.com/binsight/api/pkg/domain/scan"
	"github.com/binsight/api/pkg/domain/shared"
	"github.com/binsight/api/pkg/domain/zone"
	"github.com/binsight/api/pkg/logger"
)

// ScanProcessor runs the worker side of the pipeline: fetch the image,
// estimate its waste volume, resolve the capture point to a zone, and
// record the result. Every task ends in exactly one of four outcomes:
// completed with a result, completed without a zone, failed, or
// skipped as a duplicate delivery.
type ScanProcessor struct {
	scanRepo  scan.Repository
	zones     *ZoneService
	fetcher   ImageFetcher
	estimator VolumeEstimator
	logger    *logger.Logger
}

func NewScanProcessor(scanRepo scan.Repository, zones *ZoneService, fetcher ImageFetcher, estimator VolumeEstimator, log *logger.Logger) *ScanProcessor {
	return &ScanProcessor{
		scanRepo:  scanRepo,
		zones:     zones,
		fetcher:   fetcher,
		estimator: estimator,
		logger:    log.With("service", "scan_processor"),
	}
}

// Process handles one queued scan task. A nil return consumes the
// task. Errors wrapped with ErrPermanent mean the job has been marked
// failed and redelivery is pointless; any other error is transient and
// the queue should retry.
func (p *ScanProcessor) Process(ctx context.Context, task ProcessScanTask) error {
	start := time.Now()
	ctx, span := tracing.Tracer().Start(ctx, "scan.process", trace.WithAttributes(
		attribute.String("scan.job_id", task.JobID),
		attribute.String("scan.campus_id", task.CampusID),
	))
	defer span.End()

	log := p.logger.With("job_id", task.JobID)

	jobID, err := shared.IDFromString(task.JobID)
	if err != nil {
		return fmt.Errorf("invalid job id %q: %w", task.JobID, ErrPermanent)
	}
	campusID, err := shared.IDFromString(task.CampusID)
	if err != nil {
		return fmt.Errorf("invalid campus id %q: %w", task.CampusID, ErrPermanent)
	}

	if err := p.scanRepo.MarkJobProcessing(ctx, jobID); err != nil {
		if errors.Is(err, scan.ErrJobTerminal) {
			log.InfoContext(ctx, "skipping redelivered task, job already finished")
			metrics.ScanTasksProcessedTotal.WithLabelValues(metrics.OutcomeDuplicate).Inc()
			return nil
		}
		return fmt.Errorf("marking job processing: %w", err)
	}

	volume, err := p.estimateVolume(ctx, task.ImageRef)
	if err != nil {
		return p.failJob(ctx, log, jobID, "estimate", err)
	}

	z, err := p.zones.Resolve(ctx, campusID, task.Lat, task.Lon)
	if err != nil {
		if IsNoZone(err) {
			// Data-quality outcome: the capture point matched no
			// boundary. The job finishes cleanly without a result and
			// no zone status changes.
			log.WarnContext(ctx, "no zone contains scan point",
				"lat", task.Lat, "lon", task.Lon, "campus_id", task.CampusID)
			if err := p.scanRepo.MarkJobCompleted(ctx, jobID); err != nil && !errors.Is(err, scan.ErrJobTerminal) {
				return fmt.Errorf("completing zoneless job: %w", err)
			}
			metrics.ScanTasksProcessedTotal.WithLabelValues(metrics.OutcomeNoZone).Inc()
			return nil
		}
		return fmt.Errorf("resolving zone: %w", err)
	}

	result, err := scan.NewResult(jobID, z.ID, task.ImageRef, volume)
	if err != nil {
		return p.failJob(ctx, log, jobID, "record", err)
	}

	outcome, err := p.scanRepo.RecordResult(ctx, result)
	if err != nil {
		if errors.Is(err, scan.ErrJobAlreadyCompleted) {
			log.InfoContext(ctx, "result already recorded, skipping duplicate")
			metrics.ScanTasksProcessedTotal.WithLabelValues(metrics.OutcomeDuplicate).Inc()
			return nil
		}
		// Recording is retryable: the result insert and zone update
		// roll back together, so a redelivery starts clean.
		metrics.ScanStepFailuresTotal.WithLabelValues("record").Inc()
		return fmt.Errorf("recording result: %w", err)
	}

	metrics.ZoneRecomputesTotal.WithLabelValues(metrics.TriggerScan).Inc()
	updated := *z
	updated.Status = zone.Status(outcome.ZoneStatus)
	updated.LastScore = outcome.ZoneScore
	p.zones.publish(&updated)

	metrics.ScanTasksProcessedTotal.WithLabelValues(metrics.OutcomeCompleted).Inc()
	metrics.ScanProcessingDuration.Observe(time.Since(start).Seconds())
	log.InfoContext(ctx, "scan processed",
		"zone_code", z.Code,
		"volume_cm3", volume,
		"zone_score", outcome.ZoneScore,
		"zone_status", outcome.ZoneStatus,
		"duration", time.Since(start))
	return nil
}

func (p *ScanProcessor) estimateVolume(ctx context.Context, imageRef string) (float64, error) {
	ctx, span := tracing.Tracer().Start(ctx, "scan.estimate")
	defer span.End()

	path, release, err := p.fetcher.FetchToScratch(ctx, imageRef)
	if err != nil {
		metrics.ScanStepFailuresTotal.WithLabelValues("fetch").Inc()
		return 0, fmt.Errorf("fetching image %q: %w", imageRef, err)
	}
	defer release()

	volume, err := p.estimator.Estimate(ctx, path)
	if err != nil {
		metrics.ScanStepFailuresTotal.WithLabelValues("estimate").Inc()
		return 0, fmt.Errorf("estimating volume: %w", err)
	}
	span.SetAttributes(attribute.Float64("scan.volume_cm3", volume))
	return volume, nil
}

// failJob marks the job failed and returns a permanent error so the
// queue does not redeliver. The failure reason is kept on the job row
// for the submitter to see.
func (p *ScanProcessor) failJob(ctx context.Context, log *logger.Logger, jobID shared.ID, step string, cause error) error {
	log.ErrorContext(ctx, "scan processing failed", "step", step, "error", cause)
	if err := p.scanRepo.MarkJobFailed(ctx, jobID, cause.Error()); err != nil && !errors.Is(err, scan.ErrJobTerminal) {
		// Could not persist the failure; let the queue retry so the
		// job does not sit in processing forever.
		return fmt.Errorf("marking job failed after %s error (%v): %w", step, cause, err)
	}
	metrics.ScanTasksProcessedTotal.WithLabelValues(metrics.OutcomeFailed).Inc()
	return fmt.Errorf("%s: %v: %w", step, cause, ErrPermanent)
}
