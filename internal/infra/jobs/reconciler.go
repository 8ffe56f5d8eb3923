package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/binsight/api/internal/app"
	"github.com/binsight/api/internal/config"
	"github.com/binsight/api/internal/metrics"
	"github.com/binsight/api/pkg/domain/scan"
	"github.com/binsight/api/pkg/logger"
)

// Reconciler heals the pipeline on a schedule. Pending jobs whose task
// was lost get re-dispatched, jobs stuck in processing past the cutoff
// get failed, and a nightly sweep re-derives every zone status from
// the recorded results.
type Reconciler struct {
	scanRepo scan.Repository
	zones    *app.ZoneService
	enqueuer app.TaskEnqueuer
	cfg      *config.WorkerConfig
	cron     *cron.Cron
	logger   *logger.Logger
}

// NewReconciler creates a reconciler with its schedules registered but
// not started.
func NewReconciler(scanRepo scan.Repository, zones *app.ZoneService, enqueuer app.TaskEnqueuer, cfg *config.WorkerConfig, log *logger.Logger) (*Reconciler, error) {
	r := &Reconciler{
		scanRepo: scanRepo,
		zones:    zones,
		enqueuer: enqueuer,
		cfg:      cfg,
		cron:     cron.New(),
		logger:   log.With("component", "reconciler"),
	}

	if _, err := r.cron.AddFunc(cfg.ReconcileCron, r.sweepStaleJobs); err != nil {
		return nil, err
	}
	if _, err := r.cron.AddFunc(cfg.RecomputeCron, r.recomputeZones); err != nil {
		return nil, err
	}
	return r, nil
}

// Start begins running the schedules.
func (r *Reconciler) Start() {
	r.logger.Info("starting reconciler",
		"reconcile_cron", r.cfg.ReconcileCron,
		"recompute_cron", r.cfg.RecomputeCron,
	)
	r.cron.Start()
}

// Stop stops the schedules and waits for running sweeps to finish.
func (r *Reconciler) Stop() {
	r.logger.Info("stopping reconciler")
	<-r.cron.Stop().Done()
}

func (r *Reconciler) sweepStaleJobs() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	r.redispatchPending(ctx)
	r.failStuckProcessing(ctx)
}

// redispatchPending re-enqueues jobs that stayed pending past the
// cutoff. Their task was lost before delivery, so enqueueing again is
// safe: a duplicate delivery stops at the completed-job guard.
func (r *Reconciler) redispatchPending(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-r.cfg.PendingCutoff)
	jobs, err := r.scanRepo.ListStaleJobs(ctx, scan.StatePending, cutoff, r.cfg.SweepBatchSize)
	if err != nil {
		r.logger.ErrorContext(ctx, "listing stale pending jobs failed", "error", err)
		return
	}

	for _, j := range jobs {
		err := r.enqueuer.EnqueueProcessScan(ctx, app.ProcessScanTask{
			JobID:    j.ID.String(),
			ImageRef: j.ImageRef,
			Lat:      j.Latitude,
			Lon:      j.Longitude,
			UserID:   j.UserID.String(),
			CampusID: j.CampusID.String(),
		})
		if err != nil {
			r.logger.ErrorContext(ctx, "re-dispatch failed", "job_id", j.ID, "error", err)
			continue
		}
		metrics.ReconcilerSweepsTotal.WithLabelValues("redispatched").Inc()
		r.logger.InfoContext(ctx, "stale pending job re-dispatched",
			"job_id", j.ID,
			"age", time.Since(j.CreatedAt),
		)
	}
}

// failStuckProcessing fails jobs that have been processing longer than
// the cutoff. The worker that held them is gone or wedged; asynq has
// exhausted its retries by then, so the job is surfaced as failed
// rather than left in limbo.
func (r *Reconciler) failStuckProcessing(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-r.cfg.ProcessingCutoff)
	jobs, err := r.scanRepo.ListStaleJobs(ctx, scan.StateProcessing, cutoff, r.cfg.SweepBatchSize)
	if err != nil {
		r.logger.ErrorContext(ctx, "listing stuck processing jobs failed", "error", err)
		return
	}

	for _, j := range jobs {
		if err := r.scanRepo.MarkJobFailed(ctx, j.ID, "processing timed out"); err != nil {
			r.logger.ErrorContext(ctx, "failing stuck job failed", "job_id", j.ID, "error", err)
			continue
		}
		metrics.ReconcilerSweepsTotal.WithLabelValues("failed_stuck").Inc()
		r.logger.WarnContext(ctx, "stuck processing job marked failed",
			"job_id", j.ID,
			"age", time.Since(j.CreatedAt),
		)
	}
}

func (r *Reconciler) recomputeZones() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	r.logger.InfoContext(ctx, "starting nightly zone recompute")
	if err := r.zones.RecomputeAll(ctx); err != nil {
		r.logger.ErrorContext(ctx, "nightly zone recompute failed", "error", err)
		return
	}
	metrics.ReconcilerSweepsTotal.WithLabelValues("recomputed").Inc()
	r.logger.InfoContext(ctx, "nightly zone recompute finished")
}
