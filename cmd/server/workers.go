package main

import (
	"github.com/binsight/api/internal/config"
	"github.com/binsight/api/internal/infra/jobs"
	"github.com/binsight/api/pkg/logger"
)

// Workers holds the background processing components: the asynq task
// worker and the reconciliation schedules.
type Workers struct {
	Worker     *jobs.Worker
	Reconciler *jobs.Reconciler
}

// NewWorkers creates the background workers.
func NewWorkers(cfg *config.Config, repos *Repositories, services *Services, enqueuer *jobs.Client, log *logger.Logger) (*Workers, error) {
	worker := jobs.NewWorker(jobs.WorkerConfig{
		RedisAddr:     cfg.Redis.Addr(),
		RedisPassword: cfg.Redis.Password,
		RedisDB:       cfg.Redis.DB,
		Concurrency:   cfg.Queue.Concurrency,
	}, services.Processor, log)

	reconciler, err := jobs.NewReconciler(repos.Scan, services.Zone, enqueuer, &cfg.Worker, log)
	if err != nil {
		return nil, err
	}

	return &Workers{
		Worker:     worker,
		Reconciler: reconciler,
	}, nil
}

// Start launches the workers.
func (w *Workers) Start(log *logger.Logger) error {
	if err := w.Worker.Start(); err != nil {
		return err
	}
	w.Reconciler.Start()
	log.Info("workers started")
	return nil
}

// Stop shuts the workers down gracefully.
func (w *Workers) Stop(log *logger.Logger) {
	w.Reconciler.Stop()
	w.Worker.Stop()
	log.Info("workers stopped")
}
