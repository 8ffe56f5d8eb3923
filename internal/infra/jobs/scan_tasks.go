// Package jobs provides background task definitions and handlers using Asynq.
package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/binsight/api/internal/app"
	"github.com/binsight/api/pkg/logger"
)

// Task types for scan jobs.
const (
	TypeScanProcess = "scan:process"
)

// Queue names.
const (
	QueueScans       = "scans"
	QueueMaintenance = "maintenance"
)

// ScanProcessPayload carries a queued scan task. It mirrors
// app.ProcessScanTask so the payload schema is stable on the wire even
// if the application type grows.
type ScanProcessPayload struct {
	JobID    string  `json:"job_id"`
	ImageRef string  `json:"image_ref"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	UserID   string  `json:"user_id"`
	CampusID string  `json:"campus_id"`
}

// NewScanProcessTask creates a scan processing task.
func NewScanProcessTask(payload ScanProcessPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal scan process payload: %w", err)
	}
	return asynq.NewTask(
		TypeScanProcess,
		data,
		asynq.MaxRetry(5),
		asynq.Timeout(5*time.Minute),
		asynq.Queue(QueueScans),
	), nil
}

// ScanTaskHandler handles scan task processing.
type ScanTaskHandler struct {
	processor *app.ScanProcessor
	logger    *logger.Logger
}

// NewScanTaskHandler creates a new scan task handler.
func NewScanTaskHandler(processor *app.ScanProcessor, log *logger.Logger) *ScanTaskHandler {
	return &ScanTaskHandler{
		processor: processor,
		logger:    log.With("handler", "scan_tasks"),
	}
}

// HandleScanProcess processes one queued scan. Permanent failures are
// translated to asynq.SkipRetry so the queue does not redeliver a job
// that has already been marked failed.
func (h *ScanTaskHandler) HandleScanProcess(ctx context.Context, t *asynq.Task) error {
	var payload ScanProcessPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w: %w", err, asynq.SkipRetry)
	}

	h.logger.InfoContext(ctx, "processing scan task",
		"job_id", payload.JobID,
		"campus_id", payload.CampusID,
	)

	err := h.processor.Process(ctx, app.ProcessScanTask(payload))
	if err != nil {
		if errors.Is(err, app.ErrPermanent) {
			h.logger.WarnContext(ctx, "scan task failed permanently",
				"job_id", payload.JobID,
				"error", err,
			)
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		h.logger.ErrorContext(ctx, "scan task failed, will retry",
			"job_id", payload.JobID,
			"error", err,
		)
		return err
	}
	return nil
}
