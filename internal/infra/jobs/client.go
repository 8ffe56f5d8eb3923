package jobs

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/binsight/api/internal/app"
	"github.com/binsight/api/pkg/logger"
)

// Client manages enqueueing background jobs using Asynq.
type Client struct {
	client *asynq.Client
	logger *logger.Logger
}

// ClientConfig contains configuration for the job client.
type ClientConfig struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// NewClient creates a new job client for enqueueing tasks.
func NewClient(cfg ClientConfig, log *logger.Logger) *Client {
	client := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	return &Client{
		client: client,
		logger: log.With("component", "job_client"),
	}
}

// Close closes the client connection.
func (c *Client) Close() error {
	return c.client.Close()
}

// EnqueueProcessScan enqueues a scan processing task. Implements
// app.TaskEnqueuer.
func (c *Client) EnqueueProcessScan(ctx context.Context, t app.ProcessScanTask) error {
	task, err := NewScanProcessTask(ScanProcessPayload(t))
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}

	info, err := c.client.EnqueueContext(ctx, task)
	if err != nil {
		c.logger.Error("failed to enqueue scan task",
			"job_id", t.JobID,
			"error", err,
		)
		return fmt.Errorf("failed to enqueue task: %w", err)
	}

	c.logger.Info("scan task queued",
		"task_id", info.ID,
		"job_id", t.JobID,
		"queue", info.Queue,
	)
	return nil
}
