package jobs

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/binsight/api/pkg/logger"
)

func TestNewScanProcessTask(t *testing.T) {
	payload := ScanProcessPayload{
		JobID:    "0b6f9f2e-6a1d-4e0a-9a64-3f1d3c2b1a00",
		ImageRef: "scans/img.jpg",
		Lat:      -23.55,
		Lon:      -46.65,
		UserID:   "4f2d9c1a-0b7e-4d3c-8a5f-1e2d3c4b5a60",
		CampusID: "9e8d7c6b-5a4f-4e3d-2c1b-0a9f8e7d6c50",
	}

	task, err := NewScanProcessTask(payload)
	require.NoError(t, err)
	assert.Equal(t, TypeScanProcess, task.Type())

	var decoded ScanProcessPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &decoded))
	assert.Equal(t, payload, decoded)
}

func TestHandleScanProcessMalformedPayloadSkipsRetry(t *testing.T) {
	h := NewScanTaskHandler(nil, logger.NewDefault())

	task := asynq.NewTask(TypeScanProcess, []byte("not json"))
	err := h.HandleScanProcess(context.Background(), task)
	require.Error(t, err)
	assert.ErrorIs(t, err, asynq.SkipRetry)
}
