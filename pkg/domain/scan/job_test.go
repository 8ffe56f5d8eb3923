package scan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/binsight/api/pkg/domain/shared"
)

func TestNewJob(t *testing.T) {
	userID := shared.NewID()
	campusID := shared.NewID()

	j, err := NewJob(userID, campusID, "s3://scans/img.jpg", -23.55, -46.65)
	require.NoError(t, err)
	assert.False(t, j.ID.IsZero())
	assert.Equal(t, StatePending, j.State)
	assert.Equal(t, "s3://scans/img.jpg", j.ImageRef)
	assert.Nil(t, j.CompletedAt)
}

func TestNewJobValidation(t *testing.T) {
	userID := shared.NewID()
	campusID := shared.NewID()

	_, err := NewJob(shared.ID{}, campusID, "s3://scans/img.jpg", 0, 0)
	assert.Error(t, err)

	_, err = NewJob(userID, shared.ID{}, "s3://scans/img.jpg", 0, 0)
	assert.Error(t, err)

	_, err = NewJob(userID, campusID, "", 0, 0)
	assert.Error(t, err)
}

func TestStateTerminal(t *testing.T) {
	assert.False(t, StatePending.IsTerminal())
	assert.False(t, StateProcessing.IsTerminal())
	assert.True(t, StateCompleted.IsTerminal())
	assert.True(t, StateFailed.IsTerminal())
}

func TestNewResult(t *testing.T) {
	jobID := shared.NewID()
	zoneID := shared.NewID()

	r, err := NewResult(jobID, zoneID, "s3://scans/img.jpg", 12500)
	require.NoError(t, err)
	assert.Equal(t, 12500.0, r.VolumeCm3)
	assert.False(t, r.ProcessedAt.IsZero())

	_, err = NewResult(jobID, zoneID, "s3://scans/img.jpg", -1)
	assert.Error(t, err, "negative volume must be rejected")

	_, err = NewResult(shared.ID{}, zoneID, "s3://scans/img.jpg", 1)
	assert.Error(t, err)
}
