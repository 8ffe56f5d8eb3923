package app

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/binsight/api/pkg/domain/campus"
	"github.com/binsight/api/pkg/domain/scan"
	"github.com/binsight/api/pkg/domain/shared"
)

func TestSubmitScanPersistsJobAndEnqueues(t *testing.T) {
	w := newTestWorld(t)
	userID := shared.NewID()

	handle, err := w.scans.SubmitScan(context.Background(), userID, w.campus.ID, "scans/a.jpg", 0.1, 0.2)
	require.NoError(t, err)
	assert.Equal(t, string(scan.StatePending), handle.Status)
	assert.False(t, handle.JobID.IsZero())

	job, err := w.scanRepo.GetJob(context.Background(), handle.JobID)
	require.NoError(t, err)
	assert.Equal(t, scan.StatePending, job.State)
	assert.Equal(t, userID, job.UserID)
	assert.Equal(t, "scans/a.jpg", job.ImageRef)

	require.Len(t, w.enqueuer.tasks, 1)
	task := w.enqueuer.tasks[0]
	assert.Equal(t, handle.JobID.String(), task.JobID)
	assert.Equal(t, w.campus.ID.String(), task.CampusID)
	assert.Equal(t, 0.1, task.Lat)
	assert.Equal(t, 0.2, task.Lon)
}

func TestSubmitScanUnknownCampus(t *testing.T) {
	w := newTestWorld(t)

	_, err := w.scans.SubmitScan(context.Background(), shared.NewID(), shared.NewID(), "scans/a.jpg", 0, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, campus.ErrNotFound)
	assert.Empty(t, w.enqueuer.tasks)
}

func TestSubmitScanEnqueueFailureKeepsJob(t *testing.T) {
	w := newTestWorld(t)
	w.enqueuer.err = errors.New("broker unavailable")

	_, err := w.scans.SubmitScan(context.Background(), shared.NewID(), w.campus.ID, "scans/a.jpg", 0, 0)
	require.Error(t, err)

	// The pending row must survive the dispatch failure so the
	// reconciliation sweep can re-dispatch it.
	require.Len(t, w.store.jobs, 1)
	for _, job := range w.store.jobs {
		assert.Equal(t, scan.StatePending, job.State)
	}
}

func TestGetJobStatusIncludesResultWhenCompleted(t *testing.T) {
	w := newTestWorld(t)
	handle := w.submit(t)

	status, err := w.scans.GetJobStatus(context.Background(), handle.JobID)
	require.NoError(t, err)
	assert.Equal(t, scan.StatePending, status.Job.State)
	assert.Nil(t, status.Result)

	require.NoError(t, w.processor.Process(context.Background(), w.lastTask(t)))

	status, err = w.scans.GetJobStatus(context.Background(), handle.JobID)
	require.NoError(t, err)
	assert.Equal(t, scan.StateCompleted, status.Job.State)
	require.NotNil(t, status.Result)
	assert.Equal(t, 1500.0, status.Result.VolumeCm3)
}

func TestGetJobStatusCompletedWithoutResult(t *testing.T) {
	w := newTestWorld(t)
	handle, err := w.scans.SubmitScan(context.Background(), shared.NewID(), w.campus.ID, "scans/far.jpg", 45.0, 45.0)
	require.NoError(t, err)
	require.NoError(t, w.processor.Process(context.Background(), w.lastTask(t)))

	status, err := w.scans.GetJobStatus(context.Background(), handle.JobID)
	require.NoError(t, err)
	assert.Equal(t, scan.StateCompleted, status.Job.State)
	assert.Nil(t, status.Result)
}

func TestGetJobStatusNotFound(t *testing.T) {
	w := newTestWorld(t)
	_, err := w.scans.GetJobStatus(context.Background(), shared.NewID())
	assert.ErrorIs(t, err, scan.ErrJobNotFound)
}

func TestListCampusResultsPresignsImages(t *testing.T) {
	w := newTestWorld(t)
	for i := 0; i < 3; i++ {
		w.submit(t)
		require.NoError(t, w.processor.Process(context.Background(), w.lastTask(t)))
	}

	views, err := w.scans.ListCampusResults(context.Background(), w.campus.ID, 0)
	require.NoError(t, err)
	require.Len(t, views, 3)
	for _, v := range views {
		assert.Contains(t, v.ImageURL, "?signed")
		assert.Equal(t, w.zone.ID, v.ZoneID)
	}
}

func TestListCampusResultsPresignFailureDegrades(t *testing.T) {
	w := newTestWorld(t)
	w.submit(t)
	require.NoError(t, w.processor.Process(context.Background(), w.lastTask(t)))

	w.scans.presigner = &fakePresigner{err: errors.New("signing key unavailable")}
	views, err := w.scans.ListCampusResults(context.Background(), w.campus.ID, 0)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Empty(t, views[0].ImageURL)
}

func TestListCampusResultsRespectsLimit(t *testing.T) {
	w := newTestWorld(t)
	for i := 0; i < 5; i++ {
		w.submit(t)
		require.NoError(t, w.processor.Process(context.Background(), w.lastTask(t)))
	}

	views, err := w.scans.ListCampusResults(context.Background(), w.campus.ID, 2)
	require.NoError(t, err)
	assert.Len(t, views, 2)
}
