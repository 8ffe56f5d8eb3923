package app

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/binsight/api/internal/metrics"
	"github.com/binsight/api/pkg/domain/scan"
	"github.com/binsight/api/pkg/domain/shared"
	"github.com/binsight/api/pkg/domain/zone"
	"github.com/binsight/api/pkg/logger"
)

func TestResolveFindsContainingZone(t *testing.T) {
	w := newTestWorld(t)

	z, err := w.zones.Resolve(context.Background(), w.campus.ID, 0.5, 0.5)
	require.NoError(t, err)
	assert.Equal(t, w.zone.ID, z.ID)
}

func TestResolveNoZoneForPoint(t *testing.T) {
	w := newTestWorld(t)

	_, err := w.zones.Resolve(context.Background(), w.campus.ID, 45.0, 45.0)
	require.Error(t, err)
	assert.True(t, IsNoZone(err))
}

func TestResolveSharedEdgeIsDeterministic(t *testing.T) {
	w := newTestWorld(t)

	// A second zone covering the same square. Whichever zone wins the
	// tie must win it on every call, which the id ordering guarantees.
	dup, err := zone.NewZone(w.campus.ID, "Z-02", unitSquare())
	require.NoError(t, err)
	require.NoError(t, w.zoneRepo.Create(context.Background(), dup))

	ids := []shared.ID{w.zone.ID, dup.ID}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	for i := 0; i < 10; i++ {
		z, err := w.zones.Resolve(context.Background(), w.campus.ID, 0.5, 0.5)
		require.NoError(t, err)
		assert.Equal(t, ids[0], z.ID)
	}
}

func TestCampusZonesCacheReadThrough(t *testing.T) {
	w := newTestWorld(t)
	cache := newFakeZoneCache()
	w.zones = NewZoneService(w.zoneRepo, cache, nil, logger.NewDefault())

	_, err := w.zones.Resolve(context.Background(), w.campus.ID, 0.5, 0.5)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.gets)
	assert.Equal(t, 0, cache.hits)

	_, err = w.zones.Resolve(context.Background(), w.campus.ID, 0.5, 0.5)
	require.NoError(t, err)
	assert.Equal(t, 2, cache.gets)
	assert.Equal(t, 1, cache.hits)
}

func TestRecomputeDerivesStatusFromResults(t *testing.T) {
	w := newTestWorld(t)

	// Plant results directly and verify recompute re-derives the
	// aggregate from the full sum.
	for _, vol := range []float64{12000, 9000, 10000} {
		r, err := scan.NewResult(shared.NewID(), w.zone.ID, "scans/x.jpg", vol)
		require.NoError(t, err)
		w.store.results[r.JobID] = r
	}

	z, err := w.zones.Recompute(context.Background(), w.zone.ID, metrics.TriggerAdmin)
	require.NoError(t, err)
	assert.Equal(t, 31000.0, z.LastScore)
	assert.Equal(t, zone.StatusRed, z.Status)

	require.Len(t, w.broadcaster.events, 1)
	assert.Equal(t, string(zone.StatusRed), w.broadcaster.events[0].status)
	assert.Equal(t, 31000.0, w.broadcaster.events[0].score)
}

func TestRecomputeTwiceWithoutNewResultsIsStable(t *testing.T) {
	w := newTestWorld(t)

	r, err := scan.NewResult(shared.NewID(), w.zone.ID, "scans/x.jpg", 12000)
	require.NoError(t, err)
	w.store.results[r.JobID] = r

	first, err := w.zones.Recompute(context.Background(), w.zone.ID, metrics.TriggerAdmin)
	require.NoError(t, err)

	// With no new results the second pass re-derives the same
	// aggregate from the same sum.
	second, err := w.zones.Recompute(context.Background(), w.zone.ID, metrics.TriggerAdmin)
	require.NoError(t, err)
	assert.Equal(t, first.Status, second.Status)
	assert.Equal(t, first.LastScore, second.LastScore)
	assert.Equal(t, zone.StatusYellow, second.Status)
	assert.Equal(t, 12000.0, second.LastScore)
}

func TestZoneStatusIndependentOfScanOrder(t *testing.T) {
	volumes := [][]float64{
		{4000, 4000, 25000},
		{25000, 4000, 4000},
	}

	for _, order := range volumes {
		w := newTestWorld(t)
		for _, vol := range order {
			w.estimator.volume = vol
			w.submit(t)
			require.NoError(t, w.processor.Process(context.Background(), w.lastTask(t)))
		}

		z, err := w.zoneRepo.GetByID(context.Background(), w.zone.ID)
		require.NoError(t, err)
		assert.Equal(t, zone.StatusRed, z.Status, "order %v", order)
		assert.Equal(t, 33000.0, z.LastScore, "order %v", order)
	}
}

func TestRecomputeUnknownZone(t *testing.T) {
	w := newTestWorld(t)
	_, err := w.zones.Recompute(context.Background(), shared.NewID(), metrics.TriggerAdmin)
	require.Error(t, err)
	assert.ErrorIs(t, err, zone.ErrNotFound)
}

func TestRecomputeAllSweepsEveryZone(t *testing.T) {
	w := newTestWorld(t)

	others := make([]*zone.Zone, 0, 3)
	for _, code := range []string{"Z-02", "Z-03", "Z-04"} {
		z, err := zone.NewZone(w.campus.ID, code, unitSquare())
		require.NoError(t, err)
		require.NoError(t, w.zoneRepo.Create(context.Background(), z))
		others = append(others, z)
	}

	r, err := scan.NewResult(shared.NewID(), others[1].ID, "scans/x.jpg", 15000)
	require.NoError(t, err)
	w.store.results[r.JobID] = r

	require.NoError(t, w.zones.RecomputeAll(context.Background()))

	updated, err := w.zoneRepo.GetByID(context.Background(), others[1].ID)
	require.NoError(t, err)
	assert.Equal(t, zone.StatusYellow, updated.Status)
	assert.Equal(t, 15000.0, updated.LastScore)

	// Every zone gets swept, not just the one with results.
	for _, z := range append(others, w.zone) {
		got, err := w.zoneRepo.GetByID(context.Background(), z.ID)
		require.NoError(t, err)
		assert.NotNil(t, got.LastScannedAt)
	}
	assert.Len(t, w.broadcaster.events, 4)
}

func TestZoneCreateValidatesBoundary(t *testing.T) {
	w := newTestWorld(t)

	_, err := w.zones.Create(context.Background(), w.campus.ID, "Z-BAD", zone.Ring{
		{Lon: 0, Lat: 0}, {Lon: 1, Lat: 0}, {Lon: 1, Lat: 1},
	})
	require.Error(t, err)

	created, err := w.zones.Create(context.Background(), w.campus.ID, "Z-OK", unitSquare())
	require.NoError(t, err)
	stored, err := w.zoneRepo.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, zone.StatusGreen, stored.Status)
}
