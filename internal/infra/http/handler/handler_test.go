package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/binsight/api/internal/app"
	"github.com/binsight/api/internal/infra/http/middleware"
	"github.com/binsight/api/pkg/domain/campus"
	"github.com/binsight/api/pkg/domain/scan"
	"github.com/binsight/api/pkg/domain/shared"
	"github.com/binsight/api/pkg/domain/zone"
	"github.com/binsight/api/pkg/logger"
	"github.com/binsight/api/pkg/validator"
)

// The stubs embed the repository interfaces and override only what a
// test exercises; calling anything else panics the test.

type stubScanRepo struct {
	scan.Repository
	jobs    map[shared.ID]*scan.Job
	results map[shared.ID]*scan.Result
}

func newStubScanRepo() *stubScanRepo {
	return &stubScanRepo{
		jobs:    make(map[shared.ID]*scan.Job),
		results: make(map[shared.ID]*scan.Result),
	}
}

func (r *stubScanRepo) CreateJob(_ context.Context, j *scan.Job) error {
	r.jobs[j.ID] = j
	return nil
}

func (r *stubScanRepo) GetJob(_ context.Context, id shared.ID) (*scan.Job, error) {
	j, ok := r.jobs[id]
	if !ok {
		return nil, scan.ErrJobNotFound
	}
	return j, nil
}

func (r *stubScanRepo) GetJobResult(_ context.Context, jobID shared.ID) (*scan.Result, error) {
	res, ok := r.results[jobID]
	if !ok {
		return nil, scan.ErrResultNotFound
	}
	return res, nil
}

func (r *stubScanRepo) ListResultsByCampus(_ context.Context, campusID shared.ID, limit int) ([]*scan.Result, error) {
	var out []*scan.Result
	for jobID, res := range r.results {
		if j, ok := r.jobs[jobID]; ok && j.CampusID == campusID {
			out = append(out, res)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type stubCampusRepo struct {
	campus.Repository
	campuses map[shared.ID]*campus.Campus
}

func (r *stubCampusRepo) GetByID(_ context.Context, id shared.ID) (*campus.Campus, error) {
	c, ok := r.campuses[id]
	if !ok {
		return nil, campus.ErrNotFound
	}
	return c, nil
}

type stubZoneRepo struct {
	zone.Repository
	zones map[shared.ID]*zone.Zone
}

func newStubZoneRepo() *stubZoneRepo {
	return &stubZoneRepo{zones: make(map[shared.ID]*zone.Zone)}
}

func (r *stubZoneRepo) GetByID(_ context.Context, id shared.ID) (*zone.Zone, error) {
	z, ok := r.zones[id]
	if !ok {
		return nil, zone.ErrNotFound
	}
	return z, nil
}

func (r *stubZoneRepo) ListByCampus(_ context.Context, campusID shared.ID) ([]*zone.Zone, error) {
	var out []*zone.Zone
	for _, z := range r.zones {
		if z.CampusID == campusID {
			out = append(out, z)
		}
	}
	return out, nil
}

type stubEnqueuer struct {
	tasks []app.ProcessScanTask
}

func (e *stubEnqueuer) EnqueueProcessScan(_ context.Context, t app.ProcessScanTask) error {
	e.tasks = append(e.tasks, t)
	return nil
}

type scanFixture struct {
	handler  *ScanHandler
	scanRepo *stubScanRepo
	enqueuer *stubEnqueuer
	campus   *campus.Campus
	userID   shared.ID
}

func newScanFixture(t *testing.T) *scanFixture {
	t.Helper()

	c, err := campus.NewCampus("Main Campus", "Springfield", "IL", 39.78, -89.65)
	require.NoError(t, err)

	scanRepo := newStubScanRepo()
	campusRepo := &stubCampusRepo{campuses: map[shared.ID]*campus.Campus{c.ID: c}}
	enqueuer := &stubEnqueuer{}
	log := logger.NewDefault()

	service := app.NewScanService(scanRepo, campusRepo, enqueuer, nil, log)
	return &scanFixture{
		handler:  NewScanHandler(service, validator.New(), log),
		scanRepo: scanRepo,
		enqueuer: enqueuer,
		campus:   c,
		userID:   shared.NewID(),
	}
}

// authedRequest builds a request carrying the identity the auth
// middleware would have loaded.
func (f *scanFixture) authedRequest(method, target string, body any) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, target, &buf)
	ctx := context.WithValue(req.Context(), middleware.UserIDKey, f.userID.String())
	ctx = context.WithValue(ctx, middleware.CampusIDKey, f.campus.ID.String())
	return req.WithContext(ctx)
}

func TestSubmitScanAccepted(t *testing.T) {
	f := newScanFixture(t)

	rec := httptest.NewRecorder()
	f.handler.SubmitScan(rec, f.authedRequest(http.MethodPost, "/api/v1/scans", map[string]any{
		"image_ref": "scans/bin-42.jpg",
		"lat":       39.78,
		"lon":       -89.65,
	}))

	require.Equal(t, http.StatusAccepted, rec.Code)

	var handle app.JobHandle
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &handle))
	assert.Equal(t, string(scan.StatePending), handle.Status)
	assert.Len(t, f.enqueuer.tasks, 1)
	assert.Contains(t, f.scanRepo.jobs, handle.JobID)
}

func TestSubmitScanValidation(t *testing.T) {
	f := newScanFixture(t)

	rec := httptest.NewRecorder()
	f.handler.SubmitScan(rec, f.authedRequest(http.MethodPost, "/api/v1/scans", map[string]any{
		"image_ref": "",
		"lat":       200.0,
		"lon":       -89.65,
	}))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Empty(t, f.enqueuer.tasks)
}

func TestSubmitScanRejectsUnknownFields(t *testing.T) {
	f := newScanFixture(t)

	rec := httptest.NewRecorder()
	f.handler.SubmitScan(rec, f.authedRequest(http.MethodPost, "/api/v1/scans", map[string]any{
		"image_ref": "scans/bin-42.jpg",
		"lat":       39.78,
		"lon":       -89.65,
		"extra":     true,
	}))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitScanWithoutIdentity(t *testing.T) {
	f := newScanFixture(t)

	body, _ := json.Marshal(map[string]any{
		"image_ref": "scans/bin-42.jpg",
		"lat":       39.78,
		"lon":       -89.65,
	})
	rec := httptest.NewRecorder()
	f.handler.SubmitScan(rec, httptest.NewRequest(http.MethodPost, "/api/v1/scans", bytes.NewReader(body)))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSubmitScanUnknownCampus(t *testing.T) {
	f := newScanFixture(t)

	rec := httptest.NewRecorder()
	f.handler.SubmitScan(rec, f.authedRequest(http.MethodPost, "/api/v1/scans", map[string]any{
		"image_ref": "scans/bin-42.jpg",
		"lat":       39.78,
		"lon":       -89.65,
		"campus_id": shared.NewID().String(),
	}))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetScanNotFound(t *testing.T) {
	f := newScanFixture(t)

	req := f.authedRequest(http.MethodGet, "/api/v1/scans/"+shared.NewID().String(), nil)
	req.SetPathValue("id", shared.NewID().String())
	rec := httptest.NewRecorder()
	f.handler.GetScan(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetScanInvalidID(t *testing.T) {
	f := newScanFixture(t)

	req := f.authedRequest(http.MethodGet, "/api/v1/scans/not-a-uuid", nil)
	req.SetPathValue("id", "not-a-uuid")
	rec := httptest.NewRecorder()
	f.handler.GetScan(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetScanReturnsJobWithResult(t *testing.T) {
	f := newScanFixture(t)

	job, err := scan.NewJob(f.userID, f.campus.ID, "scans/bin-42.jpg", 39.78, -89.65)
	require.NoError(t, err)
	job.State = scan.StateCompleted
	f.scanRepo.jobs[job.ID] = job

	result, err := scan.NewResult(job.ID, shared.NewID(), job.ImageRef, 4200)
	require.NoError(t, err)
	f.scanRepo.results[job.ID] = result

	req := f.authedRequest(http.MethodGet, "/api/v1/scans/"+job.ID.String(), nil)
	req.SetPathValue("id", job.ID.String())
	rec := httptest.NewRecorder()
	f.handler.GetScan(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp JobResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, string(scan.StateCompleted), resp.State)
	require.NotNil(t, resp.Result)
	assert.Equal(t, 4200.0, resp.Result.VolumeCm3)
}

func TestListResultsUsesTokenCampus(t *testing.T) {
	f := newScanFixture(t)

	job, err := scan.NewJob(f.userID, f.campus.ID, "scans/bin-42.jpg", 39.78, -89.65)
	require.NoError(t, err)
	f.scanRepo.jobs[job.ID] = job
	result, err := scan.NewResult(job.ID, shared.NewID(), job.ImageRef, 4200)
	require.NoError(t, err)
	f.scanRepo.results[job.ID] = result

	rec := httptest.NewRecorder()
	f.handler.ListResults(rec, f.authedRequest(http.MethodGet, "/api/v1/scans/results", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data []*ResultResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, 4200.0, resp.Data[0].VolumeCm3)
}

func squareRing() []zone.Point {
	return []zone.Point{
		{Lon: 0, Lat: 0}, {Lon: 1, Lat: 0}, {Lon: 1, Lat: 1}, {Lon: 0, Lat: 1}, {Lon: 0, Lat: 0},
	}
}

func TestGetZone(t *testing.T) {
	log := logger.NewDefault()
	zoneRepo := newStubZoneRepo()
	z, err := zone.NewZone(shared.NewID(), "LIB-N", zone.Ring(squareRing()))
	require.NoError(t, err)
	zoneRepo.zones[z.ID] = z
	h := NewZoneHandler(app.NewZoneService(zoneRepo, nil, nil, log), validator.New(), log)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/zones/"+z.ID.String(), nil)
	req.SetPathValue("id", z.ID.String())
	rec := httptest.NewRecorder()
	h.GetZone(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp ZoneResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "LIB-N", resp.Code)
	assert.Equal(t, string(zone.StatusGreen), resp.Status)
	assert.Len(t, resp.Boundary, 5)
}

func TestGetZoneNotFound(t *testing.T) {
	log := logger.NewDefault()
	h := NewZoneHandler(app.NewZoneService(newStubZoneRepo(), nil, nil, log), validator.New(), log)

	id := shared.NewID().String()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/zones/"+id, nil)
	req.SetPathValue("id", id)
	rec := httptest.NewRecorder()
	h.GetZone(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListCampusZones(t *testing.T) {
	log := logger.NewDefault()
	zoneRepo := newStubZoneRepo()
	campusID := shared.NewID()
	for _, code := range []string{"LIB-N", "LIB-S"} {
		z, err := zone.NewZone(campusID, code, zone.Ring(squareRing()))
		require.NoError(t, err)
		zoneRepo.zones[z.ID] = z
	}
	h := NewZoneHandler(app.NewZoneService(zoneRepo, nil, nil, log), validator.New(), log)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/campuses/"+campusID.String()+"/zones", nil)
	req.SetPathValue("id", campusID.String())
	rec := httptest.NewRecorder()
	h.ListCampusZones(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data []*ZoneResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Data, 2)
	// Boundaries stay out of the listing unless asked for.
	for _, z := range resp.Data {
		assert.Empty(t, z.Boundary)
	}
}
