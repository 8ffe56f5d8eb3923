package app

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/binsight/api/pkg/domain/campus"
	"github.com/binsight/api/pkg/domain/scan"
	"github.com/binsight/api/pkg/domain/shared"
	"github.com/binsight/api/pkg/domain/zone"
)

// memStore is a shared in-memory backing store for the fake
// repositories, mirroring the transactional semantics of the real ones.
type memStore struct {
	mu       sync.Mutex
	campuses map[shared.ID]*campus.Campus
	zones    map[shared.ID]*zone.Zone
	jobs     map[shared.ID]*scan.Job
	results  map[shared.ID]*scan.Result // keyed by job ID
}

func newMemStore() *memStore {
	return &memStore{
		campuses: make(map[shared.ID]*campus.Campus),
		zones:    make(map[shared.ID]*zone.Zone),
		jobs:     make(map[shared.ID]*scan.Job),
		results:  make(map[shared.ID]*scan.Result),
	}
}

func (s *memStore) sumVolume(zoneID shared.ID) float64 {
	var sum float64
	for _, r := range s.results {
		if r.ZoneID == zoneID {
			sum += r.VolumeCm3
		}
	}
	return sum
}

// recomputeZoneLocked re-derives a zone's status from the full result
// sum. Caller holds the lock.
func (s *memStore) recomputeZoneLocked(zoneID shared.ID) (*zone.Zone, error) {
	z, ok := s.zones[zoneID]
	if !ok {
		return nil, zone.ErrNotFound
	}
	sum := s.sumVolume(zoneID)
	now := time.Now().UTC()
	z.LastScore = sum
	z.Status = zone.Classify(sum)
	z.LastScannedAt = &now
	z.UpdatedAt = now
	copied := *z
	return &copied, nil
}

type fakeCampusRepo struct{ s *memStore }

func (r *fakeCampusRepo) Create(_ context.Context, c *campus.Campus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.campuses[c.ID] = c
	return nil
}

func (r *fakeCampusRepo) GetByID(_ context.Context, id shared.ID) (*campus.Campus, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.campuses[id]
	if !ok {
		return nil, campus.ErrNotFound
	}
	return c, nil
}

func (r *fakeCampusRepo) List(_ context.Context) ([]*campus.Campus, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*campus.Campus, 0, len(r.s.campuses))
	for _, c := range r.s.campuses {
		out = append(out, c)
	}
	return out, nil
}

type fakeZoneRepo struct{ s *memStore }

func (r *fakeZoneRepo) Create(_ context.Context, z *zone.Zone) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.zones[z.ID] = z
	return nil
}

func (r *fakeZoneRepo) GetByID(_ context.Context, id shared.ID) (*zone.Zone, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	z, ok := r.s.zones[id]
	if !ok {
		return nil, zone.ErrNotFound
	}
	copied := *z
	return &copied, nil
}

func (r *fakeZoneRepo) ListByCampus(_ context.Context, campusID shared.ID) ([]*zone.Zone, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*zone.Zone
	for _, z := range r.s.zones {
		if z.CampusID == campusID {
			copied := *z
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

func (r *fakeZoneRepo) RecomputeStatus(_ context.Context, id shared.ID) (*zone.Zone, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.recomputeZoneLocked(id)
}

func (r *fakeZoneRepo) ListIDs(_ context.Context) ([]shared.ID, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ids := make([]shared.ID, 0, len(r.s.zones))
	for id := range r.s.zones {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids, nil
}

type fakeScanRepo struct{ s *memStore }

func (r *fakeScanRepo) CreateJob(_ context.Context, j *scan.Job) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	copied := *j
	r.s.jobs[j.ID] = &copied
	return nil
}

func (r *fakeScanRepo) GetJob(_ context.Context, id shared.ID) (*scan.Job, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	j, ok := r.s.jobs[id]
	if !ok {
		return nil, scan.ErrJobNotFound
	}
	copied := *j
	return &copied, nil
}

func (r *fakeScanRepo) GetJobResult(_ context.Context, jobID shared.ID) (*scan.Result, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	res, ok := r.s.results[jobID]
	if !ok {
		return nil, scan.ErrResultNotFound
	}
	copied := *res
	return &copied, nil
}

func (r *fakeScanRepo) MarkJobProcessing(_ context.Context, id shared.ID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	j, ok := r.s.jobs[id]
	if !ok {
		return scan.ErrJobNotFound
	}
	if j.State.IsTerminal() {
		return scan.ErrJobTerminal
	}
	j.State = scan.StateProcessing
	return nil
}

func (r *fakeScanRepo) MarkJobCompleted(_ context.Context, id shared.ID) error {
	return r.finishJob(id, scan.StateCompleted, "")
}

func (r *fakeScanRepo) MarkJobFailed(_ context.Context, id shared.ID, reason string) error {
	return r.finishJob(id, scan.StateFailed, reason)
}

func (r *fakeScanRepo) finishJob(id shared.ID, state scan.State, reason string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	j, ok := r.s.jobs[id]
	if !ok {
		return scan.ErrJobNotFound
	}
	if j.State.IsTerminal() {
		return scan.ErrJobTerminal
	}
	now := time.Now().UTC()
	j.State = state
	j.FailReason = reason
	j.CompletedAt = &now
	return nil
}

func (r *fakeScanRepo) RecordResult(_ context.Context, res *scan.Result) (*scan.RecordOutcome, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	j, ok := r.s.jobs[res.JobID]
	if !ok {
		return nil, scan.ErrJobNotFound
	}
	if j.State == scan.StateCompleted {
		return nil, scan.ErrJobAlreadyCompleted
	}

	copied := *res
	r.s.results[res.JobID] = &copied

	now := time.Now().UTC()
	j.State = scan.StateCompleted
	j.CompletedAt = &now

	z, err := r.s.recomputeZoneLocked(res.ZoneID)
	if err != nil {
		return nil, err
	}
	return &scan.RecordOutcome{
		Result:     &copied,
		ZoneScore:  z.LastScore,
		ZoneStatus: string(z.Status),
	}, nil
}

func (r *fakeScanRepo) SumVolumeByZone(_ context.Context, zoneID shared.ID) (float64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.sumVolume(zoneID), nil
}

func (r *fakeScanRepo) ListResultsByCampus(_ context.Context, campusID shared.ID, limit int) ([]*scan.Result, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*scan.Result
	for jobID, res := range r.s.results {
		if j, ok := r.s.jobs[jobID]; ok && j.CampusID == campusID {
			copied := *res
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProcessedAt.After(out[j].ProcessedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeScanRepo) ListStaleJobs(_ context.Context, state scan.State, cutoff time.Time, limit int) ([]*scan.Job, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*scan.Job
	for _, j := range r.s.jobs {
		if j.State == state && j.CreatedAt.Before(cutoff) {
			copied := *j
			out = append(out, &copied)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakeZoneCache struct {
	mu      sync.Mutex
	entries map[string][]*zone.Zone
	gets    int
	hits    int
}

func newFakeZoneCache() *fakeZoneCache {
	return &fakeZoneCache{entries: make(map[string][]*zone.Zone)}
}

func (c *fakeZoneCache) Get(_ context.Context, key string) (*[]*zone.Zone, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	zones, ok := c.entries[key]
	if !ok {
		return nil, errors.New("cache miss")
	}
	c.hits++
	return &zones, nil
}

func (c *fakeZoneCache) Set(_ context.Context, key string, zones []*zone.Zone) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = zones
	return nil
}

type fakeEnqueuer struct {
	mu    sync.Mutex
	tasks []ProcessScanTask
	err   error
}

func (e *fakeEnqueuer) EnqueueProcessScan(_ context.Context, t ProcessScanTask) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return e.err
	}
	e.tasks = append(e.tasks, t)
	return nil
}

type fakeFetcher struct {
	path     string
	err      error
	released bool
}

func (f *fakeFetcher) FetchToScratch(_ context.Context, _ string) (string, func(), error) {
	if f.err != nil {
		return "", nil, f.err
	}
	return f.path, func() { f.released = true }, nil
}

type fakePresigner struct {
	err error
}

func (p *fakePresigner) PresignGet(_ context.Context, imageRef string, _ time.Duration) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	return "https://storage.test/" + imageRef + "?signed", nil
}

type fakeEstimator struct {
	volume float64
	err    error
}

func (e *fakeEstimator) Estimate(_ context.Context, _ string) (float64, error) {
	if e.err != nil {
		return 0, e.err
	}
	return e.volume, nil
}

type broadcastEvent struct {
	zoneCode string
	status   string
	score    float64
}

type fakeBroadcaster struct {
	mu     sync.Mutex
	events []broadcastEvent
}

func (b *fakeBroadcaster) BroadcastZoneStatus(_, _, zoneCode, status string, score float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, broadcastEvent{zoneCode: zoneCode, status: status, score: score})
}
