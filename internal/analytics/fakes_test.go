package analytics

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/parkfan/occupancy-analytics/internal/cache"
	"github.com/parkfan/occupancy-analytics/internal/models"
	"github.com/parkfan/occupancy-analytics/internal/stats"
)

// Monday 2024-07-15 14:20 UTC
var testNow = time.Date(2024, 7, 15, 14, 20, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// fakeStore applies SampleQuery filters to an in-memory slice
type fakeStore struct {
	mu      sync.Mutex
	samples []models.WaitTimeSample
	err     error
	queries int
}

func (f *fakeStore) add(parkID, attractionID string, wait float64, at time.Time) {
	w := wait
	f.samples = append(f.samples, models.WaitTimeSample{
		AttractionID: attractionID,
		ParkID:       parkID,
		QueueType:    models.QueueTypeStandby,
		Status:       models.StatusOperating,
		WaitTime:     &w,
		RecordedAt:   at.Unix(),
		HourOfDay:    at.UTC().Hour(),
		DayOfWeek:    int(at.UTC().Weekday()),
	})
}

func (f *fakeStore) addWithStatus(parkID, attractionID, status string, wait float64, at time.Time) {
	f.add(parkID, attractionID, wait, at)
	f.samples[len(f.samples)-1].Status = status
}

func (f *fakeStore) matches(s models.WaitTimeSample, q models.SampleQuery) bool {
	switch q.Entity.Type {
	case models.EntityTypePark:
		if s.ParkID != q.Entity.ID {
			return false
		}
	case models.EntityTypeAttraction:
		if s.AttractionID != q.Entity.ID {
			return false
		}
	}
	if q.Status != "" && s.Status != q.Status {
		return false
	}
	if q.QueueType != "" && s.QueueType != q.QueueType {
		return false
	}
	if q.Since > 0 && s.RecordedAt < q.Since {
		return false
	}
	if q.Until > 0 && s.RecordedAt >= q.Until {
		return false
	}
	if q.HourOfDay != nil && s.HourOfDay != *q.HourOfDay {
		return false
	}
	if q.DayOfWeek != nil && s.DayOfWeek != *q.DayOfWeek {
		return false
	}
	if s.WaitTime == nil || *s.WaitTime < 0 {
		return false
	}
	if q.PositiveOnly && *s.WaitTime <= 0 {
		return false
	}
	if q.MinWaitTime != nil && *s.WaitTime < *q.MinWaitTime {
		return false
	}
	return true
}

func (f *fakeStore) WaitTimes(_ context.Context, q models.SampleQuery) ([]float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries++
	if f.err != nil {
		return nil, f.err
	}
	var out []float64
	for _, s := range f.samples {
		if f.matches(s, q) {
			out = append(out, *s.WaitTime)
		}
	}
	return out, nil
}

func (f *fakeStore) Average(ctx context.Context, q models.SampleQuery) (float64, int, error) {
	values, err := f.WaitTimes(ctx, q)
	if err != nil {
		return 0, 0, err
	}
	return stats.Mean(values), len(values), nil
}

func (f *fakeStore) CountActiveEntities(_ context.Context, parkID string, since int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	seen := map[string]bool{}
	for _, s := range f.samples {
		if s.ParkID == parkID && s.Status == models.StatusOperating && s.RecordedAt >= since {
			seen[s.AttractionID] = true
		}
	}
	return len(seen), nil
}

func (f *fakeStore) LatestStatus(_ context.Context, ref models.EntityRef, since int64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	var status string
	var newest int64 = -1
	for _, s := range f.samples {
		id := s.ParkID
		if ref.Type == models.EntityTypeAttraction {
			id = s.AttractionID
		}
		if id != ref.ID || s.RecordedAt < since || s.RecordedAt < newest {
			continue
		}
		newest, status = s.RecordedAt, s.Status
	}
	return status, nil
}

func (f *fakeStore) queryCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.queries
}

// fakeZones maps entity IDs to timezone names
type fakeZones struct {
	zones   map[string]string
	err     error
	lookups int
}

func (z *fakeZones) Timezone(_ context.Context, ref models.EntityRef) (string, error) {
	z.lookups++
	if z.err != nil {
		return "", z.err
	}
	return z.zones[ref.ID], nil
}

// failingCache errors on every call
type failingCache struct{}

var errCacheDown = errors.New("cache unavailable")

func (failingCache) Get(context.Context, string) (string, bool, error) { return "", false, errCacheDown }
func (failingCache) Set(context.Context, string, string, time.Duration) error {
	return errCacheDown
}
func (failingCache) MultiGet(context.Context, []string) (map[string]string, error) {
	return nil, errCacheDown
}

type recordingMetrics struct {
	mu        sync.Mutex
	baselines []string
	failures  int
}

func (r *recordingMetrics) BaselineComputed(entityType, window, specificity string) {
	r.mu.Lock()
	r.baselines = append(r.baselines, entityType+"/"+window+"/"+specificity)
	r.mu.Unlock()
}

func (r *recordingMetrics) BatchFailure() {
	r.mu.Lock()
	r.failures++
	r.mu.Unlock()
}

func testDeps(store SampleStore, c cache.Cache) Deps {
	return Deps{Store: store, Cache: c, Logger: discardLogger, Now: fixedClock}
}
