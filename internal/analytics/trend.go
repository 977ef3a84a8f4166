package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/parkfan/occupancy-analytics/internal/models"
)

// ClassifyTrend maps a wait-time delta in minutes to a direction.
// Deltas within ±threshold are stable.
func ClassifyTrend(delta, threshold float64) models.Trend {
	switch {
	case delta > threshold:
		return models.TrendUp
	case delta < -threshold:
		return models.TrendDown
	default:
		return models.TrendStable
	}
}

// bucketAverages returns the average wait of n consecutive buckets ending at now,
// oldest first. A nil entry marks an empty bucket.
func (e *OccupancyEngine) bucketAverages(ctx context.Context, ref models.EntityRef, now time.Time, n int) ([]*float64, error) {
	bucket := e.settings.TrendBucket
	out := make([]*float64, n)
	for i := 0; i < n; i++ {
		until := now.Add(-time.Duration(n-1-i) * bucket)
		avg, count, err := e.deps.Store.Average(ctx, models.SampleQuery{
			Entity:    ref,
			Status:    models.StatusOperating,
			QueueType: e.settings.QueueType,
			Since:     until.Add(-bucket).Unix(),
			Until:     until.Unix(),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to load trend bucket for %s: %w", ref.ID, err)
		}
		if count > 0 {
			v := avg
			out[i] = &v
		}
	}
	return out, nil
}

// trend measures the short-term direction. Hourly compares the last bucket with the
// one before it; smoothed averages the two consecutive deltas across three buckets.
// Missing buckets drop their deltas and no deltas at all means stable.
func (e *OccupancyEngine) trend(ctx context.Context, ref models.EntityRef, now time.Time, mode TrendMode) (models.Trend, error) {
	n := 2
	if mode == TrendSmoothed {
		n = 3
	}
	avgs, err := e.bucketAverages(ctx, ref, now, n)
	if err != nil {
		return models.TrendStable, err
	}

	var sum float64
	var deltas int
	for i := 1; i < len(avgs); i++ {
		if avgs[i] == nil || avgs[i-1] == nil {
			continue
		}
		sum += *avgs[i] - *avgs[i-1]
		deltas++
	}
	if deltas == 0 {
		return models.TrendStable, nil
	}
	return ClassifyTrend(sum/float64(deltas), e.settings.TrendThreshold), nil
}
