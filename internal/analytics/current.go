package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/parkfan/occupancy-analytics/internal/models"
	"github.com/parkfan/occupancy-analytics/internal/stats"
)

// CurrentReading is the recent-window summary for one entity
type CurrentReading struct {
	// Value is the filtered average, nil when the window has no eligible samples
	Value *float64
	// RawAverage is the average with no wait floor applied
	RawAverage float64
	// Qualifying is how many samples met the floor
	Qualifying int
	// Total is how many samples the window held
	Total int
}

// CurrentAggregator computes a representative "right now" wait for an entity
type CurrentAggregator struct {
	deps     Deps
	settings Settings
	logger   *slog.Logger
}

// NewCurrentAggregator creates an aggregator
func NewCurrentAggregator(deps Deps, settings Settings) *CurrentAggregator {
	deps = deps.withDefaults()
	return &CurrentAggregator{
		deps:     deps,
		settings: settings,
		logger:   deps.Logger.With("component", "current"),
	}
}

// CurrentAverage averages recent OPERATING waits at or above minWaitTime. When fewer
// than the configured number of samples qualify it falls back to every recent sample.
func (a *CurrentAggregator) CurrentAverage(ctx context.Context, ref models.EntityRef, minWaitTime float64) (*float64, error) {
	reading, err := a.Read(ctx, ref, minWaitTime)
	if err != nil {
		return nil, err
	}
	return reading.Value, nil
}

// Read is CurrentAverage plus the unfiltered figures used by occupancy breakdowns.
// Both come from a single query.
func (a *CurrentAggregator) Read(ctx context.Context, ref models.EntityRef, minWaitTime float64) (CurrentReading, error) {
	if ref.ID == "" {
		return CurrentReading{}, ErrEmptyEntityID
	}
	now := a.deps.Now()
	values, err := a.deps.Store.WaitTimes(ctx, models.SampleQuery{
		Entity:    ref,
		Status:    models.StatusOperating,
		QueueType: a.settings.QueueType,
		Since:     now.Add(-a.settings.CurrentWindow).Unix(),
	})
	if err != nil {
		return CurrentReading{}, fmt.Errorf("failed to load recent samples for %s: %w", ref.ID, err)
	}

	reading := CurrentReading{Total: len(values)}
	if len(values) == 0 {
		return reading, nil
	}
	reading.RawAverage = stats.Mean(values)

	filtered := stats.FilterMin(values, minWaitTime)
	reading.Qualifying = len(filtered)

	value := reading.RawAverage
	if len(filtered) >= a.settings.MinQualifying && len(filtered) > 0 {
		value = stats.Mean(filtered)
	} else if minWaitTime > 0 {
		a.logger.Debug("too few samples above wait floor, using all recent samples",
			"entity", ref.ID, "qualifying", len(filtered), "total", len(values))
	}
	reading.Value = &value
	return reading, nil
}

// PredictionRollingWindow is the lookback of the rolling average used when a prediction has no P50
const PredictionRollingWindow = 7 * 24 * time.Hour

// Status returns the status of the entity's newest sample in the current window, "" when silent
func (a *CurrentAggregator) Status(ctx context.Context, ref models.EntityRef) (string, error) {
	if ref.ID == "" {
		return "", ErrEmptyEntityID
	}
	since := a.deps.Now().Add(-a.settings.CurrentWindow).Unix()
	status, err := a.deps.Store.LatestStatus(ctx, ref, since)
	if err != nil {
		return "", fmt.Errorf("failed to load status for %s: %w", ref.ID, err)
	}
	return status, nil
}

// RollingAverage is the mean OPERATING wait over PredictionRollingWindow, 0 without samples
func (a *CurrentAggregator) RollingAverage(ctx context.Context, ref models.EntityRef) (float64, error) {
	if ref.ID == "" {
		return 0, ErrEmptyEntityID
	}
	avg, count, err := a.deps.Store.Average(ctx, models.SampleQuery{
		Entity:    ref,
		Status:    models.StatusOperating,
		QueueType: a.settings.QueueType,
		Since:     a.deps.Now().Add(-PredictionRollingWindow).Unix(),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to load rolling average for %s: %w", ref.ID, err)
	}
	if count == 0 {
		return 0, nil
	}
	return avg, nil
}
