package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"

	"github.com/parkfan/occupancy-analytics/internal/cache"
	"github.com/parkfan/occupancy-analytics/internal/models"
	"github.com/parkfan/occupancy-analytics/internal/stats"
)

// NeutralOccupancy is reported when there is no baseline to compare against
const NeutralOccupancy = 50

// OccupancyEngine combines current conditions and baselines into occupancy readings for parks
type OccupancyEngine struct {
	deps      Deps
	settings  Settings
	current   *CurrentAggregator
	baselines *BaselineCalculator
	locations *Locator
	logger    *slog.Logger
}

// NewOccupancyEngine creates an engine
func NewOccupancyEngine(deps Deps, settings Settings, current *CurrentAggregator, baselines *BaselineCalculator) *OccupancyEngine {
	deps = deps.withDefaults()
	return &OccupancyEngine{
		deps:      deps,
		settings:  settings,
		current:   current,
		baselines: baselines,
		locations: NewLocator(deps.Zones, settings.Location, deps.Logger),
		logger:    deps.Logger.With("component", "occupancy"),
	}
}

// ComputeOccupancy computes the occupancy of a park using the configured trend mode
// and refreshes its cached result.
func (e *OccupancyEngine) ComputeOccupancy(ctx context.Context, parkID string) (models.OccupancyResult, error) {
	result, err := e.compute(ctx, parkID, e.settings.TrendMode)
	if err != nil {
		return result, err
	}
	e.cacheResult(ctx, result)
	return result, nil
}

// ComputeOccupancyWithTrend is ComputeOccupancy with an explicit trend mode.
// Only results using the configured mode are cached.
func (e *OccupancyEngine) ComputeOccupancyWithTrend(ctx context.Context, parkID string, mode TrendMode) (models.OccupancyResult, error) {
	if mode == "" || mode == e.settings.TrendMode {
		return e.ComputeOccupancy(ctx, parkID)
	}
	if !mode.Valid() {
		return models.OccupancyResult{}, fmt.Errorf("%w: got %q", ErrInvalidTrendMode, mode)
	}
	return e.compute(ctx, parkID, mode)
}

// ComputeFeature returns the occupancy scalar for downstream feature consumers, capped
func (e *OccupancyEngine) ComputeFeature(ctx context.Context, parkID string) (models.OccupancyFeature, error) {
	result, err := e.ComputeOccupancy(ctx, parkID)
	if err != nil {
		return models.OccupancyFeature{}, err
	}
	return e.Feature(result), nil
}

// Feature converts an occupancy result into its capped feature form
func (e *OccupancyEngine) Feature(result models.OccupancyResult) models.OccupancyFeature {
	return models.OccupancyFeature{
		ParkID:       result.EntityID,
		OccupancyPct: CapOccupancy(result.OccupancyPercentage, e.settings.FeatureCap),
		ComputedAt:   result.ComputedAt,
	}
}

// CapOccupancy bounds a percentage to [0, limit]
func CapOccupancy(pct, limit int) int {
	if pct < 0 {
		return 0
	}
	if pct > limit {
		return limit
	}
	return pct
}

func (e *OccupancyEngine) compute(ctx context.Context, parkID string, mode TrendMode) (models.OccupancyResult, error) {
	if parkID == "" {
		return models.OccupancyResult{}, ErrEmptyEntityID
	}
	now := e.deps.Now()
	ref := models.EntityRef{Type: models.EntityTypePark, ID: parkID}
	result := models.OccupancyResult{
		EntityID:         parkID,
		Trend:            models.TrendStable,
		ComparisonStatus: models.ComparisonTypical,
		ComputedAt:       now,
	}

	reading, err := e.current.Read(ctx, ref, e.settings.MinWaitTime)
	if err != nil {
		return result, err
	}
	if reading.Value == nil {
		result.CrowdLevel = e.settings.Scheme.Classify(0)
		return result, nil
	}
	current := *reading.Value
	result.CurrentValue = stats.Round(current, 1)
	result.Breakdown.CurrentAvg = int(math.Round(reading.RawAverage))

	local := e.locations.Local(ctx, ref, now)
	baseline, err := e.baselines.Compute(ctx, BaselineRequest{
		EntityType: models.EntityTypePark,
		EntityID:   parkID,
		Hour:       local.Hour(),
		DayOfWeek:  int(local.Weekday()),
	})
	if err != nil {
		return result, err
	}
	if baseline == 0 {
		result.OccupancyPercentage = NeutralOccupancy
		result.CrowdLevel = e.settings.Scheme.Classify(NeutralOccupancy)
		return result, nil
	}

	result.BaselineValue = baseline
	result.OccupancyPercentage = int(math.Round(current / float64(baseline) * 100))
	result.CrowdLevel = e.settings.Scheme.Classify(float64(result.OccupancyPercentage))

	if result.Trend, err = e.trend(ctx, ref, now, mode); err != nil {
		return result, err
	}

	typical, count, err := e.deps.Store.Average(ctx, models.SampleQuery{
		Entity:    ref,
		Status:    models.StatusOperating,
		QueueType: e.settings.QueueType,
		Since:     now.Add(-e.settings.TypicalWindow).Unix(),
	})
	if err != nil {
		return result, fmt.Errorf("failed to load typical average for %s: %w", parkID, err)
	}
	if count > 0 {
		result.Breakdown.TypicalAvg = int(math.Round(typical))
		result.ComparedToTypical = stats.Round(current-typical, 1)
		result.ComparisonStatus = compareToTypical(current-typical, e.settings.TypicalThreshold)
	}

	active, err := e.deps.Store.CountActiveEntities(ctx, parkID, now.Add(-e.settings.CurrentWindow).Unix())
	if err != nil {
		return result, fmt.Errorf("failed to count active attractions for %s: %w", parkID, err)
	}
	result.Breakdown.ActiveCount = active

	return result, nil
}

func compareToTypical(diff, threshold float64) models.ComparisonStatus {
	switch {
	case diff > threshold:
		return models.ComparisonHigher
	case diff < -threshold:
		return models.ComparisonLower
	default:
		return models.ComparisonTypical
	}
}

func (e *OccupancyEngine) cacheResult(ctx context.Context, result models.OccupancyResult) {
	if e.settings.OccupancyTTL <= 0 {
		return
	}
	payload, err := json.Marshal(result)
	if err != nil {
		e.logger.Warn("failed to encode occupancy result", "entity", result.EntityID, "error", err)
		return
	}
	key := cache.OccupancyKey(result.EntityID)
	if err := e.deps.Cache.Set(ctx, key, string(payload), e.settings.OccupancyTTL); err != nil {
		e.logger.Warn("cache write failed", "key", key, "error", err)
	}
}
