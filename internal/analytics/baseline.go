package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"time"

	"github.com/parkfan/occupancy-analytics/internal/cache"
	"github.com/parkfan/occupancy-analytics/internal/models"
	"github.com/parkfan/occupancy-analytics/internal/stats"
)

// BaselineRequest identifies one hour/day slot of one entity
type BaselineRequest struct {
	EntityType models.EntityType
	EntityID   string
	Hour       int
	DayOfWeek  int
	Percentile float64 // 0-1 or 1-100; 0 selects the configured default
}

// level is one rung of the specificity ladder
type level struct {
	specificity models.Specificity
	byHour      bool
	byDay       bool
	threshold   func(Thresholds) int
}

// levels are ordered most to least specific. The last one is accepted unconditionally.
var levels = []level{
	{models.SpecificityStrict, true, true, func(t Thresholds) int { return t.Strict }},
	{models.SpecificitySameHour, true, false, func(t Thresholds) int { return t.SameHour }},
	{models.SpecificitySameDay, false, true, func(t Thresholds) int { return t.SameDay }},
	{models.SpecificityAny, false, false, nil},
}

// distributionQuantiles fill models.BaselineDistribution in field order
var distributionQuantiles = []float64{.25, .5, .75, .9, .95}

// BaselineCalculator computes historical percentile baselines with a cascading fallback
type BaselineCalculator struct {
	deps     Deps
	settings Settings
	logger   *slog.Logger
}

// NewBaselineCalculator creates a calculator
func NewBaselineCalculator(deps Deps, settings Settings) *BaselineCalculator {
	deps = deps.withDefaults()
	return &BaselineCalculator{
		deps:     deps,
		settings: settings,
		logger:   deps.Logger.With("component", "baseline"),
	}
}

func (b *BaselineCalculator) validate(req *BaselineRequest) (float64, error) {
	if req.EntityID == "" {
		return 0, ErrEmptyEntityID
	}
	if !req.EntityType.Valid() {
		return 0, ErrInvalidEntityType
	}
	if req.Hour < 0 || req.Hour > 23 {
		return 0, ErrInvalidHour
	}
	if req.DayOfWeek < 0 || req.DayOfWeek > 6 {
		return 0, ErrInvalidDayOfWeek
	}
	if req.Percentile == 0 {
		return b.settings.Percentile, nil
	}
	q, ok := stats.NormalizeQuantile(req.Percentile)
	if !ok {
		return 0, ErrInvalidPercentile
	}
	return q, nil
}

// Compute returns the baseline in whole minutes, 0 when there is no history.
// Only the default percentile is cached since the shared key carries no percentile.
func (b *BaselineCalculator) Compute(ctx context.Context, req BaselineRequest) (int, error) {
	q, err := b.validate(&req)
	if err != nil {
		return 0, err
	}
	cacheable := q == b.settings.Percentile
	key := cache.BaselineKey(string(req.EntityType), req.EntityID, req.Hour, req.DayOfWeek)

	if cacheable {
		if v, ok := b.cached(ctx, key); ok {
			return v, nil
		}
	}

	baseline, err := b.compute(ctx, req, q)
	if err != nil {
		return 0, err
	}
	if cacheable {
		b.store(ctx, key, baseline.PercentileValue)
	}
	return baseline.PercentileValue, nil
}

// ComputeDetailed always reads the sample store and reports how the value was found
func (b *BaselineCalculator) ComputeDetailed(ctx context.Context, req BaselineRequest) (models.PercentileBaseline, error) {
	q, err := b.validate(&req)
	if err != nil {
		return models.PercentileBaseline{}, err
	}
	baseline, err := b.compute(ctx, req, q)
	if err != nil {
		return models.PercentileBaseline{}, err
	}
	if q == b.settings.Percentile {
		b.store(ctx, cache.BaselineKey(string(req.EntityType), req.EntityID, req.Hour, req.DayOfWeek), baseline.PercentileValue)
	}
	return baseline, nil
}

func (b *BaselineCalculator) cached(ctx context.Context, key string) (int, bool) {
	raw, ok, err := b.deps.Cache.Get(ctx, key)
	if err != nil {
		b.logger.Warn("cache read failed, recomputing", "key", key, "error", err)
		return 0, false
	}
	if !ok {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		b.logger.Warn("ignoring malformed cached baseline", "key", key, "value", raw)
		return 0, false
	}
	return v, true
}

func (b *BaselineCalculator) store(ctx context.Context, key string, value int) {
	ttl := b.settings.BaselineTTL
	if value == 0 {
		ttl = b.settings.EmptyBaselineTTL
	}
	if err := b.deps.Cache.Set(ctx, key, strconv.Itoa(value), ttl); err != nil {
		b.logger.Warn("cache write failed", "key", key, "error", err)
	}
}

func (b *BaselineCalculator) compute(ctx context.Context, req BaselineRequest, q float64) (models.PercentileBaseline, error) {
	now := b.deps.Now()
	result := models.PercentileBaseline{
		EntityType:       req.EntityType,
		EntityID:         req.EntityID,
		HourOfDay:        req.Hour,
		DayOfWeek:        req.DayOfWeek,
		Percentile:       q,
		SpecificityLevel: models.SpecificityNone,
		ComputedAt:       now,
	}
	thresholds := b.settings.Thresholds[req.EntityType]

	for _, window := range b.settings.Windows {
		values, specificity, err := b.searchWindow(ctx, req, window, thresholds, now)
		if err != nil {
			return result, err
		}
		if len(values) == 0 {
			continue
		}

		ranks := stats.NearestRanks(values, append([]float64{q}, distributionQuantiles...))
		result.PercentileValue = int(math.Round(ranks[0]))
		result.Distribution = &models.BaselineDistribution{
			P25: int(math.Round(ranks[1])),
			P50: int(math.Round(ranks[2])),
			P75: int(math.Round(ranks[3])),
			P90: int(math.Round(ranks[4])),
			P95: int(math.Round(ranks[5])),
		}
		result.SampleCount = len(values)
		result.WindowUsed = window.Name
		result.SpecificityLevel = specificity
		b.deps.Metrics.BaselineComputed(string(req.EntityType), window.Name, string(specificity))
		b.logger.Debug("baseline computed",
			"entity", req.EntityID, "type", req.EntityType,
			"hour", req.Hour, "day", req.DayOfWeek,
			"window", window.Name, "specificity", specificity,
			"samples", len(values), "value", result.PercentileValue)
		return result, nil
	}

	b.deps.Metrics.BaselineComputed(string(req.EntityType), "", string(models.SpecificityNone))
	return result, nil
}

// searchWindow walks the specificity levels of one window. A level meeting its
// threshold wins immediately; otherwise the most specific non-empty level is kept
// as a candidate and preferred over the unconditional last level.
func (b *BaselineCalculator) searchWindow(ctx context.Context, req BaselineRequest, window Window, thresholds Thresholds, now time.Time) ([]float64, models.Specificity, error) {
	var candidate []float64
	var candidateSpec models.Specificity

	for _, lv := range levels {
		if lv.threshold == nil && candidate != nil {
			return candidate, candidateSpec, nil
		}

		values, err := b.deps.Store.WaitTimes(ctx, b.query(req, window, lv, now))
		if err != nil {
			return nil, "", fmt.Errorf("failed to load %s samples for %s %s: %w", lv.specificity, req.EntityType, req.EntityID, err)
		}
		if len(values) == 0 {
			continue
		}
		if lv.threshold == nil || len(values) >= lv.threshold(thresholds) {
			return values, lv.specificity, nil
		}
		if candidate == nil {
			candidate, candidateSpec = values, lv.specificity
		}
	}
	return candidate, candidateSpec, nil
}

func (b *BaselineCalculator) query(req BaselineRequest, window Window, lv level, now time.Time) models.SampleQuery {
	q := models.SampleQuery{
		Entity:       models.EntityRef{Type: req.EntityType, ID: req.EntityID},
		Status:       models.StatusOperating,
		QueueType:    b.settings.QueueType,
		PositiveOnly: true,
	}
	if window.Lookback > 0 {
		q.Since = now.Add(-window.Lookback).Unix()
	}
	if lv.byHour {
		hour := req.Hour
		q.HourOfDay = &hour
	}
	if lv.byDay {
		day := req.DayOfWeek
		q.DayOfWeek = &day
	}
	return q
}
