package service

import (
	"context"
	"fmt"
	"time"

	"github.com/parkfan/occupancy-analytics/internal/analytics"
	"github.com/parkfan/occupancy-analytics/internal/models"
	"github.com/parkfan/occupancy-analytics/internal/repository"
)

// AnalyticsService handles business logic for occupancy, baselines and crowd levels
type AnalyticsService struct {
	engine *analytics.Engine
	parks  *repository.ParkRepository
	now    func() time.Time
}

// NewAnalyticsService creates a new analytics service
func NewAnalyticsService(engine *analytics.Engine, parks *repository.ParkRepository) *AnalyticsService {
	return &AnalyticsService{engine: engine, parks: parks, now: time.Now}
}

// Occupancy computes the occupancy of one park. An empty trend uses the configured mode.
func (s *AnalyticsService) Occupancy(ctx context.Context, parkID, trend string) (models.OccupancyResult, error) {
	return s.engine.Occupancy.ComputeOccupancyWithTrend(ctx, parkID, analytics.TrendMode(trend))
}

// BatchOccupancy computes occupancy for many parks; failed parks are omitted
func (s *AnalyticsService) BatchOccupancy(ctx context.Context, parkIDs []string) models.BatchOccupancyResponse {
	results := s.engine.Batch.ComputeBatchOccupancy(ctx, parkIDs)
	return models.BatchOccupancyResponse{
		Results:   results,
		Requested: len(parkIDs),
		Returned:  len(results),
	}
}

// NearbyOccupancy computes occupancy for the registered parks around a point
func (s *AnalyticsService) NearbyOccupancy(ctx context.Context, filter models.NearbyFilter) ([]models.NearbyOccupancy, error) {
	if filter.RadiusKm <= 0 {
		filter.RadiusKm = 50
	}
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}

	parks, err := s.parks.Nearby(ctx, *filter.Latitude, *filter.Longitude, filter.RadiusKm, filter.Limit)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(parks))
	for i, p := range parks {
		ids[i] = p.ID
	}
	results := s.engine.Batch.ComputeBatchOccupancy(ctx, ids)

	out := make([]models.NearbyOccupancy, len(parks))
	for i, p := range parks {
		out[i] = models.NearbyOccupancy{NearbyPark: p}
		if r, ok := results[p.ID]; ok {
			r := r
			out[i].Occupancy = &r
		}
	}
	return out, nil
}

// Feature returns the capped occupancy scalar of one park
func (s *AnalyticsService) Feature(ctx context.Context, parkID string) (models.OccupancyFeature, error) {
	return s.engine.Occupancy.ComputeFeature(ctx, parkID)
}

// Features returns capped features for the given parks in input order, skipping failures
func (s *AnalyticsService) Features(ctx context.Context, parkIDs []string) []models.OccupancyFeature {
	results := s.engine.Batch.ComputeBatchOccupancy(ctx, parkIDs)
	features := make([]models.OccupancyFeature, 0, len(results))
	seen := make(map[string]bool, len(results))
	for _, id := range parkIDs {
		r, ok := results[id]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		features = append(features, s.engine.Occupancy.Feature(r))
	}
	return features
}

// Baseline computes the baseline for one slot. Missing hour and day default to the
// current local time. With detail unset only the value is filled in.
func (s *AnalyticsService) Baseline(ctx context.Context, entityType, entityID string, params models.BaselineParams) (models.PercentileBaseline, error) {
	local := s.engine.Locations.Local(ctx, models.EntityRef{Type: models.EntityType(entityType), ID: entityID}, s.now())
	req := analytics.BaselineRequest{
		EntityType: models.EntityType(entityType),
		EntityID:   entityID,
		Hour:       local.Hour(),
		DayOfWeek:  int(local.Weekday()),
		Percentile: params.Percentile,
	}
	if params.Hour != nil {
		req.Hour = *params.Hour
	}
	if params.DayOfWeek != nil {
		req.DayOfWeek = *params.DayOfWeek
	}

	if params.Detail {
		return s.engine.Baselines.ComputeDetailed(ctx, req)
	}

	value, err := s.engine.Baselines.Compute(ctx, req)
	if err != nil {
		return models.PercentileBaseline{}, err
	}
	return models.PercentileBaseline{
		EntityType:      req.EntityType,
		EntityID:        req.EntityID,
		HourOfDay:       req.Hour,
		DayOfWeek:       req.DayOfWeek,
		Percentile:      effectivePercentile(params.Percentile, s.engine.Settings.Percentile),
		PercentileValue: value,
		ComputedAt:      s.now(),
	}, nil
}

func effectivePercentile(requested, fallback float64) float64 {
	switch {
	case requested == 0:
		return fallback
	case requested > 1:
		return requested / 100
	default:
		return requested
	}
}

// CrowdLevel classifies a percentage. An empty scheme name uses the configured scheme.
func (s *AnalyticsService) CrowdLevel(pct float64, scheme string) (models.CrowdLevelResult, error) {
	chosen := s.engine.Settings.Scheme
	if scheme != "" && scheme != chosen.Name {
		var ok bool
		if chosen, ok = analytics.SchemeByName(scheme); !ok {
			return models.CrowdLevelResult{}, fmt.Errorf("%w: unknown crowd scheme %q", ErrInvalidInput, scheme)
		}
	}
	return models.CrowdLevelResult{
		Occupancy:  pct,
		Scheme:     chosen.Name,
		CrowdLevel: analytics.ClassifyCrowdLevel(pct, chosen),
	}, nil
}

// LoadRating rates an attraction's current wait against its baseline. With an
// attraction ID, a closed or down latest sample rates the attraction "closed".
func (s *AnalyticsService) LoadRating(ctx context.Context, attractionID string, current, baseline float64) (models.LoadRating, error) {
	status, err := s.attractionStatus(ctx, attractionID)
	if err != nil {
		return models.LoadRating{}, err
	}
	return analytics.ClassifyAttractionLoad(status, current, baseline), nil
}

// PredictedCrowd rates a predicted wait against the P50 baseline. Without a P50 the
// attraction's 7-day rolling average is used when an attraction ID is given.
func (s *AnalyticsService) PredictedCrowd(ctx context.Context, attractionID string, predicted, p50 float64) (models.PredictedCrowd, error) {
	status, err := s.attractionStatus(ctx, attractionID)
	if err != nil {
		return models.PredictedCrowd{}, err
	}
	var rolling float64
	if p50 <= 0 && attractionID != "" {
		ref := models.EntityRef{Type: models.EntityTypeAttraction, ID: attractionID}
		if rolling, err = s.engine.Current.RollingAverage(ctx, ref); err != nil {
			return models.PredictedCrowd{}, err
		}
	}
	return analytics.ClassifyAttractionPrediction(status, predicted, p50, rolling), nil
}

func (s *AnalyticsService) attractionStatus(ctx context.Context, attractionID string) (string, error) {
	if attractionID == "" {
		return "", nil
	}
	return s.engine.Current.Status(ctx, models.EntityRef{Type: models.EntityTypeAttraction, ID: attractionID})
}
