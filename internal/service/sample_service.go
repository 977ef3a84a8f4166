package service

import (
	"context"
	"fmt"
	"time"

	"github.com/parkfan/occupancy-analytics/internal/models"
	"github.com/parkfan/occupancy-analytics/internal/repository"
)

var validStatuses = map[string]bool{
	models.StatusOperating:     true,
	models.StatusDown:          true,
	models.StatusClosed:        true,
	models.StatusRefurbishment: true,
}

var validQueueTypes = map[string]bool{
	models.QueueTypeStandby:        true,
	models.QueueTypeSingleRider:    true,
	models.QueueTypeReturnTime:     true,
	models.QueueTypePaidReturnTime: true,
	models.QueueTypeBoardingGroup:  true,
}

// SampleService handles ingestion and lookup of wait-time samples
type SampleService struct {
	repo *repository.SampleRepository
}

// NewSampleService creates a new sample service
func NewSampleService(repo *repository.SampleRepository) *SampleService {
	return &SampleService{repo: repo}
}

// Ingest validates and stores samples
func (s *SampleService) Ingest(ctx context.Context, samples []models.WaitTimeSample) (models.IngestResponse, error) {
	for i, sample := range samples {
		if sample.Status != "" && !validStatuses[sample.Status] {
			return models.IngestResponse{}, fmt.Errorf("%w: sample %d has unknown status %q", ErrInvalidInput, i, sample.Status)
		}
		if sample.QueueType != "" && !validQueueTypes[sample.QueueType] {
			return models.IngestResponse{}, fmt.Errorf("%w: sample %d has unknown queue type %q", ErrInvalidInput, i, sample.QueueType)
		}
		if sample.WaitTime != nil && *sample.WaitTime < 0 {
			return models.IngestResponse{}, fmt.Errorf("%w: sample %d has a negative wait time", ErrInvalidInput, i)
		}
	}

	stored, err := s.repo.InsertSamples(ctx, samples)
	if err != nil {
		return models.IngestResponse{}, err
	}
	ids := make([]string, len(stored))
	for i, st := range stored {
		ids[i] = st.ID
	}
	return models.IngestResponse{Inserted: len(stored), IDs: ids}, nil
}

// RecentSamples returns the newest OPERATING samples of an entity from the last window
func (s *SampleService) RecentSamples(ctx context.Context, entityType, entityID string, window time.Duration, limit int) ([]models.WaitSample, error) {
	ref := models.EntityRef{Type: models.EntityType(entityType), ID: entityID}
	if !ref.Type.Valid() {
		return nil, fmt.Errorf("%w: entity type must be park or attraction", ErrInvalidInput)
	}
	if window <= 0 {
		window = 24 * time.Hour
	}
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	samples, err := s.repo.Samples(ctx, models.SampleQuery{
		Entity: ref,
		Status: models.StatusOperating,
		Since:  time.Now().Add(-window).Unix(),
	}, limit)
	if err != nil {
		return nil, err
	}
	if samples == nil {
		samples = []models.WaitSample{}
	}
	return samples, nil
}
