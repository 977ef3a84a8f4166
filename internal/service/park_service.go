package service

import (
	"context"
	"fmt"
	"time"

	"github.com/parkfan/occupancy-analytics/internal/models"
	"github.com/parkfan/occupancy-analytics/internal/repository"
)

// ParkService handles business logic for the park registry
type ParkService struct {
	repo *repository.ParkRepository
}

// NewParkService creates a new park service
func NewParkService(repo *repository.ParkRepository) *ParkService {
	return &ParkService{repo: repo}
}

// ListParks returns every registered park
func (s *ParkService) ListParks(ctx context.Context) ([]models.Park, error) {
	return s.repo.List(ctx)
}

// GetPark retrieves a single park by ID
func (s *ParkService) GetPark(ctx context.Context, id string) (*models.Park, error) {
	return s.repo.Get(ctx, id)
}

// SavePark creates or replaces a park
func (s *ParkService) SavePark(ctx context.Context, p models.Park) error {
	if p.ID == "" {
		return fmt.Errorf("%w: park id is required", ErrInvalidInput)
	}
	if p.Timezone != "" {
		if _, err := time.LoadLocation(p.Timezone); err != nil {
			return fmt.Errorf("%w: unknown timezone %q", ErrInvalidInput, p.Timezone)
		}
	}
	return s.repo.Upsert(ctx, p)
}
