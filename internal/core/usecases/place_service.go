package usecases

import (
	"context"
	"fmt"

	"github.com/tanbirz/manchitra/internal/core/domain"
	"github.com/tanbirz/manchitra/internal/core/ports"
)

// PlaceService serves the embedded marker catalog.
type PlaceService struct {
	places ports.PlaceRepository
}

// NewPlaceService creates a new PlaceService.
func NewPlaceService(places ports.PlaceRepository) *PlaceService {
	return &PlaceService{places: places}
}

// List returns the full catalog.
func (s *PlaceService) List(ctx context.Context) ([]domain.Place, error) {
	return s.places.List(ctx)
}

// GetByID returns a single place.
func (s *PlaceService) GetByID(ctx context.Context, id string) (*domain.Place, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: place id must not be empty", domain.ErrInvalidArgument)
	}
	return s.places.GetByID(ctx, id)
}

// FindNearby returns places within radiusKm of center, closest first.
func (s *PlaceService) FindNearby(ctx context.Context, center domain.Coordinate, radiusKm float64, limit int) ([]domain.Place, error) {
	if !center.Valid() {
		return nil, fmt.Errorf("%w: center out of range", domain.ErrInvalidArgument)
	}
	if radiusKm <= 0 {
		return nil, fmt.Errorf("%w: radius must be positive", domain.ErrInvalidArgument)
	}
	if limit <= 0 || limit > 50 {
		limit = 50
	}
	return s.places.FindNearby(ctx, center, radiusKm, limit)
}

// Search performs a case-insensitive name match on the catalog.
func (s *PlaceService) Search(ctx context.Context, query string, limit int) ([]domain.Place, error) {
	if query == "" {
		return nil, fmt.Errorf("%w: search query must not be empty", domain.ErrInvalidArgument)
	}
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	return s.places.Search(ctx, query, limit)
}
