package ports

import (
	"context"

	"github.com/tanbirz/manchitra/internal/core/domain"
)

// PlaceRepository serves the curated marker catalog.
type PlaceRepository interface {
	List(ctx context.Context) ([]domain.Place, error)
	GetByID(ctx context.Context, id string) (*domain.Place, error)
	FindNearby(ctx context.Context, center domain.Coordinate, radiusKm float64, limit int) ([]domain.Place, error)
	Search(ctx context.Context, query string, limit int) ([]domain.Place, error)
}
