// Package catalog serves the embedded marker catalog the demo app's
// screens display.
package catalog

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/tanbirz/manchitra/internal/core/domain"
	"github.com/tanbirz/manchitra/internal/pkg/geoindex"
	"github.com/tanbirz/manchitra/internal/pkg/geospatial"
)

//go:embed places.json
var placesJSON []byte

// Repository implements ports.PlaceRepository over the embedded
// dataset, with an rtree index for radius lookups. The dataset is
// immutable after New.
type Repository struct {
	places []domain.Place
	byID   map[string]int
	index  *geoindex.PointIndex
}

// New parses the embedded dataset and builds the spatial index.
func New() (*Repository, error) {
	var places []domain.Place
	if err := json.Unmarshal(placesJSON, &places); err != nil {
		return nil, fmt.Errorf("parse embedded catalog: %w", err)
	}

	r := &Repository{
		places: places,
		byID:   make(map[string]int, len(places)),
		index:  geoindex.NewPointIndex(),
	}
	for i, p := range places {
		if p.ID == "" || !p.Location.Valid() {
			return nil, fmt.Errorf("catalog entry %d (%q) is invalid", i, p.Name)
		}
		if _, dup := r.byID[p.ID]; dup {
			return nil, fmt.Errorf("duplicate catalog id %s", p.ID)
		}
		r.byID[p.ID] = i
		r.index.Insert(p.ID, p.Location)
	}
	return r, nil
}

// Count returns the catalog size, for readiness reporting.
func (r *Repository) Count() int { return len(r.places) }

// List returns the full catalog.
func (r *Repository) List(ctx context.Context) ([]domain.Place, error) {
	out := make([]domain.Place, len(r.places))
	copy(out, r.places)
	return out, nil
}

// GetByID returns a single place by its id.
func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Place, error) {
	i, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: place %s", domain.ErrNotFound, id)
	}
	p := r.places[i]
	return &p, nil
}

// FindNearby returns up to limit places within radiusKm of center,
// closest first, each carrying its distance from the center.
func (r *Repository) FindNearby(ctx context.Context, center domain.Coordinate, radiusKm float64, limit int) ([]domain.Place, error) {
	candidates := r.index.WithinRadius(center, radiusKm)

	out := make([]domain.Place, 0, len(candidates))
	for _, id := range candidates {
		p := r.places[r.byID[id]]
		d := geospatial.HaversineKm(center, p.Location)
		if d > radiusKm {
			continue // box candidate outside the true radius
		}
		p.DistanceKm = &d
		out = append(out, p)
	}

	sort.Slice(out, func(i, j int) bool { return *out[i].DistanceKm < *out[j].DistanceKm })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Search matches the query against place names, case-insensitively.
func (r *Repository) Search(ctx context.Context, query string, limit int) ([]domain.Place, error) {
	q := strings.ToLower(query)
	out := make([]domain.Place, 0, 8)
	for _, p := range r.places {
		if strings.Contains(strings.ToLower(p.Name), q) {
			out = append(out, p)
			if limit > 0 && len(out) == limit {
				break
			}
		}
	}
	return out, nil
}
