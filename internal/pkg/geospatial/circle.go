package geospatial

import (
	"fmt"
	"math"

	"github.com/tanbirz/manchitra/internal/core/domain"
)

// kmPerDegreeLat is the approximate length of one degree of latitude.
const kmPerDegreeLat = 111.32

// DefaultCircleSegments is the sampling density the drawing screens request.
const DefaultCircleSegments = 64

// CircleRing samples a circle of radiusKm around center into a closed
// ring of segments+1 points, the last a copy of the first. Sampling
// uses an equirectangular approximation (111.32 km per degree of
// latitude, longitude scaled by cos(lat)), accurate only for small
// radii away from the poles. The planar shape is the documented
// contract of the overlay screens, not a geodesic circle.
func CircleRing(center domain.Coordinate, radiusKm float64, segments int) (domain.Ring, error) {
	if segments < 3 {
		return nil, fmt.Errorf("%w: a ring needs at least 3 segments, got %d", domain.ErrInvalidArgument, segments)
	}
	if radiusKm <= 0 {
		return nil, fmt.Errorf("%w: radius must be positive, got %g km", domain.ErrInvalidArgument, radiusKm)
	}
	if math.Abs(center.Lat) >= 90 {
		return nil, fmt.Errorf("%w: longitude scaling degenerates at latitude %g", domain.ErrInvalidArgument, center.Lat)
	}

	ring := make(domain.Ring, 0, segments+1)
	for i := 0; i < segments; i++ {
		theta := 2 * math.Pi * float64(i) / float64(segments)
		dLng := math.Cos(theta) * radiusKm / (kmPerDegreeLat * math.Cos(toRad(center.Lat)))
		dLat := math.Sin(theta) * radiusKm / kmPerDegreeLat
		ring = append(ring, domain.Coordinate{Lng: center.Lng + dLng, Lat: center.Lat + dLat})
	}
	ring = append(ring, ring[0])

	return ring, nil
}
