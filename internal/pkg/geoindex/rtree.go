package geoindex

import (
	"math"

	"github.com/tidwall/rtree"

	"github.com/tanbirz/manchitra/internal/core/domain"
)

const earthRadiusKm = 6371.0

// PointIndex is an in-memory spatial index over identified coordinates.
// It answers coarse radius queries; callers post-filter by true
// distance because the query window is a bounding box, not a circle.
type PointIndex struct {
	tree *rtree.RTreeG[string]
}

// NewPointIndex creates an empty index.
func NewPointIndex() *PointIndex {
	return &PointIndex{tree: &rtree.RTreeG[string]{}}
}

// Insert adds a point under the given id.
func (x *PointIndex) Insert(id string, c domain.Coordinate) {
	p := [2]float64{c.Lng, c.Lat}
	x.tree.Insert(p, p, id)
}

// WithinRadius returns the ids of all points inside a box of radiusKm
// half-extent around center, degrees scaled by cos(lat) for longitude.
func (x *PointIndex) WithinRadius(center domain.Coordinate, radiusKm float64) []string {
	kmPerDegreeLat := earthRadiusKm * math.Pi / 180
	kmPerDegreeLng := kmPerDegreeLat * math.Cos(center.Lat*math.Pi/180)

	dLat := radiusKm / kmPerDegreeLat
	dLng := radiusKm / kmPerDegreeLng

	ids := make([]string, 0)
	x.tree.Search(
		[2]float64{center.Lng - dLng, center.Lat - dLat},
		[2]float64{center.Lng + dLng, center.Lat + dLat},
		func(min, max [2]float64, id string) bool {
			ids = append(ids, id)
			return true
		},
	)
	return ids
}

// Len returns the number of indexed points.
func (x *PointIndex) Len() int {
	return x.tree.Len()
}
