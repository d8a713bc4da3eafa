package domain

import "math"

// Coordinate is a geographic position (WGS 84), longitude first.
type Coordinate struct {
	Lng float64 `json:"lng"`
	Lat float64 `json:"lat"`
}

// Valid reports whether both components are finite and inside the
// WGS 84 degree ranges.
func (c Coordinate) Valid() bool {
	if math.IsNaN(c.Lng) || math.IsInf(c.Lng, 0) {
		return false
	}
	if math.IsNaN(c.Lat) || math.IsInf(c.Lat, 0) {
		return false
	}
	return c.Lng >= -180 && c.Lng <= 180 && c.Lat >= -90 && c.Lat <= 90
}

// Ring is an ordered coordinate sequence forming a polygon ring.
type Ring []Coordinate

// Closed reports whether the ring has at least four points and ends on
// a copy of its first point.
func (r Ring) Closed() bool {
	if len(r) < 4 {
		return false
	}
	return r[0] == r[len(r)-1]
}

// BoundingBox is a rectangle on the longitude/latitude plane.
type BoundingBox struct {
	North float64 `json:"north"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	West  float64 `json:"west"`
}

// Contains reports whether the point lies inside the box, bounds
// inclusive. Non-finite components compare false and therefore fall
// outside every box.
func (b BoundingBox) Contains(c Coordinate) bool {
	return c.Lat >= b.South && c.Lat <= b.North && c.Lng >= b.West && c.Lng <= b.East
}

// BangladeshBounds is the national extent the map screens serve.
var BangladeshBounds = BoundingBox{North: 26.8, South: 20.3, East: 92.8, West: 88.0}
