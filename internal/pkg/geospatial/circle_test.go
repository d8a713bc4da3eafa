package geospatial

import (
	"errors"
	"math"
	"testing"

	"github.com/tanbirz/manchitra/internal/core/domain"
)

func TestCircleRingShape(t *testing.T) {
	center := domain.Coordinate{Lng: 90.366659, Lat: 23.823724}

	ring, err := CircleRing(center, 0.5, 64)
	if err != nil {
		t.Fatalf("CircleRing: %v", err)
	}

	if len(ring) != 65 {
		t.Fatalf("expected 65 points (64 segments + closure), got %d", len(ring))
	}
	if ring[0] != ring[len(ring)-1] {
		t.Errorf("ring not closed: first %v, last %v", ring[0], ring[len(ring)-1])
	}
	if !ring.Closed() {
		t.Error("Closed() = false for generated ring")
	}
}

func TestCircleRingRadiusProperty(t *testing.T) {
	center := domain.Coordinate{Lng: 90.366659, Lat: 23.823724}
	const radiusKm = 0.3

	ring, err := CircleRing(center, radiusKm, 64)
	if err != nil {
		t.Fatalf("CircleRing: %v", err)
	}

	// The planar approximation may deviate from the true great-circle
	// radius by a few percent at this latitude.
	lo, hi := radiusKm*0.95, radiusKm*1.05
	for i, p := range ring {
		d := HaversineKm(center, p)
		if d < lo || d > hi {
			t.Errorf("point %d at %v is %.4f km from center, want within [%.4f, %.4f]",
				i, p, d, lo, hi)
		}
	}
}

func TestCircleRingMinimumSegments(t *testing.T) {
	center := domain.Coordinate{Lng: 90.4, Lat: 23.8}

	ring, err := CircleRing(center, 1.0, 3)
	if err != nil {
		t.Fatalf("segments=3 must succeed: %v", err)
	}
	if len(ring) != 4 {
		t.Errorf("expected 4 points for 3 segments, got %d", len(ring))
	}

	if _, err := CircleRing(center, 1.0, 2); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("segments=2: got %v, want invalid argument", err)
	}
	if _, err := CircleRing(center, 1.0, 0); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("segments=0: got %v, want invalid argument", err)
	}
}

func TestCircleRingInvalidRadius(t *testing.T) {
	center := domain.Coordinate{Lng: 90.4, Lat: 23.8}

	for _, r := range []float64{0, -0.5} {
		if _, err := CircleRing(center, r, 64); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("radius %g: got %v, want invalid argument", r, err)
		}
	}
}

func TestCircleRingPolarCenter(t *testing.T) {
	for _, lat := range []float64{90, -90} {
		center := domain.Coordinate{Lng: 0, Lat: lat}
		ring, err := CircleRing(center, 1.0, 64)
		if !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("lat %g: got %v, want invalid argument", lat, err)
		}
		if ring != nil {
			t.Errorf("lat %g: expected nil ring on failure", lat)
		}
	}
}

func TestCircleRingFiniteOutput(t *testing.T) {
	ring, err := CircleRing(domain.Coordinate{Lng: 90.4, Lat: 23.8}, 0.25, 16)
	if err != nil {
		t.Fatalf("CircleRing: %v", err)
	}
	for i, p := range ring {
		if math.IsNaN(p.Lng) || math.IsNaN(p.Lat) || math.IsInf(p.Lng, 0) || math.IsInf(p.Lat, 0) {
			t.Errorf("point %d is not finite: %v", i, p)
		}
	}
}
