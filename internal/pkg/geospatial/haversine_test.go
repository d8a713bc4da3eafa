package geospatial

import (
	"math"
	"testing"

	"github.com/tanbirz/manchitra/internal/core/domain"
)

func TestHaversineKmKnownDistances(t *testing.T) {
	tests := []struct {
		name      string
		a, b      domain.Coordinate
		wantKm    float64
		tolerance float64
	}{
		{
			name:      "gulshan block to block",
			a:         domain.Coordinate{Lng: 90.364159, Lat: 23.823724},
			b:         domain.Coordinate{Lng: 90.369159, Lat: 23.825724},
			wantKm:    0.53,
			tolerance: 0.05,
		},
		{
			name:      "dhaka to chattogram",
			a:         domain.Coordinate{Lng: 90.4125, Lat: 23.8103},
			b:         domain.Coordinate{Lng: 91.7832, Lat: 22.3569},
			wantKm:    214.0,
			tolerance: 2.0,
		},
		{
			name:      "one degree along the equator",
			a:         domain.Coordinate{Lng: 0, Lat: 0},
			b:         domain.Coordinate{Lng: 1, Lat: 0},
			wantKm:    111.19,
			tolerance: 0.1,
		},
		{
			name:      "antipodal",
			a:         domain.Coordinate{Lng: 0, Lat: 0},
			b:         domain.Coordinate{Lng: 180, Lat: 0},
			wantKm:    math.Pi * 6371.0,
			tolerance: 1.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HaversineKm(tt.a, tt.b)
			if math.Abs(got-tt.wantKm) > tt.tolerance {
				t.Errorf("HaversineKm(%v, %v) = %.4f km, want %.4f ± %.4f",
					tt.a, tt.b, got, tt.wantKm, tt.tolerance)
			}
		})
	}
}

func TestHaversineKmSymmetry(t *testing.T) {
	pairs := [][2]domain.Coordinate{
		{{Lng: 90.364159, Lat: 23.823724}, {Lng: 90.369159, Lat: 23.825724}},
		{{Lng: 88.0, Lat: 20.3}, {Lng: 92.8, Lat: 26.8}},
		{{Lng: -2.935, Lat: 43.263}, {Lng: 90.4125, Lat: 23.8103}},
		{{Lng: 0, Lat: -89.9}, {Lng: 179.9, Lat: 89.9}},
	}

	for _, p := range pairs {
		ab := HaversineKm(p[0], p[1])
		ba := HaversineKm(p[1], p[0])
		if math.Abs(ab-ba) > 1e-9 {
			t.Errorf("asymmetric distance for %v: %.12f vs %.12f", p, ab, ba)
		}
		if ab < 0 {
			t.Errorf("negative distance %.12f for %v", ab, p)
		}
	}
}

func TestHaversineKmZeroForIdentical(t *testing.T) {
	points := []domain.Coordinate{
		{Lng: 90.4125, Lat: 23.8103},
		{Lng: 0, Lat: 0},
		{Lng: -180, Lat: 90},
	}

	for _, p := range points {
		if d := HaversineKm(p, p); d != 0 {
			t.Errorf("HaversineKm(%v, %v) = %g, want 0", p, p, d)
		}
	}
}
