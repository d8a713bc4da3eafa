package domain

// Place is a curated point of interest rendered as a map marker.
type Place struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Category   string     `json:"category"`
	City       string     `json:"city,omitempty"`
	Address    string     `json:"address,omitempty"`
	Location   Coordinate `json:"location"`
	DistanceKm *float64   `json:"distance_km,omitempty"` // computed field
}
