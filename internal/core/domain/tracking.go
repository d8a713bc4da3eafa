package domain

import "time"

// PositionUpdate is a raw location sample submitted by a tracking client.
type PositionUpdate struct {
	SessionID  string     `json:"session_id"`
	Location   Coordinate `json:"location"`
	RecordedAt time.Time  `json:"recorded_at"`
}

// PositionEvent is an enriched position sample broadcast to live
// consumers. Distance and speed are measured against the session's
// previous fix and are zero for the first fix.
type PositionEvent struct {
	SessionID    string     `json:"session_id"`
	Location     Coordinate `json:"location"`
	RecordedAt   time.Time  `json:"recorded_at"`
	WithinBounds bool       `json:"within_bounds"`
	DistanceKm   float64    `json:"distance_km"`
	SpeedKmh     float64    `json:"speed_kmh"`
}
