package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/tanbirz/manchitra/internal/core/domain"
	"github.com/tanbirz/manchitra/internal/core/ports"
	"github.com/tanbirz/manchitra/internal/pkg/geospatial"
)

// TrackingService processes live position updates: validate, check
// containment in the Bangladesh bounds, derive distance and speed
// against the session's previous fix, publish.
type TrackingService struct {
	cache      ports.CacheService
	publisher  ports.EventPublisher
	sessionTTL int // seconds a previous fix stays usable
}

// NewTrackingService creates a TrackingService. cache and publisher
// may each be nil: without a cache no deltas are derived, without a
// publisher events are returned but not broadcast.
func NewTrackingService(cache ports.CacheService, publisher ports.EventPublisher, sessionTTLSeconds int) *TrackingService {
	if sessionTTLSeconds <= 0 {
		sessionTTLSeconds = 300
	}
	return &TrackingService{cache: cache, publisher: publisher, sessionTTL: sessionTTLSeconds}
}

// lastFix is the cached previous position of a session.
type lastFix struct {
	Location   domain.Coordinate `json:"location"`
	RecordedAt time.Time         `json:"recorded_at"`
}

// Record turns a raw position update into an enriched event and
// publishes it for live consumers.
func (s *TrackingService) Record(ctx context.Context, update domain.PositionUpdate) (*domain.PositionEvent, error) {
	if update.SessionID == "" {
		return nil, fmt.Errorf("%w: session id must not be empty", domain.ErrInvalidArgument)
	}
	if !update.Location.Valid() {
		return nil, fmt.Errorf("%w: coordinate out of range", domain.ErrInvalidArgument)
	}
	if update.RecordedAt.IsZero() {
		update.RecordedAt = time.Now().UTC()
	}

	event := &domain.PositionEvent{
		SessionID:    update.SessionID,
		Location:     update.Location,
		RecordedAt:   update.RecordedAt,
		WithinBounds: domain.BangladeshBounds.Contains(update.Location),
	}

	if s.cache != nil {
		key := "track:last:" + update.SessionID

		if data, err := s.cache.Get(ctx, key); err == nil {
			var prev lastFix
			if err := json.Unmarshal(data, &prev); err == nil {
				event.DistanceKm = geospatial.HaversineKm(prev.Location, update.Location)
				if dt := update.RecordedAt.Sub(prev.RecordedAt); dt > 0 {
					event.SpeedKmh = event.DistanceKm / dt.Hours()
				}
			}
		}

		if data, err := json.Marshal(lastFix{Location: update.Location, RecordedAt: update.RecordedAt}); err == nil {
			_ = s.cache.Set(ctx, key, data, s.sessionTTL)
		}
	}

	if s.publisher != nil {
		if err := s.publisher.PublishPosition(ctx, event); err != nil {
			return nil, fmt.Errorf("publish position: %w", err)
		}
	}

	return event, nil
}
