package ports

import (
	"context"

	"github.com/tanbirz/manchitra/internal/core/domain"
)

// StyleFetcher retrieves style documents from the tile provider.
type StyleFetcher interface {
	FetchStyle(ctx context.Context, apiKey string) (domain.StyleDocument, error)
}

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishPosition(ctx context.Context, event *domain.PositionEvent) error
	PublishStyleUpdate(ctx context.Context, update *domain.StyleUpdate) error
	PublishBroadcast(ctx context.Context, data []byte) error
}

// EventSubscriber subscribes to domain events from a message broker.
type EventSubscriber interface {
	SubscribePositions(ctx context.Context, handler func(ctx context.Context, event *domain.PositionEvent) error) error
	SubscribeStyleUpdates(ctx context.Context, handler func(ctx context.Context, update *domain.StyleUpdate) error) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}
