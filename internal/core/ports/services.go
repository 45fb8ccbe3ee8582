package ports

import (
	"context"

	"github.com/jcroft/spots/internal/core/domain"
)

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishSpotCreated(ctx context.Context, spot *domain.Spot) error
	PublishNeighborhoodsUpdated(ctx context.Context, spot *domain.Spot) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}
