package ports

import (
	"context"

	"github.com/jcroft/spots/internal/core/domain"
)

// CityRepository persists administrative areas.
//
// FindOrCreate must be idempotent and race-tolerant: concurrent submissions
// resolving to the same new city must yield exactly one row. Implementations
// back this with a unique constraint on (city, state, province, country) and
// retry the lookup on conflict, never read-then-write.
type CityRepository interface {
	FindOrCreate(ctx context.Context, city *domain.City) (*domain.City, error)
	GetBySlug(ctx context.Context, slug string) (*domain.City, error)
	GetByID(ctx context.Context, id string) (*domain.City, error)
	List(ctx context.Context, country, state string) ([]domain.City, error)
	ListInBounds(ctx context.Context, b domain.Bounds) ([]domain.City, error)
	UpdateLocation(ctx context.Context, id string, loc domain.Coordinate) error
}

// NeighborhoodRepository persists neighborhoods. The (city_id, name) pair is
// unique; FindOrCreate carries the same concurrency contract as cities.
type NeighborhoodRepository interface {
	FindOrCreate(ctx context.Context, n *domain.Neighborhood) (*domain.Neighborhood, error)
	GetBySlug(ctx context.Context, cityID, slug string) (*domain.Neighborhood, error)
	ListByCity(ctx context.Context, cityID string) ([]domain.Neighborhood, error)
}

// SpotRepository persists spots and their neighborhood associations.
type SpotRepository interface {
	Create(ctx context.Context, spot *domain.Spot) (*domain.Spot, error)
	GetByID(ctx context.Context, id string) (*domain.Spot, error)
	ListByCity(ctx context.Context, cityID string, offset, limit int) ([]domain.Spot, error)
	ListByNeighborhood(ctx context.Context, neighborhoodID string, offset, limit int) ([]domain.Spot, error)
	// ListInBounds is the coarse rectangular prefilter behind proximity
	// queries: rows whose latitude and longitude both fall inside the box.
	// Exact distances are computed by the caller.
	ListInBounds(ctx context.Context, b domain.Bounds) ([]domain.Spot, error)
	ListAll(ctx context.Context, offset, limit int) ([]domain.Spot, error)
	// SetNeighborhoods replaces the spot's neighborhood associations.
	SetNeighborhoods(ctx context.Context, spotID string, neighborhoodIDs []string) error
}
