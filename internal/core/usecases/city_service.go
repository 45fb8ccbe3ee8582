package usecases

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jcroft/spots/internal/core/domain"
	"github.com/jcroft/spots/internal/core/ports"
	"github.com/jcroft/spots/internal/pkg/metrics"
)

// CityService answers administrative-hierarchy queries: countries, states,
// cities, and the neighborhoods within them.
type CityService struct {
	cities        ports.CityRepository
	neighborhoods ports.NeighborhoodRepository
	cache         ports.CacheService
}

// NewCityService creates a new CityService.
func NewCityService(cities ports.CityRepository, neighborhoods ports.NeighborhoodRepository, cache ports.CacheService) *CityService {
	return &CityService{cities: cities, neighborhoods: neighborhoods, cache: cache}
}

// List returns cities, optionally filtered by country and state/province.
func (s *CityService) List(ctx context.Context, country, state string) ([]domain.City, error) {
	cacheKey := fmt.Sprintf("cities:list:%s:%s", country, state)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var cities []domain.City
			if err := json.Unmarshal(data, &cities); err == nil {
				metrics.CacheHits.WithLabelValues("cities").Inc()
				return cities, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("cities").Inc()
	}

	cities, err := s.cities.List(ctx, country, state)
	if err != nil {
		return nil, err
	}

	// Cities change rarely; 10 minutes.
	if s.cache != nil {
		if data, err := json.Marshal(cities); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, 600)
		}
	}
	return cities, nil
}

// GetBySlug returns a city by its URL slug.
func (s *CityService) GetBySlug(ctx context.Context, slug string) (*domain.City, error) {
	return s.cities.GetBySlug(ctx, slug)
}

// Neighborhoods returns the neighborhoods recorded for a city.
func (s *CityService) Neighborhoods(ctx context.Context, cityID string) ([]domain.Neighborhood, error) {
	return s.neighborhoods.ListByCity(ctx, cityID)
}

// GetNeighborhood returns one neighborhood of a city by slug.
func (s *CityService) GetNeighborhood(ctx context.Context, cityID, slug string) (*domain.Neighborhood, error) {
	return s.neighborhoods.GetBySlug(ctx, cityID, slug)
}
