package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/jcroft/spots/internal/core/domain"
	"github.com/jcroft/spots/internal/core/ports"
	"github.com/jcroft/spots/internal/pkg/geospatial"
	"github.com/jcroft/spots/internal/pkg/metrics"
)

// Proximity query defaults: single-subject queries truncate to 10 results,
// list-style queries are governed by a 25-mile radius.
const (
	DefaultNearestLimit = 10
	DefaultRadiusMiles  = 25.0
)

// DistanceResult pairs a spot with its exact distance and compass direction
// from a reference point. Ephemeral: produced by proximity queries, never
// persisted.
type DistanceResult struct {
	Spot          domain.Spot              `json:"spot"`
	DistanceMiles float64                  `json:"distance_miles"`
	Direction     *geospatial.CompassLabel `json:"direction,omitempty"`
}

// ProximityService answers nearest-spot and nearby-city queries. The storage
// layer does a coarse rectangular prefilter; exact distances and compass
// labels are refined in memory.
type ProximityService struct {
	spots  ports.SpotRepository
	cities ports.CityRepository
	cache  ports.CacheService
}

// NewProximityService creates a new ProximityService.
func NewProximityService(spots ports.SpotRepository, cities ports.CityRepository, cache ports.CacheService) *ProximityService {
	return &ProximityService{spots: spots, cities: cities, cache: cache}
}

// WithinRadius filters candidates to those whose latitude and longitude both
// lie within radiusMiles/69.04 degrees of the center. Intentionally
// approximate and cheap; it shrinks the candidate set before exact distance
// computation and is never authoritative itself.
func WithinRadius(candidates []domain.Spot, center domain.Coordinate, radiusMiles float64) []domain.Spot {
	delta := radiusMiles / geospatial.MilesPerDegree
	var out []domain.Spot
	for _, c := range candidates {
		if c.Location == nil {
			continue
		}
		if c.Location.Lat < center.Lat-delta || c.Location.Lat > center.Lat+delta {
			continue
		}
		if c.Location.Lng < center.Lng-delta || c.Location.Lng > center.Lng+delta {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Nearest prefilters candidates, computes exact distances and compass
// directions, excludes the subject identified by excludeID, and returns a
// distance-sorted slice truncated to limit. The sort is stable: equal
// distances keep candidate order.
func Nearest(candidates []domain.Spot, center domain.Coordinate, excludeID string, limit int, radiusMiles float64) []DistanceResult {
	if limit <= 0 {
		limit = DefaultNearestLimit
	}
	if radiusMiles <= 0 {
		radiusMiles = DefaultRadiusMiles
	}

	var results []DistanceResult
	for _, c := range WithinRadius(candidates, center, radiusMiles) {
		if excludeID != "" && c.ID == excludeID {
			continue
		}
		results = append(results, DistanceResult{
			Spot:          c,
			DistanceMiles: geospatial.DistanceMiles(center, *c.Location),
			Direction:     geospatial.CompassDirection(center, *c.Location, false),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].DistanceMiles < results[j].DistanceMiles
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results
}

// NearestToSpot returns the spots closest to the given spot, excluding the
// spot itself.
func (s *ProximityService) NearestToSpot(ctx context.Context, spot *domain.Spot, limit int, radiusMiles float64) ([]DistanceResult, error) {
	if spot.Location == nil {
		return nil, nil
	}
	return s.nearest(ctx, *spot.Location, spot.ID, limit, radiusMiles)
}

// NearestToPoint returns the spots closest to an arbitrary coordinate.
func (s *ProximityService) NearestToPoint(ctx context.Context, center domain.Coordinate, limit int, radiusMiles float64) ([]DistanceResult, error) {
	return s.nearest(ctx, center, "", limit, radiusMiles)
}

func (s *ProximityService) nearest(ctx context.Context, center domain.Coordinate, excludeID string, limit int, radiusMiles float64) ([]DistanceResult, error) {
	if limit <= 0 || limit > 100 {
		limit = DefaultNearestLimit
	}
	if radiusMiles <= 0 || radiusMiles > 100 {
		radiusMiles = DefaultRadiusMiles
	}

	cacheKey := fmt.Sprintf("spots:nearest:%.4f:%.4f:%.1f:%d:%s", center.Lat, center.Lng, radiusMiles, limit, excludeID)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var cached []DistanceResult
			if err := json.Unmarshal(data, &cached); err == nil {
				metrics.CacheHits.WithLabelValues("nearest").Inc()
				return cached, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("nearest").Inc()
	}

	candidates, err := s.spots.ListInBounds(ctx, prefilterBounds(center, radiusMiles))
	if err != nil {
		return nil, err
	}
	results := Nearest(candidates, center, excludeID, limit, radiusMiles)

	// Cache for 2 minutes; new spots appear on the next refill.
	if s.cache != nil {
		if data, err := json.Marshal(results); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, 120)
		}
	}
	return results, nil
}

// NearbyCities returns cities whose centroids fall inside the rectangular
// prefilter around the given city, sorted by exact distance.
func (s *ProximityService) NearbyCities(ctx context.Context, city *domain.City, limit int, radiusMiles float64) ([]domain.City, error) {
	if city.Location == nil {
		return nil, nil
	}
	if limit <= 0 || limit > 50 {
		limit = DefaultNearestLimit
	}
	if radiusMiles <= 0 || radiusMiles > 100 {
		radiusMiles = DefaultRadiusMiles
	}
	center := *city.Location

	candidates, err := s.cities.ListInBounds(ctx, prefilterBounds(center, radiusMiles))
	if err != nil {
		return nil, err
	}

	type cityDistance struct {
		city domain.City
		dist float64
	}
	var nearby []cityDistance
	for _, c := range candidates {
		if c.ID == city.ID || c.Location == nil {
			continue
		}
		nearby = append(nearby, cityDistance{c, geospatial.DistanceMiles(center, *c.Location)})
	}
	sort.SliceStable(nearby, func(i, j int) bool { return nearby[i].dist < nearby[j].dist })
	if len(nearby) > limit {
		nearby = nearby[:limit]
	}

	out := make([]domain.City, len(nearby))
	for i, n := range nearby {
		out[i] = n.city
	}
	return out, nil
}

// prefilterBounds builds the rectangular prefilter box: ±radius/69.04
// degrees on both axes, matching the in-memory WithinRadius filter so the
// SQL and in-memory paths agree.
func prefilterBounds(center domain.Coordinate, radiusMiles float64) domain.Bounds {
	delta := radiusMiles / geospatial.MilesPerDegree
	return domain.Bounds{
		NW: domain.Coordinate{Lat: center.Lat + delta, Lng: center.Lng - delta},
		NE: domain.Coordinate{Lat: center.Lat + delta, Lng: center.Lng + delta},
		SW: domain.Coordinate{Lat: center.Lat - delta, Lng: center.Lng - delta},
		SE: domain.Coordinate{Lat: center.Lat - delta, Lng: center.Lng + delta},
	}
}
