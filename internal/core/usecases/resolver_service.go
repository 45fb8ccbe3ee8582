package usecases

import (
	"context"
	"log/slog"
	"strings"

	"github.com/jcroft/spots/internal/core/domain"
	"github.com/jcroft/spots/internal/core/ports"
	"github.com/jcroft/spots/internal/pkg/metrics"
)

// ResolverService orchestrates the external geocoding and neighborhood
// providers: forward geocoding, reverse geocoding, city resolution with
// get-or-create, and best-effort neighborhood attachment.
//
// Provider failures never escape as raw errors. Every call site converts
// them to domain.ErrUnresolved (or an empty result for neighborhoods) so the
// pipeline can decide which gaps are fatal.
type ResolverService struct {
	forward       ports.ForwardGeocoder
	reverse       ports.ReverseGeocoder
	hoods         ports.NeighborhoodSource
	cities        ports.CityRepository
	neighborhoods ports.NeighborhoodRepository
}

// NewResolverService creates a new ResolverService.
func NewResolverService(
	forward ports.ForwardGeocoder,
	reverse ports.ReverseGeocoder,
	hoods ports.NeighborhoodSource,
	cities ports.CityRepository,
	neighborhoods ports.NeighborhoodRepository,
) *ResolverService {
	return &ResolverService{
		forward:       forward,
		reverse:       reverse,
		hoods:         hoods,
		cities:        cities,
		neighborhoods: neighborhoods,
	}
}

// ForwardGeocode resolves address text to a canonical address and
// coordinate. Returns domain.ErrUnresolved when the provider has no match or
// fails.
func (s *ResolverService) ForwardGeocode(ctx context.Context, address string) (string, domain.Coordinate, error) {
	results, err := s.forward.Geocode(ctx, address)
	if err != nil {
		slog.Warn("forward geocode failed", "error", err)
		return "", domain.Coordinate{}, domain.ErrUnresolved
	}
	if len(results) == 0 {
		return "", domain.Coordinate{}, domain.ErrUnresolved
	}
	best := results[0]
	return best.DisplayName, best.Location, nil
}

// ReverseGeocode resolves a coordinate to its nearest address. Returns
// domain.ErrUnresolved when the provider has no match or fails.
func (s *ResolverService) ReverseGeocode(ctx context.Context, loc domain.Coordinate) (string, error) {
	result, err := s.reverse.Reverse(ctx, loc)
	if err != nil {
		slog.Warn("reverse geocode failed", "lat", loc.Lat, "lng", loc.Lng, "error", err)
		return "", domain.ErrUnresolved
	}
	if result == nil || result.DisplayName == "" {
		return "", domain.ErrUnresolved
	}
	return result.DisplayName, nil
}

// ResolveCityFromAddress identifies the city containing an address and
// get-or-creates its record. Returns domain.ErrUnresolved when no usable
// locality can be extracted.
func (s *ResolverService) ResolveCityFromAddress(ctx context.Context, address string) (*domain.City, error) {
	results, err := s.forward.Geocode(ctx, address)
	if err != nil || len(results) == 0 {
		return nil, domain.ErrUnresolved
	}
	return s.cityFromResult(ctx, &results[0])
}

// ResolveCityFromPoint identifies the city containing a coordinate and
// get-or-creates its record.
func (s *ResolverService) ResolveCityFromPoint(ctx context.Context, loc domain.Coordinate) (*domain.City, error) {
	result, err := s.reverse.Reverse(ctx, loc)
	if err != nil || result == nil {
		return nil, domain.ErrUnresolved
	}
	return s.cityFromResult(ctx, result)
}

// cityFromResult extracts the locality from a geocode result, walking the
// provider's namespace in descending specificity, and get-or-creates the
// City row. The city's own centroid is geocoded lazily on first creation.
func (s *ResolverService) cityFromResult(ctx context.Context, res *ports.GeocodeResult) (*domain.City, error) {
	var cityName string
	for _, candidate := range res.LocalityChain {
		if strings.TrimSpace(candidate) != "" {
			cityName = strings.TrimSpace(candidate)
			break
		}
	}
	if cityName == "" {
		return nil, domain.ErrUnresolved
	}

	country := strings.ToLower(res.CountryCode)
	city := &domain.City{
		City:    cityName,
		County:  res.County,
		Country: country,
	}
	if country == "us" {
		city.State = res.State
	} else {
		city.Province = res.State
	}
	city.Slug = city.ComputeSlug()

	saved, err := s.cities.FindOrCreate(ctx, city)
	if err != nil {
		slog.Error("city get-or-create failed", "city", city.FullName(), "error", err)
		return nil, domain.ErrUnresolved
	}

	if saved.Location == nil {
		s.geocodeCityCentroid(ctx, saved)
	}
	return saved, nil
}

// geocodeCityCentroid backfills the city's own coordinate. Best effort: a
// miss leaves the centroid empty for a later save to retry.
func (s *ResolverService) geocodeCityCentroid(ctx context.Context, city *domain.City) {
	_, loc, err := s.ForwardGeocode(ctx, city.USBiasName())
	if err != nil {
		return
	}
	if err := s.cities.UpdateLocation(ctx, city.ID, loc); err != nil {
		slog.Warn("city centroid update failed", "city", city.Slug, "error", err)
		return
	}
	city.Location = &loc
}

// ResolveNeighborhoods looks up the neighborhoods containing a point and
// get-or-creates their records under the given city. The whole operation is
// best effort: a missing provider credential means the feature is disabled
// (empty result, no error), and provider failures also yield an empty set.
func (s *ResolverService) ResolveNeighborhoods(ctx context.Context, loc domain.Coordinate, city *domain.City) ([]domain.Neighborhood, error) {
	if s.hoods == nil || !s.hoods.Enabled() {
		metrics.NeighborhoodLookups.WithLabelValues("disabled").Inc()
		return nil, nil
	}

	names, err := s.hoods.Lookup(ctx, loc)
	if err != nil {
		slog.Warn("neighborhood lookup failed", "lat", loc.Lat, "lng", loc.Lng, "error", err)
		metrics.NeighborhoodLookups.WithLabelValues("error").Inc()
		return nil, nil
	}
	metrics.NeighborhoodLookups.WithLabelValues("ok").Inc()

	var out []domain.Neighborhood
	seen := make(map[string]bool)
	for _, raw := range names {
		name := NormalizeNeighborhoodName(raw)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true

		n, err := s.neighborhoods.FindOrCreate(ctx, &domain.Neighborhood{
			CityID: city.ID,
			Name:   name,
			Slug:   domain.Slugify(name),
		})
		if err != nil {
			slog.Warn("neighborhood get-or-create failed", "name", name, "error", err)
			continue
		}
		out = append(out, *n)
	}
	return out, nil
}

// NormalizeNeighborhoodName collapses the erratic whitespace neighborhood
// providers embed in names: tabs, newlines, and doubled spaces all reduce to
// single spaces, with leading/trailing whitespace trimmed.
func NormalizeNeighborhoodName(name string) string {
	return strings.Join(strings.Fields(name), " ")
}
