package usecases

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/jcroft/spots/internal/core/domain"
	"github.com/jcroft/spots/internal/core/ports"
	"github.com/jcroft/spots/internal/pkg/metrics"
)

// MsgAddressUnprocessable is the single user-facing failure for a submission
// whose address, coordinate, or city could not be resolved. The pipeline
// deliberately does not reveal which sub-lookup failed; the user can only
// act by re-entering the address.
const MsgAddressUnprocessable = "The address you entered was unable to be processed."

// SpotService drives a raw submission through normalization, geocoding, city
// resolution, and neighborhood attachment, persisting a fully resolved spot
// or surfacing a single field-scoped validation failure.
type SpotService struct {
	resolver *ResolverService
	spots    ports.SpotRepository
	events   ports.EventPublisher
}

// NewSpotService creates a new SpotService.
func NewSpotService(resolver *ResolverService, spots ports.SpotRepository, events ports.EventPublisher) *SpotService {
	return &SpotService{resolver: resolver, spots: spots, events: events}
}

// ResolveSpot runs the submission pipeline. On failure the returned error is
// a *domain.ValidationError attached to the "address" field; any other error
// type indicates a storage fault.
func (s *SpotService) ResolveSpot(ctx context.Context, sub domain.Submission) (*domain.Spot, error) {
	// Normalize: a "(lat, lng)" pseudo-address produced by a map click
	// becomes a coordinate, and the address field is discarded.
	address := strings.TrimSpace(sub.Address)
	coord := sub.Coordinate()
	if clicked, ok := ParsePointAddress(address); ok {
		coord = clicked
		address = ""
	}

	// Geocode: exactly one direction runs, address-present first. A
	// forward miss leaves the coordinate unresolved for the city step to
	// judge; a reverse miss is tolerated and the address stays empty.
	switch {
	case address != "" && coord == nil:
		canonical, loc, err := s.resolver.ForwardGeocode(ctx, address)
		if err == nil {
			address = canonical
			coord = &loc
		}
	case address == "" && coord != nil:
		canonical, err := s.resolver.ReverseGeocode(ctx, *coord)
		if err == nil {
			address = canonical
		}
	}

	// City: prefer the address text, fall back to the coordinate.
	var city *domain.City
	if address != "" {
		if c, err := s.resolver.ResolveCityFromAddress(ctx, address); err == nil {
			city = c
		}
	}
	if city == nil && coord != nil {
		if c, err := s.resolver.ResolveCityFromPoint(ctx, *coord); err == nil {
			city = c
		}
	}

	// A spot needs both a coordinate and a city. Anything less means some
	// combination of lookups above came back unresolved, and the spot must
	// not be persisted in a half-resolved state.
	if city == nil || coord == nil {
		metrics.SpotsResolved.WithLabelValues("rejected").Inc()
		return nil, &domain.ValidationError{Field: "address", Message: MsgAddressUnprocessable}
	}

	// Neighborhoods: best effort, never fatal.
	hoods, _ := s.resolver.ResolveNeighborhoods(ctx, *coord, city)

	spot := &domain.Spot{
		Address:       address,
		CityID:        city.ID,
		City:          city,
		Location:      coord,
		Neighborhoods: hoods,
	}
	saved, err := s.spots.Create(ctx, spot)
	if err != nil {
		return nil, err
	}
	saved.City = city
	saved.Neighborhoods = hoods

	if len(hoods) > 0 {
		ids := make([]string, len(hoods))
		for i, n := range hoods {
			ids[i] = n.ID
		}
		if err := s.spots.SetNeighborhoods(ctx, saved.ID, ids); err != nil {
			return nil, err
		}
	}

	if s.events != nil {
		if err := s.events.PublishSpotCreated(ctx, saved); err != nil {
			slog.Warn("spot created event publish failed", "spot", saved.ID, "error", err)
		}
	}
	metrics.SpotsResolved.WithLabelValues("resolved").Inc()
	return saved, nil
}

// RefreshNeighborhoods re-resolves the neighborhood set for an existing
// spot, replacing its associations. Used by the background refresh worker
// when provider coverage improves.
func (s *SpotService) RefreshNeighborhoods(ctx context.Context, spotID string) (*domain.Spot, error) {
	spot, err := s.spots.GetByID(ctx, spotID)
	if err != nil {
		return nil, err
	}
	if spot == nil || spot.Location == nil || spot.City == nil {
		return spot, nil
	}

	hoods, err := s.resolver.ResolveNeighborhoods(ctx, *spot.Location, spot.City)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(hoods))
	for i, n := range hoods {
		ids[i] = n.ID
	}
	if err := s.spots.SetNeighborhoods(ctx, spot.ID, ids); err != nil {
		return nil, err
	}
	spot.Neighborhoods = hoods

	if s.events != nil {
		if err := s.events.PublishNeighborhoodsUpdated(ctx, spot); err != nil {
			slog.Warn("neighborhoods updated event publish failed", "spot", spot.ID, "error", err)
		}
	}
	return spot, nil
}

// GetByID returns a single spot with its city and neighborhoods loaded.
func (s *SpotService) GetByID(ctx context.Context, id string) (*domain.Spot, error) {
	return s.spots.GetByID(ctx, id)
}

// ListByCity returns spots in a city, paginated.
func (s *SpotService) ListByCity(ctx context.Context, cityID string, offset, limit int) ([]domain.Spot, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.spots.ListByCity(ctx, cityID, offset, limit)
}

// ListByNeighborhood returns spots attached to a neighborhood, paginated.
func (s *SpotService) ListByNeighborhood(ctx context.Context, neighborhoodID string, offset, limit int) ([]domain.Spot, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.spots.ListByNeighborhood(ctx, neighborhoodID, offset, limit)
}

// ParsePointAddress recognizes the "(lat, lng)" pseudo-address a map-click
// UI submits in the address field. Returns ok=false for anything that is not
// a parenthesized, comma-separated pair of numbers.
func ParsePointAddress(address string) (*domain.Coordinate, bool) {
	if !strings.HasPrefix(address, "(") || !strings.HasSuffix(address, ")") {
		return nil, false
	}
	inner := address[1 : len(address)-1]
	latText, lngText, found := strings.Cut(inner, ",")
	if !found {
		return nil, false
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latText), 64)
	if err != nil {
		return nil, false
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(lngText), 64)
	if err != nil {
		return nil, false
	}
	return &domain.Coordinate{Lat: lat, Lng: lng}, true
}

// IsValidationError reports whether err is a pipeline validation failure and
// returns it when so.
func IsValidationError(err error) (*domain.ValidationError, bool) {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
