package ports

import (
	"context"

	"github.com/jcroft/spots/internal/core/domain"
)

// GeocodeResult is one candidate match from a forward geocode, ordered by
// provider-assigned relevance (first element is the best match).
type GeocodeResult struct {
	DisplayName string
	Location    domain.Coordinate
	// Locality name candidates in descending specificity, as reported by
	// the provider's address namespace (city, town, village, ...). The
	// resolver walks these in order when extracting a city.
	LocalityChain []string
	State         string
	County        string
	CountryCode   string
}

// ForwardGeocoder converts free-form address text into coordinate candidates.
// An empty slice with a nil error means the provider found nothing.
type ForwardGeocoder interface {
	Geocode(ctx context.Context, address string) ([]GeocodeResult, error)
}

// ReverseGeocoder converts a coordinate into the nearest address.
type ReverseGeocoder interface {
	Reverse(ctx context.Context, loc domain.Coordinate) (*GeocodeResult, error)
}

// NeighborhoodSource lists neighborhood display names containing a point.
//
// Enabled reports whether a credential/endpoint is configured; when it
// returns false the neighborhood feature is disabled, which is a valid state
// rather than an error.
type NeighborhoodSource interface {
	Enabled() bool
	Lookup(ctx context.Context, loc domain.Coordinate) ([]string, error)
}
