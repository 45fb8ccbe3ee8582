package usecases_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jcroft/spots/internal/core/domain"
	"github.com/jcroft/spots/internal/core/ports"
	"github.com/jcroft/spots/internal/core/usecases"
)

func seattleResult() ports.GeocodeResult {
	return ports.GeocodeResult{
		DisplayName:   "1525 NW 57th St, Seattle, WA 98107, USA",
		Location:      domain.Coordinate{Lat: 47.6686, Lng: -122.3847},
		LocalityChain: []string{"Seattle"},
		State:         "WA",
		CountryCode:   "US",
	}
}

func TestForwardGeocode_Success(t *testing.T) {
	fwd := &mockForward{
		geocodeFn: func(ctx context.Context, address string) ([]ports.GeocodeResult, error) {
			return []ports.GeocodeResult{seattleResult()}, nil
		},
	}
	svc := usecases.NewResolverService(fwd, &mockReverse{}, nil, newMockCityRepo(), newMockNeighborhoodRepo())

	addr, loc, err := svc.ForwardGeocode(context.Background(), "1525 NW 57th St, Seattle")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if addr != "1525 NW 57th St, Seattle, WA 98107, USA" {
		t.Errorf("unexpected canonical address: %q", addr)
	}
	if loc.Lat != 47.6686 {
		t.Errorf("unexpected latitude: %f", loc.Lat)
	}
}

func TestForwardGeocode_EmptyResultIsUnresolved(t *testing.T) {
	svc := usecases.NewResolverService(&mockForward{}, &mockReverse{}, nil, newMockCityRepo(), newMockNeighborhoodRepo())

	_, _, err := svc.ForwardGeocode(context.Background(), "xyzzy")
	if !errors.Is(err, domain.ErrUnresolved) {
		t.Errorf("expected ErrUnresolved, got %v", err)
	}
}

func TestForwardGeocode_ProviderErrorIsUnresolved(t *testing.T) {
	fwd := &mockForward{
		geocodeFn: func(ctx context.Context, address string) ([]ports.GeocodeResult, error) {
			return nil, errors.New("connection refused")
		},
	}
	svc := usecases.NewResolverService(fwd, &mockReverse{}, nil, newMockCityRepo(), newMockNeighborhoodRepo())

	_, _, err := svc.ForwardGeocode(context.Background(), "1 Main St")
	if !errors.Is(err, domain.ErrUnresolved) {
		t.Errorf("provider error must surface as ErrUnresolved, got %v", err)
	}
}

func TestReverseGeocode_ProviderErrorIsUnresolved(t *testing.T) {
	rev := &mockReverse{
		reverseFn: func(ctx context.Context, loc domain.Coordinate) (*ports.GeocodeResult, error) {
			return nil, errors.New("rate limited")
		},
	}
	svc := usecases.NewResolverService(&mockForward{}, rev, nil, newMockCityRepo(), newMockNeighborhoodRepo())

	_, err := svc.ReverseGeocode(context.Background(), domain.Coordinate{Lat: 40, Lng: -75})
	if !errors.Is(err, domain.ErrUnresolved) {
		t.Errorf("expected ErrUnresolved, got %v", err)
	}
}

func TestResolveCityFromAddress_WalksLocalityChain(t *testing.T) {
	fwd := &mockForward{
		geocodeFn: func(ctx context.Context, address string) ([]ports.GeocodeResult, error) {
			return []ports.GeocodeResult{{
				DisplayName:   "somewhere in King County",
				Location:      domain.Coordinate{Lat: 47.5, Lng: -122.2},
				LocalityChain: []string{"", "  ", "Ballard"},
				State:         "WA",
				CountryCode:   "US",
			}}, nil
		},
	}
	cities := newMockCityRepo()
	svc := usecases.NewResolverService(fwd, &mockReverse{}, nil, cities, newMockNeighborhoodRepo())

	city, err := svc.ResolveCityFromAddress(context.Background(), "somewhere")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if city.City != "Ballard" {
		t.Errorf("expected first non-empty locality, got %q", city.City)
	}
	if city.State != "WA" || city.Country != "us" {
		t.Errorf("unexpected admin fields: state=%q country=%q", city.State, city.Country)
	}
	if city.Slug != "ballard-wa-us" {
		t.Errorf("unexpected slug: %q", city.Slug)
	}
}

func TestResolveCityFromAddress_EmptyChainIsUnresolved(t *testing.T) {
	fwd := &mockForward{
		geocodeFn: func(ctx context.Context, address string) ([]ports.GeocodeResult, error) {
			return []ports.GeocodeResult{{
				DisplayName:   "middle of nowhere",
				LocalityChain: []string{"", ""},
				CountryCode:   "US",
			}}, nil
		},
	}
	svc := usecases.NewResolverService(fwd, &mockReverse{}, nil, newMockCityRepo(), newMockNeighborhoodRepo())

	_, err := svc.ResolveCityFromAddress(context.Background(), "nowhere")
	if !errors.Is(err, domain.ErrUnresolved) {
		t.Errorf("expected ErrUnresolved, got %v", err)
	}
}

func TestResolveCityFromPoint_NonUSUsesProvince(t *testing.T) {
	rev := &mockReverse{
		reverseFn: func(ctx context.Context, loc domain.Coordinate) (*ports.GeocodeResult, error) {
			return &ports.GeocodeResult{
				DisplayName:   "Sydney NSW, Australia",
				Location:      loc,
				LocalityChain: []string{"Sydney"},
				State:         "New South Wales",
				CountryCode:   "AU",
			}, nil
		},
	}
	svc := usecases.NewResolverService(&mockForward{}, rev, nil, newMockCityRepo(), newMockNeighborhoodRepo())

	city, err := svc.ResolveCityFromPoint(context.Background(), domain.Coordinate{Lat: -33.87, Lng: 151.21})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if city.Province != "New South Wales" || city.State != "" {
		t.Errorf("non-US state must land in Province: state=%q province=%q", city.State, city.Province)
	}
}

func TestResolveCity_GetOrCreateIsIdempotent(t *testing.T) {
	fwd := &mockForward{
		geocodeFn: func(ctx context.Context, address string) ([]ports.GeocodeResult, error) {
			return []ports.GeocodeResult{seattleResult()}, nil
		},
	}
	cities := newMockCityRepo()
	svc := usecases.NewResolverService(fwd, &mockReverse{}, nil, cities, newMockNeighborhoodRepo())

	first, err := svc.ResolveCityFromAddress(context.Background(), "seattle")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := svc.ResolveCityFromAddress(context.Background(), "seattle again")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("same city tuple must resolve to one row: %q vs %q", first.ID, second.ID)
	}
	if len(cities.byKey) != 1 {
		t.Errorf("expected 1 city row, got %d", len(cities.byKey))
	}
}

func TestResolveNeighborhoods_DisabledWithoutCredential(t *testing.T) {
	svc := usecases.NewResolverService(&mockForward{}, &mockReverse{},
		&mockHoods{enabled: false}, newMockCityRepo(), newMockNeighborhoodRepo())

	hoods, err := svc.ResolveNeighborhoods(context.Background(), domain.Coordinate{Lat: 47.6, Lng: -122.3}, &domain.City{ID: "city-1"})
	if err != nil {
		t.Fatalf("disabled feature must not error: %v", err)
	}
	if len(hoods) != 0 {
		t.Errorf("expected empty set, got %d", len(hoods))
	}
}

func TestResolveNeighborhoods_ProviderErrorIsEmptySet(t *testing.T) {
	hoods := &mockHoods{
		enabled: true,
		lookupFn: func(ctx context.Context, loc domain.Coordinate) ([]string, error) {
			return nil, errors.New("upstream 500")
		},
	}
	svc := usecases.NewResolverService(&mockForward{}, &mockReverse{}, hoods, newMockCityRepo(), newMockNeighborhoodRepo())

	got, err := svc.ResolveNeighborhoods(context.Background(), domain.Coordinate{Lat: 47.6, Lng: -122.3}, &domain.City{ID: "city-1"})
	if err != nil {
		t.Fatalf("neighborhood attachment is best-effort, got error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty set on provider error, got %d", len(got))
	}
}

func TestResolveNeighborhoods_NormalizesAndDeduplicates(t *testing.T) {
	hoods := &mockHoods{
		enabled: true,
		lookupFn: func(ctx context.Context, loc domain.Coordinate) ([]string, error) {
			return []string{"  Capitol\n\tHill ", "Capitol  Hill", "Ballard"}, nil
		},
	}
	repo := newMockNeighborhoodRepo()
	svc := usecases.NewResolverService(&mockForward{}, &mockReverse{}, hoods, newMockCityRepo(), repo)

	got, err := svc.ResolveNeighborhoods(context.Background(), domain.Coordinate{Lat: 47.6, Lng: -122.3}, &domain.City{ID: "city-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 neighborhoods after normalization, got %d", len(got))
	}
	if got[0].Name != "Capitol Hill" {
		t.Errorf("whitespace not collapsed: %q", got[0].Name)
	}
	if got[0].Slug != "capitol-hill" {
		t.Errorf("unexpected slug: %q", got[0].Slug)
	}
}

func TestNormalizeNeighborhoodName(t *testing.T) {
	cases := map[string]string{
		"Capitol Hill":        "Capitol Hill",
		"  Capitol  Hill  ":   "Capitol Hill",
		"Capitol\n\tHill":     "Capitol Hill",
		"\n\t ":               "",
		"Queen  Anne\n(East)": "Queen Anne (East)",
	}
	for in, want := range cases {
		if got := usecases.NormalizeNeighborhoodName(in); got != want {
			t.Errorf("NormalizeNeighborhoodName(%q) = %q, want %q", in, got, want)
		}
	}
}
