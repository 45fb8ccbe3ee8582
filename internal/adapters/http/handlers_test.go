package http_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	handler "github.com/jcroft/spots/internal/adapters/http"
	"github.com/jcroft/spots/internal/core/domain"
	"github.com/jcroft/spots/internal/core/ports"
	"github.com/jcroft/spots/internal/core/usecases"
)

// ---- Mock providers ----

type mockForward struct {
	geocodeFn func(ctx context.Context, address string) ([]ports.GeocodeResult, error)
}

func (m *mockForward) Geocode(ctx context.Context, address string) ([]ports.GeocodeResult, error) {
	if m.geocodeFn != nil {
		return m.geocodeFn(ctx, address)
	}
	return nil, nil
}

type mockReverse struct {
	reverseFn func(ctx context.Context, loc domain.Coordinate) (*ports.GeocodeResult, error)
}

func (m *mockReverse) Reverse(ctx context.Context, loc domain.Coordinate) (*ports.GeocodeResult, error) {
	if m.reverseFn != nil {
		return m.reverseFn(ctx, loc)
	}
	return nil, nil
}

type mockHoods struct {
	enabled  bool
	lookupFn func(ctx context.Context, loc domain.Coordinate) ([]string, error)
}

func (m *mockHoods) Enabled() bool { return m.enabled }
func (m *mockHoods) Lookup(ctx context.Context, loc domain.Coordinate) ([]string, error) {
	if m.lookupFn != nil {
		return m.lookupFn(ctx, loc)
	}
	return nil, nil
}

// ---- Mock repositories ----

type mockCityRepo struct {
	findOrCreateFn func(ctx context.Context, city *domain.City) (*domain.City, error)
	getBySlugFn    func(ctx context.Context, slug string) (*domain.City, error)
	listFn         func(ctx context.Context, country, state string) ([]domain.City, error)
	listInBoundsFn func(ctx context.Context, b domain.Bounds) ([]domain.City, error)
}

func (m *mockCityRepo) FindOrCreate(ctx context.Context, city *domain.City) (*domain.City, error) {
	if m.findOrCreateFn != nil {
		return m.findOrCreateFn(ctx, city)
	}
	return city, nil
}
func (m *mockCityRepo) GetBySlug(ctx context.Context, slug string) (*domain.City, error) {
	if m.getBySlugFn != nil {
		return m.getBySlugFn(ctx, slug)
	}
	return nil, nil
}
func (m *mockCityRepo) GetByID(ctx context.Context, id string) (*domain.City, error) {
	return nil, nil
}
func (m *mockCityRepo) List(ctx context.Context, country, state string) ([]domain.City, error) {
	if m.listFn != nil {
		return m.listFn(ctx, country, state)
	}
	return nil, nil
}
func (m *mockCityRepo) ListInBounds(ctx context.Context, b domain.Bounds) ([]domain.City, error) {
	if m.listInBoundsFn != nil {
		return m.listInBoundsFn(ctx, b)
	}
	return nil, nil
}
func (m *mockCityRepo) UpdateLocation(ctx context.Context, id string, loc domain.Coordinate) error {
	return nil
}

type mockHoodRepo struct {
	findOrCreateFn func(ctx context.Context, n *domain.Neighborhood) (*domain.Neighborhood, error)
	getBySlugFn    func(ctx context.Context, cityID, slug string) (*domain.Neighborhood, error)
	listByCityFn   func(ctx context.Context, cityID string) ([]domain.Neighborhood, error)
}

func (m *mockHoodRepo) FindOrCreate(ctx context.Context, n *domain.Neighborhood) (*domain.Neighborhood, error) {
	if m.findOrCreateFn != nil {
		return m.findOrCreateFn(ctx, n)
	}
	return n, nil
}
func (m *mockHoodRepo) GetBySlug(ctx context.Context, cityID, slug string) (*domain.Neighborhood, error) {
	if m.getBySlugFn != nil {
		return m.getBySlugFn(ctx, cityID, slug)
	}
	return nil, nil
}
func (m *mockHoodRepo) ListByCity(ctx context.Context, cityID string) ([]domain.Neighborhood, error) {
	if m.listByCityFn != nil {
		return m.listByCityFn(ctx, cityID)
	}
	return nil, nil
}

type mockSpotRepo struct {
	createFn             func(ctx context.Context, spot *domain.Spot) (*domain.Spot, error)
	getByIDFn            func(ctx context.Context, id string) (*domain.Spot, error)
	listByCityFn         func(ctx context.Context, cityID string, offset, limit int) ([]domain.Spot, error)
	listByNeighborhoodFn func(ctx context.Context, hoodID string, offset, limit int) ([]domain.Spot, error)
	listInBoundsFn       func(ctx context.Context, b domain.Bounds) ([]domain.Spot, error)
}

func (m *mockSpotRepo) Create(ctx context.Context, spot *domain.Spot) (*domain.Spot, error) {
	if m.createFn != nil {
		return m.createFn(ctx, spot)
	}
	saved := *spot
	saved.ID = "spot-1"
	return &saved, nil
}
func (m *mockSpotRepo) GetByID(ctx context.Context, id string) (*domain.Spot, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, nil
}
func (m *mockSpotRepo) ListByCity(ctx context.Context, cityID string, offset, limit int) ([]domain.Spot, error) {
	if m.listByCityFn != nil {
		return m.listByCityFn(ctx, cityID, offset, limit)
	}
	return nil, nil
}
func (m *mockSpotRepo) ListByNeighborhood(ctx context.Context, hoodID string, offset, limit int) ([]domain.Spot, error) {
	if m.listByNeighborhoodFn != nil {
		return m.listByNeighborhoodFn(ctx, hoodID, offset, limit)
	}
	return nil, nil
}
func (m *mockSpotRepo) ListInBounds(ctx context.Context, b domain.Bounds) ([]domain.Spot, error) {
	if m.listInBoundsFn != nil {
		return m.listInBoundsFn(ctx, b)
	}
	return nil, nil
}
func (m *mockSpotRepo) ListAll(ctx context.Context, offset, limit int) ([]domain.Spot, error) {
	return nil, nil
}
func (m *mockSpotRepo) SetNeighborhoods(ctx context.Context, spotID string, neighborhoodIDs []string) error {
	return nil
}

// ---- Test helpers ----

type depMocks struct {
	forward *mockForward
	reverse *mockReverse
	hoods   *mockHoods
	cities  *mockCityRepo
	hoodsDB *mockHoodRepo
	spots   *mockSpotRepo
}

func makeDeps(opts ...func(*depMocks)) *handler.Dependencies {
	m := &depMocks{
		forward: &mockForward{},
		reverse: &mockReverse{},
		hoods:   &mockHoods{},
		cities:  &mockCityRepo{},
		hoodsDB: &mockHoodRepo{},
		spots:   &mockSpotRepo{},
	}
	for _, o := range opts {
		o(m)
	}

	resolver := usecases.NewResolverService(m.forward, m.reverse, m.hoods, m.cities, m.hoodsDB)
	return &handler.Dependencies{
		Spots:     usecases.NewSpotService(resolver, m.spots, nil),
		Cities:    usecases.NewCityService(m.cities, m.hoodsDB, nil),
		Proximity: usecases.NewProximityService(m.spots, m.cities, nil),
	}
}

func setupApp(deps *handler.Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	handler.SetupRoutes(app, deps)
	return app
}

func seattle() *domain.City {
	return &domain.City{
		ID: "city-1", City: "Seattle", State: "WA", Country: "us",
		Slug:     "seattle-wa-us",
		Location: &domain.Coordinate{Lat: 47.6062, Lng: -122.3321},
	}
}

func seattleGeocode() ports.GeocodeResult {
	return ports.GeocodeResult{
		DisplayName:   "1525 NW 57th St, Seattle, WA 98107, USA",
		Location:      domain.Coordinate{Lat: 47.6686, Lng: -122.3847},
		LocalityChain: []string{"Seattle"},
		State:         "WA",
		CountryCode:   "US",
	}
}

// ---- Spot handler tests ----

func TestCreateSpot_Success(t *testing.T) {
	deps := makeDeps(func(m *depMocks) {
		m.forward.geocodeFn = func(ctx context.Context, address string) ([]ports.GeocodeResult, error) {
			return []ports.GeocodeResult{seattleGeocode()}, nil
		}
		m.cities.findOrCreateFn = func(ctx context.Context, city *domain.City) (*domain.City, error) {
			return seattle(), nil
		}
	})
	app := setupApp(deps)

	body := `{"address": "1525 NW 57th St, Seattle"}`
	req := httptest.NewRequest("POST", "/v1/spots", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 201 {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	var spot domain.Spot
	if err := json.NewDecoder(resp.Body).Decode(&spot); err != nil {
		t.Fatal(err)
	}
	if spot.ID == "" {
		t.Error("expected a persisted spot ID")
	}
	if spot.Address != "1525 NW 57th St, Seattle, WA 98107, USA" {
		t.Errorf("expected canonical address, got %q", spot.Address)
	}
	if spot.City == nil || spot.City.Slug != "seattle-wa-us" {
		t.Errorf("expected resolved city, got %+v", spot.City)
	}
}

func TestCreateSpot_UnprocessableAddress(t *testing.T) {
	app := setupApp(makeDeps()) // geocoder returns nothing

	body := `{"address": "1 Main St, Nowhere"}`
	req := httptest.NewRequest("POST", "/v1/spots", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 422 {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}

	var apiErr handler.APIError
	if err := json.NewDecoder(resp.Body).Decode(&apiErr); err != nil {
		t.Fatal(err)
	}
	if apiErr.Code != "validation_failed" {
		t.Errorf("expected validation_failed, got %s", apiErr.Code)
	}
	msgs := apiErr.Fields["address"]
	if len(msgs) != 1 || msgs[0] != usecases.MsgAddressUnprocessable {
		t.Errorf("expected the address field message, got %v", apiErr.Fields)
	}
}

func TestCreateSpot_EmptySubmission(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("POST", "/v1/spots", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 422 {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
}

func TestGetSpot_NotFound(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/spots/nope", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 404 {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestNearestSpots_ExcludesSelf(t *testing.T) {
	subject := &domain.Spot{ID: "spot-1", Location: &domain.Coordinate{Lat: 47.6, Lng: -122.3}}
	deps := makeDeps(func(m *depMocks) {
		m.spots.getByIDFn = func(ctx context.Context, id string) (*domain.Spot, error) {
			return subject, nil
		}
		m.spots.listInBoundsFn = func(ctx context.Context, b domain.Bounds) ([]domain.Spot, error) {
			return []domain.Spot{
				*subject,
				{ID: "spot-2", Location: &domain.Coordinate{Lat: 47.61, Lng: -122.3}},
			}, nil
		}
	})
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/spots/spot-1/nearest", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		Nearest []usecases.DistanceResult `json:"nearest"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}
	if len(result.Nearest) != 1 {
		t.Fatalf("expected 1 neighbor, got %d", len(result.Nearest))
	}
	if result.Nearest[0].Spot.ID != "spot-2" {
		t.Errorf("unexpected neighbor: %q", result.Nearest[0].Spot.ID)
	}
	if result.Nearest[0].Direction == nil || result.Nearest[0].Direction.Name != "North" {
		t.Errorf("expected North direction, got %+v", result.Nearest[0].Direction)
	}
}

func TestNearestToPoint_MissingParams(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/spots/nearest", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}

	var apiErr handler.APIError
	json.NewDecoder(resp.Body).Decode(&apiErr)
	if apiErr.Code != "bad_request" {
		t.Errorf("expected bad_request, got %s", apiErr.Code)
	}
}

// ---- Direction handler tests ----

func TestDirection_North(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/direction?from_lat=47.6&from_lng=-122.3&to_lat=47.7&to_lng=-122.3", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		DistanceMiles float64 `json:"distance_miles"`
		Bearing       float64 `json:"bearing"`
		Direction     *struct {
			Name string `json:"name"`
			Abbr string `json:"abbr"`
		} `json:"direction"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}
	if result.Direction == nil || result.Direction.Name != "North" {
		t.Errorf("expected North, got %+v", result.Direction)
	}
	if result.DistanceMiles < 6.5 || result.DistanceMiles > 7.5 {
		t.Errorf("0.1 degrees of latitude should be about 6.9 miles, got %f", result.DistanceMiles)
	}
}

func TestDirection_FarApartHasNoLabel(t *testing.T) {
	app := setupApp(makeDeps())

	// Seattle to Los Angeles: direction label is suppressed past 100 miles
	req := httptest.NewRequest("GET", "/v1/direction?from_lat=47.6&from_lng=-122.3&to_lat=34.05&to_lng=-118.24", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		Direction *struct{ Name string } `json:"direction"`
	}
	json.NewDecoder(resp.Body).Decode(&result)
	if result.Direction != nil {
		t.Errorf("expected no direction label, got %+v", result.Direction)
	}
}

func TestDirection_OutOfRange(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/direction?from_lat=91&from_lng=0&to_lat=0&to_lng=0", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

// ---- City handler tests ----

func TestListCities_Pagination(t *testing.T) {
	cities := make([]domain.City, 5)
	for i := range cities {
		cities[i] = domain.City{ID: string(rune('a' + i)), City: "City"}
	}
	deps := makeDeps(func(m *depMocks) {
		m.cities.listFn = func(ctx context.Context, country, state string) ([]domain.City, error) {
			return cities, nil
		}
	})
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/cities?offset=2&limit=2", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		Data       []domain.City `json:"data"`
		Pagination struct {
			Offset int `json:"offset"`
			Total  int `json:"total"`
		} `json:"pagination"`
	}
	json.NewDecoder(resp.Body).Decode(&result)
	if result.Pagination.Total != 5 {
		t.Errorf("expected total 5, got %d", result.Pagination.Total)
	}
	if len(result.Data) != 2 {
		t.Errorf("expected 2 cities in page, got %d", len(result.Data))
	}
	if result.Pagination.Offset != 2 {
		t.Errorf("expected offset 2, got %d", result.Pagination.Offset)
	}
}

func TestGetCity_NotFound(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/cities/nowhere-xx-us", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 404 {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestCityNeighborhoods_Success(t *testing.T) {
	deps := makeDeps(func(m *depMocks) {
		m.cities.getBySlugFn = func(ctx context.Context, slug string) (*domain.City, error) {
			return seattle(), nil
		}
		m.hoodsDB.listByCityFn = func(ctx context.Context, cityID string) ([]domain.Neighborhood, error) {
			return []domain.Neighborhood{
				{ID: "n1", CityID: cityID, Name: "Ballard", Slug: "ballard"},
				{ID: "n2", CityID: cityID, Name: "Fremont", Slug: "fremont"},
			}, nil
		}
	})
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/cities/seattle-wa-us/neighborhoods", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		Neighborhoods []domain.Neighborhood `json:"neighborhoods"`
	}
	json.NewDecoder(resp.Body).Decode(&result)
	if len(result.Neighborhoods) != 2 {
		t.Errorf("expected 2 neighborhoods, got %d", len(result.Neighborhoods))
	}
}

func TestNeighborhoodSpots_Success(t *testing.T) {
	deps := makeDeps(func(m *depMocks) {
		m.cities.getBySlugFn = func(ctx context.Context, slug string) (*domain.City, error) {
			return seattle(), nil
		}
		m.hoodsDB.getBySlugFn = func(ctx context.Context, cityID, slug string) (*domain.Neighborhood, error) {
			return &domain.Neighborhood{ID: "n1", CityID: cityID, Name: "Ballard", Slug: slug}, nil
		}
		m.spots.listByNeighborhoodFn = func(ctx context.Context, hoodID string, offset, limit int) ([]domain.Spot, error) {
			return []domain.Spot{{ID: "spot-1", Address: "1525 NW 57th St"}}, nil
		}
	})
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/cities/seattle-wa-us/neighborhoods/ballard/spots", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		Spots []domain.Spot `json:"spots"`
	}
	json.NewDecoder(resp.Body).Decode(&result)
	if len(result.Spots) != 1 {
		t.Errorf("expected 1 spot, got %d", len(result.Spots))
	}
}

// ---- GraphQL tests ----

func TestGraphQL_CityQuery(t *testing.T) {
	deps := makeDeps(func(m *depMocks) {
		m.cities.getBySlugFn = func(ctx context.Context, slug string) (*domain.City, error) {
			return seattle(), nil
		}
	})
	app := setupApp(deps)

	body := `{"query": "{ city(slug: \"seattle-wa-us\") { city slug } }"}`
	req := httptest.NewRequest("POST", "/graphql", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		Data struct {
			City struct {
				City string `json:"city"`
				Slug string `json:"slug"`
			} `json:"city"`
		} `json:"data"`
		Errors []interface{} `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected graphql errors: %v", result.Errors)
	}
	if result.Data.City.Slug != "seattle-wa-us" {
		t.Errorf("unexpected city: %+v", result.Data.City)
	}
}

// ---- Health ----

func TestHealth(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/health", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}
