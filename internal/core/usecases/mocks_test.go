package usecases_test

import (
	"context"
	"strconv"

	"github.com/jcroft/spots/internal/core/domain"
	"github.com/jcroft/spots/internal/core/ports"
)

// --- Provider mocks ---

type mockForward struct {
	geocodeFn func(ctx context.Context, address string) ([]ports.GeocodeResult, error)
	calls     int
}

func (m *mockForward) Geocode(ctx context.Context, address string) ([]ports.GeocodeResult, error) {
	m.calls++
	if m.geocodeFn != nil {
		return m.geocodeFn(ctx, address)
	}
	return nil, nil
}

type mockReverse struct {
	reverseFn func(ctx context.Context, loc domain.Coordinate) (*ports.GeocodeResult, error)
	calls     int
}

func (m *mockReverse) Reverse(ctx context.Context, loc domain.Coordinate) (*ports.GeocodeResult, error) {
	m.calls++
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

// --- Repository mocks ---

// mockCityRepo get-or-creates into an in-memory map keyed the same way the
// real unique constraint is.
type mockCityRepo struct {
	byKey        map[string]*domain.City
	findOrCreate func(ctx context.Context, city *domain.City) (*domain.City, error)
}

func newMockCityRepo() *mockCityRepo {
	return &mockCityRepo{byKey: make(map[string]*domain.City)}
}

func cityKey(c *domain.City) string {
	return c.City + "|" + c.State + "|" + c.Province + "|" + c.Country
}

func (m *mockCityRepo) FindOrCreate(ctx context.Context, city *domain.City) (*domain.City, error) {
	if m.findOrCreate != nil {
		return m.findOrCreate(ctx, city)
	}
	key := cityKey(city)
	if existing, ok := m.byKey[key]; ok {
		return existing, nil
	}
	saved := *city
	saved.ID = "city-" + strconv.Itoa(len(m.byKey)+1)
	m.byKey[key] = &saved
	return &saved, nil
}

func (m *mockCityRepo) GetBySlug(ctx context.Context, slug string) (*domain.City, error) {
	for _, c := range m.byKey {
		if c.Slug == slug {
			return c, nil
		}
	}
	return nil, nil
}

func (m *mockCityRepo) GetByID(ctx context.Context, id string) (*domain.City, error) {
	for _, c := range m.byKey {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, nil
}

func (m *mockCityRepo) List(ctx context.Context, country, state string) ([]domain.City, error) {
	return nil, nil
}

func (m *mockCityRepo) ListInBounds(ctx context.Context, b domain.Bounds) ([]domain.City, error) {
	var out []domain.City
	for _, c := range m.byKey {
		if c.Location == nil {
			continue
		}
		if c.Location.Lat >= b.MinLat() && c.Location.Lat <= b.MaxLat() &&
			c.Location.Lng >= b.MinLng() && c.Location.Lng <= b.MaxLng() {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *mockCityRepo) UpdateLocation(ctx context.Context, id string, loc domain.Coordinate) error {
	for _, c := range m.byKey {
		if c.ID == id {
			l := loc
			c.Location = &l
		}
	}
	return nil
}

type mockNeighborhoodRepo struct {
	byKey map[string]*domain.Neighborhood
}

func newMockNeighborhoodRepo() *mockNeighborhoodRepo {
	return &mockNeighborhoodRepo{byKey: make(map[string]*domain.Neighborhood)}
}

func (m *mockNeighborhoodRepo) FindOrCreate(ctx context.Context, n *domain.Neighborhood) (*domain.Neighborhood, error) {
	key := n.CityID + "|" + n.Name
	if existing, ok := m.byKey[key]; ok {
		return existing, nil
	}
	saved := *n
	saved.ID = "hood-" + strconv.Itoa(len(m.byKey)+1)
	m.byKey[key] = &saved
	return &saved, nil
}

func (m *mockNeighborhoodRepo) GetBySlug(ctx context.Context, cityID, slug string) (*domain.Neighborhood, error) {
	for _, n := range m.byKey {
		if n.CityID == cityID && n.Slug == slug {
			return n, nil
		}
	}
	return nil, nil
}

func (m *mockNeighborhoodRepo) ListByCity(ctx context.Context, cityID string) ([]domain.Neighborhood, error) {
	var out []domain.Neighborhood
	for _, n := range m.byKey {
		if n.CityID == cityID {
			out = append(out, *n)
		}
	}
	return out, nil
}

type mockSpotRepo struct {
	spots        []domain.Spot
	created      []*domain.Spot
	setHoodCalls map[string][]string
	listInBounds func(ctx context.Context, b domain.Bounds) ([]domain.Spot, error)
}

func newMockSpotRepo() *mockSpotRepo {
	return &mockSpotRepo{setHoodCalls: make(map[string][]string)}
}

func (m *mockSpotRepo) Create(ctx context.Context, spot *domain.Spot) (*domain.Spot, error) {
	saved := *spot
	saved.ID = "spot-" + strconv.Itoa(len(m.created)+1)
	m.created = append(m.created, &saved)
	m.spots = append(m.spots, saved)
	return &saved, nil
}

func (m *mockSpotRepo) GetByID(ctx context.Context, id string) (*domain.Spot, error) {
	for i := range m.spots {
		if m.spots[i].ID == id {
			return &m.spots[i], nil
		}
	}
	return nil, nil
}

func (m *mockSpotRepo) ListByCity(ctx context.Context, cityID string, offset, limit int) ([]domain.Spot, error) {
	return nil, nil
}

func (m *mockSpotRepo) ListByNeighborhood(ctx context.Context, neighborhoodID string, offset, limit int) ([]domain.Spot, error) {
	return nil, nil
}

func (m *mockSpotRepo) ListInBounds(ctx context.Context, b domain.Bounds) ([]domain.Spot, error) {
	if m.listInBounds != nil {
		return m.listInBounds(ctx, b)
	}
	var out []domain.Spot
	for _, s := range m.spots {
		if s.Location == nil {
			continue
		}
		if s.Location.Lat >= b.MinLat() && s.Location.Lat <= b.MaxLat() &&
			s.Location.Lng >= b.MinLng() && s.Location.Lng <= b.MaxLng() {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *mockSpotRepo) ListAll(ctx context.Context, offset, limit int) ([]domain.Spot, error) {
	return m.spots, nil
}

func (m *mockSpotRepo) SetNeighborhoods(ctx context.Context, spotID string, neighborhoodIDs []string) error {
	m.setHoodCalls[spotID] = neighborhoodIDs
	return nil
}

type mockPublisher struct {
	created []string
	updated []string
}

func (m *mockPublisher) PublishSpotCreated(ctx context.Context, spot *domain.Spot) error {
	m.created = append(m.created, spot.ID)
	return nil
}

func (m *mockPublisher) PublishNeighborhoodsUpdated(ctx context.Context, spot *domain.Spot) error {
	m.updated = append(m.updated, spot.ID)
	return nil
}
