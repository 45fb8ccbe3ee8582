package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jcroft/spots/internal/core/domain"
)

// CityRepo implements ports.CityRepository with pgx.
type CityRepo struct {
	db *DB
}

// NewCityRepo creates a new CityRepo.
func NewCityRepo(db *DB) *CityRepo {
	return &CityRepo{db: db}
}

const citySelectColumns = `
	id, city, state, county, province, country, slug,
	latitude, longitude, COALESCE(description, ''), created_at`

func scanCity(row pgx.Row) (*domain.City, error) {
	var c domain.City
	var lat, lng *float64
	if err := row.Scan(
		&c.ID, &c.City, &c.State, &c.County, &c.Province, &c.Country, &c.Slug,
		&lat, &lng, &c.Description, &c.CreatedAt,
	); err != nil {
		return nil, err
	}
	if lat != nil && lng != nil {
		c.Location = &domain.Coordinate{Lat: *lat, Lng: *lng}
	}
	return &c, nil
}

// FindOrCreate returns the city matching the (city, state, province, country)
// tuple, inserting it first if absent. Concurrent callers racing on the same
// tuple converge on one row: the insert is ON CONFLICT DO NOTHING and the
// follow-up select sees whichever insert won.
func (r *CityRepo) FindOrCreate(ctx context.Context, city *domain.City) (*domain.City, error) {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO cities (city, state, county, province, country, slug)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (city, state, province, country) DO NOTHING
	`, city.City, city.State, city.County, city.Province, city.Country, city.Slug)
	if err != nil {
		return nil, fmt.Errorf("insert city: %w", err)
	}

	saved, err := scanCity(r.db.Pool.QueryRow(ctx, `
		SELECT`+citySelectColumns+`
		FROM cities
		WHERE city = $1 AND state = $2 AND province = $3 AND country = $4
	`, city.City, city.State, city.Province, city.Country))
	if err != nil {
		return nil, fmt.Errorf("select city: %w", err)
	}
	return saved, nil
}

// GetBySlug returns a city by its URL slug, or nil when absent.
func (r *CityRepo) GetBySlug(ctx context.Context, slug string) (*domain.City, error) {
	c, err := scanCity(r.db.Pool.QueryRow(ctx, `
		SELECT`+citySelectColumns+`
		FROM cities WHERE slug = $1
	`, slug))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// GetByID returns a city by UUID, or nil when absent.
func (r *CityRepo) GetByID(ctx context.Context, id string) (*domain.City, error) {
	c, err := scanCity(r.db.Pool.QueryRow(ctx, `
		SELECT`+citySelectColumns+`
		FROM cities WHERE id = $1
	`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// List returns cities ordered by name, optionally filtered by country and
// by state or province.
func (r *CityRepo) List(ctx context.Context, country, state string) ([]domain.City, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT`+citySelectColumns+`
		FROM cities
		WHERE ($1 = '' OR country = $1)
		  AND ($2 = '' OR state = $2 OR province = $2)
		ORDER BY country, state, province, city
	`, country, state)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cities []domain.City
	for rows.Next() {
		c, err := scanCity(rows)
		if err != nil {
			return nil, err
		}
		cities = append(cities, *c)
	}
	return cities, rows.Err()
}

// ListInBounds returns cities whose centroid falls inside the rectangle.
// Cities without a geocoded centroid are excluded.
func (r *CityRepo) ListInBounds(ctx context.Context, b domain.Bounds) ([]domain.City, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT`+citySelectColumns+`
		FROM cities
		WHERE latitude BETWEEN $1 AND $2
		  AND longitude BETWEEN $3 AND $4
	`, b.MinLat(), b.MaxLat(), b.MinLng(), b.MaxLng())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cities []domain.City
	for rows.Next() {
		c, err := scanCity(rows)
		if err != nil {
			return nil, err
		}
		cities = append(cities, *c)
	}
	return cities, rows.Err()
}

// UpdateLocation records the geocoded centroid of a city.
func (r *CityRepo) UpdateLocation(ctx context.Context, id string, loc domain.Coordinate) error {
	_, err := r.db.Pool.Exec(ctx, `
		UPDATE cities SET latitude = $2, longitude = $3 WHERE id = $1
	`, id, loc.Lat, loc.Lng)
	return err
}
