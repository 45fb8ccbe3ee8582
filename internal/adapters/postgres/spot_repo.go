package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jcroft/spots/internal/core/domain"
)

// SpotRepo implements ports.SpotRepository with pgx.
type SpotRepo struct {
	db *DB
}

// NewSpotRepo creates a new SpotRepo.
func NewSpotRepo(db *DB) *SpotRepo {
	return &SpotRepo{db: db}
}

// Create inserts a spot and returns it with its generated ID.
func (r *SpotRepo) Create(ctx context.Context, spot *domain.Spot) (*domain.Spot, error) {
	saved := *spot
	var lat, lng *float64
	if spot.Location != nil {
		lat, lng = &spot.Location.Lat, &spot.Location.Lng
	}
	err := r.db.Pool.QueryRow(ctx, `
		INSERT INTO spots (address, city_id, latitude, longitude)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, spot.Address, spot.CityID, lat, lng).Scan(&saved.ID, &saved.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert spot: %w", err)
	}
	return &saved, nil
}

func scanSpot(row pgx.Row) (*domain.Spot, error) {
	var s domain.Spot
	var lat, lng *float64
	if err := row.Scan(&s.ID, &s.Address, &s.CityID, &lat, &lng, &s.CreatedAt); err != nil {
		return nil, err
	}
	if lat != nil && lng != nil {
		s.Location = &domain.Coordinate{Lat: *lat, Lng: *lng}
	}
	return &s, nil
}

// GetByID returns a spot with its city and neighborhoods hydrated, or nil
// when absent.
func (r *SpotRepo) GetByID(ctx context.Context, id string) (*domain.Spot, error) {
	s, err := scanSpot(r.db.Pool.QueryRow(ctx, `
		SELECT id, address, city_id, latitude, longitude, created_at
		FROM spots WHERE id = $1
	`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	city, err := scanCity(r.db.Pool.QueryRow(ctx, `
		SELECT`+citySelectColumns+`
		FROM cities WHERE id = $1
	`, s.CityID))
	if err != nil {
		return nil, fmt.Errorf("load city: %w", err)
	}
	s.City = city

	rows, err := r.db.Pool.Query(ctx, `
		SELECT n.id, n.city_id, n.name, n.slug
		FROM neighborhoods n
		JOIN spot_neighborhoods sn ON sn.neighborhood_id = n.id
		WHERE sn.spot_id = $1
		ORDER BY n.name
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var n domain.Neighborhood
		if err := rows.Scan(&n.ID, &n.CityID, &n.Name, &n.Slug); err != nil {
			return nil, err
		}
		s.Neighborhoods = append(s.Neighborhoods, n)
	}
	return s, rows.Err()
}

func (r *SpotRepo) list(ctx context.Context, query string, args ...any) ([]domain.Spot, error) {
	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var spots []domain.Spot
	for rows.Next() {
		s, err := scanSpot(rows)
		if err != nil {
			return nil, err
		}
		spots = append(spots, *s)
	}
	return spots, rows.Err()
}

// ListByCity returns a city's spots, newest first.
func (r *SpotRepo) ListByCity(ctx context.Context, cityID string, offset, limit int) ([]domain.Spot, error) {
	return r.list(ctx, `
		SELECT id, address, city_id, latitude, longitude, created_at
		FROM spots
		WHERE city_id = $1
		ORDER BY created_at DESC
		OFFSET $2 LIMIT $3
	`, cityID, offset, limit)
}

// ListByNeighborhood returns the spots associated with a neighborhood,
// newest first.
func (r *SpotRepo) ListByNeighborhood(ctx context.Context, neighborhoodID string, offset, limit int) ([]domain.Spot, error) {
	return r.list(ctx, `
		SELECT s.id, s.address, s.city_id, s.latitude, s.longitude, s.created_at
		FROM spots s
		JOIN spot_neighborhoods sn ON sn.spot_id = s.id
		WHERE sn.neighborhood_id = $1
		ORDER BY s.created_at DESC
		OFFSET $2 LIMIT $3
	`, neighborhoodID, offset, limit)
}

// ListInBounds returns spots inside the rectangle. This is the coarse
// prefilter behind proximity queries; exact distance is refined upstream.
func (r *SpotRepo) ListInBounds(ctx context.Context, b domain.Bounds) ([]domain.Spot, error) {
	return r.list(ctx, `
		SELECT id, address, city_id, latitude, longitude, created_at
		FROM spots
		WHERE latitude BETWEEN $1 AND $2
		  AND longitude BETWEEN $3 AND $4
	`, b.MinLat(), b.MaxLat(), b.MinLng(), b.MaxLng())
}

// ListAll pages through every spot, oldest first. Used by the neighborhood
// refresh worker.
func (r *SpotRepo) ListAll(ctx context.Context, offset, limit int) ([]domain.Spot, error) {
	return r.list(ctx, `
		SELECT id, address, city_id, latitude, longitude, created_at
		FROM spots
		ORDER BY created_at
		OFFSET $1 LIMIT $2
	`, offset, limit)
}

// SetNeighborhoods replaces a spot's neighborhood associations.
func (r *SpotRepo) SetNeighborhoods(ctx context.Context, spotID string, neighborhoodIDs []string) error {
	batch := &pgx.Batch{}
	batch.Queue(`DELETE FROM spot_neighborhoods WHERE spot_id = $1`, spotID)
	for _, nid := range neighborhoodIDs {
		batch.Queue(`
			INSERT INTO spot_neighborhoods (spot_id, neighborhood_id)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`, spotID, nid)
	}
	br := r.db.Pool.SendBatch(ctx, batch)
	defer br.Close()
	for i := 0; i < len(neighborhoodIDs)+1; i++ {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("batch exec: %w", err)
		}
	}
	return nil
}
