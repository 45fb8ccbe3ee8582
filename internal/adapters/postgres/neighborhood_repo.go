package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jcroft/spots/internal/core/domain"
)

// NeighborhoodRepo implements ports.NeighborhoodRepository with pgx.
type NeighborhoodRepo struct {
	db *DB
}

// NewNeighborhoodRepo creates a new NeighborhoodRepo.
func NewNeighborhoodRepo(db *DB) *NeighborhoodRepo {
	return &NeighborhoodRepo{db: db}
}

// FindOrCreate returns the neighborhood matching (city_id, name), inserting
// it first if absent. Same race posture as CityRepo.FindOrCreate.
func (r *NeighborhoodRepo) FindOrCreate(ctx context.Context, n *domain.Neighborhood) (*domain.Neighborhood, error) {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO neighborhoods (city_id, name, slug)
		VALUES ($1, $2, $3)
		ON CONFLICT (city_id, name) DO NOTHING
	`, n.CityID, n.Name, n.Slug)
	if err != nil {
		return nil, fmt.Errorf("insert neighborhood: %w", err)
	}

	var saved domain.Neighborhood
	err = r.db.Pool.QueryRow(ctx, `
		SELECT id, city_id, name, slug
		FROM neighborhoods
		WHERE city_id = $1 AND name = $2
	`, n.CityID, n.Name).Scan(&saved.ID, &saved.CityID, &saved.Name, &saved.Slug)
	if err != nil {
		return nil, fmt.Errorf("select neighborhood: %w", err)
	}
	return &saved, nil
}

// GetBySlug returns one neighborhood of a city by slug, or nil when absent.
func (r *NeighborhoodRepo) GetBySlug(ctx context.Context, cityID, slug string) (*domain.Neighborhood, error) {
	var n domain.Neighborhood
	err := r.db.Pool.QueryRow(ctx, `
		SELECT id, city_id, name, slug
		FROM neighborhoods
		WHERE city_id = $1 AND slug = $2
	`, cityID, slug).Scan(&n.ID, &n.CityID, &n.Name, &n.Slug)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// ListByCity returns a city's neighborhoods ordered by name.
func (r *NeighborhoodRepo) ListByCity(ctx context.Context, cityID string) ([]domain.Neighborhood, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, city_id, name, slug
		FROM neighborhoods
		WHERE city_id = $1
		ORDER BY name
	`, cityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hoods []domain.Neighborhood
	for rows.Next() {
		var n domain.Neighborhood
		if err := rows.Scan(&n.ID, &n.CityID, &n.Name, &n.Slug); err != nil {
			return nil, err
		}
		hoods = append(hoods, n)
	}
	return hoods, rows.Err()
}
