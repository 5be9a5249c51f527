package repository

import (
	"context"
	"fmt"

	"lesson-booking/internal/data/entity"
	"lesson-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type LocationRepository interface {
	Create(ctx context.Context, location *entity.Location) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Location, error)
	FindAll(ctx context.Context) ([]*entity.Location, error)
	Update(ctx context.Context, location *entity.Location) error
}

type locationRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewLocationRepository(db database.PgxIface, log *zap.Logger) LocationRepository {
	return &locationRepository{
		db:  db,
		log: log.With(zap.String("repository", "location")),
	}
}

func (r *locationRepository) Create(ctx context.Context, location *entity.Location) error {
	_, err := exec(ctx, r.db,
		`INSERT INTO locations (id, name, address, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		location.ID, location.Name, location.Address, location.CreatedAt, location.UpdatedAt)
	if err != nil {
		r.log.Error("Failed to create location", zap.Error(err), zap.String("name", location.Name))
		return fmt.Errorf("create location: %w", err)
	}
	return nil
}

func (r *locationRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Location, error) {
	var l entity.Location
	err := queryRow(ctx, r.db,
		`SELECT id, name, address, created_at, updated_at FROM locations WHERE id = $1`, id).
		Scan(&l.ID, &l.Name, &l.Address, &l.CreatedAt, &l.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find location", zap.Error(err), zap.String("id", id.String()))
		return nil, fmt.Errorf("find location %s: %w", id.String(), err)
	}
	return &l, nil
}

func (r *locationRepository) FindAll(ctx context.Context) ([]*entity.Location, error) {
	rows, err := query(ctx, r.db,
		`SELECT id, name, address, created_at, updated_at FROM locations ORDER BY name`)
	if err != nil {
		r.log.Error("Failed to query locations", zap.Error(err))
		return nil, fmt.Errorf("query locations: %w", err)
	}
	defer rows.Close()

	var locations []*entity.Location
	for rows.Next() {
		var l entity.Location
		if err := rows.Scan(&l.ID, &l.Name, &l.Address, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan location row: %w", err)
		}
		locations = append(locations, &l)
	}

	return locations, rows.Err()
}

func (r *locationRepository) Update(ctx context.Context, location *entity.Location) error {
	result, err := exec(ctx, r.db,
		`UPDATE locations SET name = $2, address = $3, updated_at = $4 WHERE id = $1`,
		location.ID, location.Name, location.Address, location.UpdatedAt)
	if err != nil {
		r.log.Error("Failed to update location", zap.Error(err), zap.String("id", location.ID.String()))
		return fmt.Errorf("update location %s: %w", location.ID.String(), err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("location %s not found", location.ID.String())
	}
	return nil
}
