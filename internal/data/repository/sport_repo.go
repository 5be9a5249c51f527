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

type SportRepository interface {
	Create(ctx context.Context, sport *entity.Sport) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Sport, error)
	FindAll(ctx context.Context) ([]*entity.Sport, error)
}

type sportRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewSportRepository(db database.PgxIface, log *zap.Logger) SportRepository {
	return &sportRepository{
		db:  db,
		log: log.With(zap.String("repository", "sport")),
	}
}

func (r *sportRepository) Create(ctx context.Context, sport *entity.Sport) error {
	_, err := exec(ctx, r.db,
		`INSERT INTO sports (id, name, created_at) VALUES ($1, $2, $3)`,
		sport.ID, sport.Name, sport.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("sport %q already exists", sport.Name)
		}
		r.log.Error("Failed to create sport", zap.Error(err), zap.String("name", sport.Name))
		return fmt.Errorf("create sport: %w", err)
	}
	return nil
}

func (r *sportRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Sport, error) {
	var s entity.Sport
	err := queryRow(ctx, r.db,
		`SELECT id, name, created_at FROM sports WHERE id = $1`, id).
		Scan(&s.ID, &s.Name, &s.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find sport", zap.Error(err), zap.String("id", id.String()))
		return nil, fmt.Errorf("find sport %s: %w", id.String(), err)
	}
	return &s, nil
}

func (r *sportRepository) FindAll(ctx context.Context) ([]*entity.Sport, error) {
	rows, err := query(ctx, r.db, `SELECT id, name, created_at FROM sports ORDER BY name`)
	if err != nil {
		r.log.Error("Failed to query sports", zap.Error(err))
		return nil, fmt.Errorf("query sports: %w", err)
	}
	defer rows.Close()

	var sports []*entity.Sport
	for rows.Next() {
		var s entity.Sport
		if err := rows.Scan(&s.ID, &s.Name, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan sport row: %w", err)
		}
		sports = append(sports, &s)
	}

	return sports, rows.Err()
}
