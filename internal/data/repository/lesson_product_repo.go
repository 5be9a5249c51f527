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

type LessonProductRepository interface {
	Create(ctx context.Context, product *entity.LessonProduct) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.LessonProduct, error)
	FindAll(ctx context.Context, sportID *uuid.UUID) ([]*entity.LessonProduct, error)
	Update(ctx context.Context, product *entity.LessonProduct) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type lessonProductRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewLessonProductRepository(db database.PgxIface, log *zap.Logger) LessonProductRepository {
	return &lessonProductRepository{
		db:  db,
		log: log.With(zap.String("repository", "lesson_product")),
	}
}

const lessonProductColumns = `id, sport_id, title, description, sessions_count, price, created_at, updated_at`

func scanLessonProduct(row pgx.Row) (*entity.LessonProduct, error) {
	var p entity.LessonProduct
	err := row.Scan(
		&p.ID,
		&p.SportID,
		&p.Title,
		&p.Description,
		&p.SessionsCount,
		&p.Price,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *lessonProductRepository) Create(ctx context.Context, product *entity.LessonProduct) error {
	sql := `
		INSERT INTO lesson_products
			(id, sport_id, title, description, sessions_count, price, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := exec(ctx, r.db, sql,
		product.ID,
		product.SportID,
		product.Title,
		product.Description,
		product.SessionsCount,
		product.Price,
		product.CreatedAt,
		product.UpdatedAt,
	)

	if err != nil {
		r.log.Error("Failed to create lesson product", zap.Error(err), zap.String("title", product.Title))
		return fmt.Errorf("create lesson product: %w", err)
	}

	return nil
}

func (r *lessonProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.LessonProduct, error) {
	sql := `SELECT ` + lessonProductColumns + ` FROM lesson_products WHERE id = $1`

	p, err := scanLessonProduct(queryRow(ctx, r.db, sql, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find lesson product", zap.Error(err), zap.String("id", id.String()))
		return nil, fmt.Errorf("find lesson product %s: %w", id.String(), err)
	}

	return p, nil
}

func (r *lessonProductRepository) FindAll(ctx context.Context, sportID *uuid.UUID) ([]*entity.LessonProduct, error) {
	sql := `SELECT ` + lessonProductColumns + ` FROM lesson_products`
	var args []any
	if sportID != nil {
		sql += ` WHERE sport_id = $1`
		args = append(args, *sportID)
	}
	sql += ` ORDER BY created_at DESC`

	rows, err := query(ctx, r.db, sql, args...)
	if err != nil {
		r.log.Error("Failed to query lesson products", zap.Error(err))
		return nil, fmt.Errorf("query lesson products: %w", err)
	}
	defer rows.Close()

	var products []*entity.LessonProduct
	for rows.Next() {
		p, err := scanLessonProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lesson product row: %w", err)
		}
		products = append(products, p)
	}

	return products, rows.Err()
}

func (r *lessonProductRepository) Update(ctx context.Context, product *entity.LessonProduct) error {
	sql := `
		UPDATE lesson_products
		SET sport_id = $2, title = $3, description = $4, sessions_count = $5, price = $6, updated_at = $7
		WHERE id = $1
	`

	result, err := exec(ctx, r.db, sql,
		product.ID,
		product.SportID,
		product.Title,
		product.Description,
		product.SessionsCount,
		product.Price,
		product.UpdatedAt,
	)

	if err != nil {
		r.log.Error("Failed to update lesson product", zap.Error(err), zap.String("id", product.ID.String()))
		return fmt.Errorf("update lesson product %s: %w", product.ID.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("lesson product %s not found", product.ID.String())
	}

	return nil
}

func (r *lessonProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := exec(ctx, r.db, `DELETE FROM lesson_products WHERE id = $1`, id)
	if err != nil {
		r.log.Error("Failed to delete lesson product", zap.Error(err), zap.String("id", id.String()))
		return fmt.Errorf("delete lesson product %s: %w", id.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("lesson product %s not found", id.String())
	}

	return nil
}
