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

type PaymentRepository interface {
	Create(ctx context.Context, payment *entity.Payment) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Payment, error)
	FindByOrder(ctx context.Context, orderID uuid.UUID) ([]*entity.Payment, error)
	NextAttemptNumber(ctx context.Context, orderID uuid.UUID) (int, error)
	UpdateResult(ctx context.Context, payment *entity.Payment) error
}

type paymentRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewPaymentRepository(db database.PgxIface, log *zap.Logger) PaymentRepository {
	return &paymentRepository{
		db:  db,
		log: log.With(zap.String("repository", "payment")),
	}
}

const paymentColumns = `id, order_id, attempt_number, amount, status, pg_provider, moid, tid,
	raw_request, raw_response, error_code, error_message, created_at, updated_at`

func scanPayment(row pgx.Row) (*entity.Payment, error) {
	var p entity.Payment
	err := row.Scan(
		&p.ID,
		&p.OrderID,
		&p.AttemptNumber,
		&p.Amount,
		&p.Status,
		&p.PGProvider,
		&p.Moid,
		&p.TID,
		&p.RawRequest,
		&p.RawResponse,
		&p.ErrorCode,
		&p.ErrorMessage,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *paymentRepository) Create(ctx context.Context, payment *entity.Payment) error {
	sql := `
		INSERT INTO payments
			(id, order_id, attempt_number, amount, status, pg_provider, moid, tid,
			 raw_request, raw_response, error_code, error_message, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := exec(ctx, r.db, sql,
		payment.ID,
		payment.OrderID,
		payment.AttemptNumber,
		payment.Amount,
		payment.Status,
		payment.PGProvider,
		payment.Moid,
		payment.TID,
		payment.RawRequest,
		payment.RawResponse,
		payment.ErrorCode,
		payment.ErrorMessage,
		payment.CreatedAt,
		payment.UpdatedAt,
	)

	if err != nil {
		r.log.Error("Failed to create payment",
			zap.Error(err),
			zap.String("order_id", payment.OrderID.String()),
		)
		return fmt.Errorf("create payment: %w", err)
	}

	return nil
}

func (r *paymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Payment, error) {
	p, err := scanPayment(queryRow(ctx, r.db,
		`SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find payment", zap.Error(err), zap.String("id", id.String()))
		return nil, fmt.Errorf("find payment %s: %w", id.String(), err)
	}
	return p, nil
}

func (r *paymentRepository) FindByOrder(ctx context.Context, orderID uuid.UUID) ([]*entity.Payment, error) {
	sql := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE order_id = $1
		ORDER BY attempt_number
	`

	rows, err := query(ctx, r.db, sql, orderID)
	if err != nil {
		r.log.Error("Failed to query payments", zap.Error(err), zap.String("order_id", orderID.String()))
		return nil, fmt.Errorf("query payments for order %s: %w", orderID.String(), err)
	}
	defer rows.Close()

	var payments []*entity.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan payment row: %w", err)
		}
		payments = append(payments, p)
	}

	return payments, rows.Err()
}

func (r *paymentRepository) NextAttemptNumber(ctx context.Context, orderID uuid.UUID) (int, error) {
	var max int
	err := queryRow(ctx, r.db,
		`SELECT COALESCE(MAX(attempt_number), 0) FROM payments WHERE order_id = $1`, orderID).
		Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("next attempt number for order %s: %w", orderID.String(), err)
	}
	return max + 1, nil
}

func (r *paymentRepository) UpdateResult(ctx context.Context, payment *entity.Payment) error {
	sql := `
		UPDATE payments
		SET status = $2, tid = $3, raw_response = $4, error_code = $5, error_message = $6, updated_at = $7
		WHERE id = $1
	`

	result, err := exec(ctx, r.db, sql,
		payment.ID,
		payment.Status,
		payment.TID,
		payment.RawResponse,
		payment.ErrorCode,
		payment.ErrorMessage,
		payment.UpdatedAt,
	)

	if err != nil {
		r.log.Error("Failed to update payment result",
			zap.Error(err),
			zap.String("id", payment.ID.String()),
		)
		return fmt.Errorf("update payment %s: %w", payment.ID.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("payment %s not found", payment.ID.String())
	}

	return nil
}
