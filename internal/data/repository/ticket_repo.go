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

type TicketRepository interface {
	Create(ctx context.Context, ticket *entity.Ticket) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Ticket, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Ticket, error)
	FindByUser(ctx context.Context, userID uuid.UUID) ([]*entity.Ticket, error)
	FindByOrderID(ctx context.Context, orderID uuid.UUID) (*entity.Ticket, error)
	FindQualifying(ctx context.Context, userID, lessonProductID uuid.UUID) (*entity.Ticket, error)
	Update(ctx context.Context, ticket *entity.Ticket) error
}

type ticketRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewTicketRepository(db database.PgxIface, log *zap.Logger) TicketRepository {
	return &ticketRepository{
		db:  db,
		log: log.With(zap.String("repository", "ticket")),
	}
}

const ticketColumns = `id, order_id, user_id, lesson_product_id, sessions_total, sessions_used,
	is_active, status, valid_until, created_at, updated_at`

func scanTicket(row pgx.Row) (*entity.Ticket, error) {
	var t entity.Ticket
	err := row.Scan(
		&t.ID,
		&t.OrderID,
		&t.UserID,
		&t.LessonProductID,
		&t.SessionsTotal,
		&t.SessionsUsed,
		&t.IsActive,
		&t.Status,
		&t.ValidUntil,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *ticketRepository) Create(ctx context.Context, ticket *entity.Ticket) error {
	sql := `
		INSERT INTO tickets
			(id, order_id, user_id, lesson_product_id, sessions_total, sessions_used,
			 is_active, status, valid_until, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := exec(ctx, r.db, sql,
		ticket.ID,
		ticket.OrderID,
		ticket.UserID,
		ticket.LessonProductID,
		ticket.SessionsTotal,
		ticket.SessionsUsed,
		ticket.IsActive,
		ticket.Status,
		ticket.ValidUntil,
		ticket.CreatedAt,
		ticket.UpdatedAt,
	)

	if err != nil {
		r.log.Error("Failed to create ticket",
			zap.Error(err),
			zap.String("user_id", ticket.UserID.String()),
		)
		return fmt.Errorf("create ticket: %w", err)
	}

	return nil
}

func (r *ticketRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Ticket, error) {
	return r.findOne(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE id = $1`, id)
}

// FindByIDForUpdate row-locks the ticket so concurrent consumptions of the
// same ticket serialize.
func (r *ticketRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Ticket, error) {
	return r.findOne(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE id = $1 FOR UPDATE`, id)
}

func (r *ticketRepository) FindByOrderID(ctx context.Context, orderID uuid.UUID) (*entity.Ticket, error) {
	return r.findOne(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE order_id = $1`, orderID)
}

func (r *ticketRepository) findOne(ctx context.Context, sql string, arg any) (*entity.Ticket, error) {
	t, err := scanTicket(queryRow(ctx, r.db, sql, arg))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find ticket", zap.Error(err))
		return nil, fmt.Errorf("find ticket: %w", err)
	}
	return t, nil
}

func (r *ticketRepository) FindByUser(ctx context.Context, userID uuid.UUID) ([]*entity.Ticket, error) {
	sql := `
		SELECT ` + ticketColumns + `
		FROM tickets
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := query(ctx, r.db, sql, userID)
	if err != nil {
		r.log.Error("Failed to query tickets",
			zap.Error(err),
			zap.String("user_id", userID.String()),
		)
		return nil, fmt.Errorf("query tickets for user %s: %w", userID.String(), err)
	}
	defer rows.Close()

	var tickets []*entity.Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			r.log.Error("Failed to scan ticket row", zap.Error(err))
			return nil, fmt.Errorf("scan ticket row: %w", err)
		}
		tickets = append(tickets, t)
	}

	return tickets, rows.Err()
}

// FindQualifying picks the ticket to charge for a lesson booking: bought
// for the booked lesson product, active, with sessions remaining, expiring
// soonest. Tickets without an expiry sort last so dated ones are spent
// first. The row is locked for the caller's transaction.
func (r *ticketRepository) FindQualifying(ctx context.Context, userID, lessonProductID uuid.UUID) (*entity.Ticket, error) {
	sql := `
		SELECT ` + ticketColumns + `
		FROM tickets
		WHERE user_id = $1
			AND lesson_product_id = $2
			AND is_active = TRUE
			AND sessions_used < sessions_total
			AND status NOT IN ('EXPIRED', 'CANCELLED', 'FULLY_USED')
		ORDER BY valid_until ASC NULLS LAST, created_at ASC
		LIMIT 1
		FOR UPDATE
	`

	t, err := scanTicket(queryRow(ctx, r.db, sql, userID, lessonProductID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find qualifying ticket",
			zap.Error(err),
			zap.String("user_id", userID.String()),
		)
		return nil, fmt.Errorf("find qualifying ticket for user %s: %w", userID.String(), err)
	}

	return t, nil
}

func (r *ticketRepository) Update(ctx context.Context, ticket *entity.Ticket) error {
	sql := `
		UPDATE tickets
		SET sessions_used = $2, is_active = $3, status = $4, valid_until = $5, updated_at = $6
		WHERE id = $1
	`

	result, err := exec(ctx, r.db, sql,
		ticket.ID,
		ticket.SessionsUsed,
		ticket.IsActive,
		ticket.Status,
		ticket.ValidUntil,
		ticket.UpdatedAt,
	)

	if err != nil {
		r.log.Error("Failed to update ticket",
			zap.Error(err),
			zap.String("ticket_id", ticket.ID.String()),
		)
		return fmt.Errorf("update ticket %s: %w", ticket.ID.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("ticket %s not found", ticket.ID.String())
	}

	return nil
}
