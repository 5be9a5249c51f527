package repository

import (
	"context"
	"fmt"
	"time"

	"lesson-booking/internal/data/entity"
	"lesson-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// SessionReservationRepository stores ticket-backed lesson reservations.
// The waitlist operations own queue_position numbering: after any enqueue,
// promotion or waiting-cancel the positions for a slot are {1..k}.
type SessionReservationRepository interface {
	Create(ctx context.Context, res *entity.Reservation) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Reservation, error)
	FindActiveByUser(ctx context.Context, userID, scheduleID uuid.UUID) (*entity.Reservation, error)
	FindReservedByUser(ctx context.Context, userID uuid.UUID) ([]*entity.Reservation, error)
	FindBySchedule(ctx context.Context, scheduleID uuid.UUID) ([]*entity.Reservation, error)
	MarkCancelled(ctx context.Context, id uuid.UUID, at time.Time) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status entity.ReservationStatus) error

	// Waitlist queue
	MaxQueuePosition(ctx context.Context, scheduleID uuid.UUID) (int, error)
	FirstWaiting(ctx context.Context, scheduleID uuid.UUID) (*entity.Reservation, error)
	Promote(ctx context.Context, id uuid.UUID) error
	CloseQueueGap(ctx context.Context, scheduleID uuid.UUID, abovePosition int) error
	CountWaiting(ctx context.Context, scheduleID uuid.UUID) (int, error)

	// Day-order validator support
	HasReservedDay(ctx context.Context, userID uuid.UUID, dayOrder int) (bool, error)
}

type sessionReservationRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewSessionReservationRepository(db database.PgxIface, log *zap.Logger) SessionReservationRepository {
	return &sessionReservationRepository{
		db:  db,
		log: log.With(zap.String("repository", "session_reservation")),
	}
}

const sessionReservationColumns = `r.id, t.user_id, r.schedule_id, r.ticket_id, r.day_order, r.is_theory,
	r.is_waiting, r.queue_position, r.status, r.created_at, r.cancelled_at`

func scanSessionReservation(row pgx.Row) (*entity.Reservation, error) {
	var res entity.Reservation
	var ticketID uuid.UUID
	err := row.Scan(
		&res.ID,
		&res.UserID,
		&res.SlotID,
		&ticketID,
		&res.DayOrder,
		&res.IsTheory,
		&res.IsWaiting,
		&res.QueuePosition,
		&res.Status,
		&res.CreatedAt,
		&res.CancelledAt,
	)
	if err != nil {
		return nil, err
	}
	res.TicketID = &ticketID
	return &res, nil
}

func (r *sessionReservationRepository) Create(ctx context.Context, res *entity.Reservation) error {
	if res.TicketID == nil {
		return fmt.Errorf("session reservation requires a ticket")
	}

	sql := `
		INSERT INTO session_reservations
			(id, ticket_id, schedule_id, day_order, is_theory, is_waiting, queue_position, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := exec(ctx, r.db, sql,
		res.ID,
		*res.TicketID,
		res.SlotID,
		res.DayOrder,
		res.IsTheory,
		res.IsWaiting,
		res.QueuePosition,
		res.Status,
		res.CreatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("reservation for ticket %s on schedule %s: %w",
				res.TicketID.String(), res.SlotID.String(), entity.ErrDuplicateReservation)
		}
		r.log.Error("Failed to create session reservation",
			zap.Error(err),
			zap.String("schedule_id", res.SlotID.String()),
		)
		return fmt.Errorf("create session reservation: %w", err)
	}

	return nil
}

func (r *sessionReservationRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Reservation, error) {
	sql := `
		SELECT ` + sessionReservationColumns + `
		FROM session_reservations r
		JOIN tickets t ON t.id = r.ticket_id
		WHERE r.id = $1
	`

	res, err := scanSessionReservation(queryRow(ctx, r.db, sql, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find session reservation",
			zap.Error(err),
			zap.String("reservation_id", id.String()),
		)
		return nil, fmt.Errorf("find session reservation %s: %w", id.String(), err)
	}

	return res, nil
}

func (r *sessionReservationRepository) FindActiveByUser(ctx context.Context, userID, scheduleID uuid.UUID) (*entity.Reservation, error) {
	sql := `
		SELECT ` + sessionReservationColumns + `
		FROM session_reservations r
		JOIN tickets t ON t.id = r.ticket_id
		WHERE t.user_id = $1 AND r.schedule_id = $2 AND r.status = 'RESERVED'
		LIMIT 1
	`

	res, err := scanSessionReservation(queryRow(ctx, r.db, sql, userID, scheduleID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find active session reservation",
			zap.Error(err),
			zap.String("user_id", userID.String()),
			zap.String("schedule_id", scheduleID.String()),
		)
		return nil, fmt.Errorf("find active session reservation: %w", err)
	}

	return res, nil
}

func (r *sessionReservationRepository) FindReservedByUser(ctx context.Context, userID uuid.UUID) ([]*entity.Reservation, error) {
	sql := `
		SELECT ` + sessionReservationColumns + `
		FROM session_reservations r
		JOIN tickets t ON t.id = r.ticket_id
		WHERE t.user_id = $1 AND r.status = 'RESERVED'
		ORDER BY r.created_at
	`

	return r.queryReservations(ctx, sql, userID)
}

func (r *sessionReservationRepository) FindBySchedule(ctx context.Context, scheduleID uuid.UUID) ([]*entity.Reservation, error) {
	sql := `
		SELECT ` + sessionReservationColumns + `
		FROM session_reservations r
		JOIN tickets t ON t.id = r.ticket_id
		WHERE r.schedule_id = $1
		ORDER BY r.queue_position NULLS FIRST, r.created_at
	`

	return r.queryReservations(ctx, sql, scheduleID)
}

func (r *sessionReservationRepository) queryReservations(ctx context.Context, sql string, args ...any) ([]*entity.Reservation, error) {
	rows, err := query(ctx, r.db, sql, args...)
	if err != nil {
		r.log.Error("Failed to query session reservations", zap.Error(err))
		return nil, fmt.Errorf("query session reservations: %w", err)
	}
	defer rows.Close()

	var reservations []*entity.Reservation
	for rows.Next() {
		res, err := scanSessionReservation(rows)
		if err != nil {
			r.log.Error("Failed to scan session reservation row", zap.Error(err))
			return nil, fmt.Errorf("scan session reservation row: %w", err)
		}
		reservations = append(reservations, res)
	}

	return reservations, rows.Err()
}

func (r *sessionReservationRepository) MarkCancelled(ctx context.Context, id uuid.UUID, at time.Time) error {
	sql := `
		UPDATE session_reservations
		SET status = 'CANCELLED', cancelled_at = $2
		WHERE id = $1 AND status = 'RESERVED'
	`

	result, err := exec(ctx, r.db, sql, id, at)
	if err != nil {
		r.log.Error("Failed to cancel session reservation",
			zap.Error(err),
			zap.String("reservation_id", id.String()),
		)
		return fmt.Errorf("cancel session reservation %s: %w", id.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("session reservation %s: %w", id.String(), entity.ErrReservationNotFound)
	}

	return nil
}

func (r *sessionReservationRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status entity.ReservationStatus) error {
	result, err := exec(ctx, r.db,
		`UPDATE session_reservations SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("update session reservation %s status: %w", id.String(), err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("session reservation %s: %w", id.String(), entity.ErrReservationNotFound)
	}
	return nil
}

func (r *sessionReservationRepository) MaxQueuePosition(ctx context.Context, scheduleID uuid.UUID) (int, error) {
	sql := `
		SELECT COALESCE(MAX(queue_position), 0)
		FROM session_reservations
		WHERE schedule_id = $1 AND is_waiting = TRUE AND status = 'RESERVED'
	`

	var max int
	if err := queryRow(ctx, r.db, sql, scheduleID).Scan(&max); err != nil {
		r.log.Error("Failed to read max queue position",
			zap.Error(err),
			zap.String("schedule_id", scheduleID.String()),
		)
		return 0, fmt.Errorf("max queue position for schedule %s: %w", scheduleID.String(), err)
	}

	return max, nil
}

func (r *sessionReservationRepository) FirstWaiting(ctx context.Context, scheduleID uuid.UUID) (*entity.Reservation, error) {
	sql := `
		SELECT ` + sessionReservationColumns + `
		FROM session_reservations r
		JOIN tickets t ON t.id = r.ticket_id
		WHERE r.schedule_id = $1 AND r.is_waiting = TRUE AND r.status = 'RESERVED'
		ORDER BY r.queue_position
		LIMIT 1
	`

	res, err := scanSessionReservation(queryRow(ctx, r.db, sql, scheduleID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find first waiting reservation",
			zap.Error(err),
			zap.String("schedule_id", scheduleID.String()),
		)
		return nil, fmt.Errorf("first waiting for schedule %s: %w", scheduleID.String(), err)
	}

	return res, nil
}

// Promote flips a waiting entry into a seated one. The caller closes the
// queue gap and increments the capacity ledger afterwards.
func (r *sessionReservationRepository) Promote(ctx context.Context, id uuid.UUID) error {
	sql := `
		UPDATE session_reservations
		SET is_waiting = FALSE, queue_position = NULL
		WHERE id = $1 AND is_waiting = TRUE AND status = 'RESERVED'
	`

	result, err := exec(ctx, r.db, sql, id)
	if err != nil {
		r.log.Error("Failed to promote session reservation",
			zap.Error(err),
			zap.String("reservation_id", id.String()),
		)
		return fmt.Errorf("promote session reservation %s: %w", id.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("session reservation %s: %w", id.String(), entity.ErrReservationNotFound)
	}

	return nil
}

// CloseQueueGap shifts every waiting entry behind the vacated position up
// by one, preserving relative order and keeping positions gapless.
func (r *sessionReservationRepository) CloseQueueGap(ctx context.Context, scheduleID uuid.UUID, abovePosition int) error {
	sql := `
		UPDATE session_reservations
		SET queue_position = queue_position - 1
		WHERE schedule_id = $1 AND is_waiting = TRUE AND status = 'RESERVED' AND queue_position > $2
	`

	_, err := exec(ctx, r.db, sql, scheduleID, abovePosition)
	if err != nil {
		r.log.Error("Failed to close waitlist gap",
			zap.Error(err),
			zap.String("schedule_id", scheduleID.String()),
			zap.Int("above_position", abovePosition),
		)
		return fmt.Errorf("close waitlist gap for schedule %s: %w", scheduleID.String(), err)
	}

	return nil
}

func (r *sessionReservationRepository) CountWaiting(ctx context.Context, scheduleID uuid.UUID) (int, error) {
	sql := `
		SELECT COUNT(*)
		FROM session_reservations
		WHERE schedule_id = $1 AND is_waiting = TRUE AND status = 'RESERVED'
	`

	var count int
	if err := queryRow(ctx, r.db, sql, scheduleID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count waiting for schedule %s: %w", scheduleID.String(), err)
	}

	return count, nil
}

func (r *sessionReservationRepository) HasReservedDay(ctx context.Context, userID uuid.UUID, dayOrder int) (bool, error) {
	sql := `
		SELECT EXISTS (
			SELECT 1
			FROM session_reservations r
			JOIN tickets t ON t.id = r.ticket_id
			WHERE t.user_id = $1 AND r.status = 'RESERVED' AND r.is_theory = FALSE AND r.day_order = $2
		)
	`

	var exists bool
	if err := queryRow(ctx, r.db, sql, userID, dayOrder).Scan(&exists); err != nil {
		r.log.Error("Failed to check reserved day",
			zap.Error(err),
			zap.String("user_id", userID.String()),
			zap.Int("day_order", dayOrder),
		)
		return false, fmt.Errorf("check reserved day %d: %w", dayOrder, err)
	}

	return exists, nil
}
