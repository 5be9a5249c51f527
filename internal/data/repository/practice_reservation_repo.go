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

// PracticeReservationRepository stores free-practice reservations. Unlike
// the lesson path these carry the user directly and never reference a ticket.
type PracticeReservationRepository interface {
	Create(ctx context.Context, res *entity.Reservation) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Reservation, error)
	FindActiveByUser(ctx context.Context, userID, sessionID uuid.UUID) (*entity.Reservation, error)
	FindReservedByUser(ctx context.Context, userID uuid.UUID) ([]*entity.Reservation, error)
	FindBySession(ctx context.Context, sessionID uuid.UUID) ([]*entity.Reservation, error)
	MarkCancelled(ctx context.Context, id uuid.UUID, at time.Time) error

	MaxQueuePosition(ctx context.Context, sessionID uuid.UUID) (int, error)
	FirstWaiting(ctx context.Context, sessionID uuid.UUID) (*entity.Reservation, error)
	Promote(ctx context.Context, id uuid.UUID) error
	CloseQueueGap(ctx context.Context, sessionID uuid.UUID, abovePosition int) error
	CountWaiting(ctx context.Context, sessionID uuid.UUID) (int, error)
}

type practiceReservationRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewPracticeReservationRepository(db database.PgxIface, log *zap.Logger) PracticeReservationRepository {
	return &practiceReservationRepository{
		db:  db,
		log: log.With(zap.String("repository", "practice_reservation")),
	}
}

const practiceReservationColumns = `id, user_id, practice_session_id, is_waiting, queue_position, status, created_at, cancelled_at`

func scanPracticeReservation(row pgx.Row) (*entity.Reservation, error) {
	var res entity.Reservation
	err := row.Scan(
		&res.ID,
		&res.UserID,
		&res.SlotID,
		&res.IsWaiting,
		&res.QueuePosition,
		&res.Status,
		&res.CreatedAt,
		&res.CancelledAt,
	)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *practiceReservationRepository) Create(ctx context.Context, res *entity.Reservation) error {
	sql := `
		INSERT INTO practice_reservations
			(id, user_id, practice_session_id, is_waiting, queue_position, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := exec(ctx, r.db, sql,
		res.ID,
		res.UserID,
		res.SlotID,
		res.IsWaiting,
		res.QueuePosition,
		res.Status,
		res.CreatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("reservation for user %s on practice session %s: %w",
				res.UserID.String(), res.SlotID.String(), entity.ErrDuplicateReservation)
		}
		r.log.Error("Failed to create practice reservation",
			zap.Error(err),
			zap.String("practice_session_id", res.SlotID.String()),
		)
		return fmt.Errorf("create practice reservation: %w", err)
	}

	return nil
}

func (r *practiceReservationRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Reservation, error) {
	sql := `
		SELECT ` + practiceReservationColumns + `
		FROM practice_reservations
		WHERE id = $1
	`

	res, err := scanPracticeReservation(queryRow(ctx, r.db, sql, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find practice reservation",
			zap.Error(err),
			zap.String("reservation_id", id.String()),
		)
		return nil, fmt.Errorf("find practice reservation %s: %w", id.String(), err)
	}

	return res, nil
}

func (r *practiceReservationRepository) FindActiveByUser(ctx context.Context, userID, sessionID uuid.UUID) (*entity.Reservation, error) {
	sql := `
		SELECT ` + practiceReservationColumns + `
		FROM practice_reservations
		WHERE user_id = $1 AND practice_session_id = $2 AND status = 'RESERVED'
		LIMIT 1
	`

	res, err := scanPracticeReservation(queryRow(ctx, r.db, sql, userID, sessionID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find active practice reservation",
			zap.Error(err),
			zap.String("user_id", userID.String()),
			zap.String("practice_session_id", sessionID.String()),
		)
		return nil, fmt.Errorf("find active practice reservation: %w", err)
	}

	return res, nil
}

func (r *practiceReservationRepository) FindReservedByUser(ctx context.Context, userID uuid.UUID) ([]*entity.Reservation, error) {
	sql := `
		SELECT ` + practiceReservationColumns + `
		FROM practice_reservations
		WHERE user_id = $1 AND status = 'RESERVED'
		ORDER BY created_at
	`

	return r.queryReservations(ctx, sql, userID)
}

func (r *practiceReservationRepository) FindBySession(ctx context.Context, sessionID uuid.UUID) ([]*entity.Reservation, error) {
	sql := `
		SELECT ` + practiceReservationColumns + `
		FROM practice_reservations
		WHERE practice_session_id = $1
		ORDER BY queue_position NULLS FIRST, created_at
	`

	return r.queryReservations(ctx, sql, sessionID)
}

func (r *practiceReservationRepository) queryReservations(ctx context.Context, sql string, args ...any) ([]*entity.Reservation, error) {
	rows, err := query(ctx, r.db, sql, args...)
	if err != nil {
		r.log.Error("Failed to query practice reservations", zap.Error(err))
		return nil, fmt.Errorf("query practice reservations: %w", err)
	}
	defer rows.Close()

	var reservations []*entity.Reservation
	for rows.Next() {
		res, err := scanPracticeReservation(rows)
		if err != nil {
			r.log.Error("Failed to scan practice reservation row", zap.Error(err))
			return nil, fmt.Errorf("scan practice reservation row: %w", err)
		}
		reservations = append(reservations, res)
	}

	return reservations, rows.Err()
}

func (r *practiceReservationRepository) MarkCancelled(ctx context.Context, id uuid.UUID, at time.Time) error {
	sql := `
		UPDATE practice_reservations
		SET status = 'CANCELLED', cancelled_at = $2
		WHERE id = $1 AND status = 'RESERVED'
	`

	result, err := exec(ctx, r.db, sql, id, at)
	if err != nil {
		r.log.Error("Failed to cancel practice reservation",
			zap.Error(err),
			zap.String("reservation_id", id.String()),
		)
		return fmt.Errorf("cancel practice reservation %s: %w", id.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("practice reservation %s: %w", id.String(), entity.ErrReservationNotFound)
	}

	return nil
}

func (r *practiceReservationRepository) MaxQueuePosition(ctx context.Context, sessionID uuid.UUID) (int, error) {
	sql := `
		SELECT COALESCE(MAX(queue_position), 0)
		FROM practice_reservations
		WHERE practice_session_id = $1 AND is_waiting = TRUE AND status = 'RESERVED'
	`

	var max int
	if err := queryRow(ctx, r.db, sql, sessionID).Scan(&max); err != nil {
		return 0, fmt.Errorf("max queue position for practice session %s: %w", sessionID.String(), err)
	}

	return max, nil
}

func (r *practiceReservationRepository) FirstWaiting(ctx context.Context, sessionID uuid.UUID) (*entity.Reservation, error) {
	sql := `
		SELECT ` + practiceReservationColumns + `
		FROM practice_reservations
		WHERE practice_session_id = $1 AND is_waiting = TRUE AND status = 'RESERVED'
		ORDER BY queue_position
		LIMIT 1
	`

	res, err := scanPracticeReservation(queryRow(ctx, r.db, sql, sessionID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("first waiting for practice session %s: %w", sessionID.String(), err)
	}

	return res, nil
}

func (r *practiceReservationRepository) Promote(ctx context.Context, id uuid.UUID) error {
	sql := `
		UPDATE practice_reservations
		SET is_waiting = FALSE, queue_position = NULL
		WHERE id = $1 AND is_waiting = TRUE AND status = 'RESERVED'
	`

	result, err := exec(ctx, r.db, sql, id)
	if err != nil {
		r.log.Error("Failed to promote practice reservation",
			zap.Error(err),
			zap.String("reservation_id", id.String()),
		)
		return fmt.Errorf("promote practice reservation %s: %w", id.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("practice reservation %s: %w", id.String(), entity.ErrReservationNotFound)
	}

	return nil
}

func (r *practiceReservationRepository) CloseQueueGap(ctx context.Context, sessionID uuid.UUID, abovePosition int) error {
	sql := `
		UPDATE practice_reservations
		SET queue_position = queue_position - 1
		WHERE practice_session_id = $1 AND is_waiting = TRUE AND status = 'RESERVED' AND queue_position > $2
	`

	_, err := exec(ctx, r.db, sql, sessionID, abovePosition)
	if err != nil {
		r.log.Error("Failed to close waitlist gap",
			zap.Error(err),
			zap.String("practice_session_id", sessionID.String()),
			zap.Int("above_position", abovePosition),
		)
		return fmt.Errorf("close waitlist gap for practice session %s: %w", sessionID.String(), err)
	}

	return nil
}

func (r *practiceReservationRepository) CountWaiting(ctx context.Context, sessionID uuid.UUID) (int, error) {
	sql := `
		SELECT COUNT(*)
		FROM practice_reservations
		WHERE practice_session_id = $1 AND is_waiting = TRUE AND status = 'RESERVED'
	`

	var count int
	if err := queryRow(ctx, r.db, sql, sessionID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count waiting for practice session %s: %w", sessionID.String(), err)
	}

	return count, nil
}
