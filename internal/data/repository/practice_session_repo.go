package repository

import (
	"context"
	"fmt"
	"strings"

	"lesson-booking/internal/data/entity"
	"lesson-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type PracticeSessionRepository interface {
	Create(ctx context.Context, session *entity.PracticeSession) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.PracticeSession, error)
	Update(ctx context.Context, session *entity.PracticeSession) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filters SlotFilters, limit, offset int) ([]*entity.PracticeSession, error)
	Count(ctx context.Context, filters SlotFilters) (int64, error)

	// Capacity ledger, same contract as the schedule repository.
	FindSlotForUpdate(ctx context.Context, id uuid.UUID) (*entity.SlotView, error)
	IncrementBookings(ctx context.Context, id uuid.UUID) error
	DecrementBookings(ctx context.Context, id uuid.UUID) error
}

type practiceSessionRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewPracticeSessionRepository(db database.PgxIface, log *zap.Logger) PracticeSessionRepository {
	return &practiceSessionRepository{
		db:  db,
		log: log.With(zap.String("repository", "practice_session")),
	}
}

const practiceSessionColumns = `id, title, sport_id, instructor_id, location_id, base_schedule_id,
	date, start_time, end_time, capacity, current_bookings, status, version, created_at, updated_at`

func (r *practiceSessionRepository) scanSession(row pgx.Row) (*entity.PracticeSession, error) {
	var p entity.PracticeSession
	err := row.Scan(
		&p.ID,
		&p.Title,
		&p.SportID,
		&p.InstructorID,
		&p.LocationID,
		&p.BaseScheduleID,
		&p.Date,
		&p.StartTime,
		&p.EndTime,
		&p.Capacity,
		&p.CurrentBookings,
		&p.Status,
		&p.Version,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *practiceSessionRepository) Create(ctx context.Context, session *entity.PracticeSession) error {
	sql := `
		INSERT INTO practice_sessions (` + practiceSessionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err := exec(ctx, r.db, sql,
		session.ID,
		session.Title,
		session.SportID,
		session.InstructorID,
		session.LocationID,
		session.BaseScheduleID,
		session.Date,
		session.StartTime,
		session.EndTime,
		session.Capacity,
		session.CurrentBookings,
		session.Status,
		session.Version,
		session.CreatedAt,
		session.UpdatedAt,
	)

	if err != nil {
		r.log.Error("Failed to create practice session",
			zap.Error(err),
			zap.String("instructor_id", session.InstructorID.String()),
		)
		return fmt.Errorf("create practice session: %w", err)
	}

	return nil
}

func (r *practiceSessionRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.PracticeSession, error) {
	sql := `SELECT ` + practiceSessionColumns + ` FROM practice_sessions WHERE id = $1`

	session, err := r.scanSession(queryRow(ctx, r.db, sql, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find practice session by ID",
			zap.Error(err),
			zap.String("session_id", id.String()),
		)
		return nil, fmt.Errorf("find practice session by ID %s: %w", id.String(), err)
	}

	return session, nil
}

func (r *practiceSessionRepository) Update(ctx context.Context, session *entity.PracticeSession) error {
	sql := `
		UPDATE practice_sessions
		SET title = $2, sport_id = $3, instructor_id = $4, location_id = $5, base_schedule_id = $6,
		    date = $7, start_time = $8, end_time = $9, capacity = $10, status = $11, updated_at = $12
		WHERE id = $1
	`

	result, err := exec(ctx, r.db, sql,
		session.ID,
		session.Title,
		session.SportID,
		session.InstructorID,
		session.LocationID,
		session.BaseScheduleID,
		session.Date,
		session.StartTime,
		session.EndTime,
		session.Capacity,
		session.Status,
		session.UpdatedAt,
	)

	if err != nil {
		r.log.Error("Failed to update practice session",
			zap.Error(err),
			zap.String("session_id", session.ID.String()),
		)
		return fmt.Errorf("update practice session %s: %w", session.ID.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("practice session %s: %w", session.ID.String(), entity.ErrSlotNotFound)
	}

	return nil
}

func (r *practiceSessionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	var refs int64
	countSQL := `SELECT COUNT(*) FROM practice_reservations WHERE practice_session_id = $1`
	if err := queryRow(ctx, r.db, countSQL, id).Scan(&refs); err != nil {
		return fmt.Errorf("count practice reservations: %w", err)
	}
	if refs > 0 {
		return fmt.Errorf("practice session %s has %d reservations, cannot delete", id.String(), refs)
	}

	result, err := exec(ctx, r.db, `DELETE FROM practice_sessions WHERE id = $1`, id)
	if err != nil {
		r.log.Error("Failed to delete practice session",
			zap.Error(err),
			zap.String("session_id", id.String()),
		)
		return fmt.Errorf("delete practice session %s: %w", id.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("practice session %s: %w", id.String(), entity.ErrSlotNotFound)
	}

	return nil
}

func buildPracticeFilters(filters SlotFilters, args []any) (string, []any) {
	var conds []string

	if filters.Date != nil {
		args = append(args, *filters.Date)
		conds = append(conds, fmt.Sprintf("date = $%d", len(args)))
	} else {
		if filters.DateFrom != nil {
			args = append(args, *filters.DateFrom)
			conds = append(conds, fmt.Sprintf("date >= $%d", len(args)))
		}
		if filters.DateTo != nil {
			args = append(args, *filters.DateTo)
			conds = append(conds, fmt.Sprintf("date <= $%d", len(args)))
		}
	}
	if filters.SportID != nil {
		args = append(args, *filters.SportID)
		conds = append(conds, fmt.Sprintf("sport_id = $%d", len(args)))
	}
	if filters.InstructorID != nil {
		args = append(args, *filters.InstructorID)
		conds = append(conds, fmt.Sprintf("instructor_id = $%d", len(args)))
	}
	if filters.LocationID != nil {
		args = append(args, *filters.LocationID)
		conds = append(conds, fmt.Sprintf("location_id = $%d", len(args)))
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *practiceSessionRepository) List(ctx context.Context, filters SlotFilters, limit, offset int) ([]*entity.PracticeSession, error) {
	base := `SELECT ` + practiceSessionColumns + ` FROM practice_sessions`

	where, args := buildPracticeFilters(filters, nil)
	args = append(args, limit, offset)
	sql := base + where + fmt.Sprintf(" ORDER BY date, start_time LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := query(ctx, r.db, sql, args...)
	if err != nil {
		r.log.Error("Failed to list practice sessions", zap.Error(err))
		return nil, fmt.Errorf("list practice sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*entity.PracticeSession
	for rows.Next() {
		session, err := r.scanSession(rows)
		if err != nil {
			r.log.Error("Failed to scan practice session row", zap.Error(err))
			return nil, fmt.Errorf("scan practice session row: %w", err)
		}
		sessions = append(sessions, session)
	}

	return sessions, rows.Err()
}

func (r *practiceSessionRepository) Count(ctx context.Context, filters SlotFilters) (int64, error) {
	where, args := buildPracticeFilters(filters, nil)

	var count int64
	if err := queryRow(ctx, r.db, `SELECT COUNT(*) FROM practice_sessions`+where, args...).Scan(&count); err != nil {
		r.log.Error("Failed to count practice sessions", zap.Error(err))
		return 0, fmt.Errorf("count practice sessions: %w", err)
	}

	return count, nil
}

func (r *practiceSessionRepository) FindSlotForUpdate(ctx context.Context, id uuid.UUID) (*entity.SlotView, error) {
	sql := `
		SELECT id, capacity, current_bookings, status, version
		FROM practice_sessions
		WHERE id = $1
		FOR UPDATE
	`

	var view entity.SlotView
	err := queryRow(ctx, r.db, sql, id).Scan(
		&view.ID,
		&view.Capacity,
		&view.CurrentBookings,
		&view.Status,
		&view.Version,
	)

	if err == pgx.ErrNoRows {
		return nil, entity.ErrSlotNotFound
	}
	if err != nil {
		r.log.Error("Failed to lock practice session slot",
			zap.Error(err),
			zap.String("session_id", id.String()),
		)
		return nil, fmt.Errorf("lock practice session slot %s: %w", id.String(), err)
	}

	return &view, nil
}

func (r *practiceSessionRepository) IncrementBookings(ctx context.Context, id uuid.UUID) error {
	sql := `
		UPDATE practice_sessions
		SET current_bookings = current_bookings + 1, version = version + 1, updated_at = NOW()
		WHERE id = $1 AND current_bookings < capacity AND status = 'OPEN'
	`

	result, err := exec(ctx, r.db, sql, id)
	if err != nil {
		r.log.Error("Failed to increment practice session bookings",
			zap.Error(err),
			zap.String("session_id", id.String()),
		)
		return fmt.Errorf("increment practice session bookings %s: %w", id.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("practice session %s: %w", id.String(), entity.ErrCapacityExceeded)
	}

	return nil
}

func (r *practiceSessionRepository) DecrementBookings(ctx context.Context, id uuid.UUID) error {
	sql := `
		UPDATE practice_sessions
		SET current_bookings = GREATEST(current_bookings - 1, 0), version = version + 1, updated_at = NOW()
		WHERE id = $1
	`

	_, err := exec(ctx, r.db, sql, id)
	if err != nil {
		r.log.Error("Failed to decrement practice session bookings",
			zap.Error(err),
			zap.String("session_id", id.String()),
		)
		return fmt.Errorf("decrement practice session bookings %s: %w", id.String(), err)
	}

	return nil
}
