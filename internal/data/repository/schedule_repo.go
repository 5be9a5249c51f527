package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"lesson-booking/internal/data/entity"
	"lesson-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// SlotFilters narrows slot listings. Nil fields are ignored.
type SlotFilters struct {
	Date         *time.Time
	DateFrom     *time.Time
	DateTo       *time.Time
	SportID      *uuid.UUID
	InstructorID *uuid.UUID
	LocationID   *uuid.UUID
}

type ScheduleRepository interface {
	Create(ctx context.Context, schedule *entity.InstructorSchedule) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.InstructorSchedule, error)
	Update(ctx context.Context, schedule *entity.InstructorSchedule) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filters SlotFilters, limit, offset int) ([]*entity.InstructorSchedule, error)
	Count(ctx context.Context, filters SlotFilters) (int64, error)

	// Capacity ledger. FindSlotForUpdate takes a row lock on the slot,
	// serializing all booking and waitlist work for that slot within the
	// surrounding transaction.
	FindSlotForUpdate(ctx context.Context, id uuid.UUID) (*entity.SlotView, error)
	IncrementBookings(ctx context.Context, id uuid.UUID) error
	DecrementBookings(ctx context.Context, id uuid.UUID) error
}

type scheduleRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewScheduleRepository(db database.PgxIface, log *zap.Logger) ScheduleRepository {
	return &scheduleRepository{
		db:  db,
		log: log.With(zap.String("repository", "schedule")),
	}
}

const scheduleColumns = `id, lesson_product_id, instructor_id, location_id, date, start_time, end_time,
	capacity, current_bookings, status, version, created_at, updated_at`

func (r *scheduleRepository) scanSchedule(row pgx.Row) (*entity.InstructorSchedule, error) {
	var s entity.InstructorSchedule
	err := row.Scan(
		&s.ID,
		&s.LessonProductID,
		&s.InstructorID,
		&s.LocationID,
		&s.Date,
		&s.StartTime,
		&s.EndTime,
		&s.Capacity,
		&s.CurrentBookings,
		&s.Status,
		&s.Version,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *scheduleRepository) Create(ctx context.Context, schedule *entity.InstructorSchedule) error {
	sql := `
		INSERT INTO instructor_schedules (` + scheduleColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := exec(ctx, r.db, sql,
		schedule.ID,
		schedule.LessonProductID,
		schedule.InstructorID,
		schedule.LocationID,
		schedule.Date,
		schedule.StartTime,
		schedule.EndTime,
		schedule.Capacity,
		schedule.CurrentBookings,
		schedule.Status,
		schedule.Version,
		schedule.CreatedAt,
		schedule.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("schedule slot already exists for this instructor/time: %w", err)
		}
		r.log.Error("Failed to create schedule",
			zap.Error(err),
			zap.String("instructor_id", schedule.InstructorID.String()),
		)
		return fmt.Errorf("create schedule: %w", err)
	}

	return nil
}

func (r *scheduleRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.InstructorSchedule, error) {
	sql := `SELECT ` + scheduleColumns + ` FROM instructor_schedules WHERE id = $1`

	schedule, err := r.scanSchedule(queryRow(ctx, r.db, sql, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find schedule by ID",
			zap.Error(err),
			zap.String("schedule_id", id.String()),
		)
		return nil, fmt.Errorf("find schedule by ID %s: %w", id.String(), err)
	}

	return schedule, nil
}

func (r *scheduleRepository) Update(ctx context.Context, schedule *entity.InstructorSchedule) error {
	sql := `
		UPDATE instructor_schedules
		SET lesson_product_id = $2, instructor_id = $3, location_id = $4, date = $5,
		    start_time = $6, end_time = $7, capacity = $8, status = $9, updated_at = $10
		WHERE id = $1
	`

	result, err := exec(ctx, r.db, sql,
		schedule.ID,
		schedule.LessonProductID,
		schedule.InstructorID,
		schedule.LocationID,
		schedule.Date,
		schedule.StartTime,
		schedule.EndTime,
		schedule.Capacity,
		schedule.Status,
		schedule.UpdatedAt,
	)

	if err != nil {
		r.log.Error("Failed to update schedule",
			zap.Error(err),
			zap.String("schedule_id", schedule.ID.String()),
		)
		return fmt.Errorf("update schedule %s: %w", schedule.ID.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("schedule %s: %w", schedule.ID.String(), entity.ErrSlotNotFound)
	}

	return nil
}

// Delete is protected: a schedule referenced by any reservation is not removed.
func (r *scheduleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	var refs int64
	countSQL := `SELECT COUNT(*) FROM session_reservations WHERE schedule_id = $1`
	if err := queryRow(ctx, r.db, countSQL, id).Scan(&refs); err != nil {
		return fmt.Errorf("count schedule reservations: %w", err)
	}
	if refs > 0 {
		return fmt.Errorf("schedule %s has %d reservations, cannot delete", id.String(), refs)
	}

	result, err := exec(ctx, r.db, `DELETE FROM instructor_schedules WHERE id = $1`, id)
	if err != nil {
		r.log.Error("Failed to delete schedule",
			zap.Error(err),
			zap.String("schedule_id", id.String()),
		)
		return fmt.Errorf("delete schedule %s: %w", id.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("schedule %s: %w", id.String(), entity.ErrSlotNotFound)
	}

	r.log.Info("Schedule deleted", zap.String("schedule_id", id.String()))
	return nil
}

func buildScheduleFilters(filters SlotFilters, args []any) (string, []any) {
	var conds []string

	if filters.Date != nil {
		args = append(args, *filters.Date)
		conds = append(conds, fmt.Sprintf("s.date = $%d", len(args)))
	} else {
		if filters.DateFrom != nil {
			args = append(args, *filters.DateFrom)
			conds = append(conds, fmt.Sprintf("s.date >= $%d", len(args)))
		}
		if filters.DateTo != nil {
			args = append(args, *filters.DateTo)
			conds = append(conds, fmt.Sprintf("s.date <= $%d", len(args)))
		}
	}
	if filters.SportID != nil {
		args = append(args, *filters.SportID)
		conds = append(conds, fmt.Sprintf("p.sport_id = $%d", len(args)))
	}
	if filters.InstructorID != nil {
		args = append(args, *filters.InstructorID)
		conds = append(conds, fmt.Sprintf("s.instructor_id = $%d", len(args)))
	}
	if filters.LocationID != nil {
		args = append(args, *filters.LocationID)
		conds = append(conds, fmt.Sprintf("s.location_id = $%d", len(args)))
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *scheduleRepository) List(ctx context.Context, filters SlotFilters, limit, offset int) ([]*entity.InstructorSchedule, error) {
	base := `
		SELECT s.id, s.lesson_product_id, s.instructor_id, s.location_id, s.date, s.start_time, s.end_time,
		       s.capacity, s.current_bookings, s.status, s.version, s.created_at, s.updated_at
		FROM instructor_schedules s
		JOIN lesson_products p ON p.id = s.lesson_product_id`

	where, args := buildScheduleFilters(filters, nil)
	args = append(args, limit, offset)
	sql := base + where + fmt.Sprintf(" ORDER BY s.date, s.start_time LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := query(ctx, r.db, sql, args...)
	if err != nil {
		r.log.Error("Failed to list schedules", zap.Error(err))
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	defer rows.Close()

	var schedules []*entity.InstructorSchedule
	for rows.Next() {
		schedule, err := r.scanSchedule(rows)
		if err != nil {
			r.log.Error("Failed to scan schedule row", zap.Error(err))
			return nil, fmt.Errorf("scan schedule row: %w", err)
		}
		schedules = append(schedules, schedule)
	}

	return schedules, rows.Err()
}

func (r *scheduleRepository) Count(ctx context.Context, filters SlotFilters) (int64, error) {
	base := `
		SELECT COUNT(*)
		FROM instructor_schedules s
		JOIN lesson_products p ON p.id = s.lesson_product_id`

	where, args := buildScheduleFilters(filters, nil)

	var count int64
	if err := queryRow(ctx, r.db, base+where, args...).Scan(&count); err != nil {
		r.log.Error("Failed to count schedules", zap.Error(err))
		return 0, fmt.Errorf("count schedules: %w", err)
	}

	return count, nil
}

func (r *scheduleRepository) FindSlotForUpdate(ctx context.Context, id uuid.UUID) (*entity.SlotView, error) {
	sql := `
		SELECT id, capacity, current_bookings, status, version, lesson_product_id
		FROM instructor_schedules
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
		&view.LessonProductID,
	)

	if err == pgx.ErrNoRows {
		return nil, entity.ErrSlotNotFound
	}
	if err != nil {
		r.log.Error("Failed to lock schedule slot",
			zap.Error(err),
			zap.String("schedule_id", id.String()),
		)
		return nil, fmt.Errorf("lock schedule slot %s: %w", id.String(), err)
	}

	return &view, nil
}

// IncrementBookings is a conditional relative-delta update: it only lands
// when the row still has room and is OPEN, so two concurrent increments can
// never push the counter past capacity.
func (r *scheduleRepository) IncrementBookings(ctx context.Context, id uuid.UUID) error {
	sql := `
		UPDATE instructor_schedules
		SET current_bookings = current_bookings + 1, version = version + 1, updated_at = NOW()
		WHERE id = $1 AND current_bookings < capacity AND status = 'OPEN'
	`

	result, err := exec(ctx, r.db, sql, id)
	if err != nil {
		r.log.Error("Failed to increment schedule bookings",
			zap.Error(err),
			zap.String("schedule_id", id.String()),
		)
		return fmt.Errorf("increment schedule bookings %s: %w", id.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("schedule %s: %w", id.String(), entity.ErrCapacityExceeded)
	}

	return nil
}

// DecrementBookings clamps at zero and never fails on an already-empty slot.
func (r *scheduleRepository) DecrementBookings(ctx context.Context, id uuid.UUID) error {
	sql := `
		UPDATE instructor_schedules
		SET current_bookings = GREATEST(current_bookings - 1, 0), version = version + 1, updated_at = NOW()
		WHERE id = $1
	`

	_, err := exec(ctx, r.db, sql, id)
	if err != nil {
		r.log.Error("Failed to decrement schedule bookings",
			zap.Error(err),
			zap.String("schedule_id", id.String()),
		)
		return fmt.Errorf("decrement schedule bookings %s: %w", id.String(), err)
	}

	return nil
}
