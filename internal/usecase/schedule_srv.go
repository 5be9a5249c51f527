package usecase

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"lesson-booking/internal/cache"
	"lesson-booking/internal/clock"
	"lesson-booking/internal/data/entity"
	"lesson-booking/internal/data/repository"
	"lesson-booking/internal/dto/request"
	"lesson-booking/internal/dto/response"
	"lesson-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ScheduleService interface {
	CreateSchedule(ctx context.Context, req *request.CreateScheduleRequest) (*response.ScheduleResponse, error)
	GetSchedule(ctx context.Context, id string) (*response.ScheduleResponse, error)
	ListSchedules(ctx context.Context, req *request.ListSlotsRequest) (*response.PaginatedResponse[response.ScheduleResponse], error)
	UpdateSchedule(ctx context.Context, id string, req *request.UpdateScheduleRequest) (*response.ScheduleResponse, error)
	DeleteSchedule(ctx context.Context, id string) error

	CreatePracticeSession(ctx context.Context, req *request.CreatePracticeSessionRequest) (*response.PracticeSessionResponse, error)
	GetPracticeSession(ctx context.Context, id string) (*response.PracticeSessionResponse, error)
	ListPracticeSessions(ctx context.Context, req *request.ListSlotsRequest) (*response.PaginatedResponse[response.PracticeSessionResponse], error)
	DeletePracticeSession(ctx context.Context, id string) error
}

type scheduleService struct {
	repo  *repository.Repository
	cache *cache.Cache
	clock clock.Clock
	log   *zap.Logger
}

func NewScheduleService(repo *repository.Repository, c *cache.Cache, clk clock.Clock, log *zap.Logger) ScheduleService {
	return &scheduleService{
		repo:  repo,
		cache: c,
		clock: clk,
		log:   log.With(zap.String("service", "schedule")),
	}
}

func (s *scheduleService) CreateSchedule(ctx context.Context, req *request.CreateScheduleRequest) (*response.ScheduleResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Create schedule validation failed", zap.Any("errors", errs))
		return nil, fmt.Errorf("validation failed: %s", utils.FormatValidationErrors(errs))
	}

	productID, err := uuid.Parse(req.LessonProductID)
	if err != nil {
		return nil, fmt.Errorf("invalid lesson product ID format %s: %w", req.LessonProductID, err)
	}
	instructorID, err := uuid.Parse(req.InstructorID)
	if err != nil {
		return nil, fmt.Errorf("invalid instructor ID format %s: %w", req.InstructorID, err)
	}
	locationID, err := uuid.Parse(req.LocationID)
	if err != nil {
		return nil, fmt.Errorf("invalid location ID format %s: %w", req.LocationID, err)
	}

	product, err := s.repo.LessonProduct.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, fmt.Errorf("lesson product %s not found", req.LessonProductID)
	}

	date, startTime, endTime, err := parseSlotTimes(req.Date, req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	schedule := &entity.InstructorSchedule{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		LessonProductID: productID,
		InstructorID:    instructorID,
		LocationID:      locationID,
		Date:            date,
		StartTime:       startTime,
		EndTime:         endTime,
		Slot: entity.Slot{
			Capacity: req.Capacity,
			Status:   entity.SlotStatusOpen,
			Version:  1,
		},
	}

	if err := s.repo.Schedule.Create(ctx, schedule); err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, cache.PrefixSchedules)

	out := response.NewScheduleResponse(schedule)
	return &out, nil
}

func (s *scheduleService) GetSchedule(ctx context.Context, id string) (*response.ScheduleResponse, error) {
	scheduleID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid schedule ID format %s: %w", id, err)
	}

	schedule, err := s.repo.Schedule.FindByID(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	if schedule == nil {
		return nil, fmt.Errorf("schedule %s: %w", id, entity.ErrSlotNotFound)
	}

	out := response.NewScheduleResponse(schedule)

	waiting, err := s.repo.SessionReservation.CountWaiting(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	out.WaitingCount = waiting

	return &out, nil
}

func (s *scheduleService) ListSchedules(ctx context.Context, req *request.ListSlotsRequest) (*response.PaginatedResponse[response.ScheduleResponse], error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("validation failed: %s", utils.FormatValidationErrors(errs))
	}

	key := listCacheKey(cache.PrefixSchedules, req)
	var cached response.PaginatedResponse[response.ScheduleResponse]
	if s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	filters, err := buildSlotFilters(req)
	if err != nil {
		return nil, err
	}

	schedules, err := s.repo.Schedule.List(ctx, filters, req.Limit(), req.Offset())
	if err != nil {
		return nil, err
	}
	total, err := s.repo.Schedule.Count(ctx, filters)
	if err != nil {
		return nil, err
	}

	data := make([]response.ScheduleResponse, 0, len(schedules))
	for _, sch := range schedules {
		data = append(data, response.NewScheduleResponse(sch))
	}

	out := response.NewPaginatedResponse(data, req.Page, req.Limit(), total)
	s.cache.Set(ctx, key, out)
	return out, nil
}

func (s *scheduleService) UpdateSchedule(ctx context.Context, id string, req *request.UpdateScheduleRequest) (*response.ScheduleResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("validation failed: %s", utils.FormatValidationErrors(errs))
	}

	scheduleID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid schedule ID format %s: %w", id, err)
	}

	schedule, err := s.repo.Schedule.FindByID(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	if schedule == nil {
		return nil, fmt.Errorf("schedule %s: %w", id, entity.ErrSlotNotFound)
	}

	if req.Date != "" {
		if d := utils.ParseDate(req.Date); d != nil {
			schedule.Date = *d
		}
	}
	if req.StartTime != "" {
		t, err := time.Parse("15:04", req.StartTime)
		if err != nil {
			return nil, fmt.Errorf("invalid start time %s: %w", req.StartTime, err)
		}
		schedule.StartTime = t
	}
	if req.EndTime != "" {
		t, err := time.Parse("15:04", req.EndTime)
		if err != nil {
			return nil, fmt.Errorf("invalid end time %s: %w", req.EndTime, err)
		}
		schedule.EndTime = t
	}
	if req.Capacity > 0 {
		// Capacity may shrink below the current booking count; existing
		// reservations keep their seats and the slot just stops admitting.
		schedule.Capacity = req.Capacity
	}
	if req.Status != "" {
		schedule.Slot.Status = entity.SlotStatus(req.Status)
	}
	schedule.UpdatedAt = s.clock.Now()

	if err := s.repo.Schedule.Update(ctx, schedule); err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, cache.PrefixSchedules)

	out := response.NewScheduleResponse(schedule)
	return &out, nil
}

func (s *scheduleService) DeleteSchedule(ctx context.Context, id string) error {
	scheduleID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid schedule ID format %s: %w", id, err)
	}

	if err := s.repo.Schedule.Delete(ctx, scheduleID); err != nil {
		return err
	}

	s.cache.Invalidate(ctx, cache.PrefixSchedules)
	return nil
}

func (s *scheduleService) CreatePracticeSession(ctx context.Context, req *request.CreatePracticeSessionRequest) (*response.PracticeSessionResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Create practice session validation failed", zap.Any("errors", errs))
		return nil, fmt.Errorf("validation failed: %s", utils.FormatValidationErrors(errs))
	}

	sportID, err := uuid.Parse(req.SportID)
	if err != nil {
		return nil, fmt.Errorf("invalid sport ID format %s: %w", req.SportID, err)
	}
	instructorID, err := uuid.Parse(req.InstructorID)
	if err != nil {
		return nil, fmt.Errorf("invalid instructor ID format %s: %w", req.InstructorID, err)
	}
	locationID, err := uuid.Parse(req.LocationID)
	if err != nil {
		return nil, fmt.Errorf("invalid location ID format %s: %w", req.LocationID, err)
	}

	date, startTime, endTime, err := parseSlotTimes(req.Date, req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	session := &entity.PracticeSession{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		Title:        req.Title,
		SportID:      sportID,
		InstructorID: instructorID,
		LocationID:   locationID,
		Date:         date,
		StartTime:    startTime,
		EndTime:      endTime,
		Slot: entity.Slot{
			Capacity: req.Capacity,
			Status:   entity.SlotStatusOpen,
			Version:  1,
		},
	}
	if req.BaseScheduleID != "" {
		baseID, err := uuid.Parse(req.BaseScheduleID)
		if err != nil {
			return nil, fmt.Errorf("invalid base schedule ID format %s: %w", req.BaseScheduleID, err)
		}
		session.BaseScheduleID = &baseID
	}

	if err := s.repo.PracticeSession.Create(ctx, session); err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, cache.PrefixPractices)

	out := response.NewPracticeSessionResponse(session)
	return &out, nil
}

func (s *scheduleService) GetPracticeSession(ctx context.Context, id string) (*response.PracticeSessionResponse, error) {
	sessionID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid practice session ID format %s: %w", id, err)
	}

	session, err := s.repo.PracticeSession.FindByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, fmt.Errorf("practice session %s: %w", id, entity.ErrSlotNotFound)
	}

	out := response.NewPracticeSessionResponse(session)
	return &out, nil
}

func (s *scheduleService) ListPracticeSessions(ctx context.Context, req *request.ListSlotsRequest) (*response.PaginatedResponse[response.PracticeSessionResponse], error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("validation failed: %s", utils.FormatValidationErrors(errs))
	}

	key := listCacheKey(cache.PrefixPractices, req)
	var cached response.PaginatedResponse[response.PracticeSessionResponse]
	if s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	filters, err := buildSlotFilters(req)
	if err != nil {
		return nil, err
	}

	sessions, err := s.repo.PracticeSession.List(ctx, filters, req.Limit(), req.Offset())
	if err != nil {
		return nil, err
	}
	total, err := s.repo.PracticeSession.Count(ctx, filters)
	if err != nil {
		return nil, err
	}

	data := make([]response.PracticeSessionResponse, 0, len(sessions))
	for _, session := range sessions {
		data = append(data, response.NewPracticeSessionResponse(session))
	}

	out := response.NewPaginatedResponse(data, req.Page, req.Limit(), total)
	s.cache.Set(ctx, key, out)
	return out, nil
}

func (s *scheduleService) DeletePracticeSession(ctx context.Context, id string) error {
	sessionID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid practice session ID format %s: %w", id, err)
	}

	if err := s.repo.PracticeSession.Delete(ctx, sessionID); err != nil {
		return err
	}

	s.cache.Invalidate(ctx, cache.PrefixPractices)
	return nil
}

func parseSlotTimes(dateStr, startStr, endStr string) (date, start, end time.Time, err error) {
	date, err = time.Parse(time.DateOnly, dateStr)
	if err != nil {
		return date, start, end, fmt.Errorf("invalid date %s: %w", dateStr, err)
	}
	start, err = time.Parse("15:04", startStr)
	if err != nil {
		return date, start, end, fmt.Errorf("invalid start time %s: %w", startStr, err)
	}
	end, err = time.Parse("15:04", endStr)
	if err != nil {
		return date, start, end, fmt.Errorf("invalid end time %s: %w", endStr, err)
	}
	if !end.After(start) {
		return date, start, end, fmt.Errorf("end time %s must be after start time %s", endStr, startStr)
	}
	return date, start, end, nil
}

func buildSlotFilters(req *request.ListSlotsRequest) (repository.SlotFilters, error) {
	var filters repository.SlotFilters

	filters.Date = utils.ParseDate(req.Date)
	filters.DateFrom = utils.ParseDate(req.DateFrom)
	filters.DateTo = utils.ParseDate(req.DateTo)

	if req.SportID != "" {
		id, err := uuid.Parse(req.SportID)
		if err != nil {
			return filters, fmt.Errorf("invalid sport ID format %s: %w", req.SportID, err)
		}
		filters.SportID = &id
	}
	if req.InstructorID != "" {
		id, err := uuid.Parse(req.InstructorID)
		if err != nil {
			return filters, fmt.Errorf("invalid instructor ID format %s: %w", req.InstructorID, err)
		}
		filters.InstructorID = &id
	}
	if req.LocationID != "" {
		id, err := uuid.Parse(req.LocationID)
		if err != nil {
			return filters, fmt.Errorf("invalid location ID format %s: %w", req.LocationID, err)
		}
		filters.LocationID = &id
	}

	return filters, nil
}

func listCacheKey(prefix string, req *request.ListSlotsRequest) string {
	return cache.ListKey(prefix,
		req.Date, req.DateFrom, req.DateTo,
		req.SportID, req.InstructorID, req.LocationID,
		strconv.Itoa(req.Page), strconv.Itoa(req.Limit()),
	)
}
