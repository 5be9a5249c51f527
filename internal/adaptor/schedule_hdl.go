package adaptor

import (
	"encoding/json"
	"net/http"

	"lesson-booking/internal/dto/request"
	"lesson-booking/internal/usecase"
	"lesson-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type ScheduleHandler struct {
	service usecase.ScheduleService
	log     *zap.Logger
}

func NewScheduleHandler(service usecase.ScheduleService, log *zap.Logger) *ScheduleHandler {
	return &ScheduleHandler{
		service: service,
		log:     log.With(zap.String("handler", "schedule")),
	}
}

func parseListRequest(r *http.Request) *request.ListSlotsRequest {
	query := r.URL.Query()
	return &request.ListSlotsRequest{
		Date:         query.Get("date"),
		DateFrom:     query.Get("date_from"),
		DateTo:       query.Get("date_to"),
		SportID:      query.Get("sport_id"),
		InstructorID: query.Get("instructor_id"),
		LocationID:   query.Get("location_id"),
		PaginatedRequest: request.PaginatedRequest{
			Page:    utils.ParseInt(query.Get("page"), 1),
			PerPage: utils.ParseInt(query.Get("per_page"), 10),
		},
	}
}

// ListSchedules handles GET /api/v1/schedules (public)
func (h *ScheduleHandler) ListSchedules(w http.ResponseWriter, r *http.Request) {
	schedules, err := h.service.ListSchedules(r.Context(), parseListRequest(r))
	if err != nil {
		handleServiceError(h.log, w, err, "list schedules")
		return
	}

	utils.ResponseSuccess(w, "success", schedules)
}

// GetSchedule handles GET /api/v1/schedules/{id} (public)
func (h *ScheduleHandler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		utils.ResponseBadRequest(w, "Schedule ID is required", nil)
		return
	}

	schedule, err := h.service.GetSchedule(r.Context(), id)
	if err != nil {
		handleServiceError(h.log, w, err, "get schedule")
		return
	}

	utils.ResponseSuccess(w, "success", schedule)
}

// CreateSchedule handles POST /api/v1/admin/schedules (admin)
func (h *ScheduleHandler) CreateSchedule(w http.ResponseWriter, r *http.Request) {
	var req request.CreateScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	schedule, err := h.service.CreateSchedule(r.Context(), &req)
	if err != nil {
		handleServiceError(h.log, w, err, "create schedule")
		return
	}

	utils.ResponseCreated(w, "success", schedule)
}

// UpdateSchedule handles PUT /api/v1/admin/schedules/{id} (admin)
func (h *ScheduleHandler) UpdateSchedule(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		utils.ResponseBadRequest(w, "Schedule ID is required", nil)
		return
	}

	var req request.UpdateScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	schedule, err := h.service.UpdateSchedule(r.Context(), id, &req)
	if err != nil {
		handleServiceError(h.log, w, err, "update schedule")
		return
	}

	utils.ResponseSuccess(w, "success", schedule)
}

// DeleteSchedule handles DELETE /api/v1/admin/schedules/{id} (admin)
func (h *ScheduleHandler) DeleteSchedule(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		utils.ResponseBadRequest(w, "Schedule ID is required", nil)
		return
	}

	if err := h.service.DeleteSchedule(r.Context(), id); err != nil {
		handleServiceError(h.log, w, err, "delete schedule")
		return
	}

	utils.ResponseSuccess(w, "success", nil)
}

// ListPracticeSessions handles GET /api/v1/practice-sessions (public)
func (h *ScheduleHandler) ListPracticeSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.service.ListPracticeSessions(r.Context(), parseListRequest(r))
	if err != nil {
		handleServiceError(h.log, w, err, "list practice sessions")
		return
	}

	utils.ResponseSuccess(w, "success", sessions)
}

// GetPracticeSession handles GET /api/v1/practice-sessions/{id} (public)
func (h *ScheduleHandler) GetPracticeSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		utils.ResponseBadRequest(w, "Practice session ID is required", nil)
		return
	}

	session, err := h.service.GetPracticeSession(r.Context(), id)
	if err != nil {
		handleServiceError(h.log, w, err, "get practice session")
		return
	}

	utils.ResponseSuccess(w, "success", session)
}

// CreatePracticeSession handles POST /api/v1/admin/practice-sessions (admin)
func (h *ScheduleHandler) CreatePracticeSession(w http.ResponseWriter, r *http.Request) {
	var req request.CreatePracticeSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	session, err := h.service.CreatePracticeSession(r.Context(), &req)
	if err != nil {
		handleServiceError(h.log, w, err, "create practice session")
		return
	}

	utils.ResponseCreated(w, "success", session)
}

// DeletePracticeSession handles DELETE /api/v1/admin/practice-sessions/{id} (admin)
func (h *ScheduleHandler) DeletePracticeSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		utils.ResponseBadRequest(w, "Practice session ID is required", nil)
		return
	}

	if err := h.service.DeletePracticeSession(r.Context(), id); err != nil {
		handleServiceError(h.log, w, err, "delete practice session")
		return
	}

	utils.ResponseSuccess(w, "success", nil)
}
