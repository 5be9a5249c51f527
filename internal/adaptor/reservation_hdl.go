package adaptor

import (
	"encoding/json"
	"io"
	"net/http"

	"lesson-booking/internal/dto/request"
	"lesson-booking/internal/usecase"
	"lesson-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type ReservationHandler struct {
	service usecase.ReservationService
	log     *zap.Logger
}

func NewReservationHandler(service usecase.ReservationService, log *zap.Logger) *ReservationHandler {
	return &ReservationHandler{
		service: service,
		log:     log.With(zap.String("handler", "reservation")),
	}
}

func isFreePractice(r *http.Request) bool {
	return r.URL.Query().Get("is_free_practice") == "true"
}

// ApplySession handles POST /api/v1/apply-session/{scheduleID} (protected).
// With ?is_free_practice=true the ID addresses a practice session and the
// body is ignored.
func (h *ReservationHandler) ApplySession(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	slotID := chi.URLParam(r, "scheduleID")
	if slotID == "" {
		utils.ResponseBadRequest(w, "Schedule ID is required", nil)
		return
	}

	var req request.ApplySessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	reservation, err := h.service.ApplySession(r.Context(), userID, slotID, isFreePractice(r), &req)
	if err != nil {
		handleServiceError(h.log, w, err, "apply session")
		return
	}

	if reservation.IsWaiting {
		utils.ResponseCreated(w, "added to waiting list", reservation)
		return
	}
	utils.ResponseCreated(w, "success", reservation)
}

// CancelSession handles DELETE /api/v1/cancel-session/{id} (protected)
func (h *ReservationHandler) CancelSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	reservationID := chi.URLParam(r, "id")
	if reservationID == "" {
		utils.ResponseBadRequest(w, "Reservation ID is required", nil)
		return
	}

	result, err := h.service.CancelSession(r.Context(), userID, reservationID, isFreePractice(r))
	if err != nil {
		handleServiceError(h.log, w, err, "cancel session")
		return
	}

	utils.ResponseSuccess(w, "success", result)
}

// WaitingPosition handles GET /api/v1/waiting-position/{scheduleID} (protected)
func (h *ReservationHandler) WaitingPosition(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	slotID := chi.URLParam(r, "scheduleID")
	if slotID == "" {
		utils.ResponseBadRequest(w, "Schedule ID is required", nil)
		return
	}

	position, err := h.service.WaitingPosition(r.Context(), userID, slotID, isFreePractice(r))
	if err != nil {
		handleServiceError(h.log, w, err, "waiting position")
		return
	}

	utils.ResponseSuccess(w, "success", position)
}

// MyReservations handles GET /api/v1/my-reservations (protected)
func (h *ReservationHandler) MyReservations(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	reservations, err := h.service.MyReservations(r.Context(), userID)
	if err != nil {
		handleServiceError(h.log, w, err, "my reservations")
		return
	}

	utils.ResponseSuccess(w, "success", reservations)
}
