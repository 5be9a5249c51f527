package wire

import (
	"lesson-booking/internal/adaptor"
	"lesson-booking/internal/data/repository"
	"lesson-booking/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireReservation(
	r chi.Router,
	reservationHandler *adaptor.ReservationHandler,
	repo *repository.Repository,
	log *zap.Logger,
) {
	// All reservation endpoints require auth. The lesson and free-practice
	// paths share the handlers; ?is_free_practice=true selects the latter.
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthSession(repo.AuthSession, repo.User, log))

		r.Post("/api/v1/apply-session/{scheduleID}", reservationHandler.ApplySession)
		r.Delete("/api/v1/cancel-session/{id}", reservationHandler.CancelSession)
		r.Get("/api/v1/waiting-position/{scheduleID}", reservationHandler.WaitingPosition)
		r.Get("/api/v1/my-reservations", reservationHandler.MyReservations)
	})
}
