package wire

import (
	"lesson-booking/internal/adaptor"
	"lesson-booking/internal/data/repository"
	"lesson-booking/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireSchedule(
	r chi.Router,
	scheduleHandler *adaptor.ScheduleHandler,
	repo *repository.Repository,
	log *zap.Logger,
) {
	// Public listings
	r.Get("/api/v1/schedules", scheduleHandler.ListSchedules)
	r.Get("/api/v1/schedules/{id}", scheduleHandler.GetSchedule)
	r.Get("/api/v1/practice-sessions", scheduleHandler.ListPracticeSessions)
	r.Get("/api/v1/practice-sessions/{id}", scheduleHandler.GetPracticeSession)

	// Admin slot management
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthSession(repo.AuthSession, repo.User, log))
		r.Use(middleware.Admin(log))

		r.Post("/api/v1/admin/schedules", scheduleHandler.CreateSchedule)
		r.Put("/api/v1/admin/schedules/{id}", scheduleHandler.UpdateSchedule)
		r.Delete("/api/v1/admin/schedules/{id}", scheduleHandler.DeleteSchedule)

		r.Post("/api/v1/admin/practice-sessions", scheduleHandler.CreatePracticeSession)
		r.Delete("/api/v1/admin/practice-sessions/{id}", scheduleHandler.DeletePracticeSession)
	})
}
