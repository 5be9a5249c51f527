package wire

import (
	"lesson-booking/internal/adaptor"
	"lesson-booking/internal/data/repository"
	"lesson-booking/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireCatalog(
	r chi.Router,
	catalogHandler *adaptor.CatalogHandler,
	repo *repository.Repository,
	log *zap.Logger,
) {
	// Public reference data
	r.Get("/api/v1/sports", catalogHandler.ListSports)
	r.Get("/api/v1/locations", catalogHandler.ListLocations)
	r.Get("/api/v1/lesson-products", catalogHandler.ListLessonProducts)
	r.Get("/api/v1/lesson-products/{id}", catalogHandler.GetLessonProduct)

	// Admin
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthSession(repo.AuthSession, repo.User, log))
		r.Use(middleware.Admin(log))

		r.Post("/api/v1/admin/sports", catalogHandler.CreateSport)
		r.Post("/api/v1/admin/locations", catalogHandler.CreateLocation)
		r.Post("/api/v1/admin/lesson-products", catalogHandler.CreateLessonProduct)
	})
}
