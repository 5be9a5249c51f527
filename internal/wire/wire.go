package wire

import (
	"net/http"

	"lesson-booking/internal/adaptor"
	"lesson-booking/internal/cache"
	"lesson-booking/internal/clock"
	"lesson-booking/internal/data/repository"
	"lesson-booking/internal/events"
	"lesson-booking/internal/usecase"
	"lesson-booking/pkg/middleware"
	"lesson-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type App struct {
	Router *chi.Mux
}

// Wiring initializes services and handlers and assembles the router.
func Wiring(repo *repository.Repository, c *cache.Cache, pub *events.Publisher, config *utils.Config, logger *zap.Logger) *App {
	service := usecase.NewService(repo, c, pub, clock.NewSystem(), config, logger)
	handler := adaptor.NewHandler(service, logger)

	router := setupRouter(handler, repo, config, logger)

	return &App{
		Router: router,
	}
}

func setupRouter(
	handler *adaptor.Handler,
	repo *repository.Repository,
	config *utils.Config,
	logger *zap.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recover(logger))
	r.Use(middleware.CORS())

	wireAuth(r, handler.Auth, repo, logger)
	wireCatalog(r, handler.Catalog, repo, logger)
	wireSchedule(r, handler.Schedule, repo, logger)
	wireReservation(r, handler.Reservation, repo, logger)
	wireOrder(r, handler.Order, repo, logger)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return r
}
