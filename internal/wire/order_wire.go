package wire

import (
	"lesson-booking/internal/adaptor"
	"lesson-booking/internal/data/repository"
	"lesson-booking/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireOrder(
	r chi.Router,
	orderHandler *adaptor.OrderHandler,
	repo *repository.Repository,
	log *zap.Logger,
) {
	// Gateway callback, authenticated by the PG out of band
	r.Post("/api/v1/payments/result", orderHandler.PaymentResult)

	// Protected
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthSession(repo.AuthSession, repo.User, log))

		r.Post("/api/v1/orders", orderHandler.CreateOrder)
		r.Get("/api/v1/my-orders", orderHandler.MyOrders)
		r.Delete("/api/v1/orders/{id}", orderHandler.CancelOrder)

		r.Get("/api/v1/my-tickets", orderHandler.MyTickets)
		r.Get("/api/v1/tickets/{id}", orderHandler.GetTicket)
	})
}
