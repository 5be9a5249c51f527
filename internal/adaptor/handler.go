package adaptor

import (
	"lesson-booking/internal/usecase"

	"go.uber.org/zap"
)

type Handler struct {
	Auth        *AuthHandler
	Catalog     *CatalogHandler
	Schedule    *ScheduleHandler
	Reservation *ReservationHandler
	Order       *OrderHandler
}

func NewHandler(service *usecase.Service, log *zap.Logger) *Handler {
	return &Handler{
		Auth:        NewAuthHandler(service.Auth, log),
		Catalog:     NewCatalogHandler(service.Catalog, log),
		Schedule:    NewScheduleHandler(service.Schedule, log),
		Reservation: NewReservationHandler(service.Reservation, log),
		Order:       NewOrderHandler(service.Order, service.Ticket, log),
	}
}
