package usecase

import (
	"lesson-booking/internal/cache"
	"lesson-booking/internal/clock"
	"lesson-booking/internal/data/repository"
	"lesson-booking/internal/events"
	"lesson-booking/pkg/utils"

	"go.uber.org/zap"
)

type Service struct {
	Auth        AuthService
	Catalog     CatalogService
	Schedule    ScheduleService
	Reservation ReservationService
	Ticket      TicketService
	Order       OrderService
}

func NewService(repo *repository.Repository, c *cache.Cache, pub *events.Publisher, clk clock.Clock, config *utils.Config, log *zap.Logger) *Service {
	return &Service{
		Auth:        NewAuthService(repo, clk, config.Auth.SessionExpiryHours, log),
		Catalog:     NewCatalogService(repo, clk, log),
		Schedule:    NewScheduleService(repo, c, clk, log),
		Reservation: NewReservationService(repo, c, pub, clk, config.Booking.TxRetries, log),
		Ticket:      NewTicketService(repo, clk, log),
		Order:       NewOrderService(repo, pub, clk, log),
	}
}
