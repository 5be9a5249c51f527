package usecase

import (
	"context"
	"fmt"
	"time"

	"lesson-booking/internal/clock"
	"lesson-booking/internal/data/entity"
	"lesson-booking/internal/data/repository"
	"lesson-booking/internal/dto/response"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type TicketService interface {
	MyTickets(ctx context.Context, userID uuid.UUID) ([]response.TicketResponse, error)
	GetTicket(ctx context.Context, userID uuid.UUID, ticketID string) (*response.TicketResponse, error)
}

type ticketService struct {
	repo  *repository.Repository
	clock clock.Clock
	log   *zap.Logger
}

func NewTicketService(repo *repository.Repository, clk clock.Clock, log *zap.Logger) TicketService {
	return &ticketService{
		repo:  repo,
		clock: clk,
		log:   log.With(zap.String("service", "ticket")),
	}
}

// MyTickets lists the user's tickets with statuses recomputed against the
// current time. A ticket found to have lapsed since its last write is
// persisted so the stored status catches up.
func (s *ticketService) MyTickets(ctx context.Context, userID uuid.UUID) ([]response.TicketResponse, error) {
	tickets, err := s.repo.Ticket.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	out := make([]response.TicketResponse, 0, len(tickets))
	for _, t := range tickets {
		if err := s.refresh(ctx, t, now); err != nil {
			return nil, err
		}
		out = append(out, response.NewTicketResponse(t))
	}
	return out, nil
}

func (s *ticketService) GetTicket(ctx context.Context, userID uuid.UUID, ticketID string) (*response.TicketResponse, error) {
	id, err := uuid.Parse(ticketID)
	if err != nil {
		return nil, fmt.Errorf("invalid ticket ID format %s: %w", ticketID, err)
	}

	ticket, err := s.repo.Ticket.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ticket == nil || ticket.UserID != userID {
		return nil, fmt.Errorf("ticket %s not found", ticketID)
	}

	if err := s.refresh(ctx, ticket, s.clock.Now()); err != nil {
		return nil, err
	}

	out := response.NewTicketResponse(ticket)
	return &out, nil
}

func (s *ticketService) refresh(ctx context.Context, t *entity.Ticket, now time.Time) error {
	before := *t

	var orderStatus entity.OrderStatus
	if t.OrderID != nil {
		order, err := s.repo.Order.FindByID(ctx, *t.OrderID)
		if err != nil {
			return err
		}
		if order != nil {
			orderStatus = order.Status
		}
	}

	t.Recompute(now, orderStatus)
	if t.Status == before.Status && t.IsActive == before.IsActive {
		return nil
	}

	t.UpdatedAt = now
	if err := s.repo.Ticket.Update(ctx, t); err != nil {
		s.log.Error("Failed to persist recomputed ticket status",
			zap.Error(err),
			zap.String("ticket_id", t.ID.String()),
		)
		return err
	}
	return nil
}
