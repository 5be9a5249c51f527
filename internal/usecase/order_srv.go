package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"lesson-booking/internal/clock"
	"lesson-booking/internal/data/entity"
	"lesson-booking/internal/data/repository"
	"lesson-booking/internal/dto/request"
	"lesson-booking/internal/dto/response"
	"lesson-booking/internal/events"
	"lesson-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type OrderService interface {
	CreateOrder(ctx context.Context, userID uuid.UUID, req *request.CreateOrderRequest) (*response.OrderResponse, error)
	MyOrders(ctx context.Context, userID uuid.UUID) ([]response.OrderResponse, error)

	// ProcessPaymentResult applies a gateway callback to the order state
	// machine. A successful capture confirms the order and issues its
	// ticket; a failure records the attempt and leaves the order payable.
	ProcessPaymentResult(ctx context.Context, req *request.PaymentResultRequest) (*response.OrderResponse, error)

	// CancelOrder cancels a not-yet-confirmed order. Cancelling a confirmed
	// order also cancels its ticket.
	CancelOrder(ctx context.Context, userID uuid.UUID, orderID string) error
}

type orderService struct {
	repo   *repository.Repository
	events *events.Publisher
	clock  clock.Clock
	log    *zap.Logger
}

func NewOrderService(repo *repository.Repository, pub *events.Publisher, clk clock.Clock, log *zap.Logger) OrderService {
	return &orderService{
		repo:   repo,
		events: pub,
		clock:  clk,
		log:    log.With(zap.String("service", "order")),
	}
}

func (s *orderService) CreateOrder(ctx context.Context, userID uuid.UUID, req *request.CreateOrderRequest) (*response.OrderResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Create order validation failed", zap.Any("errors", errs))
		return nil, fmt.Errorf("validation failed: %s", utils.FormatValidationErrors(errs))
	}

	productID, err := uuid.Parse(req.LessonProductID)
	if err != nil {
		return nil, fmt.Errorf("invalid lesson product ID format %s: %w", req.LessonProductID, err)
	}

	product, err := s.repo.LessonProduct.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, fmt.Errorf("lesson product %s not found", req.LessonProductID)
	}

	now := s.clock.Now()
	order := &entity.Order{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		UserID:          userID,
		LessonProductID: productID,
		OrderID:         utils.GenerateOrderID(),
		Quantity:        req.Quantity,
		TotalAmount:     product.Price * float64(req.Quantity),
		Status:          entity.OrderStatusPending,
	}

	if err := s.repo.Order.Create(ctx, order); err != nil {
		return nil, err
	}

	s.log.Info("Order created",
		zap.String("order_id", order.OrderID),
		zap.String("user_id", userID.String()),
	)

	out := response.NewOrderResponse(order)
	return &out, nil
}

func (s *orderService) MyOrders(ctx context.Context, userID uuid.UUID) ([]response.OrderResponse, error) {
	orders, err := s.repo.Order.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]response.OrderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, response.NewOrderResponse(o))
	}
	return out, nil
}

func (s *orderService) ProcessPaymentResult(ctx context.Context, req *request.PaymentResultRequest) (*response.OrderResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Payment result validation failed", zap.Any("errors", errs))
		return nil, fmt.Errorf("validation failed: %s", utils.FormatValidationErrors(errs))
	}

	var order *entity.Order
	var pending []events.Event

	err := s.repo.WithTx(ctx, func(ctx context.Context) error {
		pending = pending[:0]
		now := s.clock.Now()

		found, err := s.repo.Order.FindByOrderID(ctx, req.OrderID)
		if err != nil {
			return err
		}
		if found == nil {
			return fmt.Errorf("order %s: %w", req.OrderID, entity.ErrOrderNotFound)
		}

		// Lock the row so concurrent callbacks for the same order serialize.
		order, err = s.repo.Order.FindByIDForUpdate(ctx, found.ID)
		if err != nil {
			return err
		}

		switch order.Status {
		case entity.OrderStatusPending, entity.OrderStatusPaymentAttempted,
			entity.OrderStatusPaymentProcessing, entity.OrderStatusPaymentFailed:
		default:
			return fmt.Errorf("order %s in status %s: %w", req.OrderID, order.Status, entity.ErrOrderNotPayable)
		}

		if err := s.recordPayment(ctx, order, req, now); err != nil {
			return err
		}

		if !req.Success {
			order.Status = entity.OrderStatusPaymentFailed
			return s.repo.Order.UpdateStatus(ctx, order.ID, order.Status)
		}

		order.Status = entity.OrderStatusConfirmed
		if err := s.repo.Order.UpdateStatus(ctx, order.ID, order.Status); err != nil {
			return err
		}

		if err := s.issueTicket(ctx, order, now); err != nil {
			return err
		}

		pending = append(pending, events.Event{
			Type:       events.OrderConfirmed,
			UserID:     order.UserID,
			OrderID:    order.ID,
			OccurredAt: now,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, ev := range pending {
		s.events.Publish(ctx, ev)
	}

	out := response.NewOrderResponse(order)
	return &out, nil
}

func (s *orderService) recordPayment(ctx context.Context, order *entity.Order, req *request.PaymentResultRequest, now time.Time) error {
	attempt, err := s.repo.Payment.NextAttemptNumber(ctx, order.ID)
	if err != nil {
		return err
	}

	rawRequest, _ := json.Marshal(req)

	payment := &entity.Payment{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		OrderID:       order.ID,
		AttemptNumber: attempt,
		Amount:        order.TotalAmount,
		Status:        entity.PaymentStatusCaptureSuccess,
		PGProvider:    "nicepay",
		Moid:          order.OrderID,
		RawRequest:    rawRequest,
	}
	if req.TID != "" {
		payment.TID = &req.TID
	}
	if !req.Success {
		payment.Status = entity.PaymentStatusCaptureFailed
		if req.ErrorCode != "" {
			payment.ErrorCode = &req.ErrorCode
		}
		if req.ErrorMessage != "" {
			payment.ErrorMessage = &req.ErrorMessage
		}
	}

	return s.repo.Payment.Create(ctx, payment)
}

// issueTicket creates the single ticket a confirmed order is entitled to.
// Idempotent: a callback replay finds the existing ticket and does nothing.
func (s *orderService) issueTicket(ctx context.Context, order *entity.Order, now time.Time) error {
	existing, err := s.repo.Ticket.FindByOrderID(ctx, order.ID)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	product, err := s.repo.LessonProduct.FindByID(ctx, order.LessonProductID)
	if err != nil {
		return err
	}
	if product == nil {
		return fmt.Errorf("lesson product %s not found for order %s", order.LessonProductID.String(), order.OrderID)
	}

	ticket := &entity.Ticket{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		OrderID:         &order.ID,
		UserID:          order.UserID,
		LessonProductID: order.LessonProductID,
		SessionsTotal:   product.SessionsCount * order.Quantity,
		Status:          entity.TicketStatusUnused,
		IsActive:        true,
	}

	if err := s.repo.Ticket.Create(ctx, ticket); err != nil {
		return err
	}

	s.log.Info("Ticket issued",
		zap.String("ticket_id", ticket.ID.String()),
		zap.String("order_id", order.OrderID),
		zap.Int("sessions_total", ticket.SessionsTotal),
	)
	return nil
}

func (s *orderService) CancelOrder(ctx context.Context, userID uuid.UUID, orderID string) error {
	id, err := uuid.Parse(orderID)
	if err != nil {
		return fmt.Errorf("invalid order ID format %s: %w", orderID, err)
	}

	return s.repo.WithTx(ctx, func(ctx context.Context) error {
		now := s.clock.Now()

		order, err := s.repo.Order.FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if order == nil || order.UserID != userID {
			return fmt.Errorf("order %s: %w", orderID, entity.ErrOrderNotFound)
		}
		if order.Status == entity.OrderStatusCancelled || order.Status == entity.OrderStatusCompleted {
			return fmt.Errorf("order %s in status %s: %w", orderID, order.Status, entity.ErrOrderNotPayable)
		}

		if err := s.repo.Order.UpdateStatus(ctx, order.ID, entity.OrderStatusCancelled); err != nil {
			return err
		}

		ticket, err := s.repo.Ticket.FindByOrderID(ctx, order.ID)
		if err != nil {
			return err
		}
		if ticket != nil {
			ticket.Recompute(now, entity.OrderStatusCancelled)
			ticket.UpdatedAt = now
			if err := s.repo.Ticket.Update(ctx, ticket); err != nil {
				return err
			}
		}

		s.log.Info("Order cancelled", zap.String("order_id", order.OrderID))
		return nil
	})
}
