package usecase

import (
	"context"
	"testing"
	"time"

	"lesson-booking/internal/clock"
	"lesson-booking/internal/data/entity"
	"lesson-booking/internal/data/repository"
	"lesson-booking/internal/dto/request"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type orderEnv struct {
	orders   *fakeOrderRepo
	tickets  *fakeTicketRepo
	payments *fakePaymentRepo
	products *fakeLessonProductRepo
	clk      *clock.Fixed
	svc      OrderService
}

func newOrderEnv() *orderEnv {
	log := zap.NewNop()
	repo := repository.NewRepository(&fakeDB{}, log)

	e := &orderEnv{
		orders:   newFakeOrderRepo(),
		tickets:  newFakeTicketRepo(),
		payments: newFakePaymentRepo(),
		products: newFakeLessonProductRepo(),
		clk:      clock.NewFixed(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)),
	}

	repo.Order = e.orders
	repo.Ticket = e.tickets
	repo.Payment = e.payments
	repo.LessonProduct = e.products

	e.svc = NewOrderService(repo, nil, e.clk, log)
	return e
}

func (e *orderEnv) addProduct(sessions int, price float64) *entity.LessonProduct {
	p := &entity.LessonProduct{
		Base:          entity.Base{ID: uuid.New(), CreatedAt: e.clk.Now(), UpdatedAt: e.clk.Now()},
		SportID:       uuid.New(),
		Title:         "Beginner course",
		SessionsCount: sessions,
		Price:         price,
	}
	e.products.byID[p.ID] = p
	return p
}

func TestCreateOrder(t *testing.T) {
	e := newOrderEnv()
	product := e.addProduct(10, 250000)
	userID := uuid.New()

	out, err := e.svc.CreateOrder(context.Background(), userID, &request.CreateOrderRequest{
		LessonProductID: product.ID.String(),
		Quantity:        2,
	})
	require.NoError(t, err)

	assert.Equal(t, entity.OrderStatusPending, out.Status)
	assert.Equal(t, 2, out.Quantity)
	assert.Equal(t, 500000.0, out.TotalAmount)
	assert.NotEmpty(t, out.OrderID)
}

func TestProcessPaymentResultConfirmsAndIssuesTicket(t *testing.T) {
	e := newOrderEnv()
	ctx := context.Background()
	product := e.addProduct(10, 250000)
	userID := uuid.New()

	created, err := e.svc.CreateOrder(ctx, userID, &request.CreateOrderRequest{
		LessonProductID: product.ID.String(),
		Quantity:        2,
	})
	require.NoError(t, err)

	out, err := e.svc.ProcessPaymentResult(ctx, &request.PaymentResultRequest{
		OrderID: created.OrderID,
		Success: true,
		TID:     "nicepay-tid-1",
	})
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusConfirmed, out.Status)

	orderUUID := uuid.MustParse(created.ID)
	ticket, err := e.tickets.FindByOrderID(ctx, orderUUID)
	require.NoError(t, err)
	require.NotNil(t, ticket)
	assert.Equal(t, 20, ticket.SessionsTotal)
	assert.Equal(t, userID, ticket.UserID)
	assert.True(t, ticket.IsActive)

	payments := e.payments.byOrder[orderUUID]
	require.Len(t, payments, 1)
	assert.Equal(t, 1, payments[0].AttemptNumber)
	assert.Equal(t, entity.PaymentStatusCaptureSuccess, payments[0].Status)
}

func TestProcessPaymentResultFailureThenRetry(t *testing.T) {
	e := newOrderEnv()
	ctx := context.Background()
	product := e.addProduct(5, 100000)
	userID := uuid.New()

	created, err := e.svc.CreateOrder(ctx, userID, &request.CreateOrderRequest{
		LessonProductID: product.ID.String(),
		Quantity:        1,
	})
	require.NoError(t, err)

	out, err := e.svc.ProcessPaymentResult(ctx, &request.PaymentResultRequest{
		OrderID:   created.OrderID,
		Success:   false,
		ErrorCode: "3001",
	})
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusPaymentFailed, out.Status)

	orderUUID := uuid.MustParse(created.ID)
	ticket, err := e.tickets.FindByOrderID(ctx, orderUUID)
	require.NoError(t, err)
	assert.Nil(t, ticket)

	// A failed order stays payable; the retry confirms and issues the ticket.
	out, err = e.svc.ProcessPaymentResult(ctx, &request.PaymentResultRequest{
		OrderID: created.OrderID,
		Success: true,
		TID:     "nicepay-tid-2",
	})
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusConfirmed, out.Status)

	payments := e.payments.byOrder[orderUUID]
	require.Len(t, payments, 2)
	assert.Equal(t, entity.PaymentStatusCaptureFailed, payments[0].Status)
	assert.Equal(t, 2, payments[1].AttemptNumber)

	ticket, err = e.tickets.FindByOrderID(ctx, orderUUID)
	require.NoError(t, err)
	require.NotNil(t, ticket)
	assert.Equal(t, 5, ticket.SessionsTotal)
}

func TestProcessPaymentResultReplayOnConfirmed(t *testing.T) {
	e := newOrderEnv()
	ctx := context.Background()
	product := e.addProduct(5, 100000)

	created, err := e.svc.CreateOrder(ctx, uuid.New(), &request.CreateOrderRequest{
		LessonProductID: product.ID.String(),
		Quantity:        1,
	})
	require.NoError(t, err)

	_, err = e.svc.ProcessPaymentResult(ctx, &request.PaymentResultRequest{
		OrderID: created.OrderID,
		Success: true,
	})
	require.NoError(t, err)

	_, err = e.svc.ProcessPaymentResult(ctx, &request.PaymentResultRequest{
		OrderID: created.OrderID,
		Success: true,
	})
	assert.ErrorIs(t, err, entity.ErrOrderNotPayable)

	// The replay recorded nothing and issued no second ticket.
	orderUUID := uuid.MustParse(created.ID)
	assert.Len(t, e.payments.byOrder[orderUUID], 1)
}

func TestProcessPaymentResultUnknownOrder(t *testing.T) {
	e := newOrderEnv()

	_, err := e.svc.ProcessPaymentResult(context.Background(), &request.PaymentResultRequest{
		OrderID: "ORD-19700101-000000",
		Success: true,
	})
	assert.ErrorIs(t, err, entity.ErrOrderNotFound)
}

func TestCancelOrderCancelsTicket(t *testing.T) {
	e := newOrderEnv()
	ctx := context.Background()
	product := e.addProduct(5, 100000)
	userID := uuid.New()

	created, err := e.svc.CreateOrder(ctx, userID, &request.CreateOrderRequest{
		LessonProductID: product.ID.String(),
		Quantity:        1,
	})
	require.NoError(t, err)

	_, err = e.svc.ProcessPaymentResult(ctx, &request.PaymentResultRequest{
		OrderID: created.OrderID,
		Success: true,
	})
	require.NoError(t, err)

	require.NoError(t, e.svc.CancelOrder(ctx, userID, created.ID))

	orderUUID := uuid.MustParse(created.ID)
	order, err := e.orders.FindByID(ctx, orderUUID)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusCancelled, order.Status)

	ticket, err := e.tickets.FindByOrderID(ctx, orderUUID)
	require.NoError(t, err)
	require.NotNil(t, ticket)
	assert.Equal(t, entity.TicketStatusCancelled, ticket.Status)
	assert.False(t, ticket.IsActive)
}

func TestCancelOrderWrongUser(t *testing.T) {
	e := newOrderEnv()
	ctx := context.Background()
	product := e.addProduct(5, 100000)

	created, err := e.svc.CreateOrder(ctx, uuid.New(), &request.CreateOrderRequest{
		LessonProductID: product.ID.String(),
		Quantity:        1,
	})
	require.NoError(t, err)

	err = e.svc.CancelOrder(ctx, uuid.New(), created.ID)
	assert.ErrorIs(t, err, entity.ErrOrderNotFound)
}
