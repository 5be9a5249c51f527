package adaptor

import (
	"encoding/json"
	"net/http"

	"lesson-booking/internal/dto/request"
	"lesson-booking/internal/usecase"
	"lesson-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type OrderHandler struct {
	orders  usecase.OrderService
	tickets usecase.TicketService
	log     *zap.Logger
}

func NewOrderHandler(orders usecase.OrderService, tickets usecase.TicketService, log *zap.Logger) *OrderHandler {
	return &OrderHandler{
		orders:  orders,
		tickets: tickets,
		log:     log.With(zap.String("handler", "order")),
	}
}

// CreateOrder handles POST /api/v1/orders (protected)
func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	order, err := h.orders.CreateOrder(r.Context(), userID, &req)
	if err != nil {
		handleServiceError(h.log, w, err, "create order")
		return
	}

	utils.ResponseCreated(w, "success", order)
}

// MyOrders handles GET /api/v1/my-orders (protected)
func (h *OrderHandler) MyOrders(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	orders, err := h.orders.MyOrders(r.Context(), userID)
	if err != nil {
		handleServiceError(h.log, w, err, "my orders")
		return
	}

	utils.ResponseSuccess(w, "success", orders)
}

// PaymentResult handles POST /api/v1/payments/result (gateway callback)
func (h *OrderHandler) PaymentResult(w http.ResponseWriter, r *http.Request) {
	var req request.PaymentResultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	order, err := h.orders.ProcessPaymentResult(r.Context(), &req)
	if err != nil {
		handleServiceError(h.log, w, err, "process payment result")
		return
	}

	utils.ResponseSuccess(w, "success", order)
}

// CancelOrder handles DELETE /api/v1/orders/{id} (protected)
func (h *OrderHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	orderID := chi.URLParam(r, "id")
	if orderID == "" {
		utils.ResponseBadRequest(w, "Order ID is required", nil)
		return
	}

	if err := h.orders.CancelOrder(r.Context(), userID, orderID); err != nil {
		handleServiceError(h.log, w, err, "cancel order")
		return
	}

	utils.ResponseSuccess(w, "success", nil)
}

// MyTickets handles GET /api/v1/my-tickets (protected)
func (h *OrderHandler) MyTickets(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	tickets, err := h.tickets.MyTickets(r.Context(), userID)
	if err != nil {
		handleServiceError(h.log, w, err, "my tickets")
		return
	}

	utils.ResponseSuccess(w, "success", tickets)
}

// GetTicket handles GET /api/v1/tickets/{id} (protected)
func (h *OrderHandler) GetTicket(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	ticketID := chi.URLParam(r, "id")
	if ticketID == "" {
		utils.ResponseBadRequest(w, "Ticket ID is required", nil)
		return
	}

	ticket, err := h.tickets.GetTicket(r.Context(), userID, ticketID)
	if err != nil {
		handleServiceError(h.log, w, err, "get ticket")
		return
	}

	utils.ResponseSuccess(w, "success", ticket)
}
