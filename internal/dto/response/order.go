package response

import (
	"time"

	"lesson-booking/internal/data/entity"
)

type OrderResponse struct {
	ID              string             `json:"id"`
	OrderID         string             `json:"order_id"`
	LessonProductID string             `json:"lesson_product_id"`
	Quantity        int                `json:"quantity"`
	TotalAmount     float64            `json:"total_amount"`
	Status          entity.OrderStatus `json:"status"`
	CreatedAt       time.Time          `json:"created_at"`
}

type TicketResponse struct {
	ID                string              `json:"id"`
	LessonProductID   string              `json:"lesson_product_id"`
	SessionsTotal     int                 `json:"sessions_total"`
	SessionsUsed      int                 `json:"sessions_used"`
	SessionsRemaining int                 `json:"sessions_remaining"`
	IsActive          bool                `json:"is_active"`
	Status            entity.TicketStatus `json:"status"`
	ValidUntil        *string             `json:"valid_until,omitempty"`
}

func NewOrderResponse(o *entity.Order) OrderResponse {
	return OrderResponse{
		ID:              o.ID.String(),
		OrderID:         o.OrderID,
		LessonProductID: o.LessonProductID.String(),
		Quantity:        o.Quantity,
		TotalAmount:     o.TotalAmount,
		Status:          o.Status,
		CreatedAt:       o.CreatedAt,
	}
}

func NewTicketResponse(t *entity.Ticket) TicketResponse {
	out := TicketResponse{
		ID:                t.ID.String(),
		LessonProductID:   t.LessonProductID.String(),
		SessionsTotal:     t.SessionsTotal,
		SessionsUsed:      t.SessionsUsed,
		SessionsRemaining: t.Remaining(),
		IsActive:          t.IsActive,
		Status:            t.Status,
	}
	if t.ValidUntil != nil {
		d := t.ValidUntil.Format(time.DateOnly)
		out.ValidUntil = &d
	}
	return out
}
