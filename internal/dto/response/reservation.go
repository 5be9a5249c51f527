package response

import (
	"time"

	"lesson-booking/internal/data/entity"
)

// ReservationResponse is returned by apply, cancel and listing endpoints.
// WaitingPosition is present only while the reservation sits on the
// waitlist.
type ReservationResponse struct {
	ID              string                   `json:"id"`
	SlotID          string                   `json:"slot_id"`
	TicketID        *string                  `json:"ticket_id,omitempty"`
	IsFreePractice  bool                     `json:"is_free_practice"`
	IsTheory        bool                     `json:"is_theory,omitempty"`
	DayOrder        *int                     `json:"day_order,omitempty"`
	IsWaiting       bool                     `json:"is_waiting"`
	WaitingPosition *int                     `json:"waiting_position,omitempty"`
	Status          entity.ReservationStatus `json:"status"`
	CreatedAt       time.Time                `json:"created_at"`
}

// CancelResponse reports what the cancellation did to the waitlist.
type CancelResponse struct {
	ReservationID string `json:"reservation_id"`
	Promoted      bool   `json:"promoted"`
	PromotedID    string `json:"promoted_id,omitempty"`
}

type WaitingPositionResponse struct {
	SlotID       string `json:"slot_id"`
	Position     int    `json:"position"`
	TotalWaiting int    `json:"total_waiting"`
}

type MyReservationsResponse struct {
	Sessions  []ReservationResponse `json:"sessions"`
	Practices []ReservationResponse `json:"practices"`
}

func NewReservationResponse(res *entity.Reservation, isFreePractice bool) ReservationResponse {
	out := ReservationResponse{
		ID:             res.ID.String(),
		SlotID:         res.SlotID.String(),
		IsFreePractice: isFreePractice,
		IsTheory:       res.IsTheory,
		DayOrder:       res.DayOrder,
		IsWaiting:      res.IsWaiting,
		Status:         res.Status,
		CreatedAt:      res.CreatedAt,
	}
	if res.TicketID != nil {
		id := res.TicketID.String()
		out.TicketID = &id
	}
	if res.IsWaiting {
		out.WaitingPosition = res.QueuePosition
	}
	return out
}
