package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func datePtr(t time.Time) *time.Time { return &t }

func TestTicketRecompute(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		ticket      Ticket
		orderStatus OrderStatus
		wantStatus  TicketStatus
		wantActive  bool
	}{
		{
			name:        "unused ticket stays unused",
			ticket:      Ticket{SessionsTotal: 10, SessionsUsed: 0, IsActive: true, Status: TicketStatusUnused},
			orderStatus: OrderStatusConfirmed,
			wantStatus:  TicketStatusUnused,
			wantActive:  true,
		},
		{
			name:        "partially used",
			ticket:      Ticket{SessionsTotal: 10, SessionsUsed: 3, IsActive: true, Status: TicketStatusUnused},
			orderStatus: OrderStatusConfirmed,
			wantStatus:  TicketStatusPartiallyUsed,
			wantActive:  true,
		},
		{
			name:        "fully used deactivates",
			ticket:      Ticket{SessionsTotal: 10, SessionsUsed: 10, IsActive: true, Status: TicketStatusPartiallyUsed},
			orderStatus: OrderStatusConfirmed,
			wantStatus:  TicketStatusFullyUsed,
			wantActive:  false,
		},
		{
			name: "expired when valid_until has passed",
			ticket: Ticket{
				SessionsTotal: 10, SessionsUsed: 3, IsActive: true,
				Status: TicketStatusPartiallyUsed, ValidUntil: datePtr(now.AddDate(0, 0, -1)),
			},
			orderStatus: OrderStatusConfirmed,
			wantStatus:  TicketStatusExpired,
			wantActive:  false,
		},
		{
			name: "valid_until is inclusive through end of day",
			ticket: Ticket{
				SessionsTotal: 10, SessionsUsed: 3, IsActive: true,
				Status: TicketStatusPartiallyUsed, ValidUntil: datePtr(now),
			},
			orderStatus: OrderStatusConfirmed,
			wantStatus:  TicketStatusPartiallyUsed,
			wantActive:  true,
		},
		{
			name: "fully used does not flip to expired",
			ticket: Ticket{
				SessionsTotal: 5, SessionsUsed: 5, IsActive: false,
				Status: TicketStatusFullyUsed, ValidUntil: datePtr(now.AddDate(0, -1, 0)),
			},
			orderStatus: OrderStatusConfirmed,
			wantStatus:  TicketStatusFullyUsed,
			wantActive:  false,
		},
		{
			name:        "cancelled is sticky",
			ticket:      Ticket{SessionsTotal: 10, SessionsUsed: 0, IsActive: false, Status: TicketStatusCancelled},
			orderStatus: OrderStatusConfirmed,
			wantStatus:  TicketStatusCancelled,
			wantActive:  false,
		},
		{
			name:        "cancelled order cancels the ticket",
			ticket:      Ticket{SessionsTotal: 10, SessionsUsed: 3, IsActive: true, Status: TicketStatusPartiallyUsed},
			orderStatus: OrderStatusCancelled,
			wantStatus:  TicketStatusCancelled,
			wantActive:  false,
		},
		{
			name:        "paid order activates an inactive ticket",
			ticket:      Ticket{SessionsTotal: 10, SessionsUsed: 0, IsActive: false, Status: TicketStatusUnused},
			orderStatus: OrderStatusConfirmed,
			wantStatus:  TicketStatusUnused,
			wantActive:  true,
		},
		{
			name:        "pending order does not activate",
			ticket:      Ticket{SessionsTotal: 10, SessionsUsed: 0, IsActive: false, Status: TicketStatusUnused},
			orderStatus: OrderStatusPending,
			wantStatus:  TicketStatusUnused,
			wantActive:  false,
		},
		{
			name: "stale fully-used status does not mask expiry",
			ticket: Ticket{
				SessionsTotal: 1, SessionsUsed: 0, IsActive: false,
				Status: TicketStatusFullyUsed, ValidUntil: datePtr(now.AddDate(0, 0, -1)),
			},
			orderStatus: OrderStatusConfirmed,
			wantStatus:  TicketStatusExpired,
			wantActive:  false,
		},
		{
			name: "paid order does not revive an expired ticket",
			ticket: Ticket{
				SessionsTotal: 10, SessionsUsed: 0, IsActive: false,
				Status: TicketStatusUnused, ValidUntil: datePtr(now.AddDate(0, 0, -2)),
			},
			orderStatus: OrderStatusConfirmed,
			wantStatus:  TicketStatusExpired,
			wantActive:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.ticket.Recompute(now, tt.orderStatus)
			assert.Equal(t, tt.wantStatus, tt.ticket.Status)
			assert.Equal(t, tt.wantActive, tt.ticket.IsActive)
		})
	}
}

func TestTicketRecomputeIdempotent(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

	ticket := Ticket{
		SessionsTotal: 10,
		SessionsUsed:  4,
		IsActive:      true,
		Status:        TicketStatusUnused,
		ValidUntil:    datePtr(now.AddDate(0, 1, 0)),
	}

	ticket.Recompute(now, OrderStatusConfirmed)
	first := ticket

	ticket.Recompute(now, OrderStatusConfirmed)
	assert.Equal(t, first, ticket)
}

func TestTicketRemaining(t *testing.T) {
	assert.Equal(t, 7, (&Ticket{SessionsTotal: 10, SessionsUsed: 3}).Remaining())
	assert.Equal(t, 0, (&Ticket{SessionsTotal: 10, SessionsUsed: 10}).Remaining())
	assert.Equal(t, 0, (&Ticket{SessionsTotal: 10, SessionsUsed: 12}).Remaining())
}

func TestSlotHasRoom(t *testing.T) {
	assert.True(t, Slot{Capacity: 2, CurrentBookings: 1, Status: SlotStatusOpen}.HasRoom())
	assert.False(t, Slot{Capacity: 2, CurrentBookings: 2, Status: SlotStatusOpen}.HasRoom())
	assert.False(t, Slot{Capacity: 2, CurrentBookings: 1, Status: SlotStatusClosed}.HasRoom())
	assert.Equal(t, 0, Slot{Capacity: 2, CurrentBookings: 3}.AvailableSpots())
}
