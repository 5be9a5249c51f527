package entity

import (
	"time"

	"github.com/google/uuid"
)

type TicketStatus string

const (
	TicketStatusUnused        TicketStatus = "UNUSED"
	TicketStatusPartiallyUsed TicketStatus = "PARTIALLY_USED"
	TicketStatusFullyUsed     TicketStatus = "FULLY_USED"
	TicketStatusExpired       TicketStatus = "EXPIRED"
	TicketStatusCancelled     TicketStatus = "CANCELLED"
)

// Ticket is a prepaid bundle of N sessions issued when a lesson product
// order is confirmed. Status and IsActive are never written directly by
// callers; every mutation goes through Recompute.
type Ticket struct {
	Base
	OrderID         *uuid.UUID   `db:"order_id"`
	UserID          uuid.UUID    `db:"user_id"`
	LessonProductID uuid.UUID    `db:"lesson_product_id"`
	SessionsTotal   int          `db:"sessions_total"`
	SessionsUsed    int          `db:"sessions_used"`
	IsActive        bool         `db:"is_active"`
	Status          TicketStatus `db:"status"`
	ValidUntil      *time.Time   `db:"valid_until"`
}

// Remaining returns the number of sessions left on the ticket.
func (t *Ticket) Remaining() int {
	if t.SessionsUsed >= t.SessionsTotal {
		return 0
	}
	return t.SessionsTotal - t.SessionsUsed
}

// Recompute derives Status and IsActive from the ticket's counters, its
// expiry date and the linked order's state. It is a pure function of those
// inputs: recomputing twice with the same inputs is a no-op. Call it after
// every mutation of SessionsUsed, ValidUntil or the order status.
//
// Rules, in priority order:
//   - CANCELLED is sticky, and a cancelled order forces it.
//   - past valid_until while not fully used -> EXPIRED (deactivates)
//   - used == 0 -> UNUSED; used >= total -> FULLY_USED (deactivates)
//   - otherwise PARTIALLY_USED
//
// A paid order (anything past PENDING, except CANCELLED) activates the
// ticket unless a terminal status already applies.
func (t *Ticket) Recompute(now time.Time, orderStatus OrderStatus) {
	switch {
	case t.Status == TicketStatusCancelled:
		// sticky
	case t.ValidUntil != nil && now.After(endOfDay(*t.ValidUntil)) && t.SessionsUsed < t.SessionsTotal:
		t.Status = TicketStatusExpired
		t.IsActive = false
	case t.SessionsUsed == 0:
		t.Status = TicketStatusUnused
	case t.SessionsUsed >= t.SessionsTotal:
		t.Status = TicketStatusFullyUsed
		t.IsActive = false
	default:
		t.Status = TicketStatusPartiallyUsed
	}

	if orderStatus == OrderStatusCancelled {
		t.IsActive = false
		t.Status = TicketStatusCancelled
		return
	}

	if orderStatus != "" && orderStatus != OrderStatusPending && !t.IsActive {
		switch t.Status {
		case TicketStatusExpired, TicketStatusFullyUsed, TicketStatusCancelled:
		default:
			t.IsActive = true
		}
	}
}

// endOfDay treats valid_until as inclusive: the ticket expires once the
// date has fully passed, not at its midnight.
func endOfDay(d time.Time) time.Time {
	y, m, day := d.Date()
	return time.Date(y, m, day, 23, 59, 59, int(time.Second-time.Nanosecond), d.Location())
}
