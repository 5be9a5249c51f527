package entity

import "errors"

// Booking errors surfaced to callers with a stable code. Handlers map these
// to HTTP statuses; services wrap them with context via fmt.Errorf("%w").
var (
	ErrDuplicateReservation = errors.New("an active reservation already exists for this slot")
	ErrNoActiveTicket       = errors.New("no active ticket available for reservation")
	ErrDayOrderViolation    = errors.New("previous day must be reserved first")
	ErrMissingDayOrder      = errors.New("day order is required for non-theory sessions")
	ErrCapacityExceeded     = errors.New("slot is already at capacity")
	ErrTicketExhausted      = errors.New("ticket has no remaining sessions")
	ErrReservationNotFound  = errors.New("no active reservation found")
	ErrSlotNotFound         = errors.New("slot not found")
	ErrSlotNotOpen          = errors.New("slot is not open for reservations")
	ErrNotWaiting           = errors.New("user is not on the waiting list")
	ErrOrderNotFound        = errors.New("order not found")
	ErrOrderNotPayable      = errors.New("order is not in a payable state")
)

// ErrorCode returns the stable machine code for a booking error, or "" when
// the error is not part of the taxonomy.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrDuplicateReservation):
		return "DUPLICATE_RESERVATION"
	case errors.Is(err, ErrNoActiveTicket):
		return "NO_ACTIVE_TICKET"
	case errors.Is(err, ErrDayOrderViolation):
		return "DAY_ORDER_VIOLATION"
	case errors.Is(err, ErrMissingDayOrder):
		return "MISSING_DAY_ORDER"
	case errors.Is(err, ErrCapacityExceeded):
		return "CAPACITY_EXCEEDED"
	case errors.Is(err, ErrTicketExhausted):
		return "TICKET_EXHAUSTED"
	case errors.Is(err, ErrReservationNotFound):
		return "RESERVATION_NOT_FOUND"
	case errors.Is(err, ErrSlotNotFound):
		return "SLOT_NOT_FOUND"
	case errors.Is(err, ErrSlotNotOpen):
		return "SLOT_NOT_OPEN"
	case errors.Is(err, ErrNotWaiting):
		return "NOT_WAITING"
	case errors.Is(err, ErrOrderNotFound):
		return "ORDER_NOT_FOUND"
	case errors.Is(err, ErrOrderNotPayable):
		return "ORDER_NOT_PAYABLE"
	default:
		return ""
	}
}
