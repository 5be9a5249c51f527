package entity

import (
	"time"

	"github.com/google/uuid"
)

type ReservationStatus string

const (
	ReservationStatusReserved  ReservationStatus = "RESERVED"
	ReservationStatusCancelled ReservationStatus = "CANCELLED"
	ReservationStatusCompleted ReservationStatus = "COMPLETED"
	ReservationStatusNoShow    ReservationStatus = "NOSHOW"
)

// Reservation is the generic reservation record the lifecycle engine works
// with. Session reservations back it with the session_reservations table
// (TicketID set, user resolved through the ticket); practice reservations
// back it with practice_reservations (TicketID nil, user held directly).
//
// QueuePosition is set iff IsWaiting, is 1-based and is kept gapless per
// slot among waiting RESERVED entries. It is mutated only by the waitlist
// operations of the reservation repositories.
type Reservation struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	SlotID        uuid.UUID
	TicketID      *uuid.UUID
	DayOrder      *int
	IsTheory      bool
	IsWaiting     bool
	QueuePosition *int
	Status        ReservationStatus
	CreatedAt     time.Time
	CancelledAt   *time.Time
}

// TicketBacked reports whether this reservation consumes a ticket session.
func (r *Reservation) TicketBacked() bool {
	return r.TicketID != nil
}
