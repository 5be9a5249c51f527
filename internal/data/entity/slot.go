package entity

import (
	"github.com/google/uuid"
)

type SlotStatus string

const (
	SlotStatusOpen      SlotStatus = "OPEN"
	SlotStatusClosed    SlotStatus = "CLOSED"
	SlotStatusCancelled SlotStatus = "CANCELLED"
)

// Slot is the bookable core shared by instructor schedules and practice
// sessions: a fixed capacity, the current booking count, and a version
// counter bumped on every counter update as an optimistic-lock guard.
// CurrentBookings is mutated only through the slot repositories' atomic
// increment/decrement operations.
type Slot struct {
	Capacity        int        `db:"capacity"`
	CurrentBookings int        `db:"current_bookings"`
	Status          SlotStatus `db:"status"`
	Version         int        `db:"version"`
}

// HasRoom reports whether a non-waiting reservation may still be seated.
func (s Slot) HasRoom() bool {
	return s.Status == SlotStatusOpen && s.CurrentBookings < s.Capacity
}

// AvailableSpots never goes below zero even if the counter drifted.
func (s Slot) AvailableSpots() int {
	if s.CurrentBookings >= s.Capacity {
		return 0
	}
	return s.Capacity - s.CurrentBookings
}

// SlotView is the slice of a slot row the reservation lifecycle works
// against, regardless of whether it came from instructor_schedules or
// practice_sessions. LessonProductID is Nil for practice sessions.
type SlotView struct {
	ID uuid.UUID
	Slot
	LessonProductID uuid.UUID
}
