package entity

import (
	"time"

	"github.com/google/uuid"
)

// InstructorSchedule is one instructor-led time block bookable with a ticket.
type InstructorSchedule struct {
	Base
	LessonProductID uuid.UUID `db:"lesson_product_id"`
	InstructorID    uuid.UUID `db:"instructor_id"`
	LocationID      uuid.UUID `db:"location_id"`
	Date            time.Time `db:"date"`
	StartTime       time.Time `db:"start_time"`
	EndTime         time.Time `db:"end_time"`
	Slot
}

// SlotView adapts the schedule to the generic slot shape.
func (s *InstructorSchedule) SlotView() *SlotView {
	return &SlotView{
		ID:              s.ID,
		Slot:            s.Slot,
		LessonProductID: s.LessonProductID,
	}
}
