package entity

import (
	"time"

	"github.com/google/uuid"
)

// PracticeSession is an open practice block reserved directly by a user,
// without a ticket. BaseScheduleID optionally links the instructor schedule
// the practice block was derived from.
type PracticeSession struct {
	Base
	Title          string     `db:"title"`
	SportID        uuid.UUID  `db:"sport_id"`
	InstructorID   uuid.UUID  `db:"instructor_id"`
	LocationID     uuid.UUID  `db:"location_id"`
	BaseScheduleID *uuid.UUID `db:"base_schedule_id"`
	Date           time.Time  `db:"date"`
	StartTime      time.Time  `db:"start_time"`
	EndTime        time.Time  `db:"end_time"`
	Slot
}

func (p *PracticeSession) SlotView() *SlotView {
	return &SlotView{
		ID:   p.ID,
		Slot: p.Slot,
	}
}
