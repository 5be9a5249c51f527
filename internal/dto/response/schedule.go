package response

import (
	"time"

	"lesson-booking/internal/data/entity"
)

type ScheduleResponse struct {
	ID              string            `json:"id"`
	LessonProductID string            `json:"lesson_product_id"`
	InstructorID    string            `json:"instructor_id"`
	LocationID      string            `json:"location_id"`
	Date            string            `json:"date"`
	StartTime       string            `json:"start_time"`
	EndTime         string            `json:"end_time"`
	Capacity        int               `json:"capacity"`
	AvailableSpots  int               `json:"available_spots"`
	WaitingCount    int               `json:"waiting_count,omitempty"`
	Status          entity.SlotStatus `json:"status"`
}

type PracticeSessionResponse struct {
	ID             string            `json:"id"`
	Title          string            `json:"title"`
	SportID        string            `json:"sport_id"`
	InstructorID   string            `json:"instructor_id"`
	LocationID     string            `json:"location_id"`
	Date           string            `json:"date"`
	StartTime      string            `json:"start_time"`
	EndTime        string            `json:"end_time"`
	Capacity       int               `json:"capacity"`
	AvailableSpots int               `json:"available_spots"`
	Status         entity.SlotStatus `json:"status"`
}

func NewScheduleResponse(s *entity.InstructorSchedule) ScheduleResponse {
	return ScheduleResponse{
		ID:              s.ID.String(),
		LessonProductID: s.LessonProductID.String(),
		InstructorID:    s.InstructorID.String(),
		LocationID:      s.LocationID.String(),
		Date:            s.Date.Format(time.DateOnly),
		StartTime:       s.StartTime.Format("15:04"),
		EndTime:         s.EndTime.Format("15:04"),
		Capacity:        s.Capacity,
		AvailableSpots:  s.AvailableSpots(),
		Status:          s.Slot.Status,
	}
}

func NewPracticeSessionResponse(p *entity.PracticeSession) PracticeSessionResponse {
	return PracticeSessionResponse{
		ID:             p.ID.String(),
		Title:          p.Title,
		SportID:        p.SportID.String(),
		InstructorID:   p.InstructorID.String(),
		LocationID:     p.LocationID.String(),
		Date:           p.Date.Format(time.DateOnly),
		StartTime:      p.StartTime.Format("15:04"),
		EndTime:        p.EndTime.Format("15:04"),
		Capacity:       p.Capacity,
		AvailableSpots: p.AvailableSpots(),
		Status:         p.Slot.Status,
	}
}
