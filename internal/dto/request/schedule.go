package request

type CreateScheduleRequest struct {
	LessonProductID string `json:"lesson_product_id" validate:"required,uuid4"`
	InstructorID    string `json:"instructor_id" validate:"required,uuid4"`
	LocationID      string `json:"location_id" validate:"required,uuid4"`
	Date            string `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime       string `json:"start_time" validate:"required,datetime=15:04"`
	EndTime         string `json:"end_time" validate:"required,datetime=15:04"`
	Capacity        int    `json:"capacity" validate:"required,min=1,max=500"`
}

type UpdateScheduleRequest struct {
	Date      string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	StartTime string `json:"start_time" validate:"omitempty,datetime=15:04"`
	EndTime   string `json:"end_time" validate:"omitempty,datetime=15:04"`
	Capacity  int    `json:"capacity" validate:"omitempty,min=1,max=500"`
	Status    string `json:"status" validate:"omitempty,oneof=OPEN CLOSED CANCELLED"`
}

type CreatePracticeSessionRequest struct {
	Title          string `json:"title" validate:"required,min=2,max=200"`
	SportID        string `json:"sport_id" validate:"required,uuid4"`
	InstructorID   string `json:"instructor_id" validate:"required,uuid4"`
	LocationID     string `json:"location_id" validate:"required,uuid4"`
	BaseScheduleID string `json:"base_schedule_id" validate:"omitempty,uuid4"`
	Date           string `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime      string `json:"start_time" validate:"required,datetime=15:04"`
	EndTime        string `json:"end_time" validate:"required,datetime=15:04"`
	Capacity       int    `json:"capacity" validate:"required,min=1,max=500"`
}

// ListSlotsRequest carries the listing filters shared by schedules and
// practice sessions. All fields are optional.
type ListSlotsRequest struct {
	Date         string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	DateFrom     string `json:"date_from" validate:"omitempty,datetime=2006-01-02"`
	DateTo       string `json:"date_to" validate:"omitempty,datetime=2006-01-02"`
	SportID      string `json:"sport_id" validate:"omitempty,uuid4"`
	InstructorID string `json:"instructor_id" validate:"omitempty,uuid4"`
	LocationID   string `json:"location_id" validate:"omitempty,uuid4"`
	PaginatedRequest
}
