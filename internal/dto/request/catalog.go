package request

type SportRequest struct {
	Name string `json:"name" validate:"required,min=2,max=100"`
}

type LocationRequest struct {
	Name    string `json:"name" validate:"required,min=2,max=200"`
	Address string `json:"address" validate:"required,min=5,max=500"`
}

type LessonProductRequest struct {
	SportID       string  `json:"sport_id" validate:"required,uuid4"`
	Title         string  `json:"title" validate:"required,min=2,max=200"`
	Description   string  `json:"description" validate:"max=2000"`
	SessionsCount int     `json:"sessions_count" validate:"required,min=1,max=100"`
	Price         float64 `json:"price" validate:"required,min=0"`
}
