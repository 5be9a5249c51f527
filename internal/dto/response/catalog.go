package response

import "lesson-booking/internal/data/entity"

type SportResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type LocationResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
}

type LessonProductResponse struct {
	ID            string  `json:"id"`
	SportID       string  `json:"sport_id"`
	Title         string  `json:"title"`
	Description   string  `json:"description,omitempty"`
	SessionsCount int     `json:"sessions_count"`
	Price         float64 `json:"price"`
}

func NewSportResponse(s *entity.Sport) SportResponse {
	return SportResponse{ID: s.ID.String(), Name: s.Name}
}

func NewLocationResponse(l *entity.Location) LocationResponse {
	return LocationResponse{ID: l.ID.String(), Name: l.Name, Address: l.Address}
}

func NewLessonProductResponse(p *entity.LessonProduct) LessonProductResponse {
	return LessonProductResponse{
		ID:            p.ID.String(),
		SportID:       p.SportID.String(),
		Title:         p.Title,
		Description:   p.Description,
		SessionsCount: p.SessionsCount,
		Price:         p.Price,
	}
}
