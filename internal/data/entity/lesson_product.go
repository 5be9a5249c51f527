package entity

import (
	"github.com/google/uuid"
)

// LessonProduct is a sellable bundle of N lesson sessions for one sport.
type LessonProduct struct {
	Base
	SportID       uuid.UUID `db:"sport_id"`
	Title         string    `db:"title"`
	Description   string    `db:"description"`
	SessionsCount int       `db:"sessions_count"`
	Price         float64   `db:"price"`
}
