package repository

import (
	"context"

	"lesson-booking/pkg/database"

	"go.uber.org/zap"
)

type Repository struct {
	db database.PgxIface

	User                UserRepository
	AuthSession         AuthSessionRepository
	Sport               SportRepository
	Location            LocationRepository
	LessonProduct       LessonProductRepository
	Schedule            ScheduleRepository
	PracticeSession     PracticeSessionRepository
	SessionReservation  SessionReservationRepository
	PracticeReservation PracticeReservationRepository
	Ticket              TicketRepository
	Order               OrderRepository
	Payment             PaymentRepository
}

func NewRepository(db database.PgxIface, log *zap.Logger) *Repository {
	return &Repository{
		db:                  db,
		User:                NewUserRepository(db, log),
		AuthSession:         NewAuthSessionRepository(db, log),
		Sport:               NewSportRepository(db, log),
		Location:            NewLocationRepository(db, log),
		LessonProduct:       NewLessonProductRepository(db, log),
		Schedule:            NewScheduleRepository(db, log),
		PracticeSession:     NewPracticeSessionRepository(db, log),
		SessionReservation:  NewSessionReservationRepository(db, log),
		PracticeReservation: NewPracticeReservationRepository(db, log),
		Ticket:              NewTicketRepository(db, log),
		Order:               NewOrderRepository(db, log),
		Payment:             NewPaymentRepository(db, log),
	}
}

// WithTx runs fn with a transaction in the context; every repository call
// made with that context joins the same transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.db, fn)
}
