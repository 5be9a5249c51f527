package entity

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	Base
	Email        string `db:"email"`
	PasswordHash string `db:"password_hash"`
	Name         string `db:"name"`
	Phone        string `db:"phone"`
	Role         string `db:"role"` // customer | instructor | admin
}

// AuthSession is a DB-stored bearer session checked by the auth middleware.
type AuthSession struct {
	BaseSimple
	UserID    uuid.UUID `db:"user_id"`
	Token     uuid.UUID `db:"token"`
	ExpiresAt time.Time `db:"expires_at"`
}
