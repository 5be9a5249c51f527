package repository

import (
	"context"
	"fmt"
	"time"

	"lesson-booking/internal/data/entity"
	"lesson-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type AuthSessionRepository interface {
	Create(ctx context.Context, session *entity.AuthSession) error
	FindByToken(ctx context.Context, token uuid.UUID) (*entity.AuthSession, error)
	DeleteByToken(ctx context.Context, token uuid.UUID) error
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

type authSessionRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewAuthSessionRepository(db database.PgxIface, log *zap.Logger) AuthSessionRepository {
	return &authSessionRepository{
		db:  db,
		log: log.With(zap.String("repository", "auth_session")),
	}
}

func (r *authSessionRepository) Create(ctx context.Context, session *entity.AuthSession) error {
	sql := `
		INSERT INTO auth_sessions (id, user_id, token, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := exec(ctx, r.db, sql,
		session.ID,
		session.UserID,
		session.Token,
		session.ExpiresAt,
		session.CreatedAt,
	)

	if err != nil {
		r.log.Error("Failed to create auth session", zap.Error(err), zap.String("user_id", session.UserID.String()))
		return fmt.Errorf("create auth session: %w", err)
	}

	return nil
}

func (r *authSessionRepository) FindByToken(ctx context.Context, token uuid.UUID) (*entity.AuthSession, error) {
	var s entity.AuthSession
	err := queryRow(ctx, r.db,
		`SELECT id, user_id, token, expires_at, created_at FROM auth_sessions WHERE token = $1`, token).
		Scan(&s.ID, &s.UserID, &s.Token, &s.ExpiresAt, &s.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find auth session", zap.Error(err))
		return nil, fmt.Errorf("find auth session: %w", err)
	}
	return &s, nil
}

func (r *authSessionRepository) DeleteByToken(ctx context.Context, token uuid.UUID) error {
	_, err := exec(ctx, r.db, `DELETE FROM auth_sessions WHERE token = $1`, token)
	if err != nil {
		r.log.Error("Failed to delete auth session", zap.Error(err))
		return fmt.Errorf("delete auth session: %w", err)
	}
	return nil
}

func (r *authSessionRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	result, err := exec(ctx, r.db, `DELETE FROM auth_sessions WHERE expires_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("delete expired auth sessions: %w", err)
	}
	return result.RowsAffected(), nil
}
