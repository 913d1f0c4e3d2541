package repository

import (
	"context"
	"time"

	"github.com/perdeci/curtain-order-service/internal/domain"
)

// PasswordResetRepository manages password reset token persistence.
type PasswordResetRepository interface {
	Create(ctx context.Context, token *domain.PasswordResetToken) error
	// GetByTokenForUpdate locks the row when called inside a transaction.
	GetByTokenForUpdate(ctx context.Context, token string) (*domain.PasswordResetToken, error)
	MarkUsed(ctx context.Context, id string, at time.Time) error
	// InvalidateForUser marks every unused token of the user as used.
	InvalidateForUser(ctx context.Context, userID string, at time.Time) (int64, error)
}

type passwordResetRepository struct {
	db DBTX
}

// NewPasswordResetRepository constructs repository.
func NewPasswordResetRepository(db DBTX) PasswordResetRepository {
	return &passwordResetRepository{db: db}
}

func (r *passwordResetRepository) Create(ctx context.Context, token *domain.PasswordResetToken) error {
	const query = `
        INSERT INTO password_reset_tokens (user_id, token, expires_at)
        VALUES ($1,$2,$3)
        RETURNING id, created_at`
	return r.db.QueryRow(ctx, query,
		token.UserID,
		token.Token,
		token.ExpiresAt,
	).Scan(&token.ID, &token.CreatedAt)
}

func (r *passwordResetRepository) GetByTokenForUpdate(ctx context.Context, tokenStr string) (*domain.PasswordResetToken, error) {
	const query = `
        SELECT id, user_id, token, expires_at, used_at, created_at
        FROM password_reset_tokens WHERE token=$1
        FOR UPDATE`
	var token domain.PasswordResetToken
	if err := r.db.QueryRow(ctx, query, tokenStr).Scan(
		&token.ID,
		&token.UserID,
		&token.Token,
		&token.ExpiresAt,
		&token.UsedAt,
		&token.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &token, nil
}

func (r *passwordResetRepository) MarkUsed(ctx context.Context, id string, at time.Time) error {
	const query = `
        UPDATE password_reset_tokens SET used_at=$1
        WHERE id=$2`
	_, err := r.db.Exec(ctx, query, at, id)
	return err
}

func (r *passwordResetRepository) InvalidateForUser(ctx context.Context, userID string, at time.Time) (int64, error) {
	const query = `
        UPDATE password_reset_tokens SET used_at=$1
        WHERE user_id=$2 AND used_at IS NULL`
	cmd, err := r.db.Exec(ctx, query, at, userID)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}
