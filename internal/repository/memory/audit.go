package memory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/perdeci/curtain-order-service/internal/domain"
)

type impersonationRepo struct{ repo }

func (r *impersonationRepo) Create(_ context.Context, entry *domain.ImpersonationLog) error {
	return r.acc(func(s *state) error {
		entry.ID = uuid.NewString()
		s.impersonations[entry.ID] = *entry
		s.track(entry.ID)
		return nil
	})
}

func (r *impersonationRepo) CloseOpen(_ context.Context, targetUserID, impersonatorID string, endedAt time.Time) (int64, error) {
	var count int64
	err := r.acc(func(s *state) error {
		for id, entry := range s.impersonations {
			if entry.TargetUserID == targetUserID && entry.ImpersonatorID == impersonatorID && entry.EndedAt == nil {
				at := endedAt
				entry.EndedAt = &at
				s.impersonations[id] = entry
				count++
			}
		}
		return nil
	})
	return count, err
}

func (r *impersonationRepo) ListRecent(_ context.Context, limit int) ([]domain.ImpersonationLog, error) {
	var out []domain.ImpersonationLog
	err := r.acc(func(s *state) error {
		all := make([]domain.ImpersonationLog, 0, len(s.impersonations))
		for _, entry := range s.impersonations {
			all = append(all, entry)
		}
		sortedBy(all, func(a, b domain.ImpersonationLog) bool { return s.before(b.ID, b.StartedAt, a.ID, a.StartedAt) })
		out = append(out, limitOffset(all, limit, 0)...)
		return nil
	})
	return out, err
}

type passwordResetRepo struct{ repo }

func (r *passwordResetRepo) Create(_ context.Context, token *domain.PasswordResetToken) error {
	return r.acc(func(s *state) error {
		for _, existing := range s.resets {
			if existing.Token == token.Token {
				return uniqueViolation("password_reset_tokens_token_key")
			}
		}
		token.ID = uuid.NewString()
		token.CreatedAt = r.now()
		s.resets[token.ID] = *token
		s.track(token.ID)
		return nil
	})
}

func (r *passwordResetRepo) GetByTokenForUpdate(_ context.Context, tokenStr string) (*domain.PasswordResetToken, error) {
	var out domain.PasswordResetToken
	err := r.acc(func(s *state) error {
		for _, token := range s.resets {
			if token.Token == tokenStr {
				out = token
				return nil
			}
		}
		return errNoRows
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *passwordResetRepo) MarkUsed(_ context.Context, id string, at time.Time) error {
	return r.acc(func(s *state) error {
		token, ok := s.resets[id]
		if !ok {
			return nil
		}
		usedAt := at
		token.UsedAt = &usedAt
		s.resets[id] = token
		return nil
	})
}

func (r *passwordResetRepo) InvalidateForUser(_ context.Context, userID string, at time.Time) (int64, error) {
	var count int64
	err := r.acc(func(s *state) error {
		for id, token := range s.resets {
			if token.UserID == userID && token.UsedAt == nil {
				usedAt := at
				token.UsedAt = &usedAt
				s.resets[id] = token
				count++
			}
		}
		return nil
	})
	return count, err
}
