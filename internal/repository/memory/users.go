package memory

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/perdeci/curtain-order-service/internal/domain"
)

type userRepo struct{ repo }

func (r *userRepo) Create(_ context.Context, user *domain.User) error {
	return r.acc(func(s *state) error {
		for _, existing := range s.users {
			if strings.EqualFold(existing.Email, user.Email) {
				return uniqueViolation("users_email_key")
			}
		}
		now := r.now()
		user.ID = uuid.NewString()
		user.CreatedAt = now
		user.UpdatedAt = now
		s.users[user.ID] = *user
		s.track(user.ID)
		return nil
	})
}

func (r *userRepo) Update(_ context.Context, user *domain.User) error {
	return r.acc(func(s *state) error {
		current, ok := s.users[user.ID]
		if !ok {
			return errNoRows
		}
		for id, existing := range s.users {
			if id != user.ID && strings.EqualFold(existing.Email, user.Email) {
				return uniqueViolation("users_email_key")
			}
		}
		user.CreatedAt = current.CreatedAt
		user.UpdatedAt = r.now()
		s.users[user.ID] = *user
		return nil
	})
}

func (r *userRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	var out domain.User
	err := r.acc(func(s *state) error {
		user, ok := s.users[id]
		if !ok {
			return errNoRows
		}
		out = user
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *userRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	var out domain.User
	err := r.acc(func(s *state) error {
		for _, user := range s.users {
			if strings.EqualFold(user.Email, email) {
				out = user
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

func (r *userRepo) SetActive(_ context.Context, id string, active bool) error {
	return r.acc(func(s *state) error {
		user, ok := s.users[id]
		if !ok {
			return errNoRows
		}
		user.IsActive = active
		user.UpdatedAt = r.now()
		s.users[id] = user
		return nil
	})
}

func (r *userRepo) List(_ context.Context, limit, offset int) ([]domain.User, error) {
	var out []domain.User
	err := r.acc(func(s *state) error {
		all := make([]domain.User, 0, len(s.users))
		for _, user := range s.users {
			all = append(all, user)
		}
		sortedBy(all, func(a, b domain.User) bool { return s.before(a.ID, a.CreatedAt, b.ID, b.CreatedAt) })
		out = append(out, limitOffset(all, limit, offset)...)
		return nil
	})
	return out, err
}
