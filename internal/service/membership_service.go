package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/perdeci/curtain-order-service/internal/auth"
	"github.com/perdeci/curtain-order-service/internal/billing"
	"github.com/perdeci/curtain-order-service/internal/domain"
	"github.com/perdeci/curtain-order-service/internal/events"
	"github.com/perdeci/curtain-order-service/internal/repository"
	apperrors "github.com/perdeci/curtain-order-service/pkg/util/errorutil"
)

// InviteInput describes a new tenant member.
type InviteInput struct {
	Email string
	Name  string
	Role  domain.TenantRole
}

// MembershipService manages who belongs to a tenant.
type MembershipService struct {
	store      repository.Provider
	billing    *billing.Service
	dispatcher events.Dispatcher
	logger     *zap.Logger
	bcryptCost int
	now        func() time.Time
}

// MembershipDependencies bundles collaborators.
type MembershipDependencies struct {
	Store      repository.Provider
	Billing    *billing.Service
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	BcryptCost int
	Clock      func() time.Time
}

// NewMembershipService constructs the service.
func NewMembershipService(deps MembershipDependencies) *MembershipService {
	s := &MembershipService{
		store:      deps.Store,
		billing:    deps.Billing,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		bcryptCost: deps.BcryptCost,
		now:        deps.Clock,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// List returns the tenant's members with their user details.
func (s *MembershipService) List(ctx context.Context, tenantID string) ([]domain.MemberView, error) {
	return s.store.Repos().Memberships.ListForTenant(ctx, tenantID)
}

// Invite adds a user to the tenant, creating the account with a temporary
// password when the email is new. Deactivated users are reactivated.
func (s *MembershipService) Invite(ctx context.Context, tenantID, actorID string, input InviteInput) (*domain.Membership, error) {
	email, err := normalizeEmail(input.Email)
	if err != nil {
		return nil, err
	}
	role := input.Role
	if role == "" {
		role = domain.TenantRoleMember
	}
	if !role.Valid() {
		return nil, apperrors.NewValidationError("invalid tenant role", map[string]any{"role": role})
	}

	var (
		membership   *domain.Membership
		tenant       *domain.Tenant
		user         *domain.User
		tempPassword string
	)
	err = s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		tenant, err = repos.Tenants.GetByID(ctx, tenantID)
		if err != nil {
			return err
		}

		user, err = repos.Users.GetByEmail(ctx, email)
		switch {
		case err == nil:
			if !user.IsActive {
				if err := repos.Users.SetActive(ctx, user.ID, true); err != nil {
					return err
				}
				user.IsActive = true
			}
		case apperrors.IsNotFound(err):
			tempPassword, err = auth.RandomSecret(9)
			if err != nil {
				return err
			}
			hash, err := auth.HashPassword(tempPassword, s.bcryptCost)
			if err != nil {
				return err
			}
			user = &domain.User{
				Email:              email,
				Name:               strings.TrimSpace(input.Name),
				PasswordHash:       hash,
				Role:               domain.RoleUser,
				IsActive:           true,
				MustChangePassword: true,
			}
			if err := repos.Users.Create(ctx, user); err != nil {
				return err
			}
		default:
			return err
		}

		membership = &domain.Membership{UserID: user.ID, TenantID: tenantID, Role: role}
		if err := repos.Memberships.Create(ctx, membership); err != nil {
			if apperrors.IsUniqueViolation(err) {
				return apperrors.NewConflict("user is already a member", map[string]any{"email": email})
			}
			return err
		}
		return s.billing.SyncSeats(ctx, repos, tenantID)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("member added",
		zap.String("tenant_id", tenantID),
		zap.String("user_id", user.ID),
		zap.String("role", string(role)),
		zap.Bool("new_account", tempPassword != ""))
	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.New(events.EventMemberInvited, tenantID, actorID, s.now().UTC(),
			events.MemberInvitedPayload{
				UserID:        user.ID,
				Email:         user.Email,
				TenantName:    tenant.Name,
				Role:          role,
				TemporaryPass: tempPassword,
			}))
	}
	return membership, nil
}

// ChangeRole updates a member's tenant role. The last OWNER cannot be demoted.
func (s *MembershipService) ChangeRole(ctx context.Context, tenantID, userID string, role domain.TenantRole) (*domain.Membership, error) {
	if !role.Valid() {
		return nil, apperrors.NewValidationError("invalid tenant role", map[string]any{"role": role})
	}
	var updated *domain.Membership
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		current, err := repos.Memberships.Get(ctx, userID, tenantID)
		if err != nil {
			return err
		}
		if current.Role == domain.TenantRoleOwner && role != domain.TenantRoleOwner {
			if err := ensureAnotherOwner(ctx, repos, tenantID, userID); err != nil {
				return err
			}
		}
		if err := repos.Memberships.UpdateRole(ctx, userID, tenantID, role); err != nil {
			return err
		}
		current.Role = role
		updated = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Remove deletes the membership. A user left without memberships is
// deactivated in the same transaction.
func (s *MembershipService) Remove(ctx context.Context, tenantID, userID string) error {
	deactivated := false
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		current, err := repos.Memberships.Get(ctx, userID, tenantID)
		if err != nil {
			return err
		}
		if current.Role == domain.TenantRoleOwner {
			if err := ensureAnotherOwner(ctx, repos, tenantID, userID); err != nil {
				return err
			}
		}
		if err := repos.Memberships.Delete(ctx, userID, tenantID); err != nil {
			return err
		}
		remaining, err := repos.Memberships.CountForUser(ctx, userID)
		if err != nil {
			return err
		}
		if remaining == 0 {
			if err := repos.Users.SetActive(ctx, userID, false); err != nil {
				return err
			}
			deactivated = true
		}
		return s.billing.SyncSeats(ctx, repos, tenantID)
	})
	if err != nil {
		return err
	}
	s.logger.Info("member removed",
		zap.String("tenant_id", tenantID),
		zap.String("user_id", userID),
		zap.Bool("user_deactivated", deactivated))
	return nil
}

func ensureAnotherOwner(ctx context.Context, repos repository.Repositories, tenantID, userID string) error {
	members, err := repos.Memberships.ListForTenant(ctx, tenantID)
	if err != nil {
		return err
	}
	for _, m := range members {
		if m.Role == domain.TenantRoleOwner && m.UserID != userID {
			return nil
		}
	}
	return apperrors.NewConflict("tenant must keep at least one owner", map[string]any{"tenant_id": tenantID})
}
