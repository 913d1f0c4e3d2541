package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/perdeci/curtain-order-service/internal/access"
	"github.com/perdeci/curtain-order-service/internal/auth"
	"github.com/perdeci/curtain-order-service/internal/config"
	"github.com/perdeci/curtain-order-service/internal/domain"
	"github.com/perdeci/curtain-order-service/internal/events"
	"github.com/perdeci/curtain-order-service/internal/repository"
	apperrors "github.com/perdeci/curtain-order-service/pkg/util/errorutil"
)

// Session is an issued access token with the principal it encodes.
type Session struct {
	User      *domain.User
	Principal domain.Principal
	Token     string
	ExpiresAt time.Time
}

// RegisterInput describes a self-service signup.
type RegisterInput struct {
	Name       string
	Email      string
	Password   string
	TenantName string
}

// AuthService coordinates registration, login, tenant selection and password flows.
type AuthService struct {
	store      repository.Provider
	tokens     *auth.TokenManager
	dispatcher events.Dispatcher
	logger     *zap.Logger
	bcryptCost int
	resetTTL   time.Duration
	trial      time.Duration
	now        func() time.Time
}

// AuthDependencies encapsulates collaborators for the auth service.
type AuthDependencies struct {
	Store      repository.Provider
	Tokens     *auth.TokenManager
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Clock      func() time.Time
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	s := &AuthService{
		store:      deps.Store,
		tokens:     deps.Tokens,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		bcryptCost: cfg.Auth.BcryptCost,
		resetTTL:   time.Duration(cfg.Auth.PasswordResetTTLMinutes) * time.Minute,
		trial:      cfg.Billing.TrialPeriod(),
		now:        deps.Clock,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.resetTTL <= 0 {
		s.resetTTL = 30 * time.Minute
	}
	return s
}

// Register creates the user together with their first tenant and returns a
// session scoped to it.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*Session, error) {
	email, err := normalizeEmail(input.Email)
	if err != nil {
		return nil, err
	}
	if err := auth.ValidatePassword(input.Password); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)
	tenantName := strings.TrimSpace(input.TenantName)
	if tenantName == "" {
		tenantName = name
	}
	if tenantName == "" {
		tenantName = access.DefaultTenantName
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleUser,
		IsActive:     true,
	}
	var tenant *domain.Tenant
	err = s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if err := repos.Users.Create(ctx, user); err != nil {
			if apperrors.IsUniqueViolation(err) {
				return apperrors.NewConflict("email already registered", map[string]any{"email": email})
			}
			return err
		}
		created, err := access.ProvisionTenant(ctx, repos, access.ProvisionParams{
			Name:    tenantName,
			OwnerID: user.ID,
			Now:     s.now().UTC(),
			Trial:   s.trial,
		})
		if err != nil {
			return err
		}
		tenant = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("user registered", zap.String("user_id", user.ID), zap.String("tenant_id", tenant.ID))
	return s.issue(user, domain.Principal{
		UserID:     user.ID,
		Email:      user.Email,
		Role:       user.Role,
		TenantID:   tenant.ID,
		TenantRole: domain.TenantRoleOwner,
	})
}

// Login authenticates by email and password. The session selects the
// user's oldest tenant when they have one.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	repos := s.store.Repos()
	user, err := repos.Users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NewUnauthenticated("invalid credentials")
		}
		return nil, err
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, apperrors.NewUnauthenticated("invalid credentials")
	}
	if !user.IsActive {
		return nil, apperrors.NewForbidden("account is deactivated")
	}

	principal := domain.Principal{UserID: user.ID, Email: user.Email, Role: user.Role}
	membership, err := repos.Memberships.OldestForUser(ctx, user.ID)
	switch {
	case err == nil:
		principal.TenantID = membership.TenantID
		principal.TenantRole = membership.Role
	case !apperrors.IsNotFound(err):
		return nil, err
	}
	return s.issue(user, principal)
}

// SelectTenant reissues the caller's token with tenantID selected.
// Super-admins may select tenants they are not a member of.
func (s *AuthService) SelectTenant(ctx context.Context, p *domain.Principal, tenantID string) (*Session, error) {
	if p == nil || p.UserID == "" {
		return nil, apperrors.ErrUnauthenticated
	}
	repos := s.store.Repos()
	if _, err := repos.Tenants.GetByID(ctx, tenantID); err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NewNotFound("tenant", map[string]any{"tenant_id": tenantID})
		}
		return nil, err
	}
	user, err := repos.Users.GetByID(ctx, p.UserID)
	if err != nil {
		return nil, err
	}

	next := *p
	next.TenantID = tenantID
	next.TenantRole = ""
	membership, err := repos.Memberships.Get(ctx, p.UserID, tenantID)
	switch {
	case err == nil:
		next.TenantRole = membership.Role
	case apperrors.IsNotFound(err):
		if !p.IsSuperAdmin() {
			return nil, apperrors.NewForbidden("not a member of this tenant")
		}
	default:
		return nil, err
	}
	return s.issue(user, next)
}

// ChangePassword verifies the current password before storing the new one.
func (s *AuthService) ChangePassword(ctx context.Context, p *domain.Principal, currentPassword, newPassword string) error {
	if p == nil || p.UserID == "" {
		return apperrors.ErrUnauthenticated
	}
	if err := auth.ValidatePassword(newPassword); err != nil {
		return err
	}
	users := s.store.Repos().Users
	user, err := users.GetByID(ctx, p.UserID)
	if err != nil {
		return err
	}
	if err := auth.ComparePassword(user.PasswordHash, currentPassword); err != nil {
		return apperrors.NewValidationError("current password is incorrect", nil)
	}
	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	user.MustChangePassword = false
	return users.Update(ctx, user)
}

// RequestPasswordReset issues a reset token and announces it. Unknown or
// inactive accounts get the same silent success.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	repos := s.store.Repos()
	user, err := repos.Users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil
		}
		return err
	}
	if !user.IsActive {
		return nil
	}

	secret, err := auth.RandomSecret(32)
	if err != nil {
		return err
	}
	token := &domain.PasswordResetToken{
		UserID:    user.ID,
		Token:     secret,
		ExpiresAt: s.now().Add(s.resetTTL),
	}
	if err := repos.PasswordResets.Create(ctx, token); err != nil {
		return err
	}

	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.New(events.EventPasswordResetRequested, "", user.ID, s.now().UTC(),
			events.PasswordResetRequestedPayload{
				UserID:    user.ID,
				Email:     user.Email,
				Token:     token.Token,
				ExpiresAt: token.ExpiresAt,
			}))
	}
	return nil
}

// ConfirmPasswordReset consumes the token, invalidates its siblings and
// stores the new password in one transaction.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, tokenStr, newPassword string) error {
	if err := auth.ValidatePassword(newPassword); err != nil {
		return err
	}
	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return err
	}

	invalid := apperrors.NewValidationError("reset token is invalid or expired", nil)
	return s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		token, err := repos.PasswordResets.GetByTokenForUpdate(ctx, tokenStr)
		if err != nil {
			if apperrors.IsNotFound(err) {
				return invalid
			}
			return err
		}
		now := s.now()
		if token.UsedAt != nil || now.After(token.ExpiresAt) {
			return invalid
		}

		user, err := repos.Users.GetByID(ctx, token.UserID)
		if err != nil {
			return err
		}
		if !user.IsActive {
			return invalid
		}

		if err := repos.PasswordResets.MarkUsed(ctx, token.ID, now); err != nil {
			return err
		}
		if _, err := repos.PasswordResets.InvalidateForUser(ctx, user.ID, now); err != nil {
			return err
		}
		user.PasswordHash = hash
		user.MustChangePassword = false
		return repos.Users.Update(ctx, user)
	})
}

// EnsureSuperAdmin creates or promotes the configured platform owner. It is
// a no-op when email is empty.
func (s *AuthService) EnsureSuperAdmin(ctx context.Context, email, password string) error {
	if strings.TrimSpace(email) == "" {
		return nil
	}
	users := s.store.Repos().Users
	user, err := users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if user.Role == domain.RoleSuperAdmin && user.IsActive {
			return nil
		}
		user.Role = domain.RoleSuperAdmin
		user.IsActive = true
		if err := users.Update(ctx, user); err != nil {
			return err
		}
		s.logger.Info("super admin promoted", zap.String("user_id", user.ID))
		return nil
	case !apperrors.IsNotFound(err):
		return err
	}

	if password == "" {
		return errors.New("super admin password is required to seed a new account")
	}
	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return err
	}
	user = &domain.User{
		Email:              strings.ToLower(strings.TrimSpace(email)),
		Name:               "Super Admin",
		PasswordHash:       hash,
		Role:               domain.RoleSuperAdmin,
		IsActive:           true,
		MustChangePassword: true,
	}
	if err := users.Create(ctx, user); err != nil {
		return err
	}
	s.logger.Info("super admin seeded", zap.String("user_id", user.ID))
	return nil
}

func (s *AuthService) issue(user *domain.User, p domain.Principal) (*Session, error) {
	token, exp, err := s.tokens.GenerateAccessToken(p)
	if err != nil {
		return nil, err
	}
	return &Session{User: user, Principal: p, Token: token, ExpiresAt: exp}, nil
}

func normalizeEmail(raw string) (string, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(raw))
	if err != nil || addr.Address != strings.TrimSpace(raw) {
		return "", apperrors.NewValidationError("invalid email address", map[string]any{"email": raw})
	}
	return strings.ToLower(addr.Address), nil
}


