package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/perdeci/curtain-order-service/internal/auth"
	"github.com/perdeci/curtain-order-service/internal/domain"
	"github.com/perdeci/curtain-order-service/internal/events"
	"github.com/perdeci/curtain-order-service/internal/observability"
	"github.com/perdeci/curtain-order-service/internal/repository"
	apperrors "github.com/perdeci/curtain-order-service/pkg/util/errorutil"
)

// ImpersonationGrant is a freshly minted impersonation token.
type ImpersonationGrant struct {
	Token        string
	ExpiresAt    time.Time
	TargetUserID string
	Scope        domain.ImpersonationScope
}

// ImpersonationService issues, redeems and reverts impersonation sessions.
type ImpersonationService struct {
	store      repository.Provider
	tokens     *auth.TokenManager
	grants     auth.GrantStore
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
	now        func() time.Time
}

// ImpersonationDependencies bundles collaborators.
type ImpersonationDependencies struct {
	Store      repository.Provider
	Tokens     *auth.TokenManager
	Grants     auth.GrantStore
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Metrics    *observability.Metrics
	Clock      func() time.Time
}

// NewImpersonationService constructs the service.
func NewImpersonationService(deps ImpersonationDependencies) *ImpersonationService {
	s := &ImpersonationService{
		store:      deps.Store,
		tokens:     deps.Tokens,
		grants:     deps.Grants,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		metrics:    deps.Metrics,
		now:        deps.Clock,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.grants == nil {
		s.grants = auth.NewMemoryGrantStore()
	}
	return s
}

// Issue mints a five minute token letting actor act as targetUserID and
// opens an audit entry.
func (s *ImpersonationService) Issue(ctx context.Context, actor *domain.Principal, targetUserID string, scope domain.ImpersonationScope) (*ImpersonationGrant, error) {
	if actor == nil || actor.UserID == "" {
		return nil, apperrors.ErrUnauthenticated
	}
	if actor.Role != domain.RoleAdmin && actor.Role != domain.RoleSuperAdmin {
		return nil, apperrors.NewForbidden("admin role required to impersonate")
	}
	if scope == "" {
		scope = domain.ScopeTenant
	}
	if !scope.Valid() {
		return nil, apperrors.NewValidationError("invalid impersonation scope", map[string]any{"scope": scope})
	}
	if targetUserID == actor.UserID {
		return nil, apperrors.NewValidationError("cannot impersonate yourself", nil)
	}

	repos := s.store.Repos()
	target, err := repos.Users.GetByID(ctx, targetUserID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NewNotFound("user", map[string]any{"user_id": targetUserID})
		}
		return nil, err
	}
	if !target.IsActive {
		return nil, apperrors.ErrUserInactive
	}
	if target.Role.Outranks(actor.Role) {
		return nil, apperrors.NewForbidden("cannot impersonate a user with a higher role")
	}

	token, _, exp, err := s.tokens.GenerateImpersonationToken(target.ID, actor.UserID, scope)
	if err != nil {
		return nil, err
	}
	if err := repos.Impersonations.Create(ctx, &domain.ImpersonationLog{
		TargetUserID:   target.ID,
		ImpersonatorID: actor.UserID,
		Scope:          scope,
		StartedAt:      s.now().UTC(),
	}); err != nil {
		return nil, err
	}

	s.metrics.RecordImpersonation(string(scope))
	s.logger.Info("impersonation issued",
		zap.String("impersonator_id", actor.UserID),
		zap.String("target_user_id", target.ID),
		zap.String("scope", string(scope)),
		zap.Time("expires_at", exp))
	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.New(events.EventImpersonationStarted, actor.TenantID, actor.UserID, s.now().UTC(),
			events.ImpersonationStartedPayload{TargetUserID: target.ID, Scope: scope, ExpiresAt: exp}))
	}
	return &ImpersonationGrant{Token: token, ExpiresAt: exp, TargetUserID: target.ID, Scope: scope}, nil
}

// Exchange redeems an impersonation token once for an access session of the
// target that remembers the impersonator.
func (s *ImpersonationService) Exchange(ctx context.Context, rawToken string) (*Session, error) {
	claims, err := s.tokens.ParseToken(rawToken, domain.TokenTypeImpersonation)
	if err != nil {
		return nil, apperrors.NewUnauthenticated("invalid impersonation token")
	}
	first, err := s.grants.ConsumeOnce(ctx, claims.ID, claims.ExpiresAt.Time.Sub(s.now()))
	if err != nil {
		return nil, err
	}
	if !first {
		return nil, apperrors.NewUnauthenticated("impersonation token already used")
	}

	repos := s.store.Repos()
	admin, err := repos.Users.GetByID(ctx, claims.ImpersonatorID)
	if err != nil || !admin.IsActive || !admin.CanImpersonate() {
		if err != nil && !apperrors.IsNotFound(err) {
			return nil, err
		}
		return nil, apperrors.ErrAdminNotActive
	}
	target, err := repos.Users.GetByID(ctx, claims.Subject)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !target.IsActive {
		return nil, apperrors.ErrUserInactive
	}
	// roles may have changed since issuance
	if target.Role.Outranks(admin.Role) {
		return nil, apperrors.NewForbidden("cannot impersonate a user with a higher role")
	}

	principal := domain.Principal{
		UserID:         target.ID,
		Email:          target.Email,
		Role:           target.Role,
		ImpersonatorID: admin.ID,
		Scope:          claims.Scope,
	}
	if claims.Scope == domain.ScopeTenant {
		membership, err := repos.Memberships.OldestForUser(ctx, target.ID)
		switch {
		case err == nil:
			principal.TenantID = membership.TenantID
			principal.TenantRole = membership.Role
		case !apperrors.IsNotFound(err):
			return nil, err
		}
	}

	token, exp, err := s.tokens.GenerateAccessToken(principal)
	if err != nil {
		return nil, err
	}
	return &Session{User: target, Principal: principal, Token: token, ExpiresAt: exp}, nil
}

// Revert ends an impersonated session and returns a fresh session for the
// original admin.
func (s *ImpersonationService) Revert(ctx context.Context, session *domain.Principal) (*Session, error) {
	if session == nil || session.UserID == "" {
		return nil, apperrors.ErrUnauthenticated
	}
	if !session.IsImpersonating() {
		return nil, apperrors.ErrNotImpersonating
	}

	repos := s.store.Repos()
	admin, err := repos.Users.GetByID(ctx, session.ImpersonatorID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.ErrAdminNotActive
		}
		return nil, err
	}
	if !admin.IsActive {
		return nil, apperrors.ErrAdminNotActive
	}

	closed, err := repos.Impersonations.CloseOpen(ctx, session.UserID, admin.ID, s.now().UTC())
	if err != nil {
		return nil, err
	}

	principal := domain.Principal{UserID: admin.ID, Email: admin.Email, Role: admin.Role}
	membership, err := repos.Memberships.OldestForUser(ctx, admin.ID)
	switch {
	case err == nil:
		principal.TenantID = membership.TenantID
		principal.TenantRole = membership.Role
	case !apperrors.IsNotFound(err):
		return nil, err
	}

	token, exp, err := s.tokens.GenerateAccessToken(principal)
	if err != nil {
		return nil, err
	}
	s.logger.Info("impersonation reverted",
		zap.String("impersonator_id", admin.ID),
		zap.String("target_user_id", session.UserID),
		zap.Int64("logs_closed", closed))
	return &Session{User: admin, Principal: principal, Token: token, ExpiresAt: exp}, nil
}

// Recent lists the latest impersonation audit entries.
func (s *ImpersonationService) Recent(ctx context.Context, limit int) ([]domain.ImpersonationLog, error) {
	return s.store.Repos().Impersonations.ListRecent(ctx, limit)
}
