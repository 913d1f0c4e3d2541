package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/perdeci/curtain-order-service/internal/access"
	"github.com/perdeci/curtain-order-service/internal/domain"
	"github.com/perdeci/curtain-order-service/internal/repository"
	apperrors "github.com/perdeci/curtain-order-service/pkg/util/errorutil"
)

// TenantMembership pairs a tenant with the caller's role in it.
type TenantMembership struct {
	Tenant domain.Tenant
	Role   domain.TenantRole
}

// TenantService lists and creates tenants.
type TenantService struct {
	store  repository.Provider
	trial  time.Duration
	logger *zap.Logger
	now    func() time.Time
}

// NewTenantService constructs the service.
func NewTenantService(store repository.Provider, trial time.Duration, logger *zap.Logger, now func() time.Time) *TenantService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if now == nil {
		now = time.Now
	}
	return &TenantService{store: store, trial: trial, logger: logger, now: now}
}

// ListMine returns the tenants the user belongs to, oldest membership first.
func (s *TenantService) ListMine(ctx context.Context, userID string) ([]TenantMembership, error) {
	repos := s.store.Repos()
	memberships, err := repos.Memberships.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	result := make([]TenantMembership, 0, len(memberships))
	for _, m := range memberships {
		tenant, err := repos.Tenants.GetByID(ctx, m.TenantID)
		if err != nil {
			return nil, err
		}
		result = append(result, TenantMembership{Tenant: *tenant, Role: m.Role})
	}
	return result, nil
}

// Create provisions a tenant owned by ownerID.
func (s *TenantService) Create(ctx context.Context, ownerID, name string) (*domain.Tenant, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewValidationError("tenant name is required", nil)
	}
	var tenant *domain.Tenant
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		created, err := access.ProvisionTenant(ctx, repos, access.ProvisionParams{
			Name:    name,
			OwnerID: ownerID,
			Now:     s.now().UTC(),
			Trial:   s.trial,
		})
		tenant = created
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("tenant created", zap.String("tenant_id", tenant.ID), zap.String("owner_id", ownerID))
	return tenant, nil
}

// Overview lists every tenant with its subscription for platform admins.
func (s *TenantService) Overview(ctx context.Context, limit, offset int) ([]domain.TenantOverview, error) {
	return s.store.Repos().Tenants.ListOverview(ctx, limit, offset)
}
