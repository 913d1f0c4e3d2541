package access

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/perdeci/curtain-order-service/internal/billing"
	"github.com/perdeci/curtain-order-service/internal/domain"
	"github.com/perdeci/curtain-order-service/internal/repository"
	apperrors "github.com/perdeci/curtain-order-service/pkg/util/errorutil"
)

// DefaultTenantName names the tenant created on first super-admin access.
const DefaultTenantName = "Workspace"

// Resolver maps a principal to the tenant its request operates on.
type Resolver struct {
	store  repository.Provider
	trial  time.Duration
	logger *zap.Logger
	now    func() time.Time
}

// NewResolver constructs a resolver. trial is the length of the FREE trial
// attached to auto-provisioned tenants.
func NewResolver(store repository.Provider, trial time.Duration, logger *zap.Logger, now func() time.Time) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	if now == nil {
		now = time.Now
	}
	return &Resolver{store: store, trial: trial, logger: logger, now: now}
}

// ResolveTenantID returns the selected tenant, else the oldest membership's
// tenant. Super-admins without a selection are attached as OWNER to the
// oldest tenant, which is provisioned if none exists.
func (r *Resolver) ResolveTenantID(ctx context.Context, p *domain.Principal) (string, error) {
	if p == nil || p.UserID == "" {
		return "", apperrors.ErrUnauthenticated
	}
	if p.HasTenant() {
		return p.TenantID, nil
	}

	if !p.IsSuperAdmin() {
		membership, err := r.store.Repos().Memberships.OldestForUser(ctx, p.UserID)
		if err != nil {
			if apperrors.IsNotFound(err) {
				return "", apperrors.ErrNoTenant
			}
			return "", err
		}
		return membership.TenantID, nil
	}

	var tenantID string
	err := r.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if err := repos.Tenants.LockProvisioning(ctx); err != nil {
			return fmt.Errorf("lock provisioning: %w", err)
		}

		oldest, err := repos.Tenants.Oldest(ctx)
		switch {
		case err == nil:
			tenantID = oldest.ID
			created, err := repos.Memberships.CreateIfAbsent(ctx, &domain.Membership{
				UserID:   p.UserID,
				TenantID: oldest.ID,
				Role:     domain.TenantRoleOwner,
			})
			if err != nil {
				return err
			}
			if created {
				r.logger.Info("super admin attached to tenant",
					zap.String("user_id", p.UserID), zap.String("tenant_id", oldest.ID))
			}
			return nil
		case apperrors.IsNotFound(err):
			tenant, err := ProvisionTenant(ctx, repos, ProvisionParams{
				Name:    DefaultTenantName,
				OwnerID: p.UserID,
				Now:     r.now().UTC(),
				Trial:   r.trial,
			})
			if err != nil {
				return err
			}
			tenantID = tenant.ID
			r.logger.Info("first tenant provisioned",
				zap.String("user_id", p.UserID), zap.String("tenant_id", tenant.ID))
			return nil
		default:
			return err
		}
	})
	if err != nil {
		return "", err
	}
	return tenantID, nil
}

// ProvisionParams describes a tenant to create.
type ProvisionParams struct {
	Name    string
	OwnerID string
	Now     time.Time
	Trial   time.Duration
}

// ProvisionTenant creates a tenant with its OWNER membership, default branch
// and FREE trial. repos must be bound to a transaction for the result to be
// all-or-nothing.
func ProvisionTenant(ctx context.Context, repos repository.Repositories, params ProvisionParams) (*domain.Tenant, error) {
	owner := params.OwnerID
	tenant := &domain.Tenant{Name: params.Name, CreatedBy: &owner}
	if err := repos.Tenants.Create(ctx, tenant); err != nil {
		return nil, fmt.Errorf("create tenant: %w", err)
	}
	if err := repos.Memberships.Create(ctx, &domain.Membership{
		UserID:   params.OwnerID,
		TenantID: tenant.ID,
		Role:     domain.TenantRoleOwner,
	}); err != nil {
		return nil, fmt.Errorf("create owner membership: %w", err)
	}
	if err := repos.Tenants.CreateBranch(ctx, &domain.Branch{
		TenantID:  tenant.ID,
		Name:      domain.DefaultBranchName,
		IsDefault: true,
	}); err != nil {
		return nil, fmt.Errorf("create default branch: %w", err)
	}
	sub := billing.TrialSubscription(tenant.ID, params.Now, params.Trial)
	if err := repos.Subscriptions.Upsert(ctx, &sub); err != nil {
		return nil, fmt.Errorf("start trial: %w", err)
	}
	return tenant, nil
}
