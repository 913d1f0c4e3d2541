package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/perdeci/curtain-order-service/internal/domain"
)

// provisioningLockKey serializes first-tenant provisioning across replicas.
const provisioningLockKey int64 = 0x7465_6e61_6e74

// TenantRepository manages tenants and their branches.
type TenantRepository interface {
	Create(ctx context.Context, tenant *domain.Tenant) error
	GetByID(ctx context.Context, id string) (*domain.Tenant, error)
	Oldest(ctx context.Context) (*domain.Tenant, error)
	ListOverview(ctx context.Context, limit, offset int) ([]domain.TenantOverview, error)
	CreateBranch(ctx context.Context, branch *domain.Branch) error
	DefaultBranch(ctx context.Context, tenantID string) (*domain.Branch, error)
	LockProvisioning(ctx context.Context) error
}

type tenantRepository struct {
	db DBTX
}

// NewTenantRepository constructs repository.
func NewTenantRepository(db DBTX) TenantRepository {
	return &tenantRepository{db: db}
}

func (r *tenantRepository) Create(ctx context.Context, tenant *domain.Tenant) error {
	const query = `
        INSERT INTO tenants (name, created_by)
        VALUES ($1, $2)
        RETURNING id, created_at, updated_at`
	return r.db.QueryRow(ctx, query, tenant.Name, tenant.CreatedBy).
		Scan(&tenant.ID, &tenant.CreatedAt, &tenant.UpdatedAt)
}

func (r *tenantRepository) GetByID(ctx context.Context, id string) (*domain.Tenant, error) {
	const query = `SELECT id, name, created_by, created_at, updated_at FROM tenants WHERE id=$1`
	return scanTenant(r.db.QueryRow(ctx, query, id))
}

func (r *tenantRepository) Oldest(ctx context.Context) (*domain.Tenant, error) {
	const query = `SELECT id, name, created_by, created_at, updated_at FROM tenants ORDER BY created_at ASC, id ASC LIMIT 1`
	return scanTenant(r.db.QueryRow(ctx, query))
}

func (r *tenantRepository) ListOverview(ctx context.Context, limit, offset int) ([]domain.TenantOverview, error) {
	const query = `
        SELECT t.id, t.name, t.created_by, t.created_at, t.updated_at,
               (SELECT COUNT(*) FROM memberships m WHERE m.tenant_id = t.id),
               s.id, s.plan, s.status, s.current_period_start, s.current_period_end,
               s.trial_ends_at, s.cancel_at_period_end, s.grace_until, s.seats
        FROM tenants t
        LEFT JOIN subscriptions s ON s.tenant_id = t.id
        ORDER BY t.created_at ASC
        LIMIT $1 OFFSET $2`
	rows, err := r.db.Query(ctx, query, normalizeLimit(limit), offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TenantOverview
	for rows.Next() {
		var (
			item              domain.TenantOverview
			subID             *string
			plan              *domain.Plan
			status            *domain.SubscriptionStatus
			cancelAtPeriodEnd *bool
			seats             *int
			sub               domain.Subscription
		)
		if err := rows.Scan(
			&item.ID, &item.Name, &item.CreatedBy, &item.CreatedAt, &item.UpdatedAt,
			&item.MemberCount,
			&subID, &plan, &status, &sub.CurrentPeriodStart, &sub.CurrentPeriodEnd,
			&sub.TrialEndsAt, &cancelAtPeriodEnd, &sub.GraceUntil, &seats,
		); err != nil {
			return nil, err
		}
		if subID != nil {
			sub.ID = *subID
			sub.TenantID = item.ID
			sub.Plan = *plan
			sub.Status = *status
			sub.CancelAtPeriodEnd = cancelAtPeriodEnd != nil && *cancelAtPeriodEnd
			if seats != nil {
				sub.Seats = *seats
			}
			item.Subscription = &sub
		}
		result = append(result, item)
	}
	return result, rows.Err()
}

func (r *tenantRepository) CreateBranch(ctx context.Context, branch *domain.Branch) error {
	const query = `
        INSERT INTO branches (tenant_id, name, is_default)
        VALUES ($1, $2, $3)
        RETURNING id, created_at`
	return r.db.QueryRow(ctx, query, branch.TenantID, branch.Name, branch.IsDefault).
		Scan(&branch.ID, &branch.CreatedAt)
}

func (r *tenantRepository) DefaultBranch(ctx context.Context, tenantID string) (*domain.Branch, error) {
	const query = `
        SELECT id, tenant_id, name, is_default, created_at
        FROM branches WHERE tenant_id=$1 AND is_default=TRUE`
	var branch domain.Branch
	if err := r.db.QueryRow(ctx, query, tenantID).Scan(
		&branch.ID, &branch.TenantID, &branch.Name, &branch.IsDefault, &branch.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &branch, nil
}

// LockProvisioning takes a transaction-scoped advisory lock. Only meaningful inside WithinTx.
func (r *tenantRepository) LockProvisioning(ctx context.Context) error {
	_, err := r.db.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, provisioningLockKey)
	return err
}

func scanTenant(row pgx.Row) (*domain.Tenant, error) {
	var tenant domain.Tenant
	if err := row.Scan(&tenant.ID, &tenant.Name, &tenant.CreatedBy, &tenant.CreatedAt, &tenant.UpdatedAt); err != nil {
		return nil, err
	}
	return &tenant, nil
}
