package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/perdeci/curtain-order-service/internal/domain"
)

// SubscriptionRepository persists the per-tenant subscription row.
type SubscriptionRepository interface {
	// Upsert writes the subscription keyed by tenant id.
	Upsert(ctx context.Context, sub *domain.Subscription) error
	GetByTenant(ctx context.Context, tenantID string) (*domain.Subscription, error)
	// TransitionStatus moves status from one value to another; false when the row was not in from.
	TransitionStatus(ctx context.Context, tenantID string, from, to domain.SubscriptionStatus) (bool, error)
	SetSeats(ctx context.Context, tenantID string, seats int) error
	// ExpireTrials cancels every FREE trial that ended before now.
	ExpireTrials(ctx context.Context, now time.Time) ([]domain.StatusChange, error)
	// MarkPastDue flags paid subscriptions whose period ended before now.
	MarkPastDue(ctx context.Context, now time.Time) ([]domain.StatusChange, error)
}

type subscriptionRepository struct {
	db DBTX
}

// NewSubscriptionRepository constructs repository.
func NewSubscriptionRepository(db DBTX) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

func (r *subscriptionRepository) Upsert(ctx context.Context, sub *domain.Subscription) error {
	const query = `
        INSERT INTO subscriptions (tenant_id, plan, status, current_period_start, current_period_end,
            trial_ends_at, cancel_at_period_end, grace_until, seats)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        ON CONFLICT (tenant_id) DO UPDATE SET
            plan=EXCLUDED.plan,
            status=EXCLUDED.status,
            current_period_start=EXCLUDED.current_period_start,
            current_period_end=EXCLUDED.current_period_end,
            trial_ends_at=EXCLUDED.trial_ends_at,
            cancel_at_period_end=EXCLUDED.cancel_at_period_end,
            grace_until=EXCLUDED.grace_until,
            seats=EXCLUDED.seats,
            updated_at=NOW()
        RETURNING id, created_at, updated_at`
	return r.db.QueryRow(ctx, query,
		sub.TenantID,
		sub.Plan,
		sub.Status,
		sub.CurrentPeriodStart,
		sub.CurrentPeriodEnd,
		sub.TrialEndsAt,
		sub.CancelAtPeriodEnd,
		sub.GraceUntil,
		sub.Seats,
	).Scan(&sub.ID, &sub.CreatedAt, &sub.UpdatedAt)
}

func (r *subscriptionRepository) GetByTenant(ctx context.Context, tenantID string) (*domain.Subscription, error) {
	const query = `
        SELECT id, tenant_id, plan, status, current_period_start, current_period_end, trial_ends_at,
               cancel_at_period_end, grace_until, seats, created_at, updated_at
        FROM subscriptions WHERE tenant_id=$1`
	var sub domain.Subscription
	if err := r.db.QueryRow(ctx, query, tenantID).Scan(
		&sub.ID,
		&sub.TenantID,
		&sub.Plan,
		&sub.Status,
		&sub.CurrentPeriodStart,
		&sub.CurrentPeriodEnd,
		&sub.TrialEndsAt,
		&sub.CancelAtPeriodEnd,
		&sub.GraceUntil,
		&sub.Seats,
		&sub.CreatedAt,
		&sub.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *subscriptionRepository) TransitionStatus(ctx context.Context, tenantID string, from, to domain.SubscriptionStatus) (bool, error) {
	cmd, err := r.db.Exec(ctx,
		`UPDATE subscriptions SET status=$1, updated_at=NOW() WHERE tenant_id=$2 AND status=$3`,
		to, tenantID, from)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *subscriptionRepository) SetSeats(ctx context.Context, tenantID string, seats int) error {
	cmd, err := r.db.Exec(ctx, `UPDATE subscriptions SET seats=$1, updated_at=NOW() WHERE tenant_id=$2`, seats, tenantID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *subscriptionRepository) ExpireTrials(ctx context.Context, now time.Time) ([]domain.StatusChange, error) {
	const query = `
        UPDATE subscriptions SET status=$1, updated_at=NOW()
        WHERE plan=$2 AND status=$3 AND trial_ends_at < $4
        RETURNING tenant_id, plan`
	rows, err := r.db.Query(ctx, query, domain.StatusCanceled, domain.PlanFree, domain.StatusTrialing, now)
	if err != nil {
		return nil, err
	}
	return collectChanges(rows, func(c *domain.StatusChange) []any {
		c.From, c.To = domain.StatusTrialing, domain.StatusCanceled
		return []any{&c.TenantID, &c.Plan}
	})
}

func (r *subscriptionRepository) MarkPastDue(ctx context.Context, now time.Time) ([]domain.StatusChange, error) {
	const query = `
        WITH due AS (
            SELECT tenant_id, status FROM subscriptions
            WHERE plan<>$2 AND status IN ($3, $4) AND current_period_end < $5
              AND (grace_until IS NULL OR grace_until <= $5)
            FOR UPDATE
        )
        UPDATE subscriptions s SET status=$1, updated_at=NOW()
        FROM due WHERE s.tenant_id = due.tenant_id
        RETURNING s.tenant_id, s.plan, due.status`
	rows, err := r.db.Query(ctx, query, domain.StatusPastDue, domain.PlanFree, domain.StatusActive, domain.StatusTrialing, now)
	if err != nil {
		return nil, err
	}
	return collectChanges(rows, func(c *domain.StatusChange) []any {
		c.To = domain.StatusPastDue
		return []any{&c.TenantID, &c.Plan, &c.From}
	})
}

func collectChanges(rows pgx.Rows, dest func(*domain.StatusChange) []any) ([]domain.StatusChange, error) {
	defer rows.Close()
	var out []domain.StatusChange
	for rows.Next() {
		var c domain.StatusChange
		if err := rows.Scan(dest(&c)...); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
