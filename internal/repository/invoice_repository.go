package repository

import (
	"context"

	"github.com/perdeci/curtain-order-service/internal/domain"
)

// InvoiceRepository persists billed periods.
type InvoiceRepository interface {
	// UpsertPaid records the invoice as paid, updating an existing row for the same period start.
	UpsertPaid(ctx context.Context, invoice *domain.Invoice) error
	ListByTenant(ctx context.Context, tenantID string) ([]domain.Invoice, error)
}

type invoiceRepository struct {
	db DBTX
}

// NewInvoiceRepository constructs repository.
func NewInvoiceRepository(db DBTX) InvoiceRepository {
	return &invoiceRepository{db: db}
}

func (r *invoiceRepository) UpsertPaid(ctx context.Context, inv *domain.Invoice) error {
	const query = `
        INSERT INTO invoices (tenant_id, plan, billing_interval, period_start, period_end, amount, currency, status, paid_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,'paid',$8)
        ON CONFLICT (tenant_id, period_start) DO UPDATE SET
            status='paid',
            paid_at=COALESCE(invoices.paid_at, EXCLUDED.paid_at),
            updated_at=NOW()
        RETURNING id, plan, billing_interval, period_end, amount, currency, status, paid_at, created_at, updated_at`
	return r.db.QueryRow(ctx, query,
		inv.TenantID,
		inv.Plan,
		inv.Interval,
		inv.PeriodStart,
		inv.PeriodEnd,
		inv.Amount,
		inv.Currency,
		inv.PaidAt,
	).Scan(
		&inv.ID,
		&inv.Plan,
		&inv.Interval,
		&inv.PeriodEnd,
		&inv.Amount,
		&inv.Currency,
		&inv.Status,
		&inv.PaidAt,
		&inv.CreatedAt,
		&inv.UpdatedAt,
	)
}

func (r *invoiceRepository) ListByTenant(ctx context.Context, tenantID string) ([]domain.Invoice, error) {
	const query = `
        SELECT id, tenant_id, plan, billing_interval, period_start, period_end, amount, currency, status,
               paid_at, created_at, updated_at
        FROM invoices WHERE tenant_id=$1 ORDER BY period_start DESC`
	rows, err := r.db.Query(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Invoice
	for rows.Next() {
		var inv domain.Invoice
		if err := rows.Scan(
			&inv.ID, &inv.TenantID, &inv.Plan, &inv.Interval, &inv.PeriodStart, &inv.PeriodEnd,
			&inv.Amount, &inv.Currency, &inv.Status, &inv.PaidAt, &inv.CreatedAt, &inv.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, inv)
	}
	return result, rows.Err()
}
