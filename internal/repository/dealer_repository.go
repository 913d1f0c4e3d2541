package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/perdeci/curtain-order-service/internal/domain"
)

// DealerFilter narrows dealer listings.
type DealerFilter struct {
	SearchTerm *string
	ActiveOnly bool
	Limit      int
	Offset     int
}

// DealerRepository persists resellers. Every call is tenant scoped.
type DealerRepository interface {
	Create(ctx context.Context, dealer *domain.Dealer) error
	Update(ctx context.Context, dealer *domain.Dealer) error
	GetByID(ctx context.Context, tenantID, id string) (*domain.Dealer, error)
	List(ctx context.Context, tenantID string, filter DealerFilter) ([]domain.Dealer, error)
	// Delete fails with a foreign key violation while orders reference the dealer.
	Delete(ctx context.Context, tenantID, id string) error
}

type dealerRepository struct {
	db DBTX
}

// NewDealerRepository constructs repository.
func NewDealerRepository(db DBTX) DealerRepository {
	return &dealerRepository{db: db}
}

const dealerColumns = `id, tenant_id, name, phone, email, address, discount_percent, is_active, created_at, updated_at`

func (r *dealerRepository) Create(ctx context.Context, d *domain.Dealer) error {
	const query = `
        INSERT INTO dealers (tenant_id, name, phone, email, address, discount_percent, is_active)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at, updated_at`
	return r.db.QueryRow(ctx, query,
		d.TenantID, d.Name, d.Phone, d.Email, d.Address, d.DiscountPercent, d.IsActive,
	).Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)
}

func (r *dealerRepository) Update(ctx context.Context, d *domain.Dealer) error {
	const query = `
        UPDATE dealers SET name=$1, phone=$2, email=$3, address=$4, discount_percent=$5, is_active=$6, updated_at=NOW()
        WHERE id=$7 AND tenant_id=$8`
	cmd, err := r.db.Exec(ctx, query, d.Name, d.Phone, d.Email, d.Address, d.DiscountPercent, d.IsActive, d.ID, d.TenantID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *dealerRepository) GetByID(ctx context.Context, tenantID, id string) (*domain.Dealer, error) {
	query := `SELECT ` + dealerColumns + ` FROM dealers WHERE tenant_id=$1 AND id=$2`
	return scanDealer(r.db.QueryRow(ctx, query, tenantID, id))
}

func (r *dealerRepository) List(ctx context.Context, tenantID string, filter DealerFilter) ([]domain.Dealer, error) {
	clauses := []string{"tenant_id=$1"}
	args := []any{tenantID}

	if filter.ActiveOnly {
		clauses = append(clauses, "is_active")
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		args = append(args, "%"+strings.ToLower(strings.TrimSpace(*filter.SearchTerm))+"%")
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(LOWER(name) LIKE %s OR LOWER(email) LIKE %s)", placeholder, placeholder))
	}

	args = append(args, normalizeLimit(filter.Limit), filter.Offset)
	query := fmt.Sprintf(`SELECT %s FROM dealers WHERE %s ORDER BY name ASC LIMIT $%d OFFSET $%d`,
		dealerColumns, strings.Join(clauses, " AND "), len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Dealer
	for rows.Next() {
		d, err := scanDealer(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *d)
	}
	return result, rows.Err()
}

func (r *dealerRepository) Delete(ctx context.Context, tenantID, id string) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM dealers WHERE tenant_id=$1 AND id=$2`, tenantID, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanDealer(row pgx.Row) (*domain.Dealer, error) {
	var d domain.Dealer
	if err := row.Scan(&d.ID, &d.TenantID, &d.Name, &d.Phone, &d.Email, &d.Address, &d.DiscountPercent, &d.IsActive, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	return &d, nil
}
