package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/perdeci/curtain-order-service/internal/domain"
)

// CustomerFilter narrows customer listings.
type CustomerFilter struct {
	SearchTerm *string
	BranchID   *string
	Limit      int
	Offset     int
}

// CustomerRepository persists tenant customers. Every call is tenant scoped.
type CustomerRepository interface {
	Create(ctx context.Context, customer *domain.Customer) error
	Update(ctx context.Context, customer *domain.Customer) error
	GetByID(ctx context.Context, tenantID, id string) (*domain.Customer, error)
	List(ctx context.Context, tenantID string, filter CustomerFilter) ([]domain.Customer, error)
	Delete(ctx context.Context, tenantID, id string) error
}

type customerRepository struct {
	db DBTX
}

// NewCustomerRepository constructs repository.
func NewCustomerRepository(db DBTX) CustomerRepository {
	return &customerRepository{db: db}
}

const customerColumns = `id, tenant_id, branch_id, name, phone, email, address, notes, created_at, updated_at`

func (r *customerRepository) Create(ctx context.Context, c *domain.Customer) error {
	const query = `
        INSERT INTO customers (tenant_id, branch_id, name, phone, email, address, notes)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at, updated_at`
	return r.db.QueryRow(ctx, query,
		c.TenantID, c.BranchID, c.Name, c.Phone, c.Email, c.Address, c.Notes,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
}

func (r *customerRepository) Update(ctx context.Context, c *domain.Customer) error {
	const query = `
        UPDATE customers SET branch_id=$1, name=$2, phone=$3, email=$4, address=$5, notes=$6, updated_at=NOW()
        WHERE id=$7 AND tenant_id=$8`
	cmd, err := r.db.Exec(ctx, query, c.BranchID, c.Name, c.Phone, c.Email, c.Address, c.Notes, c.ID, c.TenantID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *customerRepository) GetByID(ctx context.Context, tenantID, id string) (*domain.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE tenant_id=$1 AND id=$2`
	return scanCustomer(r.db.QueryRow(ctx, query, tenantID, id))
}

func (r *customerRepository) List(ctx context.Context, tenantID string, filter CustomerFilter) ([]domain.Customer, error) {
	clauses := []string{"tenant_id=$1"}
	args := []any{tenantID}

	if filter.BranchID != nil {
		args = append(args, *filter.BranchID)
		clauses = append(clauses, fmt.Sprintf("branch_id=$%d", len(args)))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SearchTerm)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(LOWER(name) LIKE %s OR phone LIKE %s OR LOWER(email) LIKE %s)", placeholder, placeholder, placeholder))
	}

	args = append(args, normalizeLimit(filter.Limit), filter.Offset)
	query := fmt.Sprintf(`SELECT %s FROM customers WHERE %s ORDER BY name ASC LIMIT $%d OFFSET $%d`,
		customerColumns, strings.Join(clauses, " AND "), len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *c)
	}
	return result, rows.Err()
}

func (r *customerRepository) Delete(ctx context.Context, tenantID, id string) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM customers WHERE tenant_id=$1 AND id=$2`, tenantID, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanCustomer(row pgx.Row) (*domain.Customer, error) {
	var c domain.Customer
	if err := row.Scan(&c.ID, &c.TenantID, &c.BranchID, &c.Name, &c.Phone, &c.Email, &c.Address, &c.Notes, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}
