package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/perdeci/curtain-order-service/internal/domain"
)

// CategoryRepository persists fabric categories. Every call is tenant scoped.
type CategoryRepository interface {
	Create(ctx context.Context, category *domain.Category) error
	Update(ctx context.Context, category *domain.Category) error
	GetByID(ctx context.Context, tenantID, id string) (*domain.Category, error)
	List(ctx context.Context, tenantID string) ([]domain.Category, error)
	// Delete fails with a foreign key violation while variants remain.
	Delete(ctx context.Context, tenantID, id string) error
}

// VariantRepository persists priced fabric variants. Every call is tenant scoped.
type VariantRepository interface {
	Create(ctx context.Context, variant *domain.Variant) error
	Update(ctx context.Context, variant *domain.Variant) error
	GetByID(ctx context.Context, tenantID, id string) (*domain.Variant, error)
	ListByCategory(ctx context.Context, tenantID, categoryID string, activeOnly bool) ([]domain.Variant, error)
	// Delete fails with a foreign key violation while order items reference the variant.
	Delete(ctx context.Context, tenantID, id string) error
}

type categoryRepository struct {
	db DBTX
}

// NewCategoryRepository constructs repository.
func NewCategoryRepository(db DBTX) CategoryRepository {
	return &categoryRepository{db: db}
}

const categoryColumns = `id, tenant_id, name, description, created_at, updated_at`

func (r *categoryRepository) Create(ctx context.Context, c *domain.Category) error {
	const query = `
        INSERT INTO categories (tenant_id, name, description)
        VALUES ($1,$2,$3)
        RETURNING id, created_at, updated_at`
	return r.db.QueryRow(ctx, query, c.TenantID, c.Name, c.Description).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
}

func (r *categoryRepository) Update(ctx context.Context, c *domain.Category) error {
	const query = `
        UPDATE categories SET name=$1, description=$2, updated_at=NOW()
        WHERE id=$3 AND tenant_id=$4
        RETURNING updated_at`
	return r.db.QueryRow(ctx, query, c.Name, c.Description, c.ID, c.TenantID).Scan(&c.UpdatedAt)
}

func (r *categoryRepository) GetByID(ctx context.Context, tenantID, id string) (*domain.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE tenant_id=$1 AND id=$2`
	return scanCategory(r.db.QueryRow(ctx, query, tenantID, id))
}

func (r *categoryRepository) List(ctx context.Context, tenantID string) ([]domain.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE tenant_id=$1 ORDER BY name ASC`
	rows, err := r.db.Query(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *c)
	}
	return result, rows.Err()
}

func (r *categoryRepository) Delete(ctx context.Context, tenantID, id string) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM categories WHERE tenant_id=$1 AND id=$2`, tenantID, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanCategory(row pgx.Row) (*domain.Category, error) {
	var c domain.Category
	if err := row.Scan(&c.ID, &c.TenantID, &c.Name, &c.Description, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

type variantRepository struct {
	db DBTX
}

// NewVariantRepository constructs repository.
func NewVariantRepository(db DBTX) VariantRepository {
	return &variantRepository{db: db}
}

const variantColumns = `id, tenant_id, category_id, name, sku, unit_price, is_active, created_at, updated_at`

func (r *variantRepository) Create(ctx context.Context, v *domain.Variant) error {
	// the category must belong to the same tenant
	const query = `
        INSERT INTO variants (tenant_id, category_id, name, sku, unit_price, is_active)
        SELECT $1, c.id, $3, $4, $5, $6 FROM categories c WHERE c.id=$2 AND c.tenant_id=$1
        RETURNING id, created_at, updated_at`
	return r.db.QueryRow(ctx, query, v.TenantID, v.CategoryID, v.Name, v.SKU, v.UnitPrice, v.IsActive).
		Scan(&v.ID, &v.CreatedAt, &v.UpdatedAt)
}

func (r *variantRepository) Update(ctx context.Context, v *domain.Variant) error {
	const query = `
        UPDATE variants SET name=$1, sku=$2, unit_price=$3, is_active=$4, updated_at=NOW()
        WHERE id=$5 AND tenant_id=$6
        RETURNING category_id, updated_at`
	return r.db.QueryRow(ctx, query, v.Name, v.SKU, v.UnitPrice, v.IsActive, v.ID, v.TenantID).
		Scan(&v.CategoryID, &v.UpdatedAt)
}

func (r *variantRepository) GetByID(ctx context.Context, tenantID, id string) (*domain.Variant, error) {
	query := `SELECT ` + variantColumns + ` FROM variants WHERE tenant_id=$1 AND id=$2`
	return scanVariant(r.db.QueryRow(ctx, query, tenantID, id))
}

func (r *variantRepository) ListByCategory(ctx context.Context, tenantID, categoryID string, activeOnly bool) ([]domain.Variant, error) {
	query := `SELECT ` + variantColumns + ` FROM variants
        WHERE tenant_id=$1 AND category_id=$2 AND (is_active OR NOT $3)
        ORDER BY name ASC`
	rows, err := r.db.Query(ctx, query, tenantID, categoryID, activeOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Variant
	for rows.Next() {
		v, err := scanVariant(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *v)
	}
	return result, rows.Err()
}

func (r *variantRepository) Delete(ctx context.Context, tenantID, id string) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM variants WHERE tenant_id=$1 AND id=$2`, tenantID, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanVariant(row pgx.Row) (*domain.Variant, error) {
	var v domain.Variant
	if err := row.Scan(&v.ID, &v.TenantID, &v.CategoryID, &v.Name, &v.SKU, &v.UnitPrice, &v.IsActive, &v.CreatedAt, &v.UpdatedAt); err != nil {
		return nil, err
	}
	return &v, nil
}
