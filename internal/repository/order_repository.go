package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/perdeci/curtain-order-service/internal/domain"
)

// OrderFilter narrows order listings.
type OrderFilter struct {
	CustomerID *string
	DealerID   *string
	Statuses   []domain.OrderStatus
	Limit      int
	Offset     int
}

// OrderRepository persists orders and their items. Every call is tenant scoped.
type OrderRepository interface {
	// Create inserts the order and its items; callers wrap it in a transaction.
	Create(ctx context.Context, order *domain.Order) error
	GetByID(ctx context.Context, tenantID, id string) (*domain.Order, error)
	List(ctx context.Context, tenantID string, filter OrderFilter) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, tenantID, id string, status domain.OrderStatus) error
}

type orderRepository struct {
	db DBTX
}

// NewOrderRepository instantiates repository.
func NewOrderRepository(db DBTX) OrderRepository {
	return &orderRepository{db: db}
}

const orderColumns = `id, tenant_id, customer_id, branch_id, dealer_id, number, status, discount, total, note, created_by, created_at, updated_at`

func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	const query = `
        INSERT INTO orders (tenant_id, customer_id, branch_id, dealer_id, number, status, discount, total, note, created_by)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        RETURNING id, created_at, updated_at`
	if err := r.db.QueryRow(ctx, query,
		order.TenantID,
		order.CustomerID,
		order.BranchID,
		order.DealerID,
		order.Number,
		order.Status,
		order.Discount,
		order.Total,
		order.Note,
		order.CreatedBy,
	).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt); err != nil {
		return err
	}

	const itemQuery = `
        INSERT INTO order_items (order_id, variant_id, description, fabric, width_cm, height_cm, quantity, unit_price)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id`
	for i := range order.Items {
		item := &order.Items[i]
		item.OrderID = order.ID
		if err := r.db.QueryRow(ctx, itemQuery,
			item.OrderID,
			item.VariantID,
			item.Description,
			item.Fabric,
			item.WidthCm,
			item.HeightCm,
			item.Quantity,
			item.UnitPrice,
		).Scan(&item.ID); err != nil {
			return err
		}
	}
	return nil
}

func (r *orderRepository) GetByID(ctx context.Context, tenantID, id string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE tenant_id=$1 AND id=$2`
	order, err := scanOrder(r.db.QueryRow(ctx, query, tenantID, id))
	if err != nil {
		return nil, err
	}
	items, err := r.items(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	order.Items = items
	return order, nil
}

func (r *orderRepository) List(ctx context.Context, tenantID string, filter OrderFilter) ([]domain.Order, error) {
	clauses := []string{"tenant_id=$1"}
	args := []any{tenantID}

	if filter.CustomerID != nil {
		args = append(args, *filter.CustomerID)
		clauses = append(clauses, fmt.Sprintf("customer_id=$%d", len(args)))
	}
	if filter.DealerID != nil {
		args = append(args, *filter.DealerID)
		clauses = append(clauses, fmt.Sprintf("dealer_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}

	args = append(args, normalizeLimit(filter.Limit), filter.Offset)
	query := fmt.Sprintf(`SELECT %s FROM orders WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		orderColumns, strings.Join(clauses, " AND "), len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *order)
	}
	return result, rows.Err()
}

func (r *orderRepository) UpdateStatus(ctx context.Context, tenantID, id string, status domain.OrderStatus) error {
	cmd, err := r.db.Exec(ctx,
		`UPDATE orders SET status=$1, updated_at=NOW() WHERE tenant_id=$2 AND id=$3`,
		status, tenantID, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *orderRepository) items(ctx context.Context, orderID string) ([]domain.OrderItem, error) {
	const query = `
        SELECT id, order_id, variant_id, description, fabric, width_cm, height_cm, quantity, unit_price
        FROM order_items WHERE order_id=$1 ORDER BY id`
	rows, err := r.db.Query(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.OrderItem
	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.VariantID, &item.Description, &item.Fabric, &item.WidthCm, &item.HeightCm, &item.Quantity, &item.UnitPrice); err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	return result, rows.Err()
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var o domain.Order
	if err := row.Scan(
		&o.ID,
		&o.TenantID,
		&o.CustomerID,
		&o.BranchID,
		&o.DealerID,
		&o.Number,
		&o.Status,
		&o.Discount,
		&o.Total,
		&o.Note,
		&o.CreatedBy,
		&o.CreatedAt,
		&o.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &o, nil
}
