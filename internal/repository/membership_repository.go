package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/perdeci/curtain-order-service/internal/domain"
)

// MembershipRepository manages user-tenant bindings.
type MembershipRepository interface {
	Create(ctx context.Context, membership *domain.Membership) error
	// CreateIfAbsent inserts the membership unless (user, tenant) already exists.
	CreateIfAbsent(ctx context.Context, membership *domain.Membership) (bool, error)
	Get(ctx context.Context, userID, tenantID string) (*domain.Membership, error)
	OldestForUser(ctx context.Context, userID string) (*domain.Membership, error)
	ListForUser(ctx context.Context, userID string) ([]domain.Membership, error)
	ListForTenant(ctx context.Context, tenantID string) ([]domain.MemberView, error)
	UpdateRole(ctx context.Context, userID, tenantID string, role domain.TenantRole) error
	Delete(ctx context.Context, userID, tenantID string) error
	CountForUser(ctx context.Context, userID string) (int, error)
	CountForTenant(ctx context.Context, tenantID string) (int, error)
}

type membershipRepository struct {
	db DBTX
}

// NewMembershipRepository constructs repository.
func NewMembershipRepository(db DBTX) MembershipRepository {
	return &membershipRepository{db: db}
}

const membershipColumns = `id, user_id, tenant_id, role, created_at`

func (r *membershipRepository) Create(ctx context.Context, m *domain.Membership) error {
	const query = `
        INSERT INTO memberships (user_id, tenant_id, role)
        VALUES ($1, $2, $3)
        RETURNING id, created_at`
	return r.db.QueryRow(ctx, query, m.UserID, m.TenantID, m.Role).Scan(&m.ID, &m.CreatedAt)
}

func (r *membershipRepository) CreateIfAbsent(ctx context.Context, m *domain.Membership) (bool, error) {
	const query = `
        INSERT INTO memberships (user_id, tenant_id, role)
        VALUES ($1, $2, $3)
        ON CONFLICT (user_id, tenant_id) DO NOTHING
        RETURNING id, created_at`
	err := r.db.QueryRow(ctx, query, m.UserID, m.TenantID, m.Role).Scan(&m.ID, &m.CreatedAt)
	if err == pgx.ErrNoRows {
		existing, getErr := r.Get(ctx, m.UserID, m.TenantID)
		if getErr != nil {
			return false, getErr
		}
		*m = *existing
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *membershipRepository) Get(ctx context.Context, userID, tenantID string) (*domain.Membership, error) {
	query := `SELECT ` + membershipColumns + ` FROM memberships WHERE user_id=$1 AND tenant_id=$2`
	return scanMembership(r.db.QueryRow(ctx, query, userID, tenantID))
}

func (r *membershipRepository) OldestForUser(ctx context.Context, userID string) (*domain.Membership, error) {
	query := `SELECT ` + membershipColumns + ` FROM memberships WHERE user_id=$1 ORDER BY created_at ASC, id ASC LIMIT 1`
	return scanMembership(r.db.QueryRow(ctx, query, userID))
}

func (r *membershipRepository) ListForUser(ctx context.Context, userID string) ([]domain.Membership, error) {
	query := `SELECT ` + membershipColumns + ` FROM memberships WHERE user_id=$1 ORDER BY created_at ASC`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Membership
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *m)
	}
	return result, rows.Err()
}

func (r *membershipRepository) ListForTenant(ctx context.Context, tenantID string) ([]domain.MemberView, error) {
	const query = `
        SELECT m.id, m.user_id, m.tenant_id, m.role, m.created_at, u.email, u.name, u.is_active
        FROM memberships m
        JOIN users u ON u.id = m.user_id
        WHERE m.tenant_id=$1
        ORDER BY m.created_at ASC`
	rows, err := r.db.Query(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.MemberView
	for rows.Next() {
		var v domain.MemberView
		if err := rows.Scan(&v.ID, &v.UserID, &v.TenantID, &v.Role, &v.CreatedAt, &v.Email, &v.Name, &v.IsActive); err != nil {
			return nil, err
		}
		result = append(result, v)
	}
	return result, rows.Err()
}

func (r *membershipRepository) UpdateRole(ctx context.Context, userID, tenantID string, role domain.TenantRole) error {
	cmd, err := r.db.Exec(ctx, `UPDATE memberships SET role=$1 WHERE user_id=$2 AND tenant_id=$3`, role, userID, tenantID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *membershipRepository) Delete(ctx context.Context, userID, tenantID string) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM memberships WHERE user_id=$1 AND tenant_id=$2`, userID, tenantID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *membershipRepository) CountForUser(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM memberships WHERE user_id=$1`, userID).Scan(&count)
	return count, err
}

func (r *membershipRepository) CountForTenant(ctx context.Context, tenantID string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM memberships WHERE tenant_id=$1`, tenantID).Scan(&count)
	return count, err
}

func scanMembership(row pgx.Row) (*domain.Membership, error) {
	var m domain.Membership
	if err := row.Scan(&m.ID, &m.UserID, &m.TenantID, &m.Role, &m.CreatedAt); err != nil {
		return nil, err
	}
	return &m, nil
}
