package repository

import (
	"context"
	"time"

	"github.com/perdeci/curtain-order-service/internal/domain"
)

// ImpersonationRepository stores the impersonation audit trail.
type ImpersonationRepository interface {
	Create(ctx context.Context, log *domain.ImpersonationLog) error
	// CloseOpen sets ended_at on open entries for the (target, impersonator) pair.
	CloseOpen(ctx context.Context, targetUserID, impersonatorID string, endedAt time.Time) (int64, error)
	ListRecent(ctx context.Context, limit int) ([]domain.ImpersonationLog, error)
}

type impersonationRepository struct {
	db DBTX
}

// NewImpersonationRepository constructs repository.
func NewImpersonationRepository(db DBTX) ImpersonationRepository {
	return &impersonationRepository{db: db}
}

func (r *impersonationRepository) Create(ctx context.Context, log *domain.ImpersonationLog) error {
	const query = `
        INSERT INTO impersonation_logs (target_user_id, impersonator_id, scope, started_at)
        VALUES ($1,$2,$3,$4)
        RETURNING id`
	return r.db.QueryRow(ctx, query, log.TargetUserID, log.ImpersonatorID, log.Scope, log.StartedAt).Scan(&log.ID)
}

func (r *impersonationRepository) CloseOpen(ctx context.Context, targetUserID, impersonatorID string, endedAt time.Time) (int64, error) {
	const query = `
        UPDATE impersonation_logs SET ended_at=$1
        WHERE target_user_id=$2 AND impersonator_id=$3 AND ended_at IS NULL`
	cmd, err := r.db.Exec(ctx, query, endedAt, targetUserID, impersonatorID)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (r *impersonationRepository) ListRecent(ctx context.Context, limit int) ([]domain.ImpersonationLog, error) {
	const query = `
        SELECT id, target_user_id, impersonator_id, scope, started_at, ended_at
        FROM impersonation_logs ORDER BY started_at DESC LIMIT $1`
	rows, err := r.db.Query(ctx, query, normalizeLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ImpersonationLog
	for rows.Next() {
		var entry domain.ImpersonationLog
		if err := rows.Scan(&entry.ID, &entry.TargetUserID, &entry.ImpersonatorID, &entry.Scope, &entry.StartedAt, &entry.EndedAt); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}
