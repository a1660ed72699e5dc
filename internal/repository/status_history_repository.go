package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/complaint-portal/internal/domain"
)

// StatusHistoryRepository stores complaint status audit entries.
type StatusHistoryRepository interface {
	Create(ctx context.Context, entry *domain.StatusHistory) error
	ListByComplaint(ctx context.Context, complaintID string) ([]domain.StatusHistory, error)
}

type statusHistoryRepository struct {
	pool *pgxpool.Pool
}

// NewStatusHistoryRepository builds repository.
func NewStatusHistoryRepository(pool *pgxpool.Pool) StatusHistoryRepository {
	return &statusHistoryRepository{pool: pool}
}

func (r *statusHistoryRepository) Create(ctx context.Context, entry *domain.StatusHistory) error {
	const query = `
        INSERT INTO complaint_status_history (complaint_id, admin_id, old_status, new_status, note)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		entry.ComplaintID,
		entry.AdminID,
		entry.OldStatus,
		entry.NewStatus,
		entry.Note,
	).Scan(&entry.ID, &entry.CreatedAt)
}

func (r *statusHistoryRepository) ListByComplaint(ctx context.Context, complaintID string) ([]domain.StatusHistory, error) {
	const query = `
        SELECT id, complaint_id, admin_id, old_status, new_status, note, created_at
        FROM complaint_status_history WHERE complaint_id=$1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, complaintID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.StatusHistory
	for rows.Next() {
		var entry domain.StatusHistory
		if err := rows.Scan(
			&entry.ID,
			&entry.ComplaintID,
			&entry.AdminID,
			&entry.OldStatus,
			&entry.NewStatus,
			&entry.Note,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}
