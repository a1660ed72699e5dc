package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/complaint-portal/internal/domain"
)

// ComplaintFilter captures admin listing parameters.
type ComplaintFilter struct {
	Statuses    []domain.ComplaintStatus
	Departments []domain.Department
	SearchTerm  *string
	Limit       int
	Offset      int
}

// ComplaintRepository encapsulates complaint persistence.
type ComplaintRepository interface {
	Create(ctx context.Context, complaint *domain.Complaint) error
	GetByID(ctx context.Context, id string) (*domain.Complaint, error)
	GetByTrackingCode(ctx context.Context, code string) (*domain.Complaint, error)
	TrackingCodeExists(ctx context.Context, code string) (bool, error)
	List(ctx context.Context, filter ComplaintFilter) ([]domain.Complaint, error)
	UpdateStatus(ctx context.Context, id string, status domain.ComplaintStatus) (*domain.Complaint, error)
	CountByStatus(ctx context.Context) (map[domain.ComplaintStatus]int64, error)
	CountByDepartment(ctx context.Context) (map[domain.Department]int64, error)
}

type complaintRepository struct {
	pool *pgxpool.Pool
}

// NewComplaintRepository instantiates repository.
func NewComplaintRepository(pool *pgxpool.Pool) ComplaintRepository {
	return &complaintRepository{pool: pool}
}

const complaintColumns = `id, tracking_code, submitter_name, city, state, description,
               image_key, department, confidence, status, created_at, updated_at`

func (r *complaintRepository) Create(ctx context.Context, complaint *domain.Complaint) error {
	const query = `
        INSERT INTO complaints (tracking_code, submitter_name, city, state, description, image_key, department, confidence, status)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		complaint.TrackingCode,
		complaint.SubmitterName,
		complaint.City,
		complaint.State,
		complaint.Description,
		complaint.ImageKey,
		complaint.Department,
		complaint.Confidence,
		complaint.Status,
	).Scan(&complaint.ID, &complaint.CreatedAt, &complaint.UpdatedAt)
}

func (r *complaintRepository) GetByID(ctx context.Context, id string) (*domain.Complaint, error) {
	query := fmt.Sprintf(`SELECT %s FROM complaints WHERE id=$1`, complaintColumns)
	return r.fetchSingle(ctx, query, id)
}

func (r *complaintRepository) GetByTrackingCode(ctx context.Context, code string) (*domain.Complaint, error) {
	query := fmt.Sprintf(`SELECT %s FROM complaints WHERE tracking_code=$1`, complaintColumns)
	return r.fetchSingle(ctx, query, code)
}

func (r *complaintRepository) TrackingCodeExists(ctx context.Context, code string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM complaints WHERE tracking_code=$1)`
	var exists bool
	if err := r.pool.QueryRow(ctx, query, code).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *complaintRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Complaint, error) {
	var complaint domain.Complaint
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&complaint.ID,
		&complaint.TrackingCode,
		&complaint.SubmitterName,
		&complaint.City,
		&complaint.State,
		&complaint.Description,
		&complaint.ImageKey,
		&complaint.Department,
		&complaint.Confidence,
		&complaint.Status,
		&complaint.CreatedAt,
		&complaint.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &complaint, nil
}

func (r *complaintRepository) List(ctx context.Context, filter ComplaintFilter) ([]domain.Complaint, error) {
	base := fmt.Sprintf(`SELECT %s FROM complaints`, complaintColumns)
	clauses := []string{"1=1"}
	args := []any{}

	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Departments) > 0 {
		placeholders := make([]string, len(filter.Departments))
		for i, dept := range filter.Departments {
			args = append(args, dept)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("department IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SearchTerm)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf(
			"(LOWER(description) LIKE %s OR LOWER(city) LIKE %s OR tracking_code LIKE %s)",
			placeholder, placeholder, placeholder))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanComplaints(rows)
}

func (r *complaintRepository) UpdateStatus(ctx context.Context, id string, status domain.ComplaintStatus) (*domain.Complaint, error) {
	query := fmt.Sprintf(`
        UPDATE complaints SET status=$1, updated_at=NOW()
        WHERE id=$2
        RETURNING %s`, complaintColumns)
	var complaint domain.Complaint
	if err := r.pool.QueryRow(ctx, query, status, id).Scan(
		&complaint.ID,
		&complaint.TrackingCode,
		&complaint.SubmitterName,
		&complaint.City,
		&complaint.State,
		&complaint.Description,
		&complaint.ImageKey,
		&complaint.Department,
		&complaint.Confidence,
		&complaint.Status,
		&complaint.CreatedAt,
		&complaint.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &complaint, nil
}

func (r *complaintRepository) CountByStatus(ctx context.Context) (map[domain.ComplaintStatus]int64, error) {
	const query = `SELECT status, COUNT(*) FROM complaints GROUP BY status`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.ComplaintStatus]int64)
	for rows.Next() {
		var status domain.ComplaintStatus
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

func (r *complaintRepository) CountByDepartment(ctx context.Context) (map[domain.Department]int64, error) {
	const query = `SELECT department, COUNT(*) FROM complaints GROUP BY department`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.Department]int64)
	for rows.Next() {
		var dept domain.Department
		var count int64
		if err := rows.Scan(&dept, &count); err != nil {
			return nil, err
		}
		counts[dept] = count
	}
	return counts, rows.Err()
}

func scanComplaints(rows pgx.Rows) ([]domain.Complaint, error) {
	var result []domain.Complaint
	for rows.Next() {
		var complaint domain.Complaint
		if err := rows.Scan(
			&complaint.ID,
			&complaint.TrackingCode,
			&complaint.SubmitterName,
			&complaint.City,
			&complaint.State,
			&complaint.Description,
			&complaint.ImageKey,
			&complaint.Department,
			&complaint.Confidence,
			&complaint.Status,
			&complaint.CreatedAt,
			&complaint.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, complaint)
	}
	return result, rows.Err()
}
