package dto

import (
	"time"

	"github.com/spec-kit/complaint-portal/internal/domain"
)

// SubmitComplaintResponse is what a citizen receives after submitting.
type SubmitComplaintResponse struct {
	TrackingCode string            `json:"tracking_code"`
	Department   domain.Department `json:"department"`
	Confidence   float64           `json:"confidence"`
}

// ComplaintSummary is the admin list row.
type ComplaintSummary struct {
	ID           string                 `json:"id"`
	TrackingCode string                 `json:"tracking_code"`
	City         string                 `json:"city"`
	State        string                 `json:"state"`
	Department   domain.Department      `json:"department"`
	Confidence   float64                `json:"confidence"`
	Status       domain.ComplaintStatus `json:"status"`
	CreatedAt    time.Time              `json:"created_at"`
	UpdatedAt    time.Time              `json:"updated_at"`
}

// ComplaintDetailResponse is the full record plus history and image link.
type ComplaintDetailResponse struct {
	ID            string                  `json:"id"`
	TrackingCode  string                  `json:"tracking_code"`
	SubmitterName string                  `json:"submitter_name"`
	City          string                  `json:"city"`
	State         string                  `json:"state"`
	Description   string                  `json:"description"`
	ImageURL      *string                 `json:"image_url,omitempty"`
	Department    domain.Department       `json:"department"`
	Confidence    float64                 `json:"confidence"`
	Status        domain.ComplaintStatus  `json:"status"`
	CreatedAt     time.Time               `json:"created_at"`
	UpdatedAt     time.Time               `json:"updated_at"`
	History       []StatusHistoryResponse `json:"history,omitempty"`
}

// TrackComplaintResponse is the citizen-facing status view.
type TrackComplaintResponse struct {
	TrackingCode string                 `json:"tracking_code"`
	City         string                 `json:"city"`
	State        string                 `json:"state"`
	Description  string                 `json:"description"`
	Department   domain.Department      `json:"department"`
	Status       domain.ComplaintStatus `json:"status"`
	CreatedAt    time.Time              `json:"created_at"`
	UpdatedAt    time.Time              `json:"updated_at"`
}

// StatusHistoryResponse is one audit entry.
type StatusHistoryResponse struct {
	ID        string                 `json:"id"`
	AdminID   *string                `json:"admin_id,omitempty"`
	OldStatus domain.ComplaintStatus `json:"old_status"`
	NewStatus domain.ComplaintStatus `json:"new_status"`
	Note      string                 `json:"note,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

// UpdateStatusRequest names the target status for a complaint.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
	Note   string `json:"note"`
}

// StatsResponse aggregates counts for the dashboard.
type StatsResponse struct {
	Total        int64            `json:"total"`
	ByStatus     map[string]int64 `json:"by_status"`
	ByDepartment map[string]int64 `json:"by_department"`
}
