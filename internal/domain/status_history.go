package domain

import "time"

// StatusHistory records a single status change applied to a complaint.
type StatusHistory struct {
	ID          string
	ComplaintID string
	AdminID     *string
	OldStatus   ComplaintStatus
	NewStatus   ComplaintStatus
	Note        string
	CreatedAt   time.Time
}
