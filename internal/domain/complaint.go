package domain

import "time"

// ComplaintStatus enumerates lifecycle states for complaints.
type ComplaintStatus string

const (
	ComplaintStatusPending    ComplaintStatus = "PENDING"
	ComplaintStatusInProgress ComplaintStatus = "IN_PROGRESS"
	ComplaintStatusResolved   ComplaintStatus = "RESOLVED"
)

// IsValid reports whether the status is one of the known states.
func (s ComplaintStatus) IsValid() bool {
	switch s {
	case ComplaintStatusPending, ComplaintStatusInProgress, ComplaintStatusResolved:
		return true
	}
	return false
}

// Complaint is the aggregate for citizen-submitted issues. Department and
// Confidence are assigned once at creation; only Status mutates afterwards.
type Complaint struct {
	ID            string
	TrackingCode  string
	SubmitterName string
	City          string
	State         string
	Description   string
	ImageKey      *string
	Department    Department
	Confidence    float64
	Status        ComplaintStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

var allowedTransitions = map[ComplaintStatus][]ComplaintStatus{
	ComplaintStatusPending:    {ComplaintStatusInProgress},
	ComplaintStatusInProgress: {ComplaintStatusResolved},
	ComplaintStatusResolved:   {ComplaintStatusPending},
}

// CanTransition reports whether moving from current to next is a legal
// workflow edge. Repeating the current status is allowed and treated as a
// no-op by callers.
func CanTransition(current, next ComplaintStatus) bool {
	if current == next {
		return true
	}
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}
