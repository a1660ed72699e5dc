package events

import (
	"time"

	"github.com/spec-kit/complaint-portal/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventComplaintSubmitted     EventType = "complaint_submitted"
	EventComplaintStatusChanged EventType = "complaint_status_changed"
)

// Actor identifies who triggered an event. Citizen submissions are anonymous
// so only admin actions carry an ID.
type Actor struct {
	AdminID *string `json:"admin_id,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID          string      `json:"id"`
	Type        EventType   `json:"type"`
	ComplaintID string      `json:"complaint_id"`
	Actor       Actor       `json:"actor"`
	Timestamp   time.Time   `json:"timestamp"`
	Payload     interface{} `json:"payload"`
}

// ComplaintSubmittedPayload payload.
type ComplaintSubmittedPayload struct {
	TrackingCode string            `json:"tracking_code"`
	Department   domain.Department `json:"department"`
	Confidence   float64           `json:"confidence"`
	City         string            `json:"city"`
	State        string            `json:"state"`
}

// ComplaintStatusChangedPayload payload.
type ComplaintStatusChangedPayload struct {
	TrackingCode string                 `json:"tracking_code"`
	OldStatus    domain.ComplaintStatus `json:"old_status"`
	NewStatus    domain.ComplaintStatus `json:"new_status"`
	Note         string                 `json:"note,omitempty"`
}
