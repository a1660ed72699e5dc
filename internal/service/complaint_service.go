package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/complaint-portal/internal/cache"
	"github.com/spec-kit/complaint-portal/internal/domain"
	"github.com/spec-kit/complaint-portal/internal/events"
	"github.com/spec-kit/complaint-portal/internal/repository"
	"github.com/spec-kit/complaint-portal/internal/resolver"
	"github.com/spec-kit/complaint-portal/internal/storage"
	apperrors "github.com/spec-kit/complaint-portal/pkg/util/errorutil"
)

const (
	trackingCodePrefix = "CMP"
	// codeAttempts bounds re-rolls in the 4-digit space before widening.
	codeAttempts = 5
)

// ComplaintService coordinates complaint intake and workflow.
type ComplaintService struct {
	complaints repository.ComplaintRepository
	history    repository.StatusHistoryRepository
	resolver   *resolver.Resolver
	images     storage.ImageStore
	trackCache *cache.TrackCache
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// ComplaintDependencies bundles collaborators for the complaint service.
type ComplaintDependencies struct {
	ComplaintRepo repository.ComplaintRepository
	HistoryRepo   repository.StatusHistoryRepository
	Resolver      *resolver.Resolver
	ImageStore    storage.ImageStore
	TrackCache    *cache.TrackCache
	Dispatcher    events.Dispatcher
	Logger        *zap.Logger
}

// NewComplaintService constructs the service.
func NewComplaintService(deps ComplaintDependencies) *ComplaintService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ComplaintService{
		complaints: deps.ComplaintRepo,
		history:    deps.HistoryRepo,
		resolver:   deps.Resolver,
		images:     deps.ImageStore,
		trackCache: deps.TrackCache,
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// ImageUpload carries an optional complaint photo.
type ImageUpload struct {
	Reader      io.Reader
	Size        int64
	ContentType string
}

// SubmitInput describes a citizen submission.
type SubmitInput struct {
	SubmitterName string
	City          string
	State         string
	Description   string
	Image         *ImageUpload
}

// Submit validates the submission, classifies it into a department, assigns a
// unique tracking code, and persists the record with status PENDING.
// Validation failures happen before any side effect.
func (s *ComplaintService) Submit(ctx context.Context, input SubmitInput) (*domain.Complaint, error) {
	input.SubmitterName = strings.TrimSpace(input.SubmitterName)
	input.City = strings.TrimSpace(input.City)
	input.State = strings.TrimSpace(input.State)
	input.Description = strings.TrimSpace(input.Description)

	missing := map[string]any{}
	if input.SubmitterName == "" {
		missing["name"] = "required"
	}
	if input.City == "" {
		missing["city"] = "required"
	}
	if input.State == "" {
		missing["state"] = "required"
	}
	if input.Description == "" {
		missing["description"] = "required"
	}
	if len(missing) > 0 {
		return nil, apperrors.NewValidationError("name, city, state, description required", missing)
	}

	var imageKey *string
	if input.Image != nil && s.images != nil {
		key, err := s.images.Upload(ctx, input.Image.Reader, input.Image.Size, input.Image.ContentType)
		if err != nil {
			return nil, apperrors.NewInternalError(fmt.Errorf("store image: %w", err))
		}
		imageKey = &key
	}

	resolution := s.resolver.Resolve(ctx, input.Description)

	code, err := s.generateTrackingCode(ctx)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	complaint := &domain.Complaint{
		TrackingCode:  code,
		SubmitterName: input.SubmitterName,
		City:          input.City,
		State:         input.State,
		Description:   input.Description,
		ImageKey:      imageKey,
		Department:    resolution.Department,
		Confidence:    resolution.Confidence,
		Status:        domain.ComplaintStatusPending,
	}
	if err := s.complaints.Create(ctx, complaint); err != nil {
		// an orphaned image is acceptable; no compensating delete
		return nil, apperrors.NewInternalError(err)
	}

	s.logger.Info("complaint submitted",
		zap.String("tracking_code", complaint.TrackingCode),
		zap.String("department", string(complaint.Department)),
		zap.Float64("confidence", complaint.Confidence))

	s.publishEvent(ctx, events.Event{
		Type:        events.EventComplaintSubmitted,
		ComplaintID: complaint.ID,
		Payload: events.ComplaintSubmittedPayload{
			TrackingCode: complaint.TrackingCode,
			Department:   complaint.Department,
			Confidence:   complaint.Confidence,
			City:         complaint.City,
			State:        complaint.State,
		},
	})
	return complaint, nil
}

// Track fetches a complaint by its public tracking code.
func (s *ComplaintService) Track(ctx context.Context, code string) (*domain.Complaint, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, apperrors.NewValidationError("tracking code required", nil)
	}
	if cached, ok := s.trackCache.Get(ctx, code); ok {
		return cached, nil
	}

	complaint, err := s.complaints.GetByTrackingCode(ctx, code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("complaint", map[string]any{"tracking_code": code})
		}
		return nil, apperrors.NewInternalError(err)
	}
	if err := s.trackCache.Set(ctx, complaint); err != nil {
		s.logger.Warn("track cache set failed", zap.Error(err))
	}
	return complaint, nil
}

// Get returns a complaint and its status history by internal identity.
func (s *ComplaintService) Get(ctx context.Context, id string) (*domain.Complaint, []domain.StatusHistory, error) {
	complaint, err := s.complaints.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, apperrors.NewNotFound("complaint", map[string]any{"id": id})
		}
		return nil, nil, apperrors.NewInternalError(err)
	}
	history, err := s.history.ListByComplaint(ctx, id)
	if err != nil {
		return nil, nil, apperrors.NewInternalError(err)
	}
	return complaint, history, nil
}

// List returns complaints matching the admin filter, newest first.
func (s *ComplaintService) List(ctx context.Context, filter repository.ComplaintFilter) ([]domain.Complaint, error) {
	complaints, err := s.complaints.List(ctx, filter)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return complaints, nil
}

// UpdateStatus moves a complaint along the workflow. Repeating the current
// status is an idempotent no-op; any other edge outside the graph is
// rejected. Department and confidence are never touched.
func (s *ComplaintService) UpdateStatus(ctx context.Context, adminID, complaintID string, newStatus domain.ComplaintStatus, note string) (*domain.Complaint, error) {
	if !newStatus.IsValid() {
		return nil, apperrors.NewValidationError("unknown status", map[string]any{"status": newStatus})
	}

	current, err := s.complaints.GetByID(ctx, complaintID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("complaint", map[string]any{"id": complaintID})
		}
		return nil, apperrors.NewInternalError(err)
	}

	if current.Status == newStatus {
		return current, nil
	}
	if !domain.CanTransition(current.Status, newStatus) {
		return nil, apperrors.NewValidationError("illegal status transition", map[string]any{
			"from": current.Status,
			"to":   newStatus,
		})
	}

	updated, err := s.complaints.UpdateStatus(ctx, complaintID, newStatus)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("complaint", map[string]any{"id": complaintID})
		}
		return nil, apperrors.NewInternalError(err)
	}

	if err := s.recordStatusChange(ctx, adminID, updated, current.Status, note); err != nil {
		s.logger.Warn("status history write failed", zap.Error(err))
	}
	if err := s.trackCache.Invalidate(ctx, updated.TrackingCode); err != nil {
		s.logger.Warn("track cache invalidation failed", zap.Error(err))
	}

	s.publishEvent(ctx, events.Event{
		Type:        events.EventComplaintStatusChanged,
		ComplaintID: updated.ID,
		Actor:       events.Actor{AdminID: &adminID},
		Payload: events.ComplaintStatusChangedPayload{
			TrackingCode: updated.TrackingCode,
			OldStatus:    current.Status,
			NewStatus:    updated.Status,
			Note:         note,
		},
	})
	return updated, nil
}

// Stats aggregates complaint counts for the admin dashboard.
type Stats struct {
	Total        int64
	ByStatus     map[domain.ComplaintStatus]int64
	ByDepartment map[domain.Department]int64
}

// Stats returns total, per-status, and per-department complaint counts.
func (s *ComplaintService) Stats(ctx context.Context) (*Stats, error) {
	byStatus, err := s.complaints.CountByStatus(ctx)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	byDept, err := s.complaints.CountByDepartment(ctx)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	stats := &Stats{
		ByStatus:     make(map[domain.ComplaintStatus]int64),
		ByDepartment: make(map[domain.Department]int64),
	}
	for _, dept := range domain.KnownDepartments() {
		stats.ByDepartment[dept] = byDept[dept]
	}
	for dept, count := range byDept {
		stats.ByDepartment[dept] = count
	}
	for _, status := range []domain.ComplaintStatus{
		domain.ComplaintStatusPending,
		domain.ComplaintStatusInProgress,
		domain.ComplaintStatusResolved,
	} {
		stats.ByStatus[status] = byStatus[status]
		stats.Total += byStatus[status]
	}
	return stats, nil
}

// generateTrackingCode draws CMP + 4 random digits and re-rolls on collision.
// After codeAttempts collisions the keyspace widens to 6 digits.
func (s *ComplaintService) generateTrackingCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < codeAttempts; attempt++ {
		code := fmt.Sprintf("%s%04d", trackingCodePrefix, 1000+rand.IntN(9000))
		exists, err := s.complaints.TrackingCodeExists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("check tracking code: %w", err)
		}
		if !exists {
			return code, nil
		}
	}
	for attempt := 0; attempt < codeAttempts; attempt++ {
		code := fmt.Sprintf("%s%06d", trackingCodePrefix, 100000+rand.IntN(900000))
		exists, err := s.complaints.TrackingCodeExists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("check tracking code: %w", err)
		}
		if !exists {
			return code, nil
		}
	}
	return "", errors.New("tracking code space exhausted")
}

func (s *ComplaintService) recordStatusChange(ctx context.Context, adminID string, complaint *domain.Complaint, oldStatus domain.ComplaintStatus, note string) error {
	if s.history == nil {
		return nil
	}
	entry := &domain.StatusHistory{
		ComplaintID: complaint.ID,
		AdminID:     &adminID,
		OldStatus:   oldStatus,
		NewStatus:   complaint.Status,
		Note:        note,
	}
	return s.history.Create(ctx, entry)
}

func (s *ComplaintService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
