package service_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/complaint-portal/internal/classifier"
	"github.com/spec-kit/complaint-portal/internal/domain"
	"github.com/spec-kit/complaint-portal/internal/events"
	"github.com/spec-kit/complaint-portal/internal/repository"
	"github.com/spec-kit/complaint-portal/internal/resolver"
	"github.com/spec-kit/complaint-portal/internal/service"
	apperrors "github.com/spec-kit/complaint-portal/pkg/util/errorutil"
)

type fakeClassifier struct {
	prediction classifier.Prediction
	err        error
	calls      int
}

func (f *fakeClassifier) Classify(_ context.Context, _ string) (classifier.Prediction, error) {
	f.calls++
	return f.prediction, f.err
}

type fakeComplaintRepo struct {
	byID             map[string]*domain.Complaint
	idByCode         map[string]string
	forcedCollisions int
	existsCalls      int
}

func newFakeComplaintRepo() *fakeComplaintRepo {
	return &fakeComplaintRepo{
		byID:     make(map[string]*domain.Complaint),
		idByCode: make(map[string]string),
	}
}

func (r *fakeComplaintRepo) Create(_ context.Context, complaint *domain.Complaint) error {
	complaint.ID = uuid.NewString()
	complaint.CreatedAt = time.Now()
	complaint.UpdatedAt = complaint.CreatedAt
	copied := *complaint
	r.byID[complaint.ID] = &copied
	r.idByCode[complaint.TrackingCode] = complaint.ID
	return nil
}

func (r *fakeComplaintRepo) GetByID(_ context.Context, id string) (*domain.Complaint, error) {
	complaint, ok := r.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *complaint
	return &copied, nil
}

func (r *fakeComplaintRepo) GetByTrackingCode(_ context.Context, code string) (*domain.Complaint, error) {
	id, ok := r.idByCode[code]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return r.GetByID(context.Background(), id)
}

func (r *fakeComplaintRepo) TrackingCodeExists(_ context.Context, code string) (bool, error) {
	r.existsCalls++
	if r.forcedCollisions > 0 {
		r.forcedCollisions--
		return true, nil
	}
	_, ok := r.idByCode[code]
	return ok, nil
}

func (r *fakeComplaintRepo) List(_ context.Context, _ repository.ComplaintFilter) ([]domain.Complaint, error) {
	var result []domain.Complaint
	for _, complaint := range r.byID {
		result = append(result, *complaint)
	}
	return result, nil
}

func (r *fakeComplaintRepo) UpdateStatus(_ context.Context, id string, status domain.ComplaintStatus) (*domain.Complaint, error) {
	complaint, ok := r.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	complaint.Status = status
	complaint.UpdatedAt = time.Now()
	copied := *complaint
	return &copied, nil
}

func (r *fakeComplaintRepo) CountByStatus(_ context.Context) (map[domain.ComplaintStatus]int64, error) {
	counts := make(map[domain.ComplaintStatus]int64)
	for _, complaint := range r.byID {
		counts[complaint.Status]++
	}
	return counts, nil
}

func (r *fakeComplaintRepo) CountByDepartment(_ context.Context) (map[domain.Department]int64, error) {
	counts := make(map[domain.Department]int64)
	for _, complaint := range r.byID {
		counts[complaint.Department]++
	}
	return counts, nil
}

type fakeHistoryRepo struct {
	entries []domain.StatusHistory
}

func (r *fakeHistoryRepo) Create(_ context.Context, entry *domain.StatusHistory) error {
	entry.ID = uuid.NewString()
	entry.CreatedAt = time.Now()
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeHistoryRepo) ListByComplaint(_ context.Context, complaintID string) ([]domain.StatusHistory, error) {
	var result []domain.StatusHistory
	for _, entry := range r.entries {
		if entry.ComplaintID == complaintID {
			result = append(result, entry)
		}
	}
	return result, nil
}

type recordingDispatcher struct {
	published []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.published = append(d.published, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(_ events.EventType, _ events.EventHandler) {}

type fixture struct {
	svc        *service.ComplaintService
	repo       *fakeComplaintRepo
	history    *fakeHistoryRepo
	classifier *fakeClassifier
	dispatcher *recordingDispatcher
}

func newFixture(cls *fakeClassifier) *fixture {
	repo := newFakeComplaintRepo()
	history := &fakeHistoryRepo{}
	dispatcher := &recordingDispatcher{}
	svc := service.NewComplaintService(service.ComplaintDependencies{
		ComplaintRepo: repo,
		HistoryRepo:   history,
		Resolver:      resolver.New(cls, nil, nil),
		Dispatcher:    dispatcher,
	})
	return &fixture{svc: svc, repo: repo, history: history, classifier: cls, dispatcher: dispatcher}
}

var codePattern = regexp.MustCompile(`^CMP\d{4}$`)

func validSubmission() service.SubmitInput {
	return service.SubmitInput{
		SubmitterName: "Asha Verma",
		City:          "Pune",
		State:         "Maharashtra",
		Description:   "there is a huge pothole on Main Street",
	}
}

func TestSubmitCreatesPendingComplaint(t *testing.T) {
	f := newFixture(&fakeClassifier{err: classifier.ErrUnavailable})

	complaint, err := f.svc.Submit(context.Background(), validSubmission())
	require.NoError(t, err)

	assert.Equal(t, domain.ComplaintStatusPending, complaint.Status)
	assert.Regexp(t, codePattern, complaint.TrackingCode)
	assert.NotEmpty(t, complaint.ID)
	require.Len(t, f.dispatcher.published, 1)
	assert.Equal(t, events.EventComplaintSubmitted, f.dispatcher.published[0].Type)
}

func TestSubmitPotholeWithClassifierDown(t *testing.T) {
	f := newFixture(&fakeClassifier{err: classifier.ErrUnavailable})

	complaint, err := f.svc.Submit(context.Background(), validSubmission())
	require.NoError(t, err)

	assert.Equal(t, domain.DepartmentPublicWorks, complaint.Department)
	assert.Equal(t, 0.0, complaint.Confidence)
}

func TestSubmitKeepsConfidentClassifierLabel(t *testing.T) {
	f := newFixture(&fakeClassifier{prediction: classifier.Prediction{Category: "Noise Complaints", Confidence: 85}})

	input := validSubmission()
	input.Description = "my neighbor's dog barks all night"
	complaint, err := f.svc.Submit(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, domain.Department("Noise Complaints"), complaint.Department)
	assert.Equal(t, 85.0, complaint.Confidence)
}

func TestSubmitMissingFieldRejectedBeforeSideEffects(t *testing.T) {
	f := newFixture(&fakeClassifier{prediction: classifier.Prediction{Category: "Water Department", Confidence: 90}})

	input := validSubmission()
	input.State = "   "
	_, err := f.svc.Submit(context.Background(), input)
	require.Error(t, err)

	domainErr := apperrors.ToDomainError(err)
	assert.Equal(t, "VALIDATION_FAILED", domainErr.Code)
	assert.Zero(t, f.classifier.calls, "classifier must not be called for invalid submissions")
	assert.Empty(t, f.repo.byID, "nothing may be persisted")
	assert.Empty(t, f.dispatcher.published)
}

func TestSubmitRerollsTrackingCodeOnCollision(t *testing.T) {
	f := newFixture(&fakeClassifier{err: classifier.ErrUnavailable})
	f.repo.forcedCollisions = 2

	complaint, err := f.svc.Submit(context.Background(), validSubmission())
	require.NoError(t, err)

	assert.Regexp(t, codePattern, complaint.TrackingCode)
	assert.Equal(t, 3, f.repo.existsCalls)
}

func TestSubmitWidensKeyspaceWhenCollisionsExhaust(t *testing.T) {
	f := newFixture(&fakeClassifier{err: classifier.ErrUnavailable})
	f.repo.forcedCollisions = 5

	complaint, err := f.svc.Submit(context.Background(), validSubmission())
	require.NoError(t, err)

	assert.Regexp(t, `^CMP\d{6}$`, complaint.TrackingCode)
}

func TestTrackUnknownCodeNotFound(t *testing.T) {
	f := newFixture(&fakeClassifier{err: classifier.ErrUnavailable})

	_, err := f.svc.Track(context.Background(), "CMP0000")
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", apperrors.ToDomainError(err).Code)
}

func TestTrackReturnsSubmittedComplaint(t *testing.T) {
	f := newFixture(&fakeClassifier{err: classifier.ErrUnavailable})

	created, err := f.svc.Submit(context.Background(), validSubmission())
	require.NoError(t, err)

	tracked, err := f.svc.Track(context.Background(), created.TrackingCode)
	require.NoError(t, err)
	assert.Equal(t, created.ID, tracked.ID)
	assert.Equal(t, domain.ComplaintStatusPending, tracked.Status)
}

func TestUpdateStatusWalksWorkflow(t *testing.T) {
	f := newFixture(&fakeClassifier{err: classifier.ErrUnavailable})
	created, err := f.svc.Submit(context.Background(), validSubmission())
	require.NoError(t, err)

	updated, err := f.svc.UpdateStatus(context.Background(), "admin-1", created.ID, domain.ComplaintStatusInProgress, "crew dispatched")
	require.NoError(t, err)
	assert.Equal(t, domain.ComplaintStatusInProgress, updated.Status)

	updated, err = f.svc.UpdateStatus(context.Background(), "admin-1", created.ID, domain.ComplaintStatusResolved, "")
	require.NoError(t, err)
	assert.Equal(t, domain.ComplaintStatusResolved, updated.Status)

	// reopen
	updated, err = f.svc.UpdateStatus(context.Background(), "admin-1", created.ID, domain.ComplaintStatusPending, "issue recurred")
	require.NoError(t, err)
	assert.Equal(t, domain.ComplaintStatusPending, updated.Status)

	assert.Len(t, f.history.entries, 3)
}

func TestUpdateStatusDoesNotTouchClassification(t *testing.T) {
	f := newFixture(&fakeClassifier{prediction: classifier.Prediction{Category: "Sanitation Department", Confidence: 92}})
	input := validSubmission()
	input.Description = "overflowing garbage bins behind the market"
	created, err := f.svc.Submit(context.Background(), input)
	require.NoError(t, err)

	updated, err := f.svc.UpdateStatus(context.Background(), "admin-1", created.ID, domain.ComplaintStatusInProgress, "")
	require.NoError(t, err)

	assert.Equal(t, created.Department, updated.Department)
	assert.Equal(t, created.Confidence, updated.Confidence)
	assert.Equal(t, created.TrackingCode, updated.TrackingCode)
}

func TestUpdateStatusIdempotentOnSameTarget(t *testing.T) {
	f := newFixture(&fakeClassifier{err: classifier.ErrUnavailable})
	created, err := f.svc.Submit(context.Background(), validSubmission())
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(context.Background(), "admin-1", created.ID, domain.ComplaintStatusInProgress, "")
	require.NoError(t, err)

	eventsBefore := len(f.dispatcher.published)
	historyBefore := len(f.history.entries)

	again, err := f.svc.UpdateStatus(context.Background(), "admin-1", created.ID, domain.ComplaintStatusInProgress, "")
	require.NoError(t, err)

	assert.Equal(t, domain.ComplaintStatusInProgress, again.Status)
	assert.Len(t, f.dispatcher.published, eventsBefore, "no event for a no-op update")
	assert.Len(t, f.history.entries, historyBefore, "no history entry for a no-op update")
}

func TestUpdateStatusRejectsIllegalTransition(t *testing.T) {
	f := newFixture(&fakeClassifier{err: classifier.ErrUnavailable})
	created, err := f.svc.Submit(context.Background(), validSubmission())
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(context.Background(), "admin-1", created.ID, domain.ComplaintStatusResolved, "")
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_FAILED", apperrors.ToDomainError(err).Code)

	current, err := f.svc.Track(context.Background(), created.TrackingCode)
	require.NoError(t, err)
	assert.Equal(t, domain.ComplaintStatusPending, current.Status)
}

func TestUpdateStatusUnknownIDNotFound(t *testing.T) {
	f := newFixture(&fakeClassifier{err: classifier.ErrUnavailable})

	_, err := f.svc.UpdateStatus(context.Background(), "admin-1", uuid.NewString(), domain.ComplaintStatusInProgress, "")
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", apperrors.ToDomainError(err).Code)
	assert.Empty(t, f.history.entries)
	assert.Empty(t, f.dispatcher.published)
}

func TestUpdateStatusRejectsUnknownStatus(t *testing.T) {
	f := newFixture(&fakeClassifier{err: classifier.ErrUnavailable})
	created, err := f.svc.Submit(context.Background(), validSubmission())
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(context.Background(), "admin-1", created.ID, domain.ComplaintStatus("CLOSED"), "")
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_FAILED", apperrors.ToDomainError(err).Code)
}

func TestStatsAggregatesCounts(t *testing.T) {
	f := newFixture(&fakeClassifier{err: classifier.ErrUnavailable})

	first, err := f.svc.Submit(context.Background(), validSubmission())
	require.NoError(t, err)

	second := validSubmission()
	second.Description = "garbage heap near the bus stand"
	_, err = f.svc.Submit(context.Background(), second)
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(context.Background(), "admin-1", first.ID, domain.ComplaintStatusInProgress, "")
	require.NoError(t, err)

	stats, err := f.svc.Stats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(2), stats.Total)
	assert.Equal(t, int64(1), stats.ByStatus[domain.ComplaintStatusPending])
	assert.Equal(t, int64(1), stats.ByStatus[domain.ComplaintStatusInProgress])
	assert.Equal(t, int64(0), stats.ByStatus[domain.ComplaintStatusResolved])
	assert.Equal(t, int64(1), stats.ByDepartment[domain.DepartmentPublicWorks])
	assert.Equal(t, int64(1), stats.ByDepartment[domain.DepartmentSanitation])

	for _, dept := range domain.KnownDepartments() {
		_, present := stats.ByDepartment[dept]
		assert.Truef(t, present, "department %s missing from stats", dept)
	}
	assert.Equal(t, int64(0), stats.ByDepartment[domain.DepartmentWater])
}
