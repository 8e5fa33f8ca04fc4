package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/acadsched/class-scheduler-api/internal/models"
	appErrors "github.com/acadsched/class-scheduler-api/pkg/errors"
)

type mockRequestRepo struct {
	items   map[string]*models.AdjustmentRequest
	created []models.AdjustmentRequest
	updated []models.AdjustmentRequest
}

func (m *mockRequestRepo) List(ctx context.Context, filter models.AdjustmentRequestFilter) ([]models.AdjustmentRequest, int, error) {
	var out []models.AdjustmentRequest
	for _, request := range m.items {
		out = append(out, *request)
	}
	return out, len(out), nil
}

func (m *mockRequestRepo) FindByID(ctx context.Context, id string) (*models.AdjustmentRequest, error) {
	if request, ok := m.items[id]; ok {
		cp := *request
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockRequestRepo) Create(ctx context.Context, request *models.AdjustmentRequest) error {
	if request.ID == "" {
		request.ID = "generated"
	}
	if m.items == nil {
		m.items = make(map[string]*models.AdjustmentRequest)
	}
	cp := *request
	m.items[request.ID] = &cp
	m.created = append(m.created, cp)
	return nil
}

func (m *mockRequestRepo) Update(ctx context.Context, request *models.AdjustmentRequest) error {
	cp := *request
	m.items[request.ID] = &cp
	m.updated = append(m.updated, cp)
	return nil
}

func pendingRequest(scheduleID string, changes models.RequestedChanges) *models.AdjustmentRequest {
	payload, _ := json.Marshal(changes)
	return &models.AdjustmentRequest{
		ID:               "req1",
		ScheduleID:       scheduleID,
		ProfessorID:      "p1",
		RequestedChanges: payload,
		Reason:           "room is double booked for lab work",
		Status:           models.RequestPending,
	}
}

func newRequestService(requests *mockRequestRepo, schedules *mockScheduleRepo, notes *mockNotificationWriter) *AdjustmentRequestService {
	professors, subjects, rooms := testFinders()
	var notifications notificationWriter
	if notes != nil {
		notifications = notes
	}
	return NewAdjustmentRequestService(requests, schedules, professors, subjects, rooms, nil, notifications, nil, nil, validator.New(), zap.NewNop())
}

func ownedSchedule() models.ScheduleDetails {
	details := occupiedSlot("s1", "p1", "r1", "", "10:00", "11:00")
	details.SubjectID = "sub1"
	details.SubjectCode = "CS101"
	return details
}

func TestAdjustmentRequestCreate(t *testing.T) {
	schedule := ownedSchedule()
	schedules := &mockScheduleRepo{items: map[string]*models.Schedule{"s1": &schedule.Schedule}}
	requests := &mockRequestRepo{}
	service := newRequestService(requests, schedules, nil)

	start := "13:00"
	end := "14:00"
	request, err := service.Create(context.Background(), "u-reyes", CreateAdjustmentRequest{
		ScheduleID: "s1",
		Changes:    models.RequestedChanges{StartTime: &start, EndTime: &end},
		Reason:     "conflicts with department meeting",
	})
	require.NoError(t, err)
	assert.Equal(t, models.RequestPending, request.Status)
	assert.Equal(t, "p1", request.ProfessorID)
	assert.Len(t, requests.created, 1)
}

func TestAdjustmentRequestCreateRequiresOwnership(t *testing.T) {
	schedule := ownedSchedule()
	schedules := &mockScheduleRepo{items: map[string]*models.Schedule{"s1": &schedule.Schedule}}
	service := newRequestService(&mockRequestRepo{}, schedules, nil)

	start := "13:00"
	_, err := service.Create(context.Background(), "someone-else", CreateAdjustmentRequest{
		ScheduleID: "s1",
		Changes:    models.RequestedChanges{StartTime: &start},
		Reason:     "conflicts with department meeting",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestAdjustmentRequestGetOwned(t *testing.T) {
	requests := &mockRequestRepo{items: map[string]*models.AdjustmentRequest{
		"req1": pendingRequest("s1", models.RequestedChanges{}),
	}}
	service := newRequestService(requests, &mockScheduleRepo{}, nil)

	request, err := service.GetOwned(context.Background(), "req1", "u-reyes")
	require.NoError(t, err)
	assert.Equal(t, "req1", request.ID)

	// Another professor's request is off limits.
	other := pendingRequest("s2", models.RequestedChanges{})
	other.ID = "req2"
	other.ProfessorID = "p2"
	requests.items["req2"] = other

	_, err = service.GetOwned(context.Background(), "req2", "u-reyes")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	// Same for accounts with no linked professor profile.
	_, err = service.GetOwned(context.Background(), "req1", "no-profile")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestAdjustmentRequestCreateRejectsEmptyChanges(t *testing.T) {
	schedule := ownedSchedule()
	schedules := &mockScheduleRepo{items: map[string]*models.Schedule{"s1": &schedule.Schedule}}
	service := newRequestService(&mockRequestRepo{}, schedules, nil)

	_, err := service.Create(context.Background(), "u-reyes", CreateAdjustmentRequest{
		ScheduleID: "s1",
		Reason:     "conflicts with department meeting",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAdjustmentRequestApproveAppliesChanges(t *testing.T) {
	schedule := ownedSchedule()
	schedules := &mockScheduleRepo{
		items: map[string]*models.Schedule{"s1": &schedule.Schedule},
		week:  []models.ScheduleDetails{schedule},
	}
	start := "14:00"
	end := "15:00"
	requests := &mockRequestRepo{items: map[string]*models.AdjustmentRequest{
		"req1": pendingRequest("s1", models.RequestedChanges{StartTime: &start, EndTime: &end}),
	}}
	notes := &mockNotificationWriter{}
	service := newRequestService(requests, schedules, notes)

	reviewed, err := service.Review(context.Background(), "req1", "admin-1", ReviewAdjustmentRequest{Decision: "approved"})
	require.NoError(t, err)
	assert.Equal(t, models.RequestApproved, reviewed.Status)
	require.NotNil(t, reviewed.ReviewedBy)
	assert.Equal(t, "admin-1", *reviewed.ReviewedBy)

	require.Len(t, schedules.updated, 1)
	assert.Equal(t, "14:00", schedules.updated[0].StartTime)
	assert.Equal(t, "15:00", schedules.updated[0].EndTime)

	require.Len(t, notes.sent, 1)
	assert.Equal(t, models.NotificationSuccess, notes.sent[0].Type)
}

func TestAdjustmentRequestApproveRejectsConflictedMerge(t *testing.T) {
	schedule := ownedSchedule()
	// Another in-person class by the same professor at the requested slot.
	blocker := occupiedSlot("s2", "p1", "", "", "14:00", "15:00")
	schedules := &mockScheduleRepo{
		items: map[string]*models.Schedule{"s1": &schedule.Schedule},
		week:  []models.ScheduleDetails{schedule, blocker},
	}
	start := "14:00"
	end := "15:00"
	requests := &mockRequestRepo{items: map[string]*models.AdjustmentRequest{
		"req1": pendingRequest("s1", models.RequestedChanges{StartTime: &start, EndTime: &end}),
	}}
	service := newRequestService(requests, schedules, nil)

	_, err := service.Review(context.Background(), "req1", "admin-1", ReviewAdjustmentRequest{Decision: "approved"})
	require.Error(t, err)

	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrScheduleConflict.Code, appErr.Code)
	assert.Equal(t, 409, appErr.Status)

	var conflictErr *models.ScheduleConflictError
	require.True(t, errors.As(err, &conflictErr))
	assert.True(t, conflictErr.Report.HasConflict)

	// Schedule untouched and request still pending.
	assert.Empty(t, schedules.updated)
	stored, findErr := requests.FindByID(context.Background(), "req1")
	require.NoError(t, findErr)
	assert.Equal(t, models.RequestPending, stored.Status)
}

func TestAdjustmentRequestApproveExcludesOwnSchedule(t *testing.T) {
	// The only overlap in the merged week is the schedule being changed, so
	// approval must pass.
	schedule := ownedSchedule()
	schedules := &mockScheduleRepo{
		items: map[string]*models.Schedule{"s1": &schedule.Schedule},
		week:  []models.ScheduleDetails{schedule},
	}
	start := "10:30"
	requests := &mockRequestRepo{items: map[string]*models.AdjustmentRequest{
		"req1": pendingRequest("s1", models.RequestedChanges{StartTime: &start}),
	}}
	service := newRequestService(requests, schedules, nil)

	reviewed, err := service.Review(context.Background(), "req1", "admin-1", ReviewAdjustmentRequest{Decision: "approved"})
	require.NoError(t, err)
	assert.Equal(t, models.RequestApproved, reviewed.Status)
}

func TestAdjustmentRequestDeny(t *testing.T) {
	schedule := ownedSchedule()
	schedules := &mockScheduleRepo{items: map[string]*models.Schedule{"s1": &schedule.Schedule}}
	start := "14:00"
	requests := &mockRequestRepo{items: map[string]*models.AdjustmentRequest{
		"req1": pendingRequest("s1", models.RequestedChanges{StartTime: &start}),
	}}
	notes := &mockNotificationWriter{}
	service := newRequestService(requests, schedules, notes)

	notesText := "room unavailable that hour"
	reviewed, err := service.Review(context.Background(), "req1", "admin-1", ReviewAdjustmentRequest{Decision: "denied", Notes: &notesText})
	require.NoError(t, err)
	assert.Equal(t, models.RequestDenied, reviewed.Status)
	require.NotNil(t, reviewed.ReviewNotes)
	assert.Equal(t, notesText, *reviewed.ReviewNotes)
	assert.Empty(t, schedules.updated)

	require.Len(t, notes.sent, 1)
	assert.Equal(t, models.NotificationWarning, notes.sent[0].Type)
}

func TestAdjustmentRequestReviewTwice(t *testing.T) {
	schedule := ownedSchedule()
	schedules := &mockScheduleRepo{items: map[string]*models.Schedule{"s1": &schedule.Schedule}}
	start := "14:00"
	request := pendingRequest("s1", models.RequestedChanges{StartTime: &start})
	request.Status = models.RequestDenied
	requests := &mockRequestRepo{items: map[string]*models.AdjustmentRequest{"req1": request}}
	service := newRequestService(requests, schedules, nil)

	_, err := service.Review(context.Background(), "req1", "admin-1", ReviewAdjustmentRequest{Decision: "approved"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}
