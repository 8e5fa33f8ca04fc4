package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/acadsched/class-scheduler-api/internal/conflict"
	"github.com/acadsched/class-scheduler-api/internal/models"
	appErrors "github.com/acadsched/class-scheduler-api/pkg/errors"
)

const testWeek = int64(1736121600000)

type mockScheduleRepo struct {
	items   map[string]*models.Schedule
	week    []models.ScheduleDetails
	created []models.Schedule
	updated []models.Schedule
	deleted []string
}

func (m *mockScheduleRepo) List(ctx context.Context, filter models.ScheduleFilter) ([]models.ScheduleDetails, int, error) {
	return m.week, len(m.week), nil
}

func (m *mockScheduleRepo) FindByID(ctx context.Context, id string) (*models.Schedule, error) {
	if schedule, ok := m.items[id]; ok {
		cp := *schedule
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockScheduleRepo) ListForWeek(ctx context.Context, weekStartDate int64) ([]models.ScheduleDetails, error) {
	var out []models.ScheduleDetails
	for _, row := range m.week {
		if row.WeekStartDate == weekStartDate {
			out = append(out, row)
		}
	}
	return out, nil
}

func (m *mockScheduleRepo) ListByProfessor(ctx context.Context, professorID string) ([]models.ScheduleDetails, error) {
	return m.week, nil
}

func (m *mockScheduleRepo) ListByRoom(ctx context.Context, roomID string) ([]models.ScheduleDetails, error) {
	return m.week, nil
}

func (m *mockScheduleRepo) Create(ctx context.Context, schedule *models.Schedule) error {
	if schedule.ID == "" {
		schedule.ID = "generated"
	}
	m.created = append(m.created, *schedule)
	return nil
}

func (m *mockScheduleRepo) Update(ctx context.Context, schedule *models.Schedule) error {
	m.updated = append(m.updated, *schedule)
	return nil
}

func (m *mockScheduleRepo) Delete(ctx context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	return nil
}

type mockProfessorFinder struct {
	items map[string]*models.Professor
}

func (m *mockProfessorFinder) FindByID(ctx context.Context, id string) (*models.Professor, error) {
	if professor, ok := m.items[id]; ok {
		cp := *professor
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockProfessorFinder) FindByUserID(ctx context.Context, userID string) (*models.Professor, error) {
	for _, professor := range m.items {
		if professor.UserID != nil && *professor.UserID == userID {
			cp := *professor
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

type mockSubjectFinder struct {
	items map[string]*models.Subject
}

func (m *mockSubjectFinder) FindByID(ctx context.Context, id string) (*models.Subject, error) {
	if subject, ok := m.items[id]; ok {
		cp := *subject
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

type mockRoomFinder struct {
	items map[string]*models.Room
}

func (m *mockRoomFinder) FindByID(ctx context.Context, id string) (*models.Room, error) {
	if room, ok := m.items[id]; ok {
		cp := *room
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

type mockAuditWriter struct {
	entries []models.AuditLog
}

func (m *mockAuditWriter) Create(ctx context.Context, log *models.AuditLog) error {
	m.entries = append(m.entries, *log)
	return nil
}

type mockNotificationWriter struct {
	sent []models.Notification
}

func (m *mockNotificationWriter) Create(ctx context.Context, notification *models.Notification) error {
	m.sent = append(m.sent, *notification)
	return nil
}

func testFinders() (*mockProfessorFinder, *mockSubjectFinder, *mockRoomFinder) {
	userID := "u-reyes"
	professors := &mockProfessorFinder{items: map[string]*models.Professor{
		"p1": {ID: "p1", FirstName: "Elena", LastName: "Reyes", UserID: &userID},
		"p2": {ID: "p2", FirstName: "Marco", LastName: "Cruz"},
	}}
	subjects := &mockSubjectFinder{items: map[string]*models.Subject{
		"sub1": {ID: "sub1", Code: "CS101", Name: "Intro to Computing"},
		"sub2": {ID: "sub2", Code: "MATH201", Name: "Linear Algebra"},
	}}
	rooms := &mockRoomFinder{items: map[string]*models.Room{
		"r1": {ID: "r1", Code: "RM-204", Name: "Room 204"},
	}}
	return professors, subjects, rooms
}

func occupiedSlot(id, professorID, roomID, section, start, end string) models.ScheduleDetails {
	room := roomID
	details := models.ScheduleDetails{
		Schedule: models.Schedule{
			ID:            id,
			SubjectID:     "sub2",
			ProfessorID:   professorID,
			DayOfWeek:     conflict.Monday,
			StartTime:     start,
			EndTime:       end,
			ClassType:     conflict.InPerson,
			WeekStartDate: testWeek,
		},
		ProfessorName: "Marco Cruz",
		SubjectCode:   "MATH201",
	}
	if room != "" {
		details.RoomID = &room
		code := "RM-204"
		details.RoomCode = &code
	}
	if section != "" {
		sec := section
		details.Section = &sec
	}
	return details
}

func newScheduleService(repo *mockScheduleRepo, audits *mockAuditWriter, notes *mockNotificationWriter) *ScheduleService {
	professors, subjects, rooms := testFinders()
	var auditLogs auditWriter
	if audits != nil {
		auditLogs = audits
	}
	var notifications notificationWriter
	if notes != nil {
		notifications = notes
	}
	return NewScheduleService(repo, professors, subjects, rooms, auditLogs, notifications, nil, nil, validator.New(), zap.NewNop())
}

func validCreateRequest() CreateScheduleRequest {
	room := "r1"
	return CreateScheduleRequest{
		SubjectID:     "sub1",
		ProfessorID:   "p1",
		RoomID:        &room,
		DayOfWeek:     "monday",
		StartTime:     "10:00",
		EndTime:       "11:00",
		Semester:      "1st",
		AcademicYear:  "2025-2026",
		ClassType:     "in-person",
		WeekStartDate: testWeek,
	}
}

func TestScheduleServiceCreate(t *testing.T) {
	repo := &mockScheduleRepo{}
	audits := &mockAuditWriter{}
	notes := &mockNotificationWriter{}
	service := newScheduleService(repo, audits, notes)

	schedule, err := service.Create(context.Background(), validCreateRequest(), "admin-1")
	require.NoError(t, err)
	assert.Equal(t, "p1", schedule.ProfessorID)
	assert.Equal(t, conflict.Monday, schedule.DayOfWeek)
	assert.Len(t, repo.created, 1)
	assert.Len(t, audits.entries, 1)
	assert.Equal(t, models.AuditActionCreate, audits.entries[0].Action)
	require.Len(t, notes.sent, 1)
	assert.Equal(t, "u-reyes", notes.sent[0].UserID)
}

func TestScheduleServiceCreateConflict(t *testing.T) {
	repo := &mockScheduleRepo{week: []models.ScheduleDetails{
		occupiedSlot("s-existing", "p1", "", "", "10:30", "12:00"),
	}}
	service := newScheduleService(repo, nil, nil)

	_, err := service.Create(context.Background(), validCreateRequest(), "admin-1")
	require.Error(t, err)

	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrScheduleConflict.Code, appErr.Code)
	assert.Equal(t, 409, appErr.Status)

	var conflictErr *models.ScheduleConflictError
	require.True(t, errors.As(err, &conflictErr))
	assert.True(t, conflictErr.Report.HasConflict)
	require.Len(t, conflictErr.Report.Reasons, 1)
	assert.Contains(t, conflictErr.Report.Reasons[0], "Marco Cruz")
	assert.Empty(t, repo.created)
}

func TestScheduleServiceUpdateExcludesSelf(t *testing.T) {
	current := occupiedSlot("s1", "p1", "r1", "", "10:00", "11:00")
	repo := &mockScheduleRepo{
		items: map[string]*models.Schedule{"s1": &current.Schedule},
		week:  []models.ScheduleDetails{current},
	}
	service := newScheduleService(repo, nil, nil)

	room := "r1"
	req := UpdateScheduleRequest{
		SubjectID:     "sub1",
		ProfessorID:   "p1",
		RoomID:        &room,
		DayOfWeek:     "monday",
		StartTime:     "10:30",
		EndTime:       "11:30",
		Semester:      "1st",
		AcademicYear:  "2025-2026",
		ClassType:     "in-person",
		WeekStartDate: testWeek,
	}
	updated, err := service.Update(context.Background(), "s1", req, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, "10:30", updated.StartTime)
	assert.Len(t, repo.updated, 1)
}

func TestScheduleServiceCheckReportsConflict(t *testing.T) {
	repo := &mockScheduleRepo{week: []models.ScheduleDetails{
		occupiedSlot("s-existing", "p2", "r1", "", "09:00", "10:30"),
	}}
	service := newScheduleService(repo, nil, nil)

	room := "r1"
	report, err := service.Check(context.Background(), CheckScheduleRequest{
		SubjectID:     "sub1",
		ProfessorID:   "p1",
		RoomID:        &room,
		DayOfWeek:     "monday",
		StartTime:     "10:00",
		EndTime:       "11:00",
		ClassType:     "in-person",
		WeekStartDate: testWeek,
	})
	require.NoError(t, err)
	assert.True(t, report.HasConflict)
	require.Len(t, report.Reasons, 1)
	assert.Contains(t, report.Reasons[0], "RM-204")
}

func TestScheduleServiceCheckClear(t *testing.T) {
	repo := &mockScheduleRepo{week: []models.ScheduleDetails{
		occupiedSlot("s-existing", "p2", "r1", "", "08:00", "10:00"),
	}}
	service := newScheduleService(repo, nil, nil)

	report, err := service.Check(context.Background(), CheckScheduleRequest{
		SubjectID:     "sub1",
		ProfessorID:   "p1",
		DayOfWeek:     "monday",
		StartTime:     "10:00",
		EndTime:       "11:00",
		ClassType:     "remote",
		WeekStartDate: testWeek,
	})
	require.NoError(t, err)
	assert.False(t, report.HasConflict)
	assert.Empty(t, report.Reasons)
}

func TestScheduleServiceCreateInPersonRequiresRoom(t *testing.T) {
	service := newScheduleService(&mockScheduleRepo{}, nil, nil)

	req := validCreateRequest()
	req.RoomID = nil
	_, err := service.Create(context.Background(), req, "admin-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestScheduleServiceCreateRejectsMalformedTime(t *testing.T) {
	service := newScheduleService(&mockScheduleRepo{}, nil, nil)

	req := validCreateRequest()
	req.StartTime = "25:00"
	_, err := service.Create(context.Background(), req, "admin-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidTimeFormat.Code, appErrors.FromError(err).Code)
}

func TestScheduleServiceCreateUnknownProfessor(t *testing.T) {
	service := newScheduleService(&mockScheduleRepo{}, nil, nil)

	req := validCreateRequest()
	req.ProfessorID = "missing"
	_, err := service.Create(context.Background(), req, "admin-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
