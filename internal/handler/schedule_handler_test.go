package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/acadsched/class-scheduler-api/internal/middleware"
	"github.com/acadsched/class-scheduler-api/internal/models"
	"github.com/acadsched/class-scheduler-api/internal/service"
)

const handlerTestWeek = int64(1736121600000)

type stubScheduleRepo struct {
	week    []models.ScheduleDetails
	created []*models.Schedule
}

func (s *stubScheduleRepo) List(ctx context.Context, filter models.ScheduleFilter) ([]models.ScheduleDetails, int, error) {
	return s.week, len(s.week), nil
}

func (s *stubScheduleRepo) FindByID(ctx context.Context, id string) (*models.Schedule, error) {
	for _, row := range s.week {
		if row.ID == id {
			cp := row.Schedule
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *stubScheduleRepo) ListForWeek(ctx context.Context, weekStartDate int64) ([]models.ScheduleDetails, error) {
	var out []models.ScheduleDetails
	for _, row := range s.week {
		if row.WeekStartDate == weekStartDate {
			out = append(out, row)
		}
	}
	return out, nil
}

func (s *stubScheduleRepo) ListByProfessor(ctx context.Context, professorID string) ([]models.ScheduleDetails, error) {
	return s.week, nil
}

func (s *stubScheduleRepo) ListByRoom(ctx context.Context, roomID string) ([]models.ScheduleDetails, error) {
	return s.week, nil
}

func (s *stubScheduleRepo) Create(ctx context.Context, schedule *models.Schedule) error {
	schedule.ID = "sched-new"
	s.created = append(s.created, schedule)
	return nil
}

func (s *stubScheduleRepo) Update(ctx context.Context, schedule *models.Schedule) error { return nil }

func (s *stubScheduleRepo) Delete(ctx context.Context, id string) error { return nil }

type stubProfessorFinder struct{ items map[string]*models.Professor }

func (s *stubProfessorFinder) FindByID(ctx context.Context, id string) (*models.Professor, error) {
	if professor, ok := s.items[id]; ok {
		return professor, nil
	}
	return nil, sql.ErrNoRows
}

func (s *stubProfessorFinder) FindByUserID(ctx context.Context, userID string) (*models.Professor, error) {
	for _, professor := range s.items {
		if professor.UserID != nil && *professor.UserID == userID {
			return professor, nil
		}
	}
	return nil, sql.ErrNoRows
}

type stubSubjectFinder struct{ items map[string]*models.Subject }

func (s *stubSubjectFinder) FindByID(ctx context.Context, id string) (*models.Subject, error) {
	if subject, ok := s.items[id]; ok {
		return subject, nil
	}
	return nil, sql.ErrNoRows
}

type stubRoomFinder struct{ items map[string]*models.Room }

func (s *stubRoomFinder) FindByID(ctx context.Context, id string) (*models.Room, error) {
	if room, ok := s.items[id]; ok {
		return room, nil
	}
	return nil, sql.ErrNoRows
}

type stubAuditWriter struct{}

func (s *stubAuditWriter) Create(ctx context.Context, log *models.AuditLog) error { return nil }

type stubNotificationWriter struct{}

func (s *stubNotificationWriter) Create(ctx context.Context, notification *models.Notification) error {
	return nil
}

func newGinContext(method, path string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

func newTestScheduleHandler(repo *stubScheduleRepo) *ScheduleHandler {
	professors := &stubProfessorFinder{items: map[string]*models.Professor{
		"p1": {ID: "p1", FirstName: "Elena", LastName: "Reyes"},
	}}
	subjects := &stubSubjectFinder{items: map[string]*models.Subject{
		"sub1": {ID: "sub1", Code: "CS101", Name: "Intro to Computing"},
	}}
	rooms := &stubRoomFinder{items: map[string]*models.Room{
		"r1": {ID: "r1", Code: "RM-204", Name: "Room 204"},
	}}
	svc := service.NewScheduleService(repo, professors, subjects, rooms, &stubAuditWriter{}, &stubNotificationWriter{}, nil, nil, nil, nil)
	return NewScheduleHandler(svc)
}

func occupiedWeekRow() models.ScheduleDetails {
	roomID := "r1"
	roomCode := "RM-204"
	return models.ScheduleDetails{
		Schedule: models.Schedule{
			ID:            "sched-1",
			SubjectID:     "sub1",
			ProfessorID:   "p1",
			RoomID:        &roomID,
			DayOfWeek:     "monday",
			StartTime:     "09:00",
			EndTime:       "10:30",
			Semester:      "1",
			AcademicYear:  "2025-2026",
			ClassType:     "in-person",
			WeekStartDate: handlerTestWeek,
		},
		ProfessorName: "Elena Reyes",
		SubjectCode:   "CS101",
		RoomCode:      &roomCode,
	}
}

func TestScheduleHandlerCheckClear(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newTestScheduleHandler(&stubScheduleRepo{})

	payload, _ := json.Marshal(service.CheckScheduleRequest{
		SubjectID:     "sub1",
		ProfessorID:   "p1",
		DayOfWeek:     "monday",
		StartTime:     "09:00",
		EndTime:       "10:30",
		ClassType:     "remote",
		WeekStartDate: handlerTestWeek,
	})
	c, w := newGinContext(http.MethodPost, "/schedules/check", payload)

	handler.Check(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data struct {
			HasConflict bool     `json:"has_conflict"`
			Reasons     []string `json:"reasons"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.False(t, envelope.Data.HasConflict)
	require.Empty(t, envelope.Data.Reasons)
}

func TestScheduleHandlerCheckReportsConflict(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newTestScheduleHandler(&stubScheduleRepo{week: []models.ScheduleDetails{occupiedWeekRow()}})

	roomID := "r1"
	payload, _ := json.Marshal(service.CheckScheduleRequest{
		SubjectID:     "sub1",
		ProfessorID:   "p1",
		RoomID:        &roomID,
		DayOfWeek:     "monday",
		StartTime:     "10:00",
		EndTime:       "11:00",
		ClassType:     "in-person",
		WeekStartDate: handlerTestWeek,
	})
	c, w := newGinContext(http.MethodPost, "/schedules/check", payload)

	handler.Check(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data struct {
			HasConflict bool     `json:"has_conflict"`
			Reasons     []string `json:"reasons"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.True(t, envelope.Data.HasConflict)
	require.NotEmpty(t, envelope.Data.Reasons)
	require.Contains(t, envelope.Data.Reasons[0], "Elena Reyes")
}

func TestScheduleHandlerCreateConflictRendersReport(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &stubScheduleRepo{week: []models.ScheduleDetails{occupiedWeekRow()}}
	handler := newTestScheduleHandler(repo)

	payload, _ := json.Marshal(service.CreateScheduleRequest{
		SubjectID:     "sub1",
		ProfessorID:   "p1",
		DayOfWeek:     "monday",
		StartTime:     "09:30",
		EndTime:       "11:00",
		Semester:      "1",
		AcademicYear:  "2025-2026",
		ClassType:     "remote",
		WeekStartDate: handlerTestWeek,
	})
	c, w := newGinContext(http.MethodPost, "/schedules", payload)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin})

	handler.Create(c)
	require.Equal(t, http.StatusConflict, w.Code)
	require.Empty(t, repo.created)

	var envelope struct {
		Data struct {
			HasConflict bool     `json:"has_conflict"`
			Reasons     []string `json:"reasons"`
		} `json:"data"`
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Equal(t, "SCHEDULE_CONFLICT", envelope.Error.Code)
	require.True(t, envelope.Data.HasConflict)
	require.NotEmpty(t, envelope.Data.Reasons)
}

func TestScheduleHandlerCreate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &stubScheduleRepo{}
	handler := newTestScheduleHandler(repo)

	roomID := "r1"
	payload, _ := json.Marshal(service.CreateScheduleRequest{
		SubjectID:     "sub1",
		ProfessorID:   "p1",
		RoomID:        &roomID,
		DayOfWeek:     "Monday",
		StartTime:     "09:00",
		EndTime:       "10:30",
		Semester:      "1",
		AcademicYear:  "2025-2026",
		ClassType:     "in-person",
		WeekStartDate: handlerTestWeek,
	})
	c, w := newGinContext(http.MethodPost, "/schedules", payload)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin})

	handler.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, repo.created, 1)
	require.Equal(t, "admin-1", repo.created[0].CreatedBy)
}

func TestScheduleHandlerListRejectsBadWeek(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newTestScheduleHandler(&stubScheduleRepo{})

	c, w := newGinContext(http.MethodGet, "/schedules?weekStartDate=notanumber", nil)

	handler.List(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}
