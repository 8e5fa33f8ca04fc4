package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/acadsched/class-scheduler-api/internal/middleware"
	"github.com/acadsched/class-scheduler-api/internal/models"
	"github.com/acadsched/class-scheduler-api/internal/service"
)

type stubRequestRepo struct {
	items map[string]*models.AdjustmentRequest
}

func (s *stubRequestRepo) List(ctx context.Context, filter models.AdjustmentRequestFilter) ([]models.AdjustmentRequest, int, error) {
	var out []models.AdjustmentRequest
	for _, request := range s.items {
		out = append(out, *request)
	}
	return out, len(out), nil
}

func (s *stubRequestRepo) FindByID(ctx context.Context, id string) (*models.AdjustmentRequest, error) {
	if request, ok := s.items[id]; ok {
		cp := *request
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (s *stubRequestRepo) Create(ctx context.Context, request *models.AdjustmentRequest) error {
	return nil
}

func (s *stubRequestRepo) Update(ctx context.Context, request *models.AdjustmentRequest) error {
	return nil
}

func newTestRequestHandler() *RequestHandler {
	elena := "u-elena"
	marco := "u-marco"
	professors := &stubProfessorFinder{items: map[string]*models.Professor{
		"p1": {ID: "p1", FirstName: "Elena", LastName: "Reyes", UserID: &elena},
		"p2": {ID: "p2", FirstName: "Marco", LastName: "Cruz", UserID: &marco},
	}}
	subjects := &stubSubjectFinder{items: map[string]*models.Subject{}}
	rooms := &stubRoomFinder{items: map[string]*models.Room{}}
	requests := &stubRequestRepo{items: map[string]*models.AdjustmentRequest{
		"req1": {
			ID:          "req1",
			ScheduleID:  "sched-1",
			ProfessorID: "p1",
			Reason:      "room is double booked for lab work",
			Status:      models.RequestPending,
		},
	}}
	svc := service.NewAdjustmentRequestService(requests, &stubScheduleRepo{}, professors, subjects, rooms, nil, nil, nil, nil, nil, nil)
	return NewRequestHandler(svc)
}

func TestRequestHandlerGetOwnRequest(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newTestRequestHandler()

	c, w := newGinContext(http.MethodGet, "/adjustment-requests/req1", nil)
	c.Params = gin.Params{{Key: "id", Value: "req1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "u-elena", Role: models.RoleProfessor})
	handler.Get(c)

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data models.AdjustmentRequest `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "req1", body.Data.ID)
}

func TestRequestHandlerGetRejectsOtherProfessor(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newTestRequestHandler()

	c, w := newGinContext(http.MethodGet, "/adjustment-requests/req1", nil)
	c.Params = gin.Params{{Key: "id", Value: "req1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "u-marco", Role: models.RoleProfessor})
	handler.Get(c)

	require.Equal(t, http.StatusForbidden, w.Code)

	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "FORBIDDEN", body.Error.Code)
}

func TestRequestHandlerGetAdminReadsAny(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newTestRequestHandler()

	c, w := newGinContext(http.MethodGet, "/adjustment-requests/req1", nil)
	c.Params = gin.Params{{Key: "id", Value: "req1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin})
	handler.Get(c)

	require.Equal(t, http.StatusOK, w.Code)
}
