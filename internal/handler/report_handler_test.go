package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/acadsched/class-scheduler-api/internal/models"
	"github.com/acadsched/class-scheduler-api/internal/service"
	"github.com/acadsched/class-scheduler-api/pkg/config"
	"github.com/acadsched/class-scheduler-api/pkg/export"
)

type stubReportSource struct {
	rows []models.ScheduleDetails
}

func (s *stubReportSource) ListForWeek(ctx context.Context, weekStartDate int64) ([]models.ScheduleDetails, error) {
	var out []models.ScheduleDetails
	for _, row := range s.rows {
		if row.WeekStartDate == weekStartDate {
			out = append(out, row)
		}
	}
	return out, nil
}

func newTestReportHandler(rows []models.ScheduleDetails) *ReportHandler {
	rooms := &stubRoomFinder{items: map[string]*models.Room{
		"r1": {ID: "r1", Code: "RM-204", Name: "Room 204"},
	}}
	svc := service.NewReportService(&stubReportSource{rows: rows}, rooms, nil, export.NewCSVExporter(), nil, config.ReportsConfig{RoomWindowHours: 84})
	return NewReportHandler(svc)
}

func TestReportHandlerWorkload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newTestReportHandler([]models.ScheduleDetails{occupiedWeekRow()})

	c, w := newGinContext(http.MethodGet, "/reports/workload?weekStartDate=1736121600000", nil)

	handler.Workload(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data models.WorkloadReport  `json:"data"`
		Meta map[string]interface{} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data.Items, 1)
	require.Equal(t, "Elena Reyes", envelope.Data.Items[0].ProfessorName)
	require.InDelta(t, 1.5, envelope.Data.Items[0].TotalHours, 0.001)
	require.Equal(t, false, envelope.Meta["cache_hit"])
}

func TestReportHandlerWorkloadRequiresWeek(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newTestReportHandler(nil)

	c, w := newGinContext(http.MethodGet, "/reports/workload", nil)

	handler.Workload(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReportHandlerWorkloadCSVDownload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newTestReportHandler([]models.ScheduleDetails{occupiedWeekRow()})

	c, w := newGinContext(http.MethodGet, "/reports/workload?weekStartDate=1736121600000&format=csv", nil)

	handler.Workload(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Header().Get("Content-Disposition"), "workload-1736121600000.csv")
	require.Contains(t, w.Header().Get("Content-Type"), "text/csv")

	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	require.Len(t, lines, 2)
	require.Equal(t, "professor_id,professor_name,total_hours,total_subjects,total_classes", lines[0])
	require.Contains(t, lines[1], "Elena Reyes")
}

func TestReportHandlerRoomUtilization(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newTestReportHandler([]models.ScheduleDetails{occupiedWeekRow()})

	c, w := newGinContext(http.MethodGet, "/reports/room-utilization?weekStartDate=1736121600000", nil)

	handler.RoomUtilization(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data models.RoomUtilizationReport `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data.Items, 1)
	require.Equal(t, "RM-204", envelope.Data.Items[0].RoomCode)
	require.Equal(t, "Room 204", envelope.Data.Items[0].RoomName)
	require.InDelta(t, 1.5, envelope.Data.Items[0].TotalHours, 0.001)
}
