package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/acadsched/class-scheduler-api/internal/middleware"
	"github.com/acadsched/class-scheduler-api/internal/service"
	appErrors "github.com/acadsched/class-scheduler-api/pkg/errors"
	"github.com/acadsched/class-scheduler-api/pkg/response"
)

// ReportHandler exposes the weekly reporting endpoints.
type ReportHandler struct {
	service *service.ReportService
}

// NewReportHandler constructs a report handler.
func NewReportHandler(svc *service.ReportService) *ReportHandler {
	return &ReportHandler{service: svc}
}

func weekFromQuery(c *gin.Context) (int64, error) {
	raw := c.Query("weekStartDate")
	if raw == "" {
		return 0, appErrors.Clone(appErrors.ErrValidation, "weekStartDate required")
	}
	week, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, appErrors.Clone(appErrors.ErrValidation, "weekStartDate must be a unix millisecond timestamp")
	}
	return week, nil
}

func sendCSV(c *gin.Context, filename string, payload []byte) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "text/csv", payload)
}

// Workload godoc
// @Summary Professor workload report
// @Description Aggregated teaching hours per professor for a week. Use format=csv for a CSV download.
// @Tags Reports
// @Produce json
// @Param weekStartDate query int true "Week start (unix ms)"
// @Param format query string false "Set to csv for a file download"
// @Success 200 {object} response.Envelope
// @Router /reports/workload [get]
func (h *ReportHandler) Workload(c *gin.Context) {
	week, err := weekFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	report, hit, err := h.service.Workload(c.Request.Context(), week)
	if err != nil {
		response.Error(c, err)
		return
	}
	if c.Query("format") == "csv" {
		payload, err := h.service.WorkloadCSV(report)
		if err != nil {
			response.Error(c, err)
			return
		}
		sendCSV(c, fmt.Sprintf("workload-%d.csv", week), payload)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, report, nil, middleware.ExtractMeta(c))
}

// RoomUtilization godoc
// @Summary Room utilization report
// @Description Booked hours and utilization percentage per room for a week. Use format=csv for a CSV download.
// @Tags Reports
// @Produce json
// @Param weekStartDate query int true "Week start (unix ms)"
// @Param format query string false "Set to csv for a file download"
// @Success 200 {object} response.Envelope
// @Router /reports/room-utilization [get]
func (h *ReportHandler) RoomUtilization(c *gin.Context) {
	week, err := weekFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	report, hit, err := h.service.RoomUtilization(c.Request.Context(), week)
	if err != nil {
		response.Error(c, err)
		return
	}
	if c.Query("format") == "csv" {
		payload, err := h.service.RoomUtilizationCSV(report)
		if err != nil {
			response.Error(c, err)
			return
		}
		sendCSV(c, fmt.Sprintf("room-utilization-%d.csv", week), payload)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, report, nil, middleware.ExtractMeta(c))
}
