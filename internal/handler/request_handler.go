package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/acadsched/class-scheduler-api/internal/models"
	"github.com/acadsched/class-scheduler-api/internal/service"
	appErrors "github.com/acadsched/class-scheduler-api/pkg/errors"
	"github.com/acadsched/class-scheduler-api/pkg/response"
)

// RequestHandler handles the schedule adjustment-request workflow.
type RequestHandler struct {
	service *service.AdjustmentRequestService
}

// NewRequestHandler constructs a request handler.
func NewRequestHandler(svc *service.AdjustmentRequestService) *RequestHandler {
	return &RequestHandler{service: svc}
}

func requestFilterFromQuery(c *gin.Context) models.AdjustmentRequestFilter {
	var filter models.AdjustmentRequestFilter
	filter.ProfessorID = c.Query("professorId")
	filter.ScheduleID = c.Query("scheduleId")
	filter.Status = c.Query("status")
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = limit
	}
	return filter
}

// List godoc
// @Summary List adjustment requests
// @Tags AdjustmentRequests
// @Produce json
// @Param professorId query string false "Filter by professor"
// @Param scheduleId query string false "Filter by schedule"
// @Param status query string false "Filter by status"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /adjustment-requests [get]
func (h *RequestHandler) List(c *gin.Context) {
	requests, pagination, err := h.service.List(c.Request.Context(), requestFilterFromQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, requests, pagination)
}

// ListMine godoc
// @Summary List the current professor's adjustment requests
// @Tags AdjustmentRequests
// @Produce json
// @Param status query string false "Filter by status"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /adjustment-requests/mine [get]
func (h *RequestHandler) ListMine(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	requests, pagination, err := h.service.ListMine(c.Request.Context(), claims.UserID, requestFilterFromQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, requests, pagination)
}

// Get godoc
// @Summary Get adjustment request by id
// @Description Professors can only read their own requests; admins can read any.
// @Tags AdjustmentRequests
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /adjustment-requests/{id} [get]
func (h *RequestHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var request *models.AdjustmentRequest
	var err error
	if claims.Role == models.RoleAdmin {
		request, err = h.service.Get(c.Request.Context(), c.Param("id"))
	} else {
		request, err = h.service.GetOwned(c.Request.Context(), c.Param("id"), claims.UserID)
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}

// Create godoc
// @Summary File an adjustment request
// @Description Professors file change requests against their own schedule slots.
// @Tags AdjustmentRequests
// @Accept json
// @Produce json
// @Param payload body service.CreateAdjustmentRequest true "Request payload"
// @Success 201 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /adjustment-requests [post]
func (h *RequestHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.CreateAdjustmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	request, err := h.service.Create(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, request)
}

// Review godoc
// @Summary Approve or deny an adjustment request
// @Description Approval re-runs the conflict check against the merged schedule and is rejected with 409 when the merge would conflict.
// @Tags AdjustmentRequests
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body service.ReviewAdjustmentRequest true "Decision payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /adjustment-requests/{id}/review [post]
func (h *RequestHandler) Review(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.ReviewAdjustmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	request, err := h.service.Review(c.Request.Context(), c.Param("id"), claims.UserID, req)
	if err != nil {
		respondScheduleError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}
