package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/acadsched/class-scheduler-api/internal/conflict"
	"github.com/acadsched/class-scheduler-api/internal/models"
	appErrors "github.com/acadsched/class-scheduler-api/pkg/errors"
)

type adjustmentRequestRepository interface {
	List(ctx context.Context, filter models.AdjustmentRequestFilter) ([]models.AdjustmentRequest, int, error)
	FindByID(ctx context.Context, id string) (*models.AdjustmentRequest, error)
	Create(ctx context.Context, request *models.AdjustmentRequest) error
	Update(ctx context.Context, request *models.AdjustmentRequest) error
}

type requestProfessorStore interface {
	professorFinder
	FindByUserID(ctx context.Context, userID string) (*models.Professor, error)
}

type requestScheduleStore interface {
	FindByID(ctx context.Context, id string) (*models.Schedule, error)
	ListForWeek(ctx context.Context, weekStartDate int64) ([]models.ScheduleDetails, error)
	Update(ctx context.Context, schedule *models.Schedule) error
}

// CreateAdjustmentRequest is the payload a professor submits against a schedule.
type CreateAdjustmentRequest struct {
	ScheduleID string                  `json:"schedule_id" validate:"required"`
	Changes    models.RequestedChanges `json:"requested_changes"`
	Reason     string                  `json:"reason" validate:"required,min=10"`
}

// ReviewAdjustmentRequest is the admin decision payload.
type ReviewAdjustmentRequest struct {
	Decision string  `json:"decision" validate:"required,oneof=approved denied"`
	Notes    *string `json:"notes"`
}

// AdjustmentRequestService manages the professor change-request workflow.
// Approval merges the requested changes into the schedule only after a fresh
// conflict evaluation passes.
type AdjustmentRequestService struct {
	repo          adjustmentRequestRepository
	schedules     requestScheduleStore
	professors    requestProfessorStore
	subjects      subjectFinder
	rooms         roomFinder
	auditLogs     auditWriter
	notifications notificationWriter
	cache         *CacheService
	metrics       *MetricsService
	validator     *validator.Validate
	logger        *zap.Logger
}

// NewAdjustmentRequestService constructs an AdjustmentRequestService.
func NewAdjustmentRequestService(repo adjustmentRequestRepository, schedules requestScheduleStore, professors requestProfessorStore, subjects subjectFinder, rooms roomFinder, auditLogs auditWriter, notifications notificationWriter, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *AdjustmentRequestService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdjustmentRequestService{
		repo:          repo,
		schedules:     schedules,
		professors:    professors,
		subjects:      subjects,
		rooms:         rooms,
		auditLogs:     auditLogs,
		notifications: notifications,
		cache:         cache,
		metrics:       metrics,
		validator:     validate,
		logger:        logger,
	}
}

// List returns adjustment requests plus pagination data.
func (s *AdjustmentRequestService) List(ctx context.Context, filter models.AdjustmentRequestFilter) ([]models.AdjustmentRequest, *models.Pagination, error) {
	requests, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list adjustment requests")
	}
	for i := range requests {
		if err := decodeChanges(&requests[i]); err != nil {
			s.logger.Warn("failed to decode requested changes", zap.String("request_id", requests[i].ID), zap.Error(err))
		}
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return requests, pagination, nil
}

// ListMine returns the adjustment requests filed by the professor linked to
// the given user account.
func (s *AdjustmentRequestService) ListMine(ctx context.Context, userID string, filter models.AdjustmentRequestFilter) ([]models.AdjustmentRequest, *models.Pagination, error) {
	professor, err := s.professors.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "no professor profile linked to this account")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve professor profile")
	}
	filter.ProfessorID = professor.ID
	return s.List(ctx, filter)
}

// Get returns an adjustment request by id.
func (s *AdjustmentRequestService) Get(ctx context.Context, id string) (*models.AdjustmentRequest, error) {
	request, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "adjustment request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load adjustment request")
	}
	if err := decodeChanges(request); err != nil {
		s.logger.Warn("failed to decode requested changes", zap.String("request_id", request.ID), zap.Error(err))
	}
	return request, nil
}

// GetOwned returns an adjustment request only when it was filed by the
// professor linked to the given user account.
func (s *AdjustmentRequestService) GetOwned(ctx context.Context, id, userID string) (*models.AdjustmentRequest, error) {
	request, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	professor, err := s.professors.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "no professor profile linked to this account")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve professor profile")
	}
	if request.ProfessorID != professor.ID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "adjustment request belongs to another professor")
	}
	return request, nil
}

// Create files a pending request. The acting user must be the professor the
// schedule is assigned to.
func (s *AdjustmentRequestService) Create(ctx context.Context, userID string, req CreateAdjustmentRequest) (*models.AdjustmentRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid adjustment request payload")
	}
	if !hasAnyChange(req.Changes) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "requested_changes must include at least one field")
	}
	if err := validateChangeFields(req.Changes); err != nil {
		return nil, err
	}

	schedule, err := s.schedules.FindByID(ctx, req.ScheduleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}

	professor, err := s.professors.FindByID(ctx, schedule.ProfessorID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "professor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load professor")
	}
	if professor.UserID == nil || *professor.UserID != userID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the assigned professor may request changes")
	}

	payload, err := json.Marshal(req.Changes)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode requested changes")
	}

	changes := req.Changes
	request := &models.AdjustmentRequest{
		ScheduleID:       schedule.ID,
		ProfessorID:      schedule.ProfessorID,
		RequestedChanges: payload,
		Changes:          &changes,
		Reason:           strings.TrimSpace(req.Reason),
		Status:           models.RequestPending,
	}

	if err := s.repo.Create(ctx, request); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create adjustment request")
	}

	s.recordAudit(ctx, userID, models.AuditActionCreate, request.ID, payload)
	return request, nil
}

// Review approves or denies a pending request. Approving re-runs the conflict
// engine against the merged schedule with the schedule's own id excluded; a
// conflicted merge is rejected and the request stays pending.
func (s *AdjustmentRequestService) Review(ctx context.Context, id, reviewerID string, req ReviewAdjustmentRequest) (*models.AdjustmentRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid review payload")
	}

	request, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "adjustment request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load adjustment request")
	}
	if request.Status != models.RequestPending {
		return nil, appErrors.Clone(appErrors.ErrConflict, "adjustment request already reviewed")
	}
	if err := decodeChanges(request); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to decode requested changes")
	}

	if req.Decision == "approved" {
		if err := s.applyChanges(ctx, request); err != nil {
			return nil, err
		}
		request.Status = models.RequestApproved
	} else {
		request.Status = models.RequestDenied
	}

	now := time.Now().UTC()
	request.ReviewedBy = &reviewerID
	request.ReviewedAt = &now
	request.ReviewNotes = normalizeOptional(req.Notes)

	if err := s.repo.Update(ctx, request); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update adjustment request")
	}

	s.recordAudit(ctx, reviewerID, models.AuditActionReview, request.ID, []byte(fmt.Sprintf(`{"decision":%q}`, req.Decision)))
	s.notifyRequester(ctx, request, req.Decision)
	return request, nil
}

func (s *AdjustmentRequestService) applyChanges(ctx context.Context, request *models.AdjustmentRequest) error {
	schedule, err := s.schedules.FindByID(ctx, request.ScheduleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "schedule no longer exists")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}

	merged := *schedule
	if request.Changes != nil {
		if request.Changes.DayOfWeek != nil {
			merged.DayOfWeek = conflict.DayOfWeek(strings.ToLower(*request.Changes.DayOfWeek))
		}
		if request.Changes.StartTime != nil {
			merged.StartTime = *request.Changes.StartTime
		}
		if request.Changes.EndTime != nil {
			merged.EndTime = *request.Changes.EndTime
		}
		if request.Changes.RoomID != nil {
			merged.RoomID = normalizeOptional(request.Changes.RoomID)
		}
		if request.Changes.ClassType != nil {
			merged.ClassType = conflict.DeliveryMode(*request.Changes.ClassType)
		}
	}

	if !merged.DayOfWeek.Valid() {
		return appErrors.Clone(appErrors.ErrValidation, "requested day_of_week is invalid")
	}
	if !merged.ClassType.Valid() {
		return appErrors.Clone(appErrors.ErrValidation, "requested class_type is invalid")
	}
	if merged.ClassType == conflict.InPerson && (merged.RoomID == nil || *merged.RoomID == "") {
		return appErrors.Clone(appErrors.ErrValidation, "room_id is required for in-person classes")
	}
	span, err := conflict.SpanMinutes(merged.StartTime, merged.EndTime)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInvalidTimeFormat.Code, appErrors.ErrInvalidTimeFormat.Status, "requested times must be 24-hour HH:MM")
	}
	if span <= 0 {
		return appErrors.Clone(appErrors.ErrValidation, "requested end_time must be after start_time")
	}

	proposed, err := buildAssignment(ctx, s.professors, s.subjects, s.rooms, merged)
	if err != nil {
		return err
	}

	rows, err := s.schedules.ListForWeek(ctx, merged.WeekStartDate)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedules for conflict check")
	}
	candidates := make([]conflict.Assignment, 0, len(rows))
	for _, row := range rows {
		candidates = append(candidates, row.Assignment())
	}

	report, err := conflict.Evaluate(proposed, candidates, schedule.ID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInvalidTimeFormat.Code, appErrors.ErrInvalidTimeFormat.Status, "schedule times must be 24-hour HH:MM")
	}
	s.metrics.RecordConflictCheck(report.HasConflict)
	if report.HasConflict {
		domainErr := &models.ScheduleConflictError{Report: report}
		return appErrors.Wrap(domainErr, appErrors.ErrScheduleConflict.Code, appErrors.ErrScheduleConflict.Status, domainErr.Error())
	}

	if err := s.schedules.Update(ctx, &merged); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to apply schedule changes")
	}

	if err := s.cache.Invalidate(ctx, "reports:*"); err != nil {
		s.logger.Warn("failed to invalidate report caches", zap.Error(err))
	}
	return nil
}

func (s *AdjustmentRequestService) notifyRequester(ctx context.Context, request *models.AdjustmentRequest, decision string) {
	if s.notifications == nil {
		return
	}
	professor, err := s.professors.FindByID(ctx, request.ProfessorID)
	if err != nil || professor.UserID == nil {
		return
	}
	notificationType := models.NotificationSuccess
	message := "Your schedule adjustment request was approved."
	if decision != "approved" {
		notificationType = models.NotificationWarning
		message = "Your schedule adjustment request was denied."
	}
	notification := &models.Notification{
		UserID:              *professor.UserID,
		Title:               "Adjustment request reviewed",
		Message:             message,
		Type:                notificationType,
		RelatedResourceType: strPtr("adjustment_request"),
		RelatedResourceID:   &request.ID,
	}
	if err := s.notifications.Create(ctx, notification); err != nil {
		s.logger.Warn("failed to create review notification", zap.Error(err))
	}
}

func (s *AdjustmentRequestService) recordAudit(ctx context.Context, actorID, action, requestID string, payload []byte) {
	if s.auditLogs == nil {
		return
	}
	entry := &models.AuditLog{
		Action:     action,
		Resource:   "adjustment_requests",
		ResourceID: &requestID,
		NewValues:  payload,
	}
	if actorID != "" {
		entry.UserID = &actorID
	}
	if err := s.auditLogs.Create(ctx, entry); err != nil {
		s.logger.Warn("failed to record adjustment request audit log", zap.Error(err))
	}
}

func decodeChanges(request *models.AdjustmentRequest) error {
	if request.Changes != nil || len(request.RequestedChanges) == 0 {
		return nil
	}
	var changes models.RequestedChanges
	if err := json.Unmarshal(request.RequestedChanges, &changes); err != nil {
		return err
	}
	request.Changes = &changes
	return nil
}

func hasAnyChange(c models.RequestedChanges) bool {
	return c.DayOfWeek != nil || c.StartTime != nil || c.EndTime != nil || c.RoomID != nil || c.ClassType != nil
}

func validateChangeFields(c models.RequestedChanges) error {
	if c.DayOfWeek != nil && !conflict.DayOfWeek(strings.ToLower(*c.DayOfWeek)).Valid() {
		return appErrors.Clone(appErrors.ErrValidation, "day_of_week must be monday through sunday")
	}
	if c.ClassType != nil && !conflict.DeliveryMode(*c.ClassType).Valid() {
		return appErrors.Clone(appErrors.ErrValidation, "class_type must be in-person or remote")
	}
	if c.StartTime != nil {
		if _, err := conflict.ParseClock(*c.StartTime); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInvalidTimeFormat.Code, appErrors.ErrInvalidTimeFormat.Status, "start_time must be 24-hour HH:MM")
		}
	}
	if c.EndTime != nil {
		if _, err := conflict.ParseClock(*c.EndTime); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInvalidTimeFormat.Code, appErrors.ErrInvalidTimeFormat.Status, "end_time must be 24-hour HH:MM")
		}
	}
	return nil
}
