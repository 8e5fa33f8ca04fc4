package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/acadsched/class-scheduler-api/internal/conflict"
	"github.com/acadsched/class-scheduler-api/internal/models"
	appErrors "github.com/acadsched/class-scheduler-api/pkg/errors"
)

type scheduleRepository interface {
	List(ctx context.Context, filter models.ScheduleFilter) ([]models.ScheduleDetails, int, error)
	FindByID(ctx context.Context, id string) (*models.Schedule, error)
	ListForWeek(ctx context.Context, weekStartDate int64) ([]models.ScheduleDetails, error)
	ListByProfessor(ctx context.Context, professorID string) ([]models.ScheduleDetails, error)
	ListByRoom(ctx context.Context, roomID string) ([]models.ScheduleDetails, error)
	Create(ctx context.Context, schedule *models.Schedule) error
	Update(ctx context.Context, schedule *models.Schedule) error
	Delete(ctx context.Context, id string) error
}

type professorFinder interface {
	FindByID(ctx context.Context, id string) (*models.Professor, error)
}

type subjectFinder interface {
	FindByID(ctx context.Context, id string) (*models.Subject, error)
}

type roomFinder interface {
	FindByID(ctx context.Context, id string) (*models.Room, error)
}

type auditWriter interface {
	Create(ctx context.Context, log *models.AuditLog) error
}

type notificationWriter interface {
	Create(ctx context.Context, notification *models.Notification) error
}

// CreateScheduleRequest describes payload for creating a schedule.
type CreateScheduleRequest struct {
	SubjectID     string  `json:"subject_id" validate:"required"`
	ProfessorID   string  `json:"professor_id" validate:"required"`
	RoomID        *string `json:"room_id"`
	DayOfWeek     string  `json:"day_of_week" validate:"required"`
	StartTime     string  `json:"start_time" validate:"required,len=5"`
	EndTime       string  `json:"end_time" validate:"required,len=5"`
	Semester      string  `json:"semester" validate:"required"`
	AcademicYear  string  `json:"academic_year" validate:"required"`
	Section       *string `json:"section"`
	YearLevel     *string `json:"year_level"`
	ClassType     string  `json:"class_type" validate:"required,oneof=in-person remote"`
	WeekStartDate int64   `json:"week_start_date" validate:"required"`
	Notes         *string `json:"notes"`
	IsPinned      bool    `json:"is_pinned"`
}

// UpdateScheduleRequest updates an existing schedule.
type UpdateScheduleRequest struct {
	SubjectID     string  `json:"subject_id" validate:"required"`
	ProfessorID   string  `json:"professor_id" validate:"required"`
	RoomID        *string `json:"room_id"`
	DayOfWeek     string  `json:"day_of_week" validate:"required"`
	StartTime     string  `json:"start_time" validate:"required,len=5"`
	EndTime       string  `json:"end_time" validate:"required,len=5"`
	Semester      string  `json:"semester" validate:"required"`
	AcademicYear  string  `json:"academic_year" validate:"required"`
	Section       *string `json:"section"`
	YearLevel     *string `json:"year_level"`
	ClassType     string  `json:"class_type" validate:"required,oneof=in-person remote"`
	WeekStartDate int64   `json:"week_start_date" validate:"required"`
	Notes         *string `json:"notes"`
	IsPinned      bool    `json:"is_pinned"`
}

// CheckScheduleRequest is the dry-run payload: a proposed schedule plus an
// optional schedule id to ignore when the form edits an existing entry.
type CheckScheduleRequest struct {
	SubjectID     string  `json:"subject_id" validate:"required"`
	ProfessorID   string  `json:"professor_id" validate:"required"`
	RoomID        *string `json:"room_id"`
	DayOfWeek     string  `json:"day_of_week" validate:"required"`
	StartTime     string  `json:"start_time" validate:"required,len=5"`
	EndTime       string  `json:"end_time" validate:"required,len=5"`
	Section       *string `json:"section"`
	ClassType     string  `json:"class_type" validate:"required,oneof=in-person remote"`
	WeekStartDate int64   `json:"week_start_date" validate:"required"`
	ExcludeID     *string `json:"exclude_id"`
}

// ScheduleService coordinates scheduling logic around the conflict engine.
type ScheduleService struct {
	repo          scheduleRepository
	professors    professorFinder
	subjects      subjectFinder
	rooms         roomFinder
	auditLogs     auditWriter
	notifications notificationWriter
	cache         *CacheService
	metrics       *MetricsService
	validator     *validator.Validate
	logger        *zap.Logger
}

// NewScheduleService instantiates ScheduleService.
func NewScheduleService(repo scheduleRepository, professors professorFinder, subjects subjectFinder, rooms roomFinder, auditLogs auditWriter, notifications notificationWriter, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *ScheduleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleService{
		repo:          repo,
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

// List returns schedule rows with pagination metadata.
func (s *ScheduleService) List(ctx context.Context, filter models.ScheduleFilter) ([]models.ScheduleDetails, *models.Pagination, error) {
	schedules, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schedules")
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
	return schedules, pagination, nil
}

// Get returns a schedule by id.
func (s *ScheduleService) Get(ctx context.Context, id string) (*models.Schedule, error) {
	schedule, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}
	return schedule, nil
}

// ListByProfessor returns all schedules assigned to a professor.
func (s *ScheduleService) ListByProfessor(ctx context.Context, professorID string) ([]models.ScheduleDetails, error) {
	schedules, err := s.repo.ListByProfessor(ctx, professorID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list professor schedules")
	}
	return schedules, nil
}

// ListByRoom returns all schedules booked into a room.
func (s *ScheduleService) ListByRoom(ctx context.Context, roomID string) ([]models.ScheduleDetails, error) {
	schedules, err := s.repo.ListByRoom(ctx, roomID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list room schedules")
	}
	return schedules, nil
}

// Create inserts a new schedule after conflict evaluation passes.
func (s *ScheduleService) Create(ctx context.Context, req CreateScheduleRequest, actorID string) (*models.Schedule, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
	}

	schedule := models.Schedule{
		SubjectID:     req.SubjectID,
		ProfessorID:   req.ProfessorID,
		RoomID:        req.RoomID,
		DayOfWeek:     conflict.DayOfWeek(strings.ToLower(req.DayOfWeek)),
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
		Semester:      strings.TrimSpace(req.Semester),
		AcademicYear:  strings.TrimSpace(req.AcademicYear),
		Section:       normalizeOptional(req.Section),
		YearLevel:     normalizeOptional(req.YearLevel),
		ClassType:     conflict.DeliveryMode(req.ClassType),
		WeekStartDate: req.WeekStartDate,
		Notes:         normalizeOptional(req.Notes),
		IsPinned:      req.IsPinned,
		CreatedBy:     actorID,
	}

	if err := s.validateScheduleFields(&schedule); err != nil {
		return nil, err
	}

	proposed, err := s.buildAssignment(ctx, schedule)
	if err != nil {
		return nil, err
	}
	if err := s.ensureNoConflict(ctx, proposed, ""); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, &schedule); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create schedule")
	}

	s.invalidateCaches(ctx)
	s.recordAudit(ctx, actorID, models.AuditActionCreate, schedule.ID, nil)
	s.notifyProfessor(ctx, schedule, "Schedule assigned", fmt.Sprintf("You have been scheduled for %s on %s from %s to %s.", proposed.SubjectCode, schedule.DayOfWeek, schedule.StartTime, schedule.EndTime))

	return &schedule, nil
}

// Update modifies an existing schedule, ignoring its current slot during
// conflict evaluation.
func (s *ScheduleService) Update(ctx context.Context, id string, req UpdateScheduleRequest, actorID string) (*models.Schedule, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}

	updated := models.Schedule{
		ID:            existing.ID,
		SubjectID:     req.SubjectID,
		ProfessorID:   req.ProfessorID,
		RoomID:        req.RoomID,
		DayOfWeek:     conflict.DayOfWeek(strings.ToLower(req.DayOfWeek)),
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
		Semester:      strings.TrimSpace(req.Semester),
		AcademicYear:  strings.TrimSpace(req.AcademicYear),
		Section:       normalizeOptional(req.Section),
		YearLevel:     normalizeOptional(req.YearLevel),
		ClassType:     conflict.DeliveryMode(req.ClassType),
		WeekStartDate: req.WeekStartDate,
		Notes:         normalizeOptional(req.Notes),
		IsPinned:      req.IsPinned,
		CreatedBy:     existing.CreatedBy,
		CreatedAt:     existing.CreatedAt,
	}

	if err := s.validateScheduleFields(&updated); err != nil {
		return nil, err
	}

	proposed, err := s.buildAssignment(ctx, updated)
	if err != nil {
		return nil, err
	}
	if err := s.ensureNoConflict(ctx, proposed, existing.ID); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, &updated); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update schedule")
	}

	s.invalidateCaches(ctx)
	s.recordAudit(ctx, actorID, models.AuditActionUpdate, updated.ID, nil)
	s.notifyProfessor(ctx, updated, "Schedule updated", fmt.Sprintf("Your %s class moved to %s from %s to %s.", proposed.SubjectCode, updated.DayOfWeek, updated.StartTime, updated.EndTime))

	return &updated, nil
}

// Delete removes a schedule entry.
func (s *ScheduleService) Delete(ctx context.Context, id string, actorID string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete schedule")
	}

	s.invalidateCaches(ctx)
	s.recordAudit(ctx, actorID, models.AuditActionDelete, id, nil)
	return nil
}

// Check runs the conflict engine without persisting anything. A conflicted
// result is a normal outcome, not an error.
func (s *ScheduleService) Check(ctx context.Context, req CheckScheduleRequest) (*conflict.Report, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid check payload")
	}

	schedule := models.Schedule{
		SubjectID:     req.SubjectID,
		ProfessorID:   req.ProfessorID,
		RoomID:        req.RoomID,
		DayOfWeek:     conflict.DayOfWeek(strings.ToLower(req.DayOfWeek)),
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
		Section:       normalizeOptional(req.Section),
		ClassType:     conflict.DeliveryMode(req.ClassType),
		WeekStartDate: req.WeekStartDate,
	}

	if err := s.validateScheduleFields(&schedule); err != nil {
		return nil, err
	}

	proposed, err := s.buildAssignment(ctx, schedule)
	if err != nil {
		return nil, err
	}

	excludeID := ""
	if req.ExcludeID != nil {
		excludeID = *req.ExcludeID
	}

	report, err := s.evaluate(ctx, proposed, excludeID)
	if err != nil {
		return nil, err
	}
	return &report, nil
}

func (s *ScheduleService) validateScheduleFields(schedule *models.Schedule) error {
	if !schedule.DayOfWeek.Valid() {
		return appErrors.Clone(appErrors.ErrValidation, "day_of_week must be monday through sunday")
	}
	if !schedule.ClassType.Valid() {
		return appErrors.Clone(appErrors.ErrValidation, "class_type must be in-person or remote")
	}
	if schedule.ClassType == conflict.InPerson && (schedule.RoomID == nil || *schedule.RoomID == "") {
		return appErrors.Clone(appErrors.ErrValidation, "room_id is required for in-person classes")
	}

	span, err := conflict.SpanMinutes(schedule.StartTime, schedule.EndTime)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInvalidTimeFormat.Code, appErrors.ErrInvalidTimeFormat.Status, "start_time and end_time must be 24-hour HH:MM")
	}
	if span <= 0 {
		return appErrors.Clone(appErrors.ErrValidation, "end_time must be after start_time")
	}
	return nil
}

// buildAssignment resolves the referenced entities and shapes the proposed
// schedule into the conflict engine's input.
func (s *ScheduleService) buildAssignment(ctx context.Context, schedule models.Schedule) (conflict.Assignment, error) {
	return buildAssignment(ctx, s.professors, s.subjects, s.rooms, schedule)
}

func (s *ScheduleService) ensureNoConflict(ctx context.Context, proposed conflict.Assignment, excludeID string) error {
	report, err := s.evaluate(ctx, proposed, excludeID)
	if err != nil {
		return err
	}
	if report.HasConflict {
		domainErr := &models.ScheduleConflictError{Report: report}
		return appErrors.Wrap(domainErr, appErrors.ErrScheduleConflict.Code, appErrors.ErrScheduleConflict.Status, domainErr.Error())
	}
	return nil
}

func (s *ScheduleService) evaluate(ctx context.Context, proposed conflict.Assignment, excludeID string) (conflict.Report, error) {
	rows, err := s.repo.ListForWeek(ctx, proposed.WeekKey)
	if err != nil {
		return conflict.Report{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedules for conflict check")
	}

	candidates := make([]conflict.Assignment, 0, len(rows))
	for _, row := range rows {
		candidates = append(candidates, row.Assignment())
	}

	report, err := conflict.Evaluate(proposed, candidates, excludeID)
	if err != nil {
		return conflict.Report{}, appErrors.Wrap(err, appErrors.ErrInvalidTimeFormat.Code, appErrors.ErrInvalidTimeFormat.Status, "schedule times must be 24-hour HH:MM")
	}
	s.metrics.RecordConflictCheck(report.HasConflict)
	return report, nil
}

func (s *ScheduleService) invalidateCaches(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, "reports:*"); err != nil {
		s.logger.Warn("failed to invalidate report caches", zap.Error(err))
	}
}

func (s *ScheduleService) recordAudit(ctx context.Context, actorID, action, scheduleID string, payload []byte) {
	if s.auditLogs == nil {
		return
	}
	entry := &models.AuditLog{
		Action:     action,
		Resource:   "schedules",
		ResourceID: &scheduleID,
		NewValues:  payload,
	}
	if actorID != "" {
		entry.UserID = &actorID
	}
	if err := s.auditLogs.Create(ctx, entry); err != nil {
		s.logger.Warn("failed to record schedule audit log", zap.Error(err))
	}
}

func (s *ScheduleService) notifyProfessor(ctx context.Context, schedule models.Schedule, title, message string) {
	if s.notifications == nil {
		return
	}
	professor, err := s.professors.FindByID(ctx, schedule.ProfessorID)
	if err != nil || professor.UserID == nil {
		return
	}
	notification := &models.Notification{
		UserID:              *professor.UserID,
		Title:               title,
		Message:             message,
		Type:                models.NotificationInfo,
		RelatedResourceType: strPtr("schedule"),
		RelatedResourceID:   &schedule.ID,
	}
	if err := s.notifications.Create(ctx, notification); err != nil {
		s.logger.Warn("failed to create schedule notification", zap.Error(err))
	}
}

// buildAssignment is shared with the adjustment review flow, which re-runs the
// engine against a merged schedule.
func buildAssignment(ctx context.Context, professors professorFinder, subjects subjectFinder, rooms roomFinder, schedule models.Schedule) (conflict.Assignment, error) {
	professor, err := professors.FindByID(ctx, schedule.ProfessorID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return conflict.Assignment{}, appErrors.Clone(appErrors.ErrValidation, "unknown professor_id")
		}
		return conflict.Assignment{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load professor")
	}

	subject, err := subjects.FindByID(ctx, schedule.SubjectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return conflict.Assignment{}, appErrors.Clone(appErrors.ErrValidation, "unknown subject_id")
		}
		return conflict.Assignment{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}

	assignment := conflict.Assignment{
		ID:             schedule.ID,
		InstructorID:   schedule.ProfessorID,
		InstructorName: professor.FullName(),
		SubjectCode:    subject.Code,
		Day:            schedule.DayOfWeek,
		StartTime:      schedule.StartTime,
		EndTime:        schedule.EndTime,
		Mode:           schedule.ClassType,
		WeekKey:        schedule.WeekStartDate,
	}
	if schedule.Section != nil {
		assignment.SectionLabel = *schedule.Section
	}

	if schedule.RoomID != nil && *schedule.RoomID != "" {
		room, err := rooms.FindByID(ctx, *schedule.RoomID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return conflict.Assignment{}, appErrors.Clone(appErrors.ErrValidation, "unknown room_id")
			}
			return conflict.Assignment{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load room")
		}
		assignment.RoomID = room.ID
		assignment.RoomCode = room.Code
	}

	return assignment, nil
}

func strPtr(s string) *string {
	return &s
}
