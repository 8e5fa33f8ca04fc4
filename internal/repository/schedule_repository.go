package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/acadsched/class-scheduler-api/internal/models"
)

const scheduleColumns = "id, subject_id, professor_id, room_id, day_of_week, start_time, end_time, semester, academic_year, section, year_level, class_type, week_start_date, notes, is_pinned, created_by, created_at, updated_at"

const scheduleDetailColumns = `s.id, s.subject_id, s.professor_id, s.room_id, s.day_of_week, s.start_time, s.end_time, s.semester, s.academic_year, s.section, s.year_level, s.class_type, s.week_start_date, s.notes, s.is_pinned, s.created_by, s.created_at, s.updated_at,
	p.first_name || ' ' || p.last_name AS professor_name, sub.code AS subject_code, sub.name AS subject_name, r.code AS room_code`

const scheduleDetailJoins = ` FROM schedules s
	JOIN professors p ON p.id = s.professor_id
	JOIN subjects sub ON sub.id = s.subject_id
	LEFT JOIN rooms r ON r.id = s.room_id`

// ScheduleRepository provides persistence for class schedules.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository creates a new schedule repository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// List returns schedules with optional filtering and pagination.
func (r *ScheduleRepository) List(ctx context.Context, filter models.ScheduleFilter) ([]models.ScheduleDetails, int, error) {
	base := scheduleDetailJoins + " WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.ProfessorID != "" {
		conditions = append(conditions, fmt.Sprintf("s.professor_id = $%d", len(args)+1))
		args = append(args, filter.ProfessorID)
	}
	if filter.RoomID != "" {
		conditions = append(conditions, fmt.Sprintf("s.room_id = $%d", len(args)+1))
		args = append(args, filter.RoomID)
	}
	if filter.SubjectID != "" {
		conditions = append(conditions, fmt.Sprintf("s.subject_id = $%d", len(args)+1))
		args = append(args, filter.SubjectID)
	}
	if filter.DayOfWeek != "" {
		conditions = append(conditions, fmt.Sprintf("s.day_of_week = $%d", len(args)+1))
		args = append(args, filter.DayOfWeek)
	}
	if filter.Section != "" {
		conditions = append(conditions, fmt.Sprintf("s.section = $%d", len(args)+1))
		args = append(args, filter.Section)
	}
	if filter.ClassType != "" {
		conditions = append(conditions, fmt.Sprintf("s.class_type = $%d", len(args)+1))
		args = append(args, filter.ClassType)
	}
	if filter.Semester != "" {
		conditions = append(conditions, fmt.Sprintf("s.semester = $%d", len(args)+1))
		args = append(args, filter.Semester)
	}
	if filter.AcademicYear != "" {
		conditions = append(conditions, fmt.Sprintf("s.academic_year = $%d", len(args)+1))
		args = append(args, filter.AcademicYear)
	}
	if filter.WeekStartDate != nil {
		conditions = append(conditions, fmt.Sprintf("s.week_start_date = $%d", len(args)+1))
		args = append(args, *filter.WeekStartDate)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]string{
		"day_of_week":     "s.day_of_week",
		"start_time":      "s.start_time",
		"week_start_date": "s.week_start_date",
		"created_at":      "s.created_at",
	}
	column, ok := allowedSorts[sortBy]
	if !ok {
		column = "s.day_of_week"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s%s ORDER BY %s %s, s.start_time ASC LIMIT %d OFFSET %d", scheduleDetailColumns, base, column, order, size, offset)
	var schedules []models.ScheduleDetails
	if err := r.db.SelectContext(ctx, &schedules, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list schedules: %w", err)
	}

	countQuery := "SELECT COUNT(*)" + base
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count schedules: %w", err)
	}

	return schedules, total, nil
}

// FindByID loads a schedule by id.
func (r *ScheduleRepository) FindByID(ctx context.Context, id string) (*models.Schedule, error) {
	query := fmt.Sprintf("SELECT %s FROM schedules WHERE id = $1", scheduleColumns)
	var sched models.Schedule
	if err := r.db.GetContext(ctx, &sched, query, id); err != nil {
		return nil, err
	}
	return &sched, nil
}

// ListForWeek returns every schedule in the given week joined with the
// display fields conflict messages cite. This is the candidate set handed to
// the conflict engine, which applies its own day and interval filtering.
func (r *ScheduleRepository) ListForWeek(ctx context.Context, weekStartDate int64) ([]models.ScheduleDetails, error) {
	query := fmt.Sprintf("SELECT %s%s WHERE s.week_start_date = $1 ORDER BY s.day_of_week ASC, s.start_time ASC", scheduleDetailColumns, scheduleDetailJoins)
	var schedules []models.ScheduleDetails
	if err := r.db.SelectContext(ctx, &schedules, query, weekStartDate); err != nil {
		return nil, fmt.Errorf("list week schedules: %w", err)
	}
	return schedules, nil
}

// ListByProfessor returns schedules taught by a professor ordered by day/time.
func (r *ScheduleRepository) ListByProfessor(ctx context.Context, professorID string) ([]models.ScheduleDetails, error) {
	query := fmt.Sprintf("SELECT %s%s WHERE s.professor_id = $1 ORDER BY s.week_start_date DESC, s.day_of_week ASC, s.start_time ASC", scheduleDetailColumns, scheduleDetailJoins)
	var schedules []models.ScheduleDetails
	if err := r.db.SelectContext(ctx, &schedules, query, professorID); err != nil {
		return nil, fmt.Errorf("list professor schedules: %w", err)
	}
	return schedules, nil
}

// ListByRoom returns schedules booked in a room ordered by day/time.
func (r *ScheduleRepository) ListByRoom(ctx context.Context, roomID string) ([]models.ScheduleDetails, error) {
	query := fmt.Sprintf("SELECT %s%s WHERE s.room_id = $1 ORDER BY s.week_start_date DESC, s.day_of_week ASC, s.start_time ASC", scheduleDetailColumns, scheduleDetailJoins)
	var schedules []models.ScheduleDetails
	if err := r.db.SelectContext(ctx, &schedules, query, roomID); err != nil {
		return nil, fmt.Errorf("list room schedules: %w", err)
	}
	return schedules, nil
}

// Create stores a new schedule record.
func (r *ScheduleRepository) Create(ctx context.Context, schedule *models.Schedule) error {
	if schedule.ID == "" {
		schedule.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if schedule.CreatedAt.IsZero() {
		schedule.CreatedAt = now
	}
	schedule.UpdatedAt = now

	const query = `INSERT INTO schedules (id, subject_id, professor_id, room_id, day_of_week, start_time, end_time, semester, academic_year, section, year_level, class_type, week_start_date, notes, is_pinned, created_by, created_at, updated_at) VALUES (:id, :subject_id, :professor_id, :room_id, :day_of_week, :start_time, :end_time, :semester, :academic_year, :section, :year_level, :class_type, :week_start_date, :notes, :is_pinned, :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, schedule); err != nil {
		return fmt.Errorf("create schedule: %w", err)
	}
	return nil
}

// Update modifies a schedule record.
func (r *ScheduleRepository) Update(ctx context.Context, schedule *models.Schedule) error {
	schedule.UpdatedAt = time.Now().UTC()
	const query = `UPDATE schedules SET subject_id = :subject_id, professor_id = :professor_id, room_id = :room_id, day_of_week = :day_of_week, start_time = :start_time, end_time = :end_time, semester = :semester, academic_year = :academic_year, section = :section, year_level = :year_level, class_type = :class_type, week_start_date = :week_start_date, notes = :notes, is_pinned = :is_pinned, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, schedule); err != nil {
		return fmt.Errorf("update schedule: %w", err)
	}
	return nil
}

// Delete removes a schedule by id.
func (r *ScheduleRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM schedules WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}
	return nil
}
