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

const requestColumns = "id, schedule_id, professor_id, requested_changes, reason, status, reviewed_by, reviewed_at, review_notes, created_at, updated_at"

// AdjustmentRequestRepository manages persistence for schedule adjustment requests.
type AdjustmentRequestRepository struct {
	db *sqlx.DB
}

// NewAdjustmentRequestRepository constructs an AdjustmentRequestRepository.
func NewAdjustmentRequestRepository(db *sqlx.DB) *AdjustmentRequestRepository {
	return &AdjustmentRequestRepository{db: db}
}

// List returns adjustment requests matching filters along with total count.
func (r *AdjustmentRequestRepository) List(ctx context.Context, filter models.AdjustmentRequestFilter) ([]models.AdjustmentRequest, int, error) {
	base := "FROM adjustment_requests WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.ProfessorID != "" {
		conditions = append(conditions, fmt.Sprintf("professor_id = $%d", len(args)+1))
		args = append(args, filter.ProfessorID)
	}
	if filter.ScheduleID != "" {
		conditions = append(conditions, fmt.Sprintf("schedule_id = $%d", len(args)+1))
		args = append(args, filter.ScheduleID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY created_at DESC LIMIT %d OFFSET %d", requestColumns, base, size, offset)
	var requests []models.AdjustmentRequest
	if err := r.db.SelectContext(ctx, &requests, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list adjustment requests: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count adjustment requests: %w", err)
	}

	return requests, total, nil
}

// FindByID fetches an adjustment request by ID.
func (r *AdjustmentRequestRepository) FindByID(ctx context.Context, id string) (*models.AdjustmentRequest, error) {
	query := fmt.Sprintf("SELECT %s FROM adjustment_requests WHERE id = $1", requestColumns)
	var request models.AdjustmentRequest
	if err := r.db.GetContext(ctx, &request, query, id); err != nil {
		return nil, err
	}
	return &request, nil
}

// Create stores a new adjustment request.
func (r *AdjustmentRequestRepository) Create(ctx context.Context, request *models.AdjustmentRequest) error {
	if request.ID == "" {
		request.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	request.CreatedAt = now
	request.UpdatedAt = now

	const query = `INSERT INTO adjustment_requests (id, schedule_id, professor_id, requested_changes, reason, status, reviewed_by, reviewed_at, review_notes, created_at, updated_at) VALUES (:id, :schedule_id, :professor_id, :requested_changes, :reason, :status, :reviewed_by, :reviewed_at, :review_notes, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, request); err != nil {
		return fmt.Errorf("create adjustment request: %w", err)
	}
	return nil
}

// Update modifies an adjustment request, typically to record a review.
func (r *AdjustmentRequestRepository) Update(ctx context.Context, request *models.AdjustmentRequest) error {
	request.UpdatedAt = time.Now().UTC()
	const query = `UPDATE adjustment_requests SET status = :status, reviewed_by = :reviewed_by, reviewed_at = :reviewed_at, review_notes = :review_notes, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, request); err != nil {
		return fmt.Errorf("update adjustment request: %w", err)
	}
	return nil
}
