package models

import "time"

// RequestStatus enumerates the adjustment request lifecycle.
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestDenied   RequestStatus = "denied"
)

// RequestedChanges holds the schedule fields a professor asks to change. Nil
// fields keep the current value.
type RequestedChanges struct {
	DayOfWeek *string `json:"day_of_week,omitempty"`
	StartTime *string `json:"start_time,omitempty"`
	EndTime   *string `json:"end_time,omitempty"`
	RoomID    *string `json:"room_id,omitempty"`
	ClassType *string `json:"class_type,omitempty"`
}

// AdjustmentRequest represents a professor-submitted schedule change request.
// RequestedChanges is stored as a jsonb column.
type AdjustmentRequest struct {
	ID               string            `db:"id" json:"id"`
	ScheduleID       string            `db:"schedule_id" json:"schedule_id"`
	ProfessorID      string            `db:"professor_id" json:"professor_id"`
	RequestedChanges []byte            `db:"requested_changes" json:"-"`
	Changes          *RequestedChanges `db:"-" json:"requested_changes,omitempty"`
	Reason           string            `db:"reason" json:"reason"`
	Status           RequestStatus     `db:"status" json:"status"`
	ReviewedBy       *string           `db:"reviewed_by" json:"reviewed_by,omitempty"`
	ReviewedAt       *time.Time        `db:"reviewed_at" json:"reviewed_at,omitempty"`
	ReviewNotes      *string           `db:"review_notes" json:"review_notes,omitempty"`
	CreatedAt        time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time         `db:"updated_at" json:"updated_at"`
}

// AdjustmentRequestFilter captures listing criteria for requests.
type AdjustmentRequestFilter struct {
	ProfessorID string
	ScheduleID  string
	Status      string
	Page        int
	PageSize    int
}
