package models

import (
	"time"

	"github.com/acadsched/class-scheduler-api/internal/conflict"
)

// Schedule represents a class assignment: a subject taught by a professor at a
// weekly day/time, optionally bound to a room and a section cohort. The week
// start date (Unix milliseconds of that week's Monday) scopes the record to a
// single week instance so recurring schedules can vary week to week.
type Schedule struct {
	ID            string                `db:"id" json:"id"`
	SubjectID     string                `db:"subject_id" json:"subject_id"`
	ProfessorID   string                `db:"professor_id" json:"professor_id"`
	RoomID        *string               `db:"room_id" json:"room_id,omitempty"`
	DayOfWeek     conflict.DayOfWeek    `db:"day_of_week" json:"day_of_week"`
	StartTime     string                `db:"start_time" json:"start_time"`
	EndTime       string                `db:"end_time" json:"end_time"`
	Semester      string                `db:"semester" json:"semester"`
	AcademicYear  string                `db:"academic_year" json:"academic_year"`
	Section       *string               `db:"section" json:"section,omitempty"`
	YearLevel     *string               `db:"year_level" json:"year_level,omitempty"`
	ClassType     conflict.DeliveryMode `db:"class_type" json:"class_type"`
	WeekStartDate int64                 `db:"week_start_date" json:"week_start_date"`
	Notes         *string               `db:"notes" json:"notes,omitempty"`
	IsPinned      bool                  `db:"is_pinned" json:"is_pinned"`
	CreatedBy     string                `db:"created_by" json:"created_by"`
	CreatedAt     time.Time             `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time             `db:"updated_at" json:"updated_at"`
}

// ScheduleDetails joins a schedule with the display fields conflict messages
// and list views need.
type ScheduleDetails struct {
	Schedule
	ProfessorName string  `db:"professor_name" json:"professor_name"`
	SubjectCode   string  `db:"subject_code" json:"subject_code"`
	SubjectName   string  `db:"subject_name" json:"subject_name"`
	RoomCode      *string `db:"room_code" json:"room_code,omitempty"`
}

// Assignment converts the row into the conflict engine's input shape.
func (s ScheduleDetails) Assignment() conflict.Assignment {
	a := conflict.Assignment{
		ID:             s.ID,
		InstructorID:   s.ProfessorID,
		InstructorName: s.ProfessorName,
		SubjectCode:    s.SubjectCode,
		Day:            s.DayOfWeek,
		StartTime:      s.StartTime,
		EndTime:        s.EndTime,
		Mode:           s.ClassType,
		WeekKey:        s.WeekStartDate,
	}
	if s.RoomID != nil {
		a.RoomID = *s.RoomID
	}
	if s.RoomCode != nil {
		a.RoomCode = *s.RoomCode
	}
	if s.Section != nil {
		a.SectionLabel = *s.Section
	}
	return a
}

// ScheduleConflictError carries the engine report when a schedule write is
// rejected. Conflict is an expected outcome, so the report rides along for the
// response body instead of being flattened into a message.
type ScheduleConflictError struct {
	Report conflict.Report
}

// Error implements the error interface.
func (e *ScheduleConflictError) Error() string {
	if e == nil || len(e.Report.Reasons) == 0 {
		return "schedule conflict detected"
	}
	return e.Report.Reasons[0]
}

// ScheduleFilter describes query params for listing schedules.
type ScheduleFilter struct {
	ProfessorID   string
	RoomID        string
	SubjectID     string
	DayOfWeek     string
	Section       string
	ClassType     string
	Semester      string
	AcademicYear  string
	WeekStartDate *int64
	Page          int
	PageSize      int
	SortBy        string
	SortOrder     string
}
