package models

import (
	"time"

	"github.com/lib/pq"
)

// Professor represents a teaching staff record.
type Professor struct {
	ID           string         `db:"id" json:"id"`
	FirstName    string         `db:"first_name" json:"first_name"`
	LastName     string         `db:"last_name" json:"last_name"`
	Email        string         `db:"email" json:"email"`
	DepartmentID string         `db:"department_id" json:"department_id"`
	UserID       *string        `db:"user_id" json:"user_id,omitempty"`
	SubjectIDs   pq.StringArray `db:"subject_ids" json:"subject_ids"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updated_at"`
}

// FullName returns the professor display name used in conflict messages.
func (p Professor) FullName() string {
	return p.FirstName + " " + p.LastName
}

// ProfessorFilter captures filtering options for listing professors.
type ProfessorFilter struct {
	DepartmentID string
	Search       string
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}
