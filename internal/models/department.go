package models

import (
	"time"

	"github.com/lib/pq"
)

// Department represents an academic department offering subjects.
type Department struct {
	ID         string         `db:"id" json:"id"`
	Name       string         `db:"name" json:"name"`
	Code       string         `db:"code" json:"code"`
	YearLevel  *string        `db:"year_level" json:"year_level,omitempty"`
	SubjectIDs pq.StringArray `db:"subject_ids" json:"subject_ids"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time      `db:"updated_at" json:"updated_at"`
}

// DepartmentFilter captures supported filters for listing departments.
type DepartmentFilter struct {
	Search    string
	YearLevel string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
