package models

import "time"

// Section represents a student cohort.
type Section struct {
	ID        string    `db:"id" json:"id"`
	Code      string    `db:"code" json:"code"`
	Name      string    `db:"name" json:"name"`
	YearLevel *string   `db:"year_level" json:"year_level,omitempty"`
	Capacity  *int      `db:"capacity" json:"capacity,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// SectionFilter captures supported filters for listing sections.
type SectionFilter struct {
	YearLevel string
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
