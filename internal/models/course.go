package models

import "time"

// Course describes an offshore-training course in the catalogue.
type Course struct {
	ID             string    `db:"id" json:"id"`
	Title          string    `db:"title" json:"title"`
	Description    string    `db:"description" json:"description"`
	DurationHours  int       `db:"duration_hours" json:"duration_hours"`
	ValidityMonths int       `db:"validity_months" json:"validity_months"`
	InstructorID   *string   `db:"instructor_id" json:"instructor_id,omitempty"`
	Active         bool      `db:"active" json:"active"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// CourseFilter captures filtering criteria for listing courses.
type CourseFilter struct {
	Active    *bool
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
