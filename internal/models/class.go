package models

import "time"

// ClassStatus represents the lifecycle of a scheduled class.
type ClassStatus string

// Possible class statuses.
const (
	ClassStatusScheduled ClassStatus = "SCHEDULED"
	ClassStatusCompleted ClassStatus = "COMPLETED"
)

// ScheduledClass is a concrete offering of a course. It exclusively owns its
// student roster; adding a student also creates or updates that student's
// enrollment for the course.
type ScheduledClass struct {
	ID           string      `db:"id" json:"id"`
	CourseID     string      `db:"course_id" json:"course_id"`
	InstructorID *string     `db:"instructor_id" json:"instructor_id,omitempty"`
	StartsAt     time.Time   `db:"starts_at" json:"starts_at"`
	EndsAt       time.Time   `db:"ends_at" json:"ends_at"`
	Location     string      `db:"location" json:"location"`
	LocationURL  string      `db:"location_url" json:"location_url"`
	Capacity     int         `db:"capacity" json:"capacity"`
	Status       ClassStatus `db:"status" json:"status"`
	CreatedAt    time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at" json:"updated_at"`
}

// ScheduledClassDetail enriches ScheduledClass with course and instructor info.
type ScheduledClassDetail struct {
	ScheduledClass
	CourseTitle    string `db:"course_title" json:"course_title"`
	InstructorName string `db:"instructor_name" json:"instructor_name"`
	StudentCount   int    `db:"student_count" json:"student_count"`
}

// ClassFilter captures filtering criteria for listing scheduled classes.
type ClassFilter struct {
	CourseID     string
	InstructorID string
	Status       ClassStatus
	From         *time.Time
	To           *time.Time
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}
