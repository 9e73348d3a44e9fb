package models

import "time"

// EnrollmentStatus represents the lifecycle of a course participation.
type EnrollmentStatus string

// Possible enrollment statuses.
const (
	EnrollmentStatusNotStarted EnrollmentStatus = "NOT_STARTED"
	EnrollmentStatusInProgress EnrollmentStatus = "IN_PROGRESS"
	EnrollmentStatusCompleted  EnrollmentStatus = "COMPLETED"
)

// Enrollment captures one user's participation in one course.
//
// Approved enrollments always carry a completion date and a verification
// code; enrollments that are not approved carry neither. The evaluation
// service is the only writer of those three fields.
type Enrollment struct {
	ID               string           `db:"id" json:"id"`
	CourseID         string           `db:"course_id" json:"course_id"`
	UserID           string           `db:"user_id" json:"user_id"`
	InstructorID     *string          `db:"instructor_id" json:"instructor_id,omitempty"`
	Status           EnrollmentStatus `db:"status" json:"status"`
	Grade            *float64         `db:"grade" json:"grade,omitempty"`
	Approved         *bool            `db:"approved" json:"approved,omitempty"`
	CompletionDate   *time.Time       `db:"completion_date" json:"completion_date,omitempty"`
	VerificationCode *string          `db:"verification_code" json:"verification_code,omitempty"`
	CreatedAt        time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time        `db:"updated_at" json:"updated_at"`
}

// IsApproved reports whether the enrollment passed evaluation.
func (e *Enrollment) IsApproved() bool {
	return e.Approved != nil && *e.Approved
}

// EnrollmentDetail enriches Enrollment with user and course info.
type EnrollmentDetail struct {
	Enrollment
	UserName    string `db:"user_name" json:"user_name"`
	UserEmail   string `db:"user_email" json:"user_email"`
	CourseTitle string `db:"course_title" json:"course_title"`
}

// EnrollmentFilter provides filters for listing enrollments.
type EnrollmentFilter struct {
	UserID    string
	CourseID  string
	CompanyID string
	Status    EnrollmentStatus
	Approved  *bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
