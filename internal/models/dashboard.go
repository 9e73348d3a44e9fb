package models

import "time"

// DashboardSummary aggregates headline counts for the admin dashboard.
type DashboardSummary struct {
	Courses             int       `db:"courses" json:"courses"`
	Companies           int       `db:"companies" json:"companies"`
	Students            int       `db:"students" json:"students"`
	Instructors         int       `db:"instructors" json:"instructors"`
	UpcomingClasses     int       `db:"upcoming_classes" json:"upcoming_classes"`
	ActiveEnrollments   int       `db:"active_enrollments" json:"active_enrollments"`
	IssuedCertificates  int       `db:"issued_certificates" json:"issued_certificates"`
	ApprovalRatePercent float64   `db:"approval_rate" json:"approval_rate_percent"`
	GeneratedAt         time.Time `json:"generated_at"`
}
