package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/seanutri/seanutri-api/internal/models"
)

// DashboardRepository computes aggregate counts for the admin dashboard.
type DashboardRepository struct {
	db *sqlx.DB
}

// NewDashboardRepository constructs the repository.
func NewDashboardRepository(db *sqlx.DB) *DashboardRepository {
	return &DashboardRepository{db: db}
}

// Summary runs a single aggregate query over the core tables.
func (r *DashboardRepository) Summary(ctx context.Context) (*models.DashboardSummary, error) {
	const query = `SELECT
        (SELECT COUNT(*) FROM courses WHERE active) AS courses,
        (SELECT COUNT(*) FROM companies WHERE active) AS companies,
        (SELECT COUNT(*) FROM users WHERE role = 'STUDENT' AND active) AS students,
        (SELECT COUNT(*) FROM instructors WHERE active) AS instructors,
        (SELECT COUNT(*) FROM scheduled_classes WHERE status = 'SCHEDULED' AND starts_at >= NOW()) AS upcoming_classes,
        (SELECT COUNT(*) FROM enrollments WHERE status = 'IN_PROGRESS') AS active_enrollments,
        (SELECT COUNT(*) FROM enrollments WHERE approved = TRUE) AS issued_certificates,
        COALESCE((SELECT 100.0 * COUNT(*) FILTER (WHERE approved = TRUE) / NULLIF(COUNT(*), 0)
            FROM enrollments WHERE approved IS NOT NULL), 0) AS approval_rate`
	var summary models.DashboardSummary
	if err := r.db.GetContext(ctx, &summary, query); err != nil {
		return nil, fmt.Errorf("dashboard summary: %w", err)
	}
	return &summary, nil
}
