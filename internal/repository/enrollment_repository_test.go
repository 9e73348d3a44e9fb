package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seanutri/seanutri-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func enrollmentRows(now time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "course_id", "user_id", "instructor_id", "status", "grade",
		"approved", "completion_date", "verification_code", "created_at", "updated_at",
	}).AddRow("enr-1", "crs-1", "usr-1", "ins-1", "COMPLETED", 8.5, true, now, "CERT-abc", now, now)
}

func TestEnrollmentRepositoryFindApprovedByVerificationCode(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, course_id, user_id, instructor_id, status, grade, approved, completion_date, verification_code, created_at, updated_at FROM enrollments WHERE verification_code = $1 AND approved = TRUE`)).
		WithArgs("CERT-abc").
		WillReturnRows(enrollmentRows(now))

	enrollment, err := repo.FindApprovedByVerificationCode(context.Background(), "CERT-abc")
	require.NoError(t, err)
	assert.Equal(t, "enr-1", enrollment.ID)
	assert.Equal(t, models.EnrollmentStatusCompleted, enrollment.Status)
	require.NotNil(t, enrollment.VerificationCode)
	assert.Equal(t, "CERT-abc", *enrollment.VerificationCode)
	require.NotNil(t, enrollment.Approved)
	assert.True(t, *enrollment.Approved)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryFindApprovedByVerificationCodeNotFound(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, course_id, user_id, instructor_id, status, grade, approved, completion_date, verification_code, created_at, updated_at FROM enrollments WHERE verification_code = $1 AND approved = TRUE`)).
		WithArgs("CERT-missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindApprovedByVerificationCode(context.Background(), "CERT-missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, sql.ErrNoRows))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryFindByUserAndCourse(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, course_id, user_id, instructor_id, status, grade, approved, completion_date, verification_code, created_at, updated_at FROM enrollments WHERE user_id = $1 AND course_id = $2`)).
		WithArgs("usr-1", "crs-1").
		WillReturnRows(enrollmentRows(now))

	enrollment, err := repo.FindByUserAndCourse(context.Background(), "usr-1", "crs-1")
	require.NoError(t, err)
	assert.Equal(t, "usr-1", enrollment.UserID)
	assert.Equal(t, "crs-1", enrollment.CourseID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryCreateFillsDefaults(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectExec("INSERT INTO enrollments").
		WillReturnResult(sqlmock.NewResult(0, 1))

	enrollment := &models.Enrollment{CourseID: "crs-1", UserID: "usr-1"}
	err := repo.Create(context.Background(), enrollment)
	require.NoError(t, err)
	assert.NotEmpty(t, enrollment.ID)
	assert.Equal(t, models.EnrollmentStatusInProgress, enrollment.Status)
	assert.False(t, enrollment.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryUpdateEvaluation(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectExec("UPDATE enrollments SET instructor_id").
		WillReturnResult(sqlmock.NewResult(0, 1))

	grade := 9.0
	approved := true
	code := "CERT-xyz"
	now := time.Now().UTC()
	err := repo.UpdateEvaluation(context.Background(), &models.Enrollment{
		ID:               "enr-1",
		CourseID:         "crs-1",
		UserID:           "usr-1",
		Status:           models.EnrollmentStatusCompleted,
		Grade:            &grade,
		Approved:         &approved,
		CompletionDate:   &now,
		VerificationCode: &code,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
