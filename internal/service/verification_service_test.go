package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/seanutri/seanutri-api/internal/models"
	appErrors "github.com/seanutri/seanutri-api/pkg/errors"
)

type fakeCodeReader struct {
	byCode map[string]*models.Enrollment
}

func (f *fakeCodeReader) FindApprovedByVerificationCode(ctx context.Context, code string) (*models.Enrollment, error) {
	e, ok := f.byCode[code]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return e, nil
}

type fakeInstructorReader struct {
	instructors map[string]*models.Instructor
}

func (f *fakeInstructorReader) FindByID(ctx context.Context, id string) (*models.Instructor, error) {
	i, ok := f.instructors[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return i, nil
}

func approvedEnrollment(code string, completed time.Time) *models.Enrollment {
	approved := true
	grade := 88.0
	insID := "ins-1"
	return &models.Enrollment{
		ID:               "enr-1",
		UserID:           "stu-1",
		CourseID:         "crs-1",
		InstructorID:     &insID,
		Status:           models.EnrollmentStatusCompleted,
		Grade:            &grade,
		Approved:         &approved,
		CompletionDate:   &completed,
		VerificationCode: &code,
	}
}

func newVerificationFixture(enrollments map[string]*models.Enrollment) *VerificationService {
	users := &fakeUserReader{users: map[string]*models.User{
		"stu-1": {ID: "stu-1", Email: "maria@empresa.com", FullName: "Maria Souza", Role: models.RoleStudent, PasswordHash: "secret"},
	}}
	courses := &fakeCourseReader{courses: map[string]*models.Course{
		"crs-1": {ID: "crs-1", Title: "HUET", ValidityMonths: 24},
	}}
	instructors := &fakeInstructorReader{instructors: map[string]*models.Instructor{
		"ins-1": {ID: "ins-1", Name: "Carlos Lima"},
	}}
	return NewVerificationService(&fakeCodeReader{byCode: enrollments}, users, courses, instructors, nil, time.Minute, zap.NewNop())
}

func TestVerifyUnknownCodeIsNotAuthentic(t *testing.T) {
	svc := newVerificationFixture(nil)

	result, err := svc.Verify(context.Background(), "CERT-unknown")
	require.NoError(t, err)
	assert.False(t, result.Authentic)
	assert.Nil(t, result.Certificate)
}

func TestVerifyBlankCodeIsNotAuthentic(t *testing.T) {
	svc := newVerificationFixture(nil)

	result, err := svc.Verify(context.Background(), "   ")
	require.NoError(t, err)
	assert.False(t, result.Authentic)
}

func TestVerifyResolvesFullCertificate(t *testing.T) {
	completed := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	svc := newVerificationFixture(map[string]*models.Enrollment{
		"CERT-abc": approvedEnrollment("CERT-abc", completed),
	})

	result, err := svc.Verify(context.Background(), "CERT-abc")
	require.NoError(t, err)
	require.True(t, result.Authentic)
	require.NotNil(t, result.Certificate)

	cert := result.Certificate
	assert.Equal(t, "Maria Souza", cert.User.FullName)
	assert.Empty(t, cert.User.PasswordHash)
	assert.Equal(t, "HUET", cert.Course.Title)
	require.NotNil(t, cert.Instructor)
	assert.Equal(t, "Carlos Lima", cert.Instructor.Name)
	assert.Equal(t, completed, cert.IssuedAt)
	require.NotNil(t, cert.ExpiresAt)
	assert.Equal(t, completed.AddDate(0, 24, 0), *cert.ExpiresAt)
	assert.False(t, cert.Expired)
}

func TestVerifyMarksExpiredCertificates(t *testing.T) {
	completed := time.Now().AddDate(-3, 0, 0)
	svc := newVerificationFixture(map[string]*models.Enrollment{
		"CERT-old": approvedEnrollment("CERT-old", completed),
	})

	result, err := svc.Verify(context.Background(), "CERT-old")
	require.NoError(t, err)
	require.True(t, result.Authentic)
	assert.True(t, result.Certificate.Expired)
}

func TestVerifyMissingUserNeverPartial(t *testing.T) {
	completed := time.Now()
	enrollment := approvedEnrollment("CERT-orphan", completed)
	enrollment.UserID = "ghost"
	svc := newVerificationFixture(map[string]*models.Enrollment{"CERT-orphan": enrollment})

	result, err := svc.Verify(context.Background(), "CERT-orphan")
	require.NoError(t, err)
	assert.False(t, result.Authentic)
	assert.Nil(t, result.Certificate)
}

func TestVerifyInconsistentRowNeverPartial(t *testing.T) {
	enrollment := approvedEnrollment("CERT-bad", time.Now())
	enrollment.CompletionDate = nil
	svc := newVerificationFixture(map[string]*models.Enrollment{"CERT-bad": enrollment})

	result, err := svc.Verify(context.Background(), "CERT-bad")
	require.NoError(t, err)
	assert.False(t, result.Authentic)
}

func TestCertificateLookupFailsHard(t *testing.T) {
	svc := newVerificationFixture(nil)

	_, err := svc.Certificate(context.Background(), "CERT-unknown")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCertificate.Code, appErrors.FromError(err).Code)
}

func TestVerifyNoExpiryForPermanentCourses(t *testing.T) {
	completed := time.Now().AddDate(-5, 0, 0)
	enrollment := approvedEnrollment("CERT-perm", completed)
	users := &fakeUserReader{users: map[string]*models.User{
		"stu-1": {ID: "stu-1", FullName: "Maria Souza", Role: models.RoleStudent},
	}}
	courses := &fakeCourseReader{courses: map[string]*models.Course{
		"crs-1": {ID: "crs-1", Title: "NR-10", ValidityMonths: 0},
	}}
	instructors := &fakeInstructorReader{instructors: map[string]*models.Instructor{}}
	svc := NewVerificationService(&fakeCodeReader{byCode: map[string]*models.Enrollment{"CERT-perm": enrollment}}, users, courses, instructors, nil, time.Minute, zap.NewNop())

	result, err := svc.Verify(context.Background(), "CERT-perm")
	require.NoError(t, err)
	require.True(t, result.Authentic)
	assert.Nil(t, result.Certificate.ExpiresAt)
	assert.False(t, result.Certificate.Expired)
}
