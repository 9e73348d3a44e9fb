package service

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/seanutri/seanutri-api/internal/models"
)

// newCertificateFlowFixture wires enrollment and verification over the same
// stores, so an evaluation's code can be verified without a real database.
func newCertificateFlowFixture() (*EnrollmentService, *VerificationService) {
	repo := newFakeEnrollmentRepo()
	users := &fakeUserReader{users: map[string]*models.User{
		"stu-1": {ID: "stu-1", Email: "maria@empresa.com", FullName: "Maria Souza", Role: models.RoleStudent, PasswordHash: "secret"},
	}}
	courses := &fakeCourseReader{courses: map[string]*models.Course{
		"crs-1": {ID: "crs-1", Title: "HUET", ValidityMonths: 24, InstructorID: instructorID("ins-1"), Active: true},
	}}
	instructors := &fakeInstructorReader{instructors: map[string]*models.Instructor{
		"ins-1": {ID: "ins-1", Name: "Carlos Lima"},
	}}
	enrollments := NewEnrollmentService(repo, users, courses, &fakeNotifier{}, nil, nil, "https://seanutri.example", validator.New(), zap.NewNop())
	verification := NewVerificationService(repo, users, courses, instructors, nil, time.Minute, zap.NewNop())
	return enrollments, verification
}

func TestApprovedEvaluationVerifiesEndToEnd(t *testing.T) {
	enrollments, verification := newCertificateFlowFixture()

	completion := time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC)
	enrollment, err := enrollments.Evaluate(context.Background(), EvaluateRequest{
		UserID:         "stu-1",
		CourseID:       "crs-1",
		Grade:          91,
		Approved:       true,
		CompletionDate: completion,
	})
	require.NoError(t, err)
	require.NotNil(t, enrollment.VerificationCode)

	result, err := verification.Verify(context.Background(), *enrollment.VerificationCode)
	require.NoError(t, err)
	assert.True(t, result.Authentic)
	require.NotNil(t, result.Certificate)
	assert.Equal(t, "Maria Souza", result.Certificate.User.FullName)
	assert.Equal(t, "HUET", result.Certificate.Course.Title)
	assert.True(t, result.Certificate.Enrollment.IsApproved())
	assert.Empty(t, result.Certificate.User.PasswordHash)
}

func TestFailedEvaluationLeavesNoVerifiableCode(t *testing.T) {
	enrollments, verification := newCertificateFlowFixture()

	first, err := enrollments.Evaluate(context.Background(), EvaluateRequest{
		UserID:         "stu-1",
		CourseID:       "crs-1",
		Grade:          88,
		Approved:       true,
		CompletionDate: time.Now(),
	})
	require.NoError(t, err)
	issued := *first.VerificationCode

	second, err := enrollments.Evaluate(context.Background(), EvaluateRequest{
		UserID:         "stu-1",
		CourseID:       "crs-1",
		Grade:          35,
		Approved:       false,
		CompletionDate: time.Now(),
	})
	require.NoError(t, err)
	assert.Nil(t, second.VerificationCode)

	result, err := verification.Verify(context.Background(), issued)
	require.NoError(t, err)
	assert.False(t, result.Authentic)
	assert.Nil(t, result.Certificate)
}
