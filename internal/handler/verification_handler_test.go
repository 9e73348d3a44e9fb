package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seanutri/seanutri-api/internal/models"
	"github.com/seanutri/seanutri-api/internal/service"
)

type stubEnrollmentReader struct {
	byCode map[string]*models.Enrollment
}

func (s *stubEnrollmentReader) FindApprovedByVerificationCode(_ context.Context, code string) (*models.Enrollment, error) {
	if enrollment, ok := s.byCode[code]; ok {
		return enrollment, nil
	}
	return nil, sql.ErrNoRows
}

type stubUserReader struct {
	users map[string]*models.User
}

func (s *stubUserReader) FindByID(_ context.Context, id string) (*models.User, error) {
	if user, ok := s.users[id]; ok {
		return user, nil
	}
	return nil, sql.ErrNoRows
}

type stubCourseReader struct {
	courses map[string]*models.Course
}

func (s *stubCourseReader) FindByID(_ context.Context, id string) (*models.Course, error) {
	if course, ok := s.courses[id]; ok {
		return course, nil
	}
	return nil, sql.ErrNoRows
}

type stubInstructorReader struct{}

func (s *stubInstructorReader) FindByID(context.Context, string) (*models.Instructor, error) {
	return nil, sql.ErrNoRows
}

func newVerificationHandler() *VerificationHandler {
	completed := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	approved := true
	grade := 95.0
	code := "CERT-valid"
	enrollments := &stubEnrollmentReader{byCode: map[string]*models.Enrollment{
		"CERT-valid": {
			ID:               "enr-1",
			CourseID:         "crs-1",
			UserID:           "usr-1",
			Status:           models.EnrollmentStatusCompleted,
			Grade:            &grade,
			Approved:         &approved,
			CompletionDate:   &completed,
			VerificationCode: &code,
		},
	}}
	users := &stubUserReader{users: map[string]*models.User{
		"usr-1": {ID: "usr-1", FullName: "Maria Silva", Email: "maria@example.com", PasswordHash: "hash", Role: models.RoleStudent, Active: true},
	}}
	courses := &stubCourseReader{courses: map[string]*models.Course{
		"crs-1": {ID: "crs-1", Title: "HUET", DurationHours: 8, ValidityMonths: 12, Active: true},
	}}
	verification := service.NewVerificationService(enrollments, users, courses, &stubInstructorReader{}, nil, 0, nil)
	return NewVerificationHandler(verification, nil)
}

func performVerify(handler *VerificationHandler, code string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	router := gin.New()
	router.GET("/verificar/:code", handler.Verify)
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/verificar/"+code, nil))
	return rec
}

func TestVerificationHandlerAuthenticCode(t *testing.T) {
	rec := performVerify(newVerificationHandler(), "CERT-valid")
	require.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Data models.VerificationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.True(t, envelope.Data.Authentic)
	require.NotNil(t, envelope.Data.Certificate)
	assert.Equal(t, "Maria Silva", envelope.Data.Certificate.User.FullName)
	assert.Equal(t, "HUET", envelope.Data.Certificate.Course.Title)
	assert.Empty(t, envelope.Data.Certificate.User.PasswordHash)
}

func TestVerificationHandlerUnknownCode(t *testing.T) {
	rec := performVerify(newVerificationHandler(), "CERT-bogus")
	require.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Data models.VerificationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.False(t, envelope.Data.Authentic)
	assert.Nil(t, envelope.Data.Certificate)
}
