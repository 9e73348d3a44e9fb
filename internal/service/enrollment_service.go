package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/seanutri/seanutri-api/internal/models"
	appErrors "github.com/seanutri/seanutri-api/pkg/errors"
)

type enrollmentRepository interface {
	List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.Enrollment, error)
	FindByUserAndCourse(ctx context.Context, userID, courseID string) (*models.Enrollment, error)
	Create(ctx context.Context, enrollment *models.Enrollment) error
	UpdateEvaluation(ctx context.Context, enrollment *models.Enrollment) error
	UpdateStatus(ctx context.Context, id string, status models.EnrollmentStatus) error
	Delete(ctx context.Context, id string) error
}

type enrollmentUserReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type enrollmentCourseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

// EnrollRequest creates or reuses an enrollment for one user in one course.
type EnrollRequest struct {
	UserID   string `json:"user_id" validate:"required"`
	CourseID string `json:"course_id" validate:"required"`
}

// EvaluateRequest records the result of a student's evaluation. The grade
// scale is 0 to 100.
type EvaluateRequest struct {
	UserID         string    `json:"user_id" validate:"required"`
	CourseID       string    `json:"course_id" validate:"required"`
	Grade          float64   `json:"grade" validate:"gte=0,lte=100"`
	Approved       bool      `json:"approved"`
	CompletionDate time.Time `json:"completion_date" validate:"required"`
}

// EnrollmentService owns enrollment lifecycle and evaluation.
type EnrollmentService struct {
	repo          enrollmentRepository
	users         enrollmentUserReader
	courses       enrollmentCourseReader
	notifications notifier
	metrics       *MetricsService
	cache         *CacheService
	baseURL       string
	validator     *validator.Validate
	logger        *zap.Logger
}

// NewEnrollmentService constructs EnrollmentService. baseURL is the public
// origin used to build certificate verification links in notifications.
func NewEnrollmentService(repo enrollmentRepository, users enrollmentUserReader, courses enrollmentCourseReader, notifications notifier, metrics *MetricsService, cache *CacheService, baseURL string, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{
		repo:          repo,
		users:         users,
		courses:       courses,
		notifications: notifications,
		metrics:       metrics,
		cache:         cache,
		baseURL:       baseURL,
		validator:     validate,
		logger:        logger,
	}
}

// List returns enrollments with pagination metadata.
func (s *EnrollmentService) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, *models.Pagination, error) {
	enrollments, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return enrollments, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns a single enrollment.
func (s *EnrollmentService) Get(ctx context.Context, id string) (*models.Enrollment, error) {
	enrollment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	return enrollment, nil
}

// Enroll creates an enrollment for the user in the course. If one already
// exists it is returned unchanged.
func (s *EnrollmentService) Enroll(ctx context.Context, req EnrollRequest) (*models.Enrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}
	user, err := s.users.FindByID(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	if user.Role != models.RoleStudent {
		return nil, appErrors.Clone(appErrors.ErrValidation, "only students can be enrolled")
	}
	if _, err := s.courses.FindByID(ctx, req.CourseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	existing, err := s.repo.FindByUserAndCourse(ctx, req.UserID, req.CourseID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check enrollment")
	}

	enrollment := &models.Enrollment{
		CourseID: req.CourseID,
		UserID:   req.UserID,
		Status:   models.EnrollmentStatusNotStarted,
	}
	if err := s.repo.Create(ctx, enrollment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create enrollment")
	}
	return enrollment, nil
}

// Evaluate records the outcome of an evaluation, creating the enrollment
// if the student was never formally enrolled. Approval issues a fresh
// verification code and stamps the completion date; failure clears both.
// The course's current instructor is captured on the enrollment so the
// certificate keeps naming them even if the course is later reassigned.
func (s *EnrollmentService) Evaluate(ctx context.Context, req EvaluateRequest) (*models.Enrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid evaluation payload")
	}
	user, err := s.users.FindByID(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	course, err := s.courses.FindByID(ctx, req.CourseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	enrollment, err := s.repo.FindByUserAndCourse(ctx, req.UserID, req.CourseID)
	if errors.Is(err, sql.ErrNoRows) {
		enrollment = &models.Enrollment{CourseID: req.CourseID, UserID: req.UserID}
		if err := s.repo.Create(ctx, enrollment); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create enrollment")
		}
	} else if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}

	grade := req.Grade
	approved := req.Approved
	enrollment.Status = models.EnrollmentStatusCompleted
	enrollment.Grade = &grade
	enrollment.Approved = &approved
	enrollment.InstructorID = course.InstructorID
	if approved {
		completion := req.CompletionDate
		code := newVerificationCode()
		enrollment.CompletionDate = &completion
		enrollment.VerificationCode = &code
	} else {
		enrollment.CompletionDate = nil
		enrollment.VerificationCode = nil
	}

	if err := s.repo.UpdateEvaluation(ctx, enrollment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record evaluation")
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, "verification:*"); err != nil {
			s.logger.Warn("failed to invalidate verification cache", zap.Error(err))
		}
	}
	if approved && s.metrics != nil {
		s.metrics.RecordCertificateIssued()
	}
	s.notifyResult(ctx, user, course, enrollment)
	return enrollment, nil
}

// UpdateStatus moves an enrollment between NOT_STARTED and IN_PROGRESS.
// COMPLETED is reserved for the evaluation flow.
func (s *EnrollmentService) UpdateStatus(ctx context.Context, id string, status models.EnrollmentStatus) error {
	if status != models.EnrollmentStatusNotStarted && status != models.EnrollmentStatusInProgress {
		return appErrors.Clone(appErrors.ErrValidation, "status must be NOT_STARTED or IN_PROGRESS")
	}
	enrollment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if enrollment.Status == models.EnrollmentStatusCompleted {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "evaluated enrollments cannot change status")
	}
	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update enrollment status")
	}
	return nil
}

// Delete removes an enrollment.
func (s *EnrollmentService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete enrollment")
	}
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, "verification:*"); err != nil {
			s.logger.Warn("failed to invalidate verification cache", zap.Error(err))
		}
	}
	return nil
}

func (s *EnrollmentService) notifyResult(ctx context.Context, user *models.User, course *models.Course, enrollment *models.Enrollment) {
	if s.notifications == nil {
		return
	}
	tctx := TemplateContext{
		StudentName: user.FullName,
		CourseName:  course.Title,
	}
	if enrollment.Grade != nil {
		tctx.Grade = fmt.Sprintf("%.1f", *enrollment.Grade)
	}
	key := models.TemplateResultFailed
	tctx.Status = "Reprovado"
	if enrollment.IsApproved() {
		key = models.TemplateResultApproved
		tctx.Status = "Aprovado"
		if enrollment.VerificationCode != nil {
			tctx.CertificateURL = fmt.Sprintf("%s/verificar/%s", s.baseURL, *enrollment.VerificationCode)
		}
	}
	s.notifications.Dispatch(ctx, key, user.Email, tctx)
}

func newVerificationCode() string {
	return "CERT-" + uuid.NewString()
}
