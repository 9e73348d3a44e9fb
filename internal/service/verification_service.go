package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/seanutri/seanutri-api/internal/models"
	appErrors "github.com/seanutri/seanutri-api/pkg/errors"
)

type verificationEnrollmentReader interface {
	FindApprovedByVerificationCode(ctx context.Context, code string) (*models.Enrollment, error)
}

type verificationUserReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type verificationCourseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

type verificationInstructorReader interface {
	FindByID(ctx context.Context, id string) (*models.Instructor, error)
}

// VerificationService resolves public certificate verification codes.
//
// A lookup either resolves the complete certificate or reports the code as
// not authentic; a code whose student or course record cannot be loaded is
// treated the same as an unknown code rather than returning a partial
// certificate.
type VerificationService struct {
	enrollments verificationEnrollmentReader
	users       verificationUserReader
	courses     verificationCourseReader
	instructors verificationInstructorReader
	cache       *CacheService
	cacheTTL    time.Duration
	logger      *zap.Logger
}

// NewVerificationService constructs VerificationService.
func NewVerificationService(enrollments verificationEnrollmentReader, users verificationUserReader, courses verificationCourseReader, instructors verificationInstructorReader, cache *CacheService, cacheTTL time.Duration, logger *zap.Logger) *VerificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &VerificationService{
		enrollments: enrollments,
		users:       users,
		courses:     courses,
		instructors: instructors,
		cache:       cache,
		cacheTTL:    cacheTTL,
		logger:      logger,
	}
}

// Verify resolves a verification code into its certificate. Unknown or
// malformed codes return an unauthentic result, never an error, so the
// public page can always render a definite answer.
func (s *VerificationService) Verify(ctx context.Context, code string) (*models.VerificationResult, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return &models.VerificationResult{Authentic: false}, nil
	}

	cacheKey := "verification:" + code
	if s.cache != nil {
		var cached models.VerificationResult
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
			return &cached, nil
		}
	}

	result, err := s.resolve(ctx, code)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, result, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache verification result", zap.Error(err))
		}
	}
	return result, nil
}

// Certificate returns the resolved certificate for a code, or
// ErrInvalidCertificate when the code does not verify. Used by the
// certificate download flow, which needs a hard failure instead of the
// soft unauthentic result the public page gets.
func (s *VerificationService) Certificate(ctx context.Context, code string) (*models.Certificate, error) {
	result, err := s.Verify(ctx, code)
	if err != nil {
		return nil, err
	}
	if !result.Authentic || result.Certificate == nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidCertificate, "")
	}
	return result.Certificate, nil
}

func (s *VerificationService) resolve(ctx context.Context, code string) (*models.VerificationResult, error) {
	enrollment, err := s.enrollments.FindApprovedByVerificationCode(ctx, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &models.VerificationResult{Authentic: false}, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to look up verification code")
	}
	if !enrollment.IsApproved() || enrollment.CompletionDate == nil || enrollment.VerificationCode == nil {
		// Inconsistent rows never reach the public page.
		s.logger.Warn("approved enrollment with incomplete certificate fields", zap.String("enrollment_id", enrollment.ID))
		return &models.VerificationResult{Authentic: false}, nil
	}

	user, err := s.users.FindByID(ctx, enrollment.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("verification code references missing user", zap.String("enrollment_id", enrollment.ID))
			return &models.VerificationResult{Authentic: false}, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load certificate holder")
	}
	course, err := s.courses.FindByID(ctx, enrollment.CourseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("verification code references missing course", zap.String("enrollment_id", enrollment.ID))
			return &models.VerificationResult{Authentic: false}, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load certificate course")
	}

	certificate := &models.Certificate{
		Enrollment: *enrollment,
		User:       *user,
		Course:     *course,
		IssuedAt:   *enrollment.CompletionDate,
	}
	certificate.User.PasswordHash = ""

	if enrollment.InstructorID != nil {
		instructor, err := s.instructors.FindByID(ctx, *enrollment.InstructorID)
		if err == nil {
			certificate.Instructor = instructor
		} else if !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load certificate instructor")
		}
	}

	if course.ValidityMonths > 0 {
		expires := enrollment.CompletionDate.AddDate(0, course.ValidityMonths, 0)
		certificate.ExpiresAt = &expires
		certificate.Expired = time.Now().After(expires)
	}
	return &models.VerificationResult{Authentic: true, Certificate: certificate}, nil
}
