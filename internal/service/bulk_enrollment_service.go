package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/seanutri/seanutri-api/internal/models"
	appErrors "github.com/seanutri/seanutri-api/pkg/errors"
)

type bulkCompanyReader interface {
	FindByID(ctx context.Context, id string) (*models.Company, error)
}

type bulkUserReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// BulkEnrollRequest enrolls a batch of company students into one scheduled
// class in a single transaction.
type BulkEnrollRequest struct {
	CompanyID  string   `json:"company_id" validate:"required"`
	ClassID    string   `json:"class_id" validate:"required"`
	StudentIDs []string `json:"student_ids" validate:"required,min=1,dive,required"`
}

// BulkEnrollResult reports which students were actually added. Students
// already on the roster count as skipped, which makes a retry of the same
// request a no-op.
type BulkEnrollResult struct {
	ClassID   string   `json:"class_id"`
	Requested int      `json:"requested"`
	Added     []string `json:"added"`
	Skipped   []string `json:"skipped"`
}

// BulkEnrollmentService validates and commits company-wide enrollments.
//
// Every check runs before the first write, and all writes happen inside
// one transaction, so a failing batch leaves no partial roster behind.
type BulkEnrollmentService struct {
	classes   classRepository
	companies bulkCompanyReader
	users     bulkUserReader
	classSvc  *ClassService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewBulkEnrollmentService constructs BulkEnrollmentService.
func NewBulkEnrollmentService(classes classRepository, companies bulkCompanyReader, users bulkUserReader, classSvc *ClassService, validate *validator.Validate, logger *zap.Logger) *BulkEnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BulkEnrollmentService{
		classes:   classes,
		companies: companies,
		users:     users,
		classSvc:  classSvc,
		validator: validate,
		logger:    logger,
	}
}

// Enroll validates the batch and commits it atomically.
func (s *BulkEnrollmentService) Enroll(ctx context.Context, req BulkEnrollRequest) (*BulkEnrollResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid bulk enrollment payload")
	}
	company, err := s.companies.FindByID(ctx, req.CompanyID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "company not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load company")
	}
	if !company.Active {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "company is inactive")
	}

	seen := make(map[string]struct{}, len(req.StudentIDs))
	unique := make([]string, 0, len(req.StudentIDs))
	for _, studentID := range req.StudentIDs {
		if _, ok := seen[studentID]; ok {
			continue
		}
		seen[studentID] = struct{}{}
		user, err := s.users.FindByID(ctx, studentID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found: "+studentID)
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
		}
		if user.Role != models.RoleStudent {
			return nil, appErrors.Clone(appErrors.ErrValidation, "user is not a student: "+studentID)
		}
		if user.CompanyID == nil || *user.CompanyID != req.CompanyID {
			return nil, appErrors.Clone(appErrors.ErrValidation, "student does not belong to the company: "+studentID)
		}
		unique = append(unique, studentID)
	}

	added, err := s.classSvc.AddStudents(ctx, req.ClassID, AddStudentsRequest{StudentIDs: unique})
	if err != nil {
		return nil, err
	}

	addedSet := make(map[string]struct{}, len(added))
	for _, id := range added {
		addedSet[id] = struct{}{}
	}
	skipped := make([]string, 0, len(unique))
	for _, id := range unique {
		if _, ok := addedSet[id]; !ok {
			skipped = append(skipped, id)
		}
	}
	return &BulkEnrollResult{
		ClassID:   req.ClassID,
		Requested: len(req.StudentIDs),
		Added:     added,
		Skipped:   skipped,
	}, nil
}
