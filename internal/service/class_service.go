package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/seanutri/seanutri-api/internal/models"
	appErrors "github.com/seanutri/seanutri-api/pkg/errors"
)

type classRepository interface {
	List(ctx context.Context, filter models.ClassFilter) ([]models.ScheduledClassDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.ScheduledClass, error)
	FindDetailByID(ctx context.Context, id string) (*models.ScheduledClassDetail, error)
	ListStudentIDs(ctx context.Context, classID string) ([]string, error)
	CountStudents(ctx context.Context, classID string) (int, error)
	AddStudents(ctx context.Context, classID, courseID string, studentIDs []string) ([]string, error)
	Create(ctx context.Context, class *models.ScheduledClass) error
	Update(ctx context.Context, class *models.ScheduledClass) error
	UpdateStatus(ctx context.Context, id string, status models.ClassStatus) error
	Delete(ctx context.Context, id string) error
}

type classCourseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

type classInstructorReader interface {
	FindByID(ctx context.Context, id string) (*models.Instructor, error)
}

type classUserReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// ClassRequest describes scheduled class creation and mutation.
type ClassRequest struct {
	CourseID     string    `json:"course_id" validate:"required"`
	InstructorID *string   `json:"instructor_id"`
	StartsAt     time.Time `json:"starts_at" validate:"required"`
	EndsAt       time.Time `json:"ends_at" validate:"required"`
	Location     string    `json:"location" validate:"required"`
	LocationURL  string    `json:"location_url" validate:"omitempty,url"`
	Capacity     int       `json:"capacity" validate:"required,gt=0"`
}

// AddStudentsRequest lists the students to add to a class roster.
type AddStudentsRequest struct {
	StudentIDs []string `json:"student_ids" validate:"required,min=1,dive,required"`
}

// ClassService orchestrates scheduled classes and their rosters.
type ClassService struct {
	repo          classRepository
	courses       classCourseReader
	instructors   classInstructorReader
	users         classUserReader
	notifications notifier
	validator     *validator.Validate
	logger        *zap.Logger
}

// NewClassService constructs ClassService.
func NewClassService(repo classRepository, courses classCourseReader, instructors classInstructorReader, users classUserReader, notifications notifier, validate *validator.Validate, logger *zap.Logger) *ClassService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassService{
		repo:          repo,
		courses:       courses,
		instructors:   instructors,
		users:         users,
		notifications: notifications,
		validator:     validate,
		logger:        logger,
	}
}

// List returns scheduled classes with pagination metadata.
func (s *ClassService) List(ctx context.Context, filter models.ClassFilter) ([]models.ScheduledClassDetail, *models.Pagination, error) {
	classes, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list classes")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return classes, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns a single scheduled class with course and instructor detail.
func (s *ClassService) Get(ctx context.Context, id string) (*models.ScheduledClassDetail, error) {
	class, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	return class, nil
}

// ListStudentIDs returns the roster of a class.
func (s *ClassService) ListStudentIDs(ctx context.Context, id string) ([]string, error) {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	ids, err := s.repo.ListStudentIDs(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list class roster")
	}
	return ids, nil
}

// Create schedules a new class.
func (s *ClassService) Create(ctx context.Context, req ClassRequest) (*models.ScheduledClass, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class payload")
	}
	if !req.EndsAt.After(req.StartsAt) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "class must end after it starts")
	}
	course, err := s.courses.FindByID(ctx, req.CourseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	// New classes default to the course's instructor when none is given.
	instructorID := req.InstructorID
	if instructorID == nil {
		instructorID = course.InstructorID
	}
	if err := s.checkInstructor(ctx, instructorID); err != nil {
		return nil, err
	}

	class := &models.ScheduledClass{
		CourseID:     req.CourseID,
		InstructorID: instructorID,
		StartsAt:     req.StartsAt,
		EndsAt:       req.EndsAt,
		Location:     req.Location,
		LocationURL:  req.LocationURL,
		Capacity:     req.Capacity,
		Status:       models.ClassStatusScheduled,
	}
	if err := s.repo.Create(ctx, class); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create class")
	}
	return class, nil
}

// Update mutates class fields. The roster is untouched; capacity may not
// drop below the current roster size.
func (s *ClassService) Update(ctx context.Context, id string, req ClassRequest) (*models.ScheduledClass, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class payload")
	}
	if !req.EndsAt.After(req.StartsAt) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "class must end after it starts")
	}
	class, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	if err := s.checkInstructor(ctx, req.InstructorID); err != nil {
		return nil, err
	}
	current, err := s.repo.CountStudents(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count class roster")
	}
	if req.Capacity < current {
		return nil, appErrors.Clone(appErrors.ErrValidation, "capacity below current roster size")
	}

	class.InstructorID = req.InstructorID
	class.StartsAt = req.StartsAt
	class.EndsAt = req.EndsAt
	class.Location = req.Location
	class.LocationURL = req.LocationURL
	class.Capacity = req.Capacity
	if err := s.repo.Update(ctx, class); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update class")
	}
	return class, nil
}

// Complete marks a class as held.
func (s *ClassService) Complete(ctx context.Context, id string) error {
	class, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	if class.Status == models.ClassStatusCompleted {
		return nil
	}
	if err := s.repo.UpdateStatus(ctx, id, models.ClassStatusCompleted); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to complete class")
	}
	return nil
}

// Delete removes a class and its roster.
func (s *ClassService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete class")
	}
	return nil
}

// AddStudents puts students on the roster and upserts their enrollments.
// Students already on the roster are skipped, so repeating the call with
// the same set changes nothing. Newly added students get the enrollment
// notification.
func (s *ClassService) AddStudents(ctx context.Context, classID string, req AddStudentsRequest) ([]string, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid roster payload")
	}
	class, err := s.repo.FindByID(ctx, classID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	if class.Status != models.ClassStatusScheduled {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "class is not open for enrollment")
	}

	// Duplicate IDs in one request count once toward capacity and notify
	// once.
	seen := make(map[string]struct{}, len(req.StudentIDs))
	studentIDs := make([]string, 0, len(req.StudentIDs))
	for _, studentID := range req.StudentIDs {
		if _, ok := seen[studentID]; ok {
			continue
		}
		seen[studentID] = struct{}{}
		studentIDs = append(studentIDs, studentID)
	}

	students := make([]*models.User, 0, len(studentIDs))
	for _, studentID := range studentIDs {
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
		students = append(students, user)
	}

	roster, err := s.repo.ListStudentIDs(ctx, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list class roster")
	}
	rostered := make(map[string]struct{}, len(roster))
	for _, id := range roster {
		rostered[id] = struct{}{}
	}
	newcomers := 0
	for _, studentID := range studentIDs {
		if _, ok := rostered[studentID]; !ok {
			newcomers++
		}
	}
	if len(roster)+newcomers > class.Capacity {
		return nil, appErrors.Clone(appErrors.ErrClassFull, "class capacity exceeded")
	}

	added, err := s.repo.AddStudents(ctx, classID, class.CourseID, studentIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to add students to class")
	}

	s.notifyEnrolled(ctx, class, students, added)
	return added, nil
}

func (s *ClassService) notifyEnrolled(ctx context.Context, class *models.ScheduledClass, students []*models.User, added []string) {
	if s.notifications == nil || len(added) == 0 {
		return
	}
	course, err := s.courses.FindByID(ctx, class.CourseID)
	if err != nil {
		s.logger.Warn("skipping enrollment notifications", zap.String("class_id", class.ID), zap.Error(err))
		return
	}
	addedSet := make(map[string]struct{}, len(added))
	for _, id := range added {
		addedSet[id] = struct{}{}
	}
	for _, student := range students {
		if _, ok := addedSet[student.ID]; !ok {
			continue
		}
		s.notifications.Dispatch(ctx, models.TemplateEnrollment, student.Email, TemplateContext{
			StudentName: student.FullName,
			CourseName:  course.Title,
			Location:    class.Location,
			Date:        class.StartsAt.Format("02/01/2006"),
			Time:        class.StartsAt.Format("15:04"),
		})
	}
}

func (s *ClassService) checkInstructor(ctx context.Context, instructorID *string) error {
	if instructorID == nil {
		return nil
	}
	if _, err := s.instructors.FindByID(ctx, *instructorID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "instructor not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load instructor")
	}
	return nil
}
