package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/seanutri/seanutri-api/internal/models"
	appErrors "github.com/seanutri/seanutri-api/pkg/errors"
)

type fakeClassRepo struct {
	classes map[string]*models.ScheduledClass
	rosters map[string][]string
}

func newFakeClassRepo() *fakeClassRepo {
	return &fakeClassRepo{
		classes: make(map[string]*models.ScheduledClass),
		rosters: make(map[string][]string),
	}
}

func (f *fakeClassRepo) List(ctx context.Context, filter models.ClassFilter) ([]models.ScheduledClassDetail, int, error) {
	return nil, 0, nil
}

func (f *fakeClassRepo) FindByID(ctx context.Context, id string) (*models.ScheduledClass, error) {
	class, ok := f.classes[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return class, nil
}

func (f *fakeClassRepo) FindDetailByID(ctx context.Context, id string) (*models.ScheduledClassDetail, error) {
	class, ok := f.classes[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &models.ScheduledClassDetail{ScheduledClass: *class}, nil
}

func (f *fakeClassRepo) ListStudentIDs(ctx context.Context, classID string) ([]string, error) {
	return append([]string(nil), f.rosters[classID]...), nil
}

func (f *fakeClassRepo) CountStudents(ctx context.Context, classID string) (int, error) {
	return len(f.rosters[classID]), nil
}

func (f *fakeClassRepo) AddStudents(ctx context.Context, classID, courseID string, studentIDs []string) ([]string, error) {
	existing := make(map[string]struct{})
	for _, id := range f.rosters[classID] {
		existing[id] = struct{}{}
	}
	var added []string
	for _, id := range studentIDs {
		if _, ok := existing[id]; ok {
			continue
		}
		existing[id] = struct{}{}
		f.rosters[classID] = append(f.rosters[classID], id)
		added = append(added, id)
	}
	return added, nil
}

func (f *fakeClassRepo) Create(ctx context.Context, class *models.ScheduledClass) error {
	if class.ID == "" {
		class.ID = "cls-new"
	}
	f.classes[class.ID] = class
	return nil
}

func (f *fakeClassRepo) Update(ctx context.Context, class *models.ScheduledClass) error {
	f.classes[class.ID] = class
	return nil
}

func (f *fakeClassRepo) UpdateStatus(ctx context.Context, id string, status models.ClassStatus) error {
	if class, ok := f.classes[id]; ok {
		class.Status = status
	}
	return nil
}

func (f *fakeClassRepo) Delete(ctx context.Context, id string) error {
	delete(f.classes, id)
	delete(f.rosters, id)
	return nil
}

type fakeCompanyReader struct {
	companies map[string]*models.Company
}

func (f *fakeCompanyReader) FindByID(ctx context.Context, id string) (*models.Company, error) {
	c, ok := f.companies[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return c, nil
}

func companyID(id string) *string { return &id }

func newBulkFixture(capacity int) (*BulkEnrollmentService, *fakeClassRepo, *fakeNotifier) {
	classes := newFakeClassRepo()
	classes.classes["cls-1"] = &models.ScheduledClass{
		ID:       "cls-1",
		CourseID: "crs-1",
		StartsAt: time.Now().Add(48 * time.Hour),
		EndsAt:   time.Now().Add(56 * time.Hour),
		Location: "Macae",
		Capacity: capacity,
		Status:   models.ClassStatusScheduled,
	}

	companies := &fakeCompanyReader{companies: map[string]*models.Company{
		"cmp-1": {ID: "cmp-1", Name: "Oceanica", Active: true},
		"cmp-2": {ID: "cmp-2", Name: "Maritima", Active: false},
	}}
	users := &fakeUserReader{users: map[string]*models.User{
		"stu-1": {ID: "stu-1", Email: "a@oceanica.com", FullName: "Aluno Um", Role: models.RoleStudent, CompanyID: companyID("cmp-1")},
		"stu-2": {ID: "stu-2", Email: "b@oceanica.com", FullName: "Aluno Dois", Role: models.RoleStudent, CompanyID: companyID("cmp-1")},
		"stu-3": {ID: "stu-3", Email: "c@outra.com", FullName: "Aluno Tres", Role: models.RoleStudent, CompanyID: companyID("cmp-9")},
		"mgr-1": {ID: "mgr-1", Email: "m@oceanica.com", FullName: "Gestor", Role: models.RoleCompanyManager, CompanyID: companyID("cmp-1")},
	}}
	courses := &fakeCourseReader{courses: map[string]*models.Course{
		"crs-1": {ID: "crs-1", Title: "HUET"},
	}}
	instructors := &fakeInstructorReader{instructors: map[string]*models.Instructor{}}
	notifier := &fakeNotifier{}

	classSvc := NewClassService(classes, courses, instructors, users, notifier, validator.New(), zap.NewNop())
	bulk := NewBulkEnrollmentService(classes, companies, users, classSvc, validator.New(), zap.NewNop())
	return bulk, classes, notifier
}

func TestBulkEnrollAddsCompanyStudents(t *testing.T) {
	bulk, classes, notifier := newBulkFixture(10)

	result, err := bulk.Enroll(context.Background(), BulkEnrollRequest{
		CompanyID:  "cmp-1",
		ClassID:    "cls-1",
		StudentIDs: []string{"stu-1", "stu-2"},
	})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"stu-1", "stu-2"}, result.Added)
	assert.Empty(t, result.Skipped)
	assert.Len(t, classes.rosters["cls-1"], 2)
	assert.Len(t, notifier.sent, 2)
	assert.Equal(t, models.TemplateEnrollment, notifier.sent[0].Key)
	assert.Equal(t, "HUET", notifier.sent[0].Context.CourseName)
}

func TestBulkEnrollRetryIsNoOp(t *testing.T) {
	bulk, classes, notifier := newBulkFixture(2)

	req := BulkEnrollRequest{CompanyID: "cmp-1", ClassID: "cls-1", StudentIDs: []string{"stu-1", "stu-2"}}
	_, err := bulk.Enroll(context.Background(), req)
	require.NoError(t, err)

	// Same request again: nothing changes even with the class at capacity.
	result, err := bulk.Enroll(context.Background(), req)
	require.NoError(t, err)
	assert.Empty(t, result.Added)
	assert.ElementsMatch(t, []string{"stu-1", "stu-2"}, result.Skipped)
	assert.Len(t, classes.rosters["cls-1"], 2)
	assert.Len(t, notifier.sent, 2)
}

func TestBulkEnrollRejectsForeignStudent(t *testing.T) {
	bulk, classes, _ := newBulkFixture(10)

	_, err := bulk.Enroll(context.Background(), BulkEnrollRequest{
		CompanyID:  "cmp-1",
		ClassID:    "cls-1",
		StudentIDs: []string{"stu-1", "stu-3"},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, classes.rosters["cls-1"])
}

func TestBulkEnrollRejectsNonStudent(t *testing.T) {
	bulk, _, _ := newBulkFixture(10)

	_, err := bulk.Enroll(context.Background(), BulkEnrollRequest{
		CompanyID:  "cmp-1",
		ClassID:    "cls-1",
		StudentIDs: []string{"mgr-1"},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestBulkEnrollRejectsInactiveCompany(t *testing.T) {
	bulk, _, _ := newBulkFixture(10)

	_, err := bulk.Enroll(context.Background(), BulkEnrollRequest{
		CompanyID:  "cmp-2",
		ClassID:    "cls-1",
		StudentIDs: []string{"stu-1"},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func TestBulkEnrollHonoursCapacity(t *testing.T) {
	bulk, classes, _ := newBulkFixture(1)

	_, err := bulk.Enroll(context.Background(), BulkEnrollRequest{
		CompanyID:  "cmp-1",
		ClassID:    "cls-1",
		StudentIDs: []string{"stu-1", "stu-2"},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrClassFull.Code, appErrors.FromError(err).Code)
	assert.Empty(t, classes.rosters["cls-1"])
}

func TestBulkEnrollDeduplicatesRequest(t *testing.T) {
	bulk, classes, _ := newBulkFixture(1)

	result, err := bulk.Enroll(context.Background(), BulkEnrollRequest{
		CompanyID:  "cmp-1",
		ClassID:    "cls-1",
		StudentIDs: []string{"stu-1", "stu-1", "stu-1"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"stu-1"}, result.Added)
	assert.Len(t, classes.rosters["cls-1"], 1)
}
