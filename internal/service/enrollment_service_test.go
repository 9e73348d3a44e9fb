package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/seanutri/seanutri-api/internal/models"
	appErrors "github.com/seanutri/seanutri-api/pkg/errors"
)

type fakeEnrollmentRepo struct {
	byID        map[string]*models.Enrollment
	byUserClass map[string]*models.Enrollment
	created     []*models.Enrollment
	evaluated   []*models.Enrollment
}

func newFakeEnrollmentRepo() *fakeEnrollmentRepo {
	return &fakeEnrollmentRepo{
		byID:        make(map[string]*models.Enrollment),
		byUserClass: make(map[string]*models.Enrollment),
	}
}

func (f *fakeEnrollmentRepo) put(e *models.Enrollment) {
	f.byID[e.ID] = e
	f.byUserClass[e.UserID+"/"+e.CourseID] = e
}

func (f *fakeEnrollmentRepo) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error) {
	return nil, 0, nil
}

func (f *fakeEnrollmentRepo) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	e, ok := f.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return e, nil
}

func (f *fakeEnrollmentRepo) FindByUserAndCourse(ctx context.Context, userID, courseID string) (*models.Enrollment, error) {
	e, ok := f.byUserClass[userID+"/"+courseID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return e, nil
}

func (f *fakeEnrollmentRepo) Create(ctx context.Context, e *models.Enrollment) error {
	if e.ID == "" {
		e.ID = "enr-" + e.UserID + "-" + e.CourseID
	}
	if e.Status == "" {
		e.Status = models.EnrollmentStatusNotStarted
	}
	f.put(e)
	f.created = append(f.created, e)
	return nil
}

func (f *fakeEnrollmentRepo) UpdateEvaluation(ctx context.Context, e *models.Enrollment) error {
	f.put(e)
	copied := *e
	f.evaluated = append(f.evaluated, &copied)
	return nil
}

func (f *fakeEnrollmentRepo) UpdateStatus(ctx context.Context, id string, status models.EnrollmentStatus) error {
	if e, ok := f.byID[id]; ok {
		e.Status = status
	}
	return nil
}

func (f *fakeEnrollmentRepo) Delete(ctx context.Context, id string) error {
	delete(f.byID, id)
	return nil
}

func (f *fakeEnrollmentRepo) FindApprovedByVerificationCode(ctx context.Context, code string) (*models.Enrollment, error) {
	for _, e := range f.byID {
		if e.VerificationCode != nil && *e.VerificationCode == code && e.IsApproved() {
			return e, nil
		}
	}
	return nil, sql.ErrNoRows
}

type fakeUserReader struct {
	users map[string]*models.User
}

func (f *fakeUserReader) FindByID(ctx context.Context, id string) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return u, nil
}

type fakeCourseReader struct {
	courses map[string]*models.Course
}

func (f *fakeCourseReader) FindByID(ctx context.Context, id string) (*models.Course, error) {
	c, ok := f.courses[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return c, nil
}

type dispatched struct {
	Key       models.TemplateKey
	Recipient string
	Context   TemplateContext
}

type fakeNotifier struct {
	sent []dispatched
}

func (f *fakeNotifier) Dispatch(ctx context.Context, key models.TemplateKey, recipient string, tctx TemplateContext) {
	f.sent = append(f.sent, dispatched{Key: key, Recipient: recipient, Context: tctx})
}

func instructorID(id string) *string { return &id }

func newEvaluationFixture() (*EnrollmentService, *fakeEnrollmentRepo, *fakeNotifier) {
	repo := newFakeEnrollmentRepo()
	users := &fakeUserReader{users: map[string]*models.User{
		"stu-1": {ID: "stu-1", Email: "maria@empresa.com", FullName: "Maria Souza", Role: models.RoleStudent},
	}}
	courses := &fakeCourseReader{courses: map[string]*models.Course{
		"crs-1": {ID: "crs-1", Title: "HUET", ValidityMonths: 24, InstructorID: instructorID("ins-1"), Active: true},
	}}
	notifier := &fakeNotifier{}
	svc := NewEnrollmentService(repo, users, courses, notifier, nil, nil, "https://seanutri.example", validator.New(), zap.NewNop())
	return svc, repo, notifier
}

func TestEvaluateApprovedIssuesCertificate(t *testing.T) {
	svc, repo, notifier := newEvaluationFixture()
	repo.put(&models.Enrollment{ID: "enr-1", UserID: "stu-1", CourseID: "crs-1", Status: models.EnrollmentStatusInProgress})

	completion := time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC)
	enrollment, err := svc.Evaluate(context.Background(), EvaluateRequest{
		UserID:         "stu-1",
		CourseID:       "crs-1",
		Grade:          92.5,
		Approved:       true,
		CompletionDate: completion,
	})
	require.NoError(t, err)

	assert.Equal(t, models.EnrollmentStatusCompleted, enrollment.Status)
	require.NotNil(t, enrollment.Grade)
	assert.Equal(t, 92.5, *enrollment.Grade)
	assert.True(t, enrollment.IsApproved())
	require.NotNil(t, enrollment.CompletionDate)
	assert.Equal(t, completion, *enrollment.CompletionDate)
	require.NotNil(t, enrollment.VerificationCode)
	assert.True(t, strings.HasPrefix(*enrollment.VerificationCode, "CERT-"))
	require.NotNil(t, enrollment.InstructorID)
	assert.Equal(t, "ins-1", *enrollment.InstructorID)

	require.Len(t, notifier.sent, 1)
	assert.Equal(t, models.TemplateResultApproved, notifier.sent[0].Key)
	assert.Equal(t, "maria@empresa.com", notifier.sent[0].Recipient)
	assert.Equal(t, "https://seanutri.example/verificar/"+*enrollment.VerificationCode, notifier.sent[0].Context.CertificateURL)
}

func TestEvaluateFailedClearsCertificateFields(t *testing.T) {
	svc, repo, notifier := newEvaluationFixture()
	code := "CERT-old"
	completed := time.Now()
	repo.put(&models.Enrollment{
		ID: "enr-1", UserID: "stu-1", CourseID: "crs-1",
		Status:           models.EnrollmentStatusInProgress,
		CompletionDate:   &completed,
		VerificationCode: &code,
	})

	enrollment, err := svc.Evaluate(context.Background(), EvaluateRequest{
		UserID:         "stu-1",
		CourseID:       "crs-1",
		Grade:          40,
		Approved:       false,
		CompletionDate: time.Now(),
	})
	require.NoError(t, err)

	assert.Equal(t, models.EnrollmentStatusCompleted, enrollment.Status)
	assert.False(t, enrollment.IsApproved())
	assert.Nil(t, enrollment.CompletionDate)
	assert.Nil(t, enrollment.VerificationCode)

	require.Len(t, notifier.sent, 1)
	assert.Equal(t, models.TemplateResultFailed, notifier.sent[0].Key)
	assert.Empty(t, notifier.sent[0].Context.CertificateURL)
}

func TestEvaluateCreatesEnrollmentWhenMissing(t *testing.T) {
	svc, repo, _ := newEvaluationFixture()

	enrollment, err := svc.Evaluate(context.Background(), EvaluateRequest{
		UserID:         "stu-1",
		CourseID:       "crs-1",
		Grade:          75,
		Approved:       true,
		CompletionDate: time.Now(),
	})
	require.NoError(t, err)

	require.Len(t, repo.created, 1)
	assert.Equal(t, models.EnrollmentStatusCompleted, enrollment.Status)
	assert.NotNil(t, enrollment.VerificationCode)
}

func TestEvaluateIssuesDistinctCodes(t *testing.T) {
	svc, repo, _ := newEvaluationFixture()
	repo.put(&models.Enrollment{ID: "enr-1", UserID: "stu-1", CourseID: "crs-1"})

	first, err := svc.Evaluate(context.Background(), EvaluateRequest{UserID: "stu-1", CourseID: "crs-1", Grade: 80, Approved: true, CompletionDate: time.Now()})
	require.NoError(t, err)
	firstCode := *first.VerificationCode

	second, err := svc.Evaluate(context.Background(), EvaluateRequest{UserID: "stu-1", CourseID: "crs-1", Grade: 85, Approved: true, CompletionDate: time.Now()})
	require.NoError(t, err)

	assert.NotEqual(t, firstCode, *second.VerificationCode)
}

func TestEvaluateRejectsUnknownStudent(t *testing.T) {
	svc, _, _ := newEvaluationFixture()

	_, err := svc.Evaluate(context.Background(), EvaluateRequest{UserID: "ghost", CourseID: "crs-1", Grade: 50, Approved: false, CompletionDate: time.Now()})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestEnrollReturnsExisting(t *testing.T) {
	svc, repo, _ := newEvaluationFixture()
	repo.put(&models.Enrollment{ID: "enr-1", UserID: "stu-1", CourseID: "crs-1", Status: models.EnrollmentStatusInProgress})

	enrollment, err := svc.Enroll(context.Background(), EnrollRequest{UserID: "stu-1", CourseID: "crs-1"})
	require.NoError(t, err)
	assert.Equal(t, "enr-1", enrollment.ID)
	assert.Empty(t, repo.created)
}

func TestEnrollRejectsNonStudent(t *testing.T) {
	repo := newFakeEnrollmentRepo()
	users := &fakeUserReader{users: map[string]*models.User{
		"adm-1": {ID: "adm-1", Email: "admin@seanutri.example", Role: models.RoleAdmin},
	}}
	courses := &fakeCourseReader{courses: map[string]*models.Course{"crs-1": {ID: "crs-1", Title: "HUET"}}}
	svc := NewEnrollmentService(repo, users, courses, nil, nil, nil, "", validator.New(), zap.NewNop())

	_, err := svc.Enroll(context.Background(), EnrollRequest{UserID: "adm-1", CourseID: "crs-1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestUpdateStatusRejectsEvaluatedEnrollment(t *testing.T) {
	svc, repo, _ := newEvaluationFixture()
	repo.put(&models.Enrollment{ID: "enr-1", UserID: "stu-1", CourseID: "crs-1", Status: models.EnrollmentStatusCompleted})

	err := svc.UpdateStatus(context.Background(), "enr-1", models.EnrollmentStatusInProgress)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func TestUpdateStatusRejectsCompletedTarget(t *testing.T) {
	svc, repo, _ := newEvaluationFixture()
	repo.put(&models.Enrollment{ID: "enr-1", UserID: "stu-1", CourseID: "crs-1", Status: models.EnrollmentStatusNotStarted})

	err := svc.UpdateStatus(context.Background(), "enr-1", models.EnrollmentStatusCompleted)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
