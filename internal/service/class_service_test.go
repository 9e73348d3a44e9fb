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
	appErrors "github.com/seanutri/seanutri-api/pkg/errors"
)

func newClassFixture(capacity int) (*ClassService, *fakeClassRepo, *fakeNotifier) {
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
	users := &fakeUserReader{users: map[string]*models.User{
		"stu-1": {ID: "stu-1", Email: "a@oceanica.com", FullName: "Aluno Um", Role: models.RoleStudent},
		"stu-2": {ID: "stu-2", Email: "b@oceanica.com", FullName: "Aluno Dois", Role: models.RoleStudent},
	}}
	courses := &fakeCourseReader{courses: map[string]*models.Course{
		"crs-1": {ID: "crs-1", Title: "HUET"},
	}}
	instructors := &fakeInstructorReader{instructors: map[string]*models.Instructor{}}
	notifier := &fakeNotifier{}
	svc := NewClassService(classes, courses, instructors, users, notifier, validator.New(), zap.NewNop())
	return svc, classes, notifier
}

func TestAddStudentsCollapsesRepeatedIDs(t *testing.T) {
	svc, classes, notifier := newClassFixture(1)

	added, err := svc.AddStudents(context.Background(), "cls-1", AddStudentsRequest{
		StudentIDs: []string{"stu-1", "stu-1"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"stu-1"}, added)
	assert.Equal(t, []string{"stu-1"}, classes.rosters["cls-1"])
	require.Len(t, notifier.sent, 1)
	assert.Equal(t, "a@oceanica.com", notifier.sent[0].Recipient)
}

func TestAddStudentsHonorsCapacity(t *testing.T) {
	svc, _, _ := newClassFixture(1)

	_, err := svc.AddStudents(context.Background(), "cls-1", AddStudentsRequest{
		StudentIDs: []string{"stu-1", "stu-2"},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrClassFull.Code, appErrors.FromError(err).Code)
}
