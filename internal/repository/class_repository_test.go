package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassRepositoryAddStudentsSkipsExistingRoster(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	mock.ExpectBegin()
	// stu-1 is already on the roster, the conflict clause swallows the insert.
	mock.ExpectExec("INSERT INTO class_students").
		WithArgs("cls-1", "stu-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO class_students").
		WithArgs("cls-1", "stu-2").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO enrollments").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	added, err := repo.AddStudents(context.Background(), "cls-1", "crs-1", []string{"stu-1", "stu-2"})
	require.NoError(t, err)
	assert.Equal(t, []string{"stu-2"}, added)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassRepositoryAddStudentsEmptyInput(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	added, err := repo.AddStudents(context.Background(), "cls-1", "crs-1", nil)
	require.NoError(t, err)
	assert.Empty(t, added)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassRepositoryAddStudentsRollsBackOnFailure(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO class_students").
		WithArgs("cls-1", "stu-1").
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	_, err := repo.AddStudents(context.Background(), "cls-1", "crs-1", []string{"stu-1"})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassRepositoryListStudentIDs(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	rows := sqlmock.NewRows([]string{"user_id"}).AddRow("stu-1").AddRow("stu-2")
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT user_id FROM class_students WHERE class_id = $1 ORDER BY user_id`)).
		WithArgs("cls-1").
		WillReturnRows(rows)

	ids, err := repo.ListStudentIDs(context.Background(), "cls-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"stu-1", "stu-2"}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassRepositoryCountStudents(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM class_students WHERE class_id = $1`)).
		WithArgs("cls-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))

	count, err := repo.CountStudents(context.Background(), "cls-1")
	require.NoError(t, err)
	assert.Equal(t, 12, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassRepositoryDeleteRemovesRoster(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM class_students WHERE class_id = $1`)).
		WithArgs("cls-1").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM scheduled_classes WHERE id = $1`)).
		WithArgs("cls-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Delete(context.Background(), "cls-1")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
