package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func TestCourseRepositoryFindByIDForUpdate(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewCourseRepository(db)

	capacity := 30
	rows := sqlmock.NewRows([]string{"id", "code", "name", "credit_hours", "capacity", "current_enrollment", "professor_id", "active", "created_at", "updated_at"}).
		AddRow("course-1", "CS101", "Intro to CS", 3, capacity, 12, nil, true, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta(`FROM courses WHERE id = $1 FOR UPDATE`)).
		WithArgs("course-1").
		WillReturnRows(rows)

	course, err := repo.FindByIDForUpdate(context.Background(), db, "course-1")
	require.NoError(t, err)
	require.Equal(t, "CS101", course.Code)
	require.NotNil(t, course.Capacity)
	require.Equal(t, 30, *course.Capacity)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryAdjustEnrollmentFloorsAtZero(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewCourseRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE courses SET current_enrollment = GREATEST(current_enrollment + $2, 0), updated_at = $3 WHERE id = $1`)).
		WithArgs("course-1", -1, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.AdjustEnrollment(context.Background(), db, "course-1", -1))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryListActive(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewCourseRepository(db)

	rows := sqlmock.NewRows([]string{"id", "code", "name", "credit_hours", "capacity", "current_enrollment", "professor_id", "active", "created_at", "updated_at"}).
		AddRow("course-1", "CS101", "Intro to CS", 3, nil, 12, nil, true, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta(`FROM courses WHERE active = TRUE ORDER BY code ASC`)).
		WillReturnRows(rows)

	courses, err := repo.ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, courses, 1)
	require.Nil(t, courses[0].Capacity)
	require.NoError(t, mock.ExpectationsWereMet())
}
