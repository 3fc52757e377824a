package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusops/registrar-api/internal/models"
	appErrors "github.com/campusops/registrar-api/pkg/errors"
)

type txProviderMock struct {
	db *sqlx.DB
}

func newTxProviderMock(t *testing.T) (txProvider, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	t.Cleanup(func() { db.Close() })
	return &txProviderMock{db: sqlxdb}, mock
}

func (t *txProviderMock) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return t.db.BeginTxx(ctx, opts)
}

type courseRepoStub struct {
	courses  map[string]*models.Course
	adjusted map[string]int
}

func (s *courseRepoStub) FindByIDForUpdate(ctx context.Context, q sqlx.ExtContext, id string) (*models.Course, error) {
	if c, ok := s.courses[id]; ok {
		copied := *c
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (s *courseRepoStub) AdjustEnrollment(ctx context.Context, q sqlx.ExtContext, id string, delta int) error {
	if s.adjusted == nil {
		s.adjusted = make(map[string]int)
	}
	s.adjusted[id] += delta
	return nil
}

type enrollmentRepoStub struct {
	existing   bool
	credits    int
	created    *models.Enrollment
	enrollment *models.Enrollment
	deleted    []string
	details    []models.EnrollmentDetail
}

func (s *enrollmentRepoStub) Exists(ctx context.Context, q sqlx.ExtContext, studentID, courseID, term string) (bool, error) {
	return s.existing, nil
}

func (s *enrollmentRepoStub) SumCreditsForUpdate(ctx context.Context, q sqlx.ExtContext, studentID, term string) (int, error) {
	return s.credits, nil
}

func (s *enrollmentRepoStub) Create(ctx context.Context, q sqlx.ExtContext, enrollment *models.Enrollment) error {
	enrollment.ID = "enr-new"
	enrollment.RegisteredAt = time.Now().UTC()
	s.created = enrollment
	return nil
}

func (s *enrollmentRepoStub) FindForUpdate(ctx context.Context, q sqlx.ExtContext, studentID, courseID, term string) (*models.Enrollment, error) {
	if s.enrollment == nil {
		return nil, sql.ErrNoRows
	}
	return s.enrollment, nil
}

func (s *enrollmentRepoStub) Delete(ctx context.Context, q sqlx.ExtContext, id string) error {
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *enrollmentRepoStub) ListDetails(ctx context.Context, studentID, term string) ([]models.EnrollmentDetail, error) {
	return s.details, nil
}

type policyRepoStub struct {
	policy  *models.RegistrationPolicy
	created *models.RegistrationPolicy
}

func (s *policyRepoStub) Latest(ctx context.Context) (*models.RegistrationPolicy, error) {
	if s.policy == nil {
		return nil, sql.ErrNoRows
	}
	return s.policy, nil
}

func (s *policyRepoStub) Create(ctx context.Context, policy *models.RegistrationPolicy) error {
	policy.ID = "pol-new"
	s.created = policy
	s.policy = policy
	return nil
}

type userReaderStub struct {
	users map[string]*models.User
}

func (s *userReaderStub) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (s *userReaderStub) FindByIDForUpdate(ctx context.Context, q sqlx.ExtContext, id string) (*models.User, error) {
	return s.FindByID(ctx, id)
}

type registrationFixture struct {
	courses     *courseRepoStub
	enrollments *enrollmentRepoStub
	policies    *policyRepoStub
	users       *userReaderStub
	metrics     *MetricsService
	mock        sqlmock.Sqlmock
	svc         *RegistrationService
}

func newRegistrationFixture(t *testing.T) *registrationFixture {
	capacity := 30
	courses := &courseRepoStub{courses: map[string]*models.Course{
		"course-1": {ID: "course-1", Code: "CS101", Name: "Intro to CS", CreditHours: 3, Capacity: &capacity, CurrentEnrollment: 10, Active: true},
	}}
	enrollments := &enrollmentRepoStub{credits: 15}
	policies := &policyRepoStub{policy: &models.RegistrationPolicy{
		ID:                   "pol-1",
		MaxCreditsPerStudent: 18,
		IsRegistrationOpen:   true,
		CurrentTerm:          "Fall 2024",
	}}
	users := &userReaderStub{users: map[string]*models.User{
		"stu-1": {ID: "stu-1", Role: models.RoleStudent, Active: true},
	}}
	tx, mock := newTxProviderMock(t)
	metrics := NewMetricsService()

	svc := NewRegistrationService(courses, enrollments, policies, users, tx, PolicyDefaults{}, metrics, nil, nil)
	return &registrationFixture{courses: courses, enrollments: enrollments, policies: policies, users: users, metrics: metrics, mock: mock, svc: svc}
}

func TestRegistrationServiceRegisterWithinLimit(t *testing.T) {
	f := newRegistrationFixture(t)
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	result, err := f.svc.Register(context.Background(), "stu-1", "course-1")
	require.NoError(t, err)
	assert.Equal(t, 18, result.TotalCredits)
	assert.Equal(t, "CS101", result.CourseCode)
	assert.NotNil(t, f.enrollments.created)
	assert.Equal(t, 1, f.courses.adjusted["course-1"])
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestRegistrationServiceRegisterExceedsCreditLimit(t *testing.T) {
	f := newRegistrationFixture(t)
	f.courses.courses["course-1"].CreditHours = 4
	f.mock.ExpectBegin()
	f.mock.ExpectRollback()

	_, err := f.svc.Register(context.Background(), "stu-1", "course-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrCreditLimit.Code, appErrors.FromError(err).Code)
	assert.Nil(t, f.enrollments.created)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestRegistrationServiceRegisterDuplicate(t *testing.T) {
	f := newRegistrationFixture(t)
	f.enrollments.existing = true
	f.mock.ExpectBegin()
	f.mock.ExpectRollback()

	_, err := f.svc.Register(context.Background(), "stu-1", "course-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrAlreadyEnrolled.Code, appErrors.FromError(err).Code)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestRegistrationServiceRegisterCourseFull(t *testing.T) {
	f := newRegistrationFixture(t)
	capacity := 10
	f.courses.courses["course-1"].Capacity = &capacity
	f.mock.ExpectBegin()
	f.mock.ExpectRollback()

	_, err := f.svc.Register(context.Background(), "stu-1", "course-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrCourseFull.Code, appErrors.FromError(err).Code)
	assert.Zero(t, f.courses.adjusted["course-1"])
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestRegistrationServiceRegisterClosed(t *testing.T) {
	f := newRegistrationFixture(t)
	f.policies.policy.IsRegistrationOpen = false

	_, err := f.svc.Register(context.Background(), "stu-1", "course-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrRegistrationClosed.Code, appErrors.FromError(err).Code)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestRegistrationServiceMaterializesDefaultPolicy(t *testing.T) {
	f := newRegistrationFixture(t)
	f.policies.policy = nil
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	result, err := f.svc.Register(context.Background(), "stu-1", "course-1")
	require.NoError(t, err)
	require.NotNil(t, f.policies.created)
	assert.Equal(t, 18, f.policies.created.MaxCreditsPerStudent)
	assert.Equal(t, "Fall 2024", result.Term)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestRegistrationServiceDrop(t *testing.T) {
	f := newRegistrationFixture(t)
	f.enrollments.enrollment = &models.Enrollment{ID: "enr-1", StudentID: "stu-1", CourseID: "course-1", Term: "Fall 2024"}
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	result, err := f.svc.Drop(context.Background(), "stu-1", "course-1")
	require.NoError(t, err)
	assert.Equal(t, 12, result.RemainingCredits)
	assert.Contains(t, f.enrollments.deleted, "enr-1")
	assert.Equal(t, -1, f.courses.adjusted["course-1"])
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestRegistrationServiceDropFloorsRemainingCredits(t *testing.T) {
	f := newRegistrationFixture(t)
	f.enrollments.credits = 3
	f.courses.courses["course-1"].CreditHours = 5
	f.enrollments.enrollment = &models.Enrollment{ID: "enr-1", StudentID: "stu-1", CourseID: "course-1", Term: "Fall 2024"}
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	result, err := f.svc.Drop(context.Background(), "stu-1", "course-1")
	require.NoError(t, err)
	assert.Equal(t, 0, result.RemainingCredits)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestRegistrationServiceDropNotEnrolled(t *testing.T) {
	f := newRegistrationFixture(t)
	f.mock.ExpectBegin()
	f.mock.ExpectRollback()

	_, err := f.svc.Drop(context.Background(), "stu-1", "course-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotEnrolled.Code, appErrors.FromError(err).Code)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestRegistrationServiceCountsCommittedOutcomes(t *testing.T) {
	f := newRegistrationFixture(t)
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	_, err := f.svc.Register(context.Background(), "stu-1", "course-1")
	require.NoError(t, err)

	f.enrollments.enrollment = &models.Enrollment{ID: "enr-1", StudentID: "stu-1", CourseID: "course-1", Term: "Fall 2024"}
	_, err = f.svc.Drop(context.Background(), "stu-1", "course-1")
	require.NoError(t, err)

	snap := f.metrics.Snapshot()
	assert.Equal(t, uint64(1), snap.RegistrationsTotal)
	assert.Equal(t, uint64(1), snap.DropsTotal)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestRegistrationServiceRejectedRegistrationNotCounted(t *testing.T) {
	f := newRegistrationFixture(t)
	f.courses.courses["course-1"].CreditHours = 4
	f.mock.ExpectBegin()
	f.mock.ExpectRollback()

	_, err := f.svc.Register(context.Background(), "stu-1", "course-1")
	require.Error(t, err)
	assert.Zero(t, f.metrics.Snapshot().RegistrationsTotal)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestRegistrationServiceStatus(t *testing.T) {
	f := newRegistrationFixture(t)
	f.enrollments.details = []models.EnrollmentDetail{
		{EnrollmentID: "enr-1", CourseCode: "CS101", CreditHours: 3},
		{EnrollmentID: "enr-2", CourseCode: "MATH201", CreditHours: 4},
	}

	status, err := f.svc.Status(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.Equal(t, 2, status.EnrolledCount)
	assert.Equal(t, 7, status.TotalCredits)
	assert.Equal(t, 18, status.MaxCredits)
	assert.True(t, status.RegistrationOpen)
}
