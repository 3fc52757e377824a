package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/campusops/registrar-api/internal/dto"
	"github.com/campusops/registrar-api/internal/models"
	appErrors "github.com/campusops/registrar-api/pkg/errors"
)

type registrationCourseRepo interface {
	FindByIDForUpdate(ctx context.Context, q sqlx.ExtContext, id string) (*models.Course, error)
	AdjustEnrollment(ctx context.Context, q sqlx.ExtContext, id string, delta int) error
}

type registrationEnrollmentRepo interface {
	Exists(ctx context.Context, q sqlx.ExtContext, studentID, courseID, term string) (bool, error)
	SumCreditsForUpdate(ctx context.Context, q sqlx.ExtContext, studentID, term string) (int, error)
	Create(ctx context.Context, q sqlx.ExtContext, enrollment *models.Enrollment) error
	FindForUpdate(ctx context.Context, q sqlx.ExtContext, studentID, courseID, term string) (*models.Enrollment, error)
	Delete(ctx context.Context, q sqlx.ExtContext, id string) error
	ListDetails(ctx context.Context, studentID, term string) ([]models.EnrollmentDetail, error)
}

type policyRepo interface {
	Latest(ctx context.Context) (*models.RegistrationPolicy, error)
	Create(ctx context.Context, policy *models.RegistrationPolicy) error
}

type registrationUserReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// PolicyDefaults seeds the registration policy when no row exists yet.
type PolicyDefaults struct {
	MaxCredits int
	Term       string
	Open       bool
}

// RegistrationService arbitrates course registration: duplicate, capacity and
// credit-limit checks run inside one transaction with the course row locked.
type RegistrationService struct {
	courses     registrationCourseRepo
	enrollments registrationEnrollmentRepo
	policies    policyRepo
	users       registrationUserReader
	tx          txProvider
	defaults    PolicyDefaults
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewRegistrationService wires registration dependencies.
func NewRegistrationService(
	courses registrationCourseRepo,
	enrollments registrationEnrollmentRepo,
	policies policyRepo,
	users registrationUserReader,
	tx txProvider,
	defaults PolicyDefaults,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
) *RegistrationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if defaults.MaxCredits <= 0 {
		defaults.MaxCredits = 18
	}
	if defaults.Term == "" {
		defaults.Term = "Fall 2024"
	}
	return &RegistrationService{
		courses:     courses,
		enrollments: enrollments,
		policies:    policies,
		users:       users,
		tx:          tx,
		defaults:    defaults,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
	}
}

// currentPolicy loads the newest policy row, materializing a default when
// the table is empty.
func (s *RegistrationService) currentPolicy(ctx context.Context) (*models.RegistrationPolicy, error) {
	policy, err := s.policies.Latest(ctx)
	if err == nil {
		return policy, nil
	}
	if err != sql.ErrNoRows {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load registration policy")
	}

	policy = &models.RegistrationPolicy{
		MaxCreditsPerStudent: s.defaults.MaxCredits,
		IsRegistrationOpen:   s.defaults.Open,
		CurrentTerm:          s.defaults.Term,
	}
	if err := s.policies.Create(ctx, policy); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create default registration policy")
	}
	s.logger.Info("materialized default registration policy",
		zap.Int("max_credits", policy.MaxCreditsPerStudent),
		zap.String("term", policy.CurrentTerm))
	return policy, nil
}

// Register enrolls the student in a course. Admission checks run in order:
// duplicate, capacity, credit limit.
func (s *RegistrationService) Register(ctx context.Context, studentID, courseID string) (result *dto.RegistrationResult, err error) {
	if studentID == "" || courseID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student and course are required")
	}

	student, err := s.users.FindByID(ctx, studentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if !student.Active {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "student account inactive")
	}

	policy, err := s.currentPolicy(ctx)
	if err != nil {
		return nil, err
	}
	if !policy.IsRegistrationOpen {
		return nil, appErrors.ErrRegistrationClosed
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin registration")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	course, err := s.courses.FindByIDForUpdate(ctx, tx, courseID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if !course.Active {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "course is not open for registration")
	}

	exists, err := s.enrollments.Exists(ctx, tx, studentID, courseID, policy.CurrentTerm)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check enrollment")
	}
	if exists {
		return nil, appErrors.ErrAlreadyEnrolled
	}

	if course.IsFull() {
		return nil, appErrors.Clone(appErrors.ErrCourseFull, fmt.Sprintf("course %s has reached capacity", course.Code))
	}

	total, err := s.enrollments.SumCreditsForUpdate(ctx, tx, studentID, policy.CurrentTerm)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sum enrolled credits")
	}
	if total+course.CreditHours > policy.MaxCreditsPerStudent {
		return nil, appErrors.Clone(appErrors.ErrCreditLimit,
			fmt.Sprintf("registering for %s would exceed the %d credit limit", course.Code, policy.MaxCreditsPerStudent))
	}

	enrollment := &models.Enrollment{StudentID: studentID, CourseID: courseID, Term: policy.CurrentTerm}
	if err = s.enrollments.Create(ctx, tx, enrollment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create enrollment")
	}
	if err = s.courses.AdjustEnrollment(ctx, tx, courseID, 1); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course enrollment")
	}

	if err = tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit registration")
	}

	s.metrics.RecordRegistration()
	s.logger.Info("student registered",
		zap.String("student_id", studentID),
		zap.String("course_code", course.Code),
		zap.Int("total_credits", total+course.CreditHours))

	return &dto.RegistrationResult{
		EnrollmentID: enrollment.ID,
		CourseID:     course.ID,
		CourseCode:   course.Code,
		CourseName:   course.Name,
		CreditHours:  course.CreditHours,
		TotalCredits: total + course.CreditHours,
		MaxCredits:   policy.MaxCreditsPerStudent,
		Term:         policy.CurrentTerm,
	}, nil
}

// Drop removes the student's enrollment and releases the seat. Drops are
// allowed even when registration is closed.
func (s *RegistrationService) Drop(ctx context.Context, studentID, courseID string) (result *dto.DropResult, err error) {
	if studentID == "" || courseID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student and course are required")
	}

	policy, err := s.currentPolicy(ctx)
	if err != nil {
		return nil, err
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin drop")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	course, err := s.courses.FindByIDForUpdate(ctx, tx, courseID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	enrollment, err := s.enrollments.FindForUpdate(ctx, tx, studentID, courseID, policy.CurrentTerm)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.ErrNotEnrolled
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}

	total, err := s.enrollments.SumCreditsForUpdate(ctx, tx, studentID, policy.CurrentTerm)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sum enrolled credits")
	}

	if err = s.enrollments.Delete(ctx, tx, enrollment.ID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete enrollment")
	}
	if err = s.courses.AdjustEnrollment(ctx, tx, courseID, -1); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course enrollment")
	}

	if err = tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit drop")
	}

	remaining := total - course.CreditHours
	if remaining < 0 {
		remaining = 0
	}

	s.metrics.RecordDrop()
	s.logger.Info("student dropped course",
		zap.String("student_id", studentID),
		zap.String("course_code", course.Code),
		zap.Int("remaining_credits", remaining))

	return &dto.DropResult{
		CourseID:         course.ID,
		CourseCode:       course.Code,
		RemainingCredits: remaining,
		Term:             policy.CurrentTerm,
	}, nil
}

// Status reports the student's standing in the current term.
func (s *RegistrationService) Status(ctx context.Context, studentID string) (*dto.RegistrationStatus, error) {
	policy, err := s.currentPolicy(ctx)
	if err != nil {
		return nil, err
	}
	details, err := s.enrollments.ListDetails(ctx, studentID, policy.CurrentTerm)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	total := 0
	for _, d := range details {
		total += d.CreditHours
	}
	return &dto.RegistrationStatus{
		EnrolledCount:    len(details),
		TotalCredits:     total,
		MaxCredits:       policy.MaxCreditsPerStudent,
		Term:             policy.CurrentTerm,
		RegistrationOpen: policy.IsRegistrationOpen,
	}, nil
}

// ListEnrollments returns the student's current-term enrollments with
// course info.
func (s *RegistrationService) ListEnrollments(ctx context.Context, studentID string) ([]models.EnrollmentDetail, error) {
	policy, err := s.currentPolicy(ctx)
	if err != nil {
		return nil, err
	}
	details, err := s.enrollments.ListDetails(ctx, studentID, policy.CurrentTerm)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	return details, nil
}
