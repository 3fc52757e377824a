package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campusops/registrar-api/internal/models"
)

// EnrollmentRepository handles persistence of course enrollments.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// Exists reports whether the student is enrolled in the course for the term.
func (r *EnrollmentRepository) Exists(ctx context.Context, q sqlx.ExtContext, studentID, courseID, term string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM enrollments WHERE student_id = $1 AND course_id = $2 AND term = $3)`
	var exists bool
	if err := sqlx.GetContext(ctx, q, &exists, query, studentID, courseID, term); err != nil {
		return false, fmt.Errorf("check enrollment exists: %w", err)
	}
	return exists, nil
}

// SumCreditsForUpdate locks the student's enrollment rows for the term and
// returns the total credit hours they carry. The row locks keep the credit
// total stable until the caller's transaction commits.
func (r *EnrollmentRepository) SumCreditsForUpdate(ctx context.Context, q sqlx.ExtContext, studentID, term string) (int, error) {
	const query = `SELECT c.credit_hours
FROM enrollments e
JOIN courses c ON c.id = e.course_id
WHERE e.student_id = $1 AND e.term = $2
FOR UPDATE OF e`
	var credits []int
	if err := sqlx.SelectContext(ctx, q, &credits, query, studentID, term); err != nil {
		return 0, fmt.Errorf("sum enrolled credits: %w", err)
	}
	total := 0
	for _, c := range credits {
		total += c
	}
	return total, nil
}

// Create inserts a new enrollment row.
func (r *EnrollmentRepository) Create(ctx context.Context, q sqlx.ExtContext, enrollment *models.Enrollment) error {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	if enrollment.RegisteredAt.IsZero() {
		enrollment.RegisteredAt = time.Now().UTC()
	}
	const query = `INSERT INTO enrollments (id, student_id, course_id, term, registered_at) VALUES ($1, $2, $3, $4, $5)`
	if _, err := q.ExecContext(ctx, query, enrollment.ID, enrollment.StudentID, enrollment.CourseID, enrollment.Term, enrollment.RegisteredAt); err != nil {
		return fmt.Errorf("create enrollment: %w", err)
	}
	return nil
}

// FindForUpdate locks the student's enrollment in the course for the term.
func (r *EnrollmentRepository) FindForUpdate(ctx context.Context, q sqlx.ExtContext, studentID, courseID, term string) (*models.Enrollment, error) {
	const query = `SELECT id, student_id, course_id, term, registered_at FROM enrollments WHERE student_id = $1 AND course_id = $2 AND term = $3 FOR UPDATE`
	var enrollment models.Enrollment
	if err := sqlx.GetContext(ctx, q, &enrollment, query, studentID, courseID, term); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("lock enrollment: %w", err)
	}
	return &enrollment, nil
}

// Delete removes an enrollment row.
func (r *EnrollmentRepository) Delete(ctx context.Context, q sqlx.ExtContext, id string) error {
	const query = `DELETE FROM enrollments WHERE id = $1`
	if _, err := q.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete enrollment: %w", err)
	}
	return nil
}

// ListDetails returns the student's enrollments for the term joined with
// course info, newest registration first.
func (r *EnrollmentRepository) ListDetails(ctx context.Context, studentID, term string) ([]models.EnrollmentDetail, error) {
	const query = `SELECT
	e.id AS enrollment_id,
	c.id AS course_id,
	c.code AS course_code,
	c.name AS course_name,
	c.credit_hours,
	e.term,
	e.registered_at
FROM enrollments e
JOIN courses c ON c.id = e.course_id
WHERE e.student_id = $1 AND e.term = $2
ORDER BY e.registered_at DESC`
	var details []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &details, query, studentID, term); err != nil {
		return nil, fmt.Errorf("list enrollment details: %w", err)
	}
	return details, nil
}
