package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/campusops/registrar-api/internal/models"
)

const courseColumns = `id, code, name, credit_hours, capacity, current_enrollment, professor_id, active, created_at, updated_at`

// CourseRepository provides database access for the course catalog.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository creates a new instance of CourseRepository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// FindByID returns a course by identifier.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	query := fmt.Sprintf(`SELECT %s FROM courses WHERE id = $1 LIMIT 1`, courseColumns)
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find course by id: %w", err)
	}
	return &course, nil
}

// FindByIDForUpdate locks the course row inside the caller's transaction.
// Registration admission decisions read and write current_enrollment, so the
// row stays locked until commit.
func (r *CourseRepository) FindByIDForUpdate(ctx context.Context, q sqlx.ExtContext, id string) (*models.Course, error) {
	query := fmt.Sprintf(`SELECT %s FROM courses WHERE id = $1 FOR UPDATE`, courseColumns)
	var course models.Course
	if err := sqlx.GetContext(ctx, q, &course, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("lock course: %w", err)
	}
	return &course, nil
}

// AdjustEnrollment moves current_enrollment by delta, floored at zero.
func (r *CourseRepository) AdjustEnrollment(ctx context.Context, q sqlx.ExtContext, id string, delta int) error {
	const query = `UPDATE courses SET current_enrollment = GREATEST(current_enrollment + $2, 0), updated_at = $3 WHERE id = $1`
	if _, err := q.ExecContext(ctx, query, id, delta, time.Now().UTC()); err != nil {
		return fmt.Errorf("adjust course enrollment: %w", err)
	}
	return nil
}

// ListActive returns all active courses ordered by code.
func (r *CourseRepository) ListActive(ctx context.Context) ([]models.Course, error) {
	query := fmt.Sprintf(`SELECT %s FROM courses WHERE active = TRUE ORDER BY code ASC`, courseColumns)
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query); err != nil {
		return nil, fmt.Errorf("list active courses: %w", err)
	}
	return courses, nil
}
