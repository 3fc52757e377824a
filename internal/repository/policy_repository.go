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

// PolicyRepository stores registration policy rows.
type PolicyRepository struct {
	db *sqlx.DB
}

// NewPolicyRepository constructs the repository.
func NewPolicyRepository(db *sqlx.DB) *PolicyRepository {
	return &PolicyRepository{db: db}
}

// Latest returns the most recently created policy row. sql.ErrNoRows is
// passed through so callers can materialize a default.
func (r *PolicyRepository) Latest(ctx context.Context) (*models.RegistrationPolicy, error) {
	const query = `SELECT id, max_credits_per_student, is_registration_open, current_term, created_at FROM registration_policies ORDER BY created_at DESC LIMIT 1`
	var policy models.RegistrationPolicy
	if err := r.db.GetContext(ctx, &policy, query); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("load latest registration policy: %w", err)
	}
	return &policy, nil
}

// Create inserts a new policy row.
func (r *PolicyRepository) Create(ctx context.Context, policy *models.RegistrationPolicy) error {
	if policy.ID == "" {
		policy.ID = uuid.NewString()
	}
	if policy.CreatedAt.IsZero() {
		policy.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO registration_policies (id, max_credits_per_student, is_registration_open, current_term, created_at) VALUES (:id, :max_credits_per_student, :is_registration_open, :current_term, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, policy); err != nil {
		return fmt.Errorf("create registration policy: %w", err)
	}
	return nil
}
