package models

import "time"

// Course represents an offered course in the courses table.
// Capacity is nil for courses without an enrollment cap.
type Course struct {
	ID                string    `db:"id" json:"id"`
	Code              string    `db:"code" json:"code"`
	Name              string    `db:"name" json:"name"`
	CreditHours       int       `db:"credit_hours" json:"credit_hours"`
	Capacity          *int      `db:"capacity" json:"capacity,omitempty"`
	CurrentEnrollment int       `db:"current_enrollment" json:"current_enrollment"`
	ProfessorID       *string   `db:"professor_id" json:"professor_id,omitempty"`
	Active            bool      `db:"active" json:"active"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

// IsFull reports whether the course has reached its capacity.
// Courses without a capacity never fill up.
func (c *Course) IsFull() bool {
	return c.Capacity != nil && c.CurrentEnrollment >= *c.Capacity
}
