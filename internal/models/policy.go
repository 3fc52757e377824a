package models

import "time"

// RegistrationPolicy stores the term-wide registration rules. The newest row
// wins; a default row is materialized when the table is empty.
type RegistrationPolicy struct {
	ID                   string    `db:"id" json:"id"`
	MaxCreditsPerStudent int       `db:"max_credits_per_student" json:"max_credits_per_student"`
	IsRegistrationOpen   bool      `db:"is_registration_open" json:"is_registration_open"`
	CurrentTerm          string    `db:"current_term" json:"current_term"`
	CreatedAt            time.Time `db:"created_at" json:"created_at"`
}
