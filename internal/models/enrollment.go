package models

import "time"

// Enrollment links a student to a course for a term.
// At most one row may exist per (student, course, term).
type Enrollment struct {
	ID           string    `db:"id" json:"id"`
	StudentID    string    `db:"student_id" json:"student_id"`
	CourseID     string    `db:"course_id" json:"course_id"`
	Term         string    `db:"term" json:"term"`
	RegisteredAt time.Time `db:"registered_at" json:"registered_at"`
}

// EnrollmentDetail is an enrollment joined with its course for listings.
type EnrollmentDetail struct {
	EnrollmentID string    `db:"enrollment_id" json:"enrollment_id"`
	CourseID     string    `db:"course_id" json:"course_id"`
	CourseCode   string    `db:"course_code" json:"course_code"`
	CourseName   string    `db:"course_name" json:"course_name"`
	CreditHours  int       `db:"credit_hours" json:"credit_hours"`
	Term         string    `db:"term" json:"term"`
	RegisteredAt time.Time `db:"registered_at" json:"registered_at"`
}
