package dto

// RegistrationRequest identifies the course a student registers for or drops.
type RegistrationRequest struct {
	CourseID string `json:"course_id" validate:"required,uuid4"`
}

// RegistrationResult summarizes the outcome of a successful registration.
type RegistrationResult struct {
	EnrollmentID string `json:"enrollment_id"`
	CourseID     string `json:"course_id"`
	CourseCode   string `json:"course_code"`
	CourseName   string `json:"course_name"`
	CreditHours  int    `json:"credit_hours"`
	TotalCredits int    `json:"total_credits"`
	MaxCredits   int    `json:"max_credits"`
	Term         string `json:"term"`
}

// DropResult summarizes a successful drop.
type DropResult struct {
	CourseID         string `json:"course_id"`
	CourseCode       string `json:"course_code"`
	RemainingCredits int    `json:"remaining_credits"`
	Term             string `json:"term"`
}

// RegistrationStatus describes a student's standing in the current term.
type RegistrationStatus struct {
	EnrolledCount    int    `json:"enrolled_count"`
	TotalCredits     int    `json:"total_credits"`
	MaxCredits       int    `json:"max_credits"`
	Term             string `json:"term"`
	RegistrationOpen bool   `json:"registration_open"`
}
