package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios.
var (
	ErrInvalidCredentials = New("INVALID_CREDENTIALS", http.StatusUnauthorized, "invalid email or password")
	ErrInactiveAccount    = New("ACCOUNT_INACTIVE", http.StatusForbidden, "account is inactive")
	ErrNotFound           = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrForbidden          = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrUnauthorized       = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrConflict           = New("CONFLICT", http.StatusConflict, "conflict")
	ErrPreconditionFailed = New("PRECONDITION_FAILED", http.StatusPreconditionFailed, "precondition failed")
	ErrValidation         = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal           = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")

	ErrAlreadyEnrolled    = New("ALREADY_ENROLLED", http.StatusConflict, "student already enrolled in course")
	ErrNotEnrolled        = New("NOT_ENROLLED", http.StatusBadRequest, "student is not enrolled in course")
	ErrCourseFull         = New("COURSE_FULL", http.StatusConflict, "course has reached capacity")
	ErrCreditLimit        = New("CREDIT_LIMIT_EXCEEDED", http.StatusBadRequest, "credit limit exceeded")
	ErrRegistrationClosed = New("REGISTRATION_CLOSED", http.StatusConflict, "registration is closed")
	ErrRoomConflict       = New("ROOM_CONFLICT", http.StatusConflict, "room already booked for the requested interval")
	ErrSlotNotAvailable   = New("SLOT_NOT_AVAILABLE", http.StatusConflict, "office hour slot is not available")
	ErrPastSlot           = New("PAST_SLOT", http.StatusBadRequest, "cannot book a slot in the past")
	ErrDuplicateBooking   = New("DUPLICATE_BOOKING", http.StatusConflict, "student already has a booking with this staff member that day")
	ErrInvalidInterval    = New("INVALID_INTERVAL", http.StatusBadRequest, "interval end must be after start")
)

// ErrCacheMiss signals a cache lookup found no entry. It never reaches HTTP
// responses; callers fall back to the source of truth.
var ErrCacheMiss = errors.New("cache miss")

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}
