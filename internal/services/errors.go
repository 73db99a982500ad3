package services

import (
	"errors"

	apperrors "github.com/tallerhq/course-admin-service/internal/errors"
)

// ===== COMMON SERVICE ERRORS =====

var (
	// Generic errors
	ErrNotFound         = errors.New("resource not found")
	ErrValidationFailed = errors.New("validation failed")
	ErrConflict         = errors.New("resource conflict")

	// Course specific errors
	ErrCourseNotFound    = errors.New("course not found")
	ErrCourseHasNoQuiz   = errors.New("course has no quiz definition")
	ErrCourseHasNoSurvey = errors.New("course has no survey definition")
	ErrCourseNameTaken   = errors.New("course name already exists")

	// Event specific errors
	ErrEventNotFound = errors.New("event not found")
	ErrEventClosed   = errors.New("event is closed for submissions")

	// Student specific errors
	ErrStudentNotFound = errors.New("student not found")

	// Submission specific errors
	ErrNotEnrolled      = errors.New("student is not enrolled in this event")
	ErrAlreadyEnrolled  = errors.New("student is already enrolled in this event")
	ErrAlreadySubmitted = errors.New("submission already recorded for this student")

	// ErrConcurrentUpdate means the guarded write lost its race on every
	// attempt; the caller may retry the whole request.
	ErrConcurrentUpdate = errors.New("event was modified concurrently, retry")
)

// ===== CUSTOM ERROR TYPES =====

// Use shared validation errors from errors package
type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

// NewValidationError creates a new validation error using the shared type
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return apperrors.NewValidationError(field, message, value)
}

// ===== ERROR HELPERS =====

// IsNotFound checks if error represents a "not found" condition
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrCourseNotFound) ||
		errors.Is(err, ErrEventNotFound) ||
		errors.Is(err, ErrStudentNotFound)
}

// IsConflict checks if error represents a resource conflict
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrAlreadySubmitted) ||
		errors.Is(err, ErrAlreadyEnrolled) ||
		errors.Is(err, ErrCourseNameTaken) ||
		errors.Is(err, ErrConcurrentUpdate)
}

// IsValidation checks if error represents a validation failure
func IsValidation(err error) bool {
	if errors.Is(err, ErrValidationFailed) {
		return true
	}
	var ve apperrors.ValidationErrors
	return errors.As(err, &ve)
}

// IsBusinessRule checks if error represents a business rule rejection the
// caller should surface verbatim (wrong state rather than bad input).
func IsBusinessRule(err error) bool {
	return errors.Is(err, ErrEventClosed) ||
		errors.Is(err, ErrNotEnrolled) ||
		errors.Is(err, ErrCourseHasNoQuiz) ||
		errors.Is(err, ErrCourseHasNoSurvey)
}
