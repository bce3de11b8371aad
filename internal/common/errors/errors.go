// Package errors provides standardized error handling for the HTTP surface.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"mergington-activities/internal/activities"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeActivityNotFound  ErrorCode = "ACTIVITY_NOT_FOUND"
	ErrCodeAlreadyRegistered ErrorCode = "ALREADY_REGISTERED"
	ErrCodeNotRegistered     ErrorCode = "NOT_REGISTERED"
	ErrCodeActivityFull      ErrorCode = "ACTIVITY_FULL"
	ErrCodeMissingParameter  ErrorCode = "MISSING_PARAMETER"
	ErrCodeInvalidParameter  ErrorCode = "INVALID_PARAMETER"
	ErrCodeInternal          ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error. Message is
// what the client sees; Details stays in the logs.
type StandardError struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Status    int       `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. Error Constructors
// ==========================

func NewActivityNotFoundError(activity string) *StandardError {
	return &StandardError{
		Code:      ErrCodeActivityNotFound,
		Message:   "Activity not found",
		Details:   fmt.Sprintf("activity: %s", activity),
		Status:    http.StatusNotFound,
		Timestamp: time.Now().UTC(),
	}
}

func NewAlreadyRegisteredError(activity, email string) *StandardError {
	return &StandardError{
		Code:      ErrCodeAlreadyRegistered,
		Message:   "Student is already signed up for this activity",
		Details:   fmt.Sprintf("activity: %s, email: %s", activity, email),
		Status:    http.StatusBadRequest,
		Timestamp: time.Now().UTC(),
	}
}

func NewNotRegisteredError(activity, email string) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotRegistered,
		Message:   "Student is not registered for this activity",
		Details:   fmt.Sprintf("activity: %s, email: %s", activity, email),
		Status:    http.StatusBadRequest,
		Timestamp: time.Now().UTC(),
	}
}

func NewActivityFullError(activity string) *StandardError {
	return &StandardError{
		Code:      ErrCodeActivityFull,
		Message:   "Activity is full",
		Details:   fmt.Sprintf("activity: %s", activity),
		Status:    http.StatusBadRequest,
		Timestamp: time.Now().UTC(),
	}
}

func NewMissingParameterError(param string) *StandardError {
	return &StandardError{
		Code:      ErrCodeMissingParameter,
		Message:   fmt.Sprintf("%s query parameter is required", param),
		Details:   fmt.Sprintf("param: %s", param),
		Status:    http.StatusUnprocessableEntity,
		Timestamp: time.Now().UTC(),
	}
}

func NewInvalidParameterError(param, value string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidParameter,
		Message:   fmt.Sprintf("invalid %s query parameter", param),
		Details:   fmt.Sprintf("param: %s, value: %q", param, value),
		Status:    http.StatusBadRequest,
		Timestamp: time.Now().UTC(),
	}
}

func NewInternalError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Internal server error",
		Details:   err.Error(),
		Status:    http.StatusInternalServerError,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. Domain Mapping
// ==========================

// FromDomain normalizes a registry error into a StandardError.
func FromDomain(err error, activity, email string) *StandardError {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}

	switch {
	case stderrors.Is(err, activities.ErrActivityNotFound):
		return NewActivityNotFoundError(activity)
	case stderrors.Is(err, activities.ErrAlreadyRegistered):
		return NewAlreadyRegisteredError(activity, email)
	case stderrors.Is(err, activities.ErrNotRegistered):
		return NewNotRegisteredError(activity, email)
	case stderrors.Is(err, activities.ErrActivityFull):
		return NewActivityFullError(activity)
	default:
		return NewInternalError(err)
	}
}

// IsClientError reports whether the code describes an expected,
// user-facing outcome rather than a server fault.
func IsClientError(code ErrorCode) bool {
	switch code {
	case ErrCodeActivityNotFound,
		ErrCodeAlreadyRegistered,
		ErrCodeNotRegistered,
		ErrCodeActivityFull,
		ErrCodeMissingParameter,
		ErrCodeInvalidParameter:
		return true
	default:
		return false
	}
}

func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "REGISTERED") || strings.Contains(codeStr, "FULL"):
		return "ROSTER"
	case strings.Contains(codeStr, "NOT_FOUND"):
		return "LOOKUP"
	case strings.Contains(codeStr, "PARAMETER"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
