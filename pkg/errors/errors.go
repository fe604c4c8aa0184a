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
	ErrNotFound           = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrForbidden          = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrUnauthorized       = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrConflict           = New("CONFLICT", http.StatusConflict, "conflict")
	ErrValidation         = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal           = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")

	// Academic selection failure modes. Each precondition of the one-time
	// selection workflow surfaces as its own code so the client can render
	// a specific message.
	ErrNotEligible           = New("NOT_ELIGIBLE", http.StatusForbidden, "account is not eligible for this selection")
	ErrSelectionAlreadyMade  = New("SELECTION_ALREADY_MADE", http.StatusConflict, "selection has already been made")
	ErrNotAMastersDegree     = New("NOT_A_MASTERS_DEGREE", http.StatusBadRequest, "program is not a master's degree")
	ErrSpecializationNeeded  = New("SPECIALIZATION_REQUIRED", http.StatusBadRequest, "please select a specialization")
	ErrSpecializationInvalid = New("SPECIALIZATION_MISMATCH", http.StatusBadRequest, "specialization does not belong to the selected program")

	ErrDuplicateReview = New("DUPLICATE_REVIEW", http.StatusConflict, "you have already reviewed this course")
	ErrEmailRegistered = New("EMAIL_REGISTERED", http.StatusConflict, "email is already registered")
	ErrRateLimited     = New("RATE_LIMITED", http.StatusTooManyRequests, "too many requests, try again later")
)

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
