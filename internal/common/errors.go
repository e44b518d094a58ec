package common

import (
	"errors"
	"net/http"

	"github.com/noah-isme/billing-service/internal/billing"
)

// AppError represents an error with an attached code and HTTP status.
type AppError struct {
	Code       string
	Message    string
	HTTPStatus int
	Err        error
	Details    any
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// Unwrap allows errors.Is/As to inspect the underlying error.
func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewAppError constructs an AppError.
func NewAppError(code, message string, status int, err error) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status, Err: err}
}

// IsAppError checks whether the error is an AppError.
func IsAppError(err error) bool {
	var target *AppError
	return errors.As(err, &target)
}

// Error codes rendered in the error envelope.
const (
	CodeNotFound   = "NOT_FOUND"
	CodeValidation = "VALIDATION_ERROR"
	CodeConflict   = "CONFLICT"
	CodeInternal   = "INTERNAL"
)

// ToAppError classifies err into the API error taxonomy. Storage failures
// that carry no billing sentinel become INTERNAL and their text is not
// exposed.
func ToAppError(err error) *AppError {
	var app *AppError
	if errors.As(err, &app) {
		return app
	}
	var missing *billing.MissingItemsError
	switch {
	case errors.As(err, &missing):
		return &AppError{Code: CodeNotFound, Message: err.Error(), HTTPStatus: http.StatusNotFound, Err: err, Details: map[string]any{"missing": missing.IDs}}
	case errors.Is(err, billing.ErrNotFound):
		return NewAppError(CodeNotFound, err.Error(), http.StatusNotFound, err)
	case errors.Is(err, billing.ErrValidation):
		return NewAppError(CodeValidation, err.Error(), http.StatusBadRequest, err)
	case errors.Is(err, billing.ErrConflict):
		return NewAppError(CodeConflict, err.Error(), http.StatusConflict, err)
	default:
		return NewAppError(CodeInternal, "internal error", http.StatusInternalServerError, err)
	}
}

// WriteError renders err using the canonical error envelope.
func WriteError(w http.ResponseWriter, err error) {
	app := ToAppError(err)
	JSONError(w, app.HTTPStatus, app.Code, app.Message, app.Details)
}
