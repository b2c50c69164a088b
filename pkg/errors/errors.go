// Package errors defines the structured error types used across the risk
// engine. Every error surfaced out of the application layer carries a closed
// error code and an HTTP status so the interface layer can translate it
// without inspecting error strings.
package errors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/urbanyield/riskengine/pkg/constants"
)

// AppError is a structured application error.
type AppError struct {
	Code       constants.ErrorCode
	HTTPStatus int
	Message    string
	Cause      error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause for errors.Is/As chains.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithError attaches a cause to a copy of the error.
func (e *AppError) WithError(cause error) *AppError {
	return &AppError{
		Code:       e.Code,
		HTTPStatus: e.HTTPStatus,
		Message:    e.Message,
		Cause:      cause,
	}
}

// New creates an AppError with the given code, status and message.
func New(code constants.ErrorCode, httpStatus int, message string) *AppError {
	return &AppError{Code: code, HTTPStatus: httpStatus, Message: message}
}

// ================================================================================
// Predefined Error Constructors
// ================================================================================

// ErrPropertyNotFound indicates the property does not exist in the repository.
func ErrPropertyNotFound(propertyID string) *AppError {
	return New(constants.ErrCodeNotFound, http.StatusNotFound,
		fmt.Sprintf("property not found: %s", propertyID))
}

// ErrRiskResultNotFound indicates no simulation has been persisted for the property.
func ErrRiskResultNotFound(propertyID string) *AppError {
	return New(constants.ErrCodeNotFound, http.StatusNotFound,
		fmt.Sprintf("no risk result for property: %s", propertyID))
}

// ErrConfiguration indicates malformed simulation or grading parameters.
func ErrConfiguration(message string) *AppError {
	return New(constants.ErrCodeConfiguration, http.StatusInternalServerError, message)
}

// ErrNumericFailure indicates the solver failed across all scenarios of a run.
func ErrNumericFailure(message string) *AppError {
	return New(constants.ErrCodeNumericFailure, http.StatusUnprocessableEntity, message)
}

// ErrPersistence indicates the run's transaction could not commit.
func ErrPersistence(message string) *AppError {
	return New(constants.ErrCodePersistenceFailure, http.StatusInternalServerError, message)
}

// ErrInvalidRequest indicates a malformed caller request.
func ErrInvalidRequest(message string) *AppError {
	return New(constants.ErrCodeInvalidRequest, http.StatusBadRequest, message)
}

// ErrInternal wraps an unexpected failure.
func ErrInternal(message string) *AppError {
	return New(constants.ErrCodeInternal, http.StatusInternalServerError, message)
}

// ================================================================================
// Helpers
// ================================================================================

// GetAppError extracts an AppError from an error chain.
func GetAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsNotFound reports whether the error is a not_found AppError.
func IsNotFound(err error) bool {
	if appErr, ok := GetAppError(err); ok {
		return appErr.Code == constants.ErrCodeNotFound
	}
	return false
}

// IsConfiguration reports whether the error is a configuration_error AppError.
func IsConfiguration(err error) bool {
	if appErr, ok := GetAppError(err); ok {
		return appErr.Code == constants.ErrCodeConfiguration
	}
	return false
}

// ErrorResponse is the JSON body returned by the HTTP layer for errors.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// ToErrorResponse converts any error to an ErrorResponse.
func ToErrorResponse(err error) *ErrorResponse {
	if appErr, ok := GetAppError(err); ok {
		return &ErrorResponse{
			Error:            string(appErr.Code),
			ErrorDescription: appErr.Message,
		}
	}
	return &ErrorResponse{
		Error:            string(constants.ErrCodeInternal),
		ErrorDescription: "An unexpected error occurred",
	}
}

// HTTPStatus returns the HTTP status for any error, defaulting to 500.
func HTTPStatus(err error) int {
	if appErr, ok := GetAppError(err); ok {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}
