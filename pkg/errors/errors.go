package errors

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"net/http"

	"gorm.io/gorm"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "validation"
	ErrorTypeNotFound     ErrorType = "not_found"
	ErrorTypeConflict     ErrorType = "conflict"
	ErrorTypeUnauthorized ErrorType = "unauthorized"
	ErrorTypeForbidden    ErrorType = "forbidden"
	ErrorTypeInternal     ErrorType = "internal"
	ErrorTypeDatabase     ErrorType = "database"
	ErrorTypeTimeout      ErrorType = "timeout"
)

// Codes shared by the services and the handlers
const (
	CodeValidation        = "VALIDATION_ERROR"
	CodeInvalidStatus     = "INVALID_STATUS"
	CodeInvalidTransition = "INVALID_TRANSITION"
	CodeDuplicate         = "DUPLICATE_RESOURCE"
	CodeNotFound          = "RESOURCE_NOT_FOUND"
	CodeNoExpiryData      = "NO_EXPIRY_DATA"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeForbidden         = "FORBIDDEN"
	CodeInternal          = "INTERNAL_ERROR"
	CodeDatabase          = "DATABASE_ERROR"
	CodeTimeout           = "TIMEOUT"
)

// APIError represents a structured API error
type APIError struct {
	Type        ErrorType `json:"type"`
	Code        string    `json:"code"`
	Message     string    `json:"message"`
	Details     string    `json:"details,omitempty"`
	HTTPStatus  int       `json:"-"`
	InternalErr error     `json:"-"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Message, e.Details, e.Code)
	}
	return fmt.Sprintf("%s (%s)", e.Message, e.Code)
}

// Unwrap returns the underlying error
func (e *APIError) Unwrap() error {
	return e.InternalErr
}

// NewAPIError creates a new API error
func NewAPIError(errorType ErrorType, code, message string, httpStatus int) *APIError {
	return &APIError{
		Type:       errorType,
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// NewAPIErrorWithCause creates a new API error with an underlying cause
func NewAPIErrorWithCause(errorType ErrorType, code, message string, httpStatus int, cause error) *APIError {
	return &APIError{
		Type:        errorType,
		Code:        code,
		Message:     message,
		HTTPStatus:  httpStatus,
		InternalErr: cause,
	}
}

// ValidationError creates a validation error
func ValidationError(code, message string) *APIError {
	return NewAPIError(ErrorTypeValidation, code, message, http.StatusBadRequest)
}

// NotFoundError creates a not found error
func NotFoundError(resource string) *APIError {
	return NewAPIError(ErrorTypeNotFound, CodeNotFound, fmt.Sprintf("%s not found", resource), http.StatusNotFound)
}

// NotFoundErrorWithCode creates a not found error carrying a specific code and message
func NotFoundErrorWithCode(code, message string) *APIError {
	return NewAPIError(ErrorTypeNotFound, code, message, http.StatusNotFound)
}

// ConflictError creates a conflict error
func ConflictError(code, message string) *APIError {
	return NewAPIError(ErrorTypeConflict, code, message, http.StatusConflict)
}

// ForbiddenError creates a forbidden error
func ForbiddenError(message string) *APIError {
	return NewAPIError(ErrorTypeForbidden, CodeForbidden, message, http.StatusForbidden)
}

// InternalErrorWithCause creates an internal server error with cause
func InternalErrorWithCause(message string, cause error) *APIError {
	return NewAPIErrorWithCause(ErrorTypeInternal, CodeInternal, message, http.StatusInternalServerError, cause)
}

// DatabaseError creates a database error
func DatabaseError(operation string, cause error) *APIError {
	return NewAPIErrorWithCause(ErrorTypeDatabase, CodeDatabase,
		fmt.Sprintf("Database operation failed: %s", operation),
		http.StatusInternalServerError, cause)
}

// TimeoutError creates a timeout error
func TimeoutError(operation string, cause error) *APIError {
	return NewAPIErrorWithCause(ErrorTypeTimeout, CodeTimeout,
		fmt.Sprintf("Operation timed out: %s", operation),
		http.StatusGatewayTimeout, cause)
}

// GetAPIError extracts APIError from an error chain
func GetAPIError(err error) *APIError {
	var apiErr *APIError
	if stderrors.As(err, &apiErr) {
		return apiErr
	}
	return nil
}

// IsType reports whether err is an APIError of the given type
func IsType(err error, errorType ErrorType) bool {
	apiErr := GetAPIError(err)
	return apiErr != nil && apiErr.Type == errorType
}

// HandleDatabaseError handles database-specific errors
func HandleDatabaseError(err error, operation string) *APIError {
	if err == nil {
		return nil
	}
	if apiErr := GetAPIError(err); apiErr != nil {
		return apiErr
	}

	switch {
	case stderrors.Is(err, gorm.ErrRecordNotFound), stderrors.Is(err, sql.ErrNoRows):
		return NewAPIErrorWithCause(ErrorTypeNotFound, CodeNotFound, "resource not found", http.StatusNotFound, err)
	case stderrors.Is(err, context.DeadlineExceeded):
		return TimeoutError(operation, err)
	default:
		return DatabaseError(operation, err)
	}
}
