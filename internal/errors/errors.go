// FilePath: internal/errors/errors.go
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// Error types
	ErrorTypeValidation    ErrorType = "validation"
	ErrorTypeDatabase      ErrorType = "database"
	ErrorTypeCache         ErrorType = "cache"
	ErrorTypeDocumentStore ErrorType = "document_store"
	ErrorTypeInconsistent  ErrorType = "inconsistent"
	ErrorTypePartialWrite  ErrorType = "partial_write"
	ErrorTypeAuth          ErrorType = "authentication"
	ErrorTypeAuthorize     ErrorType = "authorization"
	ErrorTypeNotFound      ErrorType = "not_found"
	ErrorTypeInternal      ErrorType = "internal"
	ErrorTypeUnavailable   ErrorType = "service_unavailable"
)

// APIError represents a structured API error
type APIError struct {
	Type      ErrorType `json:"type"`
	Message   string    `json:"message"`
	Code      int       `json:"code"`
	RequestID string    `json:"request_id,omitempty"`
	Details   any       `json:"details,omitempty"`
	err       error     // Internal error for logging
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s (internal: %v)", e.Type, e.Message, e.err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap exposes the underlying store error.
func (e *APIError) Unwrap() error {
	return e.err
}

// WithRequestID adds a request ID to the error
func (e *APIError) WithRequestID(id string) *APIError {
	e.RequestID = id
	return e
}

// WithDetails adds additional details to the error
func (e *APIError) WithDetails(details any) *APIError {
	e.Details = details
	return e
}

func newError(t ErrorType, code int, msg string, err error) *APIError {
	return &APIError{
		Type:    t,
		Message: msg,
		Code:    code,
		err:     err,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(msg string, err error) *APIError {
	return newError(ErrorTypeValidation, http.StatusBadRequest, msg, err)
}

// NewDatabaseError creates a new relational store error
func NewDatabaseError(msg string, err error) *APIError {
	return newError(ErrorTypeDatabase, http.StatusInternalServerError, msg, err)
}

// NewCacheError creates a new key-value store error
func NewCacheError(msg string, err error) *APIError {
	return newError(ErrorTypeCache, http.StatusInternalServerError, msg, err)
}

// NewDocumentStoreError creates a new document store error
func NewDocumentStoreError(msg string, err error) *APIError {
	return newError(ErrorTypeDocumentStore, http.StatusInternalServerError, msg, err)
}

// NewInconsistencyError reports stores that no longer agree about one sensor,
// e.g. a relational row without its document.
func NewInconsistencyError(msg string, err error) *APIError {
	return newError(ErrorTypeInconsistent, http.StatusInternalServerError, msg, err)
}

// NewPartialWriteError reports a multi-store write that stopped after some
// steps had already been applied. completed lists those steps.
func NewPartialWriteError(msg string, completed []string, err error) *APIError {
	return newError(ErrorTypePartialWrite, http.StatusInternalServerError, msg, err).
		WithDetails(map[string]any{"completed_steps": completed})
}

// NewAuthError creates a new authentication error
func NewAuthError(msg string, err error) *APIError {
	return newError(ErrorTypeAuth, http.StatusUnauthorized, msg, err)
}

// NewAuthorizationError creates a new authorization error
func NewAuthorizationError(msg string, err error) *APIError {
	return newError(ErrorTypeAuthorize, http.StatusForbidden, msg, err)
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(msg string, err error) *APIError {
	return newError(ErrorTypeNotFound, http.StatusNotFound, msg, err)
}

// NewInternalError creates a new internal server error
func NewInternalError(msg string, err error) *APIError {
	return newError(ErrorTypeInternal, http.StatusInternalServerError, msg, err)
}

// NewUnavailableError creates a new service unavailable error
func NewUnavailableError(msg string, err error) *APIError {
	return newError(ErrorTypeUnavailable, http.StatusServiceUnavailable, msg, err)
}

// As returns the first APIError in err's chain.
func As(err error) (*APIError, bool) {
	var apiErr *APIError
	if stderrors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsType checks whether err carries an APIError of the given type
func IsType(err error, t ErrorType) bool {
	if apiErr, ok := As(err); ok {
		return apiErr.Type == t
	}
	return false
}

// IsNotFound checks if an error is a NotFound error
func IsNotFound(err error) bool {
	return IsType(err, ErrorTypeNotFound)
}

// IsValidation checks if an error is a Validation error
func IsValidation(err error) bool {
	return IsType(err, ErrorTypeValidation)
}
