// Package errors provides standardized error handling for the embed service.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorCode represents a standardized error code for the embed service.
type ErrorCode string

const (
	// Validation errors
	EMB_VALIDATION    ErrorCode = "EMB_VALIDATION"    // General validation error
	EMB_SCHEMA_REJECT ErrorCode = "EMB_SCHEMA_REJECT" // JSON schema validation failed
	EMB_BAD_REQUEST   ErrorCode = "EMB_BAD_REQUEST"   // Bad request

	// Authentication/Authorization errors
	EMB_AUTHZ          ErrorCode = "EMB_AUTHZ"          // Authorization failed
	EMB_AUTHN          ErrorCode = "EMB_AUTHN"          // Authentication failed
	EMB_JWT_INVALID    ErrorCode = "EMB_JWT_INVALID"    // Invalid JWT
	EMB_JWT_EXPIRED    ErrorCode = "EMB_JWT_EXPIRED"    // Expired JWT
	EMB_JWT_MALFORMED  ErrorCode = "EMB_JWT_MALFORMED"  // Malformed JWT
	EMB_OWNER_MISMATCH ErrorCode = "EMB_OWNER_MISMATCH" // Embed belongs to another owner

	// Resource errors
	EMB_NOT_FOUND ErrorCode = "EMB_NOT_FOUND" // Resource not found
	EMB_CONFLICT  ErrorCode = "EMB_CONFLICT"  // Resource conflict
	EMB_INACTIVE  ErrorCode = "EMB_INACTIVE"  // Embed exists but is switched off

	// Media errors
	EMB_MEDIA_SIZE ErrorCode = "EMB_MEDIA_SIZE" // Upload larger than allowed
	EMB_MEDIA_TYPE ErrorCode = "EMB_MEDIA_TYPE" // Upload MIME type not allowed

	// Rate limiting
	EMB_RATE_LIMIT ErrorCode = "EMB_RATE_LIMIT" // Rate limit exceeded

	// Server errors
	EMB_INTERNAL        ErrorCode = "EMB_INTERNAL"        // Internal server error
	EMB_UNAVAILABLE     ErrorCode = "EMB_UNAVAILABLE"     // Service unavailable
	EMB_NOT_IMPLEMENTED ErrorCode = "EMB_NOT_IMPLEMENTED" // Not implemented
)

// Error represents a standardized error response.
type Error struct {
	Code          ErrorCode   `json:"code"`
	Message       string      `json:"message"`
	CorrelationID string      `json:"correlationId"`
	Details       interface{} `json:"details,omitempty"`
	HTTPStatus    int         `json:"-"`
}

// New creates a new Error with the specified code and message.
func New(code ErrorCode, message string, correlationID string) *Error {
	return &Error{
		Code:          code,
		Message:       message,
		CorrelationID: correlationID,
		HTTPStatus:    HTTPStatus(code),
	}
}

// NewWithDetails creates a new Error with the specified code, message, and details.
func NewWithDetails(code ErrorCode, message string, correlationID string, details interface{}) *Error {
	e := New(code, message, correlationID)
	e.Details = details
	return e
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Details != nil {
		return fmt.Sprintf("%s: %s (details: %v)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// CodeOf returns the code of the first *Error in err's chain, or EMB_INTERNAL.
func CodeOf(err error) ErrorCode {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return EMB_INTERNAL
}

// HTTPStatus maps error codes to HTTP status codes.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case EMB_VALIDATION, EMB_SCHEMA_REJECT, EMB_BAD_REQUEST, EMB_MEDIA_TYPE:
		return http.StatusBadRequest
	case EMB_AUTHZ, EMB_OWNER_MISMATCH:
		return http.StatusForbidden
	case EMB_AUTHN, EMB_JWT_INVALID, EMB_JWT_EXPIRED, EMB_JWT_MALFORMED:
		return http.StatusUnauthorized
	case EMB_NOT_FOUND:
		return http.StatusNotFound
	case EMB_CONFLICT:
		return http.StatusConflict
	case EMB_MEDIA_SIZE:
		return http.StatusRequestEntityTooLarge
	case EMB_INACTIVE:
		return http.StatusGone
	case EMB_RATE_LIMIT:
		return http.StatusTooManyRequests
	case EMB_UNAVAILABLE:
		return http.StatusServiceUnavailable
	case EMB_NOT_IMPLEMENTED:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}
