package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a Failure.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindConflict
	KindNotFound
	KindForbidden
	KindUnauthorized
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "VALIDATION_ERROR"
	case KindConflict:
		return "CONFLICT"
	case KindNotFound:
		return "NOT_FOUND"
	case KindForbidden:
		return "FORBIDDEN"
	case KindUnauthorized:
		return "UNAUTHORIZED"
	default:
		return "INTERNAL_ERROR"
	}
}

// Failure is a domain error the boundary reports to the client as-is.
type Failure struct {
	Kind    Kind
	Message string
	// Fields maps offending request fields to a message.
	Fields map[string]string
}

func (f *Failure) Error() string {
	if len(f.Fields) == 0 {
		return f.Message
	}
	return fmt.Sprintf("%s: %v", f.Message, f.Fields)
}

// Is matches failures of the same kind, so errors.Is(err, ErrNotFound) works
// for any not-found failure.
func (f *Failure) Is(target error) bool {
	t, ok := target.(*Failure)
	if !ok {
		return false
	}
	return t.Kind == f.Kind && (t.Message == "" || t.Message == f.Message)
}

// Kind sentinels for errors.Is.
var (
	ErrValidation   = &Failure{Kind: KindValidation}
	ErrConflict     = &Failure{Kind: KindConflict}
	ErrNotFound     = &Failure{Kind: KindNotFound}
	ErrForbidden    = &Failure{Kind: KindForbidden}
	ErrUnauthorized = &Failure{Kind: KindUnauthorized}
)

var (
	// ErrDuplicateReview is returned when an author already reviewed a title.
	ErrDuplicateReview = Conflict("one review per title per author", nil)
	// ErrInvalidConfirmationCode is returned when a code does not match.
	ErrInvalidConfirmationCode = Validation("invalid confirmation code", map[string]string{
		"confirmation_code": "invalid confirmation code",
	})
	// ErrInvalidToken is returned for bad, expired or revoked credentials.
	ErrInvalidToken = Unauthorized("invalid or expired token")
)

// Validation builds a malformed-input failure.
func Validation(msg string, fields map[string]string) *Failure {
	return &Failure{Kind: KindValidation, Message: msg, Fields: fields}
}

// Conflict builds a uniqueness failure.
func Conflict(msg string, fields map[string]string) *Failure {
	return &Failure{Kind: KindConflict, Message: msg, Fields: fields}
}

// NotFound builds a failure for a missing resource.
func NotFound(resource string) *Failure {
	return &Failure{Kind: KindNotFound, Message: resource + " not found"}
}

// Forbidden builds an insufficient-permission failure.
func Forbidden(msg string) *Failure {
	return &Failure{Kind: KindForbidden, Message: msg}
}

// Unauthorized builds a missing/bad credential failure.
func Unauthorized(msg string) *Failure {
	return &Failure{Kind: KindUnauthorized, Message: msg}
}

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error  string            `json:"error"`
	Code   string            `json:"code"`
	Fields map[string]string `json:"fields,omitempty"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
	Fields     map[string]string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Error:  e.Message,
		Code:   e.Code,
		Fields: e.Fields,
	}
}

// MapErrorToHTTP maps domain errors to HTTP errors. Anything that is not a
// Failure is reported as an opaque internal error.
func MapErrorToHTTP(err error) *HTTPError {
	var f *Failure
	if !errors.As(err, &f) {
		return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}

	status := http.StatusInternalServerError
	switch f.Kind {
	case KindValidation, KindConflict:
		status = http.StatusBadRequest
	case KindNotFound:
		status = http.StatusNotFound
	case KindForbidden:
		status = http.StatusForbidden
	case KindUnauthorized:
		status = http.StatusUnauthorized
	}

	httpErr := NewHTTPError(status, f.Message, f.Kind.String())
	httpErr.Fields = f.Fields
	return httpErr
}
