package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Standard error types for the integrations service.
var (
	// OAuth flow errors
	ErrMissingParameter      = errors.New("required parameter is missing")
	ErrStateExpiredOrInvalid = errors.New("state token is unknown, expired, or already used")
	ErrInvalidStatePayload   = errors.New("state payload is malformed")
	ErrTokenExchangeFailed   = errors.New("token exchange with provider failed")

	// Credential errors
	ErrCredentialsNotFound = errors.New("no stored credentials for identity")
	ErrInvalidCredentials  = errors.New("supplied credentials are unusable")

	// Upstream errors
	ErrUpstreamRequestFailed = errors.New("provider API request failed")

	// Service errors
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrInternal           = errors.New("internal error")
)

// Error codes
const (
	CodeMissingParameter      = "MISSING_PARAMETER"
	CodeStateExpiredOrInvalid = "STATE_EXPIRED_OR_INVALID"
	CodeInvalidStatePayload   = "INVALID_STATE_PAYLOAD"
	CodeTokenExchangeFailed   = "TOKEN_EXCHANGE_FAILED"
	CodeCredentialsNotFound   = "CREDENTIALS_NOT_FOUND"
	CodeInvalidCredentials    = "INVALID_CREDENTIALS"
	CodeUpstreamRequestFailed = "UPSTREAM_REQUEST_FAILED"
	CodeInternalError         = "INTERNAL_ERROR"
	CodeUnavailable           = "SERVICE_UNAVAILABLE"
)

// IntegrationError represents a structured integration error.
type IntegrationError struct {
	// Code is the stable machine-readable error code
	Code string `json:"code"`

	// Message is the human-readable error message
	Message string `json:"message"`

	// Details contains additional error details
	Details map[string]any `json:"details,omitempty"`

	// Cause is the underlying error
	Cause error `json:"-"`
}

// Error implements the error interface.
func (e *IntegrationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *IntegrationError) Unwrap() error {
	return e.Cause
}

// WithDetail adds a detail to the error.
func (e *IntegrationError) WithDetail(key string, value any) *IntegrationError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new IntegrationError.
func New(code, message string, cause error) *IntegrationError {
	return &IntegrationError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// HTTPStatus maps an error code to the HTTP status the caller should see.
// Caller faults are 400; failures past a valid inbound request are 502.
func HTTPStatus(code string) int {
	switch code {
	case CodeMissingParameter,
		CodeStateExpiredOrInvalid,
		CodeInvalidStatePayload,
		CodeCredentialsNotFound,
		CodeInvalidCredentials:
		return http.StatusBadRequest
	case CodeTokenExchangeFailed, CodeUpstreamRequestFailed:
		return http.StatusBadGateway
	case CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// CodeOf extracts the error code from err, or CodeInternalError if none.
func CodeOf(err error) string {
	var ie *IntegrationError
	if errors.As(err, &ie) {
		return ie.Code
	}
	return CodeInternalError
}

// Is reports whether err matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
