package http

import (
	"time"
)

// AuthorizeResponse carries the provider authorize URL for the frontend to open.
type AuthorizeResponse struct {
	AuthURL string `json:"auth_url"`
}

// IdentityRequest identifies the caller for JSON-body requests. The same
// fields are accepted as form values.
type IdentityRequest struct {
	UserID string `json:"user_id"`
	OrgID  string `json:"org_id"`
}

// LoadRequest carries the credential material for a listing request.
type LoadRequest struct {
	Credentials string `json:"credentials"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error     string         `json:"error"`
	Code      string         `json:"code"`
	Details   map[string]any `json:"details,omitempty"`
	RequestID string         `json:"request_id,omitempty"`
}

// HealthResponse represents a health check response.
type HealthResponse struct {
	Status    string                 `json:"status"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
	Version   string                 `json:"version,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// CheckResult represents a single health check result.
type CheckResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}
