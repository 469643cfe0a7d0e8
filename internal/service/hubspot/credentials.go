package hubspot

import (
	"encoding/json"
	"strings"

	"github.com/your-org/integrations-service/pkg/errors"
)

// ParseAccessToken normalizes a caller-supplied credentials blob into a bare
// access token. Accepted shapes: a JSON object carrying access_token, a
// JSON-encoded string (unwrapped and parsed again), or a bare token string.
func ParseAccessToken(credentials string) (string, error) {
	trimmed := strings.TrimSpace(credentials)
	if trimmed == "" {
		return "", errors.New(errors.CodeInvalidCredentials, "credentials are empty", errors.ErrInvalidCredentials)
	}

	switch trimmed[0] {
	case '{':
		var payload struct {
			AccessToken string `json:"access_token"`
		}
		if err := json.Unmarshal([]byte(trimmed), &payload); err != nil {
			return "", errors.New(errors.CodeInvalidCredentials, "credentials are not valid JSON", errors.ErrInvalidCredentials)
		}
		if payload.AccessToken == "" {
			return "", errors.New(errors.CodeInvalidCredentials, "credentials are missing access_token", errors.ErrInvalidCredentials)
		}
		return payload.AccessToken, nil

	case '"':
		// JSON-encoded string; unwrap once and parse whatever is inside.
		var inner string
		if err := json.Unmarshal([]byte(trimmed), &inner); err != nil {
			return "", errors.New(errors.CodeInvalidCredentials, "credentials are not valid JSON", errors.ErrInvalidCredentials)
		}
		return ParseAccessToken(inner)

	default:
		// Bare token string.
		return trimmed, nil
	}
}
