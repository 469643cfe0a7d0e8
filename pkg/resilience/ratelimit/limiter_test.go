package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/integrations-service/internal/config"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestNewLimiter_InvalidRate(t *testing.T) {
	_, err := NewLimiter(config.RateLimitConfig{Rate: "not-a-rate"})
	assert.Error(t, err)
}

func TestMiddleware_AllowsUnderLimit(t *testing.T) {
	l, err := NewLimiter(config.RateLimitConfig{
		Enabled: true,
		Rate:    "10-M",
		Store:   "memory",
	})
	require.NoError(t, err)

	handler := l.Middleware()(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/integrations/hubspot/authorize", nil)
	req.RemoteAddr = "10.0.0.1:55555"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMiddleware_BlocksOverLimit(t *testing.T) {
	l, err := NewLimiter(config.RateLimitConfig{
		Enabled: true,
		Rate:    "2-H",
		Store:   "memory",
	})
	require.NoError(t, err)

	handler := l.Middleware()(okHandler())

	var last int
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/integrations/hubspot/load", nil)
		req.RemoteAddr = "10.0.0.2:55555"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		last = rec.Code
	}

	assert.Equal(t, http.StatusTooManyRequests, last)
}

func TestMiddleware_ExcludedPaths(t *testing.T) {
	l, err := NewLimiter(config.RateLimitConfig{
		Enabled:      true,
		Rate:         "1-H",
		Store:        "memory",
		ExcludePaths: []string{"/health"},
	})
	require.NoError(t, err)

	handler := l.Middleware()(okHandler())

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.RemoteAddr = "10.0.0.3:55555"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestMiddleware_RateLimitHeaders(t *testing.T) {
	l, err := NewLimiter(config.RateLimitConfig{
		Enabled: true,
		Rate:    "10-M",
		Store:   "memory",
		Headers: config.RateLimitHeadersConfig{
			Enabled:         true,
			LimitHeader:     "X-RateLimit-Limit",
			RemainingHeader: "X-RateLimit-Remaining",
			ResetHeader:     "X-RateLimit-Reset",
		},
	})
	require.NoError(t, err)

	handler := l.Middleware()(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/integrations/hubspot/authorize", nil)
	req.RemoteAddr = "10.0.0.4:55555"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "10", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "9", rec.Header().Get("X-RateLimit-Remaining"))
}

func TestGetClientKey_ForwardedFor(t *testing.T) {
	l, err := NewLimiter(config.RateLimitConfig{
		Rate:              "10-M",
		Store:             "memory",
		TrustForwardedFor: true,
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "203.0.113.9", l.getClientKey(req))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.4:1234"
	assert.Equal(t, "192.0.2.4", l.getClientKey(req))
}
