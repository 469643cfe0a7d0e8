package hubspot

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/your-org/integrations-service/internal/config"
	"github.com/your-org/integrations-service/pkg/errors"
	"github.com/your-org/integrations-service/pkg/resilience/circuitbreaker"
)

func testLogger() *zap.Logger {
	logger, _ := zap.NewDevelopment()
	return logger
}

func testBreakers() *circuitbreaker.Manager {
	return circuitbreaker.NewManager(config.CircuitBreakerConfig{
		Enabled:          true,
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          time.Minute,
		FailureThreshold: 100,
	})
}

func hubspotConfig(tokenURL, apiBaseURL string) config.HubSpotConfig {
	return config.HubSpotConfig{
		ClientID:       "client-123",
		ClientSecret:   "secret-456",
		RedirectURI:    "http://localhost:8000/integrations/hubspot/oauth2callback",
		Scopes:         []string{"crm.objects.contacts.read"},
		TokenURL:       tokenURL,
		APIBaseURL:     apiBaseURL,
		RequestTimeout: 5 * time.Second,
	}
}

func TestExchangeCode_Success(t *testing.T) {
	payload := `{"access_token":"tok-abc","refresh_token":"ref-def","expires_in":1800,"token_type":"bearer"}`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))

		require.NoError(t, r.ParseForm())
		assert.Equal(t, "authorization_code", r.FormValue("grant_type"))
		assert.Equal(t, "client-123", r.FormValue("client_id"))
		assert.Equal(t, "secret-456", r.FormValue("client_secret"))
		assert.Equal(t, "http://localhost:8000/integrations/hubspot/oauth2callback", r.FormValue("redirect_uri"))
		assert.Equal(t, "fake-code", r.FormValue("code"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(payload))
	}))
	defer server.Close()

	client := NewOAuthClient(hubspotConfig(server.URL, ""), testBreakers(), testLogger())

	got, err := client.ExchangeCode(context.Background(), "fake-code")
	require.NoError(t, err)

	// The payload comes back exactly as the provider sent it.
	assert.JSONEq(t, payload, string(got))
}

func TestExchangeCode_NonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"status":"BAD_AUTH_CODE"}`))
	}))
	defer server.Close()

	client := NewOAuthClient(hubspotConfig(server.URL, ""), testBreakers(), testLogger())

	_, err := client.ExchangeCode(context.Background(), "expired-code")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrTokenExchangeFailed)
	assert.Equal(t, errors.CodeTokenExchangeFailed, errors.CodeOf(err))

	// The provider's body is never exposed to the caller.
	assert.NotContains(t, err.Error(), "BAD_AUTH_CODE")
}

func TestExchangeCode_TransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // refuse connections

	client := NewOAuthClient(hubspotConfig(server.URL, ""), testBreakers(), testLogger())

	_, err := client.ExchangeCode(context.Background(), "code")
	assert.ErrorIs(t, err, errors.ErrTokenExchangeFailed)
}

func TestExchangeCode_InvalidJSONResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	}))
	defer server.Close()

	client := NewOAuthClient(hubspotConfig(server.URL, ""), testBreakers(), testLogger())

	_, err := client.ExchangeCode(context.Background(), "code")
	assert.ErrorIs(t, err, errors.ErrTokenExchangeFailed)
}

func TestExchangeCode_PayloadRoundtrips(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"access_token":"tok","extra_field":{"nested":true}}`))
	}))
	defer server.Close()

	client := NewOAuthClient(hubspotConfig(server.URL, ""), testBreakers(), testLogger())

	got, err := client.ExchangeCode(context.Background(), "code")
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(got, &decoded))
	assert.Equal(t, "tok", decoded["access_token"])
	assert.Contains(t, decoded, "extra_field")
}
