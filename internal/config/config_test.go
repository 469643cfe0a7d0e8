package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfigYAML() string {
	return `
hubspot:
  client_id: test-client-id
  client_secret: test-client-secret
  redirect_uri: http://localhost:8000/integrations/hubspot/oauth2callback
  scopes:
    - crm.objects.contacts.read
`
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfigFile(t, validConfigYAML()))
	require.NoError(t, err)

	assert.Equal(t, ":8000", cfg.Server.Addr)
	assert.Equal(t, "/integrations/hubspot/authorize", cfg.Endpoints.Authorize)
	assert.Equal(t, "/integrations/hubspot/oauth2callback", cfg.Endpoints.OAuthCallback)
	assert.Equal(t, "/integrations/hubspot/credentials", cfg.Endpoints.Credentials)
	assert.Equal(t, "/integrations/hubspot/load", cfg.Endpoints.Load)

	assert.Equal(t, "memory", cfg.SessionStore.Type)
	assert.Equal(t, 10*time.Minute, cfg.SessionStore.StateTTL)
	assert.Equal(t, time.Hour, cfg.SessionStore.CredentialsTTL)

	assert.Equal(t, "https://app.hubspot.com/oauth/authorize", cfg.HubSpot.AuthorizeURL)
	assert.Equal(t, "https://api.hubapi.com/oauth/v1/token", cfg.HubSpot.TokenURL)
	assert.Equal(t, "https://api.hubapi.com", cfg.HubSpot.APIBaseURL)
	assert.Equal(t, 30*time.Second, cfg.HubSpot.RequestTimeout)

	assert.False(t, cfg.RateLimit.Enabled)
	assert.True(t, cfg.CircuitBreaker.Enabled)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_MissingSecret(t *testing.T) {
	_, err := Load(writeConfigFile(t, `
hubspot:
  client_id: test-client-id
  redirect_uri: http://localhost:8000/cb
  scopes: [crm.objects.contacts.read]
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "client_secret")
}

func TestLoad_FileOverrides(t *testing.T) {
	cfg, err := Load(writeConfigFile(t, validConfigYAML()+`
server:
  addr: ":9100"
session_store:
  type: redis
  redis:
    address: localhost:6379
    key_prefix: "integrations:"
  state_ttl: 5m
`))
	require.NoError(t, err)

	assert.Equal(t, ":9100", cfg.Server.Addr)
	assert.Equal(t, "redis", cfg.SessionStore.Type)
	assert.Equal(t, "localhost:6379", cfg.SessionStore.Redis.Address)
	assert.Equal(t, 5*time.Minute, cfg.SessionStore.StateTTL)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			HubSpot: HubSpotConfig{
				ClientID:     "id",
				ClientSecret: "secret",
				RedirectURI:  "http://localhost/cb",
				Scopes:       []string{"crm.objects.contacts.read"},
			},
			SessionStore: SessionStoreConfig{
				Type:           "memory",
				StateTTL:       10 * time.Minute,
				CredentialsTTL: time.Hour,
			},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"missing client id", func(c *Config) { c.HubSpot.ClientID = "" }, "client_id"},
		{"missing redirect uri", func(c *Config) { c.HubSpot.RedirectURI = "" }, "redirect_uri"},
		{"no scopes", func(c *Config) { c.HubSpot.Scopes = nil }, "scopes"},
		{"redis without address", func(c *Config) { c.SessionStore.Type = "redis" }, "redis.address"},
		{"unknown store type", func(c *Config) { c.SessionStore.Type = "etcd" }, "unsupported session store"},
		{"zero state ttl", func(c *Config) { c.SessionStore.StateTTL = 0 }, "state_ttl"},
		{"zero credentials ttl", func(c *Config) { c.SessionStore.CredentialsTTL = 0 }, "credentials_ttl"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}
