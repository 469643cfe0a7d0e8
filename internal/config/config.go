// Package config loads and validates service configuration.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/your-org/integrations-service/pkg/logger"
)

// Config holds all application configuration.
type Config struct {
	Server         HTTPServerConfig     `mapstructure:"server"`
	Endpoints      EndpointsConfig      `mapstructure:"endpoints"`
	SessionStore   SessionStoreConfig   `mapstructure:"session_store"`
	HubSpot        HubSpotConfig        `mapstructure:"hubspot"`
	RateLimit      RateLimitConfig      `mapstructure:"rate_limit"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
	Logging        logger.Config        `mapstructure:"logging"`
}

// HTTPServerConfig holds HTTP server settings.
type HTTPServerConfig struct {
	Addr           string        `mapstructure:"addr" jsonschema:"description=HTTP listen address.,default=:8000"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout" jsonschema:"description=Maximum duration for reading the entire request.,default=10s"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout" jsonschema:"description=Maximum duration before timing out response writes.,default=60s"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout" jsonschema:"description=Maximum keep-alive idle time.,default=120s"`
	MaxHeaderBytes int           `mapstructure:"max_header_bytes" jsonschema:"description=Maximum size of request headers in bytes.,default=1048576"`
}

// EndpointsConfig holds configurable endpoint paths.
type EndpointsConfig struct {
	Authorize     string `mapstructure:"authorize" jsonschema:"description=Path that mints the provider authorize URL.,default=/integrations/hubspot/authorize"`
	OAuthCallback string `mapstructure:"oauth_callback" jsonschema:"description=OAuth redirect callback path.,default=/integrations/hubspot/oauth2callback"`
	Credentials   string `mapstructure:"credentials" jsonschema:"description=One-shot credential pickup path.,default=/integrations/hubspot/credentials"`
	Load          string `mapstructure:"load" jsonschema:"description=Contact listing path.,default=/integrations/hubspot/load"`

	// Health endpoints
	Health string `mapstructure:"health" jsonschema:"default=/health"`
	Ready  string `mapstructure:"ready" jsonschema:"default=/ready"`
	Live   string `mapstructure:"live" jsonschema:"default=/live"`

	// Metrics endpoint
	Metrics string `mapstructure:"metrics" jsonschema:"default=/metrics"`
}

// SessionStoreConfig holds session store configuration.
type SessionStoreConfig struct {
	// Type: memory, redis
	Type string `mapstructure:"type" jsonschema:"description=Session store backend.,enum=memory,enum=redis,default=memory"`

	// Redis configuration (if type = redis)
	Redis RedisConfig `mapstructure:"redis"`

	// StateTTL bounds how long an authorization may stay pending.
	StateTTL time.Duration `mapstructure:"state_ttl" jsonschema:"description=TTL for pending OAuth state records.,default=10m"`

	// CredentialsTTL is the safety-net expiry for parked token payloads.
	CredentialsTTL time.Duration `mapstructure:"credentials_ttl" jsonschema:"description=TTL for exchanged token payloads awaiting pickup.,default=1h"`
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Address   string `mapstructure:"address" jsonschema:"description=Redis address (host:port)."`
	Password  string `mapstructure:"password" jsonschema:"description=Redis password."`
	DB        int    `mapstructure:"db" jsonschema:"description=Redis database number.,default=0"`
	KeyPrefix string `mapstructure:"key_prefix" jsonschema:"description=Prefix applied to every session key."`
}

// HubSpotConfig holds the HubSpot app registration.
// ClientSecret has no default on purpose; the service refuses to start without it.
type HubSpotConfig struct {
	ClientID     string   `mapstructure:"client_id" jsonschema:"description=HubSpot app client ID.,required"`
	ClientSecret string   `mapstructure:"client_secret" jsonschema:"description=HubSpot app client secret. Set via INTEGRATIONS_HUBSPOT_CLIENT_SECRET.,required"`
	RedirectURI  string   `mapstructure:"redirect_uri" jsonschema:"description=Registered OAuth redirect URI.,required"`
	Scopes       []string `mapstructure:"scopes" jsonschema:"description=Requested OAuth scopes."`

	AuthorizeURL string `mapstructure:"authorize_url" jsonschema:"description=Provider authorize endpoint.,default=https://app.hubspot.com/oauth/authorize"`
	TokenURL     string `mapstructure:"token_url" jsonschema:"description=Provider token endpoint.,default=https://api.hubapi.com/oauth/v1/token"`
	APIBaseURL   string `mapstructure:"api_base_url" jsonschema:"description=Provider REST API base URL.,default=https://api.hubapi.com"`

	// RequestTimeout bounds every outbound call; there are no retries.
	RequestTimeout time.Duration `mapstructure:"request_timeout" jsonschema:"description=Timeout for outbound provider calls.,default=30s"`
}

// RateLimitConfig holds HTTP rate limiting configuration.
type RateLimitConfig struct {
	Enabled bool `mapstructure:"enabled" jsonschema:"description=Enable per-client rate limiting.,default=false"`

	// Rate uses the ulule/limiter formatted syntax, e.g. "100-M".
	Rate string `mapstructure:"rate" jsonschema:"description=Rate in limiter formatted syntax (e.g. 100-M).,default=100-M"`

	// Store: memory, redis
	Store string `mapstructure:"store" jsonschema:"description=Rate limiter counter store.,enum=memory,enum=redis,default=memory"`
	Redis RedisConfig `mapstructure:"redis"`

	TrustForwardedFor bool     `mapstructure:"trust_forwarded_for" jsonschema:"description=Trust X-Forwarded-For when keying clients.,default=false"`
	ExcludePaths      []string `mapstructure:"exclude_paths" jsonschema:"description=Path prefixes exempt from rate limiting."`

	Headers RateLimitHeadersConfig `mapstructure:"headers"`
}

// RateLimitHeadersConfig controls X-RateLimit-* response headers.
type RateLimitHeadersConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	LimitHeader     string `mapstructure:"limit_header"`
	RemainingHeader string `mapstructure:"remaining_header"`
	ResetHeader     string `mapstructure:"reset_header"`
}

// CircuitBreakerConfig holds settings for the upstream circuit breakers.
type CircuitBreakerConfig struct {
	Enabled          bool          `mapstructure:"enabled" jsonschema:"description=Enable circuit breakers on provider calls.,default=true"`
	MaxRequests      uint32        `mapstructure:"max_requests" jsonschema:"description=Requests allowed in half-open state.,default=1"`
	Interval         time.Duration `mapstructure:"interval" jsonschema:"description=Closed-state counter reset interval.,default=60s"`
	Timeout          time.Duration `mapstructure:"timeout" jsonschema:"description=Open-state duration before probing.,default=30s"`
	FailureThreshold int           `mapstructure:"failure_threshold" jsonschema:"description=Consecutive failures before the breaker opens.,default=5"`
}

// Load loads configuration from file and environment.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/integrations")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found, use defaults + environment
	}

	v.SetEnvPrefix("INTEGRATIONS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that required settings are present and consistent.
func (c *Config) Validate() error {
	if c.HubSpot.ClientID == "" {
		return fmt.Errorf("hubspot.client_id is required")
	}
	if c.HubSpot.ClientSecret == "" {
		return fmt.Errorf("hubspot.client_secret is required (no default is shipped)")
	}
	if c.HubSpot.RedirectURI == "" {
		return fmt.Errorf("hubspot.redirect_uri is required")
	}
	if len(c.HubSpot.Scopes) == 0 {
		return fmt.Errorf("hubspot.scopes must list at least one scope")
	}

	switch c.SessionStore.Type {
	case "memory", "":
	case "redis":
		if c.SessionStore.Redis.Address == "" {
			return fmt.Errorf("session_store.redis.address is required when type is redis")
		}
	default:
		return fmt.Errorf("unsupported session store type: %s", c.SessionStore.Type)
	}

	if c.SessionStore.StateTTL <= 0 {
		return fmt.Errorf("session_store.state_ttl must be positive")
	}
	if c.SessionStore.CredentialsTTL <= 0 {
		return fmt.Errorf("session_store.credentials_ttl must be positive")
	}

	return nil
}

func setDefaults(v *viper.Viper) {
	// Server
	v.SetDefault("server.addr", ":8000")
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.max_header_bytes", 1<<20) // 1MB

	// Endpoints
	v.SetDefault("endpoints.authorize", "/integrations/hubspot/authorize")
	v.SetDefault("endpoints.oauth_callback", "/integrations/hubspot/oauth2callback")
	v.SetDefault("endpoints.credentials", "/integrations/hubspot/credentials")
	v.SetDefault("endpoints.load", "/integrations/hubspot/load")
	v.SetDefault("endpoints.health", "/health")
	v.SetDefault("endpoints.ready", "/ready")
	v.SetDefault("endpoints.live", "/live")
	v.SetDefault("endpoints.metrics", "/metrics")

	// Session store
	v.SetDefault("session_store.type", "memory")
	v.SetDefault("session_store.redis.db", 0)
	v.SetDefault("session_store.redis.key_prefix", "")
	v.SetDefault("session_store.state_ttl", "10m")
	v.SetDefault("session_store.credentials_ttl", "1h")

	// HubSpot endpoints; app credentials have no defaults
	v.SetDefault("hubspot.authorize_url", "https://app.hubspot.com/oauth/authorize")
	v.SetDefault("hubspot.token_url", "https://api.hubapi.com/oauth/v1/token")
	v.SetDefault("hubspot.api_base_url", "https://api.hubapi.com")
	v.SetDefault("hubspot.scopes", []string{"crm.objects.contacts.read"})
	v.SetDefault("hubspot.request_timeout", "30s")

	// Rate limiting
	v.SetDefault("rate_limit.enabled", false)
	v.SetDefault("rate_limit.rate", "100-M")
	v.SetDefault("rate_limit.store", "memory")
	v.SetDefault("rate_limit.exclude_paths", []string{"/health", "/ready", "/live", "/metrics"})
	v.SetDefault("rate_limit.headers.enabled", true)
	v.SetDefault("rate_limit.headers.limit_header", "X-RateLimit-Limit")
	v.SetDefault("rate_limit.headers.remaining_header", "X-RateLimit-Remaining")
	v.SetDefault("rate_limit.headers.reset_header", "X-RateLimit-Reset")

	// Circuit breaker
	v.SetDefault("circuit_breaker.enabled", true)
	v.SetDefault("circuit_breaker.max_requests", 1)
	v.SetDefault("circuit_breaker.interval", "60s")
	v.SetDefault("circuit_breaker.timeout", "30s")
	v.SetDefault("circuit_breaker.failure_threshold", 5)

	// Logging
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.add_caller", true)
}
