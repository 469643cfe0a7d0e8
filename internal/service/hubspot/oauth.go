// Package hubspot talks to the HubSpot OAuth and CRM APIs.
package hubspot

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/your-org/integrations-service/internal/config"
	"github.com/your-org/integrations-service/internal/service/metrics"
	"github.com/your-org/integrations-service/pkg/errors"
	"github.com/your-org/integrations-service/pkg/logger"
	"github.com/your-org/integrations-service/pkg/resilience/circuitbreaker"
)

// breakerTokenEndpoint names the circuit breaker guarding the token endpoint.
const breakerTokenEndpoint = "hubspot_token"

// upstreamToken labels token endpoint calls in the upstream metrics.
const upstreamToken = "token"

// OAuthClient exchanges authorization codes for token payloads.
type OAuthClient struct {
	cfg        config.HubSpotConfig
	httpClient *http.Client
	breakers   *circuitbreaker.Manager
	metrics    *metrics.Metrics
	log        logger.Logger
}

// NewOAuthClient creates a new OAuth client. The HTTP client timeout bounds
// the exchange; there are no retries.
func NewOAuthClient(cfg config.HubSpotConfig, breakers *circuitbreaker.Manager, log logger.Logger) *OAuthClient {
	return &OAuthClient{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		breakers: breakers,
		metrics:  metrics.DefaultMetrics,
		log:      log,
	}
}

// ExchangeCode trades an authorization code for the provider's token payload.
// The payload is returned exactly as the provider sent it; transport errors,
// timeouts, and non-2xx responses all surface as TokenExchangeFailed, with
// the response body logged but never exposed to the caller.
func (c *OAuthClient) ExchangeCode(ctx context.Context, code string) (json.RawMessage, error) {
	return circuitbreaker.ExecuteTyped(c.breakers, breakerTokenEndpoint, func() (json.RawMessage, error) {
		return c.exchangeCode(ctx, code)
	})
}

func (c *OAuthClient) exchangeCode(ctx context.Context, code string) (json.RawMessage, error) {
	data := url.Values{}
	data.Set("grant_type", "authorization_code")
	data.Set("client_id", c.cfg.ClientID)
	data.Set("client_secret", c.cfg.ClientSecret)
	data.Set("redirect_uri", c.cfg.RedirectURI)
	data.Set("code", code)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.TokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, errors.New(errors.CodeTokenExchangeFailed, "failed to create token request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Deadline exceeded is treated exactly like any transport failure.
		c.metrics.RecordUpstreamRequest(upstreamToken, "error", time.Since(start).Seconds())
		c.log.Error("token exchange transport failure", logger.Err(err))
		return nil, errors.New(errors.CodeTokenExchangeFailed, "token exchange with provider failed", errors.ErrTokenExchangeFailed)
	}
	defer resp.Body.Close()

	c.metrics.RecordUpstreamRequest(upstreamToken, strconv.Itoa(resp.StatusCode), time.Since(start).Seconds())

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.log.Error("failed to read token response", logger.Err(err))
		return nil, errors.New(errors.CodeTokenExchangeFailed, "token exchange with provider failed", errors.ErrTokenExchangeFailed)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log.Error("token exchange rejected",
			logger.Int("status", resp.StatusCode),
			logger.String("body", string(body)),
		)
		return nil, errors.New(errors.CodeTokenExchangeFailed, "token exchange with provider failed", errors.ErrTokenExchangeFailed).
			WithDetail("status_code", resp.StatusCode)
	}

	if !json.Valid(body) {
		c.log.Error("token response is not valid JSON")
		return nil, errors.New(errors.CodeTokenExchangeFailed, "token exchange with provider failed", errors.ErrTokenExchangeFailed)
	}

	return json.RawMessage(body), nil
}
