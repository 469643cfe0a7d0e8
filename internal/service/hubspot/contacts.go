package hubspot

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/your-org/integrations-service/internal/config"
	"github.com/your-org/integrations-service/internal/domain"
	"github.com/your-org/integrations-service/internal/service/metrics"
	"github.com/your-org/integrations-service/pkg/errors"
	"github.com/your-org/integrations-service/pkg/logger"
	"github.com/your-org/integrations-service/pkg/resilience/circuitbreaker"
)

// breakerCRMAPI names the circuit breaker guarding the CRM REST API.
const breakerCRMAPI = "hubspot_api"

// upstreamContacts labels CRM contacts calls in the upstream metrics.
const upstreamContacts = "contacts"

// contactsPageLimit is the only page fetched. Pagination past the first 100
// contacts is a known limitation, not silently worked around.
const contactsPageLimit = 100

// ContactsClient lists CRM contacts and normalizes them into integration items.
type ContactsClient struct {
	cfg        config.HubSpotConfig
	httpClient *http.Client
	breakers   *circuitbreaker.Manager
	metrics    *metrics.Metrics
	log        logger.Logger
}

// NewContactsClient creates a new contacts client.
func NewContactsClient(cfg config.HubSpotConfig, breakers *circuitbreaker.Manager, log logger.Logger) *ContactsClient {
	return &ContactsClient{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		breakers: breakers,
		metrics:  metrics.DefaultMetrics,
		log:      log,
	}
}

// contactRecord is one entry of the CRM contacts listing.
type contactRecord struct {
	ID         string `json:"id"`
	Properties struct {
		FirstName string `json:"firstname"`
		LastName  string `json:"lastname"`
		Email     string `json:"email"`
		Phone     string `json:"phone"`
		Company   string `json:"company"`
	} `json:"properties"`
}

// contactsPage is the CRM contacts listing response envelope.
type contactsPage struct {
	Results []json.RawMessage `json:"results"`
}

// FetchContacts lists the first page of CRM contacts using the supplied
// credentials and returns them as normalized integration items. credentials
// may be a token payload JSON object, a JSON-encoded string, or a bare token.
func (c *ContactsClient) FetchContacts(ctx context.Context, credentials string) ([]domain.IntegrationItem, error) {
	token, err := ParseAccessToken(credentials)
	if err != nil {
		return nil, err
	}

	page, err := circuitbreaker.ExecuteTyped(c.breakers, breakerCRMAPI, func() (*contactsPage, error) {
		return c.listContacts(ctx, token)
	})
	if err != nil {
		return nil, err
	}

	items := make([]domain.IntegrationItem, 0, len(page.Results))
	for _, raw := range page.Results {
		var record contactRecord
		if err := json.Unmarshal(raw, &record); err != nil {
			// A malformed record never aborts the whole listing.
			c.log.Warn("skipping malformed contact record", logger.Err(err))
			continue
		}
		items = append(items, normalizeContact(record))
	}

	return items, nil
}

func (c *ContactsClient) listContacts(ctx context.Context, token string) (*contactsPage, error) {
	endpoint := fmt.Sprintf("%s/crm/v3/objects/contacts?limit=%d",
		strings.TrimSuffix(c.cfg.APIBaseURL, "/"), contactsPageLimit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errors.New(errors.CodeUpstreamRequestFailed, "failed to create contacts request", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.RecordUpstreamRequest(upstreamContacts, "error", time.Since(start).Seconds())
		c.log.Error("contacts listing transport failure", logger.Err(err))
		return nil, errors.New(errors.CodeUpstreamRequestFailed, "provider API request failed", errors.ErrUpstreamRequestFailed)
	}
	defer resp.Body.Close()

	c.metrics.RecordUpstreamRequest(upstreamContacts, strconv.Itoa(resp.StatusCode), time.Since(start).Seconds())

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		c.log.Error("contacts listing rejected",
			logger.Int("status", resp.StatusCode),
			logger.String("body", string(body)),
		)
		return nil, errors.New(errors.CodeUpstreamRequestFailed,
			fmt.Sprintf("provider API request failed with status %d", resp.StatusCode),
			errors.ErrUpstreamRequestFailed).
			WithDetail("status_code", resp.StatusCode)
	}

	var page contactsPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, errors.New(errors.CodeUpstreamRequestFailed, "failed to decode contacts response", errors.ErrUpstreamRequestFailed)
	}

	return &page, nil
}

// normalizeContact maps a CRM contact into the normalized item shape.
// Name falls back firstname+lastname -> email -> record id, in that order.
func normalizeContact(record contactRecord) domain.IntegrationItem {
	name := strings.TrimSpace(strings.TrimSpace(record.Properties.FirstName) + " " + strings.TrimSpace(record.Properties.LastName))
	if name == "" {
		name = record.Properties.Email
	}
	if name == "" {
		name = record.ID
	}

	return domain.IntegrationItem{
		ID:      record.ID,
		Type:    domain.ItemTypeContact,
		Name:    name,
		Email:   record.Properties.Email,
		Phone:   record.Properties.Phone,
		Company: record.Properties.Company,
	}
}
