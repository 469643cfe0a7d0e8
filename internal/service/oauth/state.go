// Package oauth manages the authorization-code flow state: minting opaque
// state tokens, resolving them on callback, and retiring them once consumed.
package oauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/your-org/integrations-service/internal/config"
	"github.com/your-org/integrations-service/internal/domain"
	"github.com/your-org/integrations-service/internal/service/session"
	"github.com/your-org/integrations-service/pkg/errors"
	"github.com/your-org/integrations-service/pkg/logger"
)

const stateKeyPrefix = "state_token:"

// stateTokenBytes is the entropy of the opaque state token.
const stateTokenBytes = 32

// Manager mints and resolves opaque OAuth state tokens. The structured
// context never travels through the redirect URL; only the random token does,
// and it is the lookup key for the record parked in the session store.
type Manager struct {
	store    session.Store
	cfg      config.HubSpotConfig
	stateTTL time.Duration
	log      logger.Logger
}

// NewManager creates a new state token manager.
func NewManager(store session.Store, cfg config.HubSpotConfig, stateTTL time.Duration, log logger.Logger) *Manager {
	return &Manager{
		store:    store,
		cfg:      cfg,
		stateTTL: stateTTL,
		log:      log,
	}
}

// BeginAuthorization mints a fresh state token for (userID, orgID), parks the
// caller context in the session store, and returns the provider authorize URL.
// A repeated call for the same identity simply overwrites the pending record.
func (m *Manager) BeginAuthorization(ctx context.Context, userID, orgID string) (string, error) {
	if userID == "" || orgID == "" {
		return "", errors.New(errors.CodeMissingParameter, "user_id and org_id are required", errors.ErrMissingParameter)
	}

	token, err := newStateToken()
	if err != nil {
		return "", fmt.Errorf("failed to generate state token: %w", err)
	}

	record := domain.StateRecord{
		CSRF:   uuid.New().String(),
		UserID: userID,
		OrgID:  orgID,
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return "", fmt.Errorf("failed to marshal state record: %w", err)
	}

	if err := m.store.Set(ctx, stateKeyPrefix+token, payload, m.stateTTL); err != nil {
		return "", fmt.Errorf("failed to persist state record: %w", err)
	}

	m.log.Debug("authorization started",
		logger.String("user_id", userID),
		logger.String("org_id", orgID),
		logger.Token("state", token),
	)

	return m.authorizeURL(token), nil
}

// ResolveCallback validates the inbound callback parameters and resolves the
// state token back to the caller identity. The record is NOT deleted here;
// the caller retires it only after the code exchange succeeds, so a transient
// exchange failure does not burn the state.
func (m *Manager) ResolveCallback(ctx context.Context, code, stateToken string) (domain.AuthContext, error) {
	if code == "" {
		return domain.AuthContext{}, errors.New(errors.CodeMissingParameter, "code query parameter is required", errors.ErrMissingParameter)
	}
	if stateToken == "" {
		return domain.AuthContext{}, errors.New(errors.CodeMissingParameter, "state query parameter is required", errors.ErrMissingParameter)
	}

	payload, err := m.store.Get(ctx, stateKeyPrefix+stateToken)
	if err != nil {
		return domain.AuthContext{}, fmt.Errorf("failed to load state record: %w", err)
	}
	if payload == nil {
		return domain.AuthContext{}, errors.New(errors.CodeStateExpiredOrInvalid,
			"state token is unknown, expired, or already used", errors.ErrStateExpiredOrInvalid)
	}

	var record domain.StateRecord
	if err := json.Unmarshal(payload, &record); err != nil {
		return domain.AuthContext{}, errors.New(errors.CodeInvalidStatePayload,
			"state payload is malformed", errors.ErrInvalidStatePayload)
	}
	if record.UserID == "" || record.OrgID == "" {
		return domain.AuthContext{}, errors.New(errors.CodeInvalidStatePayload,
			"state payload is missing identity", errors.ErrInvalidStatePayload)
	}

	return domain.AuthContext{UserID: record.UserID, OrgID: record.OrgID}, nil
}

// Retire deletes the state record, making the token single-use. Best-effort:
// deleting a record that already expired is not an error.
func (m *Manager) Retire(ctx context.Context, stateToken string) {
	if err := m.store.Delete(ctx, stateKeyPrefix+stateToken); err != nil {
		m.log.Warn("failed to retire state token", logger.Err(err))
	}
}

// authorizeURL builds the provider authorize URL for the given state token.
func (m *Manager) authorizeURL(token string) string {
	params := url.Values{}
	params.Set("client_id", m.cfg.ClientID)
	params.Set("redirect_uri", m.cfg.RedirectURI)
	params.Set("response_type", "code")
	params.Set("scope", strings.Join(m.cfg.Scopes, " "))
	params.Set("state", token)

	return m.cfg.AuthorizeURL + "?" + params.Encode()
}

// newStateToken returns a URL-safe token with stateTokenBytes of entropy.
func newStateToken() (string, error) {
	buf := make([]byte, stateTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
