package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/your-org/integrations-service/internal/domain"
	"github.com/your-org/integrations-service/internal/service/metrics"
	"github.com/your-org/integrations-service/pkg/errors"
	"github.com/your-org/integrations-service/pkg/logger"
)

// callbackPage is served after a successful callback so the OAuth popup
// closes itself.
const callbackPage = "<html><script>window.close();</script></html>"

// StateService defines the interface for OAuth state token operations.
type StateService interface {
	BeginAuthorization(ctx context.Context, userID, orgID string) (string, error)
	ResolveCallback(ctx context.Context, code, stateToken string) (domain.AuthContext, error)
	Retire(ctx context.Context, stateToken string)
}

// TokenExchanger defines the interface for authorization code exchange.
type TokenExchanger interface {
	ExchangeCode(ctx context.Context, code string) (json.RawMessage, error)
}

// CredentialStore defines the interface for one-shot credential handoff.
type CredentialStore interface {
	Put(ctx context.Context, orgID, userID string, payload json.RawMessage) error
	Consume(ctx context.Context, orgID, userID string) (json.RawMessage, error)
}

// ContactsService defines the interface for provider record listings.
type ContactsService interface {
	FetchContacts(ctx context.Context, credentials string) ([]domain.IntegrationItem, error)
}

// HealthChecker reports backing store health for readiness probes.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Handler contains HTTP handlers for the integrations service.
type Handler struct {
	state       StateService
	exchanger   TokenExchanger
	credentials CredentialStore
	contacts    ContactsService
	health      HealthChecker
	metrics     *metrics.Metrics
	version     string
}

// NewHandler creates a new HTTP handler.
func NewHandler(
	state StateService,
	exchanger TokenExchanger,
	credentials CredentialStore,
	contacts ContactsService,
	health HealthChecker,
	version string,
	opts ...HandlerOption,
) *Handler {
	h := &Handler{
		state:       state,
		exchanger:   exchanger,
		credentials: credentials,
		contacts:    contacts,
		health:      health,
		metrics:     metrics.DefaultMetrics,
		version:     version,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// HandlerOption is a functional option for configuring the Handler.
type HandlerOption func(*Handler)

// WithMetrics sets the metrics instance for the handler.
func WithMetrics(m *metrics.Metrics) HandlerOption {
	return func(h *Handler) {
		h.metrics = m
	}
}

// Authorize mints a provider authorize URL for the given identity.
func (h *Handler) Authorize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := getRequestID(r)

	identity, err := parseIdentity(r)
	if err != nil {
		h.writeDomainError(w, err, requestID)
		return
	}

	authURL, err := h.state.BeginAuthorization(ctx, identity.UserID, identity.OrgID)
	if err != nil {
		h.writeDomainError(w, err, requestID)
		return
	}

	h.metrics.AuthorizationsStartedTotal.Inc()

	logger.Info("authorization started",
		logger.String("request_id", requestID),
		logger.String("user_id", identity.UserID),
		logger.String("org_id", identity.OrgID),
	)

	h.writeJSON(w, http.StatusOK, &AuthorizeResponse{AuthURL: authURL})
}

// OAuthCallback completes the authorization-code flow: it resolves the state
// token, exchanges the code, parks the token payload for pickup, and only
// then retires the state. A failed exchange leaves the state intact so the
// provider redirect can be retried until the state TTL runs out.
func (h *Handler) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := getRequestID(r)
	start := time.Now()

	code := r.URL.Query().Get("code")
	stateToken := r.URL.Query().Get("state")

	authCtx, err := h.state.ResolveCallback(ctx, code, stateToken)
	if err != nil {
		h.metrics.RecordStateLookup(false)
		h.writeDomainError(w, err, requestID)
		return
	}
	h.metrics.RecordStateLookup(true)

	payload, err := h.exchanger.ExchangeCode(ctx, code)
	if err != nil {
		h.metrics.RecordTokenExchange(false)
		logger.Error("token exchange failed",
			logger.String("request_id", requestID),
			logger.String("org_id", authCtx.OrgID),
			logger.Err(err),
		)
		h.writeDomainError(w, err, requestID)
		return
	}
	h.metrics.RecordTokenExchange(true)

	if err := h.credentials.Put(ctx, authCtx.OrgID, authCtx.UserID, payload); err != nil {
		logger.Error("failed to park credentials",
			logger.String("request_id", requestID),
			logger.Err(err),
		)
		h.writeDomainError(w, err, requestID)
		return
	}

	h.state.Retire(ctx, stateToken)

	logger.Info("authorization completed",
		logger.String("request_id", requestID),
		logger.String("user_id", authCtx.UserID),
		logger.String("org_id", authCtx.OrgID),
		logger.Duration("duration", time.Since(start)),
	)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(callbackPage))
}

// Credentials hands the parked token payload to the caller exactly once.
func (h *Handler) Credentials(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := getRequestID(r)

	identity, err := parseIdentity(r)
	if err != nil {
		h.writeDomainError(w, err, requestID)
		return
	}

	payload, err := h.credentials.Consume(ctx, identity.OrgID, identity.UserID)
	if err != nil {
		h.metrics.RecordCredentialsConsumed(false)
		h.writeDomainError(w, err, requestID)
		return
	}
	h.metrics.RecordCredentialsConsumed(true)

	logger.Info("credentials consumed",
		logger.String("request_id", requestID),
		logger.String("user_id", identity.UserID),
		logger.String("org_id", identity.OrgID),
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(payload)
}

// Load lists the provider's contact records as normalized integration items.
func (h *Handler) Load(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := getRequestID(r)
	start := time.Now()

	credentials, err := parseCredentials(r)
	if err != nil {
		h.writeDomainError(w, err, requestID)
		return
	}

	items, err := h.contacts.FetchContacts(ctx, credentials)
	if err != nil {
		h.writeDomainError(w, err, requestID)
		return
	}
	if items == nil {
		items = []domain.IntegrationItem{}
	}

	h.metrics.RecordItemsNormalized(domain.ItemTypeContact, len(items))

	logger.Info("items loaded",
		logger.String("request_id", requestID),
		logger.Int("count", len(items)),
		logger.Duration("duration", time.Since(start)),
	)

	h.writeJSON(w, http.StatusOK, items)
}

// Health handles health check requests.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	checks := make(map[string]CheckResult)

	if err := h.health.Health(ctx); err != nil {
		checks["session_store"] = CheckResult{Status: "unhealthy", Message: err.Error()}
	} else {
		checks["session_store"] = CheckResult{Status: "healthy"}
	}

	status := "healthy"
	for _, check := range checks {
		if check.Status != "healthy" {
			status = "unhealthy"
			break
		}
	}

	resp := &HealthResponse{
		Status:    status,
		Checks:    checks,
		Version:   h.version,
		Timestamp: time.Now(),
	}

	statusCode := http.StatusOK
	if status != "healthy" {
		statusCode = http.StatusServiceUnavailable
	}

	h.writeJSON(w, statusCode, resp)
}

// Ready handles readiness check requests.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if err := h.health.Health(r.Context()); err != nil {
		h.writeError(w, http.StatusServiceUnavailable, "NOT_READY", "session store unreachable", "")
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// Live handles liveness check requests.
func (h *Handler) Live(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// Helper methods

// parseIdentity reads user_id and org_id from a form or JSON body.
func parseIdentity(r *http.Request) (IdentityRequest, error) {
	var identity IdentityRequest

	if isJSONRequest(r) {
		if err := json.NewDecoder(r.Body).Decode(&identity); err != nil {
			return identity, errors.New(errors.CodeMissingParameter, "invalid request body", errors.ErrMissingParameter)
		}
	} else {
		if err := r.ParseForm(); err != nil {
			return identity, errors.New(errors.CodeMissingParameter, "failed to parse form", errors.ErrMissingParameter)
		}
		identity.UserID = r.FormValue("user_id")
		identity.OrgID = r.FormValue("org_id")
	}

	if identity.UserID == "" {
		return identity, errors.New(errors.CodeMissingParameter, "user_id is required", errors.ErrMissingParameter)
	}
	if identity.OrgID == "" {
		return identity, errors.New(errors.CodeMissingParameter, "org_id is required", errors.ErrMissingParameter)
	}

	return identity, nil
}

// parseCredentials reads the credentials field from a form or JSON body.
func parseCredentials(r *http.Request) (string, error) {
	if isJSONRequest(r) {
		var req LoadRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return "", errors.New(errors.CodeMissingParameter, "invalid request body", errors.ErrMissingParameter)
		}
		if req.Credentials == "" {
			return "", errors.New(errors.CodeMissingParameter, "credentials is required", errors.ErrMissingParameter)
		}
		return req.Credentials, nil
	}

	if err := r.ParseForm(); err != nil {
		return "", errors.New(errors.CodeMissingParameter, "failed to parse form", errors.ErrMissingParameter)
	}
	credentials := r.FormValue("credentials")
	if credentials == "" {
		return "", errors.New(errors.CodeMissingParameter, "credentials is required", errors.ErrMissingParameter)
	}
	return credentials, nil
}

func isJSONRequest(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", logger.Err(err))
	}
}

// writeDomainError maps a service error onto the wire taxonomy. Only the
// stable message of an IntegrationError is exposed; wrapped causes stay in
// the logs.
func (h *Handler) writeDomainError(w http.ResponseWriter, err error, requestID string) {
	var ie *errors.IntegrationError
	if errors.As(err, &ie) {
		resp := &ErrorResponse{
			Error:     ie.Message,
			Code:      ie.Code,
			Details:   ie.Details,
			RequestID: requestID,
		}
		h.writeJSON(w, errors.HTTPStatus(ie.Code), resp)
		return
	}

	logger.Error("unclassified error", logger.String("request_id", requestID), logger.Err(err))
	h.writeError(w, http.StatusInternalServerError, errors.CodeInternalError, "internal error", requestID)
}

func (h *Handler) writeError(w http.ResponseWriter, status int, code, message, requestID string) {
	resp := &ErrorResponse{
		Error:     message,
		Code:      code,
		RequestID: requestID,
	}
	h.writeJSON(w, status, resp)
}

func getRequestID(r *http.Request) string {
	// Check for existing request ID
	if id := r.Header.Get("X-Request-ID"); id != "" {
		return id
	}
	if id := r.Header.Get("X-Correlation-ID"); id != "" {
		return id
	}
	// Generate new UUID
	return uuid.New().String()
}
