package domain

// AuthContext identifies the caller that started an authorization flow.
// It is round-tripped through the session store, never through the URL.
type AuthContext struct {
	UserID string `json:"user_id"`
	OrgID  string `json:"org_id"`
}

// StateRecord is the payload persisted under a state token while the
// caller's browser is away at the provider.
type StateRecord struct {
	CSRF   string `json:"csrf"`
	UserID string `json:"user_id"`
	OrgID  string `json:"org_id"`
}
