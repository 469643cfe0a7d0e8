// Package credentials parks exchanged token payloads for one-shot pickup.
// The session store is a handoff channel here, not a vault: every payload is
// consumed at most once and carries a safety-net TTL in case nobody picks
// it up.
package credentials

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/your-org/integrations-service/internal/service/session"
	"github.com/your-org/integrations-service/pkg/errors"
	"github.com/your-org/integrations-service/pkg/logger"
)

const keyPrefix = "credentials:"

// Store persists token payloads keyed by (organization, user).
type Store struct {
	store session.Store
	ttl   time.Duration
	log   logger.Logger
}

// NewStore creates a credential store with the given safety-net TTL.
func NewStore(store session.Store, ttl time.Duration, log logger.Logger) *Store {
	return &Store{
		store: store,
		ttl:   ttl,
		log:   log,
	}
}

// Put writes the token payload under (orgID, userID), replacing any payload
// from an earlier authorization cycle.
func (s *Store) Put(ctx context.Context, orgID, userID string, payload json.RawMessage) error {
	if err := s.store.Set(ctx, key(orgID, userID), payload, s.ttl); err != nil {
		return fmt.Errorf("failed to store credentials: %w", err)
	}

	s.log.Debug("credentials stored",
		logger.String("org_id", orgID),
		logger.String("user_id", userID),
	)
	return nil
}

// Consume returns the payload for (orgID, userID) and deletes it before
// returning. A second call for the same identity fails with
// CredentialsNotFound even though the original exchange succeeded.
func (s *Store) Consume(ctx context.Context, orgID, userID string) (json.RawMessage, error) {
	k := key(orgID, userID)

	payload, err := s.store.Get(ctx, k)
	if err != nil {
		return nil, fmt.Errorf("failed to load credentials: %w", err)
	}
	if payload == nil {
		return nil, errors.New(errors.CodeCredentialsNotFound,
			"no credentials found for the given user and organization", errors.ErrCredentialsNotFound)
	}

	if err := s.store.Delete(ctx, k); err != nil {
		return nil, fmt.Errorf("failed to retire credentials: %w", err)
	}

	return payload, nil
}

func key(orgID, userID string) string {
	return keyPrefix + orgID + ":" + userID
}
