package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// SessionStore tracks revoked token ids in Redis so logout takes effect
// before the JWT expires. Keys carry a TTL matching the token's remaining
// lifetime, so the set cleans itself up.
type SessionStore struct {
	client *redis.Client
}

func NewSessionStore(client *redis.Client) *SessionStore {
	return &SessionStore{client: client}
}

func revocationKey(jti string) string {
	return "auth:revoked:" + jti
}

// Revoke marks a token id as logged out until it would have expired anyway.
func (s *SessionStore) Revoke(ctx context.Context, jti string, until time.Time) error {
	if s == nil || s.client == nil {
		return nil
	}
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	if err := s.client.Set(ctx, revocationKey(jti), "1", ttl).Err(); err != nil {
		return fmt.Errorf("auth: revoke session: %w", err)
	}
	return nil
}

// IsRevoked reports whether a token id has been logged out. A nil store
// (Redis not configured) never revokes.
func (s *SessionStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if s == nil || s.client == nil {
		return false, nil
	}
	_, err := s.client.Get(ctx, revocationKey(jti)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("auth: check revocation: %w", err)
	}
	return true, nil
}
