package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/campuscore/campuscore/internal/shared"
)

// TokenStore issues and resolves opaque bearer tokens backed by Redis.
// Tokens carry no claims; the principal is stored server-side under the
// token key with a TTL, so revocation is a single delete.
type TokenStore struct {
	client *redis.Client
	ttl    time.Duration
}

type tokenPayload struct {
	UserID   int64       `json:"user_id"`
	Role     shared.Role `json:"role"`
	IsActive bool        `json:"is_active"`
}

// NewTokenStore constructs a TokenStore.
func NewTokenStore(client *redis.Client, ttl time.Duration) *TokenStore {
	return &TokenStore{client: client, ttl: ttl}
}

// Issue generates a fresh token for the principal and persists it.
func (s *TokenStore) Issue(ctx context.Context, p shared.Principal) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("auth: generate token: %w", err)
	}
	token := base64.RawURLEncoding.EncodeToString(buf)

	data, err := json.Marshal(tokenPayload{UserID: p.ID, Role: p.Role, IsActive: p.IsActive})
	if err != nil {
		return "", err
	}
	if err := s.client.Set(ctx, s.key(token), data, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("auth: store token: %w", err)
	}
	return token, nil
}

// Resolve maps a presented token back to its principal. Unknown or expired
// tokens surface as shared.ErrNoAuth.
func (s *TokenStore) Resolve(ctx context.Context, token string) (*shared.Principal, error) {
	if token == "" {
		return nil, shared.ErrNoAuth
	}
	data, err := s.client.Get(ctx, s.key(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, shared.ErrNoAuth
		}
		return nil, err
	}
	var stored tokenPayload
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, err
	}
	return &shared.Principal{ID: stored.UserID, Role: stored.Role, IsActive: stored.IsActive}, nil
}

// Revoke deletes the token. Revoking an unknown token is a no-op.
func (s *TokenStore) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.client.Del(ctx, s.key(token)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return nil
}

// TTL exposes the configured token lifetime.
func (s *TokenStore) TTL() time.Duration {
	return s.ttl
}

func (s *TokenStore) key(token string) string {
	return "campuscore:token:" + token
}
