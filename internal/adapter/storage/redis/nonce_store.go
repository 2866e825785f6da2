package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// NonceStore implements ports.NonceStore using Redis SET NX. A payment
// authorization nonce is registered exactly once; replays are rejected for
// the configured TTL.
type NonceStore struct {
	client *goredis.Client
	prefix string
}

// NewNonceStore creates a new Redis-backed nonce store.
func NewNonceStore(client *goredis.Client) *NonceStore {
	return &NonceStore{
		client: client,
		prefix: "payment:nonce:",
	}
}

// Register atomically records a nonce for the session. Returns true if the
// nonce is new, false if it was already used.
func (s *NonceStore) Register(ctx context.Context, sessionID string, nonce string, ttl time.Duration) (bool, error) {
	key := s.prefix + sessionID + ":" + nonce
	result, err := s.client.SetArgs(ctx, key, 1, goredis.SetArgs{
		Mode: "NX",
		TTL:  ttl,
	}).Result()
	if err != nil {
		if err == goredis.Nil {
			// Key already exists, this nonce was already attached to an attempt.
			return false, nil
		}
		return false, fmt.Errorf("redis nonce register: %w", err)
	}
	return result == "OK", nil
}
