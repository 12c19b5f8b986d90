// Package session keeps live refresh sessions in redis. A session is the
// server-side half of a refresh token: key "refresh:<id>" holding the owning
// user id, expiring with the token's TTL. Revoking deletes the key, so a
// rotated or logged-out token can never validate again.
package session

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

type Store struct {
	client *redis.Client
}

func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}

func key(sessionID string) string {
	return fmt.Sprintf("refresh:%s", sessionID)
}

func (s *Store) Create(ctx context.Context, sessionID string, userID uint, ttl time.Duration) error {
	return s.client.Set(ctx, key(sessionID), strconv.FormatUint(uint64(userID), 10), ttl).Err()
}

// IsLive reports whether a session exists and belongs to userID. A missing
// key (revoked or expired) is not an error.
func (s *Store) IsLive(ctx context.Context, sessionID string, userID uint) (bool, error) {
	stored, err := s.client.Get(ctx, key(sessionID)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("session get: %w", err)
	}
	id, err := strconv.ParseUint(stored, 10, 64)
	if err != nil {
		return false, nil
	}
	return uint(id) == userID, nil
}

// Revoke deletes the session. Deleting a key that is already gone is fine,
// revocation is idempotent.
func (s *Store) Revoke(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, key(sessionID)).Err()
}
