package auth

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	refreshKeyPrefix  = "refresh:"
	denylistKeyPrefix = "denylist:"
)

// SessionStore tracks issued refresh tokens and revoked access tokens in
// Redis. A refresh token is only honoured while its jti is present, so
// logout revokes the pair immediately instead of waiting for expiry.
type SessionStore struct {
	client *redis.Client
}

// NewSessionStore constructs a SessionStore.
func NewSessionStore(client *redis.Client) *SessionStore {
	return &SessionStore{client: client}
}

// SaveRefresh registers a refresh token jti for the user.
func (s *SessionStore) SaveRefresh(ctx context.Context, jti string, userID int64, ttl time.Duration) error {
	return s.client.Set(ctx, refreshKeyPrefix+jti, userID, ttl).Err()
}

// RefreshExists reports whether the refresh jti is still registered.
func (s *SessionStore) RefreshExists(ctx context.Context, jti string) (bool, error) {
	if err := s.client.Get(ctx, refreshKeyPrefix+jti).Err(); err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// DeleteRefresh removes a refresh jti.
func (s *SessionStore) DeleteRefresh(ctx context.Context, jti string) error {
	return s.client.Del(ctx, refreshKeyPrefix+jti).Err()
}

// DenyAccess denylists an access jti until the token would have expired.
func (s *SessionStore) DenyAccess(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return s.client.Set(ctx, denylistKeyPrefix+jti, 1, ttl).Err()
}

// AccessDenied reports whether the access jti has been revoked.
func (s *SessionStore) AccessDenied(ctx context.Context, jti string) (bool, error) {
	if err := s.client.Get(ctx, denylistKeyPrefix+jti).Err(); err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// PurgeExpired scans for refresh keys without a TTL and removes them.
// Keys normally expire on their own; this catches entries written before a
// TTL was attached or left behind by a failed SET.
func (s *SessionStore) PurgeExpired(ctx context.Context) (int, error) {
	var purged int
	iter := s.client.Scan(ctx, 0, refreshKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		ttl, err := s.client.TTL(ctx, key).Result()
		if err != nil {
			return purged, err
		}
		if ttl < 0 {
			if err := s.client.Del(ctx, key).Err(); err != nil {
				return purged, err
			}
			purged++
		}
	}
	if err := iter.Err(); err != nil {
		return purged, err
	}
	return purged, nil
}
