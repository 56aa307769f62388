package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const revokedKeyPrefix = "cms:admin:revoked:"

// SessionRepository records revoked admin token ids until the token would have expired.
// Without a Redis client it keeps revocations in process memory.
type SessionRepository struct {
	client *redis.Client
	logger *zap.Logger

	mu    sync.Mutex
	local map[string]time.Time
}

// NewSessionRepository constructs a session repository.
func NewSessionRepository(client *redis.Client, logger *zap.Logger) *SessionRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionRepository{client: client, logger: logger, local: map[string]time.Time{}}
}

// Revoke marks jti as revoked for ttl.
func (r *SessionRepository) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if jti == "" || ttl <= 0 {
		return nil
	}
	if r.client == nil {
		r.mu.Lock()
		r.local[jti] = time.Now().Add(ttl)
		r.mu.Unlock()
		return nil
	}
	if err := r.client.Set(ctx, revokedKeyPrefix+jti, "1", ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", jti, err)
	}
	return nil
}

// IsRevoked reports whether jti was revoked and has not yet expired.
func (r *SessionRepository) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if jti == "" {
		return false, nil
	}
	if r.client == nil {
		r.mu.Lock()
		defer r.mu.Unlock()
		exp, ok := r.local[jti]
		if !ok {
			return false, nil
		}
		if time.Now().After(exp) {
			delete(r.local, jti)
			return false, nil
		}
		return true, nil
	}

	err := r.client.Get(ctx, revokedKeyPrefix+jti).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get %s: %w", jti, err)
	}
	return true, nil
}

// Ping reports whether the backing store is reachable.
func (r *SessionRepository) Ping(ctx context.Context) error {
	if r.client == nil {
		return nil
	}
	return r.client.Ping(ctx).Err()
}
