package auth

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "debugrelay:principal:"

// CachedValidator caches successful validations in Redis keyed by token hash,
// so remote validation is not repeated for every request. Failures are never
// cached. A nil Redis client disables caching.
type CachedValidator struct {
	next  Validator
	redis *redis.Client
	ttl   time.Duration
}

func NewCachedValidator(next Validator, rdb *redis.Client, ttl time.Duration) *CachedValidator {
	return &CachedValidator{next: next, redis: rdb, ttl: ttl}
}

func (c *CachedValidator) Validate(ctx context.Context, token string) (*Principal, error) {
	if c.redis == nil || c.ttl <= 0 {
		return c.next.Validate(ctx, token)
	}

	key := redisKeyPrefix + HashToken(token)
	cached, err := c.redis.Get(ctx, key).Bytes()
	if err == nil {
		var p Principal
		if err := json.Unmarshal(cached, &p); err == nil && p.UserID != "" && !expired(p) {
			return &p, nil
		}
	}

	p, err := c.next.Validate(ctx, token)
	if err != nil {
		return nil, err
	}

	ttl := c.ttl
	if !p.ExpiresAt.IsZero() {
		if remaining := time.Until(p.ExpiresAt); remaining < ttl {
			ttl = remaining
		}
	}
	if ttl > 0 {
		if data, err := json.Marshal(p); err == nil {
			if err := c.redis.Set(ctx, key, data, ttl).Err(); err != nil {
				slog.Warn("principal cache write failed", "error", err)
			}
		}
	}
	return p, nil
}

func expired(p Principal) bool {
	return !p.ExpiresAt.IsZero() && time.Now().After(p.ExpiresAt)
}
