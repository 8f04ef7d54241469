package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// QuotaResult is the outcome of a daily quota check.
type QuotaResult struct {
	Allowed   bool
	UsedChars int64
	Limit     int64
}

// QuotaTracker tracks the characters each user submits per UTC day.
type QuotaTracker struct {
	rdb *redis.Client
}

// NewQuotaTracker creates a quota tracker. If rdb is nil, all checks pass.
func NewQuotaTracker(rdb *redis.Client) *QuotaTracker {
	return &QuotaTracker{rdb: rdb}
}

func dailyQuotaKey(userID string, now time.Time) string {
	return fmt.Sprintf("debugrelay:quota:daily:%s:%s", userID, now.UTC().Format("2006-01-02"))
}

// Check reports whether userID may submit chars more characters today
// without exceeding limit. A non-positive limit disables the quota.
func (q *QuotaTracker) Check(ctx context.Context, userID string, chars, limit int64) (QuotaResult, error) {
	if q.rdb == nil || limit <= 0 {
		return QuotaResult{Allowed: true, Limit: limit}, nil
	}

	used, err := q.rdb.Get(ctx, dailyQuotaKey(userID, time.Now())).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		// Fail open on Redis errors
		slog.Warn("quota check failed, allowing request", "user_id", userID, "error", err)
		return QuotaResult{Allowed: true, Limit: limit}, nil
	}

	return quotaResult(used, chars, limit), nil
}

// quotaResult admits a request when it fits in what is left of today's
// limit; landing exactly on the limit is allowed.
func quotaResult(used, chars, limit int64) QuotaResult {
	return QuotaResult{
		Allowed:   used+chars <= limit,
		UsedChars: used,
		Limit:     limit,
	}
}

// Record adds chars to the user's counter for today.
func (q *QuotaTracker) Record(ctx context.Context, userID string, chars int64) error {
	if q.rdb == nil || chars <= 0 {
		return nil
	}

	now := time.Now().UTC()
	key := dailyQuotaKey(userID, now)
	pipe := q.rdb.Pipeline()
	pipe.IncrBy(ctx, key, chars)
	pipe.Expire(ctx, key, quotaTTL(now))
	_, err := pipe.Exec(ctx)
	return err
}

// quotaTTL keeps a daily counter until one hour past the end of its UTC day.
func quotaTTL(now time.Time) time.Duration {
	now = now.UTC()
	endOfDay := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, time.UTC)
	return endOfDay.Sub(now) + time.Hour
}
