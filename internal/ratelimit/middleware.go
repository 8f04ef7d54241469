package ratelimit

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/af-corp/debug-relay/internal/auth"
	"github.com/af-corp/debug-relay/internal/httputil"
	"github.com/af-corp/debug-relay/internal/telemetry"
)

const (
	headerRateLimitRequests          = "X-RateLimit-Limit-Requests"
	headerRateLimitRemainingRequests = "X-RateLimit-Remaining-Requests"
	headerRateLimitReset             = "X-RateLimit-Reset-Requests"
	headerRetryAfter                 = "Retry-After"
)

// Middleware enforces a per-user requests-per-minute limit. It must run after
// auth.Middleware. rpm is read on every request so config reloads apply; a
// non-positive value disables the limit.
func Middleware(limiter *Limiter, rpm func() int, metrics *telemetry.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := httputil.RequestIDFromContext(r.Context())

			limit := rpm()
			principal, ok := auth.PrincipalFromContext(r.Context())
			if !ok || limit <= 0 {
				next.ServeHTTP(w, r)
				return
			}

			rpmKey := fmt.Sprintf("rpm:%s", principal.UserID)
			result, _ := limiter.Check(r.Context(), rpmKey, int64(limit), time.Minute)

			w.Header().Set(headerRateLimitRequests, strconv.Itoa(limit))
			w.Header().Set(headerRateLimitRemainingRequests, strconv.FormatInt(result.Remaining, 10))
			w.Header().Set(headerRateLimitReset, result.ResetAt.Format(time.RFC3339))

			if !result.Allowed {
				slog.Warn("rate limit exceeded",
					"request_id", reqID,
					"user_id", principal.UserID,
					"dimension", "rpm",
					"limit", limit,
				)
				metrics.RecordRateLimitHit("rpm")
				w.Header().Set(headerRetryAfter, strconv.Itoa(int(result.RetryAfter.Seconds())))
				httputil.WriteRateLimitError(w, reqID)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
