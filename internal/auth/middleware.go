package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/af-corp/debug-relay/internal/httputil"
	"github.com/af-corp/debug-relay/internal/telemetry"
)

const bearerPrefix = "Bearer "

// Middleware authenticates requests via Bearer token before anything reads the
// body. On success the Principal is stored in the request context.
func Middleware(v Validator, metrics *telemetry.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := httputil.RequestIDFromContext(r.Context())

			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, bearerPrefix) {
				slog.Warn("auth failed: missing or malformed authorization header", "request_id", reqID)
				metrics.RecordAuthFailure("missing_header")
				httputil.WriteAuthError(w, reqID, httputil.MsgAuthRequired)
				return
			}

			token := strings.TrimPrefix(authHeader, bearerPrefix)
			if token == "" {
				slog.Warn("auth failed: empty bearer token", "request_id", reqID)
				metrics.RecordAuthFailure("invalid_token")
				httputil.WriteAuthError(w, reqID, httputil.MsgInvalidToken)
				return
			}

			principal, err := v.Validate(r.Context(), token)
			if err == nil && (principal == nil || principal.UserID == "") {
				err = ErrMissingSubject
			}
			if err != nil {
				reason := "invalid_token"
				switch {
				case errors.Is(err, ErrMissingSubject):
					reason = "missing_subject"
				case !errors.Is(err, ErrInvalidToken):
					// Provider unreachable or misbehaving; still fail closed.
					reason = "provider_error"
					slog.Error("token validation error", "request_id", reqID, "error", err, "token_fp", safePrefix(token))
				}
				slog.Warn("auth failed", "request_id", reqID, "reason", reason, "token_fp", safePrefix(token))
				metrics.RecordAuthFailure(reason)
				httputil.WriteAuthError(w, reqID, httputil.MsgInvalidToken)
				return
			}

			slog.Info("authenticated request", "request_id", reqID, "user_id", principal.UserID)

			ctx := ContextWithPrincipal(r.Context(), principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
