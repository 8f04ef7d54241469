package relay

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/af-corp/debug-relay/internal/auth"
	"github.com/af-corp/debug-relay/internal/config"
	"github.com/af-corp/debug-relay/internal/httputil"
	"github.com/af-corp/debug-relay/internal/ratelimit"
	"github.com/af-corp/debug-relay/internal/telemetry"
)

// EndpointName is the path segment of the analysis endpoint under BasePath.
const EndpointName = "debug-analyze"

// RouterConfig wires the HTTP surface.
type RouterConfig struct {
	BasePath  string
	CORS      config.CORSConfig
	Validator auth.Validator
	Metrics   *telemetry.Metrics

	// Optional per-user request limit; nil Limiter or RequestsPerMinute
	// disables it.
	Limiter           *ratelimit.Limiter
	RequestsPerMinute func() int

	// Optional; nil disables the endpoint.
	Health         *Health
	MetricsHandler http.Handler
}

// NewRouter returns the relay's HTTP handler. The analysis route runs CORS
// first (so preflight never touches auth), then authentication, then the
// per-user rate limit.
func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(httputil.RequestID)
	r.Use(httputil.Recover)

	if cfg.Health != nil {
		r.Get("/health", cfg.Health.Live)
		r.Get("/ready", cfg.Health.Ready)
	}
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Route(AnalyzePath(cfg.BasePath), func(r chi.Router) {
		r.Use(httputil.CORS(cfg.CORS.AllowOrigin, cfg.CORS.AllowHeaders))
		r.Use(auth.Middleware(cfg.Validator, cfg.Metrics))
		if cfg.Limiter != nil && cfg.RequestsPerMinute != nil {
			r.Use(ratelimit.Middleware(cfg.Limiter, cfg.RequestsPerMinute, cfg.Metrics))
		}
		r.Post("/", h.Analyze)
	})

	return r
}

// AnalyzePath joins basePath and the endpoint name.
func AnalyzePath(basePath string) string {
	base := strings.TrimRight(basePath, "/")
	if base != "" && !strings.HasPrefix(base, "/") {
		base = "/" + base
	}
	return base + "/" + EndpointName
}
