package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the relay. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	RequestTotal       *prometheus.CounterVec
	RequestDurationMs  *prometheus.HistogramVec
	ContentCharsTotal  *prometheus.CounterVec
	UpstreamStatus     *prometheus.CounterVec
	StreamBytesTotal   prometheus.Counter
	FilterActionTotal  *prometheus.CounterVec
	RateLimitHitsTotal *prometheus.CounterVec
	AuthFailureTotal   *prometheus.CounterVec
}

// NewMetrics creates the relay metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RequestTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "debugrelay_request_total",
			Help: "Total number of analysis requests by type and response status.",
		}, []string{"type", "status"}),

		RequestDurationMs: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "debugrelay_request_duration_ms",
			Help:    "Time from request receipt to stream completion or error, in milliseconds.",
			Buckets: []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000, 60000, 120000},
		}, []string{"type"}),

		ContentCharsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "debugrelay_content_chars_total",
			Help: "Total characters of content accepted for analysis.",
		}, []string{"type"}),

		UpstreamStatus: f.NewCounterVec(prometheus.CounterOpts{
			Name: "debugrelay_upstream_status_total",
			Help: "Upstream gateway responses by HTTP status (\"error\" for transport failures).",
		}, []string{"status"}),

		StreamBytesTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "debugrelay_stream_bytes_total",
			Help: "Total bytes relayed from the upstream event stream to callers.",
		}),

		FilterActionTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "debugrelay_filter_action_total",
			Help: "Total content filter actions taken.",
		}, []string{"filter", "action"}),

		RateLimitHitsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "debugrelay_rate_limit_hits_total",
			Help: "Requests refused by per-user limits.",
		}, []string{"dimension"}),

		AuthFailureTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "debugrelay_auth_failure_total",
			Help: "Authentication failures by reason.",
		}, []string{"reason"}),
	}
}

// RequestLabels holds the values recorded for a finished request.
type RequestLabels struct {
	Type         string
	Status       string
	DurationMs   float64
	ContentChars int
}

// RecordRequest records metrics for a completed request.
func (m *Metrics) RecordRequest(labels RequestLabels) {
	if m == nil {
		return
	}
	typ := labels.Type
	if typ == "" {
		typ = "unknown"
	}
	m.RequestTotal.WithLabelValues(typ, labels.Status).Inc()
	m.RequestDurationMs.WithLabelValues(typ).Observe(labels.DurationMs)
	if labels.ContentChars > 0 {
		m.ContentCharsTotal.WithLabelValues(typ).Add(float64(labels.ContentChars))
	}
}

func (m *Metrics) RecordUpstreamStatus(status string) {
	if m == nil {
		return
	}
	m.UpstreamStatus.WithLabelValues(status).Inc()
}

func (m *Metrics) RecordStreamBytes(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.StreamBytesTotal.Add(float64(n))
}

// RecordFilterAction records a filter action metric.
func (m *Metrics) RecordFilterAction(filter, action string) {
	if m == nil {
		return
	}
	m.FilterActionTotal.WithLabelValues(filter, action).Inc()
}

func (m *Metrics) RecordRateLimitHit(dimension string) {
	if m == nil {
		return
	}
	m.RateLimitHitsTotal.WithLabelValues(dimension).Inc()
}

func (m *Metrics) RecordAuthFailure(reason string) {
	if m == nil {
		return
	}
	m.AuthFailureTotal.WithLabelValues(reason).Inc()
}
