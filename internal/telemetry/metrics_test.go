package telemetry

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var metric dto.Metric
	if err := c.Write(&metric); err != nil {
		t.Fatalf("failed to write metric: %v", err)
	}
	return metric.GetCounter().GetValue()
}

func TestNewMetrics(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	if m.RequestTotal == nil {
		t.Error("RequestTotal should not be nil")
	}
	if m.RequestDurationMs == nil {
		t.Error("RequestDurationMs should not be nil")
	}
	if m.UpstreamStatus == nil {
		t.Error("UpstreamStatus should not be nil")
	}
	if m.StreamBytesTotal == nil {
		t.Error("StreamBytesTotal should not be nil")
	}
	if m.FilterActionTotal == nil {
		t.Error("FilterActionTotal should not be nil")
	}
}

func TestNewMetrics_SeparateRegistries(t *testing.T) {
	// Each registry gets its own collectors; no duplicate registration panic.
	NewMetrics(prometheus.NewRegistry())
	NewMetrics(prometheus.NewRegistry())
}

func TestRecordRequest(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordRequest(RequestLabels{
		Type:         "analyze",
		Status:       "200",
		DurationMs:   150,
		ContentChars: 42,
	})

	counter, err := m.RequestTotal.GetMetricWithLabelValues("analyze", "200")
	if err != nil {
		t.Fatalf("failed to get metric: %v", err)
	}
	if v := counterValue(t, counter); v != 1 {
		t.Errorf("expected request count 1, got %v", v)
	}

	chars, _ := m.ContentCharsTotal.GetMetricWithLabelValues("analyze")
	if v := counterValue(t, chars); v != 42 {
		t.Errorf("expected 42 content chars, got %v", v)
	}
}

func TestRecordRequest_UnknownType(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	m.RecordRequest(RequestLabels{Status: "401"})

	counter, _ := m.RequestTotal.GetMetricWithLabelValues("unknown", "401")
	if v := counterValue(t, counter); v != 1 {
		t.Errorf("expected unknown-type count 1, got %v", v)
	}
}

func TestRecordFilterAction(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	m.RecordFilterAction("secrets", "redact")

	counter, _ := m.FilterActionTotal.GetMetricWithLabelValues("secrets", "redact")
	if v := counterValue(t, counter); v != 1 {
		t.Errorf("expected filter action count 1, got %v", v)
	}
}

func TestRecordStreamBytes(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	m.RecordStreamBytes(100)
	m.RecordStreamBytes(0)
	m.RecordStreamBytes(23)

	if v := counterValue(t, m.StreamBytesTotal); v != 123 {
		t.Errorf("expected 123 stream bytes, got %v", v)
	}
}

func TestNilMetrics_NoPanic(t *testing.T) {
	var m *Metrics
	m.RecordRequest(RequestLabels{Type: "logs", Status: "200"})
	m.RecordUpstreamStatus("500")
	m.RecordStreamBytes(10)
	m.RecordFilterAction("policy", "block")
	m.RecordRateLimitHit("rpm")
	m.RecordAuthFailure("missing_header")
}
