package secrets

import (
	"context"
	"net/http"
	"sort"
	"strings"

	"github.com/af-corp/debug-relay/internal/config"
	"github.com/af-corp/debug-relay/internal/filter"
	"github.com/af-corp/debug-relay/internal/httputil"
	"github.com/af-corp/debug-relay/internal/types"
)

// Detection represents a detected secret in text.
type Detection struct {
	PatternName string // e.g. "AWS Access Key"
	Start       int    // byte offset
	End         int    // byte offset
}

// Scanner scans text for secrets using pre-compiled regex patterns.
type Scanner struct {
	patterns []Pattern
	cfg      func() config.SecretsFilterConfig
}

// NewScanner creates a scanner with the default secret patterns.
func NewScanner(cfg func() config.SecretsFilterConfig) *Scanner {
	return &Scanner{patterns: DefaultPatterns(), cfg: cfg}
}

func (s *Scanner) Name() string  { return "secrets" }
func (s *Scanner) Enabled() bool { return s.cfg().Enabled }

// Scan checks a single text string for secrets and returns all detections
// ordered by start offset.
func (s *Scanner) Scan(text string) []Detection {
	var detections []Detection
	for _, p := range s.patterns {
		locs := p.Regex.FindAllStringIndex(text, -1)
		for _, loc := range locs {
			detections = append(detections, Detection{
				PatternName: p.Name,
				Start:       loc[0],
				End:         loc[1],
			})
		}
	}
	sort.SliceStable(detections, func(i, j int) bool {
		return detections[i].Start < detections[j].Start
	})
	return detections
}

// Redact replaces every detection in text with [REDACTED:<pattern>].
// Overlapping detections collapse into the first one's label.
func Redact(text string, detections []Detection) string {
	if len(detections) == 0 {
		return text
	}
	var b strings.Builder
	pos := 0
	for _, d := range detections {
		if d.Start < pos {
			if d.End > pos {
				pos = d.End
			}
			continue
		}
		b.WriteString(text[pos:d.Start])
		b.WriteString("[REDACTED:")
		b.WriteString(d.PatternName)
		b.WriteString("]")
		pos = d.End
	}
	b.WriteString(text[pos:])
	return b.String()
}

// ScanRequest implements filter.Filter.
func (s *Scanner) ScanRequest(_ context.Context, req *types.AnalysisRequest) filter.Result {
	detections := s.Scan(req.Content)
	if len(detections) == 0 {
		return filter.Result{Action: filter.ActionPass, FilterName: "secrets"}
	}

	if s.cfg().Mode == config.SecretsModeBlock {
		return filter.Result{
			Action:     filter.ActionBlock,
			FilterName: "secrets",
			Message:    httputil.MsgSecretsDetected,
			Reason:     detections[0].PatternName,
			Status:     http.StatusBadRequest,
			Detections: len(detections),
		}
	}

	req.Content = Redact(req.Content, detections)
	return filter.Result{
		Action:     filter.ActionRedact,
		FilterName: "secrets",
		Detections: len(detections),
	}
}
