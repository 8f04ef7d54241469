package injection

import (
	"context"
	"fmt"
	"net/http"

	"github.com/af-corp/debug-relay/internal/config"
	"github.com/af-corp/debug-relay/internal/filter"
	"github.com/af-corp/debug-relay/internal/httputil"
	"github.com/af-corp/debug-relay/internal/types"
)

// Detection records a matched injection pattern.
type Detection struct {
	RuleName string
	Severity float64
	Category string
	Start    int
	End      int
}

// Scanner scans text for prompt injection patterns.
type Scanner struct {
	rules []Rule
	cfg   func() config.InjectionFilterConfig
}

// NewScanner creates a prompt injection scanner.
func NewScanner(cfg func() config.InjectionFilterConfig) *Scanner {
	return &Scanner{rules: DefaultRules(), cfg: cfg}
}

func (s *Scanner) Name() string  { return "injection" }
func (s *Scanner) Enabled() bool { return s.cfg().Enabled }

// Scan checks a single text string and returns all detections.
func (s *Scanner) Scan(text string) []Detection {
	var detections []Detection
	for _, r := range s.rules {
		locs := r.Regex.FindAllStringIndex(text, -1)
		for _, loc := range locs {
			detections = append(detections, Detection{
				RuleName: r.Name,
				Severity: r.Severity,
				Category: r.Category,
				Start:    loc[0],
				End:      loc[1],
			})
		}
	}
	return detections
}

// Score returns the detections in text and the highest severity among them.
func (s *Scanner) Score(text string) ([]Detection, float64) {
	detections := s.Scan(text)
	maxScore := 0.0
	for _, d := range detections {
		if d.Severity > maxScore {
			maxScore = d.Severity
		}
	}
	return detections, maxScore
}

// ScanRequest implements filter.Filter.
func (s *Scanner) ScanRequest(_ context.Context, req *types.AnalysisRequest) filter.Result {
	detections, score := s.Score(req.Content)
	cfg := s.cfg()

	if cfg.BlockThreshold > 0 && score >= cfg.BlockThreshold {
		return filter.Result{
			Action:     filter.ActionBlock,
			FilterName: "injection",
			Message:    httputil.MsgInjectionBlocked,
			Reason:     fmt.Sprintf("prompt injection detected (score %.2f, rule %s)", score, topRule(detections)),
			Status:     http.StatusBadRequest,
			Detections: len(detections),
			Score:      score,
		}
	}
	if cfg.FlagThreshold > 0 && score >= cfg.FlagThreshold {
		return filter.Result{
			Action:     filter.ActionFlag,
			FilterName: "injection",
			Detections: len(detections),
			Score:      score,
		}
	}
	return filter.Result{Action: filter.ActionPass, FilterName: "injection", Score: score}
}

func topRule(detections []Detection) string {
	best := ""
	maxScore := -1.0
	for _, d := range detections {
		if d.Severity > maxScore {
			best, maxScore = d.RuleName, d.Severity
		}
	}
	return best
}
