package filter

import (
	"context"

	"github.com/af-corp/debug-relay/internal/types"
)

// Action represents the filter decision.
type Action string

const (
	ActionPass   Action = "pass"
	ActionFlag   Action = "flag"
	ActionRedact Action = "redact"
	ActionBlock  Action = "block"
)

// Result is returned by each filter.
type Result struct {
	Action     Action
	FilterName string
	// Message is the caller-facing text for a block. Diagnostic detail goes
	// in Reason and is only logged.
	Message    string
	Reason     string
	Status     int
	Detections int
	Score      float64
}

// Filter is the interface all content filters implement. A filter that
// returns ActionRedact has already rewritten req.Content.
type Filter interface {
	Name() string
	Enabled() bool
	ScanRequest(ctx context.Context, req *types.AnalysisRequest) Result
}

// Chain runs filters in order, stopping on the first Block.
type Chain struct {
	filters []Filter
}

// NewChain creates a filter chain from the given filters.
func NewChain(filters ...Filter) *Chain {
	return &Chain{filters: filters}
}

// Run executes all enabled filters in order. Returns all results and a pointer
// to the first blocking result (nil if no filter blocked).
func (c *Chain) Run(ctx context.Context, req *types.AnalysisRequest) ([]Result, *Result) {
	if c == nil {
		return nil, nil
	}
	var results []Result
	for _, f := range c.filters {
		if !f.Enabled() {
			continue
		}
		r := f.ScanRequest(ctx, req)
		results = append(results, r)
		if r.Action == ActionBlock {
			return results, &r
		}
	}
	return results, nil
}
