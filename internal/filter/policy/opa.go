package policy

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/open-policy-agent/opa/v1/rego"

	"github.com/af-corp/debug-relay/internal/config"
	"github.com/af-corp/debug-relay/internal/filter"
	"github.com/af-corp/debug-relay/internal/httputil"
	"github.com/af-corp/debug-relay/internal/types"
)

// Query evaluated against every loaded module set. Policies live in package
// debugrelay.policy and define allow (bool) and reason (string).
const Query = "[data.debugrelay.policy.allow, data.debugrelay.policy.reason]"

// PolicyInput is the data sent to OPA for evaluation.
type PolicyInput struct {
	User    PolicyUser `json:"user"`
	Request PolicyReq  `json:"request"`
	Time    PolicyTime `json:"time"`
}

type PolicyUser struct {
	ID   string `json:"id"`
	Role string `json:"role"`
}

type PolicyReq struct {
	Type          string `json:"type"`
	Language      string `json:"language"`
	ContentLength int    `json:"content_length"`
}

type PolicyTime struct {
	Hour int    `json:"hour"`
	Day  string `json:"day"`
}

// Evaluator implements filter.Filter using OPA.
type Evaluator struct {
	mu       sync.RWMutex
	prepared *rego.PreparedEvalQuery
	cfg      func() config.PolicyFilterConfig
}

// NewEvaluator creates a policy evaluator. Call Load() to compile policies.
func NewEvaluator(cfg func() config.PolicyFilterConfig) *Evaluator {
	return &Evaluator{cfg: cfg}
}

func (e *Evaluator) Name() string  { return "policy" }
func (e *Evaluator) Enabled() bool { return e.cfg().Enabled }

// Load compiles Rego modules from the bundle path. It may be called again
// after a config reload; the previous policies stay active if compilation
// fails.
func (e *Evaluator) Load() error {
	cfg := e.cfg()
	modules, err := LoadRegoFiles(cfg.BundlePath)
	if err != nil {
		return err
	}
	if len(modules) == 0 {
		slog.Warn("no rego files found", "path", cfg.BundlePath)
		return nil
	}
	if err := e.LoadFromModules(modules); err != nil {
		return err
	}
	slog.Info("opa policies loaded", "modules", moduleNames(modules), "path", cfg.BundlePath)
	return nil
}

// LoadFromModules compiles policies from provided module sources.
func (e *Evaluator) LoadFromModules(modules map[string]string) error {
	opts := []func(*rego.Rego){rego.Query(Query)}
	for _, name := range moduleNames(modules) {
		opts = append(opts, rego.Module(name, modules[name]))
	}

	prepared, err := rego.New(opts...).PrepareForEval(context.Background())
	if err != nil {
		return fmt.Errorf("prepare rego: %w", err)
	}

	e.mu.Lock()
	e.prepared = &prepared
	e.mu.Unlock()
	return nil
}

// Evaluate runs the policy against the given input.
func (e *Evaluator) Evaluate(ctx context.Context, input PolicyInput) (bool, string, error) {
	e.mu.RLock()
	prepared := e.prepared
	e.mu.RUnlock()

	if prepared == nil {
		// No policies loaded, fail closed
		return false, "no policies loaded", nil
	}

	timeout := e.cfg().EvaluationTimeout
	if timeout == 0 {
		timeout = 100 * time.Millisecond
	}

	evalCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	results, err := prepared.Eval(evalCtx, rego.EvalInput(input))
	if err != nil {
		return false, fmt.Sprintf("policy evaluation error: %v", err), err
	}

	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return false, "no policy result", nil
	}

	// Result is [allow, reason]
	arr, ok := results[0].Expressions[0].Value.([]interface{})
	if !ok || len(arr) < 2 {
		return false, "unexpected policy result format", nil
	}

	allowed, _ := arr[0].(bool)
	reason, _ := arr[1].(string)

	return allowed, reason, nil
}

// InputFor builds the policy input for req at now.
func InputFor(req *types.AnalysisRequest, now time.Time) PolicyInput {
	now = now.UTC()
	return PolicyInput{
		User: PolicyUser{
			ID:   req.UserID,
			Role: req.Role,
		},
		Request: PolicyReq{
			Type:          string(req.Type),
			Language:      string(req.Language),
			ContentLength: req.ContentLength,
		},
		Time: PolicyTime{
			Hour: now.Hour(),
			Day:  now.Weekday().String(),
		},
	}
}

// ScanRequest implements filter.Filter.
func (e *Evaluator) ScanRequest(ctx context.Context, req *types.AnalysisRequest) filter.Result {
	allowed, reason, err := e.Evaluate(ctx, InputFor(req, time.Now()))
	if err != nil {
		slog.Error("policy evaluation failed", "request_id", req.RequestID, "error", err)
		// Fail closed
		return filter.Result{
			Action:     filter.ActionBlock,
			FilterName: "policy",
			Message:    httputil.MsgPolicyDenied,
			Reason:     "evaluation failed: " + err.Error(),
			Status:     http.StatusForbidden,
		}
	}

	if !allowed {
		return filter.Result{
			Action:     filter.ActionBlock,
			FilterName: "policy",
			Message:    httputil.MsgPolicyDenied,
			Reason:     reason,
			Status:     http.StatusForbidden,
		}
	}

	return filter.Result{Action: filter.ActionPass, FilterName: "policy"}
}
