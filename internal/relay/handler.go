// Package relay serves the debug-analyze endpoint: it validates a request,
// forwards it to the chat-completions gateway and pipes the event stream
// back to the caller untouched.
package relay

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/af-corp/debug-relay/internal/analysis"
	"github.com/af-corp/debug-relay/internal/audit"
	"github.com/af-corp/debug-relay/internal/auth"
	"github.com/af-corp/debug-relay/internal/filter"
	"github.com/af-corp/debug-relay/internal/httputil"
	"github.com/af-corp/debug-relay/internal/ratelimit"
	"github.com/af-corp/debug-relay/internal/telemetry"
	"github.com/af-corp/debug-relay/internal/types"
	"github.com/af-corp/debug-relay/internal/upstream"
)

const upstreamErrorBodyLimit = 4096

// Upstream opens a streaming chat completion. *upstream.Client implements it.
type Upstream interface {
	Stream(ctx context.Context, chat *types.ChatRequest) (*http.Response, error)
}

// configurable is implemented by upstreams that can report a missing
// credential before any filter, quota or network work is done.
type configurable interface {
	Configured() bool
}

// Quota tracks per-user daily usage. *ratelimit.QuotaTracker implements it.
type Quota interface {
	Check(ctx context.Context, userID string, chars, limit int64) (ratelimit.QuotaResult, error)
	Record(ctx context.Context, userID string, chars int64) error
}

// Deps are the collaborators of a Handler. Catalog and Upstream are required;
// the rest may be left zero.
type Deps struct {
	Catalog  *analysis.Catalog
	Upstream Upstream
	Filters  *filter.Chain
	Quota    Quota
	Audit    audit.Recorder
	Metrics  *telemetry.Metrics

	// Read per request so config reloads apply.
	MaxBodyBytes      func() int64
	DailyContentChars func() int64
}

// Handler serves the analysis endpoint. It holds no per-request state.
type Handler struct {
	deps Deps
}

func NewHandler(d Deps) *Handler {
	if d.Audit == nil {
		d.Audit = audit.Nop{}
	}
	if d.MaxBodyBytes == nil {
		d.MaxBodyBytes = func() int64 { return 0 }
	}
	if d.DailyContentChars == nil {
		d.DailyContentChars = func() int64 { return 0 }
	}
	return &Handler{deps: d}
}

// outcome accumulates what one request did, for the final log line, metrics
// and audit entry.
type outcome struct {
	req          *types.AnalysisRequest
	status       int
	result       string
	filterAction string
}

// Analyze handles POST {base_path}/debug-analyze. It expects auth.Middleware
// to have run.
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	reqID := httputil.RequestIDFromContext(r.Context())
	receivedAt := time.Now()

	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		ErrUnauthenticated.Write(w, reqID)
		return
	}

	out := &outcome{req: &types.AnalysisRequest{RequestID: reqID, UserID: principal.UserID, Role: principal.Role}}
	defer h.finish(out, receivedAt)

	fail := func(e *Error, result string) {
		out.status = e.Status
		out.result = result
		e.Write(w, reqID)
	}

	body, err := h.readBody(w, r)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			slog.Warn("request body too large", "request_id", reqID, "user_id", principal.UserID, "limit", maxErr.Limit)
			fail(ErrBodyTooLarge, "rejected")
			return
		}
		slog.Warn("failed to read request body", "request_id", reqID, "error", err)
		fail(fromStatus(http.StatusBadRequest, httputil.MsgInvalidJSON), "rejected")
		return
	}

	req, verr := h.deps.Catalog.Validate(body)
	if verr != nil {
		slog.Warn("validation failed",
			"request_id", reqID,
			"user_id", principal.UserID,
			"status", verr.Status,
			"reason", verr.Message,
		)
		fail(fromStatus(verr.Status, verr.Message), "rejected")
		return
	}
	req.RequestID = reqID
	req.UserID = principal.UserID
	req.Role = principal.Role
	out.req = req

	if c, ok := h.deps.Upstream.(configurable); ok && !c.Configured() {
		slog.Error("AI service not configured", "request_id", reqID)
		fail(ErrNotConfigured, "not_configured")
		return
	}

	// Content filters (secrets, injection, policy)
	results, blocked := h.deps.Filters.Run(r.Context(), req)
	for _, fr := range results {
		if fr.Action == filter.ActionPass {
			continue
		}
		h.deps.Metrics.RecordFilterAction(fr.FilterName, string(fr.Action))
		if fr.Action != filter.ActionBlock {
			out.filterAction = string(fr.Action)
			slog.Info("content filter applied",
				"request_id", reqID,
				"filter", fr.FilterName,
				"action", string(fr.Action),
				"detections", fr.Detections,
				"score", fr.Score,
			)
		}
	}
	if blocked != nil {
		slog.Warn("request blocked by filter",
			"request_id", reqID,
			"user_id", principal.UserID,
			"filter", blocked.FilterName,
			"reason", blocked.Reason,
			"detections", blocked.Detections,
			"score", blocked.Score,
		)
		out.filterAction = string(filter.ActionBlock)
		status := blocked.Status
		if status == 0 {
			status = http.StatusBadRequest
		}
		fail(fromStatus(status, blocked.Message), "blocked")
		return
	}

	// Length may have changed after redaction.
	req.ContentLength = analysis.ContentLength(req.Content)

	if h.deps.Quota != nil {
		limit := h.deps.DailyContentChars()
		qr, _ := h.deps.Quota.Check(r.Context(), req.UserID, int64(req.ContentLength), limit)
		if !qr.Allowed {
			slog.Warn("daily quota exceeded",
				"request_id", reqID,
				"user_id", req.UserID,
				"used_chars", qr.UsedChars,
				"limit", qr.Limit,
			)
			h.deps.Metrics.RecordRateLimitHit("daily_chars")
			fail(ErrQuotaExhausted, "quota_exhausted")
			return
		}
	}

	chat, err := h.deps.Catalog.BuildChatRequest(req)
	if err != nil {
		slog.Error("failed to build chat request", "request_id", reqID, "error", err)
		fail(ErrUnexpected, "error")
		return
	}

	resp, err := h.deps.Upstream.Stream(r.Context(), chat)
	if err != nil {
		switch {
		case errors.Is(err, upstream.ErrNotConfigured):
			slog.Error("AI service not configured", "request_id", reqID)
			fail(ErrNotConfigured, "not_configured")
		case errors.Is(err, upstream.ErrCircuitOpen):
			slog.Warn("upstream circuit open, failing fast", "request_id", reqID)
			h.deps.Metrics.RecordUpstreamStatus("circuit_open")
			fail(ErrUpstream, "upstream_error")
		case r.Context().Err() != nil:
			slog.Info("client went away before upstream responded", "request_id", reqID)
			out.status = 499
			out.result = "cancelled"
		default:
			slog.Error("upstream request failed", "request_id", reqID, "error", err)
			h.deps.Metrics.RecordUpstreamStatus("error")
			fail(ErrUpstream, "upstream_error")
		}
		return
	}
	h.deps.Metrics.RecordUpstreamStatus(strconv.Itoa(resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, upstreamErrorBodyLimit))
		resp.Body.Close()
		slog.Error("upstream returned error",
			"request_id", reqID,
			"status", resp.StatusCode,
			"body", string(errBody),
		)
		fail(upstreamError(resp.StatusCode), "upstream_error")
		return
	}

	if h.deps.Quota != nil {
		if err := h.deps.Quota.Record(r.Context(), req.UserID, int64(req.ContentLength)); err != nil {
			slog.Warn("failed to record quota usage", "request_id", reqID, "error", err)
		}
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	out.status = http.StatusOK
	out.result = "streamed"

	slog.Info("stream started",
		"request_id", reqID,
		"user_id", req.UserID,
		"type", string(req.Type),
		"language", string(req.Language),
		"content_length", req.ContentLength,
	)

	n, err := Pipe(r.Context(), w, resp.Body)
	h.deps.Metrics.RecordStreamBytes(n)
	switch {
	case err == nil:
		slog.Info("stream finished", "request_id", reqID, "bytes", n)
	case r.Context().Err() != nil:
		out.result = "cancelled"
		slog.Info("client disconnected mid-stream", "request_id", reqID, "bytes", n)
	default:
		out.result = "stream_error"
		slog.Warn("stream ended early", "request_id", reqID, "bytes", n, "error", err)
	}
}

func (h *Handler) readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	defer r.Body.Close()
	body := r.Body
	if limit := h.deps.MaxBodyBytes(); limit > 0 {
		body = http.MaxBytesReader(w, r.Body, limit)
	}
	return io.ReadAll(body)
}

func (h *Handler) finish(out *outcome, receivedAt time.Time) {
	duration := time.Since(receivedAt)
	if out.status == 0 {
		// A panic unwound past every return; Recover writes the 500.
		out.status = http.StatusInternalServerError
		out.result = "panic"
	}

	h.deps.Metrics.RecordRequest(telemetry.RequestLabels{
		Type:         string(out.req.Type),
		Status:       strconv.Itoa(out.status),
		DurationMs:   float64(duration.Milliseconds()),
		ContentChars: out.req.ContentLength,
	})

	h.deps.Audit.Record(audit.Entry{
		RequestID:     out.req.RequestID,
		UserID:        out.req.UserID,
		Type:          string(out.req.Type),
		Language:      string(out.req.Language),
		ContentLength: out.req.ContentLength,
		Status:        out.status,
		Outcome:       out.result,
		FilterAction:  out.filterAction,
		DurationMs:    duration.Milliseconds(),
	})
}
