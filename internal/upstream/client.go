// Package upstream talks to the OpenAI-compatible chat-completions gateway.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/af-corp/debug-relay/internal/config"
	"github.com/af-corp/debug-relay/internal/types"
)

var (
	// ErrNotConfigured means no gateway credential is set. No call is made.
	ErrNotConfigured = errors.New("upstream credential not configured")
	// ErrCircuitOpen means recent upstream failures tripped the breaker.
	ErrCircuitOpen = errors.New("upstream circuit open")
)

// Client opens streaming chat completions. Config is read per call so key
// rotation through a config reload takes effect without a restart.
type Client struct {
	cfg     func() config.UpstreamConfig
	client  *http.Client
	breaker *CircuitBreaker
}

// NewClient builds a client. If httpClient is nil one is created from the
// current config with NewHTTPClient.
func NewClient(cfg func() config.UpstreamConfig, httpClient *http.Client) *Client {
	current := cfg()
	if httpClient == nil {
		httpClient = NewHTTPClient(current)
	}
	return &Client{
		cfg:    cfg,
		client: httpClient,
		breaker: NewCircuitBreaker(
			current.CircuitBreaker.FailureThreshold,
			current.CircuitBreaker.RecoveryProbeInterval,
		),
	}
}

// NewHTTPClient returns a client without an overall timeout, since a stream
// may legitimately run for minutes.
func NewHTTPClient(cfg config.UpstreamConfig) *http.Client {
	dialTimeout := cfg.DialTimeout
	if dialTimeout == 0 {
		dialTimeout = 10 * time.Second
	}
	return &http.Client{
		Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			DialContext:           (&net.Dialer{Timeout: dialTimeout, KeepAlive: 30 * time.Second}).DialContext,
			MaxIdleConns:          cfg.MaxConcurrent,
			MaxIdleConnsPerHost:   cfg.MaxConcurrent,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   dialTimeout,
			ResponseHeaderTimeout: cfg.ResponseHeaderTimeout,
			ForceAttemptHTTP2:     true,
		},
	}
}

// Configured reports whether a credential is set.
func (c *Client) Configured() bool {
	return c.cfg().APIKey != ""
}

// Breaker exposes the circuit breaker for health reporting.
func (c *Client) Breaker() *CircuitBreaker { return c.breaker }

// Ready is a readiness check: it fails while unconfigured or while the
// breaker is open. It makes no network call.
func (c *Client) Ready(_ context.Context) error {
	if !c.Configured() {
		return ErrNotConfigured
	}
	if st := c.breaker.State(); st == StateOpen {
		return fmt.Errorf("circuit %s", st)
	}
	return nil
}

// Stream posts chat with stream forced on and returns the raw response. Any
// status is returned to the caller for mapping; the caller owns resp.Body.
// Only transport errors and 5xx responses count against the breaker.
func (c *Client) Stream(ctx context.Context, chat *types.ChatRequest) (*http.Response, error) {
	cfg := c.cfg()
	if cfg.APIKey == "" {
		return nil, ErrNotConfigured
	}
	if !c.breaker.Allow() {
		return nil, ErrCircuitOpen
	}

	body := *chat
	body.Stream = true
	data, err := json.Marshal(body)
	if err != nil {
		c.breaker.Abandon()
		return nil, fmt.Errorf("marshal chat request: %w", err)
	}

	url := strings.TrimRight(cfg.BaseURL, "/") + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		c.breaker.Abandon()
		return nil, fmt.Errorf("create upstream request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	for k, v := range cfg.Headers {
		if v != "" {
			httpReq.Header.Set(k, v)
		}
	}
	httpReq.Header.Set("Authorization", "Bearer "+cfg.APIKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			c.breaker.Abandon()
		} else {
			c.breaker.RecordFailure()
		}
		return nil, fmt.Errorf("upstream request: %w", err)
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		c.breaker.RecordFailure()
	} else {
		c.breaker.RecordSuccess()
	}
	return resp, nil
}
