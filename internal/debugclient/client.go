// Package debugclient consumes the debug-analyze endpoint: it posts a request
// with the caller's session token and decodes the relayed event stream into
// growing analysis text.
package debugclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/af-corp/debug-relay/internal/types"
)

var (
	ErrRateLimited      = errors.New("rate limit exceeded")
	ErrCreditsExhausted = errors.New("credits exhausted")
)

// APIError is a non-2xx response other than 429 and 402.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("analysis failed (%d): %s", e.Status, e.Message)
}

// Progress is reported after every decoded fragment and once more when the
// stream ends with Streaming false.
type Progress struct {
	Text      string
	Delta     string
	Streaming bool
}

type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
}

// NewClient returns a client for the analysis endpoint URL. apiKey, when set,
// is sent as the apikey header some edge gateways require.
func NewClient(endpoint, apiKey string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{endpoint: endpoint, apiKey: apiKey, http: httpClient}
}

// Analyze posts req and streams the result. onProgress may be nil. The
// returned text is everything decoded, including when the stream is cut
// short by ctx.
func (c *Client) Analyze(ctx context.Context, token string, req types.AnalysisRequest, onProgress func(Progress)) (string, error) {
	if onProgress == nil {
		onProgress = func(Progress) {}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+token)
	if c.apiKey != "" {
		httpReq.Header.Set("apikey", c.apiKey)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", responseError(resp)
	}

	var acc Accumulator
	buf := make([]byte, 32*1024)
	for !acc.Done() {
		n, rerr := resp.Body.Read(buf)
		if n > 0 {
			if delta := acc.Feed(buf[:n]); delta != "" {
				onProgress(Progress{Text: acc.Result(), Delta: delta, Streaming: true})
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			text := acc.Finish()
			onProgress(Progress{Text: text})
			return text, fmt.Errorf("reading stream: %w", rerr)
		}
	}

	before := acc.Result()
	text := acc.Finish()
	onProgress(Progress{Text: text, Delta: strings.TrimPrefix(text, before)})
	slog.Debug("analysis stream complete", "chars", len(text), "done_marker", acc.Done())
	return text, nil
}

func responseError(resp *http.Response) error {
	switch resp.StatusCode {
	case http.StatusTooManyRequests:
		return ErrRateLimited
	case http.StatusPaymentRequired:
		return ErrCreditsExhausted
	}

	var errResp types.ErrorResponse
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err := json.Unmarshal(raw, &errResp); err != nil || errResp.Error == "" {
		errResp.Error = "Failed to analyze"
	}
	return &APIError{Status: resp.StatusCode, Message: errResp.Error}
}
