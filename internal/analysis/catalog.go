// Package analysis turns a raw debug request body into a validated
// AnalysisRequest and the upstream chat request built from it.
package analysis

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"unicode/utf16"

	"github.com/af-corp/debug-relay/internal/httputil"
	"github.com/af-corp/debug-relay/internal/types"
)

// DefaultMaxContentLength is the content cap in UTF-16 code units.
const DefaultMaxContentLength = 50000

// Catalog holds the prompts and limits a handler validates against. It is
// built once at startup and never mutated, so it is safe to share.
type Catalog struct {
	model            string
	maxContentLength int
	prompts          map[types.AnalysisType]string
}

// NewCatalog returns a catalog for model. A non-positive maxContentLength
// falls back to DefaultMaxContentLength.
func NewCatalog(model string, maxContentLength int) *Catalog {
	if maxContentLength <= 0 {
		maxContentLength = DefaultMaxContentLength
	}
	return &Catalog{
		model:            model,
		maxContentLength: maxContentLength,
		prompts:          defaultPrompts(),
	}
}

func (c *Catalog) Model() string         { return c.model }
func (c *Catalog) MaxContentLength() int { return c.maxContentLength }

// SystemPrompt returns the instruction text for t.
func (c *Catalog) SystemPrompt(t types.AnalysisType) (string, bool) {
	p, ok := c.prompts[t]
	return p, ok
}

// ValidationError is a caller-facing rejection with its HTTP status.
type ValidationError struct {
	Status  int
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func badRequest(msg string) *ValidationError {
	return &ValidationError{Status: http.StatusBadRequest, Message: msg}
}

// Validate parses body and checks fields in a fixed order: JSON, type,
// content, content length, language. The first failure wins.
func (c *Catalog) Validate(body []byte) (*types.AnalysisRequest, *ValidationError) {
	var decoded any
	dec := json.NewDecoder(bytes.NewReader(body))
	if err := dec.Decode(&decoded); err != nil {
		return nil, badRequest(httputil.MsgInvalidJSON)
	}
	// Anything after the first value, including a stray } or ], is invalid.
	if err := dec.Decode(new(json.RawMessage)); err != io.EOF {
		return nil, badRequest(httputil.MsgInvalidJSON)
	}

	// A valid JSON document that is not an object has no fields, so it
	// fails on type.
	fields, _ := decoded.(map[string]any)

	typeStr, ok := fields["type"].(string)
	if !ok {
		return nil, badRequest(httputil.MsgInvalidType)
	}
	analysisType, ok := types.ParseAnalysisType(typeStr)
	if !ok {
		return nil, badRequest(httputil.MsgInvalidType)
	}

	content, ok := fields["content"].(string)
	if !ok || content == "" {
		return nil, badRequest(httputil.MsgInvalidContent)
	}

	length := ContentLength(content)
	if length > c.maxContentLength {
		return nil, &ValidationError{
			Status:  http.StatusRequestEntityTooLarge,
			Message: fmt.Sprintf("Content too large. Maximum %d characters allowed. Current: %d", c.maxContentLength, length),
		}
	}

	req := &types.AnalysisRequest{
		Type:          analysisType,
		Content:       content,
		ContentLength: length,
	}

	if raw, present := fields["language"]; present && raw != nil {
		langStr, ok := raw.(string)
		if !ok {
			return nil, badRequest(httputil.MsgInvalidLanguage)
		}
		lang, ok := types.ParseLanguage(langStr)
		if !ok {
			return nil, badRequest(httputil.MsgInvalidLanguage)
		}
		req.Language = lang
	}

	return req, nil
}

// ContentLength counts s in UTF-16 code units. Characters outside the Basic
// Multilingual Plane count as two.
func ContentLength(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}

// UserMessage embeds the content in a fenced block, prefixed with the
// language when one was given.
func UserMessage(req *types.AnalysisRequest) string {
	if req.Language != "" {
		return fmt.Sprintf("Language: %s\n\nCode/Content:\n```\n%s\n```", req.Language, req.Content)
	}
	return fmt.Sprintf("Content:\n```\n%s\n```", req.Content)
}

// BuildChatRequest returns the streaming system+user conversation for req.
func (c *Catalog) BuildChatRequest(req *types.AnalysisRequest) (*types.ChatRequest, error) {
	system, ok := c.SystemPrompt(req.Type)
	if !ok {
		return nil, fmt.Errorf("no system prompt for type %q", req.Type)
	}
	return &types.ChatRequest{
		Model: c.model,
		Messages: []types.Message{
			{Role: "system", Content: system},
			{Role: "user", Content: UserMessage(req)},
		},
		Stream: true,
	}, nil
}
