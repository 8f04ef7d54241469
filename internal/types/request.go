package types

// AnalysisRequest is a validated debug request. Identity fields are set by the
// handler from the authenticated principal and never read from the body.
type AnalysisRequest struct {
	Type     AnalysisType `json:"type"`
	Content  string       `json:"content"`
	Language Language     `json:"language,omitempty"`

	// Identity (set by the handler)
	RequestID string `json:"-"`
	UserID    string `json:"-"`
	Role      string `json:"-"`

	// ContentLength is measured in UTF-16 code units, the unit browsers use for
	// string length, so limits match what the client counts.
	ContentLength int `json:"-"`
}

// ChatRequest is the OpenAI-compatible body sent to the upstream gateway.
type ChatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream"`
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
