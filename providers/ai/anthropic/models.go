package anthropic

import (
	"encoding/json"
	"time"
)

/*
	ANTHROPIC MESSAGES API - REQUEST TYPES
*/

// anthropicRequest represents the request body for Anthropic's Messages API.
// Inside a batch it is sent as the params of each item.
type anthropicRequest struct {
	Model       string               `json:"model"`
	Messages    []anthropicMessage   `json:"messages"`
	System      json.RawMessage      `json:"system,omitempty"` // Plain JSON string
	MaxTokens   int                  `json:"max_tokens"`       // Required by Anthropic on every request
	Temperature *float64             `json:"temperature,omitempty"`
	Tools       []anthropicTool      `json:"tools,omitempty"`
	ToolChoice  *anthropicToolChoice `json:"tool_choice,omitempty"`
}

// anthropicMessage represents a single message in the conversation.
type anthropicMessage struct {
	Role    string                  `json:"role"`    // "user" or "assistant"
	Content []anthropicContentBlock `json:"content"` // Array of content blocks
}

// anthropicContentBlock is an outgoing text block.
type anthropicContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// anthropicTool describes a tool available to the model.
type anthropicTool struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	InputSchema json.RawMessage `json:"input_schema"`
}

// anthropicToolChoice controls which tool the model should use.
type anthropicToolChoice struct {
	Type string `json:"type"`           // "auto", "any", "tool", "none"
	Name string `json:"name,omitempty"` // Only for type="tool"
}

/*
	ANTHROPIC MESSAGES API - RESPONSE TYPES
*/

// anthropicResponse represents a Messages API response. In batch results it is
// the message of a succeeded item.
type anthropicResponse struct {
	ID         string                 `json:"id"`
	Type       string                 `json:"type"` // "message"
	Role       string                 `json:"role"` // "assistant"
	Content    []responseContentBlock `json:"content"`
	Model      string                 `json:"model"`
	StopReason string                 `json:"stop_reason"`
	Usage      anthropicUsage         `json:"usage"`
}

// responseContentBlock is a content block in a response. Types other than
// "text" and "tool_use" are ignored during conversion.
type responseContentBlock struct {
	Type  string          `json:"type"`
	Text  string          `json:"text,omitempty"`
	ID    string          `json:"id,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`
}

// anthropicUsage reports token consumption for a single request.
type anthropicUsage struct {
	InputTokens              int `json:"input_tokens"`
	OutputTokens             int `json:"output_tokens"`
	CacheCreationInputTokens int `json:"cache_creation_input_tokens,omitempty"`
	CacheReadInputTokens     int `json:"cache_read_input_tokens,omitempty"`
}

/*
	ANTHROPIC MESSAGE BATCHES API
*/

// batchCreateRequest is the body of POST /messages/batches.
type batchCreateRequest struct {
	Requests []batchRequestItem `json:"requests"`
}

type batchRequestItem struct {
	CustomID string           `json:"custom_id"`
	Params   anthropicRequest `json:"params"`
}

// messageBatch is the batch object returned by create, retrieve and cancel.
type messageBatch struct {
	ID                string             `json:"id"`
	Type              string             `json:"type"` // "message_batch"
	ProcessingStatus  string             `json:"processing_status"`
	RequestCounts     batchRequestCounts `json:"request_counts"`
	CreatedAt         time.Time          `json:"created_at"`
	EndedAt           *time.Time         `json:"ended_at"`
	ExpiresAt         *time.Time         `json:"expires_at"`
	CancelInitiatedAt *time.Time         `json:"cancel_initiated_at"`
	ResultsURL        string             `json:"results_url"`
}

type batchRequestCounts struct {
	Processing int `json:"processing"`
	Succeeded  int `json:"succeeded"`
	Errored    int `json:"errored"`
	Canceled   int `json:"canceled"`
	Expired    int `json:"expired"`
}

// batchResultLine is one line of the results JSONL stream.
type batchResultLine struct {
	CustomID string      `json:"custom_id"`
	Result   batchResult `json:"result"`
}

type batchResult struct {
	Type    string             `json:"type"` // "succeeded", "errored", "canceled", "expired"
	Message *anthropicResponse `json:"message,omitempty"`
	Error   *errorResponse     `json:"error,omitempty"`
}

// errorResponse is Anthropic's error envelope:
//
//	{"type": "error", "error": {"type": "invalid_request_error", "message": "..."}}
//
// Some payloads carry the inner object directly, so Type and Message are also
// read at the top level.
type errorResponse struct {
	Type    string       `json:"type"`
	Message string       `json:"message,omitempty"`
	Error   *errorDetail `json:"error,omitempty"`
}

type errorDetail struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
