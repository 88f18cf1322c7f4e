package ai

import (
	"github.com/leofalp/batchcalc/internal/jsonschema"
)

/*
	##### PROVIDER INPUT #####
*/

// ChatRequest represents a single chat completion request. Inside a batch each
// item carries one of these as its params.
type ChatRequest struct {
	Model            string            `json:"model,omitempty"`             // Model name or identifier
	Messages         []Message         `json:"messages"`                    // Conversation turns, system prompt excluded
	SystemPrompt     string            `json:"system_prompt,omitempty"`     // Optional system prompt
	Tools            []ToolDescription `json:"tools,omitempty"`             // Tool definitions offered to the model
	GenerationConfig *GenerationConfig `json:"generation_config,omitempty"` // Optional generation configuration
	ToolChoice       *ToolChoice       `json:"tool_choice,omitempty"`       // Optional tool choice override
}

// ToolDescription advertises a tool to the model.
type ToolDescription struct {
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	Parameters  *jsonschema.Schema `json:"parameters,omitempty"`
}

// ToolChoice constrains how the model may use the offered tools.
// Mode is one of "auto", "any", "tool" or "none"; Name is only read for "tool".
type ToolChoice struct {
	Mode string `json:"mode"`
	Name string `json:"name,omitempty"`
}

// Message is one turn of a request. Batch items are single-turn, so only
// user messages are sent.
type Message struct {
	Role    MessageRole `json:"role"`
	Content string      `json:"content,omitempty"`
}

type GenerationConfig struct {
	MaxTokens   int      `json:"max_tokens,omitempty"`  // Optional max tokens for the response
	Temperature *float64 `json:"temperature,omitempty"` // Sampling temperature [0..1]; nil keeps the API default
}

/*
	##### PROVIDER OUTPUT #####
*/

type Usage struct {
	PromptTokens     int `json:"prompt_tokens,omitempty"`
	CompletionTokens int `json:"completion_tokens,omitempty"`
	TotalTokens      int `json:"total_tokens,omitempty"`
	CachedTokens     int `json:"cached_tokens,omitempty"`
}

// ChatResponse represents the response from a chat completion
type ChatResponse struct {
	Id           string     `json:"id"`
	Model        string     `json:"model"`
	Content      string     `json:"content"`
	ToolCalls    []ToolCall `json:"tool_calls,omitempty"`
	FinishReason string     `json:"finish_reason,omitempty"`
	Usage        *Usage     `json:"usage,omitempty"`
}

/*
	##### ENUMS #####
*/

// ToolCall represents a function/tool call request from the LLM
type ToolCall struct {
	ID       string           `json:"id,omitempty"` // Unique identifier for this tool call
	Type     string           `json:"type"`         // "function"
	Function ToolCallFunction `json:"function"`
}

type ToolCallFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"` // JSON string
}

// MessageRole represents the role of a message; compatible with string
type MessageRole string

const (
	RoleUser MessageRole = "user" // End-user message
)
