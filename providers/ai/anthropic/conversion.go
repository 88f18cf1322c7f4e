package anthropic

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/leofalp/batchcalc/providers/ai"
)

// defaultMaxTokens is used when the request has no GenerationConfig.MaxTokens;
// Anthropic requires max_tokens on every request.
const defaultMaxTokens = 4096

// requestToAnthropic converts an ai.ChatRequest into the Messages wire format.
func requestToAnthropic(request ai.ChatRequest) (anthropicRequest, error) {
	req := anthropicRequest{
		Model:     request.Model,
		Messages:  buildMessages(request.Messages),
		MaxTokens: defaultMaxTokens,
	}

	if request.SystemPrompt != "" {
		systemBytes, err := json.Marshal(request.SystemPrompt)
		if err != nil {
			return anthropicRequest{}, fmt.Errorf("failed to marshal system prompt: %w", err)
		}
		req.System = systemBytes
	}

	if cfg := request.GenerationConfig; cfg != nil {
		if cfg.MaxTokens > 0 {
			req.MaxTokens = cfg.MaxTokens
		}
		if cfg.Temperature != nil {
			temperature := *cfg.Temperature
			req.Temperature = &temperature
		}
	}

	if len(request.Tools) > 0 {
		tools, err := buildAnthropicTools(request.Tools)
		if err != nil {
			return anthropicRequest{}, err
		}
		req.Tools = tools
		req.ToolChoice = buildAnthropicToolChoice(request.ToolChoice)
	}

	return req, nil
}

// buildMessages converts ai.Message values into Anthropic user turns, one
// text block each. Roles other than user are not sent in a batch item.
func buildMessages(messages []ai.Message) []anthropicMessage {
	result := make([]anthropicMessage, 0, len(messages))
	for _, msg := range messages {
		if msg.Role != ai.RoleUser {
			continue
		}
		result = append(result, anthropicMessage{
			Role:    "user",
			Content: []anthropicContentBlock{{Type: "text", Text: msg.Content}},
		})
	}
	return result
}

// buildAnthropicTools converts tool descriptions into Anthropic tool
// definitions. Tools without parameters get an empty object schema since
// input_schema is mandatory.
func buildAnthropicTools(tools []ai.ToolDescription) ([]anthropicTool, error) {
	result := make([]anthropicTool, 0, len(tools))

	for _, tool := range tools {
		entry := anthropicTool{
			Name:        tool.Name,
			Description: tool.Description,
			InputSchema: json.RawMessage(`{"type":"object","properties":{}}`),
		}
		if tool.Parameters != nil {
			schema, err := tool.Parameters.JSON()
			if err != nil {
				return nil, fmt.Errorf("failed to encode schema of tool %q: %w", tool.Name, err)
			}
			entry.InputSchema = schema
		}
		result = append(result, entry)
	}

	return result, nil
}

// buildAnthropicToolChoice converts an ai.ToolChoice. A nil choice lets the
// API default to "auto".
func buildAnthropicToolChoice(tc *ai.ToolChoice) *anthropicToolChoice {
	if tc == nil {
		return nil
	}

	switch strings.ToLower(tc.Mode) {
	case "any", "required":
		return &anthropicToolChoice{Type: "any"}
	case "none":
		return &anthropicToolChoice{Type: "none"}
	case "tool":
		if tc.Name != "" {
			return &anthropicToolChoice{Type: "tool", Name: tc.Name}
		}
		return &anthropicToolChoice{Type: "any"}
	case "auto":
		return &anthropicToolChoice{Type: "auto"}
	default:
		return nil
	}
}

// anthropicToGeneric converts a Messages API response to ai.ChatResponse.
// Text blocks are joined with newlines; tool_use blocks become ToolCalls in
// the order they appear.
func anthropicToGeneric(response anthropicResponse) *ai.ChatResponse {
	result := &ai.ChatResponse{
		Id:    response.ID,
		Model: response.Model,
	}

	var textParts []string
	for _, block := range response.Content {
		switch block.Type {
		case "text":
			textParts = append(textParts, block.Text)
		case "tool_use":
			arguments := string(block.Input)
			if arguments == "" {
				arguments = "{}"
			}
			result.ToolCalls = append(result.ToolCalls, ai.ToolCall{
				ID:   block.ID,
				Type: "function",
				Function: ai.ToolCallFunction{
					Name:      block.Name,
					Arguments: arguments,
				},
			})
		}
	}

	result.Content = strings.Join(textParts, "\n")
	result.FinishReason = mapStopReason(response.StopReason)
	result.Usage = &ai.Usage{
		PromptTokens:     response.Usage.InputTokens,
		CompletionTokens: response.Usage.OutputTokens,
		TotalTokens:      response.Usage.InputTokens + response.Usage.OutputTokens,
		CachedTokens:     response.Usage.CacheCreationInputTokens + response.Usage.CacheReadInputTokens,
	}

	return result
}

// mapStopReason converts an Anthropic stop_reason to the canonical
// finish_reason used by ai.ChatResponse.
func mapStopReason(stopReason string) string {
	switch stopReason {
	case "tool_use":
		return "tool_calls"
	case "max_tokens":
		return "length"
	default:
		return "stop"
	}
}

// batchToGeneric converts the wire batch object to ai.Batch.
func batchToGeneric(batch messageBatch) *ai.Batch {
	return &ai.Batch{
		ID:               batch.ID,
		ProcessingStatus: ai.BatchProcessingStatus(batch.ProcessingStatus),
		RequestCounts: ai.BatchRequestCounts{
			Processing: batch.RequestCounts.Processing,
			Succeeded:  batch.RequestCounts.Succeeded,
			Errored:    batch.RequestCounts.Errored,
			Canceled:   batch.RequestCounts.Canceled,
			Expired:    batch.RequestCounts.Expired,
		},
		CreatedAt:  batch.CreatedAt,
		EndedAt:    batch.EndedAt,
		ExpiresAt:  batch.ExpiresAt,
		ResultsURL: batch.ResultsURL,
	}
}

// resultLineToGeneric converts one decoded results line to ai.BatchItemResult.
// A succeeded line without a message is reported as errored.
func resultLineToGeneric(line batchResultLine) ai.BatchItemResult {
	item := ai.BatchItemResult{
		CustomID: line.CustomID,
		Type:     ai.BatchItemResultType(line.Result.Type),
	}

	switch item.Type {
	case ai.BatchItemSucceeded:
		if line.Result.Message == nil {
			item.Type = ai.BatchItemErrored
			item.Error = &ai.BatchItemError{Type: "invalid_result", Message: "succeeded result carries no message"}
			return item
		}
		item.Message = anthropicToGeneric(*line.Result.Message)

	case ai.BatchItemErrored:
		item.Error = itemError(line.Result.Error)

	case ai.BatchItemCanceled, ai.BatchItemExpired:
		item.Error = &ai.BatchItemError{
			Type:    string(item.Type),
			Message: fmt.Sprintf("request %s before processing", item.Type),
		}

	default:
		item.Error = &ai.BatchItemError{
			Type:    "unknown_result_type",
			Message: fmt.Sprintf("unknown result type %q", line.Result.Type),
		}
		item.Type = ai.BatchItemErrored
	}

	return item
}

func itemError(resp *errorResponse) *ai.BatchItemError {
	if resp == nil {
		return &ai.BatchItemError{Type: "unknown_error", Message: "errored result carries no error detail"}
	}
	if resp.Error != nil {
		return &ai.BatchItemError{Type: resp.Error.Type, Message: resp.Error.Message}
	}
	return &ai.BatchItemError{Type: resp.Type, Message: resp.Message}
}
