// Package anthropic implements [ai.BatchProvider] on Anthropic's Message
// Batches API.
//
// Each [ai.BatchRequest] is converted to a Messages API request (model,
// max_tokens, system prompt, messages and tools) and submitted as one item of
// a batch. Batch objects and the JSONL results stream are mapped back to the
// provider-agnostic [ai.Batch] and [ai.BatchItemResult] types; tool_use
// content blocks become [ai.ToolCall] values.
//
// The primary entry point is [New], which reads ANTHROPIC_API_KEY and
// ANTHROPIC_API_BASE_URL from the environment. Use [AnthropicProvider.WithAPIKey],
// [AnthropicProvider.WithBaseURL] or [AnthropicProvider.WithHttpClient] to
// configure it programmatically, and [AnthropicProvider.WithRateLimiter] to
// throttle outbound requests.
package anthropic
