package batch

import (
	"github.com/leofalp/batchcalc/providers/ai"
	"github.com/leofalp/batchcalc/providers/observability"
	"github.com/leofalp/batchcalc/providers/tool"
)

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithModel sets the model used for every request of a batch.
func WithModel(model string) Option {
	return func(o *Orchestrator) {
		if model != "" {
			o.model = model
		}
	}
}

// WithSystemPrompt replaces the default system prompt. An empty prompt sends
// no system prompt at all.
func WithSystemPrompt(prompt string) Option {
	return func(o *Orchestrator) {
		o.systemPrompt = prompt
	}
}

// WithMaxTokens sets max_tokens for every request. Non-positive values are
// ignored.
func WithMaxTokens(maxTokens int) Option {
	return func(o *Orchestrator) {
		if maxTokens > 0 {
			o.maxTokens = maxTokens
		}
	}
}

// WithTemperature sets the sampling temperature of every request. Values
// outside [0, 1] are ignored.
func WithTemperature(temperature float64) Option {
	return func(o *Orchestrator) {
		if temperature >= 0 && temperature <= 1 {
			o.temperature = &temperature
		}
	}
}

// WithToolChoice constrains how the model may use the offered tools, for
// example forcing the calculator:
//
//	batch.WithToolChoice(ai.ToolChoice{Mode: "tool", Name: calculator.Name})
func WithToolChoice(choice ai.ToolChoice) Option {
	return func(o *Orchestrator) {
		o.toolChoice = &choice
	}
}

// WithTools replaces the tool catalog offered to the model and used to
// resolve tool invocations. The catalog is copied.
func WithTools(catalog *tool.Catalog) Option {
	return func(o *Orchestrator) {
		if catalog != nil {
			o.tools = catalog.Clone()
		}
	}
}

// WithPollPolicy sets the poll policy. Zero fields take their defaults.
func WithPollPolicy(policy PollPolicy) Option {
	return func(o *Orchestrator) {
		policy.applyDefaults()
		o.policy = policy
	}
}

// WithObserver sets the observability provider for logs, spans and metrics.
func WithObserver(observer observability.Provider) Option {
	return func(o *Orchestrator) {
		if observer != nil {
			o.observer = observer
		}
	}
}

// WithConcurrency bounds how many items Resolve processes in parallel.
// Values below 1 are ignored.
func WithConcurrency(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.concurrency = n
		}
	}
}
