package batch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leofalp/batchcalc/providers/ai"
)

func TestClassify(t *testing.T) {
	t.Run("nil message", func(t *testing.T) {
		assert.Equal(t, DirectAnswer{}, Classify(nil))
	})

	t.Run("direct answer", func(t *testing.T) {
		got := Classify(&ai.ChatResponse{Content: "42"})
		assert.Equal(t, DirectAnswer{Text: "42"}, got)
	})

	t.Run("first tool call wins", func(t *testing.T) {
		got := Classify(&ai.ChatResponse{
			Content: "Let me calculate that.",
			ToolCalls: []ai.ToolCall{
				{ID: "toolu_1", Function: ai.ToolCallFunction{Name: "calculator", Arguments: `{"operation":"add","a":1,"b":2}`}},
				{ID: "toolu_2", Function: ai.ToolCallFunction{Name: "calculator", Arguments: `{"operation":"add","a":3,"b":4}`}},
			},
		})

		invocation, ok := got.(ToolInvocation)
		require.True(t, ok)
		assert.Equal(t, "toolu_1", invocation.CallID)
		assert.Equal(t, "calculator", invocation.ToolName)
		assert.Equal(t, "add", invocation.Arguments["operation"])
		assert.Equal(t, 1.0, invocation.Arguments["a"])
		assert.Equal(t, `calculator({"operation":"add","a":1,"b":2})`, invocation.String())
	})

	t.Run("unparsable arguments", func(t *testing.T) {
		got := Classify(&ai.ChatResponse{ToolCalls: []ai.ToolCall{{Function: ai.ToolCallFunction{Name: "calculator", Arguments: "not json"}}}})

		invocation, ok := got.(ToolInvocation)
		require.True(t, ok)
		assert.Nil(t, invocation.Arguments)
		assert.Equal(t, "not json", invocation.RawArguments)
	})
}

func TestStatus(t *testing.T) {
	assert.False(t, StatusPending.IsTerminal())
	assert.False(t, StatusInProgress.IsTerminal())
	assert.True(t, StatusCompleted.IsTerminal())
	assert.True(t, StatusFailed.IsTerminal())
	assert.Equal(t, "in_progress", StatusInProgress.String())
	assert.Equal(t, "unknown", Status(42).String())
}

func TestResolveError(t *testing.T) {
	err := &ResolveError{Missing: []string{"a", "b"}, Unexpected: []string{"z"}}

	assert.ErrorIs(t, err, ErrMissingResult)
	assert.Equal(t, "resolve: 2 request(s) without result: a, b; 1 result(s) for unknown ids: z", err.Error())
}
