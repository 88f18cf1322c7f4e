package batch

import (
	"fmt"

	"github.com/leofalp/batchcalc/core/parse"
	"github.com/leofalp/batchcalc/providers/ai"
)

// Response is the shape of a model answer: either a [DirectAnswer] or a
// [ToolInvocation]. Callers match it with a type switch.
type Response interface {
	isResponse()
}

// DirectAnswer is a plain text reply.
type DirectAnswer struct {
	Text string
}

// ToolInvocation is a request from the model to run a tool. Arguments is the
// decoded view of RawArguments and is nil when they are not a JSON object.
type ToolInvocation struct {
	CallID       string
	ToolName     string
	Arguments    map[string]any
	RawArguments string
}

func (DirectAnswer) isResponse()   {}
func (ToolInvocation) isResponse() {}

// Classify maps a chat response onto a Response. A reply carrying tool calls
// is a ToolInvocation of the first call; any other reply is a DirectAnswer.
func Classify(message *ai.ChatResponse) Response {
	if message == nil {
		return DirectAnswer{}
	}
	if len(message.ToolCalls) == 0 {
		return DirectAnswer{Text: message.Content}
	}

	call := message.ToolCalls[0]
	invocation := ToolInvocation{
		CallID:       call.ID,
		ToolName:     call.Function.Name,
		RawArguments: call.Function.Arguments,
	}
	if arguments, err := parse.ParseStringAs[map[string]any](call.Function.Arguments); err == nil {
		invocation.Arguments = arguments
	}
	return invocation
}

func (t ToolInvocation) String() string {
	return fmt.Sprintf("%s(%s)", t.ToolName, t.RawArguments)
}
