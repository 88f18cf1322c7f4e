package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/leofalp/batchcalc/core/parse"
	"github.com/leofalp/batchcalc/internal/jsonschema"
	"github.com/leofalp/batchcalc/providers/ai"
	"github.com/leofalp/batchcalc/providers/observability"
)

var (
	// ErrInvalidArguments is returned by Call when the arguments cannot be
	// decoded into the tool's input type, or when the tool rejects them.
	ErrInvalidArguments = errors.New("invalid tool arguments")

	// ErrUnknownTool is returned by Catalog.Call for names it does not hold.
	ErrUnknownTool = errors.New("unknown tool")
)

// Tool represents a typed, callable tool that can be offered to a model.
// It binds a name and description to a strongly-typed Go function and derives
// JSON schemas for both input (I) and output (O) via reflection.
// Use [NewTool] to construct a Tool.
type Tool[I, O any] struct {
	Name        string
	Description string
	Parameters  *jsonschema.Schema
	Output      *jsonschema.Schema
	Function    func(ctx context.Context, input I) (O, error)
}

// GenericTool is the type-erased view of a [Tool], so tools with different
// input and output types can share a [Catalog].
type GenericTool interface {
	// ToolInfo returns the metadata used to advertise the tool to a model.
	ToolInfo() ai.ToolDescription

	// Call invokes the tool with JSON-encoded arguments and returns the
	// JSON-encoded output.
	Call(ctx context.Context, inputJson string) (string, error)
}

type funcToolOptions struct {
	Description string
}

// WithDescription sets a human-readable description for the tool. The model
// reads it to decide when and how to invoke the tool.
func WithDescription(description string) func(tool *funcToolOptions) {
	return func(s *funcToolOptions) {
		s.Description = description
	}
}

// NewTool constructs a new [Tool] with the given name and handler function.
// It panics when I or O cannot be described by a JSON schema, which only
// happens for programming errors such as recursive types.
//
//	calc := tool.NewTool("calculator", calculate,
//	    tool.WithDescription("Performs basic arithmetic."),
//	)
func NewTool[I, O any](name string, function func(ctx context.Context, input I) (O, error), options ...func(tool *funcToolOptions)) *Tool[I, O] {
	toolOptions := &funcToolOptions{}
	for _, option := range options {
		option(toolOptions)
	}

	return &Tool[I, O]{
		Name:        name,
		Description: toolOptions.Description,
		Parameters:  jsonschema.MustGenerate[I](),
		Output:      jsonschema.MustGenerate[O](),
		Function:    function,
	}
}

// ToolInfo returns the [ai.ToolDescription] advertised to the model.
func (t *Tool[I, O]) ToolInfo() ai.ToolDescription {
	return ai.ToolDescription{
		Name:        t.Name,
		Description: t.Description,
		Parameters:  t.Parameters,
	}
}

// Call decodes inputJson leniently into I, runs the function and returns the
// result encoded as JSON. Decoding failures wrap [ErrInvalidArguments];
// errors from the function are returned unchanged. When ctx carries a span,
// start and end events are recorded on it.
func (t *Tool[I, O]) Call(ctx context.Context, inputJson string) (string, error) {
	span := observability.SpanFromContext(ctx)

	if span != nil {
		span.AddEvent(observability.EventToolExecutionStart,
			observability.String(observability.AttrToolName, t.Name),
			observability.String(observability.AttrToolInput, inputJson),
		)
		defer span.AddEvent(observability.EventToolExecutionEnd,
			observability.String(observability.AttrToolName, t.Name),
		)
	}

	start := time.Now()

	parsedInput, err := parse.ParseStringAs[I](inputJson)
	if err != nil {
		err = fmt.Errorf("%w: %s: %v", ErrInvalidArguments, t.Name, err)
		if span != nil {
			span.RecordError(err)
			span.SetAttributes(observability.String(observability.AttrToolError, err.Error()))
		}
		return "", err
	}

	output, err := t.Function(ctx, parsedInput)
	duration := time.Since(start)

	if err != nil {
		if span != nil {
			span.RecordError(err)
			span.SetAttributes(
				observability.String(observability.AttrToolError, err.Error()),
				observability.Duration(observability.AttrToolDuration, duration),
			)
		}
		return "", err
	}

	outputBytes, err := json.Marshal(output)
	if err != nil {
		if span != nil {
			span.RecordError(err)
		}
		return "", fmt.Errorf("failed to encode %s output: %w", t.Name, err)
	}

	if span != nil {
		span.SetAttributes(
			observability.String(observability.AttrToolOutput, string(outputBytes)),
			observability.Duration(observability.AttrToolDuration, duration),
		)
	}

	return string(outputBytes), nil
}
