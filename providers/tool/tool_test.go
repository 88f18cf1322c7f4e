package tool

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/leofalp/batchcalc/providers/observability"
)

// testSpan records event names and attributes for assertions.
type testSpan struct {
	events     []string
	attributes []observability.Attribute
	errors     []error
}

func (s *testSpan) End() {}

func (s *testSpan) SetAttributes(attrs ...observability.Attribute) {
	s.attributes = append(s.attributes, attrs...)
}

func (s *testSpan) SetStatus(code observability.StatusCode, description string) {}

func (s *testSpan) RecordError(err error) {
	s.errors = append(s.errors, err)
}

func (s *testSpan) AddEvent(name string, attrs ...observability.Attribute) {
	s.events = append(s.events, name)
}

func (s *testSpan) attribute(key string) (any, bool) {
	for _, attr := range s.attributes {
		if attr.Key == key {
			return attr.Value, true
		}
	}
	return nil, false
}

type doubleInput struct {
	Value int `json:"value" jsonschema:"description=Number to double"`
}

type doubleOutput struct {
	Result int `json:"result"`
}

func double(ctx context.Context, input doubleInput) (doubleOutput, error) {
	return doubleOutput{Result: input.Value * 2}, nil
}

func TestNewTool_Info(t *testing.T) {
	tool := NewTool("double", double, WithDescription("Doubles a number"))

	info := tool.ToolInfo()
	if info.Name != "double" {
		t.Errorf("expected name 'double', got %q", info.Name)
	}
	if info.Description != "Doubles a number" {
		t.Errorf("unexpected description %q", info.Description)
	}
	if info.Parameters == nil || info.Parameters.Properties["value"] == nil {
		t.Fatalf("expected parameter schema with 'value', got %v", info.Parameters)
	}
	if tool.Output == nil || tool.Output.Properties["result"] == nil {
		t.Errorf("expected output schema with 'result', got %v", tool.Output)
	}
}

func TestNewTool_DefaultNoDescription(t *testing.T) {
	tool := NewTool("double", double)
	if tool.ToolInfo().Description != "" {
		t.Errorf("expected empty description, got %q", tool.ToolInfo().Description)
	}
}

func TestCall_Success(t *testing.T) {
	tool := NewTool("double", double)

	out, err := tool.Call(context.Background(), `{"value": 21}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var decoded doubleOutput
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if decoded.Result != 42 {
		t.Errorf("expected 42, got %d", decoded.Result)
	}
}

func TestCall_LenientInput(t *testing.T) {
	tool := NewTool("double", double)

	out, err := tool.Call(context.Background(), `{value: 4,}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != `{"result":8}` {
		t.Errorf("unexpected output %s", out)
	}
}

func TestCall_InputParseError(t *testing.T) {
	tool := NewTool("double", double)

	_, err := tool.Call(context.Background(), `{"value": "many"}`)
	if !errors.Is(err, ErrInvalidArguments) {
		t.Fatalf("expected ErrInvalidArguments, got %v", err)
	}
	if !strings.Contains(err.Error(), "double") {
		t.Errorf("expected error to name the tool, got %v", err)
	}
}

func TestCall_HandlerError(t *testing.T) {
	errBoom := errors.New("boom")
	tool := NewTool("fail", func(ctx context.Context, input doubleInput) (doubleOutput, error) {
		return doubleOutput{}, errBoom
	})

	_, err := tool.Call(context.Background(), `{"value": 1}`)
	if !errors.Is(err, errBoom) {
		t.Fatalf("expected handler error, got %v", err)
	}
	if errors.Is(err, ErrInvalidArguments) {
		t.Error("handler errors must not be reported as invalid arguments")
	}
}

func TestCall_WithSpan(t *testing.T) {
	span := &testSpan{}
	ctx := observability.ContextWithSpan(context.Background(), span)
	tool := NewTool("double", double)

	if _, err := tool.Call(ctx, `{"value": 2}`); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(span.events) != 2 ||
		span.events[0] != observability.EventToolExecutionStart ||
		span.events[1] != observability.EventToolExecutionEnd {
		t.Errorf("unexpected events %v", span.events)
	}
	if output, ok := span.attribute(observability.AttrToolOutput); !ok || output != `{"result":4}` {
		t.Errorf("expected tool output attribute, got %v", output)
	}
	if _, ok := span.attribute(observability.AttrToolDuration); !ok {
		t.Error("expected tool duration attribute")
	}
}

func TestCall_WithSpan_Error(t *testing.T) {
	span := &testSpan{}
	ctx := observability.ContextWithSpan(context.Background(), span)
	tool := NewTool("double", double)

	if _, err := tool.Call(ctx, `not json at all [`); err == nil {
		t.Fatal("expected error")
	}
	if len(span.errors) != 1 {
		t.Errorf("expected one recorded error, got %d", len(span.errors))
	}
	if _, ok := span.attribute(observability.AttrToolError); !ok {
		t.Error("expected tool error attribute")
	}
}
