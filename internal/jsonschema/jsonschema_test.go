package jsonschema

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func TestGeneratePrimitives(t *testing.T) {
	tests := []struct {
		name     string
		schema   func() (*Schema, error)
		expected string
	}{
		{"string", Generate[string], "string"},
		{"int", Generate[int], "integer"},
		{"uint8", Generate[uint8], "integer"},
		{"float32", Generate[float32], "number"},
		{"float64", Generate[float64], "number"},
		{"bool", Generate[bool], "boolean"},
		{"pointer", Generate[*float64], "number"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			schema, err := tc.schema()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if schema.Type != tc.expected {
				t.Errorf("expected type %q, got %q", tc.expected, schema.Type)
			}
		})
	}
}

func TestGenerateSliceAndMap(t *testing.T) {
	slice, err := Generate[[]float64]()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if slice.Type != "array" || slice.Items == nil || slice.Items.Type != "number" {
		t.Errorf("unexpected slice schema: %s", slice)
	}

	m, err := Generate[map[string]int]()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	values, ok := m.AdditionalProperties.(*Schema)
	if m.Type != "object" || !ok || values.Type != "integer" {
		t.Errorf("unexpected map schema: %s", m)
	}
}

type calculatorArgs struct {
	Operation string  `json:"operation" jsonschema:"description=Operation to apply,enum=add,enum=subtract,required"`
	A         float64 `json:"a" jsonschema:"description=First operand"`
	B         float64 `json:"b,omitempty"`
	Precision *int    `json:"precision"`
	Level     int     `json:"level,omitempty" jsonschema:"enum=1,enum=2"`
	Ignored   string  `json:"-"`
	hidden    string
}

// TestGenerateStruct checks property naming, tag handling and required
// inference on a tool-like input struct.
func TestGenerateStruct(t *testing.T) {
	schema, err := Generate[calculatorArgs]()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if schema.Type != "object" {
		t.Fatalf("expected object, got %q", schema.Type)
	}
	if len(schema.Properties) != 5 {
		t.Errorf("expected 5 properties, got %d: %s", len(schema.Properties), schema)
	}

	op := schema.Properties["operation"]
	if op == nil {
		t.Fatal("missing operation property")
	}
	if op.Description != "Operation to apply" {
		t.Errorf("unexpected description %q", op.Description)
	}
	if !reflect.DeepEqual(op.Enum, []any{"add", "subtract"}) {
		t.Errorf("unexpected enum %v", op.Enum)
	}

	level := schema.Properties["level"]
	if !reflect.DeepEqual(level.Enum, []any{int64(1), int64(2)}) {
		t.Errorf("unexpected integer enum %v", level.Enum)
	}

	expectedRequired := []string{"operation", "a"}
	if !reflect.DeepEqual(schema.Required, expectedRequired) {
		t.Errorf("expected required %v, got %v", expectedRequired, schema.Required)
	}
}

func TestGenerateRejectsBadEnum(t *testing.T) {
	type bad struct {
		Count int `json:"count" jsonschema:"enum=many"`
	}

	_, err := Generate[bad]()
	if err == nil {
		t.Fatal("expected error for non-numeric enum on int field")
	}
	if !strings.Contains(err.Error(), "count") {
		t.Errorf("expected error to name the field, got %v", err)
	}
}

type node struct {
	Children []node `json:"children"`
}

func TestGenerateRejectsRecursion(t *testing.T) {
	if _, err := Generate[node](); err == nil {
		t.Fatal("expected error for recursive type")
	}
}

func TestSchemaJSON(t *testing.T) {
	schema := MustGenerate[calculatorArgs]()

	raw, err := schema.JSON()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("schema is not valid JSON: %v", err)
	}
	if decoded["type"] != "object" {
		t.Errorf("expected type object, got %v", decoded["type"])
	}
	if schema.String() != string(raw) {
		t.Error("String() should match JSON()")
	}
}
