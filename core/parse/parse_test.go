package parse

import (
	"reflect"
	"testing"
)

func TestParseStringAs_Primitives(t *testing.T) {
	if got, err := ParseStringAs[string]("plain text"); err != nil || got != "plain text" {
		t.Errorf("string: got %q, %v", got, err)
	}
	if got, err := ParseStringAs[bool](" true\n"); err != nil || !got {
		t.Errorf("bool: got %v, %v", got, err)
	}
	if got, err := ParseStringAs[int]("42"); err != nil || got != 42 {
		t.Errorf("int: got %v, %v", got, err)
	}
	if got, err := ParseStringAs[uint8]("255"); err != nil || got != 255 {
		t.Errorf("uint8: got %v, %v", got, err)
	}
	if got, err := ParseStringAs[float64]("-3.25"); err != nil || got != -3.25 {
		t.Errorf("float64: got %v, %v", got, err)
	}
}

func TestParseStringAs_PrimitiveErrors(t *testing.T) {
	if _, err := ParseStringAs[int]("forty-two"); err == nil {
		t.Error("expected error for non-numeric int")
	}
	if _, err := ParseStringAs[uint8]("256"); err == nil {
		t.Error("expected overflow error for uint8")
	}
	if _, err := ParseStringAs[bool]("maybe"); err == nil {
		t.Error("expected error for invalid bool")
	}
}

func TestParseStringAs_SchemaWrappedPrimitives(t *testing.T) {
	if got, err := ParseStringAs[float64](`{"type":"number","value":3.5}`); err != nil || got != 3.5 {
		t.Errorf("float64: got %v, %v", got, err)
	}
	if got, err := ParseStringAs[int](`{"type":"integer","value":30}`); err != nil || got != 30 {
		t.Errorf("int: got %v, %v", got, err)
	}
	if got, err := ParseStringAs[string](`{"type":"string","value":"add"}`); err != nil || got != "add" {
		t.Errorf("string: got %q, %v", got, err)
	}
	// Only exact envelopes are unwrapped.
	content := `{"type":"string","value":"add","extra":1}`
	if got, _ := ParseStringAs[string](content); got != content {
		t.Errorf("expected content unchanged, got %q", got)
	}
}

type calcArgs struct {
	Operation string   `json:"operation"`
	A         *float64 `json:"a"`
	B         *float64 `json:"b"`
}

func ptr(f float64) *float64 { return &f }

func TestParseStringAs_Struct(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		expected calcArgs
	}{
		{
			name:     "valid JSON",
			content:  `{"operation":"add","a":2,"b":3}`,
			expected: calcArgs{Operation: "add", A: ptr(2), B: ptr(3)},
		},
		{
			name:     "trailing comma",
			content:  `{"operation":"divide","a":100,"b":4,}`,
			expected: calcArgs{Operation: "divide", A: ptr(100), B: ptr(4)},
		},
		{
			name:     "single quotes",
			content:  `{'operation':'multiply','a':13,'b':7}`,
			expected: calcArgs{Operation: "multiply", A: ptr(13), B: ptr(7)},
		},
		{
			name:     "truncated object",
			content:  `{"operation":"subtract","a":10,"b":4`,
			expected: calcArgs{Operation: "subtract", A: ptr(10), B: ptr(4)},
		},
		{
			name:     "schema wrapped operands",
			content:  `{"operation":"add","a":{"type":"number","value":2},"b":{"type":"number","value":3}}`,
			expected: calcArgs{Operation: "add", A: ptr(2), B: ptr(3)},
		},
		{
			name:     "missing operand",
			content:  `{"operation":"add","a":2}`,
			expected: calcArgs{Operation: "add", A: ptr(2)},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseStringAs[calcArgs](tc.content)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tc.expected) {
				t.Errorf("expected %+v, got %+v", tc.expected, got)
			}
		})
	}
}

func TestParseStringAs_StructTypeMismatch(t *testing.T) {
	_, err := ParseStringAs[calcArgs](`{"operation":"add","a":"two","b":3}`)
	if err == nil {
		t.Fatal("expected error when an operand is a non-numeric string")
	}
}

func TestParseStringAs_Map(t *testing.T) {
	got, err := ParseStringAs[map[string]any](`{"a": 1, "b": "x"}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := map[string]any{"a": float64(1), "b": "x"}
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("expected %v, got %v", expected, got)
	}
}

func TestFirstNumber(t *testing.T) {
	tests := []struct {
		text     string
		expected float64
		found    bool
	}{
		{"The answer is 42.", 42, true},
		{"25 + 17 = 42", 25, true},
		{"It is -3 degrees", -3, true},
		{"Result: +7", 7, true},
		{"about 3.75 units", 3.75, true},
		{"1,024 bytes", 1024, true},
		{"1,234,567.5 total", 1234567.5, true},
		{"1,2", 1, true},
		{"2.5e3 meters", 2500, true},
		{"5-3", 5, true},
		{"x-3", 3, true},
		{"no digits here", 0, false},
		{"", 0, false},
		{"1e999 then 8", 0, false},
		{"1.5e400 or 2", 0, false},
		{".5", 0.5, true},
		{"roughly -.25 left", -0.25, true},
		{"version 2.0.1", 2, true},
	}

	for _, tc := range tests {
		got, found := FirstNumber(tc.text)
		if found != tc.found || got != tc.expected {
			t.Errorf("FirstNumber(%q) = (%v, %v), want (%v, %v)", tc.text, got, found, tc.expected, tc.found)
		}
	}
}
