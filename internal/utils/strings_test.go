package utils

import (
	"strings"
	"testing"
)

// TestTruncateString covers short input, exact length, long input and the
// fallback to DefaultMaxStringLength.
func TestTruncateString(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		maxLen int
		want   string
	}{
		{"shorter than limit", "hello", 10, "hello"},
		{"exact limit", "hello", 5, "hello"},
		{"longer than limit", "hello world", 5, "hello... (truncated, total: 11 chars)"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := TruncateString(tc.input, tc.maxLen); got != tc.want {
				t.Errorf("TruncateString(%q, %d) = %q, want %q", tc.input, tc.maxLen, got, tc.want)
			}
		})
	}
}

func TestTruncateString_DefaultLimit(t *testing.T) {
	long := strings.Repeat("x", DefaultMaxStringLength+10)

	got := TruncateString(long, 0)
	if !strings.HasPrefix(got, strings.Repeat("x", DefaultMaxStringLength)+"...") {
		t.Errorf("expected truncation at default length, got %d chars", len(got))
	}
	if !strings.Contains(got, "total: 510 chars") {
		t.Errorf("expected original length in suffix, got %q", got[len(got)-40:])
	}
}

func TestMaskSecret(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"abc", "****"},
		{"sk-ant-123456", "****3456"},
	}

	for _, tc := range tests {
		if got := MaskSecret(tc.input); got != tc.want {
			t.Errorf("MaskSecret(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}
