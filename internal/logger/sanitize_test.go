package logger

import (
	"errors"
	"strings"
	"testing"
)

func TestSanitizeString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		input     string
		maxLength int
		want      string
	}{
		{name: "empty", input: "", maxLength: 10, want: ""},
		{name: "plain", input: "/api/v1/free-slots", maxLength: 100, want: "/api/v1/free-slots"},
		{name: "control characters removed", input: "School\x00\x1b[31m", maxLength: 100, want: "School[31m"},
		{name: "whitespace kept", input: "a\tb\nc", maxLength: 100, want: "a\tb\nc"},
		{name: "invalid utf8 dropped", input: "ok\xff", maxLength: 100, want: "ok"},
		{name: "truncated", input: "abcdefgh", maxLength: 4, want: "abcd..."},
		{name: "truncation keeps utf8 valid", input: "日本語", maxLength: 4, want: "日..."},
		{name: "default limit", input: "short", maxLength: 0, want: "short"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := SanitizeString(tt.input, tt.maxLength); got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestSanitizePath_Truncates(t *testing.T) {
	t.Parallel()

	got := SanitizePath("/" + strings.Repeat("a", MaxPathLength*2))
	if len(got) != MaxPathLength+3 {
		t.Errorf("Expected length %d, got %d", MaxPathLength+3, len(got))
	}
}

func TestSanitizeError(t *testing.T) {
	t.Parallel()

	if got := SanitizeError(nil); got != "" {
		t.Errorf("Expected empty string for nil error, got %q", got)
	}
	if got := SanitizeError(errors.New("todoist\nerror\x07")); got != "todoist\nerror" {
		t.Errorf("Expected control characters removed, got %q", got)
	}
}

func TestSanitizeNames(t *testing.T) {
	t.Parallel()

	if got := SanitizeNames(nil); got != nil {
		t.Errorf("Expected nil, got %v", got)
	}
	got := SanitizeNames([]string{"School", "Home\x00"})
	if len(got) != 2 || got[0] != "School" || got[1] != "Home" {
		t.Errorf("Expected [School Home], got %v", got)
	}
}
