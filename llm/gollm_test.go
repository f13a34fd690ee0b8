package llm

import (
	"errors"
	"testing"
)

func TestParseEmbeddedToolCalls(t *testing.T) {
	text := `I'll write the file now.
[{"name": "write_file", "arguments": {"path": "a.txt", "content": "hi"}}]`

	calls := parseEmbeddedToolCalls(text)
	if len(calls) != 1 {
		t.Fatalf("got %d calls", len(calls))
	}
	if calls[0].Name != "write_file" {
		t.Errorf("Name = %q", calls[0].Name)
	}
	if calls[0].Arguments["path"] != "a.txt" {
		t.Errorf("Arguments = %v", calls[0].Arguments)
	}
	if calls[0].ID == "" {
		t.Error("missing synthesized call ID")
	}

	if stripped := stripToolCallJSON(text); stripped != "I'll write the file now." {
		t.Errorf("stripToolCallJSON = %q", stripped)
	}
}

func TestParseEmbeddedToolCallsPlainText(t *testing.T) {
	if calls := parseEmbeddedToolCalls("just a normal answer"); calls != nil {
		t.Errorf("got calls from plain text: %v", calls)
	}
	if calls := parseEmbeddedToolCalls(`[{"name": broken json`); calls != nil {
		t.Errorf("got calls from malformed JSON: %v", calls)
	}
}

func TestGollmNormalizeError(t *testing.T) {
	c := &Gollm{provider: "gemini"}
	tests := []struct {
		msg       string
		checkType func(error) bool
	}{
		{"API error 401 Unauthorized", func(err error) bool { var e *AuthError; return errors.As(err, &e) }},
		{"rate limit exceeded", func(err error) bool { var e *RateLimitError; return errors.As(err, &e) }},
		{"request timeout after 30s", func(err error) bool { var e *TimeoutError; return errors.As(err, &e) }},
		{"500 internal server error", func(err error) bool { var e *ServerError; return errors.As(err, &e) }},
		{"something odd happened", IsRetryable},
	}

	for _, tt := range tests {
		got := c.normalizeError(errors.New(tt.msg))
		if !tt.checkType(got) {
			t.Errorf("%q mapped to %T", tt.msg, got)
		}
	}
}
