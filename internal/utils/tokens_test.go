package utils

import (
	"strings"
	"testing"
)

func TestCountTokens(t *testing.T) {
	if CountTokens("") != 0 {
		t.Error("empty text should be 0 tokens")
	}
	if CountTokens("ab") != 1 {
		t.Error("non-empty text should be at least 1 token")
	}
	if got := CountTokens(strings.Repeat("a", 400)); got != 100 {
		t.Errorf("got %d, want 100", got)
	}
}

func TestTruncateToTokenLimit(t *testing.T) {
	text := strings.Repeat("x", 100)
	if got := TruncateToTokenLimit(text, 10); len(got) != 40 {
		t.Errorf("len=%d, want 40", len(got))
	}
	if got := TruncateToTokenLimit("short", 100); got != "short" {
		t.Errorf("short text should pass through, got %q", got)
	}
	if got := TruncateToTokenLimit(text, 0); got != "" {
		t.Errorf("zero limit should empty the text, got %q", got)
	}
}
