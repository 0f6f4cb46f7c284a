package suggest

import (
	"strings"
	"testing"
)

func TestTokenizer_CountAndTruncate(t *testing.T) {
	if err := InitTokenizer("cl100k_base"); err != nil {
		t.Fatalf("InitTokenizer error: %v", err)
	}

	text := strings.Repeat("the quick brown fox jumps over the lazy dog ", 50)
	count := CountTokens(text)
	if count <= 0 {
		t.Fatalf("CountTokens = %d, want > 0", count)
	}

	truncated := TruncateToTokens(text, count/2)
	if len(truncated) >= len(text) {
		t.Errorf("truncation did not shorten text (%d -> %d chars)", len(text), len(truncated))
	}
	if got := CountTokens(truncated); got > count/2 {
		t.Errorf("truncated text has %d tokens, want <= %d", got, count/2)
	}
}

func TestTruncateToTokens_NoTruncationNeeded(t *testing.T) {
	if err := InitTokenizer(""); err != nil {
		t.Fatalf("InitTokenizer error: %v", err)
	}
	text := "short text"
	if got := TruncateToTokens(text, 1000); got != text {
		t.Errorf("TruncateToTokens modified text that fits: %q", got)
	}
}

func TestTruncateToTokens_ZeroBudget(t *testing.T) {
	text := "anything"
	if got := TruncateToTokens(text, 0); got != text {
		t.Errorf("TruncateToTokens(_, 0) = %q, want input unchanged", got)
	}
}

func TestInitTokenizer_UnknownEncodingFallsBack(t *testing.T) {
	if err := InitTokenizer("bogus_encoding"); err != nil {
		t.Errorf("InitTokenizer with unknown encoding should fall back, got error: %v", err)
	}
}
