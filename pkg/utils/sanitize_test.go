package utils

import (
	"strings"
	"testing"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"hostname passes through", "example.com", "example.com"},
		{"slashes replaced", "docs/guide/intro", "docs_guide_intro"},
		{"invalid chars collapsed", "a<>:b||c", "a_b_c"},
		{"leading and trailing stripped", "_name_", "name"},
		{"empty becomes untitled", "", "untitled"},
		{"only invalid chars becomes untitled", "<<>>", "untitled"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeFilename(tt.input); got != tt.want {
				t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSanitizeFilename_Truncation(t *testing.T) {
	long := strings.Repeat("a", 250)
	got := SanitizeFilename(long)
	if len(got) > 100 {
		t.Errorf("SanitizeFilename length = %d, want <= 100", len(got))
	}
}

func TestCalculateStringSHA256(t *testing.T) {
	// Known digest of the empty string
	want := "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	if got := CalculateStringSHA256(""); got != want {
		t.Errorf("CalculateStringSHA256(\"\") = %q, want %q", got, want)
	}

	a := CalculateStringSHA256("hello")
	b := CalculateStringSHA256("hello")
	if a != b {
		t.Error("same input produced different digests")
	}
	if a == CalculateStringSHA256("hello!") {
		t.Error("different inputs produced the same digest")
	}
}
