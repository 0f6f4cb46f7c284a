package parse

import (
	"net/url"
	"testing"
)

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"lowercases scheme and host", "HTTPS://Example.COM/Path", "https://example.com/Path"},
		{"strips default https port", "https://example.com:443/page", "https://example.com/page"},
		{"strips default http port", "http://example.com:80/page", "http://example.com/page"},
		{"keeps non-default port", "https://example.com:8443/page", "https://example.com:8443/page"},
		{"empty path becomes root", "https://example.com", "https://example.com/"},
		{"strips trailing slash", "https://example.com/docs/", "https://example.com/docs"},
		{"keeps root slash", "https://example.com/", "https://example.com/"},
		{"drops fragment", "https://example.com/page#section", "https://example.com/page"},
		{"drops query", "https://example.com/page?utm_source=x", "https://example.com/page"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := url.Parse(tt.input)
			if err != nil {
				t.Fatalf("url.Parse(%q) error: %v", tt.input, err)
			}
			if got := NormalizeURL(u); got != tt.want {
				t.Errorf("NormalizeURL(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeURL_Nil(t *testing.T) {
	if got := NormalizeURL(nil); got != "" {
		t.Errorf("NormalizeURL(nil) = %q, want empty", got)
	}
}

func TestNormalizeURL_DoesNotMutateInput(t *testing.T) {
	u, _ := url.Parse("https://example.com/page?q=1#frag")
	NormalizeURL(u)
	if u.RawQuery != "q=1" || u.Fragment != "frag" {
		t.Errorf("input URL was mutated: %v", u)
	}
}

func TestParseAndNormalize(t *testing.T) {
	norm, parsed, err := ParseAndNormalize("https://Example.com/docs/")
	if err != nil {
		t.Fatalf("ParseAndNormalize error: %v", err)
	}
	if norm != "https://example.com/docs" {
		t.Errorf("normalized = %q, want https://example.com/docs", norm)
	}
	if parsed.Host != "Example.com" {
		t.Errorf("parsed.Host = %q, want original casing preserved", parsed.Host)
	}

	if _, _, err := ParseAndNormalize("not-a-url"); err == nil {
		t.Error("ParseAndNormalize accepted a schemeless string, want error")
	}
}

func TestSameHost(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"https://example.com/a", "https://example.com/b", true},
		{"https://www.example.com/a", "https://example.com/b", true},
		{"https://EXAMPLE.com", "https://example.COM", true},
		{"https://example.com", "https://other.com", false},
		{"https://docs.example.com", "https://example.com", false},
	}
	for _, tt := range tests {
		ua, _ := url.Parse(tt.a)
		ub, _ := url.Parse(tt.b)
		if got := SameHost(ua, ub); got != tt.want {
			t.Errorf("SameHost(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}
