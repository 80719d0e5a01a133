package urlx

import "testing"

func TestExtractHostname(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"full URL with port, path, and query", "https://example.com:8080/path?x=1", "example.com"},
		{"scheme-less with path", "example.com/path", "example.com"},
		{"plain hostname", "example.com", "example.com"},
		{"http scheme", "http://example.com", "example.com"},
		{"https with subdomain", "https://news.ycombinator.com/item?id=1", "news.ycombinator.com"},
		{"query without path", "http://example.com?x=1", "example.com"},
		{"port without scheme", "example.com:3000/admin", "example.com"},
		{"protocol-relative", "//cdn.example.com/asset.js", "cdn.example.com"},
		{"trailing slash", "https://example.com/", "example.com"},
		{"empty string", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractHostname(tt.in); got != tt.want {
				t.Errorf("ExtractHostname(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

// Same input must always produce the same output, including when the output
// is fed back in (already-extracted hostnames pass through unchanged).
func TestExtractHostnameIdempotent(t *testing.T) {
	inputs := []string{
		"https://example.com:8080/path?x=1",
		"example.com/path",
		"//cdn.example.com/x",
	}
	for _, in := range inputs {
		first := ExtractHostname(in)
		if second := ExtractHostname(first); second != first {
			t.Errorf("ExtractHostname not idempotent: %q → %q → %q", in, first, second)
		}
	}
}
