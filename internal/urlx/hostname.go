// Package urlx contains small URL helpers for the post service.
package urlx

import "strings"

// ExtractHostname derives the display source of a saved link from its URL.
//
// It intentionally does NOT use net/url: users paste scheme-less links like
// "example.com/article" which url.Parse treats as a path, not a host. Plain
// string splitting matches what users expect to see:
//
//	ExtractHostname("https://example.com:8080/path?x=1") == "example.com"
//	ExtractHostname("example.com/path")                  == "example.com"
//
// The derivation is deterministic (same input, same output), so re-deriving
// on every edit is safe.
func ExtractHostname(rawURL string) string {
	host := rawURL

	// Drop the protocol ("https://", "ftp://", protocol-relative "//").
	if _, after, ok := strings.Cut(host, "//"); ok {
		host = after
	}

	// Drop path, port, and query, in that order.
	host, _, _ = strings.Cut(host, "/")
	host, _, _ = strings.Cut(host, ":")
	host, _, _ = strings.Cut(host, "?")

	return host
}
