// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package net holds URL helpers shared by the upstream client and the CLI.
package net

import (
	"fmt"
	"net/url"
	"strings"
)

// SanitizeURL removes user info and query parameters for safe logging.
func SanitizeURL(rawURL string) string {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return "invalid-url-redacted"
	}
	parsedURL.User = nil
	parsedURL.RawQuery = ""
	return parsedURL.String()
}

// ParseHTTPURL parses an absolute http or https URL without credentials
// or fragment. A trailing slash on the path is dropped.
func ParseHTTPURL(s string) (*url.URL, error) {
	s = strings.TrimSpace(s)
	u, err := url.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	switch {
	case !strings.EqualFold(u.Scheme, "http") && !strings.EqualFold(u.Scheme, "https"):
		return nil, fmt.Errorf("invalid URL %q: scheme must be http or https", s)
	case u.Host == "":
		return nil, fmt.Errorf("invalid URL %q: missing host", s)
	case u.User != nil:
		return nil, fmt.Errorf("invalid URL %q: credentials are not allowed", SanitizeURL(s))
	case u.Fragment != "":
		return nil, fmt.Errorf("invalid URL %q: fragments are not allowed", s)
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Path = strings.TrimRight(u.Path, "/")
	return u, nil
}

// ServerURL turns a listen address or URL into the base URL of a local
// server: ":8080" becomes "http://localhost:8080" and "host:port" gains
// the http scheme.
func ServerURL(addr string) (*url.URL, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, fmt.Errorf("empty address")
	}
	if !strings.Contains(addr, "://") {
		if strings.HasPrefix(addr, ":") {
			addr = "localhost" + addr
		}
		addr = "http://" + addr
	}
	return ParseHTTPURL(addr)
}
