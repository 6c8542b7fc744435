package httpclient

import (
	"testing"
)

type hostOnlyURI struct{ host string }

func (u hostOnlyURI) Host() string { return u.host }

type hostPortPathURI struct {
	host string
	port int
	path string
}

func (u hostPortPathURI) Host() string { return u.host }
func (u hostPortPathURI) Port() int    { return u.port }
func (u hostPortPathURI) Path() string { return u.path }

func TestParseURI(t *testing.T) {
	tests := []struct {
		raw  string
		host string
		path string
		port int
	}{
		{raw: "http://localhost/api/data", host: "localhost", path: "/api/data", port: 80},
		{raw: "http://localhost:3000", host: "localhost", path: "/", port: 3000},
		{raw: "https://example.com/x?y=1", host: "example.com", path: "/x", port: 443},
		{raw: "https://example.com:8443/", host: "example.com", path: "/", port: 8443},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			u, err := ParseURI(tt.raw)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if u.Host() != tt.host {
				t.Errorf("host: expected %q, got %q", tt.host, u.Host())
			}
			if u.Path() != tt.path {
				t.Errorf("path: expected %q, got %q", tt.path, u.Path())
			}
			if u.Port() != tt.port {
				t.Errorf("port: expected %d, got %d", tt.port, u.Port())
			}
		})
	}
}

func TestParseURI_Invalid(t *testing.T) {
	for _, raw := range []string{"ftp://example.com", "http://", "::not a url"} {
		if _, err := ParseURI(raw); err == nil {
			t.Errorf("expected error for %q", raw)
		}
	}
}

func TestResolveURL(t *testing.T) {
	tests := []struct {
		name     string
		uri      URI
		expected string
	}{
		{name: "parsed url", uri: MustParseURI("https://example.com:8443/a?b=c"), expected: "https://example.com:8443/a?b=c"},
		{name: "host only", uri: hostOnlyURI{host: "localhost"}, expected: "http://localhost/"},
		{name: "full custom", uri: hostPortPathURI{host: "localhost", port: 3000, path: "/api"}, expected: "http://localhost:3000/api"},
		{name: "default port omitted", uri: hostPortPathURI{host: "localhost", port: 80, path: "api"}, expected: "http://localhost/api"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveURL(tt.uri)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestResolveURL_MissingHost(t *testing.T) {
	if _, err := resolveURL(hostOnlyURI{}); err == nil {
		t.Fatal("expected error for empty host")
	}
	if _, err := resolveURL(nil); err == nil {
		t.Fatal("expected error for nil uri")
	}
}
