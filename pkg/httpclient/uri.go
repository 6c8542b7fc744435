package httpclient

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// URI is the minimum a request target must provide.
type URI interface {
	Host() string
}

// PathURI is implemented by targets that expose a path.
type PathURI interface {
	Path() string
}

// PortURI is implemented by targets that expose a port.
type PortURI interface {
	Port() int
}

// URL is a fully-formed URI backed by net/url.
type URL struct {
	u *url.URL
}

// ParseURI parses an absolute http or https URL.
func ParseURI(raw string) (*URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse uri %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("parse uri %q: unsupported scheme %q", raw, u.Scheme)
	}
	if u.Hostname() == "" {
		return nil, fmt.Errorf("parse uri %q: missing host", raw)
	}
	return &URL{u: u}, nil
}

// MustParseURI is like ParseURI but panics on error.
func MustParseURI(raw string) *URL {
	u, err := ParseURI(raw)
	if err != nil {
		panic(err)
	}
	return u
}

// Host returns the host name without the port.
func (u *URL) Host() string {
	return u.u.Hostname()
}

// Path returns the URL path. An empty path is reported as "/".
func (u *URL) Path() string {
	if u.u.Path == "" {
		return "/"
	}
	return u.u.Path
}

// Port returns the explicit port, or the scheme default.
func (u *URL) Port() int {
	if p := u.u.Port(); p != "" {
		n, err := strconv.Atoi(p)
		if err == nil {
			return n
		}
	}
	if u.u.Scheme == "https" {
		return 443
	}
	return 80
}

// String returns the full URL.
func (u *URL) String() string {
	return u.u.String()
}

// URL returns a copy of the underlying net/url value.
func (u *URL) URL() *url.URL {
	c := *u.u
	return &c
}

// resolveURL turns any URI into an absolute URL for the wire. Targets that do
// not expose a path or port get "/" and the http default.
func resolveURL(uri URI) (string, error) {
	if uri == nil {
		return "", fmt.Errorf("nil uri")
	}
	if u, ok := uri.(*URL); ok {
		return u.String(), nil
	}
	host := uri.Host()
	if host == "" {
		return "", fmt.Errorf("uri has no host")
	}

	var b strings.Builder
	b.WriteString("http://")
	b.WriteString(host)
	if p, ok := uri.(PortURI); ok && p.Port() != 0 && p.Port() != 80 {
		b.WriteString(":")
		b.WriteString(strconv.Itoa(p.Port()))
	}
	path := "/"
	if p, ok := uri.(PathURI); ok && p.Path() != "" {
		path = p.Path()
	}
	if !strings.HasPrefix(path, "/") {
		b.WriteString("/")
	}
	b.WriteString(path)
	return b.String(), nil
}
