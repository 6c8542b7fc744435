package httpclient

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

// Version is the version of this client library. Interceptors that depend on
// the shape of the method table gate on it.
const Version = "1.2.0"

// Client executes HTTP requests through the process-wide method table.
type Client struct {
	http *http.Client
}

// New creates a new Client with the given configuration.
// The client includes:
//   - Request logging with redacted URLs
//   - User-Agent header injection
//   - Correlation ID propagation
//   - TLS 1.2 minimum, TLS 1.3 preferred
//   - Connection pooling with sensible defaults
//
// Returns an error if the configuration is invalid.
func New(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	base := cfg.Transport
	if base == nil {
		base = &http.Transport{
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
				MaxVersion: tls.VersionTLS13,
			},

			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,

			DialContext: (&net.Dialer{
				Timeout:   10 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: cfg.Timeout,
			ExpectContinueTimeout: 1 * time.Second,
		}
	}

	return &Client{
		http: &http.Client{
			Transport: newWireTransport(base, cfg.UserAgent, newRedactor(cfg.RedactParams)),
			Timeout:   cfg.Timeout,
		},
	}, nil
}

// Request sends verb to uri. Headers and body come from opts, which may be nil.
func (c *Client) Request(ctx context.Context, verb string, uri URI, opts *Options) (Response, error) {
	return RequestMethod()(c, ctx, verb, uri, opts)
}

// Perform executes an already-built request.
func (c *Client) Perform(ctx context.Context, req *Request, opts *Options) (Response, error) {
	return PerformMethod()(c, ctx, req, opts)
}

// DefaultRequest is the unpatched implementation of Client.Request.
func DefaultRequest(c *Client, ctx context.Context, verb string, uri URI, opts *Options) (Response, error) {
	if opts == nil {
		opts = &Options{}
	}
	return c.Perform(ctx, NewRequest(verb, uri, opts), opts)
}

// DefaultPerform is the unpatched implementation of Client.Perform.
func DefaultPerform(c *Client, ctx context.Context, req *Request, opts *Options) (Response, error) {
	if req == nil {
		return nil, fmt.Errorf("nil request")
	}
	if opts == nil {
		opts = &Options{}
	}

	target, err := resolveURL(req.URI)
	if err != nil {
		return nil, fmt.Errorf("resolve request uri: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Verb, target, req.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if req.Headers != nil {
		httpReq.Header = req.Headers.Clone()
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	result := &Result{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
		Sent:       httpReq.Header,
	}
	if opts.ErrorStatus && resp.StatusCode >= 400 {
		return &StatusError{Result: result}, nil
	}
	return result, nil
}
