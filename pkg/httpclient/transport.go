package httpclient

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/tombee/httptrace/internal/log"
	"github.com/tombee/httptrace/internal/tracing"
)

// traceparentHeader is the W3C header interceptors inject.
const traceparentHeader = "Traceparent"

// wireTransport is the last RoundTripper before the network. It fills in
// User-Agent and correlation ID headers and logs every exchange with
// credentials masked.
type wireTransport struct {
	next      http.RoundTripper
	userAgent string
	redact    redactor
}

func newWireTransport(next http.RoundTripper, userAgent string, redact redactor) *wireTransport {
	if next == nil {
		next = http.DefaultTransport
	}
	return &wireTransport{next: next, userAgent: userAgent, redact: redact}
}

// RoundTrip implements http.RoundTripper.
func (t *wireTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", t.userAgent)
	}
	corrID := tracing.FromContextOrEmpty(ctx)
	if corrID.IsValid() {
		req.Header.Set(tracing.HeaderCorrelationID, corrID.String())
	}

	started := time.Now()
	resp, err := t.next.RoundTrip(req)
	t.logExchange(ctx, req, resp, err, time.Since(started))
	return resp, err
}

func (t *wireTransport) logExchange(ctx context.Context, req *http.Request, resp *http.Response, err error, elapsed time.Duration) {
	attrs := []any{
		"method", req.Method,
		"url", t.redact.URL(req.URL),
		"traced", req.Header.Get(traceparentHeader) != "",
		log.DurationKey, elapsed.Milliseconds(),
	}

	switch {
	case err != nil:
		slog.WarnContext(ctx, "http request failed", append(attrs, "error", err.Error())...)
	case resp.StatusCode >= 400:
		slog.WarnContext(ctx, "http request", append(attrs, "status", resp.StatusCode)...)
	default:
		slog.DebugContext(ctx, "http request", append(attrs, "status", resp.StatusCode)...)
	}
}
