package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tombee/httptrace/internal/tracing"
)

func echoHeaders(t *testing.T) (*httptest.Server, *http.Header) {
	t.Helper()
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)
	return srv, &got
}

func roundTrip(t *testing.T, rt http.RoundTripper, req *http.Request) {
	t.Helper()
	resp, err := rt.RoundTrip(req)
	if err != nil {
		t.Fatalf("round trip: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestWireTransport_UserAgent(t *testing.T) {
	srv, got := echoHeaders(t)
	rt := newWireTransport(nil, "httptrace-test/1.0", newRedactor(nil))

	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)
	roundTrip(t, rt, req)
	if ua := got.Get("User-Agent"); ua != "httptrace-test/1.0" {
		t.Errorf("User-Agent = %q, want default", ua)
	}

	req, _ = http.NewRequest(http.MethodGet, srv.URL, nil)
	req.Header.Set("User-Agent", "caller/2.0")
	roundTrip(t, rt, req)
	if ua := got.Get("User-Agent"); ua != "caller/2.0" {
		t.Errorf("User-Agent = %q, want caller's value kept", ua)
	}
}

func TestWireTransport_CorrelationID(t *testing.T) {
	srv, got := echoHeaders(t)
	rt := newWireTransport(http.DefaultTransport, "ua", newRedactor(nil))

	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)
	roundTrip(t, rt, req)
	if v := got.Get(tracing.HeaderCorrelationID); v != "" {
		t.Errorf("correlation header = %q without one in context", v)
	}

	id := tracing.NewCorrelationID()
	ctx := tracing.ToContext(context.Background(), id)
	req, _ = http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"?token=secret", nil)
	roundTrip(t, rt, req)
	if v := got.Get(tracing.HeaderCorrelationID); v != id.String() {
		t.Errorf("correlation header = %q, want %q", v, id)
	}
}
