// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package tracing

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tombee/httptrace/pkg/observability"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func newTestProvider(t *testing.T) (*Provider, *tracetest.InMemoryExporter) {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	provider, err := NewProvider(context.Background(), DefaultConfig(), sdktrace.WithSyncer(exporter))
	require.NoError(t, err)
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })
	return provider, exporter
}

func attrMap(kvs []attribute.KeyValue) map[string]any {
	m := make(map[string]any, len(kvs))
	for _, kv := range kvs {
		m[string(kv.Key)] = kv.Value.AsInterface()
	}
	return m
}

func clientTags() observability.Tags {
	return observability.Tags{
		{Key: observability.TagComponent, Value: "HTTP"},
		{Key: observability.TagSpanKind, Value: "client"},
		{Key: observability.TagHTTPMethod, Value: "GET"},
		{Key: observability.TagHTTPURL, Value: nil},
		{Key: observability.TagPeerHost, Value: "example.com"},
		{Key: observability.TagPeerPort, Value: 443},
	}
}

func TestTracer_StartActiveSpan(t *testing.T) {
	provider, exporter := newTestProvider(t)
	tracer := provider.Tracer("test")

	_, scope := tracer.StartActiveSpan(context.Background(), observability.OperationHTTPRequest, clientTags())
	scope.Span().SetTag(observability.TagHTTPStatusCode, 200)
	scope.Close()

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	span := spans[0]

	assert.Equal(t, "http.request", span.Name)
	assert.Equal(t, trace.SpanKindClient, span.SpanKind)
	assert.Equal(t, codes.Unset, span.Status.Code)

	attrs := attrMap(span.Attributes)
	assert.Equal(t, "HTTP", attrs["component"])
	assert.Equal(t, "GET", attrs["http.method"])
	assert.Equal(t, "example.com", attrs["peer.host"])
	assert.EqualValues(t, 443, attrs["peer.port"])
	assert.EqualValues(t, 200, attrs["http.status_code"])
	assert.NotContains(t, attrs, "http.url")
	assert.Equal(t, "client", attrs["span.kind"])
}

func TestTracer_ErrorTagSetsStatus(t *testing.T) {
	provider, exporter := newTestProvider(t)

	_, scope := provider.Tracer("test").StartActiveSpan(context.Background(), "http.request", clientTags())
	scope.Span().SetTag(observability.TagHTTPStatusCode, 500)
	scope.Span().SetTag(observability.TagError, true)
	scope.Close()

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
	assert.Equal(t, true, attrMap(spans[0].Attributes)["error"])
}

func TestTracer_CloseIsIdempotent(t *testing.T) {
	provider, exporter := newTestProvider(t)

	_, scope := provider.Tracer("test").StartActiveSpan(context.Background(), "http.request", nil)
	scope.Close()
	scope.Close()

	assert.Len(t, exporter.GetSpans(), 1)
}

func TestTracer_NestedSpans(t *testing.T) {
	provider, exporter := newTestProvider(t)
	tracer := provider.Tracer("test")

	ctx, outer := tracer.StartActiveSpan(context.Background(), "http.request", clientTags())
	_, inner := tracer.StartActiveSpan(ctx, "http.request", nil)
	inner.Close()
	outer.Close()

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)
	assert.Equal(t, spans[1].SpanContext.SpanID(), spans[0].Parent.SpanID())
	assert.Equal(t, spans[1].SpanContext.TraceID(), spans[0].SpanContext.TraceID())
}

func TestTracer_CorrelationIDAttribute(t *testing.T) {
	provider, exporter := newTestProvider(t)

	id := NewCorrelationID()
	ctx := ToContext(context.Background(), id)
	_, scope := provider.Tracer("test").StartActiveSpan(ctx, "http.request", nil)
	scope.Close()

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, id.String(), attrMap(spans[0].Attributes)[AttrCorrelationID])
}

func TestTracer_Inject(t *testing.T) {
	provider, _ := newTestProvider(t)
	tracer := provider.Tracer("test")

	_, scope := tracer.StartActiveSpan(context.Background(), "http.request", nil)
	defer scope.Close()
	sc := scope.Span().Context()
	require.True(t, sc.IsValid())

	header := http.Header{}
	require.NoError(t, tracer.Inject(sc, observability.FormatHTTPHeaders, header))
	assert.Contains(t, header.Get("traceparent"), sc.TraceID())
	assert.Contains(t, header.Get("traceparent"), sc.SpanID())

	m := map[string]string{}
	require.NoError(t, tracer.Inject(sc, observability.FormatTextMap, m))
	assert.Contains(t, m["traceparent"], sc.TraceID())
}

func TestTracer_InjectRejects(t *testing.T) {
	provider, _ := newTestProvider(t)
	tracer := provider.Tracer("test")

	_, scope := tracer.StartActiveSpan(context.Background(), "http.request", nil)
	defer scope.Close()
	sc := scope.Span().Context()

	assert.Error(t, tracer.Inject(sc, "binary", http.Header{}))
	assert.Error(t, tracer.Inject(sc, observability.FormatHTTPHeaders, &struct{}{}))
	assert.Error(t, tracer.Inject(sc, observability.FormatHTTPHeaders, http.Header(nil)))

	_, noop := observability.NoopTracer{}.StartActiveSpan(context.Background(), "http.request", nil)
	assert.Error(t, tracer.Inject(noop.Span().Context(), observability.FormatHTTPHeaders, http.Header{}))
}

func TestTracer_Concurrent(t *testing.T) {
	provider, exporter := newTestProvider(t)
	tracer := provider.Tracer("test")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, scope := tracer.StartActiveSpan(context.Background(), "http.request", clientTags())
			scope.Span().SetTag(observability.TagHTTPStatusCode, 204)
			scope.Close()
		}()
	}
	wg.Wait()

	assert.Len(t, exporter.GetSpans(), 20)
}

func TestProvider_MetricsHandler(t *testing.T) {
	provider, _ := newTestProvider(t)
	tracer := provider.Tracer("test")

	_, scope := tracer.StartActiveSpan(context.Background(), "http.request", clientTags())
	scope.Span().SetTag(observability.TagHTTPStatusCode, 404)
	scope.Close()

	srv := httptest.NewServer(provider.MetricsHandler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), "httptrace_client_spans_total")
	assert.Contains(t, string(body), `status_class="4xx"`)
	assert.Contains(t, string(body), "httptrace_client_span_duration_seconds")
}

func TestNewProvider_InvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Sampling.Rate = 2
	_, err := NewProvider(context.Background(), cfg)
	assert.Error(t, err)
}

func TestNewProvider_JournalExporter(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Exporters = []ExporterConfig{{Type: ExporterJournal, Path: ":memory:"}}

	provider, err := NewProvider(context.Background(), cfg)
	require.NoError(t, err)

	_, scope := provider.Tracer("test").StartActiveSpan(context.Background(), "http.request", nil)
	scope.Close()
	assert.NoError(t, provider.Shutdown(context.Background()))
}
