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
	"fmt"
	"net/http"
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tombee/httptrace/pkg/observability"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// Provider owns the OpenTelemetry tracer and meter providers.
type Provider struct {
	tp       *sdktrace.TracerProvider
	mp       *metric.MeterProvider
	registry *prom.Registry
	metrics  *MetricsCollector
}

// NewProvider creates a tracer provider from cfg. Extra options are applied
// after the configured exporters, which lets tests attach an in-memory syncer.
// The provider is installed as the OpenTelemetry global together with the
// W3C propagator.
func NewProvider(ctx context.Context, cfg Config, opts ...sdktrace.TracerProviderOption) (*Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid tracing config: %w", err)
	}

	// Empty schema URL avoids conflicts when merging with the default resource.
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			"",
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	allOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(NewSampler(cfg.Sampling)),
	}
	for _, p := range CreateExportersFromConfig(ctx, cfg) {
		allOpts = append(allOpts, sdktrace.WithSpanProcessor(p))
	}
	allOpts = append(allOpts, opts...)

	tp := sdktrace.NewTracerProvider(allOpts...)

	registry := prom.NewRegistry()
	promExporter, err := prometheus.New(prometheus.WithRegisterer(registry))
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	mp := metric.NewMeterProvider(
		metric.WithResource(res),
		metric.WithReader(promExporter),
	)

	metrics, err := NewMetricsCollector(mp)
	if err != nil {
		_ = tp.Shutdown(ctx)
		_ = mp.Shutdown(ctx)
		return nil, fmt.Errorf("failed to create metrics collector: %w", err)
	}

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(W3CPropagator())

	return &Provider{
		tp:       tp,
		mp:       mp,
		registry: registry,
		metrics:  metrics,
	}, nil
}

// Tracer returns an observability.Tracer for the given instrumentation scope.
func (p *Provider) Tracer(name string) *Tracer {
	return &Tracer{
		tracer:     p.tp.Tracer(name),
		propagator: W3CPropagator(),
		metrics:    p.metrics,
	}
}

// Shutdown flushes any pending spans and releases resources.
func (p *Provider) Shutdown(ctx context.Context) error {
	if err := p.tp.Shutdown(ctx); err != nil {
		return err
	}
	return p.mp.Shutdown(ctx)
}

// ForceFlush exports all pending spans synchronously.
func (p *Provider) ForceFlush(ctx context.Context) error {
	return p.tp.ForceFlush(ctx)
}

// Metrics returns the collector fed by every closed scope.
func (p *Provider) Metrics() *MetricsCollector {
	return p.metrics
}

// MetricsHandler serves this provider's Prometheus registry.
func (p *Provider) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// Tracer adapts an OpenTelemetry tracer to observability.Tracer.
type Tracer struct {
	tracer     trace.Tracer
	propagator propagation.TextMapPropagator
	metrics    *MetricsCollector
}

var _ observability.Tracer = (*Tracer)(nil)

// StartActiveSpan starts a span as a child of any span in ctx. Nil-valued
// tags are not recorded. span.kind selects the OpenTelemetry span kind and
// is also kept as a string attribute.
func (t *Tracer) StartActiveSpan(ctx context.Context, operationName string, tags observability.Tags) (context.Context, observability.Scope) {
	kind := trace.SpanKindInternal
	attrs := make([]attribute.KeyValue, 0, len(tags)+1)
	for _, tag := range tags {
		if tag.Value == nil {
			continue
		}
		if tag.Key == observability.TagSpanKind {
			kind = otelSpanKind(tag.Value)
		}
		attrs = append(attrs, toAttribute(tag.Key, tag.Value))
	}
	if id := FromContextOrEmpty(ctx); id != "" {
		attrs = append(attrs, attribute.String(AttrCorrelationID, id.String()))
	}

	ctx, span := t.tracer.Start(ctx, operationName,
		trace.WithSpanKind(kind),
		trace.WithAttributes(attrs...),
	)

	component, _ := tags.Get(observability.TagComponent)
	s := &scope{
		ctx:       ctx,
		span:      &otelSpan{span: span},
		metrics:   t.metrics,
		component: fmt.Sprint(component),
		start:     time.Now(),
	}
	t.metrics.RecordStart(ctx, s.component)
	return ctx, s
}

// Inject writes sc into carrier. http.Header, map[string]string and any
// propagation.TextMapCarrier are accepted.
func (t *Tracer) Inject(sc observability.SpanContext, format observability.Format, carrier any) error {
	if format != observability.FormatHTTPHeaders && format != observability.FormatTextMap {
		return fmt.Errorf("unsupported format %q", format)
	}
	osc, ok := sc.(spanContext)
	if !ok {
		return fmt.Errorf("span context %T was not created by this tracer", sc)
	}
	c, err := textMapCarrier(carrier)
	if err != nil {
		return err
	}
	t.propagator.Inject(trace.ContextWithSpanContext(context.Background(), osc.sc), c)
	return nil
}

type scope struct {
	ctx       context.Context
	span      *otelSpan
	metrics   *MetricsCollector
	component string
	start     time.Time
	once      sync.Once
}

func (s *scope) Span() observability.Span { return s.span }

// Close ends the span. Only the first call has an effect.
func (s *scope) Close() {
	s.once.Do(func() {
		s.span.span.End()
		status, failed := s.span.outcome()
		s.metrics.RecordEnd(s.ctx, s.component, status, failed, time.Since(s.start))
	})
}

type otelSpan struct {
	span trace.Span

	mu     sync.Mutex
	status int
	failed bool
}

func (s *otelSpan) SetTag(key string, value any) {
	if value == nil {
		return
	}
	s.span.SetAttributes(toAttribute(key, value))

	s.mu.Lock()
	defer s.mu.Unlock()
	switch key {
	case observability.TagHTTPStatusCode:
		if code, ok := value.(int); ok {
			s.status = code
		}
	case observability.TagError:
		if v, ok := value.(bool); ok && v {
			s.failed = true
			s.span.SetStatus(codes.Error, "error response")
		}
	}
}

func (s *otelSpan) outcome() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status, s.failed
}

func (s *otelSpan) Context() observability.SpanContext {
	return spanContext{sc: s.span.SpanContext()}
}

type spanContext struct {
	sc trace.SpanContext
}

func (c spanContext) TraceID() string { return c.sc.TraceID().String() }
func (c spanContext) SpanID() string  { return c.sc.SpanID().String() }
func (c spanContext) IsValid() bool   { return c.sc.IsValid() }

func otelSpanKind(v any) trace.SpanKind {
	switch fmt.Sprint(v) {
	case string(observability.SpanKindClient):
		return trace.SpanKindClient
	case string(observability.SpanKindServer):
		return trace.SpanKindServer
	default:
		return trace.SpanKindInternal
	}
}

// toAttribute converts a tag value to an OpenTelemetry attribute.
func toAttribute(key string, value any) attribute.KeyValue {
	switch v := value.(type) {
	case string:
		return attribute.String(key, v)
	case bool:
		return attribute.Bool(key, v)
	case int:
		return attribute.Int(key, v)
	case int64:
		return attribute.Int64(key, v)
	case float64:
		return attribute.Float64(key, v)
	case []string:
		return attribute.StringSlice(key, v)
	case fmt.Stringer:
		return attribute.String(key, v.String())
	default:
		return attribute.String(key, fmt.Sprint(v))
	}
}
