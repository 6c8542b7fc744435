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

package observability

import (
	"context"
	"sync"
)

// Format identifies a propagation carrier format.
type Format string

const (
	// FormatHTTPHeaders injects into an http.Header carrier.
	FormatHTTPHeaders Format = "http_headers"

	// FormatTextMap injects into a map[string]string carrier.
	FormatTextMap Format = "text_map"
)

// Tracer is the capability contract the interceptors consume.
// Implementations own span creation, export and the propagation encoding.
type Tracer interface {
	// StartActiveSpan starts a span with the given tags and makes it the
	// active span of the returned context. The span ends when the scope is
	// closed.
	StartActiveSpan(ctx context.Context, operationName string, tags Tags) (context.Context, Scope)

	// Inject writes sc into carrier using format.
	Inject(sc SpanContext, format Format, carrier any) error
}

// Scope bounds the lifetime of an active span.
type Scope interface {
	// Span returns the span managed by this scope.
	Span() Span

	// Close ends the span. Calling Close more than once is safe.
	Close()
}

// Span is an in-flight span handle.
type Span interface {
	// SetTag sets a tag on the span. Later calls with the same key overwrite
	// earlier values.
	SetTag(key string, value any)

	// Context returns the span's propagation context.
	Context() SpanContext
}

// SpanContext is the propagated identity of a span.
type SpanContext interface {
	TraceID() string
	SpanID() string
	IsValid() bool
}

var (
	globalMu     sync.RWMutex
	globalTracer Tracer = NoopTracer{}
)

// SetGlobalTracer registers t as the process-wide default tracer.
// A nil tracer resets the registry to NoopTracer.
func SetGlobalTracer(t Tracer) {
	globalMu.Lock()
	defer globalMu.Unlock()
	if t == nil {
		t = NoopTracer{}
	}
	globalTracer = t
}

// GlobalTracer returns the process-wide default tracer.
func GlobalTracer() Tracer {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalTracer
}

// NoopTracer starts spans that record nothing and injects nothing.
type NoopTracer struct{}

// StartActiveSpan implements Tracer.
func (NoopTracer) StartActiveSpan(ctx context.Context, _ string, _ Tags) (context.Context, Scope) {
	return ctx, noopScope{}
}

// Inject implements Tracer.
func (NoopTracer) Inject(SpanContext, Format, any) error {
	return nil
}

type noopScope struct{}

func (noopScope) Span() Span { return noopSpan{} }
func (noopScope) Close()     {}

type noopSpan struct{}

func (noopSpan) SetTag(string, any)   {}
func (noopSpan) Context() SpanContext { return noopSpanContext{} }

type noopSpanContext struct{}

func (noopSpanContext) TraceID() string { return "" }
func (noopSpanContext) SpanID() string  { return "" }
func (noopSpanContext) IsValid() bool   { return false }
