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

// Package observability defines the narrow tracer contract used by the HTTP
// client interceptors. Any tracing backend can be plugged in by implementing
// Tracer; the OpenTelemetry-backed implementation lives in internal/tracing.
package observability

import (
	"time"
)

// OperationHTTPRequest is the operation name used for intercepted client calls.
const OperationHTTPRequest = "http.request"

// Tag keys understood by downstream tracing and analysis tooling.
// These names are part of the wire contract and must not change.
const (
	TagComponent      = "component"
	TagSpanKind       = "span.kind"
	TagHTTPMethod     = "http.method"
	TagHTTPURL        = "http.url"
	TagPeerHost       = "peer.host"
	TagPeerPort       = "peer.port"
	TagHTTPStatusCode = "http.status_code"
	TagError          = "error"
)

// SpanKind categorizes the type of work represented by a span.
type SpanKind string

const (
	// SpanKindInternal represents work happening within the application.
	SpanKindInternal SpanKind = "internal"

	// SpanKindClient represents an outbound synchronous call.
	SpanKindClient SpanKind = "client"

	// SpanKindServer represents handling an inbound synchronous request.
	SpanKindServer SpanKind = "server"
)

// Tag is a single span tag.
type Tag struct {
	Key   string
	Value any
}

// Tags is an ordered set of span tags. Keys are unique; Set on an existing
// key replaces the value in place and keeps its position.
type Tags []Tag

// Get returns the value stored under key.
func (t Tags) Get(key string) (any, bool) {
	for _, tag := range t {
		if tag.Key == key {
			return tag.Value, true
		}
	}
	return nil, false
}

// Has reports whether key is present, regardless of its value.
func (t Tags) Has(key string) bool {
	_, ok := t.Get(key)
	return ok
}

// Set adds or replaces the value for key.
func (t Tags) Set(key string, value any) Tags {
	for i := range t {
		if t[i].Key == key {
			t[i].Value = value
			return t
		}
	}
	return append(t, Tag{Key: key, Value: value})
}

// Compact returns a copy of the tags with nil-valued entries dropped.
func (t Tags) Compact() Tags {
	out := make(Tags, 0, len(t))
	for _, tag := range t {
		if tag.Value != nil {
			out = append(out, tag)
		}
	}
	return out
}

// Map returns the tags as an unordered map.
func (t Tags) Map() map[string]any {
	m := make(map[string]any, len(t))
	for _, tag := range t {
		m[tag.Key] = tag.Value
	}
	return m
}

// SpanRecord is the finished, stored representation of a span.
type SpanRecord struct {
	// TraceID uniquely identifies the entire trace.
	TraceID string

	// SpanID uniquely identifies this span within the trace.
	SpanID string

	// ParentID is the SpanID of the parent span. Empty for root spans.
	ParentID string

	// Name is the operation name.
	Name string

	// Kind indicates the span's role in the trace.
	Kind SpanKind

	StartTime time.Time
	EndTime   time.Time

	// Attributes contains key-value metadata about this span.
	Attributes map[string]any
}

// Duration returns the span's execution time.
// Returns 0 for active spans (EndTime is zero).
func (s *SpanRecord) Duration() time.Duration {
	if s.EndTime.IsZero() {
		return 0
	}
	return s.EndTime.Sub(s.StartTime)
}

// Failed reports whether the span carries error=true.
func (s *SpanRecord) Failed() bool {
	v, ok := s.Attributes[TagError].(bool)
	return ok && v
}
