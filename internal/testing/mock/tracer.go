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

// Package mock provides recording test doubles for the tracer contract.
package mock

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/tombee/httptrace/pkg/observability"
)

// HeaderTraceID is the header the mock tracer injects.
const HeaderTraceID = "X-Mock-Trace-Id"

// Tracer is an observability.Tracer that records every span it starts.
type Tracer struct {
	mu     sync.Mutex
	spans  []*Span
	nextID int

	// InjectErr, when set, is returned from Inject.
	InjectErr error
}

// NewTracer creates an empty recording tracer.
func NewTracer() *Tracer {
	return &Tracer{}
}

// StartActiveSpan implements observability.Tracer.
func (t *Tracer) StartActiveSpan(ctx context.Context, operationName string, tags observability.Tags) (context.Context, observability.Scope) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.nextID++
	span := &Span{
		Operation: operationName,
		StartTags: append(observability.Tags(nil), tags...),
		id:        fmt.Sprintf("span-%d", t.nextID),
	}
	t.spans = append(t.spans, span)
	return ctx, &scope{span: span}
}

// Inject implements observability.Tracer. It writes the span ID under
// HeaderTraceID into an http.Header carrier.
func (t *Tracer) Inject(sc observability.SpanContext, format observability.Format, carrier any) error {
	if t.InjectErr != nil {
		return t.InjectErr
	}
	h, ok := carrier.(http.Header)
	if !ok || format != observability.FormatHTTPHeaders {
		return fmt.Errorf("mock tracer: unsupported carrier %T for format %s", carrier, format)
	}
	h.Set(HeaderTraceID, sc.SpanID())
	return nil
}

// Spans returns the spans started so far.
func (t *Tracer) Spans() []*Span {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]*Span(nil), t.spans...)
}

// Reset forgets all recorded spans.
func (t *Tracer) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.spans = nil
}

// Span is a recorded span.
type Span struct {
	mu sync.Mutex

	// Operation is the operation name passed to StartActiveSpan.
	Operation string

	// StartTags are the tags passed to StartActiveSpan.
	StartTags observability.Tags

	id      string
	setTags observability.Tags
	closes  int
}

// ID returns the span's identifier, as injected into headers.
func (s *Span) ID() string { return s.id }

// SetTag implements observability.Span.
func (s *Span) SetTag(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setTags = append(s.setTags, observability.Tag{Key: key, Value: value})
}

// Context implements observability.Span.
func (s *Span) Context() observability.SpanContext {
	return spanContext{id: s.id}
}

// SetTags returns the SetTag calls in order.
func (s *Span) SetTags() observability.Tags {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append(observability.Tags(nil), s.setTags...)
}

// Closed reports whether the scope was closed.
func (s *Span) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closes > 0
}

// CloseCount returns how many times the scope was closed.
func (s *Span) CloseCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closes
}

type scope struct {
	span *Span
}

func (sc *scope) Span() observability.Span { return sc.span }

func (sc *scope) Close() {
	sc.span.mu.Lock()
	defer sc.span.mu.Unlock()
	sc.span.closes++
}

type spanContext struct {
	id string
}

func (c spanContext) TraceID() string { return "trace-" + c.id }
func (c spanContext) SpanID() string  { return c.id }
func (c spanContext) IsValid() bool   { return true }

var _ observability.Tracer = (*Tracer)(nil)
