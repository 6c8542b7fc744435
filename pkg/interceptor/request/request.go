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

// Package request traces calls made through httpclient.Client.Request.
//
// Instrument rebinds the client's Request method so every call is wrapped in
// an "http.request" span and carries the active trace context in its option
// headers. Callers of the client do not change:
//
//	request.Instrument(request.WithTracer(tracer))
//	defer request.Remove()
//
//	resp, err := client.Request(ctx, "GET", uri, nil)
//
// Tags the URI does not expose (a custom URI with only a host, say) are
// reported with a nil value.
package request

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/tombee/httptrace/pkg/httpclient"
	"github.com/tombee/httptrace/pkg/interceptor"
	"github.com/tombee/httptrace/pkg/observability"
)

// Component is the value of the component tag on spans from this package.
const Component = "HTTP"

// IgnoreFunc decides whether a call bypasses tracing.
type IgnoreFunc func(verb string, uri httpclient.URI, opts *httpclient.Options) bool

// NeverIgnore is the default IgnoreFunc.
func NeverIgnore(string, httpclient.URI, *httpclient.Options) bool { return false }

// Option configures Instrument.
type Option func(*interceptor.Config[IgnoreFunc])

// WithTracer sets the tracer. Defaults to observability.GlobalTracer().
func WithTracer(t observability.Tracer) Option {
	return func(c *interceptor.Config[IgnoreFunc]) {
		if t != nil {
			c.Tracer = t
		}
	}
}

// WithIgnoreRequest sets the ignore predicate. Defaults to NeverIgnore.
func WithIgnoreRequest(fn IgnoreFunc) Option {
	return func(c *interceptor.Config[IgnoreFunc]) {
		if fn != nil {
			c.Ignore = fn
		}
	}
}

var registration interceptor.Registration[httpclient.RequestFunc, IgnoreFunc]

// Instrument installs the interceptor. Calling it again while installed only
// replaces the tracer and ignore predicate.
//
// Instrument and Remove must not run concurrently with each other; do it once
// during process setup.
func Instrument(opts ...Option) {
	cfg := interceptor.Config[IgnoreFunc]{
		Tracer: observability.GlobalTracer(),
		Ignore: NeverIgnore,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	reinstall := registration.Installed()
	registration.Install(cfg, httpclient.RequestMethod, httpclient.SetRequestMethod, wrap)
	slog.Debug("request interceptor installed", "component", Component, "reconfigured", reinstall)
}

// Remove restores the original Request method. It is a no-op when the
// interceptor is not installed.
func Remove() {
	if registration.Remove(httpclient.SetRequestMethod) {
		slog.Debug("request interceptor removed", "component", Component)
	}
}

// Installed reports whether the interceptor is installed.
func Installed() bool {
	return registration.Installed()
}

func wrap(original httpclient.RequestFunc) httpclient.RequestFunc {
	return func(c *httpclient.Client, ctx context.Context, verb string, uri httpclient.URI, opts *httpclient.Options) (httpclient.Response, error) {
		cfg := registration.Config()
		if cfg == nil || cfg.Ignore(verb, uri, opts) {
			return original(c, ctx, verb, uri, opts)
		}

		if opts == nil {
			opts = &httpclient.Options{}
		}
		if opts.Headers == nil {
			opts.Headers = make(http.Header)
		}

		tags := interceptor.ExtractURI(uri).WithMethod(verb).Tags(Component, interceptor.MissingAsNil)

		return interceptor.Trace(ctx, cfg.Tracer, tags, opts.Headers, func(ctx context.Context) (httpclient.Response, error) {
			return original(c, ctx, verb, uri, opts)
		})
	}
}
