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

// Package perform traces calls made through httpclient.Client.Perform.
//
// Where the request package observes the high-level verb/URI call, this
// package observes the already-built *httpclient.Request, and injects the
// trace context into the request's own headers: the ones that are written to
// the wire.
//
// Tags the request does not expose are omitted from the span rather than
// reported as nil.
//
// Instrument checks the client library version before installing anything.
// A client that cannot be located is not an error; a client that is too old
// is.
package perform

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/tombee/httptrace/pkg/errors"
	"github.com/tombee/httptrace/pkg/httpclient"
	"github.com/tombee/httptrace/pkg/interceptor"
	"github.com/tombee/httptrace/pkg/observability"
)

// Component is the value of the component tag on spans from this package.
const Component = "go-httpclient"

// MinimumClientVersion is the oldest httpclient version that can be patched.
const MinimumClientVersion = "0.1.0"

// IgnoreFunc decides whether a call bypasses tracing.
type IgnoreFunc func(req *httpclient.Request, opts *httpclient.Options) bool

// NeverIgnore is the default IgnoreFunc.
func NeverIgnore(*httpclient.Request, *httpclient.Options) bool { return false }

// Locator reports the version of the client library to patch, and whether it
// is available at all.
type Locator func() (version string, found bool)

// DefaultLocator reports the compiled-in httpclient version.
func DefaultLocator() (string, bool) {
	return httpclient.Version, true
}

type settings struct {
	config  interceptor.Config[IgnoreFunc]
	locator Locator
}

// Option configures Instrument.
type Option func(*settings)

// WithTracer sets the tracer. Defaults to observability.GlobalTracer().
func WithTracer(t observability.Tracer) Option {
	return func(s *settings) {
		if t != nil {
			s.config.Tracer = t
		}
	}
}

// WithIgnoreRequest sets the ignore predicate. Defaults to NeverIgnore.
func WithIgnoreRequest(fn IgnoreFunc) Option {
	return func(s *settings) {
		if fn != nil {
			s.config.Ignore = fn
		}
	}
}

// WithLocator overrides how the client library version is found.
func WithLocator(l Locator) Option {
	return func(s *settings) {
		if l != nil {
			s.locator = l
		}
	}
}

var registration interceptor.Registration[httpclient.PerformFunc, IgnoreFunc]

// Instrument installs the interceptor. Calling it again while installed only
// replaces the tracer and ignore predicate.
//
// It returns nil without installing anything when the client library cannot
// be located, and an *errors.IncompatibleVersionError when it is older than
// MinimumClientVersion.
func Instrument(opts ...Option) error {
	s := settings{
		config: interceptor.Config[IgnoreFunc]{
			Tracer: observability.GlobalTracer(),
			Ignore: NeverIgnore,
		},
		locator: DefaultLocator,
	}
	for _, opt := range opts {
		opt(&s)
	}

	version, found := s.locator()
	if !found {
		slog.Debug("perform interceptor skipped, client library not found", "component", Component)
		return nil
	}
	if err := checkVersion(version); err != nil {
		return err
	}

	reinstall := registration.Installed()
	registration.Install(s.config, httpclient.PerformMethod, httpclient.SetPerformMethod, wrap)
	slog.Debug("perform interceptor installed",
		"component", Component,
		"client_version", version,
		"reconfigured", reinstall,
	)
	return nil
}

// Remove restores the original Perform method. It is a no-op when the
// interceptor is not installed.
func Remove() {
	if registration.Remove(httpclient.SetPerformMethod) {
		slog.Debug("perform interceptor removed", "component", Component)
	}
}

// Installed reports whether the interceptor is installed.
func Installed() bool {
	return registration.Installed()
}

func checkVersion(version string) error {
	v := canonical(version)
	if !semver.IsValid(v) {
		return &errors.IncompatibleVersionError{
			Target:  "httpclient",
			Version: version,
			Minimum: MinimumClientVersion,
			Cause:   fmt.Errorf("not a semantic version"),
		}
	}
	if semver.Compare(v, canonical(MinimumClientVersion)) < 0 {
		return &errors.IncompatibleVersionError{
			Target:  "httpclient",
			Version: version,
			Minimum: MinimumClientVersion,
		}
	}
	return nil
}

func canonical(v string) string {
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return v
}

func wrap(original httpclient.PerformFunc) httpclient.PerformFunc {
	return func(c *httpclient.Client, ctx context.Context, req *httpclient.Request, opts *httpclient.Options) (httpclient.Response, error) {
		cfg := registration.Config()
		if cfg == nil || req == nil || cfg.Ignore(req, opts) {
			return original(c, ctx, req, opts)
		}

		if req.Headers == nil {
			req.Headers = make(http.Header)
		}

		tags := requestAttributes(req).Tags(Component, interceptor.MissingOmitted)

		return interceptor.Trace(ctx, cfg.Tracer, tags, req.Headers, func(ctx context.Context) (httpclient.Response, error) {
			return original(c, ctx, req, opts)
		})
	}
}

func requestAttributes(req *httpclient.Request) interceptor.Attributes {
	a := interceptor.ExtractURI(req.URI)
	if req.Verb != "" {
		a = a.WithMethod(strings.ToUpper(req.Verb))
	}
	return a
}
