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

// Package session wires a loaded configuration into a running tracer
// provider and the installed client interceptors.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/tombee/httptrace/internal/config"
	"github.com/tombee/httptrace/internal/ignore"
	"github.com/tombee/httptrace/internal/secrets"
	"github.com/tombee/httptrace/internal/tracing"
	"github.com/tombee/httptrace/pkg/httpclient"
	"github.com/tombee/httptrace/pkg/interceptor/perform"
	"github.com/tombee/httptrace/pkg/interceptor/request"
	"github.com/tombee/httptrace/pkg/observability"
)

// InstrumentationName is the OpenTelemetry scope name of emitted spans.
const InstrumentationName = "github.com/tombee/httptrace"

// Session owns the tracer provider and the interceptor registrations.
type Session struct {
	provider *tracing.Provider
	tracer   observability.Tracer
	locator  perform.Locator

	mu     sync.Mutex
	level  string
	closed bool
}

type options struct {
	providerOpts []sdktrace.TracerProviderOption
	locator      perform.Locator
	secrets      *secrets.Resolver
}

// Option configures Start.
type Option func(*options)

// WithProviderOptions passes extra options to the SDK tracer provider.
func WithProviderOptions(opts ...sdktrace.TracerProviderOption) Option {
	return func(o *options) {
		o.providerOpts = append(o.providerOpts, opts...)
	}
}

// WithLocator overrides how the perform interceptor finds the client version.
func WithLocator(l perform.Locator) Option {
	return func(o *options) {
		o.locator = l
	}
}

// WithSecrets sets the resolver for ${secret:name} references in exporter
// headers. The default is secrets.Default, created only when a reference is
// present.
func WithSecrets(r *secrets.Resolver) Option {
	return func(o *options) {
		o.secrets = r
	}
}

// Start creates the tracer provider, registers its tracer as the global
// tracer and installs the interceptors selected by cfg.
func Start(ctx context.Context, cfg *config.Config, opts ...Option) (*Session, error) {
	o := options{locator: perform.DefaultLocator}
	for _, opt := range opts {
		opt(&o)
	}

	tcfg, err := expandSecrets(ctx, cfg.Tracing, o.secrets)
	if err != nil {
		return nil, err
	}

	provider, err := tracing.NewProvider(ctx, tcfg, o.providerOpts...)
	if err != nil {
		return nil, err
	}

	tracer := provider.Tracer(InstrumentationName)
	observability.SetGlobalTracer(tracer)

	s := &Session{
		provider: provider,
		tracer:   tracer,
		locator:  o.locator,
	}
	if err := s.Apply(cfg); err != nil {
		_ = s.Close(ctx)
		return nil, err
	}
	return s, nil
}

// expandSecrets returns cfg with secret references in exporter headers
// resolved. cfg itself is not modified.
func expandSecrets(ctx context.Context, cfg tracing.Config, r *secrets.Resolver) (tracing.Config, error) {
	exporters := make([]tracing.ExporterConfig, len(cfg.Exporters))
	copy(exporters, cfg.Exporters)

	for i, e := range exporters {
		needed := false
		for _, v := range e.Headers {
			needed = needed || secrets.HasReference(v)
		}
		if !needed {
			continue
		}
		if r == nil {
			r = secrets.Default()
		}
		headers, err := r.ExpandMap(ctx, e.Headers)
		if err != nil {
			return cfg, fmt.Errorf("exporters[%d] headers: %w", i, err)
		}
		exporters[i].Headers = headers
	}

	cfg.Exporters = exporters
	return cfg, nil
}

// Apply installs or removes interceptors to match cfg.Interceptor.Level and
// installs cfg.Ignore as their predicate. Levels already installed keep
// their wrapper and only swap the predicate.
func (s *Session) Apply(cfg *config.Config) error {
	matcher, err := ignore.Compile(cfg.Ignore)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("session closed")
	}

	level := cfg.Interceptor.Level
	wantRequest := level == config.LevelRequest || level == config.LevelBoth
	wantPerform := level == config.LevelPerform || level == config.LevelBoth
	if !wantRequest && !wantPerform {
		return fmt.Errorf("unknown interceptor level %q", level)
	}

	if wantPerform {
		if err := perform.Instrument(
			perform.WithTracer(s.tracer),
			perform.WithIgnoreRequest(matcher.PerformPredicate()),
			perform.WithLocator(s.locator),
		); err != nil {
			return err
		}
	} else {
		perform.Remove()
	}

	if wantRequest {
		request.Instrument(
			request.WithTracer(s.tracer),
			request.WithIgnoreRequest(matcher.RequestPredicate()),
		)
	} else {
		request.Remove()
	}

	if s.level != level {
		slog.Info("interceptors configured", "level", level, "client_version", httpclient.Version)
	}
	s.level = level
	return nil
}

// Level returns the interceptor level currently applied.
func (s *Session) Level() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.level
}

// Tracer returns the tracer installed by Start.
func (s *Session) Tracer() observability.Tracer {
	return s.tracer
}

// MetricsHandler serves client span metrics in Prometheus format.
func (s *Session) MetricsHandler() http.Handler {
	return s.provider.MetricsHandler()
}

// Close removes both interceptors, resets the global tracer and flushes the
// provider. Calling Close more than once is safe.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	request.Remove()
	perform.Remove()
	observability.SetGlobalTracer(nil)

	return errors.Join(s.provider.ForceFlush(ctx), s.provider.Shutdown(ctx))
}
