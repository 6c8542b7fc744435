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

/*
Package tracing provides the OpenTelemetry backend for the observability
contract used by the HTTP client interceptors.

# Provider

NewProvider builds an SDK tracer provider from Config: sampler, resource,
and one span processor per configured exporter (console, OTLP gRPC, OTLP
HTTP, or the local SQLite journal). It also owns a Prometheus registry fed
by a MetricsCollector, served through MetricsHandler.

	provider, err := tracing.NewProvider(ctx, cfg)
	if err != nil {
		return err
	}
	defer provider.Shutdown(ctx)

	observability.SetGlobalTracer(provider.Tracer("httptrace"))

# Propagation

Tracer.Inject writes W3C traceparent and baggage headers into an
http.Header or map[string]string carrier.

# Correlation IDs

A CorrelationID stored in the context is sent as X-Correlation-ID by the
client transport and recorded on every span started under that context.
*/
package tracing
