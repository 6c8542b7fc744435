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
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsCollector records per-span client metrics.
type MetricsCollector struct {
	spansTotal   metric.Int64Counter
	spansActive  metric.Int64UpDownCounter
	spanDuration metric.Float64Histogram
}

// NewMetricsCollector creates a new metrics collector using the given meter provider.
func NewMetricsCollector(meterProvider metric.MeterProvider) (*MetricsCollector, error) {
	meter := meterProvider.Meter("httptrace")

	mc := &MetricsCollector{}

	var err error
	mc.spansTotal, err = meter.Int64Counter(
		"httptrace.client.spans",
		metric.WithDescription("Total number of intercepted client calls"),
		metric.WithUnit("{span}"),
	)
	if err != nil {
		return nil, err
	}

	mc.spansActive, err = meter.Int64UpDownCounter(
		"httptrace.client.spans.active",
		metric.WithDescription("Number of intercepted client calls in flight"),
		metric.WithUnit("{span}"),
	)
	if err != nil {
		return nil, err
	}

	mc.spanDuration, err = meter.Float64Histogram(
		"httptrace.client.span.duration",
		metric.WithDescription("Intercepted client call duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10),
	)
	if err != nil {
		return nil, err
	}

	return mc, nil
}

// RecordStart marks a span as in flight.
func (mc *MetricsCollector) RecordStart(ctx context.Context, component string) {
	if mc == nil {
		return
	}
	mc.spansActive.Add(ctx, 1, metric.WithAttributes(attribute.String("component", component)))
}

// RecordEnd records a finished span. status is 0 when no response was seen.
func (mc *MetricsCollector) RecordEnd(ctx context.Context, component string, status int, failed bool, d time.Duration) {
	if mc == nil {
		return
	}
	comp := attribute.String("component", component)
	mc.spansActive.Add(ctx, -1, metric.WithAttributes(comp))

	attrs := metric.WithAttributes(
		comp,
		attribute.String("status_class", StatusClass(status)),
		attribute.Bool("error", failed),
	)
	mc.spansTotal.Add(ctx, 1, attrs)
	mc.spanDuration.Record(ctx, d.Seconds(), attrs)
}

// StatusClass buckets an HTTP status code as "2xx", "4xx" and so on.
// Codes outside 100-599 report "none".
func StatusClass(status int) string {
	if status < 100 || status > 599 {
		return "none"
	}
	return strconv.Itoa(status/100) + "xx"
}
