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
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// NewSampler creates an OpenTelemetry sampler from the configuration.
func NewSampler(cfg SamplingConfig) sdktrace.Sampler {
	var root sdktrace.Sampler
	switch {
	case cfg.Rate >= 1.0:
		root = sdktrace.AlwaysSample()
	case cfg.Rate <= 0.0:
		root = sdktrace.NeverSample()
	default:
		root = sdktrace.TraceIDRatioBased(cfg.Rate)
	}

	if cfg.ParentBased {
		return sdktrace.ParentBased(root)
	}
	return root
}
