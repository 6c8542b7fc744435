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
	"fmt"
	"time"
)

// Exporter types accepted in ExporterConfig.Type.
const (
	ExporterConsole  = "console"
	ExporterOTLP     = "otlp"
	ExporterOTLPHTTP = "otlp-http"
	ExporterJournal  = "journal"
	ExporterNone     = "none"
)

// Config holds tracer provider configuration.
type Config struct {
	// ServiceName identifies this process in traces.
	ServiceName string `yaml:"service_name"`

	// ServiceVersion is reported as service.version.
	ServiceVersion string `yaml:"service_version"`

	// Sampling configures trace sampling.
	Sampling SamplingConfig `yaml:"sampling"`

	// Exporters lists span export destinations. Empty means spans are
	// recorded but never exported.
	Exporters []ExporterConfig `yaml:"exporters"`

	// BatchSize is the maximum number of spans per export batch (default: 512).
	BatchSize int `yaml:"batch_size"`

	// BatchInterval is how often to flush spans (default: 5s).
	BatchInterval time.Duration `yaml:"batch_interval"`
}

// SamplingConfig controls which traces are recorded.
type SamplingConfig struct {
	// Rate is the fraction of root traces to sample (0.0 - 1.0).
	Rate float64 `yaml:"rate"`

	// ParentBased makes child spans follow the sampled flag of an incoming
	// parent context.
	ParentBased bool `yaml:"parent_based"`
}

// ExporterConfig defines one export destination.
type ExporterConfig struct {
	// Type is one of console, otlp, otlp-http, journal or none.
	Type string `yaml:"type"`

	// Endpoint is the OTLP receiver address.
	Endpoint string `yaml:"endpoint"`

	// Headers are sent with every OTLP export, typically for auth.
	Headers map[string]string `yaml:"headers"`

	// TLS configures secure OTLP connections.
	TLS TLSConfig `yaml:"tls"`

	// Path is the SQLite file for the journal exporter.
	Path string `yaml:"path"`

	// Pretty enables indented console output.
	Pretty bool `yaml:"pretty"`
}

// TLSConfig configures TLS for exporters.
type TLSConfig struct {
	Enabled    bool   `yaml:"enabled"`
	SkipVerify bool   `yaml:"skip_verify"`
	CACertPath string `yaml:"ca_cert_path"`
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		ServiceName:    "httptrace",
		ServiceVersion: "unknown",
		Sampling: SamplingConfig{
			Rate:        1.0,
			ParentBased: true,
		},
		BatchSize:     512,
		BatchInterval: 5 * time.Second,
	}
}

// Validate checks the configuration for values the SDK would reject.
func (c Config) Validate() error {
	if c.ServiceName == "" {
		return fmt.Errorf("service_name is required")
	}
	if c.Sampling.Rate < 0 || c.Sampling.Rate > 1 {
		return fmt.Errorf("sampling.rate must be between 0 and 1, got %v", c.Sampling.Rate)
	}
	if c.BatchSize < 0 {
		return fmt.Errorf("batch_size must be >= 0, got %d", c.BatchSize)
	}
	for i, e := range c.Exporters {
		switch e.Type {
		case ExporterConsole, ExporterNone, "":
		case ExporterOTLP, ExporterOTLPHTTP:
			if e.Endpoint == "" {
				return fmt.Errorf("exporters[%d]: endpoint is required for %s", i, e.Type)
			}
		case ExporterJournal:
			if e.Path == "" {
				return fmt.Errorf("exporters[%d]: path is required for journal", i)
			}
		default:
			return fmt.Errorf("exporters[%d]: unknown exporter type %q", i, e.Type)
		}
	}
	return nil
}
