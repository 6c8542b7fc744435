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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCorrelationID(t *testing.T) {
	id := NewCorrelationID()
	assert.Len(t, id.String(), 36)
	assert.True(t, id.IsValid())
	assert.NotEqual(t, id, NewCorrelationID())

	assert.False(t, CorrelationID("").IsValid())
	assert.False(t, CorrelationID("not-a-uuid").IsValid())
	// uuid.Parse accepts the urn form; the header value must be canonical.
	assert.False(t, CorrelationID("urn:uuid:"+id.String()).IsValid())
}

func TestParseCorrelationID(t *testing.T) {
	id, ok := ParseCorrelationID("550e8400-e29b-41d4-a716-446655440000")
	assert.True(t, ok)
	assert.Equal(t, CorrelationID("550e8400-e29b-41d4-a716-446655440000"), id)

	_, ok = ParseCorrelationID("550e8400e29b41d4a716446655440000")
	assert.False(t, ok)
}

func TestCorrelationContext(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, FromContextOrEmpty(ctx))

	id := NewCorrelationID()
	assert.Equal(t, id, FromContextOrEmpty(ToContext(ctx, id)))
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "no service", mutate: func(c *Config) { c.ServiceName = "" }, wantErr: "service_name"},
		{name: "bad rate", mutate: func(c *Config) { c.Sampling.Rate = -0.1 }, wantErr: "sampling.rate"},
		{name: "bad batch", mutate: func(c *Config) { c.BatchSize = -1 }, wantErr: "batch_size"},
		{
			name:    "otlp without endpoint",
			mutate:  func(c *Config) { c.Exporters = []ExporterConfig{{Type: ExporterOTLP}} },
			wantErr: "endpoint is required",
		},
		{
			name:    "journal without path",
			mutate:  func(c *Config) { c.Exporters = []ExporterConfig{{Type: ExporterJournal}} },
			wantErr: "path is required",
		},
		{
			name:    "unknown exporter",
			mutate:  func(c *Config) { c.Exporters = []ExporterConfig{{Type: "zipkin"}} },
			wantErr: "unknown exporter type",
		},
		{
			name: "valid exporters",
			mutate: func(c *Config) {
				c.Exporters = []ExporterConfig{
					{Type: ExporterConsole},
					{Type: ExporterOTLPHTTP, Endpoint: "localhost:4318"},
					{Type: ExporterNone},
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tt.wantErr)
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "httptrace", cfg.ServiceName)
	assert.Equal(t, 1.0, cfg.Sampling.Rate)
	assert.Equal(t, 5*time.Second, cfg.BatchInterval)
	assert.Empty(t, cfg.Exporters)
}

func TestCreateExporter(t *testing.T) {
	ctx := context.Background()

	exp, err := CreateExporter(ctx, ExporterConfig{Type: ExporterNone})
	assert.NoError(t, err)
	assert.Nil(t, exp)

	exp, err = CreateExporter(ctx, ExporterConfig{Type: ExporterConsole})
	assert.NoError(t, err)
	assert.NotNil(t, exp)

	_, err = CreateExporter(ctx, ExporterConfig{Type: "zipkin"})
	assert.Error(t, err)

	_, err = CreateExporter(ctx, ExporterConfig{
		Type:     ExporterOTLP,
		Endpoint: "localhost:4317",
		TLS:      TLSConfig{Enabled: true, CACertPath: "/missing/ca.pem"},
	})
	assert.ErrorContains(t, err, "failed to build TLS config")
}

func TestCreateExportersFromConfig_SkipsFailures(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Exporters = []ExporterConfig{
		{Type: ExporterConsole},
		{Type: "zipkin"},
		{Type: ExporterNone},
	}
	processors := CreateExportersFromConfig(context.Background(), cfg)
	assert.Len(t, processors, 1)
	for _, p := range processors {
		_ = p.Shutdown(context.Background())
	}
}
