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

package export

import (
	"bytes"
	"context"
	"crypto/tls"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestBuildTLSConfig_Disabled(t *testing.T) {
	cfg, err := BuildTLSConfig(TLSOptions{})
	require.NoError(t, err)
	assert.Nil(t, cfg)
}

func TestBuildTLSConfig_Defaults(t *testing.T) {
	cfg, err := BuildTLSConfig(TLSOptions{Enabled: true})
	require.NoError(t, err)
	assert.Equal(t, uint16(tls.VersionTLS12), cfg.MinVersion)
	assert.False(t, cfg.InsecureSkipVerify)
	assert.Nil(t, cfg.RootCAs)
}

func TestBuildTLSConfig_BadCA(t *testing.T) {
	_, err := BuildTLSConfig(TLSOptions{Enabled: true, CACertPath: "/does/not/exist.pem"})
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "ca.pem")
	require.NoError(t, os.WriteFile(path, []byte("not a certificate"), 0o600))
	_, err = BuildTLSConfig(TLSOptions{Enabled: true, CACertPath: path})
	assert.ErrorContains(t, err, "failed to parse CA certificate")
}

func TestValidateTLSConfig(t *testing.T) {
	assert.Error(t, ValidateTLSConfig(nil))
	assert.Error(t, ValidateTLSConfig(&tls.Config{MinVersion: tls.VersionTLS11}))
	assert.NoError(t, ValidateTLSConfig(&tls.Config{MinVersion: tls.VersionTLS13}))
}

func TestNewOTLPExporters_RejectWeakTLS(t *testing.T) {
	cfg := OTLPConfig{Endpoint: "localhost:4317", TLSConfig: &tls.Config{MinVersion: tls.VersionTLS10}}

	_, err := NewOTLPExporter(context.Background(), cfg)
	assert.ErrorContains(t, err, "invalid TLS config")

	_, err = NewOTLPHTTPExporter(context.Background(), cfg)
	assert.ErrorContains(t, err, "invalid TLS config")
}

func TestNewConsoleExporter_WritesSpans(t *testing.T) {
	var buf bytes.Buffer
	exporter, err := NewConsoleExporter(ConsoleConfig{Writer: &buf})
	require.NoError(t, err)

	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	_, span := tp.Tracer("test").Start(context.Background(), "http.request")
	span.End()
	require.NoError(t, tp.Shutdown(context.Background()))

	assert.Contains(t, buf.String(), "http.request")
}
